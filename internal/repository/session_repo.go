package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"studyden-backend/internal/models"
	"studyden-backend/internal/session"
)

type SessionRepo struct {
	pool *pgxpool.Pool
}

func NewSessionRepo(pool *pgxpool.Pool) *SessionRepo {
	return &SessionRepo{pool: pool}
}

// Create inserts a new ACTIVE session row. The partial unique index
// one_active_session_per_workspace turns a second concurrent start into a
// ConflictError, so "one running session per workspace" holds even when two
// tabs race each other.
func (r *SessionRepo) Create(ctx context.Context, s *models.StudySession) error {
	s.ID = uuid.New()

	query := `
		INSERT INTO study_sessions
			(id, workspace_id, course_id, task_id, exam_id, status, planned_duration_minutes, started_at, mood)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`

	err := r.pool.QueryRow(ctx, query,
		s.ID, s.WorkspaceID, s.CourseID, s.TaskID, s.ExamID,
		s.Status, s.PlannedDurationMinutes, s.StartedAt, s.Mood,
	).Scan(&s.CreatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return &session.ConflictError{Message: "A study session is already running in this workspace"}
	}
	return err
}

// Finish applies the one-and-only terminal write. The WHERE clause keeps
// terminal rows immutable: zero rows affected on an existing row means the
// session already ended, which comes back as an InvalidStateError.
func (r *SessionRepo) Finish(ctx context.Context, id uuid.UUID, status string, endedAt time.Time, durationMinutes int, notes *string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE study_sessions
		SET status = $2,
			ended_at = $3,
			duration_minutes = $4,
			notes = COALESCE($5, notes)
		WHERE id = $1
		  AND status = 'ACTIVE'
	`, id, status, endedAt, durationMinutes, notes)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		var current string
		err := r.pool.QueryRow(ctx, "SELECT status FROM study_sessions WHERE id = $1", id).Scan(&current)
		if errors.Is(err, pgx.ErrNoRows) {
			return &session.NotFoundError{Message: "Session not found"}
		}
		if err != nil {
			return err
		}
		return &session.InvalidStateError{Message: "Session has already ended with status " + current}
	}
	return nil
}

func (r *SessionRepo) GetByID(ctx context.Context, workspaceID, id uuid.UUID) (*models.StudySession, error) {
	s := &models.StudySession{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, workspace_id, course_id, task_id, exam_id, status,
			planned_duration_minutes, duration_minutes, started_at, ended_at,
			notes, mood, created_at
		FROM study_sessions
		WHERE workspace_id = $1 AND id = $2
	`, workspaceID, id).Scan(
		&s.ID, &s.WorkspaceID, &s.CourseID, &s.TaskID, &s.ExamID, &s.Status,
		&s.PlannedDurationMinutes, &s.DurationMinutes, &s.StartedAt, &s.EndedAt,
		&s.Notes, &s.Mood, &s.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &session.NotFoundError{Message: "Session not found"}
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// ListByWorkspace returns full session history, newest first, decorated
// with course/task/exam display fields for the history view.
func (r *SessionRepo) ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]models.StudySession, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT s.id, s.workspace_id, s.course_id, s.task_id, s.exam_id, s.status,
			s.planned_duration_minutes, s.duration_minutes, s.started_at, s.ended_at,
			s.notes, s.mood, s.created_at,
			c.code, c.title, t.title, e.title
		FROM study_sessions s
		LEFT JOIN courses c ON c.id = s.course_id
		LEFT JOIN tasks t ON t.id = s.task_id
		LEFT JOIN exams e ON e.id = s.exam_id
		WHERE s.workspace_id = $1
		ORDER BY s.started_at DESC
	`, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []models.StudySession
	for rows.Next() {
		var s models.StudySession
		err := rows.Scan(
			&s.ID, &s.WorkspaceID, &s.CourseID, &s.TaskID, &s.ExamID, &s.Status,
			&s.PlannedDurationMinutes, &s.DurationMinutes, &s.StartedAt, &s.EndedAt,
			&s.Notes, &s.Mood, &s.CreatedAt,
			&s.CourseCode, &s.CourseTitle, &s.TaskTitle, &s.ExamTitle,
		)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}

	return sessions, rows.Err()
}

// FindActive returns the workspace's running session, or nil when there is
// none. Used to rebuild the "active" view after a server restart.
func (r *SessionRepo) FindActive(ctx context.Context, workspaceID uuid.UUID) (*models.StudySession, error) {
	s := &models.StudySession{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, workspace_id, course_id, task_id, exam_id, status,
			planned_duration_minutes, duration_minutes, started_at, ended_at,
			notes, mood, created_at
		FROM study_sessions
		WHERE workspace_id = $1 AND status = 'ACTIVE'
	`, workspaceID).Scan(
		&s.ID, &s.WorkspaceID, &s.CourseID, &s.TaskID, &s.ExamID, &s.Status,
		&s.PlannedDurationMinutes, &s.DurationMinutes, &s.StartedAt, &s.EndedAt,
		&s.Notes, &s.Mood, &s.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// ReapStale interrupts ACTIVE rows abandoned past their planned length plus
// a grace window. Duration is capped at the planned length; running past
// zero unattended earns no extra minutes.
func (r *SessionRepo) ReapStale(ctx context.Context, graceHours int) (int, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE study_sessions
		SET status = 'INTERRUPTED',
			ended_at = started_at + make_interval(mins => planned_duration_minutes),
			duration_minutes = planned_duration_minutes,
			notes = COALESCE(notes, 'Closed automatically: session was left running')
		WHERE status = 'ACTIVE'
		  AND started_at + make_interval(mins => planned_duration_minutes) < NOW() - make_interval(hours => $1)
	`, graceHours)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
