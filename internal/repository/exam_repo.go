package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"studyden-backend/internal/models"
	"studyden-backend/internal/session"
)

type ExamRepo struct {
	pool *pgxpool.Pool
}

func NewExamRepo(pool *pgxpool.Pool) *ExamRepo {
	return &ExamRepo{pool: pool}
}

func (r *ExamRepo) Create(ctx context.Context, e *models.Exam) error {
	e.ID = uuid.New()
	query := `INSERT INTO exams (id, workspace_id, course_id, title, starts_at, location, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		e.ID, e.WorkspaceID, e.CourseID, e.Title, e.StartsAt, e.Location, e.Notes,
	).Scan(&e.CreatedAt)
}

func (r *ExamRepo) GetByID(ctx context.Context, workspaceID, id uuid.UUID) (*models.Exam, error) {
	e := &models.Exam{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, workspace_id, course_id, title, starts_at, location, notes, created_at
		FROM exams WHERE workspace_id = $1 AND id = $2
	`, workspaceID, id).Scan(
		&e.ID, &e.WorkspaceID, &e.CourseID, &e.Title, &e.StartsAt, &e.Location, &e.Notes, &e.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &session.NotFoundError{Message: "Exam not found"}
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *ExamRepo) ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]models.Exam, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, workspace_id, course_id, title, starts_at, location, notes, created_at
		FROM exams WHERE workspace_id = $1
		ORDER BY starts_at ASC
	`, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exams []models.Exam
	for rows.Next() {
		var e models.Exam
		if err := rows.Scan(&e.ID, &e.WorkspaceID, &e.CourseID, &e.Title, &e.StartsAt, &e.Location, &e.Notes, &e.CreatedAt); err != nil {
			return nil, err
		}
		exams = append(exams, e)
	}
	return exams, rows.Err()
}

func (r *ExamRepo) Update(ctx context.Context, e *models.Exam) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE exams SET course_id = $1, title = $2, starts_at = $3, location = $4, notes = $5
		WHERE workspace_id = $6 AND id = $7
	`, e.CourseID, e.Title, e.StartsAt, e.Location, e.Notes, e.WorkspaceID, e.ID)
	return err
}

func (r *ExamRepo) Delete(ctx context.Context, workspaceID, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM exams WHERE workspace_id = $1 AND id = $2", workspaceID, id)
	return err
}
