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

type TaskRepo struct {
	pool *pgxpool.Pool
}

func NewTaskRepo(pool *pgxpool.Pool) *TaskRepo {
	return &TaskRepo{pool: pool}
}

func (r *TaskRepo) Create(ctx context.Context, t *models.Task) error {
	t.ID = uuid.New()
	if t.Status == "" {
		t.Status = models.TaskOpen
	}

	query := `INSERT INTO tasks (id, workspace_id, course_id, exam_id, title, description, status, due_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		t.ID, t.WorkspaceID, t.CourseID, t.ExamID, t.Title, t.Description, t.Status, t.DueAt,
	).Scan(&t.CreatedAt)
}

func (r *TaskRepo) GetByID(ctx context.Context, workspaceID, id uuid.UUID) (*models.Task, error) {
	t := &models.Task{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, workspace_id, course_id, exam_id, title, description, status, due_at, completed_at, created_at
		FROM tasks WHERE workspace_id = $1 AND id = $2
	`, workspaceID, id).Scan(
		&t.ID, &t.WorkspaceID, &t.CourseID, &t.ExamID, &t.Title, &t.Description,
		&t.Status, &t.DueAt, &t.CompletedAt, &t.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &session.NotFoundError{Message: "Task not found"}
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *TaskRepo) ListByWorkspace(ctx context.Context, workspaceID uuid.UUID, status string) ([]models.Task, error) {
	query := `
		SELECT id, workspace_id, course_id, exam_id, title, description, status, due_at, completed_at, created_at
		FROM tasks WHERE workspace_id = $1`
	args := []interface{}{workspaceID}

	if status != "" {
		query += " AND status = $2"
		args = append(args, status)
	}
	query += " ORDER BY due_at ASC NULLS LAST, created_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		var t models.Task
		err := rows.Scan(
			&t.ID, &t.WorkspaceID, &t.CourseID, &t.ExamID, &t.Title, &t.Description,
			&t.Status, &t.DueAt, &t.CompletedAt, &t.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *TaskRepo) Update(ctx context.Context, t *models.Task) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE tasks SET course_id = $1, exam_id = $2, title = $3, description = $4, due_at = $5
		WHERE workspace_id = $6 AND id = $7
	`, t.CourseID, t.ExamID, t.Title, t.Description, t.DueAt, t.WorkspaceID, t.ID)
	return err
}

func (r *TaskRepo) SetStatus(ctx context.Context, workspaceID, id uuid.UUID, status string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE tasks
		SET status = $3,
			completed_at = CASE WHEN $3 = 'done' THEN NOW() ELSE NULL END
		WHERE workspace_id = $1 AND id = $2
	`, workspaceID, id, status)
	return err
}

func (r *TaskRepo) Delete(ctx context.Context, workspaceID, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM tasks WHERE workspace_id = $1 AND id = $2", workspaceID, id)
	return err
}
