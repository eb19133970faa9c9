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

type CourseRepo struct {
	pool *pgxpool.Pool
}

func NewCourseRepo(pool *pgxpool.Pool) *CourseRepo {
	return &CourseRepo{pool: pool}
}

func (r *CourseRepo) Create(ctx context.Context, c *models.Course) error {
	c.ID = uuid.New()
	query := `INSERT INTO courses (id, workspace_id, code, title, color, term)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		c.ID, c.WorkspaceID, c.Code, c.Title, c.Color, c.Term,
	).Scan(&c.CreatedAt)
}

func (r *CourseRepo) GetByID(ctx context.Context, workspaceID, id uuid.UUID) (*models.Course, error) {
	c := &models.Course{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, workspace_id, code, title, color, term, is_archived, created_at
		FROM courses WHERE workspace_id = $1 AND id = $2
	`, workspaceID, id).Scan(
		&c.ID, &c.WorkspaceID, &c.Code, &c.Title, &c.Color, &c.Term, &c.IsArchived, &c.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &session.NotFoundError{Message: "Course not found"}
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *CourseRepo) ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]models.Course, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, workspace_id, code, title, color, term, is_archived, created_at
		FROM courses WHERE workspace_id = $1 AND is_archived = FALSE
		ORDER BY code ASC
	`, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var courses []models.Course
	for rows.Next() {
		var c models.Course
		if err := rows.Scan(&c.ID, &c.WorkspaceID, &c.Code, &c.Title, &c.Color, &c.Term, &c.IsArchived, &c.CreatedAt); err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

func (r *CourseRepo) Update(ctx context.Context, c *models.Course) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE courses SET code = $1, title = $2, color = $3, term = $4 WHERE workspace_id = $5 AND id = $6",
		c.Code, c.Title, c.Color, c.Term, c.WorkspaceID, c.ID,
	)
	return err
}

func (r *CourseRepo) Archive(ctx context.Context, workspaceID, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE courses SET is_archived = TRUE WHERE workspace_id = $1 AND id = $2",
		workspaceID, id,
	)
	return err
}

func (r *CourseRepo) Delete(ctx context.Context, workspaceID, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		"DELETE FROM courses WHERE workspace_id = $1 AND id = $2",
		workspaceID, id,
	)
	return err
}
