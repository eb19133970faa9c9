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

type NoteRepo struct {
	pool *pgxpool.Pool
}

func NewNoteRepo(pool *pgxpool.Pool) *NoteRepo {
	return &NoteRepo{pool: pool}
}

func (r *NoteRepo) Create(ctx context.Context, n *models.Note) error {
	n.ID = uuid.New()
	query := `INSERT INTO notes (id, workspace_id, course_id, title, body, is_pinned)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		n.ID, n.WorkspaceID, n.CourseID, n.Title, n.Body, n.IsPinned,
	).Scan(&n.CreatedAt, &n.UpdatedAt)
}

func (r *NoteRepo) GetByID(ctx context.Context, workspaceID, id uuid.UUID) (*models.Note, error) {
	n := &models.Note{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, workspace_id, course_id, title, body, is_pinned, created_at, updated_at
		FROM notes WHERE workspace_id = $1 AND id = $2
	`, workspaceID, id).Scan(
		&n.ID, &n.WorkspaceID, &n.CourseID, &n.Title, &n.Body, &n.IsPinned, &n.CreatedAt, &n.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &session.NotFoundError{Message: "Note not found"}
	}
	if err != nil {
		return nil, err
	}
	return n, nil
}

func (r *NoteRepo) ListByWorkspace(ctx context.Context, workspaceID uuid.UUID, search string) ([]models.Note, error) {
	query := `
		SELECT id, workspace_id, course_id, title, body, is_pinned, created_at, updated_at
		FROM notes WHERE workspace_id = $1`
	args := []interface{}{workspaceID}

	if search != "" {
		query += " AND (title ILIKE $2 OR body ILIKE $2)"
		args = append(args, "%"+search+"%")
	}
	query += " ORDER BY is_pinned DESC, updated_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []models.Note
	for rows.Next() {
		var n models.Note
		if err := rows.Scan(&n.ID, &n.WorkspaceID, &n.CourseID, &n.Title, &n.Body, &n.IsPinned, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

func (r *NoteRepo) Update(ctx context.Context, n *models.Note) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE notes SET course_id = $1, title = $2, body = $3, is_pinned = $4, updated_at = NOW()
		WHERE workspace_id = $5 AND id = $6
	`, n.CourseID, n.Title, n.Body, n.IsPinned, n.WorkspaceID, n.ID)
	return err
}

func (r *NoteRepo) Delete(ctx context.Context, workspaceID, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM notes WHERE workspace_id = $1 AND id = $2", workspaceID, id)
	return err
}
