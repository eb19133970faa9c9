package models

import (
	"time"

	"github.com/google/uuid"
)

type Exam struct {
	ID          uuid.UUID  `json:"id"`
	WorkspaceID uuid.UUID  `json:"workspace_id"`
	CourseID    *uuid.UUID `json:"course_id,omitempty"`
	Title       string     `json:"title"`
	StartsAt    time.Time  `json:"starts_at"`
	Location    *string    `json:"location,omitempty"`
	Notes       *string    `json:"notes,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
