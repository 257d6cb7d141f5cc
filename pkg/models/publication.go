package models

import (
	"time"

	"github.com/google/uuid"
)

// Publication is created exactly once per project, by conversion.
// ProjectID is kept after the project itself is deleted.
type Publication struct {
	ID        uuid.UUID `json:"id"`
	ProjectID uuid.UUID `json:"project_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}
