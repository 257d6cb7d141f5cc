package models

import (
	"time"

	"github.com/google/uuid"
)

// Professor is a researcher who can be linked to projects.
type Professor struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Department string    `json:"department"`
	Email      string    `json:"email"`
	CreatedAt  time.Time `json:"created_at"`
}
