// Package models contains domain types for the research funding engine.
package models

import (
	"time"

	"github.com/google/uuid"
)

// ProjectState is the lifecycle state of a project.
type ProjectState string

// Projects start Active. Converted is terminal.
const (
	ProjectStateActive    ProjectState = "active"
	ProjectStateConverted ProjectState = "converted"
)

// Project represents a research project.
type Project struct {
	ID        uuid.UUID    `json:"id"`
	Title     string       `json:"title"`
	StartDate time.Time    `json:"start_date"`
	EndDate   *time.Time   `json:"end_date,omitempty"`
	State     ProjectState `json:"state"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// IsConverted reports whether the project has become a publication.
func (p *Project) IsConverted() bool {
	return p.State == ProjectStateConverted
}

// ProjectUpdate is a partial update of a project. Nil fields are left unchanged.
// State is deliberately absent: only conversion moves a project between states.
type ProjectUpdate struct {
	Title     *string
	StartDate *time.Time
	EndDate   *time.Time
}

// IsEmpty reports whether no field was supplied.
func (u ProjectUpdate) IsEmpty() bool {
	return u.Title == nil && u.StartDate == nil && u.EndDate == nil
}
