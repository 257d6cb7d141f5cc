package models

import (
	"time"

	"github.com/google/uuid"
)

// Audit descriptions written by the project lifecycle.
const (
	AuditDescriptionConverted = "project converted to publication"
	AuditDescriptionDeleted   = "project deleted"
)

// AuditEntry is one immutable record in the project audit trail.
// Stored in the project_audit table.
type AuditEntry struct {
	ID          uuid.UUID `json:"id"`
	Seq         int64     `json:"seq"`
	ProjectID   uuid.UUID `json:"project_id"`
	Description string    `json:"description"`

	// What changed (for updates)
	Changes map[string]FieldChange `json:"changes,omitempty"` // {"title": {"old": ..., "new": ...}}

	CreatedAt time.Time `json:"created_at"`
}

// FieldChange represents the old and new values for a changed field.
type FieldChange struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// AuditPage is one page of the audit trail, newest first.
// NextBefore is the cursor for the following page; zero when there are no more entries.
type AuditPage struct {
	Entries    []*AuditEntry `json:"entries"`
	NextBefore int64         `json:"next_before,omitempty"`
}
