package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/siddharth-k03/urgas/pkg/apperrors"
	"github.com/siddharth-k03/urgas/pkg/database"
)

// LinkRepository manages the professor-project and project-grant association tables.
type LinkRepository interface {
	// LinkProfessorToProject fails with apperrors.ErrDuplicateLink if the pair exists
	// and apperrors.ErrNotFound if either side vanished.
	LinkProfessorToProject(ctx context.Context, professorID, projectID uuid.UUID) error
	LinkGrantToProject(ctx context.Context, projectID, grantID uuid.UUID) error

	// The Delete* methods return the number of links removed.
	DeleteByProject(ctx context.Context, projectID uuid.UUID) (int64, error)
	DeleteByGrant(ctx context.Context, grantID uuid.UUID) (int64, error)
	DeleteByProfessor(ctx context.Context, professorID uuid.UUID) (int64, error)
}

type linkRepository struct{}

// NewLinkRepository creates a new LinkRepository.
func NewLinkRepository() LinkRepository {
	return &linkRepository{}
}

var _ LinkRepository = (*linkRepository)(nil)

func (r *linkRepository) LinkProfessorToProject(ctx context.Context, professorID, projectID uuid.UUID) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	_, err := scope.Conn.Exec(ctx,
		`INSERT INTO professor_projects (professor_id, project_id) VALUES ($1, $2)`,
		professorID, projectID)
	return classifyLinkError(err, "professor", professorID, "project", projectID)
}

func (r *linkRepository) LinkGrantToProject(ctx context.Context, projectID, grantID uuid.UUID) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	_, err := scope.Conn.Exec(ctx,
		`INSERT INTO project_grants (project_id, grant_id) VALUES ($1, $2)`,
		projectID, grantID)
	return classifyLinkError(err, "project", projectID, "grant", grantID)
}

func (r *linkRepository) DeleteByProject(ctx context.Context, projectID uuid.UUID) (int64, error) {
	return r.deleteLinks(ctx, projectID,
		`DELETE FROM professor_projects WHERE project_id = $1`,
		`DELETE FROM project_grants WHERE project_id = $1`)
}

func (r *linkRepository) DeleteByGrant(ctx context.Context, grantID uuid.UUID) (int64, error) {
	return r.deleteLinks(ctx, grantID, `DELETE FROM project_grants WHERE grant_id = $1`)
}

func (r *linkRepository) DeleteByProfessor(ctx context.Context, professorID uuid.UUID) (int64, error) {
	return r.deleteLinks(ctx, professorID, `DELETE FROM professor_projects WHERE professor_id = $1`)
}

func (r *linkRepository) deleteLinks(ctx context.Context, id uuid.UUID, statements ...string) (int64, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return 0, fmt.Errorf("no database scope in context")
	}

	var removed int64
	for _, stmt := range statements {
		tag, err := scope.Conn.Exec(ctx, stmt, id)
		if err != nil {
			return removed, fmt.Errorf("failed to delete links: %w", err)
		}
		removed += tag.RowsAffected()
	}

	return removed, nil
}

func classifyLinkError(err error, leftKind string, left uuid.UUID, rightKind string, right uuid.UUID) error {
	if err == nil {
		return nil
	}
	switch {
	case database.IsUniqueViolation(err):
		return fmt.Errorf("%s %s already linked to %s %s: %w", leftKind, left, rightKind, right, apperrors.ErrDuplicateLink)
	case database.IsForeignKeyViolation(err):
		return fmt.Errorf("%s %s or %s %s: %w", leftKind, left, rightKind, right, apperrors.ErrNotFound)
	}
	return fmt.Errorf("failed to link %s to %s: %w", leftKind, rightKind, err)
}
