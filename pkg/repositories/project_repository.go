package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/siddharth-k03/urgas/pkg/apperrors"
	"github.com/siddharth-k03/urgas/pkg/database"
	"github.com/siddharth-k03/urgas/pkg/models"
)

// ProjectRepository provides data access for projects.
type ProjectRepository interface {
	Create(ctx context.Context, project *models.Project) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error)

	// GetForUpdate reads the project and locks its row until the transaction ends.
	// Must be called inside a transaction.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Project, error)

	// UpdateDetails persists title and dates. State is not touched.
	UpdateDetails(ctx context.Context, project *models.Project) error

	// SetState moves the project to the given state.
	SetState(ctx context.Context, id uuid.UUID, state models.ProjectState) error

	LockShared(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type projectRepository struct{}

// NewProjectRepository creates a new ProjectRepository.
func NewProjectRepository() ProjectRepository {
	return &projectRepository{}
}

var _ ProjectRepository = (*projectRepository)(nil)

const projectColumns = `id, title, start_date, end_date, state, created_at, updated_at`

func (r *projectRepository) Create(ctx context.Context, project *models.Project) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	if project.ID == uuid.Nil {
		project.ID = uuid.New()
	}
	now := time.Now().UTC()
	project.CreatedAt = now
	project.UpdatedAt = now
	if project.State == "" {
		project.State = models.ProjectStateActive
	}

	query := `
		INSERT INTO projects (id, title, start_date, end_date, state, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := scope.Conn.Exec(ctx, query,
		project.ID,
		project.Title,
		project.StartDate,
		project.EndDate,
		string(project.State),
		project.CreatedAt,
		project.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	return nil
}

func (r *projectRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	return r.get(ctx, id, "")
}

func (r *projectRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	if !database.InTx(ctx) {
		return nil, fmt.Errorf("project row lock requires a transaction")
	}
	return r.get(ctx, id, " FOR UPDATE")
}

func (r *projectRepository) get(ctx context.Context, id uuid.UUID, lock string) (*models.Project, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1` + lock

	p, err := scanProject(scope.Conn.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("project %s: %w", id, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	return p, nil
}

func (r *projectRepository) UpdateDetails(ctx context.Context, project *models.Project) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	project.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE projects
		SET title = $2, start_date = $3, end_date = $4, updated_at = $5
		WHERE id = $1`

	tag, err := scope.Conn.Exec(ctx, query,
		project.ID,
		project.Title,
		project.StartDate,
		project.EndDate,
		project.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("project %s: %w", project.ID, apperrors.ErrNotFound)
	}

	return nil
}

func (r *projectRepository) SetState(ctx context.Context, id uuid.UUID, state models.ProjectState) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	tag, err := scope.Conn.Exec(ctx,
		`UPDATE projects SET state = $2, updated_at = $3 WHERE id = $1`,
		id, string(state), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to set project state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("project %s: %w", id, apperrors.ErrNotFound)
	}

	return nil
}

func (r *projectRepository) LockShared(ctx context.Context, id uuid.UUID) error {
	return lockRowShared(ctx, "projects", "project", id)
}

func (r *projectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	tag, err := scope.Conn.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("project %s: %w", id, apperrors.ErrNotFound)
	}

	return nil
}

func scanProject(row pgx.Row) (*models.Project, error) {
	var p models.Project
	var state string

	err := row.Scan(
		&p.ID,
		&p.Title,
		&p.StartDate,
		&p.EndDate,
		&state,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.State = models.ProjectState(state)
	return &p, nil
}
