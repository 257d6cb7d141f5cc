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

// PublicationRepository provides data access for publications.
type PublicationRepository interface {
	// Create inserts the publication. A second publication for the same project
	// fails with apperrors.ErrAlreadyConverted.
	Create(ctx context.Context, publication *models.Publication) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Publication, error)
	GetByProject(ctx context.Context, projectID uuid.UUID) (*models.Publication, error)
}

type publicationRepository struct{}

// NewPublicationRepository creates a new PublicationRepository.
func NewPublicationRepository() PublicationRepository {
	return &publicationRepository{}
}

var _ PublicationRepository = (*publicationRepository)(nil)

func (r *publicationRepository) Create(ctx context.Context, publication *models.Publication) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	if publication.ID == uuid.Nil {
		publication.ID = uuid.New()
	}
	publication.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO publications (id, project_id, title, created_at)
		VALUES ($1, $2, $3, $4)`

	_, err := scope.Conn.Exec(ctx, query,
		publication.ID,
		publication.ProjectID,
		publication.Title,
		publication.CreatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return fmt.Errorf("project %s: %w", publication.ProjectID, apperrors.ErrAlreadyConverted)
		}
		return fmt.Errorf("failed to create publication: %w", err)
	}

	return nil
}

func (r *publicationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Publication, error) {
	return r.getBy(ctx, "id", id)
}

func (r *publicationRepository) GetByProject(ctx context.Context, projectID uuid.UUID) (*models.Publication, error) {
	return r.getBy(ctx, "project_id", projectID)
}

func (r *publicationRepository) getBy(ctx context.Context, column string, id uuid.UUID) (*models.Publication, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `SELECT id, project_id, title, created_at FROM publications WHERE ` + column + ` = $1`

	var p models.Publication
	err := scope.Conn.QueryRow(ctx, query, id).Scan(&p.ID, &p.ProjectID, &p.Title, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("publication (%s %s): %w", column, id, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get publication: %w", err)
	}

	return &p, nil
}
