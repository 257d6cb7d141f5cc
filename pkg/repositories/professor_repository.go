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

// ProfessorRepository provides data access for professors.
type ProfessorRepository interface {
	Create(ctx context.Context, professor *models.Professor) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Professor, error)
	// LockShared returns apperrors.ErrNotFound if the professor does not exist, and
	// otherwise holds a share lock on the row until the transaction ends.
	LockShared(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type professorRepository struct{}

// NewProfessorRepository creates a new ProfessorRepository.
func NewProfessorRepository() ProfessorRepository {
	return &professorRepository{}
}

var _ ProfessorRepository = (*professorRepository)(nil)

func (r *professorRepository) Create(ctx context.Context, professor *models.Professor) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	if professor.ID == uuid.Nil {
		professor.ID = uuid.New()
	}
	professor.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO professors (id, name, department, email, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := scope.Conn.Exec(ctx, query,
		professor.ID,
		professor.Name,
		professor.Department,
		professor.Email,
		professor.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create professor: %w", err)
	}

	return nil
}

func (r *professorRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Professor, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `
		SELECT id, name, department, email, created_at
		FROM professors
		WHERE id = $1`

	var p models.Professor
	err := scope.Conn.QueryRow(ctx, query, id).Scan(&p.ID, &p.Name, &p.Department, &p.Email, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("professor %s: %w", id, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get professor: %w", err)
	}

	return &p, nil
}

func (r *professorRepository) LockShared(ctx context.Context, id uuid.UUID) error {
	return lockRowShared(ctx, "professors", "professor", id)
}

func (r *professorRepository) Delete(ctx context.Context, id uuid.UUID) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	tag, err := scope.Conn.Exec(ctx, `DELETE FROM professors WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete professor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("professor %s: %w", id, apperrors.ErrNotFound)
	}

	return nil
}

// lockRowShared takes a FOR SHARE lock on the row with the given id. Concurrent
// deletes of that row block until the caller's transaction ends.
// table is always a package constant, never caller input.
func lockRowShared(ctx context.Context, table, entity string, id uuid.UUID) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	var one int
	err := scope.Conn.QueryRow(ctx, `SELECT 1 FROM `+table+` WHERE id = $1 FOR SHARE`, id).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%s %s: %w", entity, id, apperrors.ErrNotFound)
		}
		return fmt.Errorf("failed to lock %s: %w", entity, err)
	}

	return nil
}
