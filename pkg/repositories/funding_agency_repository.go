package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/siddharth-k03/urgas/pkg/apperrors"
	"github.com/siddharth-k03/urgas/pkg/database"
	"github.com/siddharth-k03/urgas/pkg/models"
)

// FundingAgencyRepository provides data access for funding agencies.
type FundingAgencyRepository interface {
	Create(ctx context.Context, agency *models.FundingAgency) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.FundingAgency, error)
	LockShared(ctx context.Context, id uuid.UUID) error
	// Delete fails with apperrors.ErrConflict while any grant references the agency.
	Delete(ctx context.Context, id uuid.UUID) error
}

type fundingAgencyRepository struct{}

// NewFundingAgencyRepository creates a new FundingAgencyRepository.
func NewFundingAgencyRepository() FundingAgencyRepository {
	return &fundingAgencyRepository{}
}

var _ FundingAgencyRepository = (*fundingAgencyRepository)(nil)

func (r *fundingAgencyRepository) Create(ctx context.Context, agency *models.FundingAgency) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	if agency.ID == uuid.Nil {
		agency.ID = uuid.New()
	}
	agency.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO funding_agencies (id, name, budget, created_at)
		VALUES ($1, $2, $3::numeric, $4)`

	_, err := scope.Conn.Exec(ctx, query, agency.ID, agency.Name, agency.Budget.String(), agency.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create funding agency: %w", err)
	}

	return nil
}

func (r *fundingAgencyRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.FundingAgency, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `
		SELECT id, name, budget::text, created_at
		FROM funding_agencies
		WHERE id = $1`

	var a models.FundingAgency
	var budget string
	err := scope.Conn.QueryRow(ctx, query, id).Scan(&a.ID, &a.Name, &budget, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("funding agency %s: %w", id, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get funding agency: %w", err)
	}

	a.Budget, err = decimal.NewFromString(budget)
	if err != nil {
		return nil, fmt.Errorf("failed to parse budget %q: %w", budget, err)
	}

	return &a, nil
}

func (r *fundingAgencyRepository) LockShared(ctx context.Context, id uuid.UUID) error {
	return lockRowShared(ctx, "funding_agencies", "funding agency", id)
}

func (r *fundingAgencyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	tag, err := scope.Conn.Exec(ctx, `DELETE FROM funding_agencies WHERE id = $1`, id)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return fmt.Errorf("funding agency %s still funds grants: %w", id, apperrors.ErrConflict)
		}
		return fmt.Errorf("failed to delete funding agency: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("funding agency %s: %w", id, apperrors.ErrNotFound)
	}

	return nil
}
