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

// GrantRepository provides data access for grants.
// Amounts cross the driver boundary as numeric text so no precision is lost.
type GrantRepository interface {
	Create(ctx context.Context, grant *models.Grant) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Grant, error)

	// GetForUpdate reads the grant and locks its row until the transaction ends.
	// Concurrent deductions on the same grant queue behind this lock.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Grant, error)

	UpdateRemaining(ctx context.Context, id uuid.UUID, remaining decimal.Decimal) error
	LockShared(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type grantRepository struct{}

// NewGrantRepository creates a new GrantRepository.
func NewGrantRepository() GrantRepository {
	return &grantRepository{}
}

var _ GrantRepository = (*grantRepository)(nil)

const grantColumns = `id, funding_agency_id, initial_amount::text, remaining_amount::text, created_at, updated_at`

func (r *grantRepository) Create(ctx context.Context, grant *models.Grant) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	if grant.ID == uuid.Nil {
		grant.ID = uuid.New()
	}
	now := time.Now().UTC()
	grant.CreatedAt = now
	grant.UpdatedAt = now

	query := `
		INSERT INTO grants (id, funding_agency_id, initial_amount, remaining_amount, created_at, updated_at)
		VALUES ($1, $2, $3::numeric, $4::numeric, $5, $6)`

	_, err := scope.Conn.Exec(ctx, query,
		grant.ID,
		grant.FundingAgencyID,
		grant.InitialAmount.String(),
		grant.RemainingAmount.String(),
		grant.CreatedAt,
		grant.UpdatedAt,
	)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return fmt.Errorf("funding agency %s: %w", grant.FundingAgencyID, apperrors.ErrNotFound)
		}
		return fmt.Errorf("failed to create grant: %w", err)
	}

	return nil
}

func (r *grantRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Grant, error) {
	return r.get(ctx, id, "")
}

func (r *grantRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Grant, error) {
	if !database.InTx(ctx) {
		return nil, fmt.Errorf("grant row lock requires a transaction")
	}
	return r.get(ctx, id, " FOR UPDATE")
}

func (r *grantRepository) get(ctx context.Context, id uuid.UUID, lock string) (*models.Grant, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `SELECT ` + grantColumns + ` FROM grants WHERE id = $1` + lock

	g, err := scanGrant(scope.Conn.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("grant %s: %w", id, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get grant: %w", err)
	}

	return g, nil
}

func (r *grantRepository) UpdateRemaining(ctx context.Context, id uuid.UUID, remaining decimal.Decimal) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	tag, err := scope.Conn.Exec(ctx,
		`UPDATE grants SET remaining_amount = $2::numeric, updated_at = $3 WHERE id = $1`,
		id, remaining.String(), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update grant balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("grant %s: %w", id, apperrors.ErrNotFound)
	}

	return nil
}

func (r *grantRepository) LockShared(ctx context.Context, id uuid.UUID) error {
	return lockRowShared(ctx, "grants", "grant", id)
}

func (r *grantRepository) Delete(ctx context.Context, id uuid.UUID) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	tag, err := scope.Conn.Exec(ctx, `DELETE FROM grants WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete grant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("grant %s: %w", id, apperrors.ErrNotFound)
	}

	return nil
}

func scanGrant(row pgx.Row) (*models.Grant, error) {
	var g models.Grant
	var initial, remaining string

	err := row.Scan(
		&g.ID,
		&g.FundingAgencyID,
		&initial,
		&remaining,
		&g.CreatedAt,
		&g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if g.InitialAmount, err = decimal.NewFromString(initial); err != nil {
		return nil, fmt.Errorf("failed to parse initial amount %q: %w", initial, err)
	}
	if g.RemainingAmount, err = decimal.NewFromString(remaining); err != nil {
		return nil, fmt.Errorf("failed to parse remaining amount %q: %w", remaining, err)
	}

	return &g, nil
}
