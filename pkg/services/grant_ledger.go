package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/siddharth-k03/urgas/pkg/apperrors"
	"github.com/siddharth-k03/urgas/pkg/database"
	"github.com/siddharth-k03/urgas/pkg/metrics"
	"github.com/siddharth-k03/urgas/pkg/models"
	"github.com/siddharth-k03/urgas/pkg/repositories"
	"github.com/siddharth-k03/urgas/pkg/retry"
)

// GrantLedger owns grant balances. A balance is never written negative, and a
// grant whose balance reaches exactly zero is deleted together with its project links.
type GrantLedger interface {
	// Allocate creates a grant whose remaining amount equals amount.
	Allocate(ctx context.Context, amount decimal.Decimal, fundingAgencyID uuid.UUID) (*models.Grant, error)

	// Deduct spends used against the grant. Concurrent deductions on the same grant
	// are serialized by a row lock; each one sees the balance the previous left behind.
	Deduct(ctx context.Context, grantID uuid.UUID, used decimal.Decimal) (*models.Deduction, error)

	DeleteGrant(ctx context.Context, grantID uuid.UUID) error
	GetGrant(ctx context.Context, grantID uuid.UUID) (*models.Grant, error)
}

type grantLedger struct {
	db       database.Transactor
	grants   repositories.GrantRepository
	agencies repositories.FundingAgencyRepository
	links    repositories.LinkRepository
	metrics  metrics.Recorder
	retryCfg *retry.Config
	logger   *zap.Logger
}

// NewGrantLedger creates a new GrantLedger.
func NewGrantLedger(
	db database.Transactor,
	grants repositories.GrantRepository,
	agencies repositories.FundingAgencyRepository,
	links repositories.LinkRepository,
	rec metrics.Recorder,
	retryCfg *retry.Config,
	logger *zap.Logger,
) GrantLedger {
	return &grantLedger{
		db:       db,
		grants:   grants,
		agencies: agencies,
		links:    links,
		metrics:  recorderOrNop(rec),
		retryCfg: retryCfg,
		logger:   logger.Named("grant-ledger"),
	}
}

var _ GrantLedger = (*grantLedger)(nil)

func (l *grantLedger) Allocate(ctx context.Context, amount decimal.Decimal, fundingAgencyID uuid.UUID) (_ *models.Grant, err error) {
	defer observe(ctx, l.metrics, "grant.allocate", time.Now(), &err)

	if err := validateAmount("grant amount", amount); err != nil {
		return nil, err
	}

	grant := &models.Grant{
		FundingAgencyID: fundingAgencyID,
		InitialAmount:   amount,
		RemainingAmount: amount,
	}

	err = l.db.WithinTx(ctx, func(ctx context.Context) error {
		if err := l.agencies.LockShared(ctx, fundingAgencyID); err != nil {
			return err
		}
		return l.grants.Create(ctx, grant)
	})
	if err != nil {
		return nil, fmt.Errorf("allocate grant from agency %s: %w", fundingAgencyID, err)
	}

	l.logger.Info("Allocated grant",
		zap.String("grant_id", grant.ID.String()),
		zap.String("funding_agency_id", fundingAgencyID.String()),
		zap.String("amount", amount.String()))

	return grant, nil
}

func (l *grantLedger) Deduct(ctx context.Context, grantID uuid.UUID, used decimal.Decimal) (_ *models.Deduction, err error) {
	defer observe(ctx, l.metrics, "grant.deduct", time.Now(), &err)

	if err := validateAmount("used amount", used); err != nil {
		return nil, fmt.Errorf("deduct from grant %s: %w", grantID, err)
	}

	var result *models.Deduction
	err = l.db.WithinTx(ctx, func(ctx context.Context) error {
		grant, err := l.grants.GetForUpdate(ctx, grantID)
		if err != nil {
			return err
		}

		if used.GreaterThan(grant.RemainingAmount) {
			return fmt.Errorf("used amount %s exceeds remaining %s: %w",
				used, grant.RemainingAmount, apperrors.ErrInsufficientFunds)
		}

		remaining := grant.RemainingAmount.Sub(used)
		result = &models.Deduction{GrantID: grantID, Used: used, Remaining: remaining}

		if !remaining.IsZero() {
			return l.grants.UpdateRemaining(ctx, grantID, remaining)
		}

		removed, err := l.links.DeleteByGrant(ctx, grantID)
		if err != nil {
			return err
		}
		if err := l.grants.Delete(ctx, grantID); err != nil {
			return err
		}
		result.Deleted = true

		l.logger.Debug("Grant exhausted",
			zap.String("grant_id", grantID.String()),
			zap.Int64("links_removed", removed))
		return nil
	})
	if err != nil {
		l.logger.Debug("Deduction rejected",
			zap.String("grant_id", grantID.String()),
			zap.String("used", used.String()),
			zap.Error(err))
		return nil, fmt.Errorf("deduct from grant %s: %w", grantID, err)
	}

	l.metrics.Deducted(used)
	l.logger.Info("Deducted from grant",
		zap.String("grant_id", grantID.String()),
		zap.String("used", used.String()),
		zap.String("remaining", result.Remaining.String()),
		zap.Bool("deleted", result.Deleted))

	return result, nil
}

func (l *grantLedger) DeleteGrant(ctx context.Context, grantID uuid.UUID) (err error) {
	defer observe(ctx, l.metrics, "grant.delete", time.Now(), &err)

	err = l.db.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := l.grants.GetForUpdate(ctx, grantID); err != nil {
			return err
		}
		if _, err := l.links.DeleteByGrant(ctx, grantID); err != nil {
			return err
		}
		return l.grants.Delete(ctx, grantID)
	})
	if err != nil {
		return fmt.Errorf("delete grant %s: %w", grantID, err)
	}

	l.logger.Info("Deleted grant", zap.String("grant_id", grantID.String()))
	return nil
}

func (l *grantLedger) GetGrant(ctx context.Context, grantID uuid.UUID) (*models.Grant, error) {
	grant, err := readWithRetry(ctx, l.db, l.retryCfg, func(ctx context.Context) (*models.Grant, error) {
		return l.grants.GetByID(ctx, grantID)
	})
	if err != nil {
		return nil, fmt.Errorf("get grant %s: %w", grantID, err)
	}
	return grant, nil
}
