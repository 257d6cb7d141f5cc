package services

import (
	"context"
	"fmt"
	"iter"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/siddharth-k03/urgas/pkg/database"
	"github.com/siddharth-k03/urgas/pkg/logging"
	"github.com/siddharth-k03/urgas/pkg/models"
	"github.com/siddharth-k03/urgas/pkg/repositories"
	"github.com/siddharth-k03/urgas/pkg/retry"
)

// Audit page sizes.
const (
	DefaultAuditPageSize = 50
	MaxAuditPageSize     = 500
)

// AuditService records and reads the project audit trail.
type AuditService interface {
	// Record appends an entry inside the caller's transaction. It fails when ctx
	// carries no transaction, and any failure must abort that transaction.
	Record(ctx context.Context, projectID uuid.UUID, description string, changes map[string]models.FieldChange) (uuid.UUID, error)

	// List returns one page, newest first. before is the cursor from a previous
	// page (0 for the first page); limit is clamped to MaxAuditPageSize.
	List(ctx context.Context, before int64, limit int) (*models.AuditPage, error)

	// Entries lazily walks the whole trail newest first, one page at a time.
	// Each range over the returned sequence starts again from the newest entry.
	Entries(ctx context.Context) iter.Seq2[*models.AuditEntry, error]
}

type auditService struct {
	db       database.Transactor
	repo     repositories.AuditRepository
	retryCfg *retry.Config
	pageSize int
	logger   *zap.Logger
}

// NewAuditService creates a new AuditService.
func NewAuditService(db database.Transactor, repo repositories.AuditRepository, retryCfg *retry.Config, pageSize int, logger *zap.Logger) AuditService {
	if pageSize <= 0 || pageSize > MaxAuditPageSize {
		pageSize = DefaultAuditPageSize
	}
	return &auditService{
		db:       db,
		repo:     repo,
		retryCfg: retryCfg,
		pageSize: pageSize,
		logger:   logger.Named("audit-service"),
	}
}

var _ AuditService = (*auditService)(nil)

func (s *auditService) Record(ctx context.Context, projectID uuid.UUID, description string, changes map[string]models.FieldChange) (uuid.UUID, error) {
	if !database.InTx(ctx) {
		return uuid.Nil, fmt.Errorf("audit entry for project %s requires an active transaction", projectID)
	}

	entry := &models.AuditEntry{
		ProjectID:   projectID,
		Description: description,
		Changes:     changes,
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		s.logger.Error("Failed to create audit entry",
			zap.String("project_id", projectID.String()),
			zap.String("description", description),
			logging.Error(err))
		return uuid.Nil, fmt.Errorf("create audit entry: %w", err)
	}

	return entry.ID, nil
}

func (s *auditService) List(ctx context.Context, before int64, limit int) (*models.AuditPage, error) {
	if limit <= 0 {
		limit = s.pageSize
	}
	if limit > MaxAuditPageSize {
		limit = MaxAuditPageSize
	}

	entries, err := readWithRetry(ctx, s.db, s.retryCfg, func(ctx context.Context) ([]*models.AuditEntry, error) {
		return s.repo.List(ctx, before, limit)
	})
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}

	page := &models.AuditPage{Entries: entries}
	if len(entries) == limit {
		page.NextBefore = entries[len(entries)-1].Seq
	}
	return page, nil
}

func (s *auditService) Entries(ctx context.Context) iter.Seq2[*models.AuditEntry, error] {
	return func(yield func(*models.AuditEntry, error) bool) {
		var before int64
		for {
			page, err := s.List(ctx, before, s.pageSize)
			if err != nil {
				yield(nil, err)
				return
			}
			for _, entry := range page.Entries {
				if !yield(entry, nil) {
					return
				}
			}
			if page.NextBefore == 0 {
				return
			}
			before = page.NextBefore
		}
	}
}
