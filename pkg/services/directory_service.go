package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/siddharth-k03/urgas/pkg/apperrors"
	"github.com/siddharth-k03/urgas/pkg/database"
	"github.com/siddharth-k03/urgas/pkg/models"
	"github.com/siddharth-k03/urgas/pkg/repositories"
	"github.com/siddharth-k03/urgas/pkg/retry"
)

// DirectoryService is the minimal entity surface the engine needs around the ledger:
// professors, funding agencies and read access to publications.
type DirectoryService interface {
	CreateProfessor(ctx context.Context, name, department, email string) (*models.Professor, error)
	GetProfessor(ctx context.Context, id uuid.UUID) (*models.Professor, error)
	// DeleteProfessor removes the professor and its project links.
	DeleteProfessor(ctx context.Context, id uuid.UUID) error

	CreateFundingAgency(ctx context.Context, name string, budget decimal.Decimal) (*models.FundingAgency, error)
	GetFundingAgency(ctx context.Context, id uuid.UUID) (*models.FundingAgency, error)
	// DeleteFundingAgency fails with apperrors.ErrConflict while grants reference it.
	DeleteFundingAgency(ctx context.Context, id uuid.UUID) error

	GetPublication(ctx context.Context, id uuid.UUID) (*models.Publication, error)
}

type directoryService struct {
	db           database.Transactor
	professors   repositories.ProfessorRepository
	agencies     repositories.FundingAgencyRepository
	publications repositories.PublicationRepository
	links        repositories.LinkRepository
	retryCfg     *retry.Config
	logger       *zap.Logger
}

// NewDirectoryService creates a new DirectoryService.
func NewDirectoryService(
	db database.Transactor,
	professors repositories.ProfessorRepository,
	agencies repositories.FundingAgencyRepository,
	publications repositories.PublicationRepository,
	links repositories.LinkRepository,
	retryCfg *retry.Config,
	logger *zap.Logger,
) DirectoryService {
	return &directoryService{
		db:           db,
		professors:   professors,
		agencies:     agencies,
		publications: publications,
		links:        links,
		retryCfg:     retryCfg,
		logger:       logger.Named("directory-service"),
	}
}

var _ DirectoryService = (*directoryService)(nil)

func (s *directoryService) CreateProfessor(ctx context.Context, name, department, email string) (*models.Professor, error) {
	professor := &models.Professor{
		Name:       strings.TrimSpace(name),
		Department: strings.TrimSpace(department),
		Email:      strings.TrimSpace(email),
	}
	if professor.Name == "" {
		return nil, fmt.Errorf("professor name is required: %w", apperrors.ErrInvalidArgument)
	}
	if professor.Email != "" && !strings.Contains(professor.Email, "@") {
		return nil, fmt.Errorf("invalid email %q: %w", professor.Email, apperrors.ErrInvalidArgument)
	}

	err := s.db.WithinTx(ctx, func(ctx context.Context) error {
		return s.professors.Create(ctx, professor)
	})
	if err != nil {
		return nil, fmt.Errorf("create professor: %w", err)
	}

	s.logger.Info("Created professor", zap.String("professor_id", professor.ID.String()))
	return professor, nil
}

func (s *directoryService) GetProfessor(ctx context.Context, id uuid.UUID) (*models.Professor, error) {
	return readWithRetry(ctx, s.db, s.retryCfg, func(ctx context.Context) (*models.Professor, error) {
		return s.professors.GetByID(ctx, id)
	})
}

func (s *directoryService) DeleteProfessor(ctx context.Context, id uuid.UUID) error {
	err := s.db.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.professors.LockShared(ctx, id); err != nil {
			return err
		}
		if _, err := s.links.DeleteByProfessor(ctx, id); err != nil {
			return err
		}
		return s.professors.Delete(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("delete professor %s: %w", id, err)
	}

	s.logger.Info("Deleted professor", zap.String("professor_id", id.String()))
	return nil
}

func (s *directoryService) CreateFundingAgency(ctx context.Context, name string, budget decimal.Decimal) (*models.FundingAgency, error) {
	agency := &models.FundingAgency{Name: strings.TrimSpace(name), Budget: budget}
	if agency.Name == "" {
		return nil, fmt.Errorf("funding agency name is required: %w", apperrors.ErrInvalidArgument)
	}
	if err := validateBudget("budget", budget); err != nil {
		return nil, err
	}

	err := s.db.WithinTx(ctx, func(ctx context.Context) error {
		return s.agencies.Create(ctx, agency)
	})
	if err != nil {
		return nil, fmt.Errorf("create funding agency: %w", err)
	}

	s.logger.Info("Created funding agency", zap.String("funding_agency_id", agency.ID.String()))
	return agency, nil
}

func (s *directoryService) GetFundingAgency(ctx context.Context, id uuid.UUID) (*models.FundingAgency, error) {
	return readWithRetry(ctx, s.db, s.retryCfg, func(ctx context.Context) (*models.FundingAgency, error) {
		return s.agencies.GetByID(ctx, id)
	})
}

func (s *directoryService) DeleteFundingAgency(ctx context.Context, id uuid.UUID) error {
	err := s.db.WithinTx(ctx, func(ctx context.Context) error {
		return s.agencies.Delete(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("delete funding agency %s: %w", id, err)
	}

	s.logger.Info("Deleted funding agency", zap.String("funding_agency_id", id.String()))
	return nil
}

func (s *directoryService) GetPublication(ctx context.Context, id uuid.UUID) (*models.Publication, error) {
	return readWithRetry(ctx, s.db, s.retryCfg, func(ctx context.Context) (*models.Publication, error) {
		return s.publications.GetByID(ctx, id)
	})
}
