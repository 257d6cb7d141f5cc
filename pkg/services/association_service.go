package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/siddharth-k03/urgas/pkg/database"
	"github.com/siddharth-k03/urgas/pkg/metrics"
	"github.com/siddharth-k03/urgas/pkg/repositories"
)

// AssociationService creates professor-project and project-grant links. Both
// endpoints are share-locked while the link is inserted, so neither can be deleted
// between the existence check and the insert.
type AssociationService interface {
	LinkProfessorToProject(ctx context.Context, professorID, projectID uuid.UUID) error
	LinkGrantToProject(ctx context.Context, projectID, grantID uuid.UUID) error
}

type associationService struct {
	db         database.Transactor
	professors repositories.ProfessorRepository
	projects   repositories.ProjectRepository
	grants     repositories.GrantRepository
	links      repositories.LinkRepository
	metrics    metrics.Recorder
	logger     *zap.Logger
}

// NewAssociationService creates a new AssociationService.
func NewAssociationService(
	db database.Transactor,
	professors repositories.ProfessorRepository,
	projects repositories.ProjectRepository,
	grants repositories.GrantRepository,
	links repositories.LinkRepository,
	rec metrics.Recorder,
	logger *zap.Logger,
) AssociationService {
	return &associationService{
		db:         db,
		professors: professors,
		projects:   projects,
		grants:     grants,
		links:      links,
		metrics:    recorderOrNop(rec),
		logger:     logger.Named("association-service"),
	}
}

var _ AssociationService = (*associationService)(nil)

func (s *associationService) LinkProfessorToProject(ctx context.Context, professorID, projectID uuid.UUID) (err error) {
	defer observe(ctx, s.metrics, "link.professor_project", time.Now(), &err)

	err = s.db.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.professors.LockShared(ctx, professorID); err != nil {
			return err
		}
		if err := s.projects.LockShared(ctx, projectID); err != nil {
			return err
		}
		return s.links.LinkProfessorToProject(ctx, professorID, projectID)
	})
	if err != nil {
		return fmt.Errorf("link professor %s to project %s: %w", professorID, projectID, err)
	}

	s.logger.Info("Linked professor to project",
		zap.String("professor_id", professorID.String()),
		zap.String("project_id", projectID.String()))
	return nil
}

func (s *associationService) LinkGrantToProject(ctx context.Context, projectID, grantID uuid.UUID) (err error) {
	defer observe(ctx, s.metrics, "link.project_grant", time.Now(), &err)

	err = s.db.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.projects.LockShared(ctx, projectID); err != nil {
			return err
		}
		if err := s.grants.LockShared(ctx, grantID); err != nil {
			return err
		}
		return s.links.LinkGrantToProject(ctx, projectID, grantID)
	})
	if err != nil {
		return fmt.Errorf("link grant %s to project %s: %w", grantID, projectID, err)
	}

	s.logger.Info("Linked grant to project",
		zap.String("project_id", projectID.String()),
		zap.String("grant_id", grantID.String()))
	return nil
}
