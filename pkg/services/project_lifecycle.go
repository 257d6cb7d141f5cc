package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/siddharth-k03/urgas/pkg/apperrors"
	"github.com/siddharth-k03/urgas/pkg/database"
	"github.com/siddharth-k03/urgas/pkg/metrics"
	"github.com/siddharth-k03/urgas/pkg/models"
	"github.com/siddharth-k03/urgas/pkg/repositories"
	"github.com/siddharth-k03/urgas/pkg/retry"
)

// DateLayout is the calendar-date format used for project dates in audit entries
// and on the wire.
const DateLayout = "2006-01-02"

// CreateProjectInput holds the fields for a new project.
type CreateProjectInput struct {
	Title     string
	StartDate time.Time
	EndDate   *time.Time
}

// ProjectLifecycle owns projects and their one-way conversion into a publication.
// Every successful update, conversion and deletion writes exactly one audit entry
// in the same transaction as the change.
type ProjectLifecycle interface {
	Create(ctx context.Context, input CreateProjectInput) (*models.Project, error)
	Get(ctx context.Context, projectID uuid.UUID) (*models.Project, error)
	Update(ctx context.Context, projectID uuid.UUID, update models.ProjectUpdate) (*models.Project, error)

	// ConvertToPublication creates the project's publication and marks it converted.
	// Concurrent calls on one project produce exactly one publication; the others
	// fail with apperrors.ErrAlreadyConverted.
	ConvertToPublication(ctx context.Context, projectID uuid.UUID, publicationTitle string) (*models.Publication, error)

	Delete(ctx context.Context, projectID uuid.UUID) error
}

type projectLifecycle struct {
	db           database.Transactor
	projects     repositories.ProjectRepository
	publications repositories.PublicationRepository
	links        repositories.LinkRepository
	audit        AuditService
	metrics      metrics.Recorder
	retryCfg     *retry.Config
	logger       *zap.Logger
}

// NewProjectLifecycle creates a new ProjectLifecycle.
func NewProjectLifecycle(
	db database.Transactor,
	projects repositories.ProjectRepository,
	publications repositories.PublicationRepository,
	links repositories.LinkRepository,
	audit AuditService,
	rec metrics.Recorder,
	retryCfg *retry.Config,
	logger *zap.Logger,
) ProjectLifecycle {
	return &projectLifecycle{
		db:           db,
		projects:     projects,
		publications: publications,
		links:        links,
		audit:        audit,
		metrics:      recorderOrNop(rec),
		retryCfg:     retryCfg,
		logger:       logger.Named("project-lifecycle"),
	}
}

var _ ProjectLifecycle = (*projectLifecycle)(nil)

func (s *projectLifecycle) Create(ctx context.Context, input CreateProjectInput) (_ *models.Project, err error) {
	defer observe(ctx, s.metrics, "project.create", time.Now(), &err)

	project := &models.Project{
		Title:     strings.TrimSpace(input.Title),
		StartDate: toDate(input.StartDate),
		EndDate:   toDatePtr(input.EndDate),
		State:     models.ProjectStateActive,
	}
	if err := validateProjectDetails(project); err != nil {
		return nil, err
	}

	err = s.db.WithinTx(ctx, func(ctx context.Context) error {
		return s.projects.Create(ctx, project)
	})
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}

	s.logger.Info("Created project",
		zap.String("project_id", project.ID.String()),
		zap.String("title", project.Title))

	return project, nil
}

func (s *projectLifecycle) Get(ctx context.Context, projectID uuid.UUID) (*models.Project, error) {
	project, err := readWithRetry(ctx, s.db, s.retryCfg, func(ctx context.Context) (*models.Project, error) {
		return s.projects.GetByID(ctx, projectID)
	})
	if err != nil {
		return nil, fmt.Errorf("get project %s: %w", projectID, err)
	}
	return project, nil
}

func (s *projectLifecycle) Update(ctx context.Context, projectID uuid.UUID, update models.ProjectUpdate) (_ *models.Project, err error) {
	defer observe(ctx, s.metrics, "project.update", time.Now(), &err)

	if update.IsEmpty() {
		return nil, fmt.Errorf("update project %s: no fields supplied: %w", projectID, apperrors.ErrInvalidArgument)
	}

	var project *models.Project
	err = s.db.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		project, err = s.projects.GetForUpdate(ctx, projectID)
		if err != nil {
			return err
		}

		changes := applyProjectUpdate(project, update)
		if err := validateProjectDetails(project); err != nil {
			return err
		}
		if err := s.projects.UpdateDetails(ctx, project); err != nil {
			return err
		}

		_, err = s.audit.Record(ctx, projectID, describeChanges(changes), changes)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("update project %s: %w", projectID, err)
	}

	s.logger.Info("Updated project", zap.String("project_id", projectID.String()))
	return project, nil
}

func (s *projectLifecycle) ConvertToPublication(ctx context.Context, projectID uuid.UUID, publicationTitle string) (_ *models.Publication, err error) {
	defer observe(ctx, s.metrics, "project.convert", time.Now(), &err)

	title := strings.TrimSpace(publicationTitle)
	if title == "" {
		return nil, fmt.Errorf("convert project %s: publication title is required: %w", projectID, apperrors.ErrInvalidArgument)
	}

	publication := &models.Publication{ProjectID: projectID, Title: title}

	err = s.db.WithinTx(ctx, func(ctx context.Context) error {
		project, err := s.projects.GetForUpdate(ctx, projectID)
		if err != nil {
			return err
		}
		if project.IsConverted() {
			return apperrors.ErrAlreadyConverted
		}

		if err := s.publications.Create(ctx, publication); err != nil {
			return err
		}
		if err := s.projects.SetState(ctx, projectID, models.ProjectStateConverted); err != nil {
			return err
		}

		_, err = s.audit.Record(ctx, projectID, models.AuditDescriptionConverted, map[string]models.FieldChange{
			"state": {Old: string(models.ProjectStateActive), New: string(models.ProjectStateConverted)},
		})
		return err
	})
	if err != nil {
		s.logger.Debug("Conversion rejected",
			zap.String("project_id", projectID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("convert project %s: %w", projectID, err)
	}

	s.logger.Info("Converted project to publication",
		zap.String("project_id", projectID.String()),
		zap.String("publication_id", publication.ID.String()))

	return publication, nil
}

func (s *projectLifecycle) Delete(ctx context.Context, projectID uuid.UUID) (err error) {
	defer observe(ctx, s.metrics, "project.delete", time.Now(), &err)

	var removed int64
	err = s.db.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.projects.GetForUpdate(ctx, projectID); err != nil {
			return err
		}

		var err error
		if removed, err = s.links.DeleteByProject(ctx, projectID); err != nil {
			return err
		}
		if err := s.projects.Delete(ctx, projectID); err != nil {
			return err
		}

		_, err = s.audit.Record(ctx, projectID, models.AuditDescriptionDeleted, nil)
		return err
	})
	if err != nil {
		return fmt.Errorf("delete project %s: %w", projectID, err)
	}

	s.logger.Info("Deleted project",
		zap.String("project_id", projectID.String()),
		zap.Int64("links_removed", removed))
	return nil
}

func validateProjectDetails(p *models.Project) error {
	if p.Title == "" {
		return fmt.Errorf("project title is required: %w", apperrors.ErrInvalidArgument)
	}
	if p.StartDate.IsZero() {
		return fmt.Errorf("project start date is required: %w", apperrors.ErrInvalidArgument)
	}
	if p.EndDate != nil && p.EndDate.Before(p.StartDate) {
		return fmt.Errorf("end date %s precedes start date %s: %w",
			p.EndDate.Format(DateLayout), p.StartDate.Format(DateLayout), apperrors.ErrInvalidArgument)
	}
	return nil
}

// applyProjectUpdate copies the supplied fields onto p and returns one change per
// supplied field, even when the value is unchanged.
func applyProjectUpdate(p *models.Project, u models.ProjectUpdate) map[string]models.FieldChange {
	changes := make(map[string]models.FieldChange, 3)

	if u.Title != nil {
		title := strings.TrimSpace(*u.Title)
		changes["title"] = models.FieldChange{Old: p.Title, New: title}
		p.Title = title
	}
	if u.StartDate != nil {
		start := toDate(*u.StartDate)
		changes["start_date"] = models.FieldChange{Old: p.StartDate.Format(DateLayout), New: start.Format(DateLayout)}
		p.StartDate = start
	}
	if u.EndDate != nil {
		end := toDate(*u.EndDate)
		changes["end_date"] = models.FieldChange{Old: formatDatePtr(p.EndDate), New: end.Format(DateLayout)}
		p.EndDate = &end
	}

	return changes
}

// describeChanges renders changes as "project updated: title: A -> B; ..." in a
// fixed field order.
func describeChanges(changes map[string]models.FieldChange) string {
	parts := make([]string, 0, len(changes))
	for _, field := range []string{"title", "start_date", "end_date"} {
		c, ok := changes[field]
		if !ok {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %v -> %v", field, orNone(c.Old), orNone(c.New)))
	}
	return "project updated: " + strings.Join(parts, "; ")
}

func orNone(v any) any {
	if v == nil {
		return "(none)"
	}
	return v
}

func toDate(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func toDatePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := toDate(*t)
	return &d
}

func formatDatePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(DateLayout)
}
