package handlers

import (
	"context"
	"errors"
	"iter"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/siddharth-k03/urgas/pkg/models"
	"github.com/siddharth-k03/urgas/pkg/services"
)

var errNotStubbed = errors.New("not stubbed")

// mockLedger implements services.GrantLedger for handler tests.
type mockLedger struct {
	allocate func(ctx context.Context, amount decimal.Decimal, agencyID uuid.UUID) (*models.Grant, error)
	deduct   func(ctx context.Context, grantID uuid.UUID, used decimal.Decimal) (*models.Deduction, error)
	getErr   error
	grant    *models.Grant
	deleted  []uuid.UUID
	delErr   error
}

var _ services.GrantLedger = (*mockLedger)(nil)

func (m *mockLedger) Allocate(ctx context.Context, amount decimal.Decimal, agencyID uuid.UUID) (*models.Grant, error) {
	if m.allocate == nil {
		return nil, errNotStubbed
	}
	return m.allocate(ctx, amount, agencyID)
}

func (m *mockLedger) Deduct(ctx context.Context, grantID uuid.UUID, used decimal.Decimal) (*models.Deduction, error) {
	if m.deduct == nil {
		return nil, errNotStubbed
	}
	return m.deduct(ctx, grantID, used)
}

func (m *mockLedger) DeleteGrant(ctx context.Context, grantID uuid.UUID) error {
	if m.delErr != nil {
		return m.delErr
	}
	m.deleted = append(m.deleted, grantID)
	return nil
}

func (m *mockLedger) GetGrant(ctx context.Context, grantID uuid.UUID) (*models.Grant, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.grant, nil
}

// mockLifecycle implements services.ProjectLifecycle for handler tests.
type mockLifecycle struct {
	created   *services.CreateProjectInput
	updated   *models.ProjectUpdate
	project   *models.Project
	err       error
	convertTo string
	deleted   uuid.UUID
}

var _ services.ProjectLifecycle = (*mockLifecycle)(nil)

func (m *mockLifecycle) Create(ctx context.Context, input services.CreateProjectInput) (*models.Project, error) {
	m.created = &input
	if m.err != nil {
		return nil, m.err
	}
	return m.project, nil
}

func (m *mockLifecycle) Get(ctx context.Context, projectID uuid.UUID) (*models.Project, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.project, nil
}

func (m *mockLifecycle) Update(ctx context.Context, projectID uuid.UUID, update models.ProjectUpdate) (*models.Project, error) {
	m.updated = &update
	if m.err != nil {
		return nil, m.err
	}
	return m.project, nil
}

func (m *mockLifecycle) ConvertToPublication(ctx context.Context, projectID uuid.UUID, title string) (*models.Publication, error) {
	m.convertTo = title
	if m.err != nil {
		return nil, m.err
	}
	return &models.Publication{ID: uuid.New(), ProjectID: projectID, Title: title}, nil
}

func (m *mockLifecycle) Delete(ctx context.Context, projectID uuid.UUID) error {
	m.deleted = projectID
	return m.err
}

// mockAssociations implements services.AssociationService for handler tests.
type mockAssociations struct {
	err   error
	pairs [][2]uuid.UUID
}

var _ services.AssociationService = (*mockAssociations)(nil)

func (m *mockAssociations) LinkProfessorToProject(ctx context.Context, professorID, projectID uuid.UUID) error {
	if m.err != nil {
		return m.err
	}
	m.pairs = append(m.pairs, [2]uuid.UUID{professorID, projectID})
	return nil
}

func (m *mockAssociations) LinkGrantToProject(ctx context.Context, projectID, grantID uuid.UUID) error {
	if m.err != nil {
		return m.err
	}
	m.pairs = append(m.pairs, [2]uuid.UUID{projectID, grantID})
	return nil
}

// mockDirectory implements services.DirectoryService for handler tests.
type mockDirectory struct {
	err         error
	professor   *models.Professor
	agency      *models.FundingAgency
	publication *models.Publication
	lastBudget  decimal.Decimal
}

var _ services.DirectoryService = (*mockDirectory)(nil)

func (m *mockDirectory) CreateProfessor(ctx context.Context, name, department, email string) (*models.Professor, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.Professor{ID: uuid.New(), Name: name, Department: department, Email: email}, nil
}

func (m *mockDirectory) GetProfessor(ctx context.Context, id uuid.UUID) (*models.Professor, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.professor, nil
}

func (m *mockDirectory) DeleteProfessor(ctx context.Context, id uuid.UUID) error {
	return m.err
}

func (m *mockDirectory) CreateFundingAgency(ctx context.Context, name string, budget decimal.Decimal) (*models.FundingAgency, error) {
	m.lastBudget = budget
	if m.err != nil {
		return nil, m.err
	}
	return &models.FundingAgency{ID: uuid.New(), Name: name, Budget: budget}, nil
}

func (m *mockDirectory) GetFundingAgency(ctx context.Context, id uuid.UUID) (*models.FundingAgency, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.agency, nil
}

func (m *mockDirectory) DeleteFundingAgency(ctx context.Context, id uuid.UUID) error {
	return m.err
}

func (m *mockDirectory) GetPublication(ctx context.Context, id uuid.UUID) (*models.Publication, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.publication, nil
}

// mockAudit implements services.AuditService for handler tests.
type mockAudit struct {
	page       *models.AuditPage
	err        error
	lastBefore int64
	lastLimit  int
}

var _ services.AuditService = (*mockAudit)(nil)

func (m *mockAudit) Record(ctx context.Context, projectID uuid.UUID, description string, changes map[string]models.FieldChange) (uuid.UUID, error) {
	return uuid.Nil, errNotStubbed
}

func (m *mockAudit) List(ctx context.Context, before int64, limit int) (*models.AuditPage, error) {
	m.lastBefore, m.lastLimit = before, limit
	if m.err != nil {
		return nil, m.err
	}
	return m.page, nil
}

func (m *mockAudit) Entries(ctx context.Context) iter.Seq2[*models.AuditEntry, error] {
	return func(yield func(*models.AuditEntry, error) bool) {}
}
