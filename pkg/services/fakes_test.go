package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/siddharth-k03/urgas/pkg/apperrors"
	"github.com/siddharth-k03/urgas/pkg/database"
	"github.com/siddharth-k03/urgas/pkg/models"
	"github.com/siddharth-k03/urgas/pkg/retry"
)

type linkKey [2]uuid.UUID

// memState is the in-memory content of the store.
type memState struct {
	professors   map[uuid.UUID]models.Professor
	agencies     map[uuid.UUID]models.FundingAgency
	projects     map[uuid.UUID]models.Project
	grants       map[uuid.UUID]models.Grant
	publications map[uuid.UUID]models.Publication
	profLinks    map[linkKey]bool // professor, project
	grantLinks   map[linkKey]bool // project, grant
	audit        []models.AuditEntry
	seq          int64
}

func (s memState) clone() memState {
	c := memState{
		professors:   make(map[uuid.UUID]models.Professor, len(s.professors)),
		agencies:     make(map[uuid.UUID]models.FundingAgency, len(s.agencies)),
		projects:     make(map[uuid.UUID]models.Project, len(s.projects)),
		grants:       make(map[uuid.UUID]models.Grant, len(s.grants)),
		publications: make(map[uuid.UUID]models.Publication, len(s.publications)),
		profLinks:    make(map[linkKey]bool, len(s.profLinks)),
		grantLinks:   make(map[linkKey]bool, len(s.grantLinks)),
		audit:        append([]models.AuditEntry(nil), s.audit...),
		seq:          s.seq,
	}
	for k, v := range s.professors {
		c.professors[k] = v
	}
	for k, v := range s.agencies {
		c.agencies[k] = v
	}
	for k, v := range s.projects {
		c.projects[k] = v
	}
	for k, v := range s.grants {
		c.grants[k] = v
	}
	for k, v := range s.publications {
		c.publications[k] = v
	}
	for k, v := range s.profLinks {
		c.profLinks[k] = v
	}
	for k, v := range s.grantLinks {
		c.grantLinks[k] = v
	}
	return c
}

// memStore is an in-memory Transactor plus the repositories over it. A
// transaction holds the store mutex for its whole duration, which gives the same
// serialization the row locks give against Postgres, and restores a snapshot when
// the transaction fails.
type memStore struct {
	mu    sync.Mutex
	state memState

	// Failure injection.
	auditErr    error
	readErrs    []error // returned, in order, by GetByID calls before succeeding
	txCount     int
	rolledBacks int
}

func newMemStore() *memStore {
	return &memStore{state: memState{}.clone()}
}

var _ database.Transactor = (*memStore)(nil)

func (m *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if database.InTx(ctx) {
		return fn(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.txCount++
	snapshot := m.state.clone()
	defer func() {
		if p := recover(); p != nil {
			m.state = snapshot
			m.rolledBacks++
			panic(p)
		}
		if err != nil {
			m.state = snapshot
			m.rolledBacks++
		}
	}()

	if err = fn(database.SetScope(ctx, &database.Scope{InTx: true})); err != nil {
		return err
	}
	return ctx.Err()
}

func (m *memStore) WithinConn(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := database.GetScope(ctx); ok {
		return fn(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(database.SetScope(ctx, &database.Scope{}))
}

func (m *memStore) nextReadErr() error {
	if len(m.readErrs) == 0 {
		return nil
	}
	err := m.readErrs[0]
	m.readErrs = m.readErrs[1:]
	return err
}

func requireTx(ctx context.Context) error {
	if !database.InTx(ctx) {
		return fmt.Errorf("requires a transaction")
	}
	return nil
}

func notFound(kind string, id uuid.UUID) error {
	return fmt.Errorf("%s %s: %w", kind, id, apperrors.ErrNotFound)
}

// --- professors ---

type memProfessorRepo struct{ m *memStore }

func (r memProfessorRepo) Create(ctx context.Context, p *models.Professor) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = time.Now()
	r.m.state.professors[p.ID] = *p
	return nil
}

func (r memProfessorRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Professor, error) {
	if err := r.m.nextReadErr(); err != nil {
		return nil, err
	}
	p, ok := r.m.state.professors[id]
	if !ok {
		return nil, notFound("professor", id)
	}
	return &p, nil
}

func (r memProfessorRepo) LockShared(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.m.state.professors[id]; !ok {
		return notFound("professor", id)
	}
	return nil
}

func (r memProfessorRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.m.state.professors[id]; !ok {
		return notFound("professor", id)
	}
	delete(r.m.state.professors, id)
	return nil
}

// --- funding agencies ---

type memAgencyRepo struct{ m *memStore }

func (r memAgencyRepo) Create(ctx context.Context, a *models.FundingAgency) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	r.m.state.agencies[a.ID] = *a
	return nil
}

func (r memAgencyRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.FundingAgency, error) {
	if err := r.m.nextReadErr(); err != nil {
		return nil, err
	}
	a, ok := r.m.state.agencies[id]
	if !ok {
		return nil, notFound("funding agency", id)
	}
	return &a, nil
}

func (r memAgencyRepo) LockShared(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.m.state.agencies[id]; !ok {
		return notFound("funding agency", id)
	}
	return nil
}

func (r memAgencyRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.m.state.agencies[id]; !ok {
		return notFound("funding agency", id)
	}
	for _, g := range r.m.state.grants {
		if g.FundingAgencyID == id {
			return fmt.Errorf("funding agency %s still funds grants: %w", id, apperrors.ErrConflict)
		}
	}
	delete(r.m.state.agencies, id)
	return nil
}

// --- projects ---

type memProjectRepo struct{ m *memStore }

func (r memProjectRepo) Create(ctx context.Context, p *models.Project) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.State == "" {
		p.State = models.ProjectStateActive
	}
	r.m.state.projects[p.ID] = *p
	return nil
}

func (r memProjectRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	if err := r.m.nextReadErr(); err != nil {
		return nil, err
	}
	p, ok := r.m.state.projects[id]
	if !ok {
		return nil, notFound("project", id)
	}
	return &p, nil
}

func (r memProjectRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	if err := requireTx(ctx); err != nil {
		return nil, err
	}
	p, ok := r.m.state.projects[id]
	if !ok {
		return nil, notFound("project", id)
	}
	return &p, nil
}

func (r memProjectRepo) UpdateDetails(ctx context.Context, p *models.Project) error {
	cur, ok := r.m.state.projects[p.ID]
	if !ok {
		return notFound("project", p.ID)
	}
	cur.Title, cur.StartDate, cur.EndDate = p.Title, p.StartDate, p.EndDate
	r.m.state.projects[p.ID] = cur
	return nil
}

func (r memProjectRepo) SetState(ctx context.Context, id uuid.UUID, state models.ProjectState) error {
	cur, ok := r.m.state.projects[id]
	if !ok {
		return notFound("project", id)
	}
	cur.State = state
	r.m.state.projects[id] = cur
	return nil
}

func (r memProjectRepo) LockShared(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.m.state.projects[id]; !ok {
		return notFound("project", id)
	}
	return nil
}

func (r memProjectRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.m.state.projects[id]; !ok {
		return notFound("project", id)
	}
	delete(r.m.state.projects, id)
	return nil
}

// --- grants ---

type memGrantRepo struct{ m *memStore }

func (r memGrantRepo) Create(ctx context.Context, g *models.Grant) error {
	if _, ok := r.m.state.agencies[g.FundingAgencyID]; !ok {
		return notFound("funding agency", g.FundingAgencyID)
	}
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	r.m.state.grants[g.ID] = *g
	return nil
}

func (r memGrantRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Grant, error) {
	if err := r.m.nextReadErr(); err != nil {
		return nil, err
	}
	g, ok := r.m.state.grants[id]
	if !ok {
		return nil, notFound("grant", id)
	}
	return &g, nil
}

func (r memGrantRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Grant, error) {
	if err := requireTx(ctx); err != nil {
		return nil, err
	}
	g, ok := r.m.state.grants[id]
	if !ok {
		return nil, notFound("grant", id)
	}
	return &g, nil
}

func (r memGrantRepo) UpdateRemaining(ctx context.Context, id uuid.UUID, remaining decimal.Decimal) error {
	g, ok := r.m.state.grants[id]
	if !ok {
		return notFound("grant", id)
	}
	if remaining.IsNegative() {
		return fmt.Errorf("check constraint violated")
	}
	g.RemainingAmount = remaining
	r.m.state.grants[id] = g
	return nil
}

func (r memGrantRepo) LockShared(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.m.state.grants[id]; !ok {
		return notFound("grant", id)
	}
	return nil
}

func (r memGrantRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.m.state.grants[id]; !ok {
		return notFound("grant", id)
	}
	delete(r.m.state.grants, id)
	return nil
}

// --- publications ---

type memPublicationRepo struct{ m *memStore }

func (r memPublicationRepo) Create(ctx context.Context, p *models.Publication) error {
	for _, existing := range r.m.state.publications {
		if existing.ProjectID == p.ProjectID {
			return fmt.Errorf("project %s: %w", p.ProjectID, apperrors.ErrAlreadyConverted)
		}
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.m.state.publications[p.ID] = *p
	return nil
}

func (r memPublicationRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Publication, error) {
	if err := r.m.nextReadErr(); err != nil {
		return nil, err
	}
	p, ok := r.m.state.publications[id]
	if !ok {
		return nil, notFound("publication", id)
	}
	return &p, nil
}

func (r memPublicationRepo) GetByProject(ctx context.Context, projectID uuid.UUID) (*models.Publication, error) {
	for _, p := range r.m.state.publications {
		if p.ProjectID == projectID {
			return &p, nil
		}
	}
	return nil, notFound("publication for project", projectID)
}

// --- links ---

type memLinkRepo struct{ m *memStore }

func (r memLinkRepo) LinkProfessorToProject(ctx context.Context, professorID, projectID uuid.UUID) error {
	k := linkKey{professorID, projectID}
	if r.m.state.profLinks[k] {
		return fmt.Errorf("professor %s already linked to project %s: %w", professorID, projectID, apperrors.ErrDuplicateLink)
	}
	r.m.state.profLinks[k] = true
	return nil
}

func (r memLinkRepo) LinkGrantToProject(ctx context.Context, projectID, grantID uuid.UUID) error {
	k := linkKey{projectID, grantID}
	if r.m.state.grantLinks[k] {
		return fmt.Errorf("project %s already linked to grant %s: %w", projectID, grantID, apperrors.ErrDuplicateLink)
	}
	r.m.state.grantLinks[k] = true
	return nil
}

func (r memLinkRepo) DeleteByProject(ctx context.Context, projectID uuid.UUID) (int64, error) {
	var n int64
	for k := range r.m.state.profLinks {
		if k[1] == projectID {
			delete(r.m.state.profLinks, k)
			n++
		}
	}
	for k := range r.m.state.grantLinks {
		if k[0] == projectID {
			delete(r.m.state.grantLinks, k)
			n++
		}
	}
	return n, nil
}

func (r memLinkRepo) DeleteByGrant(ctx context.Context, grantID uuid.UUID) (int64, error) {
	var n int64
	for k := range r.m.state.grantLinks {
		if k[1] == grantID {
			delete(r.m.state.grantLinks, k)
			n++
		}
	}
	return n, nil
}

func (r memLinkRepo) DeleteByProfessor(ctx context.Context, professorID uuid.UUID) (int64, error) {
	var n int64
	for k := range r.m.state.profLinks {
		if k[0] == professorID {
			delete(r.m.state.profLinks, k)
			n++
		}
	}
	return n, nil
}

// --- audit ---

type memAuditRepo struct{ m *memStore }

func (r memAuditRepo) Create(ctx context.Context, e *models.AuditEntry) error {
	if err := requireTx(ctx); err != nil {
		return err
	}
	if r.m.auditErr != nil {
		return r.m.auditErr
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	r.m.state.seq++
	e.Seq = r.m.state.seq
	e.CreatedAt = time.Now()
	r.m.state.audit = append(r.m.state.audit, *e)
	return nil
}

func (r memAuditRepo) List(ctx context.Context, before int64, limit int) ([]*models.AuditEntry, error) {
	if err := r.m.nextReadErr(); err != nil {
		return nil, err
	}
	all := append([]models.AuditEntry(nil), r.m.state.audit...)
	sort.Slice(all, func(i, j int) bool { return all[i].Seq > all[j].Seq })

	out := make([]*models.AuditEntry, 0, limit)
	for i := range all {
		if before > 0 && all[i].Seq >= before {
			continue
		}
		if len(out) == limit {
			break
		}
		out = append(out, &all[i])
	}
	return out, nil
}

// --- wiring ---

type testEngine struct {
	store        *memStore
	audit        AuditService
	ledger       GrantLedger
	lifecycle    ProjectLifecycle
	associations AssociationService
	directory    DirectoryService
}

func fastRetry() *retry.Config {
	return &retry.Config{MaxRetries: 3, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2}
}

func newTestEngine(logger *zap.Logger) *testEngine {
	m := newMemStore()
	cfg := fastRetry()

	auditSvc := NewAuditService(m, memAuditRepo{m}, cfg, 2, logger)
	return &testEngine{
		store:        m,
		audit:        auditSvc,
		ledger:       NewGrantLedger(m, memGrantRepo{m}, memAgencyRepo{m}, memLinkRepo{m}, nil, cfg, logger),
		lifecycle:    NewProjectLifecycle(m, memProjectRepo{m}, memPublicationRepo{m}, memLinkRepo{m}, auditSvc, nil, cfg, logger),
		associations: NewAssociationService(m, memProfessorRepo{m}, memProjectRepo{m}, memGrantRepo{m}, memLinkRepo{m}, nil, logger),
		directory:    NewDirectoryService(m, memProfessorRepo{m}, memAgencyRepo{m}, memPublicationRepo{m}, memLinkRepo{m}, cfg, logger),
	}
}

func unavailableErr() error {
	return fmt.Errorf("%w: connection reset", apperrors.ErrStoreUnavailable)
}
