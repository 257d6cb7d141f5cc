package handlers

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/siddharth-k03/urgas/pkg/apperrors"
	"github.com/siddharth-k03/urgas/pkg/models"
)

func TestProfessorsHandler(t *testing.T) {
	id := uuid.New()
	dir := &mockDirectory{professor: &models.Professor{ID: id, Name: "Ada"}}
	h := NewProfessorsHandler(dir, zap.NewNop())

	rec := serve(t, h, http.MethodPost, "/api/professors", `{"name":"Ada","department":"CS","email":"ada@uni.edu"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created models.Professor
	decodeData(t, rec, &created)
	assert.Equal(t, "ada@uni.edu", created.Email)

	rec = serve(t, h, http.MethodGet, "/api/professors/"+id.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = serve(t, h, http.MethodDelete, "/api/professors/"+id.String(), "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestProfessorsHandler_InvalidArgument(t *testing.T) {
	dir := &mockDirectory{err: apperrors.ErrInvalidArgument}
	h := NewProfessorsHandler(dir, zap.NewNop())

	rec := serve(t, h, http.MethodPost, "/api/professors", `{"name":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_argument", decodeError(t, rec)["error"])
}

func TestFundingAgenciesHandler(t *testing.T) {
	dir := &mockDirectory{}
	h := NewFundingAgenciesHandler(dir, zap.NewNop())

	rec := serve(t, h, http.MethodPost, "/api/funding-agencies", `{"name":"NSF","budget":"2500000.00"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, dir.lastBudget.Equal(decimal.NewFromInt(2500000)))
}

func TestFundingAgenciesHandler_DeleteConflict(t *testing.T) {
	dir := &mockDirectory{err: apperrors.ErrConflict}
	h := NewFundingAgenciesHandler(dir, zap.NewNop())

	rec := serve(t, h, http.MethodDelete, "/api/funding-agencies/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "conflict", decodeError(t, rec)["error"])
}

func TestPublicationsHandler_Get(t *testing.T) {
	pub := &models.Publication{ID: uuid.New(), ProjectID: uuid.New(), Title: "Reef Study"}
	h := NewPublicationsHandler(&mockDirectory{publication: pub}, zap.NewNop())

	rec := serve(t, h, http.MethodGet, "/api/publications/"+pub.ID.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got models.Publication
	decodeData(t, rec, &got)
	assert.Equal(t, pub.ProjectID, got.ProjectID)

	h = NewPublicationsHandler(&mockDirectory{err: apperrors.ErrNotFound}, zap.NewNop())
	rec = serve(t, h, http.MethodGet, "/api/publications/"+pub.ID.String(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAuditLogHandler_List(t *testing.T) {
	page := &models.AuditPage{
		Entries:    []*models.AuditEntry{{ID: uuid.New(), Seq: 9, Description: models.AuditDescriptionConverted}},
		NextBefore: 9,
	}
	audit := &mockAudit{page: page}
	h := NewAuditLogHandler(audit, zap.NewNop())

	rec := serve(t, h, http.MethodGet, "/api/audit-log?limit=1&before=12", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(12), audit.lastBefore)
	assert.Equal(t, 1, audit.lastLimit)

	var got models.AuditPage
	decodeData(t, rec, &got)
	require.Len(t, got.Entries, 1)
	assert.Equal(t, int64(9), got.NextBefore)
	assert.Equal(t, models.AuditDescriptionConverted, got.Entries[0].Description)
}

func TestAuditLogHandler_List_Defaults(t *testing.T) {
	audit := &mockAudit{page: &models.AuditPage{}}
	h := NewAuditLogHandler(audit, zap.NewNop())

	rec := serve(t, h, http.MethodGet, "/api/audit-log", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(0), audit.lastBefore)
	assert.Equal(t, 0, audit.lastLimit)

	rec = serve(t, h, http.MethodGet, "/api/audit-log?limit=99999999", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 500, audit.lastLimit)
}

func TestAuditLogHandler_List_BadQuery(t *testing.T) {
	h := NewAuditLogHandler(&mockAudit{}, zap.NewNop())

	rec := serve(t, h, http.MethodGet, "/api/audit-log?before=-3", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_before", decodeError(t, rec)["error"])
}
