package handlers

import (
	"net/http"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/siddharth-k03/urgas/pkg/services"
)

// AllocateGrantRequest is the body of POST /api/grants.
type AllocateGrantRequest struct {
	FundingAgencyID string          `json:"funding_agency_id"`
	Amount          decimal.Decimal `json:"amount"`
}

// DeductRequest is the body of POST /api/grants/{id}/deductions.
type DeductRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// GrantsHandler serves the grant ledger endpoints.
type GrantsHandler struct {
	ledger services.GrantLedger
	logger *zap.Logger
}

func NewGrantsHandler(ledger services.GrantLedger, logger *zap.Logger) *GrantsHandler {
	return &GrantsHandler{ledger: ledger, logger: logger}
}

func (h *GrantsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/grants", h.Allocate)
	mux.HandleFunc("GET /api/grants/{id}", h.Get)
	mux.HandleFunc("DELETE /api/grants/{id}", h.Delete)
	mux.HandleFunc("POST /api/grants/{id}/deductions", h.Deduct)
}

// Allocate handles POST /api/grants
func (h *GrantsHandler) Allocate(w http.ResponseWriter, r *http.Request) {
	var req AllocateGrantRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, h.logger, "invalid_request", "Invalid request body")
		return
	}
	agencyID, ok := parseBodyUUID(w, req.FundingAgencyID, "funding_agency_id", h.logger)
	if !ok {
		return
	}

	grant, err := h.ledger.Allocate(r.Context(), req.Amount, agencyID)
	if err != nil {
		writeServiceError(w, h.logger, "Allocate grant", err)
		return
	}
	writeData(w, h.logger, http.StatusCreated, grant)
}

// Get handles GET /api/grants/{id}
func (h *GrantsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	grant, err := h.ledger.GetGrant(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, "Get grant", err)
		return
	}
	writeData(w, h.logger, http.StatusOK, grant)
}

// Delete handles DELETE /api/grants/{id}
func (h *GrantsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.ledger.DeleteGrant(r.Context(), id); err != nil {
		writeServiceError(w, h.logger, "Delete grant", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Deduct handles POST /api/grants/{id}/deductions
// The response reports the remaining balance and whether the grant was
// exhausted and removed.
func (h *GrantsHandler) Deduct(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}
	var req DeductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, h.logger, "invalid_request", "Invalid request body")
		return
	}

	deduction, err := h.ledger.Deduct(r.Context(), id, req.Amount)
	if err != nil {
		writeServiceError(w, h.logger, "Deduct grant", err)
		return
	}
	writeData(w, h.logger, http.StatusOK, deduction)
}
