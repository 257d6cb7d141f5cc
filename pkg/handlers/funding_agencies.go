package handlers

import (
	"net/http"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/siddharth-k03/urgas/pkg/services"
)

// CreateFundingAgencyRequest is the body of POST /api/funding-agencies.
// Budget accepts a JSON string or number.
type CreateFundingAgencyRequest struct {
	Name   string          `json:"name"`
	Budget decimal.Decimal `json:"budget"`
}

// FundingAgenciesHandler serves the funding agency endpoints.
type FundingAgenciesHandler struct {
	directory services.DirectoryService
	logger    *zap.Logger
}

func NewFundingAgenciesHandler(directory services.DirectoryService, logger *zap.Logger) *FundingAgenciesHandler {
	return &FundingAgenciesHandler{directory: directory, logger: logger}
}

func (h *FundingAgenciesHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/funding-agencies", h.Create)
	mux.HandleFunc("GET /api/funding-agencies/{id}", h.Get)
	mux.HandleFunc("DELETE /api/funding-agencies/{id}", h.Delete)
}

// Create handles POST /api/funding-agencies
func (h *FundingAgenciesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateFundingAgencyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, h.logger, "invalid_request", "Invalid request body")
		return
	}

	agency, err := h.directory.CreateFundingAgency(r.Context(), req.Name, req.Budget)
	if err != nil {
		writeServiceError(w, h.logger, "Create funding agency", err)
		return
	}
	writeData(w, h.logger, http.StatusCreated, agency)
}

// Get handles GET /api/funding-agencies/{id}
func (h *FundingAgenciesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	agency, err := h.directory.GetFundingAgency(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, "Get funding agency", err)
		return
	}
	writeData(w, h.logger, http.StatusOK, agency)
}

// Delete handles DELETE /api/funding-agencies/{id}
// Responds 409 while grants still reference the agency.
func (h *FundingAgenciesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.directory.DeleteFundingAgency(r.Context(), id); err != nil {
		writeServiceError(w, h.logger, "Delete funding agency", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
