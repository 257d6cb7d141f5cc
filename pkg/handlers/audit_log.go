package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/siddharth-k03/urgas/pkg/services"
)

// AuditLogHandler serves the project audit trail, newest first.
type AuditLogHandler struct {
	audit  services.AuditService
	logger *zap.Logger
}

func NewAuditLogHandler(audit services.AuditService, logger *zap.Logger) *AuditLogHandler {
	return &AuditLogHandler{audit: audit, logger: logger}
}

func (h *AuditLogHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/audit-log", h.List)
}

// List handles GET /api/audit-log?limit=&before=
// before is the next_before cursor of the previous page; a zero limit uses
// the configured page size.
func (h *AuditLogHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseIntQuery(w, r, "limit", h.logger)
	if !ok {
		return
	}
	before, ok := parseIntQuery(w, r, "before", h.logger)
	if !ok {
		return
	}
	// Clamp before narrowing to int; the service clamps again.
	if limit > services.MaxAuditPageSize {
		limit = services.MaxAuditPageSize
	}

	page, err := h.audit.List(r.Context(), before, int(limit))
	if err != nil {
		writeServiceError(w, h.logger, "List audit log", err)
		return
	}
	writeData(w, h.logger, http.StatusOK, page)
}
