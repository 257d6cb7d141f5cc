package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/siddharth-k03/urgas/pkg/services"
)

// PublicationsHandler serves read access to publications. Publications are
// only ever created through project conversion.
type PublicationsHandler struct {
	directory services.DirectoryService
	logger    *zap.Logger
}

func NewPublicationsHandler(directory services.DirectoryService, logger *zap.Logger) *PublicationsHandler {
	return &PublicationsHandler{directory: directory, logger: logger}
}

func (h *PublicationsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/publications/{id}", h.Get)
}

// Get handles GET /api/publications/{id}
func (h *PublicationsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	publication, err := h.directory.GetPublication(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, "Get publication", err)
		return
	}
	writeData(w, h.logger, http.StatusOK, publication)
}
