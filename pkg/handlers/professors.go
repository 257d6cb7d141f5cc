package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/siddharth-k03/urgas/pkg/services"
)

// CreateProfessorRequest is the body of POST /api/professors.
type CreateProfessorRequest struct {
	Name       string `json:"name"`
	Department string `json:"department"`
	Email      string `json:"email"`
}

// ProfessorsHandler serves the professor endpoints.
type ProfessorsHandler struct {
	directory services.DirectoryService
	logger    *zap.Logger
}

func NewProfessorsHandler(directory services.DirectoryService, logger *zap.Logger) *ProfessorsHandler {
	return &ProfessorsHandler{directory: directory, logger: logger}
}

func (h *ProfessorsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/professors", h.Create)
	mux.HandleFunc("GET /api/professors/{id}", h.Get)
	mux.HandleFunc("DELETE /api/professors/{id}", h.Delete)
}

// Create handles POST /api/professors
func (h *ProfessorsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateProfessorRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, h.logger, "invalid_request", "Invalid request body")
		return
	}

	professor, err := h.directory.CreateProfessor(r.Context(), req.Name, req.Department, req.Email)
	if err != nil {
		writeServiceError(w, h.logger, "Create professor", err)
		return
	}
	writeData(w, h.logger, http.StatusCreated, professor)
}

// Get handles GET /api/professors/{id}
func (h *ProfessorsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	professor, err := h.directory.GetProfessor(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, "Get professor", err)
		return
	}
	writeData(w, h.logger, http.StatusOK, professor)
}

// Delete handles DELETE /api/professors/{id}
func (h *ProfessorsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.directory.DeleteProfessor(r.Context(), id); err != nil {
		writeServiceError(w, h.logger, "Delete professor", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
