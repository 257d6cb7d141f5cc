package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/siddharth-k03/urgas/pkg/models"
	"github.com/siddharth-k03/urgas/pkg/services"
)

// CreateProjectRequest is the body of POST /api/projects. Dates use YYYY-MM-DD.
type CreateProjectRequest struct {
	Title     string  `json:"title"`
	StartDate string  `json:"start_date"`
	EndDate   *string `json:"end_date,omitempty"`
}

// UpdateProjectRequest is the body of PATCH /api/projects/{id}.
// Only the fields present are changed.
type UpdateProjectRequest struct {
	Title     *string `json:"title,omitempty"`
	StartDate *string `json:"start_date,omitempty"`
	EndDate   *string `json:"end_date,omitempty"`
}

// ConvertProjectRequest is the body of POST /api/projects/{id}/publication.
type ConvertProjectRequest struct {
	Title string `json:"title"`
}

// LinkProfessorRequest is the body of POST /api/projects/{id}/professors.
type LinkProfessorRequest struct {
	ProfessorID string `json:"professor_id"`
}

// LinkGrantRequest is the body of POST /api/projects/{id}/grants.
type LinkGrantRequest struct {
	GrantID string `json:"grant_id"`
}

// ProjectResponse renders a project with calendar dates.
type ProjectResponse struct {
	ID        uuid.UUID           `json:"id"`
	Title     string              `json:"title"`
	StartDate string              `json:"start_date"`
	EndDate   *string             `json:"end_date,omitempty"`
	State     models.ProjectState `json:"state"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// LinkResponse echoes the pair that was linked.
type LinkResponse struct {
	ProjectID   uuid.UUID  `json:"project_id"`
	ProfessorID *uuid.UUID `json:"professor_id,omitempty"`
	GrantID     *uuid.UUID `json:"grant_id,omitempty"`
}

func toProjectResponse(p *models.Project) ProjectResponse {
	resp := ProjectResponse{
		ID:        p.ID,
		Title:     p.Title,
		StartDate: p.StartDate.Format(services.DateLayout),
		State:     p.State,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if p.EndDate != nil {
		end := p.EndDate.Format(services.DateLayout)
		resp.EndDate = &end
	}
	return resp
}

// ProjectsHandler serves projects, their conversion and their associations.
type ProjectsHandler struct {
	lifecycle    services.ProjectLifecycle
	associations services.AssociationService
	logger       *zap.Logger
}

func NewProjectsHandler(lifecycle services.ProjectLifecycle, associations services.AssociationService, logger *zap.Logger) *ProjectsHandler {
	return &ProjectsHandler{lifecycle: lifecycle, associations: associations, logger: logger}
}

func (h *ProjectsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/projects", h.Create)
	mux.HandleFunc("GET /api/projects/{id}", h.Get)
	mux.HandleFunc("PATCH /api/projects/{id}", h.Update)
	mux.HandleFunc("DELETE /api/projects/{id}", h.Delete)
	mux.HandleFunc("POST /api/projects/{id}/publication", h.Convert)
	mux.HandleFunc("POST /api/projects/{id}/professors", h.LinkProfessor)
	mux.HandleFunc("POST /api/projects/{id}/grants", h.LinkGrant)
}

// Create handles POST /api/projects
func (h *ProjectsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateProjectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, h.logger, "invalid_request", "Invalid request body")
		return
	}

	start, ok := h.parseDate(w, req.StartDate, "start_date")
	if !ok {
		return
	}
	input := services.CreateProjectInput{Title: req.Title, StartDate: start}
	if req.EndDate != nil {
		end, ok := h.parseDate(w, *req.EndDate, "end_date")
		if !ok {
			return
		}
		input.EndDate = &end
	}

	project, err := h.lifecycle.Create(r.Context(), input)
	if err != nil {
		writeServiceError(w, h.logger, "Create project", err)
		return
	}
	writeData(w, h.logger, http.StatusCreated, toProjectResponse(project))
}

// Get handles GET /api/projects/{id}
func (h *ProjectsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	project, err := h.lifecycle.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, "Get project", err)
		return
	}
	writeData(w, h.logger, http.StatusOK, toProjectResponse(project))
}

// Update handles PATCH /api/projects/{id}
func (h *ProjectsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}
	var req UpdateProjectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, h.logger, "invalid_request", "Invalid request body")
		return
	}

	update := models.ProjectUpdate{Title: req.Title}
	if req.StartDate != nil {
		start, ok := h.parseDate(w, *req.StartDate, "start_date")
		if !ok {
			return
		}
		update.StartDate = &start
	}
	if req.EndDate != nil {
		end, ok := h.parseDate(w, *req.EndDate, "end_date")
		if !ok {
			return
		}
		update.EndDate = &end
	}

	project, err := h.lifecycle.Update(r.Context(), id, update)
	if err != nil {
		writeServiceError(w, h.logger, "Update project", err)
		return
	}
	writeData(w, h.logger, http.StatusOK, toProjectResponse(project))
}

// Delete handles DELETE /api/projects/{id}
func (h *ProjectsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.lifecycle.Delete(r.Context(), id); err != nil {
		writeServiceError(w, h.logger, "Delete project", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Convert handles POST /api/projects/{id}/publication
func (h *ProjectsHandler) Convert(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}
	var req ConvertProjectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, h.logger, "invalid_request", "Invalid request body")
		return
	}

	publication, err := h.lifecycle.ConvertToPublication(r.Context(), id, req.Title)
	if err != nil {
		writeServiceError(w, h.logger, "Convert project", err)
		return
	}
	writeData(w, h.logger, http.StatusCreated, publication)
}

// LinkProfessor handles POST /api/projects/{id}/professors
func (h *ProjectsHandler) LinkProfessor(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}
	var req LinkProfessorRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, h.logger, "invalid_request", "Invalid request body")
		return
	}
	professorID, ok := parseBodyUUID(w, req.ProfessorID, "professor_id", h.logger)
	if !ok {
		return
	}

	if err := h.associations.LinkProfessorToProject(r.Context(), professorID, projectID); err != nil {
		writeServiceError(w, h.logger, "Link professor", err)
		return
	}
	writeData(w, h.logger, http.StatusCreated, LinkResponse{ProjectID: projectID, ProfessorID: &professorID})
}

// LinkGrant handles POST /api/projects/{id}/grants
func (h *ProjectsHandler) LinkGrant(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}
	var req LinkGrantRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, h.logger, "invalid_request", "Invalid request body")
		return
	}
	grantID, ok := parseBodyUUID(w, req.GrantID, "grant_id", h.logger)
	if !ok {
		return
	}

	if err := h.associations.LinkGrantToProject(r.Context(), projectID, grantID); err != nil {
		writeServiceError(w, h.logger, "Link grant", err)
		return
	}
	writeData(w, h.logger, http.StatusCreated, LinkResponse{ProjectID: projectID, GrantID: &grantID})
}

func (h *ProjectsHandler) parseDate(w http.ResponseWriter, value, field string) (time.Time, bool) {
	t, err := time.Parse(services.DateLayout, value)
	if err != nil {
		writeBadRequest(w, h.logger, "invalid_"+field, field+" must be a date in YYYY-MM-DD format")
		return time.Time{}, false
	}
	return t, true
}
