package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mestero/estimate-api/internal/domain"
	"github.com/mestero/estimate-api/internal/service"
)

// ProjectHandler handles HTTP requests for project operations
type ProjectHandler struct {
	projectService *service.ProjectService
	logger         *zap.Logger
}

// NewProjectHandler creates a new ProjectHandler instance
func NewProjectHandler(projectService *service.ProjectService, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
		logger:         logger,
	}
}

// Create godoc
// @Summary Create project
// @Description Create a new project with a default customer view
// @Tags Projects
// @Accept json
// @Produce json
// @Param request body domain.CreateProjectRequest true "Project data"
// @Success 201 {object} domain.ProjectDTO "Created project"
// @Failure 400 {object} domain.ErrorResponse "Invalid request"
// @Failure 500 {object} domain.ErrorResponse "Internal server error"
// @Security ApiKeyAuth
// @Router /projects [post]
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	project, err := h.projectService.Create(r.Context(), &req)
	if err != nil {
		h.logger.Error("failed to create project", zap.Error(err))
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, project)
}

// List godoc
// @Summary List projects
// @Description Get all projects
// @Tags Projects
// @Produce json
// @Success 200 {array} domain.ProjectDTO "Projects"
// @Failure 500 {object} domain.ErrorResponse "Internal server error"
// @Security ApiKeyAuth
// @Router /projects [get]
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	projects, err := h.projectService.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list projects", zap.Error(err))
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, projects)
}

// Get godoc
// @Summary Get project
// @Description Get a project by ID
// @Tags Projects
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} domain.ProjectDTO "Project"
// @Failure 400 {object} domain.ErrorResponse "Invalid project ID"
// @Failure 404 {object} domain.ErrorResponse "Project not found"
// @Security ApiKeyAuth
// @Router /projects/{id} [get]
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid project ID")
		return
	}

	project, err := h.projectService.GetByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, project)
}

// GetTree godoc
// @Summary Get project tree
// @Description Get a project with its views, sections, items and resolved per-view values
// @Tags Projects
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} domain.ProjectWithTreeDTO "Project with tree"
// @Failure 400 {object} domain.ErrorResponse "Invalid project ID"
// @Failure 404 {object} domain.ErrorResponse "Project not found"
// @Security ApiKeyAuth
// @Router /projects/{id}/tree [get]
func (h *ProjectHandler) GetTree(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid project ID")
		return
	}

	tree, err := h.projectService.GetTree(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, tree)
}

// Update godoc
// @Summary Update project
// @Description Update a project's name or description
// @Tags Projects
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param request body domain.UpdateProjectRequest true "Fields to update"
// @Success 200 {object} domain.ProjectDTO "Updated project"
// @Failure 400 {object} domain.ErrorResponse "Invalid request"
// @Failure 404 {object} domain.ErrorResponse "Project not found"
// @Security ApiKeyAuth
// @Router /projects/{id} [put]
func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid project ID")
		return
	}

	var req domain.UpdateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	project, err := h.projectService.Update(r.Context(), id, &req)
	if err != nil {
		h.logger.Error("failed to update project", zap.Error(err), zap.String("project_id", id.String()))
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, project)
}

// Delete godoc
// @Summary Delete project
// @Description Delete a project with everything it owns
// @Tags Projects
// @Param id path string true "Project ID"
// @Success 204 "Deleted"
// @Failure 400 {object} domain.ErrorResponse "Invalid project ID"
// @Failure 404 {object} domain.ErrorResponse "Project not found"
// @Security ApiKeyAuth
// @Router /projects/{id} [delete]
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid project ID")
		return
	}

	if err := h.projectService.Delete(r.Context(), id); err != nil {
		h.logger.Error("failed to delete project", zap.Error(err), zap.String("project_id", id.String()))
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// Totals godoc
// @Summary Get view totals
// @Description Get the total and per-section subtotals of one view
// @Tags Projects
// @Produce json
// @Param id path string true "Project ID"
// @Param viewId path string true "View ID"
// @Success 200 {object} domain.ViewTotalsDTO "Totals"
// @Failure 400 {object} domain.ErrorResponse "Invalid ID or view of another project"
// @Failure 404 {object} domain.ErrorResponse "Project not found"
// @Security ApiKeyAuth
// @Router /projects/{id}/views/{viewId}/totals [get]
func (h *ProjectHandler) Totals(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid project ID")
		return
	}
	viewID, err := uuid.Parse(chi.URLParam(r, "viewId"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid view ID")
		return
	}

	totals, err := h.projectService.Totals(r.Context(), projectID, viewID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, totals)
}
