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

// VersionHandler handles HTTP requests for snapshot operations
type VersionHandler struct {
	versionService *service.VersionService
	logger         *zap.Logger
}

// NewVersionHandler creates a new VersionHandler instance
func NewVersionHandler(versionService *service.VersionService, logger *zap.Logger) *VersionHandler {
	return &VersionHandler{
		versionService: versionService,
		logger:         logger,
	}
}

// Create godoc
// @Summary Create version
// @Description Snapshot the current estimate tree under the next sequential number
// @Tags Versions
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param request body domain.CreateVersionRequest true "Optional name"
// @Success 201 {object} domain.VersionDTO "Created version"
// @Failure 404 {object} domain.ErrorResponse "Project not found"
// @Security ApiKeyAuth
// @Router /projects/{id}/versions [post]
func (h *VersionHandler) Create(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid project ID")
		return
	}

	var req domain.CreateVersionRequest
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	version, err := h.versionService.Create(r.Context(), projectID, &req)
	if err != nil {
		h.logger.Error("failed to create version", zap.Error(err), zap.String("project_id", projectID.String()))
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, version)
}

// List godoc
// @Summary List versions
// @Tags Versions
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {array} domain.VersionDTO "Versions, newest first"
// @Security ApiKeyAuth
// @Router /projects/{id}/versions [get]
func (h *VersionHandler) List(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid project ID")
		return
	}

	versions, err := h.versionService.ListByProject(r.Context(), projectID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, versions)
}

// Get godoc
// @Summary Get version
// @Description Get a snapshot with its embedded tree
// @Tags Versions
// @Produce json
// @Param id path string true "Version ID"
// @Success 200 {object} domain.VersionWithTreeDTO "Version"
// @Failure 404 {object} domain.ErrorResponse "Version not found"
// @Security ApiKeyAuth
// @Router /versions/{id} [get]
func (h *VersionHandler) Get(w http.ResponseWriter, r *http.Request) {
	versionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid version ID")
		return
	}

	version, err := h.versionService.GetByID(r.Context(), versionID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, version)
}

// Restore godoc
// @Summary Restore version
// @Description Replace the live tree with the snapshot's contents. Destructive and not reversible.
// @Tags Versions
// @Produce json
// @Param id path string true "Version ID"
// @Success 200 {object} domain.ProjectWithTreeDTO "Restored tree"
// @Failure 404 {object} domain.ErrorResponse "Version or project not found"
// @Security ApiKeyAuth
// @Router /versions/{id}/restore [post]
func (h *VersionHandler) Restore(w http.ResponseWriter, r *http.Request) {
	versionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid version ID")
		return
	}

	tree, err := h.versionService.Restore(r.Context(), versionID)
	if err != nil {
		h.logger.Error("failed to restore version", zap.Error(err), zap.String("version_id", versionID.String()))
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, tree)
}
