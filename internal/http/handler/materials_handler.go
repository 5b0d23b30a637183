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

// MaterialsHandler handles HTTP requests for materials lists
type MaterialsHandler struct {
	materialsService *service.MaterialsService
	logger           *zap.Logger
}

// NewMaterialsHandler creates a new MaterialsHandler instance
func NewMaterialsHandler(materialsService *service.MaterialsService, logger *zap.Logger) *MaterialsHandler {
	return &MaterialsHandler{
		materialsService: materialsService,
		logger:           logger,
	}
}

// Create godoc
// @Summary Create materials list
// @Description Parse product pages into a priced materials list
// @Tags Materials
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param request body domain.CreateMaterialsListRequest true "Name and product URLs"
// @Success 201 {object} domain.MaterialsListDTO "Created list"
// @Failure 404 {object} domain.ErrorResponse "Project not found"
// @Failure 502 {object} domain.ErrorResponse "Parsing service unavailable"
// @Security ApiKeyAuth
// @Router /projects/{id}/materials [post]
func (h *MaterialsHandler) Create(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid project ID")
		return
	}

	var req domain.CreateMaterialsListRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	list, err := h.materialsService.CreateFromURLs(r.Context(), projectID, &req)
	if err != nil {
		h.logger.Error("failed to create materials list", zap.Error(err), zap.String("project_id", projectID.String()))
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, list)
}

// List godoc
// @Summary List materials lists
// @Tags Materials
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {array} domain.MaterialsListDTO "Materials lists"
// @Security ApiKeyAuth
// @Router /projects/{id}/materials [get]
func (h *MaterialsHandler) List(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid project ID")
		return
	}

	lists, err := h.materialsService.ListByProject(r.Context(), projectID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, lists)
}

// Get godoc
// @Summary Get materials list
// @Tags Materials
// @Produce json
// @Param id path string true "Materials list ID"
// @Success 200 {object} domain.MaterialsListDTO "Materials list"
// @Failure 404 {object} domain.ErrorResponse "List not found"
// @Security ApiKeyAuth
// @Router /materials/{id} [get]
func (h *MaterialsHandler) Get(w http.ResponseWriter, r *http.Request) {
	listID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid materials list ID")
		return
	}

	list, err := h.materialsService.GetByID(r.Context(), listID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

// Delete godoc
// @Summary Delete materials list
// @Tags Materials
// @Param id path string true "Materials list ID"
// @Success 204 "Deleted"
// @Failure 404 {object} domain.ErrorResponse "List not found"
// @Security ApiKeyAuth
// @Router /materials/{id} [delete]
func (h *MaterialsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	listID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid materials list ID")
		return
	}

	if err := h.materialsService.Delete(r.Context(), listID); err != nil {
		h.logger.Error("failed to delete materials list", zap.Error(err), zap.String("list_id", listID.String()))
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}
