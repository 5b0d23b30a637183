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

// ActHandler handles HTTP requests for completion certificates
type ActHandler struct {
	actService *service.ActService
	logger     *zap.Logger
}

// NewActHandler creates a new ActHandler instance
func NewActHandler(actService *service.ActService, logger *zap.Logger) *ActHandler {
	return &ActHandler{
		actService: actService,
		logger:     logger,
	}
}

// Create godoc
// @Summary Create act
// @Description Render the act document and record the act. The artifact is delivered even when the record write fails.
// @Tags Acts
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param request body domain.CreateActRequest true "Act data and selection"
// @Success 201 {object} domain.ActCreateResultDTO "Created act with artifact path"
// @Failure 400 {object} domain.ErrorResponse "Empty selection or invalid view"
// @Failure 404 {object} domain.ErrorResponse "Project not found"
// @Failure 502 {object} domain.ErrorResponse "Rendering service unavailable"
// @Security ApiKeyAuth
// @Router /projects/{id}/acts [post]
func (h *ActHandler) Create(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid project ID")
		return
	}

	var req domain.CreateActRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	result, err := h.actService.Create(r.Context(), projectID, &req)
	if err != nil {
		h.logger.Error("failed to create act", zap.Error(err), zap.String("project_id", projectID.String()))
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, result)
}

// List godoc
// @Summary List acts
// @Tags Acts
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {array} domain.ActDTO "Acts"
// @Security ApiKeyAuth
// @Router /projects/{id}/acts [get]
func (h *ActHandler) List(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid project ID")
		return
	}

	acts, err := h.actService.ListByProject(r.Context(), projectID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, acts)
}

// Get godoc
// @Summary Get act
// @Tags Acts
// @Produce json
// @Param id path string true "Act ID"
// @Success 200 {object} domain.ActDTO "Act"
// @Failure 404 {object} domain.ErrorResponse "Act not found"
// @Security ApiKeyAuth
// @Router /acts/{id} [get]
func (h *ActHandler) Get(w http.ResponseWriter, r *http.Request) {
	actID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid act ID")
		return
	}

	act, err := h.actService.GetByID(r.Context(), actID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, act)
}

// Delete godoc
// @Summary Delete act
// @Description Delete an act; item locks derived from payments are unaffected
// @Tags Acts
// @Param id path string true "Act ID"
// @Success 204 "Deleted"
// @Failure 404 {object} domain.ErrorResponse "Act not found"
// @Security ApiKeyAuth
// @Router /acts/{id} [delete]
func (h *ActHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid act ID")
		return
	}

	if err := h.actService.Delete(r.Context(), actID); err != nil {
		h.logger.Error("failed to delete act", zap.Error(err), zap.String("act_id", actID.String()))
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// UsedItems godoc
// @Summary Get used items
// @Description Per item, the acts that have included it. A soft warning surface, not a lock.
// @Tags Acts
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} map[string][]domain.ActUsage "Item ID to act usages"
// @Security ApiKeyAuth
// @Router /projects/{id}/acts/used-items [get]
func (h *ActHandler) UsedItems(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid project ID")
		return
	}

	used, err := h.actService.UsedItems(r.Context(), projectID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, used)
}
