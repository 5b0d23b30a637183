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

// ViewHandler handles HTTP requests for view operations
type ViewHandler struct {
	viewService *service.ViewService
	logger      *zap.Logger
}

// NewViewHandler creates a new ViewHandler instance
func NewViewHandler(viewService *service.ViewService, logger *zap.Logger) *ViewHandler {
	return &ViewHandler{
		viewService: viewService,
		logger:      logger,
	}
}

// Create godoc
// @Summary Create view
// @Tags Views
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param request body domain.CreateViewRequest true "View data"
// @Success 201 {object} domain.ViewDTO "Created view"
// @Failure 404 {object} domain.ErrorResponse "Project not found"
// @Security ApiKeyAuth
// @Router /projects/{id}/views [post]
func (h *ViewHandler) Create(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid project ID")
		return
	}

	var req domain.CreateViewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	view, err := h.viewService.Create(r.Context(), projectID, &req)
	if err != nil {
		h.logger.Error("failed to create view", zap.Error(err), zap.String("project_id", projectID.String()))
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, view)
}

// List godoc
// @Summary List views
// @Tags Views
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {array} domain.ViewDTO "Views"
// @Security ApiKeyAuth
// @Router /projects/{id}/views [get]
func (h *ViewHandler) List(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid project ID")
		return
	}

	views, err := h.viewService.ListByProject(r.Context(), projectID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, views)
}

// Rename godoc
// @Summary Rename view
// @Tags Views
// @Accept json
// @Produce json
// @Param id path string true "View ID"
// @Param request body domain.RenameViewRequest true "New name"
// @Success 200 {object} domain.ViewDTO "Updated view"
// @Failure 404 {object} domain.ErrorResponse "View not found"
// @Security ApiKeyAuth
// @Router /views/{id} [put]
func (h *ViewHandler) Rename(w http.ResponseWriter, r *http.Request) {
	viewID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid view ID")
		return
	}

	var req domain.RenameViewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	view, err := h.viewService.Rename(r.Context(), viewID, &req)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// SetPassword godoc
// @Summary Set view password
// @Description Protect the view's shareable link with a password
// @Tags Views
// @Accept json
// @Param id path string true "View ID"
// @Param request body domain.SetViewPasswordRequest true "Password"
// @Success 204 "Password set"
// @Failure 404 {object} domain.ErrorResponse "View not found"
// @Security ApiKeyAuth
// @Router /views/{id}/password [put]
func (h *ViewHandler) SetPassword(w http.ResponseWriter, r *http.Request) {
	viewID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid view ID")
		return
	}

	var req domain.SetViewPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	if err := h.viewService.SetPassword(r.Context(), viewID, &req); err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// ClearPassword godoc
// @Summary Clear view password
// @Tags Views
// @Param id path string true "View ID"
// @Success 204 "Password cleared"
// @Failure 404 {object} domain.ErrorResponse "View not found"
// @Security ApiKeyAuth
// @Router /views/{id}/password [delete]
func (h *ViewHandler) ClearPassword(w http.ResponseWriter, r *http.Request) {
	viewID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid view ID")
		return
	}

	if err := h.viewService.ClearPassword(r.Context(), viewID); err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// Duplicate godoc
// @Summary Duplicate view
// @Description Copy a view with all item and section settings under a new access token
// @Tags Views
// @Accept json
// @Produce json
// @Param id path string true "View ID"
// @Param request body domain.DuplicateViewRequest true "Optional name"
// @Success 201 {object} domain.ViewDTO "Duplicated view"
// @Failure 404 {object} domain.ErrorResponse "View not found"
// @Security ApiKeyAuth
// @Router /views/{id}/duplicate [post]
func (h *ViewHandler) Duplicate(w http.ResponseWriter, r *http.Request) {
	viewID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid view ID")
		return
	}

	var req domain.DuplicateViewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	view, err := h.viewService.Duplicate(r.Context(), viewID, &req)
	if err != nil {
		h.logger.Error("failed to duplicate view", zap.Error(err), zap.String("view_id", viewID.String()))
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, view)
}

// Delete godoc
// @Summary Delete view
// @Description Delete a view. The last view of a project cannot be deleted.
// @Tags Views
// @Param id path string true "View ID"
// @Success 204 "Deleted"
// @Failure 404 {object} domain.ErrorResponse "View not found"
// @Failure 409 {object} domain.ErrorResponse "Last remaining view"
// @Security ApiKeyAuth
// @Router /views/{id} [delete]
func (h *ViewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	viewID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid view ID")
		return
	}

	if err := h.viewService.Delete(r.Context(), viewID); err != nil {
		h.logger.Error("failed to delete view", zap.Error(err), zap.String("view_id", viewID.String()))
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// SetCustomerFlag godoc
// @Summary Mark view as customer view
// @Description Flag a view as the customer-facing pricing basis; demotes the previous holder
// @Tags Views
// @Produce json
// @Param id path string true "View ID"
// @Success 200 {object} domain.ViewDTO "Updated view"
// @Failure 404 {object} domain.ErrorResponse "View not found"
// @Security ApiKeyAuth
// @Router /views/{id}/customer [put]
func (h *ViewHandler) SetCustomerFlag(w http.ResponseWriter, r *http.Request) {
	viewID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid view ID")
		return
	}

	view, err := h.viewService.SetCustomerView(r.Context(), viewID)
	if err != nil {
		h.logger.Error("failed to set customer view", zap.Error(err), zap.String("view_id", viewID.String()))
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// GetByToken godoc
// @Summary Resolve view by access token
// @Description Resolve a shared view from its link token
// @Tags Views
// @Produce json
// @Param token path string true "Access token"
// @Success 200 {object} domain.ViewDTO "View"
// @Failure 404 {object} domain.ErrorResponse "View not found"
// @Router /shared/{token} [get]
func (h *ViewHandler) GetByToken(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if token == "" {
		respondWithError(w, http.StatusBadRequest, "Missing access token")
		return
	}

	view, err := h.viewService.GetByAccessToken(r.Context(), token)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}
