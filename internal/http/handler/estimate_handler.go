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

// EstimateHandler handles HTTP requests for the section and item tree
type EstimateHandler struct {
	estimateService *service.EstimateService
	logger          *zap.Logger
}

// NewEstimateHandler creates a new EstimateHandler instance
func NewEstimateHandler(estimateService *service.EstimateService, logger *zap.Logger) *EstimateHandler {
	return &EstimateHandler{
		estimateService: estimateService,
		logger:          logger,
	}
}

// AddSection godoc
// @Summary Add section
// @Description Add a section to a project
// @Tags Estimate
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param request body domain.CreateSectionRequest true "Section data"
// @Success 201 {object} domain.SectionDTO "Created section"
// @Failure 400 {object} domain.ErrorResponse "Invalid request"
// @Failure 404 {object} domain.ErrorResponse "Project not found"
// @Security ApiKeyAuth
// @Router /projects/{id}/sections [post]
func (h *EstimateHandler) AddSection(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid project ID")
		return
	}

	var req domain.CreateSectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	section, err := h.estimateService.AddSection(r.Context(), projectID, &req)
	if err != nil {
		h.logger.Error("failed to add section", zap.Error(err), zap.String("project_id", projectID.String()))
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, section)
}

// RenameSection godoc
// @Summary Rename section
// @Tags Estimate
// @Accept json
// @Produce json
// @Param id path string true "Section ID"
// @Param request body domain.RenameSectionRequest true "New name"
// @Success 200 {object} domain.SectionDTO "Updated section"
// @Failure 400 {object} domain.ErrorResponse "Invalid request"
// @Failure 404 {object} domain.ErrorResponse "Section not found"
// @Security ApiKeyAuth
// @Router /sections/{id} [put]
func (h *EstimateHandler) RenameSection(w http.ResponseWriter, r *http.Request) {
	sectionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid section ID")
		return
	}

	var req domain.RenameSectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	section, err := h.estimateService.RenameSection(r.Context(), sectionID, &req)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, section)
}

// DeleteSection godoc
// @Summary Delete section
// @Description Delete a section with its items. Rejected while any item is settled.
// @Tags Estimate
// @Param id path string true "Section ID"
// @Success 204 "Deleted"
// @Failure 404 {object} domain.ErrorResponse "Section not found"
// @Failure 409 {object} domain.ErrorResponse "Section contains settled items"
// @Security ApiKeyAuth
// @Router /sections/{id} [delete]
func (h *EstimateHandler) DeleteSection(w http.ResponseWriter, r *http.Request) {
	sectionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid section ID")
		return
	}

	if err := h.estimateService.DeleteSection(r.Context(), sectionID); err != nil {
		h.logger.Error("failed to delete section", zap.Error(err), zap.String("section_id", sectionID.String()))
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// SetSectionVisibility godoc
// @Summary Set section visibility
// @Description Show or hide a whole section in one view
// @Tags Estimate
// @Accept json
// @Param id path string true "Section ID"
// @Param request body domain.SetSectionVisibilityRequest true "Visibility"
// @Success 204 "Updated"
// @Failure 400 {object} domain.ErrorResponse "View belongs to another project"
// @Failure 404 {object} domain.ErrorResponse "Section or view not found"
// @Security ApiKeyAuth
// @Router /sections/{id}/visibility [put]
func (h *EstimateHandler) SetSectionVisibility(w http.ResponseWriter, r *http.Request) {
	sectionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid section ID")
		return
	}

	var req domain.SetSectionVisibilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	if err := h.estimateService.SetSectionVisibility(r.Context(), sectionID, &req); err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// ReorderSections godoc
// @Summary Reorder sections
// @Tags Estimate
// @Accept json
// @Param id path string true "Project ID"
// @Param request body domain.ReorderRequest true "Ordered section IDs"
// @Success 204 "Reordered"
// @Failure 404 {object} domain.ErrorResponse "Project not found"
// @Security ApiKeyAuth
// @Router /projects/{id}/sections/reorder [put]
func (h *EstimateHandler) ReorderSections(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid project ID")
		return
	}

	var req domain.ReorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	if err := h.estimateService.ReorderSections(r.Context(), projectID, &req); err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// AddItem godoc
// @Summary Add item
// @Description Add an item to a section
// @Tags Estimate
// @Accept json
// @Produce json
// @Param id path string true "Section ID"
// @Param request body domain.CreateItemRequest true "Item data"
// @Success 201 {object} domain.ItemDTO "Created item"
// @Failure 400 {object} domain.ErrorResponse "Invalid request"
// @Failure 404 {object} domain.ErrorResponse "Section not found"
// @Security ApiKeyAuth
// @Router /sections/{id}/items [post]
func (h *EstimateHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	sectionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid section ID")
		return
	}

	var req domain.CreateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	item, err := h.estimateService.AddItem(r.Context(), sectionID, &req)
	if err != nil {
		h.logger.Error("failed to add item", zap.Error(err), zap.String("section_id", sectionID.String()))
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, item)
}

// UpdateItem godoc
// @Summary Update item
// @Description Update an item's shared fields. Rejected for settled items.
// @Tags Estimate
// @Accept json
// @Produce json
// @Param id path string true "Item ID"
// @Param request body domain.UpdateItemRequest true "Fields to update"
// @Success 200 {object} domain.ItemDTO "Updated item"
// @Failure 404 {object} domain.ErrorResponse "Item not found"
// @Failure 409 {object} domain.ErrorResponse "Item is settled and locked"
// @Security ApiKeyAuth
// @Router /items/{id} [put]
func (h *EstimateHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid item ID")
		return
	}

	var req domain.UpdateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	item, err := h.estimateService.UpdateItem(r.Context(), itemID, &req)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

// DeleteItem godoc
// @Summary Delete item
// @Description Delete an item. Rejected for settled items.
// @Tags Estimate
// @Param id path string true "Item ID"
// @Success 204 "Deleted"
// @Failure 404 {object} domain.ErrorResponse "Item not found"
// @Failure 409 {object} domain.ErrorResponse "Item is settled and locked"
// @Security ApiKeyAuth
// @Router /items/{id} [delete]
func (h *EstimateHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid item ID")
		return
	}

	if err := h.estimateService.DeleteItem(r.Context(), itemID); err != nil {
		h.logger.Error("failed to delete item", zap.Error(err), zap.String("item_id", itemID.String()))
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// SetItemViewSetting godoc
// @Summary Set item price or visibility for a view
// @Description Set the per-view price or visibility of an item; the stored total is recomputed
// @Tags Estimate
// @Accept json
// @Produce json
// @Param id path string true "Item ID"
// @Param request body domain.SetItemViewSettingRequest true "Setting"
// @Success 200 {object} domain.ItemDTO "Updated item"
// @Failure 400 {object} domain.ErrorResponse "View belongs to another project"
// @Failure 404 {object} domain.ErrorResponse "Item or view not found"
// @Failure 409 {object} domain.ErrorResponse "Item is settled and locked"
// @Security ApiKeyAuth
// @Router /items/{id}/settings [put]
func (h *EstimateHandler) SetItemViewSetting(w http.ResponseWriter, r *http.Request) {
	itemID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid item ID")
		return
	}

	var req domain.SetItemViewSettingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	item, err := h.estimateService.SetItemViewSetting(r.Context(), itemID, &req)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

// ReorderItems godoc
// @Summary Reorder items
// @Tags Estimate
// @Accept json
// @Param id path string true "Section ID"
// @Param request body domain.ReorderRequest true "Ordered item IDs"
// @Success 204 "Reordered"
// @Failure 404 {object} domain.ErrorResponse "Section not found"
// @Security ApiKeyAuth
// @Router /sections/{id}/items/reorder [put]
func (h *EstimateHandler) ReorderItems(w http.ResponseWriter, r *http.Request) {
	sectionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid section ID")
		return
	}

	var req domain.ReorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	if err := h.estimateService.ReorderItems(r.Context(), sectionID, &req); err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// SyncFromSpreadsheet godoc
// @Summary Sync tree from spreadsheet
// @Description Replace the project's sections and items with the contents of an external spreadsheet
// @Tags Estimate
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param request body domain.SyncFromSheetRequest true "Spreadsheet reference"
// @Success 200 {object} domain.ProjectWithTreeDTO "Replaced tree"
// @Failure 404 {object} domain.ErrorResponse "Project not found"
// @Failure 409 {object} domain.ErrorResponse "Project has settled items"
// @Failure 502 {object} domain.ErrorResponse "Spreadsheet service unavailable"
// @Security ApiKeyAuth
// @Router /projects/{id}/sync [post]
func (h *EstimateHandler) SyncFromSpreadsheet(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid project ID")
		return
	}

	var req domain.SyncFromSheetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	tree, err := h.estimateService.SyncFromSpreadsheet(r.Context(), projectID, &req)
	if err != nil {
		h.logger.Error("failed to sync from spreadsheet", zap.Error(err), zap.String("project_id", projectID.String()))
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, tree)
}
