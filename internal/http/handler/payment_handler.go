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

// PaymentHandler handles HTTP requests for the payment ledger
type PaymentHandler struct {
	paymentService *service.PaymentService
	logger         *zap.Logger
}

// NewPaymentHandler creates a new PaymentHandler instance
func NewPaymentHandler(paymentService *service.PaymentService, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		logger:         logger,
	}
}

// Record godoc
// @Summary Record payment
// @Description Record a manual payment split across items. Settled items cannot be selected again.
// @Tags Payments
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param request body domain.CreatePaymentRequest true "Payment data"
// @Success 201 {object} domain.PaymentDTO "Recorded payment"
// @Failure 400 {object} domain.ErrorResponse "Invalid amount or selection"
// @Failure 404 {object} domain.ErrorResponse "Project or item not found"
// @Failure 409 {object} domain.ErrorResponse "Item already settled"
// @Security ApiKeyAuth
// @Router /projects/{id}/payments [post]
func (h *PaymentHandler) Record(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid project ID")
		return
	}

	var req domain.CreatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	payment, err := h.paymentService.Record(r.Context(), projectID, &req)
	if err != nil {
		h.logger.Error("failed to record payment", zap.Error(err), zap.String("project_id", projectID.String()))
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, payment)
}

// RecordProviderInvoice godoc
// @Summary Record provider invoice payment
// @Description Record a payment through the external payment provider. Amounts above the provider cap are rejected before the provider is called.
// @Tags Payments
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param request body domain.CreateProviderInvoiceRequest true "Invoice data"
// @Success 201 {object} domain.PaymentDTO "Recorded payment"
// @Failure 400 {object} domain.ErrorResponse "Invalid amount, selection, or cap exceeded"
// @Failure 409 {object} domain.ErrorResponse "Item already settled"
// @Failure 502 {object} domain.ErrorResponse "Payment provider unavailable"
// @Security ApiKeyAuth
// @Router /projects/{id}/payments/invoice [post]
func (h *PaymentHandler) RecordProviderInvoice(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid project ID")
		return
	}

	var req domain.CreateProviderInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	payment, err := h.paymentService.RecordProviderInvoice(r.Context(), projectID, &req)
	if err != nil {
		h.logger.Error("failed to record provider invoice", zap.Error(err), zap.String("project_id", projectID.String()))
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, payment)
}

// List godoc
// @Summary List payments
// @Tags Payments
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {array} domain.PaymentDTO "Payments"
// @Security ApiKeyAuth
// @Router /projects/{id}/payments [get]
func (h *PaymentHandler) List(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid project ID")
		return
	}

	payments, err := h.paymentService.ListByProject(r.Context(), projectID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, payments)
}

// Delete godoc
// @Summary Delete payment
// @Description Delete a payment; items whose paid amount drops to zero become editable again
// @Tags Payments
// @Param id path string true "Payment ID"
// @Success 204 "Deleted"
// @Failure 404 {object} domain.ErrorResponse "Payment not found"
// @Security ApiKeyAuth
// @Router /payments/{id} [delete]
func (h *PaymentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	paymentID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid payment ID")
		return
	}

	if err := h.paymentService.Delete(r.Context(), paymentID); err != nil {
		h.logger.Error("failed to delete payment", zap.Error(err), zap.String("payment_id", paymentID.String()))
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// ItemStatuses godoc
// @Summary Get item statuses
// @Description Per item, the summed paid and completed amounts
// @Tags Payments
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} map[string]domain.ItemStatus "Item ID to status"
// @Failure 404 {object} domain.ErrorResponse "Project not found"
// @Security ApiKeyAuth
// @Router /projects/{id}/payments/item-statuses [get]
func (h *PaymentHandler) ItemStatuses(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid project ID")
		return
	}

	statuses, err := h.paymentService.ItemStatuses(r.Context(), projectID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, statuses)
}

// Balance godoc
// @Summary Get project balance
// @Description Paid minus completed over all items. Can be negative.
// @Tags Payments
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} domain.BalanceDTO "Balance"
// @Failure 404 {object} domain.ErrorResponse "Project not found"
// @Security ApiKeyAuth
// @Router /projects/{id}/balance [get]
func (h *PaymentHandler) Balance(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid project ID")
		return
	}

	balance, err := h.paymentService.Balance(r.Context(), projectID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, balance)
}
