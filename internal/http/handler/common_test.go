package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mestero/estimate-api/internal/domain"
	"github.com/mestero/estimate-api/internal/service"
)

func TestHandleServiceErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"project not found", service.ErrProjectNotFound, http.StatusNotFound},
		{"payment not found", service.ErrPaymentNotFound, http.StatusNotFound},
		{"invalid input", service.ErrInvalidInput, http.StatusBadRequest},
		{"empty selection", service.ErrEmptySelection, http.StatusBadRequest},
		{"invoice cap", service.ErrInvoiceCapExceeded, http.StatusBadRequest},
		{"view mismatch", service.ErrViewMismatch, http.StatusBadRequest},
		{"item locked", service.ErrItemLocked, http.StatusConflict},
		{"last view", service.ErrLastView, http.StatusConflict},
		{"external failure", service.ErrExternalService, http.StatusBadGateway},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handleServiceError(rec, tc.err)
			assert.Equal(t, tc.status, rec.Code)

			var body domain.APIError
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tc.status, body.Status)
			assert.NotEmpty(t, body.Detail)
		})
	}
}

// Wrapped sentinel errors must keep their status mapping.
func TestHandleServiceErrorUnwrapsWrappedSentinels(t *testing.T) {
	rec := httptest.NewRecorder()
	handleServiceError(rec, fmt.Errorf("%w: amount 400000.00 exceeds provider cap 350000.00", service.ErrInvoiceCapExceeded))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	handleServiceError(rec, fmt.Errorf("%w: connection refused", service.ErrExternalService))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestRespondValidationErrorListsFields(t *testing.T) {
	req := domain.CreatePaymentRequest{Amount: -1}
	err := validate.Struct(&req)
	require.Error(t, err)

	rec := httptest.NewRecorder()
	respondValidationError(rec, err)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body domain.APIError
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, domain.ErrorTypeValidation, body.Type)
	assert.Contains(t, body.Errors, "amount")
	assert.Contains(t, body.Errors, "items")
}
