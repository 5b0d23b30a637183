package domain

import (
	"time"

	"github.com/google/uuid"
)

// Request payloads for API operations

type CreateProjectRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=5000"`
}

type UpdateProjectRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=200"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
}

type CreateSectionRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

type RenameSectionRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

type SetSectionVisibilityRequest struct {
	ViewID  uuid.UUID `json:"viewId" validate:"required"`
	Visible bool      `json:"visible"`
}

type CreateItemRequest struct {
	Name     string  `json:"name" validate:"required,max=300"`
	Unit     string  `json:"unit" validate:"max=50"`
	Quantity float64 `json:"quantity" validate:"gte=0"`
}

type UpdateItemRequest struct {
	Name     *string  `json:"name" validate:"omitempty,max=300"`
	Unit     *string  `json:"unit" validate:"omitempty,max=50"`
	Quantity *float64 `json:"quantity" validate:"omitempty,gte=0"`
}

type SetItemViewSettingRequest struct {
	ViewID  uuid.UUID `json:"viewId" validate:"required"`
	Price   *float64  `json:"price" validate:"omitempty,gte=0"`
	Visible *bool     `json:"visible"`
}

type ReorderRequest struct {
	OrderedIDs []uuid.UUID `json:"orderedIds" validate:"required,min=1"`
}

type CreateViewRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

type RenameViewRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

type SetViewPasswordRequest struct {
	Password string `json:"password" validate:"required,min=4,max=72"`
}

type DuplicateViewRequest struct {
	Name string `json:"name" validate:"max=200"`
}

type CreateVersionRequest struct {
	Name string `json:"name" validate:"max=200"`
}

type CreateActRequest struct {
	ViewID        uuid.UUID        `json:"viewId" validate:"required"`
	SelectionMode ActSelectionMode `json:"selectionMode" validate:"required,oneof=sections items"`
	SectionIDs    []uuid.UUID      `json:"sectionIds"`
	ItemIDs       []uuid.UUID      `json:"itemIds"`
	Number        string           `json:"number" validate:"required,max=50"`
	ActDate       time.Time        `json:"actDate" validate:"required"`
	Contractor    string           `json:"contractor" validate:"max=300"`
	Customer      string           `json:"customer" validate:"max=300"`
}

type PaymentAllocationRequest struct {
	ItemID uuid.UUID `json:"itemId" validate:"required"`
	Amount float64   `json:"amount" validate:"gt=0"`
}

type CreatePaymentRequest struct {
	Amount      float64                    `json:"amount" validate:"gt=0"`
	PaymentDate time.Time                  `json:"paymentDate" validate:"required"`
	Notes       string                     `json:"notes" validate:"max=2000"`
	Items       []PaymentAllocationRequest `json:"items" validate:"required,min=1,dive"`
}

type CreateProviderInvoiceRequest struct {
	Amount      float64                    `json:"amount" validate:"gt=0"`
	PaymentDate time.Time                  `json:"paymentDate" validate:"required"`
	Notes       string                     `json:"notes" validate:"max=2000"`
	PayerEmail  string                     `json:"payerEmail" validate:"required,email"`
	Items       []PaymentAllocationRequest `json:"items" validate:"required,min=1,dive"`
}

type CreateMaterialsListRequest struct {
	Name string   `json:"name" validate:"required,max=200"`
	URLs []string `json:"urls" validate:"required,min=1,dive,url"`
}

type SyncFromSheetRequest struct {
	SpreadsheetRef string `json:"spreadsheetRef" validate:"required,max=200"`
}
