package service

import "errors"

// Common service errors
var (
	// ErrProjectNotFound is returned when a project is not found
	ErrProjectNotFound = errors.New("project not found")

	// ErrViewNotFound is returned when a view is not found
	ErrViewNotFound = errors.New("view not found")

	// ErrSectionNotFound is returned when a section is not found
	ErrSectionNotFound = errors.New("section not found")

	// ErrItemNotFound is returned when an item is not found
	ErrItemNotFound = errors.New("item not found")

	// ErrVersionNotFound is returned when a version snapshot is not found
	ErrVersionNotFound = errors.New("version not found")

	// ErrActNotFound is returned when an act is not found
	ErrActNotFound = errors.New("act not found")

	// ErrPaymentNotFound is returned when a payment is not found
	ErrPaymentNotFound = errors.New("payment not found")

	// ErrMaterialsListNotFound is returned when a materials list is not found
	ErrMaterialsListNotFound = errors.New("materials list not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrViewMismatch is returned when a view id does not belong to the
	// project being operated on
	ErrViewMismatch = errors.New("view does not belong to project")

	// ErrItemLocked is returned when an item with paid or completed
	// amounts is edited, deleted or re-selected for payment
	ErrItemLocked = errors.New("item is settled and locked")

	// ErrLastView is returned when deleting the only remaining view
	ErrLastView = errors.New("project must retain at least one view")

	// ErrEmptySelection is returned when an act or payment selection
	// contains no lines
	ErrEmptySelection = errors.New("selection is empty")

	// ErrInvoiceCapExceeded is returned before any provider call when the
	// requested invoice amount is above the configured cap
	ErrInvoiceCapExceeded = errors.New("invoice amount exceeds provider cap")

	// ErrExternalService is returned when a collaborator call fails;
	// wrapped errors carry the underlying cause
	ErrExternalService = errors.New("external service failure")
)
