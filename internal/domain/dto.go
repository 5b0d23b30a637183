package domain

import (
	"github.com/google/uuid"
)

// DTOs for API responses

type ProjectDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   string    `json:"createdAt"` // ISO 8601
	UpdatedAt   string    `json:"updatedAt"` // ISO 8601
}

// ProjectWithTreeDTO includes the full estimate tree and the view list
type ProjectWithTreeDTO struct {
	ProjectDTO
	Views    []ViewDTO    `json:"views"`
	Sections []SectionDTO `json:"sections"`
}

type ViewDTO struct {
	ID             uuid.UUID `json:"id"`
	ProjectID      uuid.UUID `json:"projectId"`
	Name           string    `json:"name"`
	AccessToken    string    `json:"accessToken"`
	HasPassword    bool      `json:"hasPassword"`
	SortOrder      int       `json:"sortOrder"`
	IsCustomerView bool      `json:"isCustomerView"`
	CreatedAt      string    `json:"createdAt"` // ISO 8601
	UpdatedAt      string    `json:"updatedAt"` // ISO 8601
}

type SectionDTO struct {
	ID        uuid.UUID           `json:"id"`
	ProjectID uuid.UUID           `json:"projectId"`
	Name      string              `json:"name"`
	SortOrder int                 `json:"sortOrder"`
	Visible   map[uuid.UUID]bool  `json:"visible"` // view id -> visibility, absent views default to true
	Items     []ItemDTO           `json:"items"`
	Subtotals map[uuid.UUID]float64 `json:"subtotals,omitempty"` // view id -> visible-item subtotal
}

type ItemDTO struct {
	ID        uuid.UUID                      `json:"id"`
	SectionID uuid.UUID                      `json:"sectionId"`
	Name      string                         `json:"name"`
	Unit      string                         `json:"unit,omitempty"`
	Quantity  float64                        `json:"quantity"`
	SortOrder int                            `json:"sortOrder"`
	Settings  map[uuid.UUID]ItemViewValueDTO `json:"settings"` // view id -> price/total/visibility
	Status    *ItemStatus                    `json:"status,omitempty"`
}

type ItemViewValueDTO struct {
	Price   float64 `json:"price"`
	Total   float64 `json:"total"`
	Visible bool    `json:"visible"`
}

// ViewTotalsDTO holds aggregated totals for one view of a project
type ViewTotalsDTO struct {
	ViewID   uuid.UUID             `json:"viewId"`
	Total    float64               `json:"total"`
	Sections map[uuid.UUID]float64 `json:"sections"` // section id -> subtotal
}

type VersionDTO struct {
	ID        uuid.UUID `json:"id"`
	ProjectID uuid.UUID `json:"projectId"`
	Number    int       `json:"number"`
	Name      string    `json:"name,omitempty"`
	CreatedAt string    `json:"createdAt"` // ISO 8601
}

// VersionWithTreeDTO includes the snapshot contents
type VersionWithTreeDTO struct {
	VersionDTO
	Views    []VersionViewDTO    `json:"views"`
	Sections []VersionSectionDTO `json:"sections"`
}

type VersionViewDTO struct {
	SourceViewID   uuid.UUID `json:"sourceViewId"`
	Name           string    `json:"name"`
	SortOrder      int       `json:"sortOrder"`
	IsCustomerView bool      `json:"isCustomerView"`
}

type VersionSectionDTO struct {
	SourceSectionID uuid.UUID          `json:"sourceSectionId"`
	Name            string             `json:"name"`
	SortOrder       int                `json:"sortOrder"`
	Visibility      map[uuid.UUID]bool `json:"visibility"`
	Items           []VersionItemDTO   `json:"items"`
}

type VersionItemDTO struct {
	SourceItemID uuid.UUID                  `json:"sourceItemId"`
	Name         string                     `json:"name"`
	Unit         string                     `json:"unit,omitempty"`
	Quantity     float64                    `json:"quantity"`
	SortOrder    int                        `json:"sortOrder"`
	Settings     map[uuid.UUID]ViewPricing  `json:"settings"`
}

type ActDTO struct {
	ID            uuid.UUID        `json:"id"`
	ProjectID     uuid.UUID        `json:"projectId"`
	ViewID        *uuid.UUID       `json:"viewId,omitempty"`
	Number        string           `json:"number"`
	ActDate       string           `json:"actDate"` // ISO 8601
	Contractor    string           `json:"contractor,omitempty"`
	Customer      string           `json:"customer,omitempty"`
	SelectionMode ActSelectionMode `json:"selectionMode"`
	TotalAmount   float64          `json:"totalAmount"`
	ArtifactPath  string           `json:"artifactPath,omitempty"`
	Items         []ActItemDTO     `json:"items"`
	CreatedAt     string           `json:"createdAt"` // ISO 8601
}

type ActItemDTO struct {
	ID              uuid.UUID   `json:"id"`
	LineType        ActLineType `json:"lineType"`
	SourceItemID    *uuid.UUID  `json:"sourceItemId,omitempty"`
	SourceSectionID *uuid.UUID  `json:"sourceSectionId,omitempty"`
	Name            string      `json:"name"`
	Unit            string      `json:"unit,omitempty"`
	Quantity        float64     `json:"quantity"`
	Price           float64     `json:"price"`
	Total           float64     `json:"total"`
	SortOrder       int         `json:"sortOrder"`
}

// ActCreateResultDTO reports act creation together with the rendered
// artifact. Recorded is false when the artifact was produced but the act
// row could not be written.
type ActCreateResultDTO struct {
	Act          *ActDTO `json:"act,omitempty"`
	ArtifactPath string  `json:"artifactPath"`
	Recorded     bool    `json:"recorded"`
}

type PaymentDTO struct {
	ID                uuid.UUID        `json:"id"`
	ProjectID         uuid.UUID        `json:"projectId"`
	Amount            float64          `json:"amount"`
	PaymentDate       string           `json:"paymentDate"` // ISO 8601
	Notes             string           `json:"notes,omitempty"`
	Method            PaymentMethod    `json:"method"`
	ProviderPaymentID string           `json:"providerPaymentId,omitempty"`
	ProviderStatus    string           `json:"providerStatus,omitempty"`
	Items             []PaymentItemDTO `json:"items"`
	CreatedAt         string           `json:"createdAt"` // ISO 8601
}

type PaymentItemDTO struct {
	ItemID uuid.UUID `json:"itemId"`
	Amount float64   `json:"amount"`
}

// BalanceDTO is the project-scoped paid-minus-completed aggregate under
// the customer view's prices. Can be negative.
type BalanceDTO struct {
	ProjectID      uuid.UUID `json:"projectId"`
	PaidTotal      float64   `json:"paidTotal"`
	CompletedTotal float64   `json:"completedTotal"`
	Balance        float64   `json:"balance"`
}

type MaterialsListDTO struct {
	ID         uuid.UUID         `json:"id"`
	ProjectID  uuid.UUID         `json:"projectId"`
	Name       string            `json:"name"`
	SourceURLs []string          `json:"sourceUrls"`
	Items      []MaterialItemDTO `json:"items"`
	CreatedAt  string            `json:"createdAt"` // ISO 8601
}

type MaterialItemDTO struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	URL      string    `json:"url,omitempty"`
	ImageURL string    `json:"imageUrl,omitempty"`
	Quantity float64   `json:"quantity"`
	Price    float64   `json:"price"`
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}
