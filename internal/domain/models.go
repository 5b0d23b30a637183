package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// BeforeCreate assigns the ID client-side; the column carries no server
// default so inserts behave the same on postgres and sqlite.
func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// Project is the root of one estimate: it owns the views, the section/item
// tree, the version history, the acts and the payment ledger.
type Project struct {
	BaseModel
	Name        string `gorm:"type:varchar(200);not null;index"`
	Description string `gorm:"type:text"`

	Views    []View    `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`
	Sections []Section `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`
}

// View is a named pricing/visibility lens over the same estimate tree.
// At most one view per project carries IsCustomerView; that view's prices
// are the basis for payments and the balance.
type View struct {
	BaseModel
	ProjectID      uuid.UUID `gorm:"type:uuid;not null;index"`
	Name           string    `gorm:"type:varchar(200);not null"`
	AccessToken    string    `gorm:"type:varchar(64);not null;uniqueIndex"`
	PasswordHash   string    `gorm:"type:varchar(100)"`
	SortOrder      int       `gorm:"not null;default:0"`
	IsCustomerView bool      `gorm:"not null;default:false;column:is_customer_view"`
}

// HasPassword reports whether the view is password protected.
func (v *View) HasPassword() bool {
	return v.PasswordHash != ""
}

// Section groups items inside a project.
type Section struct {
	BaseModel
	ProjectID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name      string    `gorm:"type:varchar(200);not null"`
	SortOrder int       `gorm:"not null;default:0"`

	Items        []Item               `gorm:"foreignKey:SectionID;constraint:OnDelete:CASCADE"`
	ViewSettings []SectionViewSetting `gorm:"foreignKey:SectionID;constraint:OnDelete:CASCADE"`
}

// Item is a priced line of the work breakdown. Quantity is shared across
// views; price, total and visibility live in per-view settings rows.
type Item struct {
	BaseModel
	SectionID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name      string    `gorm:"type:varchar(300);not null"`
	Unit      string    `gorm:"type:varchar(50)"`
	Quantity  float64   `gorm:"type:decimal(15,3);not null;default:1"`
	SortOrder int       `gorm:"not null;default:0"`

	ViewSettings []ItemViewSetting `gorm:"foreignKey:ItemID;constraint:OnDelete:CASCADE"`
}

// ItemViewSetting holds the per-view price, cached total and visibility of
// one item. Total is price × quantity and is rewritten whenever either
// side changes; absence of a row means visible with price 0.
type ItemViewSetting struct {
	BaseModel
	ItemID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_item_view_settings_item_view"`
	ViewID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_item_view_settings_item_view;index"`
	Price   float64   `gorm:"type:decimal(15,2);not null;default:0"`
	Total   float64   `gorm:"type:decimal(15,2);not null;default:0"`
	// No default tag: gorm would swallow explicit false on insert.
	Visible bool `gorm:"not null"`
}

// SectionViewSetting holds the per-view visibility of one section.
// Absence of a row means visible.
type SectionViewSetting struct {
	BaseModel
	SectionID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_section_view_settings_section_view"`
	ViewID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_section_view_settings_section_view;index"`
	Visible   bool      `gorm:"not null"`
}

// ViewPricing is one entry of the denormalized per-view settings copied
// into a version snapshot, keyed by the source view id.
type ViewPricing struct {
	Price   float64 `json:"price"`
	Total   float64 `json:"total"`
	Visible bool    `json:"visible"`
}

// ViewPricingMap serializes per-view item settings as a JSON column so
// snapshot rows stay self-contained.
type ViewPricingMap map[uuid.UUID]ViewPricing

func (m ViewPricingMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (m *ViewPricingMap) Scan(value interface{}) error {
	if value == nil {
		*m = ViewPricingMap{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("unsupported type %T for ViewPricingMap", value)
	}
}

// ViewVisibilityMap serializes per-view section visibility as a JSON column.
type ViewVisibilityMap map[uuid.UUID]bool

func (m ViewVisibilityMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (m *ViewVisibilityMap) Scan(value interface{}) error {
	if value == nil {
		*m = ViewVisibilityMap{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("unsupported type %T for ViewVisibilityMap", value)
	}
}

// Version is an immutable, numbered snapshot of the whole estimate tree.
// Its embedded rows copy everything by value and never reference live
// sections, items or views.
type Version struct {
	BaseModel
	ProjectID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_versions_project_number"`
	Number    int       `gorm:"not null;uniqueIndex:idx_versions_project_number"`
	Name      string    `gorm:"type:varchar(200)"`

	Views    []VersionView    `gorm:"foreignKey:VersionID;constraint:OnDelete:CASCADE"`
	Sections []VersionSection `gorm:"foreignKey:VersionID;constraint:OnDelete:CASCADE"`
}

// VersionView is the snapshot copy of one view. SourceViewID keys the
// pricing/visibility maps of the snapshot rows.
type VersionView struct {
	BaseModel
	VersionID      uuid.UUID `gorm:"type:uuid;not null;index"`
	SourceViewID   uuid.UUID `gorm:"type:uuid;not null"`
	Name           string    `gorm:"type:varchar(200);not null"`
	AccessToken    string    `gorm:"type:varchar(64)"`
	PasswordHash   string    `gorm:"type:varchar(100)"`
	SortOrder      int       `gorm:"not null;default:0"`
	IsCustomerView bool      `gorm:"not null;default:false;column:is_customer_view"`
}

// VersionSection is the snapshot copy of one section.
type VersionSection struct {
	BaseModel
	VersionID       uuid.UUID         `gorm:"type:uuid;not null;index"`
	SourceSectionID uuid.UUID         `gorm:"type:uuid;not null"`
	Name            string            `gorm:"type:varchar(200);not null"`
	SortOrder       int               `gorm:"not null;default:0"`
	Visibility      ViewVisibilityMap `gorm:"type:jsonb"`

	Items []VersionItem `gorm:"foreignKey:VersionSectionID;constraint:OnDelete:CASCADE"`
}

// VersionItem is the snapshot copy of one item with its per-view settings
// denormalized into the Settings map.
type VersionItem struct {
	BaseModel
	VersionSectionID uuid.UUID      `gorm:"type:uuid;not null;index"`
	SourceItemID     uuid.UUID      `gorm:"type:uuid;not null"`
	Name             string         `gorm:"type:varchar(300);not null"`
	Unit             string         `gorm:"type:varchar(50)"`
	Quantity         float64        `gorm:"type:decimal(15,3);not null;default:1"`
	SortOrder        int            `gorm:"not null;default:0"`
	Settings         ViewPricingMap `gorm:"type:jsonb"`
}

// VersionSequence assigns sequential version numbers per project.
type VersionSequence struct {
	ProjectID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	LastNumber int       `gorm:"not null;default:0"`
	CreatedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// ActSelectionMode says how the act lines were selected from the tree.
type ActSelectionMode string

const (
	ActSelectionBySection ActSelectionMode = "sections"
	ActSelectionByItem    ActSelectionMode = "items"
)

// IsValid checks if the ActSelectionMode is a valid enum value
func (m ActSelectionMode) IsValid() bool {
	switch m {
	case ActSelectionBySection, ActSelectionByItem:
		return true
	}
	return false
}

// ActLineType distinguishes item lines from synthetic section subtotals.
type ActLineType string

const (
	ActLineItem            ActLineType = "item"
	ActLineSectionSubtotal ActLineType = "section_subtotal"
)

// IsValid checks if the ActLineType is a valid enum value
func (t ActLineType) IsValid() bool {
	switch t {
	case ActLineItem, ActLineSectionSubtotal:
		return true
	}
	return false
}

// Act is an immutable certificate of completed work. Every numeric field
// is frozen at creation time; nothing here is ever recomputed from the
// live estimate.
type Act struct {
	BaseModel
	ProjectID     uuid.UUID        `gorm:"type:uuid;not null;index"`
	ViewID        *uuid.UUID       `gorm:"type:uuid"`
	Number        string           `gorm:"type:varchar(50);not null"`
	ActDate       time.Time        `gorm:"not null"`
	Contractor    string           `gorm:"type:varchar(300)"`
	Customer      string           `gorm:"type:varchar(300)"`
	SelectionMode ActSelectionMode `gorm:"type:varchar(20);not null"`
	TotalAmount   float64          `gorm:"type:decimal(15,2);not null;default:0"`
	ArtifactPath  string           `gorm:"type:varchar(500)"`

	Items []ActItem `gorm:"foreignKey:ActID;constraint:OnDelete:CASCADE"`
}

// ActItem is one frozen line of an act. SourceItemID/SourceSectionID are
// non-owning cross-references kept for the used-items lookup only.
type ActItem struct {
	BaseModel
	ActID           uuid.UUID   `gorm:"type:uuid;not null;index"`
	LineType        ActLineType `gorm:"type:varchar(20);not null;default:'item'"`
	SourceItemID    *uuid.UUID  `gorm:"type:uuid;index"`
	SourceSectionID *uuid.UUID  `gorm:"type:uuid"`
	Name            string      `gorm:"type:varchar(300);not null"`
	Unit            string      `gorm:"type:varchar(50)"`
	Quantity        float64     `gorm:"type:decimal(15,3);not null;default:0"`
	Price           float64     `gorm:"type:decimal(15,2);not null;default:0"`
	Total           float64     `gorm:"type:decimal(15,2);not null;default:0"`
	SortOrder       int         `gorm:"not null;default:0"`
}

// ActUsage is one entry of the used-items index: an act that has included
// a given item. Derived by folding over acts at read time, never stored.
type ActUsage struct {
	ActID   uuid.UUID `json:"actId"`
	Number  string    `json:"number"`
	ActDate time.Time `json:"actDate"`
}

// PaymentMethod represents how a payment was made
type PaymentMethod string

const (
	PaymentMethodManual          PaymentMethod = "manual"
	PaymentMethodProviderInvoice PaymentMethod = "provider_invoice"
)

// IsValid checks if the PaymentMethod is a valid enum value
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodManual, PaymentMethodProviderInvoice:
		return true
	}
	return false
}

// Payment records one money movement split across estimate items.
type Payment struct {
	BaseModel
	ProjectID         uuid.UUID     `gorm:"type:uuid;not null;index"`
	Amount            float64       `gorm:"type:decimal(15,2);not null"`
	PaymentDate       time.Time     `gorm:"not null"`
	Notes             string        `gorm:"type:text"`
	Method            PaymentMethod `gorm:"type:varchar(20);not null;default:'manual'"`
	ProviderPaymentID string        `gorm:"type:varchar(100)"`
	ProviderStatus    string        `gorm:"type:varchar(50)"`

	Items []PaymentItem `gorm:"foreignKey:PaymentID;constraint:OnDelete:CASCADE"`
}

// PaymentItem allocates part of a payment to one item. ItemID is a
// non-owning reference; the row survives item deletion for bookkeeping.
type PaymentItem struct {
	BaseModel
	PaymentID uuid.UUID `gorm:"type:uuid;not null;index"`
	ItemID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Amount    float64   `gorm:"type:decimal(15,2);not null"`
}

// ItemCompletion holds the completed amount for one item as reported by
// the external worklog source, refreshed by the sync job.
type ItemCompletion struct {
	BaseModel
	ProjectID uuid.UUID `gorm:"type:uuid;not null;index"`
	ItemID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	Amount    float64   `gorm:"type:decimal(15,2);not null;default:0"`
	SourceRef string    `gorm:"type:varchar(100)"`
	SyncedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// MaterialsList is the sibling materials feature: priced products parsed
// from a list of product-page URLs. Not part of the estimate tree.
type MaterialsList struct {
	BaseModel
	ProjectID  uuid.UUID      `gorm:"type:uuid;not null;index"`
	Name       string         `gorm:"type:varchar(200);not null"`
	SourceURLs pq.StringArray `gorm:"type:text[]"`

	Items []MaterialItem `gorm:"foreignKey:MaterialsListID;constraint:OnDelete:CASCADE"`
}

// MaterialItem is one parsed product line of a materials list.
type MaterialItem struct {
	BaseModel
	MaterialsListID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name            string    `gorm:"type:varchar(300);not null"`
	URL             string    `gorm:"type:varchar(1000)"`
	ImageURL        string    `gorm:"type:varchar(1000)"`
	Quantity        float64   `gorm:"type:decimal(15,3);not null;default:1"`
	Price           float64   `gorm:"type:decimal(15,2);not null;default:0"`
	SortOrder       int       `gorm:"not null;default:0"`
}

// ItemStatus is the derived paid/completed state of one item.
type ItemStatus struct {
	PaidAmount      float64 `json:"paidAmount"`
	CompletedAmount float64 `json:"completedAmount"`
}

// Locked reports whether the item must be protected from edits, deletion
// and new payment selections.
func (s ItemStatus) Locked() bool {
	return s.PaidAmount > 0 || s.CompletedAmount > 0
}
