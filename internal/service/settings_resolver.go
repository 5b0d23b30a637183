package service

import (
	"github.com/google/uuid"
	"github.com/mestero/estimate-api/internal/domain"
)

// The resolver answers every per-view pricing and visibility question as a
// pure function over loaded entities. Absence of a settings row means
// visible with price 0; totals are always price × quantity at read time
// regardless of the cached column.

// ResolvePrice returns the item's unit price under a view, 0 when unset
func ResolvePrice(item *domain.Item, viewID uuid.UUID) float64 {
	for i := range item.ViewSettings {
		if item.ViewSettings[i].ViewID == viewID {
			return item.ViewSettings[i].Price
		}
	}
	return 0
}

// ResolveTotal returns price × quantity for the (item, view) pair
func ResolveTotal(item *domain.Item, viewID uuid.UUID) float64 {
	return ResolvePrice(item, viewID) * item.Quantity
}

// IsItemVisible reports the item's visibility under a view; items with no
// explicit settings row are visible
func IsItemVisible(item *domain.Item, viewID uuid.UUID) bool {
	for i := range item.ViewSettings {
		if item.ViewSettings[i].ViewID == viewID {
			return item.ViewSettings[i].Visible
		}
	}
	return true
}

// IsSectionVisible reports the section's visibility under a view;
// sections with no explicit settings row are visible
func IsSectionVisible(section *domain.Section, viewID uuid.UUID) bool {
	for i := range section.ViewSettings {
		if section.ViewSettings[i].ViewID == viewID {
			return section.ViewSettings[i].Visible
		}
	}
	return true
}

// RecomputeTotals rewrites the cached total of every settings row of the
// item so stored totals never drift from price × quantity. Called on
// every quantity or price change before persisting.
func RecomputeTotals(item *domain.Item) {
	for i := range item.ViewSettings {
		item.ViewSettings[i].Total = item.ViewSettings[i].Price * item.Quantity
	}
}

// SectionSubtotal sums the resolved totals of the section's items that
// are visible under the view. A hidden section contributes nothing no
// matter what its items say.
func SectionSubtotal(section *domain.Section, viewID uuid.UUID) float64 {
	if !IsSectionVisible(section, viewID) {
		return 0
	}
	var subtotal float64
	for i := range section.Items {
		if IsItemVisible(&section.Items[i], viewID) {
			subtotal += ResolveTotal(&section.Items[i], viewID)
		}
	}
	return subtotal
}

// ViewTotals aggregates a project's total under one view together with
// the per-section subtotals
func ViewTotals(sections []domain.Section, viewID uuid.UUID) (float64, map[uuid.UUID]float64) {
	subtotals := make(map[uuid.UUID]float64, len(sections))
	var total float64
	for i := range sections {
		subtotal := SectionSubtotal(&sections[i], viewID)
		subtotals[sections[i].ID] = subtotal
		total += subtotal
	}
	return total, subtotals
}
