package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/mestero/estimate-api/internal/domain"
)

func TestResolverDefaultsForMissingSettingsRow(t *testing.T) {
	viewID := uuid.New()
	item := &domain.Item{Quantity: 3}

	assert.Equal(t, 0.0, ResolvePrice(item, viewID))
	assert.Equal(t, 0.0, ResolveTotal(item, viewID))
	assert.True(t, IsItemVisible(item, viewID))
	assert.True(t, IsSectionVisible(&domain.Section{}, viewID))
}

func TestResolveTotalIsPriceTimesQuantity(t *testing.T) {
	viewID := uuid.New()
	otherView := uuid.New()
	item := &domain.Item{
		Quantity: 4,
		ViewSettings: []domain.ItemViewSetting{
			{ViewID: viewID, Price: 12.5, Total: 999, Visible: false},
		},
	}

	// the resolver recomputes, the cached column is not trusted
	assert.Equal(t, 50.0, ResolveTotal(item, viewID))
	assert.False(t, IsItemVisible(item, viewID))

	// another view falls back to defaults
	assert.Equal(t, 0.0, ResolveTotal(item, otherView))
	assert.True(t, IsItemVisible(item, otherView))
}

func TestRecomputeTotalsRewritesEveryRow(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	item := &domain.Item{
		Quantity: 7,
		ViewSettings: []domain.ItemViewSetting{
			{ViewID: a, Price: 10, Total: 1},
			{ViewID: b, Price: 20, Total: 2},
		},
	}

	RecomputeTotals(item)
	assert.Equal(t, 70.0, item.ViewSettings[0].Total)
	assert.Equal(t, 140.0, item.ViewSettings[1].Total)
}

func TestSectionSubtotalSkipsHiddenItemsAndSections(t *testing.T) {
	viewID := uuid.New()
	section := &domain.Section{
		Items: []domain.Item{
			{Quantity: 2, ViewSettings: []domain.ItemViewSetting{{ViewID: viewID, Price: 100, Visible: true}}},
			{Quantity: 1, ViewSettings: []domain.ItemViewSetting{{ViewID: viewID, Price: 500, Visible: false}}},
			{Quantity: 3}, // no row: visible at price 0
		},
	}

	assert.Equal(t, 200.0, SectionSubtotal(section, viewID))

	section.ViewSettings = []domain.SectionViewSetting{{ViewID: viewID, Visible: false}}
	assert.Equal(t, 0.0, SectionSubtotal(section, viewID))
}

func TestViewTotalsAggregatesSections(t *testing.T) {
	viewID := uuid.New()
	first := domain.Section{
		Items: []domain.Item{
			{Quantity: 1, ViewSettings: []domain.ItemViewSetting{{ViewID: viewID, Price: 300, Visible: true}}},
		},
	}
	first.ID = uuid.New()
	second := domain.Section{
		Items: []domain.Item{
			{Quantity: 2, ViewSettings: []domain.ItemViewSetting{{ViewID: viewID, Price: 50, Visible: true}}},
		},
	}
	second.ID = uuid.New()

	total, subtotals := ViewTotals([]domain.Section{first, second}, viewID)
	assert.Equal(t, 400.0, total)
	assert.Equal(t, 300.0, subtotals[first.ID])
	assert.Equal(t, 100.0, subtotals[second.ID])
}
