package mapper

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mestero/estimate-api/internal/domain"
)

func TestToItemDTODefaultsForViewsWithoutSettings(t *testing.T) {
	priced := domain.View{}
	priced.ID = uuid.New()
	unpriced := domain.View{}
	unpriced.ID = uuid.New()
	views := []domain.View{priced, unpriced}

	item := domain.Item{
		Name:     "Paint",
		Quantity: 5,
		ViewSettings: []domain.ItemViewSetting{
			{ViewID: priced.ID, Price: 20, Total: 100, Visible: false},
		},
	}
	item.ID = uuid.New()

	dto := ToItemDTO(&item, views, nil)
	require.Len(t, dto.Settings, 2)

	assert.Equal(t, 20.0, dto.Settings[priced.ID].Price)
	assert.Equal(t, 100.0, dto.Settings[priced.ID].Total)
	assert.False(t, dto.Settings[priced.ID].Visible)

	assert.Equal(t, 0.0, dto.Settings[unpriced.ID].Price)
	assert.Equal(t, 0.0, dto.Settings[unpriced.ID].Total)
	assert.True(t, dto.Settings[unpriced.ID].Visible)
	assert.Nil(t, dto.Status)
}

func TestToItemDTOAttachesStatus(t *testing.T) {
	view := domain.View{}
	view.ID = uuid.New()
	item := domain.Item{Name: "Paint", Quantity: 1}
	item.ID = uuid.New()

	statuses := map[uuid.UUID]domain.ItemStatus{
		item.ID: {PaidAmount: 50},
	}
	dto := ToItemDTO(&item, []domain.View{view}, statuses)
	require.NotNil(t, dto.Status)
	assert.Equal(t, 50.0, dto.Status.PaidAmount)
	assert.True(t, dto.Status.Locked())
}

func TestToSectionDTOSubtotalsRespectVisibility(t *testing.T) {
	view := domain.View{}
	view.ID = uuid.New()
	views := []domain.View{view}

	shown := domain.Item{Quantity: 2, ViewSettings: []domain.ItemViewSetting{
		{ViewID: view.ID, Price: 100, Total: 200, Visible: true},
	}}
	shown.ID = uuid.New()
	hidden := domain.Item{Quantity: 1, ViewSettings: []domain.ItemViewSetting{
		{ViewID: view.ID, Price: 999, Total: 999, Visible: false},
	}}
	hidden.ID = uuid.New()

	section := domain.Section{Name: "Painting", Items: []domain.Item{shown, hidden}}
	section.ID = uuid.New()

	dto := ToSectionDTO(&section, views, nil)
	assert.True(t, dto.Visible[view.ID])
	assert.Equal(t, 200.0, dto.Subtotals[view.ID])

	// a hidden section zeroes its subtotal regardless of items
	section.ViewSettings = []domain.SectionViewSetting{{ViewID: view.ID, Visible: false}}
	dto = ToSectionDTO(&section, views, nil)
	assert.False(t, dto.Visible[view.ID])
	assert.Equal(t, 0.0, dto.Subtotals[view.ID])
}

func TestToVersionWithTreeDTOKeysBySourceIDs(t *testing.T) {
	sourceView := uuid.New()
	sourceSection := uuid.New()
	sourceItem := uuid.New()

	version := domain.Version{
		Number: 2,
		Views: []domain.VersionView{
			{SourceViewID: sourceView, Name: "Customer", IsCustomerView: true},
		},
		Sections: []domain.VersionSection{
			{
				SourceSectionID: sourceSection,
				Name:            "Walls",
				Visibility:      domain.ViewVisibilityMap{sourceView: true},
				Items: []domain.VersionItem{
					{
						SourceItemID: sourceItem,
						Name:         "Plaster",
						Quantity:     4,
						Settings: domain.ViewPricingMap{
							sourceView: {Price: 25, Total: 100, Visible: true},
						},
					},
				},
			},
		},
	}

	dto := ToVersionWithTreeDTO(&version)
	require.Len(t, dto.Views, 1)
	assert.Equal(t, sourceView, dto.Views[0].SourceViewID)
	require.Len(t, dto.Sections, 1)
	assert.Equal(t, sourceSection, dto.Sections[0].SourceSectionID)
	require.Len(t, dto.Sections[0].Items, 1)
	assert.Equal(t, sourceItem, dto.Sections[0].Items[0].SourceItemID)
	assert.Equal(t, 100.0, dto.Sections[0].Items[0].Settings[sourceView].Total)
}

func TestTimestampsFormattedUTC(t *testing.T) {
	project := domain.Project{Name: "X"}
	project.ID = uuid.New()
	project.CreatedAt = time.Date(2026, 3, 14, 15, 9, 26, 0, time.FixedZone("CET", 3600))

	dto := ToProjectDTO(&project)
	assert.Equal(t, "2026-03-14T14:09:26Z", dto.CreatedAt)
}
