package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mestero/estimate-api/internal/domain"
	"github.com/mestero/estimate-api/internal/sheets"
)

func newEstimateService(f *fixture, fetcher sheets.TreeFetcher) *EstimateService {
	return NewEstimateService(f.projectRepo, f.sectionRepo, f.itemRepo, f.viewRepo, f.ledgerRepo, fetcher, testLogger())
}

func TestUpdateItemQuantityRecomputesAllViewTotals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := newEstimateService(f, nil)

	project := f.createProject(t, "Kitchen renovation")
	customer := f.createView(t, project.ID, "Customer")
	team := f.createView(t, project.ID, "Team")
	section := f.createSection(t, project.ID, "Demolition", 0)
	item := f.createItem(t, section.ID, "Remove tiles", 2)
	f.setPrice(t, item, customer.ID, 100)
	f.setPrice(t, item, team.ID, 60)

	quantity := 5.0
	dto, err := svc.UpdateItem(ctx, item.ID, &domain.UpdateItemRequest{Quantity: &quantity})
	require.NoError(t, err)

	assert.Equal(t, 500.0, dto.Settings[customer.ID].Total)
	assert.Equal(t, 300.0, dto.Settings[team.ID].Total)

	// stored rows must match too, not just the response
	setting, err := f.itemRepo.GetViewSetting(ctx, item.ID, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, 500.0, setting.Total)
}

func TestSetItemViewSettingKeepsTotalConsistent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := newEstimateService(f, nil)

	project := f.createProject(t, "Bathroom")
	view := f.createView(t, project.ID, "Customer")
	section := f.createSection(t, project.ID, "Plumbing", 0)
	item := f.createItem(t, section.ID, "Install sink", 3)

	price := 250.0
	dto, err := svc.SetItemViewSetting(ctx, item.ID, &domain.SetItemViewSettingRequest{
		ViewID: view.ID,
		Price:  &price,
	})
	require.NoError(t, err)
	assert.Equal(t, 250.0, dto.Settings[view.ID].Price)
	assert.Equal(t, 750.0, dto.Settings[view.ID].Total)
	assert.True(t, dto.Settings[view.ID].Visible)

	// toggling visibility alone must not disturb the price
	hidden := false
	dto, err = svc.SetItemViewSetting(ctx, item.ID, &domain.SetItemViewSettingRequest{
		ViewID:  view.ID,
		Visible: &hidden,
	})
	require.NoError(t, err)
	assert.Equal(t, 250.0, dto.Settings[view.ID].Price)
	assert.False(t, dto.Settings[view.ID].Visible)
}

func TestHidingPersistsOnFirstSettingWrite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := newEstimateService(f, nil)

	project := f.createProject(t, "Driveway")
	view := f.createView(t, project.ID, "Customer")
	section := f.createSection(t, project.ID, "Paving", 0)
	item := f.createItem(t, section.ID, "Gravel base", 4)

	// first write for the pair: false must survive the insert as-is
	hidden := false
	dto, err := svc.SetItemViewSetting(ctx, item.ID, &domain.SetItemViewSettingRequest{
		ViewID:  view.ID,
		Visible: &hidden,
	})
	require.NoError(t, err)
	assert.False(t, dto.Settings[view.ID].Visible)

	stored, err := f.itemRepo.GetViewSetting(ctx, item.ID, view.ID)
	require.NoError(t, err)
	assert.False(t, stored.Visible)

	err = svc.SetSectionVisibility(ctx, section.ID, &domain.SetSectionVisibilityRequest{
		ViewID:  view.ID,
		Visible: false,
	})
	require.NoError(t, err)

	var sectionSetting domain.SectionViewSetting
	err = f.db.First(&sectionSetting, "section_id = ? AND view_id = ?", section.ID, view.ID).Error
	require.NoError(t, err)
	assert.False(t, sectionSetting.Visible)
}

func TestSetItemViewSettingRejectsForeignView(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := newEstimateService(f, nil)

	project := f.createProject(t, "Project A")
	other := f.createProject(t, "Project B")
	f.createView(t, project.ID, "Customer")
	foreign := f.createView(t, other.ID, "Customer")
	section := f.createSection(t, project.ID, "Work", 0)
	item := f.createItem(t, section.ID, "Task", 1)

	price := 10.0
	_, err := svc.SetItemViewSetting(ctx, item.ID, &domain.SetItemViewSettingRequest{
		ViewID: foreign.ID,
		Price:  &price,
	})
	assert.ErrorIs(t, err, ErrViewMismatch)
}

func TestSetSectionVisibilityRejectsForeignView(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := newEstimateService(f, nil)

	project := f.createProject(t, "Project A")
	other := f.createProject(t, "Project B")
	foreign := f.createView(t, other.ID, "Customer")
	section := f.createSection(t, project.ID, "Work", 0)

	err := svc.SetSectionVisibility(ctx, section.ID, &domain.SetSectionVisibilityRequest{
		ViewID:  foreign.ID,
		Visible: false,
	})
	assert.ErrorIs(t, err, ErrViewMismatch)
}

func TestDeleteSectionRejectedWhenItemSettled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := newEstimateService(f, nil)

	project := f.createProject(t, "Roof")
	f.createView(t, project.ID, "Customer")
	section := f.createSection(t, project.ID, "Covering", 0)
	item := f.createItem(t, section.ID, "Shingles", 1)

	payment := &domain.Payment{
		ProjectID: project.ID,
		Amount:    100,
		Method:    domain.PaymentMethodManual,
		Items:     []domain.PaymentItem{{ItemID: item.ID, Amount: 100}},
	}
	require.NoError(t, f.paymentRepo.Create(ctx, payment))

	err := svc.DeleteSection(ctx, section.ID)
	assert.ErrorIs(t, err, ErrItemLocked)
}

func TestReorderItemsRejectsUnknownID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := newEstimateService(f, nil)

	project := f.createProject(t, "Garden")
	section := f.createSection(t, project.ID, "Paving", 0)
	a := f.createItem(t, section.ID, "Gravel", 1)
	b := f.createItem(t, section.ID, "Slabs", 1)

	err := svc.ReorderItems(ctx, section.ID, &domain.ReorderRequest{
		OrderedIDs: []uuid.UUID{b.ID, a.ID, uuid.New()},
	})
	assert.Error(t, err)

	require.NoError(t, svc.ReorderItems(ctx, section.ID, &domain.ReorderRequest{
		OrderedIDs: []uuid.UUID{b.ID, a.ID},
	}))
	reloaded, err := f.itemRepo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, reloaded.SortOrder)
}

func TestSyncFromSpreadsheetMatchesViewsByName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	project := f.createProject(t, "Warehouse")
	customer := f.createView(t, project.ID, "Customer")
	team := f.createView(t, project.ID, "Team")

	// existing tree is replaced wholesale
	old := f.createSection(t, project.ID, "Old section", 0)
	f.createItem(t, old.ID, "Old item", 1)

	fetcher := &fakeTreeFetcher{tree: &sheets.Tree{
		Sections: []sheets.SectionRow{
			{Name: "Foundation", Items: []sheets.ItemRow{
				{Name: "Concrete", Unit: "m3", Quantity: 10, Prices: map[string]float64{
					"Customer": 120,
					"Team":     90,
					"Unknown":  999, // no such view, dropped
				}},
			}},
		},
	}}
	svc := newEstimateService(f, fetcher)

	dto, err := svc.SyncFromSpreadsheet(ctx, project.ID, &domain.SyncFromSheetRequest{SpreadsheetRef: "sheet-1"})
	require.NoError(t, err)

	require.Len(t, dto.Sections, 1)
	assert.Equal(t, "Foundation", dto.Sections[0].Name)
	require.Len(t, dto.Sections[0].Items, 1)

	got := dto.Sections[0].Items[0]
	assert.Equal(t, 1200.0, got.Settings[customer.ID].Total)
	assert.Equal(t, 900.0, got.Settings[team.ID].Total)
	assert.Len(t, got.Settings, 2)

	// views survived the replacement with their identities
	views, err := f.viewRepo.GetByProject(ctx, project.ID)
	require.NoError(t, err)
	assert.Len(t, views, 2)
}

func TestSyncFromSpreadsheetRejectedWhileItemsSettled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	project := f.createProject(t, "Warehouse")
	f.createView(t, project.ID, "Customer")
	section := f.createSection(t, project.ID, "Foundation", 0)
	item := f.createItem(t, section.ID, "Concrete", 1)

	payment := &domain.Payment{
		ProjectID: project.ID,
		Amount:    50,
		Method:    domain.PaymentMethodManual,
		Items:     []domain.PaymentItem{{ItemID: item.ID, Amount: 50}},
	}
	require.NoError(t, f.paymentRepo.Create(ctx, payment))

	fetcher := &fakeTreeFetcher{tree: &sheets.Tree{}}
	svc := newEstimateService(f, fetcher)

	_, err := svc.SyncFromSpreadsheet(ctx, project.ID, &domain.SyncFromSheetRequest{SpreadsheetRef: "sheet-1"})
	assert.ErrorIs(t, err, ErrItemLocked)
}

func TestSyncFromSpreadsheetFetchFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	project := f.createProject(t, "Warehouse")
	f.createView(t, project.ID, "Customer")

	fetcher := &fakeTreeFetcher{err: errors.New("upstream 503")}
	svc := newEstimateService(f, fetcher)

	_, err := svc.SyncFromSpreadsheet(ctx, project.ID, &domain.SyncFromSheetRequest{SpreadsheetRef: "sheet-1"})
	assert.ErrorIs(t, err, ErrExternalService)
}
