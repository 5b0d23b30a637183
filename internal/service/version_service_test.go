package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mestero/estimate-api/internal/domain"
)

func newVersionService(f *fixture) *VersionService {
	return NewVersionService(f.versionRepo, f.projectRepo, testLogger())
}

func TestCreateVersionAssignsSequentialNumbers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := newVersionService(f)

	project := f.createProject(t, "Villa")
	f.createView(t, project.ID, "Customer")

	for want := 1; want <= 3; want++ {
		dto, err := svc.Create(ctx, project.ID, &domain.CreateVersionRequest{})
		require.NoError(t, err)
		assert.Equal(t, want, dto.Number)
	}

	// sequences are per project
	other := f.createProject(t, "Barn")
	f.createView(t, other.ID, "Customer")
	dto, err := svc.Create(ctx, other.ID, &domain.CreateVersionRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, dto.Number)
}

func TestVersionSnapshotsResolvedDefaults(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := newVersionService(f)

	project := f.createProject(t, "Villa")
	view := f.createView(t, project.ID, "Customer")
	section := f.createSection(t, project.ID, "Walls", 0)
	// item without any settings row: defaults are snapshotted
	f.createItem(t, section.ID, "Plaster", 4)

	created, err := svc.Create(ctx, project.ID, &domain.CreateVersionRequest{Name: "before pricing"})
	require.NoError(t, err)

	snapshot, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, snapshot.Sections, 1)
	require.Len(t, snapshot.Sections[0].Items, 1)

	settings := snapshot.Sections[0].Items[0].Settings[view.ID]
	assert.Equal(t, 0.0, settings.Price)
	assert.Equal(t, 0.0, settings.Total)
	assert.True(t, settings.Visible)
	assert.True(t, snapshot.Sections[0].Visibility[view.ID])
}

func TestVersionImmuneToLaterEdits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := newVersionService(f)
	estimates := newEstimateService(f, nil)

	project := f.createProject(t, "Villa")
	view := f.createView(t, project.ID, "Customer")
	section := f.createSection(t, project.ID, "Walls", 0)
	item := f.createItem(t, section.ID, "Plaster", 4)
	f.setPrice(t, item, view.ID, 25)

	created, err := svc.Create(ctx, project.ID, &domain.CreateVersionRequest{})
	require.NoError(t, err)

	price := 80.0
	_, err = estimates.SetItemViewSetting(ctx, item.ID, &domain.SetItemViewSettingRequest{ViewID: view.ID, Price: &price})
	require.NoError(t, err)
	name := "Skim coat"
	_, err = estimates.UpdateItem(ctx, item.ID, &domain.UpdateItemRequest{Name: &name})
	require.NoError(t, err)

	snapshot, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	got := snapshot.Sections[0].Items[0]
	assert.Equal(t, "Plaster", got.Name)
	assert.Equal(t, 25.0, got.Settings[view.ID].Price)
	assert.Equal(t, 100.0, got.Settings[view.ID].Total)
}

func TestRestoreReplacesTreeWithoutTouchingHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := newVersionService(f)
	estimates := newEstimateService(f, nil)

	project := f.createProject(t, "Villa")
	view := f.createView(t, project.ID, "Customer")
	section := f.createSection(t, project.ID, "Walls", 0)
	item := f.createItem(t, section.ID, "Plaster", 4)
	f.setPrice(t, item, view.ID, 25)

	created, err := svc.Create(ctx, project.ID, &domain.CreateVersionRequest{Name: "v1"})
	require.NoError(t, err)

	// mutate the live tree after the snapshot
	_, err = estimates.AddSection(ctx, project.ID, &domain.CreateSectionRequest{Name: "Roof"})
	require.NoError(t, err)
	price := 999.0
	_, err = estimates.SetItemViewSetting(ctx, item.ID, &domain.SetItemViewSettingRequest{ViewID: view.ID, Price: &price})
	require.NoError(t, err)

	// a payment recorded in between must survive the restore
	payment := &domain.Payment{
		ProjectID:   project.ID,
		Amount:      40,
		PaymentDate: time.Now(),
		Method:      domain.PaymentMethodManual,
		Items:       []domain.PaymentItem{{ItemID: item.ID, Amount: 40}},
	}
	require.NoError(t, f.paymentRepo.Create(ctx, payment))

	restored, err := svc.Restore(ctx, created.ID)
	require.NoError(t, err)

	require.Len(t, restored.Sections, 1)
	assert.Equal(t, "Walls", restored.Sections[0].Name)
	require.Len(t, restored.Sections[0].Items, 1)
	require.Len(t, restored.Views, 1)

	restoredView := restored.Views[0]
	restoredItem := restored.Sections[0].Items[0]
	assert.Equal(t, 25.0, restoredItem.Settings[restoredView.ID].Price)

	// restored entities carry fresh identities
	assert.NotEqual(t, item.ID, restoredItem.ID)
	assert.NotEqual(t, view.ID, restoredView.ID)
	// but the share token is the snapshotted one
	assert.Equal(t, view.AccessToken, restoredView.AccessToken)

	// versions, payments and the ledger are untouched
	versions, err := svc.ListByProject(ctx, project.ID)
	require.NoError(t, err)
	assert.Len(t, versions, 1)

	reloaded, err := f.paymentRepo.GetByID(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, 40.0, reloaded.Amount)

	// restoring twice from the same snapshot still works
	_, err = svc.Restore(ctx, created.ID)
	require.NoError(t, err)
}
