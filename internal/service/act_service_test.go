package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mestero/estimate-api/internal/domain"
)

func newActService(f *fixture, renderer *fakeRenderer, store *fakeStorage) *ActService {
	return NewActService(f.actRepo, f.projectRepo, f.viewRepo, renderer, store, testLogger())
}

type actFixture struct {
	*fixture
	project  *domain.Project
	customer *domain.View
	section  *domain.Section
	visible  *domain.Item
	hidden   *domain.Item
}

func seedActProject(t *testing.T) *actFixture {
	f := newFixture(t)
	project := f.createProject(t, "Office fit-out")
	customer := f.createView(t, project.ID, "Customer")
	section := f.createSection(t, project.ID, "Flooring", 0)

	visible := f.createItem(t, section.ID, "Laminate", 20)
	f.setPrice(t, visible, customer.ID, 50)

	hidden := f.createItem(t, section.ID, "Underlay", 20)
	f.setPrice(t, hidden, customer.ID, 10)
	f.hideItem(t, hidden, customer.ID)

	return &actFixture{
		fixture:  f,
		project:  project,
		customer: customer,
		section:  section,
		visible:  visible,
		hidden:   hidden,
	}
}

func sectionActRequest(af *actFixture) *domain.CreateActRequest {
	return &domain.CreateActRequest{
		ViewID:        af.customer.ID,
		SelectionMode: domain.ActSelectionBySection,
		SectionIDs:    []uuid.UUID{af.section.ID},
		Number:        "ACT-1",
		ActDate:       time.Now(),
		Contractor:    "BuildCo",
		Customer:      "ClientCo",
	}
}

func TestCreateActBySectionSkipsHiddenItemsAndAddsSubtotal(t *testing.T) {
	af := seedActProject(t)
	ctx := context.Background()
	renderer := &fakeRenderer{}
	store := &fakeStorage{}
	svc := newActService(af.fixture, renderer, store)

	result, err := svc.Create(ctx, af.project.ID, sectionActRequest(af))
	require.NoError(t, err)
	require.True(t, result.Recorded)
	require.NotNil(t, result.Act)

	// one visible item line plus the section subtotal line
	require.Len(t, result.Act.Items, 2)
	assert.Equal(t, domain.ActLineItem, result.Act.Items[0].LineType)
	assert.Equal(t, "Laminate", result.Act.Items[0].Name)
	assert.Equal(t, 1000.0, result.Act.Items[0].Total)

	assert.Equal(t, domain.ActLineSectionSubtotal, result.Act.Items[1].LineType)
	assert.Equal(t, 1000.0, result.Act.Items[1].Total)

	// grand total sums item lines only, subtotals summarize
	assert.Equal(t, 1000.0, result.Act.TotalAmount)
	assert.Equal(t, 1, renderer.calls)
	assert.Len(t, store.uploads, 1)
	assert.Equal(t, result.ArtifactPath, result.Act.ArtifactPath)
}

func TestCreateActSubtotalLineSuppressedAtZero(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := newActService(f, &fakeRenderer{}, &fakeStorage{})

	project := f.createProject(t, "Office")
	view := f.createView(t, project.ID, "Customer")
	section := f.createSection(t, project.ID, "Prep", 0)
	// no settings row: visible with price 0
	f.createItem(t, section.ID, "Survey", 1)

	result, err := svc.Create(ctx, project.ID, &domain.CreateActRequest{
		ViewID:        view.ID,
		SelectionMode: domain.ActSelectionBySection,
		SectionIDs:    []uuid.UUID{section.ID},
		Number:        "ACT-2",
		ActDate:       time.Now(),
	})
	require.NoError(t, err)

	// zero-priced item line present, no subtotal line for a zero subtotal
	require.Len(t, result.Act.Items, 1)
	assert.Equal(t, domain.ActLineItem, result.Act.Items[0].LineType)
	assert.Equal(t, 0.0, result.Act.TotalAmount)
}

func TestCreateActByItems(t *testing.T) {
	af := seedActProject(t)
	ctx := context.Background()
	svc := newActService(af.fixture, &fakeRenderer{}, &fakeStorage{})

	result, err := svc.Create(ctx, af.project.ID, &domain.CreateActRequest{
		ViewID:        af.customer.ID,
		SelectionMode: domain.ActSelectionByItem,
		ItemIDs:       []uuid.UUID{af.visible.ID, af.hidden.ID},
		Number:        "ACT-3",
		ActDate:       time.Now(),
	})
	require.NoError(t, err)

	// by-item mode takes the items as given, visibility does not filter
	require.Len(t, result.Act.Items, 2)
	assert.Equal(t, 1200.0, result.Act.TotalAmount)
}

func TestCreateActByItemsRejectsDuplicateSelection(t *testing.T) {
	af := seedActProject(t)
	ctx := context.Background()
	svc := newActService(af.fixture, &fakeRenderer{}, &fakeStorage{})

	_, err := svc.Create(ctx, af.project.ID, &domain.CreateActRequest{
		ViewID:        af.customer.ID,
		SelectionMode: domain.ActSelectionByItem,
		ItemIDs:       []uuid.UUID{af.visible.ID, af.visible.ID},
		Number:        "ACT-3",
		ActDate:       time.Now(),
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCreateActSelectionErrors(t *testing.T) {
	af := seedActProject(t)
	ctx := context.Background()
	svc := newActService(af.fixture, &fakeRenderer{}, &fakeStorage{})

	req := sectionActRequest(af)
	req.SectionIDs = []uuid.UUID{uuid.New()}
	_, err := svc.Create(ctx, af.project.ID, req)
	assert.ErrorIs(t, err, ErrSectionNotFound)

	req = sectionActRequest(af)
	req.SectionIDs = nil
	_, err = svc.Create(ctx, af.project.ID, req)
	assert.ErrorIs(t, err, ErrEmptySelection)

	req = sectionActRequest(af)
	req.SelectionMode = domain.ActSelectionByItem
	req.ItemIDs = []uuid.UUID{uuid.New()}
	_, err = svc.Create(ctx, af.project.ID, req)
	assert.ErrorIs(t, err, ErrItemNotFound)

	req = sectionActRequest(af)
	req.ViewID = uuid.New()
	_, err = svc.Create(ctx, af.project.ID, req)
	assert.ErrorIs(t, err, ErrViewMismatch)

	req = sectionActRequest(af)
	req.SelectionMode = "bogus"
	_, err = svc.Create(ctx, af.project.ID, req)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestActImmuneToLaterPriceChanges(t *testing.T) {
	af := seedActProject(t)
	ctx := context.Background()
	svc := newActService(af.fixture, &fakeRenderer{}, &fakeStorage{})
	estimates := newEstimateService(af.fixture, nil)

	result, err := svc.Create(ctx, af.project.ID, sectionActRequest(af))
	require.NoError(t, err)
	require.True(t, result.Recorded)

	price := 999.0
	_, err = estimates.SetItemViewSetting(ctx, af.visible.ID, &domain.SetItemViewSettingRequest{
		ViewID: af.customer.ID,
		Price:  &price,
	})
	require.NoError(t, err)

	reloaded, err := svc.GetByID(ctx, result.Act.ID)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, reloaded.TotalAmount)
	assert.Equal(t, 50.0, reloaded.Items[0].Price)
}

func TestActRenderFailureAbortsCreation(t *testing.T) {
	af := seedActProject(t)
	ctx := context.Background()
	store := &fakeStorage{}
	svc := newActService(af.fixture, &fakeRenderer{err: errors.New("renderer down")}, store)

	_, err := svc.Create(ctx, af.project.ID, sectionActRequest(af))
	assert.ErrorIs(t, err, ErrExternalService)
	assert.Empty(t, store.uploads)

	acts, err := svc.ListByProject(ctx, af.project.ID)
	require.NoError(t, err)
	assert.Empty(t, acts)
}

func TestActArtifactDeliveredWhenRecordWriteFails(t *testing.T) {
	af := seedActProject(t)
	ctx := context.Background()
	store := &fakeStorage{}
	svc := newActService(af.fixture, &fakeRenderer{}, store)

	// force the record write to fail after the artifact is produced
	require.NoError(t, af.db.Migrator().DropTable(&domain.ActItem{}))
	require.NoError(t, af.db.Migrator().DropTable(&domain.Act{}))

	result, err := svc.Create(ctx, af.project.ID, sectionActRequest(af))
	require.NoError(t, err)
	assert.False(t, result.Recorded)
	assert.Nil(t, result.Act)
	assert.NotEmpty(t, result.ArtifactPath)
	assert.Len(t, store.uploads, 1)
}

func TestUsedItemsFoldsOverActs(t *testing.T) {
	af := seedActProject(t)
	ctx := context.Background()
	svc := newActService(af.fixture, &fakeRenderer{}, &fakeStorage{})

	first, err := svc.Create(ctx, af.project.ID, sectionActRequest(af))
	require.NoError(t, err)

	req := sectionActRequest(af)
	req.Number = "ACT-4"
	req.SelectionMode = domain.ActSelectionByItem
	req.ItemIDs = []uuid.UUID{af.visible.ID}
	req.SectionIDs = nil
	second, err := svc.Create(ctx, af.project.ID, req)
	require.NoError(t, err)

	used, err := svc.UsedItems(ctx, af.project.ID)
	require.NoError(t, err)

	// the visible item appears in both acts, the hidden one in neither,
	// and subtotal lines never index anything
	require.Len(t, used[af.visible.ID], 2)
	assert.Empty(t, used[af.hidden.ID])
	numbers := []string{used[af.visible.ID][0].Number, used[af.visible.ID][1].Number}
	assert.ElementsMatch(t, []string{first.Act.Number, second.Act.Number}, numbers)

	// usage is a warning surface, not a lock: the item stays editable
	estimates := newEstimateService(af.fixture, nil)
	name := "Laminate premium"
	_, err = estimates.UpdateItem(ctx, af.visible.ID, &domain.UpdateItemRequest{Name: &name})
	require.NoError(t, err)
}

func TestDeleteActRemovesUsage(t *testing.T) {
	af := seedActProject(t)
	ctx := context.Background()
	svc := newActService(af.fixture, &fakeRenderer{}, &fakeStorage{})

	result, err := svc.Create(ctx, af.project.ID, sectionActRequest(af))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, result.Act.ID))

	used, err := svc.UsedItems(ctx, af.project.ID)
	require.NoError(t, err)
	assert.Empty(t, used)
}
