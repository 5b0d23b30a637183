package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mestero/estimate-api/internal/domain"
)

func newProjectService(f *fixture) *ProjectService {
	return NewProjectService(f.projectRepo, f.ledgerRepo, testLogger())
}

func TestCreateProjectMakesDefaultView(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := newProjectService(f)

	dto, err := svc.Create(ctx, &domain.CreateProjectRequest{Name: "New build"})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, dto.ID)

	views, err := f.viewRepo.GetByProject(ctx, dto.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "Customer", views[0].Name)
	assert.NotEmpty(t, views[0].AccessToken)
}

func TestCreateProjectRollsBackWhenViewWriteFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := newProjectService(f)

	// force the default-view insert to fail mid-create
	require.NoError(t, f.db.Migrator().DropTable(&domain.View{}))

	_, err := svc.Create(ctx, &domain.CreateProjectRequest{Name: "Half done"})
	require.Error(t, err)

	projects, err := f.projectRepo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, projects)
}

func TestTotalsHiddenSectionContributesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := newProjectService(f)

	project := f.createProject(t, "New build")
	view := f.createView(t, project.ID, "Customer")

	visible := f.createSection(t, project.ID, "Ground floor", 0)
	item := f.createItem(t, visible.ID, "Screed", 2)
	f.setPrice(t, item, view.ID, 150)

	hiddenSection := f.createSection(t, project.ID, "Options", 1)
	optional := f.createItem(t, hiddenSection.ID, "Heated floor", 1)
	f.setPrice(t, optional, view.ID, 5000)
	require.NoError(t, f.sectionRepo.UpsertViewSetting(ctx, &domain.SectionViewSetting{
		SectionID: hiddenSection.ID,
		ViewID:    view.ID,
		Visible:   false,
	}))

	totals, err := svc.Totals(ctx, project.ID, view.ID)
	require.NoError(t, err)
	assert.Equal(t, 300.0, totals.Total)
	assert.Equal(t, 300.0, totals.Sections[visible.ID])
	assert.Equal(t, 0.0, totals.Sections[hiddenSection.ID])
}

func TestTotalsRejectsForeignView(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := newProjectService(f)

	project := f.createProject(t, "New build")
	f.createView(t, project.ID, "Customer")

	_, err := svc.Totals(ctx, project.ID, uuid.New())
	assert.ErrorIs(t, err, ErrViewMismatch)
}

func TestGetTreeIncludesItemStatuses(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := newProjectService(f)

	project := f.createProject(t, "New build")
	f.createView(t, project.ID, "Customer")
	section := f.createSection(t, project.ID, "Floor", 0)
	item := f.createItem(t, section.ID, "Screed", 1)

	payment := &domain.Payment{
		ProjectID: project.ID,
		Amount:    75,
		Method:    domain.PaymentMethodManual,
		Items:     []domain.PaymentItem{{ItemID: item.ID, Amount: 75}},
	}
	require.NoError(t, f.paymentRepo.Create(ctx, payment))

	tree, err := svc.GetTree(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, tree.Sections, 1)
	require.Len(t, tree.Sections[0].Items, 1)

	status := tree.Sections[0].Items[0].Status
	require.NotNil(t, status)
	assert.Equal(t, 75.0, status.PaidAmount)
}

func TestGetProjectNotFound(t *testing.T) {
	f := newFixture(t)
	svc := newProjectService(f)

	_, err := svc.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrProjectNotFound)
}
