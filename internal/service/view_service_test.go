package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mestero/estimate-api/internal/domain"
)

func newViewService(f *fixture) *ViewService {
	return NewViewService(f.viewRepo, f.projectRepo, testLogger())
}

func TestDeleteLastViewRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := newViewService(f)

	project := f.createProject(t, "Shop")
	only := f.createView(t, project.ID, "Customer")

	err := svc.Delete(ctx, only.ID)
	assert.ErrorIs(t, err, ErrLastView)

	second, err := svc.Create(ctx, project.ID, &domain.CreateViewRequest{Name: "Team"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, second.ID))
	err = svc.Delete(ctx, only.ID)
	assert.ErrorIs(t, err, ErrLastView)
}

func TestSetCustomerViewDemotesPreviousHolder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := newViewService(f)

	project := f.createProject(t, "Shop")
	first := f.createView(t, project.ID, "Customer")
	second := f.createView(t, project.ID, "Team")

	_, err := svc.SetCustomerView(ctx, first.ID)
	require.NoError(t, err)

	_, err = svc.SetCustomerView(ctx, second.ID)
	require.NoError(t, err)

	views, err := svc.ListByProject(ctx, project.ID)
	require.NoError(t, err)

	flagged := 0
	for _, view := range views {
		if view.IsCustomerView {
			flagged++
			assert.Equal(t, second.ID, view.ID)
		}
	}
	assert.Equal(t, 1, flagged)
}

func TestViewPasswordLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := newViewService(f)

	project := f.createProject(t, "Shop")
	view := f.createView(t, project.ID, "Customer")

	// no password set means the link is open
	ok, err := svc.CheckPassword(ctx, view.ID, "anything")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, svc.SetPassword(ctx, view.ID, &domain.SetViewPasswordRequest{Password: "hunter22"}))

	ok, err = svc.CheckPassword(ctx, view.ID, "hunter22")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.CheckPassword(ctx, view.ID, "wrong")
	require.NoError(t, err)
	assert.False(t, ok)

	dto, err := svc.GetByID(ctx, view.ID)
	require.NoError(t, err)
	assert.True(t, dto.HasPassword)

	require.NoError(t, svc.ClearPassword(ctx, view.ID))
	ok, err = svc.CheckPassword(ctx, view.ID, "")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDuplicateViewCopiesSettingsNotFlagOrPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := newViewService(f)

	project := f.createProject(t, "Shop")
	source := f.createView(t, project.ID, "Customer")
	section := f.createSection(t, project.ID, "Counter", 0)
	item := f.createItem(t, section.ID, "Worktop", 2)
	f.setPrice(t, item, source.ID, 400)

	_, err := svc.SetCustomerView(ctx, source.ID)
	require.NoError(t, err)
	require.NoError(t, svc.SetPassword(ctx, source.ID, &domain.SetViewPasswordRequest{Password: "secret99"}))

	copy, err := svc.Duplicate(ctx, source.ID, &domain.DuplicateViewRequest{})
	require.NoError(t, err)

	assert.Equal(t, "Customer (copy)", copy.Name)
	assert.False(t, copy.IsCustomerView)
	assert.False(t, copy.HasPassword)
	assert.NotEqual(t, source.AccessToken, copy.AccessToken)

	setting, err := f.itemRepo.GetViewSetting(ctx, item.ID, copy.ID)
	require.NoError(t, err)
	assert.Equal(t, 400.0, setting.Price)
	assert.Equal(t, 800.0, setting.Total)
}

func TestGetByAccessToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := newViewService(f)

	project := f.createProject(t, "Shop")
	view := f.createView(t, project.ID, "Customer")

	dto, err := svc.GetByAccessToken(ctx, view.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, view.ID, dto.ID)

	_, err = svc.GetByAccessToken(ctx, "no-such-token")
	assert.ErrorIs(t, err, ErrViewNotFound)
}
