package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mestero/estimate-api/internal/domain"
	"github.com/mestero/estimate-api/internal/parser"
	"github.com/mestero/estimate-api/internal/repository"
)

type fakeParser struct {
	products []parser.Product
	err      error
}

func (p *fakeParser) ParseProducts(_ context.Context, _ []string) ([]parser.Product, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.products, nil
}

func TestCreateMaterialsListFromURLs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	materialsRepo := repository.NewMaterialsRepository(f.db)

	project := f.createProject(t, "Cabin")
	svc := NewMaterialsService(materialsRepo, f.projectRepo, &fakeParser{
		products: []parser.Product{
			{Name: "Screws 4x40", URL: "https://shop.example/screws", Price: 9.5},
			{Name: "Plywood 18mm", URL: "https://shop.example/plywood", Price: 54},
		},
	}, testLogger())

	dto, err := svc.CreateFromURLs(ctx, project.ID, &domain.CreateMaterialsListRequest{
		Name: "Terrace materials",
		URLs: []string{"https://shop.example/screws", "https://shop.example/plywood"},
	})
	require.NoError(t, err)

	require.Len(t, dto.Items, 2)
	assert.Equal(t, "Screws 4x40", dto.Items[0].Name)
	assert.Equal(t, 1.0, dto.Items[0].Quantity)
	assert.Equal(t, 54.0, dto.Items[1].Price)

	lists, err := svc.ListByProject(ctx, project.ID)
	require.NoError(t, err)
	assert.Len(t, lists, 1)
}

func TestCreateMaterialsListParserFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	materialsRepo := repository.NewMaterialsRepository(f.db)

	project := f.createProject(t, "Cabin")
	svc := NewMaterialsService(materialsRepo, f.projectRepo, &fakeParser{err: errors.New("parse timeout")}, testLogger())

	_, err := svc.CreateFromURLs(ctx, project.ID, &domain.CreateMaterialsListRequest{
		Name: "Terrace materials",
		URLs: []string{"https://shop.example/screws"},
	})
	assert.ErrorIs(t, err, ErrExternalService)

	lists, err := svc.ListByProject(ctx, project.ID)
	require.NoError(t, err)
	assert.Empty(t, lists)
}

func TestWorklogSyncDisabledWithoutClient(t *testing.T) {
	f := newFixture(t)
	svc := NewWorklogSyncService(nil, f.ledgerRepo, testLogger())

	_, err := svc.Sync(context.Background())
	assert.Error(t, err)
}
