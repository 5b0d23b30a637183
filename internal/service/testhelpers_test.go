package service

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mestero/estimate-api/internal/billing"
	"github.com/mestero/estimate-api/internal/database"
	"github.com/mestero/estimate-api/internal/domain"
	"github.com/mestero/estimate-api/internal/render"
	"github.com/mestero/estimate-api/internal/repository"
	"github.com/mestero/estimate-api/internal/sheets"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	return db
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}

type fixture struct {
	db *gorm.DB

	projectRepo *repository.ProjectRepository
	viewRepo    *repository.ViewRepository
	sectionRepo *repository.SectionRepository
	itemRepo    *repository.ItemRepository
	versionRepo *repository.VersionRepository
	actRepo     *repository.ActRepository
	paymentRepo *repository.PaymentRepository
	ledgerRepo  *repository.LedgerRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := setupTestDB(t)
	return &fixture{
		db:          db,
		projectRepo: repository.NewProjectRepository(db),
		viewRepo:    repository.NewViewRepository(db),
		sectionRepo: repository.NewSectionRepository(db),
		itemRepo:    repository.NewItemRepository(db),
		versionRepo: repository.NewVersionRepository(db),
		actRepo:     repository.NewActRepository(db),
		paymentRepo: repository.NewPaymentRepository(db),
		ledgerRepo:  repository.NewLedgerRepository(db),
	}
}

func (f *fixture) createProject(t *testing.T, name string) *domain.Project {
	t.Helper()
	project := &domain.Project{Name: name}
	require.NoError(t, f.projectRepo.Create(context.Background(), project))
	return project
}

func (f *fixture) createView(t *testing.T, projectID uuid.UUID, name string) *domain.View {
	t.Helper()
	view := &domain.View{
		ProjectID:   projectID,
		Name:        name,
		AccessToken: newAccessToken(),
	}
	require.NoError(t, f.viewRepo.Create(context.Background(), view))
	return view
}

func (f *fixture) createSection(t *testing.T, projectID uuid.UUID, name string, order int) *domain.Section {
	t.Helper()
	section := &domain.Section{ProjectID: projectID, Name: name, SortOrder: order}
	require.NoError(t, f.sectionRepo.Create(context.Background(), section))
	return section
}

func (f *fixture) createItem(t *testing.T, sectionID uuid.UUID, name string, quantity float64) *domain.Item {
	t.Helper()
	item := &domain.Item{SectionID: sectionID, Name: name, Quantity: quantity}
	require.NoError(t, f.itemRepo.Create(context.Background(), item))
	return item
}

func (f *fixture) setPrice(t *testing.T, item *domain.Item, viewID uuid.UUID, price float64) {
	t.Helper()
	require.NoError(t, f.itemRepo.UpsertViewSetting(context.Background(), &domain.ItemViewSetting{
		ItemID:  item.ID,
		ViewID:  viewID,
		Price:   price,
		Total:   price * item.Quantity,
		Visible: true,
	}))
}

func (f *fixture) hideItem(t *testing.T, item *domain.Item, viewID uuid.UUID) {
	t.Helper()
	setting, err := f.itemRepo.GetViewSetting(context.Background(), item.ID, viewID)
	price := 0.0
	if err == nil {
		price = setting.Price
	}
	require.NoError(t, f.itemRepo.UpsertViewSetting(context.Background(), &domain.ItemViewSetting{
		ItemID:  item.ID,
		ViewID:  viewID,
		Price:   price,
		Total:   price * item.Quantity,
		Visible: false,
	}))
}

// fakeRenderer returns a fixed artifact or a configured error.
type fakeRenderer struct {
	err   error
	calls int
	last  render.ActDocument
}

func (r *fakeRenderer) RenderAct(_ context.Context, doc render.ActDocument) ([]byte, error) {
	r.calls++
	r.last = doc
	if r.err != nil {
		return nil, r.err
	}
	return []byte("%PDF-fake"), nil
}

// fakeStorage records uploads in memory.
type fakeStorage struct {
	err     error
	uploads []string
}

func (s *fakeStorage) Upload(_ context.Context, filename, _ string, data io.Reader) (string, int64, error) {
	if s.err != nil {
		return "", 0, s.err
	}
	n, _ := io.Copy(io.Discard, data)
	s.uploads = append(s.uploads, filename)
	return filename, n, nil
}

func (s *fakeStorage) Download(_ context.Context, filename string) (io.ReadCloser, error) {
	return nil, fmt.Errorf("not stored: %s", filename)
}

func (s *fakeStorage) Delete(_ context.Context, _ string) error {
	return nil
}

// fakeGateway counts invoice calls so tests can assert the cap check
// happens before any provider traffic.
type fakeGateway struct {
	err    error
	calls  int
	result billing.InvoiceResult
}

func (g *fakeGateway) CreateInvoice(_ context.Context, _ billing.InvoiceRequest) (*billing.InvoiceResult, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	result := g.result
	return &result, nil
}

// fakeTreeFetcher serves a canned spreadsheet tree.
type fakeTreeFetcher struct {
	tree *sheets.Tree
	err  error
}

func (f *fakeTreeFetcher) FetchTree(_ context.Context, _ string) (*sheets.Tree, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.tree, nil
}
