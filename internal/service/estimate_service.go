package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mestero/estimate-api/internal/domain"
	"github.com/mestero/estimate-api/internal/mapper"
	"github.com/mestero/estimate-api/internal/repository"
	"github.com/mestero/estimate-api/internal/sheets"
)

// EstimateService manages the section and item tree of a project,
// including per-view prices and visibility
type EstimateService struct {
	projectRepo *repository.ProjectRepository
	sectionRepo *repository.SectionRepository
	itemRepo    *repository.ItemRepository
	viewRepo    *repository.ViewRepository
	ledgerRepo  *repository.LedgerRepository
	treeFetcher sheets.TreeFetcher
	logger      *zap.Logger
}

func NewEstimateService(
	projectRepo *repository.ProjectRepository,
	sectionRepo *repository.SectionRepository,
	itemRepo *repository.ItemRepository,
	viewRepo *repository.ViewRepository,
	ledgerRepo *repository.LedgerRepository,
	treeFetcher sheets.TreeFetcher,
	logger *zap.Logger,
) *EstimateService {
	return &EstimateService{
		projectRepo: projectRepo,
		sectionRepo: sectionRepo,
		itemRepo:    itemRepo,
		viewRepo:    viewRepo,
		ledgerRepo:  ledgerRepo,
		treeFetcher: treeFetcher,
		logger:      logger,
	}
}

func (s *EstimateService) AddSection(ctx context.Context, projectID uuid.UUID, req *domain.CreateSectionRequest) (*domain.SectionDTO, error) {
	exists, err := s.projectRepo.Exists(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to check project: %w", err)
	}
	if !exists {
		return nil, ErrProjectNotFound
	}

	maxOrder, err := s.sectionRepo.GetMaxSortOrder(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to get section order: %w", err)
	}

	section := &domain.Section{
		ProjectID: projectID,
		Name:      req.Name,
		SortOrder: maxOrder + 1,
	}
	if err := s.sectionRepo.Create(ctx, section); err != nil {
		return nil, fmt.Errorf("failed to create section: %w", err)
	}

	s.logger.Info("Section created",
		zap.String("project_id", projectID.String()),
		zap.String("section_id", section.ID.String()))

	return s.sectionDTO(ctx, section)
}

func (s *EstimateService) RenameSection(ctx context.Context, sectionID uuid.UUID, req *domain.RenameSectionRequest) (*domain.SectionDTO, error) {
	section, err := s.sectionRepo.GetByID(ctx, sectionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSectionNotFound
		}
		return nil, fmt.Errorf("failed to get section: %w", err)
	}

	section.Name = req.Name
	if err := s.sectionRepo.Update(ctx, section); err != nil {
		return nil, fmt.Errorf("failed to rename section: %w", err)
	}

	return s.sectionDTO(ctx, section)
}

// DeleteSection removes a section with all of its items. Rejected when
// any item in the section has recorded payments or completed work.
func (s *EstimateService) DeleteSection(ctx context.Context, sectionID uuid.UUID) error {
	section, err := s.sectionRepo.GetByID(ctx, sectionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSectionNotFound
		}
		return fmt.Errorf("failed to get section: %w", err)
	}

	for i := range section.Items {
		locked, err := s.itemLocked(ctx, section.Items[i].ID)
		if err != nil {
			return err
		}
		if locked {
			return ErrItemLocked
		}
	}

	if err := s.sectionRepo.Delete(ctx, sectionID); err != nil {
		return fmt.Errorf("failed to delete section: %w", err)
	}

	s.logger.Info("Section deleted",
		zap.String("project_id", section.ProjectID.String()),
		zap.String("section_id", sectionID.String()))
	return nil
}

// SetSectionVisibility shows or hides a whole section in one view
func (s *EstimateService) SetSectionVisibility(ctx context.Context, sectionID uuid.UUID, req *domain.SetSectionVisibilityRequest) error {
	section, err := s.sectionRepo.GetByID(ctx, sectionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSectionNotFound
		}
		return fmt.Errorf("failed to get section: %w", err)
	}

	if err := s.checkViewProject(ctx, req.ViewID, section.ProjectID); err != nil {
		return err
	}

	setting := &domain.SectionViewSetting{
		SectionID: sectionID,
		ViewID:    req.ViewID,
		Visible:   req.Visible,
	}
	if err := s.sectionRepo.UpsertViewSetting(ctx, setting); err != nil {
		return fmt.Errorf("failed to set section visibility: %w", err)
	}
	return nil
}

func (s *EstimateService) ReorderSections(ctx context.Context, projectID uuid.UUID, req *domain.ReorderRequest) error {
	exists, err := s.projectRepo.Exists(ctx, projectID)
	if err != nil {
		return fmt.Errorf("failed to check project: %w", err)
	}
	if !exists {
		return ErrProjectNotFound
	}
	if err := s.sectionRepo.Reorder(ctx, projectID, req.OrderedIDs); err != nil {
		return fmt.Errorf("failed to reorder sections: %w", err)
	}
	return nil
}

func (s *EstimateService) AddItem(ctx context.Context, sectionID uuid.UUID, req *domain.CreateItemRequest) (*domain.ItemDTO, error) {
	section, err := s.sectionRepo.GetByID(ctx, sectionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSectionNotFound
		}
		return nil, fmt.Errorf("failed to get section: %w", err)
	}

	maxOrder, err := s.itemRepo.GetMaxSortOrder(ctx, sectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get item order: %w", err)
	}

	item := &domain.Item{
		SectionID: sectionID,
		Name:      req.Name,
		Unit:      req.Unit,
		Quantity:  req.Quantity,
		SortOrder: maxOrder + 1,
	}
	if err := s.itemRepo.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}

	s.logger.Info("Item created",
		zap.String("section_id", sectionID.String()),
		zap.String("item_id", item.ID.String()))

	return s.itemDTO(ctx, item, section.ProjectID)
}

// UpdateItem changes an item's shared fields. Items with recorded
// payments or completed work cannot be edited. When the quantity
// changes, the stored total of every view setting is recomputed in the
// same transaction.
func (s *EstimateService) UpdateItem(ctx context.Context, itemID uuid.UUID, req *domain.UpdateItemRequest) (*domain.ItemDTO, error) {
	item, err := s.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	locked, err := s.itemLocked(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if locked {
		return nil, ErrItemLocked
	}

	if req.Name != nil {
		item.Name = *req.Name
	}
	if req.Unit != nil {
		item.Unit = *req.Unit
	}
	if req.Quantity != nil {
		item.Quantity = *req.Quantity
	}

	if err := s.itemRepo.Update(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to update item: %w", err)
	}

	updated, err := s.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload item: %w", err)
	}

	projectID, err := s.itemRepo.ProjectIDOf(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve item project: %w", err)
	}
	return s.itemDTO(ctx, updated, projectID)
}

// DeleteItem removes an item. Rejected for settled items.
func (s *EstimateService) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	_, err := s.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrItemNotFound
		}
		return fmt.Errorf("failed to get item: %w", err)
	}

	locked, err := s.itemLocked(ctx, itemID)
	if err != nil {
		return err
	}
	if locked {
		return ErrItemLocked
	}

	if err := s.itemRepo.Delete(ctx, itemID); err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}

	s.logger.Info("Item deleted", zap.String("item_id", itemID.String()))
	return nil
}

func (s *EstimateService) ReorderItems(ctx context.Context, sectionID uuid.UUID, req *domain.ReorderRequest) error {
	if _, err := s.sectionRepo.GetByID(ctx, sectionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSectionNotFound
		}
		return fmt.Errorf("failed to get section: %w", err)
	}
	if err := s.itemRepo.Reorder(ctx, sectionID, req.OrderedIDs); err != nil {
		return fmt.Errorf("failed to reorder items: %w", err)
	}
	return nil
}

// SetItemViewSetting sets the price or visibility of an item in one
// view. The stored total is always price times quantity. Settled items
// keep their prices frozen.
func (s *EstimateService) SetItemViewSetting(ctx context.Context, itemID uuid.UUID, req *domain.SetItemViewSettingRequest) (*domain.ItemDTO, error) {
	item, err := s.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	projectID, err := s.itemRepo.ProjectIDOf(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve item project: %w", err)
	}
	if err := s.checkViewProject(ctx, req.ViewID, projectID); err != nil {
		return nil, err
	}

	if req.Price != nil {
		locked, err := s.itemLocked(ctx, itemID)
		if err != nil {
			return nil, err
		}
		if locked {
			return nil, ErrItemLocked
		}
	}

	setting := &domain.ItemViewSetting{
		ItemID:  itemID,
		ViewID:  req.ViewID,
		Price:   ResolvePrice(item, req.ViewID),
		Visible: IsItemVisible(item, req.ViewID),
	}
	if req.Price != nil {
		setting.Price = *req.Price
	}
	if req.Visible != nil {
		setting.Visible = *req.Visible
	}
	setting.Total = setting.Price * item.Quantity

	if err := s.itemRepo.UpsertViewSetting(ctx, setting); err != nil {
		return nil, fmt.Errorf("failed to set item view setting: %w", err)
	}

	updated, err := s.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload item: %w", err)
	}
	return s.itemDTO(ctx, updated, projectID)
}

// SyncFromSpreadsheet replaces the section and item tree with the
// contents of an external spreadsheet. Views are kept; spreadsheet
// price columns are matched to views by name. Rejected while any item
// of the project is settled, because the replacement would drop it.
func (s *EstimateService) SyncFromSpreadsheet(ctx context.Context, projectID uuid.UUID, req *domain.SyncFromSheetRequest) (*domain.ProjectWithTreeDTO, error) {
	project, err := s.projectRepo.GetByIDWithTree(ctx, projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	statuses, err := s.ledgerRepo.GetItemStatuses(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to get item statuses: %w", err)
	}
	for _, status := range statuses {
		if status.Locked() {
			return nil, ErrItemLocked
		}
	}

	tree, err := s.treeFetcher.FetchTree(ctx, req.SpreadsheetRef)
	if err != nil {
		s.logger.Error("Spreadsheet fetch failed",
			zap.String("project_id", projectID.String()),
			zap.String("ref", req.SpreadsheetRef),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrExternalService, err)
	}

	viewsByName := make(map[string]uuid.UUID, len(project.Views))
	for i := range project.Views {
		viewsByName[project.Views[i].Name] = project.Views[i].ID
	}

	sections := make([]domain.Section, 0, len(tree.Sections))
	for si, row := range tree.Sections {
		section := domain.Section{
			ProjectID: projectID,
			Name:      row.Name,
			SortOrder: si,
		}
		section.ID = uuid.New()
		for ii, itemRow := range row.Items {
			item := domain.Item{
				SectionID: section.ID,
				Name:      itemRow.Name,
				Unit:      itemRow.Unit,
				Quantity:  itemRow.Quantity,
				SortOrder: ii,
			}
			item.ID = uuid.New()
			for viewName, price := range itemRow.Prices {
				viewID, ok := viewsByName[viewName]
				if !ok {
					continue
				}
				item.ViewSettings = append(item.ViewSettings, domain.ItemViewSetting{
					ItemID:  item.ID,
					ViewID:  viewID,
					Price:   price,
					Total:   price * item.Quantity,
					Visible: true,
				})
			}
			section.Items = append(section.Items, item)
		}
		sections = append(sections, section)
	}

	if err := s.projectRepo.ReplaceTree(ctx, projectID, project.Views, sections); err != nil {
		return nil, fmt.Errorf("failed to replace tree: %w", err)
	}

	s.logger.Info("Tree synced from spreadsheet",
		zap.String("project_id", projectID.String()),
		zap.String("ref", req.SpreadsheetRef),
		zap.Int("sections", len(sections)))

	reloaded, err := s.projectRepo.GetByIDWithTree(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload project: %w", err)
	}
	dto := mapper.ToProjectWithTreeDTO(reloaded, nil)
	return &dto, nil
}

func (s *EstimateService) itemLocked(ctx context.Context, itemID uuid.UUID) (bool, error) {
	status, err := s.ledgerRepo.GetItemStatus(ctx, itemID)
	if err != nil {
		return false, fmt.Errorf("failed to get item status: %w", err)
	}
	return status.Locked(), nil
}

func (s *EstimateService) checkViewProject(ctx context.Context, viewID, projectID uuid.UUID) error {
	view, err := s.viewRepo.GetByID(ctx, viewID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrViewNotFound
		}
		return fmt.Errorf("failed to get view: %w", err)
	}
	if view.ProjectID != projectID {
		return ErrViewMismatch
	}
	return nil
}

func (s *EstimateService) sectionDTO(ctx context.Context, section *domain.Section) (*domain.SectionDTO, error) {
	views, err := s.viewRepo.GetByProject(ctx, section.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list views: %w", err)
	}
	dto := mapper.ToSectionDTO(section, views, nil)
	return &dto, nil
}

func (s *EstimateService) itemDTO(ctx context.Context, item *domain.Item, projectID uuid.UUID) (*domain.ItemDTO, error) {
	views, err := s.viewRepo.GetByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list views: %w", err)
	}
	dto := mapper.ToItemDTO(item, views, nil)
	return &dto, nil
}
