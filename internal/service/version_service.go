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
)

// VersionService creates and restores numbered snapshots of the
// estimate tree. Snapshots are immutable; restore replaces the live
// tree wholesale and never touches versions, acts or payments.
type VersionService struct {
	versionRepo *repository.VersionRepository
	projectRepo *repository.ProjectRepository
	logger      *zap.Logger
}

func NewVersionService(
	versionRepo *repository.VersionRepository,
	projectRepo *repository.ProjectRepository,
	logger *zap.Logger,
) *VersionService {
	return &VersionService{
		versionRepo: versionRepo,
		projectRepo: projectRepo,
		logger:      logger,
	}
}

// Create snapshots the current tree under the next sequential number
// for the project. The copy is denormalized by value, so later edits or
// deletions in the live tree never reach back into it.
func (s *VersionService) Create(ctx context.Context, projectID uuid.UUID, req *domain.CreateVersionRequest) (*domain.VersionDTO, error) {
	project, err := s.projectRepo.GetByIDWithTree(ctx, projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	number, err := s.versionRepo.NextNumber(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate version number: %w", err)
	}

	version := &domain.Version{
		ProjectID: projectID,
		Number:    number,
		Name:      req.Name,
	}

	for i := range project.Views {
		view := &project.Views[i]
		version.Views = append(version.Views, domain.VersionView{
			SourceViewID:   view.ID,
			Name:           view.Name,
			AccessToken:    view.AccessToken,
			PasswordHash:   view.PasswordHash,
			SortOrder:      view.SortOrder,
			IsCustomerView: view.IsCustomerView,
		})
	}

	for i := range project.Sections {
		section := &project.Sections[i]
		snap := domain.VersionSection{
			SourceSectionID: section.ID,
			Name:            section.Name,
			SortOrder:       section.SortOrder,
			Visibility:      make(domain.ViewVisibilityMap, len(project.Views)),
		}
		for v := range project.Views {
			viewID := project.Views[v].ID
			snap.Visibility[viewID] = IsSectionVisible(section, viewID)
		}
		for j := range section.Items {
			item := &section.Items[j]
			itemSnap := domain.VersionItem{
				SourceItemID: item.ID,
				Name:         item.Name,
				Unit:         item.Unit,
				Quantity:     item.Quantity,
				SortOrder:    item.SortOrder,
				Settings:     make(domain.ViewPricingMap, len(project.Views)),
			}
			for v := range project.Views {
				viewID := project.Views[v].ID
				itemSnap.Settings[viewID] = domain.ViewPricing{
					Price:   ResolvePrice(item, viewID),
					Total:   ResolveTotal(item, viewID),
					Visible: IsItemVisible(item, viewID),
				}
			}
			snap.Items = append(snap.Items, itemSnap)
		}
		version.Sections = append(version.Sections, snap)
	}

	if err := s.versionRepo.Create(ctx, version); err != nil {
		return nil, fmt.Errorf("failed to create version: %w", err)
	}

	s.logger.Info("Version created",
		zap.String("project_id", projectID.String()),
		zap.Int("number", number))

	dto := mapper.ToVersionDTO(version)
	return &dto, nil
}

func (s *VersionService) GetByID(ctx context.Context, id uuid.UUID) (*domain.VersionWithTreeDTO, error) {
	version, err := s.versionRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVersionNotFound
		}
		return nil, fmt.Errorf("failed to get version: %w", err)
	}
	dto := mapper.ToVersionWithTreeDTO(version)
	return &dto, nil
}

func (s *VersionService) ListByProject(ctx context.Context, projectID uuid.UUID) ([]domain.VersionDTO, error) {
	versions, err := s.versionRepo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list versions: %w", err)
	}
	dtos := make([]domain.VersionDTO, 0, len(versions))
	for i := range versions {
		dtos = append(dtos, mapper.ToVersionDTO(&versions[i]))
	}
	return dtos, nil
}

// Restore replaces the live tree of the project with the snapshot's
// contents. Restored views, sections and items get fresh identities;
// snapshot settings keyed by the source view ids are remapped onto the
// new view ids. The version rows themselves, acts and payments stay
// untouched, so the snapshot can be restored again later.
func (s *VersionService) Restore(ctx context.Context, id uuid.UUID) (*domain.ProjectWithTreeDTO, error) {
	version, err := s.versionRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVersionNotFound
		}
		return nil, fmt.Errorf("failed to get version: %w", err)
	}

	exists, err := s.projectRepo.Exists(ctx, version.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to check project: %w", err)
	}
	if !exists {
		return nil, ErrProjectNotFound
	}

	viewIDs := make(map[uuid.UUID]uuid.UUID, len(version.Views))
	views := make([]domain.View, 0, len(version.Views))
	for i := range version.Views {
		snap := &version.Views[i]
		view := domain.View{
			ProjectID:      version.ProjectID,
			Name:           snap.Name,
			AccessToken:    snap.AccessToken,
			PasswordHash:   snap.PasswordHash,
			SortOrder:      snap.SortOrder,
			IsCustomerView: snap.IsCustomerView,
		}
		view.ID = uuid.New()
		viewIDs[snap.SourceViewID] = view.ID
		views = append(views, view)
	}

	sections := make([]domain.Section, 0, len(version.Sections))
	for i := range version.Sections {
		snap := &version.Sections[i]
		section := domain.Section{
			ProjectID: version.ProjectID,
			Name:      snap.Name,
			SortOrder: snap.SortOrder,
		}
		section.ID = uuid.New()
		for sourceViewID, visible := range snap.Visibility {
			viewID, ok := viewIDs[sourceViewID]
			if !ok {
				continue
			}
			section.ViewSettings = append(section.ViewSettings, domain.SectionViewSetting{
				SectionID: section.ID,
				ViewID:    viewID,
				Visible:   visible,
			})
		}
		for j := range snap.Items {
			itemSnap := &snap.Items[j]
			item := domain.Item{
				SectionID: section.ID,
				Name:      itemSnap.Name,
				Unit:      itemSnap.Unit,
				Quantity:  itemSnap.Quantity,
				SortOrder: itemSnap.SortOrder,
			}
			item.ID = uuid.New()
			for sourceViewID, pricing := range itemSnap.Settings {
				viewID, ok := viewIDs[sourceViewID]
				if !ok {
					continue
				}
				item.ViewSettings = append(item.ViewSettings, domain.ItemViewSetting{
					ItemID:  item.ID,
					ViewID:  viewID,
					Price:   pricing.Price,
					Total:   pricing.Total,
					Visible: pricing.Visible,
				})
			}
			section.Items = append(section.Items, item)
		}
		sections = append(sections, section)
	}

	if err := s.projectRepo.ReplaceTree(ctx, version.ProjectID, views, sections); err != nil {
		return nil, fmt.Errorf("failed to restore version: %w", err)
	}

	s.logger.Info("Version restored",
		zap.String("project_id", version.ProjectID.String()),
		zap.Int("number", version.Number))

	project, err := s.projectRepo.GetByIDWithTree(ctx, version.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload project: %w", err)
	}
	dto := mapper.ToProjectWithTreeDTO(project, nil)
	return &dto, nil
}
