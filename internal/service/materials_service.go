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
	"github.com/mestero/estimate-api/internal/parser"
	"github.com/mestero/estimate-api/internal/repository"
)

// MaterialsService builds priced materials lists from product page
// URLs. A sibling feature next to the estimate tree, never part of it.
type MaterialsService struct {
	materialsRepo *repository.MaterialsRepository
	projectRepo   *repository.ProjectRepository
	productParser parser.ProductParser
	logger        *zap.Logger
}

func NewMaterialsService(
	materialsRepo *repository.MaterialsRepository,
	projectRepo *repository.ProjectRepository,
	productParser parser.ProductParser,
	logger *zap.Logger,
) *MaterialsService {
	return &MaterialsService{
		materialsRepo: materialsRepo,
		projectRepo:   projectRepo,
		productParser: productParser,
		logger:        logger,
	}
}

// CreateFromURLs sends the URLs to the parsing collaborator and stores
// the priced products it returns as a materials list
func (s *MaterialsService) CreateFromURLs(ctx context.Context, projectID uuid.UUID, req *domain.CreateMaterialsListRequest) (*domain.MaterialsListDTO, error) {
	exists, err := s.projectRepo.Exists(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to check project: %w", err)
	}
	if !exists {
		return nil, ErrProjectNotFound
	}

	products, err := s.productParser.ParseProducts(ctx, req.URLs)
	if err != nil {
		s.logger.Error("Product parsing failed",
			zap.String("project_id", projectID.String()),
			zap.Int("urls", len(req.URLs)),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrExternalService, err)
	}

	list := &domain.MaterialsList{
		ProjectID:  projectID,
		Name:       req.Name,
		SourceURLs: req.URLs,
	}
	for i, product := range products {
		list.Items = append(list.Items, domain.MaterialItem{
			Name:      product.Name,
			URL:       product.URL,
			ImageURL:  product.ImageURL,
			Quantity:  1,
			Price:     product.Price,
			SortOrder: i,
		})
	}

	if err := s.materialsRepo.Create(ctx, list); err != nil {
		return nil, fmt.Errorf("failed to create materials list: %w", err)
	}

	s.logger.Info("Materials list created",
		zap.String("project_id", projectID.String()),
		zap.String("list_id", list.ID.String()),
		zap.Int("items", len(list.Items)))

	dto := mapper.ToMaterialsListDTO(list)
	return &dto, nil
}

func (s *MaterialsService) GetByID(ctx context.Context, id uuid.UUID) (*domain.MaterialsListDTO, error) {
	list, err := s.materialsRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMaterialsListNotFound
		}
		return nil, fmt.Errorf("failed to get materials list: %w", err)
	}
	dto := mapper.ToMaterialsListDTO(list)
	return &dto, nil
}

func (s *MaterialsService) ListByProject(ctx context.Context, projectID uuid.UUID) ([]domain.MaterialsListDTO, error) {
	lists, err := s.materialsRepo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list materials lists: %w", err)
	}
	dtos := make([]domain.MaterialsListDTO, 0, len(lists))
	for i := range lists {
		dtos = append(dtos, mapper.ToMaterialsListDTO(&lists[i]))
	}
	return dtos, nil
}

func (s *MaterialsService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.materialsRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMaterialsListNotFound
		}
		return fmt.Errorf("failed to get materials list: %w", err)
	}
	if err := s.materialsRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete materials list: %w", err)
	}
	s.logger.Info("Materials list deleted", zap.String("list_id", id.String()))
	return nil
}
