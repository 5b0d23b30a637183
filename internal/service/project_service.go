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

// ProjectService manages projects and their aggregate views
type ProjectService struct {
	projectRepo *repository.ProjectRepository
	ledgerRepo  *repository.LedgerRepository
	logger      *zap.Logger
}

func NewProjectService(
	projectRepo *repository.ProjectRepository,
	ledgerRepo *repository.LedgerRepository,
	logger *zap.Logger,
) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
		ledgerRepo:  ledgerRepo,
		logger:      logger,
	}
}

// Create creates a project together with its default view. Every project
// keeps at least one view for its whole lifetime, so both rows go into one
// insert and commit or fail together.
func (s *ProjectService) Create(ctx context.Context, req *domain.CreateProjectRequest) (*domain.ProjectDTO, error) {
	project := &domain.Project{
		Name:        req.Name,
		Description: req.Description,
		Views: []domain.View{{
			Name:        "Customer",
			AccessToken: newAccessToken(),
		}},
	}

	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	s.logger.Info("Project created",
		zap.String("project_id", project.ID.String()),
		zap.String("name", project.Name))

	dto := mapper.ToProjectDTO(project)
	return &dto, nil
}

func (s *ProjectService) GetByID(ctx context.Context, id uuid.UUID) (*domain.ProjectDTO, error) {
	project, err := s.projectRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	dto := mapper.ToProjectDTO(project)
	return &dto, nil
}

// GetTree returns the project with its full estimate tree: views,
// sections, items and resolved per-view values, plus settlement status
// for every item that has payments or completions recorded.
func (s *ProjectService) GetTree(ctx context.Context, id uuid.UUID) (*domain.ProjectWithTreeDTO, error) {
	project, err := s.projectRepo.GetByIDWithTree(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to get project tree: %w", err)
	}

	statuses, err := s.ledgerRepo.GetItemStatuses(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get item statuses: %w", err)
	}

	dto := mapper.ToProjectWithTreeDTO(project, statuses)
	return &dto, nil
}

func (s *ProjectService) List(ctx context.Context) ([]domain.ProjectDTO, error) {
	projects, err := s.projectRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	dtos := make([]domain.ProjectDTO, 0, len(projects))
	for i := range projects {
		dtos = append(dtos, mapper.ToProjectDTO(&projects[i]))
	}
	return dtos, nil
}

func (s *ProjectService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateProjectRequest) (*domain.ProjectDTO, error) {
	project, err := s.projectRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	if req.Name != nil {
		project.Name = *req.Name
	}
	if req.Description != nil {
		project.Description = *req.Description
	}

	if err := s.projectRepo.Update(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}

	dto := mapper.ToProjectDTO(project)
	return &dto, nil
}

func (s *ProjectService) Delete(ctx context.Context, id uuid.UUID) error {
	exists, err := s.projectRepo.Exists(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check project: %w", err)
	}
	if !exists {
		return ErrProjectNotFound
	}

	if err := s.projectRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	s.logger.Info("Project deleted", zap.String("project_id", id.String()))
	return nil
}

// Totals computes the total and per-section subtotals for one view
func (s *ProjectService) Totals(ctx context.Context, projectID, viewID uuid.UUID) (*domain.ViewTotalsDTO, error) {
	project, err := s.projectRepo.GetByIDWithTree(ctx, projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to get project tree: %w", err)
	}

	found := false
	for i := range project.Views {
		if project.Views[i].ID == viewID {
			found = true
			break
		}
	}
	if !found {
		return nil, ErrViewMismatch
	}

	total, sections := ViewTotals(project.Sections, viewID)
	return &domain.ViewTotalsDTO{
		ViewID:   viewID,
		Total:    total,
		Sections: sections,
	}, nil
}
