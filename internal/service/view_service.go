package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/mestero/estimate-api/internal/domain"
	"github.com/mestero/estimate-api/internal/mapper"
	"github.com/mestero/estimate-api/internal/repository"
)

// ViewService manages the named views of a project
type ViewService struct {
	viewRepo    *repository.ViewRepository
	projectRepo *repository.ProjectRepository
	logger      *zap.Logger
}

func NewViewService(
	viewRepo *repository.ViewRepository,
	projectRepo *repository.ProjectRepository,
	logger *zap.Logger,
) *ViewService {
	return &ViewService{
		viewRepo:    viewRepo,
		projectRepo: projectRepo,
		logger:      logger,
	}
}

// newAccessToken generates the shareable link token for a view
func newAccessToken() string {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand does not fail on supported platforms
		panic(fmt.Sprintf("access token generation: %v", err))
	}
	return hex.EncodeToString(buf)
}

func (s *ViewService) Create(ctx context.Context, projectID uuid.UUID, req *domain.CreateViewRequest) (*domain.ViewDTO, error) {
	exists, err := s.projectRepo.Exists(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to check project: %w", err)
	}
	if !exists {
		return nil, ErrProjectNotFound
	}

	count, err := s.viewRepo.CountByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to count views: %w", err)
	}

	view := &domain.View{
		ProjectID:   projectID,
		Name:        req.Name,
		AccessToken: newAccessToken(),
		SortOrder:   count,
	}
	if err := s.viewRepo.Create(ctx, view); err != nil {
		return nil, fmt.Errorf("failed to create view: %w", err)
	}

	s.logger.Info("View created",
		zap.String("project_id", projectID.String()),
		zap.String("view_id", view.ID.String()),
		zap.String("name", view.Name))

	dto := mapper.ToViewDTO(view)
	return &dto, nil
}

func (s *ViewService) GetByID(ctx context.Context, id uuid.UUID) (*domain.ViewDTO, error) {
	view, err := s.viewRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrViewNotFound
		}
		return nil, fmt.Errorf("failed to get view: %w", err)
	}
	dto := mapper.ToViewDTO(view)
	return &dto, nil
}

// GetByAccessToken resolves a view from its shareable link token
func (s *ViewService) GetByAccessToken(ctx context.Context, token string) (*domain.ViewDTO, error) {
	view, err := s.viewRepo.GetByAccessToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrViewNotFound
		}
		return nil, fmt.Errorf("failed to get view by token: %w", err)
	}
	dto := mapper.ToViewDTO(view)
	return &dto, nil
}

func (s *ViewService) ListByProject(ctx context.Context, projectID uuid.UUID) ([]domain.ViewDTO, error) {
	views, err := s.viewRepo.GetByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list views: %w", err)
	}
	dtos := make([]domain.ViewDTO, 0, len(views))
	for i := range views {
		dtos = append(dtos, mapper.ToViewDTO(&views[i]))
	}
	return dtos, nil
}

func (s *ViewService) Rename(ctx context.Context, id uuid.UUID, req *domain.RenameViewRequest) (*domain.ViewDTO, error) {
	view, err := s.viewRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrViewNotFound
		}
		return nil, fmt.Errorf("failed to get view: %w", err)
	}

	view.Name = req.Name
	if err := s.viewRepo.Update(ctx, view); err != nil {
		return nil, fmt.Errorf("failed to rename view: %w", err)
	}

	dto := mapper.ToViewDTO(view)
	return &dto, nil
}

// SetPassword protects the view's shareable link with a password
func (s *ViewService) SetPassword(ctx context.Context, id uuid.UUID, req *domain.SetViewPasswordRequest) error {
	view, err := s.viewRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrViewNotFound
		}
		return fmt.Errorf("failed to get view: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	view.PasswordHash = string(hash)
	if err := s.viewRepo.Update(ctx, view); err != nil {
		return fmt.Errorf("failed to set view password: %w", err)
	}

	s.logger.Info("View password set", zap.String("view_id", id.String()))
	return nil
}

// ClearPassword removes link protection from the view
func (s *ViewService) ClearPassword(ctx context.Context, id uuid.UUID) error {
	view, err := s.viewRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrViewNotFound
		}
		return fmt.Errorf("failed to get view: %w", err)
	}

	view.PasswordHash = ""
	if err := s.viewRepo.Update(ctx, view); err != nil {
		return fmt.Errorf("failed to clear view password: %w", err)
	}
	return nil
}

// CheckPassword verifies a candidate password against the view's hash
func (s *ViewService) CheckPassword(ctx context.Context, id uuid.UUID, password string) (bool, error) {
	view, err := s.viewRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrViewNotFound
		}
		return false, fmt.Errorf("failed to get view: %w", err)
	}
	if !view.HasPassword() {
		return true, nil
	}
	err = bcrypt.CompareHashAndPassword([]byte(view.PasswordHash), []byte(password))
	return err == nil, nil
}

// Duplicate copies a view together with all of its per-item and
// per-section settings. The copy gets its own access token and never
// inherits the customer flag or the password.
func (s *ViewService) Duplicate(ctx context.Context, id uuid.UUID, req *domain.DuplicateViewRequest) (*domain.ViewDTO, error) {
	source, err := s.viewRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrViewNotFound
		}
		return nil, fmt.Errorf("failed to get view: %w", err)
	}

	name := req.Name
	if name == "" {
		name = source.Name + " (copy)"
	}

	count, err := s.viewRepo.CountByProject(ctx, source.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to count views: %w", err)
	}

	copy := &domain.View{
		ProjectID:   source.ProjectID,
		Name:        name,
		AccessToken: newAccessToken(),
		SortOrder:   count,
	}
	if err := s.viewRepo.Duplicate(ctx, source, copy); err != nil {
		return nil, fmt.Errorf("failed to duplicate view: %w", err)
	}

	s.logger.Info("View duplicated",
		zap.String("source_view_id", source.ID.String()),
		zap.String("view_id", copy.ID.String()))

	dto := mapper.ToViewDTO(copy)
	return &dto, nil
}

// Delete removes a view and its settings. The last remaining view of a
// project cannot be deleted.
func (s *ViewService) Delete(ctx context.Context, id uuid.UUID) error {
	view, err := s.viewRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrViewNotFound
		}
		return fmt.Errorf("failed to get view: %w", err)
	}

	count, err := s.viewRepo.CountByProject(ctx, view.ProjectID)
	if err != nil {
		return fmt.Errorf("failed to count views: %w", err)
	}
	if count <= 1 {
		return ErrLastView
	}

	if err := s.viewRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete view: %w", err)
	}

	s.logger.Info("View deleted",
		zap.String("project_id", view.ProjectID.String()),
		zap.String("view_id", id.String()))
	return nil
}

// SetCustomerView marks a view as the customer-facing one. Any previous
// holder of the flag is demoted in the same transaction, so a project
// never has two customer views.
func (s *ViewService) SetCustomerView(ctx context.Context, id uuid.UUID) (*domain.ViewDTO, error) {
	view, err := s.viewRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrViewNotFound
		}
		return nil, fmt.Errorf("failed to get view: %w", err)
	}

	if err := s.viewRepo.SetCustomerView(ctx, view.ProjectID, view.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrViewNotFound
		}
		return nil, fmt.Errorf("failed to set customer view: %w", err)
	}

	s.logger.Info("Customer view changed",
		zap.String("project_id", view.ProjectID.String()),
		zap.String("view_id", view.ID.String()))

	view.IsCustomerView = true
	dto := mapper.ToViewDTO(view)
	return &dto, nil
}
