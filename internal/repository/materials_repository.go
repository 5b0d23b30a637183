package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/mestero/estimate-api/internal/domain"
	"gorm.io/gorm"
)

// MaterialsRepository handles database operations for materials lists
type MaterialsRepository struct {
	db *gorm.DB
}

// NewMaterialsRepository creates a new repository instance
func NewMaterialsRepository(db *gorm.DB) *MaterialsRepository {
	return &MaterialsRepository{db: db}
}

// Create stores a materials list with its parsed product lines
func (r *MaterialsRepository) Create(ctx context.Context, list *domain.MaterialsList) error {
	return r.db.WithContext(ctx).Create(list).Error
}

// GetByID retrieves a materials list with its lines in order
func (r *MaterialsRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.MaterialsList, error) {
	var list domain.MaterialsList
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("material_items.sort_order ASC")
		}).
		First(&list, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &list, nil
}

// ListByProject retrieves all materials lists of a project, newest first
func (r *MaterialsRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]domain.MaterialsList, error) {
	var lists []domain.MaterialsList
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("material_items.sort_order ASC")
		}).
		Where("project_id = ?", projectID).
		Order("created_at DESC").
		Find(&lists).Error
	return lists, err
}

// Delete removes a materials list and its lines
func (r *MaterialsRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("materials_list_id = ?", id).Delete(&domain.MaterialItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.MaterialsList{}, "id = ?", id).Error
	})
}
