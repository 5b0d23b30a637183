package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/mestero/estimate-api/internal/domain"
	"gorm.io/gorm"
)

// ActRepository handles database operations for acts
type ActRepository struct {
	db *gorm.DB
}

// NewActRepository creates a new repository instance
func NewActRepository(db *gorm.DB) *ActRepository {
	return &ActRepository{db: db}
}

// Create stores an act with its frozen lines
func (r *ActRepository) Create(ctx context.Context, act *domain.Act) error {
	return r.db.WithContext(ctx).Create(act).Error
}

// GetByID retrieves an act with its lines in order
func (r *ActRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Act, error) {
	var act domain.Act
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("act_items.sort_order ASC")
		}).
		First(&act, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &act, nil
}

// ListByProject retrieves all acts of a project with lines, newest first
func (r *ActRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]domain.Act, error) {
	var acts []domain.Act
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("act_items.sort_order ASC")
		}).
		Where("project_id = ?", projectID).
		Order("act_date DESC, created_at DESC").
		Find(&acts).Error
	return acts, err
}

// Delete removes an act; its lines cascade
func (r *ActRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("act_id = ?", id).Delete(&domain.ActItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.Act{}, "id = ?", id).Error
	})
}
