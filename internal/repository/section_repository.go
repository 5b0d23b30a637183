package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/mestero/estimate-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SectionRepository handles database operations for sections
type SectionRepository struct {
	db *gorm.DB
}

// NewSectionRepository creates a new repository instance
func NewSectionRepository(db *gorm.DB) *SectionRepository {
	return &SectionRepository{db: db}
}

// Create creates a new section
func (r *SectionRepository) Create(ctx context.Context, section *domain.Section) error {
	return r.db.WithContext(ctx).Create(section).Error
}

// GetByID retrieves a section with its items and per-view settings
func (r *SectionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Section, error) {
	var section domain.Section
	err := r.db.WithContext(ctx).
		Preload("ViewSettings").
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("items.sort_order ASC, items.created_at ASC")
		}).
		Preload("Items.ViewSettings").
		First(&section, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &section, nil
}

// GetByProject retrieves all sections of a project with items and settings
func (r *SectionRepository) GetByProject(ctx context.Context, projectID uuid.UUID) ([]domain.Section, error) {
	var sections []domain.Section
	err := r.db.WithContext(ctx).
		Preload("ViewSettings").
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("items.sort_order ASC, items.created_at ASC")
		}).
		Preload("Items.ViewSettings").
		Where("project_id = ?", projectID).
		Order("sort_order ASC, created_at ASC").
		Find(&sections).Error
	return sections, err
}

// Update updates an existing section
func (r *SectionRepository) Update(ctx context.Context, section *domain.Section) error {
	return r.db.WithContext(ctx).Save(section).Error
}

// Delete removes a section; items and settings cascade
func (r *SectionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("item_id IN (?)",
			tx.Model(&domain.Item{}).Select("id").Where("section_id = ?", id),
		).Delete(&domain.ItemViewSetting{}).Error; err != nil {
			return err
		}
		if err := tx.Where("section_id = ?", id).Delete(&domain.Item{}).Error; err != nil {
			return err
		}
		if err := tx.Where("section_id = ?", id).Delete(&domain.SectionViewSetting{}).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.Section{}, "id = ?", id).Error
	})
}

// GetMaxSortOrder returns the highest sort_order among a project's sections
func (r *SectionRepository) GetMaxSortOrder(ctx context.Context, projectID uuid.UUID) (int, error) {
	var maxOrder *int
	err := r.db.WithContext(ctx).
		Model(&domain.Section{}).
		Where("project_id = ?", projectID).
		Select("MAX(sort_order)").
		Scan(&maxOrder).Error
	if err != nil {
		return 0, err
	}
	if maxOrder == nil {
		return -1, nil // no sections yet
	}
	return *maxOrder, nil
}

// UpsertViewSetting writes the per-view visibility row for a section
func (r *SectionRepository) UpsertViewSetting(ctx context.Context, setting *domain.SectionViewSetting) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "section_id"}, {Name: "view_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"visible", "updated_at"}),
		}).
		Create(setting).Error
}

// Reorder updates the sort_order of multiple sections in a transaction.
// The orderedIDs slice determines the new order.
func (r *SectionRepository) Reorder(ctx context.Context, projectID uuid.UUID, orderedIDs []uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, id := range orderedIDs {
			result := tx.Model(&domain.Section{}).
				Where("id = ? AND project_id = ?", id, projectID).
				Update("sort_order", i)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return gorm.ErrRecordNotFound
			}
		}
		return nil
	})
}
