package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/mestero/estimate-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ItemRepository handles database operations for estimate items
type ItemRepository struct {
	db *gorm.DB
}

// NewItemRepository creates a new repository instance
func NewItemRepository(db *gorm.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// Create creates a new item
func (r *ItemRepository) Create(ctx context.Context, item *domain.Item) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// GetByID retrieves an item with its per-view settings
func (r *ItemRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Item, error) {
	var item domain.Item
	err := r.db.WithContext(ctx).
		Preload("ViewSettings").
		First(&item, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// GetByIDs retrieves multiple items with settings, preserving no order
func (r *ItemRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Item, error) {
	var items []domain.Item
	err := r.db.WithContext(ctx).
		Preload("ViewSettings").
		Where("id IN ?", ids).
		Find(&items).Error
	return items, err
}

// Update persists the item and rewrites the cached totals of every
// per-view settings row in the same transaction, keeping total equal to
// price × quantity for all views at once.
func (r *ItemRepository) Update(ctx context.Context, item *domain.Item) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(item).Error; err != nil {
			return err
		}
		return tx.Model(&domain.ItemViewSetting{}).
			Where("item_id = ?", item.ID).
			Update("total", gorm.Expr("price * ?", item.Quantity)).Error
	})
}

// Delete removes an item and its settings rows
func (r *ItemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("item_id = ?", id).Delete(&domain.ItemViewSetting{}).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.Item{}, "id = ?", id).Error
	})
}

// GetMaxSortOrder returns the highest sort_order among a section's items
func (r *ItemRepository) GetMaxSortOrder(ctx context.Context, sectionID uuid.UUID) (int, error) {
	var maxOrder *int
	err := r.db.WithContext(ctx).
		Model(&domain.Item{}).
		Where("section_id = ?", sectionID).
		Select("MAX(sort_order)").
		Scan(&maxOrder).Error
	if err != nil {
		return 0, err
	}
	if maxOrder == nil {
		return -1, nil // no items yet
	}
	return *maxOrder, nil
}

// UpsertViewSetting writes one per-view settings row for an item
func (r *ItemRepository) UpsertViewSetting(ctx context.Context, setting *domain.ItemViewSetting) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "item_id"}, {Name: "view_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"price", "total", "visible", "updated_at"}),
		}).
		Create(setting).Error
}

// GetViewSetting retrieves the settings row for an (item, view) pair,
// gorm.ErrRecordNotFound when the pair has no explicit row
func (r *ItemRepository) GetViewSetting(ctx context.Context, itemID, viewID uuid.UUID) (*domain.ItemViewSetting, error) {
	var setting domain.ItemViewSetting
	err := r.db.WithContext(ctx).
		First(&setting, "item_id = ? AND view_id = ?", itemID, viewID).Error
	if err != nil {
		return nil, err
	}
	return &setting, nil
}

// ProjectIDOf resolves the owning project of an item through its section
func (r *ItemRepository) ProjectIDOf(ctx context.Context, itemID uuid.UUID) (uuid.UUID, error) {
	var raw string
	err := r.db.WithContext(ctx).
		Model(&domain.Item{}).
		Select("sections.project_id").
		Joins("JOIN sections ON sections.id = items.section_id").
		Where("items.id = ?", itemID).
		Scan(&raw).Error
	if err != nil {
		return uuid.Nil, err
	}
	if raw == "" {
		return uuid.Nil, gorm.ErrRecordNotFound
	}
	projectID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, err
	}
	return projectID, nil
}

// Reorder updates the sort_order of multiple items in a transaction
func (r *ItemRepository) Reorder(ctx context.Context, sectionID uuid.UUID, orderedIDs []uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, id := range orderedIDs {
			result := tx.Model(&domain.Item{}).
				Where("id = ? AND section_id = ?", id, sectionID).
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
