package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/mestero/estimate-api/internal/domain"
	"gorm.io/gorm"
)

// ViewRepository handles database operations for views
type ViewRepository struct {
	db *gorm.DB
}

// NewViewRepository creates a new repository instance
func NewViewRepository(db *gorm.DB) *ViewRepository {
	return &ViewRepository{db: db}
}

// Create creates a new view
func (r *ViewRepository) Create(ctx context.Context, view *domain.View) error {
	return r.db.WithContext(ctx).Create(view).Error
}

// GetByID retrieves a view by its ID
func (r *ViewRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.View, error) {
	var view domain.View
	err := r.db.WithContext(ctx).First(&view, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// GetByAccessToken retrieves a view by its share token
func (r *ViewRepository) GetByAccessToken(ctx context.Context, token string) (*domain.View, error) {
	var view domain.View
	err := r.db.WithContext(ctx).First(&view, "access_token = ?", token).Error
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// GetByProject retrieves all views of a project ordered by sort_order
func (r *ViewRepository) GetByProject(ctx context.Context, projectID uuid.UUID) ([]domain.View, error) {
	var views []domain.View
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("sort_order ASC, created_at ASC").
		Find(&views).Error
	return views, err
}

// GetCustomerView retrieves the view flagged as the customer view, or
// gorm.ErrRecordNotFound when the project has none
func (r *ViewRepository) GetCustomerView(ctx context.Context, projectID uuid.UUID) (*domain.View, error) {
	var view domain.View
	err := r.db.WithContext(ctx).
		First(&view, "project_id = ? AND is_customer_view = ?", projectID, true).Error
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// Update updates an existing view
func (r *ViewRepository) Update(ctx context.Context, view *domain.View) error {
	return r.db.WithContext(ctx).Save(view).Error
}

// Delete removes a view and every per-view settings row referencing it
func (r *ViewRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("view_id = ?", id).Delete(&domain.ItemViewSetting{}).Error; err != nil {
			return err
		}
		if err := tx.Where("view_id = ?", id).Delete(&domain.SectionViewSetting{}).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.View{}, "id = ?", id).Error
	})
}

// CountByProject returns the number of views in a project
func (r *ViewRepository) CountByProject(ctx context.Context, projectID uuid.UUID) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.View{}).
		Where("project_id = ?", projectID).
		Count(&count).Error
	return int(count), err
}

// SetCustomerView flags one view as the customer view and demotes any
// previous holder inside the same transaction
func (r *ViewRepository) SetCustomerView(ctx context.Context, projectID, viewID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&domain.View{}).
			Where("project_id = ? AND is_customer_view = ?", projectID, true).
			Update("is_customer_view", false).Error; err != nil {
			return err
		}
		result := tx.Model(&domain.View{}).
			Where("id = ? AND project_id = ?", viewID, projectID).
			Update("is_customer_view", true)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// Duplicate copies a view and all section/item settings referencing it in
// one transaction. The copy is returned with its new identity.
func (r *ViewRepository) Duplicate(ctx context.Context, source *domain.View, copy *domain.View) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(copy).Error; err != nil {
			return err
		}

		var itemSettings []domain.ItemViewSetting
		if err := tx.Where("view_id = ?", source.ID).Find(&itemSettings).Error; err != nil {
			return err
		}
		for i := range itemSettings {
			setting := domain.ItemViewSetting{
				ItemID:  itemSettings[i].ItemID,
				ViewID:  copy.ID,
				Price:   itemSettings[i].Price,
				Total:   itemSettings[i].Total,
				Visible: itemSettings[i].Visible,
			}
			if err := tx.Create(&setting).Error; err != nil {
				return err
			}
		}

		var sectionSettings []domain.SectionViewSetting
		if err := tx.Where("view_id = ?", source.ID).Find(&sectionSettings).Error; err != nil {
			return err
		}
		for i := range sectionSettings {
			setting := domain.SectionViewSetting{
				SectionID: sectionSettings[i].SectionID,
				ViewID:    copy.ID,
				Visible:   sectionSettings[i].Visible,
			}
			if err := tx.Create(&setting).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
