package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/mestero/estimate-api/internal/domain"
	"gorm.io/gorm"
)

// ProjectRepository handles database operations for projects
type ProjectRepository struct {
	db *gorm.DB
}

// NewProjectRepository creates a new repository instance
func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Create creates a new project
func (r *ProjectRepository) Create(ctx context.Context, project *domain.Project) error {
	return r.db.WithContext(ctx).Create(project).Error
}

// GetByID retrieves a project by its ID without associations
func (r *ProjectRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	var project domain.Project
	err := r.db.WithContext(ctx).First(&project, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// GetByIDWithTree retrieves a project with its views and the full
// section/item tree including per-view settings
func (r *ProjectRepository) GetByIDWithTree(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	var project domain.Project
	err := r.db.WithContext(ctx).
		Preload("Views", func(db *gorm.DB) *gorm.DB {
			return db.Order("views.sort_order ASC, views.created_at ASC")
		}).
		Preload("Sections", func(db *gorm.DB) *gorm.DB {
			return db.Order("sections.sort_order ASC, sections.created_at ASC")
		}).
		Preload("Sections.ViewSettings").
		Preload("Sections.Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("items.sort_order ASC, items.created_at ASC")
		}).
		Preload("Sections.Items.ViewSettings").
		First(&project, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// List retrieves all projects ordered by creation time
func (r *ProjectRepository) List(ctx context.Context) ([]domain.Project, error) {
	var projects []domain.Project
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&projects).Error
	return projects, err
}

// Update updates an existing project
func (r *ProjectRepository) Update(ctx context.Context, project *domain.Project) error {
	return r.db.WithContext(ctx).Save(project).Error
}

// Delete removes a project by ID; associated rows cascade
func (r *ProjectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Project{}, "id = ?", id).Error
}

// Exists reports whether a project with the given ID exists
func (r *ProjectRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Project{}).
		Where("id = ?", id).
		Count(&count).Error
	return count > 0, err
}

// ReplaceTree swaps the project's live views, sections and items for the
// supplied ones inside a single transaction. Per-view settings rows ride
// along via gorm associations. Versions, acts and payments are untouched.
func (r *ProjectRepository) ReplaceTree(ctx context.Context, projectID uuid.UUID, views []domain.View, sections []domain.Section) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Settings rows first, they reference sections/items of this project
		if err := tx.Where("section_id IN (?)",
			tx.Model(&domain.Section{}).Select("id").Where("project_id = ?", projectID),
		).Delete(&domain.SectionViewSetting{}).Error; err != nil {
			return err
		}
		if err := tx.Where("item_id IN (?)",
			tx.Model(&domain.Item{}).Select("id").Where("section_id IN (?)",
				tx.Model(&domain.Section{}).Select("id").Where("project_id = ?", projectID)),
		).Delete(&domain.ItemViewSetting{}).Error; err != nil {
			return err
		}
		if err := tx.Where("section_id IN (?)",
			tx.Model(&domain.Section{}).Select("id").Where("project_id = ?", projectID),
		).Delete(&domain.Item{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", projectID).Delete(&domain.Section{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", projectID).Delete(&domain.View{}).Error; err != nil {
			return err
		}

		for i := range views {
			views[i].ProjectID = projectID
			if err := tx.Create(&views[i]).Error; err != nil {
				return err
			}
		}
		for i := range sections {
			sections[i].ProjectID = projectID
			if err := tx.Create(&sections[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
