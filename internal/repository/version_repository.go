package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mestero/estimate-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VersionRepository handles database operations for estimate snapshots
type VersionRepository struct {
	db *gorm.DB
}

// NewVersionRepository creates a new repository instance
func NewVersionRepository(db *gorm.DB) *VersionRepository {
	return &VersionRepository{db: db}
}

// Create stores a snapshot with its embedded views, sections and items
func (r *VersionRepository) Create(ctx context.Context, version *domain.Version) error {
	return r.db.WithContext(ctx).Create(version).Error
}

// GetByID retrieves a snapshot with its full embedded tree
func (r *VersionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Version, error) {
	var version domain.Version
	err := r.db.WithContext(ctx).
		Preload("Views", func(db *gorm.DB) *gorm.DB {
			return db.Order("version_views.sort_order ASC")
		}).
		Preload("Sections", func(db *gorm.DB) *gorm.DB {
			return db.Order("version_sections.sort_order ASC")
		}).
		Preload("Sections.Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("version_items.sort_order ASC")
		}).
		First(&version, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &version, nil
}

// ListByProject retrieves snapshot headers for a project, newest first
func (r *VersionRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]domain.Version, error) {
	var versions []domain.Version
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("number DESC").
		Find(&versions).Error
	return versions, err
}

// NextNumber atomically retrieves and increments the version sequence for
// a project. Thread-safe via SELECT FOR UPDATE; creates the sequence row
// on first use.
func (r *VersionRepository) NextNumber(ctx context.Context, projectID uuid.UUID) (int, error) {
	var seq domain.VersionSequence
	var next int

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("project_id = ?", projectID).
			First(&seq)

		if result.Error == gorm.ErrRecordNotFound {
			seq = domain.VersionSequence{
				ProjectID:  projectID,
				LastNumber: 1,
				CreatedAt:  time.Now(),
				UpdatedAt:  time.Now(),
			}
			if err := tx.Create(&seq).Error; err != nil {
				return fmt.Errorf("failed to create version sequence: %w", err)
			}
			next = 1
		} else if result.Error != nil {
			return fmt.Errorf("failed to get version sequence: %w", result.Error)
		} else {
			next = seq.LastNumber + 1
			if err := tx.Model(&seq).Updates(map[string]interface{}{
				"last_number": next,
				"updated_at":  time.Now(),
			}).Error; err != nil {
				return fmt.Errorf("failed to update version sequence: %w", err)
			}
		}
		return nil
	})

	if err != nil {
		return 0, err
	}
	return next, nil
}
