package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mestero/estimate-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LedgerRepository answers the derived paid/completed questions the rest
// of the system asks before allowing mutation. Paid amounts are summed
// from payment allocations, completed amounts from the synced worklog
// completions.
type LedgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository creates a new repository instance
func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// GetItemStatus returns the derived paid/completed amounts for one item
func (r *LedgerRepository) GetItemStatus(ctx context.Context, itemID uuid.UUID) (domain.ItemStatus, error) {
	var status domain.ItemStatus

	err := r.db.WithContext(ctx).
		Model(&domain.PaymentItem{}).
		Where("item_id = ?", itemID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&status.PaidAmount).Error
	if err != nil {
		return status, err
	}

	err = r.db.WithContext(ctx).
		Model(&domain.ItemCompletion{}).
		Where("item_id = ?", itemID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&status.CompletedAmount).Error
	return status, err
}

// GetItemStatuses returns the derived statuses for every item that has a
// payment allocation or a completion row in the project. Items absent
// from the map have paid 0 and completed 0.
func (r *LedgerRepository) GetItemStatuses(ctx context.Context, projectID uuid.UUID) (map[uuid.UUID]domain.ItemStatus, error) {
	statuses := make(map[uuid.UUID]domain.ItemStatus)

	var paidRows []struct {
		ItemID uuid.UUID
		Total  float64
	}
	err := r.db.WithContext(ctx).
		Table("payment_items").
		Select("payment_items.item_id as item_id, COALESCE(SUM(payment_items.amount), 0) as total").
		Joins("JOIN payments ON payments.id = payment_items.payment_id").
		Where("payments.project_id = ?", projectID).
		Group("payment_items.item_id").
		Scan(&paidRows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range paidRows {
		status := statuses[row.ItemID]
		status.PaidAmount = row.Total
		statuses[row.ItemID] = status
	}

	var completedRows []struct {
		ItemID uuid.UUID
		Total  float64
	}
	err = r.db.WithContext(ctx).
		Model(&domain.ItemCompletion{}).
		Select("item_id, COALESCE(SUM(amount), 0) as total").
		Where("project_id = ?", projectID).
		Group("item_id").
		Scan(&completedRows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range completedRows {
		status := statuses[row.ItemID]
		status.CompletedAmount = row.Total
		statuses[row.ItemID] = status
	}

	return statuses, nil
}

// UpsertCompletion writes the synced completed amount for one item
func (r *LedgerRepository) UpsertCompletion(ctx context.Context, completion *domain.ItemCompletion) error {
	completion.SyncedAt = time.Now().UTC()
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "item_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"amount", "source_ref", "synced_at", "updated_at"}),
		}).
		Create(completion).Error
}

// GetCompletionsByProject retrieves the synced completions of a project
func (r *LedgerRepository) GetCompletionsByProject(ctx context.Context, projectID uuid.UUID) ([]domain.ItemCompletion, error) {
	var completions []domain.ItemCompletion
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Find(&completions).Error
	return completions, err
}
