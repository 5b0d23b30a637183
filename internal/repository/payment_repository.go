package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/mestero/estimate-api/internal/domain"
	"gorm.io/gorm"
)

// PaymentRepository handles database operations for payments
type PaymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new repository instance
func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create stores a payment with its item allocations
func (r *PaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

// GetByID retrieves a payment with its allocations
func (r *PaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	var payment domain.Payment
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&payment, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// ListByProject retrieves all payments of a project, newest first
func (r *PaymentRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]domain.Payment, error) {
	var payments []domain.Payment
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("project_id = ?", projectID).
		Order("payment_date DESC, created_at DESC").
		Find(&payments).Error
	return payments, err
}

// Delete removes a payment and its allocations, rolling the derived paid
// amounts of the referenced items back in one step
func (r *PaymentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("payment_id = ?", id).Delete(&domain.PaymentItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.Payment{}, "id = ?", id).Error
	})
}
