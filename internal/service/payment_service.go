package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mestero/estimate-api/internal/billing"
	"github.com/mestero/estimate-api/internal/domain"
	"github.com/mestero/estimate-api/internal/mapper"
	"github.com/mestero/estimate-api/internal/repository"
)

// PaymentService is the ledger: it records payments split across items,
// derives per-item settlement status and the project balance, and is
// the source of truth for the lock that protects settled items.
type PaymentService struct {
	paymentRepo *repository.PaymentRepository
	ledgerRepo  *repository.LedgerRepository
	projectRepo *repository.ProjectRepository
	itemRepo    *repository.ItemRepository
	gateway     billing.InvoiceGateway
	invoiceCap  float64
	logger      *zap.Logger
}

func NewPaymentService(
	paymentRepo *repository.PaymentRepository,
	ledgerRepo *repository.LedgerRepository,
	projectRepo *repository.ProjectRepository,
	itemRepo *repository.ItemRepository,
	gateway billing.InvoiceGateway,
	invoiceCap float64,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		paymentRepo: paymentRepo,
		ledgerRepo:  ledgerRepo,
		projectRepo: projectRepo,
		itemRepo:    itemRepo,
		gateway:     gateway,
		invoiceCap:  invoiceCap,
		logger:      logger,
	}
}

// Record books a manual payment. Rejected when the amount is not
// positive, the item list is empty, an item does not belong to the
// project, or any selected item is already settled.
func (s *PaymentService) Record(ctx context.Context, projectID uuid.UUID, req *domain.CreatePaymentRequest) (*domain.PaymentDTO, error) {
	payment, err := s.buildPayment(ctx, projectID, req.Amount, req.Items)
	if err != nil {
		return nil, err
	}
	payment.PaymentDate = req.PaymentDate
	payment.Notes = req.Notes
	payment.Method = domain.PaymentMethodManual

	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}

	s.logger.Info("Payment recorded",
		zap.String("project_id", projectID.String()),
		zap.String("payment_id", payment.ID.String()),
		zap.Float64("amount", payment.Amount))

	dto := mapper.ToPaymentDTO(payment)
	return &dto, nil
}

// RecordProviderInvoice books a payment through the external payment
// provider. Amounts above the provider cap are rejected before any
// provider call is made.
func (s *PaymentService) RecordProviderInvoice(ctx context.Context, projectID uuid.UUID, req *domain.CreateProviderInvoiceRequest) (*domain.PaymentDTO, error) {
	if req.Amount > s.invoiceCap {
		return nil, fmt.Errorf("%w: amount %.2f exceeds provider cap %.2f", ErrInvoiceCapExceeded, req.Amount, s.invoiceCap)
	}

	payment, err := s.buildPayment(ctx, projectID, req.Amount, req.Items)
	if err != nil {
		return nil, err
	}

	result, err := s.gateway.CreateInvoice(ctx, billing.InvoiceRequest{
		Amount:      req.Amount,
		Description: fmt.Sprintf("Project %s payment", projectID),
		PayerEmail:  req.PayerEmail,
	})
	if err != nil {
		s.logger.Error("Provider invoice failed",
			zap.String("project_id", projectID.String()),
			zap.Float64("amount", req.Amount),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrExternalService, err)
	}

	payment.PaymentDate = req.PaymentDate
	payment.Notes = req.Notes
	payment.Method = domain.PaymentMethodProviderInvoice
	payment.ProviderPaymentID = result.ProviderPaymentID
	payment.ProviderStatus = result.Status

	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}

	s.logger.Info("Provider invoice recorded",
		zap.String("project_id", projectID.String()),
		zap.String("payment_id", payment.ID.String()),
		zap.String("provider_payment_id", result.ProviderPaymentID),
		zap.Float64("amount", payment.Amount))

	dto := mapper.ToPaymentDTO(payment)
	return &dto, nil
}

func (s *PaymentService) buildPayment(ctx context.Context, projectID uuid.UUID, amount float64, allocations []domain.PaymentAllocationRequest) (*domain.Payment, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: payment amount must be positive", ErrInvalidInput)
	}
	if len(allocations) == 0 {
		return nil, ErrEmptySelection
	}

	exists, err := s.projectRepo.Exists(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to check project: %w", err)
	}
	if !exists {
		return nil, ErrProjectNotFound
	}

	ids := make([]uuid.UUID, 0, len(allocations))
	for _, alloc := range allocations {
		if alloc.Amount <= 0 {
			return nil, fmt.Errorf("%w: item amount must be positive", ErrInvalidInput)
		}
		ids = append(ids, alloc.ItemID)
	}

	items, err := s.itemRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load items: %w", err)
	}
	if len(items) != len(ids) {
		return nil, ErrItemNotFound
	}
	for i := range items {
		itemProjectID, err := s.itemRepo.ProjectIDOf(ctx, items[i].ID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve item project: %w", err)
		}
		if itemProjectID != projectID {
			return nil, fmt.Errorf("%w: item %s does not belong to project", ErrInvalidInput, items[i].ID)
		}
	}

	statuses, err := s.ledgerRepo.GetItemStatuses(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to get item statuses: %w", err)
	}
	for _, id := range ids {
		if statuses[id].Locked() {
			return nil, ErrItemLocked
		}
	}

	payment := &domain.Payment{
		ProjectID: projectID,
		Amount:    amount,
	}
	for _, alloc := range allocations {
		payment.Items = append(payment.Items, domain.PaymentItem{
			ItemID: alloc.ItemID,
			Amount: alloc.Amount,
		})
	}
	return payment, nil
}

func (s *PaymentService) GetByID(ctx context.Context, id uuid.UUID) (*domain.PaymentDTO, error) {
	payment, err := s.paymentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	dto := mapper.ToPaymentDTO(payment)
	return &dto, nil
}

func (s *PaymentService) ListByProject(ctx context.Context, projectID uuid.UUID) ([]domain.PaymentDTO, error) {
	payments, err := s.paymentRepo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	dtos := make([]domain.PaymentDTO, 0, len(payments))
	for i := range payments {
		dtos = append(dtos, mapper.ToPaymentDTO(&payments[i]))
	}
	return dtos, nil
}

// Delete removes a payment and its item allocations, which restores
// edit rights on any item whose paid amount drops back to zero and has
// no completed work recorded against it.
func (s *PaymentService) Delete(ctx context.Context, id uuid.UUID) error {
	payment, err := s.paymentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPaymentNotFound
		}
		return fmt.Errorf("failed to get payment: %w", err)
	}

	if err := s.paymentRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete payment: %w", err)
	}

	s.logger.Info("Payment deleted",
		zap.String("project_id", payment.ProjectID.String()),
		zap.String("payment_id", id.String()),
		zap.Float64("amount", payment.Amount))
	return nil
}

// ItemStatuses returns, per item, the summed paid and completed amounts
func (s *PaymentService) ItemStatuses(ctx context.Context, projectID uuid.UUID) (map[uuid.UUID]domain.ItemStatus, error) {
	exists, err := s.projectRepo.Exists(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to check project: %w", err)
	}
	if !exists {
		return nil, ErrProjectNotFound
	}
	statuses, err := s.ledgerRepo.GetItemStatuses(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to get item statuses: %w", err)
	}
	return statuses, nil
}

// Balance is paid minus completed over all items of the project. A
// negative balance means more work was completed than paid for, which
// is a valid accounting state, not an error.
func (s *PaymentService) Balance(ctx context.Context, projectID uuid.UUID) (*domain.BalanceDTO, error) {
	statuses, err := s.ItemStatuses(ctx, projectID)
	if err != nil {
		return nil, err
	}

	paid := decimal.Zero
	completed := decimal.Zero
	for _, status := range statuses {
		paid = paid.Add(decimal.NewFromFloat(status.PaidAmount))
		completed = completed.Add(decimal.NewFromFloat(status.CompletedAmount))
	}

	return &domain.BalanceDTO{
		ProjectID:      projectID,
		PaidTotal:      paid.InexactFloat64(),
		CompletedTotal: completed.InexactFloat64(),
		Balance:        paid.Sub(completed).InexactFloat64(),
	}, nil
}
