package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mestero/estimate-api/internal/billing"
	"github.com/mestero/estimate-api/internal/domain"
)

const testInvoiceCap = 350000.0

func newPaymentService(f *fixture, gateway billing.InvoiceGateway) *PaymentService {
	return NewPaymentService(f.paymentRepo, f.ledgerRepo, f.projectRepo, f.itemRepo, gateway, testInvoiceCap, testLogger())
}

func TestRecordPaymentValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := newPaymentService(f, &fakeGateway{})

	project := f.createProject(t, "House")
	section := f.createSection(t, project.ID, "Walls", 0)
	item := f.createItem(t, section.ID, "Bricks", 1)

	other := f.createProject(t, "Other house")
	otherSection := f.createSection(t, other.ID, "Walls", 0)
	foreignItem := f.createItem(t, otherSection.ID, "Bricks", 1)

	date := time.Now()

	_, err := svc.Record(ctx, project.ID, &domain.CreatePaymentRequest{
		Amount:      0,
		PaymentDate: date,
		Items:       []domain.PaymentAllocationRequest{{ItemID: item.ID, Amount: 10}},
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Record(ctx, project.ID, &domain.CreatePaymentRequest{
		Amount:      100,
		PaymentDate: date,
	})
	assert.ErrorIs(t, err, ErrEmptySelection)

	_, err = svc.Record(ctx, project.ID, &domain.CreatePaymentRequest{
		Amount:      100,
		PaymentDate: date,
		Items:       []domain.PaymentAllocationRequest{{ItemID: item.ID, Amount: -5}},
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Record(ctx, project.ID, &domain.CreatePaymentRequest{
		Amount:      100,
		PaymentDate: date,
		Items:       []domain.PaymentAllocationRequest{{ItemID: uuid.New(), Amount: 100}},
	})
	assert.ErrorIs(t, err, ErrItemNotFound)

	_, err = svc.Record(ctx, project.ID, &domain.CreatePaymentRequest{
		Amount:      100,
		PaymentDate: date,
		Items:       []domain.PaymentAllocationRequest{{ItemID: foreignItem.ID, Amount: 100}},
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

// A paid item is locked from edits, deletion and re-selection; deleting
// the payment restores all of it.
func TestSettlementLockCycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	payments := newPaymentService(f, &fakeGateway{})
	estimates := newEstimateService(f, nil)

	project := f.createProject(t, "Apartment")
	customer := f.createView(t, project.ID, "Customer")
	section := f.createSection(t, project.ID, "Electrics", 0)
	item := f.createItem(t, section.ID, "Wiring", 10)
	f.setPrice(t, item, customer.ID, 100)

	dto, err := payments.Record(ctx, project.ID, &domain.CreatePaymentRequest{
		Amount:      1000,
		PaymentDate: time.Now(),
		Items:       []domain.PaymentAllocationRequest{{ItemID: item.ID, Amount: 1000}},
	})
	require.NoError(t, err)

	statuses, err := payments.ItemStatuses(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, statuses[item.ID].PaidAmount)
	assert.True(t, statuses[item.ID].Locked())

	name := "Rewiring"
	_, err = estimates.UpdateItem(ctx, item.ID, &domain.UpdateItemRequest{Name: &name})
	assert.ErrorIs(t, err, ErrItemLocked)

	err = estimates.DeleteItem(ctx, item.ID)
	assert.ErrorIs(t, err, ErrItemLocked)

	price := 120.0
	_, err = estimates.SetItemViewSetting(ctx, item.ID, &domain.SetItemViewSettingRequest{
		ViewID: customer.ID,
		Price:  &price,
	})
	assert.ErrorIs(t, err, ErrItemLocked)

	_, err = payments.Record(ctx, project.ID, &domain.CreatePaymentRequest{
		Amount:      50,
		PaymentDate: time.Now(),
		Items:       []domain.PaymentAllocationRequest{{ItemID: item.ID, Amount: 50}},
	})
	assert.ErrorIs(t, err, ErrItemLocked)

	// deleting the payment restores editability
	require.NoError(t, payments.Delete(ctx, dto.ID))

	_, err = estimates.UpdateItem(ctx, item.ID, &domain.UpdateItemRequest{Name: &name})
	require.NoError(t, err)

	statuses, err = payments.ItemStatuses(ctx, project.ID)
	require.NoError(t, err)
	assert.False(t, statuses[item.ID].Locked())
}

func TestPartialAllocationAccepted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := newPaymentService(f, &fakeGateway{})

	project := f.createProject(t, "House")
	section := f.createSection(t, project.ID, "Walls", 0)
	a := f.createItem(t, section.ID, "Bricks", 1)
	b := f.createItem(t, section.ID, "Mortar", 1)

	// allocations need not sum to the payment amount
	dto, err := svc.Record(ctx, project.ID, &domain.CreatePaymentRequest{
		Amount:      500,
		PaymentDate: time.Now(),
		Items: []domain.PaymentAllocationRequest{
			{ItemID: a.ID, Amount: 300},
			{ItemID: b.ID, Amount: 100},
		},
	})
	require.NoError(t, err)
	assert.Len(t, dto.Items, 2)
}

func TestProviderInvoiceCapRejectedBeforeProviderCall(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	gateway := &fakeGateway{}
	svc := newPaymentService(f, gateway)

	project := f.createProject(t, "Tower")
	section := f.createSection(t, project.ID, "Core", 0)
	item := f.createItem(t, section.ID, "Concrete", 1)

	_, err := svc.RecordProviderInvoice(ctx, project.ID, &domain.CreateProviderInvoiceRequest{
		Amount:      testInvoiceCap + 1,
		PaymentDate: time.Now(),
		Items:       []domain.PaymentAllocationRequest{{ItemID: item.ID, Amount: 1}},
	})
	assert.ErrorIs(t, err, ErrInvoiceCapExceeded)
	assert.Equal(t, 0, gateway.calls)
}

func TestProviderInvoiceStoresProviderFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	gateway := &fakeGateway{result: billing.InvoiceResult{ProviderPaymentID: "mp-123", Status: "approved"}}
	svc := newPaymentService(f, gateway)

	project := f.createProject(t, "Tower")
	section := f.createSection(t, project.ID, "Core", 0)
	item := f.createItem(t, section.ID, "Concrete", 1)

	dto, err := svc.RecordProviderInvoice(ctx, project.ID, &domain.CreateProviderInvoiceRequest{
		Amount:      2500,
		PaymentDate: time.Now(),
		Items:       []domain.PaymentAllocationRequest{{ItemID: item.ID, Amount: 2500}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, gateway.calls)
	assert.Equal(t, domain.PaymentMethodProviderInvoice, dto.Method)
	assert.Equal(t, "mp-123", dto.ProviderPaymentID)
	assert.Equal(t, "approved", dto.ProviderStatus)
}

func TestProviderInvoiceGatewayFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	gateway := &fakeGateway{err: errors.New("provider timeout")}
	svc := newPaymentService(f, gateway)

	project := f.createProject(t, "Tower")
	section := f.createSection(t, project.ID, "Core", 0)
	item := f.createItem(t, section.ID, "Concrete", 1)

	_, err := svc.RecordProviderInvoice(ctx, project.ID, &domain.CreateProviderInvoiceRequest{
		Amount:      2500,
		PaymentDate: time.Now(),
		Items:       []domain.PaymentAllocationRequest{{ItemID: item.ID, Amount: 2500}},
	})
	assert.ErrorIs(t, err, ErrExternalService)

	// nothing recorded when the provider call fails
	list, err := svc.ListByProject(ctx, project.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestBalanceCanGoNegative(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := newPaymentService(f, &fakeGateway{})

	project := f.createProject(t, "Cottage")
	section := f.createSection(t, project.ID, "Frame", 0)
	item := f.createItem(t, section.ID, "Timber", 1)

	_, err := svc.Record(ctx, project.ID, &domain.CreatePaymentRequest{
		Amount:      300,
		PaymentDate: time.Now(),
		Items:       []domain.PaymentAllocationRequest{{ItemID: item.ID, Amount: 300}},
	})
	require.NoError(t, err)

	require.NoError(t, f.ledgerRepo.UpsertCompletion(ctx, &domain.ItemCompletion{
		ProjectID: project.ID,
		ItemID:    item.ID,
		Amount:    450,
		SourceRef: "wl-7",
	}))

	balance, err := svc.Balance(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, 300.0, balance.PaidTotal)
	assert.Equal(t, 450.0, balance.CompletedTotal)
	assert.Equal(t, -150.0, balance.Balance)
}

func TestCompletedAmountAloneLocksItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	estimates := newEstimateService(f, nil)

	project := f.createProject(t, "Cottage")
	section := f.createSection(t, project.ID, "Frame", 0)
	item := f.createItem(t, section.ID, "Timber", 1)

	require.NoError(t, f.ledgerRepo.UpsertCompletion(ctx, &domain.ItemCompletion{
		ProjectID: project.ID,
		ItemID:    item.ID,
		Amount:    200,
	}))

	err := estimates.DeleteItem(ctx, item.ID)
	assert.ErrorIs(t, err, ErrItemLocked)
}
