package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mestero/estimate-api/internal/domain"
)

// End to end over one project: the same item priced differently for the
// customer and the team, certified under the customer view, paid, locked
// and unlocked again.
func TestEstimateToPaymentFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	estimates := newEstimateService(f, nil)
	acts := newActService(f, &fakeRenderer{}, &fakeStorage{})
	payments := newPaymentService(f, &fakeGateway{})

	project := f.createProject(t, "Summer house")
	customer := f.createView(t, project.ID, "Customer")
	team := f.createView(t, project.ID, "Team")
	section := f.createSection(t, project.ID, "Terrace", 0)
	item := f.createItem(t, section.ID, "Decking", 10)
	f.setPrice(t, item, customer.ID, 100)
	f.setPrice(t, item, team.ID, 60)

	// the act follows the prices of the view it was requested under
	result, err := acts.Create(ctx, project.ID, &domain.CreateActRequest{
		ViewID:        customer.ID,
		SelectionMode: domain.ActSelectionBySection,
		SectionIDs:    []uuid.UUID{section.ID},
		Number:        "ACT-1",
		ActDate:       time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, 1000.0, result.Act.TotalAmount)

	teamResult, err := acts.Create(ctx, project.ID, &domain.CreateActRequest{
		ViewID:        team.ID,
		SelectionMode: domain.ActSelectionBySection,
		SectionIDs:    []uuid.UUID{section.ID},
		Number:        "ACT-2",
		ActDate:       time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, 600.0, teamResult.Act.TotalAmount)

	// pay the customer amount in full, the item locks
	payment, err := payments.Record(ctx, project.ID, &domain.CreatePaymentRequest{
		Amount:      1000,
		PaymentDate: time.Now(),
		Items:       []domain.PaymentAllocationRequest{{ItemID: item.ID, Amount: 1000}},
	})
	require.NoError(t, err)

	quantity := 12.0
	_, err = estimates.UpdateItem(ctx, item.ID, &domain.UpdateItemRequest{Quantity: &quantity})
	assert.ErrorIs(t, err, ErrItemLocked)

	balance, err := payments.Balance(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, balance.Balance)

	// removing the payment reopens the item
	require.NoError(t, payments.Delete(ctx, payment.ID))

	dto, err := estimates.UpdateItem(ctx, item.ID, &domain.UpdateItemRequest{Quantity: &quantity})
	require.NoError(t, err)
	assert.Equal(t, 1200.0, dto.Settings[customer.ID].Total)
	assert.Equal(t, 720.0, dto.Settings[team.ID].Total)

	// the recorded acts kept their frozen totals through all of it
	reloaded, err := acts.GetByID(ctx, result.Act.ID)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, reloaded.TotalAmount)
}
