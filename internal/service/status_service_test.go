package service

import (
	"context"
	"testing"

	"go-pos-orders/internal/model"
	"go-pos-orders/internal/testutil"

	"github.com/google/uuid"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) completedSale(t *testing.T, kind SaleKind) *model.Order {
	t.Helper()

	record := testutil.SeedSKU(t, f.db, "ST-"+uuid.NewString()[:8], 10, "50.00")
	return f.sell(t, SaleRequest{Items: cart(line(record.Code, 1, "50.00")), Kind: kind})
}

func TestSetActiveStatuses_ReplacesSetAndKeepsHistory(t *testing.T) {
	f := newFixture(t)
	order := f.completedSale(t, StandardSale{})

	change, err := f.statuses.SetActiveStatuses(context.Background(), order.ID,
		[]model.OrderStatus{model.StatusPendingSupplier, model.StatusReadyForPickup}, testActor, strPtr("llegó del proveedor"))
	require.NoError(t, err)

	assert.Equal(t, []model.OrderStatus{model.StatusPendingSupplier, model.StatusReadyForPickup}, change.Active)
	assert.Equal(t, model.StatusReadyForPickup, change.Primary)
	assert.Equal(t, []model.OrderStatus{model.StatusCompleted}, change.Deactivated)

	stored := f.reload(t, order.ID)
	assert.Equal(t, model.StatusReadyForPickup, stored.Status)
	assert.Equal(t, change.Active, stored.ActiveStatuses())

	history, err := f.statuses.History(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, history, 3, "records are deactivated, never deleted")
	var inactive int
	for _, r := range history {
		if !r.Active {
			inactive++
			assert.Equal(t, model.StatusCompleted, r.Status)
			assert.NotNil(t, r.DeactivatedAt)
			require.NotNil(t, r.DeactivatedBy)
			assert.Equal(t, testActor.ID, *r.DeactivatedBy)
		}
	}
	assert.Equal(t, 1, inactive)
	assert.Contains(t, f.hub.actions(), "statuses_set")
	assert.Equal(t, 1.0, promtest.ToFloat64(f.metrics.StatusTransitions.WithLabelValues("READY_FOR_PICKUP", "activated")))
}

func TestSetActiveStatuses_Rejections(t *testing.T) {
	f := newFixture(t)
	order := f.completedSale(t, StandardSale{})
	ctx := context.Background()

	_, err := f.statuses.SetActiveStatuses(ctx, order.ID, nil, testActor, nil)
	requireOpError(t, err, ErrValidation, CodeEmptyStatusSet)

	_, err = f.statuses.SetActiveStatuses(ctx, order.ID, []model.OrderStatus{"SHIPPED"}, testActor, nil)
	requireOpError(t, err, ErrValidation, CodeUnknownStatus)

	_, err = f.statuses.SetActiveStatuses(ctx, uuid.New(), []model.OrderStatus{model.StatusCompleted}, testActor, nil)
	requireOpError(t, err, ErrNotFound, CodeOrderNotFound)

	assert.Equal(t, []model.OrderStatus{model.StatusCompleted}, testutil.ActiveStatuses(t, f.db, order.ID))
}

func TestSetActiveStatuses_PrimaryAlwaysMatchesReduction(t *testing.T) {
	f := newFixture(t)
	order := f.completedSale(t, StandardSale{})

	sets := [][]model.OrderStatus{
		{model.StatusLayaway},
		{model.StatusDelivered, model.StatusLayaway},
		{model.StatusPendingPayment, model.StatusPendingSupplier},
		{model.StatusPendingEmbroidery, model.StatusPendingSupplier, model.StatusLayaway},
		{model.StatusCompleted, model.StatusReadyForPickup},
		{model.StatusDelivered},
		{model.StatusPendingPayment, model.StatusPendingPayment},
	}
	for _, set := range sets {
		change, err := f.statuses.SetActiveStatuses(context.Background(), order.ID, set, testActor, nil)
		require.NoError(t, err)

		stored := f.reload(t, order.ID)
		assert.Equal(t, model.PrimaryStatus(set), stored.Status, "set %v", set)
		assert.Equal(t, change.Primary, stored.Status)
		assert.Equal(t, model.NormalizeStatuses(set), testutil.ActiveStatuses(t, f.db, order.ID))
	}
}

func TestAddStatus(t *testing.T) {
	f := newFixture(t)
	order := f.completedSale(t, SpecialOrder{CustomerName: "Ana"})
	ctx := context.Background()

	change, err := f.statuses.AddStatus(ctx, order.ID, model.StatusPendingSupplier, testActor, strPtr("falta talla"))
	require.NoError(t, err)
	assert.Equal(t, []model.OrderStatus{model.StatusPendingEmbroidery, model.StatusPendingSupplier}, change.Active)
	assert.Equal(t, model.StatusPendingEmbroidery, change.Primary)

	// adding an active status again is a no-op
	change, err = f.statuses.AddStatus(ctx, order.ID, model.StatusPendingSupplier, testActor, nil)
	require.NoError(t, err)
	assert.Empty(t, change.Activated)
	history, err := f.statuses.History(ctx, order.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	_, err = f.statuses.AddStatus(ctx, order.ID, "LOST", testActor, nil)
	requireOpError(t, err, ErrValidation, CodeUnknownStatus)

	_, err = f.statuses.AddStatus(ctx, uuid.New(), model.StatusDelivered, testActor, nil)
	requireOpError(t, err, ErrNotFound, CodeOrderNotFound)
}

func TestRemoveStatus(t *testing.T) {
	f := newFixture(t)
	order := f.completedSale(t, SpecialOrder{CustomerName: "Ana"})
	ctx := context.Background()

	_, err := f.statuses.AddStatus(ctx, order.ID, model.StatusReadyForPickup, testActor, nil)
	require.NoError(t, err)

	change, err := f.statuses.RemoveStatus(ctx, order.ID, model.StatusPendingEmbroidery, testActor)
	require.NoError(t, err)
	assert.Equal(t, []model.OrderStatus{model.StatusReadyForPickup}, change.Active)
	assert.Equal(t, model.StatusReadyForPickup, f.reload(t, order.ID).Status)

	_, err = f.statuses.RemoveStatus(ctx, order.ID, model.StatusPendingEmbroidery, testActor)
	requireOpError(t, err, ErrValidation, CodeStatusNotActive)

	_, err = f.statuses.RemoveStatus(ctx, order.ID, model.StatusReadyForPickup, testActor)
	requireOpError(t, err, ErrValidation, CodeCannotRemoveLastStatus)
	assert.Equal(t, []model.OrderStatus{model.StatusReadyForPickup}, testutil.ActiveStatuses(t, f.db, order.ID))
	assert.Equal(t, model.StatusReadyForPickup, f.reload(t, order.ID).Status)
}

func TestReadyForPickupNotifiesCustomer(t *testing.T) {
	f := newFixture(t)
	order := f.completedSale(t, SpecialOrder{CustomerName: "Ana", Phone: strPtr("5551234567")})
	ctx := context.Background()

	_, err := f.statuses.SetActiveStatuses(ctx, order.ID, []model.OrderStatus{model.StatusReadyForPickup}, testActor, nil)
	require.NoError(t, err)
	// already active: no second message
	_, err = f.statuses.AddStatus(ctx, order.ID, model.StatusReadyForPickup, testActor, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"order_created", "ready_for_pickup"}, f.notifier.kinds())
}

func TestStatusHistory_UnknownOrder(t *testing.T) {
	f := newFixture(t)

	_, err := f.statuses.History(context.Background(), uuid.New())
	requireOpError(t, err, ErrNotFound, CodeOrderNotFound)
}
