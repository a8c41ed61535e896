package service

import (
	"context"
	"testing"

	"go-pos-orders/internal/model"
	"go-pos-orders/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetItemDelivered_IsIdempotent(t *testing.T) {
	f := newFixture(t)
	testutil.SeedSKU(t, f.db, "S1", 5, "10.00")
	testutil.SeedSKU(t, f.db, "S2", 5, "20.00")
	order := f.sell(t, SaleRequest{Items: cart(line("S1", 1, "10.00"), line("S2", 1, "20.00"))})
	itemID := order.Items[0].ID
	ctx := context.Background()

	_, err := f.fulfillment.SetItemDelivered(ctx, itemID, true, testActor)
	require.NoError(t, err)
	once := f.reload(t, order.ID)

	change, err := f.fulfillment.SetItemDelivered(ctx, itemID, true, testActor)
	require.NoError(t, err)
	twice := f.reload(t, order.ID)

	assert.Equal(t, order.ID, change.OrderID)
	assert.Equal(t, deliveredFlags(once.Items), deliveredFlags(twice.Items))
	assert.Equal(t, 1, countDelivered(twice.Items), "only the toggled item changes")
	// delivery never touches the status set
	assert.Equal(t, []model.OrderStatus{model.StatusCompleted}, twice.ActiveStatuses())
	assert.Contains(t, f.hub.actions(), "item_delivery_changed")
}

func TestSetAllItemsDelivered(t *testing.T) {
	f := newFixture(t)
	testutil.SeedSKU(t, f.db, "S1", 5, "10.00")
	testutil.SeedSKU(t, f.db, "S2", 5, "20.00")
	order := f.sell(t, SaleRequest{
		Items: cart(line("S1", 1, "10.00"), line("S2", 1, "20.00")),
		Kind:  SpecialOrder{CustomerName: "Ana"},
	})
	ctx := context.Background()

	change, err := f.fulfillment.SetAllItemsDelivered(ctx, order.ID, true, testActor)
	require.NoError(t, err)
	assert.Len(t, change.ItemIDs, 2)

	stored := f.reload(t, order.ID)
	assert.Equal(t, 2, countDelivered(stored.Items))
	assert.Equal(t, model.StatusPendingEmbroidery, stored.Status, "items can be delivered while production is pending")

	_, err = f.fulfillment.SetAllItemsDelivered(ctx, order.ID, false, testActor)
	require.NoError(t, err)
	assert.Zero(t, countDelivered(f.reload(t, order.ID).Items))
}

func TestDelivery_NotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.fulfillment.SetItemDelivered(ctx, uuid.New(), true, testActor)
	requireOpError(t, err, ErrNotFound, CodeItemNotFound)

	_, err = f.fulfillment.SetAllItemsDelivered(ctx, uuid.New(), true, testActor)
	requireOpError(t, err, ErrNotFound, CodeOrderNotFound)
}

func deliveredFlags(items []model.OrderItem) map[uuid.UUID]bool {
	out := make(map[uuid.UUID]bool, len(items))
	for _, item := range items {
		out[item.ID] = item.Delivered
	}
	return out
}

func countDelivered(items []model.OrderItem) int {
	n := 0
	for _, item := range items {
		if item.Delivered {
			n++
		}
	}
	return n
}
