package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"go-pos-orders/internal/metrics"
	"go-pos-orders/internal/model"
	"go-pos-orders/internal/notify"
	"go-pos-orders/internal/repository"
	"go-pos-orders/internal/testutil"
	"go-pos-orders/internal/ws"
	"go-pos-orders/pkg/config"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type recordingHub struct {
	mu     sync.Mutex
	events []ws.Event
}

func (h *recordingHub) Publish(event ws.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
}

func (h *recordingHub) actions() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.events))
	for _, e := range h.events {
		out = append(out, e.Action)
	}
	return out
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []notify.Message
}

func (n *recordingNotifier) Dispatch(msg notify.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, msg)
}

func (n *recordingNotifier) kinds() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.messages))
	for _, m := range n.messages {
		out = append(out, m.Kind)
	}
	return out
}

var testActor = Actor{ID: "cashier-1", Name: "Caja 1"}

type fixture struct {
	db          *gorm.DB
	cfg         config.SaleConfig
	metrics     *metrics.Metrics
	hub         *recordingHub
	notifier    *recordingNotifier
	orderRepo   repository.OrderRepository
	statusRepo  repository.StatusRepository
	itemRepo    repository.OrderItemRepository
	inventory   InventoryService
	sales       SaleService
	statuses    StatusService
	fulfillment FulfillmentService
	layaway     LayawayService
	queries     OrderQueryService
}

func testSaleConfig() config.SaleConfig {
	return config.SaleConfig{
		LockTimeout:        5 * time.Second,
		MaxRetries:         2,
		RetryBackoff:       time.Millisecond,
		TaxRate:            decimal.RequireFromString("0.16"),
		WalkInCustomerName: "Público en General",
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		db:       testutil.NewDB(t),
		cfg:      testSaleConfig(),
		metrics:  metrics.New("test", prometheus.NewRegistry()),
		hub:      &recordingHub{},
		notifier: &recordingNotifier{},
	}
	log := zap.NewNop()

	invRepo := repository.NewInventoryRepo(f.db)
	f.orderRepo = repository.NewOrderRepo(f.db)
	f.statusRepo = repository.NewStatusRepo(f.db)
	f.itemRepo = repository.NewOrderItemRepo(f.db)

	f.inventory = NewInventoryService(invRepo, f.db, f.hub, f.metrics)
	f.sales = NewSaleService(f.inventory, f.orderRepo, f.itemRepo, f.statusRepo, f.db, f.cfg, f.hub, f.notifier, f.metrics, log)
	f.statuses = NewStatusService(f.orderRepo, f.statusRepo, f.db, f.hub, f.notifier, f.metrics, log)
	f.fulfillment = NewFulfillmentService(f.orderRepo, f.itemRepo, f.db, f.hub, f.metrics)
	f.layaway = NewLayawayService(f.orderRepo, f.statusRepo, f.db, f.hub, f.notifier, f.metrics, log)
	f.queries = NewOrderQueryService(f.orderRepo)
	return f
}

func cart(lines ...CartItem) []CartItem { return lines }

func line(sku string, qty int, price string) CartItem {
	return CartItem{SKU: sku, Quantity: qty, AgreedPrice: decimal.RequireFromString(price)}
}

func strPtr(s string) *string { return &s }

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

// sell runs a sale that must succeed and returns the committed order
func (f *fixture) sell(t *testing.T, req SaleRequest) *model.Order {
	t.Helper()

	if req.PaymentMethod == "" {
		req.PaymentMethod = model.PaymentCash
	}
	res, err := f.sales.ProcessSale(context.Background(), req, testActor)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res.Order
}

func (f *fixture) reload(t *testing.T, id uuid.UUID) *model.Order {
	t.Helper()

	order, err := f.queries.GetOrder(context.Background(), id)
	require.NoError(t, err)
	return order
}
