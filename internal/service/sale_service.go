package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go-pos-orders/internal/metrics"
	"go-pos-orders/internal/model"
	"go-pos-orders/internal/notify"
	"go-pos-orders/internal/repository"
	"go-pos-orders/internal/ws"
	"go-pos-orders/pkg/config"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type SaleService interface {
	// ProcessSale turns a cart into an order in one unit of work: stock reservations, order row,
	// items and initial status records commit together or not at all.
	ProcessSale(ctx context.Context, req SaleRequest, actor Actor) (*SaleResult, error)
}

type saleService struct {
	ledger    InventoryLedger
	orderRepo repository.OrderRepository
	itemRepo  repository.OrderItemRepository
	engine    *statusEngine
	db        *gorm.DB
	cfg       config.SaleConfig
	effects   sideEffects
	log       *zap.Logger
	sleep     func(ctx context.Context, d time.Duration) error
}

func NewSaleService(
	ledger InventoryLedger,
	oRepo repository.OrderRepository,
	iRepo repository.OrderItemRepository,
	sRepo repository.StatusRepository,
	db *gorm.DB,
	cfg config.SaleConfig,
	hub EventPublisher,
	notifier Notifier,
	m *metrics.Metrics,
	log *zap.Logger,
) SaleService {
	return &saleService{
		ledger:    ledger,
		orderRepo: oRepo,
		itemRepo:  iRepo,
		engine:    newStatusEngine(oRepo, sRepo, m),
		db:        db,
		cfg:       cfg,
		effects:   sideEffects{hub: hub, notifier: notifier, metrics: m},
		log:       log.Named("sale"),
		sleep:     sleepCtx,
	}
}

func (s *saleService) ProcessSale(ctx context.Context, req SaleRequest, actor Actor) (*SaleResult, error) {
	// 1. Validate before touching the store
	if err := req.validate(); err != nil {
		s.effects.metrics.RecordSale("rejected", 0)
		return nil, err
	}
	totals, err := ComputeTotals(req.Items, req.RequiresInvoice, s.cfg.TaxRate, req.FinalTotal)
	if err != nil {
		s.effects.metrics.RecordSale("rejected", 0)
		return nil, err
	}
	if req.Layaway != nil && req.Layaway.DownPayment.Round(2).GreaterThanOrEqual(totals.Total) {
		s.effects.metrics.RecordSale("rejected", 0)
		return nil, newValidationError(CodeInvalidDownPayment,
			"down payment must be lower than the total "+totals.Total.StringFixed(2))
	}

	// 2. A repeated idempotency key returns the sale that already committed
	key := strings.TrimSpace(req.IdempotencyKey)
	if key != "" {
		if result, err := s.findDuplicate(ctx, key); result != nil || err != nil {
			return result, err
		}
	}

	// 3. Run the unit of work, retrying only on lock contention
	var (
		order    *model.Order
		reserved []*model.InventoryRecord
		attempts int
	)
	for {
		attempts++
		order, reserved, err = s.attempt(ctx, &req, totals, actor, key)
		if err == nil {
			break
		}
		if ctx.Err() != nil {
			err = classifyStoreError(ctx.Err())
			break
		}
		if key != "" && errors.Is(err, gorm.ErrDuplicatedKey) {
			// a concurrent request with the same key won the race
			if result, lookupErr := s.findDuplicate(ctx, key); result != nil || lookupErr != nil {
				return result, lookupErr
			}
		}
		if !isRetryable(err) {
			err = classifyStoreError(err)
			break
		}
		if attempts > s.cfg.MaxRetries {
			err = &OpError{Kind: ErrTransientStore, Code: CodeLockTimeout,
				Detail: fmt.Sprintf("could not reserve stock after %d attempts", attempts), Err: err}
			break
		}
		s.log.Debug("sale hit lock contention, retrying", zap.Int("attempt", attempts), zap.Error(err))
		if sleepErr := s.sleep(ctx, s.cfg.RetryBackoff*time.Duration(attempts)); sleepErr != nil {
			err = classifyStoreError(sleepErr)
			break
		}
	}

	if err != nil {
		s.effects.metrics.RecordSale(saleOutcome(err), attempts)
		s.logRejection(err, attempts)
		return nil, err
	}

	// 4. Post-commit side effects; none of these can undo the sale
	s.effects.metrics.RecordSale("completed", attempts)
	for _, record := range reserved {
		s.effects.stockChanged(record, "sale", actor)
	}
	s.effects.publish(ws.Event{
		Type:    EventOrderUpdate,
		Action:  "order_created",
		Data:    order.ToResponse(),
		Actor:   actor.label(),
		Message: fmt.Sprintf("%s registered a sale of %s", actor.label(), order.Total.StringFixed(2)),
	})
	s.effects.notify(notify.Message{
		OrderID: order.ID.String(),
		Kind:    "order_created",
		To:      customerPhone(order),
		Body:    saleMessage(order),
	})

	s.log.Info("sale committed",
		zap.String("order_id", order.ID.String()),
		zap.String("total", order.Total.StringFixed(2)),
		zap.String("status", string(order.Status)),
		zap.Int("attempts", attempts),
	)
	return &SaleResult{OrderID: order.ID, Order: order}, nil
}

func (s *saleService) findDuplicate(ctx context.Context, key string) (*SaleResult, error) {
	existing, err := s.orderRepo.FindByIdempotencyKey(ctx, key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, classifyStoreError(err)
	}
	s.effects.metrics.RecordSale("duplicate", 0)
	return &SaleResult{OrderID: existing.ID, Order: existing, Duplicate: true}, nil
}

// attempt is one try of the unit of work under its own deadline
func (s *saleService) attempt(ctx context.Context, req *SaleRequest, totals Totals, actor Actor, key string) (*model.Order, []*model.InventoryRecord, error) {
	if s.cfg.LockTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.LockTimeout)
		defer cancel()
	}

	var (
		order    *model.Order
		reserved []*model.InventoryRecord
	)
	defer s.effects.metrics.TrackDBOperation("sale")(time.Now())
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reserved = reserved[:0]
		byCode := make(map[string]*model.InventoryRecord)

		// Reserve every SKU first, in a stable order so concurrent carts lock rows alike
		for _, line := range aggregateCart(req.Items) {
			record, err := s.ledger.Reserve(tx, line.SKU, line.Quantity, actor)
			if err != nil {
				return err
			}
			byCode[line.SKU] = record
			reserved = append(reserved, record)
		}

		order = s.buildOrder(req, totals, actor, key)
		if err := s.orderRepo.Create(tx, order); err != nil {
			return err
		}

		items := make([]model.OrderItem, 0, len(req.Items))
		for _, line := range req.Items {
			code := strings.TrimSpace(line.SKU)
			items = append(items, model.OrderItem{
				BaseModel:         model.BaseModel{CreatedBy: actor.ID, UpdatedBy: actor.ID},
				OrderID:           order.ID,
				InventoryRecordID: byCode[code].ID,
				SKUCode:           code,
				Quantity:          line.Quantity,
				Price:             line.AgreedPrice.Round(2),
			})
		}
		if err := s.itemRepo.CreateBatch(tx, items); err != nil {
			return err
		}

		statuses, err := s.engine.activate(tx, order.ID, req.initialStatuses(), actor, nil)
		if err != nil {
			return err
		}

		order.Items = items
		order.Statuses = statuses
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return order, reserved, nil
}

func (s *saleService) buildOrder(req *SaleRequest, totals Totals, actor Actor, key string) *model.Order {
	order := &model.Order{
		BaseModel:        model.BaseModel{CreatedBy: actor.ID, UpdatedBy: actor.ID},
		Subtotal:         totals.Subtotal,
		Tax:              totals.Tax,
		DiscountAmount:   totals.Discount,
		Total:            totals.Total,
		PaymentMethod:    strings.TrimSpace(req.PaymentMethod),
		RequiresInvoice:  req.RequiresInvoice,
		DownPayment:      totals.Total,
		RemainingBalance: decimal.Zero,
		SellerID:         actor.ID,
		Status:           model.PrimaryStatus(req.initialStatuses()),
	}
	if totals.Discount.IsPositive() {
		order.DiscountReason = trimmedOrNil(req.DiscountReason)
	}
	if req.Layaway != nil {
		down := req.Layaway.DownPayment.Round(2)
		order.IsLayaway = true
		order.DownPayment = down
		order.RemainingBalance = totals.Total.Sub(down)
	}
	if key != "" {
		order.IdempotencyKey = &key
	}
	req.applyCustomer(order, s.cfg.WalkInCustomerName)
	return order
}

func (s *saleService) logRejection(err error, attempts int) {
	fields := []zap.Field{zap.Int("attempts", attempts), zap.Error(err)}
	if opErr, ok := AsOpError(err); ok {
		fields = append(fields, zap.String("code", opErr.Code), zap.String("sku", opErr.SKU))
	}
	switch {
	case errors.Is(err, ErrTransientStore), errors.Is(err, ErrInvariantViolation):
		s.log.Error("sale failed", fields...)
	default:
		s.log.Info("sale rejected", fields...)
	}
}

// cartLine is the summed quantity for one SKU
type cartLine struct {
	SKU      string
	Quantity int
}

// aggregateCart sums repeated SKUs and sorts by code
func aggregateCart(items []CartItem) []cartLine {
	totals := make(map[string]int, len(items))
	for _, item := range items {
		totals[strings.TrimSpace(item.SKU)] += item.Quantity
	}
	lines := make([]cartLine, 0, len(totals))
	for code, qty := range totals {
		lines = append(lines, cartLine{SKU: code, Quantity: qty})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].SKU < lines[j].SKU })
	return lines
}

func isRetryable(err error) bool {
	if _, ok := AsOpError(err); ok {
		return false
	}
	return isLockContention(err) || errors.Is(err, context.DeadlineExceeded)
}

func saleOutcome(err error) string {
	switch {
	case errors.Is(err, ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, ErrValidation), errors.Is(err, ErrNotFound):
		return "rejected"
	case errors.Is(err, ErrTransientStore):
		if opErr, ok := AsOpError(err); ok && opErr.Code == CodeLockTimeout {
			return "lock_timeout"
		}
		return "store_error"
	}
	return "error"
}

func saleMessage(order *model.Order) string {
	msg := fmt.Sprintf("Gracias por tu compra %s. Pedido %s por $%s.",
		customerName(order), shortID(order.ID), order.Total.StringFixed(2))
	if order.IsLayaway {
		msg += fmt.Sprintf(" Saldo pendiente: $%s.", order.RemainingBalance.StringFixed(2))
	}
	return msg
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
