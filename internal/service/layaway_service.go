package service

import (
	"context"
	"fmt"
	"time"

	"go-pos-orders/internal/metrics"
	"go-pos-orders/internal/model"
	"go-pos-orders/internal/notify"
	"go-pos-orders/internal/repository"
	"go-pos-orders/internal/ws"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// LayawayResult is the settled order state
type LayawayResult struct {
	OrderID          uuid.UUID       `json:"order_id"`
	Total            decimal.Decimal `json:"total"`
	SettledAmount    decimal.Decimal `json:"settled_amount"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
	Status           *StatusChange   `json:"status"`
}

type LayawayService interface {
	// CompleteLayawayPayment settles the remaining balance and drops LAYAWAY from the active set.
	// Production statuses such as PENDING_EMBROIDERY survive; COMPLETED is activated only when
	// nothing else would remain.
	CompleteLayawayPayment(ctx context.Context, orderID uuid.UUID, actor Actor) (*LayawayResult, error)
}

type layawayService struct {
	orderRepo repository.OrderRepository
	engine    *statusEngine
	db        *gorm.DB
	effects   sideEffects
	log       *zap.Logger
}

func NewLayawayService(oRepo repository.OrderRepository, sRepo repository.StatusRepository, db *gorm.DB, hub EventPublisher, notifier Notifier, m *metrics.Metrics, log *zap.Logger) LayawayService {
	return &layawayService{
		orderRepo: oRepo,
		engine:    newStatusEngine(oRepo, sRepo, m),
		db:        db,
		effects:   sideEffects{hub: hub, notifier: notifier, metrics: m},
		log:       log.Named("layaway"),
	}
}

func (s *layawayService) CompleteLayawayPayment(ctx context.Context, orderID uuid.UUID, actor Actor) (*LayawayResult, error) {
	var (
		order  *model.Order
		result *LayawayResult
	)

	defer s.effects.metrics.TrackDBOperation("layaway_complete")(time.Now())
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = s.orderRepo.LockByID(tx, orderID)
		if err != nil {
			return orderLookupError(err)
		}
		if !order.IsLayaway {
			return newValidationError(CodeNotLayaway, "order is not a layaway sale")
		}
		if !order.RemainingBalance.IsPositive() {
			return newValidationError(CodeBalanceAlreadySettled, "layaway balance is already settled")
		}

		settled := order.RemainingBalance
		if err := s.orderRepo.SettleBalance(tx, orderID, order.Total, actor.ID); err != nil {
			return err
		}

		change, err := s.engine.remove(tx, orderID,
			[]model.OrderStatus{model.StatusLayaway, model.StatusPendingPayment},
			model.StatusCompleted, actor)
		if err != nil {
			return err
		}

		result = &LayawayResult{
			OrderID:          orderID,
			Total:            order.Total,
			SettledAmount:    settled,
			RemainingBalance: decimal.Zero,
			Status:           change,
		}
		return nil
	})
	if err != nil {
		return nil, classifyStoreError(err)
	}

	s.engine.record(result.Status)
	s.effects.metrics.RecordLayawayCompleted()
	s.effects.publish(ws.Event{
		Type:    EventOrderUpdate,
		Action:  "layaway_completed",
		Data:    result,
		Actor:   actor.label(),
		Message: fmt.Sprintf("%s settled layaway order %s", actor.label(), orderID),
	})
	s.effects.notify(notify.Message{
		OrderID: orderID.String(),
		Kind:    "layaway_completed",
		To:      customerPhone(order),
		Body: fmt.Sprintf("Hola %s, recibimos el pago final de tu apartado %s por $%s. ¡Gracias!",
			customerName(order), shortID(orderID), result.SettledAmount.StringFixed(2)),
	})

	s.log.Info("layaway settled",
		zap.String("order_id", orderID.String()),
		zap.String("settled", result.SettledAmount.StringFixed(2)),
		zap.String("status", string(result.Status.Primary)),
	)
	return result, nil
}
