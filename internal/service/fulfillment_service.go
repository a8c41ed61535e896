package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-pos-orders/internal/metrics"
	"go-pos-orders/internal/repository"
	"go-pos-orders/internal/ws"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DeliveryChange is what a delivery toggle touched
type DeliveryChange struct {
	OrderID   uuid.UUID   `json:"order_id"`
	ItemIDs   []uuid.UUID `json:"item_ids"`
	Delivered bool        `json:"delivered"`
}

// FulfillmentService tracks per-item delivery. It never reads or writes order statuses.
type FulfillmentService interface {
	SetItemDelivered(ctx context.Context, itemID uuid.UUID, delivered bool, actor Actor) (*DeliveryChange, error)
	SetAllItemsDelivered(ctx context.Context, orderID uuid.UUID, delivered bool, actor Actor) (*DeliveryChange, error)
}

type fulfillmentService struct {
	orderRepo repository.OrderRepository
	itemRepo  repository.OrderItemRepository
	db        *gorm.DB
	effects   sideEffects
}

func NewFulfillmentService(oRepo repository.OrderRepository, iRepo repository.OrderItemRepository, db *gorm.DB, hub EventPublisher, m *metrics.Metrics) FulfillmentService {
	return &fulfillmentService{
		orderRepo: oRepo,
		itemRepo:  iRepo,
		db:        db,
		effects:   sideEffects{hub: hub, metrics: m},
	}
}

func (s *fulfillmentService) SetItemDelivered(ctx context.Context, itemID uuid.UUID, delivered bool, actor Actor) (*DeliveryChange, error) {
	var change *DeliveryChange

	defer s.effects.metrics.TrackDBOperation("item_delivery")(time.Now())
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := s.itemRepo.FindByIDTx(tx, itemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return newNotFoundError(CodeItemNotFound, "order item not found")
			}
			return err
		}
		if _, err := s.itemRepo.SetDelivered(tx, itemID, delivered, actor.ID); err != nil {
			return err
		}
		change = &DeliveryChange{OrderID: item.OrderID, ItemIDs: []uuid.UUID{itemID}, Delivered: delivered}
		return nil
	})
	if err != nil {
		return nil, classifyStoreError(err)
	}

	s.emit(change, "item", actor)
	return change, nil
}

func (s *fulfillmentService) SetAllItemsDelivered(ctx context.Context, orderID uuid.UUID, delivered bool, actor Actor) (*DeliveryChange, error) {
	var change *DeliveryChange

	defer s.effects.metrics.TrackDBOperation("order_delivery")(time.Now())
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.orderRepo.LockByID(tx, orderID); err != nil {
			return orderLookupError(err)
		}
		items, err := s.itemRepo.FindByOrderTx(tx, orderID)
		if err != nil {
			return err
		}
		if _, err := s.itemRepo.SetDeliveredForOrder(tx, orderID, delivered, actor.ID); err != nil {
			return err
		}
		change = &DeliveryChange{OrderID: orderID, ItemIDs: make([]uuid.UUID, 0, len(items)), Delivered: delivered}
		for _, item := range items {
			change.ItemIDs = append(change.ItemIDs, item.ID)
		}
		return nil
	})
	if err != nil {
		return nil, classifyStoreError(err)
	}

	s.emit(change, "order", actor)
	return change, nil
}

func (s *fulfillmentService) emit(change *DeliveryChange, scope string, actor Actor) {
	s.effects.metrics.RecordDeliveryUpdate(scope)

	verb := "delivered"
	if !change.Delivered {
		verb = "undelivered"
	}
	s.effects.publish(ws.Event{
		Type:    EventOrderUpdate,
		Action:  "item_delivery_changed",
		Data:    change,
		Actor:   actor.label(),
		Message: fmt.Sprintf("%s marked %d item(s) of order %s as %s", actor.label(), len(change.ItemIDs), change.OrderID, verb),
	})
}
