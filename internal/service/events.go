package service

import (
	"fmt"

	"go-pos-orders/internal/metrics"
	"go-pos-orders/internal/model"
	"go-pos-orders/internal/notify"
	"go-pos-orders/internal/ws"
)

// Actor identifies who performed an operation. ID is stored in audit columns, Name is used in messages.
type Actor struct {
	ID   string
	Name string
}

func (a Actor) label() string {
	if a.Name != "" {
		return a.Name
	}
	if a.ID != "" {
		return a.ID
	}
	return "system"
}

// EventPublisher is satisfied by *ws.Hub
type EventPublisher interface {
	Publish(event ws.Event)
}

// Notifier is satisfied by *notify.Dispatcher
type Notifier interface {
	Dispatch(msg notify.Message)
}

// Event types pushed to back-office clients
const (
	EventStockUpdate = "stock_update"
	EventOrderUpdate = "order_update"
)

// sideEffects bundles everything that runs after a commit. All fields may be nil.
type sideEffects struct {
	hub      EventPublisher
	notifier Notifier
	metrics  *metrics.Metrics
}

func (e sideEffects) publish(event ws.Event) {
	if e.hub == nil {
		return
	}
	e.hub.Publish(event)
}

func (e sideEffects) notify(msg notify.Message) {
	if e.notifier == nil || msg.To == "" {
		return
	}
	e.notifier.Dispatch(msg)
}

func (e sideEffects) stockChanged(record *model.InventoryRecord, action string, actor Actor) {
	e.metrics.SetStock(record.Code, record.Stock)
	e.publish(ws.Event{
		Type:   EventStockUpdate,
		Action: action,
		Data:   record.ToResponse(),
		Actor:  actor.label(),
		Message: fmt.Sprintf("%s: %s stock is now %d",
			actor.label(), record.Code, record.Stock),
	})
}

func customerPhone(order *model.Order) string {
	if order.CustomerPhone == nil {
		return ""
	}
	return *order.CustomerPhone
}

func customerName(order *model.Order) string {
	if order.CustomerName == nil {
		return ""
	}
	return *order.CustomerName
}
