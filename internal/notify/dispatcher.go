package notify

import (
	"context"
	"sync"
	"time"

	"go-pos-orders/internal/metrics"

	"go.uber.org/zap"
)

// Message is one outbound customer notification tied to an order
type Message struct {
	OrderID string
	Kind    string
	To      string
	Body    string
}

// Dispatcher sends messages in the background. Sends are attempted once: a failure is logged
// and counted but never retried and never reaches the request that triggered it.
type Dispatcher struct {
	gateway Gateway
	timeout time.Duration
	log     *zap.Logger
	metrics *metrics.Metrics
	wg      sync.WaitGroup
}

func NewDispatcher(gateway Gateway, timeout time.Duration, log *zap.Logger, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{
		gateway: gateway,
		timeout: timeout,
		log:     log.Named("notify"),
		metrics: m,
	}
}

// Dispatch must only be called after the order transaction committed
func (d *Dispatcher) Dispatch(msg Message) {
	if d == nil || msg.To == "" {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		if err := d.gateway.Send(ctx, msg.To, msg.Body); err != nil {
			d.log.Warn("notification failed",
				zap.String("order_id", msg.OrderID),
				zap.String("kind", msg.Kind),
				zap.Error(err),
			)
			d.metrics.RecordNotification("failed")
			return
		}
		d.metrics.RecordNotification("sent")
	}()
}

// Wait blocks until in-flight sends finish
func (d *Dispatcher) Wait() {
	if d == nil {
		return
	}
	d.wg.Wait()
}
