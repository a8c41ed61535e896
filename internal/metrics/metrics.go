package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups every collector the service exports. A nil *Metrics is valid and records nothing.
type Metrics struct {
	HttpRequestsTotal   *prometheus.CounterVec
	HttpRequestDuration *prometheus.HistogramVec

	// Database operation metrics
	DbOperationDuration *prometheus.HistogramVec

	// Sale outcomes by result label (created, duplicate, insufficient_stock, lock_timeout, ...)
	SalesTotal   *prometheus.CounterVec
	SaleAttempts prometheus.Histogram

	StatusTransitions *prometheus.CounterVec
	DeliveryUpdates   *prometheus.CounterVec
	LayawayCompleted  prometheus.Counter

	NotificationsTotal *prometheus.CounterVec

	// Inventory metrics
	StockGauge *prometheus.GaugeVec
}

// New registers the collectors on reg using the configured metric prefix
func New(prefix string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HttpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HttpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + "_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		DbOperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + "_db_operation_duration_seconds",
				Help:    "Duration of database units of work in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation_type"},
		),
		SalesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_sales_total",
				Help: "Total number of processed sales by result",
			},
			[]string{"result"},
		),
		SaleAttempts: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    prefix + "_sale_attempts",
				Help:    "Transaction attempts needed per sale",
				Buckets: []float64{1, 2, 3, 5, 8},
			},
		),
		StatusTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_status_transitions_total",
				Help: "Total number of status activations and deactivations",
			},
			[]string{"status", "direction"},
		),
		DeliveryUpdates: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_delivery_updates_total",
				Help: "Total number of item delivery flag updates",
			},
			[]string{"scope"},
		),
		LayawayCompleted: factory.NewCounter(
			prometheus.CounterOpts{
				Name: prefix + "_layaway_completed_total",
				Help: "Total number of layaway orders paid in full",
			},
		),
		NotificationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_notifications_total",
				Help: "Total number of customer notifications by result",
			},
			[]string{"result"},
		),
		StockGauge: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: prefix + "_sku_stock",
				Help: "Current stock level per SKU",
			},
			[]string{"sku"},
		),
	}
}

// TrackDBOperation returns a function that records the duration of a unit of work
func (m *Metrics) TrackDBOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		if m == nil {
			return
		}
		m.DbOperationDuration.WithLabelValues(operationType).Observe(time.Since(startTime).Seconds())
	}
}

func (m *Metrics) RecordSale(result string, attempts int) {
	if m == nil {
		return
	}
	m.SalesTotal.WithLabelValues(result).Inc()
	if attempts > 0 {
		m.SaleAttempts.Observe(float64(attempts))
	}
}

func (m *Metrics) RecordStatusTransition(status, direction string) {
	if m == nil {
		return
	}
	m.StatusTransitions.WithLabelValues(status, direction).Inc()
}

func (m *Metrics) RecordDeliveryUpdate(scope string) {
	if m == nil {
		return
	}
	m.DeliveryUpdates.WithLabelValues(scope).Inc()
}

func (m *Metrics) RecordLayawayCompleted() {
	if m == nil {
		return
	}
	m.LayawayCompleted.Inc()
}

func (m *Metrics) RecordNotification(result string) {
	if m == nil {
		return
	}
	m.NotificationsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) SetStock(sku string, stock int) {
	if m == nil {
		return
	}
	m.StockGauge.WithLabelValues(sku).Set(float64(stock))
}

// Middleware adds prometheus metrics to track HTTP requests
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		if m == nil {
			return err
		}
		path := c.Route().Path
		status := strconv.Itoa(c.Response().StatusCode())
		m.HttpRequestsTotal.WithLabelValues(c.Method(), path, status).Inc()
		m.HttpRequestDuration.WithLabelValues(c.Method(), path, status).Observe(time.Since(start).Seconds())

		return err
	}
}
