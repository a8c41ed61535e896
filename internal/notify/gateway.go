package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ErrRejected is returned when the gateway answered but refused the message
var ErrRejected = errors.New("notification rejected")

// Gateway delivers a text message to a customer address (phone number for SMS/WhatsApp style gateways)
type Gateway interface {
	Send(ctx context.Context, to, body string) error
}

// WebhookGateway posts {"to", "body"} as JSON to an HTTP endpoint
type WebhookGateway struct {
	URL     string
	Timeout time.Duration
}

func NewWebhookGateway(url string, timeout time.Duration) *WebhookGateway {
	return &WebhookGateway{URL: url, Timeout: timeout}
}

type webhookPayload struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

func (g *WebhookGateway) Send(ctx context.Context, to, body string) error {
	timeout := g.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout || timeout == 0 {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return context.DeadlineExceeded
	}

	agent := fiber.Post(g.URL)
	agent.JSON(webhookPayload{To: to, Body: body})
	agent.Timeout(timeout)

	code, resp, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("notification gateway unreachable: %w", errors.Join(errs...))
	}
	if code < 200 || code >= 300 {
		return fmt.Errorf("%w: status %d: %s", ErrRejected, code, string(resp))
	}
	return nil
}

// LogGateway only writes the message to the log; used when no webhook is configured
type LogGateway struct {
	Logger *zap.Logger
}

func NewLogGateway(l *zap.Logger) *LogGateway {
	return &LogGateway{Logger: l}
}

func (g *LogGateway) Send(_ context.Context, to, body string) error {
	g.Logger.Info("customer notification", zap.String("to", to), zap.String("body", body))
	return nil
}
