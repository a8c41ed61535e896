package handler

import (
	"errors"

	"go-pos-orders/internal/service"
	"go-pos-orders/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// actorFrom reads the user set by RequireAuth
func actorFrom(c *fiber.Ctx) service.Actor {
	actor := service.Actor{ID: "system", Name: "Unknown"}
	if id, ok := c.Locals("user_id").(string); ok && id != "" {
		actor.ID = id
	}
	if name, ok := c.Locals("user_name").(string); ok && name != "" {
		actor.Name = name
	}
	return actor
}

// parseUUIDParam writes the 400 response itself when ok is false
func parseUUIDParam(c *fiber.Ctx, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		_ = c.Status(400).JSON(fiber.Map{"error": "Invalid " + name, "code": "invalid_id"})
		return uuid.Nil, false
	}
	return id, true
}

// respondError maps the service error taxonomy onto HTTP statuses
func respondError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrValidation):
		status = fiber.StatusBadRequest
	case errors.Is(err, service.ErrInsufficientStock):
		status = fiber.StatusConflict
	case errors.Is(err, service.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		status = fiber.StatusConflict
	case errors.Is(err, service.ErrTransientStore):
		status = fiber.StatusServiceUnavailable
	}

	body := fiber.Map{"error": "Internal Server Error"}
	if opErr, ok := service.AsOpError(err); ok {
		body["code"] = opErr.Code
		if opErr.SKU != "" {
			body["sku"] = opErr.SKU
		}
		if status < 500 {
			body["error"] = opErr.Detail
			if opErr.Detail == "" {
				body["error"] = opErr.Code
			}
		}
	}
	if status == fiber.StatusServiceUnavailable {
		body["error"] = "Store temporarily unavailable, retry the request"
		body["retryable"] = true
	}

	if status >= 500 {
		logger.FromCtx(c).Error("request failed", zap.Int("status", status), zap.Error(err))
	}
	return c.Status(status).JSON(body)
}
