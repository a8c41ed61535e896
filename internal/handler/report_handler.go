package handler

import (
	"go-pos-orders/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ReportHandler struct {
	service service.OrderQueryService
}

func NewReportHandler(s service.OrderQueryService) *ReportHandler {
	return &ReportHandler{service: s}
}

// GetOrderReport returns order counts by primary status and the open layaway balance
func (h *ReportHandler) GetOrderReport(c *fiber.Ctx) error {
	report, err := h.service.GetReport(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}
