package handler

import (
	"go-pos-orders/internal/model"
	"go-pos-orders/internal/service"

	"github.com/gofiber/fiber/v2"
)

type InventoryHandler struct {
	service service.InventoryService
}

func NewInventoryHandler(s service.InventoryService) *InventoryHandler {
	return &InventoryHandler{service: s}
}

func (h *InventoryHandler) CreateRecord(c *fiber.Ctx) error {
	var record model.InventoryRecord
	if err := c.BodyParser(&record); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	if err := h.service.CreateRecord(c.UserContext(), &record, actorFrom(c)); err != nil {
		return respondError(c, err)
	}

	return c.Status(201).JSON(fiber.Map{"message": "SKU created", "data": record.ToResponse()})
}

func (h *InventoryHandler) GetRecords(c *fiber.Ctx) error {
	records, err := h.service.GetAllRecords(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}

	data := make([]model.InventoryResponse, 0, len(records))
	for i := range records {
		data = append(data, records[i].ToResponse())
	}
	return c.JSON(data)
}

func (h *InventoryHandler) GetRecord(c *fiber.Ctx) error {
	record, err := h.service.GetRecord(c.UserContext(), c.Params("code"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(record.ToResponse())
}

type restockRequest struct {
	Quantity int `json:"quantity"`
}

func (h *InventoryHandler) Restock(c *fiber.Ctx) error {
	var body restockRequest
	if err := c.BodyParser(&body); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	record, err := h.service.Restock(c.UserContext(), c.Params("code"), body.Quantity, actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Stock added", "data": record.ToResponse()})
}

type disabledRequest struct {
	Disabled *bool `json:"disabled"`
}

func (h *InventoryHandler) SetDisabled(c *fiber.Ctx) error {
	var body disabledRequest
	if err := c.BodyParser(&body); err != nil || body.Disabled == nil {
		return c.Status(400).JSON(fiber.Map{"error": "Body must be {\"disabled\": true|false}"})
	}

	record, err := h.service.SetDisabled(c.UserContext(), c.Params("code"), *body.Disabled, actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "SKU updated", "data": record.ToResponse()})
}
