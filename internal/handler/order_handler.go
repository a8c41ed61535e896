package handler

import (
	"strings"

	"go-pos-orders/internal/model"
	"go-pos-orders/internal/repository"
	"go-pos-orders/internal/service"
	"go-pos-orders/pkg/validator"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type OrderHandler struct {
	sales       service.SaleService
	queries     service.OrderQueryService
	statuses    service.StatusService
	fulfillment service.FulfillmentService
	layaway     service.LayawayService
}

func NewOrderHandler(
	sales service.SaleService,
	queries service.OrderQueryService,
	statuses service.StatusService,
	fulfillment service.FulfillmentService,
	layaway service.LayawayService,
) *OrderHandler {
	return &OrderHandler{
		sales:       sales,
		queries:     queries,
		statuses:    statuses,
		fulfillment: fulfillment,
		layaway:     layaway,
	}
}

type specialOrderRequest struct {
	IsSpecialOrder bool    `json:"is_special_order"`
	CustomerName   string  `json:"customer_name"`
	Phone          *string `json:"phone"`
	School         *string `json:"school"`
	Notes          *string `json:"notes"`
}

type layawayRequest struct {
	DownPayment decimal.Decimal `json:"down_payment"`
}

type createSaleRequest struct {
	Items           []service.CartItem   `json:"items"`
	PaymentMethod   string               `json:"payment_method"`
	RequiresInvoice bool                 `json:"requires_invoice"`
	FinalTotal      *decimal.Decimal     `json:"final_total"`
	DiscountReason  *string              `json:"discount_reason"`
	CustomerName    string               `json:"customer_name"`
	CustomerPhone   string               `json:"customer_phone"`
	SpecialOrder    *specialOrderRequest `json:"special_order"`
	Layaway         *layawayRequest      `json:"layaway"`
}

func (r *createSaleRequest) toSaleRequest(idempotencyKey string) service.SaleRequest {
	req := service.SaleRequest{
		Items:           r.Items,
		PaymentMethod:   r.PaymentMethod,
		RequiresInvoice: r.RequiresInvoice,
		FinalTotal:      r.FinalTotal,
		DiscountReason:  r.DiscountReason,
		Kind:            service.StandardSale{CustomerName: r.CustomerName, CustomerPhone: r.CustomerPhone},
		IdempotencyKey:  idempotencyKey,
	}
	if r.SpecialOrder != nil && r.SpecialOrder.IsSpecialOrder {
		req.Kind = service.SpecialOrder{
			CustomerName: r.SpecialOrder.CustomerName,
			Phone:        r.SpecialOrder.Phone,
			School:       r.SpecialOrder.School,
			Notes:        r.SpecialOrder.Notes,
		}
	}
	if r.Layaway != nil {
		req.Layaway = &service.LayawayTerms{DownPayment: r.Layaway.DownPayment}
	}
	return req
}

// CreateSale handles POST /sales. An Idempotency-Key header makes client retries safe.
func (h *OrderHandler) CreateSale(c *fiber.Ctx) error {
	var body createSaleRequest
	if err := c.BodyParser(&body); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	res, err := h.sales.ProcessSale(c.UserContext(), body.toSaleRequest(c.Get("Idempotency-Key")), actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}

	status := fiber.StatusCreated
	message := "Sale recorded"
	if res.Duplicate {
		status = fiber.StatusOK
		message = "Sale already recorded"
	}
	return c.Status(status).JSON(fiber.Map{
		"message":   message,
		"order_id":  res.OrderID,
		"duplicate": res.Duplicate,
		"data":      res.Order.ToResponse(),
	})
}

func (h *OrderHandler) GetOrders(c *fiber.Ctx) error {
	filter := repository.OrderFilter{
		Status:      model.OrderStatus(strings.ToUpper(c.Query("status"))),
		LayawayOnly: c.QueryBool("layaway", false),
		Limit:       c.QueryInt("limit", 100),
	}

	orders, err := h.queries.ListOrders(c.UserContext(), filter)
	if err != nil {
		return respondError(c, err)
	}

	data := make([]model.OrderResponse, 0, len(orders))
	for i := range orders {
		data = append(data, orders[i].ToResponse())
	}
	return c.JSON(data)
}

func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return nil
	}

	order, err := h.queries.GetOrder(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(order.ToResponse())
}

func (h *OrderHandler) GetStatusHistory(c *fiber.Ctx) error {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return nil
	}

	records, err := h.statuses.History(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(records)
}

type setStatusesRequest struct {
	Statuses []model.OrderStatus `json:"statuses" validate:"dive,order_status"`
	Note     *string             `json:"note"`
}

// SetStatuses replaces the whole active set
func (h *OrderHandler) SetStatuses(c *fiber.Ctx) error {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return nil
	}
	var body setStatusesRequest
	if err := c.BodyParser(&body); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	if errs := validator.ValidateStruct(body); len(errs) > 0 {
		return c.Status(400).JSON(fiber.Map{"error": errs[0].Error(), "code": service.CodeUnknownStatus})
	}

	change, err := h.statuses.SetActiveStatuses(c.UserContext(), id, body.Statuses, actorFrom(c), body.Note)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Statuses updated", "data": change})
}

type addStatusRequest struct {
	Status model.OrderStatus `json:"status" validate:"order_status"`
	Note   *string           `json:"note"`
}

func (h *OrderHandler) AddStatus(c *fiber.Ctx) error {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return nil
	}
	var body addStatusRequest
	if err := c.BodyParser(&body); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	if errs := validator.ValidateStruct(body); len(errs) > 0 {
		return c.Status(400).JSON(fiber.Map{"error": errs[0].Error(), "code": service.CodeUnknownStatus})
	}

	change, err := h.statuses.AddStatus(c.UserContext(), id, body.Status, actorFrom(c), body.Note)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Status added", "data": change})
}

func (h *OrderHandler) RemoveStatus(c *fiber.Ctx) error {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return nil
	}
	status := model.OrderStatus(strings.ToUpper(c.Params("status")))

	change, err := h.statuses.RemoveStatus(c.UserContext(), id, status, actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Status removed", "data": change})
}

type deliveredRequest struct {
	Delivered *bool `json:"delivered"`
}

// parseDelivered writes the 400 response itself when ok is false
func parseDelivered(c *fiber.Ctx) (delivered, ok bool) {
	var body deliveredRequest
	if err := c.BodyParser(&body); err != nil || body.Delivered == nil {
		_ = c.Status(400).JSON(fiber.Map{"error": "Body must be {\"delivered\": true|false}", "code": "invalid_delivered_flag"})
		return false, false
	}
	return *body.Delivered, true
}

func (h *OrderHandler) SetItemDelivered(c *fiber.Ctx) error {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return nil
	}
	delivered, ok := parseDelivered(c)
	if !ok {
		return nil
	}

	change, err := h.fulfillment.SetItemDelivered(c.UserContext(), id, delivered, actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Item delivery updated", "data": change})
}

func (h *OrderHandler) SetAllItemsDelivered(c *fiber.Ctx) error {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return nil
	}
	delivered, ok := parseDelivered(c)
	if !ok {
		return nil
	}

	change, err := h.fulfillment.SetAllItemsDelivered(c.UserContext(), id, delivered, actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Order delivery updated", "data": change})
}

func (h *OrderHandler) CompleteLayaway(c *fiber.Ctx) error {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return nil
	}

	res, err := h.layaway.CompleteLayawayPayment(c.UserContext(), id, actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Layaway settled", "data": res})
}
