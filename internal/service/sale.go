package service

import (
	"strings"

	"go-pos-orders/internal/model"
	"go-pos-orders/pkg/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartItem is one line the point-of-sale client accumulated before checkout
type CartItem struct {
	SKU         string          `json:"sku" validate:"notblank,max=50"`
	Quantity    int             `json:"quantity" validate:"gte=1"`
	AgreedPrice decimal.Decimal `json:"agreed_price" validate:"decimal_gte0,decimal_cents"`
}

// SaleKind is either StandardSale or SpecialOrder
type SaleKind interface {
	saleKind()
}

// StandardSale is an immediate counter sale. Customer data is optional; a walk-in
// placeholder name is recorded when none is given.
type StandardSale struct {
	CustomerName  string
	CustomerPhone string
}

// SpecialOrder needs production work (embroidery) before it can be handed over.
// CustomerName is mandatory.
type SpecialOrder struct {
	CustomerName string
	Phone        *string
	School       *string
	Notes        *string
}

func (StandardSale) saleKind() {}
func (SpecialOrder) saleKind() {}

// LayawayTerms marks a sale paid partially at the counter
type LayawayTerms struct {
	DownPayment decimal.Decimal `validate:"decimal_gte0,decimal_cents"`
}

// SaleRequest is everything processSale needs; the cart itself never persists
type SaleRequest struct {
	Items           []CartItem `validate:"required,min=1,dive"`
	PaymentMethod   string     `validate:"notblank"`
	RequiresInvoice bool
	// FinalTotal, when set, is the amount the operator charged; the discount is derived from it
	FinalTotal     *decimal.Decimal
	DiscountReason *string
	Kind           SaleKind
	Layaway        *LayawayTerms
	IdempotencyKey string
}

// SaleResult is returned by ProcessSale
type SaleResult struct {
	OrderID uuid.UUID    `json:"order_id"`
	Order   *model.Order `json:"order"`
	// Duplicate is true when the idempotency key matched an earlier sale
	Duplicate bool `json:"duplicate"`
}

// validate checks the request shape before any store access
func (r *SaleRequest) validate() error {
	if errs := validator.ValidateStruct(r); len(errs) > 0 {
		return saleValidationError(errs[0])
	}
	if special, ok := r.Kind.(SpecialOrder); ok && strings.TrimSpace(special.CustomerName) == "" {
		return newValidationError(CodeCustomerNameRequired, "special orders require a customer name")
	}
	return nil
}

// saleValidationError maps the first failed field to its rejection code
func saleValidationError(e *validator.ErrorResponse) error {
	field := e.FailedField[strings.LastIndex(e.FailedField, ".")+1:]
	code := CodeInvalidCart
	switch field {
	case "Quantity":
		code = CodeInvalidQuantity
	case "PaymentMethod":
		code = CodeInvalidPaymentMethod
	case "DownPayment":
		code = CodeInvalidDownPayment
	}
	return newValidationError(code, e.Error())
}

// initialStatuses: special orders wait for embroidery, layaway adds LAYAWAY,
// and only a plain fully paid sale starts COMPLETED
func (r *SaleRequest) initialStatuses() []model.OrderStatus {
	var statuses []model.OrderStatus
	if _, ok := r.Kind.(SpecialOrder); ok {
		statuses = append(statuses, model.StatusPendingEmbroidery)
	}
	if r.Layaway != nil {
		statuses = append(statuses, model.StatusLayaway)
	}
	if len(statuses) == 0 {
		statuses = append(statuses, model.StatusCompleted)
	}
	return model.NormalizeStatuses(statuses)
}

// applyCustomer copies the variant data onto the order row
func (r *SaleRequest) applyCustomer(order *model.Order, walkInName string) {
	switch kind := r.Kind.(type) {
	case SpecialOrder:
		name := strings.TrimSpace(kind.CustomerName)
		order.IsSpecialOrder = true
		order.CustomerName = &name
		order.CustomerPhone = trimmedOrNil(kind.Phone)
		order.School = trimmedOrNil(kind.School)
		if kind.Notes != nil {
			order.Notes = strings.TrimSpace(*kind.Notes)
		}
	case StandardSale:
		name := strings.TrimSpace(kind.CustomerName)
		if name == "" {
			name = walkInName
		}
		order.CustomerName = &name
		phone := strings.TrimSpace(kind.CustomerPhone)
		order.CustomerPhone = trimmedOrNil(&phone)
	default:
		order.CustomerName = &walkInName
	}
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
