package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment methods accepted at the counter
const (
	PaymentCash     = "Efectivo"
	PaymentCard     = "Tarjeta"
	PaymentTransfer = "Transferencia"
)

// Order is one sale. It is created together with its items, stock decrements and initial
// status records, and is never deleted; cancellation-like states live in the status set.
type Order struct {
	BaseModel
	Subtotal         decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"subtotal"`
	Tax              decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"tax"`
	DiscountAmount   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"discount_amount"`
	DiscountReason   *string         `gorm:"type:text" json:"discount_reason,omitempty"`
	Total            decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total"`
	PaymentMethod    string          `gorm:"type:varchar(32);not null" json:"payment_method"`
	RequiresInvoice  bool            `gorm:"not null;default:false" json:"requires_invoice"`
	CustomerName     *string         `gorm:"type:varchar(255)" json:"customer_name,omitempty"`
	CustomerPhone    *string         `gorm:"type:varchar(32)" json:"customer_phone,omitempty"`
	Notes            string          `gorm:"type:text" json:"notes"`
	School           *string         `gorm:"type:varchar(255)" json:"school,omitempty"`
	IsSpecialOrder   bool            `gorm:"not null;default:false" json:"is_special_order"`
	IsLayaway        bool            `gorm:"not null;default:false;index" json:"is_layaway"`
	DownPayment      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"down_payment"`
	RemainingBalance decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"remaining_balance"`
	SellerID         string          `gorm:"type:varchar(255);index" json:"seller_id"`
	IdempotencyKey   *string         `gorm:"type:varchar(128);uniqueIndex" json:"-"`

	// Status is the derived primary status, kept for consumers that cannot read the status set
	Status OrderStatus `gorm:"type:varchar(32);not null;index" json:"status"`

	Items    []OrderItem         `gorm:"foreignKey:OrderID" json:"items,omitempty"`
	Statuses []OrderStatusRecord `gorm:"foreignKey:OrderID" json:"statuses,omitempty"`
}

// TableName specifies the table name for GORM
func (Order) TableName() string {
	return "orders"
}

// ActiveStatuses returns the statuses of the loaded active records in vocabulary order
func (o *Order) ActiveStatuses() []OrderStatus {
	statuses := make([]OrderStatus, 0, len(o.Statuses))
	for _, r := range o.Statuses {
		if r.Active {
			statuses = append(statuses, r.Status)
		}
	}
	return NormalizeStatuses(statuses)
}

// OrderItem is one line of an order. Price is frozen at sale time; Delivered is the only
// field that changes afterwards.
type OrderItem struct {
	BaseModel
	OrderID           uuid.UUID        `gorm:"type:uuid;not null;index" json:"order_id"`
	InventoryRecordID uuid.UUID        `gorm:"type:uuid;not null;index" json:"inventory_record_id"`
	InventoryRecord   *InventoryRecord `gorm:"foreignKey:InventoryRecordID" json:"inventory_record,omitempty"`
	SKUCode           string           `gorm:"type:varchar(50);not null" json:"sku"`
	Quantity          int              `gorm:"not null" json:"quantity"`
	Price             decimal.Decimal  `gorm:"type:numeric(12,2);not null" json:"price"`
	Delivered         bool             `gorm:"not null;default:false" json:"delivered"`
}

// TableName specifies the table name for GORM
func (OrderItem) TableName() string {
	return "order_items"
}

// LineTotal is price times quantity
func (i *OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// OrderResponse is the API view of an order with its active status set spelled out
type OrderResponse struct {
	Order
	ActiveStatuses []OrderStatus `json:"active_statuses"`
}

// ToResponse converts Order to OrderResponse
func (o *Order) ToResponse() OrderResponse {
	return OrderResponse{Order: *o, ActiveStatuses: o.ActiveStatuses()}
}
