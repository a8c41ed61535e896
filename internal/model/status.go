package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderStatus is one value of the fixed status vocabulary
type OrderStatus string

const (
	StatusPendingPayment    OrderStatus = "PENDING_PAYMENT"
	StatusPendingEmbroidery OrderStatus = "PENDING_EMBROIDERY"
	StatusPendingSupplier   OrderStatus = "PENDING_SUPPLIER"
	StatusReadyForPickup    OrderStatus = "READY_FOR_PICKUP"
	StatusDelivered         OrderStatus = "DELIVERED"
	StatusCompleted         OrderStatus = "COMPLETED"
	StatusLayaway           OrderStatus = "LAYAWAY"
)

// AllStatuses lists the vocabulary in declaration order, which is also the fallback tie-break order
var AllStatuses = []OrderStatus{
	StatusPendingPayment,
	StatusPendingEmbroidery,
	StatusPendingSupplier,
	StatusReadyForPickup,
	StatusDelivered,
	StatusCompleted,
	StatusLayaway,
}

// primaryPriority is consulted first when reducing an active set to a single value
var primaryPriority = []OrderStatus{
	StatusCompleted,
	StatusReadyForPickup,
	StatusPendingEmbroidery,
	StatusPendingSupplier,
	StatusPendingPayment,
}

// IsValid reports whether s belongs to the vocabulary
func (s OrderStatus) IsValid() bool {
	for _, v := range AllStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// PrimaryStatus reduces an active set to the single value legacy consumers read.
// Returns "" for an empty set.
func PrimaryStatus(active []OrderStatus) OrderStatus {
	set := make(map[OrderStatus]bool, len(active))
	for _, s := range active {
		set[s] = true
	}
	for _, s := range primaryPriority {
		if set[s] {
			return s
		}
	}
	for _, s := range AllStatuses {
		if set[s] {
			return s
		}
	}
	return ""
}

// NormalizeStatuses removes duplicates and orders the set by vocabulary order
func NormalizeStatuses(statuses []OrderStatus) []OrderStatus {
	set := make(map[OrderStatus]bool, len(statuses))
	for _, s := range statuses {
		set[s] = true
	}
	out := make([]OrderStatus, 0, len(set))
	for _, s := range AllStatuses {
		if set[s] {
			out = append(out, s)
		}
	}
	return out
}

// OrderStatusRecord is one activation of a status flag on an order.
// Records are deactivated, never deleted, so the table doubles as the audit trail.
type OrderStatusRecord struct {
	ID            uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID       uuid.UUID   `gorm:"type:uuid;not null;index:idx_status_order_active" json:"order_id"`
	Status        OrderStatus `gorm:"type:varchar(32);not null" json:"status"`
	Active        bool        `gorm:"not null;default:true;index:idx_status_order_active" json:"active"`
	Note          *string     `gorm:"type:text" json:"note,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	CreatedBy     string      `gorm:"type:varchar(255)" json:"created_by"`
	DeactivatedAt *time.Time  `json:"deactivated_at,omitempty"`
	DeactivatedBy *string     `gorm:"type:varchar(255)" json:"deactivated_by,omitempty"`
}

// TableName specifies the table name for GORM
func (OrderStatusRecord) TableName() string {
	return "order_status_records"
}

// BeforeCreate assigns the record id
func (r *OrderStatusRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
