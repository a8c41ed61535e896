package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InventoryRecord is one sellable unit (product + color + size) with its own stock count.
// Stock is never negative; it is decremented only inside a sale and never destroyed, only disabled.
type InventoryRecord struct {
	BaseModel
	Code      string          `gorm:"type:varchar(50);uniqueIndex;not null" json:"code" validate:"required,max=50"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id" validate:"uuid_required"`
	Color     string          `gorm:"type:varchar(50)" json:"color"`
	Size      string          `gorm:"type:varchar(20)" json:"size"`
	Stock     int             `gorm:"not null;default:0" json:"stock" validate:"gte=0"`
	Price     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price" validate:"decimal_gte0,decimal_cents"`
	Disabled  bool            `gorm:"not null;default:false" json:"disabled"`
	Barcode   *string         `gorm:"type:varchar(64);uniqueIndex" json:"barcode,omitempty" validate:"omitempty,max=64"`
}

// TableName specifies the table name for GORM
func (InventoryRecord) TableName() string {
	return "inventory_records"
}

// Available is derived on every read and never persisted
func (r *InventoryRecord) Available() bool {
	return r.Stock > 0 && !r.Disabled
}

// InventoryResponse adds the derived availability flag for API consumers
type InventoryResponse struct {
	InventoryRecord
	Available bool `json:"available"`
}

// ToResponse converts InventoryRecord to InventoryResponse
func (r *InventoryRecord) ToResponse() InventoryResponse {
	return InventoryResponse{InventoryRecord: *r, Available: r.Available()}
}
