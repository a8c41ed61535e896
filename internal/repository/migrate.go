package repository

import (
	"go-pos-orders/internal/model"

	"gorm.io/gorm"
)

// AutoMigrate creates or updates every table the engine owns
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.InventoryRecord{},
		&model.Order{},
		&model.OrderItem{},
		&model.OrderStatusRecord{},
	)
}
