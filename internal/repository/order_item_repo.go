package repository

import (
	"go-pos-orders/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrderItemRepository interface {
	CreateBatch(tx *gorm.DB, items []model.OrderItem) error
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.OrderItem, error)
	FindByOrderTx(tx *gorm.DB, orderID uuid.UUID) ([]model.OrderItem, error)
	SetDelivered(tx *gorm.DB, id uuid.UUID, delivered bool, updatedBy string) (int64, error)
	SetDeliveredForOrder(tx *gorm.DB, orderID uuid.UUID, delivered bool, updatedBy string) (int64, error)
}

type orderItemRepo struct {
	db *gorm.DB
}

func NewOrderItemRepo(db *gorm.DB) OrderItemRepository {
	return &orderItemRepo{db}
}

func (r *orderItemRepo) CreateBatch(tx *gorm.DB, items []model.OrderItem) error {
	return tx.Omit("InventoryRecord").Create(&items).Error
}

func (r *orderItemRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.OrderItem, error) {
	var item model.OrderItem
	if err := tx.First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *orderItemRepo) FindByOrderTx(tx *gorm.DB, orderID uuid.UUID) ([]model.OrderItem, error) {
	var items []model.OrderItem
	err := tx.Where("order_id = ?", orderID).Order("created_at ASC").Find(&items).Error
	return items, err
}

// SetDelivered writes the flag unconditionally, so repeating the call leaves the same state.
// Callers check existence first because RowsAffected is driver dependent for unchanged rows.
func (r *orderItemRepo) SetDelivered(tx *gorm.DB, id uuid.UUID, delivered bool, updatedBy string) (int64, error) {
	res := tx.Model(&model.OrderItem{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"delivered":  delivered,
			"updated_by": updatedBy,
		})
	return res.RowsAffected, res.Error
}

func (r *orderItemRepo) SetDeliveredForOrder(tx *gorm.DB, orderID uuid.UUID, delivered bool, updatedBy string) (int64, error) {
	res := tx.Model(&model.OrderItem{}).
		Where("order_id = ?", orderID).
		Updates(map[string]interface{}{
			"delivered":  delivered,
			"updated_by": updatedBy,
		})
	return res.RowsAffected, res.Error
}
