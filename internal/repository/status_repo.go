package repository

import (
	"context"
	"time"

	"go-pos-orders/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StatusRepository interface {
	FindActive(tx *gorm.DB, orderID uuid.UUID) ([]model.OrderStatusRecord, error)
	History(ctx context.Context, orderID uuid.UUID) ([]model.OrderStatusRecord, error)
	Insert(tx *gorm.DB, records []model.OrderStatusRecord) error
	Deactivate(tx *gorm.DB, ids []uuid.UUID, actor string, at time.Time) error
}

type statusRepo struct {
	db *gorm.DB
}

func NewStatusRepo(db *gorm.DB) StatusRepository {
	return &statusRepo{db}
}

func (r *statusRepo) FindActive(tx *gorm.DB, orderID uuid.UUID) ([]model.OrderStatusRecord, error) {
	var records []model.OrderStatusRecord
	err := tx.Where("order_id = ? AND active = ?", orderID, true).
		Order("created_at ASC").
		Find(&records).Error
	return records, err
}

func (r *statusRepo) History(ctx context.Context, orderID uuid.UUID) ([]model.OrderStatusRecord, error) {
	var records []model.OrderStatusRecord
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&records).Error
	return records, err
}

func (r *statusRepo) Insert(tx *gorm.DB, records []model.OrderStatusRecord) error {
	if len(records) == 0 {
		return nil
	}
	return tx.Create(&records).Error
}

// Deactivate flips the active flag and stamps who closed the record; the row itself is kept
func (r *statusRepo) Deactivate(tx *gorm.DB, ids []uuid.UUID, actor string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return tx.Model(&model.OrderStatusRecord{}).
		Where("id IN ? AND active = ?", ids, true).
		Updates(map[string]interface{}{
			"active":         false,
			"deactivated_at": at,
			"deactivated_by": actor,
		}).Error
}
