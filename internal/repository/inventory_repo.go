package repository

import (
	"context"

	"go-pos-orders/internal/model"

	"gorm.io/gorm"
)

type InventoryRepository interface {
	Create(ctx context.Context, record *model.InventoryRecord) error
	FindAll(ctx context.Context) ([]model.InventoryRecord, error)
	FindByCode(ctx context.Context, code string) (*model.InventoryRecord, error)
	FindByCodeTx(tx *gorm.DB, code string) (*model.InventoryRecord, error)
	SetDisabled(ctx context.Context, code string, disabled bool, updatedBy string) (int64, error)

	// DecrementIfAvailable subtracts qty only when the row holds at least qty and is enabled.
	// The conditional UPDATE takes the row lock until tx ends, so concurrent sales serialize here.
	DecrementIfAvailable(tx *gorm.DB, code string, qty int, updatedBy string) (int64, error)
	Increment(tx *gorm.DB, code string, qty int, updatedBy string) (int64, error)
}

type inventoryRepo struct {
	db *gorm.DB
}

func NewInventoryRepo(db *gorm.DB) InventoryRepository {
	return &inventoryRepo{db}
}

func (r *inventoryRepo) Create(ctx context.Context, record *model.InventoryRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *inventoryRepo) FindAll(ctx context.Context) ([]model.InventoryRecord, error) {
	var records []model.InventoryRecord
	err := r.db.WithContext(ctx).Order("code ASC").Find(&records).Error
	return records, err
}

func (r *inventoryRepo) FindByCode(ctx context.Context, code string) (*model.InventoryRecord, error) {
	return r.FindByCodeTx(r.db.WithContext(ctx), code)
}

func (r *inventoryRepo) FindByCodeTx(tx *gorm.DB, code string) (*model.InventoryRecord, error) {
	var record model.InventoryRecord
	if err := tx.First(&record, "code = ?", code).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *inventoryRepo) SetDisabled(ctx context.Context, code string, disabled bool, updatedBy string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.InventoryRecord{}).
		Where("code = ?", code).
		Updates(map[string]interface{}{
			"disabled":   disabled,
			"updated_by": updatedBy,
		})
	return res.RowsAffected, res.Error
}

func (r *inventoryRepo) DecrementIfAvailable(tx *gorm.DB, code string, qty int, updatedBy string) (int64, error) {
	res := tx.Model(&model.InventoryRecord{}).
		Where("code = ? AND stock >= ? AND disabled = ?", code, qty, false).
		Updates(map[string]interface{}{
			"stock":      gorm.Expr("stock - ?", qty),
			"updated_by": updatedBy,
		})
	return res.RowsAffected, res.Error
}

func (r *inventoryRepo) Increment(tx *gorm.DB, code string, qty int, updatedBy string) (int64, error) {
	res := tx.Model(&model.InventoryRecord{}).
		Where("code = ?", code).
		Updates(map[string]interface{}{
			"stock":      gorm.Expr("stock + ?", qty),
			"updated_by": updatedBy,
		})
	return res.RowsAffected, res.Error
}
