package repository

import (
	"context"

	"go-pos-orders/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderRepository interface {
	Create(tx *gorm.DB, order *model.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*model.Order, error)
	FindAll(ctx context.Context, filter OrderFilter) ([]model.Order, error)

	// LockByID reads the order row with FOR UPDATE so status and payment changes on one
	// order serialize for the rest of tx.
	LockByID(tx *gorm.DB, id uuid.UUID) (*model.Order, error)
	UpdatePrimaryStatus(tx *gorm.DB, id uuid.UUID, status model.OrderStatus, updatedBy string) error
	SettleBalance(tx *gorm.DB, id uuid.UUID, downPayment decimal.Decimal, updatedBy string) error

	GetReport(ctx context.Context) (*OrderReport, error)
}

// OrderFilter narrows order listings
type OrderFilter struct {
	Status      model.OrderStatus
	LayawayOnly bool
	Limit       int
}

// StatusCount is one row of the primary status breakdown
type StatusCount struct {
	Status model.OrderStatus `json:"status"`
	Count  int64             `json:"count"`
}

// OrderReport summarizes orders for the back office
type OrderReport struct {
	ByStatus              []StatusCount   `json:"by_status"`
	TotalOrders           int64           `json:"total_orders"`
	OpenLayawayOrders     int64           `json:"open_layaway_orders"`
	OutstandingLayaway    decimal.Decimal `json:"outstanding_layaway"`
	UndeliveredOrderItems int64           `json:"undelivered_order_items"`
}

type orderRepo struct {
	db *gorm.DB
}

func NewOrderRepo(db *gorm.DB) OrderRepository {
	return &orderRepo{db}
}

func (r *orderRepo) Create(tx *gorm.DB, order *model.Order) error {
	// Items and status records are inserted by their own repositories inside the same tx
	return tx.Omit(clause.Associations).Create(order).Error
}

func (r *orderRepo) preloaded(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, sku_code ASC") }).
		Preload("Statuses", "active = ?", true)
}

func (r *orderRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var order model.Order
	if err := r.preloaded(r.db.WithContext(ctx)).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepo) FindByIdempotencyKey(ctx context.Context, key string) (*model.Order, error) {
	var order model.Order
	if err := r.preloaded(r.db.WithContext(ctx)).First(&order, "idempotency_key = ?", key).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepo) FindAll(ctx context.Context, filter OrderFilter) ([]model.Order, error) {
	var orders []model.Order
	query := r.preloaded(r.db.WithContext(ctx)).Order("created_at DESC")
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.LayawayOnly {
		query = query.Where("is_layaway = ?", true)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	err := query.Find(&orders).Error
	return orders, err
}

func (r *orderRepo) LockByID(tx *gorm.DB, id uuid.UUID) (*model.Order, error) {
	var order model.Order
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepo) UpdatePrimaryStatus(tx *gorm.DB, id uuid.UUID, status model.OrderStatus, updatedBy string) error {
	return tx.Model(&model.Order{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_by": updatedBy,
		}).Error
}

func (r *orderRepo) SettleBalance(tx *gorm.DB, id uuid.UUID, downPayment decimal.Decimal, updatedBy string) error {
	return tx.Model(&model.Order{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"down_payment":      downPayment,
			"remaining_balance": decimal.Zero,
			"updated_by":        updatedBy,
		}).Error
}

func (r *orderRepo) GetReport(ctx context.Context) (*OrderReport, error) {
	var report OrderReport
	db := r.db.WithContext(ctx)

	if err := db.Model(&model.Order{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Order("status ASC").
		Scan(&report.ByStatus).Error; err != nil {
		return nil, err
	}
	for _, sc := range report.ByStatus {
		report.TotalOrders += sc.Count
	}

	open := db.Model(&model.Order{}).Where("is_layaway = ? AND remaining_balance > ?", true, 0)
	if err := open.Count(&report.OpenLayawayOrders).Error; err != nil {
		return nil, err
	}

	var outstanding struct {
		Total decimal.Decimal
	}
	if err := db.Model(&model.Order{}).
		Where("is_layaway = ? AND remaining_balance > ?", true, 0).
		Select("COALESCE(SUM(remaining_balance), 0) AS total").
		Scan(&outstanding).Error; err != nil {
		return nil, err
	}
	report.OutstandingLayaway = outstanding.Total

	if err := db.Model(&model.OrderItem{}).Where("delivered = ?", false).
		Count(&report.UndeliveredOrderItems).Error; err != nil {
		return nil, err
	}

	return &report, nil
}
