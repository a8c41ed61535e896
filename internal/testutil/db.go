// Package testutil builds throwaway stores for package tests
package testutil

import (
	"testing"

	"go-pos-orders/internal/model"
	"go-pos-orders/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a private in-memory SQLite database with the schema migrated.
// The pool is pinned to one connection: the database lives as long as that connection,
// and transactions serialize the way row locks would on a real server.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, repository.AutoMigrate(db))
	return db
}

// SeedSKU inserts an enabled inventory record
func SeedSKU(t testing.TB, db *gorm.DB, code string, stock int, price string) *model.InventoryRecord {
	t.Helper()

	record := &model.InventoryRecord{
		Code:      code,
		ProductID: uuid.New(),
		Color:     "Azul",
		Size:      "M",
		Stock:     stock,
		Price:     decimal.RequireFromString(price),
	}
	require.NoError(t, db.Create(record).Error)
	return record
}

// Stock reads the current stock of a SKU
func Stock(t testing.TB, db *gorm.DB, code string) int {
	t.Helper()

	var record model.InventoryRecord
	require.NoError(t, db.First(&record, "code = ?", code).Error)
	return record.Stock
}

// ActiveStatuses reads the active status set of an order in vocabulary order
func ActiveStatuses(t testing.TB, db *gorm.DB, orderID uuid.UUID) []model.OrderStatus {
	t.Helper()

	var records []model.OrderStatusRecord
	require.NoError(t, db.Where("order_id = ? AND active = ?", orderID, true).Find(&records).Error)
	statuses := make([]model.OrderStatus, 0, len(records))
	for _, r := range records {
		statuses = append(statuses, r.Status)
	}
	return model.NormalizeStatuses(statuses)
}

// Count returns the row count of a model's table
func Count(t testing.TB, db *gorm.DB, value interface{}) int64 {
	t.Helper()

	var n int64
	require.NoError(t, db.Model(value).Count(&n).Error)
	return n
}
