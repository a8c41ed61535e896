package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrimaryStatus(t *testing.T) {
	tests := []struct {
		name   string
		active []OrderStatus
		want   OrderStatus
	}{
		{"empty", nil, ""},
		{"completed wins", []OrderStatus{StatusLayaway, StatusPendingPayment, StatusCompleted}, StatusCompleted},
		{"ready beats production", []OrderStatus{StatusPendingSupplier, StatusReadyForPickup}, StatusReadyForPickup},
		{"embroidery beats supplier", []OrderStatus{StatusPendingSupplier, StatusPendingEmbroidery}, StatusPendingEmbroidery},
		{"supplier beats payment", []OrderStatus{StatusPendingPayment, StatusPendingSupplier}, StatusPendingSupplier},
		{"payment beats layaway", []OrderStatus{StatusLayaway, StatusPendingPayment}, StatusPendingPayment},
		{"fallback uses vocabulary order", []OrderStatus{StatusLayaway, StatusDelivered}, StatusDelivered},
		{"single layaway", []OrderStatus{StatusLayaway}, StatusLayaway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PrimaryStatus(tt.active))
		})
	}
}

func TestPrimaryStatus_IgnoresInputOrder(t *testing.T) {
	a := []OrderStatus{StatusPendingEmbroidery, StatusLayaway, StatusPendingPayment}
	b := []OrderStatus{StatusPendingPayment, StatusPendingEmbroidery, StatusLayaway}
	assert.Equal(t, PrimaryStatus(a), PrimaryStatus(b))
}

func TestNormalizeStatuses(t *testing.T) {
	got := NormalizeStatuses([]OrderStatus{StatusLayaway, StatusPendingPayment, StatusLayaway, StatusCompleted})
	assert.Equal(t, []OrderStatus{StatusPendingPayment, StatusCompleted, StatusLayaway}, got)
	assert.Empty(t, NormalizeStatuses(nil))
}

func TestOrderStatusIsValid(t *testing.T) {
	for _, s := range AllStatuses {
		assert.True(t, s.IsValid(), s)
	}
	assert.False(t, OrderStatus("SHIPPED").IsValid())
	assert.False(t, OrderStatus("completed").IsValid())
}
