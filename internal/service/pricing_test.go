package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeTotals(t *testing.T) {
	rate := decimal.RequireFromString("0.16")

	tests := []struct {
		name     string
		items    []CartItem
		invoice  bool
		final    *decimal.Decimal
		subtotal string
		tax      string
		discount string
		total    string
	}{
		{"plain", cart(line("S1", 2, "10.00")), false, nil, "20.00", "0.00", "0.00", "20.00"},
		{"invoice adds tax", cart(line("S1", 1, "99.99")), true, nil, "99.99", "16.00", "0.00", "115.99"},
		{"discount derived from final total", cart(line("S1", 3, "50")), false, decPtr("120"), "150.00", "0.00", "30.00", "120.00"},
		{"final equals gross", cart(line("S1", 1, "100")), true, decPtr("116"), "100.00", "16.00", "0.00", "116.00"},
		{"free", cart(line("S1", 1, "100")), false, decPtr("0"), "100.00", "0.00", "100.00", "0.00"},
		{"several lines", cart(line("A", 1, "12.50"), line("B", 4, "3.25")), false, nil, "25.50", "0.00", "0.00", "25.50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeTotals(tt.items, tt.invoice, rate, tt.final)
			require.NoError(t, err)
			assert.Equal(t, tt.subtotal, got.Subtotal.StringFixed(2))
			assert.Equal(t, tt.tax, got.Tax.StringFixed(2))
			assert.Equal(t, tt.discount, got.Discount.StringFixed(2))
			assert.Equal(t, tt.total, got.Total.StringFixed(2))
			assert.True(t, got.Total.Equal(got.Subtotal.Add(got.Tax).Sub(got.Discount)))
		})
	}
}

func TestComputeTotals_RejectsFinalTotalOutOfRange(t *testing.T) {
	rate := decimal.RequireFromString("0.16")

	_, err := ComputeTotals(cart(line("S1", 1, "100")), true, rate, decPtr("116.01"))
	requireOpError(t, err, ErrValidation, CodeInvalidFinalTotal)

	_, err = ComputeTotals(cart(line("S1", 1, "100")), false, rate, decPtr("-0.01"))
	requireOpError(t, err, ErrValidation, CodeInvalidFinalTotal)
}
