package service

import (
	"github.com/shopspring/decimal"
)

// Totals is the money breakdown recorded on an order
type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
}

// ComputeTotals prices a cart. Tax applies only when an invoice is requested. When the operator
// supplies finalTotal it becomes the recorded total and the discount is whatever separates it from
// subtotal+tax; it may not exceed subtotal+tax nor be negative.
func ComputeTotals(items []CartItem, requiresInvoice bool, taxRate decimal.Decimal, finalTotal *decimal.Decimal) (Totals, error) {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.AgreedPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	subtotal = subtotal.Round(2)

	tax := decimal.Zero
	if requiresInvoice {
		tax = subtotal.Mul(taxRate).Round(2)
	}
	gross := subtotal.Add(tax)

	totals := Totals{Subtotal: subtotal, Tax: tax, Discount: decimal.Zero, Total: gross}
	if finalTotal == nil {
		return totals, nil
	}

	final := finalTotal.Round(2)
	if final.IsNegative() || final.GreaterThan(gross) {
		return Totals{}, newValidationError(CodeInvalidFinalTotal,
			"final total must be between 0 and "+gross.StringFixed(2))
	}
	totals.Discount = gross.Sub(final)
	totals.Total = final
	return totals, nil
}
