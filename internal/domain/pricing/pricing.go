// Package pricing computes order totals from basket lines. All computation is
// pure: the same lines, prices, and discount always produce the same totals.
package pricing

import "github.com/shopspring/decimal"

// TaxRate is the combined Quebec sales tax (TPS 5% + TVQ 9.975%) applied to
// the discounted subtotal.
var TaxRate = decimal.RequireFromString("0.14975")

// Line is a single basket entry for totals calculation.
type Line struct {
	ProductID string
	Quantity  int
}

// Totals holds the derived amounts for a basket. Values keep full precision;
// round only at presentation or wire boundaries.
type Totals struct {
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Taxes    decimal.Decimal
	Total    decimal.Decimal
}

// TotalCents returns the payable total in integer minor units, as required by
// the payment provider.
func (t Totals) TotalCents() int64 {
	return t.Total.Round(2).Mul(decimal.NewFromInt(100)).IntPart()
}

// Compute derives subtotal, discount, taxes, and total from the given lines.
// The discount is clamped to the subtotal so the payable amount is never
// negative. Lines whose product ID has no entry in prices are excluded from
// the totals and returned as the second value so the caller can surface a
// warning; they are never silently priced at zero.
func Compute(lines []Line, prices map[string]decimal.Decimal, discount decimal.Decimal) (Totals, []string) {
	subtotal := decimal.Zero
	var missing []string

	for _, line := range lines {
		price, ok := prices[line.ProductID]
		if !ok {
			missing = append(missing, line.ProductID)
			continue
		}
		if line.Quantity <= 0 {
			continue
		}
		subtotal = subtotal.Add(price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	if discount.IsNegative() {
		discount = decimal.Zero
	}
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}

	discounted := subtotal.Sub(discount)
	taxes := discounted.Mul(TaxRate)

	return Totals{
		Subtotal: subtotal,
		Discount: discount,
		Taxes:    taxes,
		Total:    discounted.Add(taxes),
	}, missing
}
