package coupon

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Apply computes the discount for the given rule against a cart subtotal and
// item count. Eligibility failures are returned as typed errors so callers
// can show the specific reason.
func Apply(rule *Rule, cartTotal decimal.Decimal, itemCount int) (*Applied, error) {
	if cartTotal.LessThan(rule.MinPurchase) {
		return nil, &BelowMinimumError{Required: rule.MinPurchase}
	}
	if rule.MinItems > 0 && itemCount < rule.MinItems {
		return nil, &BelowMinItemsError{Required: rule.MinItems}
	}

	var amount decimal.Decimal
	var description string

	switch rule.Type {
	case TypePercentage:
		amount = cartTotal.Mul(rule.Value).Div(hundred)
		if rule.MaxDiscount != nil && amount.GreaterThan(*rule.MaxDiscount) {
			amount = *rule.MaxDiscount
		}
		description = rule.Value.String() + "% off"
	case TypeFixedAmount:
		amount = decimal.Min(rule.Value, cartTotal)
		description = "$" + rule.Value.StringFixed(2) + " off"
	default:
		return nil, &UnsupportedTypeError{Type: rule.Type}
	}

	// The discount never exceeds what the customer would pay.
	if amount.GreaterThan(cartTotal) {
		amount = cartTotal
	}
	if amount.IsNegative() {
		amount = decimal.Zero
	}

	return &Applied{
		CouponID:    rule.ID,
		Code:        rule.Code,
		Type:        rule.Type,
		Value:       rule.Value,
		Amount:      amount.Round(2),
		Description: description,
	}, nil
}
