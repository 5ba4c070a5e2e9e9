package payment

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// StripeProvider implements Provider using Stripe PaymentIntents with
// immediate confirmation.
type StripeProvider struct {
	api *client.API
}

var _ Provider = (*StripeProvider)(nil)

// NewStripe creates a StripeProvider authenticated with the given secret key.
func NewStripe(secretKey string) *StripeProvider {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeProvider{api: api}
}

// Capture creates and confirms a PaymentIntent for the charge. Card errors
// come back as *DeclinedError with Stripe's user-facing message.
func (p *StripeProvider) Capture(ctx context.Context, c Charge) (string, error) {
	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(c.AmountCents),
		Currency:      stripe.String(c.Currency),
		PaymentMethod: stripe.String(c.PaymentMethodID),
		Confirm:       stripe.Bool(true),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String("never"),
		},
	}
	params.Context = ctx
	if c.Description != "" {
		params.Description = stripe.String(c.Description)
	}
	if c.ReceiptEmail != "" {
		params.ReceiptEmail = stripe.String(c.ReceiptEmail)
	}
	if c.IdempotencyKey != "" {
		params.SetIdempotencyKey(c.IdempotencyKey)
	}

	pi, err := p.api.PaymentIntents.New(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Type == stripe.ErrorTypeCard {
			return "", &DeclinedError{Message: stripeErr.Msg}
		}
		return "", errors.Wrap(err, "create payment intent")
	}

	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded, stripe.PaymentIntentStatusProcessing:
		return pi.ID, nil
	default:
		return "", &DeclinedError{Message: "payment could not be completed"}
	}
}
