// Package payment abstracts the card payment provider. Card details never
// pass through this service; the client tokenizes them and only the resulting
// payment method ID reaches the capture call.
package payment

import "context"

// Charge describes a single capture attempt in integer minor units.
type Charge struct {
	AmountCents     int64
	Currency        string
	PaymentMethodID string
	// IdempotencyKey guards against duplicate captures from client retries
	// or double-clicks. Optional.
	IdempotencyKey string
	Description    string
	ReceiptEmail   string
}

// DeclinedError carries the provider's rejection message, surfaced to the
// customer verbatim.
type DeclinedError struct {
	Message string
}

func (e *DeclinedError) Error() string {
	return e.Message
}

// Provider captures payments. Capture returns the provider's payment ID on
// success and *DeclinedError when the charge is rejected; any other error is
// an infrastructure failure.
type Provider interface {
	Capture(ctx context.Context, c Charge) (string, error)
}
