package payment

import (
	"context"

	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Sandbox approves every capture without contacting a provider. It is wired
// when no Stripe secret key is configured, which covers local development and
// the integration environment.
type Sandbox struct{}

var _ Provider = Sandbox{}

// Capture logs the charge and returns a synthetic payment ID.
func (Sandbox) Capture(ctx context.Context, c Charge) (string, error) {
	id := "sandbox_" + uuid.New().String()
	zctx.From(ctx).Info("Sandbox capture",
		zap.Int64("amount_cents", c.AmountCents),
		zap.String("currency", c.Currency),
		zap.String("payment_id", id),
	)
	return id, nil
}
