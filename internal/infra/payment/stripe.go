package payment

import (
	"context"
	"time"

	"fleetbook/internal/pkg/config"
	"fleetbook/internal/pkg/errs"

	"github.com/stripe/stripe-go/v82"
)

// StripeGateway holds deposits as manual-capture payment intents. The hold
// reference stored on the booking is the payment intent id.
type StripeGateway struct {
	client  *stripe.Client
	timeout time.Duration
}

func NewStripeGateway(cfg config.StripeConfig) *StripeGateway {
	return &StripeGateway{
		client:  stripe.NewClient(cfg.SecretKey),
		timeout: cfg.RequestTimeout,
	}
}

func (g *StripeGateway) AuthorizeDeposit(ctx context.Context, amountCents int64, bookingRef string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	params := &stripe.PaymentIntentCreateParams{
		Amount:        stripe.Int64(amountCents),
		Currency:      stripe.String(string(stripe.CurrencyUSD)),
		CaptureMethod: stripe.String(string(stripe.PaymentIntentCaptureMethodManual)),
		Description:   stripe.String("Refundable deposit for booking " + bookingRef),
	}
	params.AddMetadata("booking_reference", bookingRef)

	pi, err := g.client.V1PaymentIntents.Create(ctx, params)
	if err != nil {
		return "", errs.Wrap(err, "stripe payment intent create failed")
	}
	return pi.ID, nil
}

func (g *StripeGateway) CaptureDeposit(ctx context.Context, externalRef string, amountCents int64) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	// Stripe releases the uncaptured remainder of a manual-capture intent
	// on partial capture; no separate call is needed for it.
	params := &stripe.PaymentIntentCaptureParams{
		AmountToCapture: stripe.Int64(amountCents),
	}
	if _, err := g.client.V1PaymentIntents.Capture(ctx, externalRef, params); err != nil {
		return errs.Wrap(err, "stripe payment intent capture failed")
	}
	return nil
}

func (g *StripeGateway) ReleaseDeposit(ctx context.Context, externalRef string) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	pi, err := g.client.V1PaymentIntents.Retrieve(ctx, externalRef, &stripe.PaymentIntentRetrieveParams{})
	if err != nil {
		return errs.Wrap(err, "stripe payment intent retrieve failed")
	}
	if pi.Status == stripe.PaymentIntentStatusCanceled {
		return nil
	}

	if _, err := g.client.V1PaymentIntents.Cancel(ctx, externalRef, &stripe.PaymentIntentCancelParams{}); err != nil {
		return errs.Wrap(err, "stripe payment intent cancel failed")
	}
	return nil
}
