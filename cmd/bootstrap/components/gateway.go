package components

import (
	"context"

	infranotify "fleetbook/internal/infra/notify"
	"fleetbook/internal/infra/payment"
	"fleetbook/internal/infra/ratelimit"
	"fleetbook/internal/pkg/config"
	"fleetbook/internal/usecase/commands"
	"fleetbook/internal/usecase/notify"

	"go.uber.org/fx"
)

var GatewayModule = fx.Module("gateway",
	fx.Provide(
		NewPaymentGateway,
		NewEmailChannel,
		NewSMSChannel,
		fx.Annotate(
			ratelimit.NewRedisLimiter,
			fx.As(new(commands.RateLimiter)),
		),
	),
)

func NewPaymentGateway(cfg config.Config) commands.PaymentGateway {
	return payment.NewStripeGateway(cfg.Stripe)
}

func NewEmailChannel(cfg config.Config) (notify.EmailSender, error) {
	return infranotify.NewEmailSender(cfg.SMTP)
}

func NewSMSChannel(cfg config.Config) (notify.SMSSender, error) {
	return infranotify.NewSMSSender(context.Background(), cfg.SNS)
}
