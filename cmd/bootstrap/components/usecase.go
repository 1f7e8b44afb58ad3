package components

import (
	"context"

	"fleetbook/internal/domain/pricing"
	"fleetbook/internal/pkg/clock"
	"fleetbook/internal/pkg/config"
	"fleetbook/internal/pkg/jwt"
	"fleetbook/internal/usecase/commands"
	"fleetbook/internal/usecase/notify"
	"fleetbook/internal/usecase/queries"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	usecaseBaseOption,
	usecaseNotifyModule,
	usecaseCommandsModule,
	usecaseQueriesModule,
)

var usecaseBaseOption = fx.Provide(
	clock.NewRealClock,
	func(rates pricing.RateSource, cfg config.Config) *pricing.Engine {
		return pricing.NewEngine(rates, cfg.Pricing)
	},
)

var usecaseNotifyModule = fx.Module("usecase/notify",
	fx.Provide(
		NewDispatcher,
	),
)

var usecaseCommandsModule = fx.Module("usecase/commands",
	fx.Provide(
		func(users commands.UserRepository, jwtService *jwt.Service, cfg config.Config) commands.AuthCommands {
			return commands.NewAuthCommands(users, jwtService, cfg.JWT.Duration)
		},
		commands.NewQuoteCommands,
		commands.NewBookingCommands,
		commands.NewDepositCommands,
		func(
			bookings commands.BookingRepository,
			otps commands.OTPRepository,
			limiter commands.RateLimiter,
			jwtService *jwt.Service,
			dispatcher *notify.Dispatcher,
			cfg config.Config,
			clk clock.Clock,
		) commands.GuestCommands {
			return commands.NewGuestCommands(bookings, otps, limiter, jwtService, dispatcher, cfg.OTP, clk)
		},
	),
)

var usecaseQueriesModule = fx.Module("usecase/queries",
	fx.Provide(
		queries.NewBookingQueries,
	),
)

func NewDispatcher(lc fx.Lifecycle, email notify.EmailSender, sms notify.SMSSender, log notify.LogStore, clk clock.Clock) *notify.Dispatcher {
	dispatcher := notify.NewDispatcher(email, sms, log, clk)

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return dispatcher.Shutdown(ctx)
		},
	})

	return dispatcher
}
