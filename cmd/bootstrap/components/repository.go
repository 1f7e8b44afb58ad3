package components

import (
	"fleetbook/internal/domain/pricing"
	"fleetbook/internal/infra/readstore"
	repo_impl "fleetbook/internal/infra/repository"
	"fleetbook/internal/usecase/commands"
	"fleetbook/internal/usecase/notify"
	"fleetbook/internal/usecase/queries"
	"fleetbook/internal/usecase/shared"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

var RepositoryModule = fx.Module("repository",
	fx.Provide(
		NewDBTX,
		NewTxBeginner,
		fx.Annotate(
			repo_impl.NewUserRepository,
			fx.As(new(commands.UserRepository)),
		),
		fx.Annotate(
			repo_impl.NewBookingRepository,
			fx.As(new(commands.BookingRepository)),
		),
		fx.Annotate(
			repo_impl.NewOTPRepository,
			fx.As(new(commands.OTPRepository)),
		),
		fx.Annotate(
			repo_impl.NewLedgerRepository,
			fx.As(new(commands.LedgerRepository)),
		),
		fx.Annotate(
			repo_impl.NewRateRepository,
			fx.As(new(pricing.RateSource)),
		),
		fx.Annotate(
			repo_impl.NewNotificationLogRepository,
			fx.As(new(notify.LogStore)),
		),
		// Read-side store for queries
		fx.Annotate(
			readstore.NewBookingReadStore,
			fx.As(new(queries.BookingReadStore)),
		),
	),
)

func NewDBTX(pool *pgxpool.Pool) repo_impl.DBTX {
	return pool
}

func NewTxBeginner(pool *pgxpool.Pool) shared.TxBeginner {
	return pool
}
