package components

import (
	"fleetbook/internal/handler"
	"fleetbook/internal/handler/api"
	"fleetbook/internal/handler/middleware"

	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		api.NewAuthHandler,
		api.NewQuoteHandler,
		api.NewBookingHandler,
		api.NewGuestHandler,
		api.NewDepositHandler,
		middleware.NewAuthMiddleware,
	),
	fx.Invoke(handler.NewRouter),
)
