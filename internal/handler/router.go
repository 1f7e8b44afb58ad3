package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fleetbook/internal/handler/api"
	"fleetbook/internal/handler/middleware"
	"fleetbook/internal/pkg/config"
)

type route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
	Mw      []gin.HandlerFunc
}

func NewRouter(
	engine *gin.Engine,
	cfg config.Config,
	authHandler *api.AuthHandler,
	quoteHandler *api.QuoteHandler,
	bookingHandler *api.BookingHandler,
	guestHandler *api.GuestHandler,
	depositHandler *api.DepositHandler,
	authMiddleware *middleware.AuthMiddleware,
) {
	setupMiddleware(engine, cfg)
	setupRoutes(engine, authHandler, quoteHandler, bookingHandler, guestHandler, depositHandler, authMiddleware)
}

func setupMiddleware(engine *gin.Engine, cfg config.Config) {
	// Recovery must be first (outermost) to catch panics from all other middleware
	engine.Use(middleware.CustomRecovery())
	engine.Use(middleware.NewCORSMiddleware(cfg.CORS))
	engine.Use(middleware.LoggingMiddleware(nil, cfg.Log))
	engine.Use(middleware.ErrorHandler())
}

func setupRoutes(
	engine *gin.Engine,
	authHandler *api.AuthHandler,
	quoteHandler *api.QuoteHandler,
	bookingHandler *api.BookingHandler,
	guestHandler *api.GuestHandler,
	depositHandler *api.DepositHandler,
	authMiddleware *middleware.AuthMiddleware,
) {
	engine.GET("/health", healthCheck)

	apiGroup := engine.Group("/api")
	{
		auth := apiGroup.Group("/auth")
		{
			addRoutes(auth, []route{
				{Method: http.MethodPost, Path: "/login", Handler: authHandler.Login},
			})
		}

		quotes := apiGroup.Group("/quotes")
		{
			addRoutes(quotes, []route{
				{Method: http.MethodPost, Path: "", Handler: quoteHandler.Quote},
				{Method: http.MethodPost, Path: "/validate", Handler: quoteHandler.ValidatePrice},
			})
		}

		bookings := apiGroup.Group("/bookings")
		{
			// Checkout works with or without a session; a logged-in
			// customer gets ownership, a guest verifies later by code.
			create := bookings.Group("")
			create.Use(authMiddleware.OptionalAuth())
			addRoutes(create, []route{
				{Method: http.MethodPost, Path: "", Handler: bookingHandler.CreateBooking},
			})

			read := bookings.Group("")
			read.Use(authMiddleware.AllowGuestToken())
			addRoutes(read, []route{
				{Method: http.MethodGet, Path: "/:id", Handler: bookingHandler.GetBooking},
			})

			// Code issuance is unauthenticated; possession of the emailed
			// code is the credential.
			addRoutes(bookings, []route{
				{Method: http.MethodPost, Path: "/:id/otp", Handler: guestHandler.IssueOTP},
			})

			staff := bookings.Group("")
			staff.Use(authMiddleware.RequireAuth(), authMiddleware.RequireStaff())
			addRoutes(staff, []route{
				{Method: http.MethodPatch, Path: "/:id/dates", Handler: bookingHandler.ChangeDates},
				{Method: http.MethodPatch, Path: "/:id/status", Handler: bookingHandler.ChangeStatus},
				{Method: http.MethodPost, Path: "/:id/add-ons", Handler: bookingHandler.AddAddOn},
				{Method: http.MethodDelete, Path: "/:id/add-ons/:addOnId", Handler: bookingHandler.RemoveAddOn},
				{Method: http.MethodPost, Path: "/:id/deposit/authorize", Handler: depositHandler.Authorize},
				{Method: http.MethodPost, Path: "/:id/deposit/capture", Handler: depositHandler.Capture},
				{Method: http.MethodPost, Path: "/:id/deposit/release", Handler: depositHandler.Release},
				{Method: http.MethodGet, Path: "/:id/deposit/ledger", Handler: depositHandler.GetLedger},
			})
		}

		guest := apiGroup.Group("/guest")
		{
			addRoutes(guest, []route{
				{Method: http.MethodPost, Path: "/verify", Handler: guestHandler.Verify},
			})
		}
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Service is healthy",
	})
}

func addRoutes(g *gin.RouterGroup, rs []route) {
	for _, r := range rs {
		h := r.Handler
		if len(r.Mw) > 0 {
			h = chainHandlers(append(r.Mw, r.Handler)...)
		}
		switch r.Method {
		case http.MethodGet:
			g.GET(r.Path, h)
		case http.MethodPost:
			g.POST(r.Path, h)
		case http.MethodPut:
			g.PUT(r.Path, h)
		case http.MethodPatch:
			g.PATCH(r.Path, h)
		case http.MethodDelete:
			g.DELETE(r.Path, h)
		default:
			g.Any(r.Path, h)
		}
	}
}

func chainHandlers(hs ...gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, h := range hs {
			h(c)
			if c.IsAborted() {
				return
			}
		}
	}
}
