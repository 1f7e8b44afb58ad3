package commands

import (
	"context"
	"errors"
	"time"

	"fleetbook/internal/domain/guestaccess"
	"fleetbook/internal/infra"
	"fleetbook/internal/pkg/clock"
	"fleetbook/internal/pkg/config"
	"fleetbook/internal/pkg/errs"
	"fleetbook/internal/pkg/jwt"
	"fleetbook/internal/usecase/notify"

	"github.com/google/uuid"
)

type GuestCommands interface {
	// IssueOTP generates a one-time code for the booking and sends it to the
	// booking's contact email. The code itself never leaves this method
	// except through that channel.
	IssueOTP(ctx context.Context, bookingID uuid.UUID, remoteAddr string) error
	// Verify consumes a code and mints a booking-scoped guest token.
	Verify(ctx context.Context, bookingID uuid.UUID, code, remoteAddr string) (*GuestSession, error)
}

type GuestSession struct {
	BookingID uuid.UUID
	Token     string
	ExpiresAt time.Time
}

type guestCommandsImpl struct {
	bookings   BookingRepository
	otps       OTPRepository
	limiter    RateLimiter
	jwtService *jwt.Service
	dispatcher *notify.Dispatcher
	cfg        config.OTPConfig
	clk        clock.Clock
}

func NewGuestCommands(
	bookings BookingRepository,
	otps OTPRepository,
	limiter RateLimiter,
	jwtService *jwt.Service,
	dispatcher *notify.Dispatcher,
	cfg config.OTPConfig,
	clk clock.Clock,
) GuestCommands {
	return &guestCommandsImpl{
		bookings:   bookings,
		otps:       otps,
		limiter:    limiter,
		jwtService: jwtService,
		dispatcher: dispatcher,
		cfg:        cfg,
		clk:        clk,
	}
}

func (g *guestCommandsImpl) IssueOTP(ctx context.Context, bookingID uuid.UUID, remoteAddr string) error {
	if err := g.checkLimits(ctx, "issue", bookingID, remoteAddr); err != nil {
		return err
	}

	entity, err := g.bookings.FindByID(ctx, bookingID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return errs.Mark(err, errs.ErrBookingNotFound)
		}
		return errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	code, err := guestaccess.GenerateCode()
	if err != nil {
		return errs.Wrap(err, "failed to generate code")
	}
	now := g.clk.Now()
	otp := guestaccess.NewOTP(bookingID, guestaccess.HashCode(g.cfg.Secret, bookingID, code), g.cfg.TTL, now)
	if err := g.otps.Insert(ctx, otp); err != nil {
		return errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	g.dispatcher.DispatchAsync(notify.Request{
		BookingID: bookingID,
		Template:  notify.TemplateOtpIssued,
		Email:     entity.Contact().Email(),
		Subject:   "Your access code for booking " + entity.Reference(),
		EmailBody: "Your access code is " + code + ". It expires in " +
			g.cfg.TTL.String() + " and can be used once.\n",
		Unique: true,
	})
	return nil
}

func (g *guestCommandsImpl) Verify(ctx context.Context, bookingID uuid.UUID, code, remoteAddr string) (*GuestSession, error) {
	if err := g.checkLimits(ctx, "verify", bookingID, remoteAddr); err != nil {
		return nil, err
	}

	now := g.clk.Now()
	candidateHash := guestaccess.HashCode(g.cfg.Secret, bookingID, code)

	otp, err := g.otps.FindNewestMatching(ctx, bookingID, candidateHash)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, g.recordMiss(ctx, bookingID, now)
		}
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	if err := otp.CheckUsable(now, g.cfg.MaxAttempts); err != nil {
		return nil, markOTPError(err)
	}

	consumed, err := g.otps.Consume(ctx, otp.ID(), now)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	if !consumed {
		// Lost the race to a concurrent verify; the code is spent.
		return nil, errs.Mark(errs.New("code already used"), errs.ErrOtpInvalid)
	}

	token, expiresAt, err := g.jwtService.GenerateGuestToken(bookingID)
	if err != nil {
		return nil, errs.Wrap(err, "failed to mint guest token")
	}
	return &GuestSession{BookingID: bookingID, Token: token, ExpiresAt: expiresAt}, nil
}

// recordMiss charges a failed attempt against the newest live code so wrong
// guesses burn the attempt budget even though they match no row.
func (g *guestCommandsImpl) recordMiss(ctx context.Context, bookingID uuid.UUID, now time.Time) error {
	active, err := g.otps.FindNewestActive(ctx, bookingID, now)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return errs.Mark(errs.New("no matching code"), errs.ErrOtpInvalid)
		}
		return errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	if err := g.otps.IncrementAttempts(ctx, active.ID()); err != nil {
		return errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	if active.Attempts()+1 >= g.cfg.MaxAttempts {
		return errs.Mark(errs.New("code attempts exhausted"), errs.ErrOtpExhausted)
	}
	return errs.Mark(errs.New("no matching code"), errs.ErrOtpInvalid)
}

func (g *guestCommandsImpl) checkLimits(ctx context.Context, action string, bookingID uuid.UUID, remoteAddr string) error {
	allowed, err := g.limiter.Allow(ctx, "otp:"+action+":booking:"+bookingID.String(), g.cfg.RateLimitPerKey, g.cfg.RateLimitWindow)
	if err != nil {
		// Fail closed: an unreachable limiter must not disable the brakes.
		return errs.Mark(errs.Wrap(err, "rate limiter unavailable"), errs.ErrOtpRateLimited)
	}
	if !allowed {
		return errs.Mark(errs.New("too many requests for booking"), errs.ErrOtpRateLimited)
	}

	if remoteAddr != "" {
		allowed, err = g.limiter.Allow(ctx, "otp:"+action+":addr:"+remoteAddr, g.cfg.RateLimitPerAddr, g.cfg.RateLimitWindow)
		if err != nil {
			return errs.Mark(errs.Wrap(err, "rate limiter unavailable"), errs.ErrOtpRateLimited)
		}
		if !allowed {
			return errs.Mark(errs.New("too many requests from address"), errs.ErrOtpRateLimited)
		}
	}
	return nil
}

func markOTPError(err error) error {
	switch {
	case errors.Is(err, guestaccess.ErrCodeExpired):
		return errs.Mark(err, errs.ErrOtpExpired)
	case errors.Is(err, guestaccess.ErrCodeExhausted):
		return errs.Mark(err, errs.ErrOtpExhausted)
	default:
		return errs.Mark(err, errs.ErrOtpInvalid)
	}
}
