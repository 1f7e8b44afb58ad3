package commands

import (
	"context"
	"time"

	"fleetbook/internal/domain/booking"
	"fleetbook/internal/domain/deposit"
	"fleetbook/internal/domain/guestaccess"
	"fleetbook/internal/domain/pricing"
	"fleetbook/internal/domain/user"
	"fleetbook/internal/infra/repository"

	"github.com/google/uuid"
)

type BookingRepository interface {
	Create(ctx context.Context, tx repository.DBTX, b *booking.Booking, now time.Time) error
	FindByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error)
	FindByIDForUpdate(ctx context.Context, tx repository.DBTX, id uuid.UUID) (*booking.Booking, error)
	HasOverlap(ctx context.Context, tx repository.DBTX, vehicleID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (bool, error)
	UpdatePricing(ctx context.Context, tx repository.DBTX, id uuid.UUID, start, end time.Time, b *pricing.Breakdown, now time.Time) error
	UpdateTotals(ctx context.Context, tx repository.DBTX, id uuid.UUID, subtotal, tax, total, depositCents int64, now time.Time) error
	UpdateStatus(ctx context.Context, tx repository.DBTX, id uuid.UUID, status booking.Status, now time.Time) error
	TransitionDeposit(ctx context.Context, tx repository.DBTX, id uuid.UUID, from, to booking.DepositStatus, now time.Time) (bool, error)
	SetDepositAuthorized(ctx context.Context, tx repository.DBTX, id uuid.UUID, externalRef string, now time.Time) (bool, error)
	UpsertAddOnLine(ctx context.Context, tx repository.DBTX, bookingID uuid.UUID, charge pricing.AddOnCharge, now time.Time) error
	DeleteAddOnLine(ctx context.Context, tx repository.DBTX, bookingID, addOnID uuid.UUID) (bool, error)
	DeleteDriverLines(ctx context.Context, tx repository.DBTX, bookingID uuid.UUID) error
	InsertDriverLine(ctx context.Context, tx repository.DBTX, bookingID uuid.UUID, band pricing.AgeBand, totalCents int64, now time.Time) error
	ListAddOnLines(ctx context.Context, db repository.DBTX, bookingID uuid.UUID) ([]repository.AddOnLine, error)
	ListDriverLines(ctx context.Context, db repository.DBTX, bookingID uuid.UUID) ([]repository.DriverLine, error)
}

type OTPRepository interface {
	Insert(ctx context.Context, otp *guestaccess.OTP) error
	FindNewestMatching(ctx context.Context, bookingID uuid.UUID, codeHash string) (*guestaccess.OTP, error)
	FindNewestActive(ctx context.Context, bookingID uuid.UUID, now time.Time) (*guestaccess.OTP, error)
	Consume(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)
	IncrementAttempts(ctx context.Context, id uuid.UUID) error
}

type LedgerRepository interface {
	Insert(ctx context.Context, tx repository.DBTX, e *deposit.Entry) error
}

type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*user.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*user.User, error)
}

// PaymentGateway is the processor boundary. Amounts cross it in integer
// minor units; everything behind it is opaque.
type PaymentGateway interface {
	AuthorizeDeposit(ctx context.Context, amountCents int64, bookingRef string) (externalRef string, err error)
	CaptureDeposit(ctx context.Context, externalRef string, amountCents int64) error
	// ReleaseDeposit cancels the hold. Implementations return nil when the
	// hold is already canceled so release stays idempotent.
	ReleaseDeposit(ctx context.Context, externalRef string) error
}

// RateLimiter counts events in a fixed window per key. Allow reports whether
// this event is under the limit.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
