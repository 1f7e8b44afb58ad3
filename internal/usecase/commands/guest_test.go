//go:build unit

package commands_test

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"fleetbook/internal/domain/booking"
	"fleetbook/internal/domain/guestaccess"
	"fleetbook/internal/domain/pricing"
	"fleetbook/internal/infra"
	"fleetbook/internal/infra/repository"
	"fleetbook/internal/pkg/clock"
	"fleetbook/internal/pkg/config"
	"fleetbook/internal/pkg/errs"
	"fleetbook/internal/pkg/jwt"
	"fleetbook/internal/usecase/commands"
	"fleetbook/internal/usecase/notify"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBookings struct {
	commands.BookingRepository
	byID map[uuid.UUID]*booking.Booking
}

func (s *stubBookings) FindByID(_ context.Context, id uuid.UUID) (*booking.Booking, error) {
	if b, ok := s.byID[id]; ok {
		return b, nil
	}
	return nil, infra.WrapRepoErr("booking not found", errors.New("no rows"), infra.KindNotFound)
}

// fakeOTPStore mirrors the repository's row filters: verified rows are
// invisible to both finders, and FindNewestActive also hides expired rows.
type fakeOTPStore struct {
	mu   sync.Mutex
	rows []*guestaccess.OTP
}

func (f *fakeOTPStore) Insert(_ context.Context, otp *guestaccess.OTP) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, otp)
	return nil
}

func (f *fakeOTPStore) FindNewestMatching(_ context.Context, bookingID uuid.UUID, codeHash string) (*guestaccess.OTP, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.rows) - 1; i >= 0; i-- {
		o := f.rows[i]
		if o.BookingID() == bookingID && o.CodeHash() == codeHash && !o.IsConsumed() {
			return o, nil
		}
	}
	return nil, infra.WrapRepoErr("otp not found", errors.New("no rows"), infra.KindNotFound)
}

func (f *fakeOTPStore) FindNewestActive(_ context.Context, bookingID uuid.UUID, now time.Time) (*guestaccess.OTP, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.rows) - 1; i >= 0; i-- {
		o := f.rows[i]
		if o.BookingID() == bookingID && !o.IsConsumed() && !o.IsExpired(now) {
			return o, nil
		}
	}
	return nil, infra.WrapRepoErr("otp not found", errors.New("no rows"), infra.KindNotFound)
}

func (f *fakeOTPStore) Consume(_ context.Context, id uuid.UUID, now time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, o := range f.rows {
		if o.ID() == id {
			if o.IsConsumed() {
				return false, nil
			}
			verifiedAt := now
			f.rows[i] = guestaccess.ReconstructOTP(
				o.ID(), o.BookingID(), o.CodeHash(), o.ExpiresAt(), o.Attempts(), &verifiedAt, o.CreatedAt())
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeOTPStore) IncrementAttempts(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, o := range f.rows {
		if o.ID() == id {
			f.rows[i] = guestaccess.ReconstructOTP(
				o.ID(), o.BookingID(), o.CodeHash(), o.ExpiresAt(), o.Attempts()+1, o.VerifiedAt(), o.CreatedAt())
			return nil
		}
	}
	return nil
}

type stubLimiter struct {
	mu      sync.Mutex
	allowed bool
	err     error
	keys    []string
}

func (s *stubLimiter) Allow(_ context.Context, key string, _ int, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = append(s.keys, key)
	return s.allowed, s.err
}

type captureEmail struct {
	mu     sync.Mutex
	bodies []string
}

func (c *captureEmail) Send(_ context.Context, _, _, body string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bodies = append(c.bodies, body)
	return nil
}

type noopSMS struct{}

func (noopSMS) Send(_ context.Context, _, _ string) error { return nil }

type noopLogStore struct{}

func (noopLogStore) ExistsWithinWindow(_ context.Context, _ string, _ time.Time) (bool, error) {
	return false, nil
}

func (noopLogStore) Insert(_ context.Context, _ *repository.NotificationLogEntry) error { return nil }

type guestFixture struct {
	guest   commands.GuestCommands
	booking *booking.Booking
	otps    *fakeOTPStore
	limiter *stubLimiter
	email   *captureEmail
	jwts    *jwt.Service
	clk     *clock.MockClock
	cfg     config.OTPConfig
	d       *notify.Dispatcher
}

func newGuestFixture(t *testing.T) *guestFixture {
	t.Helper()

	period, err := booking.NewPeriod(
		time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 5, 10, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	contact, err := booking.NewContact("Jordan Reyes", "jordan@example.com", "")
	require.NoError(t, err)
	notes, err := booking.NewNotes("")
	require.NoError(t, err)

	pickup := uuid.New()
	entity, err := booking.NewBooking(
		nil, uuid.New(), pickup, pickup,
		period, pricing.AgeBandStandard, pricing.ProtectionNone,
		contact, notes, "",
		&pricing.Breakdown{DailyRateCents: 6000, SubtotalCents: 18750, TaxCents: 2250, TotalCents: 21000, DepositCents: 21000},
	)
	require.NoError(t, err)

	cfg := config.NewTestConfig().OTP
	clk := clock.NewMockClock(time.Date(2025, 6, 2, 14, 0, 0, 0, time.UTC))
	otps := &fakeOTPStore{}
	limiter := &stubLimiter{allowed: true}
	email := &captureEmail{}
	jwts := jwt.NewService("test-secret", time.Hour, 30*time.Minute)
	dispatcher := notify.NewDispatcher(email, noopSMS{}, noopLogStore{}, clk)

	guest := commands.NewGuestCommands(
		&stubBookings{byID: map[uuid.UUID]*booking.Booking{entity.ID(): entity}},
		otps, limiter, jwts, dispatcher, cfg, clk,
	)

	return &guestFixture{
		guest: guest, booking: entity, otps: otps, limiter: limiter,
		email: email, jwts: jwts, clk: clk, cfg: cfg, d: dispatcher,
	}
}

var codePattern = regexp.MustCompile(`\b(\d{6})\b`)

// issuedCode issues an OTP and pulls the plaintext code out of the delivered
// email, which is the only place it ever appears.
func (f *guestFixture) issuedCode(t *testing.T) string {
	t.Helper()

	require.NoError(t, f.guest.IssueOTP(context.Background(), f.booking.ID(), "203.0.113.7"))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, f.d.Shutdown(ctx))

	f.email.mu.Lock()
	defer f.email.mu.Unlock()
	require.NotEmpty(t, f.email.bodies)
	m := codePattern.FindStringSubmatch(f.email.bodies[len(f.email.bodies)-1])
	require.NotNil(t, m)
	return m[1]
}

func TestGuestIssueOTP(t *testing.T) {
	ctx := context.Background()

	t.Run("stores only the booking-scoped hash", func(t *testing.T) {
		f := newGuestFixture(t)
		code := f.issuedCode(t)

		require.Len(t, f.otps.rows, 1)
		stored := f.otps.rows[0]
		assert.Equal(t, guestaccess.HashCode(f.cfg.Secret, f.booking.ID(), code), stored.CodeHash())
		assert.NotContains(t, stored.CodeHash(), code)
		assert.Equal(t, f.clk.Now().Add(f.cfg.TTL), stored.ExpiresAt())
	})

	t.Run("unknown booking", func(t *testing.T) {
		f := newGuestFixture(t)
		err := f.guest.IssueOTP(ctx, uuid.New(), "")
		assert.ErrorIs(t, err, errs.ErrBookingNotFound)
	})

	t.Run("rate limited per booking and per address", func(t *testing.T) {
		f := newGuestFixture(t)
		f.limiter.allowed = false

		err := f.guest.IssueOTP(ctx, f.booking.ID(), "203.0.113.7")
		assert.ErrorIs(t, err, errs.ErrOtpRateLimited)
		require.NotEmpty(t, f.limiter.keys)
		assert.Contains(t, f.limiter.keys[0], "otp:issue:booking:")
	})

	t.Run("limiter outage fails closed", func(t *testing.T) {
		f := newGuestFixture(t)
		f.limiter.err = errors.New("redis unreachable")

		err := f.guest.IssueOTP(ctx, f.booking.ID(), "")
		assert.ErrorIs(t, err, errs.ErrOtpRateLimited)
	})
}

func TestGuestVerify(t *testing.T) {
	ctx := context.Background()

	t.Run("valid code mints a booking-scoped session", func(t *testing.T) {
		f := newGuestFixture(t)
		code := f.issuedCode(t)

		session, err := f.guest.Verify(ctx, f.booking.ID(), code, "203.0.113.7")
		require.NoError(t, err)
		assert.Equal(t, f.booking.ID(), session.BookingID)

		claims, err := f.jwts.ValidateGuestToken(session.Token)
		require.NoError(t, err)
		assert.Equal(t, f.booking.ID(), claims.BookingID)
	})

	t.Run("a code is single use", func(t *testing.T) {
		f := newGuestFixture(t)
		code := f.issuedCode(t)

		_, err := f.guest.Verify(ctx, f.booking.ID(), code, "")
		require.NoError(t, err)

		_, err = f.guest.Verify(ctx, f.booking.ID(), code, "")
		assert.ErrorIs(t, err, errs.ErrOtpInvalid)
	})

	t.Run("a code never works for another booking", func(t *testing.T) {
		f := newGuestFixture(t)
		code := f.issuedCode(t)

		_, err := f.guest.Verify(ctx, uuid.New(), code, "")
		assert.ErrorIs(t, err, errs.ErrOtpInvalid)
	})

	t.Run("wrong guesses burn the attempt budget", func(t *testing.T) {
		f := newGuestFixture(t)
		code := f.issuedCode(t)

		for i := 0; i < f.cfg.MaxAttempts-1; i++ {
			_, err := f.guest.Verify(ctx, f.booking.ID(), "000000", "")
			assert.ErrorIs(t, err, errs.ErrOtpInvalid)
		}

		_, err := f.guest.Verify(ctx, f.booking.ID(), "000000", "")
		assert.ErrorIs(t, err, errs.ErrOtpExhausted)

		// The real code is spent with the budget.
		_, err = f.guest.Verify(ctx, f.booking.ID(), code, "")
		assert.ErrorIs(t, err, errs.ErrOtpExhausted)
	})

	t.Run("expired code is reported as expired, not invalid", func(t *testing.T) {
		f := newGuestFixture(t)
		code := f.issuedCode(t)

		f.clk.Add(f.cfg.TTL + time.Minute)

		_, err := f.guest.Verify(ctx, f.booking.ID(), code, "")
		assert.ErrorIs(t, err, errs.ErrOtpExpired)
		assert.NotErrorIs(t, err, errs.ErrOtpInvalid)
	})

	t.Run("rate limit blocks verification", func(t *testing.T) {
		f := newGuestFixture(t)
		code := f.issuedCode(t)
		f.limiter.allowed = false

		_, err := f.guest.Verify(ctx, f.booking.ID(), code, "")
		assert.ErrorIs(t, err, errs.ErrOtpRateLimited)
	})
}
