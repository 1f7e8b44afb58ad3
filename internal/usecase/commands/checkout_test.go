//go:build unit

package commands_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fleetbook/internal/domain/booking"
	"fleetbook/internal/domain/pricing"
	"fleetbook/internal/infra/repository"
	"fleetbook/internal/pkg/clock"
	"fleetbook/internal/pkg/config"
	"fleetbook/internal/pkg/errs"
	"fleetbook/internal/usecase/commands"
	"fleetbook/internal/usecase/notify"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedRates struct {
	dailyCents int64
}

func (r fixedRates) VehicleDailyRateCents(_ context.Context, _ uuid.UUID) (int64, error) {
	return r.dailyCents, nil
}

func (fixedRates) ProtectionDailyRateCents(_ context.Context, plan pricing.ProtectionPlan) (int64, error) {
	cents, ok := pricing.FallbackProtectionDailyCents(plan)
	if !ok {
		return 0, errors.New("unknown plan")
	}
	return cents, nil
}

func (fixedRates) AddOnRate(_ context.Context, _ uuid.UUID) (*pricing.AddOnRate, error) {
	return nil, errors.New("add-on not found")
}

func (fixedRates) DropOffFeeCents(_ context.Context, _, _ uuid.UUID) (int64, error) {
	return 0, nil
}

// checkoutStore records the rows Checkout would persist.
type checkoutStore struct {
	commands.BookingRepository

	overlap bool

	mu      sync.Mutex
	created *booking.Booking
}

func (s *checkoutStore) HasOverlap(_ context.Context, _ repository.DBTX, _ uuid.UUID, _, _ time.Time, _ *uuid.UUID) (bool, error) {
	return s.overlap, nil
}

func (s *checkoutStore) Create(_ context.Context, _ repository.DBTX, b *booking.Booking, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = b
	return nil
}

type checkoutFixture struct {
	bookings commands.BookingCommands
	store    *checkoutStore
	d        *notify.Dispatcher
}

func newCheckoutFixture(t *testing.T, dailyCents int64) *checkoutFixture {
	t.Helper()

	store := &checkoutStore{}
	engine := pricing.NewEngine(fixedRates{dailyCents: dailyCents}, config.NewTestPricingConfig())
	clk := clock.NewMockClock(time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC))
	dispatcher := notify.NewDispatcher(&captureEmail{}, noopSMS{}, noopLogStore{}, clk)

	cmds := commands.NewBookingCommands(fakeTxBeginner{}, store, engine, dispatcher, clk)
	return &checkoutFixture{bookings: cmds, store: store, d: dispatcher}
}

// mondayQuote is a one-day rental with no surcharges, discounts, add-ons or
// protection. At 5000 cents/day the engine totals 5881 (250 regulatory fees,
// 631 tax on 5250).
func mondayQuote() pricing.QuoteInput {
	pickup := uuid.New()
	start := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	return pricing.QuoteInput{
		VehicleID:        uuid.New(),
		StartAt:          start,
		EndAt:            start.AddDate(0, 0, 1),
		DriverAgeBand:    pricing.AgeBandStandard,
		PickupLocationID: pickup,
	}
}

func checkoutParams(clientTotal int64) commands.CheckoutParams {
	return commands.CheckoutParams{
		Quote:            mondayQuote(),
		ClientTotalCents: clientTotal,
		ContactName:      "Jordan Reyes",
		ContactEmail:     "jordan@example.com",
	}
}

func TestCheckout(t *testing.T) {
	ctx := context.Background()

	t.Run("persists the recomputed totals", func(t *testing.T) {
		f := newCheckoutFixture(t, 5000)

		created, err := f.bookings.Checkout(ctx, checkoutParams(5881))

		require.NoError(t, err)
		assert.Equal(t, int64(5881), created.TotalCents())
		assert.Equal(t, int64(20000), created.DepositCents())
		assert.Equal(t, booking.StatusPending, created.Status())
		assert.Equal(t, booking.DepositNone, created.DepositStatus())

		f.store.mu.Lock()
		defer f.store.mu.Unlock()
		require.NotNil(t, f.store.created)
		assert.Equal(t, created.ID(), f.store.created.ID())
	})

	t.Run("client drift within tolerance is accepted", func(t *testing.T) {
		f := newCheckoutFixture(t, 5000)

		created, err := f.bookings.Checkout(ctx, checkoutParams(5881+50))

		require.NoError(t, err)
		// The stored amount is the server's, never the client's.
		assert.Equal(t, int64(5881), created.TotalCents())
	})

	t.Run("mismatch rejection carries the server total", func(t *testing.T) {
		f := newCheckoutFixture(t, 5000)

		_, err := f.bookings.Checkout(ctx, checkoutParams(5881+51))

		assert.ErrorIs(t, err, errs.ErrPriceMismatch)
		var mismatch *commands.PriceMismatchError
		require.ErrorAs(t, err, &mismatch)
		assert.Equal(t, int64(5881), mismatch.ServerTotalCents)
		assert.Equal(t, int64(5881+51), mismatch.ClientTotalCents)

		f.store.mu.Lock()
		defer f.store.mu.Unlock()
		assert.Nil(t, f.store.created)
	})

	t.Run("overlapping booking is rejected", func(t *testing.T) {
		f := newCheckoutFixture(t, 5000)
		f.store.overlap = true

		_, err := f.bookings.Checkout(ctx, checkoutParams(5881))

		assert.ErrorIs(t, err, errs.ErrVehicleUnavailable)
	})
}

func TestChangeStatus(t *testing.T) {
	ctx := context.Background()

	newFixture := func(t *testing.T, status booking.Status) (commands.BookingCommands, *depositStore) {
		t.Helper()
		store := newDepositStore(newTestBooking(t), status, booking.DepositNone, nil)
		engine := pricing.NewEngine(fixedRates{dailyCents: 5000}, config.NewTestPricingConfig())
		clk := clock.NewMockClock(time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC))
		dispatcher := notify.NewDispatcher(&captureEmail{}, noopSMS{}, noopLogStore{}, clk)
		return commands.NewBookingCommands(fakeTxBeginner{}, store, engine, dispatcher, clk), store
	}

	t.Run("pending moves to confirmed", func(t *testing.T) {
		cmds, store := newFixture(t, booking.StatusPending)

		updated, err := cmds.ChangeStatus(ctx, store.base.ID(), booking.StatusConfirmed)

		require.NoError(t, err)
		assert.Equal(t, booking.StatusConfirmed, updated.Status())
		assert.Equal(t, booking.StatusConfirmed, store.status)
	})

	t.Run("skipping a step is rejected", func(t *testing.T) {
		cmds, store := newFixture(t, booking.StatusPending)

		_, err := cmds.ChangeStatus(ctx, store.base.ID(), booking.StatusCompleted)

		assert.ErrorIs(t, err, errs.ErrInvalidStateTransition)
		assert.Equal(t, booking.StatusPending, store.status)
	})

	t.Run("active can be voided", func(t *testing.T) {
		cmds, store := newFixture(t, booking.StatusActive)

		updated, err := cmds.ChangeStatus(ctx, store.base.ID(), booking.StatusVoided)

		require.NoError(t, err)
		assert.Equal(t, booking.StatusVoided, updated.Status())
	})

	t.Run("terminal statuses stay terminal", func(t *testing.T) {
		cmds, store := newFixture(t, booking.StatusCompleted)

		_, err := cmds.ChangeStatus(ctx, store.base.ID(), booking.StatusVoided)

		assert.ErrorIs(t, err, errs.ErrInvalidStateTransition)
	})

	t.Run("unknown status is a validation error", func(t *testing.T) {
		cmds, store := newFixture(t, booking.StatusPending)

		_, err := cmds.ChangeStatus(ctx, store.base.ID(), booking.Status("parked"))

		assert.ErrorIs(t, err, errs.ErrValidationFailed)
	})

	t.Run("unknown booking", func(t *testing.T) {
		cmds, _ := newFixture(t, booking.StatusPending)

		_, err := cmds.ChangeStatus(ctx, uuid.New(), booking.StatusConfirmed)

		assert.ErrorIs(t, err, errs.ErrBookingNotFound)
	})
}
