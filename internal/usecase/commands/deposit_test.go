//go:build unit

package commands_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"fleetbook/internal/domain/booking"
	"fleetbook/internal/domain/deposit"
	"fleetbook/internal/domain/pricing"
	"fleetbook/internal/infra"
	"fleetbook/internal/infra/repository"
	"fleetbook/internal/pkg/clock"
	"fleetbook/internal/pkg/errs"
	"fleetbook/internal/usecase/commands"
	"fleetbook/internal/usecase/notify"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTx satisfies pgx.Tx for commands whose repositories are fakes and
// never touch the connection.
type fakeTx struct{ pgx.Tx }

func (fakeTx) Commit(context.Context) error   { return nil }
func (fakeTx) Rollback(context.Context) error { return pgx.ErrTxClosed }

type fakeTxBeginner struct{}

func (fakeTxBeginner) Begin(context.Context) (pgx.Tx, error) { return fakeTx{}, nil }

func newTestBooking(t *testing.T) *booking.Booking {
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
	return entity
}

// depositStore keeps one booking row's mutable state so conditional deposit
// transitions behave like the SQL they stand in for.
type depositStore struct {
	commands.BookingRepository

	mu            sync.Mutex
	base          *booking.Booking
	status        booking.Status
	depositStatus booking.DepositStatus
	externalRef   *string
}

func newDepositStore(base *booking.Booking, status booking.Status, depositStatus booking.DepositStatus, externalRef *string) *depositStore {
	return &depositStore{base: base, status: status, depositStatus: depositStatus, externalRef: externalRef}
}

func (s *depositStore) current() *booking.Booking {
	b := s.base
	return booking.ReconstructBooking(
		b.ID(), b.Reference(), b.CustomerID(),
		b.VehicleID(), b.PickupLocationID(), b.DropOffLocationID(),
		b.Period(), b.DriverAgeBand(), b.ProtectionPlan(),
		b.Contact(), b.Notes(), b.DeliveryAddress(),
		b.DailyRateCents(), b.DeliveryFeeCents(), b.SubtotalCents(), b.TaxCents(), b.TotalCents(), b.DepositCents(),
		s.status, s.depositStatus, s.externalRef,
		b.CreatedAt(), b.UpdatedAt(),
	)
}

func (s *depositStore) FindByID(_ context.Context, id uuid.UUID) (*booking.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != s.base.ID() {
		return nil, infra.WrapRepoErr("booking not found", errors.New("no rows"), infra.KindNotFound)
	}
	return s.current(), nil
}

func (s *depositStore) FindByIDForUpdate(ctx context.Context, _ repository.DBTX, id uuid.UUID) (*booking.Booking, error) {
	return s.FindByID(ctx, id)
}

func (s *depositStore) UpdateStatus(_ context.Context, _ repository.DBTX, id uuid.UUID, status booking.Status, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != s.base.ID() {
		return infra.WrapRepoErr("booking not found", nil, infra.KindNotFound)
	}
	s.status = status
	return nil
}

func (s *depositStore) TransitionDeposit(_ context.Context, _ repository.DBTX, id uuid.UUID, from, to booking.DepositStatus, _ time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != s.base.ID() || s.depositStatus != from {
		return false, nil
	}
	s.depositStatus = to
	return true, nil
}

func (s *depositStore) SetDepositAuthorized(_ context.Context, _ repository.DBTX, id uuid.UUID, externalRef string, _ time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != s.base.ID() || s.depositStatus != booking.DepositNone {
		return false, nil
	}
	s.depositStatus = booking.DepositAuthorized
	s.externalRef = &externalRef
	return true, nil
}

type fakeLedger struct {
	mu      sync.Mutex
	entries []*deposit.Entry
}

func (f *fakeLedger) Insert(_ context.Context, _ repository.DBTX, e *deposit.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, e)
	return nil
}

type fakeGateway struct {
	authorizeErr error
	captureErr   error
	releaseErr   error

	mu       sync.Mutex
	captures []int64
	releases []string
}

func (f *fakeGateway) AuthorizeDeposit(_ context.Context, _ int64, _ string) (string, error) {
	if f.authorizeErr != nil {
		return "", f.authorizeErr
	}
	return "pi_test_1", nil
}

func (f *fakeGateway) CaptureDeposit(_ context.Context, _ string, amountCents int64) error {
	if f.captureErr != nil {
		return f.captureErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.captures = append(f.captures, amountCents)
	return nil
}

func (f *fakeGateway) ReleaseDeposit(_ context.Context, externalRef string) error {
	if f.releaseErr != nil {
		return f.releaseErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.releases = append(f.releases, externalRef)
	return nil
}

type depositFixture struct {
	deposits commands.DepositCommands
	store    *depositStore
	ledger   *fakeLedger
	gateway  *fakeGateway
	d        *notify.Dispatcher
}

func newDepositFixture(t *testing.T, status booking.Status, depositStatus booking.DepositStatus, withHold bool) *depositFixture {
	t.Helper()

	base := newTestBooking(t)
	var ref *string
	if withHold {
		r := "pi_test_1"
		ref = &r
	}
	store := newDepositStore(base, status, depositStatus, ref)
	ledger := &fakeLedger{}
	gateway := &fakeGateway{}
	clk := clock.NewMockClock(time.Date(2025, 6, 6, 9, 0, 0, 0, time.UTC))
	dispatcher := notify.NewDispatcher(&captureEmail{}, noopSMS{}, noopLogStore{}, clk)

	deposits := commands.NewDepositCommands(fakeTxBeginner{}, store, ledger, gateway, dispatcher, clk)
	return &depositFixture{deposits: deposits, store: store, ledger: ledger, gateway: gateway, d: dispatcher}
}

func (f *depositFixture) drain(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, f.d.Shutdown(ctx))
}

func TestDepositRelease(t *testing.T) {
	ctx := context.Background()

	t.Run("pending booking keeps the hold", func(t *testing.T) {
		f := newDepositFixture(t, booking.StatusPending, booking.DepositAuthorized, true)

		_, err := f.deposits.Release(ctx, f.store.base.ID(), "staff:ops", "customer request", false)

		assert.ErrorIs(t, err, errs.ErrInvalidStateTransition)
		assert.Empty(t, f.gateway.releases)
		assert.Empty(t, f.ledger.entries)
		assert.Equal(t, booking.DepositAuthorized, f.store.depositStatus)
	})

	t.Run("the same call with override succeeds", func(t *testing.T) {
		f := newDepositFixture(t, booking.StatusPending, booking.DepositAuthorized, true)

		updated, err := f.deposits.Release(ctx, f.store.base.ID(), "staff:ops", "customer request", true)
		f.drain(t)

		require.NoError(t, err)
		assert.Equal(t, booking.DepositReleased, updated.DepositStatus())
		require.Len(t, f.gateway.releases, 1)
		require.Len(t, f.ledger.entries, 1)

		entry := f.ledger.entries[0]
		assert.Equal(t, deposit.EntryRelease, entry.Type())
		assert.Equal(t, f.store.base.DepositCents(), entry.AmountCents())
		assert.Equal(t, "staff:ops", entry.Actor())
		assert.True(t, strings.HasPrefix(entry.Reason(), "override: "))
	})

	t.Run("completed booking releases without override", func(t *testing.T) {
		f := newDepositFixture(t, booking.StatusCompleted, booking.DepositAuthorized, true)

		updated, err := f.deposits.Release(ctx, f.store.base.ID(), "staff:ops", "rental closed", false)
		f.drain(t)

		require.NoError(t, err)
		assert.Equal(t, booking.DepositReleased, updated.DepositStatus())
		require.Len(t, f.ledger.entries, 1)
		assert.Equal(t, "rental closed", f.ledger.entries[0].Reason())
	})

	t.Run("processor failure leaves releasing for reconciliation", func(t *testing.T) {
		f := newDepositFixture(t, booking.StatusCompleted, booking.DepositAuthorized, true)
		f.gateway.releaseErr = errors.New("processor down")

		_, err := f.deposits.Release(ctx, f.store.base.ID(), "staff:ops", "rental closed", false)

		assert.ErrorIs(t, err, errs.ErrDepositOperationFailed)
		assert.Equal(t, booking.DepositReleasing, f.store.depositStatus)
		assert.Empty(t, f.ledger.entries)
	})

	t.Run("no hold means nothing to release", func(t *testing.T) {
		f := newDepositFixture(t, booking.StatusCompleted, booking.DepositNone, false)

		_, err := f.deposits.Release(ctx, f.store.base.ID(), "staff:ops", "rental closed", true)

		assert.ErrorIs(t, err, errs.ErrInvalidStateTransition)
	})
}

func TestDepositCapture(t *testing.T) {
	ctx := context.Background()

	t.Run("partial capture ledgers the remainder release", func(t *testing.T) {
		f := newDepositFixture(t, booking.StatusCompleted, booking.DepositAuthorized, true)
		amount := f.store.base.DepositCents() - 7500

		updated, err := f.deposits.Capture(ctx, f.store.base.ID(), &amount, "staff:ops", "fuel missing")
		f.drain(t)

		require.NoError(t, err)
		assert.Equal(t, booking.DepositCaptured, updated.DepositStatus())
		assert.Equal(t, []int64{amount}, f.gateway.captures)
		require.Len(t, f.ledger.entries, 2)
		assert.Equal(t, deposit.EntryCapture, f.ledger.entries[0].Type())
		assert.Equal(t, amount, f.ledger.entries[0].AmountCents())
		assert.Equal(t, deposit.EntryRelease, f.ledger.entries[1].Type())
		assert.Equal(t, int64(7500), f.ledger.entries[1].AmountCents())
	})

	t.Run("full capture by default writes one entry", func(t *testing.T) {
		f := newDepositFixture(t, booking.StatusCompleted, booking.DepositAuthorized, true)

		updated, err := f.deposits.Capture(ctx, f.store.base.ID(), nil, "staff:ops", "damage")
		f.drain(t)

		require.NoError(t, err)
		assert.Equal(t, booking.DepositCaptured, updated.DepositStatus())
		require.Len(t, f.ledger.entries, 1)
		assert.Equal(t, f.store.base.DepositCents(), f.ledger.entries[0].AmountCents())
	})

	t.Run("capture without a hold is rejected", func(t *testing.T) {
		f := newDepositFixture(t, booking.StatusCompleted, booking.DepositNone, false)

		_, err := f.deposits.Capture(ctx, f.store.base.ID(), nil, "staff:ops", "damage")

		assert.ErrorIs(t, err, errs.ErrInvalidStateTransition)
	})

	t.Run("processor failure leaves capturing for reconciliation", func(t *testing.T) {
		f := newDepositFixture(t, booking.StatusCompleted, booking.DepositAuthorized, true)
		f.gateway.captureErr = errors.New("processor down")

		_, err := f.deposits.Capture(ctx, f.store.base.ID(), nil, "staff:ops", "damage")

		assert.ErrorIs(t, err, errs.ErrDepositOperationFailed)
		assert.Equal(t, booking.DepositCapturing, f.store.depositStatus)
		assert.Empty(t, f.ledger.entries)
	})
}
