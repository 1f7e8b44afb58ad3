package commands

import (
	"context"
	"errors"
	"log/slog"

	"fleetbook/internal/domain/booking"
	"fleetbook/internal/domain/deposit"
	"fleetbook/internal/infra"
	"fleetbook/internal/infra/repository"
	"fleetbook/internal/pkg/clock"
	"fleetbook/internal/pkg/errs"
	"fleetbook/internal/usecase/notify"
	"fleetbook/internal/usecase/shared"

	"github.com/google/uuid"
)

type DepositCommands interface {
	// Authorize places a hold for the booking's deposit amount.
	Authorize(ctx context.Context, bookingID uuid.UUID, actor string) (*booking.Booking, error)
	// Capture settles part or all of the hold. amountCents nil means full
	// capture; a partial capture auto-releases the remainder.
	Capture(ctx context.Context, bookingID uuid.UUID, amountCents *int64, actor, reason string) (*booking.Booking, error)
	// Release cancels the hold in full. Only completed or voided bookings
	// qualify unless override bypasses the lifecycle check; an override is
	// recorded in the ledger entry's reason.
	Release(ctx context.Context, bookingID uuid.UUID, actor, reason string, override bool) (*booking.Booking, error)
}

type depositCommandsImpl struct {
	db         shared.TxBeginner
	bookings   BookingRepository
	ledger     LedgerRepository
	gateway    PaymentGateway
	dispatcher *notify.Dispatcher
	clk        clock.Clock
}

func NewDepositCommands(
	db shared.TxBeginner,
	bookings BookingRepository,
	ledger LedgerRepository,
	gateway PaymentGateway,
	dispatcher *notify.Dispatcher,
	clk clock.Clock,
) DepositCommands {
	return &depositCommandsImpl{
		db:         db,
		bookings:   bookings,
		ledger:     ledger,
		gateway:    gateway,
		dispatcher: dispatcher,
		clk:        clk,
	}
}

func (d *depositCommandsImpl) Authorize(ctx context.Context, bookingID uuid.UUID, actor string) (*booking.Booking, error) {
	entity, err := d.findBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if entity.DepositStatus() != booking.DepositNone {
		return nil, errs.Mark(errs.New("deposit already authorized"), errs.ErrInvalidStateTransition)
	}
	if !entity.Status().IsLifecycleActive() {
		return nil, errs.Mark(errs.New("booking lifecycle does not admit a deposit hold"), errs.ErrInvalidStateTransition)
	}

	ref, err := d.gateway.AuthorizeDeposit(ctx, entity.DepositCents(), entity.Reference())
	if err != nil {
		return nil, errs.Mark(errs.Wrap(err, "payment processor rejected deposit hold"), errs.ErrDepositOperationFailed)
	}

	claimed, err := shared.RunInTx(ctx, d.db, func(tx repository.DBTX) (bool, error) {
		ok, err := d.bookings.SetDepositAuthorized(ctx, tx, bookingID, ref, d.clk.Now())
		if err != nil {
			return false, errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		return ok, nil
	})
	if err != nil {
		return nil, err
	}
	if !claimed {
		// A concurrent authorize won the row. Cancel the hold we just
		// created so the customer is not held twice.
		if cancelErr := d.gateway.ReleaseDeposit(ctx, ref); cancelErr != nil {
			slog.Error("failed to cancel redundant deposit hold",
				"booking_id", bookingID, "external_ref", ref, "error", cancelErr)
		}
		return nil, errs.Mark(errs.New("deposit state changed concurrently"), errs.ErrInvalidStateTransition)
	}

	return d.findBooking(ctx, bookingID)
}

func (d *depositCommandsImpl) Capture(ctx context.Context, bookingID uuid.UUID, amountCents *int64, actor, reason string) (*booking.Booking, error) {
	entity, err := d.findBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if entity.DepositExternalRef() == nil {
		return nil, errs.Mark(errs.New("no deposit hold on booking"), errs.ErrInvalidStateTransition)
	}

	plan, err := deposit.PlanCapture(entity.DepositCents(), amountCents)
	if err != nil {
		if errors.Is(err, deposit.ErrExcessCapture) || errors.Is(err, deposit.ErrInvalidAmount) {
			return nil, errs.Mark(err, errs.ErrValidationFailed)
		}
		return nil, err
	}

	// Claim the transition first so concurrent captures are excluded before
	// the processor is contacted.
	if err := d.transition(ctx, bookingID, booking.DepositAuthorized, booking.DepositCapturing); err != nil {
		return nil, err
	}

	ref := *entity.DepositExternalRef()
	if err := d.gateway.CaptureDeposit(ctx, ref, plan.CaptureCents); err != nil {
		// The row stays in capturing; operators resolve it against the
		// processor rather than guessing which side won.
		slog.Error("deposit capture failed at processor",
			"booking_id", bookingID, "external_ref", ref, "error", err)
		return nil, errs.Mark(errs.Wrap(err, "payment processor capture failed"), errs.ErrDepositOperationFailed)
	}

	now := d.clk.Now()
	_, err = shared.RunInTx(ctx, d.db, func(tx repository.DBTX) (struct{}, error) {
		var zero struct{}
		ok, err := d.bookings.TransitionDeposit(ctx, tx, bookingID, booking.DepositCapturing, booking.DepositCaptured, now)
		if err != nil {
			return zero, errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		if !ok {
			return zero, errs.Mark(errs.New("deposit state changed concurrently"), errs.ErrInvalidStateTransition)
		}

		captureEntry, err := deposit.NewEntry(bookingID, deposit.EntryCapture, plan.CaptureCents, actor, reason, ref, now)
		if err != nil {
			return zero, errs.Mark(err, errs.ErrValidationFailed)
		}
		if err := d.ledger.Insert(ctx, tx, captureEntry); err != nil {
			return zero, errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}

		// A manual-capture hold releases its uncaptured remainder at the
		// processor automatically; the ledger records that release so the
		// history sums to the authorized amount.
		if plan.RemainderCents > 0 {
			releaseEntry, err := deposit.NewEntry(bookingID, deposit.EntryRelease, plan.RemainderCents, actor, "remainder after partial capture", ref, now)
			if err != nil {
				return zero, errs.Mark(err, errs.ErrValidationFailed)
			}
			if err := d.ledger.Insert(ctx, tx, releaseEntry); err != nil {
				return zero, errs.Mark(err, errs.ErrDatabaseOperationFailed)
			}
		}
		return zero, nil
	})
	if err != nil {
		return nil, err
	}

	updated, err := d.findBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	d.notifyDeposit(updated, notify.TemplateDepositCaptured,
		"Deposit captured for booking "+updated.Reference(),
		"A deposit charge of "+formatCents(plan.CaptureCents)+" was applied to booking "+updated.Reference()+". Reason: "+reason+"\n")
	return updated, nil
}

func (d *depositCommandsImpl) Release(ctx context.Context, bookingID uuid.UUID, actor, reason string, override bool) (*booking.Booking, error) {
	entity, err := d.findBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if entity.DepositExternalRef() == nil {
		return nil, errs.Mark(errs.New("no deposit hold on booking"), errs.ErrInvalidStateTransition)
	}
	if !entity.DepositReleasable() {
		if !override {
			return nil, errs.Mark(errs.New("booking lifecycle still holds the deposit"), errs.ErrInvalidStateTransition)
		}
		reason = "override: " + reason
	}

	if err := d.transition(ctx, bookingID, booking.DepositAuthorized, booking.DepositReleasing); err != nil {
		return nil, err
	}

	ref := *entity.DepositExternalRef()
	if err := d.gateway.ReleaseDeposit(ctx, ref); err != nil {
		slog.Error("deposit release failed at processor",
			"booking_id", bookingID, "external_ref", ref, "error", err)
		return nil, errs.Mark(errs.Wrap(err, "payment processor release failed"), errs.ErrDepositOperationFailed)
	}

	now := d.clk.Now()
	_, err = shared.RunInTx(ctx, d.db, func(tx repository.DBTX) (struct{}, error) {
		var zero struct{}
		ok, err := d.bookings.TransitionDeposit(ctx, tx, bookingID, booking.DepositReleasing, booking.DepositReleased, now)
		if err != nil {
			return zero, errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		if !ok {
			return zero, errs.Mark(errs.New("deposit state changed concurrently"), errs.ErrInvalidStateTransition)
		}

		entry, err := deposit.NewEntry(bookingID, deposit.EntryRelease, entity.DepositCents(), actor, reason, ref, now)
		if err != nil {
			return zero, errs.Mark(err, errs.ErrValidationFailed)
		}
		if err := d.ledger.Insert(ctx, tx, entry); err != nil {
			return zero, errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		return zero, nil
	})
	if err != nil {
		return nil, err
	}

	updated, err := d.findBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	d.notifyDeposit(updated, notify.TemplateDepositReleased,
		"Deposit released for booking "+updated.Reference(),
		"The deposit hold of "+formatCents(updated.DepositCents())+" on booking "+updated.Reference()+" was released.\n")
	return updated, nil
}

func (d *depositCommandsImpl) findBooking(ctx context.Context, bookingID uuid.UUID) (*booking.Booking, error) {
	entity, err := d.bookings.FindByID(ctx, bookingID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.Mark(err, errs.ErrBookingNotFound)
		}
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	return entity, nil
}

func (d *depositCommandsImpl) transition(ctx context.Context, bookingID uuid.UUID, from, to booking.DepositStatus) error {
	if !from.CanTransitionTo(to) {
		return errs.Mark(errs.New("invalid deposit transition"), errs.ErrInvalidStateTransition)
	}
	ok, err := shared.RunInTx(ctx, d.db, func(tx repository.DBTX) (bool, error) {
		ok, err := d.bookings.TransitionDeposit(ctx, tx, bookingID, from, to, d.clk.Now())
		if err != nil {
			return false, errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		return ok, nil
	})
	if err != nil {
		return err
	}
	if !ok {
		return errs.Mark(errs.New("deposit not in expected state"), errs.ErrInvalidStateTransition)
	}
	return nil
}

func (d *depositCommandsImpl) notifyDeposit(entity *booking.Booking, template notify.TemplateType, subject, body string) {
	d.dispatcher.DispatchAsync(notify.Request{
		BookingID: entity.ID(),
		Template:  template,
		Email:     entity.Contact().Email(),
		Subject:   subject,
		EmailBody: body,
	})
}
