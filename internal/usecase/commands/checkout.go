package commands

import (
	"context"
	"fmt"
	"time"

	"fleetbook/internal/domain/booking"
	"fleetbook/internal/domain/pricing"
	"fleetbook/internal/infra/repository"
	"fleetbook/internal/pkg/clock"
	"fleetbook/internal/pkg/errs"
	"fleetbook/internal/usecase/notify"
	"fleetbook/internal/usecase/shared"

	"github.com/google/uuid"
)

type BookingCommands interface {
	Checkout(ctx context.Context, params CheckoutParams) (*booking.Booking, error)
	ChangeDates(ctx context.Context, bookingID uuid.UUID, newStart, newEnd time.Time) (*booking.Booking, error)
	ChangeStatus(ctx context.Context, bookingID uuid.UUID, target booking.Status) (*booking.Booking, error)
	AddAddOn(ctx context.Context, bookingID, addOnID uuid.UUID, quantity int) (*booking.Booking, error)
	RemoveAddOn(ctx context.Context, bookingID, addOnID uuid.UUID) (*booking.Booking, error)
}

// PriceMismatchError carries the canonical server total alongside the
// rejection so the caller can re-render and resubmit.
type PriceMismatchError struct {
	ClientTotalCents int64
	ServerTotalCents int64
}

func (e *PriceMismatchError) Error() string {
	return fmt.Sprintf("client total %d differs from server total %d", e.ClientTotalCents, e.ServerTotalCents)
}

func (e *PriceMismatchError) Is(target error) bool { return target == errs.ErrPriceMismatch }

type CheckoutParams struct {
	CustomerID       *uuid.UUID
	Quote            pricing.QuoteInput
	ClientTotalCents int64
	ContactName      string
	ContactEmail     string
	ContactPhone     string
	Notes            string
	DeliveryAddress  string
}

type bookingCommandsImpl struct {
	db         shared.TxBeginner
	bookings   BookingRepository
	engine     *pricing.Engine
	dispatcher *notify.Dispatcher
	clk        clock.Clock
}

func NewBookingCommands(
	db shared.TxBeginner,
	bookings BookingRepository,
	engine *pricing.Engine,
	dispatcher *notify.Dispatcher,
	clk clock.Clock,
) BookingCommands {
	return &bookingCommandsImpl{
		db:         db,
		bookings:   bookings,
		engine:     engine,
		dispatcher: dispatcher,
		clk:        clk,
	}
}

// Checkout creates a booking. The client's quoted total is only ever compared
// against the server recomputation; the persisted amounts always come from
// the fresh breakdown.
func (b *bookingCommandsImpl) Checkout(ctx context.Context, params CheckoutParams) (*booking.Booking, error) {
	bd, err := b.engine.Quote(ctx, params.Quote)
	if err != nil {
		return nil, errs.Mark(errs.Wrap(err, "price recomputation failed"), errs.ErrPriceComputationFailed)
	}
	if delta := absCents(params.ClientTotalCents - bd.TotalCents); delta > b.engine.ToleranceCents() {
		return nil, &PriceMismatchError{
			ClientTotalCents: params.ClientTotalCents,
			ServerTotalCents: bd.TotalCents,
		}
	}

	period, err := booking.NewPeriod(params.Quote.StartAt, params.Quote.EndAt)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrValidationFailed)
	}
	contact, err := booking.NewContact(params.ContactName, params.ContactEmail, params.ContactPhone)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrValidationFailed)
	}
	notes, err := booking.NewNotes(params.Notes)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrValidationFailed)
	}

	entity, err := booking.NewBooking(
		params.CustomerID,
		params.Quote.VehicleID,
		params.Quote.PickupLocationID,
		params.Quote.DropOffLocationID,
		period,
		params.Quote.DriverAgeBand,
		params.Quote.ProtectionPlan,
		contact,
		notes,
		params.DeliveryAddress,
		bd,
	)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrValidationFailed)
	}

	now := b.clk.Now()
	created, err := shared.RunInTx(ctx, b.db, func(tx repository.DBTX) (*booking.Booking, error) {
		overlap, err := b.bookings.HasOverlap(ctx, tx, entity.VehicleID(), period.Start(), period.End(), nil)
		if err != nil {
			return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		if overlap {
			return nil, errs.Mark(errs.New("vehicle already booked for period"), errs.ErrVehicleUnavailable)
		}

		if err := b.bookings.Create(ctx, tx, entity, now); err != nil {
			return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		for _, charge := range bd.AddOns {
			if err := b.bookings.UpsertAddOnLine(ctx, tx, entity.ID(), charge, now); err != nil {
				return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
			}
		}
		for _, driver := range bd.AdditionalDrivers {
			if err := b.bookings.InsertDriverLine(ctx, tx, entity.ID(), driver.AgeBand, driver.TotalCents, now); err != nil {
				return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
			}
		}
		return entity, nil
	})
	if err != nil {
		return nil, err
	}

	b.dispatcher.DispatchAsync(notify.Request{
		BookingID: created.ID(),
		Template:  notify.TemplateBookingConfirmed,
		Email:     created.Contact().Email(),
		Phone:     created.Contact().Phone(),
		Subject:   "Booking confirmed: " + created.Reference(),
		EmailBody: confirmationEmailBody(created),
		SMSBody:   confirmationSMSBody(created),
	})

	return created, nil
}

func confirmationEmailBody(b *booking.Booking) string {
	return fmt.Sprintf(
		"Hi %s,\n\nYour booking %s is confirmed.\nPickup: %s\nReturn: %s\nTotal: %s\nRefundable deposit: %s\n",
		b.Contact().Name(),
		b.Reference(),
		b.Period().Start().Format(time.RFC1123),
		b.Period().End().Format(time.RFC1123),
		formatCents(b.TotalCents()),
		formatCents(b.DepositCents()),
	)
}

func confirmationSMSBody(b *booking.Booking) string {
	return fmt.Sprintf("Booking %s confirmed. Pickup %s. Total %s.",
		b.Reference(),
		b.Period().Start().Format("Jan 2 15:04"),
		formatCents(b.TotalCents()),
	)
}

func formatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}

func absCents(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
