package commands

import (
	"context"
	"time"

	"fleetbook/internal/domain/booking"
	"fleetbook/internal/domain/pricing"
	"fleetbook/internal/infra"
	"fleetbook/internal/infra/repository"
	"fleetbook/internal/pkg/errs"
	"fleetbook/internal/usecase/notify"
	"fleetbook/internal/usecase/shared"

	"github.com/google/uuid"
)

// ChangeDates moves the rental period and reprices the whole booking against
// current rates. Existing add-on and driver lines are rewritten because their
// totals depend on rental days.
func (b *bookingCommandsImpl) ChangeDates(ctx context.Context, bookingID uuid.UUID, newStart, newEnd time.Time) (*booking.Booking, error) {
	period, err := booking.NewPeriod(newStart, newEnd)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrValidationFailed)
	}

	now := b.clk.Now()
	updated, err := shared.RunInTx(ctx, b.db, func(tx repository.DBTX) (*booking.Booking, error) {
		entity, err := b.lockModifiable(ctx, tx, bookingID)
		if err != nil {
			return nil, err
		}

		id := entity.ID()
		overlap, err := b.bookings.HasOverlap(ctx, tx, entity.VehicleID(), period.Start(), period.End(), &id)
		if err != nil {
			return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		if overlap {
			return nil, errs.Mark(errs.New("vehicle already booked for period"), errs.ErrVehicleUnavailable)
		}

		bd, err := b.requote(ctx, tx, entity, period.Start(), period.End())
		if err != nil {
			return nil, err
		}

		if err := b.bookings.UpdatePricing(ctx, tx, id, period.Start(), period.End(), bd, now); err != nil {
			return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		for _, charge := range bd.AddOns {
			if err := b.bookings.UpsertAddOnLine(ctx, tx, id, charge, now); err != nil {
				return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
			}
		}
		if err := b.bookings.DeleteDriverLines(ctx, tx, id); err != nil {
			return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		for _, driver := range bd.AdditionalDrivers {
			if err := b.bookings.InsertDriverLine(ctx, tx, id, driver.AgeBand, driver.TotalCents, now); err != nil {
				return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
			}
		}

		return b.refetch(ctx, tx, id)
	})
	if err != nil {
		return nil, err
	}

	b.notifyUpdated(updated)
	return updated, nil
}

// AddAddOn attaches or replaces one add-on line priced by the engine, then
// resums the booking totals from all current lines.
func (b *bookingCommandsImpl) AddAddOn(ctx context.Context, bookingID, addOnID uuid.UUID, quantity int) (*booking.Booking, error) {
	now := b.clk.Now()
	updated, err := shared.RunInTx(ctx, b.db, func(tx repository.DBTX) (*booking.Booking, error) {
		entity, err := b.lockModifiable(ctx, tx, bookingID)
		if err != nil {
			return nil, err
		}

		days := pricing.RentalDays(entity.Period().Start(), entity.Period().End())
		charge, err := b.engine.PriceAddOn(ctx, addOnID, quantity, days)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return nil, errs.Mark(err, errs.ErrAddOnNotFound)
			}
			return nil, errs.Mark(err, errs.ErrPriceComputationFailed)
		}

		if err := b.bookings.UpsertAddOnLine(ctx, tx, entity.ID(), charge, now); err != nil {
			return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		if err := b.resumTotals(ctx, tx, entity, now); err != nil {
			return nil, err
		}
		return b.refetch(ctx, tx, entity.ID())
	})
	if err != nil {
		return nil, err
	}

	b.notifyUpdated(updated)
	return updated, nil
}

// RemoveAddOn drops the line for the (booking, add-on) pair and resums.
func (b *bookingCommandsImpl) RemoveAddOn(ctx context.Context, bookingID, addOnID uuid.UUID) (*booking.Booking, error) {
	now := b.clk.Now()
	updated, err := shared.RunInTx(ctx, b.db, func(tx repository.DBTX) (*booking.Booking, error) {
		entity, err := b.lockModifiable(ctx, tx, bookingID)
		if err != nil {
			return nil, err
		}

		removed, err := b.bookings.DeleteAddOnLine(ctx, tx, entity.ID(), addOnID)
		if err != nil {
			return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		if !removed {
			return nil, errs.Mark(errs.New("add-on not attached to booking"), errs.ErrAddOnNotFound)
		}
		if err := b.resumTotals(ctx, tx, entity, now); err != nil {
			return nil, err
		}
		return b.refetch(ctx, tx, entity.ID())
	})
	if err != nil {
		return nil, err
	}

	b.notifyUpdated(updated)
	return updated, nil
}

// ChangeStatus moves the booking along its lifecycle. Voiding is allowed
// from any active-lifecycle status; every other step follows the
// draft → pending → confirmed → active → completed chain.
func (b *bookingCommandsImpl) ChangeStatus(ctx context.Context, bookingID uuid.UUID, target booking.Status) (*booking.Booking, error) {
	if !target.IsValid() {
		return nil, errs.Mark(errs.New("unknown booking status"), errs.ErrValidationFailed)
	}

	now := b.clk.Now()
	updated, err := shared.RunInTx(ctx, b.db, func(tx repository.DBTX) (*booking.Booking, error) {
		entity, err := b.bookings.FindByIDForUpdate(ctx, tx, bookingID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return nil, errs.Mark(err, errs.ErrBookingNotFound)
			}
			return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		if !entity.Status().CanTransitionTo(target) {
			return nil, errs.Mark(
				errs.New("booking lifecycle does not admit "+target.String()),
				errs.ErrInvalidStateTransition,
			)
		}

		if err := b.bookings.UpdateStatus(ctx, tx, entity.ID(), target, now); err != nil {
			return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		return b.refetch(ctx, tx, entity.ID())
	})
	if err != nil {
		return nil, err
	}

	b.notifyUpdated(updated)
	return updated, nil
}

// lockModifiable fetches the booking row under FOR UPDATE and rejects
// bookings whose lifecycle no longer admits pricing changes.
func (b *bookingCommandsImpl) lockModifiable(ctx context.Context, tx repository.DBTX, bookingID uuid.UUID) (*booking.Booking, error) {
	entity, err := b.bookings.FindByIDForUpdate(ctx, tx, bookingID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.Mark(err, errs.ErrBookingNotFound)
		}
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	switch entity.Status() {
	case booking.StatusPending, booking.StatusConfirmed:
		return entity, nil
	default:
		return nil, errs.Mark(
			errs.New("booking can no longer be modified"),
			errs.ErrInvalidStateTransition,
		)
	}
}

// requote rebuilds the pricing input from the booking row plus its current
// child lines. The persisted delivery fee is carried over unchanged.
func (b *bookingCommandsImpl) requote(ctx context.Context, tx repository.DBTX, entity *booking.Booking, start, end time.Time) (*pricing.Breakdown, error) {
	addOnLines, err := b.bookings.ListAddOnLines(ctx, tx, entity.ID())
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	driverLines, err := b.bookings.ListDriverLines(ctx, tx, entity.ID())
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	input := pricing.QuoteInput{
		VehicleID:         entity.VehicleID(),
		StartAt:           start,
		EndAt:             end,
		DriverAgeBand:     entity.DriverAgeBand(),
		ProtectionPlan:    entity.ProtectionPlan(),
		PickupLocationID:  entity.PickupLocationID(),
		DropOffLocationID: entity.DropOffLocationID(),
	}
	if fee := entity.DeliveryFeeCents(); fee > 0 {
		input.DeliveryFeeCents = &fee
	}
	for _, line := range addOnLines {
		input.AddOns = append(input.AddOns, pricing.AddOnSelection{ID: line.AddOnID, Quantity: line.Quantity})
	}
	for _, line := range driverLines {
		input.AdditionalDrivers = append(input.AdditionalDrivers, pricing.AdditionalDriver{AgeBand: line.AgeBand})
	}

	bd, err := b.engine.Quote(ctx, input)
	if err != nil {
		return nil, errs.Mark(errs.Wrap(err, "repricing failed"), errs.ErrPriceComputationFailed)
	}
	return bd, nil
}

// resumTotals recomputes subtotal, tax, total and deposit from the full
// current line set. Totals are always resummed, never adjusted by deltas.
func (b *bookingCommandsImpl) resumTotals(ctx context.Context, tx repository.DBTX, entity *booking.Booking, now time.Time) error {
	bd, err := b.requote(ctx, tx, entity, entity.Period().Start(), entity.Period().End())
	if err != nil {
		return err
	}
	if err := b.bookings.UpdateTotals(ctx, tx, entity.ID(), bd.SubtotalCents, bd.TaxCents, bd.TotalCents, bd.DepositCents, now); err != nil {
		return errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	return nil
}

func (b *bookingCommandsImpl) refetch(ctx context.Context, tx repository.DBTX, bookingID uuid.UUID) (*booking.Booking, error) {
	entity, err := b.bookings.FindByIDForUpdate(ctx, tx, bookingID)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	return entity, nil
}

func (b *bookingCommandsImpl) notifyUpdated(entity *booking.Booking) {
	b.dispatcher.DispatchAsync(notify.Request{
		BookingID: entity.ID(),
		Template:  notify.TemplateBookingUpdated,
		Email:     entity.Contact().Email(),
		Phone:     entity.Contact().Phone(),
		Subject:   "Booking updated: " + entity.Reference(),
		EmailBody: updateEmailBody(entity),
		SMSBody:   updateSMSBody(entity),
	})
}

func updateEmailBody(b *booking.Booking) string {
	return "Hi " + b.Contact().Name() + ",\n\nYour booking " + b.Reference() + " was updated.\n" +
		"Pickup: " + b.Period().Start().Format(time.RFC1123) + "\n" +
		"Return: " + b.Period().End().Format(time.RFC1123) + "\n" +
		"New total: " + formatCents(b.TotalCents()) + "\n"
}

func updateSMSBody(b *booking.Booking) string {
	return "Booking " + b.Reference() + " updated. New total " + formatCents(b.TotalCents()) + "."
}
