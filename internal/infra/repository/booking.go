package repository

import (
	"context"
	"time"

	"fleetbook/internal/domain/booking"
	"fleetbook/internal/domain/pricing"
	"fleetbook/internal/infra"
	"fleetbook/internal/pkg/pgconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type BookingRepository struct {
	db DBTX
}

func NewBookingRepository(db DBTX) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) Create(ctx context.Context, tx DBTX, b *booking.Booking, now time.Time) error {
	const query = `
		INSERT INTO bookings (
			id, reference, customer_id, vehicle_id, pickup_location_id, dropoff_location_id,
			start_at, end_at, driver_age_band, protection_plan,
			contact_name, contact_email, contact_phone, notes, delivery_address,
			daily_rate_cents, delivery_fee_cents, subtotal_cents, tax_cents, total_cents, deposit_cents,
			status, deposit_status, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10,
			$11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21,
			$22, $23, $24, $24
		)`

	_, err := tx.Exec(ctx, query,
		b.ID(), b.Reference(), pgconv.UUIDPtrToPgtype(b.CustomerID()), b.VehicleID(),
		b.PickupLocationID(), b.DropOffLocationID(),
		b.Period().Start(), b.Period().End(), string(b.DriverAgeBand()), string(b.ProtectionPlan()),
		b.Contact().Name(), b.Contact().Email(), b.Contact().Phone(), b.Notes().String(), b.DeliveryAddress(),
		b.DailyRateCents(), b.DeliveryFeeCents(), b.SubtotalCents(), b.TaxCents(), b.TotalCents(), b.DepositCents(),
		b.Status().String(), b.DepositStatus().String(), now,
	)
	if err != nil {
		return infra.WrapRepoErr("failed to create booking", err)
	}
	return nil
}

// HasOverlap runs the canonical half-open overlap test against every booking
// in an active-lifecycle status. It is executed inside the checkout
// transaction immediately before insert, which bounds but does not eliminate
// the race between concurrent checkouts; a DB exclusion constraint, when
// present, is the final backstop.
func (r *BookingRepository) HasOverlap(ctx context.Context, tx DBTX, vehicleID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1
			FROM bookings
			WHERE vehicle_id = $1
			  AND status = ANY($4)
			  AND start_at < $3
			  AND end_at > $2
			  AND ($5::uuid IS NULL OR id <> $5)
		)`

	statuses := make([]string, len(booking.ActiveLifecycleStatuses))
	for i, s := range booking.ActiveLifecycleStatuses {
		statuses[i] = s.String()
	}

	var exists bool
	err := tx.QueryRow(ctx, query, vehicleID, start, end, statuses, pgconv.UUIDPtrToPgtype(excludeID)).Scan(&exists)
	if err != nil {
		return false, infra.WrapRepoErr("failed to check booking overlap", err)
	}
	return exists, nil
}

func (r *BookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	return r.findBy(ctx, r.db, "id = $1", id)
}

func (r *BookingRepository) FindByIDForUpdate(ctx context.Context, tx DBTX, id uuid.UUID) (*booking.Booking, error) {
	return r.findBy(ctx, tx, "id = $1 FOR UPDATE", id)
}

func (r *BookingRepository) findBy(ctx context.Context, db DBTX, where string, arg any) (*booking.Booking, error) {
	query := `
		SELECT id, reference, customer_id, vehicle_id, pickup_location_id, dropoff_location_id,
		       start_at, end_at, driver_age_band, protection_plan,
		       contact_name, contact_email, contact_phone, notes, delivery_address,
		       daily_rate_cents, delivery_fee_cents, subtotal_cents, tax_cents, total_cents, deposit_cents,
		       status, deposit_status, deposit_external_ref, created_at, updated_at
		FROM bookings
		WHERE ` + where

	var (
		id, vehicleID, pickupID, dropoffID   uuid.UUID
		reference                            string
		customerID                           pgtype.UUID
		startAt, endAt, createdAt, updatedAt time.Time
		ageBand, plan, status, depositStatus string
		name, email, phone, notes, address   string
		dailyRate, deliveryFee               int64
		subtotal, tax, total, dep            int64
		externalRef                          pgtype.Text
	)
	err := db.QueryRow(ctx, query, arg).Scan(
		&id, &reference, &customerID, &vehicleID, &pickupID, &dropoffID,
		&startAt, &endAt, &ageBand, &plan,
		&name, &email, &phone, &notes, &address,
		&dailyRate, &deliveryFee, &subtotal, &tax, &total, &dep,
		&status, &depositStatus, &externalRef, &createdAt, &updatedAt,
	)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("booking not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find booking", err)
	}

	period, err := booking.NewPeriod(startAt, endAt)
	if err != nil {
		return nil, infra.WrapRepoErr("stored booking has invalid period", err)
	}
	contact, err := booking.NewContact(name, email, phone)
	if err != nil {
		return nil, infra.WrapRepoErr("stored booking has invalid contact", err)
	}
	bookingNotes, err := booking.NewNotes(notes)
	if err != nil {
		return nil, infra.WrapRepoErr("stored booking has invalid notes", err)
	}

	return booking.ReconstructBooking(
		id, reference, pgconv.UUIDPtrFromPgtype(customerID),
		vehicleID, pickupID, dropoffID,
		period, pricing.AgeBand(ageBand), pricing.ProtectionPlan(plan),
		contact, bookingNotes, address,
		dailyRate, deliveryFee, subtotal, tax, total, dep,
		booking.Status(status), booking.DepositStatus(depositStatus),
		pgconv.StringPtrFromPgtype(externalRef),
		createdAt, updatedAt,
	), nil
}

// UpdatePricing rewrites the period and every money column from a fresh
// engine breakdown. Caller supplies engine output only.
func (r *BookingRepository) UpdatePricing(ctx context.Context, tx DBTX, id uuid.UUID, start, end time.Time, b *pricing.Breakdown, now time.Time) error {
	const query = `
		UPDATE bookings
		SET start_at = $2, end_at = $3,
		    daily_rate_cents = $4, subtotal_cents = $5, tax_cents = $6,
		    total_cents = $7, deposit_cents = $8, updated_at = $9
		WHERE id = $1`

	tag, err := tx.Exec(ctx, query, id, start, end,
		b.DailyRateCents, b.SubtotalCents, b.TaxCents, b.TotalCents, b.DepositCents, now)
	if err != nil {
		return infra.WrapRepoErr("failed to update booking pricing", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("booking not found", nil, infra.KindNotFound)
	}
	return nil
}

// UpdateTotals rewrites only the derived totals, used after child-row
// mutations where the period is unchanged.
func (r *BookingRepository) UpdateTotals(ctx context.Context, tx DBTX, id uuid.UUID, subtotal, tax, total, depositCents int64, now time.Time) error {
	const query = `
		UPDATE bookings
		SET subtotal_cents = $2, tax_cents = $3, total_cents = $4, deposit_cents = $5, updated_at = $6
		WHERE id = $1`

	tag, err := tx.Exec(ctx, query, id, subtotal, tax, total, depositCents, now)
	if err != nil {
		return infra.WrapRepoErr("failed to update booking totals", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("booking not found", nil, infra.KindNotFound)
	}
	return nil
}

func (r *BookingRepository) UpdateStatus(ctx context.Context, tx DBTX, id uuid.UUID, status booking.Status, now time.Time) error {
	const query = `
		UPDATE bookings SET status = $2, updated_at = $3 WHERE id = $1`

	tag, err := tx.Exec(ctx, query, id, status.String(), now)
	if err != nil {
		return infra.WrapRepoErr("failed to update booking status", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("booking not found", nil, infra.KindNotFound)
	}
	return nil
}

// TransitionDeposit performs the guarded state machine step. The precondition
// lives in the UPDATE itself so two concurrent transitions cannot both
// succeed; false means the row was not in the expected state.
func (r *BookingRepository) TransitionDeposit(ctx context.Context, tx DBTX, id uuid.UUID, from, to booking.DepositStatus, now time.Time) (bool, error) {
	const query = `
		UPDATE bookings
		SET deposit_status = $3, updated_at = $4
		WHERE id = $1 AND deposit_status = $2`

	tag, err := tx.Exec(ctx, query, id, from.String(), to.String(), now)
	if err != nil {
		return false, infra.WrapRepoErr("failed to transition deposit status", err)
	}
	return tag.RowsAffected() == 1, nil
}

// SetDepositAuthorized stores the processor's hold reference together with
// the none → authorized transition.
func (r *BookingRepository) SetDepositAuthorized(ctx context.Context, tx DBTX, id uuid.UUID, externalRef string, now time.Time) (bool, error) {
	const query = `
		UPDATE bookings
		SET deposit_status = 'authorized', deposit_external_ref = $2, updated_at = $3
		WHERE id = $1 AND deposit_status = 'none'`

	tag, err := tx.Exec(ctx, query, id, externalRef, now)
	if err != nil {
		return false, infra.WrapRepoErr("failed to set deposit authorized", err)
	}
	return tag.RowsAffected() == 1, nil
}
