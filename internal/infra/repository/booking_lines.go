package repository

import (
	"context"
	"time"

	"fleetbook/internal/domain/pricing"
	"fleetbook/internal/infra"

	"github.com/google/uuid"
)

// AddOnLine is a persisted child row carrying the engine's per-item price.
type AddOnLine struct {
	ID           uuid.UUID
	BookingID    uuid.UUID
	AddOnID      uuid.UUID
	Name         string
	Quantity     int
	DailyCents   int64
	OneTimeCents int64
	TotalCents   int64
}

type DriverLine struct {
	ID         uuid.UUID
	BookingID  uuid.UUID
	AgeBand    pricing.AgeBand
	TotalCents int64
}

// UpsertAddOnLine deletes any existing row for the (booking, add-on) pair
// before inserting so repeated staff upsells converge instead of stacking.
func (r *BookingRepository) UpsertAddOnLine(ctx context.Context, tx DBTX, bookingID uuid.UUID, charge pricing.AddOnCharge, now time.Time) error {
	const del = `DELETE FROM booking_add_ons WHERE booking_id = $1 AND add_on_id = $2`
	if _, err := tx.Exec(ctx, del, bookingID, charge.AddOnID); err != nil {
		return infra.WrapRepoErr("failed to clear existing add-on line", err)
	}

	const ins = `
		INSERT INTO booking_add_ons (id, booking_id, add_on_id, name, quantity, daily_cents, one_time_cents, total_cents, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := tx.Exec(ctx, ins, uuid.New(), bookingID, charge.AddOnID, charge.Name,
		charge.Quantity, charge.DailyCents, charge.OneTimeCents, charge.TotalCents, now)
	if err != nil {
		return infra.WrapRepoErr("failed to insert add-on line", err)
	}
	return nil
}

// DeleteAddOnLine removes the line only when it belongs to the booking; false
// means no such pair existed.
func (r *BookingRepository) DeleteAddOnLine(ctx context.Context, tx DBTX, bookingID, addOnID uuid.UUID) (bool, error) {
	const query = `DELETE FROM booking_add_ons WHERE booking_id = $1 AND add_on_id = $2`
	tag, err := tx.Exec(ctx, query, bookingID, addOnID)
	if err != nil {
		return false, infra.WrapRepoErr("failed to delete add-on line", err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteDriverLines clears every driver line for the booking. Date changes
// rewrite the full set because each line's total depends on rental days.
func (r *BookingRepository) DeleteDriverLines(ctx context.Context, tx DBTX, bookingID uuid.UUID) error {
	const query = `DELETE FROM booking_drivers WHERE booking_id = $1`
	if _, err := tx.Exec(ctx, query, bookingID); err != nil {
		return infra.WrapRepoErr("failed to delete driver lines", err)
	}
	return nil
}

func (r *BookingRepository) InsertDriverLine(ctx context.Context, tx DBTX, bookingID uuid.UUID, band pricing.AgeBand, totalCents int64, now time.Time) error {
	const query = `
		INSERT INTO booking_drivers (id, booking_id, age_band, total_cents, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := tx.Exec(ctx, query, uuid.New(), bookingID, string(band), totalCents, now)
	if err != nil {
		return infra.WrapRepoErr("failed to insert driver line", err)
	}
	return nil
}

func (r *BookingRepository) ListAddOnLines(ctx context.Context, db DBTX, bookingID uuid.UUID) ([]AddOnLine, error) {
	const query = `
		SELECT id, booking_id, add_on_id, name, quantity, daily_cents, one_time_cents, total_cents
		FROM booking_add_ons
		WHERE booking_id = $1
		ORDER BY created_at`

	rows, err := db.Query(ctx, query, bookingID)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list add-on lines", err)
	}
	defer rows.Close()

	var lines []AddOnLine
	for rows.Next() {
		var l AddOnLine
		if err := rows.Scan(&l.ID, &l.BookingID, &l.AddOnID, &l.Name, &l.Quantity, &l.DailyCents, &l.OneTimeCents, &l.TotalCents); err != nil {
			return nil, infra.WrapRepoErr("failed to scan add-on line", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate add-on lines", err)
	}
	return lines, nil
}

func (r *BookingRepository) ListDriverLines(ctx context.Context, db DBTX, bookingID uuid.UUID) ([]DriverLine, error) {
	const query = `
		SELECT id, booking_id, age_band, total_cents
		FROM booking_drivers
		WHERE booking_id = $1
		ORDER BY created_at`

	rows, err := db.Query(ctx, query, bookingID)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list driver lines", err)
	}
	defer rows.Close()

	var lines []DriverLine
	for rows.Next() {
		var (
			l    DriverLine
			band string
		)
		if err := rows.Scan(&l.ID, &l.BookingID, &band, &l.TotalCents); err != nil {
			return nil, infra.WrapRepoErr("failed to scan driver line", err)
		}
		l.AgeBand = pricing.AgeBand(band)
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate driver lines", err)
	}
	return lines, nil
}
