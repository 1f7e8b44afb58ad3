package readstore

import (
	"context"
	"time"

	"fleetbook/internal/infra"
	"fleetbook/internal/infra/repository"
	"fleetbook/internal/pkg/pgconv"
	"fleetbook/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type BookingReadStore struct {
	db repository.DBTX
}

func NewBookingReadStore(db repository.DBTX) *BookingReadStore {
	return &BookingReadStore{db: db}
}

func (r *BookingReadStore) FindByID(ctx context.Context, id uuid.UUID) (*queries.BookingView, error) {
	const query = `
		SELECT b.id, b.reference, b.customer_id, b.vehicle_id, v.name,
		       pl.name, dl.name,
		       b.start_at, b.end_at, b.driver_age_band, b.protection_plan,
		       b.contact_name, b.contact_email, b.contact_phone, b.notes, b.delivery_address,
		       b.daily_rate_cents, b.subtotal_cents, b.tax_cents, b.total_cents, b.deposit_cents,
		       b.status, b.deposit_status, b.created_at, b.updated_at
		FROM bookings b
		JOIN vehicles v ON v.id = b.vehicle_id
		JOIN locations pl ON pl.id = b.pickup_location_id
		JOIN locations dl ON dl.id = b.dropoff_location_id
		WHERE b.id = $1`

	var (
		view           queries.BookingView
		customerID     pgtype.UUID
		notes, address string
	)
	err := r.db.QueryRow(ctx, query, id).Scan(
		&view.ID, &view.Reference, &customerID, &view.VehicleID, &view.VehicleName,
		&view.PickupLocation, &view.DropOffLocation,
		&view.StartAt, &view.EndAt, &view.DriverAgeBand, &view.ProtectionPlan,
		&view.ContactName, &view.ContactEmail, &view.ContactPhone, &notes, &address,
		&view.DailyRateCents, &view.SubtotalCents, &view.TaxCents, &view.TotalCents, &view.DepositCents,
		&view.Status, &view.DepositStatus, &view.CreatedAt, &view.UpdatedAt,
	)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("booking not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find booking view", err)
	}
	view.CustomerID = pgconv.UUIDPtrFromPgtype(customerID)
	if notes != "" {
		view.Notes = &notes
	}
	if address != "" {
		view.DeliveryAddress = &address
	}

	if err := r.loadChildRows(ctx, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

func (r *BookingReadStore) loadChildRows(ctx context.Context, view *queries.BookingView) error {
	const addOnQuery = `
		SELECT add_on_id, name, quantity, total_cents
		FROM booking_add_ons
		WHERE booking_id = $1
		ORDER BY created_at`

	rows, err := r.db.Query(ctx, addOnQuery, view.ID)
	if err != nil {
		return infra.WrapRepoErr("failed to list booking add-ons", err)
	}
	defer rows.Close()
	for rows.Next() {
		var a queries.BookingAddOnView
		if err := rows.Scan(&a.AddOnID, &a.Name, &a.Quantity, &a.TotalCents); err != nil {
			return infra.WrapRepoErr("failed to scan booking add-on", err)
		}
		view.AddOns = append(view.AddOns, a)
	}
	if err := rows.Err(); err != nil {
		return infra.WrapRepoErr("failed to iterate booking add-ons", err)
	}

	const driverQuery = `
		SELECT age_band, total_cents
		FROM booking_drivers
		WHERE booking_id = $1
		ORDER BY created_at`

	driverRows, err := r.db.Query(ctx, driverQuery, view.ID)
	if err != nil {
		return infra.WrapRepoErr("failed to list booking drivers", err)
	}
	defer driverRows.Close()
	for driverRows.Next() {
		var d queries.BookingDriverView
		if err := driverRows.Scan(&d.AgeBand, &d.TotalCents); err != nil {
			return infra.WrapRepoErr("failed to scan booking driver", err)
		}
		view.AdditionalDrivers = append(view.AdditionalDrivers, d)
	}
	return driverRows.Err()
}

func (r *BookingReadStore) ListLedger(ctx context.Context, bookingID uuid.UUID) ([]*queries.LedgerEntryView, error) {
	const query = `
		SELECT id, entry_type, amount_cents, actor, reason, external_ref, created_at
		FROM deposit_ledger
		WHERE booking_id = $1
		ORDER BY created_at`

	rows, err := r.db.Query(ctx, query, bookingID)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list ledger views", err)
	}
	defer rows.Close()

	var entries []*queries.LedgerEntryView
	for rows.Next() {
		var (
			e         queries.LedgerEntryView
			createdAt time.Time
		)
		if err := rows.Scan(&e.ID, &e.Type, &e.AmountCents, &e.Actor, &e.Reason, &e.ExternalRef, &createdAt); err != nil {
			return nil, infra.WrapRepoErr("failed to scan ledger view", err)
		}
		e.CreatedAt = createdAt
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate ledger views", err)
	}
	return entries, nil
}
