package repository

import (
	"context"
	"strconv"

	"fleetbook/internal/domain/pricing"
	"fleetbook/internal/infra"
	"fleetbook/internal/pkg/pgconv"

	"github.com/google/uuid"
)

// RateRepository is the read-only rate source behind the pricing engine.
// Every lookup is fallible; the engine treats any failure as
// price-computation failure rather than defaulting to zero.
type RateRepository struct {
	db DBTX
}

func NewRateRepository(db DBTX) *RateRepository {
	return &RateRepository{db: db}
}

func (r *RateRepository) VehicleDailyRateCents(ctx context.Context, vehicleID uuid.UUID) (int64, error) {
	const query = `
		SELECT daily_rate_cents
		FROM vehicles
		WHERE id = $1 AND active`

	var cents int64
	err := r.db.QueryRow(ctx, query, vehicleID).Scan(&cents)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return 0, infra.WrapRepoErr("vehicle not found", err, infra.KindNotFound)
		}
		return 0, infra.WrapRepoErr("failed to read vehicle daily rate", err)
	}
	return cents, nil
}

// ProtectionDailyRateCents resolves the plan rate from the settings table and
// falls back to the hard-coded plan table when no row exists. An unknown plan
// is an error either way.
func (r *RateRepository) ProtectionDailyRateCents(ctx context.Context, plan pricing.ProtectionPlan) (int64, error) {
	const query = `
		SELECT value
		FROM system_settings
		WHERE key = $1`

	var raw string
	err := r.db.QueryRow(ctx, query, "protection_daily_cents_"+string(plan)).Scan(&raw)
	if err != nil {
		if pgconv.IsNoRows(err) {
			cents, ok := pricing.FallbackProtectionDailyCents(plan)
			if !ok {
				return 0, infra.WrapRepoErr("unknown protection plan", err, infra.KindNotFound)
			}
			return cents, nil
		}
		return 0, infra.WrapRepoErr("failed to read protection rate setting", err)
	}

	cents, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, infra.WrapRepoErr("malformed protection rate setting", err)
	}
	return cents, nil
}

func (r *RateRepository) AddOnRate(ctx context.Context, addOnID uuid.UUID) (*pricing.AddOnRate, error) {
	const query = `
		SELECT id, name, daily_cents, one_time_cents, kind
		FROM add_ons
		WHERE id = $1 AND active`

	var (
		rate pricing.AddOnRate
		kind string
	)
	err := r.db.QueryRow(ctx, query, addOnID).Scan(&rate.ID, &rate.Name, &rate.DailyCents, &rate.OneTimeCents, &kind)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("add-on not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to read add-on rate", err)
	}
	rate.OneTimeOnly = kind == "fuel"
	return &rate, nil
}

// DropOffFeeCents looks up the surcharge between the two locations' fee
// groups. Locations in the same group drop off free.
func (r *RateRepository) DropOffFeeCents(ctx context.Context, pickupLocationID, dropOffLocationID uuid.UUID) (int64, error) {
	const query = `
		SELECT COALESCE(f.fee_cents, 0)
		FROM locations p
		JOIN locations d ON d.id = $2
		LEFT JOIN fee_group_rules f
		  ON f.pickup_group = p.fee_group AND f.dropoff_group = d.fee_group
		WHERE p.id = $1`

	var cents int64
	err := r.db.QueryRow(ctx, query, pickupLocationID, dropOffLocationID).Scan(&cents)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return 0, infra.WrapRepoErr("location not found", err, infra.KindNotFound)
		}
		return 0, infra.WrapRepoErr("failed to read drop-off fee", err)
	}
	return cents, nil
}
