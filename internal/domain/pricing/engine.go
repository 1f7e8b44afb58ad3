package pricing

import (
	"context"
	"errors"
	"math"
	"time"

	"fleetbook/internal/pkg/config"
	"fleetbook/internal/pkg/errs"

	"github.com/google/uuid"
)

var (
	ErrInvalidPeriod   = errors.New("invalid rental period")
	ErrInvalidAgeBand  = errors.New("invalid driver age band")
	ErrInvalidPlan     = errors.New("invalid protection plan")
	ErrInvalidQuantity = errors.New("invalid add-on quantity")
	ErrNegativeFee     = errors.New("fee cannot be negative")
)

// RateSource resolves every store-backed rate the engine needs. Each lookup is
// fallible and failure propagates: the engine never substitutes a zero rate.
type RateSource interface {
	VehicleDailyRateCents(ctx context.Context, vehicleID uuid.UUID) (int64, error)
	ProtectionDailyRateCents(ctx context.Context, plan ProtectionPlan) (int64, error)
	AddOnRate(ctx context.Context, addOnID uuid.UUID) (*AddOnRate, error)
	DropOffFeeCents(ctx context.Context, pickupLocationID, dropOffLocationID uuid.UUID) (int64, error)
}

// Engine is the single source of truth for booking money amounts. Checkout
// validation, booking persistence, and staff repricing all call into it; no
// other code derives a price.
type Engine struct {
	rates RateSource
	cfg   config.PricingConfig
}

func NewEngine(rates RateSource, cfg config.PricingConfig) *Engine {
	return &Engine{rates: rates, cfg: cfg}
}

// Quote computes the canonical breakdown for a booking request. Deterministic
// for a fixed rate-table state: the only date sensitivity is the explicit
// pickup day used for the weekend surcharge.
func (e *Engine) Quote(ctx context.Context, in QuoteInput) (*Breakdown, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	days := RentalDays(in.StartAt, in.EndAt)

	dailyRate, err := e.rates.VehicleDailyRateCents(ctx, in.VehicleID)
	if err != nil {
		return nil, errs.Wrap(err, "failed to resolve vehicle daily rate")
	}

	b := &Breakdown{
		RentalDays:     days,
		DailyRateCents: dailyRate,
		BaseTotalCents: dailyRate * int64(days),
	}

	if isWeekendPickup(in.StartAt) {
		b.WeekendSurchargeCents = roundRate(b.BaseTotalCents, e.cfg.WeekendSurchargeRate)
	}
	afterSurcharge := b.BaseTotalCents + b.WeekendSurchargeCents

	// Duration discounts are mutually exclusive; the higher threshold wins
	// and applies to the surcharged amount.
	switch {
	case days >= e.cfg.MonthlyDiscountDays:
		b.DurationDiscountCents = roundRate(afterSurcharge, e.cfg.MonthlyDiscountRate)
	case days >= e.cfg.WeeklyDiscountDays:
		b.DurationDiscountCents = roundRate(afterSurcharge, e.cfg.WeeklyDiscountRate)
	}
	b.VehicleTotalCents = afterSurcharge - b.DurationDiscountCents

	plan := in.ProtectionPlan
	if plan == "" {
		plan = ProtectionNone
	}
	protectionDaily, err := e.rates.ProtectionDailyRateCents(ctx, plan)
	if err != nil {
		return nil, errs.Wrap(err, "failed to resolve protection plan rate")
	}
	b.ProtectionTotalCents = protectionDaily * int64(days)

	for _, sel := range in.AddOns {
		rate, err := e.rates.AddOnRate(ctx, sel.ID)
		if err != nil {
			return nil, errs.Wrap(err, "failed to resolve add-on rate")
		}
		charge := addOnCharge(rate, sel.Quantity, days)
		b.AddOns = append(b.AddOns, charge)
		b.AddOnsTotalCents += charge.TotalCents
	}

	for _, d := range in.AdditionalDrivers {
		charge := DriverCharge{
			AgeBand:    d.AgeBand,
			TotalCents: e.AdditionalDriverFeeCents(d.AgeBand, days),
		}
		b.AdditionalDrivers = append(b.AdditionalDrivers, charge)
		b.AdditionalDriversCents += charge.TotalCents
	}

	if in.DriverAgeBand == AgeBandYoung {
		b.YoungDriverSurchargeCents = e.cfg.YoungDriverDailyCents * int64(days)
	}

	b.RegulatoryFeesCents = (e.cfg.RoadSafetyFeeCents + e.cfg.EnvironmentalFeeCents) * int64(days)

	if in.DeliveryFeeCents != nil {
		if *in.DeliveryFeeCents < 0 {
			return nil, ErrNegativeFee
		}
		b.DeliveryFeeCents = *in.DeliveryFeeCents
	}

	if in.DropOffLocationID != uuid.Nil && in.DropOffLocationID != in.PickupLocationID {
		fee, err := e.rates.DropOffFeeCents(ctx, in.PickupLocationID, in.DropOffLocationID)
		if err != nil {
			return nil, errs.Wrap(err, "failed to resolve drop-off fee")
		}
		b.DropOffFeeCents = fee
	}

	b.SubtotalCents = b.VehicleTotalCents +
		b.ProtectionTotalCents +
		b.AddOnsTotalCents +
		b.AdditionalDriversCents +
		b.YoungDriverSurchargeCents +
		b.RegulatoryFeesCents +
		b.DeliveryFeeCents +
		b.DropOffFeeCents

	// The two tax components are each rounded to the cent before summing.
	b.TaxCents = roundRate(b.SubtotalCents, e.cfg.TaxRatePrimary) +
		roundRate(b.SubtotalCents, e.cfg.TaxRateSecondary)
	b.TotalCents = b.SubtotalCents + b.TaxCents

	b.DepositCents = b.TotalCents
	if e.cfg.DepositMinimumCents > b.DepositCents {
		b.DepositCents = e.cfg.DepositMinimumCents
	}

	return b, nil
}

// PriceAddOn resolves and prices a single add-on line, exactly as Quote
// would. Staff upsells on an existing booking go through here.
func (e *Engine) PriceAddOn(ctx context.Context, addOnID uuid.UUID, quantity, days int) (AddOnCharge, error) {
	if quantity < 1 {
		return AddOnCharge{}, ErrInvalidQuantity
	}
	rate, err := e.rates.AddOnRate(ctx, addOnID)
	if err != nil {
		return AddOnCharge{}, errs.Wrap(err, "failed to resolve add-on rate")
	}
	return addOnCharge(rate, quantity, days), nil
}

// AdditionalDriverFeeCents is exposed so child-row persistence uses the exact
// same per-driver amount the quote did.
func (e *Engine) AdditionalDriverFeeCents(band AgeBand, days int) int64 {
	daily := e.cfg.AdditionalDriverDaily
	if band == AgeBandYoung {
		daily = e.cfg.AdditionalDriverYoung
	}
	return daily * int64(days)
}

// ToleranceCents is the fixed window absorbing client-side rounding drift.
func (e *Engine) ToleranceCents() int64 {
	return e.cfg.PriceToleranceCents
}

// RentalDays is the ceiling of the elapsed time over 24h blocks, minimum 1.
func RentalDays(start, end time.Time) int {
	elapsed := end.Sub(start)
	days := int(math.Ceil(elapsed.Hours() / 24))
	if days < 1 {
		days = 1
	}
	return days
}

func addOnCharge(rate *AddOnRate, quantity, days int) AddOnCharge {
	c := AddOnCharge{
		AddOnID:      rate.ID,
		Name:         rate.Name,
		Quantity:     quantity,
		DailyCents:   rate.DailyCents,
		OneTimeCents: rate.OneTimeCents,
	}
	if rate.OneTimeOnly {
		c.DailyCents = 0
		c.TotalCents = rate.OneTimeCents * int64(quantity)
		return c
	}
	c.TotalCents = rate.DailyCents*int64(days)*int64(quantity) + rate.OneTimeCents*int64(quantity)
	return c
}

func validateInput(in QuoteInput) error {
	if in.VehicleID == uuid.Nil {
		return errs.Wrap(ErrInvalidPeriod, "vehicle id required")
	}
	if !in.EndAt.After(in.StartAt) {
		return ErrInvalidPeriod
	}
	if !in.DriverAgeBand.IsValid() {
		return ErrInvalidAgeBand
	}
	if in.ProtectionPlan != "" && !in.ProtectionPlan.IsValid() {
		return ErrInvalidPlan
	}
	for _, sel := range in.AddOns {
		if sel.Quantity < 1 {
			return ErrInvalidQuantity
		}
	}
	for _, d := range in.AdditionalDrivers {
		if !d.AgeBand.IsValid() {
			return ErrInvalidAgeBand
		}
	}
	return nil
}

func isWeekendPickup(start time.Time) bool {
	switch start.Weekday() {
	case time.Friday, time.Saturday, time.Sunday:
		return true
	default:
		return false
	}
}

// roundRate applies a percentage rate to a cent amount and rounds to the cent
// immediately, which is required for exact reproducibility of reference
// amounts.
func roundRate(cents int64, rate float64) int64 {
	return int64(math.Round(float64(cents) * rate))
}
