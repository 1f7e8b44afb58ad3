package pricing

import (
	"time"

	"github.com/google/uuid"
)

type AgeBand string

const (
	AgeBandStandard AgeBand = "standard"
	AgeBandYoung    AgeBand = "young"
)

func (a AgeBand) IsValid() bool {
	switch a {
	case AgeBandStandard, AgeBandYoung:
		return true
	default:
		return false
	}
}

type ProtectionPlan string

const (
	ProtectionNone     ProtectionPlan = "none"
	ProtectionBasic    ProtectionPlan = "basic"
	ProtectionStandard ProtectionPlan = "standard"
	ProtectionPremium  ProtectionPlan = "premium"
)

func (p ProtectionPlan) IsValid() bool {
	switch p {
	case ProtectionNone, ProtectionBasic, ProtectionStandard, ProtectionPremium:
		return true
	default:
		return false
	}
}

// fallbackProtectionDailyCents backs the settings table: a missing row falls
// back here, an unknown plan is an error (fail-closed).
var fallbackProtectionDailyCents = map[ProtectionPlan]int64{
	ProtectionNone:     0,
	ProtectionBasic:    1200,
	ProtectionStandard: 2200,
	ProtectionPremium:  3500,
}

// FallbackProtectionDailyCents returns the hard-coded daily rate for a plan.
func FallbackProtectionDailyCents(plan ProtectionPlan) (int64, bool) {
	cents, ok := fallbackProtectionDailyCents[plan]
	return cents, ok
}

type AddOnSelection struct {
	ID       uuid.UUID
	Quantity int
}

type AdditionalDriver struct {
	AgeBand AgeBand
}

// QuoteInput is the full pricing request shape. Every rate referenced here is
// resolved through the RateSource at quote time; nothing monetary is trusted
// from the caller except the optional pass-through delivery fee, which the
// caller's own fee-group lookup has already produced server-side.
type QuoteInput struct {
	VehicleID         uuid.UUID
	StartAt           time.Time
	EndAt             time.Time
	DriverAgeBand     AgeBand
	ProtectionPlan    ProtectionPlan
	AddOns            []AddOnSelection
	AdditionalDrivers []AdditionalDriver
	DeliveryFeeCents  *int64
	PickupLocationID  uuid.UUID
	DropOffLocationID uuid.UUID
}

// AddOnRate is what the rate repository resolves for one add-on.
type AddOnRate struct {
	ID           uuid.UUID
	Name         string
	DailyCents   int64
	OneTimeCents int64
	// OneTimeOnly marks fuel-type add-ons (prepaid tank etc.) that never
	// accrue a daily charge.
	OneTimeOnly bool
}

type AddOnCharge struct {
	AddOnID      uuid.UUID `json:"addOnId"`
	Name         string    `json:"name"`
	Quantity     int       `json:"quantity"`
	DailyCents   int64     `json:"dailyCents"`
	OneTimeCents int64     `json:"oneTimeCents"`
	TotalCents   int64     `json:"totalCents"`
}

type DriverCharge struct {
	AgeBand    AgeBand `json:"ageBand"`
	TotalCents int64   `json:"totalCents"`
}

// Breakdown is the canonical, cent-rounded price decomposition. Every field is
// server-computed; no client value ever lands here.
type Breakdown struct {
	RentalDays                int            `json:"rentalDays"`
	DailyRateCents            int64          `json:"dailyRateCents"`
	BaseTotalCents            int64          `json:"baseTotalCents"`
	WeekendSurchargeCents     int64          `json:"weekendSurchargeCents"`
	DurationDiscountCents     int64          `json:"durationDiscountCents"`
	VehicleTotalCents         int64          `json:"vehicleTotalCents"`
	ProtectionTotalCents      int64          `json:"protectionTotalCents"`
	AddOns                    []AddOnCharge  `json:"addOns"`
	AddOnsTotalCents          int64          `json:"addOnsTotalCents"`
	AdditionalDrivers         []DriverCharge `json:"additionalDrivers"`
	AdditionalDriversCents    int64          `json:"additionalDriversCents"`
	YoungDriverSurchargeCents int64          `json:"youngDriverSurchargeCents"`
	RegulatoryFeesCents       int64          `json:"regulatoryFeesCents"`
	DeliveryFeeCents          int64          `json:"deliveryFeeCents"`
	DropOffFeeCents           int64          `json:"dropOffFeeCents"`
	SubtotalCents             int64          `json:"subtotalCents"`
	TaxCents                  int64          `json:"taxCents"`
	TotalCents                int64          `json:"totalCents"`
	DepositCents              int64          `json:"depositCents"`
}
