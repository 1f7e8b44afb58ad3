package request

import (
	"time"

	"fleetbook/internal/domain/pricing"

	"github.com/google/uuid"
)

type QuoteRequest struct {
	VehicleID         uuid.UUID                 `json:"vehicleId" binding:"required"`
	StartAt           time.Time                 `json:"startAt" binding:"required"`
	EndAt             time.Time                 `json:"endAt" binding:"required"`
	DriverAgeBand     string                    `json:"driverAgeBand" binding:"required"`
	ProtectionPlan    string                    `json:"protectionPlan,omitempty"`
	AddOns            []AddOnSelectionRequest   `json:"addOns,omitempty"`
	AdditionalDrivers []AdditionalDriverRequest `json:"additionalDrivers,omitempty"`
	DeliveryFeeCents  *int64                    `json:"deliveryFeeCents,omitempty"`
	PickupLocationID  uuid.UUID                 `json:"pickupLocationId" binding:"required"`
	DropOffLocationID uuid.UUID                 `json:"dropOffLocationId,omitempty"`
}

type AddOnSelectionRequest struct {
	ID       uuid.UUID `json:"id" binding:"required"`
	Quantity int       `json:"quantity" binding:"required,min=1"`
}

type AdditionalDriverRequest struct {
	AgeBand string `json:"ageBand" binding:"required"`
}

func (r QuoteRequest) ToDomain() pricing.QuoteInput {
	input := pricing.QuoteInput{
		VehicleID:         r.VehicleID,
		StartAt:           r.StartAt,
		EndAt:             r.EndAt,
		DriverAgeBand:     pricing.AgeBand(r.DriverAgeBand),
		ProtectionPlan:    pricing.ProtectionPlan(r.ProtectionPlan),
		DeliveryFeeCents:  r.DeliveryFeeCents,
		PickupLocationID:  r.PickupLocationID,
		DropOffLocationID: r.DropOffLocationID,
	}
	for _, a := range r.AddOns {
		input.AddOns = append(input.AddOns, pricing.AddOnSelection{ID: a.ID, Quantity: a.Quantity})
	}
	for _, d := range r.AdditionalDrivers {
		input.AdditionalDrivers = append(input.AdditionalDrivers, pricing.AdditionalDriver{AgeBand: pricing.AgeBand(d.AgeBand)})
	}
	return input
}

type ValidatePriceRequest struct {
	QuoteRequest
	ClientTotalCents int64 `json:"clientTotalCents" binding:"required"`
}
