package response

import (
	"time"

	"fleetbook/internal/usecase/queries"

	"github.com/google/uuid"
)

type BookingResponse struct {
	ID                uuid.UUID               `json:"id"`
	Reference         string                  `json:"reference"`
	CustomerID        *uuid.UUID              `json:"customerId,omitempty"`
	VehicleID         uuid.UUID               `json:"vehicleId"`
	VehicleName       string                  `json:"vehicleName"`
	PickupLocation    string                  `json:"pickupLocation"`
	DropOffLocation   string                  `json:"dropOffLocation"`
	StartAt           time.Time               `json:"startAt"`
	EndAt             time.Time               `json:"endAt"`
	DriverAgeBand     string                  `json:"driverAgeBand"`
	ProtectionPlan    string                  `json:"protectionPlan"`
	ContactName       string                  `json:"contactName"`
	ContactEmail      string                  `json:"contactEmail"`
	ContactPhone      string                  `json:"contactPhone,omitempty"`
	Notes             *string                 `json:"notes,omitempty"`
	DeliveryAddress   *string                 `json:"deliveryAddress,omitempty"`
	DailyRateCents    int64                   `json:"dailyRateCents"`
	SubtotalCents     int64                   `json:"subtotalCents"`
	TaxCents          int64                   `json:"taxCents"`
	TotalCents        int64                   `json:"totalCents"`
	DepositCents      int64                   `json:"depositCents"`
	Status            string                  `json:"status"`
	DepositStatus     string                  `json:"depositStatus"`
	AddOns            []BookingAddOnResponse  `json:"addOns"`
	AdditionalDrivers []BookingDriverResponse `json:"additionalDrivers"`
	CreatedAt         time.Time               `json:"createdAt"`
	UpdatedAt         time.Time               `json:"updatedAt"`
}

type BookingAddOnResponse struct {
	AddOnID    uuid.UUID `json:"addOnId"`
	Name       string    `json:"name"`
	Quantity   int       `json:"quantity"`
	TotalCents int64     `json:"totalCents"`
}

type BookingDriverResponse struct {
	AgeBand    string `json:"ageBand"`
	TotalCents int64  `json:"totalCents"`
}

func FromBookingView(v *queries.BookingView) *BookingResponse {
	resp := &BookingResponse{
		ID:              v.ID,
		Reference:       v.Reference,
		CustomerID:      v.CustomerID,
		VehicleID:       v.VehicleID,
		VehicleName:     v.VehicleName,
		PickupLocation:  v.PickupLocation,
		DropOffLocation: v.DropOffLocation,
		StartAt:         v.StartAt,
		EndAt:           v.EndAt,
		DriverAgeBand:   v.DriverAgeBand,
		ProtectionPlan:  v.ProtectionPlan,
		ContactName:     v.ContactName,
		ContactEmail:    v.ContactEmail,
		ContactPhone:    v.ContactPhone,
		Notes:           v.Notes,
		DeliveryAddress: v.DeliveryAddress,
		DailyRateCents:  v.DailyRateCents,
		SubtotalCents:   v.SubtotalCents,
		TaxCents:        v.TaxCents,
		TotalCents:      v.TotalCents,
		DepositCents:    v.DepositCents,
		Status:          v.Status,
		DepositStatus:   v.DepositStatus,
		AddOns:          make([]BookingAddOnResponse, 0, len(v.AddOns)),
		AdditionalDrivers: make([]BookingDriverResponse, 0,
			len(v.AdditionalDrivers)),
		CreatedAt: v.CreatedAt,
		UpdatedAt: v.UpdatedAt,
	}
	for _, a := range v.AddOns {
		resp.AddOns = append(resp.AddOns, BookingAddOnResponse{
			AddOnID:    a.AddOnID,
			Name:       a.Name,
			Quantity:   a.Quantity,
			TotalCents: a.TotalCents,
		})
	}
	for _, d := range v.AdditionalDrivers {
		resp.AdditionalDrivers = append(resp.AdditionalDrivers, BookingDriverResponse{
			AgeBand:    d.AgeBand,
			TotalCents: d.TotalCents,
		})
	}
	return resp
}

type LedgerEntryResponse struct {
	ID          uuid.UUID `json:"id"`
	Type        string    `json:"type"`
	AmountCents int64     `json:"amountCents"`
	Actor       string    `json:"actor"`
	Reason      string    `json:"reason"`
	ExternalRef string    `json:"externalRef,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

func FromLedgerEntryView(v *queries.LedgerEntryView) *LedgerEntryResponse {
	return &LedgerEntryResponse{
		ID:          v.ID,
		Type:        v.Type,
		AmountCents: v.AmountCents,
		Actor:       v.Actor,
		Reason:      v.Reason,
		ExternalRef: v.ExternalRef,
		CreatedAt:   v.CreatedAt,
	}
}
