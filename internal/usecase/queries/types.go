package queries

import (
	"time"

	"github.com/google/uuid"
)

// BookingView is the read model returned to API callers. It mirrors persisted
// state; nothing here is recomputed at read time.
type BookingView struct {
	ID                uuid.UUID
	Reference         string
	CustomerID        *uuid.UUID
	VehicleID         uuid.UUID
	VehicleName       string
	PickupLocation    string
	DropOffLocation   string
	StartAt           time.Time
	EndAt             time.Time
	DriverAgeBand     string
	ProtectionPlan    string
	ContactName       string
	ContactEmail      string
	ContactPhone      string
	Notes             *string
	DeliveryAddress   *string
	DailyRateCents    int64
	SubtotalCents     int64
	TaxCents          int64
	TotalCents        int64
	DepositCents      int64
	Status            string
	DepositStatus     string
	AddOns            []BookingAddOnView
	AdditionalDrivers []BookingDriverView
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type BookingAddOnView struct {
	AddOnID    uuid.UUID
	Name       string
	Quantity   int
	TotalCents int64
}

type BookingDriverView struct {
	AgeBand    string
	TotalCents int64
}

// LedgerEntryView is one append-only deposit ledger row.
type LedgerEntryView struct {
	ID          uuid.UUID
	Type        string
	AmountCents int64
	Actor       string
	Reason      string
	ExternalRef string
	CreatedAt   time.Time
}
