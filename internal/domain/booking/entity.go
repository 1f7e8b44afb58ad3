package booking

import (
	"errors"
	"strings"
	"time"

	"fleetbook/internal/domain/pricing"

	"github.com/google/uuid"
)

var (
	ErrInvalidStatus           = errors.New("invalid booking status")
	ErrInvalidStatusTransition = errors.New("invalid booking status transition")
)

// Booking is one reservation. All money fields come from the pricing engine's
// breakdown; there is no constructor path that accepts a caller-supplied
// amount.
type Booking struct {
	id                uuid.UUID
	reference         string
	customerID        *uuid.UUID
	vehicleID         uuid.UUID
	pickupLocationID  uuid.UUID
	dropOffLocationID uuid.UUID
	period            Period
	driverAgeBand     pricing.AgeBand
	protectionPlan    pricing.ProtectionPlan
	contact           Contact
	notes             Notes
	deliveryAddress   string

	dailyRateCents   int64
	deliveryFeeCents int64
	subtotalCents    int64
	taxCents         int64
	totalCents       int64
	depositCents     int64

	status             Status
	depositStatus      DepositStatus
	depositExternalRef *string

	createdAt time.Time
	updatedAt time.Time
}

// NewBooking builds a pending booking from the canonical breakdown. customerID
// is nil for guest checkouts; they authenticate later through a one-time code.
func NewBooking(
	customerID *uuid.UUID,
	vehicleID, pickupLocationID, dropOffLocationID uuid.UUID,
	period Period,
	driverAgeBand pricing.AgeBand,
	protectionPlan pricing.ProtectionPlan,
	contact Contact,
	notes Notes,
	deliveryAddress string,
	breakdown *pricing.Breakdown,
) (*Booking, error) {
	deliveryAddress = strings.TrimSpace(deliveryAddress)
	if len(deliveryAddress) > MaxAddressLength {
		return nil, ErrAddressTooLong
	}

	return &Booking{
		id:                uuid.New(),
		reference:         NewReference(),
		customerID:        customerID,
		vehicleID:         vehicleID,
		pickupLocationID:  pickupLocationID,
		dropOffLocationID: dropOffLocationID,
		period:            period,
		driverAgeBand:     driverAgeBand,
		protectionPlan:    protectionPlan,
		contact:           contact,
		notes:             notes,
		deliveryAddress:   deliveryAddress,
		dailyRateCents:    breakdown.DailyRateCents,
		deliveryFeeCents:  breakdown.DeliveryFeeCents,
		subtotalCents:     breakdown.SubtotalCents,
		taxCents:          breakdown.TaxCents,
		totalCents:        breakdown.TotalCents,
		depositCents:      breakdown.DepositCents,
		status:            StatusPending,
		depositStatus:     DepositNone,
	}, nil
}

func ReconstructBooking(
	id uuid.UUID,
	reference string,
	customerID *uuid.UUID,
	vehicleID, pickupLocationID, dropOffLocationID uuid.UUID,
	period Period,
	driverAgeBand pricing.AgeBand,
	protectionPlan pricing.ProtectionPlan,
	contact Contact,
	notes Notes,
	deliveryAddress string,
	dailyRateCents, deliveryFeeCents, subtotalCents, taxCents, totalCents, depositCents int64,
	status Status,
	depositStatus DepositStatus,
	depositExternalRef *string,
	createdAt, updatedAt time.Time,
) *Booking {
	return &Booking{
		id:                 id,
		reference:          reference,
		customerID:         customerID,
		vehicleID:          vehicleID,
		pickupLocationID:   pickupLocationID,
		dropOffLocationID:  dropOffLocationID,
		period:             period,
		driverAgeBand:      driverAgeBand,
		protectionPlan:     protectionPlan,
		contact:            contact,
		notes:              notes,
		deliveryAddress:    deliveryAddress,
		dailyRateCents:     dailyRateCents,
		deliveryFeeCents:   deliveryFeeCents,
		subtotalCents:      subtotalCents,
		taxCents:           taxCents,
		totalCents:         totalCents,
		depositCents:       depositCents,
		status:             status,
		depositStatus:      depositStatus,
		depositExternalRef: depositExternalRef,
		createdAt:          createdAt,
		updatedAt:          updatedAt,
	}
}

func (b *Booking) ID() uuid.UUID                { return b.id }
func (b *Booking) Reference() string            { return b.reference }
func (b *Booking) CustomerID() *uuid.UUID       { return b.customerID }
func (b *Booking) VehicleID() uuid.UUID         { return b.vehicleID }
func (b *Booking) PickupLocationID() uuid.UUID  { return b.pickupLocationID }
func (b *Booking) DropOffLocationID() uuid.UUID { return b.dropOffLocationID }
func (b *Booking) Period() Period               { return b.period }
func (b *Booking) DriverAgeBand() pricing.AgeBand {
	return b.driverAgeBand
}
func (b *Booking) ProtectionPlan() pricing.ProtectionPlan {
	return b.protectionPlan
}
func (b *Booking) Contact() Contact             { return b.contact }
func (b *Booking) Notes() Notes                 { return b.notes }
func (b *Booking) DeliveryAddress() string      { return b.deliveryAddress }
func (b *Booking) DailyRateCents() int64        { return b.dailyRateCents }
func (b *Booking) DeliveryFeeCents() int64      { return b.deliveryFeeCents }
func (b *Booking) SubtotalCents() int64         { return b.subtotalCents }
func (b *Booking) TaxCents() int64              { return b.taxCents }
func (b *Booking) TotalCents() int64            { return b.totalCents }
func (b *Booking) DepositCents() int64          { return b.depositCents }
func (b *Booking) Status() Status               { return b.status }
func (b *Booking) DepositStatus() DepositStatus { return b.depositStatus }
func (b *Booking) DepositExternalRef() *string  { return b.depositExternalRef }
func (b *Booking) CreatedAt() time.Time         { return b.createdAt }
func (b *Booking) UpdatedAt() time.Time         { return b.updatedAt }

// IsOwnedBy reports authenticated ownership. A nil customer id (guest
// checkout) is owned by nobody; guests go through code verification.
func (b *Booking) IsOwnedBy(userID uuid.UUID) bool {
	return b.customerID != nil && *b.customerID == userID
}

// DepositReleasable gates releases on lifecycle status: a rental that could
// still generate damage or late charges keeps its hold.
func (b *Booking) DepositReleasable() bool {
	return b.status == StatusCompleted || b.status == StatusVoided
}
