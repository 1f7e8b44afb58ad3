package request

import (
	"github.com/google/uuid"
)

type VerifyGuestRequest struct {
	BookingID uuid.UUID `json:"bookingId" binding:"required"`
	Code      string    `json:"code" binding:"required,len=6"`
}
