package request

import (
	"time"

	"github.com/google/uuid"
)

type CreateBookingRequest struct {
	Quote            QuoteRequest   `json:"quote" binding:"required"`
	ClientTotalCents int64          `json:"clientTotalCents" binding:"required"`
	Contact          ContactRequest `json:"contact" binding:"required"`
	Notes            string         `json:"notes,omitempty"`
	DeliveryAddress  string         `json:"deliveryAddress,omitempty"`
}

type ContactRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
	Phone string `json:"phone,omitempty"`
}

type ChangeDatesRequest struct {
	StartAt time.Time `json:"startAt" binding:"required"`
	EndAt   time.Time `json:"endAt" binding:"required"`
}

type AddAddOnRequest struct {
	AddOnID  uuid.UUID `json:"addOnId" binding:"required"`
	Quantity int       `json:"quantity" binding:"required,min=1"`
}

type ChangeStatusRequest struct {
	Status string `json:"status" binding:"required"`
}
