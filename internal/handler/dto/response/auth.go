package response

import (
	"time"

	"fleetbook/internal/usecase/commands"

	"github.com/google/uuid"
)

type LoginResponse struct {
	AccessToken string       `json:"accessToken"`
	ExpiresAt   time.Time    `json:"expiresAt"`
	User        UserResponse `json:"user"`
}

type UserResponse struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Role  string    `json:"role"`
}

func FromAuthSession(session *commands.AuthSession) *LoginResponse {
	return &LoginResponse{
		AccessToken: session.Token,
		ExpiresAt:   session.ExpiresAt,
		User: UserResponse{
			ID:    session.User.ID(),
			Email: session.User.Email(),
			Role:  session.User.Role().String(),
		},
	}
}

type GuestSessionResponse struct {
	BookingID   uuid.UUID `json:"bookingId"`
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

func FromGuestSession(session *commands.GuestSession) *GuestSessionResponse {
	return &GuestSessionResponse{
		BookingID:   session.BookingID,
		AccessToken: session.Token,
		ExpiresAt:   session.ExpiresAt,
	}
}
