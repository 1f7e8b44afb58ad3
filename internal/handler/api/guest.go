package api

import (
	"errors"
	"net/http"

	reqdto "fleetbook/internal/handler/dto/request"
	resdto "fleetbook/internal/handler/dto/response"
	"fleetbook/internal/handler/httperr"
	"fleetbook/internal/pkg/errs"
	"fleetbook/internal/usecase/commands"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type GuestHandler struct {
	guest commands.GuestCommands
}

func NewGuestHandler(guest commands.GuestCommands) *GuestHandler {
	return &GuestHandler{guest: guest}
}

// IssueOTP always answers 202 on the happy path. The response never says
// whether a code was actually generated; only the contact email learns that.
func (h *GuestHandler) IssueOTP(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid booking ID format", nil)
		return
	}

	if err := h.guest.IssueOTP(c.Request.Context(), bookingID, c.ClientIP()); err != nil {
		// An unknown booking gets the same answer as a real one so the
		// endpoint cannot be used to enumerate booking ids.
		if !errors.Is(err, errs.ErrBookingNotFound) {
			respondError(c, err)
			return
		}
	}

	c.JSON(http.StatusAccepted, gin.H{"message": "If the booking exists, a code has been sent"})
}

func (h *GuestHandler) Verify(c *gin.Context) {
	var req reqdto.VerifyGuestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request format", nil)
		return
	}

	session, err := h.guest.Verify(c.Request.Context(), req.BookingID, req.Code, c.ClientIP())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromGuestSession(session))
}
