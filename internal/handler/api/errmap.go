package api

import (
	"errors"
	"net/http"

	"fleetbook/internal/handler/httperr"
	"fleetbook/internal/pkg/errs"
	"fleetbook/internal/usecase/commands"

	"github.com/gin-gonic/gin"
)

// respondError maps command-layer sentinel errors onto the HTTP surface.
// Anything unmapped is a 500 with no detail leaked.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errs.ErrValidationFailed):
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Validation failed", nil)
	case errors.Is(err, errs.ErrPriceComputationFailed):
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Price could not be computed", nil)
	case errors.Is(err, errs.ErrPriceMismatch):
		// The canonical total rides along so the caller can re-render
		// and resubmit.
		var mismatch *commands.PriceMismatchError
		var detail any
		if errors.As(err, &mismatch) {
			detail = gin.H{"serverTotalCents": mismatch.ServerTotalCents}
		}
		httperr.AbortWithError(c, http.StatusConflict, err, "Quoted price no longer valid", detail)
	case errors.Is(err, errs.ErrVehicleUnavailable):
		httperr.AbortWithError(c, http.StatusConflict, err, "Vehicle unavailable for requested dates", nil)
	case errors.Is(err, errs.ErrBookingNotFound):
		httperr.AbortWithError(c, http.StatusNotFound, err, "Booking not found", nil)
	case errors.Is(err, errs.ErrVehicleNotFound):
		httperr.AbortWithError(c, http.StatusNotFound, err, "Vehicle not found", nil)
	case errors.Is(err, errs.ErrAddOnNotFound):
		httperr.AbortWithError(c, http.StatusNotFound, err, "Add-on not found", nil)
	case errors.Is(err, errs.ErrUnauthorized):
		httperr.AbortWithError(c, http.StatusUnauthorized, err, "Invalid credentials", nil)
	case errors.Is(err, errs.ErrForbidden):
		httperr.AbortWithError(c, http.StatusForbidden, err, "Forbidden", nil)
	case errors.Is(err, errs.ErrOtpInvalid):
		httperr.AbortWithError(c, http.StatusUnauthorized, err, "Invalid code", gin.H{"code": "otp_invalid"})
	case errors.Is(err, errs.ErrOtpExpired):
		httperr.AbortWithError(c, http.StatusGone, err, "Code expired", gin.H{"code": "otp_expired"})
	case errors.Is(err, errs.ErrOtpExhausted):
		httperr.AbortWithError(c, http.StatusTooManyRequests, err, "Too many attempts", gin.H{"code": "otp_exhausted"})
	case errors.Is(err, errs.ErrOtpRateLimited):
		httperr.AbortWithError(c, http.StatusTooManyRequests, err, "Too many requests", gin.H{"code": "otp_rate_limited"})
	case errors.Is(err, errs.ErrInvalidStateTransition):
		httperr.AbortWithError(c, http.StatusConflict, err, "Operation not allowed in current state", nil)
	case errors.Is(err, errs.ErrDepositOperationFailed):
		httperr.AbortWithError(c, http.StatusBadGateway, err, "Payment processor error", nil)
	default:
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
	}
}
