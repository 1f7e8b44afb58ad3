package errs

import "errors"

// Sentinel errors for the usecase layers. Handlers map these to HTTP
// statuses; nothing below the handler layer knows about status codes.
var (
	// Validation
	ErrValidationFailed = errors.New("validation failed")

	// Pricing
	ErrPriceMismatch          = errors.New("price mismatch")
	ErrPriceComputationFailed = errors.New("price computation failed")

	// Booking
	ErrBookingNotFound    = errors.New("booking not found")
	ErrVehicleUnavailable = errors.New("vehicle unavailable")
	ErrVehicleNotFound    = errors.New("vehicle not found")
	ErrAddOnNotFound      = errors.New("add-on not found")

	// Authorization
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Guest access
	ErrOtpInvalid     = errors.New("otp invalid")
	ErrOtpExpired     = errors.New("otp expired")
	ErrOtpExhausted   = errors.New("otp attempts exhausted")
	ErrOtpRateLimited = errors.New("otp verification rate limited")

	// Deposit
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrDepositOperationFailed = errors.New("deposit operation failed")

	// Operation
	ErrDatabaseOperationFailed = errors.New("database operation failed")
)
