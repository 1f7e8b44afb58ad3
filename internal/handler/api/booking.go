package api

import (
	"net/http"

	"fleetbook/internal/domain/booking"
	reqdto "fleetbook/internal/handler/dto/request"
	resdto "fleetbook/internal/handler/dto/response"
	"fleetbook/internal/handler/httperr"
	"fleetbook/internal/handler/middleware"
	"fleetbook/internal/pkg/errs"
	"fleetbook/internal/usecase/commands"
	"fleetbook/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type BookingHandler struct {
	bookings commands.BookingCommands
	queries  queries.BookingQueries
}

func NewBookingHandler(bookings commands.BookingCommands, bookingQueries queries.BookingQueries) *BookingHandler {
	return &BookingHandler{
		bookings: bookings,
		queries:  bookingQueries,
	}
}

func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req reqdto.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request format", nil)
		return
	}

	params := commands.CheckoutParams{
		Quote:            req.Quote.ToDomain(),
		ClientTotalCents: req.ClientTotalCents,
		ContactName:      req.Contact.Name,
		ContactEmail:     req.Contact.Email,
		ContactPhone:     req.Contact.Phone,
		Notes:            req.Notes,
		DeliveryAddress:  req.DeliveryAddress,
	}
	if userID, ok := middleware.GetUserID(c); ok {
		params.CustomerID = &userID
	}

	created, err := h.bookings.Checkout(c.Request.Context(), params)
	if err != nil {
		respondError(c, err)
		return
	}

	view, err := h.queries.GetBooking(c.Request.Context(), created.ID())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resdto.FromBookingView(view))
}

func (h *BookingHandler) GetBooking(c *gin.Context) {
	bookingID, ok := h.bookingIDParam(c)
	if !ok {
		return
	}

	view, err := h.queries.GetBooking(c.Request.Context(), bookingID)
	if err != nil {
		respondError(c, err)
		return
	}

	if !canAccessBooking(c, view) {
		respondError(c, errs.Mark(errs.New("not the booking's owner"), errs.ErrForbidden))
		return
	}
	c.JSON(http.StatusOK, resdto.FromBookingView(view))
}

func (h *BookingHandler) ChangeDates(c *gin.Context) {
	bookingID, ok := h.bookingIDParam(c)
	if !ok {
		return
	}

	var req reqdto.ChangeDatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request format", nil)
		return
	}

	if _, err := h.bookings.ChangeDates(c.Request.Context(), bookingID, req.StartAt, req.EndAt); err != nil {
		respondError(c, err)
		return
	}
	h.respondWithView(c, bookingID)
}

func (h *BookingHandler) ChangeStatus(c *gin.Context) {
	bookingID, ok := h.bookingIDParam(c)
	if !ok {
		return
	}

	var req reqdto.ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request format", nil)
		return
	}

	if _, err := h.bookings.ChangeStatus(c.Request.Context(), bookingID, booking.Status(req.Status)); err != nil {
		respondError(c, err)
		return
	}
	h.respondWithView(c, bookingID)
}

func (h *BookingHandler) AddAddOn(c *gin.Context) {
	bookingID, ok := h.bookingIDParam(c)
	if !ok {
		return
	}

	var req reqdto.AddAddOnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request format", nil)
		return
	}

	if _, err := h.bookings.AddAddOn(c.Request.Context(), bookingID, req.AddOnID, req.Quantity); err != nil {
		respondError(c, err)
		return
	}
	h.respondWithView(c, bookingID)
}

func (h *BookingHandler) RemoveAddOn(c *gin.Context) {
	bookingID, ok := h.bookingIDParam(c)
	if !ok {
		return
	}

	addOnID, err := uuid.Parse(c.Param("addOnId"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid add-on ID format", nil)
		return
	}

	if _, err := h.bookings.RemoveAddOn(c.Request.Context(), bookingID, addOnID); err != nil {
		respondError(c, err)
		return
	}
	h.respondWithView(c, bookingID)
}

func (h *BookingHandler) bookingIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid booking ID format", nil)
		return uuid.Nil, false
	}
	return id, true
}

func (h *BookingHandler) respondWithView(c *gin.Context, bookingID uuid.UUID) {
	view, err := h.queries.GetBooking(c.Request.Context(), bookingID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromBookingView(view))
}

// canAccessBooking admits staff, the owning customer, and the holder of a
// guest token scoped to this exact booking.
func canAccessBooking(c *gin.Context, view *queries.BookingView) bool {
	if guestBookingID, ok := middleware.GetGuestBookingID(c); ok {
		return guestBookingID == view.ID
	}
	if role, ok := middleware.GetUserRole(c); ok && role.IsStaff() {
		return true
	}
	if userID, ok := middleware.GetUserID(c); ok {
		return view.CustomerID != nil && *view.CustomerID == userID
	}
	return false
}
