package api

import (
	"net/http"

	reqdto "fleetbook/internal/handler/dto/request"
	resdto "fleetbook/internal/handler/dto/response"
	"fleetbook/internal/handler/httperr"
	"fleetbook/internal/handler/middleware"
	"fleetbook/internal/usecase/commands"
	"fleetbook/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type DepositHandler struct {
	deposits commands.DepositCommands
	queries  queries.BookingQueries
}

func NewDepositHandler(deposits commands.DepositCommands, bookingQueries queries.BookingQueries) *DepositHandler {
	return &DepositHandler{
		deposits: deposits,
		queries:  bookingQueries,
	}
}

func (h *DepositHandler) Authorize(c *gin.Context) {
	bookingID, ok := h.bookingIDParam(c)
	if !ok {
		return
	}

	if _, err := h.deposits.Authorize(c.Request.Context(), bookingID, actorLabel(c)); err != nil {
		respondError(c, err)
		return
	}
	h.respondWithView(c, bookingID)
}

func (h *DepositHandler) Capture(c *gin.Context) {
	bookingID, ok := h.bookingIDParam(c)
	if !ok {
		return
	}

	var req reqdto.CaptureDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request format", nil)
		return
	}

	if _, err := h.deposits.Capture(c.Request.Context(), bookingID, req.AmountCents, actorLabel(c), req.Reason); err != nil {
		respondError(c, err)
		return
	}
	h.respondWithView(c, bookingID)
}

func (h *DepositHandler) Release(c *gin.Context) {
	bookingID, ok := h.bookingIDParam(c)
	if !ok {
		return
	}

	var req reqdto.ReleaseDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request format", nil)
		return
	}

	if _, err := h.deposits.Release(c.Request.Context(), bookingID, actorLabel(c), req.Reason, req.Override); err != nil {
		respondError(c, err)
		return
	}
	h.respondWithView(c, bookingID)
}

func (h *DepositHandler) GetLedger(c *gin.Context) {
	bookingID, ok := h.bookingIDParam(c)
	if !ok {
		return
	}

	entries, err := h.queries.GetLedger(c.Request.Context(), bookingID)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]*resdto.LedgerEntryResponse, len(entries))
	for i, e := range entries {
		response[i] = resdto.FromLedgerEntryView(e)
	}
	c.JSON(http.StatusOK, response)
}

func (h *DepositHandler) bookingIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid booking ID format", nil)
		return uuid.Nil, false
	}
	return id, true
}

func (h *DepositHandler) respondWithView(c *gin.Context, bookingID uuid.UUID) {
	view, err := h.queries.GetBooking(c.Request.Context(), bookingID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromBookingView(view))
}

// actorLabel records who drove a deposit operation in the ledger.
func actorLabel(c *gin.Context) string {
	if userID, ok := middleware.GetUserID(c); ok {
		return "staff:" + userID.String()
	}
	return "staff:unknown"
}
