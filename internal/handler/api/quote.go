package api

import (
	"net/http"

	reqdto "fleetbook/internal/handler/dto/request"
	resdto "fleetbook/internal/handler/dto/response"
	"fleetbook/internal/handler/httperr"
	"fleetbook/internal/usecase/commands"

	"github.com/gin-gonic/gin"
)

type QuoteHandler struct {
	quotes commands.QuoteCommands
}

func NewQuoteHandler(quotes commands.QuoteCommands) *QuoteHandler {
	return &QuoteHandler{quotes: quotes}
}

func (h *QuoteHandler) Quote(c *gin.Context) {
	var req reqdto.QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request format", nil)
		return
	}

	breakdown, err := h.quotes.Quote(c.Request.Context(), req.ToDomain())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.QuoteResponse{Breakdown: breakdown})
}

// ValidatePrice never creates anything; it reports whether the client's total
// matches the canonical recomputation, returning the canonical breakdown
// either way.
func (h *QuoteHandler) ValidatePrice(c *gin.Context) {
	var req reqdto.ValidatePriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request format", nil)
		return
	}

	validation, err := h.quotes.ValidatePrice(c.Request.Context(), req.ToDomain(), req.ClientTotalCents)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromPriceValidation(validation))
}
