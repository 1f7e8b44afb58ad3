package response

import (
	"fleetbook/internal/domain/pricing"
	"fleetbook/internal/usecase/commands"
)

type QuoteResponse struct {
	Breakdown *pricing.Breakdown `json:"breakdown"`
}

type PriceValidationResponse struct {
	Valid            bool               `json:"valid"`
	ServerTotalCents int64              `json:"serverTotalCents"`
	ClientTotalCents int64              `json:"clientTotalCents"`
	DeltaCents       int64              `json:"deltaCents"`
	Breakdown        *pricing.Breakdown `json:"breakdown"`
}

func FromPriceValidation(v *commands.PriceValidation) *PriceValidationResponse {
	return &PriceValidationResponse{
		Valid:            v.Valid,
		ServerTotalCents: v.ServerTotalCents,
		ClientTotalCents: v.ClientTotalCents,
		DeltaCents:       v.DeltaCents,
		Breakdown:        v.Breakdown,
	}
}
