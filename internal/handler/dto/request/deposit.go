package request

type CaptureDepositRequest struct {
	// AmountCents nil means capture the full authorized amount.
	AmountCents *int64 `json:"amountCents,omitempty"`
	Reason      string `json:"reason" binding:"required"`
}

type ReleaseDepositRequest struct {
	Reason string `json:"reason" binding:"required"`
	// Override releases the hold even while the booking lifecycle would
	// normally keep it. Recorded in the ledger.
	Override bool `json:"override,omitempty"`
}
