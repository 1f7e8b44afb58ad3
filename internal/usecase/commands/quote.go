package commands

import (
	"context"
	"log/slog"

	"fleetbook/internal/domain/pricing"
	"fleetbook/internal/pkg/errs"
)

type QuoteCommands interface {
	// Quote computes the canonical price breakdown for the given selection.
	Quote(ctx context.Context, input pricing.QuoteInput) (*pricing.Breakdown, error)
	// ValidatePrice recomputes the breakdown and compares the client total
	// against it. Any failure to compute is treated as a mismatch.
	ValidatePrice(ctx context.Context, input pricing.QuoteInput, clientTotalCents int64) (*PriceValidation, error)
}

type PriceValidation struct {
	Valid            bool
	ServerTotalCents int64
	ClientTotalCents int64
	DeltaCents       int64
	Breakdown        *pricing.Breakdown
}

type quoteCommandsImpl struct {
	engine *pricing.Engine
}

func NewQuoteCommands(engine *pricing.Engine) QuoteCommands {
	return &quoteCommandsImpl{engine: engine}
}

func (q *quoteCommandsImpl) Quote(ctx context.Context, input pricing.QuoteInput) (*pricing.Breakdown, error) {
	bd, err := q.engine.Quote(ctx, input)
	if err != nil {
		return nil, errs.Wrap(err, "failed to compute quote")
	}
	return bd, nil
}

func (q *quoteCommandsImpl) ValidatePrice(ctx context.Context, input pricing.QuoteInput, clientTotalCents int64) (*PriceValidation, error) {
	bd, err := q.engine.Quote(ctx, input)
	if err != nil {
		// Fail closed: a quote we cannot recompute is a quote we reject.
		slog.WarnContext(ctx, "price validation could not recompute quote", "error", err)
		return nil, errs.Mark(errs.Wrap(err, "price recomputation failed"), errs.ErrPriceComputationFailed)
	}

	delta := clientTotalCents - bd.TotalCents
	abs := delta
	if abs < 0 {
		abs = -abs
	}
	return &PriceValidation{
		Valid:            abs <= q.engine.ToleranceCents(),
		ServerTotalCents: bd.TotalCents,
		ClientTotalCents: clientTotalCents,
		DeltaCents:       delta,
		Breakdown:        bd,
	}, nil
}
