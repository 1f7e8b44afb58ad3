package repository

import (
	"context"

	"fleetbook/internal/domain/deposit"
	"fleetbook/internal/infra"
)

// LedgerRepository is insert-only. There is deliberately no update or
// delete statement in this file; reads go through the read store.
type LedgerRepository struct {
	db DBTX
}

func NewLedgerRepository(db DBTX) *LedgerRepository {
	return &LedgerRepository{db: db}
}

func (r *LedgerRepository) Insert(ctx context.Context, tx DBTX, e *deposit.Entry) error {
	const query = `
		INSERT INTO deposit_ledger (id, booking_id, entry_type, amount_cents, actor, reason, external_ref, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := tx.Exec(ctx, query, e.ID(), e.BookingID(), string(e.Type()), e.AmountCents(),
		e.Actor(), e.Reason(), e.ExternalRef(), e.CreatedAt())
	if err != nil {
		return infra.WrapRepoErr("failed to insert ledger entry", err)
	}
	return nil
}
