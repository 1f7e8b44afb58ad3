package queries

import (
	"context"

	"fleetbook/internal/infra"
	"fleetbook/internal/pkg/errs"

	"github.com/google/uuid"
)

type BookingReadStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*BookingView, error)
	ListLedger(ctx context.Context, bookingID uuid.UUID) ([]*LedgerEntryView, error)
}

type BookingQueries interface {
	GetBooking(ctx context.Context, id uuid.UUID) (*BookingView, error)
	GetLedger(ctx context.Context, bookingID uuid.UUID) ([]*LedgerEntryView, error)
}

type bookingQueriesImpl struct {
	store BookingReadStore
}

func NewBookingQueries(store BookingReadStore) BookingQueries {
	return &bookingQueriesImpl{store: store}
}

func (q *bookingQueriesImpl) GetBooking(ctx context.Context, id uuid.UUID) (*BookingView, error) {
	view, err := q.store.FindByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.ErrBookingNotFound
		}
		return nil, errs.Wrap(err, "failed to find booking")
	}
	return view, nil
}

func (q *bookingQueriesImpl) GetLedger(ctx context.Context, bookingID uuid.UUID) ([]*LedgerEntryView, error) {
	entries, err := q.store.ListLedger(ctx, bookingID)
	if err != nil {
		return nil, errs.Wrap(err, "failed to list deposit ledger")
	}
	return entries, nil
}
