package deposit

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidAmount  = errors.New("ledger amount must be positive")
	ErrReasonRequired = errors.New("ledger reason required")
	ErrActorRequired  = errors.New("ledger actor required")
	ErrExcessCapture  = errors.New("capture amount exceeds authorized amount")
)

type EntryType string

const (
	EntryCapture EntryType = "capture"
	EntryRelease EntryType = "release"
)

// Entry is one append-only ledger row. Entries are never edited or deleted;
// the booking's deposit status is the only mutable projection of this history.
type Entry struct {
	id          uuid.UUID
	bookingID   uuid.UUID
	entryType   EntryType
	amountCents int64
	actor       string
	reason      string
	externalRef string
	createdAt   time.Time
}

func NewEntry(bookingID uuid.UUID, entryType EntryType, amountCents int64, actor, reason, externalRef string, now time.Time) (*Entry, error) {
	if amountCents <= 0 {
		return nil, ErrInvalidAmount
	}
	if actor == "" {
		return nil, ErrActorRequired
	}
	if reason == "" {
		return nil, ErrReasonRequired
	}
	return &Entry{
		id:          uuid.New(),
		bookingID:   bookingID,
		entryType:   entryType,
		amountCents: amountCents,
		actor:       actor,
		reason:      reason,
		externalRef: externalRef,
		createdAt:   now,
	}, nil
}

func ReconstructEntry(id, bookingID uuid.UUID, entryType EntryType, amountCents int64, actor, reason, externalRef string, createdAt time.Time) *Entry {
	return &Entry{
		id:          id,
		bookingID:   bookingID,
		entryType:   entryType,
		amountCents: amountCents,
		actor:       actor,
		reason:      reason,
		externalRef: externalRef,
		createdAt:   createdAt,
	}
}

func (e *Entry) ID() uuid.UUID        { return e.id }
func (e *Entry) BookingID() uuid.UUID { return e.bookingID }
func (e *Entry) Type() EntryType      { return e.entryType }
func (e *Entry) AmountCents() int64   { return e.amountCents }
func (e *Entry) Actor() string        { return e.actor }
func (e *Entry) Reason() string       { return e.reason }
func (e *Entry) ExternalRef() string  { return e.externalRef }
func (e *Entry) CreatedAt() time.Time { return e.createdAt }

// CapturePlan is the arithmetic of a capture decided before any processor
// call: what to capture and what remainder auto-releases.
type CapturePlan struct {
	CaptureCents   int64
	RemainderCents int64
}

// PlanCapture defaults to the full authorized amount and caps partial captures
// at it. Excess is rejected here, before the processor is ever contacted.
func PlanCapture(authorizedCents int64, requested *int64) (CapturePlan, error) {
	amount := authorizedCents
	if requested != nil {
		amount = *requested
	}
	if amount <= 0 {
		return CapturePlan{}, ErrInvalidAmount
	}
	if amount > authorizedCents {
		return CapturePlan{}, ErrExcessCapture
	}
	return CapturePlan{
		CaptureCents:   amount,
		RemainderCents: authorizedCents - amount,
	}, nil
}
