package repository

import (
	"context"
	"time"

	"fleetbook/internal/infra"

	"github.com/google/uuid"
)

// NotificationLogEntry is one attempted send: a single aggregate row per
// dispatch regardless of partial channel failure.
type NotificationLogEntry struct {
	ID             uuid.UUID
	BookingID      uuid.UUID
	IdempotencyKey string
	TemplateType   string
	Channel        string
	EmailOK        *bool
	SMSOK          *bool
	Detail         string
	CreatedAt      time.Time
}

type NotificationLogRepository struct {
	db DBTX
}

func NewNotificationLogRepository(db DBTX) *NotificationLogRepository {
	return &NotificationLogRepository{db: db}
}

// ExistsWithinWindow reports whether the key has already been used since the
// cutoff. Lookup-then-insert: approximate dedup, not a lock.
func (r *NotificationLogRepository) ExistsWithinWindow(ctx context.Context, idempotencyKey string, since time.Time) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM notification_log
			WHERE idempotency_key = $1 AND created_at >= $2
		)`

	var exists bool
	err := r.db.QueryRow(ctx, query, idempotencyKey, since).Scan(&exists)
	if err != nil {
		return false, infra.WrapRepoErr("failed to check notification log", err)
	}
	return exists, nil
}

func (r *NotificationLogRepository) Insert(ctx context.Context, e *NotificationLogEntry) error {
	const query = `
		INSERT INTO notification_log (id, booking_id, idempotency_key, template_type, channel, email_ok, sms_ok, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.Exec(ctx, query, e.ID, e.BookingID, e.IdempotencyKey, e.TemplateType,
		e.Channel, e.EmailOK, e.SMSOK, e.Detail, e.CreatedAt)
	if err != nil {
		return infra.WrapRepoErr("failed to insert notification log entry", err)
	}
	return nil
}
