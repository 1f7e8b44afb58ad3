package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"fleetbook/internal/infra/repository"
	"fleetbook/internal/pkg/clock"
	"fleetbook/internal/pkg/errs"

	"github.com/google/uuid"
)

type TemplateType string

const (
	TemplateBookingConfirmed TemplateType = "booking_confirmed"
	TemplateBookingUpdated   TemplateType = "booking_updated"
	TemplateOtpIssued        TemplateType = "otp_issued"
	TemplateDepositCaptured  TemplateType = "deposit_captured"
	TemplateDepositReleased  TemplateType = "deposit_released"
)

// dedupWindow is how long a delivered notification suppresses re-sends of
// the same template for the same booking.
const dedupWindow = time.Hour

const sendTimeout = 30 * time.Second

type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

type SMSSender interface {
	Send(ctx context.Context, phone, message string) error
}

type LogStore interface {
	ExistsWithinWindow(ctx context.Context, idempotencyKey string, since time.Time) (bool, error)
	Insert(ctx context.Context, entry *repository.NotificationLogEntry) error
}

// Request describes one notification. Channels with an empty destination
// are skipped.
type Request struct {
	BookingID uuid.UUID
	Template  TemplateType
	Email     string
	Phone     string
	Subject   string
	EmailBody string
	SMSBody   string
	// Key overrides the derived hour-bucket idempotency key when set.
	Key string
	// Unique requests are delivered every time. When no Key is supplied
	// they get a per-send id instead of the hour bucket, so re-issued
	// one-time codes are never suppressed as duplicates.
	Unique bool
}

// Dispatcher delivers notifications with hour-bucketed idempotency keys.
// Delivery failures are recorded and logged, never propagated to callers.
type Dispatcher struct {
	email EmailSender
	sms   SMSSender
	log   LogStore
	clk   clock.Clock

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewDispatcher(email EmailSender, sms SMSSender, log LogStore, clk clock.Clock) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		email:   email,
		sms:     sms,
		log:     log,
		clk:     clk,
		baseCtx: ctx,
		cancel:  cancel,
	}
}

// IdempotencyKey buckets by template, booking and UTC hour so retries within
// the same hour collide with the original attempt.
func IdempotencyKey(template TemplateType, bookingID uuid.UUID, at time.Time) string {
	return fmt.Sprintf("%s:%s:%s", template, bookingID, at.UTC().Format("2006010215"))
}

// DispatchAsync sends in the background. The caller's transaction outcome
// is never affected by notification delivery.
func (d *Dispatcher) DispatchAsync(req Request) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(d.baseCtx, sendTimeout)
		defer cancel()
		if _, err := d.Dispatch(ctx, req); err != nil {
			slog.Warn("notification dispatch failed",
				"template", string(req.Template),
				"booking_id", req.BookingID,
				"error", err,
			)
		}
	}()
}

// Dispatch runs the dedup check, then attempts each channel independently
// and records a single aggregate log row. A true first result reports that
// the send was suppressed as a duplicate and nothing was delivered.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (bool, error) {
	now := d.clk.Now()
	key := req.Key
	if key == "" {
		key = IdempotencyKey(req.Template, req.BookingID, now)
		if req.Unique {
			key = fmt.Sprintf("%s:%s:%s", req.Template, req.BookingID, uuid.New())
		}
	}
	if !req.Unique {
		seen, err := d.log.ExistsWithinWindow(ctx, key, now.Add(-dedupWindow))
		if err != nil {
			return false, errs.Wrap(err, "failed to check notification dedup")
		}
		if seen {
			slog.Debug("notification suppressed as duplicate", "idempotency_key", key)
			return true, nil
		}
	}

	entry := &repository.NotificationLogEntry{
		ID:             uuid.New(),
		BookingID:      req.BookingID,
		IdempotencyKey: key,
		TemplateType:   string(req.Template),
		CreatedAt:      now,
	}

	var detail string
	if req.Email != "" {
		ok := true
		if err := d.email.Send(ctx, req.Email, req.Subject, req.EmailBody); err != nil {
			ok = false
			detail = appendDetail(detail, "email: "+err.Error())
			slog.Warn("email delivery failed", "booking_id", req.BookingID, "error", err)
		}
		entry.EmailOK = &ok
	}
	if req.Phone != "" {
		ok := true
		if err := d.sms.Send(ctx, req.Phone, req.SMSBody); err != nil {
			ok = false
			detail = appendDetail(detail, "sms: "+err.Error())
			slog.Warn("sms delivery failed", "booking_id", req.BookingID, "error", err)
		}
		entry.SMSOK = &ok
	}
	entry.Channel = channelLabel(req)
	entry.Detail = detail

	if err := d.log.Insert(ctx, entry); err != nil {
		return false, errs.Wrap(err, "failed to record notification")
	}
	return false, nil
}

// Shutdown waits for in-flight sends, then cancels the base context.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
	d.cancel()
	return nil
}

func channelLabel(req Request) string {
	switch {
	case req.Email != "" && req.Phone != "":
		return "email+sms"
	case req.Phone != "":
		return "sms"
	default:
		return "email"
	}
}

func appendDetail(existing, msg string) string {
	if existing == "" {
		return msg
	}
	return existing + "; " + msg
}
