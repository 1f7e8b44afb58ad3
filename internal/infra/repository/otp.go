package repository

import (
	"context"
	"time"

	"fleetbook/internal/domain/guestaccess"
	"fleetbook/internal/infra"
	"fleetbook/internal/pkg/pgconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type OTPRepository struct {
	db DBTX
}

func NewOTPRepository(db DBTX) *OTPRepository {
	return &OTPRepository{db: db}
}

func (r *OTPRepository) Insert(ctx context.Context, otp *guestaccess.OTP) error {
	const query = `
		INSERT INTO booking_otps (id, booking_id, code_hash, expires_at, attempts, created_at)
		VALUES ($1, $2, $3, $4, 0, $5)`

	_, err := r.db.Exec(ctx, query, otp.ID(), otp.BookingID(), otp.CodeHash(), otp.ExpiresAt(), otp.CreatedAt())
	if err != nil {
		return infra.WrapRepoErr("failed to insert otp", err)
	}
	return nil
}

// FindNewestMatching returns the newest unverified row for the booking with
// the given hash. Expired rows are returned so the caller can report expiry
// distinctly from a wrong code.
func (r *OTPRepository) FindNewestMatching(ctx context.Context, bookingID uuid.UUID, codeHash string) (*guestaccess.OTP, error) {
	const query = `
		SELECT id, booking_id, code_hash, expires_at, attempts, verified_at, created_at
		FROM booking_otps
		WHERE booking_id = $1 AND code_hash = $2 AND verified_at IS NULL
		ORDER BY created_at DESC
		LIMIT 1`

	return r.scanOne(r.db.QueryRow(ctx, query, bookingID, codeHash))
}

// FindNewestActive returns the newest unverified, unexpired row for the
// booking regardless of hash, used to track attempts on wrong codes.
func (r *OTPRepository) FindNewestActive(ctx context.Context, bookingID uuid.UUID, now time.Time) (*guestaccess.OTP, error) {
	const query = `
		SELECT id, booking_id, code_hash, expires_at, attempts, verified_at, created_at
		FROM booking_otps
		WHERE booking_id = $1 AND verified_at IS NULL AND expires_at > $2
		ORDER BY created_at DESC
		LIMIT 1`

	return r.scanOne(r.db.QueryRow(ctx, query, bookingID, now))
}

// Consume marks the row verified. The verified_at IS NULL predicate makes the
// null → timestamp transition happen at most once even under concurrent
// verification; false means another caller got there first.
func (r *OTPRepository) Consume(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	const query = `
		UPDATE booking_otps
		SET verified_at = $2
		WHERE id = $1 AND verified_at IS NULL`

	tag, err := r.db.Exec(ctx, query, id, now)
	if err != nil {
		return false, infra.WrapRepoErr("failed to consume otp", err)
	}
	return tag.RowsAffected() == 1, nil
}

// IncrementAttempts bumps the attempt counter; the cap is enforced in the
// domain check, independent of verification.
func (r *OTPRepository) IncrementAttempts(ctx context.Context, id uuid.UUID) error {
	const query = `UPDATE booking_otps SET attempts = attempts + 1 WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return infra.WrapRepoErr("failed to increment otp attempts", err)
	}
	return nil
}

func (r *OTPRepository) scanOne(row interface{ Scan(dest ...any) error }) (*guestaccess.OTP, error) {
	var (
		id, bookingID        uuid.UUID
		codeHash             string
		expiresAt, createdAt time.Time
		attempts             int
		verifiedAt           pgtype.Timestamptz
	)
	err := row.Scan(&id, &bookingID, &codeHash, &expiresAt, &attempts, &verifiedAt, &createdAt)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("otp not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find otp", err)
	}

	return guestaccess.ReconstructOTP(id, bookingID, codeHash, expiresAt, attempts,
		pgconv.TimePtrFromPgtype(verifiedAt), createdAt), nil
}
