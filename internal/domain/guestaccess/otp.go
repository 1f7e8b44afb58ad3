package guestaccess

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
)

var (
	ErrCodeInvalid   = errors.New("code invalid")
	ErrCodeExpired   = errors.New("code expired")
	ErrCodeExhausted = errors.New("code attempts exhausted")
)

const CodeLength = 6

// GenerateCode produces a short numeric code. Brute force of the small space
// is blunted by the attempt cap and the verification rate limits, not by code
// entropy.
func GenerateCode() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < CodeLength; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", CodeLength, n), nil
}

// HashCode is a deterministic HMAC-SHA256 keyed by the process secret. The
// booking id is mixed in so a code issued for one booking can never match a
// row of another.
func HashCode(secret string, bookingID uuid.UUID, code string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(bookingID[:])
	mac.Write([]byte(code))
	return hex.EncodeToString(mac.Sum(nil))
}

// OTP state machine: issued → verified (terminal success) or
// issued → expired/exhausted (terminal failure). verifiedAt transitions
// nil → timestamp exactly once; the conditional update in the repository
// enforces that under concurrency.
type OTP struct {
	id         uuid.UUID
	bookingID  uuid.UUID
	codeHash   string
	expiresAt  time.Time
	attempts   int
	verifiedAt *time.Time
	createdAt  time.Time
}

func NewOTP(bookingID uuid.UUID, codeHash string, ttl time.Duration, now time.Time) *OTP {
	return &OTP{
		id:        uuid.New(),
		bookingID: bookingID,
		codeHash:  codeHash,
		expiresAt: now.Add(ttl),
		createdAt: now,
	}
}

func ReconstructOTP(
	id, bookingID uuid.UUID,
	codeHash string,
	expiresAt time.Time,
	attempts int,
	verifiedAt *time.Time,
	createdAt time.Time,
) *OTP {
	return &OTP{
		id:         id,
		bookingID:  bookingID,
		codeHash:   codeHash,
		expiresAt:  expiresAt,
		attempts:   attempts,
		verifiedAt: verifiedAt,
		createdAt:  createdAt,
	}
}

func (o *OTP) ID() uuid.UUID          { return o.id }
func (o *OTP) BookingID() uuid.UUID   { return o.bookingID }
func (o *OTP) CodeHash() string       { return o.codeHash }
func (o *OTP) ExpiresAt() time.Time   { return o.expiresAt }
func (o *OTP) Attempts() int          { return o.attempts }
func (o *OTP) VerifiedAt() *time.Time { return o.verifiedAt }
func (o *OTP) CreatedAt() time.Time   { return o.createdAt }

func (o *OTP) IsConsumed() bool {
	return o.verifiedAt != nil
}

func (o *OTP) IsExpired(now time.Time) bool {
	return !now.Before(o.expiresAt)
}

// CheckUsable validates the code row before consumption. The attempt cap is
// independent of verification state.
func (o *OTP) CheckUsable(now time.Time, maxAttempts int) error {
	if o.IsConsumed() {
		return ErrCodeInvalid
	}
	if o.IsExpired(now) {
		return ErrCodeExpired
	}
	if o.attempts >= maxAttempts {
		return ErrCodeExhausted
	}
	return nil
}
