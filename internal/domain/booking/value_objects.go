package booking

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidPeriod  = errors.New("pickup must be before return")
	ErrEmptyName      = errors.New("contact name required")
	ErrNameTooLong    = errors.New("contact name too long")
	ErrInvalidEmail   = errors.New("invalid contact email")
	ErrPhoneTooLong   = errors.New("contact phone too long")
	ErrNotesTooLong   = errors.New("notes too long")
	ErrAddressTooLong = errors.New("delivery address too long")
)

const (
	MaxNameLength    = 120
	MaxEmailLength   = 254
	MaxPhoneLength   = 32
	MaxNotesLength   = 2000
	MaxAddressLength = 500
)

// Period is the half-open [pickup, return) rental interval.
type Period struct {
	start time.Time
	end   time.Time
}

func NewPeriod(start, end time.Time) (Period, error) {
	if !end.After(start) {
		return Period{}, ErrInvalidPeriod
	}
	return Period{start: start, end: end}, nil
}

func (p Period) Start() time.Time { return p.start }
func (p Period) End() time.Time   { return p.end }

// Overlaps uses the canonical half-open interval test:
// existing.start < new.end AND existing.end > new.start.
func (p Period) Overlaps(other Period) bool {
	return p.start.Before(other.end) && p.end.After(other.start)
}

// Contact holds sanitized, length-bounded caller-supplied fields. These are
// the only caller values persisted verbatim; money never goes through here.
type Contact struct {
	name  string
	email string
	phone string
}

func NewContact(name, email, phone string) (Contact, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(strings.ToLower(email))
	phone = strings.TrimSpace(phone)

	if name == "" {
		return Contact{}, ErrEmptyName
	}
	if len(name) > MaxNameLength {
		return Contact{}, ErrNameTooLong
	}
	if email == "" || len(email) > MaxEmailLength || !strings.Contains(email, "@") {
		return Contact{}, ErrInvalidEmail
	}
	if len(phone) > MaxPhoneLength {
		return Contact{}, ErrPhoneTooLong
	}
	return Contact{name: name, email: email, phone: phone}, nil
}

func (c Contact) Name() string  { return c.name }
func (c Contact) Email() string { return c.email }
func (c Contact) Phone() string { return c.phone }

type Notes struct {
	value string
}

func NewNotes(value string) (Notes, error) {
	value = strings.TrimSpace(value)
	if len(value) > MaxNotesLength {
		return Notes{}, ErrNotesTooLong
	}
	return Notes{value: value}, nil
}

func (n Notes) String() string { return n.value }
func (n Notes) IsEmpty() bool  { return n.value == "" }

// NewReference generates the human-readable booking code shown to customers.
// It identifies, it never authorizes.
func NewReference() string {
	const alphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("booking reference entropy unavailable: %v", err))
	}
	for i, b := range buf {
		buf[i] = alphabet[int(b)%len(alphabet)]
	}
	return "FB-" + string(buf)
}
