package booking

type Status string

const (
	StatusDraft     Status = "draft"
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusVoided    Status = "voided"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusConfirmed, StatusActive, StatusCompleted, StatusVoided:
		return true
	default:
		return false
	}
}

// IsLifecycleActive reports whether the booking still occupies its vehicle and
// date range for conflict purposes.
func (s Status) IsLifecycleActive() bool {
	switch s {
	case StatusDraft, StatusPending, StatusConfirmed, StatusActive:
		return true
	default:
		return false
	}
}

// ActiveLifecycleStatuses is the overlap-check filter set.
var ActiveLifecycleStatuses = []Status{StatusDraft, StatusPending, StatusConfirmed, StatusActive}

// CanTransitionTo encodes the booking lifecycle:
// draft → pending → confirmed → active → completed, with any active-lifecycle
// status allowed to void. Completed and voided are terminal.
func (s Status) CanTransitionTo(next Status) bool {
	if next == StatusVoided {
		return s.IsLifecycleActive()
	}
	switch s {
	case StatusDraft:
		return next == StatusPending
	case StatusPending:
		return next == StatusConfirmed
	case StatusConfirmed:
		return next == StatusActive
	case StatusActive:
		return next == StatusCompleted
	default:
		return false
	}
}

// DepositStatus is the only mutable projection of deposit ledger state.
type DepositStatus string

const (
	DepositNone       DepositStatus = "none"
	DepositAuthorized DepositStatus = "authorized"
	DepositCapturing  DepositStatus = "capturing"
	DepositCaptured   DepositStatus = "captured"
	DepositReleasing  DepositStatus = "releasing"
	DepositReleased   DepositStatus = "released"
)

func (s DepositStatus) String() string {
	return string(s)
}

func (s DepositStatus) IsValid() bool {
	switch s {
	case DepositNone, DepositAuthorized, DepositCapturing, DepositCaptured, DepositReleasing, DepositReleased:
		return true
	default:
		return false
	}
}

// CanTransitionTo encodes the deposit state machine:
// none → authorized → capturing → captured, or authorized → releasing → released.
// The transient states survive a crash so reconciliation can find them.
func (s DepositStatus) CanTransitionTo(next DepositStatus) bool {
	switch s {
	case DepositNone:
		return next == DepositAuthorized
	case DepositAuthorized:
		return next == DepositCapturing || next == DepositReleasing
	case DepositCapturing:
		return next == DepositCaptured
	case DepositReleasing:
		return next == DepositReleased
	default:
		return false
	}
}
