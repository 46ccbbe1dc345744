package checkout

// Status tracks a checkout session through the hosted-payment flow.
type Status string

const (
	StatusInitiated        Status = "INITIATED"
	StatusPaymentPending   Status = "PAYMENT_PENDING"
	StatusPaymentCompleted Status = "PAYMENT_COMPLETED"
	StatusCompleted        Status = "COMPLETED"
	StatusFailed           Status = "FAILED"
)

func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// String representation (for logging)
func (s Status) String() string {
	return string(s)
}

// CanTransitionTo enforces the forward-only session state machine. FAILED
// is reachable from any non-terminal state.
func CanTransitionTo(from, to Status) bool {
	if from.IsTerminal() {
		return false
	}
	if to == StatusFailed {
		return true
	}

	switch from {
	case StatusInitiated:
		return to == StatusPaymentPending
	case StatusPaymentPending:
		return to == StatusPaymentCompleted
	case StatusPaymentCompleted:
		return to == StatusCompleted
	default:
		return false
	}
}
