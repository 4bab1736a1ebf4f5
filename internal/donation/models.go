package donation

import (
	"github.com/Rhymond/go-money"
	"github.com/google/uuid"
)

// State is the position of a donation attempt in its lifecycle. Confirmed
// and Failed are terminal; a retry is always a fresh attempt from Idle with
// a fresh order reference.
type State string

const (
	StateIdle            State = "IDLE"
	StateInitiating      State = "INITIATING"
	StateAwaitingGateway State = "AWAITING_GATEWAY"
	StateVerifying       State = "VERIFYING"
	StateConfirmed       State = "CONFIRMED"
	StateFailed          State = "FAILED"
)

// Terminal reports whether the state ends the attempt.
func (s State) Terminal() bool {
	return s == StateConfirmed || s == StateFailed
}

// legalTransitions is the state machine edge set. Everything else is an
// invariant violation.
var legalTransitions = map[State][]State{
	StateIdle:            {StateInitiating},
	StateInitiating:      {StateAwaitingGateway, StateFailed},
	StateAwaitingGateway: {StateVerifying, StateFailed},
	StateVerifying:       {StateConfirmed, StateFailed},
}

func canTransition(from, to State) bool {
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Attempt is the ephemeral client-local record of one donation in progress.
// It is discarded on any terminal outcome; the durable record lives
// server-side.
type Attempt struct {
	ID             uuid.UUID
	CauseID        int64
	Amount         *money.Money
	OrderID        string
	GatewayOrderID string
	State          State
}

// Request is the donor's submission that starts an attempt. Amount is in
// minor units of the cause currency. Donor fields default to the signed-in
// user's profile when empty.
type Request struct {
	CauseID    int64  `validate:"required,gt=0"`
	Amount     int64  `validate:"required,gt=0"`
	DonorName  string `validate:"omitempty,notblank"`
	DonorEmail string `validate:"omitempty,email"`
	DonorPhone string `validate:"-"`
}

// CheckoutConfig is the gateway configuration bundle returned by the
// initiate call. It is handed opaque to the Authorizer.
type CheckoutConfig struct {
	OrderID     string            `json:"order_id"`
	Amount      int64             `json:"amount"`
	Currency    string            `json:"currency"`
	Key         string            `json:"key"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Prefill     map[string]string `json:"prefill"`
	Notes       map[string]string `json:"notes"`
}

// Proof is the gateway-issued evidence the authorization widget reports on
// success. It is necessary but not sufficient: only server-side
// verification confirms a donation.
type Proof struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
}

// verifyResponse is the platform's answer to the verification call, the
// sole authority on whether a donation is confirmed.
type verifyResponse struct {
	Success       bool   `json:"success"`
	PaymentID     string `json:"payment_id"`
	TransactionID string `json:"transaction_id"`
}

// FailureKind distinguishes the terminal failure shapes the donor can see.
type FailureKind string

const (
	FailureNone       FailureKind = ""
	FailureInitiation FailureKind = "initiation_rejected"
	FailureCancelled  FailureKind = "cancelled"
	FailureUnverified FailureKind = "unverified"
	FailureInternal   FailureKind = "internal"
)

// Outcome is the terminal result of an attempt surfaced to the donor. A
// Failed outcome always carries a human-readable Reason; a Confirmed one
// always carries the PaymentID for the donor's records.
type Outcome struct {
	AttemptID     uuid.UUID
	State         State
	Failure       FailureKind
	Reason        string
	OrderID       string
	PaymentID     string
	TransactionID string
}
