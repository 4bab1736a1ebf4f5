package cause

import (
	"github.com/Rhymond/go-money"
	"github.com/google/uuid"
)

// Status is the lifecycle state of a fundraising cause. Only live causes
// accept donations.
type Status string

const (
	StatusDraft           Status = "DRAFT"
	StatusLive            Status = "LIVE"
	StatusFunded          Status = "FUNDED"
	StatusFulfilled       Status = "FULFILLED"
	StatusClosed          Status = "CLOSED"
	StatusPendingApproval Status = "PENDING_APPROVAL"
)

// Cause is a fundraising target owned by an NGO. CurrentAmount only moves
// when the server confirms donations; the client never increments it.
type Cause struct {
	ID            int64     `json:"id"`
	NGOID         uuid.UUID `json:"ngo_id"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	TargetAmount  int64     `json:"target_amount"`
	CurrentAmount int64     `json:"current_amount"`
	Currency      string    `json:"currency"`
	Status        Status    `json:"status"`
}

// AcceptsDonations reports whether the cause can receive donations.
func (c *Cause) AcceptsDonations() bool {
	return c.Status == StatusLive
}

// Target returns the fundraising goal as money in the cause currency.
func (c *Cause) Target() *money.Money {
	return money.New(c.TargetAmount, c.Currency)
}

// Raised returns the confirmed running total as money.
func (c *Cause) Raised() *money.Money {
	return money.New(c.CurrentAmount, c.Currency)
}
