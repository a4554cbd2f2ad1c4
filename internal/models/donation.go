package models

import "time"

// Payment status of a single charge attempt. Transitions only move from
// pending to one of the terminal states.
const (
	StatusPending = "pending"
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Donation state for recurring giving: frozen rows belong to a paused plan.
const (
	DonationOpen   = "open"
	DonationFrozen = "frozen"
)

var donationTransitions = map[string]map[string]struct{}{
	StatusPending: {StatusSuccess: {}, StatusFailure: {}},
	StatusSuccess: {},
	StatusFailure: {},
}

// CanTransition reports whether a donation may move between the two statuses.
func CanTransition(from, to string) bool {
	allowed, ok := donationTransitions[from]
	if !ok {
		return false
	}
	_, ok = allowed[to]
	return ok
}

// Donation is one ledger entry: a one-off payment attempt or the outcome of a
// single recurring billing cycle. Amount is stored in minor currency units net
// of the platform fee.
type Donation struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"user_id"`
	Amount          int64     `json:"amount"`
	Status          string    `json:"status"`
	DonationStatus  string    `json:"donation_status"`
	OrganizationID  *int64    `json:"organization_id,omitempty"`
	EventID         *int64    `json:"event_id,omitempty"`
	SubscriptionID  *string   `json:"subscription_id,omitempty"`
	PaymentIntentID *string   `json:"payment_intent_id,omitempty"`
	InvoiceID       *string   `json:"invoice_id,omitempty"`
	Active          bool      `json:"active"`
	Interval        string    `json:"interval,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// ValidateTarget enforces the exclusivity invariant: at most one of
// organization or event may be set. Both unset means an unattributed platform
// donation, which is allowed.
func (d Donation) ValidateTarget() error {
	if d.OrganizationID != nil && d.EventID != nil {
		return ErrBothTargets
	}
	return nil
}

// DonationHistoryItem is the read-side row for a user's giving history,
// joined with the display name of the credited target.
type DonationHistoryItem struct {
	ID         int64     `json:"id"`
	Amount     int64     `json:"amount"`
	Status     string    `json:"status"`
	TargetType string    `json:"target_type"`
	TargetName string    `json:"target_name,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
