package models

// MaxFollowedOrganizations caps the followed-organization list per user.
const MaxFollowedOrganizations = 5

// DonationManager is a user's recurring-giving configuration and lifetime
// totals. One row exists per user, created empty at signup. Amount is the
// per-cycle net amount in minor units; TotalDonations only ever grows.
type DonationManager struct {
	UserID         int64   `json:"user_id"`
	Organizations  []int64 `json:"organizations"`
	Interval       string  `json:"interval,omitempty"`
	Active         bool    `json:"active"`
	SubscriptionID *string `json:"subscription_id,omitempty"`
	Amount         int64   `json:"amount"`
	TotalDonations int64   `json:"total_donations"`
}

// UserRewardPoint tracks reward points, incremented by one for every
// successfully reconciled donation attributed to the user.
type UserRewardPoint struct {
	UserID int64 `json:"user_id"`
	Points int64 `json:"points"`
}
