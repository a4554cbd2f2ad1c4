package services

import (
	"context"
	"time"

	"qamqorBack/internal/models"
)

// Ledger store capabilities consumed by the services in this package. The
// repositories package provides the MySQL implementations; tests provide
// stubs.

type DonationLedger interface {
	Create(ctx context.Context, d models.Donation) (int64, error)
	FindByIntentID(ctx context.Context, intentID string) (models.Donation, error)
	FindBySubscriptionID(ctx context.Context, subscriptionID string) ([]models.Donation, error)
	TransitionStatus(ctx context.Context, id int64, fromStatus, toStatus string) (bool, error)
	SetDonationStateBySubscription(ctx context.Context, subscriptionID, state string) error
	HistoryByUser(ctx context.Context, userID int64, from, to time.Time) ([]models.DonationHistoryItem, error)
	ListByOrganization(ctx context.Context, organizationID int64) ([]models.Donation, error)
}

type OrganizationLedger interface {
	GetByID(ctx context.Context, id int64) (models.Organization, error)
	IncrementFunds(ctx context.Context, id int64, amount int64) error
}

type EventLedger interface {
	GetByID(ctx context.Context, id int64) (models.Event, error)
	IncrementFunds(ctx context.Context, id int64, amount int64) (goalJustReached bool, err error)
}

type ManagerLedger interface {
	CreateForUser(ctx context.Context, userID int64) error
	GetByUser(ctx context.Context, userID int64) (models.DonationManager, error)
	FindBySubscriptionID(ctx context.Context, subscriptionID string) (models.DonationManager, error)
	ListOrganizations(ctx context.Context, userID int64) ([]int64, error)
	FollowOrganization(ctx context.Context, userID, organizationID int64, position int) error
	UnfollowOrganization(ctx context.Context, userID, organizationID int64) error
	ReplaceOrganization(ctx context.Context, userID, oldID, newID int64) error
	SetSubscription(ctx context.Context, userID int64, subscriptionID, interval string, amount int64) error
	UpdatePlan(ctx context.Context, userID int64, amount int64, interval string) error
	SetActive(ctx context.Context, userID int64, active bool) error
	AddTotal(ctx context.Context, userID int64, amount int64) error
}

type RewardLedger interface {
	Increment(ctx context.Context, userID int64) error
	GetByUser(ctx context.Context, userID int64) (models.UserRewardPoint, error)
}

// ClaimStore applies claim-guarded ledger mutations for recurring billing
// cycles. Each key is consumed at most once, atomically with the side effects
// it guards; a failed unit leaves the key unclaimed so redelivery retries it.
type ClaimStore interface {
	CreditOrganization(ctx context.Context, key string, d models.Donation) (bool, error)
	ApplyCycleTotals(ctx context.Context, key string, userID, amount int64) (bool, error)
}

type CustomerStore interface {
	GetCustomerID(ctx context.Context, userID int64) (string, error)
	SaveCustomerID(ctx context.Context, userID int64, customerID string) error
}

type UserStore interface {
	GetByID(ctx context.Context, id int64) (models.User, error)
}

// Notifier is the fire-and-forget notification collaborator.
type Notifier interface {
	Notify(userID int64, n models.Notification)
}
