package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/exp/slices"

	"qamqorBack/internal/models"
)

// DonationManagerService maintains each user's followed-organization list and
// the gateway subscription behind their recurring donation plan.
type DonationManagerService struct {
	Gateway       PaymentGateway
	Managers      ManagerLedger
	Organizations OrganizationLedger
	Donations     DonationLedger
	Rewards       RewardLedger
	Customers     CustomerStore
	Users         UserStore
	FlatFee       int64
	// AllowedIntervals are the billing cadences accepted for plans.
	AllowedIntervals []string
	Logger           *slog.Logger
}

// ManagerOverview is the full recurring-giving state for one user.
type ManagerOverview struct {
	Manager      models.DonationManager `json:"manager"`
	RewardPoints int64                  `json:"reward_points"`
	// Donations holds the ledger rows produced by the linked subscription's
	// past billing cycles, newest first.
	Donations []models.Donation `json:"donations,omitempty"`
}

// RecurringChanges is a partial update to an existing plan. Nil fields keep
// their current value.
type RecurringChanges struct {
	Amount         *int64  `json:"amount"`
	Interval       *string `json:"interval"`
	FreezeDonation *bool   `json:"freeze_donation"`
}

// Overview returns the manager together with the user's reward points,
// creating the empty manager row on first access.
func (s *DonationManagerService) Overview(ctx context.Context, userID int64) (ManagerOverview, error) {
	mgr, err := s.getOrCreate(ctx, userID)
	if err != nil {
		return ManagerOverview{}, err
	}
	points, err := s.Rewards.GetByUser(ctx, userID)
	if err != nil {
		return ManagerOverview{}, err
	}
	overview := ManagerOverview{Manager: mgr, RewardPoints: points.Points}
	if mgr.SubscriptionID != nil {
		overview.Donations, err = s.Donations.FindBySubscriptionID(ctx, *mgr.SubscriptionID)
		if err != nil {
			return ManagerOverview{}, err
		}
	}
	return overview, nil
}

// Follow appends an organization to the user's list, capped at
// models.MaxFollowedOrganizations.
func (s *DonationManagerService) Follow(ctx context.Context, userID, organizationID int64) error {
	if _, err := s.Organizations.GetByID(ctx, organizationID); err != nil {
		return err
	}
	mgr, err := s.getOrCreate(ctx, userID)
	if err != nil {
		return err
	}
	if slices.Contains(mgr.Organizations, organizationID) {
		return models.ErrAlreadyFollowed
	}
	if len(mgr.Organizations) >= models.MaxFollowedOrganizations {
		return models.ErrOrganizationLimit
	}
	return s.Managers.FollowOrganization(ctx, userID, organizationID, len(mgr.Organizations))
}

func (s *DonationManagerService) Unfollow(ctx context.Context, userID, organizationID int64) error {
	mgr, err := s.Managers.GetByUser(ctx, userID)
	if err != nil {
		return err
	}
	if !slices.Contains(mgr.Organizations, organizationID) {
		return models.ErrNotFollowed
	}
	return s.Managers.UnfollowOrganization(ctx, userID, organizationID)
}

// Swap replaces one followed organization with another in place, so the new
// one inherits the old one's share position.
func (s *DonationManagerService) Swap(ctx context.Context, userID, oldID, newID int64) error {
	if _, err := s.Organizations.GetByID(ctx, newID); err != nil {
		return err
	}
	mgr, err := s.Managers.GetByUser(ctx, userID)
	if err != nil {
		return err
	}
	if !slices.Contains(mgr.Organizations, oldID) {
		return models.ErrNotFollowed
	}
	if slices.Contains(mgr.Organizations, newID) {
		return models.ErrAlreadyFollowed
	}
	return s.Managers.ReplaceOrganization(ctx, userID, oldID, newID)
}

// CreateRecurring opens a gateway subscription charging the gross amount on
// the given interval and links it to the manager. Returns the client secret
// the payment sheet needs to confirm the first invoice.
func (s *DonationManagerService) CreateRecurring(ctx context.Context, userID, amount int64, interval string) (CreateIntentResult, error) {
	if !slices.Contains(s.AllowedIntervals, interval) {
		return CreateIntentResult{}, models.ErrBadInterval
	}
	if amount <= s.FlatFee {
		return CreateIntentResult{}, models.ErrAmountTooSmall
	}
	mgr, err := s.getOrCreate(ctx, userID)
	if err != nil {
		return CreateIntentResult{}, err
	}
	if len(mgr.Organizations) == 0 {
		return CreateIntentResult{}, models.ErrNoFollowedOrganizations
	}
	if mgr.SubscriptionID != nil {
		return CreateIntentResult{}, models.ErrSubscriptionExists
	}

	customerID, err := s.ensureCustomer(ctx, userID)
	if err != nil {
		return CreateIntentResult{}, err
	}
	ephemeralKey, err := s.Gateway.CreateEphemeralKey(ctx, customerID)
	if err != nil {
		return CreateIntentResult{}, err
	}
	priceID, err := s.Gateway.CreatePrice(ctx, amount, interval)
	if err != nil {
		return CreateIntentResult{}, fmt.Errorf("create price: %w", err)
	}
	sub, err := s.Gateway.CreateSubscription(ctx, customerID, priceID)
	if err != nil {
		return CreateIntentResult{}, fmt.Errorf("create subscription: %w", err)
	}

	if err := s.Managers.SetSubscription(ctx, userID, sub.ID, interval, amount-s.FlatFee); err != nil {
		s.logger().Error("subscription created but not linked", "subscription_id", sub.ID, "user_id", userID, "err", err)
		return CreateIntentResult{}, err
	}

	return CreateIntentResult{
		ClientSecret: sub.ClientSecret,
		EphemeralKey: ephemeralKey,
		CustomerID:   customerID,
	}, nil
}

// UpdateRecurring applies plan changes to the live subscription. Amount and
// interval changes mint a new price and swap it in without proration; a
// freeze pauses gateway collection and marks past recurring donations frozen.
func (s *DonationManagerService) UpdateRecurring(ctx context.Context, userID int64, changes RecurringChanges) error {
	mgr, err := s.Managers.GetByUser(ctx, userID)
	if err != nil {
		return err
	}
	if mgr.SubscriptionID == nil {
		return models.ErrNoSubscription
	}

	if changes.Amount != nil || changes.Interval != nil {
		amount := mgr.Amount + s.FlatFee
		if changes.Amount != nil {
			amount = *changes.Amount
		}
		interval := mgr.Interval
		if changes.Interval != nil {
			interval = *changes.Interval
		}
		if !slices.Contains(s.AllowedIntervals, interval) {
			return models.ErrBadInterval
		}
		if amount <= s.FlatFee {
			return models.ErrAmountTooSmall
		}

		priceID, err := s.Gateway.CreatePrice(ctx, amount, interval)
		if err != nil {
			return fmt.Errorf("create price: %w", err)
		}
		if err := s.Gateway.SwapSubscriptionPrice(ctx, *mgr.SubscriptionID, priceID); err != nil {
			return fmt.Errorf("swap subscription price: %w", err)
		}
		if err := s.Managers.UpdatePlan(ctx, userID, amount-s.FlatFee, interval); err != nil {
			return err
		}
	}

	if changes.FreezeDonation != nil {
		frozen := *changes.FreezeDonation
		if err := s.Gateway.PauseCollection(ctx, *mgr.SubscriptionID, frozen); err != nil {
			return fmt.Errorf("pause collection: %w", err)
		}
		if err := s.Managers.SetActive(ctx, userID, !frozen); err != nil {
			return err
		}
		state := models.DonationOpen
		if frozen {
			state = models.DonationFrozen
		}
		if err := s.Donations.SetDonationStateBySubscription(ctx, *mgr.SubscriptionID, state); err != nil {
			return err
		}
	}
	return nil
}

func (s *DonationManagerService) getOrCreate(ctx context.Context, userID int64) (models.DonationManager, error) {
	mgr, err := s.Managers.GetByUser(ctx, userID)
	if errors.Is(err, models.ErrNoRecord) {
		if err := s.Managers.CreateForUser(ctx, userID); err != nil {
			return models.DonationManager{}, err
		}
		return s.Managers.GetByUser(ctx, userID)
	}
	return mgr, err
}

func (s *DonationManagerService) ensureCustomer(ctx context.Context, userID int64) (string, error) {
	customerID, err := s.Customers.GetCustomerID(ctx, userID)
	if err == nil {
		return customerID, nil
	}
	if !errors.Is(err, models.ErrNoRecord) {
		return "", err
	}
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	customerID, err = s.Gateway.CreateCustomer(ctx, u.Email, u.Name)
	if err != nil {
		return "", fmt.Errorf("create gateway customer: %w", err)
	}
	if err := s.Customers.SaveCustomerID(ctx, userID, customerID); err != nil {
		return "", err
	}
	return customerID, nil
}

func (s *DonationManagerService) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
