package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"qamqorBack/internal/models"
)

// DonationService prepares one-off donation charges and exposes donation
// reads. The charge itself settles asynchronously through webhook events.
type DonationService struct {
	Gateway   PaymentGateway
	Donations DonationLedger
	Events    EventLedger
	Customers CustomerStore
	Users     UserStore
	// FlatFee is the platform fee in minor units, deducted from every
	// payment before it reaches a target.
	FlatFee int64
	Logger  *slog.Logger
}

// CreateIntentResult carries everything a payment sheet needs.
type CreateIntentResult struct {
	DonationID      int64  `json:"donation_id"`
	PaymentIntentID string `json:"payment_intent_id"`
	ClientSecret    string `json:"client_secret"`
	EphemeralKey    string `json:"ephemeral_key"`
	CustomerID      string `json:"customer_id"`
}

// CreateOneOffIntent registers a pending donation for the given gross amount
// and returns client credentials to confirm the charge. The payer is charged
// the gross amount; the donation row holds the net that will be credited.
func (s *DonationService) CreateOneOffIntent(ctx context.Context, userID, amount int64, organizationID, eventID *int64) (CreateIntentResult, error) {
	d := models.Donation{
		UserID:         userID,
		Amount:         amount - s.FlatFee,
		Status:         models.StatusPending,
		DonationStatus: models.DonationOpen,
		OrganizationID: organizationID,
		EventID:        eventID,
		Active:         true,
	}
	if err := d.ValidateTarget(); err != nil {
		return CreateIntentResult{}, err
	}
	if amount <= s.FlatFee {
		return CreateIntentResult{}, models.ErrAmountTooSmall
	}
	if eventID != nil {
		ev, err := s.Events.GetByID(ctx, *eventID)
		if err != nil {
			return CreateIntentResult{}, err
		}
		if ev.GoalReached {
			return CreateIntentResult{}, models.ErrGoalReached
		}
	}

	customerID, err := s.ensureCustomer(ctx, userID)
	if err != nil {
		return CreateIntentResult{}, err
	}
	ephemeralKey, err := s.Gateway.CreateEphemeralKey(ctx, customerID)
	if err != nil {
		return CreateIntentResult{}, err
	}

	metadata := map[string]string{"user_id": strconv.FormatInt(userID, 10)}
	if organizationID != nil {
		metadata["organization_id"] = strconv.FormatInt(*organizationID, 10)
	}
	if eventID != nil {
		metadata["event_id"] = strconv.FormatInt(*eventID, 10)
	}
	intent, err := s.Gateway.CreatePaymentIntent(ctx, customerID, amount, metadata)
	if err != nil {
		return CreateIntentResult{}, fmt.Errorf("create payment intent: %w", err)
	}

	d.PaymentIntentID = &intent.ID
	id, err := s.Donations.Create(ctx, d)
	if err != nil {
		// The intent exists gateway-side but was never anchored; it will
		// expire unconfirmed, the client must start over.
		s.logger().Error("donation row lost after intent creation", "intent_id", intent.ID, "err", err)
		return CreateIntentResult{}, err
	}

	return CreateIntentResult{
		DonationID:      id,
		PaymentIntentID: intent.ID,
		ClientSecret:    intent.ClientSecret,
		EphemeralKey:    ephemeralKey,
		CustomerID:      customerID,
	}, nil
}

// History returns the user's donations in the window, newest first. Zero
// bounds widen to all time.
func (s *DonationService) History(ctx context.Context, userID int64, from, to time.Time) ([]models.DonationHistoryItem, error) {
	if to.IsZero() {
		to = time.Now()
	}
	return s.Donations.HistoryByUser(ctx, userID, from, to)
}

// ListByOrganization returns every donation received by one organization.
func (s *DonationService) ListByOrganization(ctx context.Context, organizationID int64) ([]models.Donation, error) {
	return s.Donations.ListByOrganization(ctx, organizationID)
}

// ensureCustomer returns the user's gateway customer id, creating one on
// first use.
func (s *DonationService) ensureCustomer(ctx context.Context, userID int64) (string, error) {
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

func (s *DonationService) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
