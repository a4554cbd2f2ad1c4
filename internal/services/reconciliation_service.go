package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"qamqorBack/internal/models"
)

const eventDedupeTTL = 24 * time.Hour

// ReconciliationService applies gateway webhook events to the ledger exactly
// once per logical event. Delivery is at-least-once and unordered, so every
// mutation is guarded: one-off charges by a compare-and-set status
// transition, recurring fan-out by single-use ledger claims.
type ReconciliationService struct {
	Gateway       PaymentGateway
	Donations     DonationLedger
	Organizations OrganizationLedger
	Events        EventLedger
	Managers      ManagerLedger
	Rewards       RewardLedger
	Claims        ClaimStore
	Notifier      Notifier
	// RDB is an optional fast-path dedupe; correctness never depends on it.
	RDB    *redis.Client
	Logger *slog.Logger
}

// HandleEvent dispatches one decoded webhook event. A returned error means
// the webhook endpoint must answer non-200 so the gateway redelivers.
func (s *ReconciliationService) HandleEvent(ctx context.Context, evt models.PaymentEvent) error {
	logger := s.logger().With("event_id", evt.EventID())

	if s.seenBefore(ctx, evt.EventID()) {
		logger.Info("duplicate event skipped by dedupe cache")
		return nil
	}

	var err error
	switch e := evt.(type) {
	case models.SubscriptionInvoiceCreated:
		err = s.handleSubscriptionInvoiceCreated(ctx, logger, e)
	case models.InvoicePaid:
		err = s.handleInvoicePaid(ctx, logger, e)
	case models.PaymentIntentSucceeded:
		err = s.handleIntentSucceeded(ctx, logger, e)
	case models.PaymentIntentFailed:
		err = s.handleIntentFailed(ctx, logger, e)
	case models.OtherEvent:
		logger.Debug("ignoring event", "type", e.Type)
	default:
		logger.Debug("ignoring unknown event kind")
	}
	if err != nil {
		return err
	}

	s.markSeen(ctx, evt.EventID())
	return nil
}

// First invoice of a new subscription: pin the payment method that completed
// it as the default for both the subscription and the customer, so later
// cycles charge without user interaction. No ledger mutation.
func (s *ReconciliationService) handleSubscriptionInvoiceCreated(ctx context.Context, logger *slog.Logger, e models.SubscriptionInvoiceCreated) error {
	if e.BillingReason != models.BillingReasonSubscriptionCreate {
		return nil
	}
	if e.PaymentIntentID == "" {
		logger.Warn("subscription invoice without payment intent", "invoice_id", e.InvoiceID)
		return nil
	}
	pi, err := s.Gateway.GetPaymentIntent(ctx, e.PaymentIntentID)
	if err != nil {
		return fmt.Errorf("resolve invoice payment intent: %w", err)
	}
	if pi.PaymentMethodID == "" {
		logger.Warn("first invoice has no payment method yet", "invoice_id", e.InvoiceID)
		return nil
	}
	if err := s.Gateway.SetDefaultPaymentMethod(ctx, e.CustomerID, e.SubscriptionID, pi.PaymentMethodID); err != nil {
		return fmt.Errorf("attach default payment method: %w", err)
	}
	return nil
}

// Recurring cycle collected: split the net amount across the payer's
// followed organizations and credit each exactly once.
func (s *ReconciliationService) handleInvoicePaid(ctx context.Context, logger *slog.Logger, e models.InvoicePaid) error {
	sub, err := s.Gateway.GetSubscription(ctx, e.SubscriptionID)
	if err != nil {
		return fmt.Errorf("fetch subscription: %w", err)
	}
	if sub.Status != SubscriptionStatusActive {
		logger.Info("invoice for non-active subscription skipped", "status", sub.Status)
		return nil
	}

	mgr, err := s.Managers.FindBySubscriptionID(ctx, e.SubscriptionID)
	if errors.Is(err, models.ErrNoRecord) {
		logger.Warn("no donation manager for subscription", "subscription_id", e.SubscriptionID)
		return nil
	}
	if err != nil {
		return err
	}
	if !mgr.Active {
		logger.Info("frozen donation manager skipped", "user_id", mgr.UserID)
		return nil
	}
	orgs := mgr.Organizations
	if len(orgs) == 0 {
		// Retrying cannot fix this without user action, so ack the event.
		logger.Warn("subscription fired with no followed organizations", "user_id", mgr.UserID)
		return nil
	}

	k := int64(len(orgs))
	share := mgr.Amount / k
	remainder := mgr.Amount % k

	for i, orgID := range orgs {
		amount := share
		if i == 0 {
			amount += remainder
		}
		d := models.Donation{
			UserID:         mgr.UserID,
			Amount:         amount,
			Status:         models.StatusSuccess,
			DonationStatus: models.DonationOpen,
			OrganizationID: &orgID,
			SubscriptionID: &e.SubscriptionID,
			InvoiceID:      &e.InvoiceID,
			Active:         true,
			Interval:       mgr.Interval,
		}
		// Claim, donation row and fund counters commit as one unit. A
		// failure rolls the claim back too, so redelivery retries this
		// organization instead of skipping it.
		applied, err := s.Claims.CreditOrganization(ctx, fmt.Sprintf("invoice:%s:org:%d", e.InvoiceID, orgID), d)
		if err != nil {
			return fmt.Errorf("credit organization %d: %w", orgID, err)
		}
		if !applied {
			logger.Info("organization credit already applied", "organization_id", orgID)
		}
	}

	// Totals and the reward point are once per billing cycle, not once per
	// organization, and form their own claimed unit.
	applied, err := s.Claims.ApplyCycleTotals(ctx, fmt.Sprintf("invoice:%s:totals", e.InvoiceID), mgr.UserID, mgr.Amount)
	if err != nil {
		return err
	}
	if applied {
		s.notify(mgr.UserID, models.Notification{
			Title:   "Thank you for giving",
			Message: "Your recurring donation was shared across the organizations you follow.",
			Type:    "donation",
		})
	}
	return nil
}

// One-off charge completed: transition the anchored donation row and credit
// its target. The compare-and-set makes duplicate delivery a no-op.
func (s *ReconciliationService) handleIntentSucceeded(ctx context.Context, logger *slog.Logger, e models.PaymentIntentSucceeded) error {
	d, err := s.Donations.FindByIntentID(ctx, e.IntentID)
	if errors.Is(err, models.ErrNoRecord) {
		logger.Debug("payment intent has no donation row", "intent_id", e.IntentID)
		return nil
	}
	if err != nil {
		return err
	}

	moved, err := s.Donations.TransitionStatus(ctx, d.ID, models.StatusPending, models.StatusSuccess)
	if err != nil {
		return err
	}
	if !moved {
		logger.Info("donation already reconciled", "donation_id", d.ID)
		return nil
	}

	switch {
	case d.EventID != nil:
		ev, err := s.Events.GetByID(ctx, *d.EventID)
		if err != nil {
			return err
		}
		justReached, err := s.Events.IncrementFunds(ctx, ev.ID, d.Amount)
		if err != nil {
			return fmt.Errorf("credit event %d: %w", ev.ID, err)
		}
		if err := s.Organizations.IncrementFunds(ctx, ev.OrganizationID, d.Amount); err != nil {
			return fmt.Errorf("credit parent organization %d: %w", ev.OrganizationID, err)
		}
		if justReached {
			s.notify(d.UserID, models.Notification{
				Title:    "Goal reached",
				Message:  fmt.Sprintf("Your donation pushed %q past its fundraising goal.", ev.Name),
				Type:     "goal_reached",
				ActionID: ev.ID,
			})
		}
	case d.OrganizationID != nil:
		if err := s.Organizations.IncrementFunds(ctx, *d.OrganizationID, d.Amount); err != nil {
			return fmt.Errorf("credit organization %d: %w", *d.OrganizationID, err)
		}
	}

	if err := s.Managers.AddTotal(ctx, d.UserID, d.Amount); err != nil {
		return err
	}
	if err := s.Rewards.Increment(ctx, d.UserID); err != nil {
		return err
	}
	s.notify(d.UserID, models.Notification{
		Title:    "Thank you for giving",
		Message:  "Your donation was received.",
		Type:     "donation",
		ActionID: d.ID,
	})
	return nil
}

// One-off charge declined: move pending to failure, touch nothing else.
func (s *ReconciliationService) handleIntentFailed(ctx context.Context, logger *slog.Logger, e models.PaymentIntentFailed) error {
	d, err := s.Donations.FindByIntentID(ctx, e.IntentID)
	if errors.Is(err, models.ErrNoRecord) {
		return nil
	}
	if err != nil {
		return err
	}
	moved, err := s.Donations.TransitionStatus(ctx, d.ID, models.StatusPending, models.StatusFailure)
	if err != nil {
		return err
	}
	if !moved {
		logger.Info("donation already terminal on failure event", "donation_id", d.ID)
	}
	return nil
}

func (s *ReconciliationService) notify(userID int64, n models.Notification) {
	if s.Notifier != nil {
		s.Notifier.Notify(userID, n)
	}
}

func (s *ReconciliationService) seenBefore(ctx context.Context, eventID string) bool {
	if s.RDB == nil || eventID == "" {
		return false
	}
	n, err := s.RDB.Exists(ctx, "payevent:"+eventID).Result()
	if err != nil {
		s.logger().Warn("event dedupe cache unavailable", "err", err)
		return false
	}
	return n > 0
}

// markSeen records the event only after successful processing so a failed
// attempt is still retriable.
func (s *ReconciliationService) markSeen(ctx context.Context, eventID string) {
	if s.RDB == nil || eventID == "" {
		return
	}
	if err := s.RDB.Set(ctx, "payevent:"+eventID, 1, eventDedupeTTL).Err(); err != nil {
		s.logger().Warn("event dedupe cache unavailable", "err", err)
	}
}

func (s *ReconciliationService) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
