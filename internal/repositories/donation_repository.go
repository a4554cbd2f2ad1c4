package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"qamqorBack/internal/models"
)

// DonationRepository handles the donations ledger table. Rows are created in
// pending state by the orchestrator (one-off) or in success state by the
// reconciliation engine (recurring cycles) and are never deleted.
type DonationRepository struct {
	DB *sql.DB
}

func NewDonationRepository(db *sql.DB) *DonationRepository { return &DonationRepository{DB: db} }

type sqlExecer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// insertDonation writes one ledger row through either the pool or an open
// transaction, so claim-guarded writes can share it.
func insertDonation(ctx context.Context, db sqlExecer, d models.Donation) (int64, error) {
	if err := d.ValidateTarget(); err != nil {
		return 0, err
	}
	if d.Status == "" {
		d.Status = models.StatusPending
	}
	if d.DonationStatus == "" {
		d.DonationStatus = models.DonationOpen
	}
	const q = `
        INSERT INTO donations
            (user_id, amount, status, donation_status, organization_id, event_id,
             subscription_id, payment_intent_id, invoice_id, active, billing_interval)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := db.ExecContext(ctx, q,
		d.UserID, d.Amount, d.Status, d.DonationStatus, d.OrganizationID, d.EventID,
		d.SubscriptionID, d.PaymentIntentID, d.InvoiceID, d.Active, d.Interval)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *DonationRepository) Create(ctx context.Context, d models.Donation) (int64, error) {
	return insertDonation(ctx, r.DB, d)
}

func (r *DonationRepository) FindByIntentID(ctx context.Context, intentID string) (models.Donation, error) {
	const q = `
        SELECT id, user_id, amount, status, donation_status, organization_id, event_id,
               subscription_id, payment_intent_id, invoice_id, active, billing_interval, created_at
        FROM donations WHERE payment_intent_id = ?`
	return r.scanOne(r.DB.QueryRowContext(ctx, q, intentID))
}

func (r *DonationRepository) FindBySubscriptionID(ctx context.Context, subscriptionID string) ([]models.Donation, error) {
	const q = `
        SELECT id, user_id, amount, status, donation_status, organization_id, event_id,
               subscription_id, payment_intent_id, invoice_id, active, billing_interval, created_at
        FROM donations WHERE subscription_id = ? ORDER BY created_at DESC`
	rows, err := r.DB.QueryContext(ctx, q, subscriptionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Donation
	for rows.Next() {
		d, err := r.scanDonation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// TransitionStatus moves a donation between statuses using a single-statement
// compare-and-set. It returns false when the row was not in fromStatus, which
// is how duplicate webhook delivery becomes a no-op.
func (r *DonationRepository) TransitionStatus(ctx context.Context, id int64, fromStatus, toStatus string) (bool, error) {
	if !models.CanTransition(fromStatus, toStatus) {
		return false, errors.New("repositories: invalid donation status transition")
	}
	res, err := r.DB.ExecContext(ctx,
		`UPDATE donations SET status = ? WHERE id = ? AND status = ?`,
		toStatus, id, fromStatus)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// SetDonationStateBySubscription freezes or reopens all rows of a recurring
// plan when the plan is paused or resumed.
func (r *DonationRepository) SetDonationStateBySubscription(ctx context.Context, subscriptionID, state string) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE donations SET donation_status = ? WHERE subscription_id = ?`,
		state, subscriptionID)
	return err
}

// HistoryByUser returns the user's donations joined with target display names.
func (r *DonationRepository) HistoryByUser(ctx context.Context, userID int64, from, to time.Time) ([]models.DonationHistoryItem, error) {
	const q = `
        SELECT d.id, d.amount, d.status,
               CASE WHEN d.event_id IS NOT NULL THEN 'event'
                    WHEN d.organization_id IS NOT NULL THEN 'organization'
                    ELSE 'platform' END,
               COALESCE(e.name, o.name, ''),
               d.created_at
        FROM donations d
        LEFT JOIN organizations o ON o.id = d.organization_id
        LEFT JOIN events e ON e.id = d.event_id
        WHERE d.user_id = ? AND d.created_at >= ? AND d.created_at < ?
        ORDER BY d.created_at DESC`
	rows, err := r.DB.QueryContext(ctx, q, userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.DonationHistoryItem
	for rows.Next() {
		var item models.DonationHistoryItem
		if err := rows.Scan(&item.ID, &item.Amount, &item.Status, &item.TargetType, &item.TargetName, &item.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// ListByOrganization lists donations credited to one organization.
func (r *DonationRepository) ListByOrganization(ctx context.Context, organizationID int64) ([]models.Donation, error) {
	const q = `
        SELECT id, user_id, amount, status, donation_status, organization_id, event_id,
               subscription_id, payment_intent_id, invoice_id, active, billing_interval, created_at
        FROM donations WHERE organization_id = ? ORDER BY created_at DESC`
	rows, err := r.DB.QueryContext(ctx, q, organizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Donation
	for rows.Next() {
		d, err := r.scanDonation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *DonationRepository) scanDonation(s rowScanner) (models.Donation, error) {
	var d models.Donation
	err := s.Scan(&d.ID, &d.UserID, &d.Amount, &d.Status, &d.DonationStatus,
		&d.OrganizationID, &d.EventID, &d.SubscriptionID, &d.PaymentIntentID,
		&d.InvoiceID, &d.Active, &d.Interval, &d.CreatedAt)
	return d, err
}

func (r *DonationRepository) scanOne(row *sql.Row) (models.Donation, error) {
	d, err := r.scanDonation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Donation{}, models.ErrNoRecord
	}
	return d, err
}
