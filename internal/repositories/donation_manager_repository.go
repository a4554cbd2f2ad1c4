package repositories

import (
	"context"
	"database/sql"
	"errors"

	"qamqorBack/internal/models"
)

// DonationManagerRepository stores each user's recurring-giving configuration
// and the ordered list of followed organizations.
type DonationManagerRepository struct {
	DB *sql.DB
}

func NewDonationManagerRepository(db *sql.DB) *DonationManagerRepository {
	return &DonationManagerRepository{DB: db}
}

// CreateForUser inserts the empty manager row at signup. Safe to call twice.
func (r *DonationManagerRepository) CreateForUser(ctx context.Context, userID int64) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO donation_managers (user_id, active, amount, total_donations)
         VALUES (?, 0, 0, 0)
         ON DUPLICATE KEY UPDATE user_id = user_id`, userID)
	return err
}

func (r *DonationManagerRepository) GetByUser(ctx context.Context, userID int64) (models.DonationManager, error) {
	var m models.DonationManager
	var interval sql.NullString
	err := r.DB.QueryRowContext(ctx,
		`SELECT user_id, billing_interval, active, subscription_id, amount, total_donations
         FROM donation_managers WHERE user_id = ?`, userID).
		Scan(&m.UserID, &interval, &m.Active, &m.SubscriptionID, &m.Amount, &m.TotalDonations)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DonationManager{}, models.ErrNoRecord
	}
	if err != nil {
		return models.DonationManager{}, err
	}
	m.Interval = interval.String
	m.Organizations, err = r.ListOrganizations(ctx, userID)
	return m, err
}

func (r *DonationManagerRepository) FindBySubscriptionID(ctx context.Context, subscriptionID string) (models.DonationManager, error) {
	var userID int64
	err := r.DB.QueryRowContext(ctx,
		`SELECT user_id FROM donation_managers WHERE subscription_id = ?`, subscriptionID).
		Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DonationManager{}, models.ErrNoRecord
	}
	if err != nil {
		return models.DonationManager{}, err
	}
	return r.GetByUser(ctx, userID)
}

// ListOrganizations returns followed organization ids in stable follow order.
func (r *DonationManagerRepository) ListOrganizations(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT organization_id FROM donation_manager_organizations
         WHERE user_id = ? ORDER BY position`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *DonationManagerRepository) FollowOrganization(ctx context.Context, userID, organizationID int64, position int) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO donation_manager_organizations (user_id, organization_id, position)
         VALUES (?, ?, ?)`, userID, organizationID, position)
	return err
}

func (r *DonationManagerRepository) UnfollowOrganization(ctx context.Context, userID, organizationID int64) error {
	_, err := r.DB.ExecContext(ctx,
		`DELETE FROM donation_manager_organizations
         WHERE user_id = ? AND organization_id = ?`, userID, organizationID)
	return err
}

// ReplaceOrganization swaps one followed organization for another, keeping the
// original position in the list.
func (r *DonationManagerRepository) ReplaceOrganization(ctx context.Context, userID, oldID, newID int64) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE donation_manager_organizations SET organization_id = ?
         WHERE user_id = ? AND organization_id = ?`, newID, userID, oldID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return models.ErrNoRecord
	}
	return nil
}

// SetSubscription links a live gateway subscription to the manager.
func (r *DonationManagerRepository) SetSubscription(ctx context.Context, userID int64, subscriptionID, interval string, amount int64) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE donation_managers
         SET subscription_id = ?, billing_interval = ?, amount = ?, active = 1
         WHERE user_id = ?`, subscriptionID, interval, amount, userID)
	return err
}

// UpdatePlan changes per-cycle amount and interval without touching linkage.
func (r *DonationManagerRepository) UpdatePlan(ctx context.Context, userID int64, amount int64, interval string) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE donation_managers SET amount = ?, billing_interval = ? WHERE user_id = ?`,
		amount, interval, userID)
	return err
}

func (r *DonationManagerRepository) SetActive(ctx context.Context, userID int64, active bool) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE donation_managers SET active = ? WHERE user_id = ?`, active, userID)
	return err
}

// AddTotal bumps the lifetime total by one reconciled net amount.
func (r *DonationManagerRepository) AddTotal(ctx context.Context, userID int64, amount int64) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE donation_managers SET total_donations = total_donations + ? WHERE user_id = ?`,
		amount, userID)
	return err
}
