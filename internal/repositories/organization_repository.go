package repositories

import (
	"context"
	"database/sql"
	"errors"

	"qamqorBack/internal/models"
)

// OrganizationRepository exposes the fundraising counters of organizations.
type OrganizationRepository struct {
	DB *sql.DB
}

func NewOrganizationRepository(db *sql.DB) *OrganizationRepository {
	return &OrganizationRepository{DB: db}
}

func (r *OrganizationRepository) GetByID(ctx context.Context, id int64) (models.Organization, error) {
	var o models.Organization
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, name, fund_raised, total_donations FROM organizations WHERE id = ?`, id).
		Scan(&o.ID, &o.Name, &o.FundRaised, &o.TotalDonations)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Organization{}, models.ErrNoRecord
	}
	return o, err
}

// IncrementFunds adds to the organization's raised total. The add happens in
// the database so concurrent donations to the same target cannot lose updates.
func (r *OrganizationRepository) IncrementFunds(ctx context.Context, id int64, amount int64) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE organizations
         SET fund_raised = fund_raised + ?, total_donations = total_donations + 1
         WHERE id = ?`, amount, id)
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
