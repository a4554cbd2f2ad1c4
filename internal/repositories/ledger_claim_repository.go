package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"

	"qamqorBack/internal/models"
)

const mysqlDuplicateEntry = 1062

// LedgerClaimRepository applies claim-guarded ledger mutations for recurring
// billing cycles. A claim key is inserted at most once, and the insert shares
// one transaction with the side effects it guards: a failed credit rolls the
// claim back too, so the next delivery retries the whole unit instead of
// skipping it.
type LedgerClaimRepository struct {
	DB *sql.DB
}

func NewLedgerClaimRepository(db *sql.DB) *LedgerClaimRepository {
	return &LedgerClaimRepository{DB: db}
}

// CreditOrganization records one organization's share of a billing cycle.
// Claim, donation row and fund counters commit together. Returns false when
// an earlier delivery already applied this credit.
func (r *LedgerClaimRepository) CreditOrganization(ctx context.Context, key string, d models.Donation) (bool, error) {
	if d.OrganizationID == nil {
		return false, errors.New("repositories: recurring credit requires an organization")
	}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	owned, err := claimKey(ctx, tx, key)
	if err != nil || !owned {
		return false, err
	}
	if _, err := insertDonation(ctx, tx, d); err != nil {
		return false, err
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE organizations
         SET fund_raised = fund_raised + ?, total_donations = total_donations + 1
         WHERE id = ?`, d.Amount, *d.OrganizationID)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		return false, models.ErrNoRecord
	}
	return true, tx.Commit()
}

// ApplyCycleTotals bumps the payer's lifetime total and reward point, once per
// billing cycle, atomically with its claim.
func (r *LedgerClaimRepository) ApplyCycleTotals(ctx context.Context, key string, userID, amount int64) (bool, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	owned, err := claimKey(ctx, tx, key)
	if err != nil || !owned {
		return false, err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE donation_managers SET total_donations = total_donations + ? WHERE user_id = ?`,
		amount, userID); err != nil {
		return false, err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO user_reward_points (user_id, points) VALUES (?, 1)
         ON DUPLICATE KEY UPDATE points = points + 1`, userID); err != nil {
		return false, err
	}
	return true, tx.Commit()
}

// claimKey returns true when this transaction owns the key. A duplicate-key
// error means some committed earlier delivery already performed the unit.
func claimKey(ctx context.Context, tx *sql.Tx, key string) (bool, error) {
	_, err := tx.ExecContext(ctx, `INSERT INTO ledger_claims (claim_key) VALUES (?)`, key)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
