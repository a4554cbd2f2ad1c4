package repositories

import (
	"context"
	"database/sql"
	"errors"

	"qamqorBack/internal/models"
)

// CustomerRepository maps platform users to gateway customer ids.
type CustomerRepository struct {
	DB *sql.DB
}

func NewCustomerRepository(db *sql.DB) *CustomerRepository { return &CustomerRepository{DB: db} }

func (r *CustomerRepository) GetCustomerID(ctx context.Context, userID int64) (string, error) {
	var id string
	err := r.DB.QueryRowContext(ctx,
		`SELECT customer_id FROM payment_customers WHERE user_id = ?`, userID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", models.ErrNoRecord
	}
	return id, err
}

func (r *CustomerRepository) SaveCustomerID(ctx context.Context, userID int64, customerID string) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO payment_customers (user_id, customer_id) VALUES (?, ?)
         ON DUPLICATE KEY UPDATE customer_id = VALUES(customer_id)`, userID, customerID)
	return err
}
