package repositories

import (
	"context"
	"database/sql"
)

// NotifyTokenRepository stores device push tokens, several per user.
type NotifyTokenRepository struct {
	DB *sql.DB
}

func NewNotifyTokenRepository(db *sql.DB) *NotifyTokenRepository {
	return &NotifyTokenRepository{DB: db}
}

func (r *NotifyTokenRepository) Save(ctx context.Context, userID int64, token string) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO notify_tokens (user_id, token) VALUES (?, ?)
         ON DUPLICATE KEY UPDATE user_id = user_id`, userID, token)
	return err
}

func (r *NotifyTokenRepository) Delete(ctx context.Context, userID int64, token string) error {
	_, err := r.DB.ExecContext(ctx,
		`DELETE FROM notify_tokens WHERE user_id = ? AND token = ?`, userID, token)
	return err
}

// DeleteByToken drops a token regardless of owner, used when the push
// provider reports it dead.
func (r *NotifyTokenRepository) DeleteByToken(ctx context.Context, token string) error {
	_, err := r.DB.ExecContext(ctx,
		`DELETE FROM notify_tokens WHERE token = ?`, token)
	return err
}

func (r *NotifyTokenRepository) ListByUser(ctx context.Context, userID int64) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT token FROM notify_tokens WHERE user_id = ?`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
