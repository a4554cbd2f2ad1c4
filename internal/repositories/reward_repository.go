package repositories

import (
	"context"
	"database/sql"
	"errors"

	"qamqorBack/internal/models"
)

// RewardRepository tracks per-user reward points.
type RewardRepository struct {
	DB *sql.DB
}

func NewRewardRepository(db *sql.DB) *RewardRepository { return &RewardRepository{DB: db} }

// Increment adds exactly one point, creating the row on first use.
func (r *RewardRepository) Increment(ctx context.Context, userID int64) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO user_reward_points (user_id, points) VALUES (?, 1)
         ON DUPLICATE KEY UPDATE points = points + 1`, userID)
	return err
}

func (r *RewardRepository) GetByUser(ctx context.Context, userID int64) (models.UserRewardPoint, error) {
	var p models.UserRewardPoint
	err := r.DB.QueryRowContext(ctx,
		`SELECT user_id, points FROM user_reward_points WHERE user_id = ?`, userID).
		Scan(&p.UserID, &p.Points)
	if errors.Is(err, sql.ErrNoRows) {
		return models.UserRewardPoint{UserID: userID}, nil
	}
	return p, err
}
