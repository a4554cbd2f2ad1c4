package repositories

import (
	"context"
	"database/sql"
	"errors"

	"qamqorBack/internal/models"
)

// EventRepository exposes fundraising state of events.
type EventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) *EventRepository { return &EventRepository{DB: db} }

func (r *EventRepository) GetByID(ctx context.Context, id int64) (models.Event, error) {
	var e models.Event
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, organization_id, name, fund_raised, total_donations, fundraising_goal, goal_reached
         FROM events WHERE id = ?`, id).
		Scan(&e.ID, &e.OrganizationID, &e.Name, &e.FundRaised, &e.TotalDonations, &e.FundraisingGoal, &e.GoalReached)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Event{}, models.ErrNoRecord
	}
	return e, err
}

// IncrementFunds adds to the event's raised total and flips the goal latch
// when the goal is met. The latch update only matches rows where goal_reached
// is still false, so the returned flag is true exactly once per event.
func (r *EventRepository) IncrementFunds(ctx context.Context, id int64, amount int64) (bool, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE events
         SET fund_raised = fund_raised + ?, total_donations = total_donations + 1
         WHERE id = ?`, amount, id)
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

	res, err = tx.ExecContext(ctx,
		`UPDATE events SET goal_reached = 1
         WHERE id = ? AND goal_reached = 0 AND fundraising_goal > 0
           AND fund_raised >= fundraising_goal`, id)
	if err != nil {
		return false, err
	}
	latched, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return latched > 0, nil
}
