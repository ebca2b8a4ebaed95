package repositories

import (
	"context"
	"database/sql"
	"time"

	"localpros/internal/models"
)

// SubscriptionRepository stores worker visibility subscriptions.
type SubscriptionRepository struct {
	DB *sql.DB
}

// HasActiveSubscription reports whether the worker holds an ACTIVE,
// non-expired subscription at the given moment.
func (r *SubscriptionRepository) HasActiveSubscription(ctx context.Context, workerID int64, now time.Time) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM worker_subscriptions
			WHERE worker_id = $1 AND status = 'ACTIVE' AND end_date >= $2
		)`, workerID, now).Scan(&exists)
	return exists, err
}

// Create persists a new subscription window.
func (r *SubscriptionRepository) Create(ctx context.Context, sub models.WorkerSubscription) (models.WorkerSubscription, error) {
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO worker_subscriptions (worker_id, status, start_date, end_date)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		sub.WorkerID, sub.Status, sub.StartDate, sub.EndDate,
	).Scan(&sub.ID)
	return sub, err
}

// ListByWorker returns all subscription windows for a worker, newest first.
func (r *SubscriptionRepository) ListByWorker(ctx context.Context, workerID int64) ([]models.WorkerSubscription, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, worker_id, status, start_date, end_date
		FROM worker_subscriptions
		WHERE worker_id = $1
		ORDER BY end_date DESC`, workerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []models.WorkerSubscription
	for rows.Next() {
		var s models.WorkerSubscription
		if err := rows.Scan(&s.ID, &s.WorkerID, &s.Status, &s.StartDate, &s.EndDate); err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

// ExpireLapsed marks ACTIVE subscriptions whose end date has passed as
// EXPIRED and returns how many rows changed. The sweeper runs this before
// rebuilding the geo index.
func (r *SubscriptionRepository) ExpireLapsed(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE worker_subscriptions
		SET status = 'EXPIRED'
		WHERE status = 'ACTIVE' AND end_date < $1`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
