package models

import "time"

// SubscriptionStatus is the lifecycle state of a worker subscription.
type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "ACTIVE"
	SubscriptionStatusExpired   SubscriptionStatus = "EXPIRED"
	SubscriptionStatusCancelled SubscriptionStatus = "CANCELLED"
)

// WorkerSubscription is a paid visibility window for a worker profile.
type WorkerSubscription struct {
	ID        int64              `json:"id"`
	WorkerID  int64              `json:"worker_id"`
	Status    SubscriptionStatus `json:"status"`
	StartDate time.Time          `json:"start_date"`
	EndDate   time.Time          `json:"end_date"`
}

// ActiveAt reports whether the subscription grants visibility at the moment.
func (s WorkerSubscription) ActiveAt(now time.Time) bool {
	return s.Status == SubscriptionStatusActive && !s.EndDate.Before(now)
}

// Claims are the JWT claims accepted by the admin middleware.
type Claims struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
	Exp    int64  `json:"exp"`
}

// Valid implements jwt.Claims; expiry is checked against wall time.
func (c Claims) Valid() error {
	if c.Exp != 0 && time.Now().Unix() > c.Exp {
		return ValidationError{Message: "token expired"}
	}
	return nil
}
