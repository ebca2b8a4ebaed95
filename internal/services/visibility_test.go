package services

import (
	"testing"
	"time"

	"localpros/internal/config"
	"localpros/internal/models"
)

func TestVisibilityPolicy(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	activeSub := models.WorkerSubscription{
		Status:  models.SubscriptionStatusActive,
		EndDate: now.AddDate(0, 0, 10),
	}
	lapsedSub := models.WorkerSubscription{
		Status:  models.SubscriptionStatusActive,
		EndDate: now.AddDate(0, 0, -1),
	}
	cancelledSub := models.WorkerSubscription{
		Status:  models.SubscriptionStatusCancelled,
		EndDate: now.AddDate(0, 0, 10),
	}

	base := models.Worker{Status: models.WorkerStatusActive, ProfileVisible: true}
	inactive := base
	inactive.Status = models.WorkerStatusInactive
	banned := base
	banned.Status = models.WorkerStatusBanned
	hidden := base
	hidden.ProfileVisible = false

	tests := []struct {
		name   string
		mode   config.VisibilityPolicy
		worker models.Worker
		subs   []models.WorkerSubscription
		want   bool
	}{
		{"active with live subscription", config.VisibilityStatusAndSubscription, base, []models.WorkerSubscription{activeSub}, true},
		{"active without subscription", config.VisibilityStatusAndSubscription, base, nil, false},
		{"active with lapsed subscription", config.VisibilityStatusAndSubscription, base, []models.WorkerSubscription{lapsedSub}, false},
		{"active with cancelled subscription", config.VisibilityStatusAndSubscription, base, []models.WorkerSubscription{cancelledSub}, false},
		{"one live among dead subscriptions", config.VisibilityStatusAndSubscription, base, []models.WorkerSubscription{lapsedSub, activeSub}, true},
		{"inactive with live subscription", config.VisibilityStatusAndSubscription, inactive, []models.WorkerSubscription{activeSub}, false},
		{"banned with live subscription", config.VisibilityStatusAndSubscription, banned, []models.WorkerSubscription{activeSub}, false},
		{"hidden profile with live subscription", config.VisibilityStatusAndSubscription, hidden, []models.WorkerSubscription{activeSub}, false},
		{"status-only ignores subscriptions", config.VisibilityStatusOnly, base, nil, true},
		{"status-only still needs active status", config.VisibilityStatusOnly, inactive, []models.WorkerSubscription{activeSub}, false},
		{"status-only still needs visible profile", config.VisibilityStatusOnly, hidden, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := VisibilityPolicy{Mode: tt.mode}
			if got := p.IsVisible(tt.worker, tt.subs, now); got != tt.want {
				t.Errorf("IsVisible() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSubscriptionActiveAtBoundary(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	// End date equal to now still counts; expiry is exclusive.
	sub := models.WorkerSubscription{Status: models.SubscriptionStatusActive, EndDate: now}
	if !sub.ActiveAt(now) {
		t.Error("subscription ending exactly now should still be active")
	}
	if sub.ActiveAt(now.Add(time.Second)) {
		t.Error("subscription should lapse after its end date")
	}
}
