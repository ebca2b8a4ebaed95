package services

import (
	"time"

	"localpros/internal/config"
	"localpros/internal/models"
)

// VisibilityPolicy is the single in-memory definition of "this worker may
// appear in results". The worker repository renders the same rule as SQL;
// both are driven by the one configured mode so search paths cannot diverge.
type VisibilityPolicy struct {
	Mode config.VisibilityPolicy
}

// IsVisible applies the configured rule to a worker and its subscriptions.
func (p VisibilityPolicy) IsVisible(w models.Worker, subs []models.WorkerSubscription, now time.Time) bool {
	if w.Status != models.WorkerStatusActive || !w.ProfileVisible {
		return false
	}
	if p.Mode != config.VisibilityStatusAndSubscription {
		return true
	}
	for _, s := range subs {
		if s.ActiveAt(now) {
			return true
		}
	}
	return false
}
