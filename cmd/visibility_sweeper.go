package main

import (
	"context"
	"time"
)

const sweeperTimeout = 1 * time.Minute

// startVisibilitySweeper periodically expires lapsed subscriptions and
// rebuilds the geo index so lapsed workers stop appearing as candidates.
// The SQL visibility predicate is authoritative either way; the sweep only
// keeps the index tight.
func startVisibilitySweeper(ctx context.Context, app *application, interval time.Duration) {
	if !app.cfg.Search.VisibilityPolicy.IsSubscriptionGated() {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		runOnce := func() {
			runCtx, cancel := context.WithTimeout(ctx, sweeperTimeout)
			defer cancel()

			expired, err := app.subscriptionRepo.ExpireLapsed(runCtx, time.Now().UTC())
			if err != nil {
				app.errorLog.Printf("visibility sweeper: expire lapsed subscriptions: %v", err)
				return
			}
			if expired > 0 {
				app.infoLog.Printf("visibility sweeper: expired %d subscriptions", expired)
			}
			app.rebuildGeoIndex(runCtx)
		}

		runOnce()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				runOnce()
			}
		}
	}()
}
