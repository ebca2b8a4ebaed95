package main

import (
	"net/http"

	"github.com/bmizerany/pat"
	"github.com/justinas/alice"
)

func (app *application) routes() http.Handler {
	standardMiddleware := alice.New(app.recoverPanic, app.logRequest, secureHeaders, makeResponseJSON)
	adminMiddleware := standardMiddleware.Append(app.requireAdmin)

	mux := pat.New()

	// Search
	mux.Get("/api/v1/search/workers", standardMiddleware.ThenFunc(app.searchHandler.SearchWorkers))
	mux.Get("/api/v1/workers", standardMiddleware.ThenFunc(app.searchHandler.ListWorkers))

	// Location resolution
	mux.Get("/api/v1/geocode", standardMiddleware.ThenFunc(app.locationHandler.Geocode))
	mux.Get("/api/v1/geoip", standardMiddleware.ThenFunc(app.locationHandler.GeoIP))
	mux.Post("/api/v1/location/token", standardMiddleware.ThenFunc(app.locationHandler.BeginResolve))
	mux.Post("/api/v1/location/resolve", standardMiddleware.ThenFunc(app.locationHandler.Resolve))

	// Worker lifecycle
	mux.Post("/api/v1/workers/register", standardMiddleware.ThenFunc(app.workerHandler.Register))
	mux.Post("/api/v1/workers/:id/deactivate", adminMiddleware.ThenFunc(app.workerHandler.Deactivate))
	mux.Put("/api/v1/workers/:id/visibility", adminMiddleware.ThenFunc(app.workerHandler.SetVisibility))

	// Service catalog
	mux.Get("/api/v1/services", standardMiddleware.ThenFunc(app.serviceTypeHandler.List))
	mux.Post("/api/v1/services", adminMiddleware.ThenFunc(app.serviceTypeHandler.Upsert))

	return mux
}
