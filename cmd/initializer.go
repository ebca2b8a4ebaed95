package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"time"

	"localpros/internal/config"
	"localpros/internal/geo"
	"localpros/internal/handlers"
	"localpros/internal/repositories"
	"localpros/internal/services"

	"github.com/redis/go-redis/v9"
)

// appLogger adapts the two stdlib loggers to the services.Logger contract.
type appLogger struct {
	info  *log.Logger
	error *log.Logger
}

func (l appLogger) Infof(format string, args ...interface{})  { l.info.Printf(format, args...) }
func (l appLogger) Errorf(format string, args ...interface{}) { l.error.Printf(format, args...) }

type application struct {
	cfg      config.Config
	infoLog  *log.Logger
	errorLog *log.Logger

	workerRepo       *repositories.WorkerRepository
	subscriptionRepo *repositories.SubscriptionRepository
	serviceTypeRepo  *repositories.ServiceTypeRepository
	locator          *geo.WorkerLocator

	searchHandler      *handlers.WorkerSearchHandler
	workerHandler      *handlers.WorkerHandler
	locationHandler    *handlers.LocationHandler
	serviceTypeHandler *handlers.ServiceTypeHandler
}

func initializeApp(cfg config.Config, db *sql.DB, rdb *redis.Client, errorLog, infoLog *log.Logger) *application {
	logger := appLogger{info: infoLog, error: errorLog}
	httpClient := &http.Client{Timeout: cfg.Geocoding.Timeout + 2*time.Second}

	// Repositories
	workerRepo := &repositories.WorkerRepository{
		DB:         db,
		Policy:     cfg.Search.VisibilityPolicy,
		SkillMatch: cfg.Search.SkillMatch,
	}
	subscriptionRepo := &repositories.SubscriptionRepository{DB: db}
	serviceTypeRepo := &repositories.ServiceTypeRepository{DB: db}

	// Providers
	geocoder := geo.NewGoogleClient(httpClient, cfg.Geocoding.APIKey, cfg.Geocoding.Timeout)
	ipLookup := geo.NewIPAPIClient(httpClient, cfg.Geocoding.Timeout)
	locator := geo.NewWorkerLocator(rdb)

	// Services
	searchService := &services.WorkerSearchService{
		Store:  workerRepo,
		Index:  locator,
		Cfg:    cfg,
		Logger: logger,
	}
	resolver := &services.LocationResolver{
		Geocoder: geocoder,
		IPLookup: ipLookup,
		Logger:   logger,
	}
	workerService := &services.WorkerService{
		Workers:       workerRepo,
		Subscriptions: subscriptionRepo,
		Geocoder:      geocoder,
		Index:         locator,
		Policy:        services.VisibilityPolicy{Mode: cfg.Search.VisibilityPolicy},
		Logger:        logger,
	}
	serviceTypeService := &services.ServiceTypeService{Repo: serviceTypeRepo}

	return &application{
		cfg:              cfg,
		infoLog:          infoLog,
		errorLog:         errorLog,
		workerRepo:       workerRepo,
		subscriptionRepo: subscriptionRepo,
		serviceTypeRepo:  serviceTypeRepo,
		locator:          locator,
		searchHandler: &handlers.WorkerSearchHandler{
			Search:   searchService,
			Resolver: resolver,
			Cfg:      cfg,
		},
		workerHandler:      &handlers.WorkerHandler{Workers: workerService},
		locationHandler:    &handlers.LocationHandler{Resolver: resolver, Geocoder: geocoder, IPLookup: ipLookup},
		serviceTypeHandler: &handlers.ServiceTypeHandler{Catalog: serviceTypeService},
	}
}

// rebuildGeoIndex reseeds the Redis GEO set from the store so the index
// reflects the configured visibility policy after a restart.
func (app *application) rebuildGeoIndex(ctx context.Context) {
	if !app.locator.Available() {
		return
	}
	entries, err := app.workerRepo.ListForIndex(ctx)
	if err != nil {
		app.errorLog.Printf("geo index rebuild: list visible workers: %v", err)
		return
	}
	if err := app.locator.Rebuild(ctx, entries); err != nil {
		app.errorLog.Printf("geo index rebuild: %v", err)
		return
	}
	app.infoLog.Printf("geo index rebuilt with %d workers", len(entries))
}
