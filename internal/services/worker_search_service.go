package services

import (
	"context"
	"sort"

	"localpros/internal/config"
	"localpros/internal/geo"
	"localpros/internal/models"
	"localpros/internal/repositories"
)

// searchCap is the fixed internal limit of the skill-filtered location
// search, independent of the caller's limit.
const searchCap = 50

// geoSearchMargin widens the index candidate radius so that a worker
// sitting exactly on the boundary survives rounding in the index; the
// canonical haversine filter below decides inclusion.
const geoSearchMargin = 1.01

// WorkerStore is the worker query surface the search engine consumes.
type WorkerStore interface {
	FindVisible(ctx context.Context, f repositories.ListFilter) ([]models.Worker, error)
	RandomSample(ctx context.Context, skills []string, limit int) ([]models.Worker, error)
	WithinRadius(ctx context.Context, p geo.Point, f repositories.RadiusFilter) ([]repositories.WorkerWithDistance, error)
	FetchVisibleByIDs(ctx context.Context, ids []int64, skills []string) ([]models.Worker, error)
}

// GeoIndex is the spatial index used for candidate retrieval.
type GeoIndex interface {
	Available() bool
	Nearby(ctx context.Context, lon, lat, radiusMeters float64, limit int) ([]geo.NearbyWorker, error)
}

// Logger is the minimal logging contract the services need.
type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// WorkerSearchService is the ranking and filtering core. It is stateless;
// concurrent searches share nothing beyond the underlying store.
type WorkerSearchService struct {
	Store  WorkerStore
	Index  GeoIndex
	Cfg    config.Config
	Logger Logger
}

// Search validates the query, picks the mode and returns ranked results.
// Distances are kilometers, computed with one haversine formula everywhere.
func (s *WorkerSearchService) Search(ctx context.Context, q models.SearchQuery) (models.SearchResponse, error) {
	if err := s.validate(&q); err != nil {
		return models.SearchResponse{}, err
	}

	if !q.HasCoordinates() {
		return s.searchWithoutLocation(ctx, q)
	}
	if q.Skills.IsEmpty() {
		return s.searchByLocation(ctx, q)
	}
	return s.searchByLocationAndSkills(ctx, q)
}

func (s *WorkerSearchService) validate(q *models.SearchQuery) error {
	if q.RequireSkills && q.Skills.IsEmpty() {
		return models.NewValidationError("service is required")
	}
	if (q.Lat == nil) != (q.Lng == nil) {
		return models.NewValidationError("lat and lng are required")
	}
	if q.RequireSkills && !q.HasCoordinates() {
		return models.NewValidationError("lat and lng are required")
	}
	if q.RadiusKm < 0 {
		return models.NewValidationError("radius must be a positive number")
	}
	if q.HasCoordinates() {
		p := geo.Point{Lat: *q.Lat, Lng: *q.Lng}
		if !p.Valid() {
			return models.NewValidationError("lat or lng out of range")
		}
		// Zero means "not provided": fall back to the configured default.
		if q.RadiusKm == 0 {
			q.RadiusKm = s.Cfg.Search.DefaultRadiusKm
		}
	}
	if q.Sort == "" {
		q.Sort = models.SortRatingDesc
	}
	if q.Limit <= 0 {
		q.Limit = s.Cfg.Search.DefaultLimit
	}
	if q.Limit > s.Cfg.Search.MaxLimit {
		q.Limit = s.Cfg.Search.MaxLimit
	}
	return nil
}

// searchWithoutLocation filters by visibility and skills only. No distance
// is computed or returned.
func (s *WorkerSearchService) searchWithoutLocation(ctx context.Context, q models.SearchQuery) (models.SearchResponse, error) {
	var (
		workers []models.Worker
		err     error
	)
	if q.Random {
		workers, err = s.Store.RandomSample(ctx, q.Skills.Skills(), q.Limit)
	} else {
		workers, err = s.Store.FindVisible(ctx, repositories.ListFilter{
			Skills:  q.Skills.Skills(),
			Query:   q.Query,
			MaxRate: q.MaxRate,
			Sort:    q.Sort,
			Limit:   q.Limit,
		})
	}
	if err != nil {
		s.Logger.Errorf("worker search: list query failed: %v", err)
		return models.SearchResponse{}, models.ErrSearchUnavailable
	}

	results := make([]models.SearchResult, 0, len(workers))
	for _, w := range workers {
		results = append(results, toResult(w, nil))
	}
	return models.SearchResponse{Count: len(results), Results: results}, nil
}

// searchByLocation bounds results by the caller's radius only; the worker's
// own service radius is not enforced in this branch. The requested sort
// applies, with the distance annotated per result.
func (s *WorkerSearchService) searchByLocation(ctx context.Context, q models.SearchQuery) (models.SearchResponse, error) {
	p := geo.Point{Lat: *q.Lat, Lng: *q.Lng}
	rows, err := s.Store.WithinRadius(ctx, p, repositories.RadiusFilter{
		Query:           q.Query,
		MaxRate:         q.MaxRate,
		RadiusKm:        q.RadiusKm,
		OrderByDistance: false,
		Sort:            q.Sort,
		Limit:           q.Limit,
	})
	if err != nil {
		s.Logger.Errorf("worker search: radius query failed: %v", err)
		return models.SearchResponse{}, models.ErrSearchUnavailable
	}

	results := make([]models.SearchResult, 0, len(rows))
	for _, row := range rows {
		d := row.DistanceKm
		results = append(results, toResult(row.Worker, &d))
	}
	return models.SearchResponse{Count: len(results), Results: results}, nil
}

// searchByLocationAndSkills applies both distance bounds: the caller's
// radius AND the worker's own service radius, inclusive. Candidates come
// from the Redis GEO index when it is reachable, with the SQL haversine
// query as fallback; final distances always come from geo.DistanceKm.
func (s *WorkerSearchService) searchByLocationAndSkills(ctx context.Context, q models.SearchQuery) (models.SearchResponse, error) {
	p := geo.Point{Lat: *q.Lat, Lng: *q.Lng}

	if s.Index != nil && s.Index.Available() {
		resp, err := s.searchViaIndex(ctx, p, q)
		if err == nil {
			return resp, nil
		}
		s.Logger.Errorf("worker search: geo index failed, falling back to store: %v", err)
	}

	rows, err := s.Store.WithinRadius(ctx, p, repositories.RadiusFilter{
		Skills:              q.Skills.Skills(),
		RadiusKm:            q.RadiusKm,
		EnforceWorkerRadius: true,
		OrderByDistance:     true,
		Sort:                q.Sort,
		Limit:               searchCap,
	})
	if err != nil {
		s.Logger.Errorf("worker search: radius query failed: %v", err)
		return models.SearchResponse{}, models.ErrSearchUnavailable
	}

	results := make([]models.SearchResult, 0, len(rows))
	for _, row := range rows {
		d := row.DistanceKm
		results = append(results, toResult(row.Worker, &d))
	}
	return models.SearchResponse{Count: len(results), Results: results}, nil
}

func (s *WorkerSearchService) searchViaIndex(ctx context.Context, p geo.Point, q models.SearchQuery) (models.SearchResponse, error) {
	candidates, err := s.Index.Nearby(ctx, p.Lng, p.Lat, q.RadiusKm*1000*geoSearchMargin, searchCap*2)
	if err != nil {
		return models.SearchResponse{}, err
	}
	if len(candidates) == 0 {
		return models.SearchResponse{Count: 0, Results: []models.SearchResult{}}, nil
	}

	ids := make([]int64, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.ID)
	}

	workers, err := s.Store.FetchVisibleByIDs(ctx, ids, q.Skills.Skills())
	if err != nil {
		s.Logger.Errorf("worker search: candidate hydration failed: %v", err)
		return models.SearchResponse{}, models.ErrSearchUnavailable
	}

	type ranked struct {
		worker models.Worker
		dist   float64
	}
	matches := make([]ranked, 0, len(workers))
	for _, w := range workers {
		if !w.HasCoordinates() {
			continue
		}
		d := geo.DistanceKm(p, geo.Point{Lat: *w.Address.Latitude, Lng: *w.Address.Longitude})
		if d > q.RadiusKm || d > float64(w.ServiceRadiusKm) {
			continue
		}
		matches = append(matches, ranked{worker: w, dist: d})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].dist != matches[j].dist {
			return matches[i].dist < matches[j].dist
		}
		if c := compareBySort(matches[i].worker, matches[j].worker, q.Sort); c != 0 {
			return c < 0
		}
		return matches[i].worker.ID < matches[j].worker.ID
	})

	if len(matches) > searchCap {
		matches = matches[:searchCap]
	}

	results := make([]models.SearchResult, 0, len(matches))
	for _, m := range matches {
		d := m.dist
		results = append(results, toResult(m.worker, &d))
	}
	return models.SearchResponse{Count: len(results), Results: results}, nil
}

// compareBySort orders two workers by the requested sort key; negative
// means a ranks first. Used as the tie-break under equal distances.
func compareBySort(a, b models.Worker, sortOpt models.SortOption) int {
	switch sortOpt {
	case models.SortPriceAsc:
		return compareFloat(a.PricePerService, b.PricePerService)
	case models.SortPriceDesc:
		return compareFloat(b.PricePerService, a.PricePerService)
	case models.SortExperienceDesc:
		return compareFloat(float64(b.ExperienceYears), float64(a.ExperienceYears))
	default:
		return compareFloat(b.Rating, a.Rating)
	}
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func toResult(w models.Worker, distanceKm *float64) models.SearchResult {
	return models.SearchResult{
		WorkerID:        w.PublicID,
		Name:            w.Name,
		Skills:          w.Skills,
		Rating:          w.Rating,
		TotalReviews:    w.TotalReviews,
		ExperienceYears: w.ExperienceYears,
		PricePerService: w.PricePerService,
		PayType:         w.PayType,
		ServiceRadiusKm: w.ServiceRadiusKm,
		City:            w.Address.City,
		State:           w.Address.State,
		DistanceKm:      distanceKm,
	}
}
