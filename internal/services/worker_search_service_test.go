package services

import (
	"context"
	"errors"
	"testing"

	"localpros/internal/config"
	"localpros/internal/geo"
	"localpros/internal/models"
	"localpros/internal/repositories"
)

type nopLogger struct{}

func (nopLogger) Infof(format string, args ...interface{})  {}
func (nopLogger) Errorf(format string, args ...interface{}) {}

type stubWorkerStore struct {
	visible []models.Worker
	sample  []models.Worker
	within  []repositories.WorkerWithDistance
	byIDs   []models.Worker
	err     error

	lastList   repositories.ListFilter
	lastRadius repositories.RadiusFilter
	fetchedIDs []int64
	calls      []string
}

func (s *stubWorkerStore) FindVisible(ctx context.Context, f repositories.ListFilter) ([]models.Worker, error) {
	s.calls = append(s.calls, "FindVisible")
	s.lastList = f
	return s.visible, s.err
}

func (s *stubWorkerStore) RandomSample(ctx context.Context, skills []string, limit int) ([]models.Worker, error) {
	s.calls = append(s.calls, "RandomSample")
	return s.sample, s.err
}

func (s *stubWorkerStore) WithinRadius(ctx context.Context, p geo.Point, f repositories.RadiusFilter) ([]repositories.WorkerWithDistance, error) {
	s.calls = append(s.calls, "WithinRadius")
	s.lastRadius = f
	return s.within, s.err
}

func (s *stubWorkerStore) FetchVisibleByIDs(ctx context.Context, ids []int64, skills []string) ([]models.Worker, error) {
	s.calls = append(s.calls, "FetchVisibleByIDs")
	s.fetchedIDs = ids
	return s.byIDs, s.err
}

type stubGeoIndex struct {
	available bool
	nearby    []geo.NearbyWorker
	err       error
}

func (s *stubGeoIndex) Available() bool { return s.available }

func (s *stubGeoIndex) Nearby(ctx context.Context, lon, lat, radiusMeters float64, limit int) ([]geo.NearbyWorker, error) {
	return s.nearby, s.err
}

func floatPtr(v float64) *float64 { return &v }

func searchConfig() config.Config {
	var cfg config.Config
	cfg.Search.DefaultRadiusKm = 25
	cfg.Search.DefaultLimit = 12
	cfg.Search.MaxLimit = 50
	return cfg
}

func newSearchService(store *stubWorkerStore, index *stubGeoIndex) *WorkerSearchService {
	return &WorkerSearchService{Store: store, Index: index, Cfg: searchConfig(), Logger: nopLogger{}}
}

func visibleWorker(id int64, name string, skills []string, lat, lng float64, serviceRadiusKm int) models.Worker {
	return models.Worker{
		ID:              id,
		PublicID:        name + "-uuid",
		Name:            name,
		Skills:          skills,
		Rating:          4.5,
		ServiceRadiusKm: serviceRadiusKm,
		Status:          models.WorkerStatusActive,
		ProfileVisible:  true,
		Address: models.Address{
			City:      "Springfield",
			Latitude:  floatPtr(lat),
			Longitude: floatPtr(lng),
		},
	}
}

func TestSearchValidation(t *testing.T) {
	tests := []struct {
		name    string
		query   models.SearchQuery
		wantMsg string
	}{
		{
			name:    "missing skills",
			query:   models.SearchQuery{RequireSkills: true, Lat: floatPtr(10), Lng: floatPtr(20)},
			wantMsg: "service is required",
		},
		{
			name: "sentinel only counts as missing",
			query: models.SearchQuery{
				RequireSkills: true,
				Skills:        models.NewSkillFilter([]string{models.AllServicesSentinel}),
				Lat:           floatPtr(10), Lng: floatPtr(20),
			},
			wantMsg: "service is required",
		},
		{
			name: "lat without lng",
			query: models.SearchQuery{
				RequireSkills: true,
				Skills:        models.NewSkillFilter([]string{"Plumbing"}),
				Lat:           floatPtr(10),
			},
			wantMsg: "lat and lng are required",
		},
		{
			name: "missing coordinates",
			query: models.SearchQuery{
				RequireSkills: true,
				Skills:        models.NewSkillFilter([]string{"Plumbing"}),
			},
			wantMsg: "lat and lng are required",
		},
		{
			name: "negative radius",
			query: models.SearchQuery{
				RequireSkills: true,
				Skills:        models.NewSkillFilter([]string{"Plumbing"}),
				Lat:           floatPtr(10), Lng: floatPtr(20),
				RadiusKm: -5,
			},
			wantMsg: "radius must be a positive number",
		},
		{
			name: "latitude out of range",
			query: models.SearchQuery{
				RequireSkills: true,
				Skills:        models.NewSkillFilter([]string{"Plumbing"}),
				Lat:           floatPtr(95), Lng: floatPtr(20),
			},
			wantMsg: "lat or lng out of range",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &stubWorkerStore{}
			svc := newSearchService(store, &stubGeoIndex{})
			_, err := svc.Search(context.Background(), tt.query)
			if !models.IsValidation(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if err.Error() != tt.wantMsg {
				t.Errorf("message = %q, want %q", err.Error(), tt.wantMsg)
			}
			if len(store.calls) != 0 {
				t.Errorf("store touched on invalid input: %v", store.calls)
			}
		})
	}
}

func TestSearchBySkillsAndLocation(t *testing.T) {
	searcher := geo.Point{Lat: 0, Lng: 0}
	// Roughly 11.1 km due north of the searcher.
	worker := visibleWorker(7, "Priya", []string{"Plumbing"}, 0.1, 0, 20)

	store := &stubWorkerStore{byIDs: []models.Worker{worker}}
	index := &stubGeoIndex{available: true, nearby: []geo.NearbyWorker{{ID: 7, Dist: 11120}}}
	svc := newSearchService(store, index)

	resp, err := svc.Search(context.Background(), models.SearchQuery{
		RequireSkills: true,
		Skills:        models.NewSkillFilter([]string{"Plumbing"}),
		Lat:           floatPtr(searcher.Lat),
		Lng:           floatPtr(searcher.Lng),
		RadiusKm:      25,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Count != 1 || len(resp.Results) != 1 {
		t.Fatalf("expected one result, got %+v", resp)
	}

	got := resp.Results[0]
	if got.WorkerID != worker.PublicID {
		t.Errorf("worker id = %q, want %q", got.WorkerID, worker.PublicID)
	}
	if got.DistanceKm == nil {
		t.Fatal("expected distance annotation")
	}
	want := geo.DistanceKm(searcher, geo.Point{Lat: 0.1, Lng: 0})
	if *got.DistanceKm != want {
		t.Errorf("distance = %v, want %v", *got.DistanceKm, want)
	}
	if *got.DistanceKm < 11 || *got.DistanceKm > 11.3 {
		t.Errorf("distance = %v, outside plausible band", *got.DistanceKm)
	}
	if len(store.fetchedIDs) != 1 || store.fetchedIDs[0] != 7 {
		t.Errorf("hydrated ids = %v", store.fetchedIDs)
	}
}

func TestSearchNoMatchesIsNotAnError(t *testing.T) {
	store := &stubWorkerStore{byIDs: nil}
	index := &stubGeoIndex{available: true, nearby: []geo.NearbyWorker{}}
	svc := newSearchService(store, index)

	resp, err := svc.Search(context.Background(), models.SearchQuery{
		RequireSkills: true,
		Skills:        models.NewSkillFilter([]string{"Electrical"}),
		Lat:           floatPtr(12.9), Lng: floatPtr(77.6),
		RadiusKm: 25,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Count != 0 {
		t.Errorf("count = %d, want 0", resp.Count)
	}
	if resp.Results == nil {
		t.Error("results should be an empty slice, not nil")
	}
}

func TestSearchBoundaryInclusive(t *testing.T) {
	searcher := geo.Point{Lat: 0, Lng: 0}
	worker := visibleWorker(3, "Marco", []string{"Plumbing"}, 0.2, 0, 50)
	exact := geo.DistanceKm(searcher, geo.Point{Lat: 0.2, Lng: 0})

	store := &stubWorkerStore{byIDs: []models.Worker{worker}}
	index := &stubGeoIndex{available: true, nearby: []geo.NearbyWorker{{ID: 3}}}
	svc := newSearchService(store, index)

	resp, err := svc.Search(context.Background(), models.SearchQuery{
		RequireSkills: true,
		Skills:        models.NewSkillFilter([]string{"Plumbing"}),
		Lat:           floatPtr(searcher.Lat),
		Lng:           floatPtr(searcher.Lng),
		RadiusKm:      exact,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Count != 1 {
		t.Fatalf("worker exactly on the boundary should be included, got count %d", resp.Count)
	}
}

func TestSearchEnforcesWorkerServiceRadius(t *testing.T) {
	searcher := geo.Point{Lat: 0, Lng: 0}
	// About 22.2 km out: inside the caller's 25 km radius but beyond the
	// worker's own 10 km service radius.
	worker := visibleWorker(9, "Dana", []string{"Plumbing"}, 0.2, 0, 10)

	store := &stubWorkerStore{byIDs: []models.Worker{worker}}
	index := &stubGeoIndex{available: true, nearby: []geo.NearbyWorker{{ID: 9}}}
	svc := newSearchService(store, index)

	resp, err := svc.Search(context.Background(), models.SearchQuery{
		RequireSkills: true,
		Skills:        models.NewSkillFilter([]string{"Plumbing"}),
		Lat:           floatPtr(searcher.Lat),
		Lng:           floatPtr(searcher.Lng),
		RadiusKm:      25,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Count != 0 {
		t.Errorf("worker outside its own service radius must be excluded, got %+v", resp.Results)
	}
}

func TestSearchHiddenCandidatesDropOut(t *testing.T) {
	// The index still lists worker 4, but hydration no longer returns it
	// (deactivated or hidden since the last rebuild).
	kept := visibleWorker(5, "Amir", []string{"Plumbing"}, 0.05, 0, 30)
	store := &stubWorkerStore{byIDs: []models.Worker{kept}}
	index := &stubGeoIndex{available: true, nearby: []geo.NearbyWorker{{ID: 4}, {ID: 5}}}
	svc := newSearchService(store, index)

	resp, err := svc.Search(context.Background(), models.SearchQuery{
		RequireSkills: true,
		Skills:        models.NewSkillFilter([]string{"Plumbing"}),
		Lat:           floatPtr(0), Lng: floatPtr(0),
		RadiusKm: 25,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Count != 1 || resp.Results[0].WorkerID != kept.PublicID {
		t.Errorf("expected only the still-visible worker, got %+v", resp.Results)
	}
}

func TestSearchOrdersByDistanceThenSortKey(t *testing.T) {
	near := visibleWorker(1, "Near", []string{"Plumbing"}, 0.05, 0, 50)
	farLow := visibleWorker(2, "FarLow", []string{"Plumbing"}, 0.1, 0, 50)
	farHigh := visibleWorker(3, "FarHigh", []string{"Plumbing"}, 0.1, 0, 50)
	farLow.Rating = 3.0
	farHigh.Rating = 4.9

	store := &stubWorkerStore{byIDs: []models.Worker{farLow, near, farHigh}}
	index := &stubGeoIndex{available: true, nearby: []geo.NearbyWorker{{ID: 2}, {ID: 1}, {ID: 3}}}
	svc := newSearchService(store, index)

	resp, err := svc.Search(context.Background(), models.SearchQuery{
		RequireSkills: true,
		Skills:        models.NewSkillFilter([]string{"Plumbing"}),
		Lat:           floatPtr(0), Lng: floatPtr(0),
		RadiusKm:      25,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got []string
	for _, r := range resp.Results {
		got = append(got, r.Name)
	}
	want := []string{"Near", "FarHigh", "FarLow"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestSearchOrderingIsDeterministic(t *testing.T) {
	a := visibleWorker(11, "TwinA", []string{"Plumbing"}, 0.1, 0, 50)
	b := visibleWorker(12, "TwinB", []string{"Plumbing"}, 0.1, 0, 50)

	store := &stubWorkerStore{byIDs: []models.Worker{b, a}}
	index := &stubGeoIndex{available: true, nearby: []geo.NearbyWorker{{ID: 12}, {ID: 11}}}
	svc := newSearchService(store, index)

	query := models.SearchQuery{
		RequireSkills: true,
		Skills:        models.NewSkillFilter([]string{"Plumbing"}),
		Lat:           floatPtr(0), Lng: floatPtr(0),
		RadiusKm: 25,
	}

	first, err := svc.Search(context.Background(), query)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.Search(context.Background(), query)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range first.Results {
		if first.Results[i].WorkerID != second.Results[i].WorkerID {
			t.Fatalf("ordering changed between runs: %+v vs %+v", first.Results, second.Results)
		}
	}
	// Equal distance and sort key falls back to the internal id.
	if first.Results[0].WorkerID != a.PublicID {
		t.Errorf("tie should break on id, got %q first", first.Results[0].WorkerID)
	}
}

func TestSearchFallsBackToStoreWhenIndexFails(t *testing.T) {
	worker := visibleWorker(8, "Lena", []string{"Plumbing"}, 0.05, 0, 30)
	store := &stubWorkerStore{within: []repositories.WorkerWithDistance{{Worker: worker, DistanceKm: 5.6}}}
	index := &stubGeoIndex{available: true, err: errors.New("connection refused")}
	svc := newSearchService(store, index)

	resp, err := svc.Search(context.Background(), models.SearchQuery{
		RequireSkills: true,
		Skills:        models.NewSkillFilter([]string{"Plumbing"}),
		Lat:           floatPtr(0), Lng: floatPtr(0),
		RadiusKm: 25,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Count != 1 {
		t.Fatalf("expected fallback result, got %+v", resp)
	}
	if !store.lastRadius.EnforceWorkerRadius {
		t.Error("fallback query must enforce the worker service radius")
	}
	if !store.lastRadius.OrderByDistance {
		t.Error("fallback query must order by distance")
	}
	if store.lastRadius.Limit != searchCap {
		t.Errorf("fallback limit = %d, want %d", store.lastRadius.Limit, searchCap)
	}
}

func TestSearchByLocationOnly(t *testing.T) {
	worker := visibleWorker(6, "Noor", []string{"Cleaning"}, 0.05, 0, 5)
	store := &stubWorkerStore{within: []repositories.WorkerWithDistance{{Worker: worker, DistanceKm: 5.6}}}
	svc := newSearchService(store, &stubGeoIndex{})

	resp, err := svc.Search(context.Background(), models.SearchQuery{
		Lat: floatPtr(0), Lng: floatPtr(0),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Count != 1 {
		t.Fatalf("expected one result, got %+v", resp)
	}
	if store.lastRadius.EnforceWorkerRadius {
		t.Error("location-only listing must not enforce the worker service radius")
	}
	if store.lastRadius.RadiusKm != 25 {
		t.Errorf("radius = %v, want configured default 25", store.lastRadius.RadiusKm)
	}
	if resp.Results[0].DistanceKm == nil || *resp.Results[0].DistanceKm != 5.6 {
		t.Errorf("expected distance passthrough, got %+v", resp.Results[0].DistanceKm)
	}
}

func TestSearchWithoutLocation(t *testing.T) {
	worker := visibleWorker(2, "Omar", []string{"Painting"}, 10, 10, 15)
	store := &stubWorkerStore{visible: []models.Worker{worker}}
	svc := newSearchService(store, &stubGeoIndex{})

	resp, err := svc.Search(context.Background(), models.SearchQuery{
		Skills: models.NewSkillFilter([]string{"Painting"}),
		Sort:   models.SortPriceAsc,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Count != 1 {
		t.Fatalf("expected one result, got %+v", resp)
	}
	if resp.Results[0].DistanceKm != nil {
		t.Error("no searcher location means no distance annotation")
	}
	if len(store.lastList.Skills) != 1 || store.lastList.Skills[0] != "Painting" {
		t.Errorf("skills filter = %v", store.lastList.Skills)
	}
	if store.lastList.Sort != models.SortPriceAsc {
		t.Errorf("sort = %v, want price_asc", store.lastList.Sort)
	}
	if store.lastList.Limit != 12 {
		t.Errorf("limit = %d, want default 12", store.lastList.Limit)
	}
}

func TestSearchRandomSample(t *testing.T) {
	worker := visibleWorker(2, "Omar", []string{"Painting"}, 10, 10, 15)
	store := &stubWorkerStore{sample: []models.Worker{worker}}
	svc := newSearchService(store, &stubGeoIndex{})

	resp, err := svc.Search(context.Background(), models.SearchQuery{Random: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Count != 1 {
		t.Fatalf("expected one result, got %+v", resp)
	}
	if len(store.calls) != 1 || store.calls[0] != "RandomSample" {
		t.Errorf("calls = %v, want single RandomSample", store.calls)
	}
}

func TestSearchStoreFailure(t *testing.T) {
	store := &stubWorkerStore{err: errors.New("pq: connection reset")}
	svc := newSearchService(store, &stubGeoIndex{})

	_, err := svc.Search(context.Background(), models.SearchQuery{})
	if !errors.Is(err, models.ErrSearchUnavailable) {
		t.Fatalf("expected ErrSearchUnavailable, got %v", err)
	}
	if models.IsValidation(err) {
		t.Error("infrastructure failure must not surface as a validation error")
	}
}

func TestSearchLimitCappedAtMax(t *testing.T) {
	store := &stubWorkerStore{}
	svc := newSearchService(store, &stubGeoIndex{})

	_, err := svc.Search(context.Background(), models.SearchQuery{Limit: 500})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.lastList.Limit != 50 {
		t.Errorf("limit = %d, want capped at 50", store.lastList.Limit)
	}
}
