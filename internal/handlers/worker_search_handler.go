package handlers

import (
	"net/http"
	"strconv"

	"localpros/internal/config"
	"localpros/internal/geo"
	"localpros/internal/models"
	"localpros/internal/services"
)

// WorkerSearchHandler serves the two search entry points: the skill-filtered
// radius search and the general listing with optional location.
type WorkerSearchHandler struct {
	Search   *services.WorkerSearchService
	Resolver *services.LocationResolver
	Cfg      config.Config
}

// SearchWorkers is the precise skill + location search. The radius query
// parameter is kilometers; both the caller's radius and the worker's own
// service radius bound the results.
func (h *WorkerSearchHandler) SearchWorkers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	skills := models.NewSkillFilter(splitCSV(q.Get("service")))
	if skills.IsEmpty() {
		writeError(w, http.StatusBadRequest, "service is required")
		return
	}

	latRaw, lngRaw := q.Get("lat"), q.Get("lng")
	if latRaw == "" || lngRaw == "" {
		writeError(w, http.StatusBadRequest, "lat and lng are required")
		return
	}
	lat, latOK := parseOptionalFloat(latRaw)
	lng, lngOK := parseOptionalFloat(lngRaw)
	if !latOK || !lngOK || lat == nil || lng == nil {
		writeError(w, http.StatusBadRequest, "lat and lng must be numbers")
		return
	}
	if !(geo.Point{Lat: *lat, Lng: *lng}).Valid() {
		writeError(w, http.StatusBadRequest, "lat or lng out of range")
		return
	}

	radiusKm := h.Cfg.Search.DefaultRadiusKm
	if raw := q.Get("radius"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v <= 0 {
			writeError(w, http.StatusBadRequest, "radius must be a positive number")
			return
		}
		radiusKm = v
	}

	ctx, cancel := contextWithTimeout(r)
	defer cancel()

	resp, err := h.Search.Search(ctx, models.SearchQuery{
		Skills:        skills,
		Lat:           lat,
		Lng:           lng,
		RadiusKm:      radiusKm,
		Sort:          models.ParseSortOption(q.Get("sort")),
		RequireSkills: true,
	})
	if err != nil {
		writeServiceError(w, err, "failed to search workers")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListWorkers is the general listing: optional skills, optional free-text
// location or explicit coordinates, optional randomized sampling. The
// distance query parameter is miles and is converted at this boundary.
func (h *WorkerSearchHandler) ListWorkers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	lat, latOK := parseOptionalFloat(q.Get("lat"))
	lng, lngOK := parseOptionalFloat(q.Get("lng"))
	if !latOK || !lngOK {
		writeError(w, http.StatusBadRequest, "lat and lng must be numbers")
		return
	}

	ctx, cancel := contextWithTimeout(r)
	defer cancel()

	locationText := q.Get("location")
	if (lat == nil || lng == nil) && locationText != "" {
		// Text resolution failure is non-fatal: degrade to no-location mode.
		if loc := h.Resolver.ResolveNow(ctx, services.ResolveRequest{Text: locationText}); loc.Point != nil {
			lat, lng = &loc.Point.Lat, &loc.Point.Lng
		}
	}

	radiusKm := 0.0
	if lat != nil && lng != nil {
		distanceMiles := h.Cfg.Search.DefaultRadiusKm / geo.KmPerMile
		if raw := q.Get("distance"); raw != "" {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil || v <= 0 {
				writeError(w, http.StatusBadRequest, "radius must be a positive number")
				return
			}
			distanceMiles = v
		}
		if distanceMiles > h.Cfg.Search.MaxDistanceMiles {
			distanceMiles = h.Cfg.Search.MaxDistanceMiles
		}
		radiusKm = geo.MilesToKm(distanceMiles)
	}

	maxRate := 0.0
	if v, ok := parseOptionalFloat(q.Get("maxRate")); ok && v != nil && *v > 0 {
		maxRate = *v
	}
	limit := 0
	if raw := q.Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}

	resp, err := h.Search.Search(ctx, models.SearchQuery{
		Skills:       models.NewSkillFilter(splitCSV(q.Get("skill"))),
		Lat:          lat,
		Lng:          lng,
		LocationText: locationText,
		RadiusKm:     radiusKm,
		Query:        q.Get("q"),
		MaxRate:      maxRate,
		Sort:         models.ParseSortOption(q.Get("sort")),
		Limit:        limit,
		Random:       q.Get("random") == "1",
	})
	if err != nil {
		writeServiceError(w, err, "failed to fetch workers")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
