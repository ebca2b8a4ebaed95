package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"localpros/internal/geo"
	"localpros/internal/models"
	"localpros/internal/services"

	"github.com/google/uuid"
)

// LocationHandler exposes the coordinate resolution pipeline and the two
// provider passthroughs (geocoding and IP geolocation).
type LocationHandler struct {
	Resolver *services.LocationResolver
	Geocoder *geo.GoogleClient
	IPLookup *geo.IPAPIClient
}

// Geocode resolves a free-text address into coordinates.
func (h *LocationHandler) Geocode(w http.ResponseWriter, r *http.Request) {
	address := r.URL.Query().Get("address")
	if address == "" {
		writeError(w, http.StatusBadRequest, "address is required")
		return
	}

	ctx, cancel := contextWithTimeout(r)
	defer cancel()

	point, err := h.Geocoder.Geocode(ctx, address)
	if err != nil {
		switch {
		case models.IsValidation(err):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, models.ErrNoGeocodeResult):
			writeError(w, http.StatusNotFound, models.ErrNoGeocodeResult.Error())
		case errors.Is(err, models.ErrGeocodingDisabled):
			writeError(w, http.StatusServiceUnavailable, models.ErrGeocodingDisabled.Error())
		default:
			writeError(w, http.StatusBadGateway, "unable to geocode address")
		}
		return
	}
	writeJSON(w, http.StatusOK, point)
}

// GeoIP resolves the caller's approximate location from its IP.
func (h *LocationHandler) GeoIP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := contextWithTimeout(r)
	defer cancel()

	loc, err := h.IPLookup.Lookup(ctx, clientIP(r))
	if err != nil {
		writeError(w, http.StatusBadGateway, "geo ip lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"latitude":  loc.Point.Lat,
		"longitude": loc.Point.Lng,
		"city":      loc.City,
		"region":    loc.Region,
		"country":   loc.Country,
		"label":     loc.Label(),
	})
}

type resolveRequestBody struct {
	Token    string   `json:"token"`
	Lat      *float64 `json:"lat"`
	Lng      *float64 `json:"lng"`
	Location string   `json:"location"`
	Device   *struct {
		Lat    *float64 `json:"lat"`
		Lng    *float64 `json:"lng"`
		Denied bool     `json:"denied"`
	} `json:"device"`
}

// devicePosition adapts the client-reported device fix to the resolver's
// DeviceLocator contract: the browser already ran getCurrentPosition, so
// the "device" here either has coordinates or a permission denial.
type devicePosition struct {
	point  *geo.Point
	denied bool
}

func (d devicePosition) CurrentPosition(context.Context) (geo.Point, error) {
	if d.denied || d.point == nil {
		return geo.Point{}, errors.New("device position denied")
	}
	return *d.point, nil
}

// Resolve runs the full fallback chain: explicit coords, device fix, IP
// geolocation, text geocoding. The optional token makes rapid re-requests
// last-request-wins: a stale response reports superseded=true and was not
// committed to the session snapshot.
func (h *LocationHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	var body resolveRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req := services.ResolveRequest{Text: body.Location, IP: clientIP(r)}
	if body.Lat != nil && body.Lng != nil {
		req.Explicit = &geo.Point{Lat: *body.Lat, Lng: *body.Lng}
	}
	if body.Device != nil {
		dev := devicePosition{denied: body.Device.Denied}
		if body.Device.Lat != nil && body.Device.Lng != nil {
			dev.point = &geo.Point{Lat: *body.Device.Lat, Lng: *body.Device.Lng}
		}
		req.Device = dev
	}

	var token uuid.UUID
	if body.Token != "" {
		parsed, err := uuid.Parse(body.Token)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid token")
			return
		}
		token = parsed
	} else {
		token = h.Resolver.Begin()
	}

	ctx, cancel := contextWithTimeout(r)
	defer cancel()

	loc, applied := h.Resolver.Resolve(ctx, token, req)
	payload := map[string]interface{}{
		"label":      loc.Label,
		"hint":       loc.Hint,
		"superseded": !applied,
	}
	if loc.Point != nil {
		payload["latitude"] = loc.Point.Lat
		payload["longitude"] = loc.Point.Lng
	}
	writeJSON(w, http.StatusOK, payload)
}

// BeginResolve hands out a fresh resolution token, superseding any
// in-flight attempt for this session.
func (h *LocationHandler) BeginResolve(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"token": h.Resolver.Begin().String()})
}
