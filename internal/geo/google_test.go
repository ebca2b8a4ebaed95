package geo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"localpros/internal/models"
)

func geocodeServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") == "" {
			t.Errorf("expected api key in request")
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGeocodeSuccess(t *testing.T) {
	srv := geocodeServer(t, http.StatusOK, `{
		"status": "OK",
		"results": [{"geometry": {"location": {"lat": 12.9716, "lng": 77.5946}}}]
	}`)
	client := NewGoogleClient(srv.Client(), "test-key", time.Second).WithBaseURL(srv.URL)

	p, err := client.Geocode(context.Background(), "Bengaluru")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Lat != 12.9716 || p.Lng != 77.5946 {
		t.Fatalf("unexpected point: %+v", p)
	}
}

func TestGeocodeZeroResults(t *testing.T) {
	srv := geocodeServer(t, http.StatusOK, `{"status": "ZERO_RESULTS", "results": []}`)
	client := NewGoogleClient(srv.Client(), "test-key", time.Second).WithBaseURL(srv.URL)

	_, err := client.Geocode(context.Background(), "nowhere in particular")
	if !errors.Is(err, models.ErrNoGeocodeResult) {
		t.Fatalf("expected ErrNoGeocodeResult got %v", err)
	}
}

func TestGeocodeUpstreamError(t *testing.T) {
	srv := geocodeServer(t, http.StatusInternalServerError, `boom`)
	client := NewGoogleClient(srv.Client(), "test-key", time.Second).WithBaseURL(srv.URL)

	_, err := client.Geocode(context.Background(), "Bengaluru")
	if !errors.Is(err, models.ErrGeocodeUnavailable) {
		t.Fatalf("expected ErrGeocodeUnavailable got %v", err)
	}
}

func TestGeocodeWithoutKey(t *testing.T) {
	client := NewGoogleClient(nil, "", time.Second)
	_, err := client.Geocode(context.Background(), "Bengaluru")
	if !errors.Is(err, models.ErrGeocodingDisabled) {
		t.Fatalf("expected ErrGeocodingDisabled got %v", err)
	}
}

func TestGeocodeEmptyAddress(t *testing.T) {
	client := NewGoogleClient(nil, "test-key", time.Second)
	_, err := client.Geocode(context.Background(), "   ")
	if !models.IsValidation(err) {
		t.Fatalf("expected validation error got %v", err)
	}
}

func TestReverseGeocode(t *testing.T) {
	srv := geocodeServer(t, http.StatusOK, `{
		"status": "OK",
		"results": [{
			"formatted_address": "12 MG Road, Bengaluru, Karnataka 560001, India",
			"address_components": [
				{"long_name": "12", "types": ["street_number"]},
				{"long_name": "MG Road", "types": ["route"]},
				{"long_name": "Shivaji Nagar", "types": ["sublocality_level_1", "sublocality"]},
				{"long_name": "Bengaluru", "types": ["locality"]},
				{"long_name": "Karnataka", "types": ["administrative_area_level_1"]},
				{"long_name": "India", "types": ["country"]},
				{"long_name": "560001", "types": ["postal_code"]}
			],
			"geometry": {"location": {"lat": 12.975, "lng": 77.605}}
		}]
	}`)
	client := NewGoogleClient(srv.Client(), "test-key", time.Second).WithBaseURL(srv.URL)

	addr, err := client.ReverseGeocode(context.Background(), Point{Lat: 12.975, Lng: 77.605})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if addr.Line1 != "12 MG Road" {
		t.Fatalf("unexpected line1 %q", addr.Line1)
	}
	if addr.Area != "Shivaji Nagar" || addr.City != "Bengaluru" || addr.State != "Karnataka" {
		t.Fatalf("unexpected address parts: %+v", addr)
	}
	if addr.Country != "India" || addr.Pincode != "560001" {
		t.Fatalf("unexpected address parts: %+v", addr)
	}
}

func TestReverseGeocodeOutOfRange(t *testing.T) {
	client := NewGoogleClient(nil, "test-key", time.Second)
	_, err := client.ReverseGeocode(context.Background(), Point{Lat: 91, Lng: 0})
	if !models.IsValidation(err) {
		t.Fatalf("expected validation error got %v", err)
	}
}
