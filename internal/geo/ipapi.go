package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"localpros/internal/models"
)

const ipapiBaseURL = "https://ipapi.co"

// IPLocation is a coarse location derived from a client IP.
type IPLocation struct {
	Point   Point  `json:"point"`
	City    string `json:"city"`
	Region  string `json:"region"`
	Country string `json:"country"`
}

// Label builds the human-readable location label: city, region and country
// joined with ", ", skipping blanks, defaulting to "Current location".
func (l IPLocation) Label() string {
	parts := nonEmpty(l.City, l.Region, l.Country)
	if len(parts) == 0 {
		return "Current location"
	}
	return strings.Join(parts, ", ")
}

// IPAPIClient resolves approximate coordinates for an IP via ipapi.co.
type IPAPIClient struct {
	httpClient *http.Client
	baseURL    string
	timeout    time.Duration
}

// NewIPAPIClient constructs an IP geolocation client.
func NewIPAPIClient(httpClient *http.Client, timeout time.Duration) *IPAPIClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &IPAPIClient{httpClient: httpClient, baseURL: ipapiBaseURL, timeout: timeout}
}

// WithBaseURL overrides the provider endpoint, used by tests.
func (c *IPAPIClient) WithBaseURL(base string) *IPAPIClient {
	c.baseURL = base
	return c
}

// Lookup resolves the given IP, or the caller's own IP when empty.
func (c *IPAPIClient) Lookup(ctx context.Context, ip string) (IPLocation, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := c.baseURL + "/json/"
	if ip = strings.TrimSpace(ip); ip != "" {
		endpoint = fmt.Sprintf("%s/%s/json/", c.baseURL, ip)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return IPLocation{}, fmt.Errorf("geoip: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return IPLocation{}, fmt.Errorf("%w: %v", models.ErrGeoIPUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return IPLocation{}, fmt.Errorf("%w: http %s", models.ErrGeoIPUnavailable, resp.Status)
	}

	var payload struct {
		Latitude    float64 `json:"latitude"`
		Longitude   float64 `json:"longitude"`
		City        string  `json:"city"`
		Region      string  `json:"region"`
		CountryName string  `json:"country_name"`
		Country     string  `json:"country"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return IPLocation{}, fmt.Errorf("%w: decode: %v", models.ErrGeoIPUnavailable, err)
	}

	p := Point{Lat: payload.Latitude, Lng: payload.Longitude}
	if !p.Valid() || (math.Abs(p.Lat) < 1e-9 && math.Abs(p.Lng) < 1e-9) {
		return IPLocation{}, fmt.Errorf("%w: location unavailable", models.ErrGeoIPUnavailable)
	}

	country := payload.CountryName
	if country == "" {
		country = payload.Country
	}
	return IPLocation{Point: p, City: payload.City, Region: payload.Region, Country: country}, nil
}
