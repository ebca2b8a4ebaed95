package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"localpros/internal/models"
)

const geocodeBaseURL = "https://maps.googleapis.com/maps/api/geocode/json"

// GoogleClient talks to the Google Maps Geocoding API. One outbound call
// per invocation, no retries, no caching; callers decide how to degrade.
type GoogleClient struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	timeout    time.Duration
}

// NewGoogleClient constructs a geocoding client. A nil httpClient gets a
// default with a conservative timeout.
func NewGoogleClient(httpClient *http.Client, apiKey string, timeout time.Duration) *GoogleClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &GoogleClient{httpClient: httpClient, apiKey: apiKey, baseURL: geocodeBaseURL, timeout: timeout}
}

// WithBaseURL overrides the provider endpoint, used by tests.
func (c *GoogleClient) WithBaseURL(base string) *GoogleClient {
	c.baseURL = base
	return c
}

// Enabled reports whether a provider credential is configured.
func (c *GoogleClient) Enabled() bool { return c.apiKey != "" }

type geocodePayload struct {
	Status  string `json:"status"`
	Results []struct {
		FormattedAddress  string `json:"formatted_address"`
		AddressComponents []struct {
			LongName string   `json:"long_name"`
			Types    []string `json:"types"`
		} `json:"address_components"`
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// Geocode resolves free-text into coordinates.
func (c *GoogleClient) Geocode(ctx context.Context, address string) (Point, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return Point{}, models.NewValidationError("address is required")
	}
	payload, err := c.query(ctx, url.Values{"address": []string{address}})
	if err != nil {
		return Point{}, err
	}
	loc := payload.Results[0].Geometry.Location
	return Point{Lat: loc.Lat, Lng: loc.Lng}, nil
}

// StructuredAddress is the reverse-geocoded shape stored with a worker.
type StructuredAddress struct {
	Line1   string
	Area    string
	City    string
	State   string
	Country string
	Pincode string
	Point   Point
}

// ReverseGeocode resolves coordinates back into a structured address,
// used by the registration flow after "use my current location".
func (c *GoogleClient) ReverseGeocode(ctx context.Context, p Point) (StructuredAddress, error) {
	if !p.Valid() {
		return StructuredAddress{}, models.NewValidationError("lat or lng out of range")
	}
	payload, err := c.query(ctx, url.Values{"latlng": []string{fmt.Sprintf("%f,%f", p.Lat, p.Lng)}})
	if err != nil {
		return StructuredAddress{}, err
	}

	r := payload.Results[0]
	component := func(typ string) string {
		for _, ac := range r.AddressComponents {
			for _, t := range ac.Types {
				if t == typ {
					return ac.LongName
				}
			}
		}
		return ""
	}

	line1 := strings.TrimSpace(strings.Join(nonEmpty(component("street_number"), component("route")), " "))
	if line1 == "" {
		line1 = r.FormattedAddress
	}
	area := firstNonEmpty(component("sublocality_level_1"), component("sublocality"), component("neighborhood"), component("locality"))
	city := firstNonEmpty(component("locality"), component("postal_town"), component("administrative_area_level_2"))

	return StructuredAddress{
		Line1:   line1,
		Area:    area,
		City:    city,
		State:   component("administrative_area_level_1"),
		Country: component("country"),
		Pincode: component("postal_code"),
		Point:   Point{Lat: r.Geometry.Location.Lat, Lng: r.Geometry.Location.Lng},
	}, nil
}

func (c *GoogleClient) query(ctx context.Context, params url.Values) (geocodePayload, error) {
	var payload geocodePayload
	if !c.Enabled() {
		return payload, models.ErrGeocodingDisabled
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params.Set("key", c.apiKey)
	endpoint := fmt.Sprintf("%s?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return payload, fmt.Errorf("geocode: build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return payload, fmt.Errorf("%w: %v", models.ErrGeocodeUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return payload, fmt.Errorf("%w: http %s: %s", models.ErrGeocodeUnavailable, resp.Status, strings.TrimSpace(string(b)))
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return payload, fmt.Errorf("%w: decode: %v", models.ErrGeocodeUnavailable, err)
	}
	if payload.Status != "OK" || len(payload.Results) == 0 {
		return payload, fmt.Errorf("%w (status=%s)", models.ErrNoGeocodeResult, payload.Status)
	}
	return payload, nil
}

func nonEmpty(parts ...string) []string {
	var out []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}

func firstNonEmpty(parts ...string) string {
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			return p
		}
	}
	return ""
}
