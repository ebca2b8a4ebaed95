package services

import (
	"context"
	"errors"
	"sync"

	"localpros/internal/geo"
	"localpros/internal/models"

	"github.com/google/uuid"
)

// Hint messages surfaced to the UI when a resolution step fails. The
// pipeline itself never fails; it degrades to no-location mode.
const (
	hintPermission = "Unable to access your location. Please enable location permissions."
	hintRefine     = "Unable to resolve address. Try a more specific location."
)

// Geocoder resolves free text into coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (geo.Point, error)
}

// IPLookup resolves a client IP into a coarse location.
type IPLookup interface {
	Lookup(ctx context.Context, ip string) (geo.IPLocation, error)
}

// DeviceLocator is the browser/device geolocation capability. It is
// request-scoped: the HTTP layer supplies one when the client forwarded a
// device position, and nil otherwise.
type DeviceLocator interface {
	CurrentPosition(ctx context.Context) (geo.Point, error)
}

// ResolveRequest carries everything one resolution attempt may use.
type ResolveRequest struct {
	// Explicit coordinates win outright when both are finite and in range.
	Explicit *geo.Point
	// Text is a free-form location to geocode when nothing else resolves.
	Text string
	// Device, when non-nil, is tried before the IP fallback.
	Device DeviceLocator
	// IP feeds the IP-geolocation fallback after a device failure.
	IP string
}

// ResolvedLocation is the outcome of one resolution attempt. Point is nil
// in no-location mode; Hint carries the UI-facing message when a step
// failed on the way here.
type ResolvedLocation struct {
	Point *geo.Point
	Label string
	Hint  string
}

// LocationResolver runs the coordinate fallback chain: explicit coords,
// device position, IP geolocation, text geocoding, then no-location mode.
// It also keeps a per-session snapshot guarded by request tokens so a slow
// stale resolution can never overwrite a newer one.
type LocationResolver struct {
	Geocoder Geocoder
	IPLookup IPLookup
	Logger   Logger

	mu      sync.Mutex
	active  uuid.UUID
	current ResolvedLocation
}

// Begin registers a new resolution attempt and supersedes all in-flight
// ones. The returned token must be passed to Resolve.
func (r *LocationResolver) Begin() uuid.UUID {
	token := uuid.New()
	r.mu.Lock()
	r.active = token
	r.mu.Unlock()
	return token
}

// Current returns the latest committed resolution snapshot.
func (r *LocationResolver) Current() ResolvedLocation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Resolve runs the fallback chain for the given token. The result is
// committed to the session snapshot only while the token is still the
// newest one; the boolean reports whether the commit happened. Completion
// order is irrelevant: last request wins, not last response.
func (r *LocationResolver) Resolve(ctx context.Context, token uuid.UUID, req ResolveRequest) (ResolvedLocation, bool) {
	loc := r.run(ctx, req)

	r.mu.Lock()
	defer r.mu.Unlock()
	if token != r.active {
		return loc, false
	}
	r.current = loc
	return loc, true
}

// ResolveNow is the single-shot form used by request handlers that do not
// participate in a session: it begins and resolves in one step.
func (r *LocationResolver) ResolveNow(ctx context.Context, req ResolveRequest) ResolvedLocation {
	loc, _ := r.Resolve(ctx, r.Begin(), req)
	return loc
}

func (r *LocationResolver) run(ctx context.Context, req ResolveRequest) ResolvedLocation {
	// 1. Explicit coordinates, when valid, short-circuit everything.
	if req.Explicit != nil {
		if req.Explicit.Valid() {
			p := *req.Explicit
			return ResolvedLocation{Point: &p, Label: labelOrDefault(req.Text)}
		}
		r.logInfof("location: ignoring out-of-range explicit coords")
	}

	// 2-3. Device position, falling back to IP geolocation on failure.
	if req.Device != nil {
		if p, err := req.Device.CurrentPosition(ctx); err == nil && p.Valid() {
			return ResolvedLocation{Point: &p, Label: "Current location"}
		} else if err != nil {
			r.logInfof("location: device position unavailable: %v", err)
		}

		if r.IPLookup != nil {
			if ipLoc, err := r.IPLookup.Lookup(ctx, req.IP); err == nil {
				p := ipLoc.Point
				return ResolvedLocation{Point: &p, Label: ipLoc.Label()}
			} else {
				r.logInfof("location: ip lookup failed: %v", err)
			}
		}

		if req.Text == "" {
			return ResolvedLocation{Hint: hintPermission}
		}
	}

	// 4. Free-text geocoding.
	if req.Text != "" && r.Geocoder != nil {
		p, err := r.Geocoder.Geocode(ctx, req.Text)
		if err == nil {
			return ResolvedLocation{Point: &p, Label: req.Text}
		}
		if errors.Is(err, models.ErrNoGeocodeResult) {
			r.logInfof("location: no geocode result for %q", req.Text)
		} else {
			r.logErrorf("location: geocoding failed: %v", err)
		}
		return ResolvedLocation{Hint: hintRefine}
	}

	// 5. No location: the search proceeds unranked.
	return ResolvedLocation{}
}

func labelOrDefault(text string) string {
	if text != "" {
		return text
	}
	return "Current location"
}

func (r *LocationResolver) logInfof(format string, args ...interface{}) {
	if r.Logger != nil {
		r.Logger.Infof(format, args...)
	}
}

func (r *LocationResolver) logErrorf(format string, args ...interface{}) {
	if r.Logger != nil {
		r.Logger.Errorf(format, args...)
	}
}
