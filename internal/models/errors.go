package models

import "errors"

// ValidationError carries a user-facing message for a malformed request.
// It is surfaced verbatim with a 400 status and never retried.
type ValidationError struct {
	Message string
}

func (e ValidationError) Error() string { return e.Message }

// NewValidationError wraps a message in a ValidationError.
func NewValidationError(msg string) error { return ValidationError{Message: msg} }

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

var (
	// ErrSearchUnavailable replaces any store or index failure before it
	// reaches a client. The underlying error is logged, not returned.
	ErrSearchUnavailable = errors.New("failed to search workers")

	// ErrGeocodeUnavailable indicates the geocoding provider was unreachable
	// or answered with a non-success status.
	ErrGeocodeUnavailable = errors.New("failed to reach geocoding service")

	// ErrNoGeocodeResult indicates the provider resolved the request but
	// found nothing for the given text.
	ErrNoGeocodeResult = errors.New("unable to geocode the provided address")

	// ErrGeocodingDisabled indicates no provider credential is configured.
	// Startup validation reports this before any request path can hit it.
	ErrGeocodingDisabled = errors.New("geocoding is not configured")

	// ErrGeoIPUnavailable indicates the IP geolocation provider failed.
	ErrGeoIPUnavailable = errors.New("geo ip lookup failed")

	// ErrWorkerNotFound indicates a missing worker record.
	ErrWorkerNotFound = errors.New("worker not found")
)
