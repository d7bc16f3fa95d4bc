package models

import "errors"

// Error taxonomy surfaced to the presentation layer. Callers wrap these with
// fmt.Errorf("...: %w", Err...) and classify with errors.Is.
var (
	// ErrCredential means an API key is missing or rejected. Fatal at startup.
	ErrCredential = errors.New("credential error")
	// ErrInvalidRequest means the request failed local validation.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrNoImageryFound means no sufficiently cloud-free scene exists near a requested date.
	ErrNoImageryFound = errors.New("no imagery found")
	// ErrNoGlacierOutlines means the AOI contains no glacier outline polygons to mask against.
	ErrNoGlacierOutlines = errors.New("no glacier outlines in area")
	// ErrNoClimateData means the climate archive returned no image for the requested month.
	ErrNoClimateData = errors.New("no climate data for month")
	// ErrTrackingFailure means the remote displacement computation failed.
	ErrTrackingFailure = errors.New("tracking failure")
	// ErrUnknownVariable means the climate variable identifier is not recognized.
	ErrUnknownVariable = errors.New("unknown variable")
	// ErrDateOutOfRange means a date falls outside the archive coverage.
	ErrDateOutOfRange = errors.New("date out of range")
	// ErrAssistantUnavailable means the generative language endpoint could not answer.
	ErrAssistantUnavailable = errors.New("assistant unavailable")
	// ErrSessionNotFound means the session ID is unknown or has ended.
	ErrSessionNotFound = errors.New("session not found")
)

// ErrorCode returns a stable machine-readable code for err, or "internal".
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrCredential):
		return "credential_error"
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, ErrNoImageryFound):
		return "no_imagery_found"
	case errors.Is(err, ErrNoGlacierOutlines):
		return "no_glacier_outlines"
	case errors.Is(err, ErrNoClimateData):
		return "no_climate_data"
	case errors.Is(err, ErrTrackingFailure):
		return "tracking_failure"
	case errors.Is(err, ErrUnknownVariable):
		return "unknown_variable"
	case errors.Is(err, ErrDateOutOfRange):
		return "date_out_of_range"
	case errors.Is(err, ErrAssistantUnavailable):
		return "assistant_unavailable"
	case errors.Is(err, ErrSessionNotFound):
		return "session_not_found"
	default:
		return "internal"
	}
}
