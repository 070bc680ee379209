package punch

import "errors"

// Geolocation acquisition failures reported by the client device. A failed
// acquisition aborts the punch attempt before admission control; nothing is
// persisted or queued.
var (
	ErrGeolocationPermissionDenied = errors.New("geolocation permission denied")
	ErrGeolocationUnavailable      = errors.New("geolocation unavailable")
	ErrGeolocationTimeout          = errors.New("geolocation timeout")
)

// GeolocationError maps a client-reported acquisition failure code to its
// sentinel error, or nil for an empty code.
func GeolocationError(code string) error {
	switch code {
	case "":
		return nil
	case "permission_denied":
		return ErrGeolocationPermissionDenied
	case "unavailable":
		return ErrGeolocationUnavailable
	case "timeout":
		return ErrGeolocationTimeout
	default:
		return ErrGeolocationUnavailable
	}
}
