package domain

import "errors"

var (
	// ErrUpstreamNotFound is an explicit negative result from the movie
	// database or the geocoder.
	ErrUpstreamNotFound = errors.New("upstream: not found")

	// ErrUpstreamUnavailable is a transport or network failure that
	// survived every retry.
	ErrUpstreamUnavailable = errors.New("upstream: unavailable")

	// ErrEnrichmentUnavailable means the encyclopedia lookup failed.
	// It is always recovered inside the location resolver.
	ErrEnrichmentUnavailable = errors.New("enrichment unavailable")
)

// IsNotFound reports whether err carries ErrUpstreamNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUpstreamNotFound)
}

// IsUnavailable reports whether err carries ErrUpstreamUnavailable.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUpstreamUnavailable)
}
