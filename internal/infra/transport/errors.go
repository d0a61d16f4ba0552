package transport

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/vietddude/cinemap/internal/core/domain"
)

// ErrClientClosed is returned by requests issued after Close.
var ErrClientClosed = errors.New("client closed")

// StatusError is returned when an upstream answers with a non-2xx status.
type StatusError struct {
	Service    string
	URL        string
	StatusCode int
	RetryAfter time.Duration
	Body       string
}

func (e *StatusError) Error() string {
	if e == nil {
		return "HTTP status error"
	}
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("%s: http %d", e.Service, e.StatusCode)
	}
	if len(body) > 200 {
		body = body[:200]
	}
	return fmt.Sprintf("%s: http %d: %s", e.Service, e.StatusCode, body)
}

// Retryable reports whether repeating the request can help:
// 5xx, 408 and 429 are transient, every other status is final.
func (e *StatusError) Retryable() bool {
	switch {
	case e.StatusCode >= 500:
		return true
	case e.StatusCode == http.StatusRequestTimeout, e.StatusCode == http.StatusTooManyRequests:
		return true
	default:
		return false
	}
}

// IsStatus reports whether err carries a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}

// ExhaustedError is returned once a request's retry budget reaches zero.
// It wraps both the last failure and domain.ErrUpstreamUnavailable.
type ExhaustedError struct {
	Service  string
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return "failed after retries: " + e.Last.Error()
}

func (e *ExhaustedError) Unwrap() []error {
	return []error{domain.ErrUpstreamUnavailable, e.Last}
}

// Unavailable marks err as an upstream availability failure unless it
// already carries a domain classification.
func Unavailable(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrUpstreamUnavailable) || errors.Is(err, domain.ErrUpstreamNotFound) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrUpstreamUnavailable, err)
}
