package brightdata

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"

	"Orbit/backend/go/pkg/circuitbreaker"
)

// ErrMissingAPIKey is returned before any request when no API key is configured.
var ErrMissingAPIKey = errors.New("BrightData API key is not configured")

// StatusError is a non-2xx response from the provider.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("BrightData returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("BrightData returned status %d: %s", e.StatusCode, e.Body)
}

// NoDataError means the provider answered successfully but without usable data.
type NoDataError struct {
	Target Target
}

func (e *NoDataError) Error() string {
	if info, ok := targets[e.Target]; ok {
		return info.noData
	}
	return "No data returned from scraping"
}

// RetryExhaustedError wraps the last error after every attempt failed.
type RetryExhaustedError struct {
	Attempts int
	Err      error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *RetryExhaustedError) Unwrap() error { return e.Err }

// isRetryable classifies transient failures: connection resets, timeouts,
// DNS failures, 5xx and 429. Everything else surfaces immediately.
func isRetryable(err error) bool {
	if err == nil || errors.Is(err, circuitbreaker.ErrCircuitOpen) || errors.Is(err, context.Canceled) {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= http.StatusInternalServerError ||
			statusErr.StatusCode == http.StatusTooManyRequests
	}

	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ETIMEDOUT) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
