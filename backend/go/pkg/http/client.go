package http

import (
	"fmt"
	"net/http"
	"time"

	"Orbit/backend/go/internal/config"
	"Orbit/backend/go/pkg/circuitbreaker"
	"Orbit/backend/go/pkg/logger"
)

// Client wraps http.Client with optional circuit breaking.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a Client. When the breaker is disabled, requests go straight to the default transport.
func NewClient(cfg config.CircuitBreakerConfig, timeout time.Duration, log *logger.Logger) (*Client, error) {
	var transport http.RoundTripper = http.DefaultTransport
	if cfg.Enabled {
		breaker, err := newBreaker(cfg, log)
		if err != nil {
			return nil, err
		}
		transport = &breakerTransport{base: transport, breaker: breaker}
	}
	return &Client{httpClient: &http.Client{Timeout: timeout, Transport: transport}}, nil
}

// Do executes req through the breaker.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.httpClient.Do(req)
}

// Transport returns the breaker-wrapped RoundTripper so other HTTP clients (resty) share the same breaker.
func (c *Client) Transport() http.RoundTripper {
	return c.httpClient.Transport
}

// breakerTransport counts status codes >= 500 and 429 as breaker failures,
// but still returns the response so the caller can inspect it.
// An open circuit yields circuitbreaker.ErrCircuitOpen without touching the network.
type breakerTransport struct {
	base    http.RoundTripper
	breaker *circuitbreaker.Breaker
}

func (t *breakerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var resp *http.Response
	err := t.breaker.Execute(func() error {
		var rtErr error
		resp, rtErr = t.base.RoundTrip(req)
		if rtErr != nil {
			return rtErr
		}
		if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("upstream error: received status code %d", resp.StatusCode)
		}
		return nil
	})
	if resp != nil {
		return resp, nil
	}
	return nil, err
}
