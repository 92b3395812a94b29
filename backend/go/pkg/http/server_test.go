package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"Orbit/backend/go/internal/config"
	"Orbit/backend/go/pkg/circuitbreaker"
	"Orbit/backend/go/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConfig() *config.AppConfig {
	return &config.AppConfig{
		Middleware: config.MiddlewareConfig{
			RateLimiter: config.RateLimiterConfig{
				Enabled:  true,
				Rate:     10,
				Capacity: 5,
			},
			CircuitBreaker: config.CircuitBreakerConfig{
				Enabled:          true,
				FailureThreshold: 2,
				SuccessThreshold: 2,
				Timeout:          "10s",
			},
		},
	}
}

func do(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	srv.Engine().ServeHTTP(w, req)
	return w
}

func TestNewServer_WithAddress(t *testing.T) {
	srv, err := NewServer(newTestConfig(), logger.Discard(), WithAddress(":9999"))
	require.NoError(t, err)
	assert.Equal(t, ":9999", srv.httpServer.Addr)
}

func TestNewServer_DefaultAddress(t *testing.T) {
	srv, err := NewServer(&config.AppConfig{}, logger.Discard())
	require.NoError(t, err)
	assert.Equal(t, ":8080", srv.httpServer.Addr)
}

func TestNewServer_InvalidBreakerTimeout(t *testing.T) {
	cfg := newTestConfig()
	cfg.Middleware.CircuitBreaker.Timeout = "soon"
	_, err := NewServer(cfg, logger.Discard())
	assert.Error(t, err)
}

func TestRateLimiterMiddleware(t *testing.T) {
	cfg := newTestConfig()
	cfg.Middleware.RateLimiter.Capacity = 2
	cfg.Middleware.RateLimiter.Rate = 1

	srv, err := NewServer(cfg, logger.Discard())
	require.NoError(t, err)
	srv.Engine().GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, do(t, srv, "/").Code, "request %d", i+1)
	}
	assert.Equal(t, http.StatusTooManyRequests, do(t, srv, "/").Code)
}

func TestCircuitBreakerMiddleware(t *testing.T) {
	cfg := newTestConfig()
	cfg.Middleware.RateLimiter.Enabled = false

	srv, err := NewServer(cfg, logger.Discard())
	require.NoError(t, err)
	srv.Engine().GET("/fail", func(c *gin.Context) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "boom"})
	})

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusInternalServerError, do(t, srv, "/fail").Code)
	}

	w := do(t, srv, "/fail")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "Circuit Breaker is open")
}

func TestRequestIDIsEchoed(t *testing.T) {
	srv, err := NewServer(&config.AppConfig{}, logger.Discard())
	require.NoError(t, err)
	srv.Engine().GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "trace-123")
	srv.Engine().ServeHTTP(w, req)

	assert.Equal(t, "trace-123", w.Header().Get("X-Request-ID"))
}

func TestHealthEndpoint(t *testing.T) {
	srv, err := NewServer(&config.AppConfig{}, logger.Discard())
	require.NoError(t, err)

	healthy := true
	srv.RegisterHealth(map[string]HealthCheck{
		"mysql": func(context.Context) error { return nil },
		"milvus": func(context.Context) error {
			if healthy {
				return nil
			}
			return errors.New("connection refused")
		},
	})

	w := do(t, srv, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","checks":{"mysql":"ok","milvus":"ok"}}`, w.Body.String())

	healthy = false
	w = do(t, srv, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
}

func TestClientKeepsUpstreamResponseAndTrips(t *testing.T) {
	var hits int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer upstream.Close()

	client, err := NewClient(config.CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 2,
		SuccessThreshold: 1,
		Timeout:          "1m",
	}, 5*time.Second, logger.Discard())
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		req, _ := http.NewRequest(http.MethodGet, upstream.URL, nil)
		resp, err := client.Do(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
		resp.Body.Close()
	}

	req, _ := http.NewRequest(http.MethodGet, upstream.URL, nil)
	_, err = client.Do(req)
	assert.ErrorIs(t, err, circuitbreaker.ErrCircuitOpen)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestClientWithoutBreaker(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer upstream.Close()

	client, err := NewClient(config.CircuitBreakerConfig{}, time.Second, logger.Discard())
	require.NoError(t, err)
	req, _ := http.NewRequest(http.MethodGet, upstream.URL, nil)
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestClientTransportSharesBreaker(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer upstream.Close()

	client, err := NewClient(config.CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 1,
		SuccessThreshold: 1,
		Timeout:          "1m",
	}, time.Second, logger.Discard())
	require.NoError(t, err)

	req, _ := http.NewRequest(http.MethodGet, upstream.URL, nil)
	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	other := &http.Client{Transport: client.Transport()}
	_, err = other.Get(upstream.URL)
	assert.ErrorIs(t, err, circuitbreaker.ErrCircuitOpen)
}
