package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"Orbit/backend/go/internal/config"
	"Orbit/backend/go/pkg/circuitbreaker"
	"Orbit/backend/go/pkg/httpmiddleware"
	"Orbit/backend/go/pkg/logger"
	"Orbit/backend/go/pkg/ratelimiter"

	"github.com/gin-gonic/gin"
)

// HealthCheck probes one dependency. A nil error means healthy.
type HealthCheck func(ctx context.Context) error

// Server wraps http.Server and a gin engine with the middleware chain
// configured in AppConfig.
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	log        *logger.Logger
}

// ServerOption defines a function for configuring a Server.
type ServerOption func(*Server)

// WithAddress sets the address for the server to listen on.
func WithAddress(addr string) ServerOption {
	return func(s *Server) {
		s.httpServer.Addr = addr
	}
}

// NewServer creates a Server. Recovery and request logging are always on;
// rate limiting and circuit breaking follow cfg.Middleware.
func NewServer(cfg *config.AppConfig, log *logger.Logger, opts ...ServerOption) (*Server, error) {
	if cfg.App.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery(), httpmiddleware.RequestLogger(log))

	if rl := cfg.Middleware.RateLimiter; rl.Enabled {
		if rl.Rate <= 0 || rl.Capacity <= 0 {
			return nil, fmt.Errorf("invalid rate limiter settings: rate=%v capacity=%d", rl.Rate, rl.Capacity)
		}
		factory := func() ratelimiter.RateLimiter { return ratelimiter.NewTokenBucket(rl.Rate, rl.Capacity) }
		if rl.PerClient {
			engine.Use(httpmiddleware.RateLimitPerClient(ratelimiter.NewKeyedLimiter(factory, 10*time.Minute)))
		} else {
			engine.Use(httpmiddleware.RateLimit(factory()))
		}
		log.WithPayload(map[string]interface{}{"rate": rl.Rate, "capacity": rl.Capacity, "per_client": rl.PerClient}).
			Info("Enabling rate limiter middleware")
	}

	if cb := cfg.Middleware.CircuitBreaker; cb.Enabled {
		breaker, err := newBreaker(cb, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create circuit breaker: %w", err)
		}
		engine.Use(httpmiddleware.CircuitBreak(breaker))
		log.Info("Enabling circuit breaker middleware")
	}

	srv := &Server{
		httpServer: &http.Server{
			Addr:              cfg.Server.Address,
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
		engine: engine,
		log:    log,
	}
	for _, opt := range opts {
		opt(srv)
	}
	if srv.httpServer.Addr == "" {
		srv.httpServer.Addr = ":8080"
	}
	return srv, nil
}

// Engine exposes the gin engine for route registration.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// RegisterHealth mounts GET /health. Every check runs with a short deadline;
// any failure turns the response into 503.
func (s *Server) RegisterHealth(checks map[string]HealthCheck) {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	s.engine.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(names))
		for _, name := range names {
			if err := checks[name](ctx); err != nil {
				results[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}
		state := "ok"
		if status != http.StatusOK {
			state = "degraded"
		}
		c.JSON(status, gin.H{"status": state, "checks": results})
	})
}

// ListenAndServe starts the HTTP server. It returns nil after a graceful Shutdown.
func (s *Server) ListenAndServe() error {
	s.log.WithField("address", s.httpServer.Addr).Info("Starting HTTP server")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func newBreaker(cfg config.CircuitBreakerConfig, log *logger.Logger) (*circuitbreaker.Breaker, error) {
	timeout, err := time.ParseDuration(cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid circuit breaker timeout duration: %w", err)
	}
	return circuitbreaker.New(circuitbreaker.Settings{
		FailureThreshold: cfg.FailureThreshold,
		SuccessThreshold: cfg.SuccessThreshold,
		Timeout:          timeout,
		OnStateChange: func(from, to circuitbreaker.State) {
			log.WithPayload(map[string]interface{}{"from": from.String(), "to": to.String()}).
				Warn("Circuit breaker state changed")
		},
	}), nil
}
