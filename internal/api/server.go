// Package api provides the skauth HTTP server: router, middleware
// wiring, and lifecycle management.
package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sk-platform/skauth/internal/api/auth"
	"github.com/sk-platform/skauth/internal/logger"
	"github.com/sk-platform/skauth/internal/metrics"
	"github.com/sk-platform/skauth/pkg/store"
)

// Server provides the HTTP server for the skauth REST API.
//
// The server is created stopped; Start blocks until the context is
// cancelled, then shuts down gracefully.
type Server struct {
	server       *http.Server
	jwtService   *auth.JWTService
	store        store.Store
	config       APIConfig
	shutdownOnce sync.Once
}

// NewServer creates a new API HTTP server.
//
// The JWT service is created internally from the config. The secret
// must be at least 32 characters, supplied via config or the
// SKAUTH_JWT_SECRET environment variable.
func NewServer(config APIConfig, st store.Store) (*Server, error) {
	config.ApplyDefaults()

	jwtSecret := config.GetJWTSecret()
	if len(jwtSecret) < 32 {
		return nil, fmt.Errorf("JWT secret must be at least 32 characters; set via %s env var or config", EnvJWTSecret)
	}

	jwtService, err := auth.NewJWTService(auth.JWTConfig{
		Secret:          jwtSecret,
		SessionLifetime: config.JWT.SessionLifetime,
		KeyGenLifetime:  config.JWT.KeyGenLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT service: %w", err)
	}

	var m *metrics.AuthMetrics
	if config.MetricsEnabled() {
		m = metrics.New(nil)
	}

	router := NewRouter(config, jwtService, st, m)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", config.Port),
		Handler:      router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	return &Server{
		server:     server,
		jwtService: jwtService,
		store:      st,
		config:     config,
	}, nil
}

// Start starts the API HTTP server and blocks until the context is
// cancelled or the server fails. Cancellation triggers graceful
// shutdown.
func (s *Server) Start(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		logger.Info("API server listening", "port", s.config.Port)

		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			select {
			case errChan <- err:
			default:
			}
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("API server shutdown signal received")
		// Fresh context: the cancelled one would abort the drain.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("API server failed: %w", err)
	}
}

// Stop initiates graceful shutdown. Safe to call multiple times and
// concurrently with Start.
func (s *Server) Stop(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if err := s.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("API server shutdown error: %w", err)
			logger.Error("API server shutdown error", logger.Err(err))
		} else {
			logger.Info("API server stopped gracefully")
		}
	})
	return shutdownErr
}

// Port returns the TCP port the server is configured to listen on.
func (s *Server) Port() int {
	return s.config.Port
}
