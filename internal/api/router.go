package api

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sk-platform/skauth/internal/api/auth"
	"github.com/sk-platform/skauth/internal/api/handlers"
	apimiddleware "github.com/sk-platform/skauth/internal/api/middleware"
	"github.com/sk-platform/skauth/internal/logger"
	"github.com/sk-platform/skauth/internal/metrics"
	"github.com/sk-platform/skauth/pkg/models"
	"github.com/sk-platform/skauth/pkg/store"
)

// NewRouter creates and configures the chi router with all middleware
// and routes.
//
// Middleware stack (order matters):
//   - Request ID assignment
//   - Real IP extraction
//   - Request logging with LogContext propagation
//   - Panic recovery
//   - Request timeout
//
// Routes:
//   - GET /health, /health/ready - probes (unauthenticated)
//   - GET /metrics - prometheus (unauthenticated, optional)
//   - POST /api/v1/auth/register|login - web password flows
//   - POST /api/v1/auth/logout, GET /api/v1/auth/me - authenticated
//   - POST /api/v1/cli/request-nonce|login - challenge-response flow
//   - POST /api/v1/cli/logout - authenticated
//   - POST /api/v1/keys/token - admin only
//   - POST /api/v1/keys/token/verify - one-time token auth
//   - POST /api/v1/keys - authenticated
//   - /api/v1/users/* - admin only
//   - /api/v1/organizations, /api/v1/projects - authenticated (+admin for writes)
func NewRouter(cfg APIConfig, jwtService *auth.JWTService, st store.Store, m *metrics.AuthMetrics) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(30 * time.Second))

	if cfg.MetricsEnabled() && m != nil {
		r.Use(m.Middleware)
		r.Handle("/metrics", metrics.Handler())
	}

	healthHandler := handlers.NewHealthHandler(st)
	r.Route("/health", func(r chi.Router) {
		r.Get("/", healthHandler.Liveness)
		r.Get("/ready", healthHandler.Readiness)
	})

	// Root redirect to health for convenience
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/health", http.StatusTemporaryRedirect)
	})

	sessions := auth.NewSessionIssuer(jwtService, st)
	nonces := auth.NewNonceEngine(st)

	authHandler := handlers.NewAuthHandler(st, sessions, m, cfg.SecureCookiesEnabled())
	cliHandler := handlers.NewCLIHandler(st, nonces, sessions, m)
	keysHandler := handlers.NewKeysHandler(st, sessions)
	userHandler := handlers.NewUserHandler(st)
	orgHandler := handlers.NewOrganizationHandler(st)
	projectHandler := handlers.NewProjectHandler(st)

	authenticate := apimiddleware.Authenticate(jwtService, st)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)

			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				r.Post("/logout", authHandler.Logout)
				r.Get("/me", authHandler.Me)
			})
		})

		r.Route("/cli", func(r chi.Router) {
			r.Post("/request-nonce", cliHandler.RequestNonce)
			r.Post("/login", cliHandler.Login)

			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				r.Post("/logout", cliHandler.Logout)
			})
		})

		r.Route("/keys", func(r chi.Router) {
			// One-time token verification authenticates itself
			r.Post("/token/verify", keysHandler.VerifyKeyGenToken)

			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				r.Post("/", keysHandler.RegisterKey)

				r.Group(func(r chi.Router) {
					r.Use(apimiddleware.RequireAdmin())
					r.Post("/token", keysHandler.CreateKeyGenToken)
				})
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(authenticate)
			r.Use(apimiddleware.RequireAdmin())

			r.Get("/", userHandler.List)
			r.Get("/{id}", userHandler.Get)
			r.Delete("/{id}", userHandler.Delete)
		})

		r.Route("/organizations", func(r chi.Router) {
			r.Use(authenticate)

			r.Get("/{id}", orgHandler.Get)

			r.Group(func(r chi.Router) {
				r.Use(apimiddleware.RequireRole(models.RoleAdmin))
				r.Post("/", orgHandler.Create)
			})
		})

		r.Route("/projects", func(r chi.Router) {
			r.Use(authenticate)
			r.Use(apimiddleware.RequireRole(models.RoleAdmin))

			r.Post("/", projectHandler.Create)
		})
	})

	return r
}

// isHealthPath returns true if the request path is a probe endpoint.
func isHealthPath(path string) bool {
	return path == "/health" || strings.HasPrefix(path, "/health/") || path == "/metrics"
}

// requestLogger logs requests using the internal logger and seeds the
// LogContext so downstream log lines carry request_id and client_ip.
// Probe requests are logged at DEBUG to keep the noise down.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := chimiddleware.GetReqID(r.Context())

		clientIP := r.RemoteAddr
		if host, _, err := net.SplitHostPort(clientIP); err == nil {
			clientIP = host
		}

		lc := logger.NewLogContext(requestID, clientIP, r.Method, r.URL.Path)
		ctx := logger.WithContext(r.Context(), lc)

		logger.DebugCtx(ctx, "API request started",
			logger.KeyMethod, r.Method,
			logger.KeyPath, r.URL.Path,
		)

		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))

		logArgs := []any{
			logger.KeyMethod, r.Method,
			logger.KeyPath, r.URL.Path,
			logger.KeyStatus, ww.Status(),
			logger.KeyDuration, lc.DurationMs(),
		}

		if isHealthPath(r.URL.Path) {
			logger.DebugCtx(ctx, "API request completed", logArgs...)
		} else {
			logger.InfoCtx(ctx, "API request completed", logArgs...)
		}
	})
}
