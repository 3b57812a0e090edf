package router

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/clinic-intake/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/clinic-intake/internal/http/middleware"
	"github.com/wolfman30/clinic-intake/internal/intake"
	"github.com/wolfman30/clinic-intake/internal/webchat"
	"github.com/wolfman30/clinic-intake/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	Sessions           *intake.Handler
	WebChat            *webchat.Handler
	AdminDashboard     *handlers.AdminDashboardHandler
	AdminAuthSecret    string
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
	RateLimiter        *httpmiddleware.RateLimiter

	// Readiness reports whether backing stores are reachable. Nil means always ready.
	Readiness func(ctx context.Context) error
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))

	// Public endpoints (health checks, metrics)
	r.Group(func(public chi.Router) {
		public.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			writeStatus(w, http.StatusOK, "ok")
		})
		public.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
			if cfg.Readiness != nil {
				ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
				defer cancel()
				if err := cfg.Readiness(ctx); err != nil {
					if cfg.Logger != nil {
						cfg.Logger.Warn("readiness check failed", "error", err)
					}
					writeStatus(w, http.StatusServiceUnavailable, "unavailable")
					return
				}
			}
			writeStatus(w, http.StatusOK, "ready")
		})
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	// Patient-facing conversation surfaces
	r.Group(func(patient chi.Router) {
		if cfg.RateLimiter != nil {
			patient.Use(httpmiddleware.RateLimit(cfg.RateLimiter))
		}
		if cfg.Sessions != nil {
			patient.Route("/sessions", cfg.Sessions.Routes)
		}
		if cfg.WebChat != nil {
			patient.Route("/webchat", func(chat chi.Router) {
				chat.Get("/ws", cfg.WebChat.HandleWebSocket)
				chat.Post("/message", cfg.WebChat.HandleMessage)
				chat.Get("/history", cfg.WebChat.HandleHistory)
				chat.Get("/widget.js", cfg.WebChat.HandleWidgetJS)
			})
		}
	})

	// Admin routes (protected by JWT)
	if cfg.AdminDashboard != nil && cfg.AdminAuthSecret != "" {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			cfg.AdminDashboard.Routes(admin)
		})
	}

	return r
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
}
