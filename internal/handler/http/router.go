package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yosseffehabb/illusion-studios/internal/auth"
	"github.com/yosseffehabb/illusion-studios/internal/service"
	"github.com/yosseffehabb/illusion-studios/pkg/health"
	"github.com/yosseffehabb/illusion-studios/pkg/middleware"
)

// RouterConfig carries the knobs the router needs.
type RouterConfig struct {
	CORSOrigins    []string
	RateLimitRPS   int
	RateLimitBurst int
}

// NewRouter creates a chi router with all back-office routes registered.
// Everything under /api/v1 except the login endpoint requires an operator
// session.
func NewRouter(
	catalog *service.CatalogService,
	orders *service.OrderService,
	sessions *auth.Manager,
	healthHandler *health.Handler,
	cfg RouterConfig,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("backoffice"))
	r.Use(middleware.CORS(cfg.CORSOrigins))
	if cfg.RateLimitRPS > 0 {
		r.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst, logger))
	}

	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	categoryHandler := NewCategoryHandler(catalog, logger)
	productHandler := NewProductHandler(catalog, logger)
	orderHandler := NewOrderHandler(orders, logger)
	authHandler := NewAuthHandler(sessions, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireOperator(sessions))

			r.Post("/auth/logout", authHandler.Logout)

			r.Route("/categories", func(r chi.Router) {
				r.Get("/", categoryHandler.List)
				r.Post("/", categoryHandler.Create)
				r.Put("/{id}", categoryHandler.Rename)
				r.Delete("/{id}", categoryHandler.Delete)
			})

			r.Route("/products", func(r chi.Router) {
				r.Get("/", productHandler.List)
				r.Post("/", productHandler.Create)
				r.Get("/{id}", productHandler.Get)
				r.Put("/{id}", productHandler.Update)
				r.Delete("/{id}", productHandler.Delete)
				r.Put("/{id}/variants/{variantID}/stock", productHandler.SetVariantStock)
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", orderHandler.List)
				r.Get("/stats", orderHandler.Stats)
				r.Get("/export", orderHandler.Export)
				r.Get("/number/{number}", orderHandler.GetByNumber)
				r.Get("/{id}", orderHandler.Get)
				r.Put("/{id}/status", orderHandler.UpdateStatus)
			})
		})
	})

	return r
}
