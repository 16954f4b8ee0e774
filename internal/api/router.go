package api

import (
	"net/http"

	"github.com/example/farmbe-store/internal/api/middleware"
	"github.com/example/farmbe-store/internal/auth"
	"github.com/example/farmbe-store/internal/domain"
	"github.com/example/farmbe-store/internal/telemetry"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// RouterConfig bundles the pieces NewRouter mounts.
type RouterConfig struct {
	Handlers *Handlers
	Auth     *AuthHandlers
	Stream   *ChangeStream
	JWT      *auth.JWTService
	// Gatherer backs /metrics; nil leaves the route unmounted.
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(telemetry.RouteTagger)

	r.Get("/healthz", Healthz)
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Post("/auth/session", cfg.Auth.CreateSession)
	r.Delete("/auth/session", cfg.Auth.DeleteSession)

	h := cfg.Handlers
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(cfg.JWT))

		r.Get("/auth/session", cfg.Auth.CurrentSession)
		r.Get("/dashboard", h.Dashboard)
		if cfg.Stream != nil {
			r.Handle("/ws", cfg.Stream)
		}

		r.Route("/inventory", func(r chi.Router) {
			r.Get("/", h.ListInventory)
			r.Get("/categories", h.ListCategories)
			r.Get("/{id}", h.GetProduct)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(domain.RoleFarmer))
				r.Post("/", h.CreateProduct)
				r.Patch("/{id}", h.UpdateProduct)
				r.Put("/{id}/stock", h.SetStock)
				r.Delete("/{id}", h.DeleteProduct)
			})
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", h.ListOrders)
			r.Get("/latest", h.LatestOrder)
			r.Get("/{id}", h.GetOrder)
			r.With(middleware.RequireRole(domain.RolePG)).Post("/", h.PlaceOrder)
			r.With(middleware.RequireRole(domain.Roles...)).Put("/{id}/status", h.UpdateOrderStatus)
		})
	})

	return r
}
