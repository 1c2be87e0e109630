package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-promo/internal/catalog"
	"github.com/noah-isme/toko-promo/internal/checkout"
	"github.com/noah-isme/toko-promo/internal/config"
	"github.com/noah-isme/toko-promo/internal/health"
	"github.com/noah-isme/toko-promo/internal/obs"
	"github.com/noah-isme/toko-promo/internal/ratelimit"
	"github.com/noah-isme/toko-promo/internal/security"
)

// Dependencies enumerates what the HTTP surface needs. Optional fields may be
// nil: no Limiter disables rate limiting, no HTTPMetrics or MetricsHandler
// disables metrics, Redis is probed only when set.
type Dependencies struct {
	Config         *config.Config
	Logger         zerolog.Logger
	Catalog        *catalog.Catalog
	Sessions       *checkout.Sessions
	Limiter        ratelimit.Allower
	Redis          *redis.Client
	HTTPMetrics    *obs.HTTPMetrics
	MetricsHandler http.Handler
	Tracing        bool
}

// NewRouter assembles middleware and routes.
func NewRouter(d Dependencies) http.Handler {
	cfg := d.Config
	if cfg == nil {
		cfg = &config.Config{}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if d.Tracing {
		r.Use(obs.TracingMiddleware)
	}
	if d.HTTPMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: d.HTTPMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: d.Logger}.Middleware)
	r.Use(security.Headers{Enable: cfg.SecurityHeadersEnabled, EnableHSTS: cfg.IsProduction()}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins(cfg),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		MaxAge:         300,
	}))

	if d.MetricsHandler != nil {
		r.Handle("/metrics", d.MetricsHandler)
	}

	healthHandler := health.Handler{Checker: health.Dependencies{Catalog: d.Catalog, Redis: d.Redis}}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	catalogHandler := catalog.NewHandler(catalog.HandlerConfig{Catalog: d.Catalog})
	checkoutHandler := &checkout.Handler{Sessions: d.Sessions, Catalog: d.Catalog}

	limited := ratelimit.Handler{
		Limiter: d.Limiter,
		Config:  ratelimit.Config{Key: ratelimit.ByClientIP, Window: cfg.RateLimitWindow, Max: cfg.RateLimitMax},
		OnError: func(err error) { d.Logger.Warn().Err(err).Msg("rate limiter unavailable") },
	}

	r.Route("/api/v1", func(v chi.Router) {
		v.Use(security.BodyLimit{Max: cfg.BodyLimitBytes}.Middleware)
		v.Use(limited.Middleware)

		v.Get("/products", catalogHandler.Products)
		v.Get("/rules", catalogHandler.Rules)
		v.Post("/quote", checkoutHandler.Quote)

		v.Route("/checkouts", func(c chi.Router) {
			c.Post("/", checkoutHandler.Create)
			c.Route("/{id}", func(s chi.Router) {
				s.Get("/", checkoutHandler.Get)
				s.Delete("/", checkoutHandler.Delete)
				s.Post("/scan", checkoutHandler.Scan)
				s.Delete("/items", checkoutHandler.Clear)
			})
		})
	})

	return r
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}
