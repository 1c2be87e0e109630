package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-promo/internal/app"
	"github.com/noah-isme/toko-promo/internal/catalog"
	"github.com/noah-isme/toko-promo/internal/config"
	"github.com/noah-isme/toko-promo/internal/health"
	"github.com/noah-isme/toko-promo/internal/obs"
	"github.com/noah-isme/toko-promo/internal/ratelimit"
	"github.com/noah-isme/toko-promo/internal/resilience"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "toko")
	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)
	var (
		httpMetrics    *obs.HTTPMetrics
		promoMetrics   *obs.PromoMetrics
		breakerMetrics *resilience.Metrics
	)
	if metricsEnabled {
		httpMetrics = obs.NewHTTPMetrics(metricsNamespace, obs.ParseBucketsCSV(envOrDefault("OBS_METRICS_BUCKETS_MS", "")), nil)
		promoMetrics = obs.NewPromoMetrics(metricsNamespace, nil)
		breakerMetrics = resilience.NewMetrics(metricsNamespace, prometheus.DefaultRegisterer)
	}

	tracingEnabled := envBool("OBS_ENABLE_TRACING", true)
	if tracingEnabled {
		shutdown, err := obs.InitTracer(ctx, obs.TracingConfig{
			ServiceName:   "toko-promo",
			Endpoint:      envOrDefault("OBS_OTLP_ENDPOINT", ""),
			Exporter:      envOrDefault("OBS_TRACING_EXPORTER", "otlp"),
			SamplingRatio: envFloat("OBS_TRACING_SAMPLING_RATIO", 1.0),
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(shutdownCtx); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	cat, err := catalog.Load(cfg.CatalogFile)
	if err != nil {
		logger.Fatal().Err(err).Str("file", cfg.CatalogFile).Msg("load catalog")
	}
	if err := cat.Check(time.Now()); err != nil {
		logger.Warn().Err(err).Msg("catalog rules will fail to evaluate")
	}
	logger.Info().
		Int("items", len(cat.SKUs())).
		Int("rules", len(cat.Rules())).
		Str("file", cfg.CatalogFile).
		Msg("catalog loaded")

	redisClient, limiter := rateLimiter(ctx, cfg, logger, breakerMetrics, tracingEnabled)
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Error().Err(err).Msg("close redis")
			}
		}()
	}

	sessionLogger := logger.With().Str("component", "checkout").Logger()
	sessions := app.NewSessions(cat, cfg.SessionTTL, sessionLogger, promoMetrics)
	go app.SweepSessions(ctx, sessions, envDurationMillis("CHECKOUT_SWEEP_INTERVAL_MS", 60000), sessionLogger)

	deps := app.Dependencies{
		Config:      cfg,
		Logger:      logger,
		Catalog:     cat,
		Sessions:    sessions,
		Limiter:     limiter,
		Redis:       redisClient,
		HTTPMetrics: httpMetrics,
		Tracing:     tracingEnabled,
	}
	if metricsEnabled {
		deps.MetricsHandler = promhttp.Handler()
	}

	root := chi.NewRouter()
	if envBool("OBS_ENABLE_PPROF", !cfg.IsProduction()) {
		user := envOrDefault("SECURE_PPROF_BASIC_AUTH_USER", "")
		pass := envOrDefault("SECURE_PPROF_BASIC_AUTH_PASS", "")
		root.Mount("/debug/pprof", protectPprof(newPprofMux(), user, pass))
	}
	root.Mount("/", app.NewRouter(deps))

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           root,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		health.SetReady(false)
		logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), envDurationMillis("SHUTDOWN_TIMEOUT_MS", 10000))
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("server shutdown")
		}
	}()

	logger.Info().Str("addr", srv.Addr).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server exited unexpectedly")
	}
}

// rateLimiter picks the shared Redis sliding window when REDIS_URL is set and
// falls back to per-process counters otherwise. With Redis configured, a
// breaker moves traffic to the in-memory limiter while Redis is failing.
func rateLimiter(ctx context.Context, cfg *config.Config, logger zerolog.Logger, breakerMetrics *resilience.Metrics, tracing bool) (*redis.Client, ratelimit.Allower) {
	memory := ratelimit.NewMemoryLimiter("toko-promo")
	if cfg.RedisURL == "" {
		logger.Info().Msg("REDIS_URL not set, using in-memory rate limiter")
		return nil, memory
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	client := redis.NewClient(opts)
	if tracing {
		if err := redisotel.InstrumentTracing(client); err != nil {
			logger.Error().Err(err).Msg("instrument redis tracing")
		}
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn().Err(err).Msg("ping redis, rate limiting falls back to memory until it recovers")
	}
	breaker := resilience.NewBreaker(resilience.Options{
		Target:       "redis_ratelimit",
		MinRequests:  envInt("RATE_LIMIT_BREAKER_MIN_REQUESTS", 5),
		FailureRatio: envFloat("RATE_LIMIT_BREAKER_FAILURE_RATIO", 0.5),
		OpenFor:      envDurationMillis("RATE_LIMIT_BREAKER_OPEN_MS", 30000),
		Logger:       logger,
		Metrics:      breakerMetrics,
	})
	return client, ratelimit.Fallback{
		Primary:   ratelimit.Limiter{Client: client, Prefix: "toko-promo:ratelimit:"},
		Secondary: memory,
		Breaker:   breaker,
	}
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "t", "true", "yes", "on":
			return true
		case "0", "f", "false", "no", "off":
			return false
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return parsed
		}
	}
	return fallback
}

func envDurationMillis(key string, fallback int) time.Duration {
	return time.Duration(envInt(key, fallback)) * time.Millisecond
}

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", pprof.Index)
	mux.HandleFunc("/cmdline", pprof.Cmdline)
	mux.HandleFunc("/profile", pprof.Profile)
	mux.HandleFunc("/symbol", pprof.Symbol)
	mux.HandleFunc("/trace", pprof.Trace)
	for _, name := range []string{"allocs", "block", "goroutine", "heap", "mutex", "threadcreate"} {
		mux.Handle("/"+name, pprof.Handler(name))
	}
	return http.StripPrefix("/debug/pprof", mux)
}

func protectPprof(handler http.Handler, user, pass string) http.Handler {
	if user == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 || subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", "Basic realm=restricted")
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
