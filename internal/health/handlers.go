package health

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/toko-promo/internal/catalog"
	"github.com/noah-isme/toko-promo/internal/common"
)

var ready atomic.Bool

func init() { ready.Store(true) }

// SetReady toggles readiness. The server flips it off when shutdown begins so
// load balancers drain the instance before connections close.
func SetReady(v bool) { ready.Store(v) }

// Checker represents dependencies that can be probed for readiness.
type Checker interface {
	CheckCatalog(ctx context.Context) error
	PingRedis(ctx context.Context, timeout time.Duration) error
}

// Dependencies is the production Checker. A nil Redis means the service runs
// with in-memory rate limiting and the probe is skipped.
type Dependencies struct {
	Catalog *catalog.Catalog
	Redis   *redis.Client
}

// ErrSkipped marks a probe for a dependency that is not configured.
var ErrSkipped = errors.New("not configured")

// CheckCatalog reports whether a catalog with at least one item is loaded.
func (d Dependencies) CheckCatalog(context.Context) error {
	if d.Catalog == nil || len(d.Catalog.SKUs()) == 0 {
		return errors.New("catalog not loaded")
	}
	return nil
}

// PingRedis pings the rate limit store.
func (d Dependencies) PingRedis(ctx context.Context, timeout time.Duration) error {
	if d.Redis == nil {
		return ErrSkipped
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return d.Redis.Ping(ctx).Err()
}

// Handler exposes HTTP handlers for health endpoints.
type Handler struct {
	Checker      Checker
	RedisTimeout time.Duration
}

// Live reports liveness status.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready reports readiness based on dependency probes. Redis only backs the
// rate limiter, which falls back to memory, so a failed ping is reported as
// degraded without taking the instance out of rotation.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.Checker == nil || !ready.Load() {
		common.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	ctx := r.Context()
	healthy := true
	status := map[string]string{"catalog": "ok", "redis": "ok"}
	if err := h.Checker.CheckCatalog(ctx); err != nil {
		status["catalog"] = err.Error()
		healthy = false
	}
	switch err := h.Checker.PingRedis(ctx, h.redisTimeout()); {
	case errors.Is(err, ErrSkipped):
		status["redis"] = "skipped"
	case err != nil:
		status["redis"] = "degraded: " + err.Error()
	}
	code := http.StatusOK
	if !healthy {
		code = http.StatusServiceUnavailable
	}
	common.JSON(w, code, status)
}

func (h Handler) redisTimeout() time.Duration {
	if h.RedisTimeout <= 0 {
		return 300 * time.Millisecond
	}
	return h.RedisTimeout
}
