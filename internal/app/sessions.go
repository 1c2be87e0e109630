package app

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-promo/internal/catalog"
	"github.com/noah-isme/toko-promo/internal/checkout"
	"github.com/noah-isme/toko-promo/internal/obs"
)

// NewSessions builds the session registry whose checkouts price against the
// catalog's rules, log through logger and report to metrics when set.
func NewSessions(c *catalog.Catalog, ttl time.Duration, logger zerolog.Logger, metrics *obs.PromoMetrics) *checkout.Sessions {
	opts := []checkout.Option{checkout.WithLogger(logger)}
	if metrics != nil {
		opts = append(opts, checkout.WithObserver(metrics))
	}
	return checkout.NewSessions(checkout.SessionsConfig{
		TTL: ttl,
		NewCheckout: func() *checkout.Checkout {
			return checkout.New(c.Rules(), opts...)
		},
		OnChange: metrics.ObserveSessions,
	})
}

// SweepSessions drops expired sessions every interval until ctx ends.
func SweepSessions(ctx context.Context, s *checkout.Sessions, interval time.Duration, logger zerolog.Logger) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := s.Sweep(); removed > 0 {
				logger.Debug().Int("removed", removed).Msg("expired checkout sessions swept")
			}
		}
	}
}
