package ratelimit

import (
	"context"
	"time"

	"github.com/noah-isme/toko-promo/internal/resilience"
)

// Fallback routes through Primary while Breaker admits requests and through
// Secondary when it is open or Primary fails. A nil Secondary surfaces
// resilience.ErrOpenCircuit, which the middleware treats as fail-open.
type Fallback struct {
	Primary   Allower
	Secondary Allower
	Breaker   *resilience.Breaker
}

// Allow implements Allower.
func (f Fallback) Allow(ctx context.Context, key string, window time.Duration, limit int) (bool, int, time.Time, error) {
	if f.Breaker == nil || f.Breaker.Allow(ctx) {
		allowed, remaining, reset, err := f.Primary.Allow(ctx, key, window, limit)
		if f.Breaker != nil {
			f.Breaker.Report(ctx, err == nil)
		}
		if err == nil {
			return allowed, remaining, reset, nil
		}
		if f.Secondary == nil {
			return false, 0, reset, err
		}
	}
	if f.Secondary == nil {
		return false, 0, time.Now().Add(window), resilience.ErrOpenCircuit
	}
	return f.Secondary.Allow(ctx, key, window, limit)
}
