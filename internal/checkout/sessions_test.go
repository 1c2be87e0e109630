package checkout

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-promo/internal/promo"
)

func TestSessionsLifecycle(t *testing.T) {
	clock := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	sessions := NewSessions(SessionsConfig{
		TTL: time.Minute,
		Now: func() time.Time { return clock },
		NewCheckout: func() *Checkout {
			return New([]promo.Rule{{Batch: &promo.Batch{SKU: "ipd", Qty: 2}, Receive: promo.Receive{SKU: "ipd"}}})
		},
	})

	id := sessions.Create()
	require.NotEmpty(t, id)
	require.Equal(t, 1, sessions.Len())

	require.NoError(t, sessions.With(id, func(c *Checkout) error {
		c.Scan(ipd)
		c.Scan(ipd)
		return nil
	}))

	var discount string
	require.NoError(t, sessions.With(id, func(c *Checkout) error {
		d, err := c.Discount()
		discount = d.String()
		return err
	}))
	require.Equal(t, "549.99", discount)

	err := sessions.With("missing", func(*Checkout) error { return nil })
	require.True(t, errors.Is(err, ErrSessionNotFound))

	require.True(t, sessions.Delete(id))
	require.False(t, sessions.Delete(id))
}

func TestSessionsExpire(t *testing.T) {
	clock := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	sessions := NewSessions(SessionsConfig{TTL: time.Minute, Now: func() time.Time { return clock }})

	kept := sessions.Create()
	dropped := sessions.Create()

	clock = clock.Add(45 * time.Second)
	require.NoError(t, sessions.With(kept, func(*Checkout) error { return nil }))

	clock = clock.Add(30 * time.Second)
	require.Equal(t, 1, sessions.Sweep())
	require.Equal(t, 1, sessions.Len())

	err := sessions.With(dropped, func(*Checkout) error { return nil })
	require.True(t, errors.Is(err, ErrSessionNotFound))
	require.NoError(t, sessions.With(kept, func(*Checkout) error { return nil }))
}

func TestSessionsDeleteExpired(t *testing.T) {
	clock := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	sessions := NewSessions(SessionsConfig{TTL: time.Minute, Now: func() time.Time { return clock }})

	id := sessions.Create()
	clock = clock.Add(2 * time.Minute)

	require.False(t, sessions.Delete(id))
	require.Zero(t, sessions.Len())
	err := sessions.With(id, func(*Checkout) error { return nil })
	require.True(t, errors.Is(err, ErrSessionNotFound))
}

func TestSessionsReportSize(t *testing.T) {
	clock := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	var sizes []int
	sessions := NewSessions(SessionsConfig{
		TTL:      time.Minute,
		Now:      func() time.Time { return clock },
		OnChange: func(active int) { sizes = append(sizes, active) },
	})

	first := sessions.Create()
	sessions.Create()
	require.True(t, sessions.Delete(first))
	require.False(t, sessions.Delete(first))

	clock = clock.Add(2 * time.Minute)
	require.Equal(t, 1, sessions.Sweep())
	require.Zero(t, sessions.Sweep())

	require.Equal(t, []int{1, 2, 1, 0}, sizes)
}

func TestSessionsSerializeAccess(t *testing.T) {
	sessions := NewSessions(SessionsConfig{})
	id := sessions.Create()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = sessions.With(id, func(c *Checkout) error {
				c.Scan(vga)
				return nil
			})
		}()
	}
	wg.Wait()

	require.NoError(t, sessions.With(id, func(c *Checkout) error {
		require.Equal(t, 50, c.Len())
		return nil
	}))
}
