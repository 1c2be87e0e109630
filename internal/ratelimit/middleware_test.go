package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestHandlerMiddlewareEnforcesLimit(t *testing.T) {
	for name, limiter := range map[string]Allower{
		"redis":  Limiter{Client: newRedis(t), Prefix: "ratelimit:"},
		"memory": NewMemoryLimiter("ratelimit"),
	} {
		t.Run(name, func(t *testing.T) {
			handler := Handler{
				Limiter: limiter,
				Config:  Config{Key: ByClientIP, Window: time.Minute, Max: 1},
			}
			counted := handler.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodPost, "/api/v1/quote", nil)
			req.RemoteAddr = "203.0.113.7:4000"

			rr1 := httptest.NewRecorder()
			counted.ServeHTTP(rr1, req.Clone(req.Context()))
			require.Equal(t, http.StatusOK, rr1.Code)

			rr2 := httptest.NewRecorder()
			counted.ServeHTTP(rr2, req.Clone(req.Context()))
			require.Equal(t, http.StatusTooManyRequests, rr2.Code)
			require.Equal(t, "1", rr2.Header().Get("X-RateLimit-Limit"))
			require.Equal(t, "0", rr2.Header().Get("X-RateLimit-Remaining"))
			require.NotEmpty(t, rr2.Header().Get("Retry-After"))
			require.Contains(t, rr2.Body.String(), "RATE_LIMITED")

			other := req.Clone(req.Context())
			other.RemoteAddr = "198.51.100.1:4000"
			rr3 := httptest.NewRecorder()
			counted.ServeHTTP(rr3, other)
			require.Equal(t, http.StatusOK, rr3.Code)
		})
	}
}

func TestHandlerMiddlewareOnError(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer func() { _ = client.Close() }()

	called := false
	handler := Handler{
		Limiter: Limiter{Client: client, Prefix: "ratelimit:"},
		Config: Config{
			Key:    func(*http.Request) string { return "err" },
			Window: time.Second,
			Max:    1,
		},
		OnError: func(error) { called = true },
	}

	counted := handler.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	counted.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/test", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.True(t, called)
}
