package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/yasserelgammal/rate-limiter/limiter"
	"github.com/yasserelgammal/rate-limiter/store"

	"github.com/baharkarakas/point-ledger/internal/api/httpx"
)

// RateLimit applies a token bucket per client address. rps <= 0 disables it.
func RateLimit(rps, burst int) func(http.Handler) http.Handler {
	pass := func(next http.Handler) http.Handler { return next }
	if rps <= 0 {
		return pass
	}
	if burst < rps {
		burst = rps
	}
	tb, err := limiter.NewTokenBucket(
		limiter.Config{
			Rate:     int64(rps),
			Duration: time.Second,
			Burst:    int64(burst),
		},
		store.NewMemoryStore(time.Minute),
	)
	if err != nil {
		slog.Warn("rate limiter disabled", "err", err)
		return pass
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !tb.Allow(clientKey(r)) {
				httpx.WriteError(w, http.StatusTooManyRequests, "rate_limited", "too many requests", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
