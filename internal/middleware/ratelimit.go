package middleware

import (
	"net/http"
	"sync"
	"time"
)

// RateLimiter is a fixed-window, per-IP limiter held in memory. It guards
// the login endpoint against credential stuffing; state is per process,
// which is fine for a single-server deployment.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    int
	window   time.Duration
}

type visitor struct {
	windowStart time.Time
	count       int
}

// NewRateLimiter allows limit requests per window per client IP. A
// background goroutine evicts idle entries so the map cannot grow without
// bound.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		limit:    limit,
		window:   window,
	}
	go func() {
		for {
			time.Sleep(window)
			rl.cleanup()
		}
	}()
	return rl
}

func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := time.Now()
	for ip, v := range rl.visitors {
		if now.Sub(v.windowStart) > rl.window {
			delete(rl.visitors, ip)
		}
	}
}

// Limit wraps a handler, answering 429 once a client exceeds the window
// allowance. Relies on chi's RealIP middleware having already resolved
// r.RemoteAddr from proxy headers.
func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rl.mu.Lock()
		v, ok := rl.visitors[r.RemoteAddr]
		if !ok || time.Since(v.windowStart) > rl.window {
			v = &visitor{windowStart: time.Now()}
			rl.visitors[r.RemoteAddr] = v
		}
		v.count++
		allowed := v.count <= rl.limit
		rl.mu.Unlock()

		if !allowed {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"ok":false,"error":"Too many requests"}`))
			return
		}

		next.ServeHTTP(w, r)
	})
}
