// Package ratelimit implements a fixed-window per-client request limiter.
package ratelimit

import (
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"fintrack/internal/cache"
)

// Limiter counts requests per client in fixed windows. Client state lives in
// a bounded LRU so a flood of distinct addresses cannot grow it unbounded.
type Limiter struct {
	clients  *cache.LRUCache[window]
	limit    int
	interval time.Duration
	now      func() time.Time

	rejected atomic.Int64
}

type window struct {
	start    time.Time
	requests int
}

type Config struct {
	RequestsPerMinute int
	MaxClients        int
	Window            time.Duration
}

func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 60,
		MaxClients:        10000,
		Window:            time.Minute,
	}
}

func NewLimiter(config Config) *Limiter {
	def := DefaultConfig()
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = def.RequestsPerMinute
	}
	if config.MaxClients <= 0 {
		config.MaxClients = def.MaxClients
	}
	if config.Window <= 0 {
		config.Window = def.Window
	}
	return &Limiter{
		// Entries idle for ten windows are dropped by CleanExpired.
		clients:  cache.NewLRUCache[window](config.MaxClients, 10*config.Window),
		limit:    config.RequestsPerMinute,
		interval: config.Window,
		now:      time.Now,
	}
}

// WithClock replaces the time source; intended for tests.
func (rl *Limiter) WithClock(now func() time.Time) *Limiter {
	rl.now = now
	rl.clients.WithClock(now)
	return rl
}

// Allow records a request from clientIP and reports whether it is within the
// limit, plus how long until the client's window resets.
func (rl *Limiter) Allow(clientIP string) (bool, time.Duration) {
	now := rl.now()
	w := rl.clients.Update(clientIP, func(cur window, found bool) window {
		if !found || now.Sub(cur.start) >= rl.interval {
			return window{start: now, requests: 1}
		}
		cur.requests++
		return cur
	})
	if w.requests <= rl.limit {
		return true, 0
	}
	rl.rejected.Add(1)
	return false, w.start.Add(rl.interval).Sub(now)
}

// CleanExpired lets a cache.Manager drop idle clients.
func (rl *Limiter) CleanExpired() int {
	return rl.clients.CleanExpired()
}

type Metrics struct {
	Rejected    int64
	ClientCount int64
}

func (rl *Limiter) GetMetrics() Metrics {
	return Metrics{
		Rejected:    rl.rejected.Load(),
		ClientCount: int64(rl.clients.Size()),
	}
}

// Middleware rejects requests over the limit with onLimit, or a plain 429
// carrying Retry-After when onLimit is nil.
func (rl *Limiter) Middleware(extractIP func(*http.Request) string, onLimit func(http.ResponseWriter, *http.Request, time.Duration)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, retry := rl.Allow(extractIP(r))
			if !ok {
				if onLimit != nil {
					onLimit(w, r, retry)
					return
				}
				w.Header().Set("Retry-After", RetryAfterSeconds(retry))
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RetryAfterSeconds renders d as a Retry-After value, rounding up to a whole
// second with a minimum of one.
func RetryAfterSeconds(d time.Duration) string {
	secs := int64((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.FormatInt(secs, 10)
}
