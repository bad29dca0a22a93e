package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type RateLimitOptions struct {
	RPS   float64
	Burst int

	// IdleTTL: limiters sin uso por más de este tiempo se descartan.
	IdleTTL time.Duration
}

// limiterStore es un token bucket por cliente (x/time/rate) con limpieza perezosa.
type limiterStore struct {
	mu        sync.Mutex
	entries   map[string]*limiterEntry
	rps       rate.Limit
	burst     int
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

type limiterEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func newLimiterStore(opts RateLimitOptions) *limiterStore {
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = 10 * time.Minute
	}
	return &limiterStore{
		entries: make(map[string]*limiterEntry),
		rps:     rate.Limit(opts.RPS),
		burst:   opts.Burst,
		idleTTL: opts.IdleTTL,
		now:     time.Now,
	}
}

func (s *limiterStore) allow(key string) bool {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if now.Sub(s.lastSweep) > s.idleTTL {
		cutoff := now.Add(-s.idleTTL)
		for k, ent := range s.entries {
			if ent.lastSeen.Before(cutoff) {
				delete(s.entries, k)
			}
		}
		s.lastSweep = now
	}

	ent, ok := s.entries[key]
	if !ok {
		ent = &limiterEntry{lim: rate.NewLimiter(s.rps, s.burst)}
		s.entries[key] = ent
	}
	ent.lastSeen = now
	return ent.lim.AllowN(now, 1)
}

// RateLimit limita por IP de cliente (RemoteAddr, ya resuelto por RealIP).
// RPS <= 0 desactiva el middleware.
func RateLimit(opts RateLimitOptions) func(http.Handler) http.Handler {
	if opts.RPS <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	store := newLimiterStore(opts)
	retryAfter := int(time.Second.Seconds() / opts.RPS)
	if retryAfter < 1 {
		retryAfter = 1
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !store.allow(clientKey(r)) {
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"detail":"Too many requests"}` + "\n"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil && host != "" {
		return host
	}
	if addr != "" {
		return addr
	}
	return "unknown"
}
