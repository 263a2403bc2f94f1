package middleware

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// clientStore manages per-IP token buckets with periodic eviction of stale
// entries.
type clientStore struct {
	mu      sync.Mutex
	clients map[string]*client
	rps     int
	burst   int
	ttl     time.Duration
}

func newClientStore(rps, burst int, ttl time.Duration) *clientStore {
	s := &clientStore{
		clients: make(map[string]*client),
		rps:     rps,
		burst:   burst,
		ttl:     ttl,
	}
	go s.cleanupLoop()
	return s
}

func (s *clientStore) limiterFor(ip string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.clients[ip]
	if !ok {
		c = &client{limiter: rate.NewLimiter(rate.Limit(s.rps), s.burst)}
		s.clients[ip] = c
	}
	c.lastSeen = time.Now()
	return c.limiter
}

func (s *clientStore) cleanupLoop() {
	ticker := time.NewTicker(s.ttl)
	defer ticker.Stop()
	for range ticker.C {
		s.mu.Lock()
		now := time.Now()
		for ip, c := range s.clients {
			if now.Sub(c.lastSeen) > s.ttl {
				delete(s.clients, ip)
			}
		}
		s.mu.Unlock()
	}
}

// RateLimit enforces per-IP token-bucket rate limiting, returning 429 when
// exceeded.
func RateLimit(rps, burst int, logger *slog.Logger) func(http.Handler) http.Handler {
	store := newClientStore(rps, burst, 3*time.Minute)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			if !store.limiterFor(ip).Allow() {
				logger.Warn("rate limit exceeded",
					slog.String("ip", ip),
					slog.String("path", r.URL.Path),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"code":    "RATE_LIMITED",
					"message": "too many requests",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP extracts the client IP, preferring X-Forwarded-For and X-Real-IP
// over RemoteAddr.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for _, part := range strings.Split(xff, ",") {
			if ip := net.ParseIP(strings.TrimSpace(part)); ip != nil {
				return ip.String()
			}
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		if ip := net.ParseIP(xri); ip != nil {
			return ip.String()
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
