package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/econutri/tracker/internal/infrastructure/config"
	"golang.org/x/time/rate"
	"go.uber.org/zap"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter throttles requests per client address with a token bucket
type RateLimiter struct {
	limit    rate.Limit
	burst    int
	idle     time.Duration
	visitors map[string]*visitor
	mu       sync.Mutex
	lastGC   time.Time
	now      func() time.Time
	logger   *zap.Logger

	// OnLimited, when set, is called for every rejected request
	OnLimited func()
}

// NewRateLimiter creates a limiter allowing RequestsPerMin per client with
// BurstSize burst. Clients idle longer than CleanupInterval are forgotten.
func NewRateLimiter(cfg config.RateLimitConfig, logger *zap.Logger) *RateLimiter {
	idle := cfg.CleanupInterval
	if idle <= 0 {
		idle = 5 * time.Minute
	}

	return &RateLimiter{
		limit:    rate.Limit(float64(cfg.RequestsPerMin) / 60),
		burst:    cfg.BurstSize,
		idle:     idle,
		visitors: make(map[string]*visitor),
		lastGC:   time.Now(),
		now:      time.Now,
		logger:   logger.Named("ratelimit"),
	}
}

// Allow reports whether a request from client may proceed now and, if
// not, how long until it would
func (rl *RateLimiter) Allow(client string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.collect(now)

	v, ok := rl.visitors[client]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[client] = v
	}
	v.lastSeen = now

	reservation := v.limiter.ReserveN(now, 1)
	if !reservation.OK() {
		return false, time.Minute
	}
	if delay := reservation.DelayFrom(now); delay > 0 {
		reservation.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// collect drops idle visitors at most once per idle period
func (rl *RateLimiter) collect(now time.Time) {
	if now.Sub(rl.lastGC) < rl.idle {
		return
	}
	for client, v := range rl.visitors {
		if now.Sub(v.lastSeen) >= rl.idle {
			delete(rl.visitors, client)
		}
	}
	rl.lastGC = now
}

// Clients returns the number of tracked clients
func (rl *RateLimiter) Clients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.visitors)
}

// Middleware rejects throttled requests with 429 and Retry-After
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client := clientAddress(r)

		allowed, retryAfter := rl.Allow(client)
		if !allowed {
			if rl.OnLimited != nil {
				rl.OnLimited()
			}
			rl.logger.Warn("Rate limit exceeded",
				zap.String("client", client),
				zap.String("path", r.URL.Path),
				zap.String("request_id", GetRequestID(r.Context())),
			)

			seconds := int(math.Ceil(retryAfter.Seconds()))
			if seconds < 1 {
				seconds = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(seconds))
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func clientAddress(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
