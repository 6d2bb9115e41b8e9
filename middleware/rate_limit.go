package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var rateLimitedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "http_rate_limited_total",
		Help: "Requests rejected by a rate limiter",
	},
	[]string{"limiter"},
)

// RateLimitConfig describes one fixed-window limit
type RateLimitConfig struct {
	// Name labels the limiter in metrics
	Name     string
	Requests int
	Window   time.Duration
	// KeyFunc picks the bucket for a request; client IP when nil
	KeyFunc func(c echo.Context) string
	Message string
}

type window struct {
	count   int
	resetAt time.Time
}

// RateLimiter counts requests per key in fixed windows
type RateLimiter struct {
	config    RateLimitConfig
	mu        sync.Mutex
	windows   map[string]window
	nextSweep time.Time
	now       func() time.Time
}

func NewRateLimiter(config RateLimitConfig) *RateLimiter {
	if config.KeyFunc == nil {
		config.KeyFunc = func(c echo.Context) string { return c.RealIP() }
	}
	if config.Message == "" {
		config.Message = "Too many requests. Please try again later."
	}
	if config.Name == "" {
		config.Name = "default"
	}
	return &RateLimiter{
		config:  config,
		windows: make(map[string]window),
		now:     time.Now,
	}
}

// allow records one request for key. When the window is full it reports how long
// until the window resets.
func (rl *RateLimiter) allow(key string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.sweepLocked(now)

	w, ok := rl.windows[key]
	if !ok || !now.Before(w.resetAt) {
		rl.windows[key] = window{count: 1, resetAt: now.Add(rl.config.Window)}
		return true, 0
	}
	if w.count >= rl.config.Requests {
		return false, w.resetAt.Sub(now)
	}
	w.count++
	rl.windows[key] = w
	return true, 0
}

// sweepLocked drops expired windows at most once per limiter window
func (rl *RateLimiter) sweepLocked(now time.Time) {
	if now.Before(rl.nextSweep) {
		return
	}
	for key, w := range rl.windows {
		if !now.Before(w.resetAt) {
			delete(rl.windows, key)
		}
	}
	rl.nextSweep = now.Add(rl.config.Window)
}

// Middleware rejects requests over the limit with 429 and a Retry-After header
func (rl *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ok, wait := rl.allow(rl.config.KeyFunc(c))
			if ok {
				return next(c)
			}
			rateLimitedTotal.WithLabelValues(rl.config.Name).Inc()
			c.Response().Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			return echo.NewHTTPError(http.StatusTooManyRequests, rl.config.Message)
		}
	}
}

// Limits for the public and auth endpoints, per client IP
var (
	LoginRateLimiter = NewRateLimiter(RateLimitConfig{
		Name:     "login",
		Requests: 5,
		Window:   time.Minute,
		Message:  "Too many login attempts. Please wait a minute before trying again.",
	})

	RegisterRateLimiter = NewRateLimiter(RateLimitConfig{
		Name:     "register",
		Requests: 5,
		Window:   time.Hour,
		Message:  "Too many registrations. Please try again later.",
	})

	PublicFormRateLimiter = NewRateLimiter(RateLimitConfig{
		Name:     "contact",
		Requests: 10,
		Window:   time.Minute,
		Message:  "Too many form submissions. Please wait before trying again.",
	})

	// Exotel pushes every status change, so the ceiling is high
	CallbackRateLimiter = NewRateLimiter(RateLimitConfig{
		Name:     "status_callback",
		Requests: 600,
		Window:   time.Minute,
		Message:  "Rate limit exceeded.",
	})

	// Each lead analysis spends model tokens
	AnalysisRateLimiter = NewRateLimiter(RateLimitConfig{
		Name:     "analyze_lead",
		Requests: 30,
		Window:   time.Minute,
		Message:  "Rate limit exceeded. Please slow down your requests.",
	})
)
