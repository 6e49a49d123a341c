package httpx

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	// One counting window per client identifier.
	rateLimitWindow = time.Minute
	// Maximum requests allowed within one window.
	rateLimitMax = 100
	// Expired entries are removed on this cadence to bound memory.
	rateLimiterSweepInterval = 5 * time.Minute
)

// RateLimiter bounds request rate per client identifier.
type RateLimiter interface {
	Allow(key string, limit int, window time.Duration) rateDecision
	Close()
}

type rateDecision struct {
	allowed   bool
	count     int
	windowEnd time.Time
}

type memoryRateLimiter struct {
	mu      sync.Mutex
	entries map[string]rateState
	stopCh  chan struct{}
	once    sync.Once
}

type rateState struct {
	count     int
	windowEnd time.Time
}

// NewMemoryRateLimiter constructs an in-process limiter with a
// background expiry sweep. Close stops the sweep.
func NewMemoryRateLimiter() RateLimiter {
	rl := &memoryRateLimiter{
		entries: make(map[string]rateState),
		stopCh:  make(chan struct{}),
	}
	go rl.sweepLoop()
	return rl
}

func (rl *memoryRateLimiter) Allow(key string, limit int, window time.Duration) rateDecision {
	if limit <= 0 {
		return rateDecision{allowed: true}
	}
	if window <= 0 {
		window = time.Minute
	}
	now := time.Now()
	rl.mu.Lock()
	defer rl.mu.Unlock()

	state, ok := rl.entries[key]
	if !ok || now.After(state.windowEnd) {
		state = rateState{windowEnd: now.Add(window)}
	}
	// The count keeps growing past the limit so the window stays
	// monotonic; only the allowed flag flips.
	state.count++
	rl.entries[key] = state
	return rateDecision{allowed: state.count <= limit, count: state.count, windowEnd: state.windowEnd}
}

func (rl *memoryRateLimiter) sweepLoop() {
	ticker := time.NewTicker(rateLimiterSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.cleanup(time.Now())
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *memoryRateLimiter) cleanup(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, state := range rl.entries {
		if now.After(state.windowEnd) {
			delete(rl.entries, key)
		}
	}
}

func (rl *memoryRateLimiter) Close() {
	rl.once.Do(func() {
		close(rl.stopCh)
	})
}

// withRateLimit applies the per-client window ahead of next. Quota
// headers are set on every response, including rejections.
func (r *Router) withRateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		decision := r.limiter.Allow(clientKey(req), rateLimitMax, rateLimitWindow)
		applyRateHeaders(w, rateLimitMax, decision)
		if !decision.allowed {
			writeError(w, http.StatusTooManyRequests, "Too many requests")
			return
		}
		next(w, req)
	}
}

// clientKey derives the rate-limit bucket for a request.
func clientKey(req *http.Request) string {
	if ip := strings.TrimSpace(req.Header.Get("x-real-ip")); ip != "" {
		return ip
	}
	if forwarded := strings.TrimSpace(req.Header.Get("x-forwarded-for")); forwarded != "" {
		return forwarded
	}
	return "unknown"
}

func applyRateHeaders(w http.ResponseWriter, limit int, decision rateDecision) {
	remaining := limit - decision.count
	if remaining < 0 {
		remaining = 0
	}
	headers := w.Header()
	headers.Set("X-RateLimit-Limit", strconv.Itoa(limit))
	headers.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	headers.Set("X-RateLimit-Reset", strconv.FormatInt(epochCeil(decision.windowEnd), 10))
}

// epochCeil rounds a deadline up to whole epoch seconds.
func epochCeil(t time.Time) int64 {
	secs := t.Unix()
	if t.Nanosecond() > 0 {
		secs++
	}
	return secs
}
