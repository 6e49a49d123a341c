package metrics

import (
	"encoding/json"
	"math"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"missionctl/internal/domain"
	"missionctl/internal/ws"
)

const (
	durationWindowCap = 1000
	logWindowCap      = 50
)

var histogramBuckets = []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10}

// Collector keeps process-wide request counters plus a bounded,
// oldest-first-evicted window of completed requests. One instance is
// constructed at startup and shared by the middleware chain.
type Collector struct {
	mu          sync.Mutex
	total       int64
	count4xx    int64
	count5xx    int64
	rateLimited int64
	durations   []int64
	logs        []domain.LogEntry

	hub *ws.Hub

	requestTotal   *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	rateLimitHits  prometheus.Counter
}

// NewCollector constructs a Collector. The hub is optional; when set,
// every recorded entry is broadcast to stream subscribers.
func NewCollector(hub *ws.Hub) *Collector {
	c := &Collector{
		durations: make([]int64, 0, durationWindowCap),
		logs:      make([]domain.LogEntry, 0, logWindowCap),
		hub:       hub,
	}
	c.registerProm()
	return c
}

func (c *Collector) registerProm() {
	c.requestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "missionctl",
		Subsystem: "api",
		Name:      "http_requests_total",
		Help:      "Count of processed HTTP requests",
	}, []string{"method", "path", "status"})

	c.requestLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "missionctl",
		Subsystem: "api",
		Name:      "http_request_duration_seconds",
		Help:      "Latency distribution of HTTP handlers",
		Buckets:   histogramBuckets,
	}, []string{"method", "path", "status"})

	c.rateLimitHits = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "missionctl",
		Subsystem: "api",
		Name:      "rate_limit_hits_total",
		Help:      "Number of rate-limited responses",
	})

	collectors := []prometheus.Collector{c.requestTotal, c.requestLatency, c.rateLimitHits}
	for _, collector := range collectors {
		if err := prometheus.Register(collector); err != nil {
			if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
				switch v := are.ExistingCollector.(type) {
				case *prometheus.CounterVec:
					c.requestTotal = v
				case *prometheus.HistogramVec:
					c.requestLatency = v
				case prometheus.Counter:
					c.rateLimitHits = v
				}
			}
		}
	}
}

// Record folds one completed request into the counters and windows.
// It has no rejection path.
func (c *Collector) Record(entry domain.LogEntry) {
	c.mu.Lock()
	c.total++
	if entry.Status == 429 {
		c.rateLimited++
	}
	if entry.Status >= 400 && entry.Status < 500 {
		c.count4xx++
	}
	if entry.Status >= 500 {
		c.count5xx++
	}
	c.durations = append(c.durations, entry.Duration)
	if len(c.durations) > durationWindowCap {
		c.durations = c.durations[1:]
	}
	c.logs = append(c.logs, entry)
	if len(c.logs) > logWindowCap {
		c.logs = c.logs[1:]
	}
	c.mu.Unlock()

	labels := prometheus.Labels{
		"method": entry.Method,
		"path":   entry.Path,
		"status": strconv.Itoa(entry.Status),
	}
	c.requestTotal.With(labels).Inc()
	c.requestLatency.With(labels).Observe(float64(entry.Duration) / 1000)
	if entry.Status == 429 {
		c.rateLimitHits.Inc()
	}

	if c.hub != nil {
		if payload, err := json.Marshal(entry); err == nil {
			c.hub.Broadcast(payload)
		}
	}
}

// Snapshot recomputes the derived metrics view from the current counters.
func (c *Collector) Snapshot() domain.MetricsSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	var avg int64
	if len(c.durations) > 0 {
		var sum int64
		for _, d := range c.durations {
			sum += d
		}
		avg = int64(math.Round(float64(sum) / float64(len(c.durations))))
	}
	return domain.MetricsSnapshot{
		TotalRequests:   c.total,
		ErrorCount4xx:   c.count4xx,
		ErrorCount5xx:   c.count5xx,
		RateLimitHits:   c.rateLimited,
		AvgResponseTime: avg,
	}
}

// Logs returns an independent copy of the request window, oldest first.
func (c *Collector) Logs() []domain.LogEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.LogEntry, len(c.logs))
	copy(out, c.logs)
	return out
}

// Reset clears all counters and windows.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.total = 0
	c.count4xx = 0
	c.count5xx = 0
	c.rateLimited = 0
	c.durations = c.durations[:0]
	c.logs = c.logs[:0]
}
