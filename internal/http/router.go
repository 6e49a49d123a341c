package httpx

import (
	"bufio"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"missionctl/internal/domain"
	"missionctl/internal/metrics"
	"missionctl/internal/repository"
	"missionctl/internal/resource"
	"missionctl/internal/ws"
)

const (
	healthPath   = "/health"
	apiPrefix    = "/mc/"
	probeTimeout = 2 * time.Second
)

// Router wires the middleware chain in front of the resource handlers.
// Every request passes through the request logger; the rate limiter and
// auth gate guard the API paths only.
type Router struct {
	mux       *http.ServeMux
	logger    *slog.Logger
	store     repository.Store
	collector *metrics.Collector
	limiter   RateLimiter
	hub       *ws.Hub
	upgrader  websocket.Upgrader
	apiToken  string
	startedAt time.Time
}

// NewRouter assembles routes with dependencies.
func NewRouter(logger *slog.Logger, store repository.Store, collector *metrics.Collector, limiter RateLimiter, hub *ws.Hub, apiToken string) *Router {
	r := &Router{
		mux:       http.NewServeMux(),
		logger:    logger,
		store:     store,
		collector: collector,
		limiter:   limiter,
		hub:       hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		apiToken:  strings.TrimSpace(apiToken),
		startedAt: time.Now(),
	}
	if r.limiter == nil {
		r.limiter = NewMemoryRateLimiter()
	}
	r.register()
	return r
}

// ServeHTTP runs the request logger around the whole mux so rejected
// requests (401/403/429) are reflected in the metrics too.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	recorder := &statusRecorder{ResponseWriter: w}
	start := time.Now()
	r.mux.ServeHTTP(recorder, req)

	status := recorder.status
	if status == 0 {
		status = http.StatusOK
	}
	duration := time.Since(start)
	r.collector.Record(domain.LogEntry{
		Timestamp: start.UTC().Format(time.RFC3339),
		Method:    req.Method,
		Path:      req.URL.Path,
		Status:    status,
		Duration:  duration.Milliseconds(),
	})

	fields := []any{
		"method", req.Method,
		"path", req.URL.Path,
		"status", status,
		"duration_ms", duration.Milliseconds(),
		"client", clientKey(req),
	}
	switch {
	case status >= http.StatusInternalServerError:
		r.logger.Error("http_request", fields...)
	case status >= http.StatusBadRequest:
		r.logger.Warn("http_request", fields...)
	default:
		r.logger.Info("http_request", fields...)
	}
}

// Close releases background resources.
func (r *Router) Close() {
	if r.limiter != nil {
		r.limiter.Close()
	}
}

func (r *Router) register() {
	r.mux.HandleFunc(healthPath, r.handleHealth)
	r.mux.Handle("/metrics", promhttp.Handler())
	for _, s := range resource.All() {
		schema := s
		r.mux.HandleFunc(apiPrefix+schema.Name, r.guard(r.handleCollection(schema)))
		r.mux.HandleFunc(apiPrefix+schema.Name+"/", r.guard(r.handleItem(schema)))
	}
	r.mux.HandleFunc("/monitoring", r.guard(r.handleMonitoring))
	r.mux.HandleFunc("/monitoring/ws", r.guard(r.handleLogStream))
}

// guard applies the path-scoped middleware: rate limiter, then auth.
func (r *Router) guard(next http.HandlerFunc) http.HandlerFunc {
	return r.withRateLimit(r.requireAuth(next))
}

func (r *Router) handleHealth(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    int64(time.Since(r.startedAt).Seconds()),
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if sr.status == 0 {
		sr.status = http.StatusOK
	}
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += n
	return n, err
}

func (sr *statusRecorder) Flush() {
	if f, ok := sr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack is required for the websocket upgrade on the stream route.
func (sr *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := sr.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, errors.New("hijacker not supported")
}

func (r *Router) methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func (r *Router) notFound(w http.ResponseWriter) {
	writeError(w, http.StatusNotFound, "not found")
}
