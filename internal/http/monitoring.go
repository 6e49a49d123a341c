package httpx

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"missionctl/internal/ws"
)

// handleMonitoring assembles the operator aggregate: process info, a
// data-store probe, the metrics snapshot and the recent request log.
// A failing probe degrades only the store's service entry; the
// response itself is always 200.
func (r *Router) handleMonitoring(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	writeJSON(w, http.StatusOK, map[string]any{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"system": map[string]any{
			"uptime":        int64(time.Since(r.startedAt).Seconds()),
			"runtime":       runtime.Version(),
			"platform":      runtime.GOOS,
			"heap_used_mb":  mem.HeapAlloc / 1024 / 1024,
			"heap_total_mb": mem.HeapSys / 1024 / 1024,
		},
		"services": []map[string]any{
			// Reaching this handler proves the gateway itself is live.
			{"name": "api", "status": "connected", "latency_ms": int64(0)},
			r.probeDatabase(req.Context()),
		},
		"metrics": r.collector.Snapshot(),
		"logs":    r.collector.Logs(),
	})
}

func (r *Router) probeDatabase(ctx context.Context) map[string]any {
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	start := time.Now()
	err := r.store.Health(probeCtx)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		return map[string]any{
			"name":       "database",
			"status":     "error",
			"latency_ms": latency,
			"error":      err.Error(),
		}
	}
	return map[string]any{
		"name":       "database",
		"status":     "connected",
		"latency_ms": latency,
	}
}

// handleLogStream upgrades to a websocket and streams request log
// entries as the collector records them.
func (r *Router) handleLogStream(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	if r.hub == nil {
		writeError(w, http.StatusServiceUnavailable, "log stream unavailable")
		return
	}
	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	client := ws.NewClient(conn, r.logger)
	r.hub.Register(client)
	go func() {
		defer func() {
			r.hub.Unregister(client)
			client.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}
