package domain

// LogEntry represents one completed HTTP transaction. Immutable once recorded.
type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Method    string `json:"method"`
	Path      string `json:"path"`
	Status    int    `json:"status"`
	Duration  int64  `json:"duration"`
}

// MetricsSnapshot is the derived view of the request counters. It is
// recomputed on every read and never stored.
type MetricsSnapshot struct {
	TotalRequests   int64 `json:"totalRequests"`
	ErrorCount4xx   int64 `json:"errorCount4xx"`
	ErrorCount5xx   int64 `json:"errorCount5xx"`
	RateLimitHits   int64 `json:"rateLimitHits"`
	AvgResponseTime int64 `json:"avgResponseTime"`
}
