package metrics

import (
	"testing"

	"missionctl/internal/domain"
)

func entry(status int, duration int64) domain.LogEntry {
	return domain.LogEntry{
		Timestamp: "2025-11-05T12:34:56Z",
		Method:    "GET",
		Path:      "/mc/tasks",
		Status:    status,
		Duration:  duration,
	}
}

func TestRecordCountsByStatusClass(t *testing.T) {
	c := NewCollector(nil)

	statuses := []int{200, 201, 404, 429, 429, 500, 503, 302}
	for _, status := range statuses {
		c.Record(entry(status, 10))
	}

	snap := c.Snapshot()
	if snap.TotalRequests != int64(len(statuses)) {
		t.Fatalf("expected %d total requests, got %d", len(statuses), snap.TotalRequests)
	}
	if snap.ErrorCount4xx != 3 {
		t.Fatalf("expected 3 4xx errors (429s included), got %d", snap.ErrorCount4xx)
	}
	if snap.ErrorCount5xx != 2 {
		t.Fatalf("expected 2 5xx errors, got %d", snap.ErrorCount5xx)
	}
	if snap.RateLimitHits != 2 {
		t.Fatalf("expected 2 rate limit hits, got %d", snap.RateLimitHits)
	}
}

func TestSnapshotAverageRounds(t *testing.T) {
	c := NewCollector(nil)
	if snap := c.Snapshot(); snap.AvgResponseTime != 0 {
		t.Fatalf("expected zero average with no entries, got %d", snap.AvgResponseTime)
	}

	for _, d := range []int64{10, 11} {
		c.Record(entry(200, d))
	}
	if snap := c.Snapshot(); snap.AvgResponseTime != 11 {
		t.Fatalf("expected mean 10.5 to round to 11, got %d", snap.AvgResponseTime)
	}
}

func TestLogWindowEvictsOldestFirst(t *testing.T) {
	c := NewCollector(nil)
	for i := 0; i < 60; i++ {
		c.Record(entry(200, int64(i)))
	}

	logs := c.Logs()
	if len(logs) != logWindowCap {
		t.Fatalf("expected %d retained entries, got %d", logWindowCap, len(logs))
	}
	for i, log := range logs {
		if want := int64(i + 10); log.Duration != want {
			t.Fatalf("expected duration %d at index %d, got %d", want, i, log.Duration)
		}
	}
}

func TestLogsReturnsIndependentCopy(t *testing.T) {
	c := NewCollector(nil)
	c.Record(entry(200, 5))

	logs := c.Logs()
	logs[0].Path = "/mutated"

	if fresh := c.Logs(); fresh[0].Path != "/mc/tasks" {
		t.Fatalf("caller mutation leaked into collector state: %q", fresh[0].Path)
	}
}

func TestResetClearsState(t *testing.T) {
	c := NewCollector(nil)
	for i := 0; i < 5; i++ {
		c.Record(entry(500, 7))
	}
	c.Reset()

	snap := c.Snapshot()
	if snap.TotalRequests != 0 || snap.ErrorCount5xx != 0 || snap.AvgResponseTime != 0 {
		t.Fatalf("expected clean snapshot after reset, got %+v", snap)
	}
	if logs := c.Logs(); len(logs) != 0 {
		t.Fatalf("expected empty log window after reset, got %d entries", len(logs))
	}
}

func TestDurationWindowIsBounded(t *testing.T) {
	c := NewCollector(nil)
	// Fill past capacity with duration 0, then a single 1000ms entry.
	for i := 0; i < durationWindowCap; i++ {
		c.Record(entry(200, 0))
	}
	c.Record(entry(200, 1000))

	snap := c.Snapshot()
	if want := int64(1); snap.AvgResponseTime != want {
		t.Fatalf("expected average %d over the last %d durations, got %d", want, durationWindowCap, snap.AvgResponseTime)
	}
	if snap.TotalRequests != durationWindowCap+1 {
		t.Fatalf("counters must keep growing past the window, got %d", snap.TotalRequests)
	}
}

func TestSnapshotMatchesRecordedCounts(t *testing.T) {
	c := NewCollector(nil)
	for i := 0; i < 20; i++ {
		status := 200
		if i%5 == 0 {
			status = 502
		}
		c.Record(entry(status, int64(i)))
	}
	snap := c.Snapshot()
	if snap.ErrorCount5xx != 4 {
		t.Fatalf("expected 4 5xx entries, got %d", snap.ErrorCount5xx)
	}
}
