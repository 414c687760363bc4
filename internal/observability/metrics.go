package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu            sync.Mutex
	started       time.Time
	requestCount  map[string]int64
	requestMillis map[string]int64
	errorCount    map[string]int64
	bulk          map[string]*BulkCounters
}

// BulkCounters accumulates outcomes of one bulk operation kind.
type BulkCounters struct {
	Requests int64 `json:"requests"`
	Success  int64 `json:"success"`
	Failure  int64 `json:"failure"`
}

// Snapshot is a point-in-time copy of every counter.
type Snapshot struct {
	UptimeSeconds int64                   `json:"uptime_seconds"`
	Requests      map[string]int64        `json:"requests"`
	RequestMillis map[string]int64        `json:"request_millis"`
	Errors        map[string]int64        `json:"errors"`
	Bulk          map[string]BulkCounters `json:"bulk"`
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		started:       time.Now(),
		requestCount:  make(map[string]int64),
		requestMillis: make(map[string]int64),
		errorCount:    make(map[string]int64),
		bulk:          make(map[string]*BulkCounters),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
	m.requestMillis[key] += duration.Milliseconds()
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordBulk adds the outcome of one bulk request.
func (m *Metrics) RecordBulk(operation string, success, failure int) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	counters, ok := m.bulk[operation]
	if !ok {
		counters = &BulkCounters{}
		m.bulk[operation] = counters
	}
	counters.Requests++
	counters.Success += int64(success)
	counters.Failure += int64(failure)
}

// Snapshot copies the current counters.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := Snapshot{
		UptimeSeconds: int64(time.Since(m.started).Seconds()),
		Requests:      copyCounts(m.requestCount),
		RequestMillis: copyCounts(m.requestMillis),
		Errors:        copyCounts(m.errorCount),
		Bulk:          make(map[string]BulkCounters, len(m.bulk)),
	}
	for op, counters := range m.bulk {
		snap.Bulk[op] = *counters
	}
	return snap
}

func copyCounts(src map[string]int64) map[string]int64 {
	dst := make(map[string]int64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
