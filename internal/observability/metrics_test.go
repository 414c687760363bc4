package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/tickets", "GET", 200, 30*time.Millisecond)
	m.RecordRequest("/tickets", "GET", 200, 20*time.Millisecond)
	m.RecordError("/tickets/:id", "GET", "NOT_FOUND")
	m.RecordBulk("status", 2, 1)
	m.RecordBulk("status", 3, 0)

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.Requests["/tickets|GET|200"])
	assert.Equal(t, int64(50), snap.RequestMillis["/tickets|GET|200"])
	assert.Equal(t, int64(1), snap.Errors["/tickets/:id|GET|NOT_FOUND"])
	assert.Equal(t, BulkCounters{Requests: 2, Success: 5, Failure: 1}, snap.Bulk["status"])

	m.RecordBulk("status", 1, 0)
	assert.Equal(t, int64(5), snap.Bulk["status"].Success, "snapshots are copies")
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/", "GET", 200, time.Millisecond)
	m.RecordBulk("assign", 1, 0)
	assert.Empty(t, m.Snapshot().Requests)
}
