package authcore

import "sync/atomic"

// MetricID identifies one counter in the in-process metrics system.
type MetricID uint16

const (
	// MetricIssueSuccess counts issued token pairs.
	MetricIssueSuccess MetricID = iota
	// MetricIssueFailure counts failed issuance attempts.
	MetricIssueFailure
	// MetricRotateSuccess counts successful rotations.
	MetricRotateSuccess
	// MetricRotateFailure counts rotations that failed for any reason other
	// than reuse detection.
	MetricRotateFailure
	// MetricRotateExpired counts rotations rejected for expiry.
	MetricRotateExpired
	// MetricReuseDetected counts breach responses: a revoked refresh token
	// presented again.
	MetricReuseDetected
	// MetricRevoke counts explicit refresh-token revocations.
	MetricRevoke
	// MetricBlacklistAdd counts denylist writes.
	MetricBlacklistAdd
	// MetricBlacklistHit counts validations rejected by the denylist.
	MetricBlacklistHit
	// MetricRateLimitHit counts denied rate-limit decisions.
	MetricRateLimitHit
	// MetricLoginFailureRecorded counts recorded login failures.
	MetricLoginFailureRecorded
	// MetricSweepDeleted counts refresh-token rows removed by the sweep.
	MetricSweepDeleted

	metricIDCount
)

const cacheLineSize = 64

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds lock-free counters. A disabled instance is a no-op on the
// write path and snapshots to zeroes.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]paddedCounter
}

// MetricsSnapshot is a point-in-time copy of all counters.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

// NewMetrics creates a [Metrics] instance. When cfg.Enabled is false all
// operations are no-ops.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

// Inc adds one to the counter.
func (m *Metrics) Inc(id MetricID) {
	m.Add(id, 1)
}

// Add adds n to the counter.
func (m *Metrics) Add(id MetricID, n uint64) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, n)
}

// Value reads one counter.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || !m.enabled || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot deep-copies all counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		Counters: make(map[MetricID]uint64, int(metricIDCount)),
	}
	if m == nil || !m.enabled {
		return snap
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		snap.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}
	return snap
}
