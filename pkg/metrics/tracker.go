package metrics

import (
	"sort"
	"sync"
	"time"
)

// maxLatencySamples bounds the sliding window used for percentile
// calculations so a long-lived process doesn't grow without limit.
const maxLatencySamples = 1000

// Tracker accumulates pipeline quality and performance counters in
// memory. All methods are safe for concurrent use.
type Tracker struct {
	mu sync.Mutex

	startedAt time.Time

	totalQueries    int64
	correctedCount  int64
	errorCount      int64
	cacheHits       int64
	latenciesMs     []float64
	retrievalScores []float64
	scoreSum        float64
}

// Snapshot is a point-in-time view of the tracked counters, shaped for
// the metrics endpoint.
type Snapshot struct {
	TotalQueries      int64   `json:"total_queries"`
	CorrectionRate    float64 `json:"correction_rate"`
	ErrorRate         float64 `json:"error_rate"`
	CacheHitRate      float64 `json:"cache_hit_rate"`
	AvgLatencyMs      float64 `json:"avg_latency_ms"`
	P95LatencyMs      float64 `json:"p95_latency_ms"`
	P99LatencyMs      float64 `json:"p99_latency_ms"`
	AvgRetrievalScore float64 `json:"avg_retrieval_score"`
	UptimeSeconds     float64 `json:"uptime_seconds"`
}

func NewTracker() *Tracker {
	return &Tracker{startedAt: time.Now()}
}

// RecordQuery records one completed pipeline run.
func (t *Tracker) RecordQuery(latency time.Duration, retrievalScore float64, wasCorrected bool, cacheHit bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.totalQueries++
	if wasCorrected {
		t.correctedCount++
	}
	if cacheHit {
		t.cacheHits++
	}

	t.latenciesMs = append(t.latenciesMs, float64(latency.Milliseconds()))
	if len(t.latenciesMs) > maxLatencySamples {
		t.latenciesMs = t.latenciesMs[len(t.latenciesMs)-maxLatencySamples:]
	}

	t.retrievalScores = append(t.retrievalScores, retrievalScore)
	t.scoreSum += retrievalScore
	if len(t.retrievalScores) > maxLatencySamples {
		t.scoreSum -= t.retrievalScores[0]
		t.retrievalScores = t.retrievalScores[1:]
	}
}

// RecordError records a pipeline run that ended in an error.
func (t *Tracker) RecordError() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.totalQueries++
	t.errorCount++
}

// Snapshot computes current rates and latency percentiles.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap := Snapshot{
		TotalQueries:  t.totalQueries,
		UptimeSeconds: time.Since(t.startedAt).Seconds(),
	}
	if t.totalQueries > 0 {
		total := float64(t.totalQueries)
		snap.CorrectionRate = float64(t.correctedCount) / total
		snap.ErrorRate = float64(t.errorCount) / total
		snap.CacheHitRate = float64(t.cacheHits) / total
	}
	if len(t.latenciesMs) > 0 {
		sum := 0.0
		for _, v := range t.latenciesMs {
			sum += v
		}
		snap.AvgLatencyMs = sum / float64(len(t.latenciesMs))
		snap.P95LatencyMs = percentile(t.latenciesMs, 0.95)
		snap.P99LatencyMs = percentile(t.latenciesMs, 0.99)
	}
	if len(t.retrievalScores) > 0 {
		snap.AvgRetrievalScore = t.scoreSum / float64(len(t.retrievalScores))
	}
	return snap
}

// Reset clears all counters and restarts the uptime clock.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.startedAt = time.Now()
	t.totalQueries = 0
	t.correctedCount = 0
	t.errorCount = 0
	t.cacheHits = 0
	t.latenciesMs = nil
	t.retrievalScores = nil
	t.scoreSum = 0
}

func percentile(samples []float64, p float64) float64 {
	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)
	idx := int(p * float64(len(sorted)))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
