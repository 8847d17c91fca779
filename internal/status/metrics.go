// Package status exposes an optional Prometheus metrics endpoint and
// liveness probe for a long-running capture session, so chunker and
// worker-pool activity can be monitored without reading log files.
package status

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ghardin1314/scribe/internal/workerpool"
)

// Recorder implements workerpool.Metrics, translating per-chunk outcomes
// into Prometheus counters and a latency histogram.
type Recorder struct {
	chunksTotal    *prometheus.CounterVec
	chunkLatency   prometheus.Histogram
	chunksInFlight prometheus.Gauge
}

// NewRecorder registers its metrics against the default registry and
// returns a Recorder ready to be wired into workerpool.Config.Metrics.
func NewRecorder() *Recorder {
	return &Recorder{
		chunksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scribe",
			Name:      "chunks_total",
			Help:      "Chunk-pair results processed by the worker pool, by outcome.",
		}, []string{"outcome"}),
		chunkLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: "scribe",
			Name:      "chunk_processing_seconds",
			Help:      "Time spent processing one chunk pair, from dequeue to output write.",
			Buckets:   prometheus.DefBuckets,
		}),
		chunksInFlight: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: "scribe",
			Name:      "chunker_progress_total",
			Help:      "Number of chunks the chunker has flushed to disk so far.",
		}),
	}
}

// ObserveChunk implements workerpool.Metrics.
func (r *Recorder) ObserveChunk(outcome workerpool.Outcome, latency time.Duration) {
	r.chunksTotal.WithLabelValues(string(outcome)).Inc()
	r.chunkLatency.Observe(latency.Seconds())
}

// SetChunkerProgress records the chunker's total flushed-chunk count.
func (r *Recorder) SetChunkerProgress(count int) {
	r.chunksInFlight.Set(float64(count))
}
