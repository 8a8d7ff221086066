// Package metrics holds the prometheus collectors for batch runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "orbitplan"

// Metrics is the set of batch collectors. A nil *Metrics records nothing.
type Metrics struct {
	runsTotal        *prometheus.CounterVec
	runDuration      prometheus.Histogram
	postsSaved       *prometheus.CounterVec
	slotsFailed      *prometheus.CounterVec
	fallbacksTotal   *prometheus.CounterVec
	collisionsTotal  *prometheus.CounterVec
	videoJobsQueued  prometheus.Counter
	categoryWeight   *prometheus.GaugeVec
	telemetryRecords *prometheus.CounterVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		runsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Weekly batch runs by result",
			},
			[]string{"mode", "result"},
		),
		runDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Duration of weekly batch runs in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
			},
		),
		postsSaved: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "posts_saved_total",
				Help:      "Posts persisted by platform and post type",
			},
			[]string{"platform", "post_type"},
		),
		slotsFailed: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "slots_failed_total",
				Help:      "Slots skipped after a persistence failure",
			},
			[]string{"platform", "post_type"},
		),
		fallbacksTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fallbacks_total",
				Help:      "Generations that ended on template copy",
			},
			[]string{"kind"},
		),
		collisionsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "novelty_collisions_total",
				Help:      "Similarity collisions by platform",
			},
			[]string{"platform"},
		),
		videoJobsQueued: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "video_jobs_queued_total",
				Help:      "Video jobs upserted as pending",
			},
		),
		categoryWeight: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "category_weight",
				Help:      "Last computed scheduling weight per content category",
			},
			[]string{"category"},
		),
		telemetryRecords: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "telemetry_records_total",
				Help:      "Performance records ingested by source",
			},
			[]string{"source"},
		),
	}
}

// ObserveRun records one finished run.
func (m *Metrics) ObserveRun(mode string, ok bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	result := "success"
	if !ok {
		result = "error"
	}
	m.runsTotal.WithLabelValues(mode, result).Inc()
	m.runDuration.Observe(elapsed.Seconds())
}

// PostSaved counts a persisted post.
func (m *Metrics) PostSaved(platform, postType string) {
	if m == nil {
		return
	}
	m.postsSaved.WithLabelValues(platform, postType).Inc()
}

// SlotFailed counts a skipped slot.
func (m *Metrics) SlotFailed(platform, postType string) {
	if m == nil {
		return
	}
	m.slotsFailed.WithLabelValues(platform, postType).Inc()
}

// Fallback counts a template fallback.
func (m *Metrics) Fallback(kind string) {
	if m == nil {
		return
	}
	m.fallbacksTotal.WithLabelValues(kind).Inc()
}

// Collision counts a novelty collision.
func (m *Metrics) Collision(platform string) {
	if m == nil {
		return
	}
	m.collisionsTotal.WithLabelValues(platform).Inc()
}

// VideoJobQueued counts a pending video job.
func (m *Metrics) VideoJobQueued() {
	if m == nil {
		return
	}
	m.videoJobsQueued.Inc()
}

// SetWeights publishes category weights.
func (m *Metrics) SetWeights(weights map[string]float64) {
	if m == nil {
		return
	}
	for cat, w := range weights {
		m.categoryWeight.WithLabelValues(cat).Set(w)
	}
}

// TelemetryIngested counts ingested performance records.
func (m *Metrics) TelemetryIngested(source string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.telemetryRecords.WithLabelValues(source).Add(float64(n))
}
