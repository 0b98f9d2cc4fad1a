package metrics

import (
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// System metrics
	SystemMemoryUsage = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "system_memory_bytes",
		Help: "Current system memory usage",
	})

	SystemGoroutines = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "system_goroutines",
		Help: "Number of goroutines",
	})

	// Pipeline metrics
	PipelineDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "graph_pipeline_duration_seconds",
			Help:    "Time spent in each edge pipeline stage",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		},
		[]string{"stage"},
	)

	PipelineRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "graph_pipeline_rows_total",
			Help: "Rows entering and leaving each pipeline stage",
		},
		[]string{"stage", "direction"},
	)

	PipelineTruncations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "graph_pipeline_truncations_total",
		Help: "Number of times the record limiter dropped rows",
	})

	PipelineErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "graph_pipeline_errors_total",
			Help: "Pipeline calls that failed, by stage",
		},
		[]string{"stage"},
	)

	// Graph metrics
	GraphEdgeCount = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "graph_edges_total",
			Help: "Edges in the most recent pipeline output",
		},
		[]string{"relationship_type"},
	)

	// Delivery metrics
	DeliveryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "graph_delivery_total",
			Help: "Delivery attempts by channel and outcome",
		},
		[]string{"channel", "outcome"},
	)

	DeliveryAdvisories = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "graph_delivery_advisories_total",
			Help: "Advisories raised while preparing or delivering a payload",
		},
		[]string{"kind"},
	)

	PayloadBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "graph_payload_bytes",
		Help: "Size of the most recently serialized payload",
	})
)

// UpdateSystemMetrics updates system-level metrics
func UpdateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	SystemMemoryUsage.Set(float64(m.Alloc))
	SystemGoroutines.Set(float64(runtime.NumGoroutine()))
}
