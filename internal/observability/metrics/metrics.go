// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "accent_analyzer"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Analysis metrics
	AnalysesTotal    *prometheus.CounterVec
	AnalysesActive   prometheus.Gauge
	AnalysesSuccess  prometheus.Counter
	AnalysesFailed   *prometheus.CounterVec
	AnalysesRejected prometheus.Counter
	AnalysisDuration prometheus.Histogram

	// Stage metrics
	StageLatency *prometheus.HistogramVec

	// Result metrics
	AccentsDetected *prometheus.CounterVec
	NotEnglish      prometheus.Counter
	AudioSeconds    prometheus.Histogram

	// Kafka publish metrics
	KafkaPublishTotal   *prometheus.CounterVec
	KafkaPublishErrors  *prometheus.CounterVec
	KafkaPublishLatency *prometheus.HistogramVec

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
}

// DefaultMetrics is registered with the default Prometheus registry and
// served on /metrics.
var DefaultMetrics = NewMetrics(prometheus.DefaultRegisterer)

// NewMetrics creates all metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		AnalysesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Total number of analyses started",
		}, []string{"source"}),
		AnalysesActive: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "analyses_active",
			Help:      "Number of analyses currently running",
		}),
		AnalysesSuccess: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_success_total",
			Help:      "Total number of analyses that produced a report",
		}),
		AnalysesFailed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_failed_total",
			Help:      "Total number of failed analyses by error kind",
		}, []string{"kind"}),
		AnalysesRejected: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_rejected_total",
			Help:      "Total number of analyses rejected because the server was busy",
		}),
		AnalysisDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "End to end analysis duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),

		StageLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_latency_seconds",
			Help:      "Latency of each pipeline stage in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 180},
		}, []string{"stage"}),

		AccentsDetected: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "accents_detected_total",
			Help:      "Total number of reports per detected accent",
		}, []string{"accent"}),
		NotEnglish: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "not_english_total",
			Help:      "Total number of analyses whose speech was not English",
		}),
		AudioSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "audio_duration_seconds",
			Help:      "Duration of analysed audio in seconds",
			Buckets:   []float64{5, 15, 30, 60, 120, 300},
		}),

		KafkaPublishTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_total",
			Help:      "Total number of Kafka messages published",
		}, []string{"topic", "event_type"}),
		KafkaPublishErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_errors_total",
			Help:      "Total number of Kafka publish errors",
		}, []string{"topic", "event_type"}),
		KafkaPublishLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kafka_publish_latency_seconds",
			Help:      "Kafka publish latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"topic"}),

		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
	}
}

// RecordAnalysisStart records a new analysis starting.
func (m *Metrics) RecordAnalysisStart(source string) {
	m.AnalysesTotal.WithLabelValues(source).Inc()
	m.AnalysesActive.Inc()
}

// RecordAnalysisEnd records an analysis ending. kind is empty on success.
func (m *Metrics) RecordAnalysisEnd(kind string, durationSeconds float64) {
	m.AnalysesActive.Dec()
	m.AnalysisDuration.Observe(durationSeconds)
	if kind == "" {
		m.AnalysesSuccess.Inc()
		return
	}
	m.AnalysesFailed.WithLabelValues(kind).Inc()
}

// RecordRejected records an analysis refused by the concurrency limit.
func (m *Metrics) RecordRejected() {
	m.AnalysesRejected.Inc()
}

// RecordStage records how long a pipeline stage took.
func (m *Metrics) RecordStage(stage string, seconds float64) {
	m.StageLatency.WithLabelValues(stage).Observe(seconds)
}

// RecordAccent records a detected accent code.
func (m *Metrics) RecordAccent(code string) {
	m.AccentsDetected.WithLabelValues(code).Inc()
}

// RecordNotEnglish records an analysis whose speech was not English.
func (m *Metrics) RecordNotEnglish() {
	m.NotEnglish.Inc()
}

// RecordAudio records the duration of decoded audio.
func (m *Metrics) RecordAudio(seconds float64) {
	m.AudioSeconds.Observe(seconds)
}

// RecordKafkaPublish records a Kafka publish attempt.
func (m *Metrics) RecordKafkaPublish(topic, eventType string, err error, latencySeconds float64) {
	m.KafkaPublishTotal.WithLabelValues(topic, eventType).Inc()
	m.KafkaPublishLatency.WithLabelValues(topic).Observe(latencySeconds)
	if err != nil {
		m.KafkaPublishErrors.WithLabelValues(topic, eventType).Inc()
	}
}

// RecordHTTPRequest records a served HTTP request.
func (m *Metrics) RecordHTTPRequest(method, route, status string) {
	m.HTTPRequests.WithLabelValues(method, route, status).Inc()
}
