// Package metrics holds the Prometheus collectors for the service.
// Every method is safe to call on a nil *Metrics.
package metrics

import (
	"io"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

const namespace = "learner"

// ProjectLabel is the label used to scope series to one project.
const ProjectLabel = "project"

type Metrics struct {
	Requests            *prometheus.CounterVec
	RequestDuration     *prometheus.HistogramVec
	AuthFailures        *prometheus.CounterVec
	Embeddings          *prometheus.CounterVec
	EmbeddingDuration   prometheus.Histogram
	IndexState          prometheus.Gauge
	FallbackTransitions prometheus.Counter
	UpsertedVectors     *prometheus.CounterVec
	RetrievedFragments  *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Key-authenticated requests by project, endpoint and status code.",
		}, []string{ProjectLabel, "endpoint", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Latency of key-authenticated requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{ProjectLabel, "endpoint"}),
		AuthFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_failures_total",
			Help:      "Rejected key validations by reason.",
		}, []string{"reason"}),
		Embeddings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embeddings_total",
			Help:      "Embedding attempts by result.",
		}, []string{"result"}),
		EmbeddingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "embedding_duration_seconds",
			Help:      "Latency of embedding provider calls.",
			Buckets:   prometheus.DefBuckets,
		}),
		IndexState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "vector_index_state",
			Help:      "Vector index state: 0 uninitialized, 1 durable, 2 fallback.",
		}),
		FallbackTransitions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vector_index_fallback_transitions_total",
			Help:      "Transitions of the vector index into in-memory fallback.",
		}),
		UpsertedVectors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upserted_vectors_total",
			Help:      "Vectors written by index mode.",
		}, []string{"mode"}),
		RetrievedFragments: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieved_fragments",
			Help:      "Fragments returned per retrieval.",
			Buckets:   []float64{0, 1, 2, 5, 10, 20},
		}, []string{ProjectLabel}),
	}
	reg.MustRegister(
		m.Requests, m.RequestDuration, m.AuthFailures,
		m.Embeddings, m.EmbeddingDuration,
		m.IndexState, m.FallbackTransitions, m.UpsertedVectors,
		m.RetrievedFragments,
	)
	return m
}

func (m *Metrics) ObserveRequest(project, endpoint string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(project, endpoint, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(project, endpoint).Observe(d.Seconds())
}

func (m *Metrics) IncAuthFailure(reason string) {
	if m == nil {
		return
	}
	m.AuthFailures.WithLabelValues(reason).Inc()
}

// ObserveEmbedding records one embedding attempt; result is success, failure or skipped.
func (m *Metrics) ObserveEmbedding(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.Embeddings.WithLabelValues(result).Inc()
	if result != "skipped" {
		m.EmbeddingDuration.Observe(d.Seconds())
	}
}

func (m *Metrics) SetIndexState(state int) {
	if m == nil {
		return
	}
	m.IndexState.Set(float64(state))
}

func (m *Metrics) IncFallback() {
	if m == nil {
		return
	}
	m.FallbackTransitions.Inc()
}

func (m *Metrics) ObserveUpsert(mode string, n int) {
	if m == nil {
		return
	}
	m.UpsertedVectors.WithLabelValues(mode).Add(float64(n))
}

func (m *Metrics) ObserveFragments(project string, n int) {
	if m == nil {
		return
	}
	m.RetrievedFragments.WithLabelValues(project).Observe(float64(n))
}

// FilterByProject keeps families without a project label unchanged and reduces
// project-labelled families to the series of the given project.
func FilterByProject(families []*dto.MetricFamily, project string) []*dto.MetricFamily {
	filtered := make([]*dto.MetricFamily, 0, len(families))
	for _, mf := range families {
		if !hasLabel(mf, ProjectLabel) {
			filtered = append(filtered, mf)
			continue
		}

		var kept []*dto.Metric
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == ProjectLabel && l.GetValue() == project {
					kept = append(kept, m)
					break
				}
			}
		}
		if len(kept) == 0 {
			continue
		}
		filtered = append(filtered, &dto.MetricFamily{
			Name:   mf.Name,
			Help:   mf.Help,
			Type:   mf.Type,
			Unit:   mf.Unit,
			Metric: kept,
		})
	}
	return filtered
}

func hasLabel(mf *dto.MetricFamily, name string) bool {
	for _, m := range mf.GetMetric() {
		for _, l := range m.GetLabel() {
			if l.GetName() == name {
				return true
			}
		}
	}
	return false
}

// TextFormat is the content type written by WriteText.
var TextFormat = expfmt.NewFormat(expfmt.TypeTextPlain)

// WriteText encodes families in the Prometheus text exposition format.
func WriteText(w io.Writer, families []*dto.MetricFamily) error {
	enc := expfmt.NewEncoder(w, TextFormat)
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
