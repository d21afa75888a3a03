package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "provenpro"

const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
	OutcomeStale    = "stale"
)

// Recorder counts sync and delete round trips. A nil *Recorder is valid and
// records nothing.
type Recorder struct {
	registry     *prometheus.Registry
	syncTotal    *prometheus.CounterVec
	syncDuration *prometheus.HistogramVec
	deleteTotal  *prometheus.CounterVec
}

func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		registry: reg,
		syncTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "requests_total",
			Help:      "Collection sync round trips by profile field and outcome.",
		}, []string{"field", "outcome"}),
		syncDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "duration_seconds",
			Help:      "Time spent waiting on the profile service for a sync.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"field"}),
		deleteTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "delete",
			Name:      "requests_total",
			Help:      "Item deletions by kind and outcome.",
		}, []string{"kind", "outcome"}),
	}
	reg.MustRegister(r.syncTotal, r.syncDuration, r.deleteTotal)
	return r
}

func (r *Recorder) ObserveSync(field, outcome string, took time.Duration) {
	if r == nil {
		return
	}
	r.syncTotal.WithLabelValues(field, outcome).Inc()
	if outcome != OutcomeRejected {
		r.syncDuration.WithLabelValues(field).Observe(took.Seconds())
	}
}

func (r *Recorder) ObserveDelete(kind, outcome string) {
	if r == nil {
		return
	}
	r.deleteTotal.WithLabelValues(kind, outcome).Inc()
}

func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}
