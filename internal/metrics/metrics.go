// Package metrics exposes Prometheus collectors for the recommendation host.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"yashubustudio/deliveryadvisor/advisor"
)

const namespace = "advisor"

// Resolution outcomes.
const (
	OutcomeFound    = "found"
	OutcomeNotFound = "not_found"
	OutcomeEmpty    = "empty"
	OutcomeError    = "error"
)

// Recorder groups the collectors observed per request.
type Recorder struct {
	Recommendations    *prometheus.CounterVec
	Resolutions        *prometheus.CounterVec
	PredictionFailures prometheus.Counter
	RecommendLatency   prometheus.Histogram
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		Recommendations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommendations_total",
			Help:      "Recommendations served, by label.",
		}, []string{"label"}),
		Resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolutions_total",
			Help:      "City resolutions, by outcome.",
		}, []string{"outcome"}),
		PredictionFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prediction_failures_total",
			Help:      "Predictor invocations that failed.",
		}),
		RecommendLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recommend_duration_seconds",
			Help:      "Latency of the recommend pipeline.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(r.Recommendations, r.Resolutions, r.PredictionFailures, r.RecommendLatency)
	return r
}

// ObserveResolution counts a resolve-only request.
func (r *Recorder) ObserveResolution(match advisor.ResolvedMatch, err error) {
	if r == nil {
		return
	}
	r.Resolutions.WithLabelValues(resolutionOutcome(match, err)).Inc()
}

// ObserveRecommendation counts one pipeline run.
func (r *Recorder) ObserveRecommendation(o advisor.Outcome, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.RecommendLatency.Observe(elapsed.Seconds())
	r.Resolutions.WithLabelValues(resolutionOutcome(o.Match, o.Err)).Inc()
	if errors.Is(o.Err, advisor.ErrPredictionFailed) {
		r.PredictionFailures.Inc()
	}
	if o.Recommendation != nil {
		r.Recommendations.WithLabelValues(string(o.Recommendation.Label)).Inc()
	}
}

func resolutionOutcome(match advisor.ResolvedMatch, err error) string {
	switch {
	case errors.Is(err, advisor.ErrEmptyQuery):
		return OutcomeEmpty
	case errors.Is(err, advisor.ErrNotFound):
		return OutcomeNotFound
	case match.Found:
		return OutcomeFound
	case err != nil:
		return OutcomeError
	default:
		return OutcomeNotFound
	}
}
