package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yashubustudio/deliveryadvisor/advisor"
)

func TestObserveRecommendation(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	found := advisor.ResolvedMatch{Found: true, CandidateDisplay: "Cali", Similarity: 100}
	cod := advisor.Recommendation{Label: advisor.LabelCOD}
	prepaid := advisor.Recommendation{Label: advisor.LabelPrepaid}

	r.ObserveRecommendation(advisor.Outcome{Match: found, Recommendation: &cod}, 10*time.Millisecond)
	r.ObserveRecommendation(advisor.Outcome{Match: found, Recommendation: &cod}, 10*time.Millisecond)
	r.ObserveRecommendation(advisor.Outcome{Match: found, Recommendation: &prepaid}, 10*time.Millisecond)
	r.ObserveRecommendation(advisor.Outcome{Err: &advisor.NotFoundError{}}, time.Millisecond)
	r.ObserveRecommendation(advisor.Outcome{Err: advisor.ErrEmptyQuery}, time.Millisecond)
	r.ObserveRecommendation(advisor.Outcome{Match: found,
		Err: errors.Join(advisor.ErrPredictionFailed, errors.New("boom"))}, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.Recommendations.WithLabelValues(string(advisor.LabelCOD))))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Recommendations.WithLabelValues(string(advisor.LabelPrepaid))))
	assert.Equal(t, 4.0, testutil.ToFloat64(r.Resolutions.WithLabelValues(OutcomeFound)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Resolutions.WithLabelValues(OutcomeNotFound)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Resolutions.WithLabelValues(OutcomeEmpty)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.PredictionFailures))
	assert.Equal(t, 1, testutil.CollectAndCount(r.RecommendLatency))
}

func TestObserveResolution(t *testing.T) {
	r := New(prometheus.NewRegistry())

	r.ObserveResolution(advisor.ResolvedMatch{Found: true}, nil)
	r.ObserveResolution(advisor.ResolvedMatch{Found: false, Similarity: 40}, nil)
	r.ObserveResolution(advisor.ResolvedMatch{}, advisor.ErrCatalogEmpty)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.Resolutions.WithLabelValues(OutcomeFound)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Resolutions.WithLabelValues(OutcomeNotFound)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Resolutions.WithLabelValues(OutcomeError)))
}

func TestMetricNames(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)
	r.ObserveRecommendation(advisor.Outcome{Err: advisor.ErrEmptyQuery}, time.Millisecond)
	r.Recommendations.WithLabelValues(string(advisor.LabelCOD))

	families, err := reg.Gather()
	require.NoError(t, err)
	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.ElementsMatch(t, []string{
		"advisor_recommendations_total",
		"advisor_resolutions_total",
		"advisor_prediction_failures_total",
		"advisor_recommend_duration_seconds",
	}, names)
}

func TestNilRecorder(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.ObserveResolution(advisor.ResolvedMatch{}, nil)
		r.ObserveRecommendation(advisor.Outcome{}, time.Second)
	})
}
