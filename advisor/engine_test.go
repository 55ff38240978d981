package advisor

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func exampleCatalog() *Catalog {
	return NewCatalog([]CatalogEntry{
		{
			Line:                  2,
			CityNameRaw:           "Bogotá",
			OfficeFlag:            "1",
			AddressRiskFlag:       "0",
			ViolentIncidentsFlag:  "0",
			PartialPaymentPercent: "12.5",
			DeliveriesCount:       "100",
			ReturnsCount:          "5",
		},
		{
			Line:                  3,
			CityNameRaw:           "Yopal",
			OfficeFlag:            "0",
			AddressRiskFlag:       "1",
			ViolentIncidentsFlag:  "1",
			PartialPaymentPercent: "40",
			DeliveriesCount:       "0",
			ReturnsCount:          "0",
		},
	})
}

type recordingPredictor struct {
	score  float64
	err    error
	calls  int
	tables []FeatureTable
}

func (p *recordingPredictor) Predict(_ context.Context, table FeatureTable) ([]float64, error) {
	p.calls++
	p.tables = append(p.tables, table)
	if p.err != nil {
		return nil, p.err
	}
	return []float64{p.score}, nil
}

func newTestEngine(t *testing.T, p Predictor) *Engine {
	t.Helper()
	engine, err := NewEngine(exampleCatalog(), p, nil, nil)
	require.NoError(t, err)
	return engine
}

func TestRecommend_ExactMatchCOD(t *testing.T) {
	p := &recordingPredictor{score: 0.7}
	rec, err := newTestEngine(t, p).Recommend(context.Background(), "bogota")
	require.NoError(t, err)

	assert.Equal(t, "Bogotá", rec.MatchedCity)
	assert.Equal(t, 100, rec.Similarity)
	assert.InDelta(t, 0.05, rec.Features.ReturnRate, 1e-12)
	assert.Equal(t, 0.7, rec.PredictedScore)
	assert.Equal(t, LabelCOD, rec.Label)

	require.Equal(t, 1, p.calls)
	table := p.tables[0]
	require.NoError(t, table.Check())
	require.Len(t, table.Rows, 1)
	assert.InDeltaSlice(t, []float64{12.5, 1, 0, 0, 0.05}, table.Rows[0], 1e-12)
}

func TestRecommend_NotFoundSkipsPredictor(t *testing.T) {
	p := &recordingPredictor{score: 0.9}
	core, logs := observer.New(zapcore.InfoLevel)
	engine, err := NewEngine(exampleCatalog(), p, nil, zap.New(core))
	require.NoError(t, err)

	_, err = engine.Recommend(context.Background(), "xyzabc123")
	require.ErrorIs(t, err, ErrNotFound)

	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.False(t, nf.Match.Found)
	assert.Nil(t, nf.Match.Entry)
	assert.Less(t, nf.Match.Similarity, AcceptanceThreshold)
	assert.Zero(t, p.calls)
	assert.Equal(t, 1, logs.FilterMessage("city not found").Len())
}

func TestRecommend_ZeroDeliveries(t *testing.T) {
	p := &recordingPredictor{score: 0.2}
	rec, err := newTestEngine(t, p).Recommend(context.Background(), "Yopal")
	require.NoError(t, err)

	assert.Zero(t, rec.Features.ReturnRate)
	assert.False(t, math.IsNaN(rec.Features.ReturnRate))
	assert.Contains(t, rec.Features.Defaulted, FeatureReturnRate)
	assert.Equal(t, LabelPrepaid, rec.Label)
}

func TestRecommend_PredictionFailure(t *testing.T) {
	cause := errors.New("onnx: input shape mismatch")
	core, logs := observer.New(zapcore.ErrorLevel)
	engine, err := NewEngine(exampleCatalog(), &recordingPredictor{err: cause}, nil, zap.New(core))
	require.NoError(t, err)

	_, err = engine.Recommend(context.Background(), "bogota")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPredictionFailed)
	assert.ErrorIs(t, err, cause)

	failures := logs.FilterMessage("predictor failed")
	require.Equal(t, 1, failures.Len())
	assert.Equal(t, cause.Error(), failures.All()[0].ContextMap()["error"])
}

func TestRecommend_UnusablePredictorOutput(t *testing.T) {
	for name, p := range map[string]Predictor{
		"empty": PredictorFunc(func(context.Context, FeatureTable) ([]float64, error) { return nil, nil }),
		"nan":   PredictorFunc(func(context.Context, FeatureTable) ([]float64, error) { return []float64{math.NaN()}, nil }),
		"inf":   PredictorFunc(func(context.Context, FeatureTable) ([]float64, error) { return []float64{math.Inf(1)}, nil }),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := newTestEngine(t, p).Recommend(context.Background(), "bogota")
			assert.ErrorIs(t, err, ErrPredictionFailed)
			assert.ErrorIs(t, err, ErrPredictorOutput)
		})
	}
}

func TestRecommend_EmptyQuery(t *testing.T) {
	p := &recordingPredictor{score: 0.9}
	_, err := newTestEngine(t, p).Recommend(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrEmptyQuery)
	assert.Zero(t, p.calls)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, LabelCOD, Classify(0.5))
	assert.Equal(t, LabelCOD, Classify(1))
	assert.Equal(t, LabelPrepaid, Classify(0.4999))
	assert.Equal(t, LabelPrepaid, Classify(0))
}

func TestNewEngine_Validation(t *testing.T) {
	_, err := NewEngine(NewCatalog(nil), &recordingPredictor{}, nil, nil)
	assert.ErrorIs(t, err, ErrCatalogEmpty)

	_, err = NewEngine(exampleCatalog(), nil, nil, nil)
	assert.Error(t, err)
}

func TestRecommendAll(t *testing.T) {
	p := &recordingPredictor{score: 0.8}
	engine := newTestEngine(t, p)

	var progress []int
	outcomes, err := engine.RecommendAll(context.Background(), []string{"bogota", "", "xyzabc123", "yopal"},
		func(done, total int) {
			assert.Equal(t, 4, total)
			progress = append(progress, done)
		})
	require.NoError(t, err)
	require.Len(t, outcomes, 4)
	assert.Equal(t, []int{1, 2, 3, 4}, progress)

	require.NotNil(t, outcomes[0].Recommendation)
	assert.Equal(t, LabelCOD, outcomes[0].Recommendation.Label)
	assert.ErrorIs(t, outcomes[1].Err, ErrEmptyQuery)
	assert.Equal(t, "empty query", outcomes[1].PublicError())
	assert.ErrorIs(t, outcomes[2].Err, ErrNotFound)
	assert.Nil(t, outcomes[2].Recommendation)
	assert.NotEmpty(t, outcomes[2].Match.CandidateDisplay)
	assert.NoError(t, outcomes[3].Err)
	assert.Equal(t, 2, p.calls)
}

func TestRecommendAll_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	outcomes, err := newTestEngine(t, &recordingPredictor{}).RecommendAll(ctx, []string{"bogota"}, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, outcomes)
}

func TestOutcomePublicErrorHidesCause(t *testing.T) {
	o := Outcome{Err: predictionFailed(errors.New("libonnxruntime.so: segfault"))}
	assert.Equal(t, "prediction failed", o.PublicError())
	assert.Empty(t, Outcome{}.PublicError())
}

func TestRecommendationNarrative(t *testing.T) {
	rec := Recommendation{MatchedCity: "Bogotá", Similarity: 100, PredictedScore: 0.7, Label: LabelCOD}
	assert.Equal(t, "Ciudad más parecida encontrada: Bogotá (similitud: 100%)\n"+
		"Predicción del modelo: 0.7000\n"+
		"Puedes hacer la entrega CONTRAENTREGA con alta probabilidad de éxito.", rec.Narrative())

	rec.Label = LabelPrepaid
	assert.Contains(t, rec.Narrative(), "PAGO ANTICIPADO")
}
