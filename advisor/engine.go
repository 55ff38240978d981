package advisor

import (
	"context"
	"errors"
	"math"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// DecisionThreshold splits predictor scores into COD and prepaid.
const DecisionThreshold = 0.5

// Engine orchestrates resolution, feature assembly, prediction and the
// final decision. Catalog and predictor are shared read-only, so one
// Engine serves concurrent callers.
type Engine struct {
	catalog   *Catalog
	predictor Predictor
	resolver  *Resolver
	assembler *Assembler
	logger    *zap.Logger
}

// NewEngine wires an engine. It fails with ErrCatalogEmpty when the
// catalog cannot resolve anything. A nil scorer selects WeightedRatio.
func NewEngine(catalog *Catalog, predictor Predictor, scorer Scorer, logger *zap.Logger) (*Engine, error) {
	if catalog.Empty() {
		return nil, ErrCatalogEmpty
	}
	if predictor == nil {
		return nil, eris.New("predictor is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		catalog:   catalog,
		predictor: predictor,
		resolver:  NewResolver(scorer),
		assembler: NewAssembler(logger),
		logger:    logger,
	}, nil
}

// Catalog returns the reference catalog.
func (e *Engine) Catalog() *Catalog {
	return e.catalog
}

// Resolve runs only the city resolution step.
func (e *Engine) Resolve(query string) (ResolvedMatch, error) {
	return e.resolver.Resolve(query, e.catalog)
}

// Recommend resolves query and scores the matched city. A city below the
// acceptance threshold yields a *NotFoundError before any feature assembly
// or predictor call. Predictor failures are logged in full and returned
// wrapping ErrPredictionFailed.
func (e *Engine) Recommend(ctx context.Context, query string) (Recommendation, error) {
	_, rec, err := e.recommend(ctx, query)
	return rec, err
}

func (e *Engine) recommend(ctx context.Context, query string) (ResolvedMatch, Recommendation, error) {
	match, err := e.Resolve(query)
	if err != nil {
		return match, Recommendation{}, err
	}
	if !match.Found {
		e.logger.Info("city not found",
			zap.String("query", query),
			zap.String("candidate", match.CandidateDisplay),
			zap.Int("similarity", match.Similarity),
		)
		return match, Recommendation{}, &NotFoundError{Match: match}
	}

	features := e.assembler.Assemble(*match.Entry)
	scores, err := e.predictor.Predict(ctx, features.Table())
	if err == nil && len(scores) == 0 {
		err = ErrPredictorOutput
	}
	if err == nil && (math.IsNaN(scores[0]) || math.IsInf(scores[0], 0)) {
		err = ErrPredictorOutput
	}
	if err != nil {
		e.logger.Error("predictor failed",
			zap.String("query", query),
			zap.String("city", match.Entry.CityNameRaw),
			zap.Float64s("features", features.Values()),
			zap.Error(err),
		)
		return match, Recommendation{}, predictionFailed(err)
	}

	rec := Recommendation{
		Query:          query,
		MatchedCity:    match.Entry.CityNameRaw,
		Similarity:     match.Similarity,
		Features:       features,
		PredictedScore: scores[0],
		Label:          Classify(scores[0]),
	}
	e.logger.Debug("recommendation",
		zap.String("query", query),
		zap.String("city", rec.MatchedCity),
		zap.Int("similarity", rec.Similarity),
		zap.Float64("score", rec.PredictedScore),
		zap.String("label", string(rec.Label)),
	)
	return match, rec, nil
}

// Classify maps a predictor score to a label.
func Classify(score float64) Label {
	if score >= DecisionThreshold {
		return LabelCOD
	}
	return LabelPrepaid
}

// Outcome is the per-query result of a batch run.
type Outcome struct {
	Query          string
	Match          ResolvedMatch
	Recommendation *Recommendation
	Err            error
}

// PublicError renders Err for end users. Prediction failures stay generic;
// their cause is in the log.
func (o Outcome) PublicError() string {
	switch {
	case o.Err == nil:
		return ""
	case errors.Is(o.Err, ErrEmptyQuery):
		return "empty query"
	case errors.Is(o.Err, ErrNotFound):
		return o.Err.Error()
	case errors.Is(o.Err, ErrPredictionFailed):
		return "prediction failed"
	default:
		return o.Err.Error()
	}
}

// RecommendAll runs Recommend for every query. Per-query failures land in
// the outcome; only context cancellation stops the run early. progress,
// when set, is called after each query.
func (e *Engine) RecommendAll(ctx context.Context, queries []string, progress func(done, total int)) ([]Outcome, error) {
	out := make([]Outcome, 0, len(queries))
	for i, q := range queries {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		match, rec, err := e.recommend(ctx, q)
		o := Outcome{Query: q, Match: match, Err: err}
		if err == nil {
			o.Recommendation = &rec
		}
		out = append(out, o)
		if progress != nil {
			progress(i+1, len(queries))
		}
	}
	return out, nil
}
