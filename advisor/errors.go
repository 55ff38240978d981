package advisor

import (
	"errors"
	"fmt"
)

var (
	// ErrCatalogEmpty means the reference catalog has no indexed city.
	ErrCatalogEmpty = errors.New("catalog has no usable cities")
	// ErrEmptyQuery means the query normalized to an empty string.
	ErrEmptyQuery = errors.New("empty city query")
	// ErrNotFound means the best candidate scored below AcceptanceThreshold.
	ErrNotFound = errors.New("city not found")
	// ErrPredictionFailed wraps any failure of the external predictor.
	ErrPredictionFailed = errors.New("prediction failed")
	// ErrSchemaMismatch means a feature table does not match the pinned schema.
	ErrSchemaMismatch = errors.New("feature schema mismatch")
	// ErrPredictorOutput means the predictor returned no usable score.
	ErrPredictorOutput = errors.New("predictor returned no usable score")
)

// NotFoundError carries the best candidate so callers can ask
// "did you mean ...".
type NotFoundError struct {
	Match ResolvedMatch
}

func (e *NotFoundError) Error() string {
	if e.Match.CandidateDisplay == "" {
		return fmt.Sprintf("city %q not found", e.Match.Query)
	}
	return fmt.Sprintf("city %q not found (closest: %s at %d%%)",
		e.Match.Query, e.Match.CandidateDisplay, e.Match.Similarity)
}

// Is reports ErrNotFound equivalence.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func predictionFailed(cause error) error {
	return fmt.Errorf("%w: %w", ErrPredictionFailed, cause)
}
