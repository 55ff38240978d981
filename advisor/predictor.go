package advisor

import (
	"context"

	"github.com/rotisserie/eris"
)

// FeatureTable is the named, ordered numeric table handed to a Predictor.
type FeatureTable struct {
	SchemaVersion string
	Columns       []string
	Rows          [][]float64
}

// Check verifies the table against the pinned schema and that every row
// has one value per column.
func (t FeatureTable) Check() error {
	if err := CheckFeatureContract(t.SchemaVersion, t.Columns); err != nil {
		return err
	}
	for i, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return eris.Wrapf(ErrSchemaMismatch, "row %d has %d values for %d columns", i, len(row), len(t.Columns))
		}
	}
	return nil
}

// Predictor is the trained classifier: one score per table row, each
// normally in [0, 1].
type Predictor interface {
	Predict(ctx context.Context, table FeatureTable) ([]float64, error)
}

// PredictorFunc adapts a function to Predictor.
type PredictorFunc func(ctx context.Context, table FeatureTable) ([]float64, error)

// Predict calls f.
func (f PredictorFunc) Predict(ctx context.Context, table FeatureTable) ([]float64, error) {
	return f(ctx, table)
}
