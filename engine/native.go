package engine

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/banklearn/pkg/errors"
	"github.com/YuminosukeSato/banklearn/sklearn/ensemble"
)

// NativeForest adapts sklearn/ensemble.RandomForestClassifier to the
// Classifier interface. It is the only backend exposing both feature
// importances and an out-of-bag error curve, so the demo draws its plots
// from this engine.
type NativeForest struct {
	name   string
	forest *ensemble.RandomForestClassifier
}

// NewNativeForest wraps a freshly configured forest under the given report
// name, e.g. "native (500 trees)".
func NewNativeForest(name string, opts ...ensemble.ForestOption) *NativeForest {
	return &NativeForest{
		name:   name,
		forest: ensemble.NewRandomForestClassifier(opts...),
	}
}

func (e *NativeForest) Name() string { return e.name }

func (e *NativeForest) Fit(X mat.Matrix, y []float64) error {
	n, _ := X.Dims()
	if len(y) != n {
		return errors.NewDimensionError("NativeForest.Fit", n, len(y), 0)
	}
	return e.forest.Fit(X, mat.NewDense(n, 1, append([]float64(nil), y...)))
}

func (e *NativeForest) Predict(X mat.Matrix) ([]float64, error) {
	preds, err := e.forest.Predict(X)
	if err != nil {
		return nil, err
	}
	n, _ := preds.Dims()
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = preds.At(i, 0)
	}
	return out, nil
}

// PredictProba exposes the forest's averaged class probabilities.
func (e *NativeForest) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	return e.forest.PredictProba(X)
}

// GetFeatureImportances exposes the forest's normalized importances.
func (e *NativeForest) GetFeatureImportances() []float64 {
	return e.forest.GetFeatureImportances()
}

// OOBErrorCurve exposes the out-of-bag error after each tree; empty unless
// the forest was configured with ensemble.WithOOB(true).
func (e *NativeForest) OOBErrorCurve() []float64 {
	return e.forest.OOBErrorCurve()
}
