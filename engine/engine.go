// Package engine defines a common training interface over the random-forest
// implementations the project compares: the native forest from
// sklearn/ensemble, golearn's ID3-based forest, and the randomForest package.
// Feeding every backend the same treated matrix keeps the comparison honest.
package engine

import (
	"gonum.org/v1/gonum/mat"
)

// Classifier is the minimal surface the comparison pipeline needs: fit on a
// numeric feature matrix with 0/1 labels, then predict labels for new rows.
type Classifier interface {
	// Name identifies the backend in reports and plots.
	Name() string

	// Fit trains the model on X (n×d) and y (length n, values 0 or 1).
	Fit(X mat.Matrix, y []float64) error

	// Predict returns one predicted label per row of X.
	Predict(X mat.Matrix) ([]float64, error)
}

// ProbabilityEstimator is implemented by backends that can report per-class
// probabilities, one column per label in ascending order.
type ProbabilityEstimator interface {
	PredictProba(X mat.Matrix) (mat.Matrix, error)
}

// OOBReporter is implemented by backends that track out-of-bag error while
// growing the forest.
type OOBReporter interface {
	OOBErrorCurve() []float64
}
