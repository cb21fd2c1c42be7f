package engine

import (
	"math"
	"math/rand"

	randomforest "github.com/malaschitz/randomForest"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/banklearn/pkg/errors"
)

func defaultMtry(nFeatures int) int {
	m := int(math.Sqrt(float64(nFeatures)))
	if m < 1 {
		m = 1
	}
	return m
}

// MalaForest runs the malaschitz/randomForest implementation, a pure-Go
// forest that consumes float feature rows and integer class labels directly.
type MalaForest struct {
	name  string
	trees int
	seed  int64

	forest    *randomforest.Forest
	nFeatures int
	fitted    bool
}

// MalaOption configures a MalaForest.
type MalaOption func(*MalaForest)

// WithMalaTrees sets the forest size.
func WithMalaTrees(n int) MalaOption {
	return func(e *MalaForest) { e.trees = n }
}

// WithMalaSeed seeds the shared generator the library draws from.
func WithMalaSeed(seed int64) MalaOption {
	return func(e *MalaForest) { e.seed = seed }
}

// NewMalaForest builds a randomForest-backed classifier.
func NewMalaForest(name string, opts ...MalaOption) *MalaForest {
	e := &MalaForest{name: name, trees: 100}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *MalaForest) Name() string { return e.name }

func (e *MalaForest) Fit(X mat.Matrix, y []float64) error {
	n, d := X.Dims()
	if len(y) != n {
		return errors.NewDimensionError("MalaForest.Fit", n, len(y), 0)
	}
	if n == 0 || d == 0 {
		return errors.NewModelError("MalaForest.Fit", "empty data", errors.ErrEmptyData)
	}

	xData := make([][]float64, n)
	classes := make([]int, n)
	for i := 0; i < n; i++ {
		row := make([]float64, d)
		for j := 0; j < d; j++ {
			row[j] = X.At(i, j)
		}
		xData[i] = row
		if y[i] == 1 {
			classes[i] = 1
		}
	}

	// The library bootstraps from the package-level generator.
	rand.Seed(e.seed)

	forest := &randomforest.Forest{}
	forest.Data = randomforest.ForestData{X: xData, Class: classes}
	forest.Train(e.trees)

	e.forest = forest
	e.nFeatures = d
	e.fitted = true
	return nil
}

func (e *MalaForest) Predict(X mat.Matrix) ([]float64, error) {
	proba, err := e.PredictProba(X)
	if err != nil {
		return nil, err
	}

	n, nClasses := proba.Dims()
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		best := 0
		for c := 1; c < nClasses; c++ {
			if proba.At(i, c) > proba.At(i, best) {
				best = c
			}
		}
		out[i] = float64(best)
	}
	return out, nil
}

// PredictProba returns the forest's vote fractions per class.
func (e *MalaForest) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if !e.fitted {
		return nil, errors.NewNotFittedError("MalaForest", "PredictProba")
	}

	n, d := X.Dims()
	if d != e.nFeatures {
		return nil, errors.NewDimensionError("MalaForest.PredictProba", e.nFeatures, d, 1)
	}
	if n == 0 {
		return nil, errors.NewModelError("MalaForest.PredictProba", "empty input", errors.ErrEmptyData)
	}

	var out *mat.Dense
	for i := 0; i < n; i++ {
		row := make([]float64, d)
		for j := 0; j < d; j++ {
			row[j] = X.At(i, j)
		}
		votes := e.forest.Vote(row)
		if out == nil {
			out = mat.NewDense(n, len(votes), nil)
		}
		for c, v := range votes {
			out.Set(i, c, v)
		}
	}
	return out, nil
}
