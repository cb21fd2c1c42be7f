// Package ensemble provides a bagged random-forest classifier built on the
// CART trees of sklearn/tree.
package ensemble

import (
	"math"
	"math/rand"
	"sort"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/banklearn/core/model"
	"github.com/YuminosukeSato/banklearn/core/parallel"
	"github.com/YuminosukeSato/banklearn/pkg/errors"
	"github.com/YuminosukeSato/banklearn/sklearn/tree"
)

// RandomForestClassifier bags bootstrap-sampled decision trees and predicts
// by averaging their class probabilities. Fitting is deterministic for a
// fixed seed: every tree derives its bootstrap sample and feature sampling
// from the forest seed plus its own index, independent of goroutine order.
type RandomForestClassifier struct {
	model.BaseEstimator

	nEstimators     int
	maxFeatures     int // 0 means floor(sqrt(nFeatures)), the usual mtry default
	maxDepth        int
	minSamplesSplit int
	minSamplesLeaf  int
	seed            int64
	computeOOB      bool

	trees       []*tree.DecisionTreeClassifier
	inBag       [][]bool
	classes     []float64
	nFeatures   int
	importances []float64
	oobCurve    []float64
}

// ForestOption configures a RandomForestClassifier.
type ForestOption func(*RandomForestClassifier)

// WithNEstimators sets the number of trees.
func WithNEstimators(n int) ForestOption {
	return func(rf *RandomForestClassifier) { rf.nEstimators = n }
}

// WithMaxFeatures sets mtry, the number of candidate features per split.
// Zero selects floor(sqrt(nFeatures)).
func WithMaxFeatures(n int) ForestOption {
	return func(rf *RandomForestClassifier) { rf.maxFeatures = n }
}

// WithMaxDepth limits tree depth. Values < 0 mean unlimited.
func WithMaxDepth(d int) ForestOption {
	return func(rf *RandomForestClassifier) { rf.maxDepth = d }
}

// WithMinSamplesSplit sets the minimum node size eligible for splitting.
func WithMinSamplesSplit(n int) ForestOption {
	return func(rf *RandomForestClassifier) { rf.minSamplesSplit = n }
}

// WithMinSamplesLeaf sets the minimum child size of a split.
func WithMinSamplesLeaf(n int) ForestOption {
	return func(rf *RandomForestClassifier) { rf.minSamplesLeaf = n }
}

// WithSeed fixes the random seed driving bootstrap and feature sampling.
func WithSeed(seed int64) ForestOption {
	return func(rf *RandomForestClassifier) { rf.seed = seed }
}

// WithOOB enables tracking of the out-of-bag error curve during Fit.
func WithOOB(enabled bool) ForestOption {
	return func(rf *RandomForestClassifier) { rf.computeOOB = enabled }
}

// NewRandomForestClassifier creates a forest with the usual defaults:
// 100 trees, sqrt(nFeatures) mtry, unlimited depth.
func NewRandomForestClassifier(opts ...ForestOption) *RandomForestClassifier {
	rf := &RandomForestClassifier{
		nEstimators:     100,
		maxDepth:        -1,
		minSamplesSplit: 2,
		minSamplesLeaf:  1,
	}
	for _, opt := range opts {
		opt(rf)
	}
	return rf
}

// Fit trains nEstimators trees on bootstrap samples of X (n×d), y (n×1).
func (rf *RandomForestClassifier) Fit(X, y mat.Matrix) error {
	n, d := X.Dims()
	if n == 0 || d == 0 {
		return errors.NewModelError("RandomForestClassifier.Fit", "empty data", errors.ErrEmptyData)
	}
	ry, _ := y.Dims()
	if ry != n {
		return errors.NewDimensionError("RandomForestClassifier.Fit", n, ry, 0)
	}
	if rf.nEstimators <= 0 {
		return errors.NewValidationError("n_estimators", "must be positive", rf.nEstimators)
	}

	rf.nFeatures = d

	mtry := rf.maxFeatures
	if mtry <= 0 {
		mtry = int(math.Sqrt(float64(d)))
		if mtry < 1 {
			mtry = 1
		}
	}

	labelSet := make(map[float64]struct{})
	for i := 0; i < n; i++ {
		labelSet[y.At(i, 0)] = struct{}{}
	}
	rf.classes = make([]float64, 0, len(labelSet))
	for l := range labelSet {
		rf.classes = append(rf.classes, l)
	}
	sort.Float64s(rf.classes)

	rf.trees = make([]*tree.DecisionTreeClassifier, rf.nEstimators)
	rf.inBag = make([][]bool, rf.nEstimators)

	var mu sync.Mutex
	var firstErr error

	parallel.Parallelize(rf.nEstimators, func(start, end int) {
		for t := start; t < end; t++ {
			// Each tree seeds its own generator from the forest seed and
			// its index, so results do not depend on worker scheduling.
			rng := rand.New(rand.NewSource(rf.seed + int64(t)))
			sample := make([]int, n)
			bag := make([]bool, n)
			for j := 0; j < n; j++ {
				idx := rng.Intn(n)
				sample[j] = idx
				bag[idx] = true
			}

			dt := tree.NewDecisionTreeClassifier(
				tree.WithMaxDepth(rf.maxDepth),
				tree.WithMinSamplesSplit(rf.minSamplesSplit),
				tree.WithMinSamplesLeaf(rf.minSamplesLeaf),
				tree.WithMaxFeatures(mtry),
				tree.WithRandomState(rf.seed+int64(t)+7919),
			)
			if err := dt.FitSubset(X, y, sample); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}
			rf.trees[t] = dt
			rf.inBag[t] = bag
		}
	})

	if firstErr != nil {
		return firstErr
	}

	rf.aggregateImportances()

	if rf.computeOOB {
		if err := rf.computeOOBCurve(X, y); err != nil {
			return err
		}
	}

	rf.SetFitted()
	return nil
}

func (rf *RandomForestClassifier) aggregateImportances() {
	rf.importances = make([]float64, rf.nFeatures)
	for _, dt := range rf.trees {
		for i, imp := range dt.GetFeatureImportances() {
			rf.importances[i] += imp
		}
	}
	total := 0.0
	for _, imp := range rf.importances {
		total += imp
	}
	if total > 0 {
		for i := range rf.importances {
			rf.importances[i] /= total
		}
	}
}

// computeOOBCurve replays the forest tree by tree: after adding tree t, the
// t-th curve entry is the misclassification rate of majority voting over
// all samples that were out of bag for at least one of the first t+1 trees.
func (rf *RandomForestClassifier) computeOOBCurve(X, y mat.Matrix) error {
	n, _ := X.Dims()
	nClasses := len(rf.classes)

	votes := make([][]float64, n)
	for i := range votes {
		votes[i] = make([]float64, nClasses)
	}

	rf.oobCurve = make([]float64, rf.nEstimators)

	for t, dt := range rf.trees {
		proba, err := dt.PredictProba(X)
		if err != nil {
			return err
		}
		cols := rf.classColumns(dt)

		for i := 0; i < n; i++ {
			if rf.inBag[t][i] {
				continue
			}
			best, bestP := 0, proba.At(i, 0)
			for j := 1; j < len(cols); j++ {
				if proba.At(i, j) > bestP {
					best, bestP = j, proba.At(i, j)
				}
			}
			votes[i][cols[best]]++
		}

		var voted, wrong int
		for i := 0; i < n; i++ {
			best, bestV := -1, 0.0
			for j, v := range votes[i] {
				if v > bestV {
					best, bestV = j, v
				}
			}
			if best < 0 {
				continue // never out of bag so far
			}
			voted++
			if rf.classes[best] != y.At(i, 0) {
				wrong++
			}
		}
		if voted > 0 {
			rf.oobCurve[t] = float64(wrong) / float64(voted)
		}
	}

	return nil
}

// classColumns maps a tree's probability columns onto forest class indices.
// A bootstrap sample can miss rare classes, so the mapping is per tree.
func (rf *RandomForestClassifier) classColumns(dt *tree.DecisionTreeClassifier) []int {
	treeClasses := dt.Classes()
	cols := make([]int, len(treeClasses))
	for i, label := range treeClasses {
		for j, forestLabel := range rf.classes {
			if label == forestLabel {
				cols[i] = j
				break
			}
		}
	}
	return cols
}

// PredictProba averages the aligned per-tree class probabilities, returning
// an n×nClasses matrix with columns in ascending label order.
func (rf *RandomForestClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if !rf.IsFitted() {
		return nil, errors.NewNotFittedError("RandomForestClassifier", "PredictProba")
	}

	n, c := X.Dims()
	if c != rf.nFeatures {
		return nil, errors.NewDimensionError("RandomForestClassifier.PredictProba", rf.nFeatures, c, 1)
	}

	nClasses := len(rf.classes)
	out := mat.NewDense(n, nClasses, nil)

	for _, dt := range rf.trees {
		proba, err := dt.PredictProba(X)
		if err != nil {
			return nil, err
		}
		cols := rf.classColumns(dt)
		for i := 0; i < n; i++ {
			for j, col := range cols {
				out.Set(i, col, out.At(i, col)+proba.At(i, j))
			}
		}
	}

	scale := 1.0 / float64(len(rf.trees))
	for i := 0; i < n; i++ {
		for j := 0; j < nClasses; j++ {
			out.Set(i, j, out.At(i, j)*scale)
		}
	}
	return out, nil
}

// Predict returns the soft-vote majority label for each row as an n×1 matrix.
func (rf *RandomForestClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	proba, err := rf.PredictProba(X)
	if err != nil {
		return nil, err
	}

	n, nClasses := proba.Dims()
	out := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		best := 0
		for j := 1; j < nClasses; j++ {
			if proba.At(i, j) > proba.At(i, best) {
				best = j
			}
		}
		out.Set(i, 0, rf.classes[best])
	}
	return out, nil
}

// Score returns the accuracy of the forest's predictions on X against y.
func (rf *RandomForestClassifier) Score(X, y mat.Matrix) float64 {
	preds, err := rf.Predict(X)
	if err != nil {
		return 0
	}

	n, _ := preds.Dims()
	correct := 0
	for i := 0; i < n; i++ {
		if preds.At(i, 0) == y.At(i, 0) {
			correct++
		}
	}
	return float64(correct) / float64(n)
}

// Classes returns the sorted label values seen during fitting.
func (rf *RandomForestClassifier) Classes() []float64 {
	return append([]float64(nil), rf.classes...)
}

// GetFeatureImportances returns the forest-averaged, normalized
// impurity-decrease importances.
func (rf *RandomForestClassifier) GetFeatureImportances() []float64 {
	return append([]float64(nil), rf.importances...)
}

// OOBErrorCurve returns the out-of-bag error after each successive tree.
// It is nil unless the forest was fitted with WithOOB(true).
func (rf *RandomForestClassifier) OOBErrorCurve() []float64 {
	return append([]float64(nil), rf.oobCurve...)
}

// GetParams returns the model's hyperparameters.
func (rf *RandomForestClassifier) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_estimators":      rf.nEstimators,
		"max_features":      rf.maxFeatures,
		"max_depth":         rf.maxDepth,
		"min_samples_split": rf.minSamplesSplit,
		"min_samples_leaf":  rf.minSamplesLeaf,
		"random_state":      rf.seed,
		"oob_score":         rf.computeOOB,
	}
}
