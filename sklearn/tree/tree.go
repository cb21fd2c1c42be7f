// Package tree provides a CART decision tree classifier with a
// scikit-learn compatible API. It is the building block of the native
// random-forest engine in sklearn/ensemble.
package tree

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/banklearn/core/model"
	"github.com/YuminosukeSato/banklearn/pkg/errors"
)

// DecisionTreeClassifier is a binary-split CART classifier supporting the
// gini and entropy impurity criteria.
type DecisionTreeClassifier struct {
	model.BaseEstimator

	criterion       string
	maxDepth        int // -1 means unlimited
	minSamplesSplit int
	minSamplesLeaf  int
	maxFeatures     int // 0 means all features; the mtry of a forest tree
	randomState     int64

	root        *node
	classes     []float64 // sorted unique labels; class index -> label value
	nClasses_   int
	nFeatures   int
	importances []float64
	depth       int
	nLeaves     int
}

// node is one tree node. Leaves carry the class distribution of the
// training samples that reached them.
type node struct {
	feature   int
	threshold float64
	left      *node
	right     *node
	proba     []float64
	leaf      bool
}

// Option configures a DecisionTreeClassifier.
type Option func(*DecisionTreeClassifier)

// WithCriterion selects the impurity criterion: "gini" or "entropy".
func WithCriterion(c string) Option {
	return func(dt *DecisionTreeClassifier) { dt.criterion = c }
}

// WithMaxDepth limits the tree depth. Values < 0 mean unlimited.
func WithMaxDepth(d int) Option {
	return func(dt *DecisionTreeClassifier) { dt.maxDepth = d }
}

// WithMinSamplesSplit sets the minimum number of samples required to split
// an internal node.
func WithMinSamplesSplit(n int) Option {
	return func(dt *DecisionTreeClassifier) { dt.minSamplesSplit = n }
}

// WithMinSamplesLeaf sets the minimum number of samples required in each
// child of a split.
func WithMinSamplesLeaf(n int) Option {
	return func(dt *DecisionTreeClassifier) { dt.minSamplesLeaf = n }
}

// WithMaxFeatures sets the number of features considered at each split
// (mtry). Zero considers all features.
func WithMaxFeatures(n int) Option {
	return func(dt *DecisionTreeClassifier) { dt.maxFeatures = n }
}

// WithRandomState seeds the per-split feature sampling.
func WithRandomState(seed int64) Option {
	return func(dt *DecisionTreeClassifier) { dt.randomState = seed }
}

// NewDecisionTreeClassifier creates a classifier with scikit-learn defaults.
func NewDecisionTreeClassifier(opts ...Option) *DecisionTreeClassifier {
	dt := &DecisionTreeClassifier{
		criterion:       "gini",
		maxDepth:        -1,
		minSamplesSplit: 2,
		minSamplesLeaf:  1,
	}
	for _, opt := range opts {
		opt(dt)
	}
	return dt
}

// Fit builds the tree from X (n×d) and y (n×1).
func (dt *DecisionTreeClassifier) Fit(X, y mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("DecisionTreeClassifier.Fit", "empty data", errors.ErrEmptyData)
	}
	ry, _ := y.Dims()
	if ry != r {
		return errors.NewDimensionError("DecisionTreeClassifier.Fit", r, ry, 0)
	}

	indices := make([]int, r)
	for i := range indices {
		indices[i] = i
	}
	return dt.FitSubset(X, y, indices)
}

// FitSubset builds the tree from the rows of X selected by indices. A row
// may appear more than once, which is how the forest passes bootstrap
// samples without copying the data.
func (dt *DecisionTreeClassifier) FitSubset(X, y mat.Matrix, indices []int) error {
	if len(indices) == 0 {
		return errors.NewModelError("DecisionTreeClassifier.Fit", "empty sample", errors.ErrEmptyData)
	}
	if dt.criterion != "gini" && dt.criterion != "entropy" {
		return errors.NewValidationError("criterion", "must be 'gini' or 'entropy'", dt.criterion)
	}

	_, nFeatures := X.Dims()
	dt.nFeatures = nFeatures

	// Collect the sorted unique labels of the fitted subset.
	labelSet := make(map[float64]struct{})
	for _, idx := range indices {
		labelSet[y.At(idx, 0)] = struct{}{}
	}
	dt.classes = make([]float64, 0, len(labelSet))
	for l := range labelSet {
		dt.classes = append(dt.classes, l)
	}
	sort.Float64s(dt.classes)
	dt.nClasses_ = len(dt.classes)

	classIndex := make(map[float64]int, dt.nClasses_)
	for i, l := range dt.classes {
		classIndex[l] = i
	}

	labels := make([]int, len(indices))
	for i, idx := range indices {
		labels[i] = classIndex[y.At(idx, 0)]
	}

	dt.importances = make([]float64, nFeatures)
	dt.depth = 0
	dt.nLeaves = 0

	rng := rand.New(rand.NewSource(dt.randomState))
	dt.root = dt.build(X, indices, labels, 0, len(indices), rng)

	total := 0.0
	for _, imp := range dt.importances {
		total += imp
	}
	if total > 0 {
		for i := range dt.importances {
			dt.importances[i] /= total
		}
	}

	dt.SetFitted()
	return nil
}

// build grows a subtree over the given samples. rows and labels are
// parallel slices; nTotal is the size of the full fitted sample, used to
// weight impurity decreases for the importances.
func (dt *DecisionTreeClassifier) build(X mat.Matrix, rows []int, labels []int, depth, nTotal int, rng *rand.Rand) *node {
	if depth > dt.depth {
		dt.depth = depth
	}

	counts := make([]float64, dt.nClasses_)
	for _, l := range labels {
		counts[l]++
	}
	n := len(rows)

	nodeImpurity := dt.impurity(counts, float64(n))

	if nodeImpurity == 0 || n < dt.minSamplesSplit || (dt.maxDepth >= 0 && depth >= dt.maxDepth) {
		return dt.makeLeaf(counts, float64(n))
	}

	feature, threshold, gain := dt.bestSplit(X, rows, labels, nodeImpurity, rng)
	if feature < 0 {
		return dt.makeLeaf(counts, float64(n))
	}

	var leftRows, rightRows []int
	var leftLabels, rightLabels []int
	for i, row := range rows {
		if X.At(row, feature) <= threshold {
			leftRows = append(leftRows, row)
			leftLabels = append(leftLabels, labels[i])
		} else {
			rightRows = append(rightRows, row)
			rightLabels = append(rightLabels, labels[i])
		}
	}

	dt.importances[feature] += float64(n) / float64(nTotal) * gain

	return &node{
		feature:   feature,
		threshold: threshold,
		left:      dt.build(X, leftRows, leftLabels, depth+1, nTotal, rng),
		right:     dt.build(X, rightRows, rightLabels, depth+1, nTotal, rng),
	}
}

func (dt *DecisionTreeClassifier) makeLeaf(counts []float64, n float64) *node {
	proba := make([]float64, len(counts))
	for i, c := range counts {
		proba[i] = c / n
	}
	dt.nLeaves++
	return &node{leaf: true, proba: proba}
}

// bestSplit scans candidate features for the threshold with the largest
// impurity decrease. Returns feature -1 when no valid split exists.
func (dt *DecisionTreeClassifier) bestSplit(X mat.Matrix, rows []int, labels []int, parentImpurity float64, rng *rand.Rand) (int, float64, float64) {
	n := len(rows)

	candidates := make([]int, dt.nFeatures)
	for i := range candidates {
		candidates[i] = i
	}
	if dt.maxFeatures > 0 && dt.maxFeatures < dt.nFeatures {
		rng.Shuffle(len(candidates), func(i, j int) {
			candidates[i], candidates[j] = candidates[j], candidates[i]
		})
		candidates = candidates[:dt.maxFeatures]
	}

	bestFeature := -1
	bestThreshold := 0.0
	bestGain := 0.0

	type sample struct {
		value float64
		label int
	}
	samples := make([]sample, n)

	for _, feat := range candidates {
		for i, row := range rows {
			samples[i] = sample{value: X.At(row, feat), label: labels[i]}
		}
		sort.Slice(samples, func(i, j int) bool { return samples[i].value < samples[j].value })

		leftCounts := make([]float64, dt.nClasses_)
		rightCounts := make([]float64, dt.nClasses_)
		for _, s := range samples {
			rightCounts[s.label]++
		}

		for i := 0; i < n-1; i++ {
			leftCounts[samples[i].label]++
			rightCounts[samples[i].label]--

			if samples[i].value == samples[i+1].value {
				continue
			}

			nLeft := i + 1
			nRight := n - nLeft
			if nLeft < dt.minSamplesLeaf || nRight < dt.minSamplesLeaf {
				continue
			}

			impLeft := dt.impurity(leftCounts, float64(nLeft))
			impRight := dt.impurity(rightCounts, float64(nRight))
			gain := parentImpurity -
				(float64(nLeft)*impLeft+float64(nRight)*impRight)/float64(n)

			if gain > bestGain {
				bestGain = gain
				bestFeature = feat
				bestThreshold = (samples[i].value + samples[i+1].value) / 2
			}
		}
	}

	return bestFeature, bestThreshold, bestGain
}

func (dt *DecisionTreeClassifier) impurity(counts []float64, n float64) float64 {
	if dt.criterion == "entropy" {
		e := 0.0
		for _, c := range counts {
			if c == 0 {
				continue
			}
			p := c / n
			e -= p * math.Log2(p)
		}
		return e
	}

	// gini
	g := 1.0
	for _, c := range counts {
		p := c / n
		g -= p * p
	}
	return g
}

// Predict returns the majority-class label for each row of X as an n×1 matrix.
func (dt *DecisionTreeClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	proba, err := dt.PredictProba(X)
	if err != nil {
		return nil, err
	}

	r, _ := proba.Dims()
	out := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		best := 0
		for j := 1; j < dt.nClasses_; j++ {
			if proba.At(i, j) > proba.At(i, best) {
				best = j
			}
		}
		out.Set(i, 0, dt.classes[best])
	}
	return out, nil
}

// PredictProba returns the per-class probability estimates as an
// n×nClasses matrix, columns ordered by ascending label value.
func (dt *DecisionTreeClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if !dt.IsFitted() {
		return nil, errors.NewNotFittedError("DecisionTreeClassifier", "PredictProba")
	}

	r, c := X.Dims()
	if c != dt.nFeatures {
		return nil, errors.NewDimensionError("DecisionTreeClassifier.PredictProba", dt.nFeatures, c, 1)
	}

	out := mat.NewDense(r, dt.nClasses_, nil)
	for i := 0; i < r; i++ {
		nd := dt.root
		for !nd.leaf {
			if X.At(i, nd.feature) <= nd.threshold {
				nd = nd.left
			} else {
				nd = nd.right
			}
		}
		for j, p := range nd.proba {
			out.Set(i, j, p)
		}
	}
	return out, nil
}

// Score returns the accuracy of the predictions on X against y.
func (dt *DecisionTreeClassifier) Score(X, y mat.Matrix) float64 {
	preds, err := dt.Predict(X)
	if err != nil {
		return 0
	}

	r, _ := preds.Dims()
	correct := 0
	for i := 0; i < r; i++ {
		if preds.At(i, 0) == y.At(i, 0) {
			correct++
		}
	}
	return float64(correct) / float64(r)
}

// Classes returns the sorted label values seen during fitting.
func (dt *DecisionTreeClassifier) Classes() []float64 {
	return append([]float64(nil), dt.classes...)
}

// GetFeatureImportances returns the normalized impurity-decrease
// importances, one entry per feature.
func (dt *DecisionTreeClassifier) GetFeatureImportances() []float64 {
	return append([]float64(nil), dt.importances...)
}

// GetDepth returns the depth of the fitted tree.
func (dt *DecisionTreeClassifier) GetDepth() int {
	return dt.depth
}

// GetNLeaves returns the number of leaves of the fitted tree.
func (dt *DecisionTreeClassifier) GetNLeaves() int {
	return dt.nLeaves
}

// GetParams returns the model's hyperparameters.
func (dt *DecisionTreeClassifier) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"criterion":         dt.criterion,
		"max_depth":         dt.maxDepth,
		"min_samples_split": dt.minSamplesSplit,
		"min_samples_leaf":  dt.minSamplesLeaf,
		"max_features":      dt.maxFeatures,
		"random_state":      dt.randomState,
	}
}

// SetParams sets the model's hyperparameters.
func (dt *DecisionTreeClassifier) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		switch key {
		case "criterion":
			v, ok := value.(string)
			if !ok {
				return errors.NewValidationError(key, "must be a string", value)
			}
			dt.criterion = v
		case "max_depth":
			v, ok := value.(int)
			if !ok {
				return errors.NewValidationError(key, "must be an int", value)
			}
			dt.maxDepth = v
		case "min_samples_split":
			v, ok := value.(int)
			if !ok {
				return errors.NewValidationError(key, "must be an int", value)
			}
			dt.minSamplesSplit = v
		case "min_samples_leaf":
			v, ok := value.(int)
			if !ok {
				return errors.NewValidationError(key, "must be an int", value)
			}
			dt.minSamplesLeaf = v
		case "max_features":
			v, ok := value.(int)
			if !ok {
				return errors.NewValidationError(key, "must be an int", value)
			}
			dt.maxFeatures = v
		case "random_state":
			v, ok := value.(int64)
			if !ok {
				return errors.NewValidationError(key, "must be an int64", value)
			}
			dt.randomState = v
		default:
			return errors.NewValidationError(key, "unknown parameter", value)
		}
	}
	return nil
}
