package engine

import (
	"math/rand"
	"strconv"

	"github.com/sjwhitworth/golearn/base"
	glensemble "github.com/sjwhitworth/golearn/ensemble"
	"github.com/sjwhitworth/golearn/filters"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/banklearn/pkg/errors"
)

// GoLearnForest runs golearn's random forest over the treated matrix.
// golearn's trees are ID3-based and need categorical inputs, so the float
// features are discretized with a ChiMerge filter fitted on the training
// data; the same filter is reused at prediction time.
type GoLearnForest struct {
	name         string
	trees        int
	mtry         int
	significance float64
	seed         int64

	featureNames []string
	forest       *glensemble.RandomForest
	filter       *filters.ChiMergeFilter
	fitted       bool
}

// GoLearnOption configures a GoLearnForest.
type GoLearnOption func(*GoLearnForest)

// WithGoLearnTrees sets the forest size.
func WithGoLearnTrees(n int) GoLearnOption {
	return func(e *GoLearnForest) { e.trees = n }
}

// WithGoLearnFeatures sets the number of features sampled per tree.
func WithGoLearnFeatures(n int) GoLearnOption {
	return func(e *GoLearnForest) { e.mtry = n }
}

// WithGoLearnSignificance sets the ChiMerge significance level.
func WithGoLearnSignificance(s float64) GoLearnOption {
	return func(e *GoLearnForest) { e.significance = s }
}

// WithGoLearnSeed seeds the shared generator golearn's bagging draws from.
func WithGoLearnSeed(seed int64) GoLearnOption {
	return func(e *GoLearnForest) { e.seed = seed }
}

// NewGoLearnForest builds a golearn-backed classifier. featureNames, when
// given, must match the columns of the matrices later passed to Fit and
// Predict; nil means names are synthesized from the training matrix.
func NewGoLearnForest(name string, featureNames []string, opts ...GoLearnOption) *GoLearnForest {
	e := &GoLearnForest{
		name:         name,
		trees:        100,
		significance: 0.999,
		featureNames: append([]string(nil), featureNames...),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *GoLearnForest) Name() string { return e.name }

// instancesFrom packs X and optional labels into a DenseInstances grid with
// one float attribute per feature and a categorical class attribute. The
// class column is always present so train and prediction grids share a
// layout; at prediction time it is filled with a placeholder level.
func (e *GoLearnForest) instancesFrom(X mat.Matrix, y []float64) (*base.DenseInstances, error) {
	n, d := X.Dims()
	if d != len(e.featureNames) {
		return nil, errors.NewDimensionError("GoLearnForest", len(e.featureNames), d, 1)
	}

	inst := base.NewDenseInstances()
	specs := make([]base.AttributeSpec, d)
	for j, name := range e.featureNames {
		specs[j] = inst.AddAttribute(base.NewFloatAttribute(name))
	}

	classAttr := base.NewCategoricalAttribute()
	classAttr.SetName("y")
	// Register both levels up front so the value mapping is stable.
	classAttr.GetSysValFromString("0")
	classAttr.GetSysValFromString("1")
	classSpec := inst.AddAttribute(classAttr)
	if err := inst.AddClassAttribute(classAttr); err != nil {
		return nil, errors.Wrap(err, "banklearn: adding class attribute")
	}

	if err := inst.Extend(n); err != nil {
		return nil, errors.Wrap(err, "banklearn: sizing instance grid")
	}
	for i := 0; i < n; i++ {
		for j := 0; j < d; j++ {
			inst.Set(specs[j], i, base.PackFloatToBytes(X.At(i, j)))
		}
		label := "0"
		if y != nil && y[i] == 1 {
			label = "1"
		}
		inst.Set(classSpec, i, classAttr.GetSysValFromString(label))
	}

	return inst, nil
}

func (e *GoLearnForest) Fit(X mat.Matrix, y []float64) error {
	n, d := X.Dims()
	if len(y) != n {
		return errors.NewDimensionError("GoLearnForest.Fit", n, len(y), 0)
	}
	if len(e.featureNames) == 0 {
		e.featureNames = make([]string, d)
		for j := range e.featureNames {
			e.featureNames[j] = "x" + strconv.Itoa(j)
		}
	}
	if e.mtry <= 0 {
		e.mtry = defaultMtry(d)
	}

	inst, err := e.instancesFrom(X, y)
	if err != nil {
		return err
	}

	filt := filters.NewChiMergeFilter(inst, e.significance)
	for _, a := range base.NonClassFloatAttributes(inst) {
		filt.AddAttribute(a)
	}
	if err := filt.Train(); err != nil {
		return errors.Wrap(err, "banklearn: training ChiMerge filter")
	}
	filtered := base.NewLazilyFilteredInstances(inst, filt)

	// golearn's bagging samples from the package-level generator.
	rand.Seed(e.seed)

	forest := glensemble.NewRandomForest(e.trees, e.mtry)
	if err := forest.Fit(filtered); err != nil {
		return errors.Wrap(err, "banklearn: fitting golearn forest")
	}

	e.filter = filt
	e.forest = forest
	e.fitted = true
	return nil
}

func (e *GoLearnForest) Predict(X mat.Matrix) ([]float64, error) {
	if !e.fitted {
		return nil, errors.NewNotFittedError("GoLearnForest", "Predict")
	}

	inst, err := e.instancesFrom(X, nil)
	if err != nil {
		return nil, err
	}
	filtered := base.NewLazilyFilteredInstances(inst, e.filter)

	preds, err := e.forest.Predict(filtered)
	if err != nil {
		return nil, errors.Wrap(err, "banklearn: golearn prediction")
	}

	n, _ := X.Dims()
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		v, err := strconv.ParseFloat(base.GetClass(preds, i), 64)
		if err != nil {
			return nil, errors.Wrap(err, "banklearn: parsing predicted class")
		}
		out[i] = v
	}
	return out, nil
}
