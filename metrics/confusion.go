package metrics

import (
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/banklearn/pkg/errors"
)

// ConfusionMatrix holds prediction counts per (true, predicted) label pair.
// Labels are the sorted union of the labels seen in either vector, so the
// matrix is always square.
type ConfusionMatrix struct {
	Labels []float64
	Counts [][]int

	total   int
	correct int
}

// NewConfusionMatrix tallies yPred against yTrue.
func NewConfusionMatrix(yTrue, yPred *mat.VecDense) (*ConfusionMatrix, error) {
	if yTrue == nil || yPred == nil {
		return nil, errors.NewValueError("NewConfusionMatrix", "nil input vector")
	}

	n := yTrue.Len()
	if n == 0 {
		return nil, errors.NewValueError("NewConfusionMatrix", "empty vector")
	}
	if yPred.Len() != n {
		return nil, errors.NewDimensionError("NewConfusionMatrix", n, yPred.Len(), 0)
	}

	labelSet := make(map[float64]struct{})
	for i := 0; i < n; i++ {
		labelSet[yTrue.AtVec(i)] = struct{}{}
		labelSet[yPred.AtVec(i)] = struct{}{}
	}

	labels := make([]float64, 0, len(labelSet))
	for l := range labelSet {
		labels = append(labels, l)
	}
	sort.Float64s(labels)

	index := make(map[float64]int, len(labels))
	for i, l := range labels {
		index[l] = i
	}

	counts := make([][]int, len(labels))
	for i := range counts {
		counts[i] = make([]int, len(labels))
	}

	cm := &ConfusionMatrix{Labels: labels, Counts: counts, total: n}
	for i := 0; i < n; i++ {
		ti := index[yTrue.AtVec(i)]
		pi := index[yPred.AtVec(i)]
		counts[ti][pi]++
		if ti == pi {
			cm.correct++
		}
	}

	return cm, nil
}

// Accuracy returns exactly correct / total.
func (cm *ConfusionMatrix) Accuracy() float64 {
	return float64(cm.correct) / float64(cm.total)
}

// Total returns the number of tallied samples.
func (cm *ConfusionMatrix) Total() int {
	return cm.total
}

// At returns the count of samples with the given true and predicted labels.
func (cm *ConfusionMatrix) At(trueLabel, predLabel float64) int {
	ti, pi := -1, -1
	for i, l := range cm.Labels {
		if l == trueLabel {
			ti = i
		}
		if l == predLabel {
			pi = i
		}
	}
	if ti < 0 || pi < 0 {
		return 0
	}
	return cm.Counts[ti][pi]
}

// String renders the matrix as a console table, rows true and columns
// predicted, matching the usual text output of R's table().
func (cm *ConfusionMatrix) String() string {
	var b strings.Builder

	b.WriteString("true\\pred")
	for _, l := range cm.Labels {
		fmt.Fprintf(&b, "%10.4g", l)
	}
	b.WriteString("\n")

	for i, l := range cm.Labels {
		fmt.Fprintf(&b, "%9.4g", l)
		for j := range cm.Labels {
			fmt.Fprintf(&b, "%10d", cm.Counts[i][j])
		}
		if i < len(cm.Labels)-1 {
			b.WriteString("\n")
		}
	}

	return b.String()
}
