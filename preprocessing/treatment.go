// Package preprocessing provides the categorical treatment plan and
// supporting feature transformations.
//
// The treatment plan is fitted once on the small design subset and then
// applied read-only to the training and validation subsets. Fitting it on
// modeling rows would leak target information into the held-out accuracy
// numbers, so the plan never refits during Transform.
package preprocessing

import (
	"math"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/banklearn/core/model"
	"github.com/YuminosukeSato/banklearn/dataset"
	"github.com/YuminosukeSato/banklearn/pkg/errors"
)

// TreatmentPlan converts the raw mixed-type columns of a schema into a fully
// numeric feature matrix.
//
// Categorical variables are impact-coded: each level maps to the smoothed
// logit of the in-level positive rate minus the global logit, estimated on
// the design subset. Levels unseen at fit time map to 0. Numeric variables
// pass through; cells that fail to parse are imputed with the design-subset
// mean, and a <name>_isBad indicator column is emitted when the design subset
// itself contained unparsable cells.
type TreatmentPlan struct {
	model.BaseEstimator

	schema    dataset.Schema
	smoothing float64

	globalLogit float64
	catCodes    map[string]map[string]float64
	numMeans    map[string]float64
	numHasBad   map[string]bool
	outNames    []string
}

// TreatmentOption configures a TreatmentPlan.
type TreatmentOption func(*TreatmentPlan)

// WithSmoothing sets the Laplace smoothing weight applied to per-level rates.
// Larger values shrink rare levels harder toward the global rate.
func WithSmoothing(s float64) TreatmentOption {
	return func(p *TreatmentPlan) { p.smoothing = s }
}

// NewTreatmentPlan creates an unfitted plan for the given schema.
func NewTreatmentPlan(schema dataset.Schema, opts ...TreatmentOption) *TreatmentPlan {
	p := &TreatmentPlan{
		schema:    schema,
		smoothing: 1.0,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Fit estimates the per-level impact codes and per-column imputation means
// from the design subset.
func (p *TreatmentPlan) Fit(design dataframe.DataFrame) error {
	if design.Nrow() == 0 {
		return errors.NewModelError("TreatmentPlan.Fit", "empty design subset", errors.ErrEmptyData)
	}
	if err := p.schema.Validate(design); err != nil {
		return err
	}

	yPos, err := p.TransformTarget(design)
	if err != nil {
		return err
	}
	n := len(yPos)

	var positives float64
	for _, v := range yPos {
		positives += v
	}
	globalRate := (positives + p.smoothing) / (float64(n) + 2*p.smoothing)
	p.globalLogit = logit(globalRate)

	p.catCodes = make(map[string]map[string]float64)
	p.numMeans = make(map[string]float64)
	p.numHasBad = make(map[string]bool)
	p.outNames = p.outNames[:0]

	for _, name := range p.schema.FeatureNames() {
		kind, _ := p.schema.Kind(name)
		records := design.Col(name).Records()
		if len(records) != n {
			return errors.NewDimensionError("TreatmentPlan.Fit", n, len(records), 0)
		}

		switch kind {
		case dataset.Numeric:
			var sum float64
			var good int
			hasBad := false
			for _, rec := range records {
				v, perr := strconv.ParseFloat(rec, 64)
				if perr != nil || math.IsNaN(v) {
					hasBad = true
					continue
				}
				sum += v
				good++
			}
			mean := 0.0
			if good > 0 {
				mean = sum / float64(good)
			}
			if hasBad {
				errors.Warn(errors.NewDataConversionWarning("string", "float64",
					"unparsable cells in numeric column "+name+" imputed with design mean"))
			}
			p.numMeans[name] = mean
			p.numHasBad[name] = hasBad
			p.outNames = append(p.outNames, name)
			if hasBad {
				p.outNames = append(p.outNames, name+"_isBad")
			}

		case dataset.Categorical:
			counts := make(map[string]float64)
			posCounts := make(map[string]float64)
			for i, rec := range records {
				counts[rec]++
				posCounts[rec] += yPos[i]
			}
			codes := make(map[string]float64, len(counts))
			for level, cnt := range counts {
				rate := (posCounts[level] + p.smoothing*globalRate) / (cnt + p.smoothing)
				codes[level] = logit(rate) - p.globalLogit
			}
			p.catCodes[name] = codes
			p.outNames = append(p.outNames, name+"_catB")
		}
	}

	p.SetFitted()
	return nil
}

// Transform applies the fitted plan to any subset with the same schema and
// returns the numeric feature matrix plus its column names. The plan is
// read-only here: codes estimated at fit time are never updated.
func (p *TreatmentPlan) Transform(df dataframe.DataFrame) (*mat.Dense, []string, error) {
	if !p.IsFitted() {
		return nil, nil, errors.NewNotFittedError("TreatmentPlan", "Transform")
	}
	if err := p.schema.Validate(df); err != nil {
		return nil, nil, err
	}

	n := df.Nrow()
	out := mat.NewDense(n, len(p.outNames), nil)

	col := 0
	for _, name := range p.schema.FeatureNames() {
		kind, _ := p.schema.Kind(name)
		records := df.Col(name).Records()

		switch kind {
		case dataset.Numeric:
			mean := p.numMeans[name]
			hasBad := p.numHasBad[name]
			badCol := -1
			if hasBad {
				badCol = col + 1
			}
			for i, rec := range records {
				v, perr := strconv.ParseFloat(rec, 64)
				if perr != nil || math.IsNaN(v) {
					out.Set(i, col, mean)
					if hasBad {
						out.Set(i, badCol, 1)
					}
					continue
				}
				out.Set(i, col, v)
			}
			col++
			if hasBad {
				col++
			}

		case dataset.Categorical:
			codes := p.catCodes[name]
			for i, rec := range records {
				// Unseen levels carry no design-subset evidence.
				out.Set(i, col, codes[rec])
			}
			col++
		}
	}

	names := append([]string(nil), p.outNames...)
	return out, names, nil
}

// TransformTarget maps the target column to 1 for the positive level and 0
// otherwise. The mapping is lossless for a binary target.
func (p *TreatmentPlan) TransformTarget(df dataframe.DataFrame) ([]float64, error) {
	target := p.schema.TargetName()
	found := false
	for _, name := range df.Names() {
		if name == target {
			found = true
			break
		}
	}
	if !found {
		return nil, errors.NewSchemaError(target, "target column not found in input")
	}

	records := df.Col(target).Records()
	y := make([]float64, len(records))
	for i, rec := range records {
		if rec == p.schema.PositiveLevel {
			y[i] = 1
		}
	}
	return y, nil
}

// VariableNames returns the treated column names in output order.
func (p *TreatmentPlan) VariableNames() []string {
	return append([]string(nil), p.outNames...)
}

func logit(p float64) float64 {
	return math.Log(p / (1 - p))
}
