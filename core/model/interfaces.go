// Package model provides the core interfaces and base types shared by the
// treatment, tree and ensemble packages.
package model

import (
	"gonum.org/v1/gonum/mat"
)

// Fitter is the interface for models that learn from labeled data.
type Fitter interface {
	// Fit trains the model on X with targets y.
	Fit(X, y mat.Matrix) error
}

// Predictor is the interface for fitted models that produce predictions.
type Predictor interface {
	// Predict returns predicted labels for X, one row per sample.
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Classifier combines the interfaces implemented by classification models.
type Classifier interface {
	Fitter
	Predictor

	// PredictProba returns per-class probability estimates for X.
	PredictProba(X mat.Matrix) (mat.Matrix, error)
}

// Transformer is the interface for fitted data transformations such as
// scalers and the categorical treatment plan.
type Transformer interface {
	// Fit learns the transformation parameters from X.
	Fit(X mat.Matrix) error

	// Transform applies the learned transformation to X.
	Transform(X mat.Matrix) (mat.Matrix, error)

	// FitTransform runs Fit and Transform in one call.
	FitTransform(X mat.Matrix) (mat.Matrix, error)
}

// ImportanceReporter is implemented by models that expose per-feature
// importance scores. Scores are normalized to sum to 1.
type ImportanceReporter interface {
	GetFeatureImportances() []float64
}

// ParameterGetter is the interface for models that expose their parameters.
type ParameterGetter interface {
	// GetParams returns the model's hyperparameters.
	GetParams() map[string]interface{}
}

// ParameterSetter is the interface for models that allow parameter modification.
type ParameterSetter interface {
	// SetParams sets the model's hyperparameters.
	SetParams(params map[string]interface{}) error
}
