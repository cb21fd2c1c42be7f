// Package log defines standard attribute keys for the modeling pipeline.
//
// Using these keys consistently across all stages (loading, splitting,
// treatment, training, evaluation) keeps the structured logs filterable:
// every record about a given engine or pipeline stage carries the same
// key names.
package log

// Pipeline and engine context.
const (
	// EngineKey identifies the random-forest engine producing the record.
	// Examples: "native", "golearn", "mala"
	EngineKey = "engine.name"

	// StageKey names the pipeline stage being executed.
	// Standard values: "load", "split", "treat", "fit", "evaluate", "plot"
	StageKey = "pipeline.stage"

	// OperationKey specifies the model operation being performed.
	// Standard values: "fit", "predict", "transform", "score"
	OperationKey = "ml.operation"

	// SeedKey records the random seed driving the run.
	SeedKey = "pipeline.seed"
)

// Data shape.
const (
	// SamplesKey is the number of rows being processed.
	SamplesKey = "data.samples"

	// FeaturesKey is the number of treated feature columns.
	FeaturesKey = "data.features"

	// SourceKey is the data source location (URL or path).
	SourceKey = "data.source"
)

// Model hyperparameters and results.
const (
	// TreesKey is the number of trees in a forest.
	TreesKey = "model.trees"

	// MtryKey is the number of candidate features per split.
	MtryKey = "model.mtry"

	// AccuracyKey carries a scalar accuracy value.
	AccuracyKey = "metric.accuracy"

	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"
)
