// Package pipeline wires the full model comparison: fetch the CSV, carve
// out design/train/validation partitions, fit the treatment plan on the
// design rows only, train every configured engine on the treated matrix and
// score it on the train and validation partitions.
package pipeline

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/banklearn/core/model"
	"github.com/YuminosukeSato/banklearn/dataset"
	"github.com/YuminosukeSato/banklearn/engine"
	"github.com/YuminosukeSato/banklearn/metrics"
	"github.com/YuminosukeSato/banklearn/pkg/errors"
	"github.com/YuminosukeSato/banklearn/pkg/log"
	"github.com/YuminosukeSato/banklearn/preprocessing"
)

// Config describes one comparison run.
type Config struct {
	// DataURL is the location of the semicolon-separated CSV.
	DataURL string

	// Delimiter defaults to ';', the bank-marketing export format.
	Delimiter rune

	// Schema describes the expected columns. Empty means dataset.BankSchema.
	Schema dataset.Schema

	// Seed drives the partition shuffle. Engine seeds are configured on the
	// engines themselves so each backend stays independently reproducible.
	Seed int64

	// DesignFraction is carved off first for fitting the treatment plan.
	// Zero means 0.1.
	DesignFraction float64

	// ValidationFraction is taken from the remainder. Zero means 0.2.
	ValidationFraction float64

	// ScaleTreated standardizes the treated columns before training.
	ScaleTreated bool

	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client

	// Engines are the configured backends to compare.
	Engines []engine.Classifier
}

// Evaluation is one engine's score on one partition.
type Evaluation struct {
	Accuracy  float64
	Confusion *metrics.ConfusionMatrix
}

// Report collects everything measured for one engine.
type Report struct {
	Engine     string
	Train      Evaluation
	Validation Evaluation

	// OOBCurve is present when the engine tracks out-of-bag error.
	OOBCurve []float64

	// Importances aligns with Result.VariableNames when the engine
	// reports them.
	Importances []float64
}

// Result is the outcome of a full run.
type Result struct {
	Rows          int
	Parts         dataset.Partitions
	VariableNames []string
	Reports       []Report

	// Head is gota's rendering of the loaded dataframe, for display.
	Head string
}

func (cfg *Config) fillDefaults() error {
	if cfg.DataURL == "" {
		return errors.NewValidationError("DataURL", "must be set", "")
	}
	if len(cfg.Engines) == 0 {
		return errors.NewValidationError("Engines", "at least one engine is required", nil)
	}
	if cfg.Delimiter == 0 {
		cfg.Delimiter = ';'
	}
	if len(cfg.Schema.Columns) == 0 {
		cfg.Schema = dataset.BankSchema()
	}
	if cfg.DesignFraction == 0 {
		cfg.DesignFraction = 0.1
	}
	if cfg.ValidationFraction == 0 {
		cfg.ValidationFraction = 0.2
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	return nil
}

// Run executes the comparison described by cfg.
func Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := cfg.fillDefaults(); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "loading dataset",
		slog.String(log.StageKey, "load"),
		slog.String(log.SourceKey, cfg.DataURL))

	df, err := dataset.Fetch(ctx, cfg.HTTPClient, cfg.DataURL, cfg.Delimiter, cfg.Schema)
	if err != nil {
		return nil, err
	}

	n := df.Nrow()
	parts, err := dataset.Split(n, cfg.DesignFraction, cfg.ValidationFraction, cfg.Seed)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "partitioned dataset",
		slog.String(log.StageKey, "split"),
		slog.Int(log.SamplesKey, n),
		slog.Int64(log.SeedKey, cfg.Seed),
		slog.Int("design", len(parts.Design)),
		slog.Int("train", len(parts.Train)),
		slog.Int("validation", len(parts.Validation)))

	designDF, err := dataset.SubsetRows(df, parts.Design)
	if err != nil {
		return nil, err
	}
	trainDF, err := dataset.SubsetRows(df, parts.Train)
	if err != nil {
		return nil, err
	}
	validDF, err := dataset.SubsetRows(df, parts.Validation)
	if err != nil {
		return nil, err
	}

	// The treatment plan sees design rows only; train and validation rows
	// are transformed read-only so no target information leaks into the
	// encoded features.
	plan := preprocessing.NewTreatmentPlan(cfg.Schema)
	if err := plan.Fit(designDF); err != nil {
		return nil, err
	}

	trainX, names, err := plan.Transform(trainDF)
	if err != nil {
		return nil, err
	}
	validX, _, err := plan.Transform(validDF)
	if err != nil {
		return nil, err
	}
	trainY, err := plan.TransformTarget(trainDF)
	if err != nil {
		return nil, err
	}
	validY, err := plan.TransformTarget(validDF)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "treated features",
		slog.String(log.StageKey, "treat"),
		slog.Int(log.FeaturesKey, len(names)))

	var trainM, validM mat.Matrix = trainX, validX
	if cfg.ScaleTreated {
		scaler := preprocessing.NewStandardScaler()
		if trainM, err = scaler.FitTransform(trainX); err != nil {
			return nil, err
		}
		if validM, err = scaler.Transform(validX); err != nil {
			return nil, err
		}
	}

	result := &Result{
		Rows:          n,
		Parts:         parts,
		VariableNames: names,
		Reports:       make([]Report, 0, len(cfg.Engines)),
		Head:          df.String(),
	}

	for _, eng := range cfg.Engines {
		report, err := runEngine(ctx, eng, trainM, trainY, validM, validY)
		if err != nil {
			return nil, errors.Wrapf(err, "banklearn: engine %s", eng.Name())
		}
		result.Reports = append(result.Reports, report)
	}

	return result, nil
}

func runEngine(ctx context.Context, eng engine.Classifier, trainX mat.Matrix, trainY []float64, validX mat.Matrix, validY []float64) (Report, error) {
	start := time.Now()
	if err := eng.Fit(trainX, trainY); err != nil {
		return Report{}, err
	}
	slog.InfoContext(ctx, "fitted engine",
		slog.String(log.StageKey, "fit"),
		slog.String(log.EngineKey, eng.Name()),
		slog.Int64(log.DurationMsKey, time.Since(start).Milliseconds()))

	report := Report{Engine: eng.Name()}

	var err error
	if report.Train, err = evaluate(eng, trainX, trainY); err != nil {
		return Report{}, err
	}
	if report.Validation, err = evaluate(eng, validX, validY); err != nil {
		return Report{}, err
	}

	slog.InfoContext(ctx, "evaluated engine",
		slog.String(log.StageKey, "evaluate"),
		slog.String(log.EngineKey, eng.Name()),
		slog.Float64(log.AccuracyKey, report.Validation.Accuracy))

	if r, ok := eng.(engine.OOBReporter); ok {
		report.OOBCurve = r.OOBErrorCurve()
	}
	if r, ok := eng.(model.ImportanceReporter); ok {
		report.Importances = r.GetFeatureImportances()
	}

	return report, nil
}

func evaluate(eng engine.Classifier, X mat.Matrix, y []float64) (Evaluation, error) {
	preds, err := eng.Predict(X)
	if err != nil {
		return Evaluation{}, err
	}

	cm, err := metrics.NewConfusionMatrix(
		mat.NewVecDense(len(y), append([]float64(nil), y...)),
		mat.NewVecDense(len(preds), preds),
	)
	if err != nil {
		return Evaluation{}, err
	}

	return Evaluation{Accuracy: cm.Accuracy(), Confusion: cm}, nil
}
