// Package banklearn compares random-forest classifiers on the UCI
// bank-marketing dataset, from raw CSV to confusion matrices and charts.
//
// The library fetches the semicolon-separated CSV, splits it into design,
// train and validation partitions, impact-codes the categorical predictors
// with a treatment plan fitted on the design rows only, and trains several
// random-forest backends on the same treated matrix.
//
// # Quick Start
//
// Running the full comparison takes one pipeline call:
//
//	package main
//
//	import (
//	    "context"
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/banklearn/engine"
//	    "github.com/YuminosukeSato/banklearn/pipeline"
//	    "github.com/YuminosukeSato/banklearn/sklearn/ensemble"
//	)
//
//	func main() {
//	    result, err := pipeline.Run(context.Background(), pipeline.Config{
//	        DataURL: "https://example.com/bank-full.csv",
//	        Seed:    729,
//	        Engines: []engine.Classifier{
//	            engine.NewNativeForest("native",
//	                ensemble.WithNEstimators(100),
//	                ensemble.WithSeed(729),
//	            ),
//	        },
//	    })
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    for _, report := range result.Reports {
//	        fmt.Println(report.Engine, report.Validation.Accuracy)
//	    }
//	}
//
// # Packages
//
//   - dataset: CSV loading, schema validation and seeded partitioning
//   - preprocessing: categorical treatment plan and standard scaling
//   - sklearn/tree: CART decision tree classifier
//   - sklearn/ensemble: bagged random forest with OOB error tracking
//   - engine: common interface over the native, golearn and randomForest backends
//   - metrics: accuracy, AUC, log loss and confusion matrices
//   - pipeline: the end-to-end comparison run
//   - plot: OOB error and variable-importance charts
//   - core/model: core interfaces and base types
//   - core/parallel: parallel processing utilities
//
// # Reproducibility
//
// Every randomized step is seeded: the partition shuffle, each tree's
// bootstrap sample and its per-split feature sampling. A run with a fixed
// seed produces identical partitions, forests and accuracy numbers.
package banklearn
