// Package dataset loads the tabular marketing data into gota dataframes and
// carves it into the design/train/validation partitions used downstream.
package dataset

import (
	"github.com/go-gota/gota/dataframe"

	"github.com/YuminosukeSato/banklearn/pkg/errors"
)

// ColumnKind classifies how a column is handled by the treatment plan.
type ColumnKind int

const (
	// Numeric columns are parsed as float64 and imputed when unparsable.
	Numeric ColumnKind = iota
	// Categorical columns are impact-coded against the target.
	Categorical
	// Target is the binary label column.
	Target
)

// Column is one named, typed column of the expected layout.
type Column struct {
	Name string
	Kind ColumnKind
}

// Schema is the expected column layout of a dataset. It replaces positional
// assumptions ("column 17 is the label") with named validation: loading data
// whose header is missing a declared column fails with a SchemaError.
type Schema struct {
	Columns []Column

	// PositiveLevel is the target value mapped to 1 (e.g. "yes").
	PositiveLevel string
}

// TargetName returns the name of the target column.
func (s Schema) TargetName() string {
	for _, c := range s.Columns {
		if c.Kind == Target {
			return c.Name
		}
	}
	return ""
}

// FeatureNames returns the names of all non-target columns, in schema order.
func (s Schema) FeatureNames() []string {
	names := make([]string, 0, len(s.Columns))
	for _, c := range s.Columns {
		if c.Kind != Target {
			names = append(names, c.Name)
		}
	}
	return names
}

// Kind reports the declared kind of a named column.
func (s Schema) Kind(name string) (ColumnKind, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c.Kind, true
		}
	}
	return 0, false
}

// Validate checks that every declared column is present in the dataframe.
func (s Schema) Validate(df dataframe.DataFrame) error {
	present := make(map[string]bool, df.Ncol())
	for _, name := range df.Names() {
		present[name] = true
	}
	for _, c := range s.Columns {
		if !present[c.Name] {
			return errors.NewSchemaError(c.Name, "column not found in input header")
		}
	}
	if s.TargetName() == "" {
		return errors.NewSchemaError("", "schema declares no target column")
	}
	return nil
}

// BankSchema returns the layout of the UCI bank-marketing dataset:
// 16 predictors plus the binary subscription label y in {"yes","no"}.
func BankSchema() Schema {
	return Schema{
		PositiveLevel: "yes",
		Columns: []Column{
			{Name: "age", Kind: Numeric},
			{Name: "job", Kind: Categorical},
			{Name: "marital", Kind: Categorical},
			{Name: "education", Kind: Categorical},
			{Name: "default", Kind: Categorical},
			{Name: "balance", Kind: Numeric},
			{Name: "housing", Kind: Categorical},
			{Name: "loan", Kind: Categorical},
			{Name: "contact", Kind: Categorical},
			{Name: "day", Kind: Numeric},
			{Name: "month", Kind: Categorical},
			{Name: "duration", Kind: Numeric},
			{Name: "campaign", Kind: Numeric},
			{Name: "pdays", Kind: Numeric},
			{Name: "previous", Kind: Numeric},
			{Name: "poutcome", Kind: Categorical},
			{Name: "y", Kind: Target},
		},
	}
}
