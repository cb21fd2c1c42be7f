package preprocessing

import (
	"math"
	"strings"
	"testing"

	"github.com/go-gota/gota/dataframe"

	"github.com/YuminosukeSato/banklearn/dataset"
	"github.com/YuminosukeSato/banklearn/pkg/errors"
)

func miniSchema() dataset.Schema {
	return dataset.Schema{
		PositiveLevel: "yes",
		Columns: []dataset.Column{
			{Name: "balance", Kind: dataset.Numeric},
			{Name: "job", Kind: dataset.Categorical},
			{Name: "y", Kind: dataset.Target},
		},
	}
}

func mustRead(t *testing.T, csv string, schema dataset.Schema) dataframe.DataFrame {
	t.Helper()
	df, err := dataset.ReadCSV(strings.NewReader(csv), ';', schema)
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}
	return df
}

const designCSV = `balance;job;y
100;services;no
200;services;yes
300;technician;yes
400;technician;yes
150;services;no
250;student;no
`

func TestTreatmentPlan_FitTransform(t *testing.T) {
	schema := miniSchema()
	design := mustRead(t, designCSV, schema)

	plan := NewTreatmentPlan(schema)
	if err := plan.Fit(design); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	X, names, err := plan.Transform(design)
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}

	r, c := X.Dims()
	if r != design.Nrow() {
		t.Errorf("Transformed rows = %d, want %d", r, design.Nrow())
	}
	if c != len(names) {
		t.Errorf("Transformed cols = %d, want %d", c, len(names))
	}

	wantNames := []string{"balance", "job_catB"}
	if len(names) != len(wantNames) {
		t.Fatalf("Column names = %v, want %v", names, wantNames)
	}
	for i := range wantNames {
		if names[i] != wantNames[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], wantNames[i])
		}
	}

	// No NaN may survive treatment.
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if math.IsNaN(X.At(i, j)) || math.IsInf(X.At(i, j), 0) {
				t.Errorf("Non-finite value at (%d, %d)", i, j)
			}
		}
	}

	// technician is all-positive in the design subset, services is mostly
	// negative: impact codes must reflect that ordering.
	techCode := X.At(2, 1)
	servicesCode := X.At(0, 1)
	if techCode <= servicesCode {
		t.Errorf("Expected technician code %v > services code %v", techCode, servicesCode)
	}
}

func TestTreatmentPlan_SameColumnsOnNewData(t *testing.T) {
	schema := miniSchema()
	plan := NewTreatmentPlan(schema)
	if err := plan.Fit(mustRead(t, designCSV, schema)); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	// retired never appears in the design subset.
	applyCSV := "balance;job;y\n500;retired;no\n100;services;yes\n"
	X, names, err := plan.Transform(mustRead(t, applyCSV, schema))
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}

	planNames := plan.VariableNames()
	if len(names) != len(planNames) {
		t.Fatalf("Apply columns %v differ from plan columns %v", names, planNames)
	}
	for i := range names {
		if names[i] != planNames[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], planNames[i])
		}
	}

	// Unseen level carries no evidence and codes to 0.
	if got := X.At(0, 1); got != 0 {
		t.Errorf("Unseen level code = %v, want 0", got)
	}
}

func TestTreatmentPlan_NumericImputation(t *testing.T) {
	schema := miniSchema()
	design := mustRead(t, "balance;job;y\n10;a;no\nNA;a;yes\n30;b;no\n20;b;yes\n", schema)

	plan := NewTreatmentPlan(schema)
	var warned bool
	errors.SetWarningHandler(func(error) { warned = true })
	defer errors.SetWarningHandler(nil)

	if err := plan.Fit(design); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if !warned {
		t.Error("Expected a DataConversionWarning for the unparsable cell")
	}

	X, names, err := plan.Transform(design)
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}

	// balance, balance_isBad, job_catB
	if len(names) != 3 || names[1] != "balance_isBad" {
		t.Fatalf("Unexpected columns: %v", names)
	}

	// The NA cell imputes to the mean of 10, 30, 20 and flags the indicator.
	if got := X.At(1, 0); got != 20 {
		t.Errorf("Imputed value = %v, want 20", got)
	}
	if got := X.At(1, 1); got != 1 {
		t.Errorf("isBad indicator = %v, want 1", got)
	}
	if got := X.At(0, 1); got != 0 {
		t.Errorf("isBad indicator for clean cell = %v, want 0", got)
	}
}

func TestTreatmentPlan_TargetMapping(t *testing.T) {
	schema := miniSchema()
	plan := NewTreatmentPlan(schema)
	design := mustRead(t, designCSV, schema)

	y, err := plan.TransformTarget(design)
	if err != nil {
		t.Fatalf("TransformTarget failed: %v", err)
	}

	want := []float64{0, 1, 1, 1, 0, 0}
	for i := range want {
		if y[i] != want[i] {
			t.Errorf("y[%d] = %v, want %v", i, y[i], want[i])
		}
	}
}

func TestTreatmentPlan_NotFitted(t *testing.T) {
	plan := NewTreatmentPlan(miniSchema())
	_, _, err := plan.Transform(mustRead(t, designCSV, miniSchema()))
	if err == nil {
		t.Fatal("Expected error when transforming before fitting")
	}

	var nf *errors.NotFittedError
	if !errors.As(err, &nf) {
		t.Errorf("Expected NotFittedError, got %T: %v", err, err)
	}
}

func TestTreatmentPlan_ReadOnlyApply(t *testing.T) {
	schema := miniSchema()
	plan := NewTreatmentPlan(schema)
	if err := plan.Fit(mustRead(t, designCSV, schema)); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	before, _, err := plan.Transform(mustRead(t, "balance;job;y\n100;services;no\n", schema))
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}

	// Applying the plan to wildly different data must not shift the codes.
	skew := "balance;job;y\n1;services;yes\n2;services;yes\n3;services;yes\n"
	if _, _, err := plan.Transform(mustRead(t, skew, schema)); err != nil {
		t.Fatalf("Transform failed: %v", err)
	}

	after, _, err := plan.Transform(mustRead(t, "balance;job;y\n100;services;no\n", schema))
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}

	if before.At(0, 1) != after.At(0, 1) {
		t.Errorf("Impact code changed across applies: %v -> %v", before.At(0, 1), after.At(0, 1))
	}
}

func TestStandardScaler_OnTreatedFeatures(t *testing.T) {
	schema := miniSchema()
	plan := NewTreatmentPlan(schema)
	if err := plan.Fit(mustRead(t, designCSV, schema)); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	X, _, err := plan.Transform(mustRead(t, designCSV, schema))
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}

	scaler := NewStandardScaler()
	scaled, err := scaler.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}

	r, c := scaled.Dims()
	for j := 0; j < c; j++ {
		var sum float64
		for i := 0; i < r; i++ {
			sum += scaled.At(i, j)
		}
		if math.Abs(sum/float64(r)) > 1e-9 {
			t.Errorf("Column %d mean = %v after scaling, want ~0", j, sum/float64(r))
		}
	}
}
