package dataset

import (
	"math/rand"
	"sort"

	"github.com/YuminosukeSato/banklearn/pkg/errors"
)

// Partitions holds the three disjoint row-index sets of a run. Indices within
// each partition are ascending so that downstream row order is stable.
type Partitions struct {
	// Design is the small subset the treatment plan is fitted on.
	Design []int
	// Train is the modeling subset used to fit classifiers.
	Train []int
	// Validation is the held-out modeling subset.
	Validation []int
}

// Split partitions row indices [0, n) by sampling without replacement:
// floor(designFrac*n) rows form the design subset, and the remainder is split
// into train and validation with floor(validationFrac*remainder) validation
// rows. The same seed always produces the same partitions.
func Split(n int, designFrac, validationFrac float64, seed int64) (Partitions, error) {
	if n <= 0 {
		return Partitions{}, errors.NewValueError("Split", "number of rows must be positive")
	}
	if designFrac <= 0 || designFrac >= 1 {
		return Partitions{}, errors.NewValidationError("designFrac", "must be in (0, 1)", designFrac)
	}
	if validationFrac <= 0 || validationFrac >= 1 {
		return Partitions{}, errors.NewValidationError("validationFrac", "must be in (0, 1)", validationFrac)
	}

	rng := rand.New(rand.NewSource(seed))
	perm := rng.Perm(n)

	nDesign := int(designFrac * float64(n))
	rest := n - nDesign
	nValidation := int(validationFrac * float64(rest))

	p := Partitions{
		Design:     append([]int(nil), perm[:nDesign]...),
		Validation: append([]int(nil), perm[nDesign:nDesign+nValidation]...),
		Train:      append([]int(nil), perm[nDesign+nValidation:]...),
	}
	sort.Ints(p.Design)
	sort.Ints(p.Train)
	sort.Ints(p.Validation)
	return p, nil
}
