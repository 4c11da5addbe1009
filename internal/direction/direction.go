// Package direction detects a target score set whose signs are
// inverted relative to the source, as happens when the reference and
// contrast conditions are swapped between two differential-expression
// runs.
package direction

import (
	"fmt"

	"github.com/unbound-force/lfcmap/internal/match"
	"github.com/unbound-force/lfcmap/internal/model"
	"github.com/unbound-force/lfcmap/internal/stats"
)

// Trial is the outcome of one trial mapping.
type Trial struct {
	// R is the Pearson correlation of source vs target scores over
	// the trial mapping. Meaningful only when Defined is true.
	R float64 `json:"r"`

	// Defined is false when R could not be computed.
	Defined bool `json:"defined"`

	// Mapped is the number of entries in the trial mapping.
	Mapped int `json:"mapped"`
}

// Decision reports whether the target should be negated.
type Decision struct {
	// Negate is true only when the negated orientation correlates
	// strictly better than the original one.
	Negate bool `json:"negate"`

	AsIs    Trial `json:"as_is"`
	Negated Trial `json:"negated"`

	// Target is the target set to use downstream: a negated copy when
	// Negate is true, otherwise the original set.
	Target model.ScoreSet `json:"-"`
}

// Detect compares the nearest-neighbor mappings of source against the
// target as-is and against its negation. Neither input is modified.
func Detect(source, target model.ScoreSet) (*Decision, error) {
	if err := model.CheckNonEmpty(source, target); err != nil {
		return nil, err
	}

	negated := target.Negate()

	asIs, err := trial(source, target)
	if err != nil {
		return nil, fmt.Errorf("as-is trial: %w", err)
	}
	neg, err := trial(source, negated)
	if err != nil {
		return nil, fmt.Errorf("negated trial: %w", err)
	}

	d := &Decision{AsIs: asIs, Negated: neg, Target: target}
	if asIs.Defined && neg.Defined && neg.R > asIs.R {
		d.Negate = true
		d.Target = negated
	}
	return d, nil
}

func trial(source, target model.ScoreSet) (Trial, error) {
	res, err := match.Nearest(source, target, nil)
	if err != nil {
		return Trial{}, err
	}
	r, ok := stats.Pearson(res.SourceScores(), res.TargetScores())
	return Trial{R: r, Defined: ok, Mapped: res.Len()}, nil
}
