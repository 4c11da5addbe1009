// Package quality computes trust metrics for a gene mapping:
// correlation of the paired scores with significance, agreement of
// their signs, and the dispersion of the match distances. The result
// is graded so callers can accept or reject a mapping.
package quality

import (
	"fmt"

	"github.com/unbound-force/lfcmap/internal/model"
	"github.com/unbound-force/lfcmap/internal/stats"
)

// Grade is the overall verdict on a mapping.
type Grade string

// Grades from best to worst.
const (
	GradeExcellent  Grade = "excellent"
	GradeGood       Grade = "good"
	GradeAcceptable Grade = "acceptable"
	GradePoor       Grade = "poor"
)

// gradeRank orders grades for threshold comparisons.
var gradeRank = map[Grade]int{
	GradePoor:       0,
	GradeAcceptable: 1,
	GradeGood:       2,
	GradeExcellent:  3,
}

// ParseGrade validates a grade name.
func ParseGrade(s string) (Grade, bool) {
	g := Grade(s)
	_, ok := gradeRank[g]
	return g, ok
}

// AtLeast reports whether g is as good as or better than other.
func (g Grade) AtLeast(other Grade) bool {
	return gradeRank[g] >= gradeRank[other]
}

// Thresholds define the grade boundaries. R-squared and direction
// agreement must both be strictly above a level's values to reach it;
// excellent additionally requires every pair to agree in sign.
type Thresholds struct {
	ExcellentRSquared   float64 `yaml:"excellent_r_squared" json:"excellent_r_squared"`
	GoodRSquared        float64 `yaml:"good_r_squared" json:"good_r_squared"`
	GoodDirection       float64 `yaml:"good_direction_pct" json:"good_direction_pct"`
	AcceptableRSquared  float64 `yaml:"acceptable_r_squared" json:"acceptable_r_squared"`
	AcceptableDirection float64 `yaml:"acceptable_direction_pct" json:"acceptable_direction_pct"`
}

// DefaultThresholds returns the standard grading boundaries.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ExcellentRSquared:   0.99,
		GoodRSquared:        0.95,
		GoodDirection:       95,
		AcceptableRSquared:  0.90,
		AcceptableDirection: 90,
	}
}

// Validate checks that every R-squared bound is in (0, 1], every
// direction bound is in (0, 100], and the levels are ordered.
func (t Thresholds) Validate() error {
	bounds := []struct {
		name  string
		value float64
		max   float64
	}{
		{"excellent_r_squared", t.ExcellentRSquared, 1},
		{"good_r_squared", t.GoodRSquared, 1},
		{"acceptable_r_squared", t.AcceptableRSquared, 1},
		{"good_direction_pct", t.GoodDirection, 100},
		{"acceptable_direction_pct", t.AcceptableDirection, 100},
	}
	for _, b := range bounds {
		if !(b.value > 0 && b.value <= b.max) {
			return fmt.Errorf("invalid %s %v: must be in (0, %v]", b.name, b.value, b.max)
		}
	}
	if t.ExcellentRSquared < t.GoodRSquared || t.GoodRSquared < t.AcceptableRSquared {
		return fmt.Errorf("r_squared thresholds must satisfy excellent >= good >= acceptable (got %v, %v, %v)",
			t.ExcellentRSquared, t.GoodRSquared, t.AcceptableRSquared)
	}
	if t.GoodDirection < t.AcceptableDirection {
		return fmt.Errorf("direction thresholds must satisfy good >= acceptable (got %v, %v)",
			t.GoodDirection, t.AcceptableDirection)
	}
	return nil
}

// Options configures Evaluate.
type Options struct {
	Thresholds Thresholds
}

// DefaultOptions returns options with the default thresholds.
func DefaultOptions() Options {
	return Options{Thresholds: DefaultThresholds()}
}

// Correlation is a coefficient with its two-sided p-value.
type Correlation struct {
	R        float64 `json:"r"`
	RSquared float64 `json:"r_squared"`
	P        float64 `json:"p_value"`
}

// Agreement holds Bland-Altman statistics of source - target.
type Agreement struct {
	MeanDiff float64 `json:"mean_diff"`
	StdDiff  float64 `json:"std_diff"`

	// LowerLimit and UpperLimit bound the 95% limits of agreement,
	// MeanDiff -/+ 1.96 * StdDiff.
	LowerLimit float64 `json:"lower_limit"`
	UpperLimit float64 `json:"upper_limit"`
}

// Regression is the least-squares fit target = Intercept + Slope*source.
type Regression struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
}

// Report is the quality assessment of one mapping. It is built once
// by Evaluate and never modified afterwards.
type Report struct {
	// Mapped is the number of entries evaluated.
	Mapped int `json:"mapped"`

	// Pearson and Spearman are nil when undefined (fewer than two
	// entries, or zero variance on one side).
	Pearson  *Correlation `json:"pearson,omitempty"`
	Spearman *Correlation `json:"spearman,omitempty"`

	// DirectionMatches counts entries whose source and target scores
	// share a sign. Zero is its own sign class.
	DirectionMatches      int     `json:"direction_matches"`
	DirectionAgreementPct float64 `json:"direction_agreement_pct"`

	// Distance summarizes |source - target| over all entries.
	Distance stats.Summary `json:"distance"`

	Agreement  *Agreement  `json:"agreement,omitempty"`
	Regression *Regression `json:"regression,omitempty"`

	// InsufficientData is set when fewer than two entries were
	// mapped, so no correlation statistic could be computed.
	InsufficientData bool `json:"insufficient_data"`

	// Warnings lists non-fatal conditions found while evaluating.
	Warnings []string `json:"warnings,omitempty"`

	Grade Grade `json:"grade"`
}

// Evaluate computes the quality report for a mapping result.
func Evaluate(result *model.MappingResult, opts Options) (*Report, error) {
	if result.Len() == 0 {
		return nil, &model.EmptyInputError{Side: "mapping"}
	}

	src, tgt := result.SourceScores(), result.TargetScores()
	n := len(src)
	rpt := &Report{Mapped: n}

	if n < 2 {
		rpt.InsufficientData = true
		rpt.Warnings = append(rpt.Warnings,
			"fewer than 2 mapped entries: correlation statistics are undefined")
	} else {
		if r, ok := stats.Pearson(src, tgt); ok {
			rpt.Pearson = &Correlation{R: r, RSquared: r * r, P: stats.PValue(r, n)}
		} else {
			rpt.Warnings = append(rpt.Warnings,
				"zero variance in source or target scores: correlation is undefined")
		}
		if rho, ok := stats.Spearman(src, tgt); ok {
			rpt.Spearman = &Correlation{R: rho, RSquared: rho * rho, P: stats.PValue(rho, n)}
		}
		rpt.Agreement = blandAltman(src, tgt)
		if slope, intercept, ok := stats.LinearFit(src, tgt); ok {
			rpt.Regression = &Regression{Slope: slope, Intercept: intercept}
		}
	}

	for i := range src {
		if stats.Sign(src[i]) == stats.Sign(tgt[i]) {
			rpt.DirectionMatches++
		}
	}
	rpt.DirectionAgreementPct = float64(rpt.DirectionMatches) / float64(n) * 100
	rpt.Distance = stats.Summarize(result.Distances())
	rpt.Grade = opts.Thresholds.Classify(rpt)

	return rpt, nil
}

// Classify grades a report against the thresholds. A report without
// a defined Pearson correlation is always poor.
func (t Thresholds) Classify(r *Report) Grade {
	if r == nil || r.Pearson == nil {
		return GradePoor
	}
	r2 := r.Pearson.RSquared
	dir := r.DirectionAgreementPct

	switch {
	case r2 > t.ExcellentRSquared && r.DirectionMatches == r.Mapped:
		return GradeExcellent
	case r2 > t.GoodRSquared && dir > t.GoodDirection:
		return GradeGood
	case r2 > t.AcceptableRSquared && dir > t.AcceptableDirection:
		return GradeAcceptable
	default:
		return GradePoor
	}
}

func blandAltman(src, tgt []float64) *Agreement {
	diffs := make([]float64, len(src))
	for i := range src {
		diffs[i] = src[i] - tgt[i]
	}
	s := stats.Summarize(diffs)
	return &Agreement{
		MeanDiff:   s.Mean,
		StdDiff:    s.Std,
		LowerLimit: s.Mean - 1.96*s.Std,
		UpperLimit: s.Mean + 1.96*s.Std,
	}
}
