// Package stats provides the numeric primitives used to judge a gene
// mapping: correlation coefficients with their significance, rank
// transforms, and dispersion summaries. All functions are pure.
package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Pearson returns the Pearson product-moment correlation of x and y.
// ok is false when the coefficient is undefined: fewer than two
// points, mismatched lengths, or zero variance on either side.
func Pearson(x, y []float64) (r float64, ok bool) {
	if len(x) < 2 || len(x) != len(y) {
		return 0, false
	}
	if constant(x) || constant(y) {
		return 0, false
	}
	r = stat.Correlation(x, y, nil)
	if math.IsNaN(r) {
		return 0, false
	}
	return clamp(r, -1, 1), true
}

// Spearman returns the Spearman rank correlation of x and y, computed
// as the Pearson correlation of their average ranks.
func Spearman(x, y []float64) (rho float64, ok bool) {
	if len(x) < 2 || len(x) != len(y) {
		return 0, false
	}
	return Pearson(Ranks(x), Ranks(y))
}

// PValue returns the two-sided p-value for a correlation coefficient r
// computed over n pairs, using Student's t with n-2 degrees of
// freedom. With n <= 2 the test has no power and PValue returns 1.
func PValue(r float64, n int) float64 {
	if n <= 2 {
		return 1
	}
	if math.Abs(r) >= 1 {
		return 0
	}
	df := float64(n - 2)
	t := r * math.Sqrt(df/(1-r*r))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return clamp(2*dist.Survival(math.Abs(t)), 0, 1)
}

// Ranks returns the 1-based ranks of x. Tied values share the average
// of the ranks they span.
func Ranks(x []float64) []float64 {
	idx := make([]int, len(x))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return x[idx[a]] < x[idx[b]] })

	ranks := make([]float64, len(x))
	for i := 0; i < len(idx); {
		j := i + 1
		for j < len(idx) && x[idx[j]] == x[idx[i]] {
			j++
		}
		// Positions i..j-1 hold equal values: ranks i+1..j.
		avg := float64(i+1+j) / 2
		for k := i; k < j; k++ {
			ranks[idx[k]] = avg
		}
		i = j
	}
	return ranks
}

// Median returns the median of x, averaging the two middle values for
// an even count. x is not modified. Median of an empty slice is 0.
func Median(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	s := make([]float64, len(x))
	copy(s, x)
	sort.Float64s(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid]
	}
	return (s[mid-1] + s[mid]) / 2
}

// Summary holds location and dispersion statistics of a sample.
type Summary struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`

	// Std is the population (biased) standard deviation.
	Std float64 `json:"std"`

	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Summarize computes a Summary of x. An empty sample yields the zero
// Summary.
func Summarize(x []float64) Summary {
	if len(x) == 0 {
		return Summary{}
	}
	mean, std := stat.PopMeanStdDev(x, nil)
	return Summary{
		Mean:   mean,
		Median: Median(x),
		Std:    std,
		Min:    floats.Min(x),
		Max:    floats.Max(x),
	}
}

// LinearFit returns the least-squares line y = intercept + slope*x.
// ok is false when x has fewer than two points or zero variance.
func LinearFit(x, y []float64) (slope, intercept float64, ok bool) {
	if len(x) < 2 || len(x) != len(y) || constant(x) {
		return 0, 0, false
	}
	alpha, beta := stat.LinearRegression(x, y, nil, false)
	return beta, alpha, true
}

// Sign returns -1, 0, or +1. Zero is its own class.
func Sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

func constant(x []float64) bool {
	for _, v := range x[1:] {
		if v != x[0] {
			return false
		}
	}
	return true
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
