// Package match computes identifier correspondences between two score
// sets by numeric proximity of their scores.
//
// Two solvers are available. Nearest maps every source record to the
// closest target independently and may reuse targets. Optimal solves
// the min-cost bipartite assignment over |source - target| and never
// reuses a target.
package match

import (
	"fmt"
	"math"
	"sort"

	"github.com/unbound-force/lfcmap/internal/model"
)

// Options configures a solver run.
type Options struct {
	// Mode selects the solver. Zero value means model.Nearest.
	Mode model.Mode

	// Tolerance is the maximum accepted distance. Nil means no
	// limit. Entries with Distance > *Tolerance are left out.
	Tolerance *float64
}

// DefaultOptions returns nearest-neighbor matching with no tolerance.
func DefaultOptions() Options {
	return Options{Mode: model.Nearest}
}

// Match dispatches to the solver selected by opts.Mode.
func Match(source, target model.ScoreSet, opts Options) (*model.MappingResult, error) {
	switch opts.Mode {
	case "", model.Nearest:
		return Nearest(source, target, opts.Tolerance)
	case model.Optimal:
		return Optimal(source, target, opts.Tolerance)
	default:
		return nil, fmt.Errorf("unknown match mode %q", opts.Mode)
	}
}

// Nearest maps each source record to the target record with the
// smallest absolute score difference. Ties go to the target that
// appears first in the target set.
func Nearest(source, target model.ScoreSet, tolerance *float64) (*model.MappingResult, error) {
	if err := checkInputs(model.Nearest, source, target, tolerance); err != nil {
		return nil, err
	}

	idx := newTargetIndex(target)
	entries := make([]model.MappingEntry, 0, source.Len())
	for _, src := range source.Records {
		j := idx.nearest(src.Score)
		e := model.NewEntry(src, target.Records[j])
		if !withinTolerance(e.Distance, tolerance) {
			continue
		}
		entries = append(entries, e)
	}
	return finish(model.Nearest, tolerance, entries)
}

// Optimal computes a one-to-one assignment that minimizes the total
// distance. When the sets differ in size the smaller side is fully
// matched and the surplus records of the larger side stay unmatched.
//
// The tolerance, when set, is applied to the assigned pairs after the
// assignment is solved; it does not change which pairs are assigned.
func Optimal(source, target model.ScoreSet, tolerance *float64) (*model.MappingResult, error) {
	if err := checkInputs(model.Optimal, source, target, tolerance); err != nil {
		return nil, err
	}

	src, tgt := source.Scores(), target.Scores()
	transposed := len(src) > len(tgt)
	rows, cols := src, tgt
	if transposed {
		rows, cols = tgt, src
	}

	cost := make([][]float64, len(rows))
	for i, r := range rows {
		cost[i] = make([]float64, len(cols))
		for j, c := range cols {
			cost[i][j] = math.Abs(r - c)
		}
	}
	assign := solveAssignment(cost)

	// pairs[i] is the target index for source i, or -1.
	pairs := make([]int, len(src))
	for i := range pairs {
		pairs[i] = -1
	}
	for row, col := range assign {
		if col < 0 {
			continue
		}
		if transposed {
			pairs[col] = row
		} else {
			pairs[row] = col
		}
	}

	entries := make([]model.MappingEntry, 0, min(len(src), len(tgt)))
	for i, j := range pairs {
		if j < 0 {
			continue
		}
		e := model.NewEntry(source.Records[i], target.Records[j])
		if !withinTolerance(e.Distance, tolerance) {
			continue
		}
		entries = append(entries, e)
	}
	return finish(model.Optimal, tolerance, entries)
}

// checkInputs rejects empty sets, a bad tolerance, and identifiers
// that would appear in more than one entry. Target identifiers may
// repeat in nearest mode because targets are reused there anyway.
func checkInputs(mode model.Mode, source, target model.ScoreSet, tolerance *float64) error {
	if err := model.CheckNonEmpty(source, target); err != nil {
		return err
	}
	if tolerance != nil && (math.IsNaN(*tolerance) || *tolerance < 0) {
		return fmt.Errorf("invalid tolerance %v: must be a non-negative number", *tolerance)
	}
	if err := model.CheckUniqueIDs(source, "source"); err != nil {
		return err
	}
	if mode == model.Optimal {
		return model.CheckUniqueIDs(target, "target")
	}
	return nil
}

func withinTolerance(d float64, tolerance *float64) bool {
	return tolerance == nil || d <= *tolerance
}

// finish sorts entries by distance and wraps them in a result. Entries
// arrive in source order, so the stable sort keeps source order among
// equal distances.
func finish(mode model.Mode, tolerance *float64, entries []model.MappingEntry) (*model.MappingResult, error) {
	if len(entries) == 0 {
		return nil, model.ErrNoMatches
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Distance < entries[j].Distance
	})
	var tol *float64
	if tolerance != nil {
		v := *tolerance
		tol = &v
	}
	return &model.MappingResult{Mode: mode, Tolerance: tol, Entries: entries}, nil
}
