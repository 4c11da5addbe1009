package match

import (
	"math"
	"sort"

	"github.com/unbound-force/lfcmap/internal/model"
)

// indexedScore is a target score with its position in the target set.
type indexedScore struct {
	score float64
	pos   int
}

// targetIndex holds target scores sorted ascending for binary search.
// Equal scores keep target order.
type targetIndex struct {
	sorted []indexedScore
}

func newTargetIndex(target model.ScoreSet) *targetIndex {
	sorted := make([]indexedScore, target.Len())
	for i, r := range target.Records {
		sorted[i] = indexedScore{score: r.Score, pos: i}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].score < sorted[j].score
	})
	return &targetIndex{sorted: sorted}
}

// nearest returns the target position closest to s, preferring the
// lowest position among equally close targets. The result is identical
// to a linear scan keeping the first strict minimum.
func (ix *targetIndex) nearest(s float64) int {
	n := len(ix.sorted)
	lo := sort.Search(n, func(k int) bool { return ix.sorted[k].score >= s })

	best, bestD := -1, math.Inf(1)
	consider := func(k int) bool {
		d := math.Abs(s - ix.sorted[k].score)
		if d > bestD {
			return false
		}
		if d < bestD || ix.sorted[k].pos < best {
			best, bestD = ix.sorted[k].pos, d
		}
		return true
	}

	// Distances are non-decreasing walking outward from lo, so each
	// walk stops at the first candidate farther than the best so far.
	for k := lo; k < n; k++ {
		if !consider(k) {
			break
		}
	}
	for k := lo - 1; k >= 0; k-- {
		if !consider(k) {
			break
		}
	}
	return best
}
