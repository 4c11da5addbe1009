// Package model defines the score and mapping data structures shared
// by the loader, the solvers, and the quality evaluator.
package model

import (
	"fmt"
	"math"
	"strings"
)

// Mode selects the correspondence solver.
type Mode string

// Solver modes.
const (
	// Nearest maps every source record to its closest target score
	// independently. Several sources may share one target.
	Nearest Mode = "nearest"

	// Optimal computes a one-to-one assignment minimizing the total
	// distance over all matched pairs.
	Optimal Mode = "optimal"
)

// ParseMode converts a user-supplied mode name to a Mode. The empty
// string selects Nearest.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "nearest":
		return Nearest, nil
	case "optimal", "optimal-assignment", "unique":
		return Optimal, nil
	default:
		return "", fmt.Errorf("invalid mode %q: must be 'nearest' or 'optimal'", s)
	}
}

// ScoreRecord is a single identifier with its log2 fold-change.
type ScoreRecord struct {
	// ID is the gene identifier. Never empty after loading.
	ID string `json:"id"`

	// Score is the finite log2 fold-change.
	Score float64 `json:"score"`
}

// ScoreSet is an ordered collection of records from one table.
// A ScoreSet is treated as immutable; derived sets are copies.
type ScoreSet struct {
	// Name labels the set in reports (usually the file path).
	Name string `json:"name"`

	// Records holds the loaded rows in file order.
	Records []ScoreRecord `json:"records"`
}

// NewScoreSet builds a ScoreSet from parallel id/score slices.
// It panics if the slices differ in length.
func NewScoreSet(name string, ids []string, scores []float64) ScoreSet {
	if len(ids) != len(scores) {
		panic(fmt.Sprintf("model: %d ids but %d scores", len(ids), len(scores)))
	}
	recs := make([]ScoreRecord, len(ids))
	for i := range ids {
		recs[i] = ScoreRecord{ID: ids[i], Score: scores[i]}
	}
	return ScoreSet{Name: name, Records: recs}
}

// Len returns the number of records.
func (s ScoreSet) Len() int { return len(s.Records) }

// Scores returns a copy of the scores in record order.
func (s ScoreSet) Scores() []float64 {
	out := make([]float64, len(s.Records))
	for i, r := range s.Records {
		out[i] = r.Score
	}
	return out
}

// IDs returns the identifiers in record order.
func (s ScoreSet) IDs() []string {
	out := make([]string, len(s.Records))
	for i, r := range s.Records {
		out[i] = r.ID
	}
	return out
}

// Negate returns a new set with every score multiplied by -1.
// Identifiers and order are unchanged and s is not modified.
func (s ScoreSet) Negate() ScoreSet {
	recs := make([]ScoreRecord, len(s.Records))
	for i, r := range s.Records {
		score := -r.Score
		if score == 0 {
			score = 0 // normalize -0
		}
		recs[i] = ScoreRecord{ID: r.ID, Score: score}
	}
	return ScoreSet{Name: s.Name, Records: recs}
}

// MappingEntry pairs one source record with one target record.
type MappingEntry struct {
	SourceID    string  `json:"source_id"`
	SourceScore float64 `json:"source_score"`
	TargetID    string  `json:"target_id"`
	TargetScore float64 `json:"target_score"`

	// Distance is |SourceScore - TargetScore|.
	Distance float64 `json:"distance"`
}

// NewEntry builds an entry and computes its distance.
func NewEntry(src, tgt ScoreRecord) MappingEntry {
	return MappingEntry{
		SourceID:    src.ID,
		SourceScore: src.Score,
		TargetID:    tgt.ID,
		TargetScore: tgt.Score,
		Distance:    math.Abs(src.Score - tgt.Score),
	}
}

// MappingResult is the output of a solver run. Entries are sorted by
// ascending Distance; equal distances keep source order.
type MappingResult struct {
	// Mode is the solver that produced the result.
	Mode Mode `json:"mode"`

	// Tolerance is the maximum accepted distance, nil when unlimited.
	Tolerance *float64 `json:"tolerance,omitempty"`

	// Entries holds the mapped pairs, best matches first.
	Entries []MappingEntry `json:"entries"`
}

// Len returns the number of mapped entries.
func (m *MappingResult) Len() int {
	if m == nil {
		return 0
	}
	return len(m.Entries)
}

// SourceScores returns the source scores of all entries in order.
func (m *MappingResult) SourceScores() []float64 {
	out := make([]float64, len(m.Entries))
	for i, e := range m.Entries {
		out[i] = e.SourceScore
	}
	return out
}

// TargetScores returns the target scores of all entries in order.
func (m *MappingResult) TargetScores() []float64 {
	out := make([]float64, len(m.Entries))
	for i, e := range m.Entries {
		out[i] = e.TargetScore
	}
	return out
}

// Distances returns the distances of all entries in order.
func (m *MappingResult) Distances() []float64 {
	out := make([]float64, len(m.Entries))
	for i, e := range m.Entries {
		out[i] = e.Distance
	}
	return out
}

// Unmatched returns the identifiers of source records that have no
// entry in the mapping, in source order. Duplicate source identifiers
// are reported once.
func (m *MappingResult) Unmatched(source ScoreSet) []string {
	mapped := make(map[string]struct{}, m.Len())
	if m != nil {
		for _, e := range m.Entries {
			mapped[e.SourceID] = struct{}{}
		}
	}
	var out []string
	seen := make(map[string]struct{})
	for _, r := range source.Records {
		if _, ok := mapped[r.ID]; ok {
			continue
		}
		if _, ok := seen[r.ID]; ok {
			continue
		}
		seen[r.ID] = struct{}{}
		out = append(out, r.ID)
	}
	return out
}

// UniqueTargets returns the number of distinct target identifiers
// used by the mapping.
func (m *MappingResult) UniqueTargets() int {
	seen := make(map[string]struct{}, m.Len())
	if m != nil {
		for _, e := range m.Entries {
			seen[e.TargetID] = struct{}{}
		}
	}
	return len(seen)
}

// TotalDistance returns the sum of all entry distances.
func (m *MappingResult) TotalDistance() float64 {
	var sum float64
	if m != nil {
		for _, e := range m.Entries {
			sum += e.Distance
		}
	}
	return sum
}
