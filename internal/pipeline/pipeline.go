// Package pipeline chains the loader, direction detector, solver, and
// quality evaluator for one source/target pair, and runs many pairs
// concurrently.
package pipeline

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/unbound-force/lfcmap/internal/direction"
	"github.com/unbound-force/lfcmap/internal/loader"
	"github.com/unbound-force/lfcmap/internal/match"
	"github.com/unbound-force/lfcmap/internal/model"
	"github.com/unbound-force/lfcmap/internal/quality"
)

// Options configures one pipeline run.
type Options struct {
	// SourcePath and TargetPath are the tables to load. Ignored by
	// RunSets.
	SourcePath string
	TargetPath string

	// Source and Target select the columns of each table.
	Source loader.Options
	Target loader.Options

	// Match selects the solver and tolerance.
	Match match.Options

	// AutoDirection runs the direction detector before matching and
	// negates the target when that correlates better.
	AutoDirection bool

	// Quality configures the grade thresholds.
	Quality quality.Options
}

// DefaultOptions returns nearest matching without tolerance or
// direction detection.
func DefaultOptions() Options {
	return Options{
		Match:   match.DefaultOptions(),
		Quality: quality.DefaultOptions(),
	}
}

// Outcome is everything one pipeline run produced.
type Outcome struct {
	// SourceLoad and TargetLoad are nil when the sets were supplied
	// directly through RunSets.
	SourceLoad *loader.Result `json:"-"`
	TargetLoad *loader.Result `json:"-"`

	// Direction is nil unless AutoDirection was set.
	Direction *direction.Decision `json:"direction,omitempty"`

	Mapping   *model.MappingResult `json:"mapping"`
	Unmatched []string             `json:"unmatched"`
	Quality   *quality.Report      `json:"quality"`
}

// Run loads both tables and runs the pipeline over them.
func Run(opts Options) (*Outcome, error) {
	src, err := loader.Load(opts.SourcePath, opts.Source)
	if err != nil {
		return nil, err
	}
	tgt, err := loader.Load(opts.TargetPath, opts.Target)
	if err != nil {
		return nil, err
	}

	out, err := RunSets(src.Set, tgt.Set, opts)
	if err != nil {
		return nil, err
	}
	out.SourceLoad = src
	out.TargetLoad = tgt
	return out, nil
}

// RunSets runs direction detection (optional), matching, and quality
// evaluation over already-loaded sets.
func RunSets(source, target model.ScoreSet, opts Options) (*Outcome, error) {
	if err := model.CheckNonEmpty(source, target); err != nil {
		return nil, err
	}

	out := &Outcome{}
	if opts.AutoDirection {
		d, err := direction.Detect(source, target)
		if err != nil {
			return nil, fmt.Errorf("detecting direction: %w", err)
		}
		out.Direction = d
		target = d.Target
	}

	mapping, err := match.Match(source, target, opts.Match)
	if err != nil {
		return nil, err
	}
	out.Mapping = mapping
	out.Unmatched = mapping.Unmatched(source)

	rpt, err := quality.Evaluate(mapping, opts.Quality)
	if err != nil {
		return nil, fmt.Errorf("evaluating mapping: %w", err)
	}
	out.Quality = rpt

	return out, nil
}

// Job is one named pair in a batch.
type Job struct {
	Name    string
	Options Options
}

// JobResult is the outcome of one batch job. Exactly one of Outcome
// and Err is set.
type JobResult struct {
	Name    string
	Outcome *Outcome
	Err     error
}

// Batch runs jobs with at most limit running at once (limit <= 0
// means no limit). A failing job records its error and does not stop
// the others. Jobs not yet started when ctx is cancelled fail with
// the context error. Results are in job order.
func Batch(ctx context.Context, jobs []Job, limit int) ([]JobResult, error) {
	results := make([]JobResult, len(jobs))

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, job := range jobs {
		results[i].Name = job.Name
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			results[i].Outcome, results[i].Err = Run(job.Options)
			return nil
		})
	}
	// Jobs report failures through results, so Wait only returns nil.
	if err := g.Wait(); err != nil {
		return results, err
	}

	return results, ctx.Err()
}

// Failed returns the number of results carrying an error.
func Failed(results []JobResult) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}
