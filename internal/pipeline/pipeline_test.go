package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/goleak"

	"github.com/unbound-force/lfcmap/internal/model"
	"github.com/unbound-force/lfcmap/internal/pipeline"
	"github.com/unbound-force/lfcmap/internal/quality"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func writeTable(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func pairOptions(t *testing.T, source, target string) pipeline.Options {
	t.Helper()
	dir := t.TempDir()
	opts := pipeline.DefaultOptions()
	opts.SourcePath = writeTable(t, dir, "source.csv", source)
	opts.TargetPath = writeTable(t, dir, "target.tsv", target)
	return opts
}

const (
	paperTable   = "gene_id,lfc\ng1,5.0\ng2,-3.0\ng3,0.2\n,1.0\n"
	deseqTable   = "gene_id\tlog2FoldChange\nh1\t5.1\nh2\t-2.9\nh3\t0.1\n"
	flippedTable = "gene_id\tlog2FoldChange\nh1\t-5.1\nh2\t2.9\nh3\t-0.1\n"
)

func TestRun_ScenarioA(t *testing.T) {
	out, err := pipeline.Run(pairOptions(t, paperTable, deseqTable))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.SourceLoad.Stats.DroppedEmptyID != 1 {
		t.Errorf("source drops = %+v, want 1 empty id", out.SourceLoad.Stats)
	}
	if out.Mapping.Len() != 3 {
		t.Fatalf("mapped %d, want 3", out.Mapping.Len())
	}
	for _, e := range out.Mapping.Entries {
		if want := "h" + e.SourceID[1:]; e.TargetID != want {
			t.Errorf("%s -> %s, want %s", e.SourceID, e.TargetID, want)
		}
	}
	if out.Direction != nil {
		t.Error("direction should be nil without AutoDirection")
	}
	if len(out.Unmatched) != 0 {
		t.Errorf("unmatched = %v, want none", out.Unmatched)
	}
	if out.Quality.DirectionAgreementPct != 100 {
		t.Errorf("direction agreement = %v, want 100", out.Quality.DirectionAgreementPct)
	}
}

func TestRun_AutoDirection(t *testing.T) {
	opts := pairOptions(t, paperTable, flippedTable)
	opts.AutoDirection = true

	out, err := pipeline.Run(opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.Direction == nil || !out.Direction.Negate {
		t.Fatalf("expected negation, got %+v", out.Direction)
	}
	if out.Quality.Pearson == nil || math.Abs(out.Quality.Pearson.R-1) > 0.01 {
		t.Errorf("corrected Pearson = %+v, want ~1", out.Quality.Pearson)
	}
	if out.Quality.DirectionAgreementPct != 100 {
		t.Errorf("direction agreement = %v, want 100", out.Quality.DirectionAgreementPct)
	}
}

func TestRun_OptimalWithTolerance(t *testing.T) {
	opts := pairOptions(t, "gene_id,lfc\ng1,2.0\ng2,2.0\ng3,9.0\n", "gene_id\tlfc\nh1\t2.0\nh2\t2.05\n")
	opts.Match.Mode = model.Optimal
	tol := 0.1
	opts.Match.Tolerance = &tol

	out, err := pipeline.Run(opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.Mapping.Len() != 2 || out.Mapping.UniqueTargets() != 2 {
		t.Errorf("expected two one-to-one entries, got %+v", out.Mapping.Entries)
	}
	if len(out.Unmatched) != 1 || out.Unmatched[0] != "g3" {
		t.Errorf("unmatched = %v, want [g3]", out.Unmatched)
	}
}

func TestRun_LoadError(t *testing.T) {
	opts := pipeline.DefaultOptions()
	opts.SourcePath = filepath.Join(t.TempDir(), "missing.csv")
	opts.TargetPath = opts.SourcePath

	_, err := pipeline.Run(opts)
	var le *model.LoadError
	if !errors.As(err, &le) {
		t.Errorf("expected *model.LoadError, got %v", err)
	}
}

func TestRun_EmptyAfterLoading(t *testing.T) {
	_, err := pipeline.Run(pairOptions(t, "gene_id,lfc\ng1,NA\n", deseqTable))
	if !errors.Is(err, model.ErrEmptyInput) {
		t.Errorf("expected ErrEmptyInput, got %v", err)
	}
}

func TestRunSets_NoMatches(t *testing.T) {
	opts := pipeline.DefaultOptions()
	tol := 0.01
	opts.Match.Tolerance = &tol

	_, err := pipeline.RunSets(
		model.NewScoreSet("s", []string{"g1"}, []float64{1}),
		model.NewScoreSet("t", []string{"h1"}, []float64{5}),
		opts)
	if !errors.Is(err, model.ErrNoMatches) {
		t.Errorf("expected ErrNoMatches, got %v", err)
	}
}

func TestRunSets_SingleEntryIsInsufficient(t *testing.T) {
	out, err := pipeline.RunSets(
		model.NewScoreSet("s", []string{"g1"}, []float64{1}),
		model.NewScoreSet("t", []string{"h1"}, []float64{1.1}),
		pipeline.DefaultOptions())
	if err != nil {
		t.Fatalf("RunSets: %v", err)
	}
	if !out.Quality.InsufficientData || out.Quality.Grade != quality.GradePoor {
		t.Errorf("quality = %+v, want insufficient/poor", out.Quality)
	}
	if out.SourceLoad != nil {
		t.Error("RunSets should not report load stats")
	}
}

func TestBatch_OrderAndIsolation(t *testing.T) {
	var jobs []pipeline.Job
	for i := range 5 {
		opts := pairOptions(t, paperTable, deseqTable)
		if i == 2 {
			opts.TargetPath = filepath.Join(t.TempDir(), "missing.tsv")
		}
		jobs = append(jobs, pipeline.Job{Name: fmt.Sprintf("job%d", i), Options: opts})
	}

	results, err := pipeline.Batch(context.Background(), jobs, 2)
	if err != nil {
		t.Fatalf("Batch: %v", err)
	}
	if len(results) != len(jobs) {
		t.Fatalf("got %d results, want %d", len(results), len(jobs))
	}
	for i, r := range results {
		if r.Name != jobs[i].Name {
			t.Errorf("result %d name = %s, want %s", i, r.Name, jobs[i].Name)
		}
		if i == 2 {
			if r.Err == nil || r.Outcome != nil {
				t.Errorf("job2 should fail alone, got %+v", r)
			}
			continue
		}
		if r.Err != nil || r.Outcome == nil || r.Outcome.Mapping.Len() != 3 {
			t.Errorf("job%d: outcome %+v err %v", i, r.Outcome, r.Err)
		}
	}
	if n := pipeline.Failed(results); n != 1 {
		t.Errorf("Failed = %d, want 1", n)
	}
}

func TestBatch_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	jobs := []pipeline.Job{
		{Name: "a", Options: pairOptions(t, paperTable, deseqTable)},
		{Name: "b", Options: pairOptions(t, paperTable, deseqTable)},
	}
	results, err := pipeline.Batch(ctx, jobs, 0)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Batch error = %v, want context.Canceled", err)
	}
	for _, r := range results {
		if !errors.Is(r.Err, context.Canceled) {
			t.Errorf("job %s err = %v, want context.Canceled", r.Name, r.Err)
		}
	}
}

func TestBatch_Empty(t *testing.T) {
	results, err := pipeline.Batch(context.Background(), nil, 4)
	if err != nil || len(results) != 0 {
		t.Errorf("Batch(nil) = %v, %v", results, err)
	}
}
