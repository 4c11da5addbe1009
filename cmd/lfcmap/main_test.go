package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/unbound-force/lfcmap/internal/config"
	"github.com/unbound-force/lfcmap/internal/loader"
	"github.com/unbound-force/lfcmap/internal/model"
	"github.com/unbound-force/lfcmap/internal/report"
)

const (
	paperTable  = "gene_id,lfc\ng1,5.0\ng2,-3.0\ng3,0.5\n"
	deseqTable  = "gene_id\tlog2FoldChange\nh1\t5.1\nh2\t-2.9\nh3\t0.1\n"
	singleTable = "gene_id\tlog2FoldChange\nh1\t5.1\n"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

// tables writes the source and target tables into a temp dir and
// returns their paths.
func tables(t *testing.T, target string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	return writeFile(t, dir, "paper.csv", paperTable), writeFile(t, dir, "deseq.tsv", target)
}

func newMatchParams(t *testing.T, target string) (matchParams, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	src, tgt := tables(t, target)
	var stdout, stderr bytes.Buffer
	return matchParams{
		source:     src,
		target:     tgt,
		configPath: writeFile(t, t.TempDir(), "empty.yaml", ""),
		overrides:  config.NoOverrides(),
		maxRows:    report.DefaultTextOptions().MaxRows,
		stdout:     &stdout,
		stderr:     &stderr,
	}, &stdout, &stderr
}

// ---------------------------------------------------------------------------
// runMatch tests
// ---------------------------------------------------------------------------

func TestRunMatch_TextFormat(t *testing.T) {
	p, stdout, stderr := newMatchParams(t, deseqTable)
	if err := runMatch(p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := stdout.String()
	for _, want := range []string{"g1", "h1", "g3", "h3", "excellent"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
	if stderr.Len() != 0 {
		t.Errorf("no grade gate set, stderr should be empty, got:\n%s", stderr.String())
	}
}

func TestRunMatch_JSONFormat(t *testing.T) {
	p, stdout, _ := newMatchParams(t, deseqTable)
	p.overrides.Format = "json"
	if err := runMatch(p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal(stdout.Bytes(), &parsed); err != nil {
		t.Fatalf("output is not valid JSON: %v\noutput:\n%s", err, stdout.String())
	}
	if parsed["version"] != version {
		t.Errorf("version = %v, want %s", parsed["version"], version)
	}

	compiler := jsonschema.NewCompiler()
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(report.Schema))
	if err != nil {
		t.Fatalf("parsing schema: %v", err)
	}
	if err := compiler.AddResource(report.SchemaID, doc); err != nil {
		t.Fatalf("adding schema: %v", err)
	}
	sch, err := compiler.Compile(report.SchemaID)
	if err != nil {
		t.Fatalf("compiling schema: %v", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(stdout.Bytes()))
	if err != nil {
		t.Fatalf("parsing output: %v", err)
	}
	if err := sch.Validate(inst); err != nil {
		t.Errorf("output does not match schema: %v", err)
	}
}

func TestRunMatch_MarkdownFormat(t *testing.T) {
	p, stdout, _ := newMatchParams(t, deseqTable)
	p.overrides.Format = "markdown"
	if err := runMatch(p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := stdout.String()
	if !strings.Contains(out, "## Mapping quality") || !strings.Contains(out, "## Mapping") {
		t.Errorf("expected markdown headings, got:\n%s", out)
	}
	if !strings.Contains(out, "| g1") {
		t.Errorf("expected a markdown table row for g1, got:\n%s", out)
	}
}

func TestRunMatch_InvalidFormat(t *testing.T) {
	p, _, _ := newMatchParams(t, deseqTable)
	p.overrides.Format = "yaml"
	err := runMatch(p)
	if err == nil {
		t.Fatal("expected error for invalid format")
	}
	if !strings.Contains(err.Error(), "invalid flag value") {
		t.Errorf("unexpected error message: %s", err)
	}
}

func TestRunMatch_MissingTables(t *testing.T) {
	tests := []struct {
		name   string
		source string
		target string
	}{
		{"no source", "", "b.tsv"},
		{"no target", "a.csv", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := runMatch(matchParams{
				source:    tt.source,
				target:    tt.target,
				overrides: config.NoOverrides(),
				stdout:    &bytes.Buffer{},
				stderr:    &bytes.Buffer{},
			})
			if err == nil || !strings.Contains(err.Error(), "--source and --target") {
				t.Errorf("expected missing flag error, got %v", err)
			}
		})
	}
}

func TestRunMatch_UniqueConflictsWithNearest(t *testing.T) {
	p, _, _ := newMatchParams(t, deseqTable)
	p.unique = true
	p.overrides.Mode = "nearest"
	err := runMatch(p)
	if err == nil || !strings.Contains(err.Error(), "--unique conflicts") {
		t.Errorf("expected conflict error, got %v", err)
	}
}

func TestRunMatch_UniqueSelectsOptimal(t *testing.T) {
	p, stdout, _ := newMatchParams(t, deseqTable)
	p.unique = true
	p.overrides.Format = "json"
	if err := runMatch(p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var parsed struct {
		Mapping struct {
			Mode string `json:"mode"`
		} `json:"mapping"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &parsed); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if parsed.Mapping.Mode != string(model.Optimal) {
		t.Errorf("mode = %q, want optimal", parsed.Mapping.Mode)
	}
}

func TestRunMatch_WritesMappingFile(t *testing.T) {
	p, _, _ := newMatchParams(t, deseqTable)
	p.output = filepath.Join(t.TempDir(), "mapping.tsv")
	if err := runMatch(p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	res, err := loader.Load(p.output, loader.Options{IDColumn: "source_id", ScoreColumn: "source_lfc"})
	if err != nil {
		t.Fatalf("mapping file does not load: %v", err)
	}
	if res.Set.Len() != 3 {
		t.Errorf("mapping file has %d rows, want 3", res.Set.Len())
	}
}

func TestRunMatch_MinGradeFail(t *testing.T) {
	p, _, stderr := newMatchParams(t, singleTable)
	p.overrides.MinGrade = "acceptable"
	err := runMatch(p)
	if err == nil {
		t.Fatal("expected grade gate failure")
	}
	if !strings.Contains(err.Error(), "below minimum acceptable") {
		t.Errorf("unexpected error message: %s", err)
	}
	if !strings.Contains(stderr.String(), "Grade: poor/acceptable (FAIL)") {
		t.Errorf("expected FAIL summary on stderr, got:\n%s", stderr.String())
	}
}

func TestRunMatch_MinGradePass(t *testing.T) {
	p, _, stderr := newMatchParams(t, deseqTable)
	p.overrides.MinGrade = "good"
	if err := runMatch(p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stderr.String(), "(PASS)") {
		t.Errorf("expected PASS summary on stderr, got:\n%s", stderr.String())
	}
}

func TestRunMatch_ConfigFile(t *testing.T) {
	p, stdout, _ := newMatchParams(t, deseqTable)
	p.configPath = writeFile(t, t.TempDir(), "lfcmap.yaml",
		"match:\n  mode: optimal\n  tolerance: 0.15\noutput:\n  format: json\n")
	if err := runMatch(p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var parsed struct {
		Mapping   model.MappingResult `json:"mapping"`
		Unmatched []string            `json:"unmatched"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &parsed); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if parsed.Mapping.Mode != model.Optimal {
		t.Errorf("mode = %q, want optimal", parsed.Mapping.Mode)
	}
	// g1 (5.0 vs 5.1) and g2 (-3.0 vs -2.9) fit within 0.15; g3 does not.
	if len(parsed.Unmatched) != 1 || parsed.Unmatched[0] != "g3" {
		t.Errorf("unmatched = %v, want [g3]", parsed.Unmatched)
	}
}

func TestRunMatch_MissingFile(t *testing.T) {
	p, _, _ := newMatchParams(t, deseqTable)
	p.target = filepath.Join(t.TempDir(), "missing.tsv")
	err := runMatch(p)
	var le *model.LoadError
	if !errors.As(err, &le) {
		t.Fatalf("expected LoadError, got %v", err)
	}
	if le.Path != p.target {
		t.Errorf("LoadError.Path = %q, want %q", le.Path, p.target)
	}
}

// ---------------------------------------------------------------------------
// loadConfig tests
// ---------------------------------------------------------------------------

func TestLoadConfig_OverridesFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "lfcmap.yaml", "match:\n  mode: optimal\n")
	o := config.NoOverrides()
	o.Mode = "nearest"
	half := 0.5
	o.Tolerance = &half
	cfg, err := loadConfig(path, o)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Match.Mode != "nearest" {
		t.Errorf("mode = %q, want nearest", cfg.Match.Mode)
	}
	if cfg.Match.Tolerance == nil || *cfg.Match.Tolerance != 0.5 {
		t.Errorf("tolerance = %v, want 0.5", cfg.Match.Tolerance)
	}
}

func TestLoadConfig_BadFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "lfcmap.yaml", "colour: blue\n")
	_, err := loadConfig(path, config.NoOverrides())
	if err == nil || !strings.Contains(err.Error(), "config file") {
		t.Errorf("expected config file error, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// runBatch tests
// ---------------------------------------------------------------------------

func writeManifest(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "paper.csv", paperTable)
	writeFile(t, dir, "deseq.tsv", deseqTable)
	return writeFile(t, dir, "batch.yaml", `pairs:
  - name: good
    source: paper.csv
    target: deseq.tsv
  - name: broken
    source: paper.csv
    target: missing.tsv
`)
}

func TestRunBatch_TextFormat(t *testing.T) {
	var stdout bytes.Buffer
	err := runBatch(batchParams{
		ctx:         context.Background(),
		manifest:    writeManifest(t),
		configPath:  writeFile(t, t.TempDir(), "empty.yaml", ""),
		concurrency: 2,
		format:      "text",
		stdout:      &stdout,
		stderr:      &bytes.Buffer{},
	})
	if err == nil || !strings.Contains(err.Error(), "1 of 2 pair(s) failed") {
		t.Fatalf("expected one failed pair, got %v", err)
	}
	out := stdout.String()
	for _, want := range []string{"good", "broken", "2 pair(s) processed, 1 failed"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestRunBatch_JSONFormat(t *testing.T) {
	var stdout bytes.Buffer
	_ = runBatch(batchParams{
		manifest:   writeManifest(t),
		configPath: writeFile(t, t.TempDir(), "empty.yaml", ""),
		format:     "json",
		stdout:     &stdout,
		stderr:     &bytes.Buffer{},
	})

	var parsed report.BatchReport
	if err := json.Unmarshal(stdout.Bytes(), &parsed); err != nil {
		t.Fatalf("output is not valid JSON: %v\noutput:\n%s", err, stdout.String())
	}
	if parsed.Failed != 1 || len(parsed.Results) != 2 {
		t.Fatalf("failed = %d, results = %d", parsed.Failed, len(parsed.Results))
	}
	if parsed.Results[0].Name != "good" || parsed.Results[0].Report == nil {
		t.Errorf("first result = %+v, want a report for 'good'", parsed.Results[0])
	}
	if parsed.Results[1].Name != "broken" || parsed.Results[1].Error == "" {
		t.Errorf("second result = %+v, want an error for 'broken'", parsed.Results[1])
	}
}

func TestRunBatch_InvalidFormat(t *testing.T) {
	err := runBatch(batchParams{
		manifest: "batch.yaml",
		format:   "markdown",
		stdout:   &bytes.Buffer{},
		stderr:   &bytes.Buffer{},
	})
	if err == nil || !strings.Contains(err.Error(), `invalid format "markdown"`) {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRunBatch_MissingManifest(t *testing.T) {
	err := runBatch(batchParams{format: "text", stdout: &bytes.Buffer{}, stderr: &bytes.Buffer{}})
	if err == nil || !strings.Contains(err.Error(), "--manifest is required") {
		t.Errorf("unexpected error: %v", err)
	}
}

// ---------------------------------------------------------------------------
// command wiring tests
// ---------------------------------------------------------------------------

func TestSchemaCmd(t *testing.T) {
	tests := []struct {
		args []string
		id   string
	}{
		{[]string{"schema"}, report.SchemaID},
		{[]string{"schema", "--batch"}, report.BatchSchemaID},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			var stdout bytes.Buffer
			root := newRootCmd()
			root.SetArgs(tt.args)
			root.SetOut(&stdout)
			if err := root.Execute(); err != nil {
				t.Fatalf("Execute: %v", err)
			}
			var parsed map[string]interface{}
			if err := json.Unmarshal(stdout.Bytes(), &parsed); err != nil {
				t.Fatalf("schema is not valid JSON: %v", err)
			}
			if parsed["$id"] != tt.id {
				t.Errorf("$id = %v, want %s", parsed["$id"], tt.id)
			}
		})
	}
}

func TestInitCmd(t *testing.T) {
	dir := t.TempDir()
	var stdout bytes.Buffer
	root := newRootCmd()
	root.SetArgs([]string{"init", "--dir", dir})
	root.SetOut(&stdout)
	if err := root.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if _, err := config.Load(filepath.Join(dir, config.FileName)); err != nil {
		t.Errorf("scaffolded config does not load: %v", err)
	}
	if !strings.Contains(stdout.String(), "created: "+config.FileName) {
		t.Errorf("expected created summary, got:\n%s", stdout.String())
	}
}

func TestMatchCmd_NegativeTolerance(t *testing.T) {
	src, tgt := tables(t, deseqTable)
	root := newRootCmd()
	root.SetArgs([]string{"match", "-q", "-s", src, "-t", tgt,
		"--config", writeFile(t, t.TempDir(), "empty.yaml", ""),
		"--tolerance", "-0.5"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "invalid tolerance -0.5") {
		t.Errorf("expected tolerance error, got %v", err)
	}
}

func TestMatchCmd_Flags(t *testing.T) {
	src, tgt := tables(t, deseqTable)
	var stdout bytes.Buffer
	root := newRootCmd()
	root.SetArgs([]string{"match", "-q", "-s", src, "-t", tgt,
		"--config", writeFile(t, t.TempDir(), "empty.yaml", ""),
		"--format", "json", "--tolerance", "0.15", "--unique"})
	root.SetOut(&stdout)
	root.SetErr(&bytes.Buffer{})
	if err := root.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	var parsed struct {
		Mapping model.MappingResult `json:"mapping"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &parsed); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if parsed.Mapping.Tolerance == nil || *parsed.Mapping.Tolerance != 0.15 {
		t.Errorf("tolerance = %v, want 0.15", parsed.Mapping.Tolerance)
	}
	if parsed.Mapping.Len() != 2 {
		t.Errorf("mapped %d, want 2", parsed.Mapping.Len())
	}
}

func TestMatchCmd_RowsDefault(t *testing.T) {
	cmd, _, err := newRootCmd().Find([]string{"match"})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	f := cmd.Flags().Lookup("rows")
	if f == nil {
		t.Fatal("rows flag not registered")
	}
	want := strconv.Itoa(report.DefaultTextOptions().MaxRows)
	if f.DefValue != want {
		t.Errorf("rows default = %s, want %s", f.DefValue, want)
	}
}
