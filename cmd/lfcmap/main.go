package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/unbound-force/lfcmap/internal/config"
	"github.com/unbound-force/lfcmap/internal/loader"
	"github.com/unbound-force/lfcmap/internal/model"
	"github.com/unbound-force/lfcmap/internal/pipeline"
	"github.com/unbound-force/lfcmap/internal/quality"
	"github.com/unbound-force/lfcmap/internal/report"
	"github.com/unbound-force/lfcmap/internal/scaffold"
)

// logger is the application-wide structured logger (writes to stderr).
var logger = charmlog.NewWithOptions(os.Stderr, charmlog.Options{
	ReportTimestamp: false,
})

// Set by build flags.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var quiet bool

	root := &cobra.Command{
		Use:   "lfcmap",
		Short: "lfcmap: map gene identifiers across annotations by fold-change",
		Long: `lfcmap resolves gene identifiers between two differential-expression
tables that use incompatible annotations. Each gene's log2 fold-change
is treated as a fingerprint and genes are paired by numeric proximity,
either nearest-neighbor or by optimal one-to-one assignment. A quality
report tells whether the mapping can be trusted.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if quiet {
				logger.SetLevel(charmlog.WarnLevel)
			}
		},
	}
	root.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false,
		"only log warnings and errors")

	root.AddCommand(newMatchCmd())
	root.AddCommand(newBatchCmd())
	root.AddCommand(newSchemaCmd())
	root.AddCommand(newInitCmd())

	return root
}

// loadConfig reads the configuration file (or .lfcmap.yaml in the
// working directory when path is empty) and applies command-line
// overrides on top of it.
func loadConfig(path string, o config.Overrides) (*config.Config, error) {
	if path == "" {
		if cwd, err := os.Getwd(); err == nil {
			path = config.Find(cwd)
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Apply(o); err != nil {
		return nil, err
	}
	return cfg, nil
}

// matchParams holds the parsed flags for the match command.
type matchParams struct {
	source      string
	target      string
	configPath  string
	overrides   config.Overrides
	unique      bool
	output      string
	maxRows     int
	interactive bool
	stdout      io.Writer
	stderr      io.Writer
}

// runMatch is the extracted, testable body of the match command.
func runMatch(p matchParams) error {
	if p.source == "" || p.target == "" {
		return errors.New("both --source and --target are required")
	}
	if p.unique {
		if p.overrides.Mode != "" {
			m, err := model.ParseMode(p.overrides.Mode)
			if err != nil {
				return err
			}
			if m != model.Optimal {
				return fmt.Errorf("--unique conflicts with --mode %s", p.overrides.Mode)
			}
		}
		p.overrides.Mode = string(model.Optimal)
	}

	cfg, err := loadConfig(p.configPath, p.overrides)
	if err != nil {
		return err
	}
	opts, err := cfg.PipelineOptions(p.source, p.target)
	if err != nil {
		return err
	}

	logger.Info("matching", "source", p.source, "target", p.target,
		"mode", opts.Match.Mode, "auto_direction", opts.AutoDirection)
	out, err := pipeline.Run(opts)
	if err != nil {
		return err
	}
	logOutcome(out)

	if p.output != "" {
		if err := report.WriteMappingFile(p.output, out.Mapping); err != nil {
			return err
		}
		logger.Info("mapping written", "path", p.output, "pairs", out.Mapping.Len())
	}

	if p.interactive {
		if err := runInteractiveMatch(out); err != nil {
			return err
		}
	} else if err := writeMatchReport(p.stdout, cfg.Output.Format, out, p.maxRows); err != nil {
		return err
	}

	minGrade := cfg.MinGrade()
	printGradeSummary(p.stderr, out.Quality.Grade, minGrade)
	return checkGrade(out.Quality.Grade, minGrade)
}

// logOutcome reports load statistics, the direction decision, and
// quality warnings.
func logOutcome(out *pipeline.Outcome) {
	for _, res := range []*loader.Result{out.SourceLoad, out.TargetLoad} {
		if res == nil {
			continue
		}
		logger.Info("loaded table", "path", res.Set.Name, "rows", res.Stats.Rows,
			"records", res.Stats.Loaded)
		if res.Stats.Dropped() > 0 {
			logger.Warn("dropped malformed rows", "path", res.Set.Name,
				"empty_id", res.Stats.DroppedEmptyID, "bad_score", res.Stats.DroppedBadScore)
		}
	}
	if d := out.Direction; d != nil && d.Negate {
		logger.Info("target scores negated", "r_as_is", d.AsIs.R, "r_negated", d.Negated.R)
	}
	if n := len(out.Unmatched); n > 0 {
		logger.Info("source genes left unmatched", "count", n)
	}
	for _, msg := range out.Quality.Warnings {
		logger.Warn(msg)
	}
	logger.Info("match complete", "pairs", out.Mapping.Len(), "grade", out.Quality.Grade)
}

// writeMatchReport outputs one match report in the requested format.
func writeMatchReport(w io.Writer, format string, out *pipeline.Outcome, maxRows int) error {
	opts := report.TextOptions{MaxRows: maxRows}
	switch format {
	case "json":
		return report.WriteJSON(w, out, version)
	case "markdown":
		return report.WriteMarkdown(w, out, opts)
	default:
		return report.WriteText(w, out, opts)
	}
}

// printGradeSummary prints a one-line CI summary to stderr when a
// minimum grade is set.
func printGradeSummary(w io.Writer, got, minGrade quality.Grade) {
	if minGrade == "" {
		return
	}
	status := "PASS"
	if !got.AtLeast(minGrade) {
		status = "FAIL"
	}
	fmt.Fprintf(w, "Grade: %s/%s (%s)\n", got, minGrade, status)
}

// checkGrade returns an error if the grade is below the minimum.
func checkGrade(got, minGrade quality.Grade) error {
	if minGrade != "" && !got.AtLeast(minGrade) {
		return fmt.Errorf("mapping grade %s is below minimum %s", got, minGrade)
	}
	return nil
}

func newMatchCmd() *cobra.Command {
	var (
		p         matchParams
		tolerance float64
	)

	cmd := &cobra.Command{
		Use:   "match",
		Short: "Map source gene identifiers onto target identifiers",
		Long: `Load two gene tables, optionally detect a sign inversion of the
target, pair genes by log2 fold-change, and report the mapping
quality. The full mapping table is written with --output.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("tolerance") {
				p.overrides.Tolerance = &tolerance
			}
			p.stdout = cmd.OutOrStdout()
			p.stderr = cmd.ErrOrStderr()
			return runMatch(p)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&p.source, "source", "s", "", "source table (CSV or TSV)")
	f.StringVarP(&p.target, "target", "t", "", "target table (CSV or TSV)")
	f.StringVar(&p.overrides.SourceID, "source-id-col", "", "identifier column of the source table")
	f.StringVar(&p.overrides.SourceScore, "source-score-col", "", "log2 fold-change column of the source table")
	f.StringVar(&p.overrides.TargetID, "target-id-col", "", "identifier column of the target table")
	f.StringVar(&p.overrides.TargetScore, "target-score-col", "", "log2 fold-change column of the target table")
	f.StringVar(&p.overrides.Mode, "mode", "", "matching mode: nearest or optimal (default from config, else nearest)")
	f.BoolVar(&p.unique, "unique", false, "one-to-one matching (same as --mode optimal)")
	f.Float64Var(&tolerance, "tolerance", 0, "maximum accepted |LFC difference| (default: no limit)")
	f.BoolVar(&p.overrides.AutoDirection, "auto-direction", false, "negate the target when that correlates better")
	f.StringVarP(&p.output, "output", "o", "", "write the mapping table to this file (.csv or .tsv)")
	f.StringVar(&p.overrides.Format, "format", "", "output format: text, json, or markdown")
	f.StringVar(&p.configPath, "config", "", "config file (default: ./"+config.FileName+" if present)")
	f.IntVar(&p.maxRows, "rows", report.DefaultTextOptions().MaxRows,
		"pairs shown in text and markdown reports (0 = all)")
	f.BoolVarP(&p.interactive, "interactive", "i", false, "launch interactive TUI for browsing the mapping")
	f.StringVar(&p.overrides.MinGrade, "min-grade", "", "fail if the grade is below this (excellent, good, acceptable)")

	return cmd
}

// batchParams holds the parsed flags for the batch command.
type batchParams struct {
	ctx         context.Context
	manifest    string
	configPath  string
	concurrency int
	format      string
	stdout      io.Writer
	stderr      io.Writer
}

// runBatch is the extracted, testable body of the batch command.
func runBatch(p batchParams) error {
	if p.format != "text" && p.format != "json" {
		return fmt.Errorf("invalid format %q: must be 'text' or 'json'", p.format)
	}
	if p.manifest == "" {
		return errors.New("--manifest is required")
	}
	if p.ctx == nil {
		p.ctx = context.Background()
	}

	cfg, err := loadConfig(p.configPath, config.NoOverrides())
	if err != nil {
		return err
	}
	m, err := config.LoadManifest(p.manifest)
	if err != nil {
		return err
	}
	jobs, err := m.Jobs(cfg)
	if err != nil {
		return err
	}

	limit := p.concurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	logger.Info("running batch", "pairs", len(jobs), "concurrency", limit)
	results, err := pipeline.Batch(p.ctx, jobs, limit)
	if err != nil {
		return err
	}
	for _, r := range results {
		if r.Err != nil {
			logger.Error("pair failed", "pair", r.Name, "err", r.Err)
			continue
		}
		logger.Info("pair complete", "pair", r.Name,
			"pairs", r.Outcome.Mapping.Len(), "grade", r.Outcome.Quality.Grade)
	}

	switch p.format {
	case "json":
		err = report.WriteBatchJSON(p.stdout, results, version)
	default:
		err = report.WriteBatchText(p.stdout, results)
	}
	if err != nil {
		return err
	}

	if n := pipeline.Failed(results); n > 0 {
		return fmt.Errorf("%d of %d pair(s) failed", n, len(results))
	}
	return nil
}

func newBatchCmd() *cobra.Command {
	var p batchParams

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Match every pair listed in a manifest",
		Long: `Run the match pipeline for every source/target pair listed in a
YAML manifest, several pairs at a time. Settings a pair leaves
unset come from the config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p.ctx = cmd.Context()
			p.stdout = cmd.OutOrStdout()
			p.stderr = cmd.ErrOrStderr()
			return runBatch(p)
		},
	}

	cmd.Flags().StringVarP(&p.manifest, "manifest", "m", "", "batch manifest (YAML)")
	cmd.Flags().StringVar(&p.configPath, "config", "", "config file (default: ./"+config.FileName+" if present)")
	cmd.Flags().IntVarP(&p.concurrency, "concurrency", "j", 0, "pairs processed at once (0 = GOMAXPROCS)")
	cmd.Flags().StringVar(&p.format, "format", "text", "output format: text or json")

	return cmd
}

func newSchemaCmd() *cobra.Command {
	var batch bool

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema for lfcmap JSON output",
		Long: `Print the JSON Schema (Draft 2020-12) that documents the
structure of lfcmap match --format=json output (or, with --batch,
lfcmap batch --format=json). Useful for validating output or
generating client types.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			schema := report.Schema
			if batch {
				schema = report.BatchSchema
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), schema)
			return err
		},
	}
	cmd.Flags().BoolVar(&batch, "batch", false, "print the batch report schema")

	return cmd
}

func newInitCmd() *cobra.Command {
	var (
		force bool
		dir   string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter .lfcmap.yaml and batch manifest",
		Long: `Write a commented .lfcmap.yaml configuration and an example batch
manifest into the project directory. Existing files are kept unless
--force is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := scaffold.Run(scaffold.Options{
				TargetDir: dir,
				Force:     force,
				Version:   version,
				Stdout:    cmd.OutOrStdout(),
			})
			return err
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing files")
	cmd.Flags().StringVar(&dir, "dir", "", "project directory (default: current directory)")

	return cmd
}
