// Package config loads the .lfcmap.yaml project file and batch
// manifests, and turns them into pipeline options.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/unbound-force/lfcmap/internal/loader"
	"github.com/unbound-force/lfcmap/internal/match"
	"github.com/unbound-force/lfcmap/internal/model"
	"github.com/unbound-force/lfcmap/internal/pipeline"
	"github.com/unbound-force/lfcmap/internal/quality"
)

// FileName is the project configuration file looked up in the working
// directory.
const FileName = ".lfcmap.yaml"

// Output formats accepted by the match and batch commands.
var Formats = []string{"text", "json", "markdown"}

// Columns names the identifier and score columns of one table. Empty
// fields fall back to the loader defaults.
type Columns struct {
	ID    string `yaml:"id,omitempty"`
	Score string `yaml:"score,omitempty"`
}

// MatchConfig selects the solver.
type MatchConfig struct {
	Mode          string   `yaml:"mode"`
	Tolerance     *float64 `yaml:"tolerance,omitempty"`
	AutoDirection bool     `yaml:"auto_direction"`
}

// QualityConfig holds grading settings.
type QualityConfig struct {
	Thresholds quality.Thresholds `yaml:"thresholds"`

	// MinGrade makes the match command fail when the mapping grades
	// below it. Empty disables the gate.
	MinGrade string `yaml:"min_grade,omitempty"`
}

// OutputConfig holds report settings.
type OutputConfig struct {
	Format string `yaml:"format"`
}

// Config is the contents of .lfcmap.yaml.
type Config struct {
	Source  Columns       `yaml:"source"`
	Target  Columns       `yaml:"target"`
	Match   MatchConfig   `yaml:"match"`
	Quality QualityConfig `yaml:"quality"`
	Output  OutputConfig  `yaml:"output"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Match:   MatchConfig{Mode: string(model.Nearest)},
		Quality: QualityConfig{Thresholds: quality.DefaultThresholds()},
		Output:  OutputConfig{Format: "text"},
	}
}

// Find returns the path of FileName in dir, or "" if there is none.
func Find(dir string) string {
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// Load reads the configuration at path over the defaults. An empty
// path returns the defaults. Keys missing from the file keep their
// default values; unknown keys are an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := decodeStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

func decodeStrict(data []byte, v any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate checks every field for a usable value.
func (c *Config) Validate() error {
	if _, err := model.ParseMode(c.Match.Mode); err != nil {
		return err
	}
	if err := checkTolerance(c.Match.Tolerance); err != nil {
		return err
	}
	if err := c.Quality.Thresholds.Validate(); err != nil {
		return err
	}
	if c.Quality.MinGrade != "" {
		if _, ok := quality.ParseGrade(c.Quality.MinGrade); !ok {
			return fmt.Errorf("invalid min_grade %q: must be excellent, good, acceptable, or poor",
				c.Quality.MinGrade)
		}
	}
	if !validFormat(c.Output.Format) {
		return fmt.Errorf("invalid format %q: must be 'text', 'json', or 'markdown'", c.Output.Format)
	}
	return nil
}

func checkTolerance(tol *float64) error {
	if tol == nil {
		return nil
	}
	if math.IsNaN(*tol) || *tol < 0 {
		return fmt.Errorf("invalid tolerance %v: must be >= 0", *tol)
	}
	return nil
}

func validFormat(f string) bool {
	for _, v := range Formats {
		if f == v {
			return true
		}
	}
	return false
}

// Overrides are command-line values applied on top of a Config.
// Empty strings and a nil Tolerance mean "not set".
type Overrides struct {
	SourceID    string
	SourceScore string
	TargetID    string
	TargetScore string

	Mode          string
	Tolerance     *float64
	AutoDirection bool

	MinGrade string
	Format   string
}

// NoOverrides returns Overrides that leave a Config unchanged.
func NoOverrides() Overrides {
	return Overrides{}
}

// Apply copies every set override into c and validates the result.
// AutoDirection can only be switched on from the command line.
func (c *Config) Apply(o Overrides) error {
	setString(&c.Source.ID, o.SourceID)
	setString(&c.Source.Score, o.SourceScore)
	setString(&c.Target.ID, o.TargetID)
	setString(&c.Target.Score, o.TargetScore)
	setString(&c.Match.Mode, o.Mode)
	setString(&c.Quality.MinGrade, o.MinGrade)
	setString(&c.Output.Format, o.Format)
	if o.Tolerance != nil {
		tol := *o.Tolerance
		c.Match.Tolerance = &tol
	}
	if o.AutoDirection {
		c.Match.AutoDirection = true
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid flag value: %w", err)
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// PipelineOptions builds the options for matching source against
// target with this configuration.
func (c *Config) PipelineOptions(source, target string) (pipeline.Options, error) {
	mode, err := model.ParseMode(c.Match.Mode)
	if err != nil {
		return pipeline.Options{}, err
	}
	var tol *float64
	if c.Match.Tolerance != nil {
		v := *c.Match.Tolerance
		tol = &v
	}
	return pipeline.Options{
		SourcePath:    source,
		TargetPath:    target,
		Source:        loader.Options{IDColumn: c.Source.ID, ScoreColumn: c.Source.Score},
		Target:        loader.Options{IDColumn: c.Target.ID, ScoreColumn: c.Target.Score},
		Match:         match.Options{Mode: mode, Tolerance: tol},
		AutoDirection: c.Match.AutoDirection,
		Quality:       quality.Options{Thresholds: c.Quality.Thresholds},
	}, nil
}

// MinGrade returns the configured grade gate, or "" when unset.
func (c *Config) MinGrade() quality.Grade {
	g, _ := quality.ParseGrade(c.Quality.MinGrade)
	return g
}
