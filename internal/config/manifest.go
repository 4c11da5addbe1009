package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/unbound-force/lfcmap/internal/pipeline"
)

// Pair is one source/target comparison in a batch manifest. Unset
// fields inherit from the base configuration.
type Pair struct {
	Name   string `yaml:"name"`
	Source string `yaml:"source"`
	Target string `yaml:"target"`

	SourceColumns Columns `yaml:"source_columns,omitempty"`
	TargetColumns Columns `yaml:"target_columns,omitempty"`

	Mode          string   `yaml:"mode,omitempty"`
	Tolerance     *float64 `yaml:"tolerance,omitempty"`
	AutoDirection *bool    `yaml:"auto_direction,omitempty"`
}

// Manifest lists the pairs of a batch run.
type Manifest struct {
	Pairs []Pair `yaml:"pairs"`
}

// LoadManifest reads a batch manifest. Relative table paths are
// resolved against the manifest's directory and unnamed pairs are
// named pair-1, pair-2, and so on.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}
	var m Manifest
	if err := decodeStrict(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	if len(m.Pairs) == 0 {
		return nil, fmt.Errorf("manifest %s lists no pairs", path)
	}

	dir := filepath.Dir(path)
	seen := make(map[string]bool, len(m.Pairs))
	for i := range m.Pairs {
		p := &m.Pairs[i]
		if p.Name == "" {
			p.Name = fmt.Sprintf("pair-%d", i+1)
		}
		if seen[p.Name] {
			return nil, fmt.Errorf("manifest %s: duplicate pair name %q", path, p.Name)
		}
		seen[p.Name] = true
		if p.Source == "" || p.Target == "" {
			return nil, fmt.Errorf("manifest %s: pair %q needs both source and target", path, p.Name)
		}
		p.Source = resolve(dir, p.Source)
		p.Target = resolve(dir, p.Target)
	}
	return &m, nil
}

func resolve(dir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

// Jobs converts the manifest into pipeline jobs using base for every
// setting a pair leaves unset.
func (m *Manifest) Jobs(base *Config) ([]pipeline.Job, error) {
	jobs := make([]pipeline.Job, 0, len(m.Pairs))
	for _, p := range m.Pairs {
		cfg := *base
		setString(&cfg.Source.ID, p.SourceColumns.ID)
		setString(&cfg.Source.Score, p.SourceColumns.Score)
		setString(&cfg.Target.ID, p.TargetColumns.ID)
		setString(&cfg.Target.Score, p.TargetColumns.Score)
		setString(&cfg.Match.Mode, p.Mode)
		if p.Tolerance != nil {
			cfg.Match.Tolerance = p.Tolerance
		}
		if p.AutoDirection != nil {
			cfg.Match.AutoDirection = *p.AutoDirection
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("pair %q: %w", p.Name, err)
		}

		opts, err := cfg.PipelineOptions(p.Source, p.Target)
		if err != nil {
			return nil, fmt.Errorf("pair %q: %w", p.Name, err)
		}
		jobs = append(jobs, pipeline.Job{Name: p.Name, Options: opts})
	}
	return jobs, nil
}
