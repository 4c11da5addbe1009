// Package scaffold embeds the starter configuration files and writes
// them to a project directory for lfcmap init.
package scaffold

import (
	"embed"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

//go:embed assets/*
var assets embed.FS

// outputNames maps each embedded asset to the file it is written as.
var outputNames = map[string]string{
	"lfcmap.yaml": ".lfcmap.yaml",
	"batch.yaml":  "lfcmap-batch.yaml",
}

// Options configures the scaffold operation.
type Options struct {
	// TargetDir is the root directory to scaffold into.
	// Defaults to the current working directory.
	TargetDir string

	// Force overwrites existing files when true.
	// When false, existing files are skipped.
	Force bool

	// Version is the lfcmap version string to embed in the
	// version marker comment. Set by ldflags at build time.
	// Defaults to "dev" for development builds.
	Version string

	// Stdout is the writer for summary output.
	// Defaults to os.Stdout.
	Stdout io.Writer
}

// Result reports what the scaffold operation did.
type Result struct {
	// Created lists files that were written for the first time.
	Created []string

	// Skipped lists files that already existed and were not
	// overwritten (Force was false).
	Skipped []string

	// Overwritten lists files that existed and were replaced
	// (Force was true).
	Overwritten []string
}

// versionMarker returns the version marker comment to prepend to
// each scaffolded file.
func versionMarker(version string) string {
	if version == "" {
		version = "dev"
	}
	return fmt.Sprintf("# scaffolded by lfcmap %s\n", version)
}

// Run writes .lfcmap.yaml and an example batch manifest into the
// target directory. Each file is prepended with a version marker
// comment:
//
//	# scaffolded by lfcmap vX.Y.Z
//
// If a file already exists and opts.Force is false, the file is
// skipped. If opts.Force is true, the file is overwritten.
func Run(opts Options) (*Result, error) {
	if opts.TargetDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		opts.TargetDir = cwd
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}

	if err := os.MkdirAll(opts.TargetDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating directory %s: %w", opts.TargetDir, err)
	}

	paths, err := AssetPaths()
	if err != nil {
		return nil, err
	}

	result := &Result{}
	marker := versionMarker(opts.Version)

	for _, rel := range paths {
		name := OutputName(rel)
		outPath := filepath.Join(opts.TargetDir, name)

		_, statErr := os.Stat(outPath)
		exists := statErr == nil

		if exists && !opts.Force {
			result.Skipped = append(result.Skipped, name)
			continue
		}

		content, err := AssetContent(rel)
		if err != nil {
			return nil, fmt.Errorf("reading embedded asset %s: %w", rel, err)
		}

		out := append([]byte(marker), content...)
		if err := os.WriteFile(outPath, out, 0o644); err != nil {
			return nil, fmt.Errorf("creating %s: %w", name, err)
		}

		if exists {
			result.Overwritten = append(result.Overwritten, name)
		} else {
			result.Created = append(result.Created, name)
		}
	}

	printSummary(opts.Stdout, result)

	return result, nil
}

// printSummary writes a human-readable summary of the scaffold
// operation to w.
func printSummary(w io.Writer, r *Result) {
	fmt.Fprintln(w, "lfcmap project initialized:")

	for _, f := range r.Created {
		fmt.Fprintf(w, "  created: %s\n", f)
	}
	for _, f := range r.Skipped {
		fmt.Fprintf(w, "  skipped: %s (already exists)\n", f)
	}
	for _, f := range r.Overwritten {
		fmt.Fprintf(w, "  overwritten: %s\n", f)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Edit .lfcmap.yaml, then run: lfcmap match --source A.csv --target B.tsv")

	if len(r.Skipped) > 0 {
		fmt.Fprintf(w, "%d file(s) skipped (use --force to overwrite).\n", len(r.Skipped))
	}
}

// OutputName returns the file name an asset is written as.
func OutputName(rel string) string {
	if name, ok := outputNames[rel]; ok {
		return name
	}
	return rel
}

// AssetPaths returns the relative paths of all embedded assets in
// lexical order.
func AssetPaths() ([]string, error) {
	var paths []string
	err := fs.WalkDir(assets, "assets", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		paths = append(paths, strings.TrimPrefix(path, "assets/"))
		return nil
	})
	sort.Strings(paths)
	return paths, err
}

// AssetContent returns the raw content of an embedded asset by
// its relative path (e.g., "lfcmap.yaml").
func AssetContent(relPath string) ([]byte, error) {
	return assets.ReadFile("assets/" + relPath)
}
