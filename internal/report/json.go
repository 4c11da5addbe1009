// Package report provides output formatters for lfcmap results: JSON,
// styled terminal text, Markdown, and delimited mapping tables.
package report

import (
	"encoding/json"
	"io"

	"github.com/unbound-force/lfcmap/internal/direction"
	"github.com/unbound-force/lfcmap/internal/loader"
	"github.com/unbound-force/lfcmap/internal/model"
	"github.com/unbound-force/lfcmap/internal/pipeline"
	"github.com/unbound-force/lfcmap/internal/quality"
)

// TableInfo describes one loaded input table.
type TableInfo struct {
	Path        string `json:"path"`
	IDColumn    string `json:"id_column"`
	ScoreColumn string `json:"score_column"`
	loader.Stats
}

// JSONReport is the top-level JSON output of the match command.
type JSONReport struct {
	Version   string               `json:"version"`
	Source    *TableInfo           `json:"source,omitempty"`
	Target    *TableInfo           `json:"target,omitempty"`
	Direction *direction.Decision  `json:"direction,omitempty"`
	Mapping   *model.MappingResult `json:"mapping"`
	Unmatched []string             `json:"unmatched"`
	Quality   *quality.Report      `json:"quality"`
}

// NewJSONReport flattens a pipeline outcome for serialization.
func NewJSONReport(out *pipeline.Outcome, version string) *JSONReport {
	r := &JSONReport{
		Version:   version,
		Source:    tableInfo(out.SourceLoad),
		Target:    tableInfo(out.TargetLoad),
		Direction: out.Direction,
		Mapping:   out.Mapping,
		Unmatched: out.Unmatched,
		Quality:   out.Quality,
	}
	if r.Unmatched == nil {
		r.Unmatched = []string{}
	}
	return r
}

func tableInfo(res *loader.Result) *TableInfo {
	if res == nil {
		return nil
	}
	return &TableInfo{
		Path:        res.Set.Name,
		IDColumn:    res.IDColumn,
		ScoreColumn: res.ScoreColumn,
		Stats:       res.Stats,
	}
}

// WriteJSON writes one pipeline outcome as formatted JSON.
func WriteJSON(w io.Writer, out *pipeline.Outcome, version string) error {
	return encode(w, NewJSONReport(out, version))
}

// BatchEntry is one job in the batch JSON output. Exactly one of
// Error and Report is set.
type BatchEntry struct {
	Name   string      `json:"name"`
	Error  string      `json:"error,omitempty"`
	Report *JSONReport `json:"report,omitempty"`
}

// BatchReport is the top-level JSON output of the batch command.
type BatchReport struct {
	Version string       `json:"version"`
	Failed  int          `json:"failed"`
	Results []BatchEntry `json:"results"`
}

// WriteBatchJSON writes batch results as formatted JSON.
func WriteBatchJSON(w io.Writer, results []pipeline.JobResult, version string) error {
	rpt := BatchReport{
		Version: version,
		Failed:  pipeline.Failed(results),
		Results: make([]BatchEntry, 0, len(results)),
	}
	for _, r := range results {
		e := BatchEntry{Name: r.Name}
		if r.Err != nil {
			e.Error = r.Err.Error()
		} else {
			e.Report = NewJSONReport(r.Outcome, version)
		}
		rpt.Results = append(rpt.Results, e)
	}
	return encode(w, rpt)
}

func encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
