// Package loader reads delimited gene tables (DEG exports from
// DESeq2, edgeR, supplementary tables) into score sets.
//
// Rows with an empty identifier or a score that is not a finite
// number are dropped and counted; only structural problems (unreadable
// file, broken quoting, missing columns) fail the load.
package loader

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/unbound-force/lfcmap/internal/model"
)

// Column names tried, case-insensitively, when Options leaves a column
// unset.
var (
	DefaultIDColumns    = []string{"gene_id", "identifier"}
	DefaultScoreColumns = []string{"lfc", "log2FoldChange"}
)

// ErrUnsupportedFormat is wrapped in the LoadError for spreadsheet
// files, which must be exported to CSV or TSV first.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Options selects the columns and delimiter of a table.
type Options struct {
	// IDColumn is the identifier column name. Empty tries
	// DefaultIDColumns.
	IDColumn string

	// ScoreColumn is the log2 fold-change column name. Empty tries
	// DefaultScoreColumns.
	ScoreColumn string

	// Delimiter is the field separator. Zero picks one from the file
	// extension, or sniffs the header line.
	Delimiter rune
}

// Stats counts what happened to the data rows of a table.
type Stats struct {
	// Rows is the number of data rows read (header excluded).
	Rows int `json:"rows"`

	// Loaded is the number of rows that became records.
	Loaded int `json:"loaded"`

	// DroppedEmptyID counts rows without an identifier.
	DroppedEmptyID int `json:"dropped_empty_id"`

	// DroppedBadScore counts rows whose score was missing, not a
	// number, NaN, or infinite.
	DroppedBadScore int `json:"dropped_bad_score"`
}

// Dropped returns the total number of dropped rows.
func (s Stats) Dropped() int { return s.DroppedEmptyID + s.DroppedBadScore }

// Result holds a loaded score set with load statistics.
type Result struct {
	Set   model.ScoreSet
	Stats Stats

	// IDColumn and ScoreColumn are the header names actually used.
	IDColumn    string
	ScoreColumn string
}

// Load reads the table at path. Failures are returned as
// *model.LoadError.
func Load(path string, opts Options) (*Result, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".xlsx" || ext == ".xls" {
		return nil, &model.LoadError{
			Path: path,
			Err:  fmt.Errorf("%w %q: export the sheet to CSV or TSV", ErrUnsupportedFormat, ext),
		}
	}
	if opts.Delimiter == 0 {
		opts.Delimiter = delimiterForExt(ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &model.LoadError{Path: path, Err: err}
	}
	defer f.Close()

	return Read(f, path, opts)
}

// Read parses a table from r. name labels the resulting set and any
// error.
func Read(r io.Reader, name string, opts Options) (*Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &model.LoadError{Path: name, Err: err}
	}
	data = bytes.TrimPrefix(data, []byte("\ufeff"))

	delim := opts.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(data)
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = delim
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &model.LoadError{Path: name, Err: errors.New("no header row")}
	}
	if err != nil {
		return nil, &model.LoadError{Path: name, Err: err}
	}

	idCol, idName, err := resolveColumn(header, opts.IDColumn, DefaultIDColumns, "identifier")
	if err != nil {
		return nil, &model.LoadError{Path: name, Err: err}
	}
	scoreCol, scoreName, err := resolveColumn(header, opts.ScoreColumn, DefaultScoreColumns, "score")
	if err != nil {
		return nil, &model.LoadError{Path: name, Err: err}
	}

	res := &Result{
		Set:         model.ScoreSet{Name: name},
		IDColumn:    idName,
		ScoreColumn: scoreName,
	}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &model.LoadError{Path: name, Err: err}
		}
		res.Stats.Rows++

		id := field(rec, idCol)
		if id == "" {
			res.Stats.DroppedEmptyID++
			continue
		}
		score, ok := parseScore(field(rec, scoreCol))
		if !ok {
			res.Stats.DroppedBadScore++
			continue
		}
		res.Set.Records = append(res.Set.Records, model.ScoreRecord{ID: id, Score: score})
	}
	res.Stats.Loaded = len(res.Set.Records)

	return res, nil
}

// parseScore converts a cell to a finite float64.
func parseScore(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func field(rec []string, col int) string {
	if col >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[col])
}

// resolveColumn finds want (or the first matching default) in header,
// ignoring case and surrounding whitespace.
func resolveColumn(header []string, want string, defaults []string, role string) (int, string, error) {
	candidates := defaults
	if want != "" {
		candidates = []string{want}
	}
	for _, c := range candidates {
		for i, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), strings.TrimSpace(c)) {
				return i, strings.TrimSpace(h), nil
			}
		}
	}
	available := make([]string, len(header))
	for i, h := range header {
		available[i] = strings.TrimSpace(h)
	}
	return 0, "", fmt.Errorf("%s column %s not found (available: %s)",
		role, quoteAll(candidates), strings.Join(available, ", "))
}

func quoteAll(names []string) string {
	q := make([]string, len(names))
	for i, n := range names {
		q[i] = strconv.Quote(n)
	}
	return strings.Join(q, " or ")
}

func delimiterForExt(ext string) rune {
	switch ext {
	case ".tsv", ".tab", ".txt":
		return '\t'
	case ".csv":
		return ','
	default:
		return 0
	}
}

// sniffDelimiter picks the most frequent of tab, comma and semicolon
// in the first line. Ties and lines with none of them give a comma.
func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	best, bestCount := ',', bytes.Count(line, []byte{','})
	for _, d := range []rune{'\t', ';'} {
		if c := bytes.Count(line, []byte(string(d))); c > bestCount {
			best, bestCount = d, c
		}
	}
	return best
}
