package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/unbound-force/lfcmap/internal/model"
)

// MappingHeader is the header row of a mapping table.
var MappingHeader = []string{"source_id", "source_lfc", "target_id", "target_lfc", "distance"}

// WriteMapping writes the mapping entries as a delimited table with
// MappingHeader. Scores are written with full precision.
func WriteMapping(w io.Writer, m *model.MappingResult, delim rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = delim

	if err := cw.Write(MappingHeader); err != nil {
		return err
	}
	if m != nil {
		for _, e := range m.Entries {
			rec := []string{
				e.SourceID,
				formatFloat(e.SourceScore),
				e.TargetID,
				formatFloat(e.TargetScore),
				formatFloat(e.Distance),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteMappingFile writes the mapping to path, tab-separated for
// .tsv, .tab, and .txt files and comma-separated otherwise.
func WriteMappingFile(path string, m *model.MappingResult) (err error) {
	delim := ','
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tsv", ".tab", ".txt":
		delim = '\t'
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating mapping file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing mapping file: %w", cerr)
		}
	}()

	if err := WriteMapping(f, m, delim); err != nil {
		return fmt.Errorf("writing mapping file: %w", err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
