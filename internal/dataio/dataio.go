// Package dataio imports and exports operator profiles as CSV, JSON and
// XLSX. Header names are matched against English and Chinese aliases.
package dataio

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/udisondev/opdps/internal/model"
)

// Format is a supported file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
)

// ParseFormat resolves a format name or file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "csv", "txt":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "xlsx", "xlsm", "excel":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("unsupported format %q", s)
}

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}

// RowError is a problem with one imported record. Row is 1-based and counts
// the header for tabular formats; for JSON it is the array index plus one.
type RowError struct {
	Row int
	Err error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e RowError) Unwrap() error {
	return e.Err
}

// Result holds the records that parsed and the rows that did not.
// Malformed rows never reach Records.
type Result struct {
	Records []model.OperatorRecord
	Errors  []RowError
}

// Status summarizes the import for the import log.
func (r Result) Status() string {
	switch {
	case len(r.Errors) == 0:
		return model.ImportSuccess
	case len(r.Records) == 0:
		return model.ImportFailed
	default:
		return model.ImportPartial
	}
}

// ErrorSummary joins the row errors into one message.
func (r Result) ErrorSummary() string {
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// Import parses operators from r. A returned error means the input as a
// whole could not be read; per-record problems are reported in Result.Errors.
func Import(r io.Reader, f Format) (Result, error) {
	switch f {
	case FormatCSV:
		return ReadCSV(r)
	case FormatJSON:
		return ReadJSON(r)
	case FormatXLSX:
		return ReadXLSX(r)
	}
	return Result{}, fmt.Errorf("unsupported format %q", f)
}

// ImportFile imports a file, choosing the format by extension.
func ImportFile(path string) (Result, Format, error) {
	f, err := FormatOf(path)
	if err != nil {
		return Result{}, "", err
	}
	fh, err := os.Open(path)
	if err != nil {
		return Result{}, f, fmt.Errorf("opening %s: %w", path, err)
	}
	defer fh.Close()

	res, err := Import(fh, f)
	if err != nil {
		return Result{}, f, fmt.Errorf("importing %s: %w", path, err)
	}
	return res, f, nil
}

// Export writes recs to w in format f.
func Export(w io.Writer, f Format, recs []model.OperatorRecord) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, recs)
	case FormatJSON:
		return WriteJSON(w, recs)
	case FormatXLSX:
		return WriteXLSX(w, recs)
	}
	return fmt.Errorf("unsupported format %q", f)
}

// ExportFile writes recs to path, choosing the format by extension.
func ExportFile(path string, recs []model.OperatorRecord) error {
	f, err := FormatOf(path)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := Export(&buf, f, recs); err != nil {
		return fmt.Errorf("exporting %s: %w", path, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Template returns a single sample record for users to fill in.
func Template() []model.OperatorRecord {
	return []model.OperatorRecord{{
		Profile: model.OperatorProfile{
			Name:           "Sample",
			Class:          "sniper",
			DamageType:     model.DamagePhysical,
			Attack:         500,
			AttackInterval: DefaultAttackInterval,
			HP:             1000,
			Defense:        100,
			Cost:           15,
			BlockCount:     DefaultBlockCount,
		},
	}}
}
