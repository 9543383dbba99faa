package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/udisondev/opdps/internal/dataio"
	"github.com/udisondev/opdps/internal/model"
)

// ImportSummary reports the outcome of one import.
type ImportSummary struct {
	ID       int64    `json:"id"`
	Format   string   `json:"format"`
	FileName string   `json:"file_name"`
	Imported int      `json:"imported"`
	Status   string   `json:"status"`
	Errors   []string `json:"errors,omitempty"`
}

// Import parses operators from r and upserts them by name. Rows that fail
// to parse or validate are skipped and reported; the rest are stored. The
// outcome is written to the import log even when nothing was imported.
func (c *Calculator) Import(ctx context.Context, r io.Reader, format dataio.Format, fileName string) (ImportSummary, error) {
	summary := ImportSummary{Format: string(format), FileName: fileName}

	res, err := dataio.Import(r, format)
	if err != nil {
		summary.Status = model.ImportFailed
		summary.Errors = []string{err.Error()}
		if logErr := c.logImport(ctx, &summary); logErr != nil {
			slog.Error("recording failed import", "file", fileName, "error", logErr)
		}
		return summary, fmt.Errorf("importing %s: %w", fileName, err)
	}

	for _, e := range res.Errors {
		summary.Errors = append(summary.Errors, e.Error())
	}
	for _, rec := range res.Records {
		if err := validateRecord(rec); err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("operator %q: %v", rec.Profile.Name, err))
			continue
		}
		if _, err := c.operators.Upsert(ctx, rec); err != nil {
			return summary, fmt.Errorf("storing operator %q: %w", rec.Profile.Name, err)
		}
		summary.Imported++
	}

	switch {
	case len(summary.Errors) == 0:
		summary.Status = model.ImportSuccess
	case summary.Imported == 0:
		summary.Status = model.ImportFailed
	default:
		summary.Status = model.ImportPartial
	}

	if err := c.logImport(ctx, &summary); err != nil {
		return summary, err
	}
	slog.Info("import finished",
		"file", fileName,
		"format", format,
		"imported", summary.Imported,
		"errors", len(summary.Errors),
		"status", summary.Status)
	return summary, nil
}

func (c *Calculator) logImport(ctx context.Context, s *ImportSummary) error {
	id, err := c.imports.Insert(ctx, model.ImportRecord{
		Format:       s.Format,
		FileName:     s.FileName,
		RecordCount:  s.Imported,
		Status:       s.Status,
		ErrorMessage: strings.Join(s.Errors, "; "),
	})
	if err != nil {
		return fmt.Errorf("recording import: %w", err)
	}
	s.ID = id
	return nil
}

// Export writes the stored operators of class ("" for all) to w.
func (c *Calculator) Export(ctx context.Context, w io.Writer, format dataio.Format, class string) (int, error) {
	recs, err := c.operators.List(ctx, class)
	if err != nil {
		return 0, err
	}
	if err := dataio.Export(w, format, recs); err != nil {
		return 0, fmt.Errorf("exporting operators: %w", err)
	}
	return len(recs), nil
}
