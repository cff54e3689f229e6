package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"NewsLabeler/internal/ports"
)

// JSONReportWriter writes an indented JSON document to a file.
type JSONReportWriter struct {
	path string
}

var _ ports.ReportWriter = (*JSONReportWriter)(nil)

// NewJSONReportWriter targets path.
func NewJSONReportWriter(path string) *JSONReportWriter {
	return &JSONReportWriter{path: path}
}

// WriteReport replaces the file atomically.
func (w *JSONReportWriter) WriteReport(ctx context.Context, report any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	tmp := w.path + ".tmp"
	if err := os.WriteFile(tmp, append(raw, '\n'), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if err := os.Rename(tmp, w.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("publish report: %w", err)
	}
	return nil
}
