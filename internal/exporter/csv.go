package exporter

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/chadallison/running-st/internal/errors"
)

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{logger: logger.With(slog.String("component", "csv_writer"))}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteTable writes headers and rows of t to w.
func (cw *CSVWriter) WriteTable(w io.Writer, t Table, options WriteOptions) error {
	if options.BOMPrefix {
		if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(t.Headers); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	record := make([]string, len(t.Headers))
	for i, row := range t.Rows {
		for j, cell := range row {
			record[j] = formatCell(cell)
		}
		if err := writer.Write(record[:len(row)]); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteFile writes t to path, creating parent directories.
func (cw *CSVWriter) WriteFile(path string, t Table, options WriteOptions) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.NewStorageError("failed to create directory", err).WithContext("path", path)
	}

	file, err := os.Create(path)
	if err != nil {
		return errors.NewStorageError("failed to create file", err).WithContext("path", path)
	}

	if err := cw.WriteTable(file, t, options); err != nil {
		file.Close()
		return errors.NewStorageError("failed to write CSV", err).WithContext("path", path)
	}
	if err := file.Close(); err != nil {
		return errors.NewStorageError("failed to close file", err).WithContext("path", path)
	}
	return nil
}

// ExportDir writes each table to dir/<name>.csv and returns the written paths.
func (cw *CSVWriter) ExportDir(ctx context.Context, dir string, tables []Table, options WriteOptions) ([]string, error) {
	paths := make([]string, 0, len(tables))
	for _, t := range tables {
		if err := ctx.Err(); err != nil {
			return paths, err
		}
		path := filepath.Join(dir, t.Name+".csv")
		if err := cw.WriteFile(path, t, options); err != nil {
			return paths, err
		}
		cw.logger.InfoContext(ctx, "Wrote CSV table",
			slog.String("table", t.Name),
			slog.String("path", path),
			slog.Int("record_count", len(t.Rows)))
		paths = append(paths, path)
	}
	return paths, nil
}
