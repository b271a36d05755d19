package exporter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/chadallison/running-st/internal/errors"
)

// XLSXWriter writes report tables into a single workbook, one sheet per table.
type XLSXWriter struct {
	logger *slog.Logger
}

// NewXLSXWriter creates a workbook writer.
func NewXLSXWriter(logger *slog.Logger) *XLSXWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &XLSXWriter{logger: logger.With(slog.String("component", "xlsx_writer"))}
}

// Write builds the workbook and streams it to w.
func (xw *XLSXWriter) Write(ctx context.Context, w io.Writer, tables []Table) error {
	f, err := xw.build(ctx, tables)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return errors.NewStorageError("failed to write workbook", err)
	}
	return nil
}

// SaveAs builds the workbook and saves it to path.
func (xw *XLSXWriter) SaveAs(ctx context.Context, path string, tables []Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.NewStorageError("failed to create directory", err).WithContext("path", path)
	}

	f, err := xw.build(ctx, tables)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return errors.NewStorageError("failed to save workbook", err).WithContext("path", path)
	}

	xw.logger.InfoContext(ctx, "Wrote workbook",
		slog.String("path", path),
		slog.Int("sheets", len(tables)))
	return nil
}

func (xw *XLSXWriter) build(ctx context.Context, tables []Table) (*excelize.File, error) {
	if len(tables) == 0 {
		return nil, errors.NewAppValidationError("no tables to export")
	}

	f := excelize.NewFile()
	defaultSheet := f.GetSheetName(0)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		f.Close()
		return nil, errors.NewStorageError("failed to create header style", err)
	}

	for _, t := range tables {
		if err := ctx.Err(); err != nil {
			f.Close()
			return nil, err
		}
		if err := writeSheet(f, t, headerStyle); err != nil {
			f.Close()
			return nil, errors.NewStorageError(fmt.Sprintf("failed to write sheet %q", t.Title), err)
		}
	}

	if err := f.DeleteSheet(defaultSheet); err != nil {
		f.Close()
		return nil, errors.NewStorageError("failed to remove default sheet", err)
	}
	f.SetActiveSheet(0)
	return f, nil
}

func writeSheet(f *excelize.File, t Table, headerStyle int) error {
	sheet := t.Title
	if len(sheet) > 31 {
		sheet = sheet[:31]
	}
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	header := make([]interface{}, len(t.Headers))
	for i, h := range t.Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	lastCol, err := excelize.ColumnNumberToName(len(t.Headers))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", headerStyle); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", lastCol, 16); err != nil {
		return err
	}

	for i, row := range t.Rows {
		cells := make([]interface{}, len(row))
		for j, c := range row {
			cells[j] = roundCell(c)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return err
		}
	}

	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}
