package datasource

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"

	apperrors "github.com/chadallison/running-st/internal/errors"
	"github.com/chadallison/running-st/internal/validation"
	"github.com/chadallison/running-st/pkg/contracts/domain"
)

// XLSXSource reads the activity table from a local workbook.
type XLSXSource struct {
	path   string
	sheet  string
	files  *validation.FileValidator
	logger *slog.Logger
}

// NewXLSXSource creates a workbook source. An empty sheet selects the first sheet.
func NewXLSXSource(path, sheet string, logger *slog.Logger) *XLSXSource {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "xlsx_source"))
	return &XLSXSource{
		path:   path,
		sheet:  sheet,
		files:  validation.NewFileValidator(logger),
		logger: logger,
	}
}

// Name implements Source.
func (s *XLSXSource) Name() string { return "xlsx" }

// Fetch opens the workbook and decodes the selected sheet.
func (s *XLSXSource) Fetch(ctx context.Context) ([]domain.RawRun, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewDataSourceError("workbook read canceled", err).
			WithContext("path", s.path)
	}

	if err := s.files.ValidateSourceFile(s.path, validation.KindXLSX); err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, apperrors.NewDataSourceError("failed to open workbook", err).
			WithContext("path", s.path)
	}
	defer f.Close()

	sheet := s.sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, apperrors.NewDataSourceError("workbook has no sheets", nil).
				WithContext("path", s.path)
		}
		sheet = sheets[0]
	}

	idx, err := f.GetSheetIndex(sheet)
	if err != nil || idx < 0 {
		return nil, apperrors.NewDataSourceError(fmt.Sprintf("sheet %q not found", sheet), err).
			WithContext("path", s.path)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, apperrors.NewDataSourceError("failed to read sheet rows", err).
			WithContext("path", s.path).
			WithContext("sheet", sheet)
	}
	if len(rows) == 0 {
		return nil, apperrors.NewDataSourceError(fmt.Sprintf("sheet %q is empty", sheet), nil).
			WithContext("path", s.path)
	}

	runs, err := decodeRows(rows[0], rows[1:], s.logger)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "read activity workbook",
		slog.String("path", s.path),
		slog.String("sheet", sheet),
		slog.Int("rows", len(runs)))
	return runs, nil
}
