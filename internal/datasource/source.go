package datasource

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"google.golang.org/api/option"

	"github.com/chadallison/running-st/internal/config"
	apperrors "github.com/chadallison/running-st/internal/errors"
	"github.com/chadallison/running-st/pkg/contracts/domain"
)

// Source produces the raw activity table. Fetch is a single blocking call;
// no source retries.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]domain.RawRun, error)
}

// New builds the Source selected by cfg.Kind.
func New(ctx context.Context, cfg config.SourceConfig, logger *slog.Logger) (Source, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Kind {
	case config.SourceCSV, "":
		client := &http.Client{Timeout: cfg.HTTPTimeout}
		return NewCSVSource(cfg.Location, client, logger), nil
	case config.SourceXLSX:
		return NewXLSXSource(cfg.Location, cfg.SheetName, logger), nil
	case config.SourceSheets:
		var opts []option.ClientOption
		if cfg.CredentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
		} else if cfg.APIKey != "" {
			opts = append(opts, option.WithAPIKey(cfg.APIKey))
		}
		readRange := cfg.SheetRange
		if readRange == "" {
			readRange = cfg.SheetName
		}
		return NewSheetsSource(ctx, cfg.SheetID, readRange, logger, opts...)
	default:
		return nil, apperrors.NewConfigError(fmt.Sprintf("unknown source kind %q", cfg.Kind), nil)
	}
}

// columnIndex maps each required column to its position in the header.
type columnIndex map[string]int

// mapHeader matches header cells against the required schema. Names are
// compared case-insensitively after trimming; every required column must
// appear exactly once. Unknown columns are ignored.
func mapHeader(header []string, logger *slog.Logger) (columnIndex, error) {
	required := make(map[string]bool, len(domain.RequiredColumns))
	for _, c := range domain.RequiredColumns {
		required[c] = true
	}

	idx := make(columnIndex, len(domain.RequiredColumns))
	var ignored []string
	for i, cell := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(cell, "\ufeff")))
		if !required[name] {
			if name != "" {
				ignored = append(ignored, name)
			}
			continue
		}
		if _, dup := idx[name]; dup {
			return nil, apperrors.NewDataSourceError(
				fmt.Sprintf("schema mismatch: column %q appears more than once", name), nil).
				WithContext("column", name)
		}
		idx[name] = i
	}

	var missing []string
	for _, c := range domain.RequiredColumns {
		if _, ok := idx[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, apperrors.NewDataSourceError(
			fmt.Sprintf("schema mismatch: missing columns %s", strings.Join(missing, ", ")), nil).
			WithContext("missing", missing)
	}

	if len(ignored) > 0 {
		logger.Debug("dropping columns outside the schema", slog.Any("columns", ignored))
	}
	return idx, nil
}

// decodeRows converts a header plus string rows into raw runs. It is the
// single schema mapping shared by every Source. Row numbers in errors count
// the header as row 1.
func decodeRows(header []string, rows [][]string, logger *slog.Logger) ([]domain.RawRun, error) {
	idx, err := mapHeader(header, logger)
	if err != nil {
		return nil, err
	}

	runs := make([]domain.RawRun, 0, len(rows))
	for i, row := range rows {
		if isBlankRow(row) {
			continue
		}
		rowNum := i + 2
		cell := func(col string) string {
			j := idx[col]
			if j >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[j])
		}

		run := domain.RawRun{
			Row:  rowNum,
			Date: cell(domain.ColumnDate),
			Shoe: cell(domain.ColumnShoe),
		}

		reals := []struct {
			col string
			dst *float64
		}{
			{domain.ColumnDistance, &run.Distance},
			{domain.ColumnPace, &run.Pace},
			{domain.ColumnTime, &run.Time},
			{domain.ColumnElevation, &run.Elevation},
		}
		for _, r := range reals {
			v, err := parseReal(cell(r.col))
			if err != nil {
				return nil, parseCellError(rowNum, r.col, cell(r.col), err)
			}
			*r.dst = v
		}

		ints := []struct {
			col string
			dst *int
		}{
			{domain.ColumnCalories, &run.Calories},
			{domain.ColumnBPM, &run.BPM},
		}
		for _, n := range ints {
			v, err := parseInt(cell(n.col))
			if err != nil {
				return nil, parseCellError(rowNum, n.col, cell(n.col), err)
			}
			*n.dst = v
		}

		runs = append(runs, run)
	}

	return runs, nil
}

func parseCellError(row int, col, value string, cause error) error {
	return apperrors.NewParsingError(
		fmt.Sprintf("row %d: column %q has invalid numeric value %q", row, col, value), cause).
		WithContext("row", row).
		WithContext("column", col)
}

var errNotFinite = errors.New("not a finite number")

// parseReal reads a numeric cell. Blank cells are null and decode to NaN;
// literal inf and nan tokens are rejected.
func parseReal(s string) (float64, error) {
	if s == "" {
		return math.NaN(), nil
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errNotFinite
	}
	return f, nil
}

// parseInt reads an integer cell. Blank cells decode to 0 and whole-valued
// decimals such as "312.0" are accepted; fractional values are errors.
func parseInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	s = strings.ReplaceAll(s, ",", "")
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errNotFinite
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("%q is not a whole number", s)
	}
	return int(f), nil
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
