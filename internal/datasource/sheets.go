package datasource

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	apperrors "github.com/chadallison/running-st/internal/errors"
	"github.com/chadallison/running-st/pkg/contracts/domain"
)

// SheetsSource reads the activity table through the Google Sheets API v4.
type SheetsSource struct {
	service       *sheets.Service
	spreadsheetID string
	readRange     string
	logger        *slog.Logger
}

// NewSheetsSource creates a Sheets API client for spreadsheetID. readRange is
// A1 notation or a bare sheet name.
func NewSheetsSource(ctx context.Context, spreadsheetID, readRange string, logger *slog.Logger, opts ...option.ClientOption) (*SheetsSource, error) {
	if logger == nil {
		logger = slog.Default()
	}

	opts = append(opts, option.WithScopes(sheets.SpreadsheetsReadonlyScope))
	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, apperrors.NewConfigError("failed to create Sheets service", err)
	}

	return &SheetsSource{
		service:       service,
		spreadsheetID: spreadsheetID,
		readRange:     readRange,
		logger:        logger.With(slog.String("component", "sheets_source")),
	}, nil
}

// Name implements Source.
func (s *SheetsSource) Name() string { return "sheets" }

// Fetch reads the range with formatted values so dates keep their sheet text.
func (s *SheetsSource) Fetch(ctx context.Context) ([]domain.RawRun, error) {
	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, s.readRange).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		appErr := apperrors.NewDataSourceError("failed to read spreadsheet values", err).
			WithContext("spreadsheet_id", s.spreadsheetID).
			WithContext("range", s.readRange)
		var gerr *googleapi.Error
		if errors.As(err, &gerr) {
			appErr.WithContext("status", gerr.Code)
		}
		return nil, appErr
	}

	if len(resp.Values) == 0 {
		return nil, apperrors.NewDataSourceError(fmt.Sprintf("range %q is empty", s.readRange), nil).
			WithContext("spreadsheet_id", s.spreadsheetID)
	}

	header := cellsToStrings(resp.Values[0])
	rows := make([][]string, 0, len(resp.Values)-1)
	for _, r := range resp.Values[1:] {
		rows = append(rows, cellsToStrings(r))
	}

	runs, err := decodeRows(header, rows, s.logger)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "fetched spreadsheet values",
		slog.String("range", resp.Range),
		slog.Int("rows", len(runs)))
	return runs, nil
}

func cellsToStrings(cells []interface{}) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		switch v := c.(type) {
		case nil:
			out[i] = ""
		case string:
			out[i] = v
		case float64:
			out[i] = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			out[i] = strconv.FormatBool(v)
		default:
			out[i] = fmt.Sprint(v)
		}
	}
	return out
}
