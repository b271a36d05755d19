package datasource

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	apperrors "github.com/chadallison/running-st/internal/errors"
	"github.com/chadallison/running-st/internal/validation"
	"github.com/chadallison/running-st/pkg/contracts/domain"
)

// maxCSVBytes bounds a downloaded sheet export.
const maxCSVBytes = 32 << 20

// CSVSource reads the activity table as CSV from an http(s) URL, such as a
// published Google Sheet gviz export, or from a local file.
type CSVSource struct {
	location string
	maxBytes int64
	client   *http.Client
	files    *validation.FileValidator
	logger   *slog.Logger
}

// NewCSVSource creates a CSV source. A nil client uses http.DefaultClient.
func NewCSVSource(location string, client *http.Client, logger *slog.Logger) *CSVSource {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "csv_source"))
	return &CSVSource{
		location: location,
		maxBytes: maxCSVBytes,
		client:   client,
		files:    validation.NewFileValidator(logger),
		logger:   logger,
	}
}

// Name implements Source.
func (s *CSVSource) Name() string { return "csv" }

// Fetch downloads or opens the CSV and decodes it.
func (s *CSVSource) Fetch(ctx context.Context) ([]domain.RawRun, error) {
	body, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, s.maxBytes+1))
	if err != nil {
		return nil, apperrors.NewDataSourceError("failed to read CSV", err).
			WithContext("location", s.location)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, apperrors.NewDataSourceError(fmt.Sprintf("CSV exceeds %d bytes", s.maxBytes), nil).
			WithContext("location", s.location)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, apperrors.NewDataSourceError("failed to read CSV", err).
			WithContext("location", s.location)
	}
	if len(records) == 0 {
		return nil, apperrors.NewDataSourceError("CSV has no header row", nil).
			WithContext("location", s.location)
	}

	runs, err := decodeRows(records[0], records[1:], s.logger)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "fetched activity table",
		slog.String("location", s.location),
		slog.Int("rows", len(runs)))
	return runs, nil
}

func (s *CSVSource) open(ctx context.Context) (io.ReadCloser, error) {
	if !isRemote(s.location) {
		if err := s.files.ValidateSourceFile(s.location, validation.KindCSV); err != nil {
			return nil, err
		}
		f, err := os.Open(s.location)
		if err != nil {
			return nil, apperrors.NewDataSourceError("failed to open CSV file", err).
				WithContext("location", s.location)
		}
		return f, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.location, nil)
	if err != nil {
		return nil, apperrors.NewDataSourceError("invalid CSV URL", err).
			WithContext("location", s.location)
	}
	req.Header.Set("Accept", "text/csv")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, apperrors.NewDataSourceError("failed to download CSV", err).
			WithContext("location", s.location)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, apperrors.NewDataSourceError(
			fmt.Sprintf("CSV download returned HTTP %d", resp.StatusCode), nil).
			WithContext("location", s.location).
			WithContext("status", resp.StatusCode)
	}
	return resp.Body, nil
}

func isRemote(location string) bool {
	l := strings.ToLower(location)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}
