package http

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/chadallison/running-st/internal/dataprocessing"
	apperrors "github.com/chadallison/running-st/internal/errors"
	"github.com/chadallison/running-st/internal/exporter"
	"github.com/chadallison/running-st/internal/middleware"
	"github.com/chadallison/running-st/internal/services"
	"github.com/chadallison/running-st/pkg/contracts/domain"
)

// MockReportGenerator implements ReportGenerator for handler testing
type MockReportGenerator struct {
	mock.Mock
}

func (m *MockReportGenerator) Generate(ctx context.Context) (*domain.Report, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Report), args.Error(1)
}

func (m *MockReportGenerator) GenerateFor(ctx context.Context, day time.Time) (*domain.Report, error) {
	args := m.Called(ctx, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Report), args.Error(1)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func civil(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func testReport(t *testing.T) *domain.Report {
	t.Helper()
	runs := []domain.Run{
		{Date: civil("2024-01-05"), Distance: 5, Pace: 8.5, Time: 42.5, Calories: 500, Elevation: 100, BPM: 150, Shoe: "Pegasus", ElevationPerMile: 20},
		{Date: civil("2024-02-14"), Distance: 10.2, Pace: 9.1, Time: 92.82, Calories: 1000, Elevation: 300, BPM: 155, Shoe: "Pegasus", ElevationPerMile: 29.41},
		{Date: civil("2024-03-09"), Distance: 6.2, Pace: 8.25, Time: 51.15, Calories: 610, Elevation: 120, BPM: 152, Shoe: "Ghost <15>", ElevationPerMile: 19.35},
	}
	report, err := dataprocessing.NewSummarizer(discardLogger(), dataprocessing.DefaultSummarizerConfig()).
		Build(context.Background(), runs, civil("2024-03-12"))
	require.NoError(t, err)
	report.Source = "csv"
	report.SourceRows = 4
	report.DroppedRows = 1
	return report
}

func newTestHandler(t *testing.T, gen ReportGenerator) http.Handler {
	t.Helper()
	h, err := NewReportHandler(gen, 60, discardLogger(), apperrors.NewErrorHandler(discardLogger(), false))
	require.NoError(t, err)
	return h.Routes()
}

func problemOf(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var problem map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	return problem
}

func TestServePage(t *testing.T) {
	gen := new(MockReportGenerator)
	gen.On("Generate", mock.Anything).Return(testReport(t), nil)

	rec := httptest.NewRecorder()
	newTestHandler(t, gen).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Contains(t, body, "Most Recent Run")
	assert.Contains(t, body, "2024-03-09")
	assert.Contains(t, body, "8:15")
	assert.Contains(t, body, "Ghost &lt;15&gt;", "shoe names are escaped")
	assert.Contains(t, body, "21.40 mi", "all-time distance")
	assert.Contains(t, body, "Past 7 Days")
	assert.Contains(t, body, "2024-02")
	assert.Contains(t, body, "<circle")
	assert.Contains(t, body, `href="/download/runs.csv"`)
	gen.AssertExpectations(t)
}

func TestServePage_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{"empty dataset", apperrors.NewEmptyDatasetError("no runs to report"), http.StatusNotFound, apperrors.TypeDataNotFound},
		{"source failure", apperrors.NewDataSourceError("HTTP 500", nil), http.StatusBadGateway, apperrors.TypeDataSource},
		{"bad row", apperrors.NewParsingError("row 7: invalid date", nil), http.StatusBadGateway, apperrors.TypeDataCorrupt},
		{"timeout", context.DeadlineExceeded, http.StatusGatewayTimeout, apperrors.TypeTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := new(MockReportGenerator)
			gen.On("Generate", mock.Anything).Return(nil, tt.err)

			rec := httptest.NewRecorder()
			newTestHandler(t, gen).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			problem := problemOf(t, rec)
			assert.Equal(t, tt.wantType, problem["type"])
			assert.Equal(t, float64(tt.wantStatus), problem["status"])
		})
	}
}

func TestServePage_TodayOverride(t *testing.T) {
	gen := new(MockReportGenerator)
	gen.On("GenerateFor", mock.Anything, civil("2024-03-01")).Return(testReport(t), nil).Once()

	rec := httptest.NewRecorder()
	newTestHandler(t, gen).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?today=2024-03-01", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	gen.AssertExpectations(t)

	rec = httptest.NewRecorder()
	newTestHandler(t, gen).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?today=03-01-2024", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	gen.AssertNotCalled(t, "Generate", mock.Anything)
}

func TestDownloadTable(t *testing.T) {
	gen := new(MockReportGenerator)
	gen.On("Generate", mock.Anything).Return(testReport(t), nil)

	rec := httptest.NewRecorder()
	newTestHandler(t, gen).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/download/lifetime_shoes.csv", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="lifetime_shoes.csv"`)

	body := bytes.TrimPrefix(rec.Body.Bytes(), []byte{0xEF, 0xBB, 0xBF})
	records, err := csv.NewReader(bytes.NewReader(body)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "shoe", records[0][0])
	assert.Equal(t, "Pegasus", records[1][0], "highest total distance first")
	assert.Equal(t, "15.20", records[1][2])
}

func TestDownloadTable_UnknownTable(t *testing.T) {
	gen := new(MockReportGenerator)

	rec := httptest.NewRecorder()
	newTestHandler(t, gen).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/download/secrets.csv", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apperrors.TypeValidation, problemOf(t, rec)["type"])
	gen.AssertNotCalled(t, "Generate", mock.Anything)
}

func TestDownloadTable_NameWithoutBuilder(t *testing.T) {
	gen := new(MockReportGenerator)
	gen.On("Generate", mock.Anything).Return(testReport(t), nil)

	eh := apperrors.NewErrorHandler(discardLogger(), false)
	h, err := NewReportHandler(gen, 60, discardLogger(), eh)
	require.NoError(t, err)
	names := append(append([]string{}, exporter.TableNames...), "retired_table")
	h.validator = middleware.NewValidator(discardLogger(), eh, names)

	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/download/retired_table.csv", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	problem := problemOf(t, rec)
	assert.Equal(t, apperrors.TypeNotFound, problem["type"])
	assert.Contains(t, problem["detail"], "retired_table")
}

func TestDownloadWorkbook(t *testing.T) {
	gen := new(MockReportGenerator)
	gen.On("Generate", mock.Anything).Return(testReport(t), nil)

	rec := httptest.NewRecorder()
	newTestHandler(t, gen).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/download/report.xlsx", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "running-report-2024-03-12.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, f.GetSheetList(), "Lifetime Shoes")
}

// fakeProber implements services.SourceProber
type fakeProber struct {
	err error
}

func (p fakeProber) Probe(ctx context.Context) error { return p.err }

func (p fakeProber) Status() services.SourceStatus {
	return services.SourceStatus{Source: "csv", Runs: 3}
}

func TestHealthHandler(t *testing.T) {
	ready := NewHealthHandler(services.NewHealthService("1.2.0", fakeProber{}, discardLogger()), discardLogger())
	notReady := NewHealthHandler(services.NewHealthService("1.2.0",
		fakeProber{err: apperrors.NewDataSourceError("unreachable", nil)}, discardLogger()), discardLogger())

	rec := httptest.NewRecorder()
	ready.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	ready.ReadinessCheck(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ready"`)

	rec = httptest.NewRecorder()
	notReady.ReadinessCheck(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "unreachable")
}

func TestScaleBars(t *testing.T) {
	bars := scaleBars([]bar{{Value: 10}, {Value: 5}, {Value: -2}, {Value: 0}})
	assert.Equal(t, 100.0, bars[0].Percent)
	assert.Equal(t, 50.0, bars[1].Percent)
	assert.Zero(t, bars[2].Percent)
	assert.Zero(t, bars[3].Percent)

	assert.Empty(t, scaleBars(nil))
}

func TestNewScatterView_SinglePoint(t *testing.T) {
	view := newScatterView(domain.PaceScatter{
		Year:        2024,
		Points:      []domain.PacePoint{{Date: civil("2024-03-09"), Distance: 6, Pace: 8, PaceText: "8:00"}},
		MinDistance: 6, MaxDistance: 6, MinPace: 8, MaxPace: 8, MeanDistance: 6, MeanPace: 8,
	}, 200, 100)

	require.Len(t, view.Points, 1)
	assert.Equal(t, 100.0, view.Points[0].X, "a degenerate range centers the point")
	assert.Equal(t, 50.0, view.Points[0].Y)
	assert.Equal(t, "8:00", view.MeanPace)
}
