package datasource

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"google.golang.org/api/option"

	apperrors "github.com/chadallison/running-st/internal/errors"
	"github.com/chadallison/running-st/pkg/contracts/domain"
)

func fixtureCSV() string {
	var b strings.Builder
	b.WriteString(strings.Join(fixtureHeader, ",") + "\n")
	for _, r := range fixtureRows {
		b.WriteString(strings.Join(r, ",") + "\n")
	}
	return b.String()
}

func expectedFixtureRuns(t *testing.T) []domain.RawRun {
	t.Helper()
	runs, err := decodeRows(fixtureHeader, fixtureRows, testLogger())
	require.NoError(t, err)
	return runs
}

// assertSameRuns compares row by row; NaN cells break plain equality.
func assertSameRuns(t *testing.T, want, got []domain.RawRun) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		w, g := want[i], got[i]
		assert.Equal(t, w.Date, g.Date)
		assert.Equal(t, w.Distance, g.Distance)
		assert.Equal(t, w.Pace, g.Pace)
		assert.Equal(t, w.Time, g.Time)
		assert.Equal(t, w.Calories, g.Calories)
		assert.Equal(t, w.Elevation, g.Elevation)
		assert.Equal(t, w.BPM, g.BPM)
		assert.Equal(t, w.Shoe, g.Shoe)
	}
}

func TestCSVSource_HTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "out:csv", r.URL.Query().Get("tqx"))
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte(fixtureCSV()))
	}))
	defer srv.Close()

	src := NewCSVSource(srv.URL+"/gviz/tq?tqx=out:csv&sheet=Sheet1", srv.Client(), testLogger())
	runs, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assertSameRuns(t, expectedFixtureRuns(t), runs)
}

func TestCSVSource_HTTPErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewCSVSource(srv.URL, srv.Client(), testLogger()).Fetch(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrDataSource))
	assert.Contains(t, err.Error(), "500")
}

func TestCSVSource_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.csv")
	require.NoError(t, os.WriteFile(path, []byte(fixtureCSV()), 0o644))

	runs, err := NewCSVSource(path, nil, testLogger()).Fetch(context.Background())
	require.NoError(t, err)
	assertSameRuns(t, expectedFixtureRuns(t), runs)
}

func TestCSVSource_MissingFile(t *testing.T) {
	_, err := NewCSVSource(filepath.Join(t.TempDir(), "nope.csv"), nil, testLogger()).
		Fetch(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrDataSource))
}

func TestCSVSource_EmptyBody(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	_, err := NewCSVSource(path, nil, testLogger()).Fetch(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrDataSource))
}

func TestCSVSource_TooLarge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.csv")
	body := fixtureCSV()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	src := NewCSVSource(path, nil, testLogger())
	src.maxBytes = int64(len(body) - 1)
	_, err := src.Fetch(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrDataSource))
	assert.Contains(t, err.Error(), "CSV exceeds")

	src.maxBytes = int64(len(body))
	runs, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assertSameRuns(t, expectedFixtureRuns(t), runs)
}

func writeFixtureWorkbook(t *testing.T, sheet string) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	if sheet != "Sheet1" {
		_, err := f.NewSheet(sheet)
		require.NoError(t, err)
		require.NoError(t, f.DeleteSheet("Sheet1"))
	}

	all := append([][]string{fixtureHeader}, fixtureRows...)
	for i, row := range all {
		cells := make([]interface{}, len(row))
		for j, c := range row {
			cells[j] = c
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &cells))
	}

	path := filepath.Join(t.TempDir(), "runs.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestXLSXSource(t *testing.T) {
	path := writeFixtureWorkbook(t, "Log")

	t.Run("first sheet by default", func(t *testing.T) {
		runs, err := NewXLSXSource(path, "", testLogger()).Fetch(context.Background())
		require.NoError(t, err)
		assertSameRuns(t, expectedFixtureRuns(t), runs)
	})

	t.Run("named sheet", func(t *testing.T) {
		runs, err := NewXLSXSource(path, "Log", testLogger()).Fetch(context.Background())
		require.NoError(t, err)
		assertSameRuns(t, expectedFixtureRuns(t), runs)
	})

	t.Run("unknown sheet", func(t *testing.T) {
		_, err := NewXLSXSource(path, "Missing", testLogger()).Fetch(context.Background())
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrDataSource))
	})

	t.Run("canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := NewXLSXSource(path, "", testLogger()).Fetch(ctx)
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrDataSource))
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, apperrors.ErrTypeDataSource, apperrors.TypeOf(err))
	})

	t.Run("missing workbook", func(t *testing.T) {
		_, err := NewXLSXSource(filepath.Join(t.TempDir(), "x.xlsx"), "", testLogger()).
			Fetch(context.Background())
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrDataSource))
	})
}

func newSheetsServer(t *testing.T, status int, values [][]interface{}) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/v4/spreadsheets/sheet-123/values/")
		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"code":403,"message":"forbidden"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"range":          "Sheet1!A1:I4",
			"majorDimension": "ROWS",
			"values":         values,
		})
	}))
}

func fixtureValues() [][]interface{} {
	all := append([][]string{fixtureHeader}, fixtureRows[:2]...)
	out := make([][]interface{}, len(all))
	for i, row := range all {
		out[i] = make([]interface{}, len(row))
		for j, c := range row {
			out[i][j] = c
		}
	}
	return out
}

func TestSheetsSource(t *testing.T) {
	srv := newSheetsServer(t, http.StatusOK, fixtureValues())
	defer srv.Close()

	src, err := NewSheetsSource(context.Background(), "sheet-123", "Sheet1", testLogger(),
		option.WithHTTPClient(srv.Client()), option.WithEndpoint(srv.URL+"/"))
	require.NoError(t, err)

	runs, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assertSameRuns(t, expectedFixtureRuns(t), runs)
}

func TestSheetsSource_APIError(t *testing.T) {
	srv := newSheetsServer(t, http.StatusForbidden, nil)
	defer srv.Close()

	src, err := NewSheetsSource(context.Background(), "sheet-123", "Sheet1", testLogger(),
		option.WithHTTPClient(srv.Client()), option.WithEndpoint(srv.URL+"/"))
	require.NoError(t, err)

	_, err = src.Fetch(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrDataSource))
}

func TestCellsToStrings(t *testing.T) {
	got := cellsToStrings([]interface{}{"a", 3.5, float64(12), true, nil})
	assert.Equal(t, []string{"a", "3.5", "12", "true", ""}, got)
}
