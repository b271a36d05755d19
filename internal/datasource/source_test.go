package datasource

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chadallison/running-st/internal/config"
	apperrors "github.com/chadallison/running-st/internal/errors"
)

var fixtureHeader = []string{"run", "date", "distance", "pace", "time", "calories", "elevation", "bpm", "shoe"}

var fixtureRows = [][]string{
	{"1", "1-3-2023", "3.1", "8.5", "26.35", "310", "120", "150", "Pegasus"},
	{"2", "01-05-2023", "6.2", "9.25", "57.35", "640", "310.5", "", "Ghost"},
	{"", "", "", "", "", "", "", "", ""},
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestDecodeRows(t *testing.T) {
	runs, err := decodeRows(fixtureHeader, fixtureRows, testLogger())
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, 2, runs[0].Row)
	assert.Equal(t, "1-3-2023", runs[0].Date)
	assert.Equal(t, 3.1, runs[0].Distance)
	assert.Equal(t, 8.5, runs[0].Pace)
	assert.Equal(t, 26.35, runs[0].Time)
	assert.Equal(t, 310, runs[0].Calories)
	assert.Equal(t, 120.0, runs[0].Elevation)
	assert.Equal(t, 150, runs[0].BPM)
	assert.Equal(t, "Pegasus", runs[0].Shoe)

	assert.Equal(t, "01-05-2023", runs[1].Date)
	assert.Equal(t, 0, runs[1].BPM, "blank integer cells decode to zero")
}

func TestDecodeRows_HeaderMatching(t *testing.T) {
	header := []string{"\ufeffDate", " Distance ", "PACE", "time", "calories", "elevation", "bpm", "shoe", "notes"}
	rows := [][]string{{"2-1-2024", "5", "8", "40", "500.0", "", "140", "Ghost", "easy"}}

	runs, err := decodeRows(header, rows, testLogger())
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 500, runs[0].Calories)
	assert.True(t, math.IsNaN(runs[0].Elevation), "blank real cells decode to NaN")
}

func TestDecodeRows_ShortRowsPadWithBlanks(t *testing.T) {
	rows := [][]string{{"1", "1-3-2023", "3.1", "8.5"}}
	runs, err := decodeRows(fixtureHeader, rows, testLogger())
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.True(t, math.IsNaN(runs[0].Time))
	assert.Empty(t, runs[0].Shoe)
}

func TestDecodeRows_Errors(t *testing.T) {
	tests := []struct {
		name    string
		header  []string
		rows    [][]string
		target  error
		message string
	}{
		{
			name:    "missing column",
			header:  []string{"date", "distance", "pace", "time", "calories", "elevation", "bpm"},
			target:  apperrors.ErrDataSource,
			message: "shoe",
		},
		{
			name:    "duplicate column",
			header:  append(append([]string{}, fixtureHeader...), "Distance"),
			target:  apperrors.ErrDataSource,
			message: "distance",
		},
		{
			name:    "non-numeric distance",
			header:  fixtureHeader,
			rows:    [][]string{{"1", "1-3-2023", "three", "8.5", "26", "300", "10", "140", "Ghost"}},
			target:  apperrors.ErrParse,
			message: "row 2",
		},
		{
			name:    "infinite distance",
			header:  fixtureHeader,
			rows:    [][]string{{"1", "1-3-2023", "inf", "8.5", "26", "300", "10", "140", "Ghost"}},
			target:  apperrors.ErrParse,
			message: `column "distance" has invalid numeric value "inf"`,
		},
		{
			name:    "nan elevation",
			header:  fixtureHeader,
			rows:    [][]string{{"1", "1-3-2023", "3", "8.5", "26", "300", "NaN", "140", "Ghost"}},
			target:  apperrors.ErrParse,
			message: "elevation",
		},
		{
			name:    "fractional calories",
			header:  fixtureHeader,
			rows:    [][]string{{"1", "1-3-2023", "3", "8.5", "26", "150.7", "10", "140", "Ghost"}},
			target:  apperrors.ErrParse,
			message: "calories",
		},
		{
			name:    "non-numeric bpm",
			header:  fixtureHeader,
			rows:    [][]string{{"1", "1-3-2023", "3", "8.5", "26", "300", "10", "fast", "Ghost"}},
			target:  apperrors.ErrParse,
			message: "bpm",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeRows(tt.header, tt.rows, testLogger())
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.target), "got %v", err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestParseInt(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"", 0, false},
		{"42", 42, false},
		{"1,204", 1204, false},
		{"312.0", 312, false},
		{"99.6", 0, true},
		{"abc", 0, true},
		{"Inf", 0, true},
	}
	for _, tt := range tests {
		got, err := parseInt(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseReal(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"3.1", 3.1, false},
		{"1,204.5", 1204.5, false},
		{"-12", -12, false},
		{"inf", 0, true},
		{"+Inf", 0, true},
		{"-inf", 0, true},
		{"nan", 0, true},
		{"three", 0, true},
	}
	for _, tt := range tests {
		got, err := parseReal(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	blank, err := parseReal("")
	require.NoError(t, err)
	assert.True(t, math.IsNaN(blank), "only blank cells decode to NaN")
}

func TestNew_SelectsSourceByKind(t *testing.T) {
	ctx := context.Background()

	cfg := config.Default().Source
	src, err := New(ctx, cfg, testLogger())
	require.NoError(t, err)
	assert.Equal(t, "csv", src.Name())

	cfg.Kind = config.SourceXLSX
	cfg.Location = "runs.xlsx"
	src, err = New(ctx, cfg, testLogger())
	require.NoError(t, err)
	assert.Equal(t, "xlsx", src.Name())

	cfg.Kind = config.SourceSheets
	cfg.APIKey = "test-key"
	src, err = New(ctx, cfg, testLogger())
	require.NoError(t, err)
	assert.Equal(t, "sheets", src.Name())

	cfg.Kind = "parquet"
	_, err = New(ctx, cfg, testLogger())
	assert.Error(t, err)
}
