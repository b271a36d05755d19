package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chadallison/running-st/pkg/contracts/domain"
)

// RunLogHeader is the column layout of the activity sheet.
var RunLogHeader = []string{"date", "distance", "pace", "time", "calories", "elevation", "bpm", "shoe"}

// SampleRunLog is a small run log as of 2024-03-12: three runs pass the
// cleaning filter and the 0.4 mile shakeout on 3-10 does not.
var SampleRunLog = [][]string{
	{"1-5-2024", "5", "8.5", "42.5", "500", "100", "150", "Pegasus"},
	{"2-14-2024", "10.2", "9.1", "92.82", "1000", "300", "155", "Pegasus"},
	{"3-9-2024", "6.2", "8.25", "51.15", "610", "120", "152", "Ghost"},
	{"3-10-2024", "0.4", "9", "3.6", "40", "10", "140", "Ghost"},
}

// RunLogCSV renders rows under RunLogHeader as CSV text.
func RunLogCSV(rows [][]string) string {
	var b strings.Builder
	b.WriteString(strings.Join(RunLogHeader, ",") + "\n")
	for _, r := range rows {
		b.WriteString(strings.Join(r, ",") + "\n")
	}
	return b.String()
}

// WriteRunLogCSV writes rows as runs.csv in a fresh temp dir and returns the path.
func WriteRunLogCSV(t *testing.T, rows [][]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "runs.csv")
	if err := os.WriteFile(path, []byte(RunLogCSV(rows)), 0o644); err != nil {
		t.Fatalf("write run log: %v", err)
	}
	return path
}

// RawRun builds a source row. Row numbers are 1-based sheet rows, so the
// first data row is 2.
func RawRun(row int, date string, distance, pace, elevation float64, shoe string) domain.RawRun {
	return domain.RawRun{
		Row:       row,
		Date:      date,
		Distance:  distance,
		Pace:      pace,
		Time:      distance * pace,
		Calories:  int(distance * 100),
		Elevation: elevation,
		BPM:       150,
		Shoe:      shoe,
	}
}
