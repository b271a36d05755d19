package dataprocessing

import (
	"fmt"
	"strings"
	"time"

	"github.com/chadallison/running-st/internal/errors"
	"github.com/chadallison/running-st/pkg/contracts/domain"
)

// DateLayout is the month-day-year format of the sheet's date column.
// Month and day may be zero-padded or not.
const DateLayout = "1-2-2006"

// CleanOptions holds the data-quality thresholds of the cleaning filter.
type CleanOptions struct {
	MinDistance         float64
	MaxElevationPerMile float64
}

// DefaultCleanOptions returns the standard thresholds: at least one mile and
// at most 250 feet of climbing per mile.
func DefaultCleanOptions() CleanOptions {
	return CleanOptions{
		MinDistance:         1,
		MaxElevationPerMile: 250,
	}
}

// CleanResult is the cleaned table plus the number of rows the filter removed.
type CleanResult struct {
	Runs    []domain.Run
	Dropped int
}

// Clean parses dates, derives elevation per mile and filters out rows that
// fail the distance or climb thresholds. Any unparseable date fails the whole
// call. Output order follows input order.
func Clean(raw []domain.RawRun, opts CleanOptions) (CleanResult, error) {
	parsed := make([]domain.Run, 0, len(raw))
	for _, r := range raw {
		date, err := ParseDate(r.Date)
		if err != nil {
			return CleanResult{}, errors.NewParsingError(
				fmt.Sprintf("row %d: invalid date %q (want MM-DD-YYYY)", r.Row, r.Date), err).
				WithContext("row", r.Row).
				WithContext("column", domain.ColumnDate)
		}

		parsed = append(parsed, domain.Run{
			Date:      date,
			Distance:  r.Distance,
			Pace:      r.Pace,
			Time:      r.Time,
			Calories:  r.Calories,
			Elevation: r.Elevation,
			BPM:       r.BPM,
			Shoe:      r.Shoe,
			// Zero distance yields Inf or NaN here; the filter below always drops it.
			ElevationPerMile: r.Elevation / r.Distance,
		})
	}

	result := CleanResult{Runs: make([]domain.Run, 0, len(parsed))}
	for _, run := range parsed {
		// NaN fails both comparisons, so blank distance or elevation drops the row.
		if run.Distance >= opts.MinDistance && run.ElevationPerMile <= opts.MaxElevationPerMile {
			result.Runs = append(result.Runs, run)
			continue
		}
		result.Dropped++
	}

	return result, nil
}

// ParseDate parses a sheet date into its civil date at UTC midnight.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, err
	}
	return domain.CivilDate(t), nil
}
