package dataprocessing

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/chadallison/running-st/internal/errors"
	"github.com/chadallison/running-st/pkg/contracts/domain"
)

// Recent-performance window keys.
const (
	WindowPast365   = "past_365_days"
	WindowYTD       = "year_to_date"
	WindowThisMonth = "this_month"
	WindowPast30    = "past_30_days"
	WindowPast7     = "past_7_days"
)

// MostRecentRun returns the run with the latest date. When several runs share
// that date the one appearing last in the table wins.
func MostRecentRun(runs []domain.Run) (domain.MostRecentRun, error) {
	if len(runs) == 0 {
		return domain.MostRecentRun{}, errors.NewEmptyDatasetError("no runs left after cleaning")
	}

	best := 0
	for i := 1; i < len(runs); i++ {
		if !runs[i].Date.Before(runs[best].Date) {
			best = i
		}
	}

	r := runs[best]
	return domain.MostRecentRun{
		Date:      r.Date,
		Distance:  r.Distance,
		Pace:      finite(r.Pace),
		PaceText:  FormatPace(r.Pace),
		Elevation: r.Elevation,
		Shoe:      r.Shoe,
	}, nil
}

// ComputeAllTimeStats totals every run. The average is zero for an empty table.
func ComputeAllTimeStats(runs []domain.Run) domain.AllTimeStats {
	stats := domain.AllTimeStats{
		TotalDistance: SumDistance(runs),
		RunCount:      len(runs),
	}
	if stats.RunCount > 0 {
		stats.AvgDistance = stats.TotalDistance / float64(stats.RunCount)
	}

	for _, r := range runs {
		stats.TotalTimeMinutes += nanToZero(r.Time)
	}
	stats.TotalTime = BreakdownSeconds(minutesToSeconds(stats.TotalTimeMinutes))
	stats.TotalTimeText = FormatDuration(stats.TotalTimeMinutes)
	return stats
}

// RecentPerformance sums distance over the standard windows, all measured
// against the same today. Day windows include runs on or after today minus N
// days; year and month windows match the calendar exactly.
func RecentPerformance(runs []domain.Run, today time.Time) []domain.WindowTotal {
	today = domain.CivilDate(today)

	windows := []struct {
		key   string
		label string
		keep  func(time.Time) bool
	}{
		{WindowPast365, "Past 365 Days", since(today, 365)},
		{WindowYTD, fmt.Sprintf("%d YTD", today.Year()), func(d time.Time) bool {
			return d.Year() == today.Year()
		}},
		{WindowThisMonth, "This Month", func(d time.Time) bool {
			return d.Year() == today.Year() && d.Month() == today.Month()
		}},
		{WindowPast30, "Past 30 Days", since(today, 30)},
		{WindowPast7, "Past 7 Days", since(today, 7)},
	}

	out := make([]domain.WindowTotal, 0, len(windows))
	for _, w := range windows {
		var total float64
		for _, r := range runs {
			if w.keep(r.Date) {
				total += nanToZero(r.Distance)
			}
		}
		out = append(out, domain.WindowTotal{Key: w.key, Label: w.label, TotalDistance: total})
	}
	return out
}

func since(today time.Time, days int) func(time.Time) bool {
	cutoff := today.AddDate(0, 0, -days)
	return func(d time.Time) bool { return !d.Before(cutoff) }
}

// RecentShoes returns the shoes worn on or after today minus days. The result
// is never nil, so an empty set restricts AggregateShoes to nothing.
func RecentShoes(runs []domain.Run, today time.Time, days int) map[string]struct{} {
	keep := since(domain.CivilDate(today), days)
	shoes := make(map[string]struct{})
	for _, r := range runs {
		if keep(r.Date) {
			shoes[r.Shoe] = struct{}{}
		}
	}
	return shoes
}

// FilterYear returns the runs dated in year, preserving order.
func FilterYear(runs []domain.Run, year int) []domain.Run {
	out := make([]domain.Run, 0, len(runs))
	for _, r := range runs {
		if r.Date.Year() == year {
			out = append(out, r)
		}
	}
	return out
}

// LifetimeShoeSummary extends the unrestricted shoe aggregate with first and
// most recent run dates and the mean pace.
func LifetimeShoeSummary(runs []domain.Run) []domain.ShoeSummary {
	type extra struct {
		first, last time.Time
		paceSum     float64
		paceN       int
	}

	extras := make(map[string]*extra)
	for _, r := range runs {
		e, ok := extras[r.Shoe]
		if !ok {
			e = &extra{first: r.Date, last: r.Date}
			extras[r.Shoe] = e
		}
		if r.Date.Before(e.first) {
			e.first = r.Date
		}
		if r.Date.After(e.last) {
			e.last = r.Date
		}
		if !math.IsNaN(r.Pace) {
			e.paceSum += r.Pace
			e.paceN++
		}
	}

	aggs := AggregateShoes(runs, nil)
	out := make([]domain.ShoeSummary, 0, len(aggs))
	for _, agg := range aggs {
		e := extras[agg.Shoe]
		avgPace := math.NaN()
		if e.paceN > 0 {
			avgPace = e.paceSum / float64(e.paceN)
		}
		out = append(out, domain.ShoeSummary{
			ShoeAggregate: agg,
			AvgPaceValue:  finite(avgPace),
			AvgPace:       FormatPace(avgPace),
			FirstRun:      e.first,
			MostRecent:    e.last,
		})
	}
	return out
}

// RunTable lists every run newest first with pace and time formatted. Runs on
// the same date keep reverse table order, later rows first.
func RunTable(runs []domain.Run) []domain.RunRow {
	ordered := make([]domain.Run, len(runs))
	for i, r := range runs {
		ordered[len(runs)-1-i] = r
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Date.After(ordered[j].Date)
	})

	rows := make([]domain.RunRow, 0, len(ordered))
	for _, r := range ordered {
		rows = append(rows, domain.RunRow{
			Date:             r.Date.Format("2006-01-02"),
			Distance:         r.Distance,
			Pace:             FormatPace(r.Pace),
			Time:             FormatPace(r.Time),
			Calories:         r.Calories,
			Elevation:        r.Elevation,
			BPM:              r.BPM,
			ElevationPerMile: Round2(r.ElevationPerMile),
			Shoe:             r.Shoe,
		})
	}
	return rows
}

// PaceScatterFor collects distance and pace points for year with their ranges
// and means. Runs without a pace cannot be placed and are skipped.
func PaceScatterFor(runs []domain.Run, year int) domain.PaceScatter {
	scatter := domain.PaceScatter{Year: year, Points: []domain.PacePoint{}}

	var sumDist, sumPace float64
	for _, r := range runs {
		if r.Date.Year() != year || math.IsNaN(r.Pace) || math.IsInf(r.Pace, 0) {
			continue
		}
		if len(scatter.Points) == 0 {
			scatter.MinDistance, scatter.MaxDistance = r.Distance, r.Distance
			scatter.MinPace, scatter.MaxPace = r.Pace, r.Pace
		}
		scatter.MinDistance = math.Min(scatter.MinDistance, r.Distance)
		scatter.MaxDistance = math.Max(scatter.MaxDistance, r.Distance)
		scatter.MinPace = math.Min(scatter.MinPace, r.Pace)
		scatter.MaxPace = math.Max(scatter.MaxPace, r.Pace)
		sumDist += r.Distance
		sumPace += r.Pace

		scatter.Points = append(scatter.Points, domain.PacePoint{
			Date:      r.Date,
			Distance:  r.Distance,
			Pace:      r.Pace,
			PaceText:  FormatPace(r.Pace),
			Elevation: r.Elevation,
			Shoe:      r.Shoe,
		})
	}

	if n := float64(len(scatter.Points)); n > 0 {
		scatter.MeanDistance = sumDist / n
		scatter.MeanPace = sumPace / n
	}
	return scatter
}
