package exporter

import (
	"github.com/chadallison/running-st/pkg/contracts/domain"
)

// Table names used for file names and download routes.
const (
	TableRuns              = "runs"
	TableLifetimeShoes     = "lifetime_shoes"
	TableRecentShoes       = "recent_shoes"
	TableWeeklyDistance    = "weekly_distance"
	TableMonthlyDistance   = "monthly_distance"
	TableWeeklyElevation   = "weekly_elevation"
	TableRecentPerformance = "recent_performance"
	TablePaceScatter       = "pace_scatter"
)

// TableNames lists every exportable table in workbook order.
var TableNames = []string{
	TableRuns,
	TableLifetimeShoes,
	TableRecentShoes,
	TableRecentPerformance,
	TableWeeklyDistance,
	TableMonthlyDistance,
	TableWeeklyElevation,
	TablePaceScatter,
}

// Table is one report table flattened for export. Cells hold string, int or
// float64 values; floats are written with two decimals.
type Table struct {
	Name    string
	Title   string
	Headers []string
	Rows    [][]interface{}
}

const dateLayout = "2006-01-02"

// BuildTable flattens the named table of r. The second result is false for
// unknown names.
func BuildTable(r *domain.Report, name string) (Table, bool) {
	switch name {
	case TableRuns:
		t := Table{Name: name, Title: "All Runs",
			Headers: []string{"date", "distance", "pace", "time", "calories", "elevation", "bpm", "elevation_per_mile", "shoe"}}
		for _, row := range r.Runs {
			t.Rows = append(t.Rows, []interface{}{row.Date, row.Distance, row.Pace, row.Time,
				row.Calories, row.Elevation, row.BPM, row.ElevationPerMile, row.Shoe})
		}
		return t, true

	case TableLifetimeShoes:
		t := Table{Name: name, Title: "Lifetime Shoes",
			Headers: []string{"shoe", "run_count", "total_distance", "avg_distance", "max_distance", "total_time", "avg_pace", "first_run", "most_recent_date"}}
		for _, s := range r.LifetimeShoes {
			t.Rows = append(t.Rows, []interface{}{s.Shoe, s.RunCount, s.TotalDistance, s.AvgDistance,
				s.MaxDistance, s.TimeHours, s.AvgPace, s.FirstRun.Format(dateLayout), s.MostRecent.Format(dateLayout)})
		}
		return t, true

	case TableRecentShoes:
		t := Table{Name: name, Title: "Recent Shoes",
			Headers: []string{"shoe", "run_count", "total_distance", "avg_distance", "max_distance", "time_hours"}}
		for _, s := range r.RecentShoes {
			t.Rows = append(t.Rows, []interface{}{s.Shoe, s.RunCount, s.TotalDistance, s.AvgDistance, s.MaxDistance, s.TimeHours})
		}
		return t, true

	case TableRecentPerformance:
		t := Table{Name: name, Title: "Recent Performance", Headers: []string{"window", "total_distance"}}
		for _, w := range r.RecentPerformance {
			t.Rows = append(t.Rows, []interface{}{w.Label, w.TotalDistance})
		}
		return t, true

	case TableWeeklyDistance, TableMonthlyDistance:
		series, title, header := r.WeeklyDistance, "Weekly Distance", "week_start"
		if name == TableMonthlyDistance {
			series, title, header = r.MonthlyDistance, "Monthly Distance", "month"
		}
		t := Table{Name: name, Title: title, Headers: []string{header, "total_distance"}}
		for _, p := range series {
			t.Rows = append(t.Rows, []interface{}{p.Label, p.TotalDistance})
		}
		return t, true

	case TableWeeklyElevation:
		t := Table{Name: name, Title: "Weekly Elevation",
			Headers: []string{"week_start", "total_elevation_ft", "total_elevation_mi", "cumulative_elevation_mi"}}
		for _, w := range r.WeeklyElevation {
			t.Rows = append(t.Rows, []interface{}{w.WeekStart.Format(dateLayout), w.TotalElevationFt,
				w.TotalElevationMi, w.CumulativeElevationMi})
		}
		return t, true

	case TablePaceScatter:
		t := Table{Name: name, Title: "Distance vs Pace", Headers: []string{"date", "distance", "pace", "elevation", "shoe"}}
		for _, p := range r.PaceScatter.Points {
			t.Rows = append(t.Rows, []interface{}{p.Date.Format(dateLayout), p.Distance, p.PaceText, p.Elevation, p.Shoe})
		}
		return t, true
	}

	return Table{}, false
}

// BuildTables flattens every table of r in TableNames order.
func BuildTables(r *domain.Report) []Table {
	tables := make([]Table, 0, len(TableNames))
	for _, name := range TableNames {
		t, _ := BuildTable(r, name)
		tables = append(tables, t)
	}
	return tables
}
