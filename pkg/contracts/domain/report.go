package domain

import (
	"time"
)

// PeriodTotal is one bucket of a weekly or monthly distance series.
type PeriodTotal struct {
	Start         time.Time `json:"start"`
	Label         string    `json:"label"`
	TotalDistance float64   `json:"total_distance"`
}

// ElevationWeek is one week of the cumulative elevation series.
type ElevationWeek struct {
	WeekStart             time.Time `json:"week_start"`
	TotalElevationFt      float64   `json:"total_elevation_ft"`
	TotalElevationMi      float64   `json:"total_elevation_mi"`
	CumulativeElevationMi float64   `json:"cumulative_elevation_mi"`
}

// ShoeAggregate holds per-shoe totals.
type ShoeAggregate struct {
	Shoe          string  `json:"shoe"`
	RunCount      int     `json:"run_count"`
	TotalDistance float64 `json:"total_distance"`
	AvgDistance   float64 `json:"avg_distance"`
	MaxDistance   float64 `json:"max_distance"`
	TimeHours     float64 `json:"time_hours"`
}

// ShoeSummary extends ShoeAggregate with lifetime fields.
type ShoeSummary struct {
	ShoeAggregate
	AvgPaceValue float64   `json:"avg_pace_value"`
	AvgPace      string    `json:"avg_pace"`
	FirstRun     time.Time `json:"first_run"`
	MostRecent   time.Time `json:"most_recent_date"`
}

// MostRecentRun is the latest logged activity.
type MostRecentRun struct {
	Date      time.Time `json:"date"`
	Distance  float64   `json:"distance"`
	Pace      float64   `json:"pace"`
	PaceText  string    `json:"pace_text"`
	Elevation float64   `json:"elevation"`
	Shoe      string    `json:"shoe"`
}

// DurationBreakdown splits a number of seconds into days/hours/minutes/seconds.
type DurationBreakdown struct {
	Days    int64 `json:"days"`
	Hours   int64 `json:"hours"`
	Minutes int64 `json:"minutes"`
	Seconds int64 `json:"seconds"`
}

// AllTimeStats summarises every cleaned run.
type AllTimeStats struct {
	TotalDistance    float64           `json:"total_distance"`
	RunCount         int               `json:"run_count"`
	AvgDistance      float64           `json:"avg_distance"`
	TotalTimeMinutes float64           `json:"total_time_minutes"`
	TotalTime        DurationBreakdown `json:"total_time"`
	TotalTimeText    string            `json:"total_time_text"`
}

// WindowTotal is the distance covered within one recent-performance window.
type WindowTotal struct {
	Key           string  `json:"key"`
	Label         string  `json:"label"`
	TotalDistance float64 `json:"total_distance"`
}

// PacePoint is one run in the distance-vs-pace view.
type PacePoint struct {
	Date      time.Time `json:"date"`
	Distance  float64   `json:"distance"`
	Pace      float64   `json:"pace"`
	PaceText  string    `json:"pace_text"`
	Elevation float64   `json:"elevation"`
	Shoe      string    `json:"shoe"`
}

// PaceScatter holds the distance-vs-pace points of one year with their ranges and means.
type PaceScatter struct {
	Year         int         `json:"year"`
	Points       []PacePoint `json:"points"`
	MinDistance  float64     `json:"min_distance"`
	MaxDistance  float64     `json:"max_distance"`
	MinPace      float64     `json:"min_pace"`
	MaxPace      float64     `json:"max_pace"`
	MeanDistance float64     `json:"mean_distance"`
	MeanPace     float64     `json:"mean_pace"`
}

// RunRow is a display row of the all-runs table.
type RunRow struct {
	Date             string  `json:"date"`
	Distance         float64 `json:"distance"`
	Pace             string  `json:"pace"`
	Time             string  `json:"time"`
	Calories         int     `json:"calories"`
	Elevation        float64 `json:"elevation"`
	BPM              int     `json:"bpm"`
	ElevationPerMile float64 `json:"elevation_per_mile"`
	Shoe             string  `json:"shoe"`
}

// Report is the complete output handed to the presentation layer.
type Report struct {
	GeneratedAt time.Time `json:"generated_at"`
	Today       time.Time `json:"today"`
	Year        int       `json:"year"`
	Source      string    `json:"source"`
	SourceRows  int       `json:"source_rows"`
	DroppedRows int       `json:"dropped_rows"`

	MostRecent        MostRecentRun   `json:"most_recent"`
	AllTime           AllTimeStats    `json:"all_time"`
	RecentPerformance []WindowTotal   `json:"recent_performance"`
	RecentShoes       []ShoeAggregate `json:"recent_shoes"`
	WeeklyDistance    []PeriodTotal   `json:"weekly_distance"`
	MonthlyDistance   []PeriodTotal   `json:"monthly_distance"`
	WeeklyElevation   []ElevationWeek `json:"weekly_elevation"`
	PaceScatter       PaceScatter     `json:"pace_scatter"`
	LifetimeShoes     []ShoeSummary   `json:"lifetime_shoes"`
	Runs              []RunRow        `json:"runs"`
}
