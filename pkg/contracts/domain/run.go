package domain

import (
	"time"
)

// Column names of the running log export. The sheet also carries a "run"
// identifier column which is not part of the schema and is dropped on load.
const (
	ColumnDate      = "date"
	ColumnDistance  = "distance"
	ColumnPace      = "pace"
	ColumnTime      = "time"
	ColumnCalories  = "calories"
	ColumnElevation = "elevation"
	ColumnBPM       = "bpm"
	ColumnShoe      = "shoe"

	// ColumnRunID is the identifier column present in the sheet but never used downstream.
	ColumnRunID = "run"
)

// RequiredColumns lists the schema every data source must provide, in sheet order.
var RequiredColumns = []string{
	ColumnDate,
	ColumnDistance,
	ColumnPace,
	ColumnTime,
	ColumnCalories,
	ColumnElevation,
	ColumnBPM,
	ColumnShoe,
}

// RawRun is one source row after schema mapping, before any cleaning.
// The date is kept as text; blank real cells decode to NaN.
type RawRun struct {
	Row       int     `json:"row"`
	Date      string  `json:"date"`
	Distance  float64 `json:"distance"`
	Pace      float64 `json:"pace"`
	Time      float64 `json:"time"`
	Calories  int     `json:"calories"`
	Elevation float64 `json:"elevation"`
	BPM       int     `json:"bpm"`
	Shoe      string  `json:"shoe"`
}

// Run is a cleaned activity record.
//
// Distance is in miles, Elevation in feet. Pace (minutes per mile) and Time
// (total minutes) use the sheet encoding where the integer part is whole
// minutes and the fractional part times 60 is seconds.
type Run struct {
	Date             time.Time `json:"date"`
	Distance         float64   `json:"distance"`
	Pace             float64   `json:"pace"`
	Time             float64   `json:"time"`
	Calories         int       `json:"calories"`
	Elevation        float64   `json:"elevation"`
	BPM              int       `json:"bpm"`
	Shoe             string    `json:"shoe"`
	ElevationPerMile float64   `json:"elevation_per_mile"`
}

// CivilDate truncates t to midnight UTC of its calendar date in t's own location.
// Every run date and every "today" reference is normalised this way so that
// date arithmetic never crosses a zone boundary.
func CivilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
