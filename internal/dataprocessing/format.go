package dataprocessing

import (
	"fmt"
	"math"

	"github.com/chadallison/running-st/pkg/contracts/domain"
)

// FormatPace renders a minutes.fraction value as m:ss. Seconds that round up
// to 60 carry into the minutes, so 4.999 is "5:00". NaN and Inf render as "-".
func FormatPace(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "-"
	}
	if v < 0 {
		return "-" + FormatPace(-v)
	}

	minutes := math.Floor(v)
	seconds := math.Round((v - minutes) * 60)
	if seconds >= 60 {
		minutes++
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", int64(minutes), int64(seconds))
}

// BreakdownSeconds splits whole seconds into days, hours, minutes and seconds.
func BreakdownSeconds(total int64) domain.DurationBreakdown {
	return domain.DurationBreakdown{
		Days:    total / 86400,
		Hours:   (total % 86400) / 3600,
		Minutes: (total % 3600) / 60,
		Seconds: total % 60,
	}
}

// minutesToSeconds truncates a minute total to whole seconds.
func minutesToSeconds(minutes float64) int64 {
	if math.IsNaN(minutes) || math.IsInf(minutes, 0) || minutes <= 0 {
		return 0
	}
	return int64(math.Floor(minutes * 60))
}

// FormatDuration renders a number of minutes as "{d}d {h}h {m}m {s}s".
func FormatDuration(minutes float64) string {
	if math.IsNaN(minutes) || math.IsInf(minutes, 0) {
		return "-"
	}
	b := BreakdownSeconds(minutesToSeconds(minutes))
	return fmt.Sprintf("%dd %dh %dm %ds", b.Days, b.Hours, b.Minutes, b.Seconds)
}

// Round2 rounds to two decimals for display tables.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// finite maps NaN and Inf to zero for numeric report fields that are
// serialised; the matching text field carries "-".
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
