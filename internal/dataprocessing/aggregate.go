package dataprocessing

import (
	"math"
	"sort"
	"time"

	"github.com/chadallison/running-st/pkg/contracts/domain"
)

// Period selects the bucket size of AggregateByPeriod.
type Period int

const (
	PeriodWeek Period = iota
	PeriodMonth
)

const (
	weekLabelLayout  = "2006-01-02"
	monthLabelLayout = "2006-01"
	feetPerMile      = 5280.0
)

// WeekStart returns the Monday of the ISO week containing d.
func WeekStart(d time.Time) time.Time {
	offset := (int(d.Weekday()) + 6) % 7
	return domain.CivilDate(d).AddDate(0, 0, -offset)
}

// MonthStart returns the first day of d's month.
func MonthStart(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// AggregateByPeriod sums distance per week or per month in ascending order.
// Weeks with no runs are absent; the monthly series is gap-filled with zero
// totals for every month between the first and last bucket.
func AggregateByPeriod(runs []domain.Run, period Period) []domain.PeriodTotal {
	if len(runs) == 0 {
		return []domain.PeriodTotal{}
	}

	keyFn, layout := WeekStart, weekLabelLayout
	if period == PeriodMonth {
		keyFn, layout = MonthStart, monthLabelLayout
	}

	sums := make(map[time.Time]float64)
	for _, r := range runs {
		k := keyFn(r.Date)
		sums[k] += nanToZero(r.Distance)
	}

	keys := make([]time.Time, 0, len(sums))
	for k := range sums {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })

	if period == PeriodMonth {
		keys = monthRange(keys[0], keys[len(keys)-1])
	}

	out := make([]domain.PeriodTotal, 0, len(keys))
	for _, k := range keys {
		out = append(out, domain.PeriodTotal{
			Start:         k,
			Label:         k.Format(layout),
			TotalDistance: sums[k],
		})
	}
	return out
}

// monthRange lists every month start from first to last inclusive.
func monthRange(first, last time.Time) []time.Time {
	var months []time.Time
	for m := first; !m.After(last); m = m.AddDate(0, 1, 0) {
		months = append(months, m)
	}
	return months
}

// SumDistance is the plain distance total of runs. Blank distances count as zero.
func SumDistance(runs []domain.Run) float64 {
	var total float64
	for _, r := range runs {
		total += nanToZero(r.Distance)
	}
	return total
}

// AggregateShoes groups runs by shoe and sorts by total distance, largest
// first, breaking ties by shoe name. A nil restrictTo keeps every shoe;
// otherwise only runs whose shoe is in the set are aggregated, over their
// whole history.
func AggregateShoes(runs []domain.Run, restrictTo map[string]struct{}) []domain.ShoeAggregate {
	type acc struct {
		count    int
		measured int
		total    float64
		max      float64
		minutes  float64
	}

	groups := make(map[string]*acc)
	for _, r := range runs {
		if restrictTo != nil {
			if _, ok := restrictTo[r.Shoe]; !ok {
				continue
			}
		}
		a, ok := groups[r.Shoe]
		if !ok {
			a = &acc{max: math.Inf(-1)}
			groups[r.Shoe] = a
		}
		a.count++
		if !math.IsNaN(r.Distance) {
			a.measured++
			a.total += r.Distance
			a.max = math.Max(a.max, r.Distance)
		}
		a.minutes += nanToZero(r.Time)
	}

	out := make([]domain.ShoeAggregate, 0, len(groups))
	for shoe, a := range groups {
		agg := domain.ShoeAggregate{
			Shoe:          shoe,
			RunCount:      a.count,
			TotalDistance: a.total,
			TimeHours:     a.minutes / 60,
		}
		if a.measured > 0 {
			agg.AvgDistance = a.total / float64(a.measured)
			agg.MaxDistance = a.max
		}
		out = append(out, agg)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalDistance != out[j].TotalDistance {
			return out[i].TotalDistance > out[j].TotalDistance
		}
		return out[i].Shoe < out[j].Shoe
	})
	return out
}

// WeeklyCumulativeElevation sums elevation per week, converts it to miles and
// keeps a running total. Callers pass one year of runs; the total starts at
// zero for whatever set is passed. Negative weekly sums add nothing to the
// running total, so it never decreases.
func WeeklyCumulativeElevation(runs []domain.Run) []domain.ElevationWeek {
	feet := make(map[time.Time]float64)
	for _, r := range runs {
		feet[WeekStart(r.Date)] += nanToZero(r.Elevation)
	}

	weeks := make([]time.Time, 0, len(feet))
	for w := range feet {
		weeks = append(weeks, w)
	}
	sort.Slice(weeks, func(i, j int) bool { return weeks[i].Before(weeks[j]) })

	out := make([]domain.ElevationWeek, 0, len(weeks))
	var cumulative float64
	for _, w := range weeks {
		miles := feet[w] / feetPerMile
		if miles > 0 {
			cumulative += miles
		}
		out = append(out, domain.ElevationWeek{
			WeekStart:             w,
			TotalElevationFt:      feet[w],
			TotalElevationMi:      miles,
			CumulativeElevationMi: cumulative,
		})
	}
	return out
}

func nanToZero(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}
