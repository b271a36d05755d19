package http

import (
	"embed"
	"fmt"
	"html/template"
	"math"
	"strconv"
	"time"

	"github.com/chadallison/running-st/internal/config"
	"github.com/chadallison/running-st/internal/dataprocessing"
	"github.com/chadallison/running-st/internal/exporter"
	"github.com/chadallison/running-st/pkg/contracts/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageFuncs = template.FuncMap{
	"f0":   func(v float64) string { return formatFixed(v, 0) },
	"f2":   func(v float64) string { return formatFixed(v, 2) },
	"f3":   func(v float64) string { return formatFixed(v, 3) },
	"date": func(t time.Time) string { return t.Format("2006-01-02") },
}

// parseTemplates loads the embedded report page.
func parseTemplates() (*template.Template, error) {
	return template.New("report.html").Funcs(pageFuncs).ParseFS(templateFS, "templates/report.html")
}

func formatFixed(v float64, prec int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "-"
	}
	return strconv.FormatFloat(v, 'f', prec, 64)
}

// bar is one row of a horizontal CSS bar series.
type bar struct {
	Label   string
	Value   float64
	Percent float64
}

type scatterPoint struct {
	X, Y  float64
	Title string
}

type scatterView struct {
	Width, Height int
	Points        []scatterPoint
	MeanX, MeanY  float64
	MinDistance   float64
	MaxDistance   float64
	MeanDistance  float64
	FastPace      string
	SlowPace      string
	MeanPace      string
}

type downloadLink struct {
	Name string
	Href string
}

// pageData is the view model of the report template.
type pageData struct {
	Report         *domain.Report
	RecentShoeDays int
	Weekly         []bar
	Monthly        []bar
	Elevation      []bar
	Scatter        scatterView
	Downloads      []downloadLink
}

func newPageData(r *domain.Report, recentShoeDays int) pageData {
	weekly := make([]bar, len(r.WeeklyDistance))
	for i, p := range r.WeeklyDistance {
		weekly[i] = bar{Label: p.Label, Value: p.TotalDistance}
	}
	monthly := make([]bar, len(r.MonthlyDistance))
	for i, p := range r.MonthlyDistance {
		monthly[i] = bar{Label: p.Label, Value: p.TotalDistance}
	}
	elevation := make([]bar, len(r.WeeklyElevation))
	for i, w := range r.WeeklyElevation {
		elevation[i] = bar{Label: w.WeekStart.Format("2006-01-02"), Value: w.CumulativeElevationMi}
	}

	downloads := make([]downloadLink, 0, len(exporter.TableNames)+1)
	for _, name := range exporter.TableNames {
		downloads = append(downloads, downloadLink{Name: name + ".csv", Href: config.DownloadPath + "/" + name + ".csv"})
	}
	downloads = append(downloads, downloadLink{Name: "report.xlsx", Href: config.DownloadPath + "/report.xlsx"})

	return pageData{
		Report:         r,
		RecentShoeDays: recentShoeDays,
		Weekly:         scaleBars(weekly),
		Monthly:        scaleBars(monthly),
		Elevation:      scaleBars(elevation),
		Scatter:        newScatterView(r.PaceScatter, 720, 320),
		Downloads:      downloads,
	}
}

// scaleBars sets each bar's width relative to the largest value. Negative
// values render as empty bars.
func scaleBars(bars []bar) []bar {
	max := 0.0
	for _, b := range bars {
		if b.Value > max {
			max = b.Value
		}
	}
	for i := range bars {
		if max > 0 && bars[i].Value > 0 {
			bars[i].Percent = math.Round(bars[i].Value/max*1000) / 10
		}
	}
	return bars
}

// newScatterView projects distance onto x and pace onto y, faster paces at
// the top.
func newScatterView(s domain.PaceScatter, width, height int) scatterView {
	const pad = 24.0
	view := scatterView{
		Width:        width,
		Height:       height,
		MinDistance:  s.MinDistance,
		MaxDistance:  s.MaxDistance,
		MeanDistance: s.MeanDistance,
		FastPace:     dataprocessing.FormatPace(s.MinPace),
		SlowPace:     dataprocessing.FormatPace(s.MaxPace),
		MeanPace:     dataprocessing.FormatPace(s.MeanPace),
	}

	project := func(v, lo, hi, extent float64) float64 {
		if hi <= lo {
			return extent / 2
		}
		return pad + (v-lo)/(hi-lo)*(extent-2*pad)
	}

	w, h := float64(width), float64(height)
	for _, p := range s.Points {
		view.Points = append(view.Points, scatterPoint{
			X:     math.Round(project(p.Distance, s.MinDistance, s.MaxDistance, w)*10) / 10,
			Y:     math.Round(project(p.Pace, s.MinPace, s.MaxPace, h)*10) / 10,
			Title: fmt.Sprintf("%s: %.2f mi at %s/mi (%s)", p.Date.Format("2006-01-02"), p.Distance, p.PaceText, p.Shoe),
		})
	}
	view.MeanX = math.Round(project(s.MeanDistance, s.MinDistance, s.MaxDistance, w)*10) / 10
	view.MeanY = math.Round(project(s.MeanPace, s.MinPace, s.MaxPace, h)*10) / 10
	return view
}
