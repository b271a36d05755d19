package dataprocessing

import (
	"context"
	"log/slog"
	"time"

	"github.com/chadallison/running-st/pkg/contracts/domain"
)

// Summarizer assembles every report table from a cleaned run table.
type Summarizer struct {
	logger         *slog.Logger
	recentShoeDays int
}

// SummarizerConfig holds configuration options for the Summarizer.
type SummarizerConfig struct {
	RecentShoeDays int // window deciding which shoes count as in rotation
}

// DefaultSummarizerConfig returns the standard 60 day shoe window.
func DefaultSummarizerConfig() SummarizerConfig {
	return SummarizerConfig{RecentShoeDays: 60}
}

// NewSummarizer creates a Summarizer. A nil logger uses slog.Default.
func NewSummarizer(logger *slog.Logger, config SummarizerConfig) *Summarizer {
	if logger == nil {
		logger = slog.Default()
	}
	if config.RecentShoeDays <= 0 {
		config.RecentShoeDays = DefaultSummarizerConfig().RecentShoeDays
	}
	return &Summarizer{
		logger:         logger.With(slog.String("component", "summarizer")),
		recentShoeDays: config.RecentShoeDays,
	}
}

// Build computes the report for runs as seen on today. It fails with an
// empty dataset error when there are no runs, since the most recent run
// headlines the report.
func (s *Summarizer) Build(ctx context.Context, runs []domain.Run, today time.Time) (*domain.Report, error) {
	today = domain.CivilDate(today)

	latest, err := MostRecentRun(runs)
	if err != nil {
		s.logger.WarnContext(ctx, "cannot build report from empty table")
		return nil, err
	}

	year := today.Year()
	thisYear := FilterYear(runs, year)

	report := &domain.Report{
		Today:             today,
		Year:              year,
		MostRecent:        latest,
		AllTime:           ComputeAllTimeStats(runs),
		RecentPerformance: RecentPerformance(runs, today),
		RecentShoes:       AggregateShoes(runs, RecentShoes(runs, today, s.recentShoeDays)),
		WeeklyDistance:    AggregateByPeriod(thisYear, PeriodWeek),
		MonthlyDistance:   AggregateByPeriod(runs, PeriodMonth),
		WeeklyElevation:   WeeklyCumulativeElevation(thisYear),
		PaceScatter:       PaceScatterFor(runs, year),
		LifetimeShoes:     LifetimeShoeSummary(runs),
		Runs:              RunTable(runs),
	}

	s.logger.InfoContext(ctx, "report tables built",
		slog.Int("runs", len(runs)),
		slog.Int("runs_this_year", len(thisYear)),
		slog.Int("shoes", len(report.LifetimeShoes)),
		slog.Int("recent_shoes", len(report.RecentShoes)),
		slog.Int("months", len(report.MonthlyDistance)))

	return report, nil
}
