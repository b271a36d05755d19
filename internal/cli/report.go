package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/chadallison/running-st/internal/app"
	apperrors "github.com/chadallison/running-st/internal/errors"
	"github.com/chadallison/running-st/pkg/contracts/domain"
)

const dateLayout = "2006-01-02"

func reportCMD(rt *runtime) *cobra.Command {
	var (
		format string
		today  string
	)

	report := &cobra.Command{
		Use:   "report",
		Short: "Print the running report",
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "text" && format != "json" {
				return apperrors.NewAppValidationError(fmt.Sprintf("--format must be text or json, got %q", format))
			}
			day, err := parseToday(today)
			if err != nil {
				return err
			}

			r, err := rt.generate(cmd.Context(), day)
			if err != nil {
				return err
			}

			if format == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(r)
			}
			return writeText(cmd.OutOrStdout(), r, rt.cfg.Report.RecentShoeDays)
		},
	}
	report.Flags().StringVarP(&format, "format", "f", "text", "output format: text or json")
	report.Flags().StringVar(&today, "today", "", "report as of this date (YYYY-MM-DD)")

	return report
}

// generate runs the pipeline once. A zero day uses the clock.
func (rt *runtime) generate(ctx context.Context, day time.Time) (*domain.Report, error) {
	pipeline, err := app.NewPipeline(ctx, rt.cfg, rt.logger)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := pipeline.Close(context.WithoutCancel(ctx)); err != nil {
			rt.logger.WarnContext(ctx, "Telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	if day.IsZero() {
		return pipeline.Reports.Generate(ctx)
	}
	return pipeline.Reports.GenerateFor(ctx, day)
}

// writeText renders the report as aligned plain-text tables.
func writeText(out io.Writer, r *domain.Report, recentShoeDays int) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "Running report for %s (source %s, %d runs, %d rows dropped)\n\n",
		r.Today.Format(dateLayout), r.Source, r.AllTime.RunCount, r.DroppedRows)

	mr := r.MostRecent
	fmt.Fprintln(tw, "MOST RECENT RUN")
	fmt.Fprintf(tw, "  Date\t%s\n", mr.Date.Format(dateLayout))
	fmt.Fprintf(tw, "  Distance\t%.2f mi\n", mr.Distance)
	fmt.Fprintf(tw, "  Pace\t%s\n", mr.PaceText)
	fmt.Fprintf(tw, "  Elevation\t%.0f ft\n", mr.Elevation)
	fmt.Fprintf(tw, "  Shoe\t%s\n\n", mr.Shoe)

	fmt.Fprintln(tw, "ALL TIME")
	fmt.Fprintf(tw, "  Distance\t%.2f mi\n", r.AllTime.TotalDistance)
	fmt.Fprintf(tw, "  Runs\t%d\n", r.AllTime.RunCount)
	fmt.Fprintf(tw, "  Average\t%.2f mi\n", r.AllTime.AvgDistance)
	fmt.Fprintf(tw, "  Time\t%s\n\n", r.AllTime.TotalTimeText)

	fmt.Fprintln(tw, "RECENT PERFORMANCE")
	for _, w := range r.RecentPerformance {
		fmt.Fprintf(tw, "  %s\t%.2f mi\n", w.Label, w.TotalDistance)
	}
	fmt.Fprintln(tw)

	fmt.Fprintf(tw, "SHOES, LAST %d DAYS\n", recentShoeDays)
	if len(r.RecentShoes) == 0 {
		fmt.Fprintln(tw, "  (none)")
	} else {
		fmt.Fprintln(tw, "  Shoe\tRuns\tMiles\tAvg\tLongest\tHours")
		for _, s := range r.RecentShoes {
			fmt.Fprintf(tw, "  %s\t%d\t%.2f\t%.2f\t%.2f\t%.2f\n",
				s.Shoe, s.RunCount, s.TotalDistance, s.AvgDistance, s.MaxDistance, s.TimeHours)
		}
	}
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "LIFETIME SHOES")
	fmt.Fprintln(tw, "  Shoe\tRuns\tMiles\tAvg pace\tFirst run\tLast run")
	for _, s := range r.LifetimeShoes {
		fmt.Fprintf(tw, "  %s\t%d\t%.2f\t%s\t%s\t%s\n",
			s.Shoe, s.RunCount, s.TotalDistance, s.AvgPace,
			s.FirstRun.Format(dateLayout), s.MostRecent.Format(dateLayout))
	}

	return tw.Flush()
}
