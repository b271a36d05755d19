// Package services holds the application services behind the HTTP and CLI
// surfaces.
//
// ReportService owns the pipeline: it fetches the raw activity table from a
// datasource.Source, cleans it and hands the result to the summarizer. The
// cleaned dataset may be cached for a configurable TTL, and concurrent
// requests share a single in-flight fetch. Every stage is traced and
// recorded in the report metrics.
//
// HealthService answers liveness and readiness probes; readiness loads the
// dataset through the report service so a broken source shows up as
// not_ready.
//
// Services take their dependencies through constructors and log through an
// injected *slog.Logger:
//
//	reports := services.NewReportService(services.ReportServiceOptions{
//		Source:   src,
//		Location: loc,
//		Logger:   logger,
//	})
//	report, err := reports.Generate(ctx)
package services
