package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/chadallison/running-st/internal/dataprocessing"
	"github.com/chadallison/running-st/internal/datasource"
	"github.com/chadallison/running-st/internal/infrastructure"
	"github.com/chadallison/running-st/pkg/contracts/domain"
)

// ReportService runs the fetch, clean and summarize pipeline.
type ReportService struct {
	source     datasource.Source
	summarizer *dataprocessing.Summarizer
	cleanOpts  dataprocessing.CleanOptions
	location   *time.Location
	cacheTTL   time.Duration
	clock      func() time.Time
	tracer     trace.Tracer
	metrics    *infrastructure.ReportMetrics
	logger     *slog.Logger

	group singleflight.Group

	mu       sync.RWMutex
	cached   *dataset
	lastErr  error
	lastLoad time.Time
}

// ReportServiceOptions carries the collaborators of a ReportService. Only
// Source is required.
type ReportServiceOptions struct {
	Source         datasource.Source
	CleanOptions   dataprocessing.CleanOptions
	RecentShoeDays int
	Location       *time.Location
	CacheTTL       time.Duration
	Clock          func() time.Time
	Tracer         trace.Tracer
	Metrics        *infrastructure.ReportMetrics
	Logger         *slog.Logger
}

// dataset is one cleaned fetch of the source.
type dataset struct {
	runs       []domain.Run
	sourceRows int
	dropped    int
	loadedAt   time.Time
}

// SourceStatus describes the outcome of the latest source load.
type SourceStatus struct {
	Source   string    `json:"source"`
	LoadedAt time.Time `json:"loaded_at,omitempty"`
	Runs     int       `json:"runs"`
	Error    string    `json:"error,omitempty"`
}

// NewReportService creates a report service with injected dependencies.
func NewReportService(opts ReportServiceOptions) *ReportService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.CleanOptions == (dataprocessing.CleanOptions{}) {
		opts.CleanOptions = dataprocessing.DefaultCleanOptions()
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer(infrastructure.InstrumentationName)
	}

	logger = logger.With(slog.String("component", "report_service"))
	logger.Info("ReportService initialized",
		slog.String("source", opts.Source.Name()),
		slog.String("timezone", opts.Location.String()),
		slog.Duration("cache_ttl", opts.CacheTTL),
		slog.Float64("min_distance", opts.CleanOptions.MinDistance),
		slog.Float64("max_elevation_per_mile", opts.CleanOptions.MaxElevationPerMile))

	return &ReportService{
		source:     opts.Source,
		summarizer: dataprocessing.NewSummarizer(logger, dataprocessing.SummarizerConfig{RecentShoeDays: opts.RecentShoeDays}),
		cleanOpts:  opts.CleanOptions,
		location:   opts.Location,
		cacheTTL:   opts.CacheTTL,
		clock:      opts.Clock,
		tracer:     opts.Tracer,
		metrics:    opts.Metrics,
		logger:     logger,
	}
}

// Generate builds the report as of the service clock.
func (rs *ReportService) Generate(ctx context.Context) (*domain.Report, error) {
	return rs.GenerateAt(ctx, rs.clock())
}

// GenerateAt builds the report as seen on the calendar date of now in the
// configured timezone.
func (rs *ReportService) GenerateAt(ctx context.Context, now time.Time) (*domain.Report, error) {
	now = now.In(rs.location)
	return rs.generate(ctx, domain.CivilDate(now), now)
}

// GenerateFor builds the report as seen on the calendar date of day, taken
// in day's own location.
func (rs *ReportService) GenerateFor(ctx context.Context, day time.Time) (*domain.Report, error) {
	return rs.generate(ctx, domain.CivilDate(day), rs.clock().In(rs.location))
}

func (rs *ReportService) generate(ctx context.Context, today, now time.Time) (*domain.Report, error) {
	ctx, span := rs.tracer.Start(ctx, "report.generate",
		trace.WithAttributes(attribute.String("today", today.Format("2006-01-02"))))
	defer span.End()

	start := time.Now()

	ds, err := rs.load(ctx)
	if err != nil {
		rs.metrics.RecordBuild(ctx, time.Since(start), 0, err)
		infrastructure.RecordError(ctx, err)
		return nil, err
	}

	_, buildSpan := rs.tracer.Start(ctx, "report.summarize",
		trace.WithAttributes(attribute.Int("runs", len(ds.runs))))
	report, err := rs.summarizer.Build(ctx, ds.runs, today)
	buildSpan.End()

	rs.metrics.RecordBuild(ctx, time.Since(start), ds.dropped, err)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}

	report.GeneratedAt = now
	report.Source = rs.source.Name()
	report.SourceRows = ds.sourceRows
	report.DroppedRows = ds.dropped

	rs.logger.InfoContext(ctx, "Report generated",
		slog.String("today", today.Format("2006-01-02")),
		slog.Int("runs", len(ds.runs)),
		slog.Int("dropped_rows", ds.dropped),
		slog.Duration("duration", time.Since(start)))

	return report, nil
}

// Status reports the latest source load without triggering a fetch.
func (rs *ReportService) Status() SourceStatus {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	status := SourceStatus{Source: rs.source.Name(), LoadedAt: rs.lastLoad}
	if rs.cached != nil {
		status.Runs = len(rs.cached.runs)
	}
	if rs.lastErr != nil {
		status.Error = rs.lastErr.Error()
	}
	return status
}

// Probe loads the dataset (from cache when fresh) to check the source is usable.
func (rs *ReportService) Probe(ctx context.Context) error {
	_, err := rs.load(ctx)
	return err
}

// Invalidate drops the cached dataset so the next request refetches.
func (rs *ReportService) Invalidate() {
	rs.mu.Lock()
	rs.cached = nil
	rs.mu.Unlock()
}

// load returns the cleaned dataset, fetching at most once concurrently.
func (rs *ReportService) load(ctx context.Context) (*dataset, error) {
	if ds := rs.fresh(); ds != nil {
		if rs.metrics != nil {
			rs.metrics.ReportCacheHits.Add(ctx, 1)
		}
		return ds, nil
	}

	ch := rs.group.DoChan("dataset", func() (interface{}, error) {
		return rs.fetchAndClean(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*dataset), nil
	}
}

func (rs *ReportService) fresh() *dataset {
	if rs.cacheTTL <= 0 {
		return nil
	}
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	if rs.cached == nil || rs.clock().Sub(rs.cached.loadedAt) >= rs.cacheTTL {
		return nil
	}
	return rs.cached
}

func (rs *ReportService) fetchAndClean(ctx context.Context) (*dataset, error) {
	ctx, span := rs.tracer.Start(ctx, "source.fetch",
		trace.WithAttributes(attribute.String("source", rs.source.Name())))
	start := time.Now()
	raw, err := rs.source.Fetch(ctx)
	rs.metrics.RecordFetch(ctx, rs.source.Name(), time.Since(start), len(raw), err)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		span.End()
		rs.logger.ErrorContext(ctx, "Source fetch failed",
			slog.String("source", rs.source.Name()),
			slog.String("error", err.Error()))
		rs.remember(nil, err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("rows", len(raw)))
	span.End()

	_, cleanSpan := rs.tracer.Start(ctx, "data.clean")
	result, err := dataprocessing.Clean(raw, rs.cleanOpts)
	cleanSpan.End()
	if err != nil {
		rs.logger.ErrorContext(ctx, "Cleaning failed", slog.String("error", err.Error()))
		rs.remember(nil, err)
		return nil, err
	}

	if result.Dropped > 0 {
		rs.logger.InfoContext(ctx, "Rows dropped by cleaning filter",
			slog.Int("dropped", result.Dropped),
			slog.Int("kept", len(result.Runs)))
	}

	ds := &dataset{
		runs:       result.Runs,
		sourceRows: len(raw),
		dropped:    result.Dropped,
		loadedAt:   rs.clock(),
	}
	rs.remember(ds, nil)
	return ds, nil
}

func (rs *ReportService) remember(ds *dataset, err error) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.lastErr = err
	if ds != nil {
		rs.cached = ds
		rs.lastLoad = ds.loadedAt
	}
}
