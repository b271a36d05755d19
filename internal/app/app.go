package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/chadallison/running-st/internal/config"
	"github.com/chadallison/running-st/internal/dataprocessing"
	"github.com/chadallison/running-st/internal/datasource"
	apperrors "github.com/chadallison/running-st/internal/errors"
	"github.com/chadallison/running-st/internal/infrastructure"
	customMiddleware "github.com/chadallison/running-st/internal/middleware"
	"github.com/chadallison/running-st/internal/services"
	transport "github.com/chadallison/running-st/internal/transport/http"
	"github.com/chadallison/running-st/pkg/contracts"
)

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.ReportMetrics
	Reports       *services.ReportService
	Health        *services.HealthService
}

// Pipeline is the report pipeline without any HTTP surface, used by the
// one-shot CLI commands.
type Pipeline struct {
	Reports       *services.ReportService
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.ReportMetrics
}

// NewPipeline wires telemetry, the configured data source and the report service.
func NewPipeline(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Pipeline, error) {
	providers, err := infrastructure.InitializeOTel(cfg.Telemetry, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.CreateReportMetrics(providers.Meter)
	if err != nil {
		shutdownOTel(ctx, providers, logger)
		return nil, fmt.Errorf("failed to create report metrics: %w", err)
	}

	reports, err := newReportService(ctx, cfg, logger, providers, metrics)
	if err != nil {
		shutdownOTel(ctx, providers, logger)
		return nil, err
	}

	return &Pipeline{Reports: reports, OTelProviders: providers, Metrics: metrics}, nil
}

// shutdownOTel releases providers from a pipeline that failed to build.
func shutdownOTel(ctx context.Context, providers *infrastructure.OTelProviders, logger *slog.Logger) {
	if err := providers.Shutdown(context.WithoutCancel(ctx)); err != nil {
		logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
	}
}

// Close flushes telemetry.
func (p *Pipeline) Close(ctx context.Context) error {
	return p.OTelProviders.Shutdown(ctx)
}

func newReportService(ctx context.Context, cfg *config.Config, logger *slog.Logger, providers *infrastructure.OTelProviders, metrics *infrastructure.ReportMetrics) (*services.ReportService, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, apperrors.NewConfigError("invalid report timezone", err)
	}

	source, err := datasource.New(ctx, cfg.Source, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create data source: %w", err)
	}

	return services.NewReportService(services.ReportServiceOptions{
		Source: source,
		CleanOptions: dataprocessing.CleanOptions{
			MinDistance:         cfg.Report.MinDistance,
			MaxElevationPerMile: cfg.Report.MaxElevationPerMile,
		},
		RecentShoeDays: cfg.Report.RecentShoeDays,
		Location:       loc,
		CacheTTL:       cfg.Source.CacheTTL,
		Tracer:         providers.Tracer,
		Metrics:        metrics,
		Logger:         logger,
	}), nil
}

// NewApplication creates a new application instance with dependency injection
func NewApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Application, error) {
	logger.InfoContext(ctx, "Application starting",
		slog.String("name", config.AppName),
		slog.String("version", contracts.Version),
		slog.String("source", cfg.Source.Kind))

	pipeline, err := NewPipeline(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: pipeline.OTelProviders,
		Metrics:       pipeline.Metrics,
		Reports:       pipeline.Reports,
		Health:        services.NewHealthService(contracts.Version, pipeline.Reports, logger),
	}

	if err := app.setupRouter(); err != nil {
		return nil, err
	}
	app.createServer()

	return app, nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() error {
	errorHandler := apperrors.NewErrorHandler(a.Logger, false)

	reportHandler, err := transport.NewReportHandler(a.Reports, a.Config.Report.RecentShoeDays, a.Logger, errorHandler)
	if err != nil {
		return err
	}
	healthHandler := transport.NewHealthHandler(a.Health, a.Logger)

	r := chi.NewRouter()
	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	// Ordering: RequestID → RealIP → OTel → Logger → Recoverer
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders, a.Metrics).Handler)
	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(customMiddleware.Recoverer(a.Logger))

	// Probes and metrics stay outside rate limiting and timeouts.
	r.Get(config.HealthEndpoint, healthHandler.HealthCheck)
	r.Get(config.ReadinessEndpoint, healthHandler.ReadinessCheck)
	r.Get(config.LivenessEndpoint, healthHandler.LivenessCheck)
	r.Get(config.VersionEndpoint, healthHandler.Version)
	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle(config.MetricsEndpoint, a.OTelProviders.PrometheusHTTP)
	}

	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.SecurityHeaders)
		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.Logger))
		r.Use(customMiddleware.Compress(5))

		r.Mount("/", reportHandler.Routes())
	})

	a.Router = r
	return nil
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start binds the listener and serves in the background. Serve errors are
// delivered on the returned channel.
func (a *Application) Start(ctx context.Context) (<-chan error, error) {
	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", ln.Addr().String()),
		slog.String("source", a.Config.Source.Kind),
		slog.String("level", a.Config.Logging.Level))

	// A failed first load is only a warning; readiness keeps reporting it.
	go func() {
		probeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.Config.Server.RequestTimeout)
		defer cancel()
		if err := a.Reports.Probe(probeCtx); err != nil {
			a.Logger.WarnContext(probeCtx, "Startup source check failed", slog.String("error", err.Error()))
		}
	}()

	return errCh, nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
		a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run runs the application until interrupted or the server fails
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh, err := a.Start(ctx)
	if err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		a.Logger.InfoContext(ctx, "Received interrupt signal")
	case err := <-errCh:
		if err != nil {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			_ = a.Stop(context.Background())
			return err
		}
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout+time.Second)
	defer cancel()
	return a.Stop(stopCtx)
}
