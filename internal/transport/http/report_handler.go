package http

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/chadallison/running-st/internal/config"
	apperrors "github.com/chadallison/running-st/internal/errors"
	"github.com/chadallison/running-st/internal/exporter"
	"github.com/chadallison/running-st/internal/middleware"
	"github.com/chadallison/running-st/pkg/contracts/domain"
)

// ReportGenerator builds reports on demand.
type ReportGenerator interface {
	Generate(ctx context.Context) (*domain.Report, error)
	GenerateFor(ctx context.Context, day time.Time) (*domain.Report, error)
}

// reportParams are the request parameters shared by the page and downloads.
type reportParams struct {
	Table string `json:"table" validate:"omitempty,table_name"`
	Today string `json:"today" validate:"isodate"`
}

// ReportHandler serves the report page and table downloads.
type ReportHandler struct {
	reports        ReportGenerator
	tmpl           *template.Template
	validator      *middleware.Validator
	errorHandler   *apperrors.ErrorHandler
	csv            *exporter.CSVWriter
	xlsx           *exporter.XLSXWriter
	recentShoeDays int
	logger         *slog.Logger
}

// NewReportHandler creates a report handler. It fails only if the embedded
// page template does not parse.
func NewReportHandler(reports ReportGenerator, recentShoeDays int, logger *slog.Logger, errorHandler *apperrors.ErrorHandler) (*ReportHandler, error) {
	tmpl, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("failed to parse report template: %w", err)
	}

	logger = logger.With(slog.String("component", "report_handler"))
	return &ReportHandler{
		reports:        reports,
		tmpl:           tmpl,
		validator:      middleware.NewValidator(logger, errorHandler, exporter.TableNames),
		errorHandler:   errorHandler,
		csv:            exporter.NewCSVWriter(logger),
		xlsx:           exporter.NewXLSXWriter(logger),
		recentShoeDays: recentShoeDays,
		logger:         logger,
	}, nil
}

// Routes returns the report routes.
func (h *ReportHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServePage)
	r.Get(config.DownloadPath+"/report.xlsx", h.DownloadWorkbook)
	r.Get(config.DownloadPath+"/{table}.csv", h.DownloadTable)
	return r
}

// ServePage handles GET /
func (h *ReportHandler) ServePage(w http.ResponseWriter, r *http.Request) {
	report, ok := h.generate(w, r, reportParams{Today: r.URL.Query().Get("today")})
	if !ok {
		return
	}

	// Render into a buffer so a template failure can still produce a problem response.
	var buf bytes.Buffer
	if err := h.tmpl.Execute(&buf, newPageData(report, h.recentShoeDays)); err != nil {
		h.errorHandler.HandleError(w, r, fmt.Errorf("failed to render report page: %w", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// DownloadTable handles GET /download/{table}.csv
func (h *ReportHandler) DownloadTable(w http.ResponseWriter, r *http.Request) {
	params := reportParams{Table: chi.URLParam(r, "table"), Today: r.URL.Query().Get("today")}
	if params.Table == "" {
		h.errorHandler.HandleError(w, r, apperrors.ErrValidationField("table", "table is required"))
		return
	}

	report, ok := h.generate(w, r, params)
	if !ok {
		return
	}

	table, found := exporter.BuildTable(report, params.Table)
	if !found {
		h.errorHandler.HandleError(w, r, apperrors.NewNotFoundError(fmt.Sprintf("table %q", params.Table)))
		return
	}

	var buf bytes.Buffer
	if err := h.csv.WriteTable(&buf, table, exporter.WriteOptions{BOMPrefix: true}); err != nil {
		h.errorHandler.HandleError(w, r, apperrors.NewStorageError("failed to encode CSV", err))
		return
	}

	h.logger.InfoContext(r.Context(), "Table downloaded",
		slog.String("table", table.Name),
		slog.Int("rows", len(table.Rows)))

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.csv"`, table.Name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// DownloadWorkbook handles GET /download/report.xlsx
func (h *ReportHandler) DownloadWorkbook(w http.ResponseWriter, r *http.Request) {
	report, ok := h.generate(w, r, reportParams{Today: r.URL.Query().Get("today")})
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := h.xlsx.Write(r.Context(), &buf, exporter.BuildTables(report)); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="running-report-%s.xlsx"`, report.Today.Format("2006-01-02")))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// generate validates params and builds the report, writing the problem
// response itself on failure.
func (h *ReportHandler) generate(w http.ResponseWriter, r *http.Request, params reportParams) (*domain.Report, bool) {
	if !h.validator.Bind(w, r, params) {
		return nil, false
	}

	var (
		report *domain.Report
		err    error
	)
	if params.Today != "" {
		day, _ := time.Parse("2006-01-02", params.Today)
		report, err = h.reports.GenerateFor(r.Context(), day)
	} else {
		report, err = h.reports.Generate(r.Context())
	}
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return nil, false
	}
	return report, true
}
