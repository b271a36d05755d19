package config

import (
	"fmt"
	"net/url"
	"time"
)

// Application constants
const (
	AppName     = "runreport"
	ServiceName = "runreport"
	EnvPrefix   = "RUNREPORT"

	// Source kinds
	SourceCSV    = "csv"
	SourceXLSX   = "xlsx"
	SourceSheets = "sheets"

	// Published activity sheet
	DefaultSheetID   = "1oBUbxvufTpkGjnDgfadvUeU9KMo7o71Iu0ykJwERzMc"
	DefaultSheetName = "Sheet1"

	// Cleaning thresholds
	DefaultMinDistance         = 1.0
	DefaultMaxElevationPerMile = 250.0
	DefaultRecentShoeDays      = 60

	// Rate Limiting
	DefaultRateLimit = 20.0 // requests per second
	DefaultBurstSize = 40

	// Network Timeouts
	DefaultHTTPTimeout    = 30 * time.Second
	DefaultRequestTimeout = 60 * time.Second

	DefaultLogLevel = "info"

	// HTTP endpoints
	HealthEndpoint    = "/healthz"
	ReadinessEndpoint = "/readyz"
	LivenessEndpoint  = "/livez"
	VersionEndpoint   = "/version"
	MetricsEndpoint   = "/metrics"
	DownloadPath      = "/download"
)

// DefaultSheetCSVURL returns the gviz CSV export URL of a published Google Sheet.
func DefaultSheetCSVURL(sheetID, sheetName string) string {
	return fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s/gviz/tq?tqx=out:csv&sheet=%s",
		sheetID, url.QueryEscape(sheetName))
}
