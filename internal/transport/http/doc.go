// Package http implements the HTTP handlers of the report server.
//
// Handlers stay thin: they validate request parameters, call the report or
// health service and render the result. Errors are converted to RFC 7807
// problem responses by errors.ErrorHandler, so a broken source answers 502,
// an empty running log 404 and an unknown download table 400.
//
// Routes:
//
//	GET /                      HTML report page (optional ?today=YYYY-MM-DD)
//	GET /download/{table}.csv  one report table as CSV
//	GET /download/report.xlsx  every table as one workbook
//	GET /healthz, /readyz      liveness and source readiness
//
// The page template is embedded in the binary and rendered into a buffer
// before anything is written, so template errors still produce a problem
// response.
package http
