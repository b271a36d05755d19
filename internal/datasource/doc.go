// Package datasource loads the running log into raw rows.
//
// Three sources are supported: CSV over HTTP or from disk (the default reads
// the published Google Sheet through its gviz CSV export), a local XLSX
// workbook, and the Google Sheets API. All of them hand a header row and
// string cells to the same decoder, so schema checks and numeric parsing
// behave identically whatever the transport.
//
// Dates are left as text; parsing them is the cleaning stage's job.
package datasource
