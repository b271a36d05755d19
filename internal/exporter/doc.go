// Package exporter writes report tables to CSV files and XLSX workbooks.
//
// BuildTables flattens a domain.Report into named tables (runs, shoe
// summaries, distance series, elevation, pace scatter). CSVWriter writes one
// file per table, optionally with a UTF-8 BOM so Excel detects the encoding;
// XLSXWriter puts every table on its own sheet of a single workbook.
//
// Example usage:
//
//	tables := exporter.BuildTables(report)
//	paths, err := exporter.NewCSVWriter(logger).ExportDir(ctx, "out", tables, exporter.WriteOptions{})
package exporter
