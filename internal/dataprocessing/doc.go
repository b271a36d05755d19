// Package dataprocessing turns the raw running log into report tables.
//
// The pipeline has three stages, each taking an immutable table and
// returning a new one:
//
//  1. Clean parses dates, derives elevation per mile and drops rows shorter
//     than a mile or climbing more than 250 ft per mile.
//  2. The aggregation functions bucket runs by week or month, group by shoe
//     and accumulate weekly elevation.
//  3. The statistics functions compute the most recent run, all-time totals,
//     recent-performance windows, lifetime shoe summaries and the run table.
//
// Summarizer.Build runs stages 2 and 3 for one report, threading a single
// "today" through every window so the tables agree with each other.
//
// Blank numeric cells arrive as NaN and are skipped by every sum, mean and
// max, matching null semantics.
package dataprocessing
