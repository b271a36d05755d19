// Package cli holds the runreport command tree.
//
//	runreport serve  [--port N]
//	runreport report [--format text|json] [--today YYYY-MM-DD]
//	runreport export --out DIR [--xlsx] [--bom] [--today YYYY-MM-DD]
//
// The root command loads the configuration (--config, then RUNREPORT_*
// variables) and initializes logging before any subcommand runs. Any
// returned error exits with status 1.
package cli
