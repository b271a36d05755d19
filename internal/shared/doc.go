// Package shared holds helpers used by more than one package.
//
// The testutil subpackage captures slog output for assertions and builds
// run log fixtures (CSV text, files on disk, raw rows) so handler, service
// and CLI tests share one dataset.
package shared
