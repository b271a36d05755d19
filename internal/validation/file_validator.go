package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/chadallison/running-st/internal/errors"
)

// Kinds of local source files the validator knows about.
const (
	KindCSV  = "csv"
	KindXLSX = "xlsx"
)

// FileValidator checks local files and directories before the data source
// reads them or the exporter writes to them.
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger,
	}
}

// ValidateSourceFile checks that path is a readable, non-empty regular file
// of the given kind. Failures are data source errors.
func (v *FileValidator) ValidateSourceFile(path, kind string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("Source file does not exist",
			slog.String("file", path))
		return apperrors.NewDataSourceError(fmt.Sprintf("source file %s does not exist", path), err).
			WithContext("path", path)
	}
	if err != nil {
		return apperrors.NewDataSourceError("failed to stat source file", err).
			WithContext("path", path)
	}
	if info.IsDir() {
		v.logger.Error("Source path is a directory, not a file",
			slog.String("path", path))
		return apperrors.NewDataSourceError(fmt.Sprintf("%s is a directory, not a file", path), nil).
			WithContext("path", path)
	}
	if info.Size() == 0 {
		return apperrors.NewDataSourceError(fmt.Sprintf("source file %s is empty", path), nil).
			WithContext("path", path)
	}

	if kind == KindXLSX {
		if err := v.checkWorkbookName(path); err != nil {
			return err
		}
	}

	// Stat can succeed on files we cannot open.
	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("Source file is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return apperrors.NewDataSourceError(fmt.Sprintf("source file %s is not readable", path), err).
			WithContext("path", path)
	}
	file.Close()

	v.logger.Debug("Source file validated",
		slog.String("file", path),
		slog.String("kind", kind),
		slog.Int64("size", info.Size()))
	return nil
}

// checkWorkbookName rejects extensions excelize cannot open and Office lock files.
func (v *FileValidator) checkWorkbookName(path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".xlsx" && ext != ".xlsm" {
		v.logger.Error("File is not an Excel workbook",
			slog.String("file", path),
			slog.String("extension", ext))
		return apperrors.NewDataSourceError(fmt.Sprintf("file %s is not an Excel workbook (extension: %s)", path, ext), nil).
			WithContext("path", path)
	}

	if strings.HasPrefix(filepath.Base(path), "~$") {
		v.logger.Warn("Refusing temporary Excel lock file",
			slog.String("file", path))
		return apperrors.NewDataSourceError(fmt.Sprintf("file %s is a temporary Excel file", path), nil).
			WithContext("path", path)
	}
	return nil
}

// ValidateOutputDirectory ensures dir exists or can be created and is writable.
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError(fmt.Sprintf("failed to create output directory %s", dir), err).
			WithContext("path", dir)
	}

	// Verify it's writable by creating a probe file
	probe, err := os.CreateTemp(dir, ".write_test*")
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError(fmt.Sprintf("output directory %s is not writable", dir), err).
			WithContext("path", dir)
	}
	name := probe.Name()
	probe.Close()
	os.Remove(name)

	v.logger.Debug("Output directory validated",
		slog.String("directory", dir))
	return nil
}
