package cli

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/chadallison/running-st/internal/exporter"
	"github.com/chadallison/running-st/internal/validation"
)

func exportCMD(rt *runtime) *cobra.Command {
	var (
		outDir   string
		withXLSX bool
		withBOM  bool
		today    string
	)

	export := &cobra.Command{
		Use:   "export",
		Short: "Write the report tables as CSV files and optionally one workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := parseToday(today)
			if err != nil {
				return err
			}
			if err := validation.NewFileValidator(rt.logger).ValidateOutputDirectory(outDir); err != nil {
				return err
			}

			r, err := rt.generate(cmd.Context(), day)
			if err != nil {
				return err
			}
			tables := exporter.BuildTables(r)

			written, err := exporter.NewCSVWriter(rt.logger).
				ExportDir(cmd.Context(), outDir, tables, exporter.WriteOptions{BOMPrefix: withBOM})
			if err != nil {
				return err
			}

			if withXLSX {
				path := filepath.Join(outDir, fmt.Sprintf("running-report-%s.xlsx", r.Today.Format(dateLayout)))
				if err := exporter.NewXLSXWriter(rt.logger).SaveAs(cmd.Context(), path, tables); err != nil {
					return err
				}
				written = append(written, path)
			}

			for _, path := range written {
				fmt.Fprintln(cmd.OutOrStdout(), path)
			}
			rt.logger.InfoContext(cmd.Context(), "Export complete",
				slog.String("dir", outDir),
				slog.Int("files", len(written)))
			return nil
		},
	}
	export.Flags().StringVarP(&outDir, "out", "o", "", "output directory")
	export.Flags().BoolVar(&withXLSX, "xlsx", false, "also write every table into one workbook")
	export.Flags().BoolVar(&withBOM, "bom", false, "prefix CSV files with a UTF-8 byte order mark")
	export.Flags().StringVar(&today, "today", "", "report as of this date (YYYY-MM-DD)")
	_ = export.MarkFlagRequired("out")

	return export
}
