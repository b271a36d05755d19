package cli

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/chadallison/running-st/internal/config"
	apperrors "github.com/chadallison/running-st/internal/errors"
	"github.com/chadallison/running-st/internal/infrastructure"
	"github.com/chadallison/running-st/pkg/contracts"
)

// runtime is the state shared by every subcommand once the root has loaded
// the configuration.
type runtime struct {
	configPath string
	logLevel   string

	cfg    *config.Config
	logger *slog.Logger
}

// NewRootCommand builds the runreport command tree.
func NewRootCommand() *cobra.Command {
	rt := &runtime{}

	root := &cobra.Command{
		Use:           config.AppName,
		Short:         "Running log analytics: report page, summaries and table exports",
		Version:       contracts.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return rt.load()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return infrastructure.CloseLogFile()
		},
	}

	root.SetVersionTemplate(contracts.GetFullVersionString() + "\n")
	root.PersistentFlags().StringVarP(&rt.configPath, "config", "c", "", "config file (default: runreport.yaml, config.yaml or configs/config.yaml)")
	root.PersistentFlags().StringVar(&rt.logLevel, "log-level", "", "override logging.level (debug, info, warn, error)")

	root.AddCommand(serveCMD(rt), reportCMD(rt), exportCMD(rt))
	return root
}

func (rt *runtime) load() error {
	cfg, err := config.Load(rt.configPath)
	if err != nil {
		return apperrors.NewConfigError("failed to load configuration", err)
	}
	if rt.logLevel != "" {
		cfg.Logging.Level = rt.logLevel
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	rt.cfg = cfg
	rt.logger = logger
	return nil
}

// parseToday resolves the --today flag. The zero time means "use the clock".
func parseToday(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	day, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, apperrors.NewAppValidationError(fmt.Sprintf("--today must be YYYY-MM-DD, got %q", value))
	}
	return day, nil
}
