package cli

import (
	"github.com/spf13/cobra"

	"github.com/chadallison/running-st/internal/app"
)

func serveCMD(rt *runtime) *cobra.Command {
	var port int

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the report web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("port") {
				rt.cfg.Server.Port = port
			}

			application, err := app.NewApplication(cmd.Context(), rt.cfg, rt.logger)
			if err != nil {
				return err
			}
			return application.Run(cmd.Context())
		},
	}
	serve.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides server.port)")

	return serve
}
