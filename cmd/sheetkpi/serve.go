package main

import (
	"github.com/spf13/cobra"

	"sheetkpi/internal/config"
)

func newServeCmd(flags *globalFlags) *cobra.Command {
	var workbook string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard API",
		Long: `serve exposes GET /api/dashboard, GET /api/dashboard/values/{field},
GET /api/health and GET /metrics. With server.refresh_interval set, the output
file is also regenerated on every tick. SIGINT or SIGTERM shuts down gracefully.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := []config.Option{config.WithWorkbook(workbook)}
			if cmd.Flags().Changed("port") {
				opts = append(opts, func(c *config.Config) { c.Server.Port = port })
			}

			a, err := setup(cmd.Context(), flags, opts...)
			if err != nil {
				return err
			}
			defer closeApp(a)

			return a.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&workbook, "workbook", "", "read the range from a local .xlsx file instead of Google Sheets")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (default 8080)")
	return cmd
}
