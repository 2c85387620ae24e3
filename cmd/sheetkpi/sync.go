package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"sheetkpi/internal/config"
	"sheetkpi/internal/dataprocessing"
)

func newSyncCmd(flags *globalFlags) *cobra.Command {
	var workbook, output, a1Range string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Fetch the sheet once and write the dashboard JSON",
		Long: `sync fetches the configured range, computes the KPIs and atomically
replaces the output file. When the range has no data rows nothing is written
and the command still succeeds.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := setup(ctx, flags,
				config.WithWorkbook(workbook),
				config.WithOutputPath(output),
				config.WithRange(a1Range))
			if err != nil {
				return err
			}
			defer closeApp(a)

			result, err := a.Sync(ctx)
			if errors.Is(err, dataprocessing.ErrNoData) {
				a.Logger.InfoContext(ctx, "nothing to write", slog.String("path", a.Config.Output.Path))
				return nil
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Dashboard data saved to %s\n", result.Path)
			return nil
		},
	}

	cmd.Flags().StringVar(&workbook, "workbook", "", "read the range from a local .xlsx file instead of Google Sheets")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default dashboard_data.json)")
	cmd.Flags().StringVar(&a1Range, "range", "", "A1 range to read (default Raw_Data!A:F)")
	return cmd
}
