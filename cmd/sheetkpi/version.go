package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sheetkpi/internal/app"
	"sheetkpi/pkg/contracts"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), contracts.GetFullVersionString(app.AppName))
		},
	}
}
