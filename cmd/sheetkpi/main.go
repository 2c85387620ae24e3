// Command sheetkpi turns a Google Sheets deals range into the KPI document
// read by the sales dashboard.
//
//	sheetkpi sync                      write dashboard_data.json once
//	sheetkpi sync --workbook deals.xlsx
//	sheetkpi serve                     serve the dashboard API
//	sheetkpi version
package main

import (
	"context"
	"fmt"
	"io"
	"os"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the CLI and returns the process exit code
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
