package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCommand(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and build metadata",
		Run: func(cmd *cobra.Command, args []string) {
			printVersion(app)
		},
	}
}

func printVersion(app *AppContext) {
	info := app.Build
	if info.Version == "" {
		info.Version = "dev"
	}
	if info.Commit == "" {
		info.Commit = "unknown"
	}
	if info.Date == "" {
		info.Date = "unknown"
	}

	if app.Opts.JSON {
		_ = writeJSON(app.IO.Out, info)
		return
	}
	fmt.Fprintf(app.IO.Out, "songdl version %s\ncommit: %s\nbuild_date: %s\n", info.Version, info.Commit, info.Date)
}
