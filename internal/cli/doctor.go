package cli

import (
	"fmt"
	"io"
	"sort"

	"github.com/jaa/songdl/internal/doctor"
	"github.com/jaa/songdl/internal/exitcode"
	"github.com/spf13/cobra"
)

func newDoctorCommand(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check ffmpeg and output folder readiness",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(app)
			if err != nil {
				return err
			}

			report := doctor.NewChecker().Check(cmd.Context(), cfg)
			if app.Opts.JSON {
				if err := writeJSON(app.IO.Out, report); err != nil {
					return withExitCode(exitcode.RuntimeFailure, err)
				}
			} else {
				renderReport(app.IO.Out, report)
			}

			if report.HasErrors() {
				return withExitCode(exitcode.MissingDependency, fmt.Errorf("doctor found %d error(s)", report.ErrorCount()))
			}
			return nil
		},
	}
}

func renderReport(w io.Writer, report doctor.Report) {
	checks := append([]doctor.Check{}, report.Checks...)
	sort.SliceStable(checks, func(i, j int) bool {
		return checks[i].Name < checks[j].Name
	})
	for _, check := range checks {
		fmt.Fprintf(w, "[%s] %s: %s\n", check.Severity, check.Name, check.Message)
	}
}
