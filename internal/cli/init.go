package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jaa/songdl/internal/config"
	"github.com/jaa/songdl/internal/exitcode"
	"github.com/spf13/cobra"
)

var errInitDeclined = errors.New("overwrite declined")

func newInitCommand(app *AppContext) *cobra.Command {
	force := false

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter config file",
		Long:  "init writes a commented config template to --config, or to the user config path when no path is given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := initTargetPath(app)
			if err != nil {
				return withExitCode(exitcode.RuntimeFailure, err)
			}

			if !force {
				if err := confirmOverwrite(app, path); errors.Is(err, errInitDeclined) {
					fmt.Fprintln(app.IO.Out, "Initialization canceled.")
					return nil
				} else if err != nil {
					return withExitCode(exitcode.RuntimeFailure, err)
				}
			}

			if err := config.EnsureConfigDir(path); err != nil {
				return withExitCode(exitcode.RuntimeFailure, err)
			}
			if err := os.WriteFile(path, []byte(config.DefaultTemplate()), 0o644); err != nil {
				return withExitCode(exitcode.RuntimeFailure, fmt.Errorf("write config file: %w", err))
			}

			fmt.Fprintf(app.IO.Out, "Wrote config: %s\n", path)
			fmt.Fprintf(app.IO.Out, "Songs are saved to %q unless --output is given.\n", config.DefaultConfig().Defaults.OutputDir)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing config file")
	return cmd
}

func initTargetPath(app *AppContext) (string, error) {
	if path := strings.TrimSpace(app.Opts.ConfigPath); path != "" {
		return path, nil
	}
	return config.UserConfigPath()
}

// confirmOverwrite returns nil when path is free or the user agreed to
// replace it.
func confirmOverwrite(app *AppContext, path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if app.Opts.NoInput || !isTTY(app.IO.In) {
		return fmt.Errorf("config already exists at %s (rerun with --force)", path)
	}

	fmt.Fprintf(app.IO.Out, "Config already exists at %s. Overwrite? [y/N]: ", path)
	line, err := bufio.NewReader(app.IO.In).ReadString('\n')
	if err != nil {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return nil
	default:
		return errInitDeclined
	}
}
