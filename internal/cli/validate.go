package cli

import (
	"errors"
	"fmt"

	"github.com/jaa/songdl/internal/config"
	"github.com/spf13/cobra"
)

func newValidateCommand(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the merged config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(app)
			if err != nil {
				var invalid *config.ValidationError
				if app.Opts.JSON && errors.As(err, &invalid) {
					_ = writeJSON(app.IO.Out, map[string]any{"valid": false, "problems": invalid.Problems})
				}
				return err
			}

			if app.Opts.JSON {
				return writeJSON(app.IO.Out, map[string]any{
					"valid":      true,
					"output_dir": cfg.Defaults.OutputDir,
					"ffmpeg_bin": cfg.Transcode.FFmpegBin,
				})
			}
			fmt.Fprintln(app.IO.Out, "Config is valid.")
			return nil
		},
	}
}
