package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jaa/songdl/internal/config"
	"github.com/jaa/songdl/internal/exitcode"
)

// loadConfig merges config files with env overrides and validates the
// result. Errors carry the InvalidConfig exit code.
func loadConfig(app *AppContext) (config.Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return config.Config{}, withExitCode(exitcode.RuntimeFailure, fmt.Errorf("resolve working directory: %w", err))
	}

	cfg, err := config.Load(config.LoadOptions{
		ExplicitPath: strings.TrimSpace(app.Opts.ConfigPath),
		WorkingDir:   wd,
	})
	if err != nil {
		return config.Config{}, withExitCode(exitcode.InvalidConfig, err)
	}
	if err := config.Validate(cfg); err != nil {
		return config.Config{}, withExitCode(exitcode.InvalidConfig, err)
	}
	return cfg, nil
}

func writeJSON(w io.Writer, payload any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(payload)
}

func isTTY(r io.Reader) bool {
	file, ok := r.(*os.File)
	if !ok {
		return false
	}
	stat, err := file.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}
