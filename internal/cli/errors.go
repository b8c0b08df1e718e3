package cli

import (
	"context"
	"errors"
	"strings"

	"github.com/jaa/songdl/internal/config"
	"github.com/jaa/songdl/internal/engine"
	"github.com/jaa/songdl/internal/exitcode"
)

// ExitError attaches a process exit code to an error returned by a command.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func withExitCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &ExitError{Code: code, Err: err}
}

func mapExitCode(err error) int {
	if err == nil {
		return exitcode.Success
	}

	var coded *ExitError
	var invalid *config.ValidationError
	switch {
	case errors.As(err, &coded):
		return coded.Code
	case errors.As(err, &invalid):
		return exitcode.InvalidConfig
	case errors.Is(err, engine.ErrInterrupted), errors.Is(err, context.Canceled):
		return exitcode.Interrupted
	}

	// cobra reports argument problems as plain errors
	message := err.Error()
	for _, usage := range []string{"unknown command", "unknown flag", "unknown shorthand flag", "flag needs an argument"} {
		if strings.Contains(message, usage) {
			return exitcode.InvalidUsage
		}
	}
	return exitcode.RuntimeFailure
}
