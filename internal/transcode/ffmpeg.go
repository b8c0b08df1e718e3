package transcode

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jaa/songdl/internal/engine"
	"github.com/jaa/songdl/internal/fileops"
)

const (
	OutputExtension = ".mp3"
	partialSuffix   = ".part"
)

var removeFile = os.Remove

type Options struct {
	Bin          string
	AudioQuality int
	ExtraArgs    []string
}

// Transcoder converts downloaded audio to MP3 with ffmpeg.
type Transcoder struct {
	Runner engine.ExecRunner
	Opts   Options
}

func New(runner engine.ExecRunner, opts Options) *Transcoder {
	if strings.TrimSpace(opts.Bin) == "" {
		opts.Bin = "ffmpeg"
	}
	return &Transcoder{Runner: runner, Opts: opts}
}

// Transcode writes dir/<sanitized name>.mp3, replacing any file of the same
// name, and removes inputPath once the new file is in place. When encoding
// fails inputPath is left untouched. If only the input removal fails, the
// output path is returned together with an error wrapping
// engine.ErrLeftoverInput.
func (t *Transcoder) Transcode(ctx context.Context, inputPath string, name string, dir string) (string, error) {
	if _, err := os.Stat(inputPath); err != nil {
		return "", fmt.Errorf("stat downloaded file: %w", err)
	}

	target := filepath.Join(dir, SanitizeFilenameFor(name, OutputExtension+partialSuffix)+OutputExtension)
	temp := target + partialSuffix

	spec := t.BuildExecSpec(inputPath, temp)
	result := t.Runner.Run(ctx, spec)
	if result.Err != nil || result.ExitCode != 0 {
		_ = os.Remove(temp)
		if result.Interrupted {
			return "", fmt.Errorf("ffmpeg interrupted: %w", context.Canceled)
		}
		return "", encodeError(spec, result)
	}

	if err := fileops.ReplaceFile(temp, target); err != nil {
		_ = os.Remove(temp)
		return "", err
	}
	if err := removeFile(inputPath); err != nil {
		return target, fmt.Errorf("%w: %w", engine.ErrLeftoverInput, err)
	}
	return target, nil
}

func (t *Transcoder) BuildExecSpec(inputPath string, outputPath string) engine.ExecSpec {
	args := []string{
		"-hide_banner",
		"-nostdin",
		"-loglevel", "error",
		"-y",
		"-i", inputPath,
		"-vn",
		"-codec:a", "libmp3lame",
		"-q:a", strconv.Itoa(t.Opts.AudioQuality),
	}
	args = append(args, t.Opts.ExtraArgs...)
	args = append(args, "-f", "mp3", outputPath)

	return engine.ExecSpec{
		Bin:            t.Opts.Bin,
		Args:           args,
		DisplayCommand: strings.Join(append([]string{t.Opts.Bin}, args...), " "),
	}
}

func encodeError(spec engine.ExecSpec, result engine.ExecResult) error {
	detail := strings.TrimSpace(result.StderrTail)
	if detail == "" && result.Err != nil {
		detail = result.Err.Error()
	}
	if errors.Is(result.Err, exec.ErrNotFound) {
		return fmt.Errorf("%s not found: %w", spec.Bin, result.Err)
	}
	return fmt.Errorf("ffmpeg exited with code %d: %s (command: %s)", result.ExitCode, detail, spec.DisplayCommand)
}
