package config

import (
	"fmt"
	"strings"
)

type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 0 {
		return "invalid config"
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(e.Problems, "; "))
}

func Validate(cfg Config) error {
	problems := []string{}

	if cfg.Version != 1 {
		problems = append(problems, "version must be 1")
	}

	outputDir, err := ExpandPath(cfg.Defaults.OutputDir)
	if err != nil || strings.TrimSpace(outputDir) == "" {
		problems = append(problems, "defaults.output_dir must be a valid path")
	}
	if strings.TrimSpace(cfg.Defaults.WorkDir) != "" {
		if _, err := ExpandPath(cfg.Defaults.WorkDir); err != nil {
			problems = append(problems, "defaults.work_dir must be a valid path")
		}
	}
	if strings.ContainsAny(cfg.Defaults.QuerySuffix, "\r\n") {
		problems = append(problems, "defaults.query_suffix must be a single line")
	}

	if strings.TrimSpace(cfg.Transcode.FFmpegBin) == "" {
		problems = append(problems, "transcode.ffmpeg_bin must be set")
	}
	if cfg.Transcode.AudioQuality < 0 || cfg.Transcode.AudioQuality > 9 {
		problems = append(problems, "transcode.audio_quality must be between 0 and 9")
	}
	for _, arg := range cfg.Transcode.ExtraArgs {
		if strings.TrimSpace(arg) == "" {
			problems = append(problems, "transcode.extra_args must not contain empty values")
			break
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}
