package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type LoadOptions struct {
	ExplicitPath string
	WorkingDir   string
	Env          map[string]string
}

type fileConfig struct {
	Version   *int          `yaml:"version"`
	Defaults  fileDefaults  `yaml:"defaults"`
	Transcode fileTranscode `yaml:"transcode"`
}

type fileDefaults struct {
	OutputDir       *string `yaml:"output_dir"`
	WorkDir         *string `yaml:"work_dir"`
	QuerySuffix     *string `yaml:"query_suffix"`
	CleanOutput     *bool   `yaml:"clean_output"`
	ContinueOnError *bool   `yaml:"continue_on_error"`
}

type fileTranscode struct {
	FFmpegBin    *string   `yaml:"ffmpeg_bin"`
	AudioQuality *int      `yaml:"audio_quality"`
	ExtraArgs    *[]string `yaml:"extra_args"`
}

func Load(opts LoadOptions) (Config, error) {
	cfg := DefaultConfig()

	cwd := opts.WorkingDir
	if strings.TrimSpace(cwd) == "" {
		wd, err := os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("resolve working directory: %w", err)
		}
		cwd = wd
	}

	env := opts.Env
	if env == nil {
		env = osEnvMap()
	}

	if explicit := strings.TrimSpace(opts.ExplicitPath); explicit != "" {
		if err := mergeFile(&cfg, explicit, true); err != nil {
			return Config{}, err
		}
	} else {
		userPath, err := UserConfigPath()
		if err != nil {
			return Config{}, err
		}
		if err := mergeFile(&cfg, userPath, false); err != nil {
			return Config{}, err
		}

		if err := mergeFile(&cfg, ProjectConfigPath(cwd), false); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnvOverrides(&cfg, env); err != nil {
		return Config{}, err
	}

	normalize(&cfg)
	return cfg, nil
}

func mergeFile(cfg *Config, path string, required bool) error {
	payload, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist) && required:
		return fmt.Errorf("config file does not exist: %s", path)
	case errors.Is(err, os.ErrNotExist):
		return nil
	case err != nil:
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(payload, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	fc.apply(cfg)
	return nil
}

// envOverrides maps SONGDL_* variables onto config fields. Empty values
// are ignored.
var envOverrides = []struct {
	key   string
	apply func(cfg *Config, value string) error
}{
	{"SONGDL_OUTPUT_DIR", func(cfg *Config, v string) error { cfg.Defaults.OutputDir = v; return nil }},
	{"SONGDL_WORK_DIR", func(cfg *Config, v string) error { cfg.Defaults.WorkDir = v; return nil }},
	{"SONGDL_QUERY_SUFFIX", func(cfg *Config, v string) error { cfg.Defaults.QuerySuffix = v; return nil }},
	{"SONGDL_CLEAN_OUTPUT", boolOverride(func(cfg *Config) *bool { return &cfg.Defaults.CleanOutput })},
	{"SONGDL_CONTINUE_ON_ERROR", boolOverride(func(cfg *Config) *bool { return &cfg.Defaults.ContinueOnError })},
	{"SONGDL_FFMPEG_BIN", func(cfg *Config, v string) error { cfg.Transcode.FFmpegBin = v; return nil }},
	{"SONGDL_AUDIO_QUALITY", func(cfg *Config, v string) error {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		cfg.Transcode.AudioQuality = parsed
		return nil
	}},
}

func boolOverride(field func(*Config) *bool) func(*Config, string) error {
	return func(cfg *Config, v string) error {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		*field(cfg) = parsed
		return nil
	}
}

func applyEnvOverrides(cfg *Config, env map[string]string) error {
	for _, override := range envOverrides {
		value := strings.TrimSpace(env[override.key])
		if value == "" {
			continue
		}
		if err := override.apply(cfg, value); err != nil {
			return fmt.Errorf("invalid %s value %q: %w", override.key, value, err)
		}
	}
	return nil
}

func normalize(cfg *Config) {
	if strings.TrimSpace(cfg.Defaults.OutputDir) == "" {
		cfg.Defaults.OutputDir = DefaultOutputDir
	}
	if strings.TrimSpace(cfg.Transcode.FFmpegBin) == "" {
		cfg.Transcode.FFmpegBin = DefaultFFmpegBin
	}
}

func osEnvMap() map[string]string {
	result := map[string]string{}
	for _, pair := range os.Environ() {
		if key, value, ok := strings.Cut(pair, "="); ok {
			result[key] = value
		}
	}
	return result
}

func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config directory %s: %w", dir, err)
	}
	return nil
}

// apply copies every field present in the file onto cfg.
func (fc fileConfig) apply(cfg *Config) {
	if fc.Version != nil {
		cfg.Version = *fc.Version
	}
	setTrimmed(&cfg.Defaults.OutputDir, fc.Defaults.OutputDir)
	setTrimmed(&cfg.Defaults.WorkDir, fc.Defaults.WorkDir)
	setTrimmed(&cfg.Defaults.QuerySuffix, fc.Defaults.QuerySuffix)
	if fc.Defaults.CleanOutput != nil {
		cfg.Defaults.CleanOutput = *fc.Defaults.CleanOutput
	}
	if fc.Defaults.ContinueOnError != nil {
		cfg.Defaults.ContinueOnError = *fc.Defaults.ContinueOnError
	}

	setTrimmed(&cfg.Transcode.FFmpegBin, fc.Transcode.FFmpegBin)
	if fc.Transcode.AudioQuality != nil {
		cfg.Transcode.AudioQuality = *fc.Transcode.AudioQuality
	}
	if fc.Transcode.ExtraArgs != nil {
		cfg.Transcode.ExtraArgs = append([]string{}, (*fc.Transcode.ExtraArgs)...)
	}
}

func setTrimmed(dst *string, value *string) {
	if value != nil {
		*dst = strings.TrimSpace(*value)
	}
}
