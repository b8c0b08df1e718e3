package config

const (
	DefaultOutputDir    = "downloads"
	DefaultQuerySuffix  = "song"
	DefaultFFmpegBin    = "ffmpeg"
	DefaultAudioQuality = 2
)

type Config struct {
	Version   int           `yaml:"version"`
	Defaults  Defaults      `yaml:"defaults"`
	Transcode TranscodeSpec `yaml:"transcode"`
}

type Defaults struct {
	OutputDir       string `yaml:"output_dir"`
	WorkDir         string `yaml:"work_dir,omitempty"`
	QuerySuffix     string `yaml:"query_suffix"`
	CleanOutput     bool   `yaml:"clean_output"`
	ContinueOnError bool   `yaml:"continue_on_error"`
}

// TranscodeSpec configures the ffmpeg invocation. AudioQuality is the
// libmp3lame VBR level passed as -q:a (0 is best, 9 is smallest).
type TranscodeSpec struct {
	FFmpegBin    string   `yaml:"ffmpeg_bin"`
	AudioQuality int      `yaml:"audio_quality"`
	ExtraArgs    []string `yaml:"extra_args,omitempty"`
}

func DefaultConfig() Config {
	return Config{
		Version: 1,
		Defaults: Defaults{
			OutputDir:       DefaultOutputDir,
			QuerySuffix:     DefaultQuerySuffix,
			CleanOutput:     false,
			ContinueOnError: true,
		},
		Transcode: TranscodeSpec{
			FFmpegBin:    DefaultFFmpegBin,
			AudioQuality: DefaultAudioQuality,
		},
	}
}

// ResolveWorkDir returns the directory raw downloads land in. An empty
// work_dir means raw files share the output directory.
func (d Defaults) ResolveWorkDir(outputDir string) (string, error) {
	if d.WorkDir == "" {
		return outputDir, nil
	}
	return ExpandPath(d.WorkDir)
}
