package config

import "fmt"

func DefaultTemplate() string {
	return fmt.Sprintf(`version: 1
defaults:
  output_dir: %q
  # raw downloads land here before transcoding; empty means output_dir
  work_dir: ""
  query_suffix: %q
  # delete every file in output_dir before a run
  clean_output: false
  continue_on_error: true
transcode:
  ffmpeg_bin: %q
  audio_quality: %d
  extra_args: []
`, DefaultOutputDir, DefaultQuerySuffix, DefaultFFmpegBin, DefaultAudioQuality)
}
