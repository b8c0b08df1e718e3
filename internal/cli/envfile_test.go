package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func recordingSetenv(values map[string]string) func(string, string) error {
	return func(k, v string) error {
		values[k] = v
		return nil
	}
}

func TestLoadDotEnvFilesLoadsEnvAndLocalOverrides(t *testing.T) {
	tmp := t.TempDir()
	envPath := filepath.Join(tmp, ".env")
	localPath := filepath.Join(tmp, ".env.local")

	if err := os.WriteFile(envPath, []byte("SONGDL_FFMPEG_BIN=/tmp/bin/ffmpeg-a\nSONGDL_AUDIO_QUALITY=4\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	if err := os.WriteFile(localPath, []byte("SONGDL_FFMPEG_BIN=/tmp/bin/ffmpeg-b\n"), 0o644); err != nil {
		t.Fatalf("write .env.local: %v", err)
	}

	values := map[string]string{}
	if err := loadDotEnvFiles(tmp, nil, recordingSetenv(values)); err != nil {
		t.Fatalf("load dotenv files: %v", err)
	}
	if values["SONGDL_FFMPEG_BIN"] != "/tmp/bin/ffmpeg-b" {
		t.Fatalf("expected .env.local to override .env, got %q", values["SONGDL_FFMPEG_BIN"])
	}
	if values["SONGDL_AUDIO_QUALITY"] != "4" {
		t.Fatalf("expected SONGDL_AUDIO_QUALITY from .env, got %q", values["SONGDL_AUDIO_QUALITY"])
	}
}

func TestLoadDotEnvFilesDoesNotOverrideProcessEnv(t *testing.T) {
	tmp := t.TempDir()
	envPath := filepath.Join(tmp, ".env")
	if err := os.WriteFile(envPath, []byte("SONGDL_OUTPUT_DIR=/tmp/music\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	values := map[string]string{}
	if err := loadDotEnvFiles(tmp, []string{"SONGDL_OUTPUT_DIR=/already/set"}, recordingSetenv(values)); err != nil {
		t.Fatalf("load dotenv files: %v", err)
	}
	if _, exists := values["SONGDL_OUTPUT_DIR"]; exists {
		t.Fatalf("expected existing process env to be protected")
	}
}

func TestLoadDotEnvFilesSupportsExportAndQuotedValues(t *testing.T) {
	tmp := t.TempDir()
	payload := "# local overrides\nexport SONGDL_OUTPUT_DIR=\"/Users/test/Music/new songs\"\nSONGDL_QUERY_SUFFIX='official audio'\n"
	if err := os.WriteFile(filepath.Join(tmp, ".env"), []byte(payload), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	values := map[string]string{}
	if err := loadDotEnvFiles(tmp, nil, recordingSetenv(values)); err != nil {
		t.Fatalf("load dotenv files: %v", err)
	}
	if values["SONGDL_OUTPUT_DIR"] != "/Users/test/Music/new songs" {
		t.Fatalf("unexpected double-quoted value %q", values["SONGDL_OUTPUT_DIR"])
	}
	if values["SONGDL_QUERY_SUFFIX"] != "official audio" {
		t.Fatalf("unexpected single-quoted value %q", values["SONGDL_QUERY_SUFFIX"])
	}
}

func TestLoadDotEnvFilesWithoutFiles(t *testing.T) {
	values := map[string]string{}
	if err := loadDotEnvFiles(t.TempDir(), nil, recordingSetenv(values)); err != nil {
		t.Fatalf("load dotenv files: %v", err)
	}
	if len(values) != 0 {
		t.Fatalf("expected no values, got %v", values)
	}
}
