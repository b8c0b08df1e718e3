package doctor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jaa/songdl/internal/config"
)

const ffmpegVersionOutput = `ffmpeg version 6.1.1-3ubuntu5 Copyright (c) 2000-2023 the FFmpeg developers
built with gcc 13 (Ubuntu 13.2.0-23ubuntu3)
configuration: --prefix=/usr --enable-gpl --enable-libmp3lame --enable-libopus
libavutil      58. 29.100 / 58. 29.100`

func testConfig(outputDir string) config.Config {
	cfg := config.DefaultConfig()
	cfg.Defaults.OutputDir = outputDir
	return cfg
}

func healthyChecker() *Checker {
	return &Checker{
		LookPath:      func(name string) (string, error) { return "/usr/bin/" + name, nil },
		ReadVersion:   func(ctx context.Context, binary string) (string, error) { return ffmpegVersionOutput, nil },
		CheckWritable: func(path string) error { return nil },
	}
}

func TestDoctorHealthy(t *testing.T) {
	report := healthyChecker().Check(context.Background(), testConfig(t.TempDir()))
	if report.HasErrors() {
		t.Fatalf("did not expect doctor errors, got %+v", report.Checks)
	}
	if !hasCheckContaining(report, SeverityInfo, "version 6.1.1 is compatible") {
		t.Fatalf("expected compatible version check, got %+v", report.Checks)
	}
}

func TestDoctorMissingFFmpeg(t *testing.T) {
	checker := healthyChecker()
	checker.LookPath = func(name string) (string, error) { return "", fmt.Errorf("not found") }

	report := checker.Check(context.Background(), testConfig(t.TempDir()))
	if !report.HasErrors() {
		t.Fatalf("expected doctor errors for missing binary")
	}
	if !hasCheckContaining(report, SeverityError, "ffmpeg not found in PATH") {
		t.Fatalf("expected missing ffmpeg message, got %+v", report.Checks)
	}
}

func TestDoctorUsesConfiguredBinary(t *testing.T) {
	var looked string
	checker := healthyChecker()
	checker.LookPath = func(name string) (string, error) {
		looked = name
		return name, nil
	}

	cfg := testConfig(t.TempDir())
	cfg.Transcode.FFmpegBin = "/opt/ffmpeg/bin/ffmpeg"
	checker.Check(context.Background(), cfg)
	if looked != "/opt/ffmpeg/bin/ffmpeg" {
		t.Fatalf("expected configured ffmpeg binary to be checked, got %q", looked)
	}
}

func TestDoctorOldFFmpeg(t *testing.T) {
	checker := healthyChecker()
	checker.ReadVersion = func(ctx context.Context, binary string) (string, error) {
		return "ffmpeg version 3.4.11 Copyright (c) 2000-2022", nil
	}

	report := checker.Check(context.Background(), testConfig(t.TempDir()))
	if !hasCheckContaining(report, SeverityError, "below minimum 4.0.0") {
		t.Fatalf("expected version incompatibility error, got %+v", report.Checks)
	}
}

func TestDoctorUnrecognizedVersionIsWarning(t *testing.T) {
	checker := healthyChecker()
	checker.ReadVersion = func(ctx context.Context, binary string) (string, error) {
		return "ffmpeg version N-113024-g1d8a4b3f2 Copyright (c) 2000-2024", nil
	}

	report := checker.Check(context.Background(), testConfig(t.TempDir()))
	if report.HasErrors() {
		t.Fatalf("did not expect errors for git build, got %+v", report.Checks)
	}
	if !hasCheckContaining(report, SeverityWarn, "unrecognized") {
		t.Fatalf("expected unrecognized version warning, got %+v", report.Checks)
	}
}

func TestDoctorWarnsWithoutLame(t *testing.T) {
	checker := healthyChecker()
	checker.ReadVersion = func(ctx context.Context, binary string) (string, error) {
		return "ffmpeg version 5.1.4\nconfiguration: --enable-gpl --enable-libopus\n", nil
	}

	report := checker.Check(context.Background(), testConfig(t.TempDir()))
	if !hasCheckContaining(report, SeverityWarn, "libmp3lame") {
		t.Fatalf("expected missing libmp3lame warning, got %+v", report.Checks)
	}
}

func TestDoctorUnwritableOutputDir(t *testing.T) {
	checker := healthyChecker()
	checker.CheckWritable = func(path string) error { return fmt.Errorf("permission denied") }

	report := checker.Check(context.Background(), testConfig(t.TempDir()))
	if !hasCheckContaining(report, SeverityError, "output_dir") {
		t.Fatalf("expected filesystem error for unwritable path, got %+v", report.Checks)
	}
}

func TestDoctorMissingOutputDirChecksParent(t *testing.T) {
	tmp := t.TempDir()
	var checked []string
	checker := healthyChecker()
	checker.CheckWritable = func(path string) error {
		checked = append(checked, path)
		return nil
	}

	report := checker.Check(context.Background(), testConfig(filepath.Join(tmp, "music", "new")))
	if len(checked) != 1 || checked[0] != tmp {
		t.Fatalf("expected nearest existing parent to be checked, got %v", checked)
	}
	if !hasCheckContaining(report, SeverityInfo, "will be created") {
		t.Fatalf("expected creation notice, got %+v", report.Checks)
	}
}

func TestDoctorChecksWorkDir(t *testing.T) {
	tmp := t.TempDir()
	workDir := filepath.Join(tmp, "work")
	if err := os.Mkdir(workDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	var checked []string
	checker := healthyChecker()
	checker.CheckWritable = func(path string) error {
		checked = append(checked, path)
		return nil
	}

	cfg := testConfig(tmp)
	cfg.Defaults.WorkDir = workDir
	checker.Check(context.Background(), cfg)
	if len(checked) != 2 || checked[1] != workDir {
		t.Fatalf("expected work dir to be checked, got %v", checked)
	}
}

func TestDoctorWarnsOnCleanOutput(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.Defaults.CleanOutput = true

	report := healthyChecker().Check(context.Background(), cfg)
	if report.HasErrors() {
		t.Fatalf("clean_output should only warn, got %+v", report.Checks)
	}
	if !hasCheckContaining(report, SeverityWarn, "clean_output is enabled") {
		t.Fatalf("expected clean_output warning, got %+v", report.Checks)
	}
}

func TestCheckDirWritable(t *testing.T) {
	tmp := t.TempDir()
	if err := checkDirWritable(tmp); err != nil {
		t.Fatalf("expected temp dir to be writable: %v", err)
	}
	entries, _ := os.ReadDir(tmp)
	if len(entries) != 0 {
		t.Fatalf("expected write check to clean up, got %v", entries)
	}

	file := filepath.Join(tmp, "file")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := checkDirWritable(file); err == nil {
		t.Fatalf("expected error for non-directory")
	}
}

func TestExtractVersion(t *testing.T) {
	tests := map[string]string{
		"ffmpeg version 6.1.1-3ubuntu5 Copyright": "6.1.1",
		"ffmpeg version n7.0 Copyright":           "7.0.0",
		"ffmpeg version 4.4.2-0ubuntu0.22.04.1":   "4.4.2",
	}
	for raw, want := range tests {
		got, err := extractVersion(raw)
		if err != nil {
			t.Fatalf("extractVersion(%q): %v", raw, err)
		}
		if got != want {
			t.Fatalf("extractVersion(%q)=%q want %q", raw, got, want)
		}
	}
	if _, err := extractVersion("ffmpeg version N-113024-g1d8a4b3f2"); err == nil {
		t.Fatalf("expected error for git build string")
	}
}

func TestCompareVersions(t *testing.T) {
	if compareVersions("4.0.0", "4.0.0") != 0 {
		t.Fatalf("expected equal versions")
	}
	if compareVersions("3.4.11", "4.0.0") >= 0 {
		t.Fatalf("expected 3.4.11 < 4.0.0")
	}
	if compareVersions("10.0", "9.9.9") <= 0 {
		t.Fatalf("expected 10.0 > 9.9.9")
	}
}

func hasCheckContaining(report Report, severity Severity, snippet string) bool {
	for _, check := range report.Checks {
		if check.Severity != severity {
			continue
		}
		if strings.Contains(check.Message, snippet) {
			return true
		}
	}
	return false
}
