package doctor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/jaa/songdl/internal/config"
)

const minFFmpegVersion = "4.0.0"

type Severity string

const (
	SeverityInfo  Severity = "info"
	SeverityWarn  Severity = "warn"
	SeverityError Severity = "error"
)

type Check struct {
	Severity Severity `json:"severity"`
	Name     string   `json:"name"`
	Message  string   `json:"message"`
}

type Report struct {
	Checks []Check `json:"checks"`
}

func (r Report) HasErrors() bool {
	return r.ErrorCount() > 0
}

func (r Report) ErrorCount() int {
	count := 0
	for _, check := range r.Checks {
		if check.Severity == SeverityError {
			count++
		}
	}
	return count
}

func (r *Report) add(severity Severity, name string, format string, args ...any) {
	r.Checks = append(r.Checks, Check{Severity: severity, Name: name, Message: fmt.Sprintf(format, args...)})
}

type Checker struct {
	LookPath      func(string) (string, error)
	ReadVersion   func(context.Context, string) (string, error)
	CheckWritable func(string) error
}

func NewChecker() *Checker {
	return &Checker{
		LookPath:      exec.LookPath,
		ReadVersion:   defaultReadVersion,
		CheckWritable: checkDirWritable,
	}
}

func (c *Checker) Check(ctx context.Context, cfg config.Config) Report {
	report := Report{Checks: []Check{}}

	c.checkFFmpeg(ctx, cfg.Transcode.FFmpegBin, &report)

	outputDir, err := config.ExpandPath(cfg.Defaults.OutputDir)
	if err != nil {
		report.add(SeverityError, "filesystem", "output_dir is invalid: %v", err)
	} else {
		c.checkDir("output_dir", outputDir, &report)
	}

	if strings.TrimSpace(cfg.Defaults.WorkDir) != "" {
		workDir, err := config.ExpandPath(cfg.Defaults.WorkDir)
		if err != nil {
			report.add(SeverityError, "filesystem", "work_dir is invalid: %v", err)
		} else {
			c.checkDir("work_dir", workDir, &report)
		}
	}

	if cfg.Defaults.CleanOutput {
		report.add(SeverityWarn, "config", "clean_output is enabled; every file in %s is deleted before each run", cfg.Defaults.OutputDir)
	}

	return report
}

func (c *Checker) checkFFmpeg(ctx context.Context, bin string, report *Report) {
	if strings.TrimSpace(bin) == "" {
		bin = config.DefaultFFmpegBin
	}

	location, err := c.LookPath(bin)
	if err != nil {
		report.add(SeverityError, "dependency", "%s not found in PATH", bin)
		return
	}
	report.add(SeverityInfo, "dependency", "%s found at %s", bin, location)

	output, err := c.ReadVersion(ctx, location)
	if err != nil {
		report.add(SeverityWarn, "dependency", "%s version could not be read: %v", bin, err)
		return
	}

	version, err := extractVersion(output)
	if err != nil {
		report.add(SeverityWarn, "dependency", "%s version output is unrecognized: %q", bin, firstLine(output))
		return
	}
	if compareVersions(version, minFFmpegVersion) < 0 {
		report.add(SeverityError, "dependency", "%s version %s is below minimum %s", bin, version, minFFmpegVersion)
		return
	}
	report.add(SeverityInfo, "dependency", "%s version %s is compatible", bin, version)

	if strings.Contains(output, "--enable-") && !strings.Contains(output, "--enable-libmp3lame") {
		report.add(SeverityWarn, "dependency", "%s was built without --enable-libmp3lame; MP3 encoding may fail", bin)
	}
}

// checkDir reports on path itself when it exists, otherwise on the nearest
// existing parent the directory would be created under.
func (c *Checker) checkDir(name string, path string, report *Report) {
	target := nearestExistingDir(path)
	if err := c.CheckWritable(target); err != nil {
		report.add(SeverityError, "filesystem", "%s %s is not writable: %v", name, target, err)
		return
	}
	if target != path {
		report.add(SeverityInfo, "filesystem", "%s %s will be created under %s", name, path, target)
		return
	}
	report.add(SeverityInfo, "filesystem", "%s %s is writable", name, path)
}

func nearestExistingDir(path string) string {
	current := filepath.Clean(path)
	for {
		if _, err := os.Stat(current); err == nil || !errors.Is(err, os.ErrNotExist) {
			return current
		}
		parent := filepath.Dir(current)
		if parent == current {
			return current
		}
		current = parent
	}
}

func defaultReadVersion(ctx context.Context, binary string) (string, error) {
	cmd := exec.CommandContext(ctx, binary, "-version")
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", err
	}
	return string(output), nil
}

func checkDirWritable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}

	file, err := os.CreateTemp(path, ".songdl-write-check-*")
	if err != nil {
		return err
	}
	name := file.Name()
	_ = file.Close()
	_ = os.Remove(name)
	return nil
}

// ffmpeg release builds print "ffmpeg version 6.1.1-..." or "ffmpeg version n7.0".
var versionPattern = regexp.MustCompile(`version\s+n?(\d+)\.(\d+)(?:\.(\d+))?`)

func extractVersion(raw string) (string, error) {
	matches := versionPattern.FindStringSubmatch(raw)
	if len(matches) != 4 {
		return "", fmt.Errorf("no version found")
	}
	patch := matches[3]
	if patch == "" {
		patch = "0"
	}
	return fmt.Sprintf("%s.%s.%s", matches[1], matches[2], patch), nil
}

func compareVersions(lhs string, rhs string) int {
	leftParts := strings.Split(lhs, ".")
	rightParts := strings.Split(rhs, ".")
	for i := 0; i < 3; i++ {
		leftValue := 0
		rightValue := 0
		if i < len(leftParts) {
			leftValue, _ = strconv.Atoi(leftParts[i])
		}
		if i < len(rightParts) {
			rightValue, _ = strconv.Atoi(rightParts[i])
		}
		if leftValue > rightValue {
			return 1
		}
		if leftValue < rightValue {
			return -1
		}
	}
	return 0
}

func firstLine(raw string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(raw), "\n")
	return line
}
