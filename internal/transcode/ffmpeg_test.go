package transcode

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/jaa/songdl/internal/engine"
)

type fakeRunner struct {
	specs  []engine.ExecSpec
	result engine.ExecResult
	write  bool
}

func (r *fakeRunner) Run(ctx context.Context, spec engine.ExecSpec) engine.ExecResult {
	r.specs = append(r.specs, spec)
	if r.write {
		out := spec.Args[len(spec.Args)-1]
		_ = os.WriteFile(out, []byte("mp3-bytes"), 0o644)
	}
	return r.result
}

func writeInput(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "Queen - Bohemian Rhapsody.webm")
	if err := os.WriteFile(path, []byte("webm-bytes"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	return path
}

func TestTranscodeRemovesInputOnSuccess(t *testing.T) {
	tmp := t.TempDir()
	input := writeInput(t, tmp)
	runner := &fakeRunner{write: true}

	out, err := New(runner, Options{AudioQuality: 2}).Transcode(context.Background(), input, "Queen – Bohemian Rhapsody (Official Video)?", tmp)
	if err != nil {
		t.Fatalf("transcode: %v", err)
	}

	want := filepath.Join(tmp, "Queen – Bohemian Rhapsody (Official Video).mp3")
	if out != want {
		t.Fatalf("unexpected output path. got=%q want=%q", out, want)
	}
	if _, err := os.Stat(input); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected input to be removed, stat err: %v", err)
	}

	entries, err := os.ReadDir(tmp)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != filepath.Base(want) {
		t.Fatalf("expected exactly one output file, got %v", entries)
	}
}

func TestTranscodeKeepsInputOnFailure(t *testing.T) {
	tmp := t.TempDir()
	input := writeInput(t, tmp)
	runner := &fakeRunner{
		write:  true,
		result: engine.ExecResult{ExitCode: 1, StderrTail: "Invalid data found when processing input", Err: errors.New("exit status 1")},
	}

	_, err := New(runner, Options{}).Transcode(context.Background(), input, "Broken", tmp)
	if err == nil {
		t.Fatalf("expected transcode failure")
	}
	if _, statErr := os.Stat(input); statErr != nil {
		t.Fatalf("expected input to remain after failure: %v", statErr)
	}
	if _, statErr := os.Stat(filepath.Join(tmp, "Broken.mp3")); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatalf("expected no output file, stat err: %v", statErr)
	}
	if _, statErr := os.Stat(filepath.Join(tmp, "Broken.mp3"+partialSuffix)); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatalf("expected partial output to be cleaned up, stat err: %v", statErr)
	}
}

func TestTranscodeOverwritesExistingOutput(t *testing.T) {
	tmp := t.TempDir()
	input := writeInput(t, tmp)
	existing := filepath.Join(tmp, "Song.mp3")
	if err := os.WriteFile(existing, []byte("old"), 0o644); err != nil {
		t.Fatalf("write existing: %v", err)
	}

	if _, err := New(&fakeRunner{write: true}, Options{}).Transcode(context.Background(), input, "Song", tmp); err != nil {
		t.Fatalf("transcode: %v", err)
	}

	payload, err := os.ReadFile(existing)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(payload) != "mp3-bytes" {
		t.Fatalf("expected output to be overwritten, got %q", string(payload))
	}
}

func TestTranscodeMissingInput(t *testing.T) {
	runner := &fakeRunner{}
	_, err := New(runner, Options{}).Transcode(context.Background(), filepath.Join(t.TempDir(), "gone.webm"), "Song", t.TempDir())
	if err == nil {
		t.Fatalf("expected error for missing input")
	}
	if engine.Classify(err) != engine.KindIOFailure {
		t.Fatalf("expected io failure kind, got %s", engine.Classify(err))
	}
	if len(runner.specs) != 0 {
		t.Fatalf("expected ffmpeg not to run")
	}
}

func TestBuildExecSpec(t *testing.T) {
	tr := New(nil, Options{Bin: "/opt/ffmpeg", AudioQuality: 0, ExtraArgs: []string{"-ar", "44100"}})
	spec := tr.BuildExecSpec("in.m4a", "out.mp3.part")

	if spec.Bin != "/opt/ffmpeg" {
		t.Fatalf("unexpected binary %q", spec.Bin)
	}
	for _, want := range [][]string{{"-i", "in.m4a"}, {"-q:a", "0"}, {"-ar", "44100"}, {"-f", "mp3"}} {
		idx := slices.Index(spec.Args, want[0])
		if idx < 0 || idx+1 >= len(spec.Args) || spec.Args[idx+1] != want[1] {
			t.Fatalf("expected %v in args %v", want, spec.Args)
		}
	}
	if spec.Args[len(spec.Args)-1] != "out.mp3.part" {
		t.Fatalf("expected output path last, got %v", spec.Args)
	}
	if !slices.Contains(spec.Args, "-vn") {
		t.Fatalf("expected video to be dropped, got %v", spec.Args)
	}
}

func TestTranscodeLongMultiByteTitleFitsFilesystem(t *testing.T) {
	tmp := t.TempDir()
	input := writeInput(t, tmp)
	runner := &fakeRunner{write: true}

	out, err := New(runner, Options{}).Transcode(context.Background(), input, strings.Repeat("東", 90), tmp)
	if err != nil {
		t.Fatalf("transcode: %v", err)
	}
	if n := len(filepath.Base(out) + partialSuffix); n > MaxFilenameBytes {
		t.Fatalf("temporary name is %d bytes, want at most %d", n, MaxFilenameBytes)
	}
	if !strings.HasPrefix(filepath.Base(out), "東東東") || filepath.Ext(out) != OutputExtension {
		t.Fatalf("unexpected output path %q", out)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("expected output file: %v", err)
	}
}

func TestTranscodeReportsLeftoverInput(t *testing.T) {
	tmp := t.TempDir()
	input := writeInput(t, tmp)

	original := removeFile
	removeFile = func(string) error { return os.ErrPermission }
	t.Cleanup(func() { removeFile = original })

	out, err := New(&fakeRunner{write: true}, Options{}).Transcode(context.Background(), input, "Song", tmp)
	if !errors.Is(err, engine.ErrLeftoverInput) {
		t.Fatalf("expected ErrLeftoverInput, got %v", err)
	}
	if out != filepath.Join(tmp, "Song.mp3") {
		t.Fatalf("expected output path alongside the error, got %q", out)
	}
	if _, statErr := os.Stat(out); statErr != nil {
		t.Fatalf("expected output file to exist: %v", statErr)
	}
}

func TestTranscodeFailureNamesCommand(t *testing.T) {
	tmp := t.TempDir()
	input := writeInput(t, tmp)
	runner := &fakeRunner{result: engine.ExecResult{ExitCode: 1, StderrTail: "Unknown encoder 'libmp3lame'"}}

	_, err := New(runner, Options{Bin: "ffmpeg"}).Transcode(context.Background(), input, "Song", tmp)
	if err == nil {
		t.Fatalf("expected transcode failure")
	}
	if !strings.Contains(err.Error(), "Unknown encoder") || !strings.Contains(err.Error(), "command: ffmpeg -hide_banner") {
		t.Fatalf("expected stderr and command in error, got %v", err)
	}
}
