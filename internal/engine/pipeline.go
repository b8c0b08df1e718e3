package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jaa/songdl/internal/fileops"
	"github.com/jaa/songdl/internal/output"
)

// Pipeline runs resolve, fetch and transcode for each query in order.
type Pipeline struct {
	Resolver   Resolver
	Fetcher    Fetcher
	Transcoder Transcoder
	Emitter    output.EventEmitter
	Now        func() time.Time
	NewRunID   func() string

	// ClearDir empties the output directory when cleaning is requested.
	ClearDir func(dir string) (int, error)
}

func NewPipeline(resolver Resolver, fetcher Fetcher, transcoder Transcoder, emitter output.EventEmitter) *Pipeline {
	if emitter == nil {
		emitter = noOpEmitter{}
	}
	return &Pipeline{
		Resolver:   resolver,
		Fetcher:    fetcher,
		Transcoder: transcoder,
		Emitter:    emitter,
		Now:        time.Now,
		NewRunID:   uuid.NewString,
		ClearDir:   fileops.RemoveFiles,
	}
}

type noOpEmitter struct{}

func (noOpEmitter) Emit(event output.Event) error {
	return nil
}

// Run never returns per-query failures as an error unless ContinueOnError is
// off and the failure is unexpected. Output directory setup errors and
// interruption are returned.
func (p *Pipeline) Run(ctx context.Context, queries []string, opts RunOptions) (BatchResult, error) {
	if p.Now == nil {
		p.Now = time.Now
	}
	if p.NewRunID == nil {
		p.NewRunID = uuid.NewString
	}
	if p.Emitter == nil {
		p.Emitter = noOpEmitter{}
	}
	if p.ClearDir == nil {
		p.ClearDir = fileops.RemoveFiles
	}

	result := BatchResult{RunID: p.NewRunID(), Total: len(queries)}

	workDir, err := p.prepare(&result, opts)
	if err != nil {
		return result, err
	}

	p.emit(result.RunID, output.Event{
		Level:   output.LevelInfo,
		Event:   output.EventBatchStarted,
		Message: fmt.Sprintf("batch started (%d quer%s)", result.Total, plural(result.Total, "y", "ies")),
		Details: map[string]any{
			"total":      result.Total,
			"output_dir": opts.OutputDir,
			"dry_run":    opts.DryRun,
		},
	})

	for i, query := range queries {
		if ctx.Err() != nil {
			result.Interrupted = true
			break
		}

		outcome := p.runQuery(ctx, result.RunID, i, query, workDir, opts)
		result.Outcomes = append(result.Outcomes, outcome)

		if outcome.State != StateFailed {
			result.Succeeded++
			continue
		}
		if isCanceled(ctx, outcome.Err.Err) {
			result.Interrupted = true
			break
		}

		result.Failed++
		p.emit(result.RunID, output.Event{
			Level:   output.LevelError,
			Event:   output.EventQueryFailed,
			Query:   query,
			Message: fmt.Sprintf("Error: %s: %v", query, outcome.Err.Err),
			Details: map[string]any{
				"index": i,
				"stage": string(outcome.Err.Stage),
				"kind":  string(outcome.Err.Kind),
			},
		})
		if !opts.ContinueOnError && !outcome.Err.Kind.Expected() {
			p.emitFinished(result)
			return result, outcome.Err
		}
	}

	p.emitFinished(result)
	if result.Interrupted {
		return result, ErrInterrupted
	}
	return result, nil
}

// prepare readies the output and work directories. A dry run touches
// neither.
func (p *Pipeline) prepare(result *BatchResult, opts RunOptions) (string, error) {
	workDir := opts.WorkDir
	if strings.TrimSpace(workDir) == "" {
		workDir = opts.OutputDir
	}
	if opts.DryRun {
		return workDir, nil
	}

	if err := PrepareOutputDir(opts.OutputDir); err != nil {
		return "", err
	}
	if opts.Clean {
		p.clean(result, opts.OutputDir)
	}

	if workDir != opts.OutputDir {
		if err := os.MkdirAll(workDir, 0o755); err != nil {
			return "", fmt.Errorf("create work directory %s: %w", workDir, err)
		}
	}
	return workDir, nil
}

// clean empties dir. Files that cannot be removed are reported as a warning
// and the batch goes on.
func (p *Pipeline) clean(result *BatchResult, dir string) {
	cleared, err := p.ClearDir(dir)
	result.Cleared = cleared
	p.emit(result.RunID, output.Event{
		Level:   output.LevelWarn,
		Event:   output.EventOutputCleared,
		Message: fmt.Sprintf("cleared %d file(s) from %s", cleared, dir),
		Details: map[string]any{"cleared": cleared, "dir": dir},
	})
	if err != nil {
		p.emit(result.RunID, output.Event{
			Level:   output.LevelWarn,
			Event:   output.EventCleanupFailed,
			Message: fmt.Sprintf("could not clear %s: %v", dir, err),
			Details: map[string]any{"dir": dir},
		})
	}
}

func (p *Pipeline) runQuery(ctx context.Context, runID string, index int, query string, workDir string, opts RunOptions) QueryOutcome {
	outcome := QueryOutcome{Index: index, Query: query, State: StatePending}
	fail := func(stage State, err error) QueryOutcome {
		outcome.State = StateFailed
		outcome.Err = newQueryError(query, stage, err)
		return outcome
	}

	p.emit(runID, output.Event{
		Level:   output.LevelInfo,
		Event:   output.EventQueryStarted,
		Query:   query,
		Message: fmt.Sprintf("searching for %s", query),
		Details: map[string]any{"index": index},
	})

	outcome.State = StateResolving
	match, err := p.Resolver.Search(ctx, query)
	if err != nil {
		return fail(StateResolving, err)
	}
	outcome.Result = match

	if opts.DryRun {
		outcome.State = StatePlanned
		p.emit(runID, output.Event{
			Level:   output.LevelInfo,
			Event:   output.EventQueryResolved,
			Query:   query,
			Message: fmt.Sprintf("Would download: %s (%s)", match.Title, match.Address),
			Details: map[string]any{"address": match.Address, "title": match.Title, "dry_run": true},
		})
		return outcome
	}

	p.emit(runID, output.Event{
		Level:   output.LevelInfo,
		Event:   output.EventQueryResolved,
		Query:   query,
		Message: fmt.Sprintf("Downloading: %s...", match.Title),
		Details: map[string]any{"address": match.Address, "title": match.Title},
	})

	outcome.State = StateFetching
	downloaded, err := p.Fetcher.DownloadAudio(ctx, match.Address, workDir)
	if err != nil {
		return fail(StateFetching, err)
	}

	outcome.State = StateTranscoding
	outputPath, err := p.Transcoder.Transcode(ctx, downloaded, match.Title, opts.OutputDir)
	if err != nil && (outputPath == "" || !errors.Is(err, ErrLeftoverInput)) {
		return fail(StateTranscoding, err)
	}
	if err != nil {
		p.emit(runID, output.Event{
			Level:   output.LevelWarn,
			Event:   output.EventCleanupFailed,
			Query:   query,
			Message: fmt.Sprintf("%v: %s", err, downloaded),
			Details: map[string]any{"index": index, "path": downloaded},
		})
	}

	outcome.State = StateDone
	outcome.OutputPath = outputPath
	p.emit(runID, output.Event{
		Level:   output.LevelInfo,
		Event:   output.EventQueryFinished,
		Query:   query,
		Message: fmt.Sprintf("Downloaded and saved: %s", outputPath),
		Details: map[string]any{"index": index, "output_path": outputPath, "title": match.Title},
	})
	return outcome
}

func (p *Pipeline) emitFinished(result BatchResult) {
	p.emit(result.RunID, output.Event{
		Level: output.LevelInfo,
		Event: output.EventBatchFinished,
		Message: fmt.Sprintf("batch finished: total=%d succeeded=%d failed=%d",
			result.Total, result.Succeeded, result.Failed),
		Details: map[string]any{
			"total":       result.Total,
			"succeeded":   result.Succeeded,
			"failed":      result.Failed,
			"interrupted": result.Interrupted,
		},
	})
}

func (p *Pipeline) emit(runID string, event output.Event) {
	event.Timestamp = p.Now()
	event.RunID = runID
	_ = p.Emitter.Emit(event)
}

// PrepareOutputDir creates dir when missing.
func PrepareOutputDir(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return fmt.Errorf("output directory is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory %s: %w", dir, err)
	}
	return nil
}

func plural(n int, one string, many string) string {
	if n == 1 {
		return one
	}
	return many
}
