package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"

	"github.com/jaa/songdl/internal/config"
	"github.com/jaa/songdl/internal/engine"
	"github.com/jaa/songdl/internal/exitcode"
	"github.com/jaa/songdl/internal/output"
	"github.com/jaa/songdl/internal/query"
	"github.com/jaa/songdl/internal/transcode"
	"github.com/jaa/songdl/internal/youtube"
)

type downloadOptions struct {
	OutputDir string
	File      string
	Playlist  string
	Clean     bool
	CleanSet  bool
}

func runDownload(ctx context.Context, app *AppContext, args []string, opts downloadOptions) error {
	cfg, err := loadConfig(app)
	if err != nil {
		return err
	}

	rawOutput := cfg.Defaults.OutputDir
	if strings.TrimSpace(opts.OutputDir) != "" {
		rawOutput = opts.OutputDir
	}
	outputDir, err := config.ExpandPath(rawOutput)
	if err != nil {
		return withExitCode(exitcode.InvalidUsage, fmt.Errorf("resolve output folder: %w", err))
	}
	workDir, err := cfg.Defaults.ResolveWorkDir(outputDir)
	if err != nil {
		return withExitCode(exitcode.InvalidConfig, fmt.Errorf("resolve work directory: %w", err))
	}

	clean := cfg.Defaults.CleanOutput
	if opts.CleanSet {
		clean = opts.Clean
	}

	ctx, stop := signal.NotifyContext(ctx, interruptSignals()...)
	defer stop()

	backend := newBackend(app, cfg)

	queries, err := collectQueries(ctx, app.IO.In, args, opts, cfg.Defaults.QuerySuffix, backend.Playlists)
	if err != nil {
		if ctx.Err() != nil {
			return withExitCode(exitcode.Interrupted, engine.ErrInterrupted)
		}
		return withExitCode(exitcode.RuntimeFailure, err)
	}
	if len(queries) == 0 {
		return withExitCode(exitcode.RuntimeFailure, errors.New("no queries to download"))
	}

	emitter, closeEmitter, err := newEmitter(app)
	if err != nil {
		return withExitCode(exitcode.RuntimeFailure, err)
	}
	defer closeEmitter()

	pipeline := engine.NewPipeline(backend.Resolver, backend.Fetcher, backend.Transcoder, emitter)
	_, runErr := pipeline.Run(ctx, queries, engine.RunOptions{
		OutputDir:       outputDir,
		WorkDir:         workDir,
		Clean:           clean,
		ContinueOnError: cfg.Defaults.ContinueOnError,
		DryRun:          app.Opts.DryRun,
	})
	if runErr != nil {
		if errors.Is(runErr, engine.ErrInterrupted) {
			return withExitCode(exitcode.Interrupted, runErr)
		}
		return withExitCode(exitcode.RuntimeFailure, runErr)
	}
	return nil
}

// collectQueries keeps arguments verbatim and appends wrapped file lines and
// playlist titles after them.
func collectQueries(ctx context.Context, stdin io.Reader, args []string, opts downloadOptions, suffix string, playlists query.PlaylistLister) ([]string, error) {
	queries := append([]string{}, args...)

	if path := strings.TrimSpace(opts.File); path != "" {
		var fromFile []string
		var err error
		if path == "-" {
			fromFile, err = query.FromReader(stdin, suffix)
			if err != nil {
				err = fmt.Errorf("read queries from stdin: %w", err)
			}
		} else {
			fromFile, err = query.FromFile(path, suffix)
		}
		if err != nil {
			return nil, err
		}
		queries = append(queries, fromFile...)
	}

	if playlistURL := strings.TrimSpace(opts.Playlist); playlistURL != "" {
		if playlists == nil {
			return nil, errors.New("playlist source is not available")
		}
		fromPlaylist, err := query.FromPlaylist(ctx, playlists, playlistURL, suffix)
		if err != nil {
			return nil, err
		}
		queries = append(queries, fromPlaylist...)
	}

	return queries, nil
}

func newBackend(app *AppContext, cfg config.Config) Backend {
	if app.NewBackend != nil {
		return app.NewBackend(app, cfg)
	}

	httpClient := &http.Client{}
	downloader := youtube.NewDownloader(httpClient)

	var encoderStderr io.Writer
	if app.Opts.Verbose && !app.Opts.JSON {
		encoderStderr = app.IO.ErrOut
	}
	runner := engine.NewSubprocessRunner(nil, encoderStderr)

	return Backend{
		Resolver: youtube.NewSearcher(httpClient),
		Fetcher:  downloader,
		Transcoder: transcode.New(runner, transcode.Options{
			Bin:          cfg.Transcode.FFmpegBin,
			AudioQuality: cfg.Transcode.AudioQuality,
			ExtraArgs:    cfg.Transcode.ExtraArgs,
		}),
		Playlists: downloader,
	}
}

// newEmitter picks console output for the run and, with --event-log, also
// appends every event as JSON to that file.
func newEmitter(app *AppContext) (output.EventEmitter, func(), error) {
	var console output.EventEmitter
	if app.Opts.JSON {
		console = output.NewJSONEmitter(app.IO.Out)
	} else {
		console = output.NewHumanEmitter(app.IO.Out, app.IO.ErrOut, output.HumanOptions{
			Quiet:   app.Opts.Quiet,
			Verbose: app.Opts.Verbose,
			NoColor: app.Opts.NoColor,
		})
	}

	path := strings.TrimSpace(app.Opts.EventLog)
	if path == "" {
		return console, func() {}, nil
	}
	expanded, err := config.ExpandPath(path)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve event log path: %w", err)
	}
	file, err := os.OpenFile(expanded, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open event log: %w", err)
	}
	return output.NewMultiEmitter(console, output.NewJSONEmitter(file)), func() { _ = file.Close() }, nil
}
