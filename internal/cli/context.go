package cli

import (
	"io"

	"github.com/jaa/songdl/internal/config"
	"github.com/jaa/songdl/internal/engine"
	"github.com/jaa/songdl/internal/query"
)

type BuildInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"build_date"`
}

type IOStreams struct {
	In     io.Reader
	Out    io.Writer
	ErrOut io.Writer
}

type GlobalOptions struct {
	ConfigPath string
	JSON       bool
	Quiet      bool
	Verbose    bool
	NoColor    bool
	NoInput    bool
	DryRun     bool
	EventLog   string
}

// Backend is the set of collaborators a download run talks to.
type Backend struct {
	Resolver   engine.Resolver
	Fetcher    engine.Fetcher
	Transcoder engine.Transcoder
	Playlists  query.PlaylistLister
}

type AppContext struct {
	Build BuildInfo
	IO    IOStreams
	Opts  GlobalOptions

	// NewBackend overrides the YouTube and ffmpeg backend, mainly for tests.
	NewBackend func(app *AppContext, cfg config.Config) Backend
}
