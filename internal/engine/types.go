package engine

import (
	"context"
	"time"
)

type ExecSpec struct {
	Bin            string
	Args           []string
	Dir            string
	Timeout        time.Duration
	DisplayCommand string
}

type ExecResult struct {
	ExitCode    int
	Duration    time.Duration
	Interrupted bool
	TimedOut    bool
	StdoutTail  string
	StderrTail  string
	Err         error
}

// SearchResult is the top match for one query.
type SearchResult struct {
	Address string
	Title   string
}

type Resolver interface {
	Search(ctx context.Context, query string) (SearchResult, error)
}

type Fetcher interface {
	DownloadAudio(ctx context.Context, address string, dir string) (string, error)
}

type Transcoder interface {
	Transcode(ctx context.Context, inputPath string, name string, dir string) (string, error)
}

type RunOptions struct {
	OutputDir       string
	WorkDir         string
	Clean           bool
	ContinueOnError bool
	DryRun          bool
}

// State is the position of a query in the per-query state machine.
type State string

const (
	StatePending     State = "pending"
	StateResolving   State = "resolving"
	StateFetching    State = "fetching"
	StateTranscoding State = "transcoding"
	StateDone        State = "done"
	StateFailed      State = "failed"
	StatePlanned     State = "planned"
)

type QueryOutcome struct {
	Index      int
	Query      string
	State      State
	Result     SearchResult
	OutputPath string
	Err        *QueryError
}

type BatchResult struct {
	RunID       string
	Total       int
	Succeeded   int
	Failed      int
	Cleared     int
	Interrupted bool
	Outcomes    []QueryOutcome
}
