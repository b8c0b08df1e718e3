package engine

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

var (
	ErrNoSearchResult = errors.New("no search result")
	ErrNoAudioStream  = errors.New("no audio stream")
	ErrInterrupted    = errors.New("batch interrupted")
	// ErrLeftoverInput marks a transcode whose MP3 is in place but whose
	// raw download could not be removed.
	ErrLeftoverInput = errors.New("downloaded file was not removed")
)

type ErrorKind string

const (
	KindNoSearchResult ErrorKind = "no_search_result"
	KindNoAudioStream  ErrorKind = "no_audio_stream"
	KindIOFailure      ErrorKind = "io_failure"
	KindUpstream       ErrorKind = "upstream_failure"
)

// Expected reports whether the kind is an ordinary empty result rather than
// a fault worth aborting a batch over.
func (k ErrorKind) Expected() bool {
	return k == KindNoSearchResult || k == KindNoAudioStream
}

func Classify(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrNoSearchResult):
		return KindNoSearchResult
	case errors.Is(err, ErrNoAudioStream):
		return KindNoAudioStream
	}

	var pathErr *fs.PathError
	var linkErr *os.LinkError
	var syscallErr *os.SyscallError
	if errors.As(err, &pathErr) || errors.As(err, &linkErr) || errors.As(err, &syscallErr) {
		return KindIOFailure
	}
	return KindUpstream
}

// QueryError records which step failed for which query.
type QueryError struct {
	Query string
	Stage State
	Kind  ErrorKind
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s: %v", e.Query, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

func newQueryError(query string, stage State, err error) *QueryError {
	return &QueryError{Query: query, Stage: stage, Kind: Classify(err), Err: err}
}

func isCanceled(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return true
	}
	return errors.Is(err, context.Canceled)
}
