package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
)

const (
	successMark = "✅"
	failureMark = "❌"
)

type EventEmitter interface {
	Emit(event Event) error
}

type JSONEmitter struct {
	enc *json.Encoder
	mu  sync.Mutex
}

func NewJSONEmitter(w io.Writer) *JSONEmitter {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &JSONEmitter{enc: enc}
}

func (e *JSONEmitter) Emit(event Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enc.Encode(event)
}

type HumanOptions struct {
	Quiet   bool
	Verbose bool
	NoColor bool
}

// HumanEmitter prints one line per event. Batch start and finish lines
// only appear in verbose mode; a normal run prints no summary.
type HumanEmitter struct {
	stdout  io.Writer
	stderr  io.Writer
	quiet   bool
	verbose bool
	success *color.Color
	failure *color.Color
	warn    *color.Color
}

func NewHumanEmitter(stdout, stderr io.Writer, opts HumanOptions) *HumanEmitter {
	e := &HumanEmitter{
		stdout:  stdout,
		stderr:  stderr,
		quiet:   opts.Quiet,
		verbose: opts.Verbose,
		success: color.New(color.FgGreen),
		failure: color.New(color.FgRed),
		warn:    color.New(color.FgYellow),
	}
	if opts.NoColor {
		e.success.DisableColor()
		e.failure.DisableColor()
		e.warn.DisableColor()
	}
	return e
}

func (e *HumanEmitter) Emit(event Event) error {
	line := event.Message
	if line == "" {
		line = string(event.Event)
	}

	switch {
	case event.Event == EventQueryFailed:
		_, err := e.failure.Fprintln(e.stderr, failureMark, line)
		return err
	case event.Level == LevelError:
		_, err := e.failure.Fprintln(e.stderr, "ERROR:", line)
		return err
	case event.Level == LevelWarn:
		if e.quiet {
			return nil
		}
		_, err := e.warn.Fprintln(e.stderr, "WARN:", line)
		return err
	case event.Event == EventQueryFinished:
		_, err := e.success.Fprintln(e.stdout, successMark, line)
		return err
	default:
		if e.quiet {
			return nil
		}
		if !e.verbose && isVerboseOnly(event.Event) {
			return nil
		}
		_, err := fmt.Fprintln(e.stdout, line)
		return err
	}
}

func isVerboseOnly(name EventName) bool {
	switch name {
	case EventBatchStarted, EventQueryStarted, EventBatchFinished:
		return true
	default:
		return false
	}
}

// MultiEmitter fans each event out to every emitter, so a failing event log
// never hides console output.
type MultiEmitter struct {
	emitters []EventEmitter
}

func NewMultiEmitter(emitters ...EventEmitter) *MultiEmitter {
	return &MultiEmitter{emitters: emitters}
}

func (e *MultiEmitter) Emit(event Event) error {
	var errs []error
	for _, emitter := range e.emitters {
		if err := emitter.Emit(event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
