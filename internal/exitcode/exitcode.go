// Package exitcode lists the process exit codes songdl returns.
package exitcode

const (
	Success = 0
	// RuntimeFailure covers anything that aborted the batch, including an
	// empty query list or an unreadable query file.
	RuntimeFailure = 1
	InvalidUsage   = 2
	InvalidConfig  = 3
	// MissingDependency is returned by doctor when ffmpeg or an output
	// folder check fails.
	MissingDependency = 4
	// Interrupted follows the shell convention of 128+SIGINT.
	Interrupted = 130
)
