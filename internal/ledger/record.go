package ledger

import (
	"strconv"
	"time"
)

// Run executes fn, timing it, and appends the resulting Record to the
// registry. If fn returns a non-zero exit code and ignoreErrors is false,
// Run returns a non-nil error wrapping fn's error (or a generic one);
// callers in D/F/G/H/I use this as their single side-effect choke point
// (§4.A "raises when exit_code != 0 unless ignore_errors=true").
func (r *Registry) Run(kind Kind, ctx Context, command string, ignoreErrors bool, fn func() (stdout, stderr string, exitCode int, err error)) (Record, error) {
	start := time.Now()
	stdout, stderr, exitCode, err := fn()
	elapsed := time.Since(start)

	rec := r.Append(kind, ctx, command, exitCode, elapsed, stdout, stderr, ignoreErrors)

	if rec.Failed() {
		if err != nil {
			return rec, err
		}
		return rec, &CommandFailedError{Record: rec}
	}

	return rec, nil
}

type CommandFailedError struct {
	Record Record
}

func (e *CommandFailedError) Error() string {
	return "command exited " + strconv.Itoa(e.Record.ExitCode) + ": " + e.Record.Command
}
