// Package ledger implements the Operation Registry & Logger (§4.A): a
// process-global, append-only, total-ordered record of every external
// side-effect, plus a per-range creation.log file. Aggregation ("did the
// range creation succeed?") is a pure function over the in-memory records,
// per §9 "Global mutable state... aggregation is a pure function over the
// append-only log."
package ledger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Kind identifies the category of side-effect a record describes.
type Kind string

const (
	KindShell      Kind = "shell"
	KindSSH        Kind = "ssh"
	KindHypervisor Kind = "hypervisor"
	KindFile       Kind = "file"
	KindBuilder    Kind = "builder"
)

// Context names what a record happened on behalf of.
type Context struct {
	RangeID string
	GuestID string
	Phase   string
}

// Record is §3 "Operation Record".
type Record struct {
	Seq         int64
	Timestamp   time.Time
	Kind        Kind
	Command     string
	Context     Context
	ExitCode    int
	Elapsed     time.Duration
	StdoutTail  string
	StderrTail  string
	IgnoreError bool
}

func (r Record) Failed() bool {
	return r.ExitCode != 0 && !r.IgnoreError
}

// Registry is the append-only ledger. One Registry exists per orchestrator
// process lifetime (§9 "initialized lazily on first append in a workflow;
// closed on workflow end").
type Registry struct {
	mu      sync.Mutex
	seq     int64
	records []Record
	logs    map[string]*os.File // range_id -> creation.log handle
	logDirs map[string]string   // range_id -> range directory, for status sidecar
}

func NewRegistry() *Registry {
	return &Registry{logs: make(map[string]*os.File), logDirs: make(map[string]string)}
}

// OpenRangeLog opens (creating if needed) the creation.log for rangeID
// under dir, so subsequent Append calls with that range_id also get
// written to the per-range log file.
func (r *Registry) OpenRangeLog(rangeID, dir string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	path := filepath.Join(dir, "creation.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}

	r.logs[rangeID] = f
	r.logDirs[rangeID] = dir
	return nil
}

// CloseRangeLog flushes and closes the creation.log for rangeID.
func (r *Registry) CloseRangeLog(rangeID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.logs[rangeID]
	if !ok {
		return nil
	}
	delete(r.logs, rangeID)

	return f.Close()
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

const tailLen = 4096

// Append records one side-effect. It always appends to the in-memory ledger
// (globally ordered by Seq) and, if a creation.log is open for the record's
// range, writes a header + captured output line to it (§4.A a-c).
func (r *Registry) Append(kind Kind, ctx Context, command string, exitCode int, elapsed time.Duration, stdout, stderr string, ignoreError bool) Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++

	rec := Record{
		Seq:         r.seq,
		Timestamp:   time.Now(),
		Kind:        kind,
		Command:     redact(command),
		Context:     ctx,
		ExitCode:    exitCode,
		Elapsed:     elapsed,
		StdoutTail:  tail(stdout, tailLen),
		StderrTail:  tail(stderr, tailLen),
		IgnoreError: ignoreError,
	}

	r.records = append(r.records, rec)

	if f, ok := r.logs[ctx.RangeID]; ok {
		fmt.Fprintf(f, "[%s] %s (%s/%s) phase=%s exit=%d elapsed=%s\n",
			rec.Timestamp.Format(time.RFC3339), rec.Command, kind, ctx.GuestID, ctx.Phase, exitCode, elapsed)
		if stdout != "" {
			fmt.Fprintf(f, "  stdout: %s\n", tail(stdout, 512))
		}
		if stderr != "" {
			fmt.Fprintf(f, "  stderr: %s\n", tail(stderr, 512))
		}
	}

	return rec
}

// Records returns a copy of every record for rangeID, in seq order.
func (r *Registry) Records(rangeID string) []Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Record
	for _, rec := range r.records {
		if rec.Context.RangeID == rangeID {
			out = append(out, rec)
		}
	}
	return out
}

// Failures returns the count of failed (non-ignored, non-zero exit)
// records for rangeID.
func (r *Registry) Failures(rangeID string) int {
	n := 0
	for _, rec := range r.Records(rangeID) {
		if rec.Failed() {
			n++
		}
	}
	return n
}

// Aggregate derives the final SUCCESS|FAILURE determination for rangeID
// (§3 "success iff every record has exit_code == 0 and no rollback was
// triggered"). rolledBack is passed in by the caller (the orchestrator),
// since rollback is a workflow-level fact the ledger itself doesn't track.
func (r *Registry) Aggregate(rangeID string, rolledBack bool) string {
	if rolledBack || r.Failures(rangeID) > 0 {
		return "FAILURE"
	}
	return "SUCCESS"
}

// WriteStatusFile writes the aggregated SUCCESS|FAILURE line to the range's
// `status` sidecar file (§4.A, §6 persisted state layout).
func (r *Registry) WriteStatusFile(rangeID string, rolledBack bool, elapsed time.Duration) error {
	r.mu.Lock()
	dir := r.logDirs[rangeID]
	r.mu.Unlock()

	if dir == "" {
		return fmt.Errorf("no log directory registered for range %s", rangeID)
	}

	result := r.Aggregate(rangeID, rolledBack)
	line := fmt.Sprintf("%s\n", result)

	if err := os.WriteFile(filepath.Join(dir, "status"), []byte(line), 0o644); err != nil {
		return err
	}

	if f, ok := r.logs[rangeID]; ok {
		fmt.Fprintf(f, "Creation result: %s (took %.1fs)\n", result, elapsed.Seconds())
	}

	return nil
}
