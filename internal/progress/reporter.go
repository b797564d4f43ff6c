// Package progress implements the Progress Reporter (§4.B): phase/step
// notifications and a success/failure summary, rendered by a pluggable
// backend. The reporter never decides control flow — the orchestrator calls
// it purely to narrate what it is already doing.
package progress

import "time"

// Reporter is implemented by every rendering backend.
type Reporter interface {
	StartPhase(name string)
	Step(message string)
	ReportError(context, logPath string)
	Finish(success bool, elapsed time.Duration)
}

// legacyLine mirrors the format used throughout the original tool's console
// output: "* INFO: cyris: <message>" (§4.B).
func legacyLine(level, message string) string {
	return "* " + level + ": cyris: " + message
}
