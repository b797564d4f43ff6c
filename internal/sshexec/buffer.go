package sshexec

import "strings"

// outputBuffer is a minimal io.Writer sink for session stdout/stderr;
// a strings.Builder is unsafe for concurrent writers, which a Session's
// stdout/stderr pair can be under some terminal plumbing, so each stream
// gets its own instance rather than being shared.
type outputBuffer struct {
	b strings.Builder
}

func (o *outputBuffer) Write(p []byte) (int, error) {
	return o.b.Write(p)
}

func (o *outputBuffer) String() string {
	return o.b.String()
}
