package sshexec

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// HostResult is one host's outcome from a ParallelExecute fan-out.
type HostResult struct {
	Host     string
	Stdout   string
	Stderr   string
	ExitCode int
	Err      error
}

// ParallelExecute runs cmd against every host concurrently, bounded to
// concurrency simultaneous sessions, and collects every result rather than
// aborting the group on the first failure (a single unreachable clone
// target should not hide the results for the rest of the range).
func ParallelExecute(hosts []string, creds Credentials, cmd string, concurrency int, timeout time.Duration) []HostResult {
	if concurrency <= 0 {
		concurrency = 1
	}

	results := make([]HostResult, len(hosts))
	sem := make(chan struct{}, concurrency)

	g, _ := errgroup.WithContext(context.Background())

	for i, host := range hosts {
		i, host := i, host
		g.Go(func() error {
			sem <- struct{}{}
			defer func() { <-sem }()

			client := NewClient(host, creds)
			stdout, stderr, exitCode, err := client.Execute(cmd, timeout, false)
			results[i] = HostResult{Host: host, Stdout: stdout, Stderr: stderr, ExitCode: exitCode, Err: err}
			return nil
		})
	}

	g.Wait()
	return results
}
