// Package elevate implements the Privileged Executor (§4.C): running a
// command with elevated privileges on a host that was reached without an
// interactive terminal, trying a PTY-backed sudo prompt first and falling
// back to a stdin/askpass style prompt when no terminal is available.
package elevate

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

// indicators are the exact substrings sudo (or an equivalent privilege
// helper) prints when it cannot present an interactive password prompt.
// Their presence in a failed attempt's stderr is what triggers the
// stdin/askpass fallback rather than surfacing the failure directly.
var indicators = []string{
	"terminal is required",
	"a password is required",
	"askpass helper",
}

// Method identifies which elevation path ultimately succeeded.
type Method string

const (
	MethodPTY     Method = "pty"
	MethodStdin   Method = "stdin"
	MethodCached  Method = "cached"
)

// Result carries the outcome of one elevated command.
type Result struct {
	Method   Method
	Stdout   string
	Stderr   string
	ExitCode int
}

// GuidanceError is returned when neither the PTY nor the stdin fallback
// could obtain a privileged shell. Advice lines are environment-specific
// remediation steps shown to the operator.
type GuidanceError struct {
	Host   string
	Advice []string
}

func (e *GuidanceError) Error() string {
	return fmt.Sprintf("elevate: no privileged execution path available on %s", e.Host)
}

func defaultAdvice(host string) []string {
	return []string{
		fmt.Sprintf("configure passwordless sudo for the cyris account on %s", host),
		"or run cyris from a real terminal so a password prompt can be shown",
		"or set an askpass helper via SUDO_ASKPASS in the environment",
	}
}

// Executor runs commands with elevated privileges, caching successful
// elevations so a password is not re-solicited on every call.
type Executor struct {
	cache    *cache.Cache
	password func(host string) (string, error)
}

// NewExecutor builds an Executor. passwordFn supplies the elevation
// password for a given host; it is consulted only when no cached
// elevation is available.
func NewExecutor(passwordFn func(host string) (string, error)) *Executor {
	return &Executor{
		cache:    cache.New(15*time.Minute, time.Minute),
		password: passwordFn,
	}
}

func cacheKey(host, account string) string {
	return host + "\x00" + account
}

// Run executes cmd with elevated privileges on behalf of account. The PTY
// path is tried first; if it fails with one of the known "no terminal"
// indicators, the stdin fallback is attempted. A prior successful
// elevation for (host, account) is reused for up to 15 minutes instead of
// repeating either path.
func (e *Executor) Run(host, account string, cmd *exec.Cmd) (Result, error) {
	key := cacheKey(host, account)
	if _, ok := e.cache.Get(key); ok {
		out, err := runCached(cmd)
		if err == nil {
			return Result{Method: MethodCached, Stdout: out.stdout, Stderr: out.stderr, ExitCode: out.exitCode}, nil
		}
		// cached elevation no longer valid; fall through to a fresh attempt
		e.cache.Delete(key)
	}

	password := ""
	if e.password != nil {
		p, err := e.password(host)
		if err != nil {
			return Result{}, fmt.Errorf("elevate: obtaining password for %s: %w", host, err)
		}
		password = p
	}

	res, err := runPTY(cmd, password)
	if err == nil {
		e.cache.SetDefault(key, true)
		return res, nil
	}

	if !needsFallback(res.Stderr) {
		return res, err
	}

	res, err = runStdin(cmd, password)
	if err != nil {
		return res, &GuidanceError{Host: host, Advice: defaultAdvice(host)}
	}

	e.cache.SetDefault(key, true)
	return res, nil
}

func needsFallback(stderr string) bool {
	for _, ind := range indicators {
		if strings.Contains(stderr, ind) {
			return true
		}
	}
	return false
}

type rawResult struct {
	stdout, stderr string
	exitCode       int
}

func runCached(cmd *exec.Cmd) (rawResult, error) {
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return rawResult{stdout: stdout.String(), stderr: stderr.String(), exitCode: exitCode(cmd, err)}, err
}

func exitCode(cmd *exec.Cmd, err error) int {
	if cmd.ProcessState != nil {
		return cmd.ProcessState.ExitCode()
	}
	if err != nil {
		return 1
	}
	return 0
}
