// Package sshexec implements the SSH Executor (§4.D): single and
// parallel command execution plus file transfer over golang.org/x/crypto/ssh,
// with known-hosts checking disabled and the accepted host key fingerprint
// logged instead (kvm-auto clone targets have no stable known_hosts entry).
package sshexec

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/cyris-project/cyris/internal/cyrierr"
	"github.com/cyris-project/cyris/internal/cyrislog"
)

var errNoAgent = errors.New("sshexec: no SSH_AUTH_SOCK in environment")

const (
	defaultRetries    = 3
	defaultBackoff    = 5 * time.Second
	defaultPort       = "22"
)

// Client dials and runs commands against a single host.
type Client struct {
	host  string
	creds Credentials
}

func NewClient(host string, creds Credentials) *Client {
	return &Client{host: host, creds: creds}
}

func (c *Client) dial(timeout time.Duration) (*ssh.Client, error) {
	config := &ssh.ClientConfig{
		User:            c.creds.User,
		Auth:            authMethods(c.creds),
		Timeout:         timeout,
		HostKeyCallback: c.logFingerprint,
	}

	addr := net.JoinHostPort(c.host, defaultPort)
	client, err := ssh.Dial("tcp", addr, config)
	if err != nil {
		return nil, cyrierr.Wrap(cyrierr.SSH, err, fmt.Sprintf("dial %s", c.host))
	}
	return client, nil
}

// logFingerprint accepts every host key (known_hosts checking is disabled
// for clone targets) but records the fingerprint so an operator can audit
// what was trusted.
func (c *Client) logFingerprint(hostname string, remote net.Addr, key ssh.PublicKey) error {
	cyrislog.Debug("sshexec: %s presented key fingerprint %s", hostname, ssh.FingerprintSHA256(key))
	return nil
}

// Execute runs cmd on the host, retrying transient connection failures up
// to defaultRetries times with a defaultBackoff delay. sudo prefixes the
// remote command with "sudo -n" so it fails fast instead of blocking on a
// prompt the SSH session cannot answer; elevation without a cached sudo
// session goes through internal/elevate on the calling side instead.
func (c *Client) Execute(cmd string, timeout time.Duration, sudo bool) (stdout, stderr string, exitCode int, err error) {
	if sudo {
		cmd = "sudo -n " + cmd
	}

	var lastErr error
	for attempt := 0; attempt <= defaultRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(defaultBackoff)
		}

		stdout, stderr, exitCode, err = c.runOnce(cmd, timeout)
		if err == nil || !transient(err) {
			return stdout, stderr, exitCode, err
		}
		lastErr = err
	}
	return stdout, stderr, exitCode, lastErr
}

func (c *Client) runOnce(cmd string, timeout time.Duration) (string, string, int, error) {
	client, err := c.dial(timeout)
	if err != nil {
		return "", "", -1, err
	}
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return "", "", -1, cyrierr.Wrap(cyrierr.SSH, err, "open session")
	}
	defer session.Close()

	var stdoutBuf, stderrBuf outputBuffer
	session.Stdout = &stdoutBuf
	session.Stderr = &stderrBuf

	runErr := session.Run(cmd)
	exitCode := 0
	if runErr != nil {
		var exitErr *ssh.ExitError
		if errors.As(runErr, &exitErr) {
			exitCode = exitErr.ExitStatus()
			runErr = nil
		}
	}

	return stdoutBuf.String(), stderrBuf.String(), exitCode, runErr
}

// transient reports whether err is worth retrying: dial/handshake
// failures and timeouts, not an authentication rejection (retrying a bad
// credential just burns the backoff window for no benefit).
func transient(err error) bool {
	if err == nil {
		return false
	}
	if strings.Contains(err.Error(), "unable to authenticate") {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return cyrierr.Is(err, cyrierr.SSH)
}
