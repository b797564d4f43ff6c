package sshexec

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cyris-project/cyris/internal/cyrierr"
)

// Put copies localPath to remotePath by piping the local file's contents
// into a remote "cat > file" session, avoiding a dependency on an sftp
// subsystem the clone targets may not run.
func (c *Client) Put(localPath, remotePath string, timeout time.Duration) error {
	f, err := os.Open(localPath)
	if err != nil {
		return cyrierr.Wrap(cyrierr.SSH, err, "open local file")
	}
	defer f.Close()

	client, err := c.dial(timeout)
	if err != nil {
		return err
	}
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return cyrierr.Wrap(cyrierr.SSH, err, "open session")
	}
	defer session.Close()

	session.Stdin = f
	var stderrBuf outputBuffer
	session.Stderr = &stderrBuf

	if err := session.Run(fmt.Sprintf("cat > %s", remotePath)); err != nil {
		return cyrierr.Wrap(cyrierr.SSH, fmt.Errorf("%s: %w", stderrBuf.String(), err), "put "+remotePath)
	}
	return nil
}

// Get copies remotePath from the host into localPath by running
// "cat file" and streaming the session's stdout to a local file.
func (c *Client) Get(remotePath, localPath string, timeout time.Duration) error {
	client, err := c.dial(timeout)
	if err != nil {
		return err
	}
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return cyrierr.Wrap(cyrierr.SSH, err, "open session")
	}
	defer session.Close()

	out, err := os.Create(localPath)
	if err != nil {
		return cyrierr.Wrap(cyrierr.SSH, err, "create local file")
	}
	defer out.Close()

	stdout, err := session.StdoutPipe()
	if err != nil {
		return cyrierr.Wrap(cyrierr.SSH, err, "open stdout pipe")
	}

	if err := session.Start(fmt.Sprintf("cat %s", remotePath)); err != nil {
		return cyrierr.Wrap(cyrierr.SSH, err, "get "+remotePath)
	}

	if _, err := io.Copy(out, stdout); err != nil {
		return cyrierr.Wrap(cyrierr.SSH, err, "stream remote file")
	}

	return session.Wait()
}
