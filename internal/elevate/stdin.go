package elevate

import (
	"bytes"
	"io"
	"os/exec"
)

// runStdin feeds the password over a plain stdin pipe, the fallback used
// when no controlling terminal is available for a PTY. It mirrors the
// passwordify stdin-pipe pattern: open StdinPipe/StdoutPipe/StderrPipe,
// write the password on a goroutine, then wait for the command to exit.
func runStdin(cmd *exec.Cmd, password string) (Result, error) {
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return Result{Method: MethodStdin}, err
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return Result{Method: MethodStdin}, err
	}

	go func() {
		defer stdin.Close()
		io.WriteString(stdin, password+"\n")
	}()

	waitErr := cmd.Wait()
	res := Result{
		Method:   MethodStdin,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode(cmd, waitErr),
	}
	return res, waitErr
}

// ReadPasswordPrompt reads a password from the controlling terminal
// without echo, used when no password is supplied programmatically and
// an operator must be prompted interactively. Grounded on passwordify's
// use of golang.org/x/crypto/ssh/terminal.ReadPassword.
func ReadPasswordPrompt(fd int, prompt func(string)) (string, error) {
	prompt("Password: ")
	pw, err := readPassword(fd)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}
