package elevate

import (
	"bytes"
	"io"
	"os/exec"

	"github.com/kr/pty"
)

// runPTY allocates a pseudo-terminal for cmd and answers the sudo password
// prompt over it, the same pattern miniweb and the container shim use to
// give a spawned process a controlling terminal (pty.Start(cmd)).
func runPTY(cmd *exec.Cmd, password string) (Result, error) {
	tty, err := pty.Start(cmd)
	if err != nil {
		return Result{Method: MethodPTY}, err
	}
	defer tty.Close()

	var out bytes.Buffer
	done := make(chan error, 1)
	go func() {
		_, copyErr := io.Copy(&out, tty)
		done <- copyErr
	}()

	if _, err := io.WriteString(tty, password+"\n"); err != nil {
		cmd.Process.Kill()
		return Result{Method: MethodPTY}, err
	}

	waitErr := cmd.Wait()
	<-done

	text := out.String()
	res := Result{
		Method:   MethodPTY,
		Stdout:   text,
		Stderr:   text,
		ExitCode: exitCode(cmd, waitErr),
	}

	if waitErr != nil {
		return res, waitErr
	}
	return res, nil
}
