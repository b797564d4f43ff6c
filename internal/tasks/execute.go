package tasks

import (
	"fmt"
	"time"

	"github.com/cyris-project/cyris/internal/config"
	"github.com/cyris-project/cyris/internal/sshexec"
)

type executeProgramHandler struct{}

func (executeProgramHandler) Execute(client *sshexec.Client, timeout time.Duration, task config.Task) Result {
	program := stringParam(task, "program")
	if program == "" {
		program = stringParam(task, "value")
	}
	if program == "" {
		return Result{Message: "execute_program: no program given"}
	}

	sudo := stringParam(task, "privilege") == "root" || stringParam(task, "privilege") == "sudo"

	stdout, stderr, exitCode, err := client.Execute(program, timeout, sudo)
	if err != nil {
		return Result{Message: fmt.Sprintf("execute_program: %v", err), Error: err.Error()}
	}
	if exitCode != 0 {
		return Result{Message: fmt.Sprintf("execute_program exited %d: %s", exitCode, stderr), Output: stdout, Error: stderr}
	}
	return Result{Success: true, Message: stdout, Output: stdout}
}
