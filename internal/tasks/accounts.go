package tasks

import (
	"fmt"
	"time"

	"github.com/cyris-project/cyris/internal/config"
	"github.com/cyris-project/cyris/internal/sshexec"
)

type addAccountHandler struct{}

func (addAccountHandler) Execute(client *sshexec.Client, timeout time.Duration, task config.Task) Result {
	account := stringParam(task, "account")
	if account == "" {
		return Result{Message: "add_account: missing \"account\" parameter"}
	}

	cmd := fmt.Sprintf("useradd -m %s", account)
	if pw := stringParam(task, "passwd"); pw != "" {
		cmd = fmt.Sprintf("useradd -m -p $(openssl passwd -1 %s) %s", shellQuote(pw), account)
	}

	stdout, stderr, exitCode, err := client.Execute(cmd, timeout, true)
	if err != nil || exitCode != 0 {
		return Result{Message: fmt.Sprintf("add_account %s: %s", account, stderr), Output: stdout, Error: stderr}
	}

	verifyOut, _, verifyCode, _ := client.Execute(fmt.Sprintf("id %s", account), timeout, false)
	return Result{Success: true, Verified: verifyCode == 0, Message: "account " + account + " created", Output: stdout, Evidence: verifyOut}
}

type modifyAccountHandler struct{}

func (modifyAccountHandler) Execute(client *sshexec.Client, timeout time.Duration, task config.Task) Result {
	account := stringParam(task, "account")
	if account == "" {
		return Result{Message: "modify_account: missing \"account\" parameter"}
	}

	args := ""
	if pw := stringParam(task, "passwd"); pw != "" {
		args += fmt.Sprintf(" -p $(openssl passwd -1 %s)", shellQuote(pw))
	}
	if shell := stringParam(task, "shell"); shell != "" {
		args += " -s " + shell
	}
	if args == "" {
		return Result{Message: "modify_account: nothing to change"}
	}

	stdout, stderr, exitCode, err := client.Execute(fmt.Sprintf("usermod%s %s", args, account), timeout, true)
	if err != nil || exitCode != 0 {
		return Result{Message: fmt.Sprintf("modify_account %s: %s", account, stderr), Output: stdout, Error: stderr}
	}
	return Result{Success: true, Message: "account " + account + " modified", Output: stdout}
}

func shellQuote(s string) string {
	return "'" + s + "'"
}
