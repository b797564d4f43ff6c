package tasks

import (
	"fmt"
	"strings"
	"time"

	"github.com/cyris-project/cyris/internal/config"
	"github.com/cyris-project/cyris/internal/sshexec"
)

type installPackageHandler struct{}

func (installPackageHandler) Execute(client *sshexec.Client, timeout time.Duration, task config.Task) Result {
	pkgs := sliceParam(task, "items")
	if len(pkgs) == 0 {
		return Result{Message: "install_package: no packages listed"}
	}

	manager := stringParam(task, "manager")
	if manager == "" {
		manager = "apt-get"
	}

	var cmd string
	switch manager {
	case "yum", "dnf":
		cmd = fmt.Sprintf("%s install -y %s", manager, strings.Join(pkgs, " "))
	default:
		cmd = fmt.Sprintf("apt-get install -y %s", strings.Join(pkgs, " "))
	}

	stdout, stderr, exitCode, err := client.Execute(cmd, timeout, true)
	if err != nil || exitCode != 0 {
		return Result{Message: fmt.Sprintf("install_package: %s", stderr), Output: stdout, Error: stderr}
	}

	return Result{Success: true, Message: fmt.Sprintf("installed %s", strings.Join(pkgs, ", ")), Output: stdout}
}
