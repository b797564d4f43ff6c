package tasks

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/cyris-project/cyris/internal/config"
	"github.com/cyris-project/cyris/internal/sshexec"
)

// emulateAttackHandler, emulateMalwareHandler, and
// emulateTrafficCaptureHandler all share the same shape: copy a tool
// (script, binary, or pcap-replay target) to the guest and invoke it with
// the declared arguments, distinguished only by the parameter names a
// description author is expected to use.

type emulateAttackHandler struct{}

func (emulateAttackHandler) Execute(client *sshexec.Client, timeout time.Duration, task config.Task) Result {
	return runTool(client, timeout, task, "tool", "args")
}

type emulateMalwareHandler struct{}

func (emulateMalwareHandler) Execute(client *sshexec.Client, timeout time.Duration, task config.Task) Result {
	return runTool(client, timeout, task, "sample", "args")
}

type emulateTrafficCaptureHandler struct{}

func (emulateTrafficCaptureHandler) Execute(client *sshexec.Client, timeout time.Duration, task config.Task) Result {
	pcap := stringParam(task, "pcap")
	if pcap == "" {
		return Result{Message: "emulate_traffic_capture_file: missing \"pcap\""}
	}

	remote := "/tmp/" + filepath.Base(pcap)
	if err := client.Put(pcap, remote, timeout); err != nil {
		return Result{Message: fmt.Sprintf("emulate_traffic_capture_file: %v", err)}
	}

	cmd := fmt.Sprintf("tcpreplay --intf1=%s %s", stringParam(task, "interface"), remote)
	stdout, stderr, exitCode, err := client.Execute(cmd, timeout, true)
	if err != nil || exitCode != 0 {
		return Result{Message: fmt.Sprintf("emulate_traffic_capture_file: %s", stderr), Output: stdout, Error: stderr}
	}
	return Result{Success: true, Message: "replayed " + pcap, Output: stdout}
}

func runTool(client *sshexec.Client, timeout time.Duration, task config.Task, toolKey, argsKey string) Result {
	tool := stringParam(task, toolKey)
	if tool == "" {
		return Result{Message: fmt.Sprintf("%s: missing %q parameter", task.Kind, toolKey)}
	}

	remote := "/tmp/" + filepath.Base(tool)
	if err := client.Put(tool, remote, timeout); err != nil {
		return Result{Message: fmt.Sprintf("%s: copying tool: %v", task.Kind, err), Error: err.Error()}
	}

	cmd := fmt.Sprintf("chmod +x %s && %s %s", remote, remote, stringParam(task, argsKey))
	stdout, stderr, exitCode, err := client.Execute(cmd, timeout, true)
	if err != nil || exitCode != 0 {
		return Result{Message: fmt.Sprintf("%s: %s", task.Kind, stderr), Output: stdout, Error: stderr}
	}
	return Result{Success: true, Message: tool + " executed", Output: stdout}
}
