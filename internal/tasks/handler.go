// Package tasks implements the per-task-kind handlers (§4.I): guest
// management tasks declared in a Guest's `tasks:` list, dispatched over
// SSH (with elevation when the task needs root) and verified afterward
// where a cheap verification check exists.
package tasks

import (
	"fmt"
	"time"

	"github.com/cyris-project/cyris/internal/config"
	"github.com/cyris-project/cyris/internal/sshexec"
)

// Result is one task's outcome; the orchestrator copies it into a
// store.TaskResult for the range's metadata.
type Result struct {
	Success  bool
	Verified bool
	Message  string
	Output   string
	Error    string
	Evidence string
}

// Handler implements one task kind.
type Handler interface {
	Execute(client *sshexec.Client, timeout time.Duration, task config.Task) Result
}

// Registry maps a task kind to its Handler.
var Registry = map[string]Handler{
	"add_account":                  addAccountHandler{},
	"modify_account":               modifyAccountHandler{},
	"install_package":              installPackageHandler{},
	"copy_content":                 copyContentHandler{},
	"execute_program":              executeProgramHandler{},
	"emulate_attack":               emulateAttackHandler{},
	"emulate_malware":              emulateMalwareHandler{},
	"emulate_traffic_capture_file": emulateTrafficCaptureHandler{},
	"firewall_rules":               firewallRulesHandler{},
}

// Outcome is one executed task bundled with enough of its declaration and
// its VM context to persist as a §3 TaskResult.
type Outcome struct {
	TaskID    string
	VMName    string
	VMIP      string
	Task      config.Task
	Result    Result
	Elapsed   time.Duration
	Timestamp time.Time
}

// RunAll executes tasks in declaration order against client, stopping
// early the moment a task marked `fatal: true` fails -- a fatal failure
// means continuing would very likely only produce more failures on a
// guest that is not in the state the remaining tasks assume. vmName/vmIP
// identify the guest the tasks ran against, so the resulting Outcomes can
// be persisted and displayed independent of the in-memory instance.
func RunAll(client *sshexec.Client, vmName, vmIP string, timeout time.Duration, tasks []config.Task) ([]Outcome, error) {
	outcomes := make([]Outcome, 0, len(tasks))

	for i, task := range tasks {
		handler, ok := Registry[task.Kind]
		if !ok {
			return outcomes, fmt.Errorf("tasks: no handler registered for kind %q", task.Kind)
		}

		start := time.Now()
		result := handler.Execute(client, timeout, task)
		outcomes = append(outcomes, Outcome{
			TaskID:    fmt.Sprintf("%s-%d", vmName, i),
			VMName:    vmName,
			VMIP:      vmIP,
			Task:      task,
			Result:    result,
			Elapsed:   time.Since(start),
			Timestamp: start,
		})

		if !result.Success && task.Fatal {
			return outcomes, fmt.Errorf("tasks: fatal task %q failed: %s", task.Kind, result.Message)
		}
	}

	return outcomes, nil
}

// RuntimeTasks returns the tasks of a kvm-auto guest that run after boot:
// those marked also_runtime: true, which the build-time image
// customization pass already ran once, plus every task of a kind that
// pass leaves for the running guest (see postBootOnly).
func RuntimeTasks(tasks []config.Task) []config.Task {
	var runtime []config.Task
	for _, t := range tasks {
		if t.AlsoRuntime || postBootOnly[t.Kind] {
			runtime = append(runtime, t)
		}
	}
	return runtime
}

// postBootOnly lists the task kinds the image customization pass does not
// apply offline, so they run after boot whether or not also_runtime is set.
var postBootOnly = map[string]bool{
	"modify_account":               true,
	"emulate_attack":               true,
	"emulate_malware":              true,
	"emulate_traffic_capture_file": true,
}
