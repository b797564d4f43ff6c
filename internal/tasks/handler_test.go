package tasks

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyris-project/cyris/internal/config"
	"github.com/cyris-project/cyris/internal/sshexec"
)

type fakeHandler struct {
	result Result
}

func (f fakeHandler) Execute(client *sshexec.Client, timeout time.Duration, task config.Task) Result {
	return f.result
}

func TestRunAll_StopsOnFatalFailure(t *testing.T) {
	orig := Registry["install_package"]
	defer func() { Registry["install_package"] = orig }()

	Registry["install_package"] = fakeHandler{result: Result{Success: false, Message: "boom"}}

	tasks := []config.Task{
		{Kind: "install_package", Fatal: true},
		{Kind: "execute_program"},
	}

	outcomes, err := RunAll(nil, "desktop.1", "10.0.0.5", time.Second, tasks)
	require.Error(t, err)
	assert.Len(t, outcomes, 1)
}

func TestRunAll_ContinuesPastNonFatalFailure(t *testing.T) {
	origInstall := Registry["install_package"]
	origExec := Registry["execute_program"]
	defer func() {
		Registry["install_package"] = origInstall
		Registry["execute_program"] = origExec
	}()

	Registry["install_package"] = fakeHandler{result: Result{Success: false}}
	Registry["execute_program"] = fakeHandler{result: Result{Success: true}}

	tasks := []config.Task{
		{Kind: "install_package", Fatal: false},
		{Kind: "execute_program"},
	}

	outcomes, err := RunAll(nil, "desktop.1", "10.0.0.5", time.Second, tasks)
	require.NoError(t, err)
	assert.Len(t, outcomes, 2)
}

func TestRuntimeTasks_FiltersAlsoRuntime(t *testing.T) {
	tasks := []config.Task{
		{Kind: "a", AlsoRuntime: true},
		{Kind: "b", AlsoRuntime: false},
	}
	runtime := RuntimeTasks(tasks)
	require.Len(t, runtime, 1)
	assert.Equal(t, "a", runtime[0].Kind)
}

func TestStringParam_MissingReturnsEmpty(t *testing.T) {
	task := config.Task{Params: map[string]interface{}{}}
	assert.Equal(t, "", stringParam(task, "missing"))
}

func TestSliceParam_ExtractsStrings(t *testing.T) {
	task := config.Task{Params: map[string]interface{}{"items": []interface{}{"nmap", "tcpdump"}}}
	assert.Equal(t, []string{"nmap", "tcpdump"}, sliceParam(task, "items"))
}
