package tasks

import (
	"fmt"
	"time"

	"github.com/cyris-project/cyris/internal/config"
	"github.com/cyris-project/cyris/internal/sshexec"
)

type copyContentHandler struct{}

func (copyContentHandler) Execute(client *sshexec.Client, timeout time.Duration, task config.Task) Result {
	src := stringParam(task, "src")
	dst := stringParam(task, "dst")
	if src == "" || dst == "" {
		return Result{Message: "copy_content: requires \"src\" and \"dst\""}
	}

	if err := client.Put(src, dst, timeout); err != nil {
		return Result{Message: fmt.Sprintf("copy_content %s -> %s: %v", src, dst, err), Error: err.Error()}
	}

	verifyOut, _, verifyCode, _ := client.Execute(fmt.Sprintf("test -e %s", dst), timeout, false)
	return Result{Success: true, Verified: verifyCode == 0, Message: fmt.Sprintf("copied %s to %s", src, dst), Evidence: verifyOut}
}
