package tasks

import (
	"fmt"
	"strings"
	"time"

	"github.com/cyris-project/cyris/internal/config"
	"github.com/cyris-project/cyris/internal/sshexec"
)

// firewallRulesHandler applies guest-local iptables rules. This is
// distinct from internal/topology's range-level forwarding policy: those
// rules live on the range's bridge, these run inside the guest itself.
type firewallRulesHandler struct{}

func (firewallRulesHandler) Execute(client *sshexec.Client, timeout time.Duration, task config.Task) Result {
	rules := sliceParam(task, "rules")
	if len(rules) == 0 {
		if r := stringParam(task, "value"); r != "" {
			rules = []string{r}
		}
	}
	if len(rules) == 0 {
		return Result{Message: "firewall_rules: no rules given"}
	}

	var applied []string
	for _, rule := range rules {
		stdout, stderr, exitCode, err := client.Execute("iptables "+rule, timeout, true)
		if err != nil || exitCode != 0 {
			return Result{Message: fmt.Sprintf("firewall_rules: %s: %s", rule, stderr), Output: stdout, Error: stderr}
		}
		applied = append(applied, rule)
	}

	return Result{Success: true, Message: fmt.Sprintf("applied %d firewall rules", len(rules)), Evidence: strings.Join(applied, "; ")}
}
