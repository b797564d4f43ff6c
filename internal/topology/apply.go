package topology

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/cyris-project/cyris/internal/cyrierr"
	"github.com/cyris-project/cyris/internal/elevate"
	"github.com/cyris-project/cyris/internal/ledger"
	"github.com/cyris-project/cyris/internal/store"
)

// Apply stages the chain, runs every synthesized rule into it, then links
// it into FORWARD. Every staged rule is recorded as a store.AppliedRuleMark
// so a failed apply (or a later destroy) can reverse exactly what was
// added, nothing more. On any failure the chain is flushed and unlinked
// before the error is returned, so a half-applied ruleset never lingers.
// elev/host/account route every iptables invocation through the same
// privileged executor the hypervisor adapter uses (§4.C); elev may be nil
// for a local, already-privileged invocation.
func Apply(reg *ledger.Registry, ctx ledger.Context, rangeID string, rules []string, elev *elevate.Executor, host, account string) ([]store.AppliedRuleMark, error) {
	chain := ChainName(rangeID)

	if err := run(reg, ctx, fmt.Sprintf("iptables -N %s", chain), false, elev, host, account); err != nil {
		return nil, cyrierr.Wrap(cyrierr.Network, err, "create chain "+chain)
	}

	var marks []store.AppliedRuleMark
	for _, rule := range rules {
		if err := run(reg, ctx, rule, false, elev, host, account); err != nil {
			Teardown(reg, ctx, rangeID, marks, elev, host, account)
			return nil, cyrierr.Wrap(cyrierr.Network, err, "apply rule")
		}
		marks = append(marks, store.AppliedRuleMark{Chain: chain, Spec: rule})
	}

	link := fmt.Sprintf("iptables -I FORWARD -j %s", chain)
	if err := run(reg, ctx, link, false, elev, host, account); err != nil {
		Teardown(reg, ctx, rangeID, marks, elev, host, account)
		return nil, cyrierr.Wrap(cyrierr.Network, err, "link chain "+chain)
	}
	marks = append(marks, store.AppliedRuleMark{Chain: "FORWARD", Spec: link})

	return marks, nil
}

// Teardown reverses every mark recorded by Apply, best-effort: it keeps
// going even if an individual removal fails, since a partially-reversed
// ruleset is still strictly better than an untouched one left behind by a
// destroyed range.
func Teardown(reg *ledger.Registry, ctx ledger.Context, rangeID string, marks []store.AppliedRuleMark, elev *elevate.Executor, host, account string) {
	chain := ChainName(rangeID)

	for i := len(marks) - 1; i >= 0; i-- {
		m := marks[i]
		if m.Chain == "FORWARD" {
			run(reg, ctx, fmt.Sprintf("iptables -D FORWARD -j %s", chain), true, elev, host, account)
			continue
		}
		run(reg, ctx, reverseRule(m.Spec), true, elev, host, account)
	}

	run(reg, ctx, fmt.Sprintf("iptables -F %s", chain), true, elev, host, account)
	run(reg, ctx, fmt.Sprintf("iptables -X %s", chain), true, elev, host, account)
}

func reverseRule(spec string) string {
	// "iptables -A CHAIN ..." -> "iptables -D CHAIN ..."
	return "iptables -D" + spec[len("iptables -A"):]
}

func run(reg *ledger.Registry, ctx ledger.Context, command string, ignoreErrors bool, elev *elevate.Executor, host, account string) error {
	_, err := reg.Run(ledger.KindShell, ctx, command, ignoreErrors, func() (string, string, int, error) {
		fields := strings.Fields(command)
		cmd := exec.Command(fields[0], fields[1:]...)

		if elev != nil && account != "" {
			res, err := elev.Run(host, account, cmd)
			if err != nil {
				return res.Stdout, res.Stderr, res.ExitCode, err
			}
			return res.Stdout, res.Stderr, res.ExitCode, nil
		}

		out, err := cmd.CombinedOutput()
		exitCode := 0
		if err != nil {
			exitCode = 1
		}
		return string(out), "", exitCode, nil
	})
	return err
}
