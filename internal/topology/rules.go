package topology

import (
	"fmt"
	"strings"

	"github.com/cyris-project/cyris/internal/config"
)

// ChainName returns the range-scoped iptables chain forwarding rules are
// staged into before being swapped into FORWARD.
func ChainName(rangeID string) string {
	return "CYRIS-" + rangeID
}

// SynthesizeRules turns a clone host's declared forwarding rules into
// iptables command lines appended to ChainName(rangeID): one stateful
// accept rule per declaration plus a trailing related/established
// catch-all so return traffic on any already-permitted flow is not
// dropped.
func SynthesizeRules(rangeID string, host config.CloneHost) ([]string, error) {
	chain := ChainName(rangeID)
	var cmds []string

	for _, rule := range allForwardingRules(host) {
		srcNet, ok := findNetwork(host, rule.SrcNetwork)
		if !ok {
			return nil, fmt.Errorf("forwarding rule references unknown network %q", rule.SrcNetwork)
		}
		dstNet, ok := findNetwork(host, rule.DstNetwork)
		if !ok {
			return nil, fmt.Errorf("forwarding rule references unknown network %q", rule.DstNetwork)
		}

		protocol := rule.Protocol
		if protocol == "" {
			protocol = "tcp"
		}

		args := []string{"-A", chain, "-s", srcNet.Subnet, "-d", dstNet.Subnet, "-p", protocol}
		if rule.SPort > 0 {
			args = append(args, "--sport", fmt.Sprintf("%d", rule.SPort))
		}
		if rule.DPort > 0 {
			args = append(args, "--dport", fmt.Sprintf("%d", rule.DPort))
		}
		args = append(args, "-m", "state", "--state", "NEW,ESTABLISHED,RELATED", "-j", "ACCEPT")

		cmds = append(cmds, "iptables "+strings.Join(args, " "))
	}

	cmds = append(cmds, fmt.Sprintf("iptables -A %s -m state --state ESTABLISHED,RELATED -j ACCEPT", chain))

	return cmds, nil
}
