package imagebuild

import (
	"strings"

	"github.com/cyris-project/cyris/internal/config"
)

// customizeArgs translates the subset of task kinds that can run offline
// against an unbooted image into virt-customize flags. Tasks that need a
// live network target (emulate_attack, emulate_malware,
// emulate_traffic_capture_file) or act on a running guest
// (modify_account) are left for the post-boot pass instead.
func customizeArgs(tasks []config.Task) []string {
	var args []string

	for _, t := range tasks {
		switch t.Kind {
		case "install_package":
			if pkgs := stringSliceParam(t, "items"); len(pkgs) > 0 {
				args = append(args, "--install", strings.Join(pkgs, ","))
			}
		case "add_account":
			if account := stringParam(t, "account"); account != "" {
				args = append(args, "--run-command", "useradd -m "+account)
			}
		case "execute_program":
			if program := stringParam(t, "program"); program != "" {
				args = append(args, "--run-command", program)
			}
		case "copy_content":
			src, dst := stringParam(t, "src"), stringParam(t, "dst")
			if src != "" && dst != "" {
				args = append(args, "--copy-in", src+":"+dst)
			}
		case "firewall_rules":
			for _, rule := range stringSliceParam(t, "rules") {
				args = append(args, "--run-command", "iptables "+rule)
			}
		}
	}

	return args
}

func stringParam(t config.Task, key string) string {
	s, _ := t.Params[key].(string)
	return s
}

func stringSliceParam(t config.Task, key string) []string {
	raw, ok := t.Params[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
