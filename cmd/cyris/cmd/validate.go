package cmd

import (
	"fmt"
	"os/exec"

	"github.com/spf13/cobra"
)

var requiredTools = []string{"virsh", "qemu-img", "virt-install", "ssh", "iptables", "ip"}

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check environment readiness",
		RunE: func(cmd *cobra.Command, args []string) error {
			var missing []string
			for _, tool := range requiredTools {
				if _, err := exec.LookPath(tool); err != nil {
					missing = append(missing, tool)
				}
			}

			if len(missing) > 0 {
				for _, tool := range missing {
					fmt.Printf("MISSING: %s\n", tool)
				}
				return usageError(fmt.Errorf("%d required tool(s) not found on PATH", len(missing)))
			}

			out, err := exec.Command("virsh", "-c", cfg.LibvirtURI, "nodeinfo").CombinedOutput()
			if err != nil {
				fmt.Println(string(out))
				return fullFailure(fmt.Errorf("libvirt connection %s is not reachable: %w", cfg.LibvirtURI, err))
			}

			fmt.Println("environment OK")
			fmt.Printf("libvirt: %s\n", cfg.LibvirtURI)
			fmt.Printf("cyber_range_dir: %s\n", cfg.CyberRangeDir)

			return nil
		},
	}

	return cmd
}
