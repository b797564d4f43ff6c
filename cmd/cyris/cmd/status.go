package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status <range_id>",
		Short: "Show VMs, IPs, reachability, disk health, and tasks for a range",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rangeID := args[0]
			o := buildOrchestrator(cfg, "status")

			meta, err := o.Metadata.Get(rangeID)
			if err != nil {
				return usageError(fmt.Errorf("unknown range %q", rangeID))
			}

			fmt.Printf("range:  %s\n", meta.RangeID)
			fmt.Printf("status: %s\n", meta.Status)
			fmt.Printf("owner:  %s\n", meta.Owner)
			fmt.Println()

			for _, g := range meta.ClonedGuests {
				ip, _, conf, err := o.Resolver.Resolve(g.Name, "")
				if err != nil {
					ip = "(unresolved)"
				}
				entry := ""
				if g.EntryPoint {
					entry = " (entry point)"
				}
				confStr := ""
				if err == nil {
					confStr = fmt.Sprintf(" confidence=%.2f", conf)
				}
				fmt.Printf("  %-24s host=%-10s ip=%-15s%s%s\n", g.Name, g.HostID, ip, confStr, entry)
			}

			if len(meta.TaskResults) > 0 {
				fmt.Println()
				fmt.Println("tasks:")
				for _, r := range meta.TaskResults {
					state := "ok"
					if !r.Success {
						state = "FAILED"
					}
					fmt.Printf("  %-24s %-20s %-8s %s\n", r.VMName, r.TaskType, state, r.Message)
					if verbose {
						if r.Output != "" {
							fmt.Printf("      output: %s\n", r.Output)
						}
						if r.Error != "" {
							fmt.Printf("      error:  %s\n", r.Error)
						}
						if r.Evidence != "" {
							fmt.Printf("      evidence: %s\n", r.Evidence)
						}
					}
				}
			}

			if verbose && meta.LogsPath != "" {
				fmt.Println()
				if data, err := os.ReadFile(filepath.Join(meta.LogsPath, "creation.log")); err == nil {
					os.Stdout.Write(data)
				}
			}

			return nil
		},
	}

	return cmd
}
