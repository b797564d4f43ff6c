package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSSHInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ssh-info <range_id>",
		Short: "Print ready-to-use SSH snippets for a range's guests",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rangeID := args[0]
			o := buildOrchestrator(cfg, "ssh-info")

			meta, err := o.Metadata.Get(rangeID)
			if err != nil {
				return usageError(fmt.Errorf("unknown range %q", rangeID))
			}

			for _, g := range meta.ClonedGuests {
				ip, _, _, err := o.Resolver.Resolve(g.Name, "")
				if err != nil {
					fmt.Printf("# %s: IP not resolved (%v)\n", g.Name, err)
					continue
				}
				fmt.Printf("ssh %s@%s   # %s\n", cfg.GWAccount, ip, g.Name)
			}

			return nil
		},
	}

	return cmd
}
