package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDestroyCmd() *cobra.Command {
	var (
		force bool
		rm    bool
	)

	cmd := &cobra.Command{
		Use:   "destroy <range_id>",
		Short: "Tear down a range's VMs, networks, and forwarding rules",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rangeID := args[0]
			o := buildOrchestrator(cfg, "destroy")

			if err := o.Destroy(rangeID); err != nil {
				if !rm || !force {
					return fullFailure(err)
				}
				fmt.Printf("range %s destroyed with errors: %v\n", rangeID, err)
			} else {
				fmt.Printf("range %s destroyed\n", rangeID)
			}

			if rm {
				if err := o.Remove(rangeID, force); err != nil {
					return fullFailure(err)
				}
				fmt.Printf("range %s removed\n", rangeID)
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "force the subsequent remove even if destroy left resources behind")
	cmd.Flags().BoolVar(&rm, "rm", false, "also remove the range's metadata after destroying it")

	return cmd
}
