package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRemoveCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "rm <range_id>",
		Short: "Remove a destroyed range's metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rangeID := args[0]
			o := buildOrchestrator(cfg, "remove")

			if err := o.Remove(rangeID, force); err != nil {
				return fullFailure(err)
			}

			fmt.Printf("range %s removed\n", rangeID)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "destroy the range first if it is not already DESTROYED")

	return cmd
}
