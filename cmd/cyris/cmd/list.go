package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/cyris-project/cyris/internal/progress"
	"github.com/cyris-project/cyris/internal/store"
)

func newListCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Enumerate ranges with status and IPs",
		RunE: func(cmd *cobra.Command, args []string) error {
			o := buildOrchestrator(cfg, "list")

			ranges, err := o.Metadata.List()
			if err != nil {
				return fullFailure(err)
			}

			var rows []progress.RangeRow
			for _, m := range ranges {
				if !all && m.Status == store.StatusRemoved {
					continue
				}
				rows = append(rows, progress.RangeRow{
					RangeID: m.RangeID,
					Status:  string(m.Status),
					Guests:  len(m.ClonedGuests),
					Owner:   m.Owner,
				})
			}

			progress.PrintRangeTable(os.Stdout, rows)
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "include removed ranges")

	return cmd
}
