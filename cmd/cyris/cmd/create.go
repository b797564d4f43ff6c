package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cyris-project/cyris/internal/config"
	"github.com/cyris-project/cyris/internal/orchestrator"
	"github.com/cyris-project/cyris/internal/store"
)

func newCreateCmd() *cobra.Command {
	var (
		dryRun      bool
		buildOnly   bool
		skipBuilder bool
		lenient     bool
	)

	cmd := &cobra.Command{
		Use:   "create <description>",
		Short: "Parse, build, provision, and run tasks for a cyber range",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			descPath := args[0]

			desc, err := config.LoadDescription(descPath, lenient)
			if err != nil {
				return usageError(err)
			}

			if dryRun {
				fmt.Println("description is valid:", descPath)
				return nil
			}

			if len(desc.CloneSettings) == 0 {
				return usageError(fmt.Errorf("%s declares no clone_settings", descPath))
			}

			o := buildOrchestrator(cfg, "create")

			meta, err := o.Create(orchestrator.CreateRequest{
				Description:  desc,
				CloneSetting: desc.CloneSettings[0],
				ConfigPath:   descPath,
				BuildOnly:    buildOnly,
				SkipBuilder:  skipBuilder,
			})
			if err != nil {
				return fullFailure(err)
			}

			fmt.Printf("range %s: %s\n", meta.RangeID, meta.Status)

			failedTasks := 0
			for _, r := range meta.TaskResults {
				if !r.Success {
					failedTasks++
				}
			}
			if meta.Status == store.StatusActive && (failedTasks > 0 || o.Ledger.Failures(meta.RangeID) > 0) {
				return partialFailure(fmt.Errorf("range %s is active with failed tasks", meta.RangeID))
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "parse and validate the description without provisioning anything")
	cmd.Flags().BoolVar(&buildOnly, "build-only", false, "build base images and stop, without cloning or starting any VM")
	cmd.Flags().BoolVar(&skipBuilder, "skip-builder", false, "skip base image building; kvm guests clone from their basevm_config_file, kvm-auto guests cannot be cloned")
	cmd.Flags().BoolVar(&lenient, "lenient", false, "tolerate unknown top-level keys in the description")

	return cmd
}
