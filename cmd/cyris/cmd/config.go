package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cyris-project/cyris/internal/appconfig"
)

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config-show",
		Short: "Print the resolved configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("cyris_path:                     %s\n", cfg.CyRISPath)
			fmt.Printf("cyber_range_dir:                %s\n", cfg.CyberRangeDir)
			fmt.Printf("gw_mode:                        %v\n", cfg.GWMode)
			fmt.Printf("gw_account:                     %s\n", cfg.GWAccount)
			fmt.Printf("gw_mgmt_addr:                   %s\n", cfg.GWMgmtAddr)
			fmt.Printf("gw_inside_addr:                 %s\n", cfg.GWInsideAddr)
			fmt.Printf("user_email:                     %s\n", cfg.UserEmail)
			fmt.Printf("ssh_timeout:                    %s\n", cfg.SSHTimeout)
			fmt.Printf("ssh_retry_count:                %d\n", cfg.SSHRetryCount)
			fmt.Printf("ssh_retry_delay:                %s\n", cfg.SSHRetryDelay)
			fmt.Printf("ip_discovery_timeout:           %s\n", cfg.IPDiscoveryTimeout)
			fmt.Printf("ip_cache_ttl:                   %s\n", cfg.IPCacheTTL)
			fmt.Printf("libvirt_uri:                    %s\n", cfg.LibvirtURI)
			fmt.Printf("parallel_ssh_concurrency:       %d\n", cfg.ParallelSSHConcurrency)
			fmt.Printf("image_distribution_concurrency: %d\n", cfg.ImageDistributionConcurrency)
			return nil
		},
	}
}

func newConfigInitCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "config-init",
		Short: "Seed a default config.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := appconfig.WriteDefault(out); err != nil {
				return fullFailure(err)
			}
			fmt.Println("wrote", out)
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "config.yml", "path to write the seeded configuration")

	return cmd
}
