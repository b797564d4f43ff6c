// Package cmd implements the cyris command tree: create/list/status/
// destroy/rm/validate/config-show/config-init/ssh-info (§6 CLI surface).
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cyris-project/cyris/internal/appconfig"
	"github.com/cyris-project/cyris/internal/cyrislog"
)

// Exit codes (§6): 0 success, 1 validation/usage error, 2 partial failure
// (range ACTIVE but with failed tasks), 3 full failure/ERROR.
const (
	ExitSuccess        = 0
	ExitUsageError     = 1
	ExitPartialFailure = 2
	ExitFullFailure    = 3
)

var (
	configFile string
	legacyINI  bool
	verbose    bool

	cfg *appconfig.Config
)

var rootCmd = &cobra.Command{
	Use:   "cyris",
	Short: "Cyber range instantiation system",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := appconfig.Load(configFile, legacyINI)
		if err != nil {
			return err
		}
		cfg = c

		level := cyrislog.INFO
		if verbose {
			level = cyrislog.DEBUG
		}
		cyrislog.AddLogger("console", os.Stderr, level, true, nil)

		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
	SilenceUsage: true,
}

// Execute runs the command tree, translating a returned error's cause
// into the matching exit code.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "cyris:", err)
		os.Exit(exitCodeFor(err))
	}
}

func exitCodeFor(err error) int {
	if ce, ok := err.(*cliError); ok {
		return ce.code
	}
	return ExitFullFailure
}

// cliError lets a subcommand name its own exit code without every caller
// needing to know the §6 exit code table.
type cliError struct {
	code int
	err  error
}

func (e *cliError) Error() string { return e.err.Error() }
func (e *cliError) Unwrap() error { return e.err }

func usageError(err error) error { return &cliError{code: ExitUsageError, err: err} }
func partialFailure(err error) error { return &cliError{code: ExitPartialFailure, err: err} }
func fullFailure(err error) error { return &cliError{code: ExitFullFailure, err: err} }

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to config.yml (or legacy INI with --legacy-config)")
	rootCmd.PersistentFlags().BoolVar(&legacyINI, "legacy-config", false, "treat --config as a legacy INI file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))

	rootCmd.AddCommand(newCreateCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newDestroyCmd())
	rootCmd.AddCommand(newRemoveCmd())
	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newConfigShowCmd())
	rootCmd.AddCommand(newConfigInitCmd())
	rootCmd.AddCommand(newSSHInfoCmd())
}
