package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	logLevel   string
	dbPath     string
	dbMode     string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "rentdesk",
		Short:         "Terminal client for the rent management server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), opts)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/rentdesk/config.yml)")
	flags.StringVar(&opts.logLevel, "log-level", "", "Override logging.level (debug, info, warn, error)")
	flags.StringVar(&opts.dbPath, "db-path", "", "Local cache path (default under the user config dir)")
	flags.StringVar(&opts.dbMode, "db-mode", "", "Local cache mode: plain or secure")

	cmd.AddCommand(
		newTUICmd(opts),
		newLoginCmd(opts),
		newLogoutCmd(opts),
		newStatusCmd(opts),
		newPayCmd(opts),
		newExpectedCmd(opts),
		newFormsCmd(opts),
		newSubmitCmd(opts),
		newMatrixCmd(opts),
		newSyncCmd(opts),
		newDBCmd(opts),
	)
	return cmd
}
