// Package cmd implements the calltrace command line.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/hejijunhao/calltrace/internal/config"
	"github.com/hejijunhao/calltrace/internal/logging"
)

// v holds configuration from CALLTRACE_* env vars; flags bound to it win.
var v = config.New()

var rootCmd = &cobra.Command{
	Use:   "calltrace",
	Short: "Method call tracing for Go method tables",
	Long: `calltrace logs a line when an instrumented function starts and another
when it finishes or fails, with a call id correlating the two.

Examples:
  # run the demo workload, call lines on stdout
  calltrace demo --calls 20

  # serve /metrics while the demo runs
  calltrace demo --calls 10000 --workers 8 --metrics-addr :9100`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg := config.FromViper(v)
		logging.Init(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("log-level", "info", "diagnostic log level (debug, info, warn, error)")
	flags.String("log-format", "text", "diagnostic log format (text, json)")

	v.BindPFlag("log_level", flags.Lookup("log-level"))
	v.BindPFlag("log_format", flags.Lookup("log-format"))
}
