// Command gagyebu-report analyzes a household ledger spreadsheet offline and
// prints the period summary, or follows the events published by the server.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"gagyebu/internal/cli"
)

var (
	logLevel  string
	logFormat string
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "gagyebu-report",
		Short:         "가계부 spreadsheet reports",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cli.SetupLogger(cmd.ErrOrStderr(), logLevel, logFormat)
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug|info|warn|error)")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format (text|json)")

	root.AddCommand(newAnalyzeCmd())
	root.AddCommand(newEventsCmd())
	return root
}

func main() {
	cli.LoadEnvFile()
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		root.PrintErrln("Error:", err)
		os.Exit(1)
	}
}
