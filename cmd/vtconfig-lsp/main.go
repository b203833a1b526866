package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	"github.com/jsvensson/valuetrainer/internal/lsp"
)

var (
	flagVerbose int
	flagLogFile string
	version     = "dev"
)

var rootCmd = &cobra.Command{
	Use:           "vtconfig-lsp",
	Short:         "Language server for valuetrainer config files",
	Version:       version,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		// stdout carries the protocol.
		var path *string
		if flagLogFile != "" {
			path = &flagLogFile
		}
		commonlog.Configure(flagVerbose, path)
		return lsp.NewServer(version).Run()
	},
}

func init() {
	rootCmd.Flags().IntVarP(&flagVerbose, "verbose", "v", 1, "log verbosity")
	rootCmd.Flags().StringVar(&flagLogFile, "log-file", "", "write logs to this file instead of stderr")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
