package main

import (
	"github.com/shaunagostinho/gps-tracker/internal/config"
	"github.com/shaunagostinho/gps-tracker/internal/logx"

	"github.com/spf13/cobra"
)

var (
	flagConfig  string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:           "gpstracker",
	Short:         "Validate and use GPS tracker configuration",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(func() {
		logx.EnableDebug(flagVerbose)
	})

	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "/etc/gpstracker/config.yaml", "Path to config file")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable verbose debug logging")

	rootCmd.AddCommand(checkCmd, showCmd, templateCmd, trackCmd, versionCmd)
}

// loadConfig is shared by every command that needs a validated config.
func loadConfig() (*config.Configuration, error) {
	logx.Debugf("[main] loading config from %s", flagConfig)
	return config.LoadFile(flagConfig)
}
