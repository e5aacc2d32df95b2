package main

import (
	"github.com/spf13/cobra"
)

var flagSecrets bool

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the normalized configuration, defaults filled in",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if !flagSecrets {
			cfg = cfg.Redacted()
		}
		data, err := cfg.Marshal()
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	showCmd.Flags().BoolVar(&flagSecrets, "secrets", false, "Print passwords instead of masking them")
}
