package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/shaunagostinho/gps-tracker/internal/config"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the config file and report every problem",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		return reportCheck(cmd.OutOrStdout(), cfg, err)
	},
}

// reportCheck prints the outcome of a load. Validation problems are listed
// one per line; the returned error makes the process exit non-zero.
func reportCheck(w io.Writer, cfg *config.Configuration, err error) error {
	var verr *config.ValidationError
	switch {
	case errors.As(err, &verr):
		for _, fe := range verr.Errs {
			fmt.Fprintf(w, "%-14s %s\n", fe.Kind, fe.Error())
		}
		return fmt.Errorf("%d problem(s) in %s", len(verr.Errs), flagConfig)
	case err != nil:
		return err
	}

	srv := cfg.Server()
	fmt.Fprintf(w, "ok: ap=%q known_networks=%d apn=%q server=%s\n",
		cfg.AccessPoint().SSID, len(cfg.KnownNetworks()), cfg.Cellular().APN, srv.Endpoint())
	return nil
}
