package main

import (
	"context"
	"log"
	"time"

	"github.com/shaunagostinho/gps-tracker/internal/gps"
	"github.com/shaunagostinho/gps-tracker/internal/track"

	"github.com/spf13/cobra"
)

var (
	flagGPSPort string
	flagGPSBaud int
	flagDemo    bool
	flagLogDir  string
)

var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Log significant GPS movement to CSV until interrupted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// An invalid config must stop us before anything is opened
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		var prov gps.Provider
		if flagDemo {
			prov = gps.NewDemoGPS()
		} else {
			prov = gps.NewNMEA(gps.NMEAConfig{
				PortPath: flagGPSPort,
				BaudRate: flagGPSBaud,
			})
		}
		defer prov.Close()

		// Non-blocking: the tracker logs "no valid fix" until the port opens
		go connectWithRetry(ctx, "GPS", prov, 10)

		rec := track.NewRecorder(track.RecorderConfig{Dir: flagLogDir})
		gf := cfg.GPSFilter()
		log.Printf("[main] logging every %.1fm or %v to %s", gf.SignificantDistanceMeters, gf.LogMaxInterval(), flagLogDir)
		return track.NewTracker(cfg, prov, rec).Run(ctx)
	},
}

func init() {
	trackCmd.Flags().StringVar(&flagGPSPort, "gps-port", "/dev/ttyGPS", "Serial port of the NMEA GPS receiver")
	trackCmd.Flags().IntVar(&flagGPSBaud, "gps-baud", 9600, "GPS baud rate")
	trackCmd.Flags().BoolVar(&flagDemo, "demo", false, "Use simulated GPS data")
	trackCmd.Flags().StringVar(&flagLogDir, "log-dir", "/var/log/gpstracker", "Directory for track CSV files")
}

// connectable is satisfied by gps.Provider.
type connectable interface {
	Connect() error
	Close() error
}

// Backoff bounds for connectWithRetry.
var (
	retryBaseDelay = 1 * time.Second
	retryMaxDelay  = 60 * time.Second
)

// connectWithRetry attempts to connect with exponential backoff, doubling
// from retryBaseDelay up to retryMaxDelay. After maxAttempts it keeps
// retrying at the max delay until ctx is done, and reports whether a
// connection was made.
func connectWithRetry(ctx context.Context, name string, c connectable, maxAttempts int) bool {
	delay := retryBaseDelay
	attempt := 0

	for {
		select {
		case <-ctx.Done():
			return false
		default:
		}

		err := c.Connect()
		if err == nil {
			log.Printf("[%s] connected successfully (attempt %d)", name, attempt+1)
			return true
		}

		attempt++
		if attempt <= maxAttempts {
			log.Printf("[%s] connect attempt %d/%d failed: %v (retry in %v)",
				name, attempt, maxAttempts, err, delay)
		} else {
			log.Printf("[%s] connect attempt %d failed: %v (retry in %v)",
				name, attempt, err, delay)
		}

		select {
		case <-ctx.Done():
			return false
		case <-time.After(delay):
		}

		delay *= 2
		if delay > retryMaxDelay {
			delay = retryMaxDelay
		}
	}
}
