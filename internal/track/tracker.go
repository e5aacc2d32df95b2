package track

import (
	"context"
	"log"
	"time"

	"github.com/shaunagostinho/gps-tracker/internal/config"
	"github.com/shaunagostinho/gps-tracker/internal/gps"
	"github.com/shaunagostinho/gps-tracker/internal/logx"
)

const defaultPollInterval = time.Second

// Tracker polls a GPS provider, filters fixes and records the kept ones.
type Tracker struct {
	prov     gps.Provider
	filter   *Filter
	rec      *Recorder
	poll     time.Duration
	statusIv time.Duration
	now      func() time.Time

	seen   int
	valid  int
	lastOK time.Time
}

// NewTracker wires the GPS filter and status period from cfg. The status
// report runs at the connectivity check interval.
func NewTracker(cfg *config.Configuration, prov gps.Provider, rec *Recorder) *Tracker {
	return &Tracker{
		prov:     prov,
		filter:   NewFilter(cfg.GPSFilter()),
		rec:      rec,
		poll:     defaultPollInterval,
		statusIv: cfg.Timing().GPRSCheckInterval(),
		now:      time.Now,
	}
}

// Run loops until ctx is cancelled, then closes the recorder.
func (t *Tracker) Run(ctx context.Context) error {
	pollTicker := time.NewTicker(t.poll)
	statusTicker := time.NewTicker(t.statusIv)
	defer pollTicker.Stop()
	defer statusTicker.Stop()

	log.Printf("[track] running: provider=%s poll=%v status=%v", t.prov.Name(), t.poll, t.statusIv)

	for {
		select {
		case <-ctx.Done():
			log.Printf("[track] stopping: %d fixes seen, %d logged", t.seen, t.rec.Total())
			return t.rec.Close()
		case <-pollTicker.C:
			t.step()
		case <-statusTicker.C:
			t.status()
		}
	}
}

// step handles one poll. Provider and recorder errors are logged and the
// loop carries on: a flaky UART or full disk should not end tracking.
func (t *Tracker) step() {
	fix, err := t.prov.Read()
	if err != nil {
		logx.Debugf("[track] read: %v", err)
		return
	}
	now := t.now()
	t.seen++
	if fix.Valid {
		t.valid++
		t.lastOK = now
	}

	d := t.filter.Offer(*fix, now)
	if logx.Enabled() {
		logx.Debugf("[track] fix lat=%.6f lon=%.6f -> %s (%.1fm)", fix.Latitude, fix.Longitude, d.Reason, d.Distance)
	}
	if !d.Log {
		return
	}
	if err := t.rec.Record(*fix, d, now); err != nil {
		log.Printf("[track] record failed: %v", err)
	}
}

func (t *Tracker) status() {
	if t.lastOK.IsZero() || t.now().Sub(t.lastOK) > t.statusIv {
		log.Printf("[track] no valid fix in the last %v (%d reads)", t.statusIv, t.seen)
		return
	}
	log.Printf("[track] status: %d fixes seen, %d valid, %d logged", t.seen, t.valid, t.rec.Total())
}
