// Package track decides which GPS fixes are worth keeping and records them.
package track

import (
	"math"
	"sync"
	"time"

	"github.com/shaunagostinho/gps-tracker/internal/config"
	"github.com/shaunagostinho/gps-tracker/internal/gps"
)

// Reason says why a fix was kept or dropped.
type Reason string

const (
	ReasonFirst    Reason = "first"    // first valid fix since start
	ReasonDistance Reason = "distance" // moved at least the significant distance
	ReasonInterval Reason = "interval" // max log interval elapsed
	ReasonNoFix    Reason = "nofix"
	ReasonGlitch   Reason = "glitch" // implausible jump
	ReasonIdle     Reason = "idle"
)

// Jumps faster than this between two fixes are receiver glitches.
const maxPlausibleSpeedMps = 100.0 // 360 km/h

// Decision is the filter's verdict on one fix.
type Decision struct {
	Log      bool
	Reason   Reason
	Distance float64 // meters from the last logged fix
}

// Filter keeps a fix when it is the first one, when the device moved at
// least the significant distance since the last kept fix, or when the max
// log interval has passed.
type Filter struct {
	minDistance float64
	maxInterval time.Duration

	mu      sync.Mutex
	hasLast bool
	lastLat float64
	lastLon float64
	lastAt  time.Time
}

func NewFilter(cfg config.GPSFilterConfig) *Filter {
	return &Filter{
		minDistance: cfg.SignificantDistanceMeters,
		maxInterval: cfg.LogMaxInterval(),
	}
}

// Offer evaluates fix as observed at now. A kept fix becomes the new
// reference point.
func (f *Filter) Offer(fix gps.Data, now time.Time) Decision {
	if !fix.Valid {
		return Decision{Reason: ReasonNoFix}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.hasLast {
		f.keep(fix, now)
		return Decision{Log: true, Reason: ReasonFirst}
	}

	dist := haversineMeters(f.lastLat, f.lastLon, fix.Latitude, fix.Longitude)
	elapsed := now.Sub(f.lastAt)

	// A jump moves the reference position but not lastAt: the max
	// interval still counts from the last logged fix.
	if elapsed > 0 && dist/elapsed.Seconds() > maxPlausibleSpeedMps {
		f.lastLat = fix.Latitude
		f.lastLon = fix.Longitude
		return Decision{Reason: ReasonGlitch, Distance: dist}
	}

	switch {
	case dist >= f.minDistance:
		f.keep(fix, now)
		return Decision{Log: true, Reason: ReasonDistance, Distance: dist}
	case elapsed >= f.maxInterval:
		f.keep(fix, now)
		return Decision{Log: true, Reason: ReasonInterval, Distance: dist}
	}
	return Decision{Reason: ReasonIdle, Distance: dist}
}

func (f *Filter) keep(fix gps.Data, now time.Time) {
	f.hasLast = true
	f.lastLat = fix.Latitude
	f.lastLon = fix.Longitude
	f.lastAt = now
}

// haversineMeters calculates the great-circle distance between two points.
func haversineMeters(lat1, lon1, lat2, lon2 float64) float64 {
	const R = 6371000.0 // Earth radius m
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return R * c
}
