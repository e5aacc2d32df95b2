package gps

import (
	"math"
	"math/rand"
	"sync"
	"time"
)

// DemoGPS simulates a vehicle that alternates between driving a loop and
// parking, so both the distance and the max-interval paths of the track
// filter get exercised without hardware.
type DemoGPS struct {
	mu sync.Mutex
	t  float64
}

func NewDemoGPS() *DemoGPS { return &DemoGPS{} }

func (d *DemoGPS) Name() string   { return "Demo GPS (Simulated)" }
func (d *DemoGPS) Connect() error { return nil }
func (d *DemoGPS) Close() error   { return nil }

func (d *DemoGPS) Read() (*Data, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	// Parked for the second half of every 120 s cycle
	d.t += 0.1
	parked := math.Mod(d.t, 120) >= 60

	const (
		centerLat = 52.5200 // Berlin
		centerLon = 13.4050
		radius    = 0.004 // ~450m
	)
	phase := math.Min(math.Mod(d.t, 120), 60) * 0.05

	speed := 0.0
	if !parked {
		speed = 35 + rand.Float64()*10
	}

	return &Data{
		Valid:      true,
		Latitude:   centerLat + radius*math.Sin(phase),
		Longitude:  centerLon + radius*math.Cos(phase),
		Speed:      speed,
		Heading:    math.Mod(phase*180/math.Pi+90, 360),
		Altitude:   34,
		Satellites: 9,
		FixQuality: 1,
		HDOP:       1.1,
		Time:       time.Now().UTC(),
	}, nil
}
