// Package gps reads position fixes for the track logger.
package gps

import "time"

// Provider is the interface for GPS data sources.
type Provider interface {
	Name() string
	Connect() error
	Close() error
	// Read returns the latest fix. May block briefly.
	Read() (*Data, error)
}

// Data holds a single GPS fix.
type Data struct {
	Valid      bool
	Latitude   float64   // Decimal degrees
	Longitude  float64   // Decimal degrees
	Speed      float64   // km/h
	Heading    float64   // Degrees true
	Altitude   float64   // Meters
	Satellites int
	FixQuality int       // 0=none, 1=GPS, 2=DGPS
	HDOP       float64
	Time       time.Time // UTC from the receiver; zero until RMC carries a date
}
