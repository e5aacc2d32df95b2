// Package config holds the tracker's runtime parameters: WiFi access point
// and known networks, GPRS APN, upload server, timing intervals and GPS
// logging thresholds. A Configuration is built once by Load, Parse or
// LoadFile and is read-only afterwards, so it can be shared between
// goroutines without locking.
package config

import (
	"net"
	"net/url"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const redactedSecret = "********"

// AccessPointConfig is the network the device broadcasts itself.
type AccessPointConfig struct {
	SSID     string
	Password string // empty means an open network
}

// KnownNetwork is a network the device may join, tried in list order.
type KnownNetwork struct {
	SSID     string `yaml:"ssid"`
	Password string `yaml:"password"`
}

// CellularConfig holds the carrier's GPRS data session settings.
type CellularConfig struct {
	APN      string
	User     string // usually empty
	Password string // usually empty
}

// ServerConfig is the upload target for GPS data.
type ServerConfig struct {
	URL  string
	Port int
}

// Endpoint returns URL with Port made explicit in the host part.
func (s ServerConfig) Endpoint() string {
	u, err := url.Parse(s.URL)
	if err != nil {
		return s.URL
	}
	if u.Port() == "" {
		u.Host = net.JoinHostPort(u.Hostname(), strconv.Itoa(s.Port))
	}
	return u.String()
}

// TimingConfig holds the upload and connectivity check periods.
type TimingConfig struct {
	DataSendIntervalMs  uint32
	GPRSCheckIntervalMs uint32
}

func (t TimingConfig) DataSendInterval() time.Duration {
	return time.Duration(t.DataSendIntervalMs) * time.Millisecond
}

func (t TimingConfig) GPRSCheckInterval() time.Duration {
	return time.Duration(t.GPRSCheckIntervalMs) * time.Millisecond
}

// GPSFilterConfig decides which fixes are worth logging: a fix is kept when
// the device moved at least SignificantDistanceMeters, or when
// LogMaxIntervalMs has passed since the last kept fix.
type GPSFilterConfig struct {
	SignificantDistanceMeters float64
	LogMaxIntervalMs          uint32
}

func (g GPSFilterConfig) LogMaxInterval() time.Duration {
	return time.Duration(g.LogMaxIntervalMs) * time.Millisecond
}

// Configuration is the validated aggregate. The zero value is not usable;
// obtain one from Load, Parse or LoadFile.
type Configuration struct {
	accessPoint   AccessPointConfig
	knownNetworks []KnownNetwork
	cellular      CellularConfig
	server        ServerConfig
	timing        TimingConfig
	gpsFilter     GPSFilterConfig
}

func (c *Configuration) AccessPoint() AccessPointConfig { return c.accessPoint }
func (c *Configuration) Cellular() CellularConfig       { return c.cellular }
func (c *Configuration) Server() ServerConfig           { return c.server }
func (c *Configuration) Timing() TimingConfig           { return c.timing }
func (c *Configuration) GPSFilter() GPSFilterConfig     { return c.gpsFilter }

// KnownNetworks returns the auto-connect candidates in priority order.
// The slice is a copy; callers may not change the configuration through it.
func (c *Configuration) KnownNetworks() []KnownNetwork {
	out := make([]KnownNetwork, len(c.knownNetworks))
	copy(out, c.knownNetworks)
	return out
}

// Equal reports whether both configurations hold the same values.
func (c *Configuration) Equal(o *Configuration) bool {
	if c == nil || o == nil {
		return c == o
	}
	if c.accessPoint != o.accessPoint ||
		c.cellular != o.cellular ||
		c.server != o.server ||
		c.timing != o.timing ||
		c.gpsFilter != o.gpsFilter ||
		len(c.knownNetworks) != len(o.knownNetworks) {
		return false
	}
	for i := range c.knownNetworks {
		if c.knownNetworks[i] != o.knownNetworks[i] {
			return false
		}
	}
	return true
}

// Redacted returns a copy with every non-empty password masked, for
// printing and logging.
func (c *Configuration) Redacted() *Configuration {
	r := *c
	r.accessPoint.Password = redact(r.accessPoint.Password)
	r.cellular.Password = redact(r.cellular.Password)
	r.knownNetworks = c.KnownNetworks()
	for i := range r.knownNetworks {
		r.knownNetworks[i].Password = redact(r.knownNetworks[i].Password)
	}
	return &r
}

func redact(s string) string {
	if s == "" {
		return ""
	}
	return redactedSecret
}

// Marshal writes the configuration in the input format. Every optional
// field is written explicitly, so Parse(Marshal()) is Equal to c.
func (c *Configuration) Marshal() ([]byte, error) {
	return yaml.Marshal(c.document())
}

func (c *Configuration) document() *document {
	return &document{
		APSSID:                    c.accessPoint.SSID,
		APPassword:                c.accessPoint.Password,
		KnownNetworks:             c.KnownNetworks(),
		GPRSAPN:                   c.cellular.APN,
		GPRSUser:                  c.cellular.User,
		GPRSPassword:              c.cellular.Password,
		ServerURL:                 c.server.URL,
		ServerPort:                intNumber(int64(c.server.Port)),
		DataSendIntervalMs:        intNumber(int64(c.timing.DataSendIntervalMs)),
		GPRSCheckIntervalMs:       intNumber(int64(c.timing.GPRSCheckIntervalMs)),
		SignificantDistanceMeters: floatNumber(c.gpsFilter.SignificantDistanceMeters),
		LogMaxIntervalMs:          intNumber(int64(c.gpsFilter.LogMaxIntervalMs)),
	}
}
