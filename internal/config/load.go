package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shaunagostinho/gps-tracker/internal/logx"
	"gopkg.in/yaml.v3"
)

// Defaults for optional fields, taken from the stock firmware template.
const (
	DefaultHTTPPort                  = 80
	DefaultHTTPSPort                 = 443
	DefaultDataSendIntervalMs        = 30000
	DefaultGPRSCheckIntervalMs       = 60000
	DefaultSignificantDistanceMeters = 10.0
	DefaultLogMaxIntervalMs          = 30000
)

const (
	maxSSIDLen        = 32 // 802.11 SSID octets
	minPassphraseLen  = 8  // WPA2-PSK passphrase bounds
	maxPassphraseLen  = 63
	maxPort           = 65535
	maxIntervalMillis = math.MaxUint32 // firmware millis() is a 32-bit unsigned long
)

// document is the on-disk shape. Numeric fields are kept as raw scalars
// so that an absent key (default applies) can be told apart from an
// explicit zero, and so that unparseable or oversized numbers become
// InvalidRange violations instead of aborting the decode.
type document struct {
	APSSID        string         `yaml:"ap_ssid"`
	APPassword    string         `yaml:"ap_password"`
	KnownNetworks []KnownNetwork `yaml:"known_networks"`

	GPRSAPN      string `yaml:"gprs_apn"`
	GPRSUser     string `yaml:"gprs_user"`
	GPRSPassword string `yaml:"gprs_password"`

	ServerURL  string     `yaml:"server_url"`
	ServerPort *rawNumber `yaml:"server_port,omitempty"`

	DataSendIntervalMs  *rawNumber `yaml:"data_send_interval_ms,omitempty"`
	GPRSCheckIntervalMs *rawNumber `yaml:"gprs_check_interval_ms,omitempty"`

	SignificantDistanceMeters *rawNumber `yaml:"significant_distance_meters,omitempty"`
	LogMaxIntervalMs          *rawNumber `yaml:"log_max_interval_ms,omitempty"`
}

// rawNumber is the unparsed text of a numeric scalar.
type rawNumber string

func (r *rawNumber) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a number", value.Line)
	}
	*r = rawNumber(value.Value)
	return nil
}

func (r rawNumber) MarshalYAML() (any, error) {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: string(r)}, nil
}

func intNumber(n int64) *rawNumber {
	r := rawNumber(strconv.FormatInt(n, 10))
	return &r
}

func floatNumber(f float64) *rawNumber {
	r := rawNumber(strconv.FormatFloat(f, 'g', -1, 64))
	return &r
}

// Load reads the YAML input format from r and validates it.
func Load(r io.Reader) (*Configuration, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("config: read: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates data. On failure the error is either a
// syntax error from the decoder or a *ValidationError listing every
// violation.
func Parse(data []byte) (*Configuration, error) {
	doc, err := decode(data)
	if err != nil {
		return nil, err
	}
	return doc.build(&collector{})
}

// LoadFile reads path, then applies .env files and environment variable
// overrides on top. A missing file is not an error by itself: the
// configuration may come entirely from the environment, and validation
// reports whatever required fields are still absent.
func LoadFile(path string) (*Configuration, error) {
	doc := &document{}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		log.Printf("[config] no config at %s, using environment only", path)
	case err != nil:
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	default:
		if doc, err = decode(data); err != nil {
			return nil, fmt.Errorf("%w (in %s)", err, path)
		}
		log.Printf("[config] loaded from %s", path)
	}

	// .env next to the config first, then CWD; neither overrides real env
	for _, ep := range []string{filepath.Join(filepath.Dir(path), ".env"), ".env"} {
		loadEnvFile(ep)
	}

	doc.applyEnvOverrides()
	return doc.build(&collector{})
}

func decode(data []byte) (*document, error) {
	doc := &document{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	return doc, nil
}

// loadEnvFile reads a simple KEY=VALUE .env file and sets os env vars.
func loadEnvFile(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	log.Printf("[config] loading .env from %s", path)
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		val = strings.Trim(strings.TrimSpace(val), `"'`)
		// Real env takes precedence
		if os.Getenv(key) == "" {
			os.Setenv(key, val)
		}
	}
}

// applyEnvOverrides replaces document values with environment variables.
// Supported: AP_SSID, AP_PASSWORD, GPRS_APN, GPRS_USER, GPRS_PASSWORD,
// SERVER_URL, SERVER_PORT, DATA_SEND_INTERVAL_MS, GPRS_CHECK_INTERVAL_MS,
// SIGNIFICANT_DISTANCE_METERS, LOG_MAX_INTERVAL_MS. Numeric values are
// checked by build like the file's own.
func (d *document) applyEnvOverrides() {
	strs := []struct {
		env string
		dst *string
	}{
		{"AP_SSID", &d.APSSID},
		{"AP_PASSWORD", &d.APPassword},
		{"GPRS_APN", &d.GPRSAPN},
		{"GPRS_USER", &d.GPRSUser},
		{"GPRS_PASSWORD", &d.GPRSPassword},
		{"SERVER_URL", &d.ServerURL},
	}
	for _, s := range strs {
		if v := os.Getenv(s.env); v != "" {
			logx.Debugf("[config] %s overridden from environment", s.env)
			*s.dst = v
		}
	}

	nums := []struct {
		env string
		dst **rawNumber
	}{
		{"SERVER_PORT", &d.ServerPort},
		{"DATA_SEND_INTERVAL_MS", &d.DataSendIntervalMs},
		{"GPRS_CHECK_INTERVAL_MS", &d.GPRSCheckIntervalMs},
		{"SIGNIFICANT_DISTANCE_METERS", &d.SignificantDistanceMeters},
		{"LOG_MAX_INTERVAL_MS", &d.LogMaxIntervalMs},
	}
	for _, s := range nums {
		if v := os.Getenv(s.env); v != "" {
			logx.Debugf("[config] %s overridden from environment", s.env)
			r := rawNumber(v)
			*s.dst = &r
		}
	}
}

// build checks every invariant, collecting all violations into c, and
// returns the Configuration only when there are none.
func (d *document) build(c *collector) (*Configuration, error) {
	cfg := &Configuration{}

	checkSSID(c, "ap_ssid", d.APSSID)
	checkPassphrase(c, "ap_password", d.APPassword)
	cfg.accessPoint = AccessPointConfig{SSID: d.APSSID, Password: d.APPassword}

	cfg.knownNetworks = make([]KnownNetwork, 0, len(d.KnownNetworks))
	for i, kn := range d.KnownNetworks {
		checkSSID(c, fmt.Sprintf("known_networks[%d].ssid", i), kn.SSID)
		cfg.knownNetworks = append(cfg.knownNetworks, kn)
	}

	if d.GPRSAPN == "" {
		c.add("gprs_apn", MissingField, "required")
	}
	cfg.cellular = CellularConfig{APN: d.GPRSAPN, User: d.GPRSUser, Password: d.GPRSPassword}

	cfg.server = ServerConfig{URL: d.ServerURL, Port: checkServer(c, d.ServerURL, d.ServerPort)}

	cfg.timing = TimingConfig{
		DataSendIntervalMs:  checkInterval(c, "data_send_interval_ms", d.DataSendIntervalMs, DefaultDataSendIntervalMs),
		GPRSCheckIntervalMs: checkInterval(c, "gprs_check_interval_ms", d.GPRSCheckIntervalMs, DefaultGPRSCheckIntervalMs),
	}

	distance := DefaultSignificantDistanceMeters
	if raw := d.SignificantDistanceMeters; raw != nil {
		f, err := strconv.ParseFloat(string(*raw), 64)
		switch {
		case err != nil:
			c.add("significant_distance_meters", InvalidRange, "must be a finite number >= 0, got %q", string(*raw))
		case math.IsNaN(f) || math.IsInf(f, 0) || f < 0:
			c.add("significant_distance_meters", InvalidRange, "must be a finite number >= 0, got %v", f)
		default:
			distance = f
		}
	}
	cfg.gpsFilter = GPSFilterConfig{
		SignificantDistanceMeters: distance,
		LogMaxIntervalMs:          checkInterval(c, "log_max_interval_ms", d.LogMaxIntervalMs, DefaultLogMaxIntervalMs),
	}

	if err := c.err(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func checkSSID(c *collector, field, ssid string) {
	switch {
	case ssid == "":
		c.add(field, MissingField, "required")
	case len(ssid) > maxSSIDLen:
		c.add(field, InvalidRange, "must be at most %d bytes, got %d", maxSSIDLen, len(ssid))
	}
}

// checkPassphrase enforces the WPA2-PSK rule: empty for an open network,
// otherwise 8-63 printable ASCII characters.
func checkPassphrase(c *collector, field, pass string) {
	if pass == "" {
		return
	}
	for _, r := range pass {
		if r < 0x20 || r > 0x7e {
			c.add(field, InvalidRange, "must be printable ASCII, got %q", r)
			return
		}
	}
	if n := len(pass); n < minPassphraseLen || n > maxPassphraseLen {
		c.add(field, InvalidRange, "must be empty (open network) or %d-%d characters, got %d",
			minPassphraseLen, maxPassphraseLen, n)
	}
}

// parseInt reads an optional integer key. ok is false when the key is
// present but unusable; the violation has then been recorded.
func parseInt(c *collector, field string, raw *rawNumber) (n int64, present, ok bool) {
	if raw == nil {
		return 0, false, true
	}
	n, err := strconv.ParseInt(string(*raw), 10, 64)
	switch {
	case errors.Is(err, strconv.ErrRange):
		c.add(field, InvalidRange, "%s is out of range", string(*raw))
		return 0, true, false
	case err != nil:
		c.add(field, InvalidRange, "must be an integer, got %q", string(*raw))
		return 0, true, false
	}
	return n, true, true
}

// checkServer validates the URL and resolves the effective port: the
// explicit server_port, else the port in the URL, else the scheme default.
func checkServer(c *collector, raw string, port *rawNumber) int {
	urlPort := 0
	hasURLPort := false
	scheme := ""
	switch {
	case raw == "":
		c.add("server_url", MissingField, "required")
	default:
		u, err := url.Parse(raw)
		switch {
		case err != nil:
			c.add("server_url", MalformedURL, "%v", err)
		case u.Scheme != "http" && u.Scheme != "https":
			if u.Scheme == "" {
				c.add("server_url", MalformedURL, "%q has no scheme", raw)
			} else {
				c.add("server_url", MalformedURL, "unsupported scheme %q (want http or https)", u.Scheme)
			}
		case u.Hostname() == "":
			c.add("server_url", MalformedURL, "%q has no host", raw)
		default:
			scheme = u.Scheme
			if s := u.Port(); s != "" {
				p, err := strconv.Atoi(s)
				if err != nil || p < 1 || p > maxPort {
					c.add("server_url", MalformedURL, "port %s out of range 1-%d", s, maxPort)
				} else {
					urlPort, hasURLPort = p, true
				}
			}
		}
	}

	p, present, ok := parseInt(c, "server_port", port)
	switch {
	case !ok:
		return 0
	case present:
		if p < 1 || p > maxPort {
			c.add("server_port", InvalidRange, "must be 1-%d, got %d", maxPort, p)
			return 0
		}
		if hasURLPort && int64(urlPort) != p {
			c.add("server_port", InvalidRange, "%d conflicts with port %d in server_url", p, urlPort)
		}
		return int(p)
	case hasURLPort:
		return urlPort
	case scheme == "https":
		return DefaultHTTPSPort
	}
	return DefaultHTTPPort
}

func checkInterval(c *collector, field string, raw *rawNumber, def uint32) uint32 {
	v, present, ok := parseInt(c, field, raw)
	switch {
	case !ok:
		return 0
	case !present:
		return def
	case v <= 0 || v > maxIntervalMillis:
		c.add(field, InvalidRange, "must be 1-%d ms, got %d", uint32(maxIntervalMillis), v)
		return 0
	}
	return uint32(v)
}
