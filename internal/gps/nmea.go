package gps

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"
)

// NMEAProvider reads standard NMEA 0183 sentences from a UART GPS such as
// the u-blox NEO-6M commonly paired with the tracker board.
type NMEAProvider struct {
	portPath string
	baudRate int
	port     serial.Port
	dec      *decoder
	mu       sync.Mutex
}

// NMEAConfig holds configuration for the NMEA GPS provider.
type NMEAConfig struct {
	PortPath string
	BaudRate int
}

// NewNMEA creates a new NMEA GPS provider.
func NewNMEA(cfg NMEAConfig) *NMEAProvider {
	if cfg.BaudRate == 0 {
		cfg.BaudRate = 9600 // Standard NMEA default
	}
	return &NMEAProvider{
		portPath: cfg.PortPath,
		baudRate: cfg.BaudRate,
	}
}

func (n *NMEAProvider) Name() string { return "NMEA GPS" }

func (n *NMEAProvider) Connect() error {
	mode := &serial.Mode{
		BaudRate: n.baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(n.portPath, mode)
	if err != nil {
		return fmt.Errorf("gps: failed to open %s: %w", n.portPath, err)
	}
	if err := port.SetReadTimeout(200 * time.Millisecond); err != nil {
		port.Close()
		return fmt.Errorf("gps: set read timeout on %s: %w", n.portPath, err)
	}

	n.mu.Lock()
	n.port = port
	n.dec = newDecoder(port)
	n.mu.Unlock()

	log.Printf("[gps] connected to %s at %d baud", n.portPath, n.baudRate)
	return nil
}

func (n *NMEAProvider) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.port != nil {
		err := n.port.Close()
		n.port = nil
		n.dec = nil
		return err
	}
	return nil
}

// Read returns a copy of the latest fix after consuming whatever sentences
// are waiting on the port.
func (n *NMEAProvider) Read() (*Data, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.dec == nil {
		return nil, fmt.Errorf("gps: not connected")
	}
	fix := n.dec.next()
	return &fix, nil
}

// decoder accumulates RMC and GGA sentences into a fix.
type decoder struct {
	r       io.Reader
	scanner *bufio.Scanner
	last    Data
}

func newDecoder(r io.Reader) *decoder {
	return &decoder{r: r, scanner: bufio.NewScanner(r)}
}

// next reads up to 20 lines looking for one RMC and one GGA, then returns
// the merged fix.
func (d *decoder) next() Data {
	gotRMC := false
	gotGGA := false
	for i := 0; i < 20 && !(gotRMC && gotGGA); i++ {
		if !d.scanner.Scan() {
			// A read timeout with no data stops the scanner for good;
			// start a fresh one for the next call.
			d.scanner = bufio.NewScanner(d.r)
			break
		}
		switch d.feed(d.scanner.Text()) {
		case "RMC":
			gotRMC = true
		case "GGA":
			gotGGA = true
		}
	}
	return d.last
}

// feed applies one sentence and reports which type it was, or "" when the
// line was ignored.
func (d *decoder) feed(line string) string {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "$") || !validateNMEAChecksum(line) {
		return ""
	}
	parts := splitNMEA(line)
	if len(parts[0]) != 5 {
		return ""
	}
	// Talker ID (GP, GN, GL...) is ignored
	switch kind := parts[0][2:]; kind {
	case "RMC":
		d.parseRMC(parts)
		return kind
	case "GGA":
		d.parseGGA(parts)
		return kind
	}
	return ""
}

func (d *decoder) parseRMC(parts []string) {
	// RMC,hhmmss.ss,A,llll.ll,a,yyyyy.yy,a,x.x,x.x,ddmmyy,x.x,a
	if len(parts) < 10 {
		return
	}

	if ts, err := time.Parse("020106 150405", parts[9]+" "+parts[1]); err == nil {
		d.last.Time = ts
	}
	d.last.Valid = parts[2] == "A"

	if d.last.Valid {
		d.last.Latitude = parseNMEACoord(parts[3], parts[4])
		d.last.Longitude = parseNMEACoord(parts[5], parts[6])

		if spd, err := strconv.ParseFloat(parts[7], 64); err == nil {
			d.last.Speed = spd * 1.852 // Knots to km/h
		}
		if hdg, err := strconv.ParseFloat(parts[8], 64); err == nil {
			d.last.Heading = hdg
		}
	}
}

func (d *decoder) parseGGA(parts []string) {
	// GGA,hhmmss.ss,llll.ll,a,yyyyy.yy,a,x,xx,x.x,x.x,M,x.x,M,x.x,xxxx
	if len(parts) < 11 {
		return
	}

	if fix, err := strconv.Atoi(parts[6]); err == nil {
		d.last.FixQuality = fix
	}
	if sats, err := strconv.Atoi(parts[7]); err == nil {
		d.last.Satellites = sats
	}
	if hdop, err := strconv.ParseFloat(parts[8], 64); err == nil {
		d.last.HDOP = hdop
	}
	if alt, err := strconv.ParseFloat(parts[9], 64); err == nil {
		d.last.Altitude = alt
	}
}

// splitNMEA splits a sentence and strips the leading $ and checksum suffix.
func splitNMEA(line string) []string {
	if idx := strings.Index(line, "*"); idx >= 0 {
		line = line[:idx]
	}
	line = strings.TrimPrefix(line, "$")
	return strings.Split(line, ",")
}

// parseNMEACoord converts NMEA ddmm.mmmm format to decimal degrees.
func parseNMEACoord(raw, dir string) float64 {
	if raw == "" || dir == "" {
		return 0
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	deg := math.Floor(val / 100)
	min := val - deg*100
	result := deg + min/60

	if dir == "S" || dir == "W" {
		result = -result
	}
	return result
}

// validateNMEAChecksum checks the XOR checksum after *.
func validateNMEAChecksum(line string) bool {
	idx := strings.Index(line, "*")
	if idx < 1 || idx+3 > len(line) {
		return false
	}
	var calc byte
	for i := 1; i < idx; i++ {
		calc ^= line[i]
	}
	expected, err := strconv.ParseUint(line[idx+1:idx+3], 16, 8)
	if err != nil {
		return false
	}
	return byte(expected) == calc
}
