package gps

import (
	"math"
	"strings"
	"testing"
	"time"
)

const (
	sentenceGGA = "$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47"
	sentenceRMC = "$GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W*6A"
	noFixRMC    = "$GNRMC,081836,V,,,,,,,130998,,*21"
	sentenceGSV = "$GPGSV,2,1,08,01,40,083,46,02,17,308,41,12,07,344,39,14,22,228,45*75"
)

func almostEqual(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func TestDecoderMergesRMCAndGGA(t *testing.T) {
	input := strings.Join([]string{"garbage", sentenceGSV, sentenceRMC, sentenceGGA}, "\r\n")
	fix := newDecoder(strings.NewReader(input)).next()

	if !fix.Valid {
		t.Fatal("expected a valid fix")
	}
	if !almostEqual(fix.Latitude, 48+7.038/60) || !almostEqual(fix.Longitude, 11+31.0/60) {
		t.Errorf("position = %v,%v", fix.Latitude, fix.Longitude)
	}
	if !almostEqual(fix.Speed, 22.4*1.852) || fix.Heading != 84.4 {
		t.Errorf("speed/heading = %v/%v", fix.Speed, fix.Heading)
	}
	if fix.Satellites != 8 || fix.FixQuality != 1 || fix.HDOP != 0.9 || fix.Altitude != 545.4 {
		t.Errorf("GGA fields = %+v", fix)
	}
	want := time.Date(1994, time.March, 23, 12, 35, 19, 0, time.UTC)
	if !fix.Time.Equal(want) {
		t.Errorf("Time = %v, want %v", fix.Time, want)
	}
}

func TestDecoderNoFix(t *testing.T) {
	fix := newDecoder(strings.NewReader(noFixRMC + "\n")).next()
	if fix.Valid {
		t.Error("V status must not produce a valid fix")
	}
	if fix.Time.Year() != 1998 {
		t.Errorf("Time = %v, the receiver clock is still reported", fix.Time)
	}
}

func TestDecoderRejectsBadChecksum(t *testing.T) {
	bad := strings.Replace(sentenceRMC, "*6A", "*00", 1)
	d := newDecoder(strings.NewReader(bad + "\n"))
	if kind := d.feed(bad); kind != "" {
		t.Errorf("feed accepted %q as %s", bad, kind)
	}
	if d.next().Valid {
		t.Error("corrupted sentence produced a fix")
	}
}

func TestDecoderKeepsLastFixAcrossReads(t *testing.T) {
	d := newDecoder(strings.NewReader(sentenceRMC + "\n"))
	first := d.next()
	second := d.next() // reader exhausted
	if !second.Valid || second.Latitude != first.Latitude {
		t.Errorf("second read = %+v, want last fix %+v", second, first)
	}
}

func TestParseNMEACoord(t *testing.T) {
	tests := []struct {
		raw, dir string
		want     float64
	}{
		{"4807.038", "N", 48.1173},
		{"4807.038", "S", -48.1173},
		{"01131.000", "W", -11.516666666666667},
		{"", "N", 0},
		{"abc", "E", 0},
	}
	for _, tt := range tests {
		if got := parseNMEACoord(tt.raw, tt.dir); math.Abs(got-tt.want) > 1e-4 {
			t.Errorf("parseNMEACoord(%q,%q) = %v, want %v", tt.raw, tt.dir, got, tt.want)
		}
	}
}

func TestValidateNMEAChecksum(t *testing.T) {
	for _, s := range []string{sentenceGGA, sentenceRMC, noFixRMC, sentenceGSV} {
		if !validateNMEAChecksum(s) {
			t.Errorf("valid sentence rejected: %s", s)
		}
	}
	for _, s := range []string{"$GPGGA,123519", "$*", "$GPGGA,1*ZZ"} {
		if validateNMEAChecksum(s) {
			t.Errorf("invalid sentence accepted: %s", s)
		}
	}
}

func TestNMEAProviderNotConnected(t *testing.T) {
	p := NewNMEA(NMEAConfig{PortPath: "/dev/null-gps"})
	if _, err := p.Read(); err == nil {
		t.Error("Read before Connect should fail")
	}
	if err := p.Close(); err != nil {
		t.Errorf("Close before Connect: %v", err)
	}
}
