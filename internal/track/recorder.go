package track

import (
	"encoding/csv"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/shaunagostinho/gps-tracker/internal/gps"
)

const defaultMaxRows = 100_000

var csvHeader = []string{
	"timestamp", "reason", "lat", "lon", "distance_m",
	"speed_kph", "heading", "alt_m", "sats", "hdop",
}

// RecorderConfig holds track log settings.
type RecorderConfig struct {
	Dir     string
	MaxRows int // rows per file before rotating; 0 means 100k
}

// Recorder writes kept fixes to CSV files with automatic rotation.
type Recorder struct {
	mu      sync.Mutex
	dir     string
	maxRows int

	file   *os.File
	writer *csv.Writer
	path   string
	rows   int
	total  int
}

func NewRecorder(cfg RecorderConfig) *Recorder {
	if cfg.Dir == "" {
		cfg.Dir = "/var/log/gpstracker"
	}
	if cfg.MaxRows <= 0 {
		cfg.MaxRows = defaultMaxRows
	}
	return &Recorder{dir: cfg.Dir, maxRows: cfg.MaxRows}
}

// Record appends one row. The fix's own timestamp is used when the receiver
// supplied one, otherwise now.
func (r *Recorder) Record(fix gps.Data, d Decision, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.writer == nil || r.rows >= r.maxRows {
		if err := r.rotateFile(now); err != nil {
			return err
		}
	}

	ts := fix.Time
	if ts.IsZero() {
		ts = now.UTC()
	}
	row := []string{
		ts.Format(time.RFC3339Nano),
		string(d.Reason),
		strconv.FormatFloat(fix.Latitude, 'f', 6, 64),
		strconv.FormatFloat(fix.Longitude, 'f', 6, 64),
		strconv.FormatFloat(d.Distance, 'f', 1, 64),
		strconv.FormatFloat(fix.Speed, 'f', 1, 64),
		strconv.FormatFloat(fix.Heading, 'f', 1, 64),
		strconv.FormatFloat(fix.Altitude, 'f', 1, 64),
		strconv.Itoa(fix.Satellites),
		strconv.FormatFloat(fix.HDOP, 'f', 1, 64),
	}
	if err := r.writer.Write(row); err != nil {
		return fmt.Errorf("track: write %s: %w", r.path, err)
	}
	r.writer.Flush()
	if err := r.writer.Error(); err != nil {
		return fmt.Errorf("track: flush %s: %w", r.path, err)
	}
	r.rows++
	r.total++
	return nil
}

// Total returns the number of rows written since the recorder was created.
func (r *Recorder) Total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.total
}

// Path returns the file currently being written, or "" before the first row.
func (r *Recorder) Path() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.path
}

// Close flushes and closes the current file.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closeFile()
}

func (r *Recorder) rotateFile(now time.Time) error {
	if err := r.closeFile(); err != nil {
		log.Printf("[track] close %s: %v", r.path, err)
	}

	if err := os.MkdirAll(r.dir, 0755); err != nil {
		return fmt.Errorf("track: mkdir %s: %w", r.dir, err)
	}

	f, path, err := createUnique(r.dir, "track_"+now.Format("2006-01-02_150405"))
	if err != nil {
		return err
	}

	r.file = f
	r.path = path
	r.writer = csv.NewWriter(f)
	r.rows = 0

	if err := r.writer.Write(csvHeader); err != nil {
		return fmt.Errorf("track: write header %s: %w", path, err)
	}
	r.writer.Flush()

	log.Printf("[track] opened %s", path)
	return r.writer.Error()
}

// createUnique creates base.csv, or base_1.csv, base_2.csv... if a file
// from the same second already exists.
func createUnique(dir, base string) (*os.File, string, error) {
	for i := 0; ; i++ {
		name := base + ".csv"
		if i > 0 {
			name = fmt.Sprintf("%s_%d.csv", base, i)
		}
		path := filepath.Join(dir, name)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err == nil {
			return f, path, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, "", fmt.Errorf("track: create %s: %w", path, err)
		}
	}
}

func (r *Recorder) closeFile() error {
	if r.writer != nil {
		r.writer.Flush()
		r.writer = nil
	}
	if r.file != nil {
		err := r.file.Close()
		r.file = nil
		return err
	}
	return nil
}
