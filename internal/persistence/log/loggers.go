// Package log keeps an append-only record of sweeps as zstd-compressed
// JSON lines, one file per hour.
package log

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"voxelscan.ai/internal/sonar"
)

const hourLayout = "2006-01-02-15"

// JSONLZstdWriter appends JSON values to <dir>/<prefix>-<hour>.jsonl.zst.
// Each hour gets its own zstd frame stream; a new file starts when the
// hour changes.
type JSONLZstdWriter struct {
	baseDir string
	prefix  string
	now     func() time.Time

	mu      sync.Mutex
	curHour string
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
}

func NewJSONLZstdWriter(baseDir, prefix string) *JSONLZstdWriter {
	return &JSONLZstdWriter{baseDir: baseDir, prefix: prefix, now: time.Now}
}

func (w *JSONLZstdWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

// Write appends v and flushes the line through the encoder, so a crash
// loses at most the line being written.
func (w *JSONLZstdWriter) Write(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if hour := w.now().UTC().Format(hourLayout); hour != w.curHour {
		if err := w.rotateLocked(hour); err != nil {
			return err
		}
	}
	b = append(b, '\n')
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.Flush(); err != nil {
		return err
	}
	return w.enc.Flush()
}

func (w *JSONLZstdWriter) rotateLocked(hour string) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	path := w.pathForHour(hour)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f, w.enc, w.curHour = f, enc, hour
	w.w = bufio.NewWriterSize(enc, 64*1024)
	return nil
}

func (w *JSONLZstdWriter) closeLocked() error {
	var err error
	if w.w != nil {
		_ = w.w.Flush()
		w.w = nil
	}
	if w.enc != nil {
		err = w.enc.Close()
		w.enc = nil
	}
	if w.f != nil {
		if cerr := w.f.Close(); err == nil {
			err = cerr
		}
		w.f = nil
	}
	w.curHour = ""
	return err
}

func (w *JSONLZstdWriter) pathForHour(hour string) string {
	return filepath.Join(w.baseDir, fmt.Sprintf("%s-%s.jsonl.zst", w.prefix, hour))
}

// Files lists the log files written so far, oldest first.
func (w *JSONLZstdWriter) Files() ([]string, error) {
	out, err := filepath.Glob(filepath.Join(w.baseDir, w.prefix+"-*.jsonl.zst"))
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

// SweepEntry is one line of the sweep log.
type SweepEntry struct {
	Started  int64        `json:"started_ms"`
	Finished int64        `json:"finished_ms"`
	Origin   [3]int       `json:"origin"`
	Pitch    float32      `json:"pitch"`
	Yaw      float32      `json:"yaw"`
	Scanned  int          `json:"scanned"`
	Stored   int          `json:"stored"`
	Found    []FoundEntry `json:"found,omitempty"`
}

type FoundEntry struct {
	Pos [3]int `json:"pos"`
	ID  string `json:"id"`
}

func EntryOf(sw sonar.Sweep) SweepEntry {
	e := SweepEntry{
		Started:  sw.Started,
		Finished: sw.Finished,
		Origin:   [3]int{sw.Origin.X, sw.Origin.Y, sw.Origin.Z},
		Pitch:    sw.Pitch,
		Yaw:      sw.Yaw,
		Scanned:  sw.Scanned,
		Stored:   sw.Stored,
	}
	for _, p := range sw.Found {
		e.Found = append(e.Found, FoundEntry{Pos: [3]int{p.Pos.X, p.Pos.Y, p.Pos.Z}, ID: p.ID.String()})
	}
	return e
}

// SweepLogger records sweeps under <dir>/sweeps. It satisfies
// sonar.SweepRecorder; write failures are logged, not returned.
type SweepLogger struct {
	w      *JSONLZstdWriter
	logger *stdlog.Logger
}

func NewSweepLogger(dir string, logger *stdlog.Logger) *SweepLogger {
	if logger == nil {
		logger = stdlog.New(io.Discard, "", 0)
	}
	return &SweepLogger{w: NewJSONLZstdWriter(filepath.Join(dir, "sweeps"), "sweeps"), logger: logger}
}

func (l *SweepLogger) WriteSweep(e SweepEntry) error { return l.w.Write(e) }
func (l *SweepLogger) Close() error                  { return l.w.Close() }
func (l *SweepLogger) Files() ([]string, error)      { return l.w.Files() }

func (l *SweepLogger) RecordSweep(sw sonar.Sweep) {
	if err := l.WriteSweep(EntryOf(sw)); err != nil {
		l.logger.Printf("sweep log: %v", err)
	}
}

// ReadSweeps decodes every entry of one log file.
func ReadSweeps(path string) ([]SweepEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var out []SweepEntry
	jd := json.NewDecoder(dec)
	for {
		var e SweepEntry
		if err := jd.Decode(&e); err == io.EOF {
			return out, nil
		} else if err != nil {
			return out, fmt.Errorf("%s: entry %d: %w", path, len(out), err)
		}
		out = append(out, e)
	}
}
