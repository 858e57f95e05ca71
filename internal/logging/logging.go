// Package logging writes one append-only log file per day and prunes old
// ones.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Retention is how long daily log files are kept.
const Retention = 7 * 24 * time.Hour

// DailyWriter is an io.Writer that appends to interceptor-YYYY-MM-DD.log in
// its directory, switching files when the date rolls over. Old files are
// pruned on each rollover.
type DailyWriter struct {
	mu  sync.Mutex
	dir string
	day string
	f   *os.File
	now func() time.Time
}

func NewDailyWriter(dir string) (*DailyWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DailyWriter{dir: dir, now: time.Now}, nil
}

func (w *DailyWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	day := w.now().UTC().Format("2006-01-02")
	if w.f == nil || day != w.day {
		if w.f != nil {
			_ = w.f.Close()
		}
		f, err := os.OpenFile(filepath.Join(w.dir, "interceptor-"+day+".log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return 0, err
		}
		w.f = f
		w.day = day
		// prune outside the hot path would need another goroutine; rollover
		// happens once a day, so doing it inline is fine
		_, _ = CleanupOld(w.dir, Retention)
	}
	return w.f.Write(p)
}

func (w *DailyWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.f == nil {
		return nil
	}
	err := w.f.Close()
	w.f = nil
	return err
}

// CleanupOld deletes log files in dir whose mtime is older than retention.
// Returns how many files were removed.
func CleanupOld(dir string, retention time.Duration) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	cutoff := time.Now().Add(-retention)
	removed := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(dir, e.Name())); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}

// NewLogger builds the process slog.Logger writing to stderr and the daily
// file. The returned closer owns the file handle.
func NewLogger(dir string, debug bool) (*slog.Logger, io.Closer, error) {
	daily, err := NewDailyWriter(dir)
	if err != nil {
		return nil, nil, err
	}
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(io.MultiWriter(os.Stderr, daily), &slog.HandlerOptions{Level: level})
	return slog.New(h), daily, nil
}
