package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

const logFilePrefix = "vademecum-"

// RotatingLogger is an io.Writer that starts a new file every ISO week and
// whenever the current file would grow past maxFileSize. Files older than
// the retention period are removed once a day.
type RotatingLogger struct {
	logDir      string
	retention   time.Duration
	maxFileSize int64
	now         func() time.Time

	mu          sync.Mutex
	file        *os.File
	week        string
	seq         int
	size        int64
	stopCleanup chan struct{}
	cleanupDone chan struct{}
}

// NewRotatingLogger creates the log dir, opens the file for the current week
// and starts the retention cleanup goroutine. maxFileSize <= 0 disables
// size-based rotation.
func NewRotatingLogger(logDir string, retentionWeeks int, maxFileSize int64) (*RotatingLogger, error) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", logDir, err)
	}

	rl := &RotatingLogger{
		logDir:      logDir,
		retention:   time.Duration(retentionWeeks) * 7 * 24 * time.Hour,
		maxFileSize: maxFileSize,
		now:         time.Now,
		stopCleanup: make(chan struct{}),
		cleanupDone: make(chan struct{}),
	}

	rl.mu.Lock()
	err := rl.openLocked(weekKey(rl.now()), rl.latestSeq(weekKey(rl.now())))
	rl.mu.Unlock()
	if err != nil {
		return nil, err
	}

	go rl.cleanupLoop()
	return rl, nil
}

// weekKey returns the week key in YYYY-Www format (ISO week)
func weekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

func (rl *RotatingLogger) fileName(week string, seq int) string {
	if seq == 0 {
		return fmt.Sprintf("%s%s.log", logFilePrefix, week)
	}
	return fmt.Sprintf("%s%s_%02d.log", logFilePrefix, week, seq)
}

// latestSeq finds the highest sequence already on disk for week so a restart
// keeps appending to the newest file
func (rl *RotatingLogger) latestSeq(week string) int {
	matches, _ := filepath.Glob(filepath.Join(rl.logDir, fmt.Sprintf("%s%s_??.log", logFilePrefix, week)))
	highest := 0
	for _, m := range matches {
		base := strings.TrimSuffix(filepath.Base(m), ".log")
		if seq, err := strconv.Atoi(base[strings.LastIndex(base, "_")+1:]); err == nil && seq > highest {
			highest = seq
		}
	}
	return highest
}

// openLocked closes the current file and opens week/seq in append mode.
// Caller must hold mu.
func (rl *RotatingLogger) openLocked(week string, seq int) error {
	if rl.file != nil {
		_ = rl.file.Close()
		rl.file = nil
	}

	path := filepath.Join(rl.logDir, rl.fileName(week, seq))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", path, err)
	}

	var size int64
	if info, err := f.Stat(); err == nil {
		size = info.Size()
	}

	rl.file, rl.week, rl.seq, rl.size = f, week, seq, size
	return nil
}

// Write writes p to the current file, rotating first if needed
func (rl *RotatingLogger) Write(p []byte) (int, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	week := weekKey(rl.now())
	switch {
	case week != rl.week:
		if err := rl.openLocked(week, rl.latestSeq(week)); err != nil {
			return 0, err
		}
	case rl.maxFileSize > 0 && rl.size > 0 && rl.size+int64(len(p)) > rl.maxFileSize:
		if err := rl.openLocked(week, rl.seq+1); err != nil {
			return 0, err
		}
	}

	if rl.file == nil {
		return 0, fmt.Errorf("no log file available")
	}

	n, err := rl.file.Write(p)
	rl.size += int64(n)
	return n, err
}

// CurrentFile returns the path of the file being written
func (rl *RotatingLogger) CurrentFile() string {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return filepath.Join(rl.logDir, rl.fileName(rl.week, rl.seq))
}

// cleanupOldLogs removes log files whose modification time is past retention
func (rl *RotatingLogger) cleanupOldLogs() (int, error) {
	entries, err := os.ReadDir(rl.logDir)
	if err != nil {
		return 0, fmt.Errorf("failed to read log directory: %w", err)
	}

	current := rl.CurrentFile()
	cutoff := rl.now().Add(-rl.retention)
	deleted := 0

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, logFilePrefix) || !strings.HasSuffix(name, ".log") {
			continue
		}

		full := filepath.Join(rl.logDir, name)
		if full == current {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		if info.ModTime().Before(cutoff) {
			if err := os.Remove(full); err == nil {
				deleted++
			}
		}
	}

	return deleted, nil
}

func (rl *RotatingLogger) cleanupLoop() {
	defer close(rl.cleanupDone)

	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopCleanup:
			return
		case <-ticker.C:
			// Console only: logging through slog here would recurse into Write
			if n, err := rl.cleanupOldLogs(); err != nil {
				fmt.Fprintf(os.Stderr, "log cleanup failed: %v\n", err)
			} else if n > 0 {
				fmt.Printf("Cleaned up %d old log files\n", n)
			}
		}
	}
}

// Close stops the cleanup goroutine and closes the current file
func (rl *RotatingLogger) Close() error {
	select {
	case <-rl.stopCleanup:
	default:
		close(rl.stopCleanup)
	}
	<-rl.cleanupDone

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if rl.file == nil {
		return nil
	}
	err := rl.file.Close()
	rl.file = nil
	return err
}
