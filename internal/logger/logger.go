package logger

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabrielrahbar/TikTokAutoDownloader/internal/config"
	"github.com/go-kratos/kratos/v2/log"
)

const filePrefix = "tiktok_monitor_"

// FileName is the log file used on day
func FileName(day time.Time) string {
	return filePrefix + day.Format("2006-01-02") + ".log"
}

// ParseLevel accepts the level names used in config files
func ParseLevel(s string) log.Level {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "WARNING" {
		s = "WARN"
	}
	return log.ParseLevel(s)
}

// multiLogger writes every record to all of its sinks
type multiLogger []log.Logger

func (m multiLogger) Log(level log.Level, keyvals ...interface{}) error {
	var errs []error
	for _, l := range m {
		if err := l.Log(level, keyvals...); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New builds the application logger. Console output is filtered by the
// configured level; the daily file in cfg.Dir receives everything.
// The returned Closer closes the log file.
func New(cfg config.Logging, console io.Writer) (log.Logger, io.Closer, error) {
	level := ParseLevel(cfg.Level)
	stderr := log.NewFilter(log.NewStdLogger(console), log.FilterLevel(level))

	if cfg.Dir == "" {
		return decorate(stderr), nopCloser{}, nil
	}

	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log dir: %w", err)
	}

	path := filepath.Join(cfg.Dir, FileName(time.Now()))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	return decorate(multiLogger{log.NewStdLogger(file), stderr}), file, nil
}

func decorate(l log.Logger) log.Logger {
	return log.With(l,
		"ts", log.DefaultTimestamp,
		"caller", log.DefaultCaller,
	)
}

// Prune removes monitor log files in dir last written more than retainDays
// ago and returns how many were removed. retainDays <= 0 keeps everything.
func Prune(dir string, retainDays int, now time.Time) (int, error) {
	if retainDays <= 0 {
		return 0, nil
	}

	matches, err := filepath.Glob(filepath.Join(dir, filePrefix+"*.log"))
	if err != nil {
		return 0, err
	}

	cutoff := now.Add(-time.Duration(retainDays) * 24 * time.Hour)
	removed := 0
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(path); err != nil {
				return removed, fmt.Errorf("failed to remove %s: %w", path, err)
			}
			removed++
		}
	}
	return removed, nil
}
