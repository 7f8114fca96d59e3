package logger

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gabrielrahbar/TikTokAutoDownloader/internal/config"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileName(t *testing.T) {
	day := time.Date(2026, 3, 9, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, "tiktok_monitor_2026-03-09.log", FileName(day))
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want log.Level
	}{
		{"DEBUG", log.LevelDebug},
		{"info", log.LevelInfo},
		{"WARNING", log.LevelWarn},
		{"warn", log.LevelWarn},
		{" error ", log.LevelError},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestNew_WritesFileAndConsole(t *testing.T) {
	dir := t.TempDir()
	var console bytes.Buffer

	logger, closer, err := New(config.Logging{Dir: dir, Level: "INFO"}, &console)
	require.NoError(t, err)

	helper := log.NewHelper(logger)
	helper.Debug("hidden from console")
	helper.Info("visible everywhere")
	require.NoError(t, closer.Close())

	assert.Contains(t, console.String(), "visible everywhere")
	assert.NotContains(t, console.String(), "hidden from console")

	data, err := os.ReadFile(filepath.Join(dir, FileName(time.Now())))
	require.NoError(t, err)
	assert.Contains(t, string(data), "visible everywhere")
	assert.Contains(t, string(data), "hidden from console", "file receives debug output")
}

type recordingLogger struct {
	levels []log.Level
	err    error
}

func (r *recordingLogger) Log(level log.Level, _ ...interface{}) error {
	r.levels = append(r.levels, level)
	return r.err
}

func TestMultiLogger(t *testing.T) {
	first := &recordingLogger{err: errors.New("disk full")}
	second := &recordingLogger{}

	err := multiLogger{first, second}.Log(log.LevelWarn, "msg", "x")

	assert.ErrorContains(t, err, "disk full")
	assert.Equal(t, []log.Level{log.LevelWarn}, first.levels)
	assert.Equal(t, []log.Level{log.LevelWarn}, second.levels, "a failing sink does not stop the others")
}

func TestNew_NoDir(t *testing.T) {
	var console bytes.Buffer

	logger, closer, err := New(config.Logging{Level: "ERROR"}, &console)
	require.NoError(t, err)
	defer closer.Close()

	helper := log.NewHelper(logger)
	helper.Warn("dropped")
	helper.Error("kept")

	assert.NotContains(t, console.String(), "dropped")
	assert.Contains(t, console.String(), "kept")
}

func TestPrune(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 6, 30, 12, 0, 0, 0, time.UTC)

	files := map[string]time.Time{
		"tiktok_monitor_2026-06-01.log": now.Add(-29 * 24 * time.Hour),
		"tiktok_monitor_2026-06-20.log": now.Add(-10 * 24 * time.Hour),
		"tiktok_monitor_2026-06-29.log": now.Add(-24 * time.Hour),
		"other.log":                     now.Add(-60 * 24 * time.Hour),
	}
	for name, mtime := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
		require.NoError(t, os.Chtimes(path, mtime, mtime))
	}

	removed, err := Prune(dir, 7, now)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	assert.NoFileExists(t, filepath.Join(dir, "tiktok_monitor_2026-06-01.log"))
	assert.NoFileExists(t, filepath.Join(dir, "tiktok_monitor_2026-06-20.log"))
	assert.FileExists(t, filepath.Join(dir, "tiktok_monitor_2026-06-29.log"))
	assert.FileExists(t, filepath.Join(dir, "other.log"), "only monitor logs are pruned")
}

func TestPrune_Disabled(t *testing.T) {
	removed, err := Prune(t.TempDir(), 0, time.Now())
	require.NoError(t, err)
	assert.Zero(t, removed)
}
