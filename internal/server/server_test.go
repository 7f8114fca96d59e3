package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gabrielrahbar/TikTokAutoDownloader/internal/database/models"
	"github.com/gabrielrahbar/TikTokAutoDownloader/internal/database/repository"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAccounts struct {
	accounts []models.AccountSummary
	err      error
	all      bool
}

func (f *fakeAccounts) List(_ context.Context, includeDisabled bool) ([]models.AccountSummary, error) {
	f.all = includeDisabled
	return f.accounts, f.err
}

type fakeStats struct {
	run *models.CheckRun
}

func (f fakeStats) Summary(context.Context) (*repository.Summary, error) {
	return &repository.Summary{Videos: 42, Views: 1000, Likes: 10, EnabledAccounts: 2}, nil
}

func (f fakeStats) LastRun(context.Context) (*models.CheckRun, error) { return f.run, nil }

func get(t *testing.T, h http.Handler, path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func newTestServer(accounts AccountSource, stats StatsSource) *Server {
	return New("127.0.0.1:0", accounts, stats, log.NewStdLogger(io.Discard))
}

func TestHealth(t *testing.T) {
	s := newTestServer(&fakeAccounts{}, fakeStats{})

	rec, body := get(t, s.Routes(), "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "ok", body["status"])
}

func TestAccounts(t *testing.T) {
	accounts := &fakeAccounts{accounts: []models.AccountSummary{
		{Account: models.Account{Username: "user", Platform: models.PlatformTikTok, Enabled: true, TotalVideos: 3, LastVideoTimestamp: 1700000000}, StoredVideos: 3},
	}}
	s := newTestServer(accounts, fakeStats{})

	rec, body := get(t, s.Routes(), "/api/accounts?all=true")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, accounts.all)

	list, ok := body["accounts"].([]interface{})
	require.True(t, ok)
	require.Len(t, list, 1)
	account := list[0].(map[string]interface{})
	assert.Equal(t, "user", account["username"])
	assert.Equal(t, "tiktok", account["platform"])
	assert.EqualValues(t, 1700000000, account["last_video_timestamp"])
	assert.EqualValues(t, 3, account["stored_videos"])
}

func TestAccounts_Error(t *testing.T) {
	s := newTestServer(&fakeAccounts{err: errors.New("database is locked")}, fakeStats{})

	rec, body := get(t, s.Routes(), "/api/accounts")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal Server Error", body["message"])
}

func TestStats(t *testing.T) {
	now := time.Now()
	run := &models.CheckRun{ID: "run-1", StartedAt: now.Add(-time.Minute), FinishedAt: now, VideosDownloaded: 2}
	s := newTestServer(&fakeAccounts{}, fakeStats{run: run})

	rec, body := get(t, s.Routes(), "/api/stats")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 42, body["videos"])
	assert.EqualValues(t, 2, body["enabled_accounts"])

	last, ok := body["last_run"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "run-1", last["id"])
	assert.EqualValues(t, 2, last["videos_downloaded"])
	assert.NotEmpty(t, last["finished_at"])
}

func TestStats_NoRuns(t *testing.T) {
	s := newTestServer(&fakeAccounts{}, fakeStats{})

	_, body := get(t, s.Routes(), "/api/stats")

	assert.Nil(t, body["last_run"])
}

func TestRun_StopsWithContext(t *testing.T) {
	s := newTestServer(&fakeAccounts{}, fakeStats{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
