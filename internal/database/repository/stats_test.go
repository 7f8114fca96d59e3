package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/gabrielrahbar/TikTokAutoDownloader/internal/database/models"
	"github.com/gabrielrahbar/TikTokAutoDownloader/internal/database/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedVideos(t *testing.T, repo *repository.VideoRepository, videos ...models.Video) {
	t.Helper()
	for i := range videos {
		_, err := repo.Insert(context.Background(), &videos[i])
		require.NoError(t, err)
	}
}

func TestStatsRepository_Summary(t *testing.T) {
	db := setupTestDB(t)
	accounts := repository.NewAccountRepository(db.DB)
	videos := repository.NewVideoRepository(db.DB)
	stats := repository.NewStatsRepository(db.DB)
	ctx := context.Background()

	empty, err := stats.Summary(ctx)
	require.NoError(t, err)
	assert.Zero(t, empty.Videos)
	assert.Zero(t, empty.Views)

	_, err = accounts.Add(ctx, "a", models.PlatformTikTok)
	require.NoError(t, err)
	_, err = accounts.Add(ctx, "b", models.PlatformTikTok)
	require.NoError(t, err)
	require.NoError(t, accounts.Disable(ctx, "b"))

	now := time.Now()
	seedVideos(t, videos,
		models.Video{ID: "1", Account: "a", URL: "u", Views: 100, Likes: 10, DownloadedAt: now},
		models.Video{ID: "2", Account: "a", URL: "u", Views: 50, Likes: 5, DownloadedAt: now},
	)

	summary, err := stats.Summary(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, summary.Videos)
	assert.EqualValues(t, 150, summary.Views)
	assert.EqualValues(t, 15, summary.Likes)
	assert.EqualValues(t, 1, summary.EnabledAccounts)
}

func TestStatsRepository_TopAuthors(t *testing.T) {
	db := setupTestDB(t)
	videos := repository.NewVideoRepository(db.DB)
	stats := repository.NewStatsRepository(db.DB)

	now := time.Now()
	seedVideos(t, videos,
		models.Video{ID: "1", Account: "popular", Author: "popular", URL: "u", Views: 10, DownloadedAt: now},
		models.Video{ID: "2", Account: "popular", Author: "popular", URL: "u", Views: 20, DownloadedAt: now},
		models.Video{ID: "3", Account: "duets", Author: "popular", URL: "u", Views: 30, DownloadedAt: now},
		models.Video{ID: "4", Account: "other", URL: "u", DownloadedAt: now},
		models.Video{ID: "5", Account: "other", Author: "other", URL: "u", DownloadedAt: now},
		models.Video{ID: "6", Account: "duets", Author: "guest", URL: "u", DownloadedAt: now},
	)

	top, err := stats.TopAuthors(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "popular", top[0].Author)
	assert.EqualValues(t, 3, top[0].Videos)
	assert.EqualValues(t, 60, top[0].Views, "grouped by author across accounts")
	assert.Equal(t, "other", top[1].Author)
	assert.EqualValues(t, 2, top[1].Videos, "a missing author counts for its account")
}

func TestStatsRepository_ByDay(t *testing.T) {
	db := setupTestDB(t)
	videos := repository.NewVideoRepository(db.DB)
	stats := repository.NewStatsRepository(db.DB)

	day1 := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 5, 3, 23, 0, 0, 0, time.UTC)
	seedVideos(t, videos,
		models.Video{ID: "1", Account: "a", URL: "u", DownloadedAt: day1},
		models.Video{ID: "2", Account: "a", URL: "u", DownloadedAt: day2},
		models.Video{ID: "3", Account: "a", URL: "u", DownloadedAt: day2.Add(-time.Hour)},
	)

	days, err := stats.ByDay(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.Equal(t, repository.DayCount{Day: "2026-05-03", Videos: 2}, days[0])
	assert.Equal(t, repository.DayCount{Day: "2026-05-01", Videos: 1}, days[1])
}

func TestStatsRepository_Runs(t *testing.T) {
	db := setupTestDB(t)
	stats := repository.NewStatsRepository(db.DB)
	ctx := context.Background()

	last, err := stats.LastRun(ctx)
	require.NoError(t, err)
	assert.Nil(t, last)

	started := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	run := &models.CheckRun{ID: "run-1", StartedAt: started}
	require.NoError(t, stats.StartRun(ctx, run))

	last, err = stats.LastRun(ctx)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.False(t, last.Finished())

	run.FinishedAt = started.Add(2 * time.Minute)
	run.AccountsChecked = 3
	run.VideosFound = 4
	run.VideosDownloaded = 2
	run.Failures = 1
	require.NoError(t, stats.FinishRun(ctx, run))

	last, err = stats.LastRun(ctx)
	require.NoError(t, err)
	assert.True(t, last.Finished())
	assert.Equal(t, 3, last.AccountsChecked)
	assert.Equal(t, 2, last.VideosDownloaded)
	assert.Equal(t, 1, last.Failures)
}
