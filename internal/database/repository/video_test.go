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

func TestVideoRepository_Insert(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewVideoRepository(db.DB)
	ctx := context.Background()

	downloadedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	video := &models.Video{
		ID:              "7301234567890",
		Account:         "charlidamelio",
		URL:             "https://www.tiktok.com/@charlidamelio/video/7301234567890",
		Title:           "dance",
		Author:          "charlidamelio",
		UploadDate:      "20260301",
		UploadTimestamp: 1772366400,
		Likes:           1200,
		Views:           45000,
		FilePath:        "downloads/charlidamelio_20260301_dance.mp4",
		DownloadedAt:    downloadedAt,
	}

	created, err := repo.Insert(ctx, video)
	require.NoError(t, err)
	assert.True(t, created)

	stored, err := repo.Get(ctx, video.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, video.URL, stored.URL)
	assert.Equal(t, video.UploadTimestamp, stored.UploadTimestamp)
	assert.Equal(t, video.Views, stored.Views)
	assert.True(t, stored.DownloadedAt.Equal(downloadedAt))
}

func TestVideoRepository_Insert_Idempotent(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewVideoRepository(db.DB)
	ctx := context.Background()

	first := &models.Video{ID: "v1", Account: "a", URL: "u", Title: "original", DownloadedAt: time.Now()}
	created, err := repo.Insert(ctx, first)
	require.NoError(t, err)
	assert.True(t, created)

	second := &models.Video{ID: "v1", Account: "a", URL: "u", Title: "changed", DownloadedAt: time.Now()}
	created, err = repo.Insert(ctx, second)
	require.NoError(t, err)
	assert.False(t, created)

	stored, err := repo.Get(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, "original", stored.Title)

	count, err := repo.CountByAccount(ctx, "a")
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestVideoRepository_Exists(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewVideoRepository(db.DB)
	ctx := context.Background()

	exists, err := repo.Exists(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = repo.Insert(ctx, &models.Video{ID: "present", Account: "a", URL: "u", DownloadedAt: time.Now()})
	require.NoError(t, err)

	exists, err = repo.Exists(ctx, "present")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestVideoRepository_Get_Missing(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewVideoRepository(db.DB)

	video, err := repo.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, video)
}

func TestVideoRepository_Recent(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewVideoRepository(db.DB)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "mid", "new"} {
		_, err := repo.Insert(ctx, &models.Video{
			ID:           id,
			Account:      "a",
			URL:          "u-" + id,
			DownloadedAt: base.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}

	recent, err := repo.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "new", recent[0].ID)
	assert.Equal(t, "mid", recent[1].ID)
}
