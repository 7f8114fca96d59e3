package repository

import (
	"time"

	"github.com/gabrielrahbar/TikTokAutoDownloader/internal/database/models"
)

// Timestamps are stored as unix seconds, 0 meaning "never".
func toUnix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

func fromUnix(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0)
}

type accountRow struct {
	Username           string `db:"username"`
	Platform           string `db:"platform"`
	Enabled            bool   `db:"enabled"`
	LastCheck          int64  `db:"last_check"`
	LastVideoID        string `db:"last_video_id"`
	LastVideoTimestamp int64  `db:"last_video_timestamp"`
	TotalVideos        int64  `db:"total_videos"`
	CreatedAt          int64  `db:"created_at"`
}

func (r accountRow) model() models.Account {
	return models.Account{
		Username:           r.Username,
		Platform:           models.Platform(r.Platform),
		Enabled:            r.Enabled,
		LastCheck:          fromUnix(r.LastCheck),
		LastVideoID:        r.LastVideoID,
		LastVideoTimestamp: r.LastVideoTimestamp,
		TotalVideos:        r.TotalVideos,
		CreatedAt:          fromUnix(r.CreatedAt),
	}
}

type videoRow struct {
	ID              string `db:"id"`
	Account         string `db:"account"`
	URL             string `db:"url"`
	Title           string `db:"title"`
	Author          string `db:"author"`
	UploadDate      string `db:"upload_date"`
	UploadTimestamp int64  `db:"upload_timestamp"`
	Likes           int64  `db:"likes"`
	Views           int64  `db:"views"`
	FilePath        string `db:"file_path"`
	DownloadedAt    int64  `db:"downloaded_at"`
}

func newVideoRow(v *models.Video) videoRow {
	return videoRow{
		ID:              v.ID,
		Account:         v.Account,
		URL:             v.URL,
		Title:           v.Title,
		Author:          v.Author,
		UploadDate:      v.UploadDate,
		UploadTimestamp: v.UploadTimestamp,
		Likes:           v.Likes,
		Views:           v.Views,
		FilePath:        v.FilePath,
		DownloadedAt:    toUnix(v.DownloadedAt),
	}
}

func (r videoRow) model() models.Video {
	return models.Video{
		ID:              r.ID,
		Account:         r.Account,
		URL:             r.URL,
		Title:           r.Title,
		Author:          r.Author,
		UploadDate:      r.UploadDate,
		UploadTimestamp: r.UploadTimestamp,
		Likes:           r.Likes,
		Views:           r.Views,
		FilePath:        r.FilePath,
		DownloadedAt:    fromUnix(r.DownloadedAt),
	}
}

type checkRunRow struct {
	ID               string `db:"id"`
	StartedAt        int64  `db:"started_at"`
	FinishedAt       int64  `db:"finished_at"`
	AccountsChecked  int    `db:"accounts_checked"`
	VideosFound      int    `db:"videos_found"`
	VideosDownloaded int    `db:"videos_downloaded"`
	Failures         int    `db:"failures"`
}

func (r checkRunRow) model() models.CheckRun {
	return models.CheckRun{
		ID:               r.ID,
		StartedAt:        fromUnix(r.StartedAt),
		FinishedAt:       fromUnix(r.FinishedAt),
		AccountsChecked:  r.AccountsChecked,
		VideosFound:      r.VideosFound,
		VideosDownloaded: r.VideosDownloaded,
		Failures:         r.Failures,
	}
}
