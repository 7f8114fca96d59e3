package downloader

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/gabrielrahbar/TikTokAutoDownloader/internal/database/models"
)

// Video is a single post as reported by the extractor
type Video struct {
	ID         string
	URL        string
	Title      string
	Author     string
	UploadDate string // YYYYMMDD
	Timestamp  int64  // unix seconds, 0 when unknown
	Likes      int64
	Views      int64
}

// Result describes a finished download
type Result struct {
	Video    Video
	FilePath string
}

// Lister fetches the most recent posts of an account
type Lister interface {
	ListRecent(ctx context.Context, account models.Account, limit int) ([]Video, error)
}

// Fetcher downloads a single video to local storage
type Fetcher interface {
	Download(ctx context.Context, video Video) (*Result, error)
}

// ProfileURL returns the page listing an account's uploads
func ProfileURL(account models.Account) (string, error) {
	username := strings.TrimPrefix(account.Username, "@")
	if username == "" {
		return "", fmt.Errorf("empty username")
	}

	switch account.Platform {
	case models.PlatformTikTok, "":
		return "https://www.tiktok.com/@" + url.PathEscape(username), nil
	case models.PlatformYouTube:
		return "https://www.youtube.com/@" + url.PathEscape(username) + "/videos", nil
	default:
		return "", fmt.Errorf("unsupported platform %q", account.Platform)
	}
}

// IsYouTubeURL reports whether rawURL points at a YouTube video
func IsYouTubeURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	switch host {
	case "youtube.com", "m.youtube.com", "music.youtube.com", "youtu.be":
		return true
	}
	return false
}

// merge fills empty fields of v from fallback
func (v Video) merge(fallback Video) Video {
	if v.ID == "" {
		v.ID = fallback.ID
	}
	if v.URL == "" {
		v.URL = fallback.URL
	}
	if v.Title == "" {
		v.Title = fallback.Title
	}
	if v.Author == "" {
		v.Author = fallback.Author
	}
	if v.UploadDate == "" {
		v.UploadDate = fallback.UploadDate
	}
	if v.Timestamp == 0 {
		v.Timestamp = fallback.Timestamp
	}
	if v.Likes == 0 {
		v.Likes = fallback.Likes
	}
	if v.Views == 0 {
		v.Views = fallback.Views
	}
	return v
}
