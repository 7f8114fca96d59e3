package downloader

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gabrielrahbar/TikTokAutoDownloader/internal/database/models"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/lrstanley/go-ytdlp"
)

const (
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	outputTemplate = "%(uploader)s_%(upload_date)s_%(title)s.%(ext)s"
)

// YTDLPConfig configures the yt-dlp backend
type YTDLPConfig struct {
	Executable  string
	OutputDir   string
	Format      string
	CookiesFile string
	ExtraArgs   []string
	Retry       RetryPolicy
}

type runFunc func(ctx context.Context, cmd *ytdlp.Command, args ...string) ([]byte, error)

// YTDLP lists and downloads videos through the yt-dlp executable
type YTDLP struct {
	cfg YTDLPConfig
	log *log.Helper
	run runFunc
}

// NewYTDLP creates a yt-dlp backed Downloader
func NewYTDLP(cfg YTDLPConfig, logger log.Logger) *YTDLP {
	if cfg.Format == "" {
		cfg.Format = "best"
	}
	return &YTDLP{
		cfg: cfg,
		log: log.NewHelper(log.With(logger, "module", "downloader/ytdlp")),
		run: runCommand,
	}
}

func runCommand(ctx context.Context, cmd *ytdlp.Command, args ...string) ([]byte, error) {
	res, err := cmd.Run(ctx, args...)
	if err != nil {
		if res != nil {
			if stderr := lastLine(res.Stderr); stderr != "" {
				return nil, fmt.Errorf("yt-dlp failed: %s: %w", stderr, err)
			}
		}
		return nil, fmt.Errorf("yt-dlp failed: %w", err)
	}
	return []byte(res.Stdout), nil
}

func (d *YTDLP) command() *ytdlp.Command {
	cmd := ytdlp.New().
		NoWarnings().
		AddHeaders("User-Agent:" + userAgent)

	if d.cfg.Executable != "" {
		cmd.SetExecutable(d.cfg.Executable)
	}
	if d.cfg.CookiesFile != "" {
		cmd.Cookies(d.cfg.CookiesFile)
	}
	return cmd
}

func (d *YTDLP) args(target string) []string {
	args := make([]string, 0, len(d.cfg.ExtraArgs)+1)
	args = append(args, d.cfg.ExtraArgs...)
	return append(args, target)
}

func (d *YTDLP) retrying(ctx context.Context, what string, op func(ctx context.Context) error) error {
	return d.cfg.Retry.Do(ctx, op, func(err *Error, wait time.Duration) {
		d.log.Warnw("msg", "retrying", "op", what, "kind", err.Kind.String(), "wait", wait.String(), "error", err.Err)
	})
}

// ListRecent extracts full metadata for the newest limit entries of the
// account's profile, newest first
func (d *YTDLP) ListRecent(ctx context.Context, account models.Account, limit int) ([]Video, error) {
	profile, err := ProfileURL(account)
	if err != nil {
		return nil, &Error{Kind: KindInvalidURL, Message: "Invalid account", Err: err}
	}

	cmd := d.command().DumpSingleJSON()
	if limit > 0 {
		cmd.PlaylistEnd(limit)
	}

	var out []byte
	err = d.retrying(ctx, "list", func(ctx context.Context) error {
		var runErr error
		out, runErr = d.run(ctx, cmd, d.args(profile)...)
		return runErr
	})
	if err != nil {
		return nil, err
	}

	videos, err := parsePlaylist(out)
	if err != nil {
		return nil, fmt.Errorf("failed to parse profile %s: %w", profile, err)
	}
	if limit > 0 && len(videos) > limit {
		videos = videos[:limit]
	}

	d.log.Debugf("listed %d videos for @%s", len(videos), account.Username)
	return videos, nil
}

// Download fetches video into the output directory
func (d *YTDLP) Download(ctx context.Context, video Video) (*Result, error) {
	if video.URL == "" {
		return nil, &Error{Kind: KindInvalidURL, Message: "Invalid video URL", Err: fmt.Errorf("video %s has no url", video.ID)}
	}

	if err := os.MkdirAll(d.cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}

	cmd := d.command().
		Format(d.cfg.Format).
		Output(filepath.Join(d.cfg.OutputDir, outputTemplate)).
		DumpJSON().
		NoSimulate()

	var out []byte
	err := d.retrying(ctx, "download", func(ctx context.Context) error {
		var runErr error
		out, runErr = d.run(ctx, cmd, d.args(video.URL)...)
		return runErr
	})
	if err != nil {
		return nil, err
	}

	info, err := parseInfo(out)
	if err != nil {
		return nil, fmt.Errorf("failed to parse download result: %w", err)
	}

	result := &Result{
		Video:    info.video().merge(video),
		FilePath: info.path(),
	}
	d.log.Infof("downloaded %s to %s", result.Video.ID, result.FilePath)
	return result, nil
}

// infoJSON is the subset of yt-dlp's info dict the monitor uses
type infoJSON struct {
	ID          string  `json:"id"`
	WebpageURL  string  `json:"webpage_url"`
	OriginalURL string  `json:"original_url"`
	Title       string  `json:"title"`
	Uploader    string  `json:"uploader"`
	Channel     string  `json:"channel"`
	UploadDate  string  `json:"upload_date"`
	Timestamp   float64 `json:"timestamp"`
	LikeCount   int64   `json:"like_count"`
	ViewCount   int64   `json:"view_count"`

	Filename           string `json:"filename"`
	LegacyFilename     string `json:"_filename"`
	RequestedDownloads []struct {
		Filepath string `json:"filepath"`
	} `json:"requested_downloads"`

	Entries []*infoJSON `json:"entries"`
}

func (i *infoJSON) video() Video {
	v := Video{
		ID:         i.ID,
		URL:        i.WebpageURL,
		Title:      i.Title,
		Author:     i.Uploader,
		UploadDate: i.UploadDate,
		Timestamp:  int64(i.Timestamp),
		Likes:      i.LikeCount,
		Views:      i.ViewCount,
	}
	if v.URL == "" {
		v.URL = i.OriginalURL
	}
	if v.Author == "" {
		v.Author = i.Channel
	}
	return v
}

func (i *infoJSON) path() string {
	for _, d := range i.RequestedDownloads {
		if d.Filepath != "" {
			return d.Filepath
		}
	}
	if i.Filename != "" {
		return i.Filename
	}
	return i.LegacyFilename
}

func parseInfo(data []byte) (*infoJSON, error) {
	var info infoJSON
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// parsePlaylist turns a -J dump of a profile into videos sorted newest
// first. Missing entries are skipped.
func parsePlaylist(data []byte) ([]Video, error) {
	info, err := parseInfo(data)
	if err != nil {
		return nil, err
	}

	if info.Entries == nil {
		if info.ID == "" {
			return nil, nil
		}
		return []Video{info.video()}, nil
	}

	videos := make([]Video, 0, len(info.Entries))
	for _, entry := range info.Entries {
		if entry == nil || entry.ID == "" {
			continue
		}
		videos = append(videos, entry.video())
	}

	sort.SliceStable(videos, func(i, j int) bool {
		return videos[i].Timestamp > videos[j].Timestamp
	})
	return videos, nil
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
