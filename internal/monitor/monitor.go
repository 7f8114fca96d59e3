package monitor

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/gabrielrahbar/TikTokAutoDownloader/internal/database/models"
	"github.com/gabrielrahbar/TikTokAutoDownloader/internal/downloader"
	"github.com/gabrielrahbar/TikTokAutoDownloader/internal/notify"
	"github.com/go-kratos/kratos/v2/log"
)

// ErrNoAccounts is returned when there is nothing to check
var ErrNoAccounts = errors.New("no enabled accounts to monitor")

// AccountStore is the account state the monitor reads and advances
type AccountStore interface {
	ListEnabled(ctx context.Context) ([]models.Account, error)
	AdvanceWatermark(ctx context.Context, username string, timestamp int64, videoID string) error
	RecordCheck(ctx context.Context, username string, downloaded int, at time.Time) error
}

// VideoStore remembers downloaded videos
type VideoStore interface {
	Exists(ctx context.Context, videoID string) (bool, error)
	Insert(ctx context.Context, video *models.Video) (bool, error)
}

// RunStore records monitoring passes
type RunStore interface {
	StartRun(ctx context.Context, run *models.CheckRun) error
	FinishRun(ctx context.Context, run *models.CheckRun) error
}

// Delay is a [Min, Max] range a random pause is drawn from
type Delay struct {
	Min time.Duration
	Max time.Duration
}

type Config struct {
	MaxVideos        int
	BetweenDownloads Delay
	BetweenAccounts  Delay
}

// Options change how a single check behaves
type Options struct {
	// DryRun reports new videos without downloading them
	DryRun bool
	// OnChecked is called by CheckAll after every account
	OnChecked func(Outcome)
}

// Outcome summarises the check of one account
type Outcome struct {
	Account    string
	Listed     int
	New        []downloader.Video
	Downloaded int
	Failed     int
}

// Monitor checks accounts for videos that were not downloaded yet
type Monitor struct {
	cfg      Config
	accounts AccountStore
	videos   VideoStore
	runs     RunStore
	lister   downloader.Lister
	fetcher  downloader.Fetcher
	notifier notify.Notifier
	log      *log.Helper

	trigger chan struct{}
	after   func(time.Duration) <-chan time.Time
	randN   func(n int64) int64
	now     func() time.Time
}

func New(
	cfg Config,
	accounts AccountStore,
	videos VideoStore,
	runs RunStore,
	lister downloader.Lister,
	fetcher downloader.Fetcher,
	notifier notify.Notifier,
	logger log.Logger,
) *Monitor {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &Monitor{
		cfg:      cfg,
		accounts: accounts,
		videos:   videos,
		runs:     runs,
		lister:   lister,
		fetcher:  fetcher,
		notifier: notifier,
		log:      log.NewHelper(log.With(logger, "module", "monitor")),
		trigger:  make(chan struct{}, 1),
		after:    time.After,
		randN:    rand.Int64N,
		now:      time.Now,
	}
}

// CheckAccount downloads the videos of account that are not stored yet and
// newer than its watermark, oldest first.
//
// The watermark only moves past videos that were downloaded together with
// every older new video, so a failed download is retried on the next check.
func (m *Monitor) CheckAccount(ctx context.Context, account models.Account, opts Options) (Outcome, error) {
	out := Outcome{Account: account.Username}

	listed, err := m.lister.ListRecent(ctx, account, m.cfg.MaxVideos)
	if err != nil {
		return out, fmt.Errorf("failed to list videos of @%s: %w", account.Username, err)
	}
	out.Listed = len(listed)

	fresh, err := m.newVideos(ctx, listed, account.LastVideoTimestamp)
	if err != nil {
		return out, err
	}
	out.New = fresh

	m.log.Infow("msg", "checked account", "account", account.Username,
		"listed", len(listed), "new", len(fresh), "watermark", account.LastVideoTimestamp)

	if opts.DryRun {
		return out, nil
	}
	if len(fresh) == 0 {
		return out, m.accounts.RecordCheck(ctx, account.Username, 0, m.now())
	}

	var (
		mark       downloader.Video
		contiguous = true
	)
	for i, video := range fresh {
		if i > 0 {
			if err := m.pause(ctx, m.cfg.BetweenDownloads); err != nil {
				break
			}
		}

		saved, created, err := m.download(ctx, account, video)
		if err != nil {
			contiguous = false
			out.Failed++
			m.reportFailure(ctx, account.Username, video, err)
			if ctx.Err() != nil {
				break
			}
			continue
		}

		if created {
			out.Downloaded++
		}
		if contiguous && saved.Timestamp > mark.Timestamp {
			mark = saved
		}
	}

	// bookkeeping for what was already downloaded survives cancellation
	bg := context.WithoutCancel(ctx)
	if mark.Timestamp > account.LastVideoTimestamp {
		if err := m.accounts.AdvanceWatermark(bg, account.Username, mark.Timestamp, mark.ID); err != nil {
			return out, err
		}
	}
	if err := m.accounts.RecordCheck(bg, account.Username, out.Downloaded, m.now()); err != nil {
		return out, err
	}
	return out, ctx.Err()
}

// newVideos filters listed down to the videos to download, oldest first
func (m *Monitor) newVideos(ctx context.Context, listed []downloader.Video, watermark int64) ([]downloader.Video, error) {
	var fresh []downloader.Video
	for _, video := range listed {
		if video.Timestamp != 0 && video.Timestamp <= watermark {
			continue
		}

		stored, err := m.videos.Exists(ctx, video.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check video %s: %w", video.ID, err)
		}
		if !stored {
			fresh = append(fresh, video)
		}
	}

	slices.SortStableFunc(fresh, func(a, b downloader.Video) int {
		return cmp.Compare(a.Timestamp, b.Timestamp)
	})
	return fresh, nil
}

func (m *Monitor) download(ctx context.Context, account models.Account, video downloader.Video) (downloader.Video, bool, error) {
	m.log.Infow("msg", "downloading", "account", account.Username, "id", video.ID, "title", notify.ShortTitle(video.Title))

	res, err := m.fetcher.Download(ctx, video)
	if err != nil {
		return video, false, err
	}

	saved := res.Video
	if saved.ID == "" {
		saved.ID = video.ID
	}
	if saved.Timestamp == 0 {
		saved.Timestamp = video.Timestamp
	}

	created, err := m.videos.Insert(context.WithoutCancel(ctx), &models.Video{
		ID:              saved.ID,
		Account:         account.Username,
		URL:             saved.URL,
		Title:           saved.Title,
		Author:          saved.Author,
		UploadDate:      saved.UploadDate,
		UploadTimestamp: saved.Timestamp,
		Likes:           saved.Likes,
		Views:           saved.Views,
		FilePath:        res.FilePath,
		DownloadedAt:    m.now(),
	})
	if err != nil {
		return saved, false, fmt.Errorf("failed to record video %s: %w", saved.ID, err)
	}

	m.log.Infow("msg", "downloaded", "account", account.Username, "id", saved.ID, "path", res.FilePath)
	if created {
		if err := m.notifier.VideoDownloaded(ctx, account.Username, saved); err != nil {
			m.log.Warnf("failed to notify about %s: %v", saved.ID, err)
		}
	}
	return saved, created, nil
}

func (m *Monitor) reportFailure(ctx context.Context, account string, video downloader.Video, err error) {
	classified := downloader.Classify(err)
	if classified.Kind == downloader.KindCancelled {
		m.log.Infof("download of %s cancelled", video.ID)
		return
	}

	m.log.Errorw("msg", "download failed", "account", account, "id", video.ID,
		"kind", classified.Kind.String(), "error", err)
	msg := fmt.Sprintf("@%s: %s\n%s", account, classified.Message, video.URL)
	if err := m.notifier.Error(ctx, msg); err != nil {
		m.log.Warnf("failed to send error notification: %v", err)
	}
}

// pause sleeps for a random duration within d or until ctx is done
func (m *Monitor) pause(ctx context.Context, d Delay) error {
	return m.wait(ctx, m.between(d), nil)
}

func (m *Monitor) between(d Delay) time.Duration {
	if d.Max <= d.Min {
		return d.Min
	}
	return d.Min + time.Duration(m.randN(int64(d.Max-d.Min)+1))
}

// wait sleeps for d, returning early when a trigger arrives or ctx is done
func (m *Monitor) wait(ctx context.Context, d time.Duration, trigger <-chan struct{}) error {
	if err := ctx.Err(); err != nil || d <= 0 {
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-trigger:
		return nil
	case <-m.after(d):
		return nil
	}
}
