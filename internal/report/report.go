package report

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/gabrielrahbar/TikTokAutoDownloader/internal/database/models"
	"github.com/gabrielrahbar/TikTokAutoDownloader/internal/database/repository"
	"github.com/gabrielrahbar/TikTokAutoDownloader/internal/monitor"
	"github.com/gabrielrahbar/TikTokAutoDownloader/internal/notify"
)

const (
	topAuthors   = 10
	statsAuthors = 5
	days         = 7
	recentVideos = 10
	ruleWidth    = 60
)

var (
	heading = color.New(color.FgHiCyan, color.Bold)
	section = color.New(color.FgHiWhite, color.Bold)
	good    = color.New(color.FgHiGreen)
	muted   = color.New(color.FgWhite, color.Italic)
	warning = color.New(color.FgYellow)
	failure = color.New(color.FgHiRed, color.Bold)
)

// StatsSource is the read side of the statistics store
type StatsSource interface {
	Summary(ctx context.Context) (*repository.Summary, error)
	TopAuthors(ctx context.Context, limit int) ([]repository.AuthorCount, error)
	ByDay(ctx context.Context, days int) ([]repository.DayCount, error)
	LastRun(ctx context.Context) (*models.CheckRun, error)
}

// VideoSource lists downloaded videos
type VideoSource interface {
	Recent(ctx context.Context, limit int) ([]models.Video, error)
}

// Snapshot is everything the reports print
type Snapshot struct {
	Summary *repository.Summary
	Authors []repository.AuthorCount
	Days    []repository.DayCount
	Recent  []models.Video
	LastRun *models.CheckRun
}

// Collect reads a Snapshot from the store
func Collect(ctx context.Context, stats StatsSource, videos VideoSource) (*Snapshot, error) {
	var (
		s   Snapshot
		err error
	)

	if s.Summary, err = stats.Summary(ctx); err != nil {
		return nil, err
	}
	if s.Authors, err = stats.TopAuthors(ctx, topAuthors); err != nil {
		return nil, err
	}
	if s.Days, err = stats.ByDay(ctx, days); err != nil {
		return nil, err
	}
	if s.LastRun, err = stats.LastRun(ctx); err != nil {
		return nil, err
	}
	if s.Recent, err = videos.Recent(ctx, recentVideos); err != nil {
		return nil, err
	}
	return &s, nil
}

// Stats prints the short summary: totals, top authors and the last run
func Stats(w io.Writer, s *Snapshot) {
	banner(w, "Monitor Statistics")

	fmt.Fprintf(w, "\n📊 Total videos downloaded: %s\n", humanize.Comma(s.Summary.Videos))
	fmt.Fprintf(w, "👥 Monitored accounts: %d\n", s.Summary.EnabledAccounts)

	if len(s.Authors) > 0 {
		section.Fprintln(w, "\n🏆 Top Authors:")
		for i, a := range s.Authors {
			if i == statsAuthors {
				break
			}
			fmt.Fprintf(w, "   %d. @%s: %s videos\n", i+1, a.Author, humanize.Comma(a.Videos))
		}
	}

	fmt.Fprintln(w)
	Run(w, s.LastRun)
	fmt.Fprintln(w)
}

// Full prints the detailed report of the library
func Full(w io.Writer, s *Snapshot) {
	banner(w, "TikTok Monitor Report")

	title(w, "📊 GENERAL STATISTICS")
	fmt.Fprintf(w, "Downloaded videos:  %s\n", humanize.Comma(s.Summary.Videos))
	fmt.Fprintf(w, "Total views:        %s\n", orNA(s.Summary.Views))
	fmt.Fprintf(w, "Total likes:        %s\n", orNA(s.Summary.Likes))

	title(w, "👥 BY AUTHOR")
	if len(s.Authors) == 0 {
		muted.Fprintln(w, "no videos yet")
	}
	for _, a := range s.Authors {
		fmt.Fprintf(w, "@%-20s %3d videos  |  %10s views  |  %8s likes\n",
			a.Author, a.Videos, humanize.Comma(a.Views), humanize.Comma(a.Likes))
	}

	title(w, "📅 LAST 7 DAYS")
	for _, d := range s.Days {
		fmt.Fprintf(w, "%s  →  %d videos\n", d.Day, d.Videos)
	}

	title(w, "🆕 LAST 10 VIDEOS")
	for _, v := range s.Recent {
		fmt.Fprintf(w, "@%-15s | %-35s | %s\n",
			v.Author, truncate(v.Title, 35), v.DownloadedAt.Local().Format("2006-01-02 15:04"))
	}

	fmt.Fprintln(w)
}

// Accounts prints the monitored accounts table
func Accounts(w io.Writer, accounts []models.AccountSummary) {
	if len(accounts) == 0 {
		warning.Fprintln(w, "No monitored accounts. Add one with: tiktok-monitor add <username>")
		return
	}

	section.Fprintf(w, "\n%-4s %-22s %-8s %-16s %-18s %8s %8s\n",
		"", "ACCOUNT", "PLATFORM", "LAST CHECK", "LAST VIDEO", "TOTAL", "STORED")
	fmt.Fprintln(w, strings.Repeat("─", ruleWidth+20))

	for _, a := range accounts {
		status := good.Sprint("ON ")
		if !a.Enabled {
			status = muted.Sprint("OFF")
		}

		lastCheck := "never"
		if a.Checked() {
			lastCheck = humanize.Time(a.LastCheck)
		}

		lastVideo := "-"
		if a.LastVideoTimestamp > 0 {
			lastVideo = time.Unix(a.LastVideoTimestamp, 0).Local().Format("2006-01-02 15:04")
		}

		fmt.Fprintf(w, "%s  @%-21s %-8s %-16s %-18s %8s %8s\n",
			status, a.Username, a.Platform, lastCheck, lastVideo,
			humanize.Comma(a.TotalVideos), humanize.Comma(a.StoredVideos))
	}
	fmt.Fprintf(w, "\nTotal: %d accounts\n", len(accounts))
}

// Outcome prints the result of checking one account
func Outcome(w io.Writer, out monitor.Outcome, dryRun bool) {
	switch {
	case len(out.New) == 0:
		muted.Fprintf(w, "@%s: no new videos (%d listed)\n", out.Account, out.Listed)
		return
	case dryRun:
		warning.Fprintf(w, "@%s: %d new videos (dry run)\n", out.Account, len(out.New))
		for _, v := range out.New {
			fmt.Fprintf(w, "   • %s  %s\n", notify.ShortTitle(v.Title), v.URL)
		}
		return
	}

	good.Fprintf(w, "@%s: %d/%d new videos downloaded\n", out.Account, out.Downloaded, len(out.New))
	if out.Failed > 0 {
		failure.Fprintf(w, "@%s: %d downloads failed, they will be retried next check\n", out.Account, out.Failed)
	}
}

// Run prints the totals of a monitoring pass
func Run(w io.Writer, run *models.CheckRun) {
	switch {
	case run == nil:
		muted.Fprintln(w, "No checks recorded yet")
	case !run.Finished():
		warning.Fprintf(w, "Check running since %s\n", humanize.Time(run.StartedAt))
	default:
		c := good
		if run.Failures > 0 {
			c = warning
		}
		c.Fprintf(w, "Last check %s: %d accounts, %d new, %d downloaded, %d failed (took %s)\n",
			humanize.Time(run.FinishedAt), run.AccountsChecked, run.VideosFound,
			run.VideosDownloaded, run.Failures, run.FinishedAt.Sub(run.StartedAt).Round(time.Second))
	}
}

func banner(w io.Writer, text string) {
	line := strings.Repeat("═", ruleWidth)
	heading.Fprintf(w, "\n╔%s╗\n║%s║\n╚%s╝\n", line, center(text, ruleWidth), line)
}

func title(w io.Writer, text string) {
	section.Fprintf(w, "\n%s\n", text)
	fmt.Fprintln(w, strings.Repeat("─", ruleWidth))
}

func center(text string, width int) string {
	n := len([]rune(text))
	if n >= width {
		return text
	}
	left := (width - n) / 2
	return strings.Repeat(" ", left) + text + strings.Repeat(" ", width-n-left)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func orNA(n int64) string {
	if n == 0 {
		return "N/A"
	}
	return humanize.Comma(n)
}
