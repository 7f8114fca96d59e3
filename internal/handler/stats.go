package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gabrielrahbar/TikTokAutoDownloader/internal/bot"
	"github.com/gabrielrahbar/TikTokAutoDownloader/internal/database/models"
	"github.com/gabrielrahbar/TikTokAutoDownloader/internal/database/repository"
	"github.com/go-kratos/kratos/v2/log"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type StatsHandler struct {
	stats StatsStore
	log   *log.Helper
}

func NewStatsHandler(stats StatsStore, logger log.Logger) *StatsHandler {
	return &StatsHandler{
		stats: stats,
		log:   log.NewHelper(log.With(logger, "module", "handler/stats")),
	}
}

func (h *StatsHandler) CanHandle(update tgbotapi.Update) bool {
	return isCommand(update, "stats")
}

func (h *StatsHandler) Handle(ctx context.Context, sender bot.Sender, update tgbotapi.Update) {
	text := "❌ Failed to load statistics"

	summary, err := h.stats.Summary(ctx)
	if err != nil {
		h.log.Errorf("failed to get summary: %v", err)
	} else {
		run, err := h.stats.LastRun(ctx)
		if err != nil {
			h.log.Errorf("failed to get last run: %v", err)
		}
		text = formatStats(summary, run)
	}

	if err := reply(sender, update, text); err != nil {
		h.log.Errorf("failed to send message: %v", err)
	}
}

func formatStats(summary *repository.Summary, run *models.CheckRun) string {
	var b strings.Builder
	b.WriteString("📊 Statistics\n")
	fmt.Fprintf(&b, "\nVideos: %s", humanize.Comma(summary.Videos))
	fmt.Fprintf(&b, "\nViews: %s", humanize.Comma(summary.Views))
	fmt.Fprintf(&b, "\nLikes: %s", humanize.Comma(summary.Likes))
	fmt.Fprintf(&b, "\nMonitored accounts: %d", summary.EnabledAccounts)

	switch {
	case run == nil:
		b.WriteString("\n\nNo checks yet")
	case !run.Finished():
		fmt.Fprintf(&b, "\n\nCheck running since %s", humanize.Time(run.StartedAt))
	default:
		fmt.Fprintf(&b, "\n\nLast check %s: %d accounts, %d new, %d downloaded, %d failed",
			humanize.Time(run.FinishedAt), run.AccountsChecked, run.VideosFound, run.VideosDownloaded, run.Failures)
	}
	return b.String()
}
