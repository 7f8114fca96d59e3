package handler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/gabrielrahbar/TikTokAutoDownloader/internal/bot"
	"github.com/gabrielrahbar/TikTokAutoDownloader/internal/downloader"
	"github.com/go-kratos/kratos/v2/log"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Bot API uploads are limited to 50 MB
const maxUploadSize = 50 * 1024 * 1024

var (
	youtubeID = regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/|youtube\.com/shorts/)([a-zA-Z0-9_-]{11})`)
	tiktokURL = regexp.MustCompile(`https?://(?:www\.|vm\.|vt\.|m\.)?tiktok\.com/[^\s]+`)
)

// LinkHandler downloads a single video sent as a link
type LinkHandler struct {
	fetcher downloader.Fetcher
	log     *log.Helper
}

func NewLinkHandler(fetcher downloader.Fetcher, logger log.Logger) *LinkHandler {
	return &LinkHandler{
		fetcher: fetcher,
		log:     log.NewHelper(log.With(logger, "module", "handler/link")),
	}
}

func (h *LinkHandler) CanHandle(update tgbotapi.Update) bool {
	return update.Message != nil && !update.Message.IsCommand() && extractVideoURL(update.Message.Text) != ""
}

func (h *LinkHandler) Handle(ctx context.Context, sender bot.Sender, update tgbotapi.Update) {
	chatID := update.Message.Chat.ID
	url := extractVideoURL(update.Message.Text)

	sender.Send(tgbotapi.NewChatAction(chatID, tgbotapi.ChatUploadVideo))

	res, err := h.fetcher.Download(ctx, downloader.Video{URL: url})
	if err != nil {
		h.log.Errorf("failed to download %s: %v", url, err)
		if err := reply(sender, update, formatFailure(err)); err != nil {
			h.log.Errorf("failed to send message: %v", err)
		}
		return
	}

	if info, err := os.Stat(res.FilePath); err == nil && info.Size() <= maxUploadSize {
		video := tgbotapi.NewVideo(chatID, tgbotapi.FilePath(res.FilePath))
		video.Caption = res.Video.Title
		if _, err := sender.Send(video); err == nil {
			return
		}
		h.log.Warnf("failed to send %s, replying with the path", res.FilePath)
	}

	if err := reply(sender, update, "✅ Saved to "+res.FilePath); err != nil {
		h.log.Errorf("failed to send message: %v", err)
	}
}

func formatFailure(err error) string {
	var classified *downloader.Error
	if !errors.As(err, &classified) {
		return "❌ Download failed: " + err.Error()
	}

	var b strings.Builder
	b.WriteString("❌ " + classified.Message)
	for i, s := range classified.Solutions() {
		fmt.Fprintf(&b, "\n%d. %s", i+1, s)
	}
	return b.String()
}

func extractVideoURL(text string) string {
	if m := tiktokURL.FindString(text); m != "" {
		return m
	}
	if id := extractYouTubeID(text); id != "" {
		return "https://www.youtube.com/watch?v=" + id
	}
	return ""
}

func extractYouTubeID(text string) string {
	matches := youtubeID.FindStringSubmatch(text)
	if len(matches) > 1 {
		return matches[1]
	}
	return ""
}
