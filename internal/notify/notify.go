package notify

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gabrielrahbar/TikTokAutoDownloader/internal/downloader"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const maxTitleRunes = 50

// Notifier tells the user about monitor activity
type Notifier interface {
	VideoDownloaded(ctx context.Context, account string, video downloader.Video) error
	Error(ctx context.Context, message string) error
}

// Nop discards notifications
type Nop struct{}

func (Nop) VideoDownloaded(context.Context, string, downloader.Video) error {
	return nil
}

func (Nop) Error(context.Context, string) error {
	return nil
}

// Sender is the part of the Telegram API used to deliver messages
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram delivers notifications to a single chat
type Telegram struct {
	sender Sender
	chatID int64
}

func NewTelegram(sender Sender, chatID int64) *Telegram {
	return &Telegram{sender: sender, chatID: chatID}
}

// Dial connects to the Bot API with a bounded request time
func Dial(token string, timeout time.Duration) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, &http.Client{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to telegram: %w", err)
	}
	return api, nil
}

func (t *Telegram) VideoDownloaded(ctx context.Context, account string, video downloader.Video) error {
	return t.send(ctx, FormatVideo(account, video))
}

func (t *Telegram) Error(ctx context.Context, message string) error {
	return t.send(ctx, "⚠️ TikTok Monitor Error\n"+message)
}

func (t *Telegram) send(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := t.sender.Send(msg); err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	return nil
}

// FormatVideo renders the new video message
func FormatVideo(account string, video downloader.Video) string {
	var b strings.Builder
	b.WriteString("🎬 New Video Downloaded!\n")
	fmt.Fprintf(&b, "@%s - %s", account, ShortTitle(video.Title))

	if video.Views > 0 {
		fmt.Fprintf(&b, "\n👁️ %s views", Compact(video.Views))
	}
	if video.Likes > 0 {
		fmt.Fprintf(&b, "\n❤️ %s likes", Compact(video.Likes))
	}
	if video.URL != "" {
		b.WriteString("\n" + video.URL)
	}
	return b.String()
}

// ShortTitle truncates title to 50 characters
func ShortTitle(title string) string {
	runes := []rune(title)
	if len(runes) <= maxTitleRunes {
		return title
	}
	return string(runes[:maxTitleRunes]) + "..."
}

// Compact formats a count as 999, 1.5k or 1.2M
func Compact(n int64) string {
	return strings.ReplaceAll(humanize.SIWithDigits(float64(n), 1, ""), " ", "")
}
