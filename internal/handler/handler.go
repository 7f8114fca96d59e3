package handler

import (
	"context"

	"github.com/gabrielrahbar/TikTokAutoDownloader/internal/bot"
	"github.com/gabrielrahbar/TikTokAutoDownloader/internal/database/models"
	"github.com/gabrielrahbar/TikTokAutoDownloader/internal/database/repository"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// AccountStore manages the monitored accounts
type AccountStore interface {
	Add(ctx context.Context, username string, platform models.Platform) (bool, error)
	Disable(ctx context.Context, username string) error
	Enable(ctx context.Context, username string) error
	List(ctx context.Context, includeDisabled bool) ([]models.AccountSummary, error)
}

// StatsStore provides library totals
type StatsStore interface {
	Summary(ctx context.Context) (*repository.Summary, error)
	LastRun(ctx context.Context) (*models.CheckRun, error)
}

// Trigger requests an immediate monitoring pass
type Trigger interface {
	Trigger() bool
}

func isCommand(update tgbotapi.Update, names ...string) bool {
	if update.Message == nil || !update.Message.IsCommand() {
		return false
	}
	cmd := update.Message.Command()
	for _, name := range names {
		if cmd == name {
			return true
		}
	}
	return false
}

func reply(sender bot.Sender, update tgbotapi.Update, text string) error {
	msg := tgbotapi.NewMessage(update.Message.Chat.ID, text)
	msg.DisableWebPagePreview = true
	_, err := sender.Send(msg)
	return err
}
