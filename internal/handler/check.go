package handler

import (
	"context"

	"github.com/gabrielrahbar/TikTokAutoDownloader/internal/bot"
	"github.com/go-kratos/kratos/v2/log"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// CheckHandler asks the watcher for an immediate pass
type CheckHandler struct {
	trigger Trigger
	log     *log.Helper
}

func NewCheckHandler(trigger Trigger, logger log.Logger) *CheckHandler {
	return &CheckHandler{
		trigger: trigger,
		log:     log.NewHelper(log.With(logger, "module", "handler/check")),
	}
}

func (h *CheckHandler) CanHandle(update tgbotapi.Update) bool {
	return isCommand(update, "check")
}

func (h *CheckHandler) Handle(_ context.Context, sender bot.Sender, update tgbotapi.Update) {
	text := "⏳ A check is already scheduled"
	if h.trigger.Trigger() {
		h.log.Info("check requested from chat")
		text = "🔄 Checking all accounts now"
	}

	if err := reply(sender, update, text); err != nil {
		h.log.Errorf("failed to send message: %v", err)
	}
}
