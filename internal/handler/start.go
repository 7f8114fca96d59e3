package handler

import (
	"context"

	"github.com/gabrielrahbar/TikTokAutoDownloader/internal/bot"
	"github.com/go-kratos/kratos/v2/log"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const helpText = `Commands:
/list - monitored accounts
/add <user> [tiktok|youtube] - start monitoring
/remove <user> - stop monitoring (history is kept)
/enable <user> - resume monitoring
/stats - download statistics
/check - run a check now
Send a video link to download it once.`

type StartHandler struct {
	log *log.Helper
}

func NewStartHandler(logger log.Logger) *StartHandler {
	return &StartHandler{
		log: log.NewHelper(log.With(logger, "module", "handler/start")),
	}
}

func (h *StartHandler) CanHandle(update tgbotapi.Update) bool {
	return isCommand(update, "start", "help")
}

func (h *StartHandler) Handle(_ context.Context, sender bot.Sender, update tgbotapi.Update) {
	var userName string
	if from := update.Message.From; from != nil {
		userName = getUserName(from.FirstName, from.UserName)
	}

	text := helpText
	if update.Message.Command() == "start" {
		text = formatGreeting(userName) + "\n\n" + helpText
	}

	if err := reply(sender, update, text); err != nil {
		h.log.Errorf("failed to send message: %v", err)
	}
}

func getUserName(firstName, userName string) string {
	if firstName != "" {
		return firstName
	}
	return userName
}

func formatGreeting(userName string) string {
	if userName == "" {
		return "Hi! I keep an eye on your accounts and download new videos. 👋"
	}
	return "Hi, " + userName + "! I keep an eye on your accounts and download new videos. 👋"
}
