package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gabrielrahbar/TikTokAutoDownloader/internal/bot"
	"github.com/gabrielrahbar/TikTokAutoDownloader/internal/database/models"
	"github.com/gabrielrahbar/TikTokAutoDownloader/internal/database/repository"
	"github.com/go-kratos/kratos/v2/log"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// AccountsHandler serves /list, /add, /remove and /enable
type AccountsHandler struct {
	accounts AccountStore
	log      *log.Helper
}

func NewAccountsHandler(accounts AccountStore, logger log.Logger) *AccountsHandler {
	return &AccountsHandler{
		accounts: accounts,
		log:      log.NewHelper(log.With(logger, "module", "handler/accounts")),
	}
}

func (h *AccountsHandler) CanHandle(update tgbotapi.Update) bool {
	return isCommand(update, "list", "add", "remove", "enable")
}

func (h *AccountsHandler) Handle(ctx context.Context, sender bot.Sender, update tgbotapi.Update) {
	command := update.Message.Command()
	args := strings.Fields(update.Message.CommandArguments())

	var text string
	if command == "list" {
		text = h.list(ctx)
	} else {
		text = h.mutate(ctx, command, args)
	}

	if err := reply(sender, update, text); err != nil {
		h.log.Errorf("failed to send /%s reply: %v", command, err)
	}
}

func (h *AccountsHandler) list(ctx context.Context) string {
	accounts, err := h.accounts.List(ctx, true)
	if err != nil {
		h.log.Errorf("failed to list accounts: %v", err)
		return "❌ Failed to load accounts"
	}
	return formatAccounts(accounts)
}

func (h *AccountsHandler) mutate(ctx context.Context, command string, args []string) string {
	if len(args) == 0 {
		return fmt.Sprintf("Usage: /%s <username>", command)
	}

	username := models.NormalizeUsername(args[0])
	if username == "" {
		return "❌ Invalid username"
	}

	var err error
	switch command {
	case "add":
		platform := models.PlatformTikTok
		if len(args) > 1 {
			platform = models.Platform(strings.ToLower(args[1]))
		}
		if !models.ValidPlatform(platform) {
			return fmt.Sprintf("❌ Unknown platform %q", platform)
		}

		var created bool
		created, err = h.accounts.Add(ctx, username, platform)
		if err == nil && !created {
			return fmt.Sprintf("ℹ️ @%s is already monitored", username)
		}
		if err == nil {
			h.log.Infof("account added: %s", username)
			return fmt.Sprintf("✅ Now monitoring @%s", username)
		}
	case "remove":
		if err = h.accounts.Disable(ctx, username); err == nil {
			h.log.Infof("account disabled: %s", username)
			return fmt.Sprintf("⏸ Stopped monitoring @%s", username)
		}
	case "enable":
		if err = h.accounts.Enable(ctx, username); err == nil {
			h.log.Infof("account enabled: %s", username)
			return fmt.Sprintf("▶️ Resumed monitoring @%s", username)
		}
	}

	if errors.Is(err, repository.ErrAccountNotFound) {
		return fmt.Sprintf("❌ @%s is not in the list", username)
	}
	h.log.Errorf("failed to %s %s: %v", command, username, err)
	return "❌ Something went wrong, check the logs"
}

func formatAccounts(accounts []models.AccountSummary) string {
	if len(accounts) == 0 {
		return "📋 No monitored accounts. Add one with /add <username>"
	}

	var b strings.Builder
	b.WriteString("📋 Monitored accounts\n")
	for _, a := range accounts {
		status := "✅"
		if !a.Enabled {
			status = "⏸"
		}

		lastCheck := "never"
		if a.Checked() {
			lastCheck = humanize.Time(a.LastCheck)
		}

		fmt.Fprintf(&b, "\n%s @%s (%s) · %s videos · checked %s",
			status, a.Username, a.Platform, humanize.Comma(a.TotalVideos), lastCheck)
	}
	fmt.Fprintf(&b, "\n\nTotal: %d accounts", len(accounts))
	return b.String()
}
