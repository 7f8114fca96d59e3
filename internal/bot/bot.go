package bot

import (
	"context"
	"sync"

	"github.com/go-kratos/kratos/v2/log"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender delivers outgoing messages
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Handler interface {
	CanHandle(update tgbotapi.Update) bool
	Handle(ctx context.Context, sender Sender, update tgbotapi.Update)
}

// Bot serves control commands from a single chat
type Bot struct {
	api      *tgbotapi.BotAPI
	sender   Sender
	chatID   int64
	handlers []Handler
	log      *log.Helper

	wg sync.WaitGroup
}

func New(token string, chatID int64, logger log.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	b := newBot(api, chatID, logger)
	b.api = api
	b.log.Infof("authorized on account %s", api.Self.UserName)
	return b, nil
}

func newBot(sender Sender, chatID int64, logger log.Logger) *Bot {
	return &Bot{
		sender:   sender,
		chatID:   chatID,
		handlers: make([]Handler, 0),
		log:      log.NewHelper(log.With(logger, "module", "bot")),
	}
}

// Sender returns the API client so notifications can share it
func (b *Bot) Sender() Sender {
	return b.sender
}

func (b *Bot) RegisterHandler(h Handler) {
	b.handlers = append(b.handlers, h)
	b.log.Debugf("registered handler: %T", h)
}

// Run long-polls for updates until ctx is done
func (b *Bot) Run(ctx context.Context) {
	b.log.Infof("starting bot with %d handlers", len(b.handlers))

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()
	defer b.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			b.log.Info("bot stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.dispatch(ctx, update)
		}
	}
}

func (b *Bot) authorized(update tgbotapi.Update) bool {
	chat := update.FromChat()
	return chat != nil && chat.ID == b.chatID
}

// dispatch starts the first handler accepting update in its own goroutine and
// reports whether one did. A slow download never holds up other commands.
func (b *Bot) dispatch(ctx context.Context, update tgbotapi.Update) bool {
	if update.Message == nil && update.CallbackQuery == nil {
		b.log.Debug("skipping update: no message or callback")
		return false
	}

	if !b.authorized(update) {
		if chat := update.FromChat(); chat != nil {
			b.log.Warnf("ignoring update from chat %d", chat.ID)
		}
		return false
	}

	if update.Message != nil {
		b.log.Infof("message in chat %d: %s", update.Message.Chat.ID, update.Message.Text)
	}

	for _, handler := range b.handlers {
		if handler.CanHandle(update) {
			b.log.Debugf("handling with: %T", handler)
			b.wg.Add(1)
			go func() {
				defer b.wg.Done()
				handler.Handle(ctx, b.sender, update)
			}()
			return true
		}
	}

	b.log.Debug("no handler found for update")
	return false
}
