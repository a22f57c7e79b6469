// Package telegram adapts the Telegram Bot API to the bot's inbound and
// outbound message types.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/hilthontt/todoroom/internal/domain"
)

// ErrRecipientUnreachable is returned when Telegram refuses delivery to a
// user, for example after the user blocked the bot.
var ErrRecipientUnreachable = errors.New("recipient unreachable")

type Options struct {
	Token       string
	PollTimeout int
	Debug       bool
	// Workers is the number of handler goroutines. Events of one user are
	// always handled by the same worker, in arrival order.
	Workers int
	// DrainTimeout bounds how long queued events keep being handled after
	// shutdown starts.
	DrainTimeout time.Duration
}

// HandlerFunc processes one inbound event.
type HandlerFunc func(ctx context.Context, in domain.Inbound)

type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

type Transport struct {
	bot          botAPI
	logger       *zap.Logger
	pollTimeout  int
	workers      int
	drainTimeout time.Duration
}

func New(opts Options, logger *zap.Logger) (*Transport, error) {
	bot, err := tgbotapi.NewBotAPI(opts.Token)
	if err != nil {
		return nil, fmt.Errorf("connect to telegram: %w", err)
	}
	bot.Debug = opts.Debug

	logger.Info("authorized on telegram", zap.String("bot", bot.Self.UserName))
	return newTransport(bot, logger, opts), nil
}

func newTransport(bot botAPI, logger *zap.Logger, opts Options) *Transport {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.DrainTimeout <= 0 {
		opts.DrainTimeout = 10 * time.Second
	}
	return &Transport{
		bot:          bot,
		logger:       logger,
		pollTimeout:  opts.PollTimeout,
		workers:      opts.Workers,
		drainTimeout: opts.DrainTimeout,
	}
}

// Run long-polls for updates and dispatches them to handle until ctx is
// cancelled. Events already queued are still handled with a live context,
// for at most the drain timeout, before Run returns.
func (t *Transport) Run(ctx context.Context, handle HandlerFunc) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = t.pollTimeout
	updates := t.bot.GetUpdatesChan(u)

	handleCtx, stopHandlers := context.WithCancel(context.WithoutCancel(ctx))

	queues := make([]chan domain.Inbound, t.workers)
	var wg sync.WaitGroup
	for i := range queues {
		queues[i] = make(chan domain.Inbound, 64)
		wg.Add(1)
		go func(queue <-chan domain.Inbound) {
			defer wg.Done()
			for in := range queue {
				handle(handleCtx, in)
			}
		}(queues[i])
	}

	defer func() {
		t.bot.StopReceivingUpdates()
		for _, q := range queues {
			close(q)
		}
		deadline := time.AfterFunc(t.drainTimeout, func() {
			t.logger.Warn("drain timeout reached, cancelling pending handlers")
			stopHandlers()
		})
		wg.Wait()
		deadline.Stop()
		stopHandlers()
	}()

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("telegram transport stopping")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			in, ok := t.toInbound(update)
			if !ok {
				continue
			}
			// Workers keep draining until the queues are closed.
			queues[int(uint64(in.UserID)%uint64(len(queues)))] <- in
		}
	}
}

func (t *Transport) toInbound(update tgbotapi.Update) (domain.Inbound, bool) {
	switch {
	case update.CallbackQuery != nil:
		cb := update.CallbackQuery
		if cb.From == nil {
			return domain.Inbound{}, false
		}
		if _, err := t.bot.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
			t.logger.Debug("failed to answer callback", zap.Error(err))
		}
		return domain.Inbound{
			UserID:      cb.From.ID,
			DisplayName: displayName(cb.From),
			Text:        cb.Data,
			Callback:    true,
		}, true

	case update.Message != nil:
		msg := update.Message
		if msg.From == nil {
			return domain.Inbound{}, false
		}
		if msg.Chat != nil && !msg.Chat.IsPrivate() {
			return domain.Inbound{}, false
		}
		// Stickers, photos and the like arrive with empty text and are
		// rejected by the dialog.
		return domain.Inbound{
			UserID:      msg.From.ID,
			DisplayName: displayName(msg.From),
			Text:        msg.Text,
		}, true
	}
	return domain.Inbound{}, false
}

// Send delivers msg to the private chat of userID.
func (t *Transport) Send(ctx context.Context, userID int64, msg domain.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	cfg := tgbotapi.NewMessage(userID, msg.Text)
	if len(msg.Keyboard) > 0 {
		cfg.ReplyMarkup = keyboard(msg.Keyboard)
	}

	done := make(chan error, 1)
	go func() {
		_, err := t.bot.Send(cfg)
		done <- err
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return classify(err)
	}
}

func keyboard(rows [][]domain.Button) tgbotapi.InlineKeyboardMarkup {
	markup := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Data))
		}
		markup = append(markup, tgbotapi.NewInlineKeyboardRow(buttons...))
	}
	return tgbotapi.NewInlineKeyboardMarkup(markup...)
}

func classify(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) && (apiErr.Code == 403 || apiErr.Code == 400) {
		return fmt.Errorf("%w: %s", ErrRecipientUnreachable, apiErr.Message)
	}
	return err
}

func displayName(u *tgbotapi.User) string {
	name := strings.TrimSpace(strings.Join([]string{u.FirstName, u.LastName}, " "))
	if name != "" {
		return name
	}
	if u.UserName != "" {
		return u.UserName
	}
	return fmt.Sprintf("user %d", u.ID)
}
