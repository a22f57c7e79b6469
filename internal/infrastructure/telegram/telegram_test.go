package telegram

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hilthontt/todoroom/internal/domain"
)

type fakeBot struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	sendErr  error
	updates  chan tgbotapi.Update
	stopped  bool
}

func newFakeBot() *fakeBot {
	return &fakeBot{updates: make(chan tgbotapi.Update, 16)}
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, c)
	return tgbotapi.Message{}, b.sendErr
}

func (b *fakeBot) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = append(b.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (b *fakeBot) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return b.updates
}

func (b *fakeBot) StopReceivingUpdates() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopped = true
}

func TestTransport_Send(t *testing.T) {
	bot := newFakeBot()
	tr := newTransport(bot, zap.NewNop(), Options{})

	err := tr.Send(context.Background(), 42, domain.Message{
		Text: "Pick a category",
		Keyboard: [][]domain.Button{
			{{Label: "Games", Data: "cat:game"}, {Label: "Media", Data: "cat:media"}},
		},
	})
	require.NoError(t, err)

	require.Len(t, bot.sent, 1)
	msg, ok := bot.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, int64(42), msg.ChatID)
	assert.Equal(t, "Pick a category", msg.Text)

	markup, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, markup.InlineKeyboard, 1)
	require.Len(t, markup.InlineKeyboard[0], 2)
	assert.Equal(t, "Media", markup.InlineKeyboard[0][1].Text)
	require.NotNil(t, markup.InlineKeyboard[0][1].CallbackData)
	assert.Equal(t, "cat:media", *markup.InlineKeyboard[0][1].CallbackData)
}

func TestTransport_Send_Blocked(t *testing.T) {
	bot := newFakeBot()
	bot.sendErr = &tgbotapi.Error{Code: 403, Message: "Forbidden: bot was blocked by the user"}
	tr := newTransport(bot, zap.NewNop(), Options{})

	err := tr.Send(context.Background(), 42, domain.Message{Text: "hi"})
	assert.ErrorIs(t, err, ErrRecipientUnreachable)

	bot.sendErr = errors.New("network down")
	err = tr.Send(context.Background(), 42, domain.Message{Text: "hi"})
	assert.EqualError(t, err, "network down")
}

func TestTransport_Send_CancelledContext(t *testing.T) {
	tr := newTransport(newFakeBot(), zap.NewNop(), Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, tr.Send(ctx, 1, domain.Message{Text: "hi"}), context.Canceled)
}

func TestTransport_Run(t *testing.T) {
	bot := newFakeBot()
	tr := newTransport(bot, zap.NewNop(), Options{Workers: 2})

	private := &tgbotapi.Chat{ID: 7, Type: "private"}
	bot.updates <- tgbotapi.Update{Message: &tgbotapi.Message{
		From: &tgbotapi.User{ID: 7, FirstName: "Ann"},
		Chat: private,
		Text: "/start",
	}}
	bot.updates <- tgbotapi.Update{Message: &tgbotapi.Message{
		From: &tgbotapi.User{ID: 8, FirstName: "Group"},
		Chat: &tgbotapi.Chat{ID: -100, Type: "group"},
		Text: "/start",
	}}
	bot.updates <- tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:   "cb1",
		From: &tgbotapi.User{ID: 7, UserName: "ann"},
		Data: "cat:game",
	}}

	ctx, cancel := context.WithCancel(context.Background())
	var mu sync.Mutex
	var got []domain.Inbound
	done := make(chan error, 1)
	go func() {
		done <- tr.Run(ctx, func(ctx context.Context, in domain.Inbound) {
			mu.Lock()
			defer mu.Unlock()
			got = append(got, in)
		})
	}()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 2
	}, time.Second, 10*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	assert.Equal(t, domain.Inbound{UserID: 7, DisplayName: "Ann", Text: "/start"}, got[0])
	assert.Equal(t, domain.Inbound{UserID: 7, DisplayName: "ann", Text: "cat:game", Callback: true}, got[1])
	assert.True(t, bot.stopped)
	assert.Len(t, bot.requests, 1)
}

func TestTransport_Run_ForwardsNonTextMessages(t *testing.T) {
	bot := newFakeBot()
	tr := newTransport(bot, zap.NewNop(), Options{Workers: 1})

	bot.updates <- tgbotapi.Update{Message: &tgbotapi.Message{
		From:    &tgbotapi.User{ID: 7, FirstName: "Ann"},
		Chat:    &tgbotapi.Chat{ID: 7, Type: "private"},
		Sticker: &tgbotapi.Sticker{FileID: "s1"},
	}}

	ctx, cancel := context.WithCancel(context.Background())
	got := make(chan domain.Inbound, 1)
	done := make(chan error, 1)
	go func() {
		done <- tr.Run(ctx, func(ctx context.Context, in domain.Inbound) { got <- in })
	}()

	select {
	case in := <-got:
		assert.Equal(t, domain.Inbound{UserID: 7, DisplayName: "Ann"}, in)
	case <-time.After(time.Second):
		t.Fatal("sticker message was not forwarded")
	}
	cancel()
	require.NoError(t, <-done)
}

func TestTransport_Run_DrainsQueuedEventsOnShutdown(t *testing.T) {
	bot := newFakeBot()
	tr := newTransport(bot, zap.NewNop(), Options{Workers: 1, DrainTimeout: time.Second})

	for _, text := range []string{"first", "second"} {
		bot.updates <- tgbotapi.Update{Message: &tgbotapi.Message{
			From: &tgbotapi.User{ID: 7, FirstName: "Ann"},
			Chat: &tgbotapi.Chat{ID: 7, Type: "private"},
			Text: text,
		}}
	}

	started := make(chan struct{})
	release := make(chan struct{})
	var mu sync.Mutex
	handled := make(map[string]error)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- tr.Run(ctx, func(ctx context.Context, in domain.Inbound) {
			if in.Text == "first" {
				close(started)
				<-release
			}
			mu.Lock()
			defer mu.Unlock()
			handled[in.Text] = ctx.Err()
		})
	}()

	<-started
	require.Eventually(t, func() bool { return len(bot.updates) == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	close(release)
	require.NoError(t, <-done)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, handled, 2)
	assert.NoError(t, handled["first"])
	assert.NoError(t, handled["second"])
}
