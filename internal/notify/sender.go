package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	tele "gopkg.in/telebot.v4"

	"github.com/studiora/studiora/internal/config"
)

// Sender delivers a reminder.
type Sender interface {
	Send(ctx context.Context, r Reminder) error
}

// LogSender writes reminders to the log.
type LogSender struct {
	Log zerolog.Logger
}

func (s LogSender) Send(_ context.Context, r Reminder) error {
	s.Log.Info().
		Str("key", r.Key).
		Str("kind", string(r.Kind)).
		Time("at", r.At).
		Str("body", r.Body).
		Msg(r.Title)
	return nil
}

// Senders delivers to every sender and joins their errors.
type Senders []Sender

func (ss Senders) Send(ctx context.Context, r Reminder) error {
	var errs []error
	for _, s := range ss {
		if err := s.Send(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// TelegramSender posts reminders to one chat through a bot.
type TelegramSender struct {
	bot  *tele.Bot
	chat *tele.Chat
}

// TelegramOption customises the bot.
type TelegramOption func(*tele.Settings)

// WithAPIURL points the bot at another Bot API server.
func WithAPIURL(url string) TelegramOption {
	return func(s *tele.Settings) { s.URL = url }
}

// NewTelegramSender connects a bot using cfg.
func NewTelegramSender(cfg config.TelegramConfig, opts ...TelegramOption) (*TelegramSender, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	if cfg.ChatID == 0 {
		return nil, errors.New("telegram chat id is empty")
	}
	settings := tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(&settings)
	}
	bot, err := tele.NewBot(settings)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &TelegramSender{bot: bot, chat: &tele.Chat{ID: cfg.ChatID}}, nil
}

func (s *TelegramSender) Send(ctx context.Context, r Reminder) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	text := r.Title
	if r.Body != "" {
		text += "\n" + r.Body
	}
	if _, err := s.bot.Send(s.chat, text, &tele.SendOptions{DisableWebPagePreview: true}); err != nil {
		return fmt.Errorf("telegram send %s: %w", r.Key, err)
	}
	return nil
}
