package notify

import (
	"context"
	"fmt"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/monsterwatch/scvfeed/internal/models"
)

// Telegram delivers alerts to one chat via the Bot API, HTML formatted.
type Telegram struct {
	bot            *tgbotapi.BotAPI
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
	tokenContract  string
}

// NewTelegram creates a Telegram sink.
func NewTelegram(botToken, chatID, tokenContract string, maxRetries int, retryDelayBase time.Duration) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}

	return &Telegram{
		bot:            bot,
		chatID:         chatIDInt,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
		tokenContract:  tokenContract,
	}, nil
}

func (t *Telegram) Name() string { return "telegram" }

// Send delivers one alert, retrying with linear backoff.
func (t *Telegram) Send(ctx context.Context, alert models.Alert) error {
	msg := tgbotapi.NewMessage(t.chatID, FormatAlertHTML(alert, t.tokenContract))
	msg.ParseMode = tgbotapi.ModeHTML
	return t.sendWithRetry(ctx, msg)
}

// Notice sends a plain-text service message (startup banner, shutdown).
func (t *Telegram) Notice(ctx context.Context, text string) error {
	return t.sendWithRetry(ctx, tgbotapi.NewMessage(t.chatID, text))
}

func (t *Telegram) sendWithRetry(ctx context.Context, msg tgbotapi.MessageConfig) error {
	var lastErr error
	for i := 0; i < t.maxRetries; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(t.retryDelayBase * time.Duration(i)):
			}
		}
		_, err := t.bot.Send(msg)
		if err == nil {
			return nil
		}
		lastErr = err
	}
	return fmt.Errorf("failed to send message after %d retries: %w", t.maxRetries, lastErr)
}
