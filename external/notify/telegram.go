package notify

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/relomy/dk-results/internal/platform/logging"
	"github.com/relomy/dk-results/internal/usecase"
)

// Telegram caps bot throughput around 30 messages a minute per chat;
// spacing sends avoids 429 responses during bonus bursts.
const defaultTelegramSendInterval = 2 * time.Second

type telegramAPI interface {
	Send(msg tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier sends announcement text to a single chat through the
// bot API, one message at a time.
type TelegramNotifier struct {
	bot      telegramAPI
	chatID   int64
	interval time.Duration
	logger   *logging.Logger

	mu       sync.Mutex
	lastSend time.Time
}

var _ usecase.Notifier = (*TelegramNotifier)(nil)

type TelegramConfig struct {
	Token        string
	ChatID       int64
	SendInterval time.Duration
	Logger       *logging.Logger
}

func NewTelegramNotifier(cfg TelegramConfig) (*TelegramNotifier, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, fmt.Errorf("telegram token is required")
	}
	if cfg.ChatID == 0 {
		return nil, fmt.Errorf("telegram chat id is required")
	}

	bot, err := tgbotapi.NewBotAPI(strings.TrimSpace(cfg.Token))
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	interval := cfg.SendInterval
	if interval <= 0 {
		interval = defaultTelegramSendInterval
	}

	return &TelegramNotifier{
		bot:      bot,
		chatID:   cfg.ChatID,
		interval: interval,
		logger:   logger,
	}, nil
}

func (n *TelegramNotifier) Send(ctx context.Context, message string) error {
	if strings.TrimSpace(message) == "" {
		return fmt.Errorf("message is required")
	}

	if err := n.waitForSlot(ctx); err != nil {
		return err
	}

	if _, err := n.bot.Send(tgbotapi.NewMessage(n.chatID, message)); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}

func (n *TelegramNotifier) waitForSlot(ctx context.Context) error {
	n.mu.Lock()
	wait := n.interval - time.Since(n.lastSend)
	if wait > 0 {
		n.mu.Unlock()
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		n.mu.Lock()
	}
	n.lastSend = time.Now()
	n.mu.Unlock()
	return nil
}
