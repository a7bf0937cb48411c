package notify

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// ErrQueueFull возвращается, если очередь уведомлений переполнена.
var ErrQueueFull = errors.New("notification queue is full")

const telegramQueueSize = 32

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier отправляет уведомления в чат Telegram из отдельной горутины.
type TelegramNotifier struct {
	bot    sender
	chatID int64
	queue  chan Notification
	logger *zap.Logger
}

// NewTelegramNotifier подключается к Bot API с указанным токеном.
func NewTelegramNotifier(token string, chatID int64, logger *zap.Logger) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return newTelegramNotifier(bot, chatID, logger), nil
}

func newTelegramNotifier(bot sender, chatID int64, logger *zap.Logger) *TelegramNotifier {
	return &TelegramNotifier{
		bot:    bot,
		chatID: chatID,
		queue:  make(chan Notification, telegramQueueSize),
		logger: logger,
	}
}

// Notify ставит уведомление в очередь и не ждёт отправки.
func (t *TelegramNotifier) Notify(_ context.Context, n Notification) error {
	select {
	case t.queue <- n:
		return nil
	default:
		t.logger.Warn("telegram queue full, notification dropped", zap.String("order", n.OrderID))
		return ErrQueueFull
	}
}

// Run отправляет уведомления из очереди до отмены контекста.
func (t *TelegramNotifier) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case n := <-t.queue:
			msg := tgbotapi.NewMessage(t.chatID, fmt.Sprintf("%s\n%s", n.Title, n.Body))
			if _, err := t.bot.Send(msg); err != nil {
				t.logger.Error("telegram send failed", zap.Error(err), zap.String("order", n.OrderID))
			}
		}
	}
}
