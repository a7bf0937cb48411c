// Package notify доставляет пользователю уведомления о смене статуса заказа.
package notify

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mmeshcher/fastgo-client/internal/model"
)

// Title используется как заголовок всех уведомлений о заказе.
const Title = "Order update"

// Notification описывает одно уведомление.
type Notification struct {
	Title   string
	Body    string
	OrderID string
	Status  model.Status
}

// Notifier планирует немедленную доставку уведомления.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// StatusChange строит уведомление о переходе заказа в его текущий статус.
func StatusChange(o model.Order) Notification {
	return Notification{
		Title:   Title,
		Body:    statusBody(o.Status, o.ShopName),
		OrderID: o.ID,
		Status:  o.Status,
	}
}

func statusBody(s model.Status, shop string) string {
	switch s {
	case model.StatusAccepted:
		return fmt.Sprintf("%s accepted your order.", shop)
	case model.StatusDelivering:
		return fmt.Sprintf("Your order from %s is on its way.", shop)
	case model.StatusDelivered:
		return fmt.Sprintf("Your order from %s has been delivered. Enjoy your meal!", shop)
	case model.StatusRejected:
		return fmt.Sprintf("Unfortunately %s rejected your order.", shop)
	case model.StatusCancelled:
		return fmt.Sprintf("Your order from %s has been cancelled.", shop)
	default:
		return fmt.Sprintf("Order update from %s: %s", shop, s)
	}
}

// LogNotifier пишет уведомления в журнал.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier создаёт уведомитель поверх zap.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify реализует Notifier.
func (l *LogNotifier) Notify(_ context.Context, n Notification) error {
	l.logger.Info(n.Body,
		zap.String("title", n.Title),
		zap.String("order", n.OrderID),
		zap.Stringer("status", n.Status),
	)
	return nil
}

// Multi рассылает уведомление всем получателям.
type Multi []Notifier

// Notify реализует Notifier.
func (m Multi) Notify(ctx context.Context, n Notification) error {
	var errs []error
	for _, target := range m {
		if err := target.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
