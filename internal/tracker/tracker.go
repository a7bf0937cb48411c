// Package tracker сводит периодически загружаемый список заказов с живыми обновлениями брокера.
package tracker

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/mmeshcher/fastgo-client/internal/broker"
	"github.com/mmeshcher/fastgo-client/internal/metrics"
	"github.com/mmeshcher/fastgo-client/internal/model"
	"github.com/mmeshcher/fastgo-client/internal/notify"
)

const queueSize = 64

// Subscriber управляет подписками одного соединения с брокером.
type Subscriber interface {
	Subscribe(topics []string) error
	Unsubscribe(topics []string) error
	Connected() bool
}

// Refresher получает обновлённую копию заказа, открытого в карточке.
type Refresher interface {
	Refresh(order model.Order)
}

// statusPayload отличает отсутствующий статус от нулевого значения PENDING.
type statusPayload struct {
	model.Order
	Status *model.Status `json:"orderStatus"`
}

type message struct {
	topic   string
	payload []byte
}

// Tracker держит список заказов экрана «Мои заказы» и применяет к нему события статуса.
type Tracker struct {
	notifier notify.Notifier
	logger   *zap.Logger
	queue    chan message

	syncMu     sync.Mutex
	subscriber Subscriber
	topics     map[string]struct{}

	mu     sync.RWMutex
	orders []model.Order
	detail Refresher
}

// New создаёт трекер. Соединение с брокером привязывается через Bind.
func New(notifier notify.Notifier, logger *zap.Logger) *Tracker {
	return &Tracker{
		notifier: notifier,
		logger:   logger,
		queue:    make(chan message, queueSize),
		topics:   make(map[string]struct{}),
	}
}

// Bind привязывает соединение и подписывает его на текущие активные заказы.
func (t *Tracker) Bind(sub Subscriber) {
	t.syncMu.Lock()
	t.subscriber = sub
	t.topics = make(map[string]struct{})
	t.syncMu.Unlock()

	t.syncTopics()
}

// SetDetail подключает карточку заказа, которая получает обновления открытого заказа.
func (t *Tracker) SetDetail(r Refresher) {
	t.mu.Lock()
	t.detail = r
	t.mu.Unlock()
}

// Enqueue принимает сообщение брокера. Порядок доставки сохраняется.
func (t *Tracker) Enqueue(topic string, payload []byte) {
	t.queue <- message{topic: topic, payload: payload}
}

// Run обрабатывает сообщения брокера до отмены контекста.
func (t *Tracker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case m := <-t.queue:
			t.HandleMessage(ctx, m.topic, m.payload)
		}
	}
}

// SetOrders заменяет список заказов свежим снимком из API и пересчитывает подписки.
func (t *Tracker) SetOrders(orders []model.Order) {
	snapshot := make([]model.Order, len(orders))
	copy(snapshot, orders)
	sort.SliceStable(snapshot, func(i, j int) bool {
		return snapshot[i].CreatedAt.After(snapshot[j].CreatedAt.Time)
	})

	t.mu.Lock()
	t.orders = snapshot
	t.mu.Unlock()

	t.syncTopics()
}

// HandleMessage применяет одно сообщение брокера к списку заказов.
func (t *Tracker) HandleMessage(ctx context.Context, topic string, payload []byte) {
	kind, _ := broker.ParseTopic(topic)
	metrics.BrokerMessagesTotal.WithLabelValues(kind.String()).Inc()

	if kind != broker.KindOrderStatus {
		t.logger.Debug("ignoring message on foreign topic", zap.String("topic", topic))
		return
	}

	var decoded statusPayload
	if err := json.Unmarshal(payload, &decoded); err != nil {
		metrics.MalformedPayloadsTotal.Inc()
		t.logger.Warn("malformed order payload", zap.String("topic", topic), zap.Error(err))
		return
	}
	if decoded.Status == nil {
		metrics.MalformedPayloadsTotal.Inc()
		t.logger.Warn("order payload without status", zap.String("topic", topic))
		return
	}
	updated := decoded.Order
	updated.Status = *decoded.Status

	t.mu.Lock()
	idx := t.indexOf(updated.ID)
	if idx < 0 {
		t.mu.Unlock()
		t.logger.Debug("update for unknown order dropped", zap.String("order", updated.ID))
		return
	}

	previous := t.orders[idx].Status
	if previous == updated.Status {
		t.mu.Unlock()
		return
	}

	t.orders[idx] = updated
	detail := t.detail
	t.mu.Unlock()

	t.logger.Info("order status changed",
		zap.String("order", updated.ID),
		zap.Stringer("from", previous),
		zap.Stringer("to", updated.Status),
	)

	if err := t.notifier.Notify(ctx, notify.StatusChange(updated)); err != nil {
		t.logger.Warn("notification failed", zap.String("order", updated.ID), zap.Error(err))
	}
	metrics.NotificationsTotal.WithLabelValues(updated.Status.String()).Inc()

	if detail != nil {
		detail.Refresh(updated)
	}

	if updated.Status.IsTerminal() != previous.IsTerminal() {
		t.syncTopics()
	}
}

// Orders возвращает копию всего списка, новые заказы первыми.
func (t *Tracker) Orders() []model.Order {
	return t.filter(func(model.Order) bool { return true })
}

// Active возвращает незавершённые заказы.
func (t *Tracker) Active() []model.Order {
	return t.filter(func(o model.Order) bool { return o.Status.Phase() == model.PhaseActive })
}

// Delivered возвращает доставленные заказы.
func (t *Tracker) Delivered() []model.Order {
	return t.filter(func(o model.Order) bool { return o.Status.Phase() == model.PhaseDelivered })
}

// Failed возвращает отменённые и отклонённые заказы.
func (t *Tracker) Failed() []model.Order {
	return t.filter(func(o model.Order) bool { return o.Status.Phase() == model.PhaseFailed })
}

// Order возвращает заказ по идентификатору.
func (t *Tracker) Order(id string) (model.Order, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if idx := t.indexOf(id); idx >= 0 {
		return t.orders[idx], true
	}
	return model.Order{}, false
}

// Connected сообщает состояние соединения экрана с брокером.
func (t *Tracker) Connected() bool {
	t.syncMu.Lock()
	sub := t.subscriber
	t.syncMu.Unlock()
	return sub != nil && sub.Connected()
}

func (t *Tracker) filter(keep func(model.Order) bool) []model.Order {
	t.mu.RLock()
	defer t.mu.RUnlock()
	res := make([]model.Order, 0, len(t.orders))
	for _, o := range t.orders {
		if keep(o) {
			res = append(res, o)
		}
	}
	return res
}

func (t *Tracker) indexOf(id string) int {
	for i := range t.orders {
		if t.orders[i].ID == id {
			return i
		}
	}
	return -1
}

// syncTopics приводит подписки к набору активных заказов: лишние каналы явно отписываются.
func (t *Tracker) syncTopics() {
	t.syncMu.Lock()
	defer t.syncMu.Unlock()

	if t.subscriber == nil {
		return
	}

	next := make(map[string]struct{})
	for _, o := range t.Active() {
		next[broker.OrderTopic(o.ShopID, o.ID)] = struct{}{}
	}

	added, removed := diffTopics(t.topics, next)

	if len(removed) > 0 {
		if err := t.subscriber.Unsubscribe(removed); err != nil {
			t.logger.Warn("unsubscribe failed", zap.Strings("topics", removed), zap.Error(err))
		}
	}
	if len(added) > 0 {
		if err := t.subscriber.Subscribe(added); err != nil {
			t.logger.Warn("subscribe failed", zap.Strings("topics", added), zap.Error(err))
		}
	}

	t.topics = next
	metrics.TrackedOrders.Set(float64(len(next)))
}

// diffTopics возвращает отсортированные каналы, которые нужно добавить и удалить.
func diffTopics(prev, next map[string]struct{}) (added, removed []string) {
	for topic := range next {
		if _, ok := prev[topic]; !ok {
			added = append(added, topic)
		}
	}
	for topic := range prev {
		if _, ok := next[topic]; !ok {
			removed = append(removed, topic)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)
	return added, removed
}
