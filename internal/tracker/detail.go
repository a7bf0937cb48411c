package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/mmeshcher/fastgo-client/internal/broker"
	"github.com/mmeshcher/fastgo-client/internal/metrics"
	"github.com/mmeshcher/fastgo-client/internal/model"
)

// Conn описывает соединение с брокером, принадлежащее одному экрану.
type Conn interface {
	Subscriber
	Close()
}

// Dialer открывает новое соединение, доставляющее сообщения в handler.
type Dialer func(handler broker.MessageHandler) Conn

// Geocoder определяет координаты адреса.
type Geocoder interface {
	Search(ctx context.Context, query string) (model.Coordinates, error)
}

// DetailView содержит снимок состояния карточки заказа.
type DetailView struct {
	Order       model.Order        `json:"order"`
	Level       model.Level        `json:"level"`
	Label       string             `json:"label"`
	Rider       *model.Coordinates `json:"rider,omitempty"`
	Health      model.Health       `json:"health"`
	HealthLabel string             `json:"healthLabel"`
	HealthColor string             `json:"healthColor"`
	ShowHealth  bool               `json:"showHealth"`
	Shop        *model.Coordinates `json:"shop,omitempty"`
	Delivery    *model.Coordinates `json:"delivery,omitempty"`
	MapLoading  bool               `json:"mapLoading"`
	Connected   bool               `json:"connected"`
}

// Detail ведёт карточку одного заказа: позиция курьера, оценка перевозки и координаты адресов.
type Detail struct {
	dial     Dialer
	geocoder Geocoder
	logger   *zap.Logger
	queue    chan message

	mu         sync.RWMutex
	open       bool
	generation uint64
	conn       Conn
	cancel     context.CancelFunc
	order      model.Order
	rider      *model.Coordinates
	health     model.Health
	shop       *model.Coordinates
	delivery   *model.Coordinates
	mapLoading bool
}

// ErrDetailClosed возвращается при обращении к закрытой карточке.
var ErrDetailClosed = errors.New("no order detail is open")

// NewDetail создаёт закрытую карточку заказа.
func NewDetail(dial Dialer, geocoder Geocoder, logger *zap.Logger) *Detail {
	return &Detail{
		dial:     dial,
		geocoder: geocoder,
		logger:   logger,
		queue:    make(chan message, queueSize),
		health:   model.HealthWaiting,
	}
}

// Open показывает заказ: открывает собственное соединение и подписывается на позицию курьера и оценку.
func (d *Detail) Open(order model.Order) {
	d.mu.Lock()
	if d.open && d.order.ID == order.ID {
		d.order = order
		d.mu.Unlock()
		return
	}
	d.teardownLocked()

	ctx, cancel := context.WithCancel(context.Background())
	d.open = true
	d.generation++
	d.cancel = cancel
	d.order = order
	d.rider = nil
	d.health = model.HealthWaiting
	d.shop = nil
	d.delivery = nil
	d.mapLoading = true
	gen := d.generation

	conn := d.dial(d.Enqueue)
	d.conn = conn
	d.mu.Unlock()

	topics := []string{
		broker.PositionTopic(order.ShopID, order.ID),
		broker.InferenceFilter(order.ID),
	}
	if err := conn.Subscribe(topics); err != nil {
		d.logger.Warn("detail subscribe failed", zap.String("order", order.ID), zap.Error(err))
	}

	go d.locate(ctx, gen, order)
}

// Close закрывает карточку и разрывает её соединение.
func (d *Detail) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.teardownLocked()
}

func (d *Detail) teardownLocked() {
	if !d.open {
		return
	}
	d.open = false
	d.generation++
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.conn != nil {
		d.conn.Close()
		d.conn = nil
	}
}

// Refresh заменяет локальную копию заказа, если он открыт в карточке.
func (d *Detail) Refresh(order model.Order) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.open && d.order.ID == order.ID {
		d.order = order
	}
}

// Enqueue принимает сообщение брокера.
func (d *Detail) Enqueue(topic string, payload []byte) {
	d.queue <- message{topic: topic, payload: payload}
}

// Run обрабатывает сообщения карточки до отмены контекста.
func (d *Detail) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			d.Close()
			return
		case m := <-d.queue:
			d.HandleMessage(m.topic, m.payload)
		}
	}
}

type inferencePayload struct {
	StatusRaw json.RawMessage `json:"status_raw"`
}

// HandleMessage применяет сообщение о позиции курьера или оценке перевозки.
func (d *Detail) HandleMessage(topic string, payload []byte) {
	kind, orderID := broker.ParseTopic(topic)
	metrics.BrokerMessagesTotal.WithLabelValues(kind.String()).Inc()

	switch kind {
	case broker.KindRiderPosition:
		var pos model.Coordinates
		if err := json.Unmarshal(payload, &pos); err != nil {
			metrics.MalformedPayloadsTotal.Inc()
			d.logger.Warn("malformed position payload", zap.String("topic", topic), zap.Error(err))
			return
		}
		d.update(orderID, func() { d.rider = &pos })

	case broker.KindInference:
		raw, ok := parseInference(payload)
		if !ok {
			metrics.MalformedPayloadsTotal.Inc()
			d.logger.Warn("malformed inference payload", zap.String("topic", topic))
			return
		}
		if raw == "" {
			return
		}
		health := model.ParseHealth(raw)
		d.update(orderID, func() { d.health = health })

	default:
		d.logger.Debug("ignoring message on foreign topic", zap.String("topic", topic))
	}
}

// parseInference извлекает сырую строку оценки: объект со status_raw, JSON-строку или обычный текст.
func parseInference(payload []byte) (string, bool) {
	var obj inferencePayload
	if err := json.Unmarshal(payload, &obj); err == nil {
		if len(obj.StatusRaw) == 0 {
			return "", true
		}
		var s string
		if err := json.Unmarshal(obj.StatusRaw, &s); err == nil {
			return s, true
		}
		return string(obj.StatusRaw), true
	}

	var s string
	if err := json.Unmarshal(payload, &s); err == nil {
		return s, true
	}

	if !json.Valid(payload) && len(payload) > 0 && payload[0] != '{' && payload[0] != '[' {
		return string(payload), true
	}
	return "", false
}

func (d *Detail) update(orderID string, apply func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.open || d.order.ID != orderID {
		return
	}
	apply()
}

func (d *Detail) locate(ctx context.Context, gen uint64, order model.Order) {
	shop := d.resolve(ctx, order.ShopAddress)
	delivery := d.resolve(ctx, order.DeliveryAddress)

	d.mu.Lock()
	defer d.mu.Unlock()

	if ctx.Err() != nil || !d.open || d.generation != gen {
		d.logger.Debug("discarding late geocoding result", zap.String("order", order.ID))
		return
	}
	d.shop = shop
	d.delivery = delivery
	d.mapLoading = false
}

func (d *Detail) resolve(ctx context.Context, a model.Address) *model.Coordinates {
	if d.geocoder == nil {
		return nil
	}
	pos, err := d.geocoder.Search(ctx, a.Street+", "+a.City)
	if err != nil {
		d.logger.Warn("geocoding failed", zap.String("street", a.Street), zap.Error(err))
		return nil
	}
	return &pos
}

// View возвращает снимок карточки или ErrDetailClosed.
func (d *Detail) View() (DetailView, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.open {
		return DetailView{}, ErrDetailClosed
	}

	return DetailView{
		Order:       d.order,
		Level:       d.order.Status.Level(),
		Label:       d.order.Status.Label(),
		Rider:       d.rider,
		Health:      d.health,
		HealthLabel: d.health.Label(),
		HealthColor: d.health.Color(),
		ShowHealth:  d.order.Status.IsDelivering(),
		Shop:        d.shop,
		Delivery:    d.delivery,
		MapLoading:  d.mapLoading,
		Connected:   d.conn != nil && d.conn.Connected(),
	}, nil
}

// OrderID возвращает идентификатор открытого заказа.
func (d *Detail) OrderID() (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.order.ID, d.open
}
