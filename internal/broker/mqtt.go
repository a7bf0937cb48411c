// Package broker содержит подключение к MQTT-брокеру живых обновлений заказов.
package broker

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/mmeshcher/fastgo-client/internal/metrics"
)

const (
	defaultReconnectInterval = 3 * time.Second
	defaultKeepAlive         = 45 * time.Second
	operationTimeout         = 5 * time.Second
)

// MessageHandler получает сообщения в порядке доставки брокером.
type MessageHandler func(topic string, payload []byte)

// Options задаёт параметры подключения одного экрана.
type Options struct {
	URL               string
	View              string
	ClientPrefix      string
	UserID            string
	KeepAlive         time.Duration
	ReconnectInterval time.Duration
}

// Client владеет одним соединением с брокером и набором подписок.
type Client struct {
	opts    Options
	handler MessageHandler
	logger  *zap.Logger
	client  mqtt.Client

	connected atomic.Bool
	ctx       context.Context
	cancel    context.CancelFunc

	mu     sync.Mutex
	closed bool
	topics map[string]struct{}
}

// NewClient создаёт клиента со случайным идентификатором, чтобы избежать коллизий на брокере.
func NewClient(opts Options, handler MessageHandler, logger *zap.Logger) *Client {
	if opts.KeepAlive == 0 {
		opts.KeepAlive = defaultKeepAlive
	}
	if opts.ReconnectInterval == 0 {
		opts.ReconnectInterval = defaultReconnectInterval
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		opts:    opts,
		handler: handler,
		logger:  logger.With(zap.String("view", opts.View)),
		ctx:     ctx,
		cancel:  cancel,
		topics:  make(map[string]struct{}),
	}

	mqttOpts := mqtt.NewClientOptions().
		AddBroker(opts.URL).
		SetClientID(clientID(opts.ClientPrefix, opts.UserID)).
		SetCleanSession(true).
		SetKeepAlive(opts.KeepAlive).
		SetAutoReconnect(false).
		SetConnectRetry(false).
		SetOrderMatters(true).
		SetOnConnectHandler(c.onConnect).
		SetConnectionLostHandler(c.onConnectionLost)

	c.client = mqtt.NewClient(mqttOpts)
	return c
}

func clientID(prefix, userID string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return fmt.Sprintf("%s_%s_%s", prefix, userID, suffix)
}

// Connect устанавливает соединение, повторяя попытки с фиксированным интервалом
// до успеха, отмены контекста или Close.
func (c *Client) Connect(ctx context.Context) error {
	c.logger.Info("connecting to broker", zap.String("url", c.opts.URL))

	backoff := retry.NewConstant(c.opts.ReconnectInterval)
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		// Close не может вклиниться между проверкой и запуском попытки.
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return context.Canceled
		}
		if err := ctx.Err(); err != nil {
			c.mu.Unlock()
			return err
		}
		token := c.client.Connect()
		c.mu.Unlock()

		if !token.WaitTimeout(operationTimeout) {
			c.logger.Warn("broker connect timeout")
			return retry.RetryableError(errors.New("broker connect timeout"))
		}
		if err := token.Error(); err != nil {
			c.logger.Warn("broker connect failed", zap.Error(err))
			return retry.RetryableError(err)
		}

		c.mu.Lock()
		closed := c.closed
		c.mu.Unlock()
		if closed {
			c.client.Disconnect(0)
			c.setConnected(false)
			return context.Canceled
		}
		return nil
	})
}

// Start запускает подключение в фоне. Попытки прекращаются при Close.
func (c *Client) Start() {
	go c.connectLoop()
}

func (c *Client) connectLoop() {
	if err := c.Connect(c.ctx); err != nil && !errors.Is(err, context.Canceled) {
		c.logger.Error("broker connect aborted", zap.Error(err))
	}
}

// reconnect ждёт один интервал и снова подключается.
func (c *Client) reconnect() {
	timer := time.NewTimer(c.opts.ReconnectInterval)
	defer timer.Stop()

	select {
	case <-c.ctx.Done():
		return
	case <-timer.C:
	}
	c.connectLoop()
}

// Subscribe добавляет каналы в набор подписок.
func (c *Client) Subscribe(topics []string) error {
	if len(topics) == 0 {
		return nil
	}

	c.mu.Lock()
	for _, t := range topics {
		c.topics[t] = struct{}{}
	}
	c.mu.Unlock()

	if !c.Connected() {
		return nil
	}
	return c.subscribe(topics)
}

// Unsubscribe удаляет каналы из набора подписок и отписывается от них на брокере.
func (c *Client) Unsubscribe(topics []string) error {
	if len(topics) == 0 {
		return nil
	}

	c.mu.Lock()
	for _, t := range topics {
		delete(c.topics, t)
	}
	c.mu.Unlock()

	if !c.Connected() {
		return nil
	}

	token := c.client.Unsubscribe(topics...)
	if !token.WaitTimeout(operationTimeout) {
		return errors.New("unsubscribe timeout")
	}
	return token.Error()
}

// Connected сообщает, открыто ли соединение.
func (c *Client) Connected() bool {
	return c.connected.Load()
}

// Close разрывает соединение и останавливает попытки подключения. Повторный вызов ничего не делает.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.cancel()
	c.mu.Unlock()

	c.client.Disconnect(250)
	c.setConnected(false)
	c.logger.Info("broker connection closed")
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Client) subscribe(topics []string) error {
	filters := make(map[string]byte, len(topics))
	for _, t := range topics {
		filters[t] = 0
	}

	token := c.client.SubscribeMultiple(filters, c.onMessage)
	if !token.WaitTimeout(operationTimeout) {
		return errors.New("subscribe timeout")
	}
	return token.Error()
}

func (c *Client) snapshot() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	res := make([]string, 0, len(c.topics))
	for t := range c.topics {
		res = append(res, t)
	}
	sort.Strings(res)
	return res
}

func (c *Client) onConnect(mqtt.Client) {
	if c.isClosed() {
		return
	}
	c.setConnected(true)
	topics := c.snapshot()
	c.logger.Info("broker connected", zap.Int("topics", len(topics)))

	if len(topics) == 0 {
		return
	}
	// Сессия чистая: после переподключения подписки восстанавливаются вручную.
	go func() {
		if err := c.subscribe(topics); err != nil {
			c.logger.Error("resubscribe failed", zap.Error(err))
		}
	}()
}

func (c *Client) onConnectionLost(_ mqtt.Client, err error) {
	c.setConnected(false)
	if c.isClosed() {
		return
	}
	c.logger.Warn("broker connection lost", zap.Error(err), zap.Duration("retry_in", c.opts.ReconnectInterval))
	go c.reconnect()
}

func (c *Client) onMessage(_ mqtt.Client, msg mqtt.Message) {
	c.handler(msg.Topic(), msg.Payload())
}

func (c *Client) setConnected(v bool) {
	c.connected.Store(v)
	gauge := 0.0
	if v {
		gauge = 1
	}
	metrics.BrokerConnected.WithLabelValues(c.opts.View).Set(gauge)
}
