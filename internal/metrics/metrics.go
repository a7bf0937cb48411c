// Package metrics объявляет метрики Prometheus клиента.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// APIRequestsTotal считает вызовы удалённых сервисов по операции и результату.
	APIRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fastgo_api_requests_total",
		Help: "Total number of remote API calls by operation and result.",
	},
		[]string{"operation", "result"},
	)

	// BrokerMessagesTotal считает сообщения брокера по типу канала.
	BrokerMessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fastgo_broker_messages_total",
		Help: "Total number of broker messages received by kind.",
	},
		[]string{"kind"},
	)

	// MalformedPayloadsTotal считает сообщения брокера, которые не удалось разобрать.
	MalformedPayloadsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fastgo_broker_malformed_payloads_total",
		Help: "Total number of broker payloads that could not be decoded.",
	})

	// NotificationsTotal считает уведомления о смене статуса по новому статусу.
	NotificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fastgo_notifications_total",
		Help: "Total number of status notifications by new status.",
	},
		[]string{"status"},
	)

	// BrokerConnected показывает состояние соединения с брокером для каждого экрана.
	BrokerConnected = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fastgo_broker_connected",
		Help: "1 when the broker connection of a view is open.",
	},
		[]string{"view"},
	)

	// TrackedOrders показывает число активных заказов с подпиской на обновления.
	TrackedOrders = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fastgo_tracked_orders",
		Help: "Current number of active orders subscribed for live updates.",
	})
)
