package tracker

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mmeshcher/fastgo-client/internal/broker"
	"github.com/mmeshcher/fastgo-client/internal/model"
	"github.com/mmeshcher/fastgo-client/internal/notify"
)

type stubSubscriber struct {
	mu           sync.Mutex
	subscribed   [][]string
	unsubscribed [][]string
	connected    bool
	closed       bool
}

func (s *stubSubscriber) Subscribe(topics []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribed = append(s.subscribed, topics)
	return nil
}

func (s *stubSubscriber) Unsubscribe(topics []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unsubscribed = append(s.unsubscribed, topics)
	return nil
}

func (s *stubSubscriber) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func (s *stubSubscriber) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notify.Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n notify.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	return nil
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

type recordingRefresher struct {
	orders []model.Order
}

func (r *recordingRefresher) Refresh(o model.Order) {
	r.orders = append(r.orders, o)
}

func testOrder(id string, status model.Status, age time.Duration) model.Order {
	return model.Order{
		ID:       id,
		ShopID:   "s1",
		ShopName: "Da Mario",
		Status:   status,
		CreatedAt: model.NewTimestamp(
			time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC).Add(-age),
		),
	}
}

func payload(t *testing.T, o model.Order) []byte {
	t.Helper()
	data, err := json.Marshal(o)
	require.NoError(t, err)
	return data
}

func newTestTracker() (*Tracker, *stubSubscriber, *recordingNotifier) {
	n := &recordingNotifier{}
	tr := New(n, zap.NewNop())
	sub := &stubSubscriber{connected: true}
	tr.Bind(sub)
	return tr, sub, n
}

func TestSetOrders_SortsAndSubscribesActive(t *testing.T) {
	tr, sub, _ := newTestTracker()

	tr.SetOrders([]model.Order{
		testOrder("old", model.StatusPending, 2*time.Hour),
		testOrder("done", model.StatusDelivered, 3*time.Hour),
		testOrder("new", model.StatusAccepted, 0),
	})

	orders := tr.Orders()
	require.Len(t, orders, 3)
	assert.Equal(t, "new", orders[0].ID)
	assert.Equal(t, "old", orders[1].ID)
	assert.Equal(t, "done", orders[2].ID)

	require.Len(t, sub.subscribed, 1)
	assert.Equal(t, []string{"shop/s1/new", "shop/s1/old"}, sub.subscribed[0])
	assert.Empty(t, sub.unsubscribed)
	assert.True(t, tr.Connected())
}

func TestHandleMessage_StatusChangeNotifiesOnce(t *testing.T) {
	tr, _, n := newTestTracker()
	tr.SetOrders([]model.Order{testOrder("o1", model.StatusPending, 0)})

	update := testOrder("o1", model.StatusAccepted, 0)
	tr.HandleMessage(context.Background(), "shop/s1/o1", payload(t, update))

	got, ok := tr.Order("o1")
	require.True(t, ok)
	assert.Equal(t, model.StatusAccepted, got.Status)
	require.Equal(t, 1, n.count())
	assert.Equal(t, "Da Mario accepted your order.", n.sent[0].Body)

	// повтор того же статуса не должен порождать второе уведомление
	tr.HandleMessage(context.Background(), "shop/s1/o1", payload(t, update))
	assert.Equal(t, 1, n.count())
}

func TestHandleMessage_SameStatusKeepsStoredOrder(t *testing.T) {
	tr, _, n := newTestTracker()
	tr.SetOrders([]model.Order{testOrder("o1", model.StatusAccepted, 0)})

	update := testOrder("o1", model.StatusAccepted, 0)
	update.RiderName = "Luca"
	tr.HandleMessage(context.Background(), "shop/s1/o1", payload(t, update))

	got, _ := tr.Order("o1")
	assert.Empty(t, got.RiderName)
	assert.Zero(t, n.count())
}

func TestHandleMessage_IgnoresUnknownAndMalformed(t *testing.T) {
	tr, _, n := newTestTracker()
	tr.SetOrders([]model.Order{testOrder("o1", model.StatusPending, 0)})
	before := tr.Orders()

	tr.HandleMessage(context.Background(), "shop/s1/ghost", payload(t, testOrder("ghost", model.StatusAccepted, 0)))
	tr.HandleMessage(context.Background(), "shop/s1/o1", []byte("{not json"))
	tr.HandleMessage(context.Background(), "shop/s1/o1", []byte(`{"id":"o1","orderStatus":"TELEPORTED"}`))
	tr.HandleMessage(context.Background(), "weather/today", []byte(`{}`))

	assert.Equal(t, before, tr.Orders())
	assert.Zero(t, n.count())
}

func TestHandleMessage_RejectsPayloadWithoutStatus(t *testing.T) {
	tr, _, n := newTestTracker()
	tr.SetOrders([]model.Order{testOrder("o1", model.StatusDelivering, 0)})

	tr.HandleMessage(context.Background(), "shop/s1/o1", []byte(`{"id":"o1","shopId":"s1","riderName":"x"}`))
	tr.HandleMessage(context.Background(), "shop/s1/o1", []byte(`{"id":"o1","orderStatus":null}`))

	got, ok := tr.Order("o1")
	require.True(t, ok)
	assert.Equal(t, model.StatusDelivering, got.Status)
	assert.Empty(t, got.RiderName)
	assert.Zero(t, n.count())
}

func TestHandleMessage_ExplicitPendingIsApplied(t *testing.T) {
	tr, _, n := newTestTracker()
	tr.SetOrders([]model.Order{testOrder("o1", model.StatusAccepted, 0)})

	tr.HandleMessage(context.Background(), "shop/s1/o1", []byte(`{"id":"o1","shopId":"s1","orderStatus":"PENDING"}`))

	got, _ := tr.Order("o1")
	assert.Equal(t, model.StatusPending, got.Status)
	assert.Equal(t, 1, n.count())
}

func TestHandleMessage_TerminalStatusUnsubscribes(t *testing.T) {
	tr, sub, _ := newTestTracker()
	tr.SetOrders([]model.Order{
		testOrder("o1", model.StatusDelivering, 0),
		testOrder("o2", model.StatusPending, time.Minute),
	})

	tr.HandleMessage(context.Background(), "shop/s1/o1", payload(t, testOrder("o1", model.StatusDelivered, 0)))

	require.Len(t, sub.unsubscribed, 1)
	assert.Equal(t, []string{"shop/s1/o1"}, sub.unsubscribed[0])
	assert.Len(t, tr.Delivered(), 1)
	assert.Len(t, tr.Active(), 1)

	tr.HandleMessage(context.Background(), "shop/s1/o2", payload(t, testOrder("o2", model.StatusRejected, time.Minute)))
	assert.Len(t, tr.Failed(), 1)
	assert.Empty(t, tr.Active())
	require.Len(t, sub.unsubscribed, 2)
	assert.Equal(t, []string{"shop/s1/o2"}, sub.unsubscribed[1])
}

func TestHandleMessage_RefreshesDetail(t *testing.T) {
	tr, _, _ := newTestTracker()
	r := &recordingRefresher{}
	tr.SetDetail(r)
	tr.SetOrders([]model.Order{testOrder("o1", model.StatusAccepted, 0)})

	tr.HandleMessage(context.Background(), "shop/s1/o1", payload(t, testOrder("o1", model.StatusDelivering, 0)))

	require.Len(t, r.orders, 1)
	assert.Equal(t, model.StatusDelivering, r.orders[0].Status)
}

func TestRun_ProcessesQueueInOrder(t *testing.T) {
	tr, _, n := newTestTracker()
	tr.SetOrders([]model.Order{testOrder("o1", model.StatusPending, 0)})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go tr.Run(ctx)

	tr.Enqueue("shop/s1/o1", payload(t, testOrder("o1", model.StatusAccepted, 0)))
	tr.Enqueue("shop/s1/o1", payload(t, testOrder("o1", model.StatusDelivering, 0)))

	require.Eventually(t, func() bool { return n.count() == 2 }, time.Second, 10*time.Millisecond)
	got, _ := tr.Order("o1")
	assert.Equal(t, model.StatusDelivering, got.Status)
}

func TestDiffTopics(t *testing.T) {
	set := func(topics ...string) map[string]struct{} {
		m := make(map[string]struct{}, len(topics))
		for _, topic := range topics {
			m[topic] = struct{}{}
		}
		return m
	}

	added, removed := diffTopics(set("a", "b"), set("b", "d", "c"))
	assert.Equal(t, []string{"c", "d"}, added)
	assert.Equal(t, []string{"a"}, removed)

	added, removed = diffTopics(set("a"), set("a"))
	assert.Empty(t, added)
	assert.Empty(t, removed)
}

func TestBind_ResubscribesActiveOrders(t *testing.T) {
	tr := New(&recordingNotifier{}, zap.NewNop())
	tr.SetOrders([]model.Order{testOrder("o1", model.StatusPending, 0)})

	sub := &stubSubscriber{}
	tr.Bind(sub)

	require.Len(t, sub.subscribed, 1)
	assert.Equal(t, []string{broker.OrderTopic("s1", "o1")}, sub.subscribed[0])
	assert.False(t, tr.Connected())
}
