package broker

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

type stubToken struct {
	mqtt.Token
	err error
}

func (t *stubToken) Wait() bool                     { return true }
func (t *stubToken) WaitTimeout(time.Duration) bool { return true }
func (t *stubToken) Error() error                   { return t.err }

// stubMQTT отвечает на вызовы paho без сети. failConnects < 0 означает, что все попытки неудачны.
type stubMQTT struct {
	mqtt.Client

	mu           sync.Mutex
	failConnects int
	connects     int
	disconnects  int
	subscribed   [][]string
	unsubscribed [][]string

	attempts     chan struct{}
	subscribedCh chan []string
}

func newStubMQTT(failConnects int) *stubMQTT {
	return &stubMQTT{
		failConnects: failConnects,
		attempts:     make(chan struct{}, 64),
		subscribedCh: make(chan []string, 8),
	}
}

func (s *stubMQTT) Connect() mqtt.Token {
	s.mu.Lock()
	s.connects++
	fail := s.failConnects < 0 || s.connects <= s.failConnects
	s.mu.Unlock()

	select {
	case s.attempts <- struct{}{}:
	default:
	}
	if fail {
		return &stubToken{err: errors.New("connection refused")}
	}
	return &stubToken{}
}

func (s *stubMQTT) Disconnect(uint) {
	s.mu.Lock()
	s.disconnects++
	s.mu.Unlock()
}

func (s *stubMQTT) SubscribeMultiple(filters map[string]byte, _ mqtt.MessageHandler) mqtt.Token {
	topics := make([]string, 0, len(filters))
	for t := range filters {
		topics = append(topics, t)
	}
	sort.Strings(topics)

	s.mu.Lock()
	s.subscribed = append(s.subscribed, topics)
	s.mu.Unlock()

	select {
	case s.subscribedCh <- topics:
	default:
	}
	return &stubToken{}
}

func (s *stubMQTT) Unsubscribe(topics ...string) mqtt.Token {
	s.mu.Lock()
	s.unsubscribed = append(s.unsubscribed, topics)
	s.mu.Unlock()
	return &stubToken{}
}

func (s *stubMQTT) connectCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connects
}

func newTestClient(t *testing.T, stub *stubMQTT, interval time.Duration) *Client {
	t.Helper()
	c := NewClient(Options{
		URL:               "tcp://127.0.0.1:1883",
		View:              "test",
		ClientPrefix:      "fastgo",
		UserID:            "u1",
		ReconnectInterval: interval,
	}, func(string, []byte) {}, zap.NewNop())
	c.client = stub
	t.Cleanup(c.Close)
	return c
}

func waitAttempt(t *testing.T, stub *stubMQTT) {
	t.Helper()
	select {
	case <-stub.attempts:
	case <-time.After(time.Second):
		t.Fatalf("no connect attempt")
	}
}

func TestSubscribe_WhileDisconnectedKeepsTopicSet(t *testing.T) {
	stub := newStubMQTT(0)
	c := newTestClient(t, stub, 10*time.Millisecond)

	if err := c.Subscribe([]string{"order/s1/o2", "order/s1/o1"}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := c.Subscribe(nil); err != nil {
		t.Fatalf("empty subscribe: %v", err)
	}
	if err := c.Unsubscribe([]string{"order/s1/o2"}); err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}

	if got := c.snapshot(); !reflect.DeepEqual(got, []string{"order/s1/o1"}) {
		t.Fatalf("topics = %v", got)
	}
	if len(stub.subscribed) != 0 || len(stub.unsubscribed) != 0 {
		t.Fatalf("broker must not be called while disconnected: sub=%v unsub=%v", stub.subscribed, stub.unsubscribed)
	}
}

func TestOnConnect_ResubscribesTopicSet(t *testing.T) {
	stub := newStubMQTT(0)
	c := newTestClient(t, stub, 10*time.Millisecond)

	if err := c.Subscribe([]string{"order/s1/o2", "order/s1/o1"}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	c.onConnect(nil)
	if !c.Connected() {
		t.Fatalf("expected connected state")
	}

	select {
	case got := <-stub.subscribedCh:
		if !reflect.DeepEqual(got, []string{"order/s1/o1", "order/s1/o2"}) {
			t.Fatalf("resubscribed = %v", got)
		}
	case <-time.After(time.Second):
		t.Fatalf("topics were not resubscribed")
	}

	if err := c.Unsubscribe([]string{"order/s1/o1"}); err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}
	stub.mu.Lock()
	defer stub.mu.Unlock()
	if len(stub.unsubscribed) != 1 || stub.unsubscribed[0][0] != "order/s1/o1" {
		t.Fatalf("unsubscribed = %v", stub.unsubscribed)
	}
}

func TestConnect_RetriesAtFixedInterval(t *testing.T) {
	stub := newStubMQTT(2)
	c := newTestClient(t, stub, 5*time.Millisecond)

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if n := stub.connectCount(); n != 3 {
		t.Fatalf("connect attempts = %d, want 3", n)
	}
}

func TestConnect_ContextCancelled(t *testing.T) {
	stub := newStubMQTT(-1)
	c := newTestClient(t, stub, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	if err := c.Connect(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
}

func TestClose_StopsPendingConnect(t *testing.T) {
	stub := newStubMQTT(-1)
	c := newTestClient(t, stub, 10*time.Millisecond)

	c.Start()
	waitAttempt(t, stub)

	c.Close()
	after := stub.connectCount()

	time.Sleep(60 * time.Millisecond)
	if n := stub.connectCount(); n != after {
		t.Fatalf("connect attempts after close: %d -> %d", after, n)
	}

	if err := c.Connect(context.Background()); !errors.Is(err, context.Canceled) {
		t.Fatalf("connect after close: %v", err)
	}
	if n := stub.connectCount(); n != after {
		t.Fatalf("connect after close reached the broker")
	}

	c.Close()
	stub.mu.Lock()
	defer stub.mu.Unlock()
	if stub.disconnects != 1 {
		t.Fatalf("disconnects = %d, want 1", stub.disconnects)
	}
}

func TestConnectionLost_ReconnectsAfterInterval(t *testing.T) {
	stub := newStubMQTT(0)
	c := newTestClient(t, stub, 10*time.Millisecond)

	c.onConnect(nil)
	c.onConnectionLost(nil, errors.New("EOF"))
	if c.Connected() {
		t.Fatalf("expected disconnected state")
	}

	waitAttempt(t, stub)
	if n := stub.connectCount(); n != 1 {
		t.Fatalf("connect attempts = %d, want 1", n)
	}

	c.Close()
	c.onConnectionLost(nil, errors.New("EOF"))
	time.Sleep(40 * time.Millisecond)
	if n := stub.connectCount(); n != 1 {
		t.Fatalf("reconnect after close: attempts = %d", n)
	}
}
