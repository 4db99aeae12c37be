package mq

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// --- Fakes ---

type publishedMsg struct {
	queue string
	msg   amqp.Publishing
}

type fakeChannel struct {
	mu         sync.Mutex
	declared   []string
	qos        int
	published  []publishedMsg
	publishErr error
	closed     bool

	deliveries chan amqp.Delivery
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{deliveries: make(chan amqp.Delivery, 16)}
}

func (c *fakeChannel) QueueDeclare(name string, durable, _, _, _ bool, _ amqp.Table) (amqp.Queue, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !durable {
		return amqp.Queue{}, errors.New("queue must be durable")
	}
	c.declared = append(c.declared, name)
	return amqp.Queue{Name: name}, nil
}

func (c *fakeChannel) Qos(prefetchCount, _ int, _ bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.qos = prefetchCount
	return nil
}

func (c *fakeChannel) Consume(_, _ string, autoAck, _, _, _ bool, _ amqp.Table) (<-chan amqp.Delivery, error) {
	if autoAck {
		return nil, errors.New("auto-ack is not expected")
	}
	return c.deliveries, nil
}

func (c *fakeChannel) PublishWithContext(_ context.Context, _, key string, _, _ bool, msg amqp.Publishing) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.publishErr != nil {
		return c.publishErr
	}
	c.published = append(c.published, publishedMsg{queue: key, msg: msg})
	return nil
}

func (c *fakeChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeChannel) Published() []publishedMsg {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]publishedMsg(nil), c.published...)
}

func (c *fakeChannel) Declared() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.declared...)
}

type fakeBroker struct {
	ch *fakeChannel

	mu           sync.Mutex
	channelCalls int
	closed       bool
	notify       chan *amqp.Error
	registered   chan struct{}
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{ch: newFakeChannel(), registered: make(chan struct{})}
}

func (b *fakeBroker) Channel() (Channel, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.channelCalls++
	return b.ch, nil
}

func (b *fakeBroker) NotifyClose(receiver chan *amqp.Error) chan *amqp.Error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notify = receiver
	close(b.registered)
	return receiver
}

func (b *fakeBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// drop имитирует разрыв соединения брокером.
func (b *fakeBroker) drop(t *testing.T) {
	t.Helper()
	select {
	case <-b.registered:
	case <-time.After(2 * time.Second):
		t.Fatal("NotifyClose was never registered")
	}
	b.mu.Lock()
	notify := b.notify
	b.mu.Unlock()
	notify <- &amqp.Error{Code: amqp.ConnectionForced, Reason: "forced"}
}

func (b *fakeBroker) IsClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

func (b *fakeBroker) ChannelCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.channelCalls
}

type fakeAcker struct {
	mu    sync.Mutex
	acks  []uint64
	nacks []uint64
}

func (a *fakeAcker) Ack(tag uint64, _ bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acks = append(a.acks, tag)
	return nil
}

func (a *fakeAcker) Nack(tag uint64, _, _ bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nacks = append(a.nacks, tag)
	return nil
}

func (a *fakeAcker) Reject(tag uint64, _ bool) error {
	return a.Nack(tag, false, false)
}

func (a *fakeAcker) Acks() []uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]uint64(nil), a.acks...)
}

// --- Log capture ---

type logRecord struct {
	level slog.Level
	msg   string
	attrs map[string]any
}

type recordingHandler struct {
	mu      *sync.Mutex
	records *[]logRecord
	attrs   []slog.Attr
}

func newRecordingLogger() (*slog.Logger, *recordingHandler) {
	h := &recordingHandler{mu: &sync.Mutex{}, records: &[]logRecord{}}
	return slog.New(h), h
}

func (h *recordingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordingHandler) Handle(_ context.Context, r slog.Record) error {
	rec := logRecord{level: r.Level, msg: r.Message, attrs: map[string]any{}}
	for _, a := range h.attrs {
		rec.attrs[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		rec.attrs[a.Key] = a.Value.Any()
		return true
	})
	h.mu.Lock()
	*h.records = append(*h.records, rec)
	h.mu.Unlock()
	return nil
}

func (h *recordingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &recordingHandler{mu: h.mu, records: h.records, attrs: append(append([]slog.Attr(nil), h.attrs...), attrs...)}
}

func (h *recordingHandler) WithGroup(string) slog.Handler { return h }

func (h *recordingHandler) Count(level slog.Level, msg string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, r := range *h.records {
		if r.level == level && r.msg == msg {
			n++
		}
	}
	return n
}

func (h *recordingHandler) Find(msg string) (logRecord, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, r := range *h.records {
		if r.msg == msg {
			return r, true
		}
	}
	return logRecord{}, false
}

// --- Helpers ---

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// connected возвращает подключённый Connection поверх fakeBroker.
func connected(t *testing.T, logger *slog.Logger) (*Connection, *fakeBroker) {
	t.Helper()
	broker := newFakeBroker()
	conn := NewConnection(ConnectionConfig{
		URL:    "amqp://test",
		Logger: logger,
		Dial:   func(string) (Broker, error) { return broker, nil },
	})
	if err := conn.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	return conn, broker
}

func delivery(acker *fakeAcker, tag uint64, id string, retry any, body string) amqp.Delivery {
	d := amqp.Delivery{
		Acknowledger:  acker,
		DeliveryTag:   tag,
		CorrelationId: id,
		Body:          []byte(body),
		DeliveryMode:  amqp.Persistent,
	}
	if retry != nil {
		d.Headers = amqp.Table{HeaderRetry: retry}
	}
	return d
}
