package pubsub

import (
	"context"
	"errors"
	"sync"

	"github.com/charmbracelet/log"
)

var ErrClosed = errors.New("pubsub client closed")

// Loopback delivers messages to in-process subscribers. It is used when no
// Google Cloud project is configured. Payloads are msgpack encoded exactly as
// they would be on the wire.
type Loopback struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
	closed   bool
	wg       sync.WaitGroup
}

var _ PubSubClient = (*Loopback)(nil)

func NewLoopback() *Loopback {
	return &Loopback{handlers: make(map[EventType][]Handler)}
}

// Subscribe registers h for topic.
func (l *Loopback) Subscribe(topic EventType, h Handler) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.handlers[topic] = append(l.handlers[topic], h)
}

// SendMessage encodes data and hands it to every subscriber of topic in the
// background. The caller's context only bounds the encoding step.
func (l *Loopback) SendMessage(ctx context.Context, topic EventType, data any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := encode(data)
	if err != nil {
		return err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return ErrClosed
	}
	for _, h := range l.handlers[topic] {
		l.wg.Add(1)
		go func(h Handler) {
			defer l.wg.Done()
			if err := h(context.Background(), payload); err != nil {
				log.Error("Subscriber failed", "error", err, "topic", topic)
			}
		}(h)
	}
	log.Debug("SendMessage", "topic", topic, "bytes", len(payload))
	return nil
}

func (l *Loopback) ProcessMessage(data []byte, returnValue any) error {
	return decode(data, returnValue)
}

// Wait blocks until every delivered message has been handled.
func (l *Loopback) Wait() {
	l.wg.Wait()
}

// Close stops accepting messages and waits for in-flight deliveries.
func (l *Loopback) Close() error {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
	l.wg.Wait()
	return nil
}
