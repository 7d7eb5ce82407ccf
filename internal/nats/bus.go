// Package nats provides the NATS implementation of the change-event bus.
// It is wire compatible with the Redis implementation: the same JSON
// envelope travels over a single subject that every instance subscribes to.
package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/souvik017/livefeed/internal/domain"
	"github.com/souvik017/livefeed/internal/metrics"
)

const eventsSubject = "feed.events"

type Bus struct {
	nc *nats.Conn
}

func Connect(url string) (*Bus, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}
	return &Bus{nc: nc}, nil
}

func (b *Bus) Close() {
	b.nc.Close()
}

func (b *Bus) Publish(_ context.Context, event domain.ChangeEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal change event: %w", err)
	}

	if err := b.nc.Publish(eventsSubject, data); err != nil {
		return fmt.Errorf("failed to publish change event: %w", err)
	}

	metrics.EventsPublished.WithLabelValues(string(event.Kind)).Inc()
	return nil
}

func (b *Bus) Subscribe(_ context.Context) (domain.ChangeSubscription, error) {
	s := &subscription{
		ch: make(chan domain.ChangeEvent, 64),
	}

	sub, err := b.nc.Subscribe(eventsSubject, s.handle)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", eventsSubject, err)
	}
	s.sub = sub

	return s, nil
}

// subscription guards channel sends and closure with a mutex: the NATS
// handler may still be in flight when Close runs, and a send on a closed
// channel would panic.
type subscription struct {
	sub *nats.Subscription

	mu     sync.Mutex
	ch     chan domain.ChangeEvent
	closed bool
}

func (s *subscription) Events() <-chan domain.ChangeEvent {
	return s.ch
}

func (s *subscription) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	_ = s.sub.Unsubscribe()
	close(s.ch)
}

func (s *subscription) handle(msg *nats.Msg) {
	var event domain.ChangeEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		slog.Warn("Failed to unmarshal change event from bus", "error", err)
		return
	}

	metrics.EventsReceived.WithLabelValues(string(event.Kind)).Inc()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	select {
	case s.ch <- event:
	default:
		metrics.EventsDropped.Inc()
	}
}
