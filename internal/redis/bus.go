package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"

	"github.com/souvik017/livefeed/internal/domain"
	"github.com/souvik017/livefeed/internal/metrics"
)

const eventsChannel = "feed:events"

// Bus is the Redis Pub/Sub implementation of the change-event bus. Every
// instance publishes to and subscribes from the same channel, so instances
// receive their own events back and fan out through one code path.
type Bus struct {
	rdb *goredis.Client
}

func NewBus(rdb *goredis.Client) *Bus {
	return &Bus{rdb: rdb}
}

func (b *Bus) Publish(ctx context.Context, event domain.ChangeEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal change event: %w", err)
	}

	if err := b.rdb.Publish(ctx, eventsChannel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish change event: %w", err)
	}

	metrics.EventsPublished.WithLabelValues(string(event.Kind)).Inc()
	return nil
}

func (b *Bus) Subscribe(ctx context.Context) (domain.ChangeSubscription, error) {
	sub := b.rdb.Subscribe(ctx, eventsChannel)

	// Force the SUBSCRIBE round trip so no event published after this call
	// returns can be missed.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", eventsChannel, err)
	}

	subCtx, cancel := context.WithCancel(ctx)
	s := &subscription{
		sub:    sub,
		ch:     make(chan domain.ChangeEvent, 64),
		cancel: cancel,
	}
	go s.pump(subCtx)

	return s, nil
}

type subscription struct {
	sub    *goredis.PubSub
	ch     chan domain.ChangeEvent
	cancel context.CancelFunc
}

func (s *subscription) Events() <-chan domain.ChangeEvent {
	return s.ch
}

func (s *subscription) Close() {
	s.cancel()
	_ = s.sub.Close()
}

func (s *subscription) pump(ctx context.Context) {
	defer close(s.ch)

	msgCh := s.sub.Channel()
	for {
		select {
		case msg, ok := <-msgCh:
			if !ok {
				return
			}

			var event domain.ChangeEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				slog.Warn("Failed to unmarshal change event from bus", "error", err)
				continue
			}

			metrics.EventsReceived.WithLabelValues(string(event.Kind)).Inc()

			select {
			case s.ch <- event:
			default:
				// Receiver backed up; drop rather than stall the pump.
				// Clients recover via idempotent re-reads.
				metrics.EventsDropped.Inc()
			}
		case <-ctx.Done():
			return
		}
	}
}
