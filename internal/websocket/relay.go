package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/souvik017/livefeed/internal/domain"
)

type broadcaster interface {
	Broadcast(room string, data []byte)
}

// Relay is the single fan-out path from the change bus to local clients.
// Every event reaching clients travels bus first, including events this
// instance published itself; no handler writes to the hub directly.
type Relay struct {
	bus domain.ChangeBus
	hub broadcaster
}

func NewRelay(bus domain.ChangeBus, hub broadcaster) *Relay {
	return &Relay{bus: bus, hub: hub}
}

// Run subscribes to the bus and forwards events until the context is
// cancelled or the subscription channel closes.
func (r *Relay) Run(ctx context.Context) error {
	sub, err := r.bus.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("failed to subscribe to change bus: %w", err)
	}
	defer sub.Close()

	for {
		select {
		case event, ok := <-sub.Events():
			if !ok {
				return nil
			}
			r.forward(event)
		case <-ctx.Done():
			return nil
		}
	}
}

func (r *Relay) forward(event domain.ChangeEvent) {
	frame, err := encodeEvent(event)
	if err != nil {
		slog.Warn("Failed to encode change event for broadcast",
			"event", event.Kind, "post_id", event.ID, "error", err)
		return
	}
	r.hub.Broadcast(FeedRoom, frame)
}

// encodeEvent maps a change event onto the client envelope. Deletions
// carry only the ID; creates and updates carry the full post so clients
// can upsert by ID without a refetch.
func encodeEvent(event domain.ChangeEvent) ([]byte, error) {
	var payload any
	if event.Post != nil {
		payload = event.Post
	} else {
		payload = map[string]string{"id": event.ID.String()}
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return json.Marshal(Envelope{Event: string(event.Kind), Data: data})
}
