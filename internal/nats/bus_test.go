package nats

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/souvik017/livefeed/internal/domain"
)

func newTestSubscription() *subscription {
	return &subscription{ch: make(chan domain.ChangeEvent, 64)}
}

func encodeTestEvent(t *testing.T, event domain.ChangeEvent) *nats.Msg {
	t.Helper()
	data, err := json.Marshal(event)
	require.NoError(t, err)
	return &nats.Msg{Subject: eventsSubject, Data: data}
}

func TestSubscription_DeliversEvents(t *testing.T) {
	s := newTestSubscription()

	event := domain.ChangeEvent{Kind: domain.EventPostCreated, ID: uuid.New()}
	s.handle(encodeTestEvent(t, event))

	select {
	case got := <-s.Events():
		assert.Equal(t, event.Kind, got.Kind)
		assert.Equal(t, event.ID, got.ID)
	default:
		t.Fatal("expected a delivered event")
	}
}

func TestSubscription_SkipsMalformedPayload(t *testing.T) {
	s := newTestSubscription()

	s.handle(&nats.Msg{Subject: eventsSubject, Data: []byte("not json")})

	select {
	case event := <-s.Events():
		t.Fatalf("expected no delivery, got %v", event)
	default:
	}
}

func TestSubscription_CloseClosesEventsChannel(t *testing.T) {
	s := newTestSubscription()

	s.Close()

	_, ok := <-s.Events()
	assert.False(t, ok)
}

func TestSubscription_HandleAfterCloseIsNoop(t *testing.T) {
	s := newTestSubscription()
	s.Close()

	// Must neither panic by sending on the closed channel nor deliver.
	s.handle(encodeTestEvent(t, domain.ChangeEvent{Kind: domain.EventPostDeleted, ID: uuid.New()}))

	_, ok := <-s.Events()
	assert.False(t, ok)
}

func TestSubscription_CloseIsIdempotent(t *testing.T) {
	s := newTestSubscription()

	s.Close()
	s.Close()
}
