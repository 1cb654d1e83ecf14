package events

import (
	"encoding/json"
	"testing"
	"time"
	"tunescore/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchRemoteDeliversForeignEvents(t *testing.T) {
	eventBus := New(nil, config.Config{})
	received := make(chan Event, 1)
	eventBus.Subscribe(RATING_SAVED_CHANNEL, func(event Event) error {
		received <- event
		return nil
	})

	event := Event{
		ID:        "evt-1",
		Origin:    "another-instance",
		Channel:   RATING_SAVED_CHANNEL,
		Data:      map[string]any{"rating": float64(7)},
		Timestamp: time.Now(),
	}
	payload, err := json.Marshal(event)
	require.NoError(t, err)

	eventBus.dispatchRemote(RATING_SAVED_CHANNEL, string(payload))

	select {
	case got := <-received:
		assert.Equal(t, "evt-1", got.ID)
		assert.Equal(t, float64(7), got.Data["rating"])
	case <-time.After(time.Second):
		t.Fatal("foreign event was not delivered to local handlers")
	}
}

func TestDispatchRemoteSkipsOwnEvents(t *testing.T) {
	eventBus := New(nil, config.Config{})
	received := make(chan Event, 1)
	eventBus.Subscribe(RATING_SAVED_CHANNEL, func(event Event) error {
		received <- event
		return nil
	})

	event := Event{
		ID:        "evt-2",
		Origin:    eventBus.origin,
		Channel:   RATING_SAVED_CHANNEL,
		Timestamp: time.Now(),
	}
	payload, err := json.Marshal(event)
	require.NoError(t, err)

	eventBus.dispatchRemote(RATING_SAVED_CHANNEL, string(payload))

	select {
	case <-received:
		t.Fatal("own event must not be redelivered; its handlers ran at publish time")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestDispatchRemoteIgnoresMalformedPayload(t *testing.T) {
	eventBus := New(nil, config.Config{})
	eventBus.Subscribe(RATING_SAVED_CHANNEL, func(event Event) error {
		t.Error("handler must not run for a malformed payload")
		return nil
	})

	assert.NotPanics(t, func() {
		eventBus.dispatchRemote(RATING_SAVED_CHANNEL, "{not json")
	})
	time.Sleep(50 * time.Millisecond)
}

func TestSubscribeWithoutClientSkipsReceiveLoop(t *testing.T) {
	eventBus := New(nil, config.Config{})

	assert.NotPanics(t, func() {
		eventBus.Subscribe(RATING_SAVED_CHANNEL, func(Event) error { return nil })
		eventBus.Subscribe(RATING_SAVED_CHANNEL, func(Event) error { return nil })
	})

	eventBus.mutex.RLock()
	defer eventBus.mutex.RUnlock()
	assert.Len(t, eventBus.handlers[RATING_SAVED_CHANNEL], 2)
	assert.False(t, eventBus.listening[RATING_SAVED_CHANNEL])
}
