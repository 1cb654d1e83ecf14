package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"
	"tunescore/config"
	"tunescore/internal/logger"

	"github.com/google/uuid"
	"github.com/valkey-io/valkey-go"
)

type Channel string

func (c Channel) String() string {
	return string(c)
}

// Post-commit side-effect channels. Rating writes publish RATING_SAVED after
// the transaction commits; achievement evaluation subscribes there and
// publishes ACHIEVEMENT_UNLOCKED in turn. Publish failures never propagate
// into the write path.
const (
	RATING_SAVED_CHANNEL         Channel = "rating.saved"
	ACHIEVEMENT_UNLOCKED_CHANNEL Channel = "achievement.unlocked"
)

type Event struct {
	ID        string         `json:"id"`
	Origin    string         `json:"origin,omitempty"`
	Channel   Channel        `json:"channel"`
	UserID    *uuid.UUID     `json:"userId,omitempty"`
	Data      map[string]any `json:"data"`
	Timestamp time.Time      `json:"timestamp"`
}

type EventHandler func(event Event) error

// EventBus fans events out to in-process handlers and mirrors them onto
// valkey pub/sub so other instances observe them too. Each subscribed channel
// gets a receive loop; events stamped with this instance's origin are skipped
// on receipt since their local handlers already ran at publish time.
type EventBus struct {
	client    valkey.Client
	logger    logger.Logger
	config    config.Config
	origin    string
	handlers  map[Channel][]EventHandler
	listening map[Channel]bool
	mutex     sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
}

func New(client valkey.Client, config config.Config) *EventBus {
	ctx, cancel := context.WithCancel(context.Background())

	return &EventBus{
		client:    client,
		logger:    logger.New("EventBus"),
		config:    config,
		origin:    uuid.New().String(),
		handlers:  make(map[Channel][]EventHandler),
		listening: make(map[Channel]bool),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Subscribe registers a local handler and starts the valkey receive loop for
// the channel if it is the first subscription
func (eb *EventBus) Subscribe(channel Channel, handler EventHandler) {
	eb.mutex.Lock()
	eb.handlers[channel] = append(eb.handlers[channel], handler)
	startListener := eb.client != nil && !eb.listening[channel]
	if startListener {
		eb.listening[channel] = true
	}
	eb.mutex.Unlock()

	if startListener {
		go eb.listenToChannel(channel)
	}
}

func (eb *EventBus) Publish(channel Channel, event Event) error {
	log := eb.logger.Function("Publish")

	if event.ID == "" {
		event.ID = uuid.New().String()
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if event.Channel == "" {
		event.Channel = channel
	}

	event.Origin = eb.origin

	eventData, err := json.Marshal(event)
	if err != nil {
		return log.Err("failed to marshal event", err, "eventID", event.ID)
	}

	ctx, cancel := context.WithTimeout(eb.ctx, 5*time.Second)
	defer cancel()

	err = eb.client.Do(ctx, eb.client.B().Publish().Channel(channel.String()).Message(string(eventData)).Build()).
		Error()
	if err != nil {
		// Local handlers still run; remote mirroring is best effort
		log.Warn("failed to publish event to valkey", "channel", channel, "eventID", event.ID, "error", err)
	}

	eb.notifyLocalHandlers(channel, event)

	return nil
}

func (eb *EventBus) notifyLocalHandlers(channel Channel, event Event) {
	eb.mutex.RLock()
	handlers := make([]EventHandler, len(eb.handlers[channel]))
	copy(handlers, eb.handlers[channel])
	eb.mutex.RUnlock()

	for _, handler := range handlers {
		go func(h EventHandler) {
			if err := h(event); err != nil {
				eb.logger.Warn(
					"event handler failed",
					"channel", channel,
					"eventID", event.ID,
					"error", err,
				)
			}
		}(handler)
	}
}

func (eb *EventBus) listenToChannel(channel Channel) {
	log := eb.logger.Function("listenToChannel")

	ctx, cancel := context.WithCancel(eb.ctx)
	defer cancel()

	log.Info("Listening to channel", "channel", channel)

	err := eb.client.Receive(
		ctx,
		eb.client.B().Subscribe().Channel(channel.String()).Build(),
		func(msg valkey.PubSubMessage) {
			eb.dispatchRemote(channel, msg.Message)
		},
	)
	if err != nil && eb.ctx.Err() == nil {
		_ = log.Err("channel receive loop ended", err, "channel", channel)
	}
}

// dispatchRemote decodes an event received from valkey and hands it to local
// handlers. Events this instance published are dropped: their handlers
// already ran synchronously with the publish.
func (eb *EventBus) dispatchRemote(channel Channel, payload string) {
	log := eb.logger.Function("dispatchRemote")

	var event Event
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		_ = log.Err("failed to unmarshal event", err, "channel", channel)
		return
	}

	if event.Origin == eb.origin {
		return
	}

	eb.notifyLocalHandlers(channel, event)
}

func (eb *EventBus) Close() error {
	eb.cancel()
	return nil
}
