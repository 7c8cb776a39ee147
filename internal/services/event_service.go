// Package services provides the in-process event bus for SoftCode.
package services

import (
	stdcontext "context"
	"encoding/json"
	"fmt"

	"softcode/internal/logger"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// EventService carries the observable events the core emits for the view
// layer (typing indicator, streaming reveals, restore notices). It wraps a
// watermill gochannel Pub/Sub; payloads are JSON-encoded softtypes event
// structs. Publishing with no subscribers is a valid no-op.
type EventService struct {
	initialized bool
	pubSub      *gochannel.GoChannel
}

// NewEventService creates a new EventService instance.
func NewEventService() *EventService {
	return &EventService{}
}

// Name returns the service name "event" for registration.
func (e *EventService) Name() string {
	return "event"
}

// Initialize sets up the in-process Pub/Sub.
func (e *EventService) Initialize() error {
	e.pubSub = gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		watermill.NewStdLogger(false, false),
	)
	e.initialized = true
	return nil
}

// Publish serializes payload and emits it on topic. Event delivery is
// fire-and-forget; failures are logged, never surfaced to the caller, since
// observers are optional.
func (e *EventService) Publish(topic string, payload interface{}) {
	if !e.initialized {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		logger.Error("failed to encode event payload", "topic", topic, "error", err)
		return
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	if err := e.pubSub.Publish(topic, msg); err != nil {
		logger.Debug("event publish failed", "topic", topic, "error", err)
	}
}

// Subscribe returns a channel of raw messages for topic. Callers decode
// payloads with DecodeEvent and must Ack each message.
func (e *EventService) Subscribe(ctx stdcontext.Context, topic string) (<-chan *message.Message, error) {
	if !e.initialized {
		return nil, fmt.Errorf("event service not initialized")
	}
	return e.pubSub.Subscribe(ctx, topic)
}

// Close shuts the bus down and closes all subscriber channels.
func (e *EventService) Close() error {
	if !e.initialized {
		return nil
	}
	return e.pubSub.Close()
}

// DecodeEvent unmarshals a bus message payload into the given event struct.
func DecodeEvent(msg *message.Message, event interface{}) error {
	if err := json.Unmarshal(msg.Payload, event); err != nil {
		return fmt.Errorf("failed to decode event payload: %w", err)
	}
	return nil
}
