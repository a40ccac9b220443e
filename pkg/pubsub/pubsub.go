package pubsub

import (
	"context"
	"encoding/json"
)

// Topics published by the preview server.
const (
	TopicRenders = "renders" // one event per render attempt
	TopicBuilds  = "builds"  // watch loop progress
)

// Event types on TopicRenders.
const (
	EventRendered = "rendered"
	EventFailed   = "failed"
)

// Event represents a pub/sub event
type Event struct {
	Topic   string          `json:"topic"`
	Type    string          `json:"type"`
	Data    json.RawMessage `json:"data"`
	Version int             `json:"version"` // per-topic sequence number
}

// Subscription represents a client subscription to a topic
type Subscription interface {
	Topic() string

	// Events is closed when the publisher shuts down.
	Events() <-chan Event

	Close() error
}

// Publisher manages pub/sub subscriptions and event publishing
type Publisher interface {
	// Subscribe creates a new subscription to a topic.
	// Context cancellation will close the subscription.
	Subscribe(ctx context.Context, topic string) (Subscription, error)

	// Publish sends an event to all subscribers of a topic
	Publish(topic string, eventType string, data interface{}) error

	Close() error
}

// RenderEvent is the payload of TopicRenders events.
type RenderEvent struct {
	Diagram    string `json:"diagram"` // artifact base name
	Title      string `json:"title"`
	Format     string `json:"format,omitempty"`
	Path       string `json:"path,omitempty"`
	DurationMs int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// BuildStatus is the payload of TopicBuilds events.
type BuildStatus struct {
	State   string   `json:"state"` // building, ready, failed
	Changed []string `json:"changed,omitempty"`
	Message string   `json:"message,omitempty"`
}
