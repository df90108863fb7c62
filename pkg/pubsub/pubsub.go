package pubsub

import (
	"context"
	"encoding/json"
)

// Topics and event types published by a session
const (
	TopicGraph  = "graph"  // Graph changes as diffs
	TopicStatus = "status" // Graph size and history state

	EventGraphDiff = "diff" // Incremental change
	EventGraphFull = "full" // Whole graph, sent after imports
	EventStatus    = "status"
)

// Event represents a pub/sub event
type Event struct {
	Topic   string          `json:"topic"`   // Subscription topic (e.g., "graph", "status")
	Type    string          `json:"type"`    // Event type (e.g., "diff", "full")
	Data    json.RawMessage `json:"data"`    // Event payload
	Version int             `json:"version"` // Version number for ordering
}

// Subscription represents a client subscription to a topic
type Subscription interface {
	// Topic returns the subscription topic
	Topic() string

	// Events returns a channel for receiving events. The channel is closed
	// when the subscription or the publisher is closed.
	Events() <-chan Event

	// Close closes the subscription
	Close() error
}

// Publisher manages pub/sub subscriptions and event publishing
type Publisher interface {
	// Subscribe creates a new subscription to a topic
	// Context cancellation will close the subscription
	Subscribe(ctx context.Context, topic string) (Subscription, error)

	// Publish sends an event to all subscribers of a topic
	Publish(topic string, eventType string, data any) error

	// Close shuts down the publisher and all subscriptions
	Close() error
}

// GraphStatus summarizes the graph and its history
type GraphStatus struct {
	Nodes   int  `json:"nodes"`
	Edges   int  `json:"edges"`
	Agents  int  `json:"agents"`
	CanUndo bool `json:"canUndo"`
	CanRedo bool `json:"canRedo"`
}
