package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/ritzau/jsat-analyzer/pkg/logging"
)

// ErrClosed is returned by a publisher that has been shut down
var ErrClosed = errors.New("publisher is closed")

// subscriberBuffer is the number of undelivered events a subscriber may
// hold before it is disconnected
const subscriberBuffer = 64

// TopicConfig configures buffering behavior for a topic
type TopicConfig struct {
	BufferSize int  // Number of events to buffer (0 = no buffering)
	ReplayAll  bool // If true, replay all buffered events; if false, only replay last event
}

// topic holds the state of one topic. Guarded by SSEPublisher.mu.
type topic struct {
	config  TopicConfig
	version int
	buffer  []Event
	subs    map[*sseSubscription]struct{}
}

// replay returns the buffered events a new subscriber receives
func (t *topic) replay() []Event {
	if len(t.buffer) == 0 {
		return nil
	}
	if !t.config.ReplayAll {
		return []Event{t.buffer[len(t.buffer)-1]}
	}
	out := make([]Event, len(t.buffer))
	copy(out, t.buffer)
	return out
}

func (t *topic) record(event Event) {
	if t.config.BufferSize <= 0 {
		return
	}
	t.buffer = append(t.buffer, event)
	if over := len(t.buffer) - t.config.BufferSize; over > 0 {
		t.buffer = t.buffer[over:]
	}
}

// SSEPublisher implements Publisher for Server-Sent Event streams. Graph
// diffs only make sense in order, so a subscriber that falls behind is
// disconnected rather than silently missing events; clients reload the
// graph when they reconnect.
type SSEPublisher struct {
	mu     sync.Mutex
	topics map[string]*topic
	closed bool
}

// NewSSEPublisher creates a new SSE-based publisher
func NewSSEPublisher() *SSEPublisher {
	return &SSEPublisher{topics: make(map[string]*topic)}
}

// lookup returns the topic named name, creating it on first use
func (p *SSEPublisher) lookup(name string) *topic {
	t := p.topics[name]
	if t == nil {
		t = &topic{subs: make(map[*sseSubscription]struct{})}
		p.topics[name] = t
	}
	return t
}

// ConfigureTopic sets buffering configuration for a topic
func (p *SSEPublisher) ConfigureTopic(name string, config TopicConfig) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lookup(name).config = config
}

// Subscribe creates a new subscription to a topic. Buffered events are
// delivered first, as the topic configuration says.
func (p *SSEPublisher) Subscribe(ctx context.Context, name string) (Subscription, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrClosed
	}

	t := p.lookup(name)
	sub := &sseSubscription{
		topic:     name,
		events:    make(chan Event, subscriberBuffer),
		publisher: p,
	}
	replay := t.replay()
	for _, event := range replay {
		select {
		case sub.events <- event:
		default:
			logging.Warn("could not replay event to new subscriber", "topic", name, "version", event.Version)
		}
	}
	if len(replay) > 0 {
		logging.Debug("replayed events to new subscriber", "topic", name, "count", len(replay))
	}
	t.subs[sub] = struct{}{}

	go func() {
		<-ctx.Done()
		sub.Close()
	}()

	return sub, nil
}

// Publish sends an event to all subscribers of a topic
func (p *SSEPublisher) Publish(name string, eventType string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}

	t := p.lookup(name)
	t.version++
	event := Event{
		Topic:   name,
		Type:    eventType,
		Data:    jsonData,
		Version: t.version,
	}
	t.record(event)

	for sub := range t.subs {
		select {
		case sub.events <- event:
		default:
			logging.Warn("subscriber fell behind, disconnecting", "topic", name, "version", event.Version)
			delete(t.subs, sub)
			close(sub.events)
		}
	}
	return nil
}

// Close shuts down the publisher and all subscriptions
func (p *SSEPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	for _, t := range p.topics {
		for sub := range t.subs {
			close(sub.events)
		}
		clear(t.subs)
	}
	return nil
}

// unsubscribe removes a subscription and closes its channel. Subscriptions
// already dropped by Publish or Close are skipped.
func (p *SSEPublisher) unsubscribe(sub *sseSubscription) {
	p.mu.Lock()
	defer p.mu.Unlock()

	t := p.topics[sub.topic]
	if t == nil {
		return
	}
	if _, ok := t.subs[sub]; !ok {
		return
	}
	delete(t.subs, sub)
	close(sub.events)
}

// Subscribers returns the number of open subscriptions to a topic
func (p *SSEPublisher) Subscribers(name string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if t := p.topics[name]; t != nil {
		return len(t.subs)
	}
	return 0
}

type sseSubscription struct {
	topic     string
	events    chan Event
	publisher *SSEPublisher
	once      sync.Once
}

func (s *sseSubscription) Topic() string {
	return s.topic
}

func (s *sseSubscription) Events() <-chan Event {
	return s.events
}

func (s *sseSubscription) Close() error {
	s.once.Do(func() { s.publisher.unsubscribe(s) })
	return nil
}

// WriteSSE writes one event in text/event-stream framing. The id line
// carries the topic version and the data line the whole event as JSON.
func WriteSSE(w io.Writer, event Event) error {
	jsonData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	_, err = fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", event.Version, event.Type, jsonData)
	return err
}
