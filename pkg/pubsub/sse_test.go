package pubsub

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func publishStatuses(t *testing.T, pub *SSEPublisher, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		if err := pub.Publish(TopicStatus, EventStatus, GraphStatus{Nodes: i}); err != nil {
			t.Fatalf("Failed to publish event %d: %v", i, err)
		}
	}
}

func TestEventBuffer(t *testing.T) {
	pub := NewSSEPublisher()
	defer pub.Close()

	pub.ConfigureTopic(TopicStatus, TopicConfig{BufferSize: 3, ReplayAll: true})
	publishStatuses(t, pub, 5)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	sub, err := pub.Subscribe(ctx, TopicStatus)
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	defer sub.Close()

	// Should receive the last 3 of 5 events
	for want := 3; want <= 5; want++ {
		select {
		case event := <-sub.Events():
			if event.Version != want {
				t.Errorf("Expected version %d, got %d", want, event.Version)
			}
			var status GraphStatus
			if err := json.Unmarshal(event.Data, &status); err != nil {
				t.Fatalf("Failed to decode payload: %v", err)
			}
			if status.Nodes != want {
				t.Errorf("Expected %d nodes in payload, got %d", want, status.Nodes)
			}
		case <-time.After(time.Second):
			t.Fatalf("Timeout waiting for event %d", want)
		}
	}
}

func TestReplayLastOnly(t *testing.T) {
	pub := NewSSEPublisher()
	defer pub.Close()

	pub.ConfigureTopic(TopicGraph, TopicConfig{BufferSize: 5, ReplayAll: false})
	for i := 1; i <= 3; i++ {
		if err := pub.Publish(TopicGraph, EventGraphDiff, map[string]int{"num": i}); err != nil {
			t.Fatalf("Failed to publish event %d: %v", i, err)
		}
	}

	sub, err := pub.Subscribe(context.Background(), TopicGraph)
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	defer sub.Close()

	select {
	case event := <-sub.Events():
		if event.Version != 3 {
			t.Errorf("Expected version 3, got %d", event.Version)
		}
		if event.Type != EventGraphDiff {
			t.Errorf("Expected type %q, got %q", EventGraphDiff, event.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for event")
	}

	select {
	case event := <-sub.Events():
		t.Errorf("Received unexpected extra event version %d", event.Version)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestNoBuffer(t *testing.T) {
	pub := NewSSEPublisher()
	defer pub.Close()

	publishStatuses(t, pub, 3)

	sub, err := pub.Subscribe(context.Background(), TopicStatus)
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	defer sub.Close()

	select {
	case event := <-sub.Events():
		t.Errorf("Received unexpected replayed event version %d", event.Version)
	case <-time.After(50 * time.Millisecond):
	}

	publishStatuses(t, pub, 1)
	select {
	case event := <-sub.Events():
		if event.Version != 4 {
			t.Errorf("Expected version 4, got %d", event.Version)
		}
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for new event")
	}
}

func TestCancelClosesSubscription(t *testing.T) {
	pub := NewSSEPublisher()
	defer pub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	sub, err := pub.Subscribe(ctx, TopicGraph)
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	cancel()

	select {
	case _, ok := <-sub.Events():
		if ok {
			t.Error("Expected closed channel, got an event")
		}
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for the subscription to close")
	}
	if n := pub.Subscribers(TopicGraph); n != 0 {
		t.Errorf("Expected 0 subscribers, got %d", n)
	}

	// Closing again after the publisher is gone is harmless
	if err := sub.Close(); err != nil {
		t.Errorf("Expected nil error, got %v", err)
	}
}

func TestPublishAfterClose(t *testing.T) {
	pub := NewSSEPublisher()
	sub, err := pub.Subscribe(context.Background(), TopicGraph)
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	pub.Close()

	if _, ok := <-sub.Events(); ok {
		t.Error("Expected the subscription channel to be closed")
	}
	if err := sub.Close(); err != nil {
		t.Errorf("Expected nil error, got %v", err)
	}
	if err := pub.Publish(TopicGraph, EventGraphDiff, nil); err == nil {
		t.Error("Expected error publishing on a closed publisher")
	}
	if _, err := pub.Subscribe(context.Background(), TopicGraph); err == nil {
		t.Error("Expected error subscribing to a closed publisher")
	}
}

func TestWriteSSE(t *testing.T) {
	var buf bytes.Buffer
	event := Event{Topic: TopicGraph, Type: EventGraphFull, Data: json.RawMessage(`{"hash":"x"}`), Version: 7}
	if err := WriteSSE(&buf, event); err != nil {
		t.Fatalf("WriteSSE failed: %v", err)
	}

	out := buf.String()
	if !strings.HasPrefix(out, "id: 7\nevent: full\ndata: ") || !strings.HasSuffix(out, "\n\n") {
		t.Errorf("Expected SSE framing, got %q", out)
	}
	if !strings.Contains(out, `"version":7`) {
		t.Errorf("Expected version in payload, got %q", out)
	}
}

func TestSlowSubscriberDisconnected(t *testing.T) {
	pub := NewSSEPublisher()
	defer pub.Close()

	sub, err := pub.Subscribe(context.Background(), TopicStatus)
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	defer sub.Close()

	publishStatuses(t, pub, subscriberBuffer+1)

	received := 0
	for range sub.Events() {
		received++
	}
	if received != subscriberBuffer {
		t.Errorf("Expected %d events before disconnect, got %d", subscriberBuffer, received)
	}
	if n := pub.Subscribers(TopicStatus); n != 0 {
		t.Errorf("Expected 0 subscribers, got %d", n)
	}
}
