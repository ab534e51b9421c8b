/*
Package events implements the runtime's "runtime.events" log channel: a
structured, best-effort fan-out of what the dispatcher and delivery
handlers did, consumed by pkg/web's dashboard.

Each subscriber gets its own buffered channel; a subscriber that falls
behind has events dropped rather than blocking the publisher.
*/
package events

import "time"

// Kind enumerates the runtime events this bus carries.
type Kind string

const (
	KindSendEnqueued     Kind = "send_enqueued"
	KindSendDelivered    Kind = "send_delivered"
	KindSendSettled      Kind = "send_settled"
	KindPublishEnqueued  Kind = "publish_enqueued"
	KindPublishDelivered Kind = "publish_delivered"
	KindResponseSettled  Kind = "response_settled"
	KindMessageDropped   Kind = "message_dropped"
	KindAgentInstantiated Kind = "agent_instantiated"
	KindRuntimeStarted   Kind = "runtime_started"
	KindRuntimeStopped   Kind = "runtime_stopped"
)

// Event is one structured occurrence published to the bus.
type Event struct {
	Kind      Kind      `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
	AgentID   string    `json:"agent_id,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	Data      any       `json:"data,omitempty"`
}

// Bus manages event distribution to subscribers.
type Bus struct {
	subscribers []chan Event
}

// NewBus creates a new event bus.
func NewBus() *Bus {
	return &Bus{subscribers: make([]chan Event, 0)}
}

// Subscribe creates a new event subscription with a 100-event buffer.
func (b *Bus) Subscribe() chan Event {
	ch := make(chan Event, 100)
	b.subscribers = append(b.subscribers, ch)
	return ch
}

// Publish sends an event to all subscribers. A subscriber with a full
// buffer drops the event rather than block the publisher. Timestamp is
// stamped with the current time if the caller left it zero.
func (b *Bus) Publish(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	for _, ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			// Drop event if channel is full.
		}
	}
}

// Close closes all subscriber channels.
func (b *Bus) Close() {
	for _, ch := range b.subscribers {
		close(ch)
	}
}
