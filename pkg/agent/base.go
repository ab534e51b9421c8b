/*
Base provides the foundational implementation agents embed to get
dispatch-by-message-type and a simple state map for free.

Dispatch is by handler-map, keyed on the registered sample message's
dynamic type and registered via RegisterHandler, with a sync.RWMutex
guarding the state map. There is no inbox channel or per-agent goroutine
loop here: the scheduler lives in pkg/runtime, so OnMessage is called
directly by the runtime's delivery goroutine rather than being pulled off
a per-agent channel.

Design Pattern: Embedded Struct Inheritance
  Specialized agents embed Base to inherit dispatch and state handling:
    type EchoAgent struct {
        *agent.Base
        // specialized fields...
    }
*/
package agent

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"agentmesh/pkg/ids"
)

// Handler processes one message of a given dynamic type arriving at this agent.
type Handler func(ctx context.Context, message any, msgCtx MessageContext) (any, error)

// Base is an embeddable helper implementing message-type dispatch and a
// plain map-based state store. Specialized agents embed *Base and register
// handlers for the message types they care about; unrecognized types fall
// through to a configurable default handler (or an error if none is set).
type Base struct {
	mu       sync.RWMutex
	id       ids.AgentId
	meta     Metadata
	handlers map[reflect.Type]Handler
	fallback Handler
	state    map[string]any
}

// NewBase creates a Base identified by id, with empty handler and state maps.
func NewBase(id ids.AgentId, description string) *Base {
	return &Base{
		id:       id,
		meta:     Metadata{Type: id.Type, Key: id.Key, Description: description},
		handlers: make(map[reflect.Type]Handler),
		state:    make(map[string]any),
	}
}

// ID returns this agent's identity.
func (b *Base) ID() ids.AgentId {
	return b.id
}

// Metadata returns this agent's metadata.
func (b *Base) Metadata() Metadata {
	return b.meta
}

// RegisterHandler binds a Handler to the dynamic type of sample. Later
// registrations for the same type override earlier ones.
func (b *Base) RegisterHandler(sample any, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[reflect.TypeOf(sample)] = handler
}

// RegisterFallback sets the handler invoked when no type-specific handler matches.
func (b *Base) RegisterFallback(handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fallback = handler
}

// OnMessage routes message to the handler registered for its dynamic type,
// falling back to the fallback handler, or an error if neither exists.
func (b *Base) OnMessage(ctx context.Context, message any, msgCtx MessageContext) (any, error) {
	b.mu.RLock()
	handler, ok := b.handlers[reflect.TypeOf(message)]
	fallback := b.fallback
	b.mu.RUnlock()

	if ok {
		return handler(ctx, message, msgCtx)
	}
	if fallback != nil {
		return fallback(ctx, message, msgCtx)
	}
	return nil, fmt.Errorf("agent %s: no handler registered for message type %T", b.id, message)
}

// SaveState returns a shallow copy of the agent's state map.
func (b *Base) SaveState(ctx context.Context) (map[string]any, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]any, len(b.state))
	for k, v := range b.state {
		out[k] = v
	}
	return out, nil
}

// LoadState replaces the agent's state map with a shallow copy of state.
func (b *Base) LoadState(ctx context.Context, state map[string]any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = make(map[string]any, len(state))
	for k, v := range state {
		b.state[k] = v
	}
	return nil
}

// Get reads a single state key, used by specialized agents to keep their
// typed accessors (e.g. demoagents.Counter.Total) backed by the shared map.
func (b *Base) Get(key string) (any, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.state[key]
	return v, ok
}

// Set writes a single state key.
func (b *Base) Set(key string, value any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state[key] = value
}
