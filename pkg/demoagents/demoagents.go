/*
Package demoagents provides a handful of minimal Agent implementations used
by the CLI's "demo" command and by integration tests. Each publishes a
lifecycle event (received → processed) with an emoji-tagged detail string
for each message it handles, and does small deterministic work (uppercase,
accumulate, record) rather than calling out to a model.
*/
package demoagents

import (
	"context"
	"encoding/gob"
	"fmt"
	"strings"

	"agentmesh/pkg/agent"
	"agentmesh/pkg/events"
	"agentmesh/pkg/ids"
)

func init() {
	// Fanout stores its accumulated headlines as []string under a state key;
	// pkg/snapshot's gob encoder needs the concrete type registered to carry
	// it through a map[string]any (see pkg/snapshot's init for the rest).
	gob.Register([]string(nil))
}

// Echo is a Task-handling agent that uppercases whatever text it receives
// and publishes a lifecycle event for each step (received → completed).
type Echo struct {
	*agent.Base
	bus *events.Bus
}

// NewEcho builds an Echo agent bound to id, publishing lifecycle events to
// bus (nil is fine; no events are published then).
func NewEcho(id ids.AgentId, bus *events.Bus) *Echo {
	e := &Echo{
		Base: agent.NewBase(id, "echoes text messages, uppercased"),
		bus:  bus,
	}
	e.RegisterHandler("", e.handleText)
	return e
}

func (e *Echo) handleText(ctx context.Context, message any, msgCtx agent.MessageContext) (any, error) {
	text, ok := message.(string)
	if !ok {
		return nil, fmt.Errorf("echo agent %s: expected string, got %T", e.ID(), message)
	}

	e.publish(events.KindSendDelivered, fmt.Sprintf("📥 received %q", text))
	result := strings.ToUpper(text)
	e.publish(events.KindSendDelivered, fmt.Sprintf("✅ echoing %q", result))
	return result, nil
}

func (e *Echo) publish(kind events.Kind, detail string) {
	if e.bus == nil {
		return
	}
	e.bus.Publish(events.Event{Kind: kind, AgentID: e.ID().String(), Detail: detail})
}

// Tick is the message a Counter agent increments its running total by.
type Tick struct {
	Amount int
}

// Counter is a Task-handling agent that accumulates Tick.Amount into a
// running total, persisted through Base's SaveState/LoadState so a snapshot
// round-trip preserves it.
type Counter struct {
	*agent.Base
	bus *events.Bus
}

// NewCounter builds a Counter agent bound to id.
func NewCounter(id ids.AgentId, bus *events.Bus) *Counter {
	c := &Counter{
		Base: agent.NewBase(id, "accumulates Tick.Amount into a running total"),
		bus:  bus,
	}
	c.RegisterHandler(Tick{}, c.handleTick)
	return c
}

func (c *Counter) handleTick(ctx context.Context, message any, msgCtx agent.MessageContext) (any, error) {
	tick, ok := message.(Tick)
	if !ok {
		return nil, fmt.Errorf("counter agent %s: expected Tick, got %T", c.ID(), message)
	}

	total, _ := c.Get("total")
	current, _ := total.(int)
	current += tick.Amount
	c.Set("total", current)

	if c.bus != nil {
		c.bus.Publish(events.Event{
			Kind:    events.KindSendDelivered,
			AgentID: c.ID().String(),
			Detail:  fmt.Sprintf("total now %d", current),
		})
	}
	return current, nil
}

// Total returns the agent's running total.
func (c *Counter) Total() int {
	v, _ := c.Get("total")
	n, _ := v.(int)
	return n
}

// Announcement is published on a topic and delivered as-is to every
// subscribed Fanout agent.
type Announcement struct {
	Headline string
}

// Fanout is a Publish-handling agent that records every Announcement it
// receives, used to exercise and test subscription fan-out.
type Fanout struct {
	*agent.Base
	bus *events.Bus
}

// NewFanout builds a Fanout agent bound to id.
func NewFanout(id ids.AgentId, bus *events.Bus) *Fanout {
	f := &Fanout{
		Base: agent.NewBase(id, "records Announcements delivered via publish"),
		bus:  bus,
	}
	f.RegisterHandler(Announcement{}, f.handleAnnouncement)
	return f
}

func (f *Fanout) handleAnnouncement(ctx context.Context, message any, msgCtx agent.MessageContext) (any, error) {
	ann, ok := message.(Announcement)
	if !ok {
		return nil, fmt.Errorf("fanout agent %s: expected Announcement, got %T", f.ID(), message)
	}

	seenRaw, _ := f.Get("headlines")
	seen, _ := seenRaw.([]string)
	seen = append(seen, ann.Headline)
	f.Set("headlines", seen)

	if f.bus != nil {
		f.bus.Publish(events.Event{
			Kind:    events.KindPublishDelivered,
			AgentID: f.ID().String(),
			Detail:  fmt.Sprintf("📰 %s", ann.Headline),
		})
	}
	return nil, nil
}

// Headlines returns every Announcement headline this agent has received, in
// delivery order.
func (f *Fanout) Headlines() []string {
	v, _ := f.Get("headlines")
	headlines, _ := v.([]string)
	return headlines
}
