// Package agent defines the Agent contract the runtime consumes and
// provides Base, a reusable embeddable helper for agents that want
// handler-map dispatch instead of hand-writing a type switch in OnMessage.
package agent

import (
	"context"

	"agentmesh/pkg/ids"
)

// Metadata describes an agent instance for introspection/logging.
type Metadata struct {
	Type        string
	Key         string
	Description string
}

// MessageContext carries per-delivery metadata into Agent.OnMessage, per
// Sender is the nil AgentId (zero value) when absent; callers
// check HasSender.
type MessageContext struct {
	Sender             ids.AgentId
	HasSender          bool
	TopicID            ids.TopicId
	IsPublish          bool
	IsRPC              bool
	CancellationToken  *ids.CancellationToken
	MessageID          string
}

// Agent is the external contract the runtime needs from an agent
// implementation. Agent implementations, their state
// serialization, and their business logic are out of this runtime's scope;
// this interface is the seam.
type Agent interface {
	ID() ids.AgentId
	Metadata() Metadata
	OnMessage(ctx context.Context, message any, msgCtx MessageContext) (any, error)
	SaveState(ctx context.Context) (map[string]any, error)
	LoadState(ctx context.Context, state map[string]any) error
}
