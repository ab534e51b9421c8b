// Package envelope defines the tagged-variant Envelope taxonomy carried by
// the runtime's queue: Send, Publish, and Response.
package envelope

import (
	"agentmesh/pkg/ids"
)

// TraceMetadata is the trivial telemetry-span-linkage contract the runtime
// consumes; a real tracer attaches richer fields via a context value keyed
// off this struct's SpanID. See pkg/runtime for where it's threaded.
type TraceMetadata struct {
	SpanID string
}

// Envelope is the closed tagged union dequeued by the dispatcher. Rather
// than a virtual-method interface, delivery logic switches on
// the concrete type since each variant's handling is distinct enough that
// inheritance is a mis-fit.
type Envelope interface {
	envelope()
}

// Send is a point-to-point request; the dispatcher resolves Recipient,
// invokes its handler, and settles Result with the outcome (directly, or
// indirectly via a follow-up Response re-entering the queue).
type Send struct {
	Message            any
	Sender             ids.AgentId
	HasSender          bool
	Recipient          ids.AgentId
	Result             *ResultHandle
	CancellationToken  *ids.CancellationToken
	Trace              *TraceMetadata
}

func (Send) envelope() {}

// Publish is a fire-and-forget fan-out to every subscription matching
// Topic. It never produces a ResultHandle and is never re-delivered to its
// own Sender.
type Publish struct {
	Message            any
	Sender             ids.AgentId
	HasSender          bool
	Topic              ids.TopicId
	MessageID          string
	CancellationToken  *ids.CancellationToken
	Trace              *TraceMetadata
}

func (Publish) envelope() {}

// Response is the follow-up to a Send, re-entering the queue so Response
// interception can observe and modify replies before the caller's
// ResultHandle is settled.
type Response struct {
	Message   any
	Sender    ids.AgentId // the original recipient
	Recipient ids.AgentId // the original sender
	HasRecipient bool
	Result    *ResultHandle
	Trace     *TraceMetadata
}

func (Response) envelope() {}
