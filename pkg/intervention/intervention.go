// Package intervention defines the ordered middleware pipeline that may
// transform or drop a message before delivery.
package intervention

import (
	"context"

	"agentmesh/pkg/ids"
)

// dropMessage is the sentinel type signalling "suppress this message".
// DropMessage (the package-level value below) is the canonical instance;
//, handlers may also return any
// value of this type and it is still treated as a drop.
type dropMessage struct{}

// DropMessage is returned by a Handler to suppress the message it was given.
var DropMessage = dropMessage{}

// IsDropMessage reports whether v is the drop sentinel, by type rather than
// by identity, so any value of the sentinel type (including copies of
// DropMessage) triggers a drop.
func IsDropMessage(v any) bool {
	_, ok := v.(dropMessage)
	return ok
}

// Handler is middleware inspecting or transforming a message between
// enqueue and delivery. Each method receives the current message plus
// contextual identifiers and returns either the (possibly modified)
// message, or DropMessage.
//
// A nil return (Go's "no value", the analog of Python's None) is legal: the
// runtime threads it through unchanged to the next handler and to delivery
// and never substitutes a default. No warning is logged for a nil return.
type Handler interface {
	OnSend(ctx context.Context, message any, sender ids.AgentId, hasSender bool, recipient ids.AgentId) (any, error)
	OnPublish(ctx context.Context, message any, sender ids.AgentId, hasSender bool) (any, error)
	OnResponse(ctx context.Context, message any, sender ids.AgentId, recipient ids.AgentId, hasRecipient bool) (any, error)
}
