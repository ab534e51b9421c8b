package intervention

import (
	"context"

	"agentmesh/pkg/ids"
)

// NoOp is embedded by handlers that only care about one or two of the three
// hooks; the unimplemented hooks pass the message through unchanged.
type NoOp struct{}

func (NoOp) OnSend(ctx context.Context, message any, sender ids.AgentId, hasSender bool, recipient ids.AgentId) (any, error) {
	return message, nil
}

func (NoOp) OnPublish(ctx context.Context, message any, sender ids.AgentId, hasSender bool) (any, error) {
	return message, nil
}

func (NoOp) OnResponse(ctx context.Context, message any, sender ids.AgentId, recipient ids.AgentId, hasRecipient bool) (any, error) {
	return message, nil
}
