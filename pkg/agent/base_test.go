package agent_test

import (
	"context"
	"testing"

	"agentmesh/pkg/agent"
	"agentmesh/pkg/ids"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type greeting struct{ Text string }

func TestBaseDispatchesByMessageType(t *testing.T) {
	b := agent.NewBase(ids.NewAgentId("greeter", "default"), "")
	var received string
	b.RegisterHandler(greeting{}, func(ctx context.Context, message any, msgCtx agent.MessageContext) (any, error) {
		received = message.(greeting).Text
		return "ok", nil
	})

	reply, err := b.OnMessage(context.Background(), greeting{Text: "hi"}, agent.MessageContext{})
	require.NoError(t, err)
	assert.Equal(t, "ok", reply)
	assert.Equal(t, "hi", received)
}

func TestBaseOnMessageErrorsWithoutHandler(t *testing.T) {
	b := agent.NewBase(ids.NewAgentId("mute", "default"), "")
	_, err := b.OnMessage(context.Background(), greeting{Text: "hi"}, agent.MessageContext{})
	assert.Error(t, err)
}

func TestBaseStateRoundTrip(t *testing.T) {
	b := agent.NewBase(ids.NewAgentId("counter", "default"), "")
	b.Set("n", 1)

	saved, err := b.SaveState(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, saved["n"])

	fresh := agent.NewBase(ids.NewAgentId("counter", "default"), "")
	require.NoError(t, fresh.LoadState(context.Background(), saved))

	v, ok := fresh.Get("n")
	require.True(t, ok)
	assert.Equal(t, 1, v)
}
