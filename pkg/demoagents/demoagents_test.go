package demoagents_test

import (
	"context"
	"testing"

	"agentmesh/pkg/agent"
	"agentmesh/pkg/demoagents"
	"agentmesh/pkg/ids"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEchoUppercases(t *testing.T) {
	e := demoagents.NewEcho(ids.NewAgentId("echo", "a"), nil)
	reply, err := e.OnMessage(context.Background(), "hello", agent.MessageContext{})
	require.NoError(t, err)
	assert.Equal(t, "HELLO", reply)
}

func TestCounterAccumulatesAndPersists(t *testing.T) {
	c := demoagents.NewCounter(ids.NewAgentId("counter", "a"), nil)

	_, err := c.OnMessage(context.Background(), demoagents.Tick{Amount: 3}, agent.MessageContext{})
	require.NoError(t, err)
	_, err = c.OnMessage(context.Background(), demoagents.Tick{Amount: 4}, agent.MessageContext{})
	require.NoError(t, err)
	assert.Equal(t, 7, c.Total())

	state, err := c.SaveState(context.Background())
	require.NoError(t, err)

	c2 := demoagents.NewCounter(ids.NewAgentId("counter", "b"), nil)
	require.NoError(t, c2.LoadState(context.Background(), state))
	assert.Equal(t, 7, c2.Total())
}

func TestFanoutRecordsAnnouncementsInOrder(t *testing.T) {
	f := demoagents.NewFanout(ids.NewAgentId("fanout", "a"), nil)

	_, err := f.OnMessage(context.Background(), demoagents.Announcement{Headline: "first"}, agent.MessageContext{IsPublish: true})
	require.NoError(t, err)
	_, err = f.OnMessage(context.Background(), demoagents.Announcement{Headline: "second"}, agent.MessageContext{IsPublish: true})
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "second"}, f.Headlines())
}

func TestEchoRejectsNonStringMessage(t *testing.T) {
	e := demoagents.NewEcho(ids.NewAgentId("echo", "a"), nil)
	_, err := e.OnMessage(context.Background(), 42, agent.MessageContext{})
	require.Error(t, err)
}
