package runtime_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"agentmesh/pkg/agent"
	"agentmesh/pkg/ids"
	"agentmesh/pkg/intervention"
	"agentmesh/pkg/rterrors"
	"agentmesh/pkg/runtime"
	"agentmesh/pkg/subscription"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoAgent replies with the message it was given, prefixed, and counts how
// many times it has been invoked.
type echoAgent struct {
	id    ids.AgentId
	calls int
}

func newEchoAgent(id ids.AgentId) *echoAgent { return &echoAgent{id: id} }

func (a *echoAgent) ID() ids.AgentId    { return a.id }
func (a *echoAgent) Metadata() agent.Metadata { return agent.Metadata{Type: a.id.Type, Key: a.id.Key} }

func (a *echoAgent) OnMessage(ctx context.Context, message any, msgCtx agent.MessageContext) (any, error) {
	a.calls++
	return fmt.Sprintf("echo:%v", message), nil
}

func (a *echoAgent) SaveState(ctx context.Context) (map[string]any, error) {
	return map[string]any{"calls": a.calls}, nil
}

func (a *echoAgent) LoadState(ctx context.Context, state map[string]any) error {
	if v, ok := state["calls"]; ok {
		a.calls = int(v.(int))
	}
	return nil
}

// recordingAgent sends every message it receives on a buffered channel so
// tests can wait for delivery deterministically.
type recordingAgent struct {
	id       ids.AgentId
	received chan any
}

func newRecordingAgent(id ids.AgentId) *recordingAgent {
	return &recordingAgent{id: id, received: make(chan any, 8)}
}

func (a *recordingAgent) ID() ids.AgentId        { return a.id }
func (a *recordingAgent) Metadata() agent.Metadata { return agent.Metadata{Type: a.id.Type, Key: a.id.Key} }

func (a *recordingAgent) OnMessage(ctx context.Context, message any, msgCtx agent.MessageContext) (any, error) {
	a.received <- message
	return nil, nil
}

func (a *recordingAgent) SaveState(ctx context.Context) (map[string]any, error) { return nil, nil }
func (a *recordingAgent) LoadState(ctx context.Context, state map[string]any) error { return nil }

func TestSendMessageEchoRoundTrip(t *testing.T) {
	rt := runtime.New()
	_, err := rt.Register("echo", func(rtRef *runtime.Runtime, id ids.AgentId) (agent.Agent, error) {
		return newEchoAgent(id), nil
	})
	require.NoError(t, err)
	require.NoError(t, rt.Start())
	defer rt.Stop(context.Background())

	result, err := rt.SendMessage(context.Background(), "hi", ids.NewAgentId("echo", "a"))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	value, err := result.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, "echo:hi", value)
}

func TestSendMessageUnregisteredRecipientFailsFast(t *testing.T) {
	rt := runtime.New()
	require.NoError(t, rt.Start())
	defer rt.Stop(context.Background())

	result, err := rt.SendMessage(context.Background(), "hi", ids.NewAgentId("ghost", "a"))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err = result.Wait(ctx)
	require.ErrorIs(t, err, rterrors.ErrRecipientNotFound)
}

func TestPublishFanOutExcludesSender(t *testing.T) {
	rt := runtime.New()

	a1 := ids.NewAgentId("sub", "one")
	a2 := ids.NewAgentId("sub", "two")
	var agentOne, agentTwo *recordingAgent

	_, err := rt.Register("sub", func(rtRef *runtime.Runtime, id ids.AgentId) (agent.Agent, error) {
		ra := newRecordingAgent(id)
		if id == a1 {
			agentOne = ra
		} else {
			agentTwo = ra
		}
		return ra, nil
	},
		subscription.TypeBound{SubscriptionID: "sub-1", TopicType: "news", Agent: a1},
		subscription.TypeBound{SubscriptionID: "sub-2", TopicType: "news", Agent: a2},
	)
	require.NoError(t, err)
	require.NoError(t, rt.Start())
	defer rt.Stop(context.Background())

	// Force both instances to exist before publish: instantiation is lazy, so
	// agentOne and agentTwo would otherwise still be nil when read below.
	_, err = rt.Get(ids.AgentType{Type: "sub"}, "one", false)
	require.NoError(t, err)
	_, err = rt.Get(ids.AgentType{Type: "sub"}, "two", false)
	require.NoError(t, err)

	err = rt.PublishMessage(context.Background(), "breaking", ids.TopicId{Type: "news", Source: "wire"}, runtime.WithPublishSender(a1))
	require.NoError(t, err)

	select {
	case msg := <-agentTwo.received:
		assert.Equal(t, "breaking", msg)
	case <-time.After(time.Second):
		t.Fatal("agentTwo never received the publish")
	}

	select {
	case <-agentOne.received:
		t.Fatal("publisher should not receive its own publish")
	case <-time.After(50 * time.Millisecond):
	}
}

// dropEverything is an intervention.Handler that drops every Send.
type dropEverything struct{}

func (dropEverything) OnSend(ctx context.Context, message any, sender ids.AgentId, hasSender bool, recipient ids.AgentId) (any, error) {
	return intervention.DropMessage, nil
}

func (dropEverything) OnPublish(ctx context.Context, message any, sender ids.AgentId, hasSender bool) (any, error) {
	return message, nil
}

func (dropEverything) OnResponse(ctx context.Context, message any, sender, recipient ids.AgentId, hasRecipient bool) (any, error) {
	return message, nil
}

func TestInterventionDropsSend(t *testing.T) {
	rt := runtime.New(runtime.WithInterventions(dropEverything{}))
	_, err := rt.Register("echo", func(rtRef *runtime.Runtime, id ids.AgentId) (agent.Agent, error) {
		return newEchoAgent(id), nil
	})
	require.NoError(t, err)
	require.NoError(t, rt.Start())
	defer rt.Stop(context.Background())

	result, err := rt.SendMessage(context.Background(), "hi", ids.NewAgentId("echo", "a"))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err = result.Wait(ctx)
	require.ErrorIs(t, err, rterrors.ErrMessageDropped)
}

func TestCancellationBeforeDeliverySettlesCancelled(t *testing.T) {
	rt := runtime.New()
	_, err := rt.Register("echo", func(rtRef *runtime.Runtime, id ids.AgentId) (agent.Agent, error) {
		return newEchoAgent(id), nil
	})
	require.NoError(t, err)

	tok := ids.NewCancellationToken()
	tok.Cancel()

	require.NoError(t, rt.Start())
	defer rt.Stop(context.Background())

	result, err := rt.SendMessage(context.Background(), "hi", ids.NewAgentId("echo", "a"), runtime.WithCancellationToken(tok))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err = result.Wait(ctx)
	require.ErrorIs(t, err, rterrors.ErrCancelled)
}

func TestStartTwiceIsLifecycleMisuse(t *testing.T) {
	rt := runtime.New()
	require.NoError(t, rt.Start())
	defer rt.Stop(context.Background())

	err := rt.Start()
	require.ErrorIs(t, err, rterrors.ErrLifecycleMisuse)
}

func TestStopWithoutStartIsLifecycleMisuse(t *testing.T) {
	rt := runtime.New()
	err := rt.Stop(context.Background())
	require.ErrorIs(t, err, rterrors.ErrLifecycleMisuse)
}

func TestSaveStateLoadStateRoundTrip(t *testing.T) {
	rt := runtime.New()
	_, err := rt.Register("echo", func(rtRef *runtime.Runtime, id ids.AgentId) (agent.Agent, error) {
		return newEchoAgent(id), nil
	})
	require.NoError(t, err)
	require.NoError(t, rt.Start())

	result, err := rt.SendMessage(context.Background(), "hi", ids.NewAgentId("echo", "a"))
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err = result.Wait(ctx)
	require.NoError(t, err)

	require.NoError(t, rt.Stop(context.Background()))

	state, err := rt.SaveState(context.Background())
	require.NoError(t, err)
	require.Contains(t, state, "echo/a")
	assert.Equal(t, 1, state["echo/a"]["calls"])

	rt2 := runtime.New()
	_, err = rt2.Register("echo", func(rtRef *runtime.Runtime, id ids.AgentId) (agent.Agent, error) {
		return newEchoAgent(id), nil
	})
	require.NoError(t, err)
	require.NoError(t, rt2.LoadState(context.Background(), state))

	got, err := rt2.AgentSaveState(context.Background(), ids.NewAgentId("echo", "a"))
	require.NoError(t, err)
	assert.Equal(t, 1, got["calls"])
}

func TestUnprocessedMessagesCount(t *testing.T) {
	rt := runtime.New()
	assert.Equal(t, 0, rt.UnprocessedMessagesCount())
}

// TestStopDiscardsQueuedMessages guards against Stop draining the queue
// instead of discarding it: messages are enqueued before the dispatcher is
// running so they sit in the queue rather than being dispatched, then Start
// and Stop are called back to back with nothing in between to give the
// dispatch loop a chance to drain them.
func TestStopDiscardsQueuedMessages(t *testing.T) {
	rt := runtime.New()
	agentID := ids.NewAgentId("echo", "a")
	ea := newEchoAgent(agentID)
	_, err := rt.Register("echo", func(rtRef *runtime.Runtime, id ids.AgentId) (agent.Agent, error) {
		return ea, nil
	})
	require.NoError(t, err)

	const n = 200
	for i := 0; i < n; i++ {
		_, err := rt.SendMessage(context.Background(), "hi", agentID)
		require.NoError(t, err)
	}

	require.NoError(t, rt.Start())
	require.NoError(t, rt.Stop(context.Background()))

	assert.Less(t, ea.calls, n, "Stop should discard queued messages rather than draining them")
}
