package web_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"agentmesh/pkg/agent"
	"agentmesh/pkg/ids"
	"agentmesh/pkg/runtime"
	"agentmesh/pkg/web"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopAgent struct{ id ids.AgentId }

func (a *noopAgent) ID() ids.AgentId                { return a.id }
func (a *noopAgent) Metadata() agent.Metadata       { return agent.Metadata{Type: a.id.Type, Key: a.id.Key} }
func (a *noopAgent) OnMessage(ctx context.Context, message any, msgCtx agent.MessageContext) (any, error) {
	return nil, nil
}
func (a *noopAgent) SaveState(ctx context.Context) (map[string]any, error) { return nil, nil }
func (a *noopAgent) LoadState(ctx context.Context, state map[string]any) error { return nil }

func TestHandleAgentsListsInstantiatedAgents(t *testing.T) {
	rt := runtime.New()
	_, err := rt.Register("echo", func(rtRef *runtime.Runtime, id ids.AgentId) (agent.Agent, error) {
		return &noopAgent{id: id}, nil
	})
	require.NoError(t, err)

	_, err = rt.Get(ids.AgentType{Type: "echo"}, "a", false)
	require.NoError(t, err)

	server := web.NewServer(rt, zerolog.Nop())
	req := httptest.NewRequest("GET", "/api/agents", nil)
	rec := httptest.NewRecorder()
	server.Mux().ServeHTTP(rec, req)

	assert.Equal(t, 200, rec.Code)

	var body struct {
		Agents []string `json:"agents"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"echo/a"}, body.Agents)
}

func TestHandleStatusReportsUnprocessedMessages(t *testing.T) {
	rt := runtime.New()
	server := web.NewServer(rt, zerolog.Nop())

	req := httptest.NewRequest("GET", "/api/status", nil)
	rec := httptest.NewRecorder()
	server.Mux().ServeHTTP(rec, req)

	assert.Equal(t, 200, rec.Code)
	var body struct {
		UnprocessedMessages int `json:"unprocessed_messages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 0, body.UnprocessedMessages)
}
