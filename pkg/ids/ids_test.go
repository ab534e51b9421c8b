package ids_test

import (
	"testing"

	"agentmesh/pkg/ids"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgentIdStringRoundTrip(t *testing.T) {
	id := ids.NewAgentId("counter", "default")
	assert.Equal(t, "counter/default", id.String())

	parsed, err := ids.ParseAgentId("counter/default")
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestNewAgentIdDefaultsKey(t *testing.T) {
	id := ids.NewAgentId("echo", "")
	assert.Equal(t, ids.DefaultKey, id.Key)
}

func TestParseAgentIdRejectsMissingSlash(t *testing.T) {
	_, err := ids.ParseAgentId("not-an-id")
	assert.Error(t, err)
}

func TestAgentIdEquality(t *testing.T) {
	a := ids.NewAgentId("echo", "default")
	b := ids.NewAgentId("echo", "default")
	c := ids.NewAgentId("echo", "other")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestTopicIdString(t *testing.T) {
	topic := ids.TopicId{Type: "news", Source: "global"}
	assert.Equal(t, "news/global", topic.String())
}
