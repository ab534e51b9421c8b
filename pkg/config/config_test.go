package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"agentmesh/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoadParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agentmesh.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen_addr: \":9000\"\nstop_when_check_period_seconds: 5\n"), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.ListenAddr)
	assert.Equal(t, 5*time.Second, cfg.StopWhenCheckPeriod())
	assert.Equal(t, config.Default().SnapshotPath, cfg.SnapshotPath)
}

func TestLoadParsesAgents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agentmesh.yaml")
	yaml := `
agents:
  - type: echo
    key: default
  - type: counter
    key: default
  - type: fanout
    key: one
    topics: [news]
  - type: fanout
    key: two
    topics: [news]
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Agents, 4)
	assert.Equal(t, config.AgentSpec{Type: "echo", Key: "default"}, cfg.Agents[0])
	assert.Equal(t, config.AgentSpec{Type: "fanout", Key: "one", Topics: []string{"news"}}, cfg.Agents[2])
}
