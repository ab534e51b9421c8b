package snapshot_test

import (
	"path/filepath"
	"testing"

	"agentmesh/pkg/snapshot"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	saved   map[string]map[string]any
	loaded  map[string]map[string]any
}

func (f *fakeSource) SaveState() (map[string]map[string]any, error) {
	return f.saved, nil
}

func (f *fakeSource) LoadState(state map[string]map[string]any) error {
	f.loaded = state
	return nil
}

func TestStorePersistAndRestoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.db")

	store, err := snapshot.Open(path)
	require.NoError(t, err)

	source := &fakeSource{saved: map[string]map[string]any{
		"counter/default": {"n": 1},
	}}
	require.NoError(t, store.Persist(source))
	require.NoError(t, store.Close())

	reopened, err := snapshot.Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	restoreInto := &fakeSource{}
	require.NoError(t, reopened.Restore(restoreInto))

	assert.Equal(t, 1, restoreInto.loaded["counter/default"]["n"])
}
