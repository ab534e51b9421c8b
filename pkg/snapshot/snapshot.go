/*
Package snapshot persists the runtime's SaveState/LoadState maps to disk
between process restarts using an embedded bbolt key-value store.

The runtime itself never touches disk — SaveState/LoadState only ever
produce and consume an in-memory map. Store is a separate, optional
collaborator that sits on top of that map.
*/
package snapshot

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"go.etcd.io/bbolt"
)

var bucketName = []byte("agents")

func init() {
	// gob must know the concrete types that flow through the map[string]any
	// state values it encodes. Agents are free to store richer types in
	// their state maps, but must gob.Register them themselves for Persist
	// to succeed — these cover the primitives the demo agents use.
	gob.Register(int(0))
	gob.Register(int64(0))
	gob.Register(float64(0))
	gob.Register(string(""))
	gob.Register(bool(false))
	gob.Register([]any(nil))
	gob.Register(map[string]any(nil))
}

// StateSource is the subset of the runtime's API a Store needs: producing
// the full save_state() map and consuming it back via load_state().
type StateSource interface {
	SaveState() (map[string]map[string]any, error)
	LoadState(state map[string]map[string]any) error
}

// Store persists agent state snapshots to a bbolt database file.
type Store struct {
	db *bbolt.DB
}

// Open opens (creating if necessary) the bbolt database at path.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("snapshot: opening %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("snapshot: creating bucket: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database file.
func (s *Store) Close() error {
	return s.db.Close()
}

// Persist calls source.SaveState and writes every agent's state map under
// its "type/key" id.
func (s *Store) Persist(source StateSource) error {
	state, err := source.SaveState()
	if err != nil {
		return fmt.Errorf("snapshot: save_state: %w", err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketName)
		for agentIDStr, agentState := range state {
			var buf bytes.Buffer
			if err := gob.NewEncoder(&buf).Encode(agentState); err != nil {
				return fmt.Errorf("snapshot: encoding state for %s: %w", agentIDStr, err)
			}
			if err := bucket.Put([]byte(agentIDStr), buf.Bytes()); err != nil {
				return fmt.Errorf("snapshot: writing state for %s: %w", agentIDStr, err)
			}
		}
		return nil
	})
}

// Restore reads every persisted agent state map and calls source.LoadState
// with the collected result.
func (s *Store) Restore(source StateSource) error {
	state := make(map[string]map[string]any)

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketName)
		return bucket.ForEach(func(k, v []byte) error {
			var agentState map[string]any
			if err := gob.NewDecoder(bytes.NewReader(v)).Decode(&agentState); err != nil {
				return fmt.Errorf("snapshot: decoding state for %s: %w", k, err)
			}
			state[string(k)] = agentState
			return nil
		})
	})
	if err != nil {
		return err
	}

	return source.LoadState(state)
}
