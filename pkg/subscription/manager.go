package subscription

import (
	"fmt"
	"sync"

	"agentmesh/pkg/ids"
	"agentmesh/pkg/rterrors"
)

// Manager maintains the ordered sequence of active Subscriptions and
// resolves a topic to its deduplicated recipient list.
type Manager struct {
	mu   sync.Mutex
	subs []Subscription
}

// NewManager returns an empty Manager.
func NewManager() *Manager {
	return &Manager{}
}

// Add appends sub. Duplicate ids are rejected.
func (m *Manager) Add(sub Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.subs {
		if existing.ID() == sub.ID() {
			return fmt.Errorf("subscription %s: %w", sub.ID(), rterrors.ErrDuplicateSubscription)
		}
	}
	m.subs = append(m.subs, sub)
	return nil
}

// Remove deletes the subscription with the given id. Missing ids are an error.
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, existing := range m.subs {
		if existing.ID() == id {
			m.subs = append(m.subs[:i], m.subs[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("subscription %s: %w", id, rterrors.ErrSubscriptionNotFound)
}

// Recipients concatenates MapToAgent(topic) for every subscription that
// Matches(topic), preserving subscription order and deduplicating on
// AgentId equality.
func (m *Manager) Recipients(topic ids.TopicId) []ids.AgentId {
	m.mu.Lock()
	subsSnapshot := make([]Subscription, len(m.subs))
	copy(subsSnapshot, m.subs)
	m.mu.Unlock()

	seen := make(map[ids.AgentId]struct{})
	var out []ids.AgentId
	for _, sub := range subsSnapshot {
		if !sub.Matches(topic) {
			continue
		}
		agentID := sub.MapToAgent(topic)
		if _, dup := seen[agentID]; dup {
			continue
		}
		seen[agentID] = struct{}{}
		out = append(out, agentID)
	}
	return out
}
