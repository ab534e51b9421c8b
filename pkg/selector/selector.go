/*
Package selector picks the next agent to route work to from a fixed pool.
It deliberately keeps only a deterministic round-robin strategy rather than
an LLM-backed speaker selector, since routing decisions here never call out
to a model.
*/
package selector

import (
	"fmt"
	"sync"

	"agentmesh/pkg/ids"
)

// RoundRobin cycles through a fixed, ordered pool of AgentIds.
type RoundRobin struct {
	mu   sync.Mutex
	pool []ids.AgentId
	next int
}

// NewRoundRobin builds a RoundRobin over pool. pool must be non-empty.
func NewRoundRobin(pool ...ids.AgentId) (*RoundRobin, error) {
	if len(pool) == 0 {
		return nil, fmt.Errorf("selector: round robin pool must not be empty")
	}
	cp := make([]ids.AgentId, len(pool))
	copy(cp, pool)
	return &RoundRobin{pool: cp}, nil
}

// Next returns the next AgentId in the pool, wrapping around.
func (r *RoundRobin) Next() ids.AgentId {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.pool[r.next]
	r.next = (r.next + 1) % len(r.pool)
	return id
}
