// Package subscription implements the topic-to-agent mapping the runtime
// consults on every publish. Subscription predicates
// themselves are a black-box external contract; this package supplies the
// ordered registry plus one concrete predicate implementation (TypeBound)
// that is common enough to ship.
package subscription

import (
	"agentmesh/pkg/ids"
)

// Subscription maps topics to concrete recipient AgentIds. Implementations
// are a black box to the runtime beyond this contract.
type Subscription interface {
	ID() string
	Matches(topic ids.TopicId) bool
	MapToAgent(topic ids.TopicId) ids.AgentId
}

// TypeBound is a Subscription that matches any topic whose Type equals
// TopicType, and maps every match to a single fixed agent instance. This is
// the common case exercised by the S2 fan-out scenario in
type TypeBound struct {
	SubscriptionID string
	TopicType      string
	Agent          ids.AgentId
}

func (s TypeBound) ID() string { return s.SubscriptionID }

func (s TypeBound) Matches(topic ids.TopicId) bool { return topic.Type == s.TopicType }

func (s TypeBound) MapToAgent(topic ids.TopicId) ids.AgentId { return s.Agent }
