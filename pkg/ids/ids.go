// Package ids defines the identity types used throughout the runtime:
// agent identity, agent type registration handles, and topic identity.
package ids

import "fmt"

// AgentId uniquely identifies an agent instance within a runtime. Type names
// a registered agent class; Key distinguishes instances of the same type.
// Two AgentIds are equal iff both fields are equal.
type AgentId struct {
	Type string
	Key  string
}

// DefaultKey is used when a caller does not specify an instance key.
const DefaultKey = "default"

// NewAgentId builds an AgentId, defaulting Key to DefaultKey when empty.
func NewAgentId(agentType, key string) AgentId {
	if key == "" {
		key = DefaultKey
	}
	return AgentId{Type: agentType, Key: key}
}

// String renders the canonical "type/key" form.
func (id AgentId) String() string {
	return fmt.Sprintf("%s/%s", id.Type, id.Key)
}

// ParseAgentId parses the "type/key" form produced by String. Used by
// save_state/load_state round-tripping (spec §4.10).
func ParseAgentId(s string) (AgentId, error) {
	for i := 0; i < len(s); i++ {
		if s[i] == '/' {
			return AgentId{Type: s[:i], Key: s[i+1:]}, nil
		}
	}
	return AgentId{}, fmt.Errorf("ids: %q is not a valid agent id (want \"type/key\")", s)
}

// AgentType is a registration handle returned by Register/RegisterFactory.
type AgentType struct {
	Type string
}

// String returns the bare type name.
func (t AgentType) String() string {
	return t.Type
}

// TopicId identifies a publish channel. Value equality defines identity.
//
// Topics are keyed on a (type, source) pair rather than a bare string, so
// subscriptions can match on type alone while still tracking provenance.
type TopicId struct {
	Type   string
	Source string
}

// String renders "type/source".
func (t TopicId) String() string {
	return fmt.Sprintf("%s/%s", t.Type, t.Source)
}
