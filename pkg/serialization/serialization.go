// Package serialization provides the trivial registry contract the runtime
// consumes via AddMessageSerializer. The serializers
// themselves (wire format, schema) are an external collaborator's concern;
// the runtime only needs somewhere to register them.
package serialization

import "sync"

// Serializer converts a message to and from its wire representation for a
// given type name. Concrete codecs are supplied by callers; this package
// only keeps the registry.
type Serializer interface {
	TypeName() string
	Serialize(message any) ([]byte, error)
	Deserialize(data []byte) (any, error)
}

// Registry holds the serializers registered with the runtime.
type Registry struct {
	mu          sync.RWMutex
	serializers map[string]Serializer
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{serializers: make(map[string]Serializer)}
}

// Add registers one or more serializers, keyed by TypeName. A later
// registration for the same type name overrides an earlier one.
func (r *Registry) Add(serializers ...Serializer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range serializers {
		r.serializers[s.TypeName()] = s
	}
}

// Get returns the serializer registered for typeName, if any.
func (r *Registry) Get(typeName string) (Serializer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.serializers[typeName]
	return s, ok
}
