package runtime

import (
	"fmt"
	"reflect"

	"agentmesh/pkg/agent"
	"agentmesh/pkg/ids"
	"agentmesh/pkg/rterrors"
)

// Factory is a deferred producer of an Agent. Two arities are recognized:
// nullary, or binary receiving (runtime, agentID).
type Factory interface {
	build(rt *Runtime, id ids.AgentId) (agent.Agent, error)
}

// NullaryFactory builds an agent with no knowledge of the runtime or its
// own id ahead of construction (the id is assigned by the caller separately,
// typically because the constructor already closes over it).
type NullaryFactory func() (agent.Agent, error)

func (f NullaryFactory) build(rt *Runtime, id ids.AgentId) (agent.Agent, error) {
	return f()
}

// BinaryFactory builds an agent that needs the runtime and its assigned id
// at construction time.
type BinaryFactory func(rt *Runtime, id ids.AgentId) (agent.Agent, error)

func (f BinaryFactory) build(rt *Runtime, id ids.AgentId) (agent.Agent, error) {
	return f(rt, id)
}

// NewFactory adapts an arbitrary Go func value to a Factory by reflecting on
// its arity: zero parameters, or exactly two (*Runtime, ids.AgentId). Any
// other arity returns rterrors.ErrFactoryArity. This is the escape hatch for
// callers who don't want to write `runtime.NullaryFactory(fn)` by hand;
// Register accepts both forms directly too.
func NewFactory(fn any) (Factory, error) {
	switch f := fn.(type) {
	case Factory:
		return f, nil
	case func() (agent.Agent, error):
		return NullaryFactory(f), nil
	case func(*Runtime, ids.AgentId) (agent.Agent, error):
		return BinaryFactory(f), nil
	}

	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		return nil, fmt.Errorf("runtime: factory must be a function: %w", rterrors.ErrFactoryArity)
	}
	switch v.Type().NumIn() {
	case 0:
		return NullaryFactory(func() (agent.Agent, error) {
			return invokeReflected(v, nil)
		}), nil
	case 2:
		return BinaryFactory(func(rt *Runtime, id ids.AgentId) (agent.Agent, error) {
			return invokeReflected(v, []reflect.Value{reflect.ValueOf(rt), reflect.ValueOf(id)})
		}), nil
	default:
		return nil, fmt.Errorf("runtime: factory takes %d arguments: %w", v.Type().NumIn(), rterrors.ErrFactoryArity)
	}
}

func invokeReflected(v reflect.Value, args []reflect.Value) (agent.Agent, error) {
	results := v.Call(args)
	var a agent.Agent
	if !results[0].IsNil() {
		a = results[0].Interface().(agent.Agent)
	}
	var err error
	if len(results) > 1 && !results[1].IsNil() {
		err = results[1].Interface().(error)
	}
	return a, err
}
