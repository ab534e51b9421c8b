/*
Package runtime implements an in-process agent messaging runtime: the FIFO
message loop, intervention pipeline, subscription-driven publish fan-out,
lazy agent cache, and lifecycle controller.

The dispatcher loop runs on its own goroutine and each delivery is its own
goroutine too — "single-threaded" here describes the dispatch *model* (one
FIFO, one dispatcher, deliveries fan out and reconverge through the same
queue), not literal single-goroutine execution. That's why this package
guards shared state with real mutexes rather than relying on cooperative
scheduling.
*/
package runtime

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"agentmesh/pkg/agent"
	"agentmesh/pkg/envelope"
	"agentmesh/pkg/events"
	"agentmesh/pkg/ids"
	"agentmesh/pkg/intervention"
	"agentmesh/pkg/metrics"
	"agentmesh/pkg/queue"
	"agentmesh/pkg/rterrors"
	"agentmesh/pkg/serialization"
	"agentmesh/pkg/subscription"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Runtime is the in-process agent messaging runtime. Zero value is not usable; construct with New.
type Runtime struct {
	mu        sync.Mutex
	factories map[string]Factory
	instances map[ids.AgentId]agent.Agent

	q    *queue.Queue
	subs *subscription.Manager

	interventionsMu sync.Mutex
	interventions   []intervention.Handler

	serialization *serialization.Registry
	metrics       *metrics.Collector
	events        *events.Bus

	log       zerolog.Logger
	eventsLog zerolog.Logger

	runMu  sync.Mutex
	runCtx *runContext
}

// New constructs a Runtime. The queue and dispatcher don't start running
// until Start is called.
func New(opts ...Option) *Runtime {
	rt := &Runtime{
		factories:     make(map[string]Factory),
		instances:     make(map[ids.AgentId]agent.Agent),
		q:             queue.New(),
		subs:          subscription.NewManager(),
		serialization: serialization.NewRegistry(),
		events:        events.NewBus(),
	}
	base := defaultLogger()
	rt.log = base.With().Str("channel", "runtime").Logger()
	rt.eventsLog = base.With().Str("channel", "runtime.events").Logger()

	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// EventBus returns the bus the dashboard subscribes to for structured
// runtime events.
func (rt *Runtime) EventBus() *events.Bus {
	return rt.events
}

// UnprocessedMessagesCount is the queue's current size.
func (rt *Runtime) UnprocessedMessagesCount() int {
	return rt.q.Len()
}

// InstantiatedAgents lists the ids of every agent actually constructed so
// far (excluding types registered but never instantiated).
func (rt *Runtime) InstantiatedAgents() []ids.AgentId {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	out := make([]ids.AgentId, 0, len(rt.instances))
	for id := range rt.instances {
		out = append(out, id)
	}
	return out
}

// Register binds agentType to factory and installs the given (already
// resolved) subscriptions. A duplicate agentType is an error.
func (rt *Runtime) Register(agentType string, factory any, subs ...subscription.Subscription) (ids.AgentType, error) {
	return rt.registerFactory(agentType, factory, subs)
}

// RegisterDeferred is like Register but subscriptions are produced lazily by
// subsFn.
func (rt *Runtime) RegisterDeferred(agentType string, factory any, subsFn func(ids.AgentType) ([]subscription.Subscription, error)) (ids.AgentType, error) {
	subs, err := subsFn(ids.AgentType{Type: agentType})
	if err != nil {
		return ids.AgentType{}, fmt.Errorf("runtime: building subscriptions for %s: %w", agentType, err)
	}
	return rt.registerFactory(agentType, factory, subs)
}

func (rt *Runtime) registerFactory(agentType string, factoryValue any, subs []subscription.Subscription) (ids.AgentType, error) {
	f, err := NewFactory(factoryValue)
	if err != nil {
		return ids.AgentType{}, err
	}

	rt.mu.Lock()
	if _, exists := rt.factories[agentType]; exists {
		rt.mu.Unlock()
		return ids.AgentType{}, fmt.Errorf("%s: %w", agentType, rterrors.ErrDuplicateType)
	}
	rt.factories[agentType] = f
	rt.mu.Unlock()

	for _, sub := range subs {
		if err := rt.subs.Add(sub); err != nil {
			return ids.AgentType{}, err
		}
	}
	return ids.AgentType{Type: agentType}, nil
}

// RegisterFactory is the stricter registration form: the produced instance's
// concrete type must equal expectedClass (a zero value of the expected
// type), or registration raises ErrFactoryTypeMismatch at build time.
func (rt *Runtime) RegisterFactory(agentType ids.AgentType, factoryValue any, expectedClass any) (ids.AgentType, error) {
	inner, err := NewFactory(factoryValue)
	if err != nil {
		return ids.AgentType{}, err
	}
	expectedType := reflect.TypeOf(expectedClass)

	checked := BinaryFactory(func(rt *Runtime, id ids.AgentId) (agent.Agent, error) {
		a, err := inner.build(rt, id)
		if err != nil {
			return nil, err
		}
		if reflect.TypeOf(a) != expectedType {
			return nil, fmt.Errorf("runtime: factory for %s produced %T, expected %s: %w", agentType.Type, a, expectedType, rterrors.ErrFactoryTypeMismatch)
		}
		return a, nil
	})

	return rt.registerFactory(agentType.Type, checked, nil)
}

// AddSubscription registers sub with the subscription manager.
func (rt *Runtime) AddSubscription(sub subscription.Subscription) error {
	return rt.subs.Add(sub)
}

// RemoveSubscription removes the subscription with the given id.
func (rt *Runtime) RemoveSubscription(id string) error {
	return rt.subs.Remove(id)
}

// getAgent resolves id to a live Agent, instantiating it via its registered
// factory on first reference. The whole call runs under
// rt.mu, which both serializes first-touch construction (so Invariant 2 —
// at most one instantiation per AgentId — holds without extra
// synchronization) and means factories must not call back into the runtime
// synchronously during their own construction.
func (rt *Runtime) getAgent(id ids.AgentId) (agent.Agent, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if inst, ok := rt.instances[id]; ok {
		return inst, nil
	}
	factory, ok := rt.factories[id.Type]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id.Type, rterrors.ErrAgentNotFound)
	}

	a, err := factory.build(rt, id)
	if err != nil {
		return nil, fmt.Errorf("runtime: constructing agent %s: %w", id, err)
	}
	rt.instances[id] = a

	rt.log.Info().Str("agent_id", id.String()).Msg("instantiated agent")
	rt.events.Publish(events.Event{Kind: events.KindAgentInstantiated, AgentID: id.String()})
	return a, nil
}

// isKnownType reports whether agentType has a registered factory.
func (rt *Runtime) isKnownType(agentType string) bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	_, ok := rt.factories[agentType]
	return ok
}

// Get resolves id_or_type/key to an AgentId, materializing the
// instance immediately unless lazy is true.
func (rt *Runtime) Get(idOrType any, key string, lazy bool) (ids.AgentId, error) {
	if key == "" {
		key = ids.DefaultKey
	}

	var id ids.AgentId
	switch v := idOrType.(type) {
	case ids.AgentId:
		id = v
	case ids.AgentType:
		id = ids.NewAgentId(v.Type, key)
	case string:
		id = ids.NewAgentId(v, key)
	default:
		return ids.AgentId{}, fmt.Errorf("runtime: Get: unsupported id_or_type %T", idOrType)
	}

	if !rt.isKnownType(id.Type) {
		return ids.AgentId{}, fmt.Errorf("%s: %w", id.Type, rterrors.ErrAgentNotFound)
	}
	if !lazy {
		if _, err := rt.getAgent(id); err != nil {
			return ids.AgentId{}, err
		}
	}
	return id, nil
}

// TryGetUnderlyingAgentInstance returns the agent at id cast to
// expectedClass's type, raising a type error on mismatch.
func (rt *Runtime) TryGetUnderlyingAgentInstance(id ids.AgentId, expectedClass any) (agent.Agent, error) {
	if !rt.isKnownType(id.Type) {
		return nil, fmt.Errorf("%s: %w", id.Type, rterrors.ErrAgentNotFound)
	}
	a, err := rt.getAgent(id)
	if err != nil {
		return nil, err
	}
	expectedType := reflect.TypeOf(expectedClass)
	if reflect.TypeOf(a) != expectedType {
		return nil, fmt.Errorf("runtime: agent %s is of type %T, not %s: %w", id, a, expectedType, rterrors.ErrFactoryTypeMismatch)
	}
	return a, nil
}

// AgentMetadata returns the metadata of the agent at id, materializing it if needed.
func (rt *Runtime) AgentMetadata(id ids.AgentId) (agent.Metadata, error) {
	a, err := rt.getAgent(id)
	if err != nil {
		return agent.Metadata{}, err
	}
	return a.Metadata(), nil
}

// AgentSaveState returns the save_state() map for the agent at id.
func (rt *Runtime) AgentSaveState(ctx context.Context, id ids.AgentId) (map[string]any, error) {
	a, err := rt.getAgent(id)
	if err != nil {
		return nil, err
	}
	return a.SaveState(ctx)
}

// AgentLoadState calls load_state(state) on the agent at id.
func (rt *Runtime) AgentLoadState(ctx context.Context, id ids.AgentId, state map[string]any) error {
	a, err := rt.getAgent(id)
	if err != nil {
		return err
	}
	return a.LoadState(ctx, state)
}

// SaveState collects save_state() from every instantiated agent, keyed by
// its "type/key" string. Factories without instances are
// skipped — they have nothing to save.
func (rt *Runtime) SaveState(ctx context.Context) (map[string]map[string]any, error) {
	rt.mu.Lock()
	snapshot := make(map[ids.AgentId]agent.Agent, len(rt.instances))
	for id, a := range rt.instances {
		snapshot[id] = a
	}
	rt.mu.Unlock()

	out := make(map[string]map[string]any, len(snapshot))
	for id, a := range snapshot {
		state, err := a.SaveState(ctx)
		if err != nil {
			return nil, fmt.Errorf("runtime: saving state for %s: %w", id, err)
		}
		out[id.String()] = state
	}
	return out, nil
}

// LoadState materializes (via getAgent) and calls LoadState on every agent
// named by state whose type is registered; unrecognized types are skipped.
func (rt *Runtime) LoadState(ctx context.Context, state map[string]map[string]any) error {
	for idStr, agentState := range state {
		id, err := ids.ParseAgentId(idStr)
		if err != nil {
			return fmt.Errorf("runtime: load_state: %w", err)
		}
		if !rt.isKnownType(id.Type) {
			continue
		}
		a, err := rt.getAgent(id)
		if err != nil {
			return err
		}
		if err := a.LoadState(ctx, agentState); err != nil {
			return fmt.Errorf("runtime: loading state for %s: %w", id, err)
		}
	}
	return nil
}

// AddMessageSerializer registers one or more serializers.
func (rt *Runtime) AddMessageSerializer(serializers ...serialization.Serializer) {
	rt.serialization.Add(serializers...)
}

// SendMessage enqueues a Send envelope and returns a handle that resolves to
// the handler's return value, or fails with MessageDropped / cancellation /
// handler error / RecipientNotFound. The returned error is only
// non-nil for synchronous enqueue failure (e.g. the queue has been shut
// down); recipient-not-found is reported through the handle so callers
// always await the same way.
func (rt *Runtime) SendMessage(ctx context.Context, message any, recipient ids.AgentId, opts ...SendOption) (*envelope.ResultHandle, error) {
	cfg := sendConfig{cancellationToken: ids.NewCancellationToken()}
	for _, opt := range opts {
		opt(&cfg)
	}

	result := envelope.NewResultHandle()
	cfg.cancellationToken.LinkFuture(func() {
		if !result.Settled() {
			result.Settle(nil, rterrors.ErrCancelled)
		}
	})

	if !rt.isKnownType(recipient.Type) {
		// Checked synchronously so callers fail fast;
		// the envelope is never enqueued in this case.
		result.Settle(nil, fmt.Errorf("%s: %w", recipient.Type, rterrors.ErrRecipientNotFound))
		return result, nil
	}

	rt.log.Info().
		Str("recipient", recipient.String()).
		Type("message_type", message).
		Msg("sending message")

	env := &envelope.Send{
		Message:           message,
		Sender:            cfg.sender,
		HasSender:         cfg.hasSender,
		Recipient:         recipient,
		Result:            result,
		CancellationToken: cfg.cancellationToken,
	}
	if err := rt.q.Put(env); err != nil {
		return nil, fmt.Errorf("runtime: send_message: %w", err)
	}
	rt.events.Publish(events.Event{Kind: events.KindSendEnqueued, AgentID: recipient.String()})
	return result, nil
}

// PublishMessage enqueues a Publish envelope. The returned
// error reports only enqueue failure; delivery to subscribers happens
// asynchronously and is not awaited.
func (rt *Runtime) PublishMessage(ctx context.Context, message any, topic ids.TopicId, opts ...PublishOption) error {
	cfg := publishConfig{cancellationToken: ids.NewCancellationToken()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.messageID == "" {
		cfg.messageID = uuid.NewString()
	}

	rt.log.Info().
		Str("topic", topic.String()).
		Type("message_type", message).
		Msg("publishing message")

	env := &envelope.Publish{
		Message:           message,
		Sender:            cfg.sender,
		HasSender:         cfg.hasSender,
		Topic:             topic,
		MessageID:         cfg.messageID,
		CancellationToken: cfg.cancellationToken,
	}
	if err := rt.q.Put(env); err != nil {
		return fmt.Errorf("runtime: publish_message: %w", err)
	}
	rt.events.Publish(events.Event{Kind: events.KindPublishEnqueued, Data: topic.String()})
	return nil
}

type sendConfig struct {
	sender            ids.AgentId
	hasSender         bool
	cancellationToken *ids.CancellationToken
}

// SendOption configures an optional SendMessage parameter.
type SendOption func(*sendConfig)

// WithSender attaches the sending agent's identity to a Send.
func WithSender(id ids.AgentId) SendOption {
	return func(c *sendConfig) { c.sender, c.hasSender = id, true }
}

// WithCancellationToken supplies an explicit cancellation token for a Send.
func WithCancellationToken(tok *ids.CancellationToken) SendOption {
	return func(c *sendConfig) { c.cancellationToken = tok }
}

type publishConfig struct {
	sender            ids.AgentId
	hasSender         bool
	cancellationToken *ids.CancellationToken
	messageID         string
}

// PublishOption configures an optional PublishMessage parameter.
type PublishOption func(*publishConfig)

// WithPublishSender attaches the publishing agent's identity to a Publish,
// excluding it from its own fan-out.
func WithPublishSender(id ids.AgentId) PublishOption {
	return func(c *publishConfig) { c.sender, c.hasSender = id, true }
}

// WithPublishCancellationToken supplies an explicit cancellation token for a Publish.
func WithPublishCancellationToken(tok *ids.CancellationToken) PublishOption {
	return func(c *publishConfig) { c.cancellationToken = tok }
}

// WithMessageID supplies an explicit message id for a Publish, instead of
// the runtime generating a uuid.
func WithMessageID(id string) PublishOption {
	return func(c *publishConfig) { c.messageID = id }
}
