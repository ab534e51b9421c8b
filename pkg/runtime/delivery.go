package runtime

import (
	"context"
	"fmt"
	"sync"

	"agentmesh/pkg/agent"
	"agentmesh/pkg/envelope"
	"agentmesh/pkg/events"
	"agentmesh/pkg/intervention"
	"agentmesh/pkg/rterrors"
)

// dispatchOne routes one dequeued envelope to its variant-specific handler.
func (rt *Runtime) dispatchOne(ctx context.Context, item any) {
	switch env := item.(type) {
	case *envelope.Send:
		rt.processSend(ctx, env)
	case *envelope.Publish:
		rt.processPublish(ctx, env)
	case *envelope.Response:
		rt.processResponse(ctx, env)
	default:
		rt.log.Warn().Type("envelope_type", item).Msg("dispatched unknown envelope type")
	}
}

func (rt *Runtime) snapshotInterventions() []intervention.Handler {
	rt.interventionsMu.Lock()
	defer rt.interventionsMu.Unlock()
	out := make([]intervention.Handler, len(rt.interventions))
	copy(out, rt.interventions)
	return out
}

// processSend resolves a Send envelope's recipient, runs the OnSend
// intervention pipeline, invokes the recipient's handler, and routes the
// reply back through a Response envelope so OnResponse gets a chance to
// observe or drop it before the caller's ResultHandle settles.
func (rt *Runtime) processSend(ctx context.Context, env *envelope.Send) {
	rt.metrics.CountMessage("send")

	if env.CancellationToken.IsCancelled() {
		rt.metrics.CountDropped("cancelled")
		env.Result.Settle(nil, rterrors.ErrCancelled)
		return
	}

	msg := env.Message
	for _, h := range rt.snapshotInterventions() {
		out, err := h.OnSend(ctx, msg, env.Sender, env.HasSender, env.Recipient)
		if err != nil {
			env.Result.Settle(nil, fmt.Errorf("runtime: send intervention: %w", err))
			return
		}
		if intervention.IsDropMessage(out) {
			rt.metrics.CountDropped("intervention")
			rt.events.Publish(events.Event{Kind: events.KindMessageDropped, AgentID: env.Recipient.String(), Detail: "send"})
			env.Result.Settle(nil, rterrors.ErrMessageDropped)
			return
		}
		// A nil return (distinct from the drop sentinel) is threaded through
		// unchanged-as-null to the next handler and to delivery; no default
		// is substituted.
		msg = out
	}

	a, err := rt.getAgent(env.Recipient)
	if err != nil {
		rt.metrics.CountDropped("recipient_not_found")
		env.Result.Settle(nil, err)
		return
	}

	rt.events.Publish(events.Event{Kind: events.KindSendDelivered, AgentID: env.Recipient.String()})

	msgCtx := agent.MessageContext{
		Sender:            env.Sender,
		HasSender:         env.HasSender,
		IsRPC:             true,
		CancellationToken: env.CancellationToken,
	}
	reply, err := a.OnMessage(ctx, msg, msgCtx)
	if err != nil {
		env.Result.Settle(nil, fmt.Errorf("runtime: handler for %s: %w", env.Recipient, err))
		return
	}

	resp := &envelope.Response{
		Message:      reply,
		Sender:       env.Recipient,
		Recipient:    env.Sender,
		HasRecipient: env.HasSender,
		Result:       env.Result,
		Trace:        env.Trace,
	}
	if err := rt.q.Put(resp); err != nil {
		// Queue already shut down (runtime stopping): settle directly rather
		// than lose the reply, skipping response interception.
		env.Result.Settle(reply, nil)
	}
}

// processResponse runs the OnResponse intervention pipeline and then
// settles the originating Send's ResultHandle.
func (rt *Runtime) processResponse(ctx context.Context, env *envelope.Response) {
	rt.metrics.CountMessage("response")

	msg := env.Message
	for _, h := range rt.snapshotInterventions() {
		out, err := h.OnResponse(ctx, msg, env.Sender, env.Recipient, env.HasRecipient)
		if err != nil {
			env.Result.Settle(nil, fmt.Errorf("runtime: response intervention: %w", err))
			return
		}
		if intervention.IsDropMessage(out) {
			rt.metrics.CountDropped("intervention")
			rt.events.Publish(events.Event{Kind: events.KindMessageDropped, AgentID: env.Sender.String(), Detail: "response"})
			env.Result.Settle(nil, rterrors.ErrMessageDropped)
			return
		}
		msg = out
	}

	rt.events.Publish(events.Event{Kind: events.KindResponseSettled, AgentID: env.Sender.String()})
	env.Result.Settle(msg, nil)
}

// processPublish runs the OnPublish intervention pipeline once against the
// original message, then concurrently delivers the (possibly transformed)
// message to every subscribed recipient except the publisher itself.
// Delivery errors are logged, not propagated: publish is fire-and-forget.
func (rt *Runtime) processPublish(ctx context.Context, env *envelope.Publish) {
	rt.metrics.CountMessage("publish")

	if env.CancellationToken.IsCancelled() {
		rt.metrics.CountDropped("cancelled")
		return
	}

	msg := env.Message
	for _, h := range rt.snapshotInterventions() {
		out, err := h.OnPublish(ctx, msg, env.Sender, env.HasSender)
		if err != nil {
			rt.log.Warn().Str("topic", env.Topic.String()).Err(err).Msg("publish intervention error, dropping")
			return
		}
		if intervention.IsDropMessage(out) {
			rt.metrics.CountDropped("intervention")
			rt.events.Publish(events.Event{Kind: events.KindMessageDropped, Data: env.Topic.String(), Detail: "publish"})
			return
		}
		msg = out
	}

	recipients := rt.subs.Recipients(env.Topic)

	var wg sync.WaitGroup
	for _, recipient := range recipients {
		if env.HasSender && recipient == env.Sender {
			continue
		}
		recipient := recipient
		wg.Add(1)
		go func() {
			defer wg.Done()
			a, err := rt.getAgent(recipient)
			if err != nil {
				rt.log.Warn().Str("agent_id", recipient.String()).Err(err).Msg("publish recipient unavailable")
				return
			}
			msgCtx := agent.MessageContext{
				Sender:            env.Sender,
				HasSender:         env.HasSender,
				TopicID:           env.Topic,
				IsPublish:         true,
				CancellationToken: env.CancellationToken,
				MessageID:         env.MessageID,
			}
			if _, err := a.OnMessage(ctx, msg, msgCtx); err != nil {
				rt.log.Warn().Str("agent_id", recipient.String()).Err(err).Msg("publish handler error")
			}
		}()
	}
	wg.Wait()

	rt.events.Publish(events.Event{Kind: events.KindPublishDelivered, Data: env.Topic.String()})
}
