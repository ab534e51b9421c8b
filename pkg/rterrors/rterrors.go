// Package rterrors defines the sentinel error kinds the runtime surfaces.
// Callers branch on kind with errors.Is, while the wrapped message ("error
// doing X: %w" chains) keeps a readable, contextual message.
package rterrors

import "errors"

var (
	// ErrRecipientNotFound is returned when a Send targets an unregistered agent type.
	ErrRecipientNotFound = errors.New("recipient not found")
	// ErrAgentNotFound is returned when getAgent is called with an unregistered type.
	ErrAgentNotFound = errors.New("agent not found")
	// ErrDuplicateType is returned when a type is registered twice.
	ErrDuplicateType = errors.New("agent type already registered")
	// ErrFactoryArity is returned when a factory takes neither 0 nor 2 parameters.
	ErrFactoryArity = errors.New("agent factory must take 0 or 2 arguments")
	// ErrFactoryTypeMismatch is returned by RegisterFactory when the produced
	// instance does not match the expected class.
	ErrFactoryTypeMismatch = errors.New("factory produced an unexpected agent type")
	// ErrMessageDropped is returned when an intervention handler returns DropMessage.
	ErrMessageDropped = errors.New("message dropped by intervention handler")
	// ErrCancelled is returned when a cancellation token fires before settlement.
	ErrCancelled = errors.New("cancelled")
	// ErrLifecycleMisuse is returned by Start/Stop* calls made in the wrong run state.
	ErrLifecycleMisuse = errors.New("runtime lifecycle misuse")
	// ErrDuplicateSubscription is returned by AddSubscription for a duplicate id.
	ErrDuplicateSubscription = errors.New("subscription id already registered")
	// ErrSubscriptionNotFound is returned by RemoveSubscription for an unknown id.
	ErrSubscriptionNotFound = errors.New("subscription not found")
)
