// Package fsmutil adapts looplab/fsm's untyped callback signature to plain
// context-carrying functions that return an error, the way every FSM
// callback in this codebase is written.
package fsmutil

import (
	"context"
	"errors"

	"github.com/looplab/fsm"
)

// WrapEvent turns fn into an fsm.Callback, routing any returned error into
// the event's Err field so the caller can observe it after Event() returns.
func WrapEvent(fn func(ctx context.Context, event *fsm.Event) error) fsm.Callback {
	return func(ctx context.Context, event *fsm.Event) {
		if err := fn(ctx, event); err != nil {
			event.Err = err
		}
	}
}

// IsRealError reports whether err represents an actual failure, as opposed
// to looplab/fsm's internal signaling errors for a guard-cancelled or
// no-op transition.
func IsRealError(err error) bool {
	if err == nil {
		return false
	}
	var noTransition fsm.NoTransitionError
	var canceled fsm.CanceledError
	if errors.As(err, &noTransition) || errors.As(err, &canceled) {
		return false
	}
	return true
}
