package modelstoragebinding

import (
	"context"

	"github.com/looplab/fsm"

	"github.com/modelfabric/operator/internal/pkg/fsmutil"
	corev1alpha1 "github.com/modelfabric/operator/pkg/apis/core/v1alpha1"
)

const (
	// EventReady fires once validate succeeds for a Pending binding.
	EventReady = "event_ready"
	// EventRebind fires when Update resolves a changed source/target pair
	// for an already-Ready binding.
	EventRebind = "event_rebind"
	// EventDelete moves a Pending or Ready binding to Deleting. The
	// reconciler does not fire it: on seeing a deletionTimestamp it writes
	// the Deleting state to status itself.
	EventDelete = "event_delete"
)

// finiteStateMachine wraps looplab/fsm to reject any transition the binding
// state machine doesn't define, rather than mutating a phase field
// directly.
type finiteStateMachine struct {
	*fsm.FSM
}

// newFiniteStateMachine builds a transient FSM seeded at initialState; one
// is constructed per reconcile.
func newFiniteStateMachine(initialState string) *finiteStateMachine {
	f := &finiteStateMachine{}

	events := fsm.Events{
		{Name: EventReady, Src: []string{string(corev1alpha1.BindingStatePending)}, Dst: string(corev1alpha1.BindingStateReady)},
		{Name: EventRebind, Src: []string{string(corev1alpha1.BindingStateReady)}, Dst: string(corev1alpha1.BindingStateReady)},
		{Name: EventDelete, Src: []string{
			string(corev1alpha1.BindingStatePending),
			string(corev1alpha1.BindingStateReady),
		}, Dst: string(corev1alpha1.BindingStateDeleting)},
	}

	callbacks := fsm.Callbacks{
		"enter_" + string(corev1alpha1.BindingStateDeleting): fsmutil.WrapEvent(f.noop),
	}

	f.FSM = fsm.NewFSM(initialState, events, callbacks)
	return f
}

func (f *finiteStateMachine) noop(ctx context.Context, e *fsm.Event) error {
	return nil
}
