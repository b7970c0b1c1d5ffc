package modelstoragebinding

import (
	"context"
	"time"

	"github.com/go-logr/logr"
	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/utils/ptr"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/modelfabric/operator/internal/adapter"
	"github.com/modelfabric/operator/internal/ferrors"
	"github.com/modelfabric/operator/internal/pkg/fsmutil"
	"github.com/modelfabric/operator/internal/validator"
	corev1alpha1 "github.com/modelfabric/operator/pkg/apis/core/v1alpha1"
)

const (
	ConditionTypeReady = "Ready"
	ConditionTypeError = "Error"
)

// phaseHandler is the signature every state's handling function implements,
// kept stateless so handlers stay independently testable.
type phaseHandler func(ctx context.Context, logger logr.Logger, r *BindingReconciler, b *corev1alpha1.ModelStorageBinding) (ctrl.Result, error)

// stateMachine dispatches a reconcile to the handler matching the
// binding's current phase; the map is built once and is read-only
// thereafter, safe for concurrent Reconcile calls across distinct bindings.
type stateMachine struct {
	handlers map[corev1alpha1.BindingState]phaseHandler
}

func newStateMachine() *stateMachine {
	return &stateMachine{
		handlers: map[corev1alpha1.BindingState]phaseHandler{
			"":                                pendingHandler,
			corev1alpha1.BindingStatePending:  pendingHandler,
			corev1alpha1.BindingStateReady:    readyHandler,
			corev1alpha1.BindingStateDeleting: deletingHandler,
		},
	}
}

func (s *stateMachine) reconcile(ctx context.Context, logger logr.Logger, r *BindingReconciler, b *corev1alpha1.ModelStorageBinding) (ctrl.Result, error) {
	handler, ok := s.handlers[b.Status.State]
	if !ok {
		logger.Error(nil, "unknown binding state", "state", b.Status.State)
		return ctrl.Result{}, nil
	}
	return handler(ctx, logger, r, b)
}

// setCondition routes through apimachinery's meta.SetStatusCondition so
// LastTransitionTime only moves when Status actually changes.
func setCondition(b *corev1alpha1.ModelStorageBinding, condType string, status metav1.ConditionStatus, reason, message string) {
	meta.SetStatusCondition(&b.Status.Conditions, metav1.Condition{
		Type:               condType,
		Status:             status,
		Reason:             reason,
		Message:            message,
		ObservedGeneration: b.Generation,
		LastTransitionTime: metav1.Now(),
	})
}

func snapshotContext(b *corev1alpha1.ModelStorageBinding, rc validator.Context, sourceBinding string) {
	modelSchema := rc.Model.Schema
	b.Status.Model = rc.ModelName
	b.Status.ModelSpec = &modelSchema
	b.Status.StorageTargetName = rc.TargetName
	target := rc.Target
	b.Status.StorageTargetSpec = &target
	b.Status.StorageSourceName = rc.SourceName
	if rc.Source != nil {
		source := *rc.Source
		b.Status.StorageSourceSpec = &source
	} else {
		b.Status.StorageSourceSpec = nil
	}
	b.Status.StorageSourceBindingName = sourceBinding
	b.Status.StorageSyncPolicy = rc.SyncPolicy
	b.Status.DeletionPolicy = b.Spec.DeletionPolicy
	b.Status.LastUpdated = ptr.To(metav1.Now())
}

// sourceBindingName finds the sibling binding whose target is the source
// storage, i.e. the binding the replication feed comes from. Empty when
// the binding has no source or no sibling owns it.
func sourceBindingName(ctx context.Context, r *BindingReconciler, namespace, sourceStorage, self string) string {
	if sourceStorage == "" {
		return ""
	}
	matches, err := r.Store.ListBy(ctx, namespace, &corev1alpha1.ModelStorageBindingList{}, func(o client.Object) bool {
		ob, ok := o.(*corev1alpha1.ModelStorageBinding)
		return ok && ob.Name != self && ob.Spec.Storage.Target == sourceStorage
	})
	if err != nil || len(matches) == 0 {
		return ""
	}
	return matches[0].GetName()
}

// pendingHandler drives a binding from Pending to Ready: validate, then
// bind. A non-fatal validation/bind failure requeues after the fallback
// and leaves the binding Pending for another attempt; a Fatal failure sets
// a terminal condition instead.
func pendingHandler(ctx context.Context, logger logr.Logger, r *BindingReconciler, b *corev1alpha1.ModelStorageBinding) (ctrl.Result, error) {
	rc, err := r.Validator.Validate(ctx, b.Namespace, b.Spec)
	if err != nil {
		return handleOperationError(logger, b, err, r.Fallback)
	}

	bindReq := adapter.BindRequest{
		StorageName: rc.TargetName,
		ModelName:   rc.ModelName,
		Model:       rc.Model,
		Target:      rc.Target,
		Source:      rc.Source,
		SyncPolicy:  rc.SyncPolicy,
	}
	if err := r.Dispatcher.Bind(ctx, bindReq); err != nil {
		return handleOperationError(logger, b, err, r.Fallback)
	}

	f := newFiniteStateMachine(string(corev1alpha1.BindingStatePending))
	if err := f.Event(ctx, EventReady, b); fsmutil.IsRealError(err) {
		logger.Error(err, "illegal binding state transition")
		return ctrl.Result{}, err
	}

	b.Status.State = corev1alpha1.BindingState(f.Current())
	snapshotContext(b, rc, sourceBindingName(ctx, r, b.Namespace, rc.SourceName, b.Name))
	setCondition(b, ConditionTypeReady, metav1.ConditionTrue, "Bound", "binding is attached to its target storage")
	meta.RemoveStatusCondition(&b.Status.Conditions, ConditionTypeError)

	return ctrl.Result{}, nil
}

// readyHandler re-validates a Ready binding on each reconcile (picking up
// spec changes) and, when the resolved source/target pair changed, unbinds
// the old pair before binding the new one.
func readyHandler(ctx context.Context, logger logr.Logger, r *BindingReconciler, b *corev1alpha1.ModelStorageBinding) (ctrl.Result, error) {
	rc, changed, err := r.Validator.Update(ctx, b.Namespace, b.Spec, b.Status)
	if err != nil {
		if IsFatal(err) {
			setCondition(b, ConditionTypeError, metav1.ConditionTrue, "ModelImmutable", err.Error())
			result, _ := Classify(err, r.Fallback)
			return result, nil
		}
		return handleOperationError(logger, b, err, r.Fallback)
	}
	if !changed {
		return ctrl.Result{}, nil
	}

	if b.Status.StorageTargetSpec != nil {
		unbindReq := adapter.UnbindRequest{
			StorageName:    b.Status.StorageTargetName,
			ModelName:      b.Status.Model,
			Target:         *b.Status.StorageTargetSpec,
			DeletionPolicy: adapter.DeletionPolicy(b.Status.DeletionPolicy),
		}
		if err := r.Dispatcher.Unbind(ctx, unbindReq); err != nil && ferrors.Is(err, ferrors.Transient) {
			return handleOperationError(logger, b, err, r.Fallback)
		}
		// Non-transient unbind-old failures are logged and swallowed, the
		// same best-effort policy the delete path uses, since the binding
		// is about to be re-pointed at a new pair regardless.
	}

	bindReq := adapter.BindRequest{
		StorageName: rc.TargetName,
		ModelName:   rc.ModelName,
		Model:       rc.Model,
		Target:      rc.Target,
		Source:      rc.Source,
		SyncPolicy:  rc.SyncPolicy,
	}
	if err := r.Dispatcher.Bind(ctx, bindReq); err != nil {
		return handleOperationError(logger, b, err, r.Fallback)
	}

	f := newFiniteStateMachine(string(corev1alpha1.BindingStateReady))
	if err := f.Event(ctx, EventRebind, b); fsmutil.IsRealError(err) {
		logger.Error(err, "illegal binding state transition")
		return ctrl.Result{}, err
	}

	snapshotContext(b, rc, sourceBindingName(ctx, r, b.Namespace, rc.SourceName, b.Name))
	setCondition(b, ConditionTypeReady, metav1.ConditionTrue, "Rebound", "binding was re-pointed at a new source/target pair")
	meta.RemoveStatusCondition(&b.Status.Conditions, ConditionTypeError)

	return ctrl.Result{}, nil
}

// deletingHandler unbinds per DeletionPolicy and removes the finalizer.
// Per the error-handling design, delete-path errors are logged and
// swallowed for best-effort finalization unless the failure is Transient,
// in which case the finalizer is retained and the reconcile requeues.
func deletingHandler(ctx context.Context, logger logr.Logger, r *BindingReconciler, b *corev1alpha1.ModelStorageBinding) (ctrl.Result, error) {
	rc, ok := r.Validator.PlanDelete(ctx, b.Namespace, b.Status)
	if ok {
		unbindReq := adapter.UnbindRequest{
			StorageName:    rc.TargetName,
			ModelName:      rc.ModelName,
			Target:         rc.Target,
			DeletionPolicy: adapter.DeletionPolicy(b.Spec.DeletionPolicy),
		}
		if err := r.Dispatcher.Unbind(ctx, unbindReq); err != nil {
			if ferrors.Is(err, ferrors.Transient) {
				logger.Error(err, "unbind failed with a transient error, retaining finalizer")
				result, _ := Classify(err, r.Fallback)
				return result, nil
			}
			logger.Error(err, "unbind failed, proceeding with best-effort finalization")
		}
	}

	removed, err := r.Store.RemoveFinalizer(ctx, b, r.FinalizerName)
	if err != nil {
		return ctrl.Result{}, err
	}
	_ = removed
	return ctrl.Result{}, nil
}

// handleOperationError applies the Conflict/Unauthorized/Permanent/NotReady
// policy: patch an Error condition and requeue after the fallback. Fatal
// errors are handled by their callers directly, since only readyHandler's
// Update call can currently produce one.
func handleOperationError(logger logr.Logger, b *corev1alpha1.ModelStorageBinding, err error, fallback time.Duration) (ctrl.Result, error) {
	kind := ferrors.KindOf(err)
	logger.Error(err, "binding operation failed", "kind", kind)
	if b.Status.State == "" {
		b.Status.State = corev1alpha1.BindingStatePending
	}
	setCondition(b, ConditionTypeError, metav1.ConditionTrue, string(kind), err.Error())
	result, _ := Classify(err, fallback)
	return result, nil
}
