// Package modelstoragebinding implements the ModelStorageBinding state
// machine: Pending -> Ready -> Deleting, with finalizer management and
// error-to-requeue mapping.
package modelstoragebinding

import (
	"context"
	"time"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/tools/record"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/modelfabric/operator/internal/dispatcher"
	"github.com/modelfabric/operator/internal/pkg/metrics"
	"github.com/modelfabric/operator/internal/store"
	"github.com/modelfabric/operator/internal/validator"
	corev1alpha1 "github.com/modelfabric/operator/pkg/apis/core/v1alpha1"
)

// FinalizerName is the single finalizer this controller manages.
const FinalizerName = "core.modelfabric.io/binding-finalizer"

// BindingReconciler drives ModelStorageBinding objects through their state
// machine.
type BindingReconciler struct {
	client.Client
	Scheme   *runtime.Scheme
	Recorder record.EventRecorder

	Store      *store.Store[*corev1alpha1.ModelStorageBinding]
	Validator  *validator.Validator
	Dispatcher *dispatcher.Dispatcher

	// Fallback is the constant requeue backoff for non-fatal errors.
	Fallback time.Duration
	// FinalizerName is exposed for handler access via the reconciler value.
	FinalizerName string

	sm *stateMachine
}

// NewBindingReconciler builds a BindingReconciler with its state machine
// wired.
func NewBindingReconciler(cli client.Client, scheme *runtime.Scheme, recorder record.EventRecorder, st *store.Store[*corev1alpha1.ModelStorageBinding], v *validator.Validator, d *dispatcher.Dispatcher, fallback time.Duration) *BindingReconciler {
	return &BindingReconciler{
		Client:        cli,
		Scheme:        scheme,
		Recorder:      recorder,
		Store:         st,
		Validator:     v,
		Dispatcher:    d,
		Fallback:      fallback,
		FinalizerName: FinalizerName,
		sm:            newStateMachine(),
	}
}

//+kubebuilder:rbac:groups=core.modelfabric.io,resources=modelstoragebindings,verbs=get;list;watch;create;update;patch;delete
//+kubebuilder:rbac:groups=core.modelfabric.io,resources=modelstoragebindings/status,verbs=get;update;patch
//+kubebuilder:rbac:groups=core.modelfabric.io,resources=modelstoragebindings/finalizers,verbs=update
//+kubebuilder:rbac:groups=core.modelfabric.io,resources=models;modelstorages,verbs=get;list;watch

// Reconcile fetches the binding, manages its finalizer and deletion
// precedence, then dispatches to the state machine for a single phase
// transition. The status patch at the end of the function is the single
// commit point of the iteration.
func (r *BindingReconciler) Reconcile(ctx context.Context, req ctrl.Request) (ctrl.Result, error) {
	logger := log.FromContext(ctx)

	var binding corev1alpha1.ModelStorageBinding
	if err := r.Get(ctx, req.NamespacedName, &binding); err != nil {
		return ctrl.Result{}, client.IgnoreNotFound(err)
	}

	phase := string(binding.Status.State)
	start := time.Now()
	defer func() {
		metrics.ReconcileDuration.WithLabelValues(phase).Observe(time.Since(start).Seconds())
	}()

	original := binding.DeepCopy()

	if !binding.DeletionTimestamp.IsZero() {
		if binding.Status.State != corev1alpha1.BindingStateDeleting {
			binding.Status.State = corev1alpha1.BindingStateDeleting
			if _, err := r.Store.PatchStatus(ctx, &binding, original); err != nil {
				return ctrl.Result{}, err
			}
			return ctrl.Result{Requeue: true}, nil
		}
	} else {
		added, err := r.Store.AddFinalizer(ctx, &binding, r.FinalizerName)
		if err != nil {
			return ctrl.Result{}, err
		}
		if added {
			// The finalizer patch itself triggers the next reconcile.
			return ctrl.Result{}, nil
		}
	}

	result, err := r.sm.reconcile(ctx, logger, r, &binding)
	if err != nil {
		r.Recorder.Event(&binding, corev1.EventTypeWarning, "ReconcileFailed", err.Error())
		metrics.ReconcileTotal.WithLabelValues("error", phase).Inc()
		return ctrl.Result{}, err
	}

	// deletingHandler may have already removed the finalizer and issued its
	// own patch; PatchStatus diffs against original and is a no-op in that
	// case, so it is always safe to call here as the single commit point.
	if _, err := r.Store.PatchStatus(ctx, &binding, original); err != nil {
		metrics.ReconcileTotal.WithLabelValues("error", phase).Inc()
		return ctrl.Result{}, err
	}

	metrics.ReconcileTotal.WithLabelValues("ok", phase).Inc()
	return result, nil
}

func (r *BindingReconciler) SetupWithManager(ctx context.Context, mgr ctrl.Manager) error {
	return ctrl.NewControllerManagedBy(mgr).
		For(&corev1alpha1.ModelStorageBinding{}).
		Complete(r)
}
