// Package storage reconciles ModelStorage objects: Pending -> Ready enforces
// the one-Ready-per-unique-kind invariant (Database and Native are unique
// per namespace; Object is not), and Deleting enforces the no-binding-
// references-it guard before the finalizer is dropped.
package storage

import (
	"context"

	"github.com/go-logr/logr"
	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/utils/ptr"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/modelfabric/operator/internal/ferrors"
	"github.com/modelfabric/operator/internal/store"
	"github.com/modelfabric/operator/internal/telemetry"
	corev1alpha1 "github.com/modelfabric/operator/pkg/apis/core/v1alpha1"
)

const (
	FinalizerName      = "core.modelfabric.io/storage-finalizer"
	ConditionTypeReady = "Ready"
	ConditionTypeError = "Error"
)

// Reconciler drives ModelStorage objects from Pending to Ready, and from
// Ready/Pending to Deleting once a deletionTimestamp is observed.
type Reconciler struct {
	client.Client
	Scheme *runtime.Scheme

	Store    *store.Store[*corev1alpha1.ModelStorage]
	Bindings *store.Store[*corev1alpha1.ModelStorageBinding]
	// Intake registers every Ready storage with the telemetry graph so the
	// optimizer can see it. Nil disables telemetry registration, which
	// keeps unit tests that don't care about telemetry free of the
	// dependency.
	Intake *telemetry.Intake
}

func NewReconciler(cli client.Client, sche *runtime.Scheme, st *store.Store[*corev1alpha1.ModelStorage], bindings *store.Store[*corev1alpha1.ModelStorageBinding], intake *telemetry.Intake) *Reconciler {
	return &Reconciler{Client: cli, Scheme: sche, Store: st, Bindings: bindings, Intake: intake}
}

//+kubebuilder:rbac:groups=core.modelfabric.io,resources=modelstorages,verbs=get;list;watch;create;update;patch;delete
//+kubebuilder:rbac:groups=core.modelfabric.io,resources=modelstorages/status,verbs=get;update;patch
//+kubebuilder:rbac:groups=core.modelfabric.io,resources=modelstorages/finalizers,verbs=update
//+kubebuilder:rbac:groups=core.modelfabric.io,resources=modelstoragebindings,verbs=get;list;watch

func (r *Reconciler) Reconcile(ctx context.Context, req ctrl.Request) (ctrl.Result, error) {
	logger := log.FromContext(ctx)

	var ms corev1alpha1.ModelStorage
	if err := r.Get(ctx, req.NamespacedName, &ms); err != nil {
		return ctrl.Result{}, client.IgnoreNotFound(err)
	}
	original := ms.DeepCopy()

	if !ms.DeletionTimestamp.IsZero() {
		return r.reconcileDeletion(ctx, logger, &ms, original)
	}

	added, err := r.Store.AddFinalizer(ctx, &ms, FinalizerName)
	if err != nil {
		return ctrl.Result{}, err
	}
	if added {
		return ctrl.Result{}, nil
	}

	if ms.Status.State == corev1alpha1.StorageStateReady {
		if r.Intake != nil {
			r.Intake.Observe(ms.Namespace, ms.Name)
		}
		return ctrl.Result{}, nil
	}

	if ms.Spec.Kind.Unique() {
		conflict, err := r.hasAnotherReadyOfKind(ctx, ms.Namespace, ms.Name, ms.Spec.Kind)
		if err != nil {
			return ctrl.Result{}, err
		}
		if conflict {
			err := ferrors.New(ferrors.Conflict, "another Ready %s storage already exists in namespace %q", ms.Spec.Kind, ms.Namespace)
			logger.Error(err, "storage uniqueness violation")
			meta.SetStatusCondition(&ms.Status.Conditions, metav1.Condition{
				Type:               ConditionTypeError,
				Status:             metav1.ConditionTrue,
				Reason:             string(ferrors.Conflict),
				Message:            err.Error(),
				ObservedGeneration: ms.Generation,
				LastTransitionTime: metav1.Now(),
			})
			if _, perr := r.Store.PatchStatus(ctx, &ms, original); perr != nil {
				return ctrl.Result{}, perr
			}
			return ctrl.Result{}, nil
		}
	}

	ms.Status.State = corev1alpha1.StorageStateReady
	ms.Status.Kind = ms.Spec.Kind
	ms.Status.LastUpdated = ptr.To(metav1.Now())
	meta.SetStatusCondition(&ms.Status.Conditions, metav1.Condition{
		Type:               ConditionTypeReady,
		Status:             metav1.ConditionTrue,
		Reason:             "Validated",
		Message:            "storage is ready to be bound",
		ObservedGeneration: ms.Generation,
		LastTransitionTime: metav1.Now(),
	})
	meta.RemoveStatusCondition(&ms.Status.Conditions, ConditionTypeError)

	if _, err := r.Store.PatchStatus(ctx, &ms, original); err != nil {
		return ctrl.Result{}, err
	}
	if r.Intake != nil {
		r.Intake.Observe(ms.Namespace, ms.Name)
	}
	return ctrl.Result{}, nil
}

func (r *Reconciler) reconcileDeletion(ctx context.Context, logger logr.Logger, ms *corev1alpha1.ModelStorage, original *corev1alpha1.ModelStorage) (ctrl.Result, error) {
	if ms.Status.State != corev1alpha1.StorageStateDeleting {
		ms.Status.State = corev1alpha1.StorageStateDeleting
		if _, err := r.Store.PatchStatus(ctx, ms, original); err != nil {
			return ctrl.Result{}, err
		}
		return ctrl.Result{Requeue: true}, nil
	}

	referenced, err := r.isReferencedByAnyBinding(ctx, ms.Namespace, ms.Name)
	if err != nil {
		return ctrl.Result{}, err
	}
	if referenced {
		logger.Info("storage still referenced by a binding, deferring deletion", "name", ms.Name)
		return ctrl.Result{Requeue: true}, nil
	}

	if _, err := r.Store.RemoveFinalizer(ctx, ms, FinalizerName); err != nil {
		return ctrl.Result{}, err
	}
	return ctrl.Result{}, nil
}

// hasAnotherReadyOfKind scans sibling ModelStorage objects in namespace for
// a Ready object of kind other than self.
func (r *Reconciler) hasAnotherReadyOfKind(ctx context.Context, namespace, self string, kind corev1alpha1.StorageKind) (bool, error) {
	matches, err := r.Store.ListBy(ctx, namespace, &corev1alpha1.ModelStorageList{}, func(o client.Object) bool {
		s, ok := o.(*corev1alpha1.ModelStorage)
		return ok && s.Name != self && s.Spec.Kind == kind && s.Status.State == corev1alpha1.StorageStateReady
	})
	if err != nil {
		return false, err
	}
	return len(matches) > 0, nil
}

// isReferencedByAnyBinding scans ModelStorageBinding objects in namespace
// for one whose spec target or source still names this storage.
func (r *Reconciler) isReferencedByAnyBinding(ctx context.Context, namespace, name string) (bool, error) {
	matches, err := r.Bindings.ListBy(ctx, namespace, &corev1alpha1.ModelStorageBindingList{}, func(o client.Object) bool {
		b, ok := o.(*corev1alpha1.ModelStorageBinding)
		return ok && (b.Spec.Storage.Target == name || b.Spec.Storage.Source == name)
	})
	if err != nil {
		return false, err
	}
	return len(matches) > 0, nil
}

func (r *Reconciler) SetupWithManager(ctx context.Context, mgr ctrl.Manager) error {
	return ctrl.NewControllerManagedBy(mgr).
		For(&corev1alpha1.ModelStorage{}).
		Complete(r)
}
