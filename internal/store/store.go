// Package store wraps the controller-runtime client with the narrow set of
// operations the reconcilers, validator and optimizer actually need:
// get/list/create plus status-only patches and idempotent finalizer
// mutation, all stamped with a single field manager.
package store

import (
	"context"

	"k8s.io/apimachinery/pkg/api/equality"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	apimeta "k8s.io/apimachinery/pkg/api/meta"
	"k8s.io/apimachinery/pkg/runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"

	"github.com/modelfabric/operator/internal/ferrors"
)

// Store is a thin, typed façade over client.Client for a single resource
// kind T. T is always a pointer type implementing client.Object, the same
// convention controller-runtime itself uses everywhere.
type Store[T client.Object] struct {
	cli          client.Client
	newObj       func() T
	fieldManager string
}

// New builds a Store for T. newObj must return a fresh zero-value T (e.g.
// func() *corev1alpha1.Model { return &corev1alpha1.Model{} }); it exists
// because Go generics give no way to allocate a new T when T is itself a
// pointer type.
func New[T client.Object](cli client.Client, newObj func() T, fieldManager string) *Store[T] {
	return &Store[T]{cli: cli, newObj: newObj, fieldManager: fieldManager}
}

// Get fetches the object named by key. A missing object is reported as
// ferrors.NotFound, not the raw apierrors.IsNotFound value, so callers can
// rely on the shared Kind taxonomy uniformly.
func (s *Store[T]) Get(ctx context.Context, key client.ObjectKey) (T, error) {
	obj := s.newObj()
	if err := s.cli.Get(ctx, key, obj); err != nil {
		var zero T
		if apierrors.IsNotFound(err) {
			return zero, ferrors.New(ferrors.NotFound, "%s %q not found", obj.GetObjectKind().GroupVersionKind().Kind, key)
		}
		return zero, ferrors.Wrap(ferrors.Transient, err, "get %s", key)
	}
	return obj, nil
}

// List returns every object of T in namespace. An empty namespace lists
// cluster-wide, matching the NAMESPACE="" convention used to scope the
// manager itself.
func (s *Store[T]) List(ctx context.Context, namespace string, items any) error {
	opts := []client.ListOption{}
	if namespace != "" {
		opts = append(opts, client.InNamespace(namespace))
	}
	if err := s.cli.List(ctx, items.(client.ObjectList), opts...); err != nil {
		return ferrors.Wrap(ferrors.Transient, err, "list %T", items)
	}
	return nil
}

// ListBy lists every object of T in namespace into items and returns the
// ones matching pred. items must be the list type paired with T (e.g.
// &corev1alpha1.ModelStorageList{} for a ModelStorage store).
func (s *Store[T]) ListBy(ctx context.Context, namespace string, items client.ObjectList, pred func(client.Object) bool) ([]client.Object, error) {
	if err := s.List(ctx, namespace, items); err != nil {
		return nil, err
	}
	var out []client.Object
	if err := apimeta.EachListItem(items, func(o runtime.Object) error {
		co, ok := o.(client.Object)
		if ok && pred(co) {
			out = append(out, co)
		}
		return nil
	}); err != nil {
		return nil, ferrors.Wrap(ferrors.Permanent, err, "iterate %T", items)
	}
	return out, nil
}

// Create creates obj, stamping it with the store's field manager.
func (s *Store[T]) Create(ctx context.Context, obj T) error {
	if err := s.cli.Create(ctx, obj, client.FieldOwner(s.fieldManager)); err != nil {
		return ferrors.Wrap(ferrors.Transient, err, "create %s/%s", obj.GetNamespace(), obj.GetName())
	}
	return nil
}

// PatchStatus diffs obj against original and, if the status differs,
// patches only the status subresource. It is a no-op (returns false, nil)
// when nothing changed, so repeated reconciles of an unchanged object
// never loop on their own status writes.
func (s *Store[T]) PatchStatus(ctx context.Context, obj, original T) (bool, error) {
	if equality.Semantic.DeepEqual(statusOf(original), statusOf(obj)) {
		return false, nil
	}
	patch := client.MergeFrom(original)
	if err := s.cli.Status().Patch(ctx, obj, patch, client.FieldOwner(s.fieldManager)); err != nil {
		return false, ferrors.Wrap(ferrors.Transient, err, "patch status %s/%s", obj.GetNamespace(), obj.GetName())
	}
	return true, nil
}

// AddFinalizer adds name to obj's finalizer list and patches, unless it is
// already present, in which case it is a no-op.
func (s *Store[T]) AddFinalizer(ctx context.Context, obj T, name string) (bool, error) {
	if controllerutil.ContainsFinalizer(obj, name) {
		return false, nil
	}
	original := obj.DeepCopyObject().(T)
	controllerutil.AddFinalizer(obj, name)
	if err := s.cli.Patch(ctx, obj, client.MergeFrom(original), client.FieldOwner(s.fieldManager)); err != nil {
		return false, ferrors.Wrap(ferrors.Transient, err, "add finalizer to %s/%s", obj.GetNamespace(), obj.GetName())
	}
	return true, nil
}

// RemoveFinalizer removes name from obj's finalizer list and patches,
// unless it is already absent, in which case it is a no-op.
func (s *Store[T]) RemoveFinalizer(ctx context.Context, obj T, name string) (bool, error) {
	if !controllerutil.ContainsFinalizer(obj, name) {
		return false, nil
	}
	original := obj.DeepCopyObject().(T)
	controllerutil.RemoveFinalizer(obj, name)
	if err := s.cli.Patch(ctx, obj, client.MergeFrom(original), client.FieldOwner(s.fieldManager)); err != nil {
		return false, ferrors.Wrap(ferrors.Transient, err, "remove finalizer from %s/%s", obj.GetNamespace(), obj.GetName())
	}
	return true, nil
}

// statusHaver is implemented by every generated CRD type in pkg/apis via a
// Status field; we reach it through an interface so PatchStatus stays
// generic over T without a per-type switch.
type statusHaver interface {
	GetStatus() any
}

func statusOf(obj any) any {
	if sh, ok := obj.(statusHaver); ok {
		return sh.GetStatus()
	}
	// Fall back to comparing the whole object; every T in this module
	// implements statusHaver, so this path is unreached in practice.
	return obj
}
