// Package validator checks a ModelStorageBinding spec is realizable: it
// loads the referenced model and storages, assembles the resolved context
// the dispatcher needs, and enforces the immutability rule that a bound
// model's spec may not change under a Ready binding.
package validator

import (
	"context"
	"reflect"

	"k8s.io/apimachinery/pkg/types"

	"github.com/modelfabric/operator/internal/ferrors"
	"github.com/modelfabric/operator/internal/store"
	corev1alpha1 "github.com/modelfabric/operator/pkg/apis/core/v1alpha1"
)

// Context is the assembled, resolved view a binding operation acts on.
type Context struct {
	Namespace  string
	ModelName  string
	Model      corev1alpha1.ModelSpec
	TargetName string
	Target     corev1alpha1.ModelStorageSpec
	SourceName string
	Source     *corev1alpha1.ModelStorageSpec
	SyncPolicy *corev1alpha1.SyncPolicy
}

// Validator assembles and checks binding contexts against the current
// Model/ModelStorage records.
type Validator struct {
	models   *store.Store[*corev1alpha1.Model]
	storages *store.Store[*corev1alpha1.ModelStorage]
}

func New(models *store.Store[*corev1alpha1.Model], storages *store.Store[*corev1alpha1.ModelStorage]) *Validator {
	return &Validator{models: models, storages: storages}
}

// Validate loads the model and storage(s) a binding spec references and
// assembles the resolved Context. The model must be Ready; storages are
// loaded regardless of their state (the reconciler decides whether a
// NotReady storage should requeue).
func (v *Validator) Validate(ctx context.Context, namespace string, spec corev1alpha1.ModelStorageBindingSpec) (Context, error) {
	model, err := v.models.Get(ctx, types.NamespacedName{Namespace: namespace, Name: spec.Model})
	if err != nil {
		return Context{}, err
	}
	if model.Status.State != corev1alpha1.ModelStateReady {
		return Context{}, ferrors.New(ferrors.NotReady, "model %q is not Ready", spec.Model)
	}

	out := Context{
		Namespace:  namespace,
		ModelName:  spec.Model,
		Model:      model.Spec,
		TargetName: spec.Storage.Target,
		SyncPolicy: spec.SyncPolicy,
	}

	target, err := v.storages.Get(ctx, types.NamespacedName{Namespace: namespace, Name: spec.Storage.Target})
	if err != nil {
		return Context{}, err
	}
	out.Target = target.Spec

	if spec.Storage.Source != "" {
		source, err := v.storages.Get(ctx, types.NamespacedName{Namespace: namespace, Name: spec.Storage.Source})
		if err != nil {
			return Context{}, err
		}
		out.SourceName = spec.Storage.Source
		out.Source = &source.Spec
	}

	return out, nil
}

// Update re-validates spec and compares the freshly resolved context
// against the binding's last-committed status. It returns ok=false when
// nothing has changed (source/target both equal the committed snapshot),
// meaning the caller has nothing to do. A divergence between the
// committed model_spec and the model's current spec is reported as the
// fatal ModelImmutable condition, per the invariant that a Ready binding's
// observed model_spec must equal the current model's spec.
func (v *Validator) Update(ctx context.Context, namespace string, spec corev1alpha1.ModelStorageBindingSpec, lastStatus corev1alpha1.ModelStorageBindingStatus) (resolved Context, ok bool, err error) {
	resolved, err = v.Validate(ctx, namespace, spec)
	if err != nil {
		return Context{}, false, err
	}

	if lastStatus.ModelSpec != nil && !reflect.DeepEqual(*lastStatus.ModelSpec, resolved.Model.Schema) {
		return Context{}, false, ferrors.New(ferrors.Fatal, "model %q spec changed under a Ready binding (ModelImmutable)", spec.Model)
	}

	sameTarget := lastStatus.StorageTargetName == resolved.TargetName &&
		lastStatus.StorageTargetSpec != nil && reflect.DeepEqual(*lastStatus.StorageTargetSpec, resolved.Target)
	sameSource := lastStatus.StorageSourceName == resolved.SourceName &&
		specsEqual(lastStatus.StorageSourceSpec, resolved.Source)

	if sameTarget && sameSource {
		return Context{}, false, nil
	}
	return resolved, true, nil
}

func specsEqual(a, b *corev1alpha1.ModelStorageSpec) bool {
	if a == nil || b == nil {
		return a == b
	}
	return reflect.DeepEqual(*a, *b)
}

// PlanDelete best-effort resolves a binding's context from its last-known
// status, for use during deletion. If the status holds no resolved target,
// or the target storage is already gone, it returns ok=false so the caller
// can downgrade the unbind to a no-op and proceed straight to finalizing.
func (v *Validator) PlanDelete(ctx context.Context, namespace string, lastStatus corev1alpha1.ModelStorageBindingStatus) (resolved Context, ok bool) {
	if lastStatus.StorageTargetName == "" || lastStatus.StorageTargetSpec == nil {
		return Context{}, false
	}
	if _, err := v.storages.Get(ctx, types.NamespacedName{Namespace: namespace, Name: lastStatus.StorageTargetName}); ferrors.Is(err, ferrors.NotFound) {
		return Context{}, false
	}
	resolved = Context{
		Namespace:  namespace,
		ModelName:  lastStatus.Model,
		TargetName: lastStatus.StorageTargetName,
		Target:     *lastStatus.StorageTargetSpec,
		SourceName: lastStatus.StorageSourceName,
		Source:     lastStatus.StorageSourceSpec,
		SyncPolicy: lastStatus.StorageSyncPolicy,
	}
	if lastStatus.ModelSpec != nil {
		resolved.Model = corev1alpha1.ModelSpec{Schema: *lastStatus.ModelSpec}
	}
	return resolved, true
}
