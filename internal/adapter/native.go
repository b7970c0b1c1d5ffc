package adapter

import (
	"context"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/modelfabric/operator/internal/ferrors"
	corev1alpha1 "github.com/modelfabric/operator/pkg/apis/core/v1alpha1"
)

// NativeAdapter addresses orchestrator-native CRD instances directly via
// an unstructured client, the same way internal/store addresses the
// system's own CRDs, generalized to an arbitrary (apiGroup, version, kind).
type NativeAdapter struct {
	cli client.Client
}

func NewNativeAdapter(cli client.Client) *NativeAdapter {
	return &NativeAdapter{cli: cli}
}

func gvk(cfg *corev1alpha1.NativeStorageConfig) schema.GroupVersionKind {
	return schema.GroupVersionKind{Group: cfg.APIGroup, Version: cfg.Version, Kind: cfg.Kind}
}

// Bind is a sanity check only: it confirms the referenced native-CRD kind
// can be listed (in the pinned namespace, when the storage config sets
// one). It does not check that the pinned namespace exists.
func (a *NativeAdapter) Bind(ctx context.Context, req BindRequest) error {
	if req.Target.Native == nil {
		return ferrors.New(ferrors.Conflict, "target storage %q is not a Native storage", req.StorageName)
	}
	if !req.Model.Schema.IsNativeRef() {
		return ferrors.New(ferrors.Conflict, "model is not bound to a native-CRD schema")
	}
	ref := req.Model.Schema.NativeRef
	cfg := req.Target.Native
	if ref.APIGroup != cfg.APIGroup || ref.Version != cfg.Version || ref.Kind != cfg.Kind {
		return ferrors.New(ferrors.Conflict, "model's native schema ref %s/%s %s does not match storage's native config %s/%s %s",
			ref.APIGroup, ref.Version, ref.Kind, cfg.APIGroup, cfg.Version, cfg.Kind)
	}

	if req.Source != nil {
		return ferrors.New(ferrors.Conflict, "Native storages do not support a replication source")
	}

	var list unstructured.UnstructuredList
	list.SetGroupVersionKind(gvk(cfg).GroupVersion().WithKind(cfg.Kind + "List"))
	opts := []client.ListOption{client.Limit(1)}
	if cfg.Namespace != "" {
		opts = append(opts, client.InNamespace(cfg.Namespace))
	}
	if err := a.cli.List(ctx, &list, opts...); err != nil {
		return classifyK8sErr(err).WithTarget(req.StorageName)
	}
	return nil
}

// Unbind for Native storages never deletes the referenced CRD instances
// themselves — they are orchestrator-native resources outside this
// binding's ownership — regardless of DeletionPolicy. Retain and Delete are
// therefore equivalent here.
func (a *NativeAdapter) Unbind(ctx context.Context, req UnbindRequest) error {
	if req.Target.Native == nil {
		return ferrors.New(ferrors.Conflict, "target storage %q is not a Native storage", req.StorageName)
	}
	return nil
}

func (a *NativeAdapter) Get(ctx context.Context, storageName string, storage corev1alpha1.ModelStorageSpec, key Key) (Record, error) {
	if storage.Native == nil {
		return Record{}, ferrors.New(ferrors.Conflict, "storage is not a Native storage")
	}
	cfg := storage.Native

	var obj unstructured.Unstructured
	obj.SetGroupVersionKind(gvk(cfg))
	if err := a.cli.Get(ctx, client.ObjectKey{Namespace: cfg.Namespace, Name: key.Value}, &obj); err != nil {
		return Record{}, classifyK8sErr(err)
	}
	return Record{Key: key, Fields: obj.UnstructuredContent()}, nil
}

func (a *NativeAdapter) List(ctx context.Context, storageName string, storage corev1alpha1.ModelStorageSpec) ([]Record, error) {
	if storage.Native == nil {
		return nil, ferrors.New(ferrors.Conflict, "storage is not a Native storage")
	}
	cfg := storage.Native

	var list unstructured.UnstructuredList
	list.SetGroupVersionKind(gvk(cfg).GroupVersion().WithKind(cfg.Kind + "List"))
	opts := []client.ListOption{}
	if cfg.Namespace != "" {
		opts = append(opts, client.InNamespace(cfg.Namespace))
	}
	if err := a.cli.List(ctx, &list, opts...); err != nil {
		return nil, classifyK8sErr(err)
	}

	records := make([]Record, 0, len(list.Items))
	for _, item := range list.Items {
		records = append(records, Record{Key: Key{Value: item.GetName()}, Fields: item.UnstructuredContent()})
	}
	return records, nil
}

// Capacity is always unavailable for Native storages: there is no generic
// notion of free/used bytes for an arbitrary orchestrator-native CRD.
func (a *NativeAdapter) Capacity(ctx context.Context, storageName string, storage corev1alpha1.ModelStorageSpec) (Capacity, error) {
	return Capacity{Ok: false}, nil
}

func classifyK8sErr(err error) *ferrors.Error {
	switch {
	case apierrors.IsNotFound(err):
		return ferrors.Wrap(ferrors.NotFound, err, "native object not found")
	case apierrors.IsUnauthorized(err), apierrors.IsForbidden(err):
		return ferrors.Wrap(ferrors.Unauthorized, err, "native object access rejected")
	case apierrors.IsConflict(err), apierrors.IsInvalid(err):
		return ferrors.Wrap(ferrors.Conflict, err, "native object schema conflict")
	case apierrors.IsServerTimeout(err), apierrors.IsTimeout(err), apierrors.IsServiceUnavailable(err):
		return ferrors.Wrap(ferrors.Transient, err, "native object store unavailable")
	}
	return ferrors.Wrap(ferrors.Permanent, err, "native object operation failed")
}
