// Package adapter implements the three concrete backend adapters — Object,
// Database, Native — behind one uniform Bind/Unbind/Get/List/Capacity
// contract. The Dispatcher (internal/dispatcher) is the only caller that
// should ever select among them.
package adapter

import (
	"context"

	corev1alpha1 "github.com/modelfabric/operator/pkg/apis/core/v1alpha1"
)

// Kind is the closed sum type over backend variants. It mirrors
// corev1alpha1.StorageKind exactly but lives in this package so adapter code
// never needs to import the CRD package's validation markers.
type Kind string

const (
	KindDatabase Kind = "Database"
	KindNative   Kind = "Native"
	KindObject   Kind = "Object"
)

// FromStorageKind converts the CRD-level kind into the adapter-level Kind.
func FromStorageKind(k corev1alpha1.StorageKind) Kind {
	return Kind(k)
}

// DeletionPolicy mirrors corev1alpha1.DeletionPolicy for the same reason Kind does.
type DeletionPolicy string

const (
	DeletionPolicyDelete DeletionPolicy = "Delete"
	DeletionPolicyRetain DeletionPolicy = "Retain"
)

// Capacity reports free/used space for a storage. Ok is false when the
// backend cannot report capacity at all (distinct from a zero-value result).
type Capacity struct {
	AvailableBytes int64
	UsedBytes      int64
	Ok             bool
}

// Key addresses a single record within a storage, using whichever field is
// meaningful for the storage's kind: primary key for Database, object key
// for Object, name for Native (apiGroup/version/kind come from the storage spec).
type Key struct {
	Value string
}

// Record is a single retrieved or listed item. Object records carry raw
// bytes in Payload; Database and Native records carry a decoded map in
// Fields.
type Record struct {
	Key     Key
	Payload []byte
	Fields  map[string]any
}

// BindRequest carries everything an adapter needs to realize a binding
// against its target storage.
type BindRequest struct {
	// StorageName names the ModelStorage the adapter should provision against.
	StorageName string
	// ModelName names the bound model; the backing artifact (table, bucket)
	// is named after it, since one storage may hold several models.
	ModelName string
	// Model is the bound model's resolved schema.
	Model corev1alpha1.ModelSpec
	// Target is the resolved target storage spec.
	Target corev1alpha1.ModelStorageSpec
	// Source is the resolved source storage spec for a Cloned binding, if any.
	Source *corev1alpha1.ModelStorageSpec
	// SyncPolicy configures replication from Source into Target, if set.
	SyncPolicy *corev1alpha1.SyncPolicy
}

// UnbindRequest carries everything an adapter needs to release a binding.
type UnbindRequest struct {
	StorageName    string
	ModelName      string
	Target         corev1alpha1.ModelStorageSpec
	DeletionPolicy DeletionPolicy
}

// Adapter is the uniform contract every backend variant implements.
type Adapter interface {
	// Bind ensures the target storage is provisioned to hold the model.
	// With a Source and an enabled SyncPolicy, the Object adapter only reads
	// the bucket's replication config; no replication rule is written.
	Bind(ctx context.Context, req BindRequest) error

	// Unbind releases the binding per DeletionPolicy: Delete tears down the
	// backing artifact, Retain only revokes replication.
	Unbind(ctx context.Context, req UnbindRequest) error

	// Get fetches a single record by key. name addresses the backing
	// artifact — the bound model's name for Database tables and Object
	// buckets; ignored for Native, whose addressing comes from the storage
	// config. storage carries the resolved storage spec.
	Get(ctx context.Context, name string, storage corev1alpha1.ModelStorageSpec, key Key) (Record, error)

	// List returns every record the backend currently holds under name.
	List(ctx context.Context, name string, storage corev1alpha1.ModelStorageSpec) ([]Record, error)

	// Capacity reports the storage's free/used bytes, or Ok=false when the
	// backend cannot report.
	Capacity(ctx context.Context, storageName string, storage corev1alpha1.ModelStorageSpec) (Capacity, error)
}
