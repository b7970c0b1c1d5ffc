package v1alpha1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// BindingState is the lifecycle state of a ModelStorageBinding.
// +kubebuilder:validation:Enum=Pending;Ready;Deleting
type BindingState string

const (
	BindingStatePending  BindingState = "Pending"
	BindingStateReady    BindingState = "Ready"
	BindingStateDeleting BindingState = "Deleting"
)

// DeletionPolicy chooses what happens to the backing artifact when a binding
// is deleted.
// +kubebuilder:validation:Enum=Delete;Retain
type DeletionPolicy string

const (
	DeletionPolicyDelete DeletionPolicy = "Delete"
	DeletionPolicyRetain DeletionPolicy = "Retain"
)

// SyncPolicy configures replication behavior for a Cloned binding. It is a
// thin marker today; the source storage that feeds the replication is named
// by StorageRef.Source, not here.
type SyncPolicy struct {
	// Enabled turns on replication from StorageRef.Source into StorageRef.Target.
	// +optional
	Enabled bool `json:"enabled,omitempty"`
}

// StorageRef names the storage(s) a binding attaches to. Target alone means an
// Owned binding; Target plus Source means a Cloned binding replicating from
// Source into Target.
type StorageRef struct {
	// Target is the storage this binding attaches the model to.
	Target string `json:"target"`

	// Source, if set, names the storage replicated from into Target.
	// +optional
	Source string `json:"source,omitempty"`
}

// ModelStorageBindingSpec defines the desired state of ModelStorageBinding.
type ModelStorageBindingSpec struct {
	// Model names the Model this binding attaches to a storage.
	Model string `json:"model"`

	// Storage selects Owned (Target only) or Cloned (Source and Target).
	Storage StorageRef `json:"storage"`

	// DeletionPolicy chooses what happens to the backing artifact on delete.
	// +kubebuilder:default=Delete
	DeletionPolicy DeletionPolicy `json:"deletionPolicy,omitempty"`

	// SyncPolicy configures replication for a Cloned binding.
	// +optional
	SyncPolicy *SyncPolicy `json:"syncPolicy,omitempty"`
}

// ModelStorageBindingStatus carries the resolved snapshot as of the last
// successful reconcile.
type ModelStorageBindingStatus struct {
	// +optional
	State BindingState `json:"state,omitempty"`

	// +optional
	DeletionPolicy DeletionPolicy `json:"deletionPolicy,omitempty"`

	// Model is the resolved model name.
	// +optional
	Model string `json:"model,omitempty"`

	// ModelSpec is the model's schema as observed at last reconcile; must equal
	// the current Model's spec whenever State is Ready.
	// +optional
	ModelSpec *ModelSchema `json:"modelSpec,omitempty"`

	// StorageSourceName is the resolved source storage name, if any.
	// +optional
	StorageSourceName string `json:"storageSourceName,omitempty"`

	// StorageSourceSpec is the source storage's spec as observed at last reconcile.
	// +optional
	StorageSourceSpec *ModelStorageSpec `json:"storageSourceSpec,omitempty"`

	// StorageSourceBindingName names another binding that already owns the
	// source storage's replication relationship, when applicable.
	// +optional
	StorageSourceBindingName string `json:"storageSourceBindingName,omitempty"`

	// StorageSyncPolicy mirrors spec.syncPolicy as observed at last reconcile.
	// +optional
	StorageSyncPolicy *SyncPolicy `json:"storageSyncPolicy,omitempty"`

	// StorageTargetName is the resolved target storage name.
	// +optional
	StorageTargetName string `json:"storageTargetName,omitempty"`

	// StorageTargetSpec is the target storage's spec as observed at last reconcile.
	// +optional
	StorageTargetSpec *ModelStorageSpec `json:"storageTargetSpec,omitempty"`

	// +optional
	LastUpdated *metav1.Time `json:"lastUpdated,omitempty"`

	// Conditions holds machine-readable error/ready conditions.
	// +optional
	Conditions []metav1.Condition `json:"conditions,omitempty"`
}

//+kubebuilder:object:root=true
//+kubebuilder:subresource:status
//+kubebuilder:printcolumn:name="Model",type="string",JSONPath=".spec.model"
//+kubebuilder:printcolumn:name="Target",type="string",JSONPath=".spec.storage.target"
//+kubebuilder:printcolumn:name="State",type="string",JSONPath=".status.state"
//+kubebuilder:printcolumn:name="Age",type="date",JSONPath=".metadata.creationTimestamp"

// ModelStorageBinding is the Schema for the modelstoragebindings API.
type ModelStorageBinding struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   ModelStorageBindingSpec   `json:"spec,omitempty"`
	Status ModelStorageBindingStatus `json:"status,omitempty"`
}

//+kubebuilder:object:root=true

// ModelStorageBindingList contains a list of ModelStorageBinding.
type ModelStorageBindingList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []ModelStorageBinding `json:"items"`
}

// GetStatus returns the object's status as an any, letting generic callers
// (internal/store) compare it without a per-type switch.
func (m *ModelStorageBinding) GetStatus() any {
	return m.Status
}

func init() {
	SchemeBuilder.Register(&ModelStorageBinding{}, &ModelStorageBindingList{})
}
