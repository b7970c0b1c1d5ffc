package v1alpha1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// StorageKind is the tagged-union discriminant for a ModelStorage.
// +kubebuilder:validation:Enum=Database;Native;Object
type StorageKind string

const (
	StorageKindDatabase StorageKind = "Database"
	StorageKindNative   StorageKind = "Native"
	StorageKindObject   StorageKind = "Object"
)

// Unique reports whether at most one Ready storage of this kind may exist per
// namespace. Database and Native are unique; Object is not.
func (k StorageKind) Unique() bool {
	return k == StorageKindDatabase || k == StorageKindNative
}

// StorageState is the lifecycle state of a ModelStorage.
// +kubebuilder:validation:Enum=Pending;Ready;Deleting
type StorageState string

const (
	StorageStatePending  StorageState = "Pending"
	StorageStateReady    StorageState = "Ready"
	StorageStateDeleting StorageState = "Deleting"
)

// SecretReference names an orchestrator-native secret object in the storage's
// own namespace; the system never embeds credentials in its own records.
type SecretReference struct {
	Name string `json:"name"`
}

// DatabaseStorageConfig configures a relational-database-backed storage.
type DatabaseStorageConfig struct {
	// CredentialsSecretRef names a secret holding the DSN/connection string.
	CredentialsSecretRef SecretReference `json:"credentialsSecretRef"`

	// Driver is an informational label (e.g. "postgres", "mysql"); the
	// concrete SQL driver registration is a composition-root concern, not
	// something this record's reconciliation depends on.
	Driver string `json:"driver,omitempty"`

	// Database is the logical database name to operate within.
	Database string `json:"database,omitempty"`

	// MaxOpenConns bounds the per-storage connection pool.
	// +optional
	MaxOpenConns int32 `json:"maxOpenConns,omitempty"`
}

// NativeStorageConfig configures an orchestrator-native-CRD-backed storage.
type NativeStorageConfig struct {
	APIGroup  string `json:"apiGroup"`
	Version   string `json:"version"`
	Kind      string `json:"kind"`
	Namespace string `json:"namespace,omitempty"`
}

// ObjectStorageConfig configures an S3-compatible object-store-backed storage.
type ObjectStorageConfig struct {
	// Endpoint is the S3 API endpoint host:port.
	Endpoint string `json:"endpoint"`

	// Region is the storage region, when the backend is region-aware.
	// +optional
	Region string `json:"region,omitempty"`

	// UseSSL selects https vs http for the endpoint connection.
	// +optional
	UseSSL bool `json:"useSSL,omitempty"`

	// CredentialsSecretRef names a secret holding accessKeyId/secretAccessKey.
	CredentialsSecretRef SecretReference `json:"credentialsSecretRef"`
}

// ModelStorageSpec is a tagged union over the three supported backend kinds.
type ModelStorageSpec struct {
	// Kind selects which of Database/Native/Object is populated.
	Kind StorageKind `json:"kind"`

	// +optional
	Database *DatabaseStorageConfig `json:"database,omitempty"`
	// +optional
	Native *NativeStorageConfig `json:"native,omitempty"`
	// +optional
	Object *ObjectStorageConfig `json:"object,omitempty"`
}

// ModelStorageStatus defines the observed state of ModelStorage.
type ModelStorageStatus struct {
	// +optional
	State StorageState `json:"state,omitempty"`

	// Kind mirrors spec.kind, resolved at last reconcile.
	// +optional
	Kind StorageKind `json:"kind,omitempty"`

	// +optional
	LastUpdated *metav1.Time `json:"lastUpdated,omitempty"`

	// +optional
	Conditions []metav1.Condition `json:"conditions,omitempty"`
}

//+kubebuilder:object:root=true
//+kubebuilder:subresource:status
//+kubebuilder:printcolumn:name="Kind",type="string",JSONPath=".spec.kind"
//+kubebuilder:printcolumn:name="State",type="string",JSONPath=".status.state"
//+kubebuilder:printcolumn:name="Age",type="date",JSONPath=".metadata.creationTimestamp"

// ModelStorage is the Schema for the modelstorages API.
type ModelStorage struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   ModelStorageSpec   `json:"spec,omitempty"`
	Status ModelStorageStatus `json:"status,omitempty"`
}

//+kubebuilder:object:root=true

// ModelStorageList contains a list of ModelStorage.
type ModelStorageList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []ModelStorage `json:"items"`
}

// GetStatus returns the object's status as an any, letting generic callers
// (internal/store) compare it without a per-type switch.
func (m *ModelStorage) GetStatus() any {
	return m.Status
}

func init() {
	SchemeBuilder.Register(&ModelStorage{}, &ModelStorageList{})
}
