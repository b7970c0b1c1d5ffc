package v1alpha1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// ModelState is the lifecycle state of a Model.
// +kubebuilder:validation:Enum=Pending;Ready
type ModelState string

const (
	ModelStatePending ModelState = "Pending"
	ModelStateReady   ModelState = "Ready"
)

// FieldType enumerates the primitive and aggregation types a ModelField may hold.
// +kubebuilder:validation:Enum=String;Int;Float;Bool;Bytes;Timestamp;Array;Object
type FieldType string

const (
	FieldTypeString    FieldType = "String"
	FieldTypeInt       FieldType = "Int"
	FieldTypeFloat     FieldType = "Float"
	FieldTypeBool      FieldType = "Bool"
	FieldTypeBytes     FieldType = "Bytes"
	FieldTypeTimestamp FieldType = "Timestamp"
	FieldTypeArray     FieldType = "Array"
	FieldTypeObject    FieldType = "Object"
)

// FieldConstraints narrows the value space of a ModelField beyond its Type.
type FieldConstraints struct {
	// Nullable allows the field to be absent or null.
	// +optional
	Nullable bool `json:"nullable,omitempty"`

	// MaxLength bounds String/Bytes/Array length.
	// +optional
	MaxLength *int64 `json:"maxLength,omitempty"`

	// Unique requires the field's value be unique across instances of the model.
	// +optional
	Unique bool `json:"unique,omitempty"`
}

// ModelField describes one field of a model's native field schema.
type ModelField struct {
	// Name is the field's identifier, unique within its enclosing schema.
	Name string `json:"name"`

	// Type is the field's primitive or aggregation type.
	Type FieldType `json:"type"`

	// Constraints narrows the field's accepted values.
	// +optional
	Constraints *FieldConstraints `json:"constraints,omitempty"`

	// Items describes the element type when Type is Array.
	// +optional
	Items *ModelField `json:"items,omitempty"`

	// Fields lists the member fields when Type is Object.
	// +optional
	Fields []ModelField `json:"fields,omitempty"`
}

// NativeSchemaRef points a Model at an orchestrator-native CRD's schema instead
// of carrying an explicit field list.
type NativeSchemaRef struct {
	APIGroup string `json:"apiGroup"`
	Version  string `json:"version"`
	Kind     string `json:"kind"`
}

// ModelSchema is a tagged union: either an explicit field list, or a reference
// to a native-CRD schema. Exactly one of Fields or NativeRef should be set.
type ModelSchema struct {
	// Fields is the explicit field schema. Mutually exclusive with NativeRef.
	// +optional
	Fields []ModelField `json:"fields,omitempty"`

	// NativeRef references a native-CRD schema. Mutually exclusive with Fields.
	// +optional
	NativeRef *NativeSchemaRef `json:"nativeRef,omitempty"`
}

// IsNativeRef reports whether the schema is a native-CRD reference rather than
// an explicit field list.
func (s ModelSchema) IsNativeRef() bool {
	return s.NativeRef != nil
}

// ModelSpec defines the desired state of Model.
type ModelSpec struct {
	// Schema is the model's field schema or native-CRD reference.
	Schema ModelSchema `json:"schema"`
}

// ModelStatus defines the observed state of Model.
type ModelStatus struct {
	// State is the model's lifecycle state. Only Ready models may be bound.
	// +optional
	State ModelState `json:"state,omitempty"`

	// Fields mirrors the resolved field schema at the last reconcile, useful
	// when Schema.NativeRef was used and the fields were discovered from the
	// referenced CRD's OpenAPI schema.
	// +optional
	Fields []ModelField `json:"fields,omitempty"`

	// LastUpdated is the time the controller last wrote this status.
	// +optional
	LastUpdated *metav1.Time `json:"lastUpdated,omitempty"`

	// Conditions holds the latest observations of the model's state.
	// +optional
	Conditions []metav1.Condition `json:"conditions,omitempty"`
}

//+kubebuilder:object:root=true
//+kubebuilder:subresource:status
//+kubebuilder:printcolumn:name="State",type="string",JSONPath=".status.state"
//+kubebuilder:printcolumn:name="Age",type="date",JSONPath=".metadata.creationTimestamp"

// Model is the Schema for the models API.
type Model struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   ModelSpec   `json:"spec,omitempty"`
	Status ModelStatus `json:"status,omitempty"`
}

//+kubebuilder:object:root=true

// ModelList contains a list of Model.
type ModelList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []Model `json:"items"`
}

// GetStatus returns the object's status as an any, letting generic callers
// (internal/store) compare it without a per-type switch.
func (m *Model) GetStatus() any {
	return m.Status
}

func init() {
	SchemeBuilder.Register(&Model{}, &ModelList{})
}
