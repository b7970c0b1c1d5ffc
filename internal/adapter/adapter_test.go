package adapter

import (
	"testing"

	corev1alpha1 "github.com/modelfabric/operator/pkg/apis/core/v1alpha1"
)

func TestFromStorageKind(t *testing.T) {
	cases := map[corev1alpha1.StorageKind]Kind{
		corev1alpha1.StorageKindDatabase: KindDatabase,
		corev1alpha1.StorageKindNative:   KindNative,
		corev1alpha1.StorageKindObject:   KindObject,
	}
	for in, want := range cases {
		if got := FromStorageKind(in); got != want {
			t.Errorf("FromStorageKind(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestSQLColumnType(t *testing.T) {
	cases := []struct {
		in   corev1alpha1.FieldType
		want string
	}{
		{corev1alpha1.FieldTypeString, "TEXT"},
		{corev1alpha1.FieldTypeInt, "BIGINT"},
		{corev1alpha1.FieldTypeFloat, "DOUBLE PRECISION"},
		{corev1alpha1.FieldTypeBool, "BOOLEAN"},
		{corev1alpha1.FieldTypeBytes, "BYTEA"},
		{corev1alpha1.FieldTypeTimestamp, "TIMESTAMP"},
		{corev1alpha1.FieldTypeArray, "TEXT"},
		{corev1alpha1.FieldTypeObject, "TEXT"},
	}
	for _, tc := range cases {
		if got := sqlColumnType(tc.in); got != tc.want {
			t.Errorf("sqlColumnType(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCompatibleColumnType(t *testing.T) {
	if !compatibleColumnType("double precision", "DOUBLE PRECISION") {
		t.Error("expected case-insensitive match")
	}
	if compatibleColumnType("integer", "TEXT") {
		t.Error("expected mismatch to be reported as incompatible")
	}
}

func TestTableNameSanitizesDashes(t *testing.T) {
	if got := tableName("my-model"); got != "model_my_model" {
		t.Errorf("tableName() = %q, want model_my_model", got)
	}
}

func TestModelColumnsRejectsNativeRef(t *testing.T) {
	model := corev1alpha1.ModelSpec{
		Schema: corev1alpha1.ModelSchema{
			NativeRef: &corev1alpha1.NativeSchemaRef{APIGroup: "apps", Version: "v1", Kind: "Deployment"},
		},
	}
	if _, err := modelColumns(model); err == nil {
		t.Fatal("expected error for native-ref schema")
	}
}

func TestModelColumnsMapsFields(t *testing.T) {
	model := corev1alpha1.ModelSpec{
		Schema: corev1alpha1.ModelSchema{
			Fields: []corev1alpha1.ModelField{
				{Name: "email", Type: corev1alpha1.FieldTypeString},
				{Name: "age", Type: corev1alpha1.FieldTypeInt},
			},
		},
	}
	cols, err := modelColumns(model)
	if err != nil {
		t.Fatalf("modelColumns: %v", err)
	}
	if cols["email"] != "TEXT" || cols["age"] != "BIGINT" {
		t.Errorf("unexpected columns: %#v", cols)
	}
}
