package model

import (
	"context"
	"testing"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/types"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"

	"github.com/modelfabric/operator/internal/store"
	corev1alpha1 "github.com/modelfabric/operator/pkg/apis/core/v1alpha1"
)

func newTestReconciler(t *testing.T, objs ...client.Object) (*Reconciler, client.Client) {
	t.Helper()
	scheme := runtime.NewScheme()
	if err := corev1alpha1.AddToScheme(scheme); err != nil {
		t.Fatalf("AddToScheme: %v", err)
	}
	cli := fake.NewClientBuilder().
		WithScheme(scheme).
		WithStatusSubresource(&corev1alpha1.Model{}).
		WithObjects(objs...).
		Build()

	st := store.New(cli, func() *corev1alpha1.Model { return &corev1alpha1.Model{} }, "test")
	r, err := NewReconciler(cli, scheme, nil, st)
	if err != nil {
		t.Fatalf("NewReconciler: %v", err)
	}
	return r, cli
}

func TestReconcileFlipsExplicitFieldsModelToReady(t *testing.T) {
	m := &corev1alpha1.Model{
		ObjectMeta: metav1.ObjectMeta{Name: "m1", Namespace: "ns"},
		Spec: corev1alpha1.ModelSpec{
			Schema: corev1alpha1.ModelSchema{Fields: []corev1alpha1.ModelField{{Name: "id", Type: corev1alpha1.FieldTypeString}}},
		},
	}
	r, cli := newTestReconciler(t, m)

	if _, err := r.Reconcile(context.Background(), ctrl.Request{NamespacedName: types.NamespacedName{Name: "m1", Namespace: "ns"}}); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	var got corev1alpha1.Model
	if err := cli.Get(context.Background(), types.NamespacedName{Name: "m1", Namespace: "ns"}, &got); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status.State != corev1alpha1.ModelStateReady {
		t.Fatalf("Status.State = %q, want Ready", got.Status.State)
	}
	if len(got.Status.Fields) != 1 {
		t.Fatalf("Status.Fields = %#v, want one field", got.Status.Fields)
	}
}

func TestReconcileRejectsSchemaWithBothFieldsAndNativeRef(t *testing.T) {
	m := &corev1alpha1.Model{
		ObjectMeta: metav1.ObjectMeta{Name: "m1", Namespace: "ns"},
		Spec: corev1alpha1.ModelSpec{
			Schema: corev1alpha1.ModelSchema{
				Fields:    []corev1alpha1.ModelField{{Name: "id", Type: corev1alpha1.FieldTypeString}},
				NativeRef: &corev1alpha1.NativeSchemaRef{APIGroup: "g", Version: "v1", Kind: "K"},
			},
		},
	}
	r, cli := newTestReconciler(t, m)

	if _, err := r.Reconcile(context.Background(), ctrl.Request{NamespacedName: types.NamespacedName{Name: "m1", Namespace: "ns"}}); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	var got corev1alpha1.Model
	if err := cli.Get(context.Background(), types.NamespacedName{Name: "m1", Namespace: "ns"}, &got); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status.State == corev1alpha1.ModelStateReady {
		t.Fatal("expected Model to stay Pending for an ambiguous schema")
	}
}

func TestReconcileWithoutCRDAccessLeavesNativeRefModelPending(t *testing.T) {
	m := &corev1alpha1.Model{
		ObjectMeta: metav1.ObjectMeta{Name: "m1", Namespace: "ns"},
		Spec: corev1alpha1.ModelSpec{
			Schema: corev1alpha1.ModelSchema{NativeRef: &corev1alpha1.NativeSchemaRef{APIGroup: "g", Version: "v1", Kind: "K"}},
		},
	}
	r, cli := newTestReconciler(t, m)

	if _, err := r.Reconcile(context.Background(), ctrl.Request{NamespacedName: types.NamespacedName{Name: "m1", Namespace: "ns"}}); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	var got corev1alpha1.Model
	if err := cli.Get(context.Background(), types.NamespacedName{Name: "m1", Namespace: "ns"}, &got); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status.State == corev1alpha1.ModelStateReady {
		t.Fatal("expected Model to stay Pending without apiextensions access")
	}
}
