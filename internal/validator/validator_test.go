package validator

import (
	"context"
	"testing"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"

	"github.com/modelfabric/operator/internal/ferrors"
	"github.com/modelfabric/operator/internal/store"
	corev1alpha1 "github.com/modelfabric/operator/pkg/apis/core/v1alpha1"
)

func newTestValidator(t *testing.T, objs ...client.Object) *Validator {
	t.Helper()
	scheme := runtime.NewScheme()
	if err := corev1alpha1.AddToScheme(scheme); err != nil {
		t.Fatalf("AddToScheme: %v", err)
	}
	cli := fake.NewClientBuilder().WithScheme(scheme).WithObjects(objs...).Build()

	models := store.New(cli, func() *corev1alpha1.Model { return &corev1alpha1.Model{} }, "test")
	storages := store.New(cli, func() *corev1alpha1.ModelStorage { return &corev1alpha1.ModelStorage{} }, "test")
	return New(models, storages)
}

func readyModel(name string) *corev1alpha1.Model {
	return &corev1alpha1.Model{
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: "ns"},
		Spec: corev1alpha1.ModelSpec{
			Schema: corev1alpha1.ModelSchema{Fields: []corev1alpha1.ModelField{{Name: "id", Type: corev1alpha1.FieldTypeString}}},
		},
		Status: corev1alpha1.ModelStatus{State: corev1alpha1.ModelStateReady},
	}
}

func dbStorage(name string) *corev1alpha1.ModelStorage {
	return &corev1alpha1.ModelStorage{
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: "ns"},
		Spec: corev1alpha1.ModelStorageSpec{
			Kind:     corev1alpha1.StorageKindDatabase,
			Database: &corev1alpha1.DatabaseStorageConfig{CredentialsSecretRef: corev1alpha1.SecretReference{Name: "s"}},
		},
	}
}

func TestValidateRejectsNotReadyModel(t *testing.T) {
	model := readyModel("m1")
	model.Status.State = corev1alpha1.ModelStatePending
	v := newTestValidator(t, model, dbStorage("t1"))

	_, err := v.Validate(context.Background(), "ns", corev1alpha1.ModelStorageBindingSpec{
		Model:   "m1",
		Storage: corev1alpha1.StorageRef{Target: "t1"},
	})
	if ferrors.KindOf(err) != ferrors.NotReady {
		t.Fatalf("KindOf(err) = %v, want NotReady", ferrors.KindOf(err))
	}
}

func TestValidateAssemblesContext(t *testing.T) {
	v := newTestValidator(t, readyModel("m1"), dbStorage("t1"))

	ctxOut, err := v.Validate(context.Background(), "ns", corev1alpha1.ModelStorageBindingSpec{
		Model:   "m1",
		Storage: corev1alpha1.StorageRef{Target: "t1"},
	})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if ctxOut.TargetName != "t1" || ctxOut.Target.Kind != corev1alpha1.StorageKindDatabase {
		t.Fatalf("unexpected target resolution: %#v", ctxOut)
	}
	if ctxOut.Source != nil {
		t.Fatalf("expected no source, got %#v", ctxOut.Source)
	}
}

func TestUpdateDetectsModelImmutableViolation(t *testing.T) {
	v := newTestValidator(t, readyModel("m1"), dbStorage("t1"))

	staleSchema := corev1alpha1.ModelSchema{Fields: []corev1alpha1.ModelField{{Name: "different", Type: corev1alpha1.FieldTypeInt}}}
	lastStatus := corev1alpha1.ModelStorageBindingStatus{
		Model:             "m1",
		ModelSpec:         &staleSchema,
		StorageTargetName: "t1",
	}

	_, _, err := v.Update(context.Background(), "ns", corev1alpha1.ModelStorageBindingSpec{
		Model:   "m1",
		Storage: corev1alpha1.StorageRef{Target: "t1"},
	}, lastStatus)
	if ferrors.KindOf(err) != ferrors.Fatal {
		t.Fatalf("KindOf(err) = %v, want Fatal", ferrors.KindOf(err))
	}
}

func TestUpdateReturnsNotOkWhenNothingChanged(t *testing.T) {
	model := readyModel("m1")
	v := newTestValidator(t, model, dbStorage("t1"))

	target := model.Spec.Schema
	targetSpec := dbStorage("t1").Spec
	lastStatus := corev1alpha1.ModelStorageBindingStatus{
		Model:             "m1",
		ModelSpec:         &target,
		StorageTargetName: "t1",
		StorageTargetSpec: &targetSpec,
	}

	_, ok, err := v.Update(context.Background(), "ns", corev1alpha1.ModelStorageBindingSpec{
		Model:   "m1",
		Storage: corev1alpha1.StorageRef{Target: "t1"},
	}, lastStatus)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if ok {
		t.Fatal("expected ok=false when resolved context matches last-committed snapshot")
	}
}

func TestPlanDeleteFallsBackWhenStatusIncomplete(t *testing.T) {
	v := newTestValidator(t)
	_, ok := v.PlanDelete(context.Background(), "ns", corev1alpha1.ModelStorageBindingStatus{})
	if ok {
		t.Fatal("expected ok=false when last status has no resolved target")
	}
}

func TestPlanDeleteResolvesFromLastStatus(t *testing.T) {
	v := newTestValidator(t, dbStorage("t1"))
	targetSpec := dbStorage("t1").Spec
	resolved, ok := v.PlanDelete(context.Background(), "ns", corev1alpha1.ModelStorageBindingStatus{
		StorageTargetName: "t1",
		StorageTargetSpec: &targetSpec,
	})
	if !ok {
		t.Fatal("expected ok=true")
	}
	if resolved.TargetName != "t1" {
		t.Fatalf("resolved.TargetName = %q, want t1", resolved.TargetName)
	}
}
