package storage

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
	"github.com/modelfabric/operator/internal/telemetry"
	"github.com/modelfabric/operator/pkg/log"
	corev1alpha1 "github.com/modelfabric/operator/pkg/apis/core/v1alpha1"
)

func newTestReconciler(t *testing.T, objs ...client.Object) (*Reconciler, client.Client, *telemetry.Registry) {
	t.Helper()
	scheme := runtime.NewScheme()
	if err := corev1alpha1.AddToScheme(scheme); err != nil {
		t.Fatalf("AddToScheme: %v", err)
	}
	cli := fake.NewClientBuilder().
		WithScheme(scheme).
		WithStatusSubresource(&corev1alpha1.ModelStorage{}).
		WithObjects(objs...).
		Build()

	storages := store.New(cli, func() *corev1alpha1.ModelStorage { return &corev1alpha1.ModelStorage{} }, "test")
	bindings := store.New(cli, func() *corev1alpha1.ModelStorageBinding { return &corev1alpha1.ModelStorageBinding{} }, "test")

	registry := telemetry.NewRegistry()
	executor := telemetry.NewExecutor(registry, noopProber{}, 1, log.NewNopLogger())
	intake := telemetry.NewIntake(registry, executor)

	return NewReconciler(cli, scheme, storages, bindings, intake), cli, registry
}

type noopProber struct{}

func (noopProber) ProbeByName(ctx context.Context, namespace, name string) (int64, int64, bool) {
	return 0, 0, false
}

func objectStorage(name string) *corev1alpha1.ModelStorage {
	return &corev1alpha1.ModelStorage{
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: "ns"},
		Spec: corev1alpha1.ModelStorageSpec{
			Kind:   corev1alpha1.StorageKindObject,
			Object: &corev1alpha1.ObjectStorageConfig{Endpoint: "minio:9000"},
		},
	}
}

func databaseStorage(name string) *corev1alpha1.ModelStorage {
	return &corev1alpha1.ModelStorage{
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: "ns"},
		Spec: corev1alpha1.ModelStorageSpec{
			Kind:     corev1alpha1.StorageKindDatabase,
			Database: &corev1alpha1.DatabaseStorageConfig{Driver: "postgres"},
		},
	}
}

func TestReconcileFlipsStorageToReadyAndRegistersTelemetry(t *testing.T) {
	s := objectStorage("s1")
	r, cli, registry := newTestReconciler(t, s)

	req := ctrl.Request{NamespacedName: types.NamespacedName{Name: "s1", Namespace: "ns"}}
	if _, err := r.Reconcile(context.Background(), req); err != nil {
		t.Fatalf("Reconcile (add finalizer): %v", err)
	}
	if _, err := r.Reconcile(context.Background(), req); err != nil {
		t.Fatalf("Reconcile (flip ready): %v", err)
	}

	var got corev1alpha1.ModelStorage
	if err := cli.Get(context.Background(), req.NamespacedName, &got); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status.State != corev1alpha1.StorageStateReady {
		t.Fatalf("Status.State = %q, want Ready", got.Status.State)
	}

	if _, ok := registry.Graph("ns").Snapshot("s1"); !ok {
		t.Fatal("expected storage to be registered with the telemetry graph once Ready")
	}
}

func TestReconcileRejectsSecondUniqueKindStorage(t *testing.T) {
	existing := databaseStorage("d1")
	existing.Status.State = corev1alpha1.StorageStateReady
	candidate := databaseStorage("d2")

	r, cli, _ := newTestReconciler(t, existing, candidate)

	req := ctrl.Request{NamespacedName: types.NamespacedName{Name: "d2", Namespace: "ns"}}
	if _, err := r.Reconcile(context.Background(), req); err != nil {
		t.Fatalf("Reconcile (add finalizer): %v", err)
	}
	if _, err := r.Reconcile(context.Background(), req); err != nil {
		t.Fatalf("Reconcile (uniqueness check): %v", err)
	}

	var got corev1alpha1.ModelStorage
	if err := cli.Get(context.Background(), req.NamespacedName, &got); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status.State == corev1alpha1.StorageStateReady {
		t.Fatal("second unique-kind storage must not become Ready while the first is Ready")
	}
}

func TestReconcileDeletionDefersWhileReferencedByBinding(t *testing.T) {
	s := objectStorage("s1")
	s.Status.State = corev1alpha1.StorageStateReady
	s.Finalizers = []string{FinalizerName}
	now := metav1.Now()
	s.DeletionTimestamp = &now

	binding := &corev1alpha1.ModelStorageBinding{
		ObjectMeta: metav1.ObjectMeta{Name: "b1", Namespace: "ns"},
		Spec: corev1alpha1.ModelStorageBindingSpec{
			Model:   "m1",
			Storage: corev1alpha1.StorageRef{Target: "s1"},
		},
	}

	r, cli, _ := newTestReconciler(t, s, binding)

	req := ctrl.Request{NamespacedName: types.NamespacedName{Name: "s1", Namespace: "ns"}}
	if _, err := r.Reconcile(context.Background(), req); err != nil {
		t.Fatalf("Reconcile (mark deleting): %v", err)
	}
	if _, err := r.Reconcile(context.Background(), req); err != nil {
		t.Fatalf("Reconcile (deferred by binding): %v", err)
	}

	var got corev1alpha1.ModelStorage
	if err := cli.Get(context.Background(), req.NamespacedName, &got); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.Finalizers) == 0 {
		t.Fatal("finalizer must remain while a binding still references the storage")
	}
}
