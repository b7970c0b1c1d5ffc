package modelstoragebinding

import (
	"context"
	"testing"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/tools/record"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"

	"github.com/modelfabric/operator/internal/adapter"
	"github.com/modelfabric/operator/internal/dispatcher"
	"github.com/modelfabric/operator/internal/ferrors"
	"github.com/modelfabric/operator/internal/store"
	"github.com/modelfabric/operator/internal/validator"
	corev1alpha1 "github.com/modelfabric/operator/pkg/apis/core/v1alpha1"
)

// fakeAdapter counts bind/unbind calls per storage name and lets a test
// force a specific error, isolating the reconciler's state machine from any
// real backend I/O.
type fakeAdapter struct {
	bindCalls, unbindCalls map[string]int
	lastBindModel          string
	lastUnbindModel        string
	lastUnbindPolicy       adapter.DeletionPolicy
	bindErr, unbindErr     error
}

func newFakeAdapter() *fakeAdapter {
	return &fakeAdapter{bindCalls: map[string]int{}, unbindCalls: map[string]int{}}
}

func (a *fakeAdapter) Bind(ctx context.Context, req adapter.BindRequest) error {
	a.bindCalls[req.StorageName]++
	a.lastBindModel = req.ModelName
	return a.bindErr
}
func (a *fakeAdapter) Unbind(ctx context.Context, req adapter.UnbindRequest) error {
	a.unbindCalls[req.StorageName]++
	a.lastUnbindModel = req.ModelName
	a.lastUnbindPolicy = req.DeletionPolicy
	return a.unbindErr
}
func (a *fakeAdapter) Get(ctx context.Context, name string, storage corev1alpha1.ModelStorageSpec, key adapter.Key) (adapter.Record, error) {
	return adapter.Record{}, nil
}
func (a *fakeAdapter) List(ctx context.Context, name string, storage corev1alpha1.ModelStorageSpec) ([]adapter.Record, error) {
	return nil, nil
}
func (a *fakeAdapter) Capacity(ctx context.Context, name string, storage corev1alpha1.ModelStorageSpec) (adapter.Capacity, error) {
	return adapter.Capacity{}, nil
}

type harness struct {
	t        *testing.T
	cli      client.Client
	bindings *store.Store[*corev1alpha1.ModelStorageBinding]
	objects  *fakeAdapter
	database *fakeAdapter
	recon    *BindingReconciler
}

func newHarness(t *testing.T, objs ...client.Object) *harness {
	t.Helper()
	scheme := runtime.NewScheme()
	if err := corev1alpha1.AddToScheme(scheme); err != nil {
		t.Fatalf("AddToScheme: %v", err)
	}
	cli := fake.NewClientBuilder().
		WithScheme(scheme).
		WithStatusSubresource(&corev1alpha1.ModelStorageBinding{}).
		WithObjects(objs...).
		Build()

	models := store.New(cli, func() *corev1alpha1.Model { return &corev1alpha1.Model{} }, "test")
	storages := store.New(cli, func() *corev1alpha1.ModelStorage { return &corev1alpha1.ModelStorage{} }, "test")
	bindings := store.New(cli, func() *corev1alpha1.ModelStorageBinding { return &corev1alpha1.ModelStorageBinding{} }, "test")

	objectAdapter := newFakeAdapter()
	databaseAdapter := newFakeAdapter()
	disp := dispatcher.New(map[adapter.Kind]adapter.Adapter{
		adapter.KindObject:   objectAdapter,
		adapter.KindDatabase: databaseAdapter,
		adapter.KindNative:   newFakeAdapter(),
	})
	val := validator.New(models, storages)

	recon := NewBindingReconciler(cli, scheme, record.NewFakeRecorder(64), bindings, val, disp, 30*time.Second)

	return &harness{t: t, cli: cli, bindings: bindings, objects: objectAdapter, database: databaseAdapter, recon: recon}
}

func (h *harness) reconcile(namespace, name string) (ctrl.Result, error) {
	h.t.Helper()
	return h.recon.Reconcile(context.Background(), ctrl.Request{NamespacedName: types.NamespacedName{Namespace: namespace, Name: name}})
}

func (h *harness) getBinding(namespace, name string) *corev1alpha1.ModelStorageBinding {
	h.t.Helper()
	var b corev1alpha1.ModelStorageBinding
	if err := h.cli.Get(context.Background(), types.NamespacedName{Namespace: namespace, Name: name}, &b); err != nil {
		h.t.Fatalf("Get binding: %v", err)
	}
	return &b
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

func readyObjectStorage(name string) *corev1alpha1.ModelStorage {
	return &corev1alpha1.ModelStorage{
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: "ns"},
		Spec: corev1alpha1.ModelStorageSpec{
			Kind:   corev1alpha1.StorageKindObject,
			Object: &corev1alpha1.ObjectStorageConfig{Endpoint: "minio:9000"},
		},
		Status: corev1alpha1.ModelStorageStatus{State: corev1alpha1.StorageStateReady},
	}
}

func readyDatabaseStorage(name string) *corev1alpha1.ModelStorage {
	return &corev1alpha1.ModelStorage{
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: "ns"},
		Spec: corev1alpha1.ModelStorageSpec{
			Kind:     corev1alpha1.StorageKindDatabase,
			Database: &corev1alpha1.DatabaseStorageConfig{Driver: "postgres"},
		},
		Status: corev1alpha1.ModelStorageStatus{State: corev1alpha1.StorageStateReady},
	}
}

func bindingOwned(name, model, target string, policy corev1alpha1.DeletionPolicy) *corev1alpha1.ModelStorageBinding {
	return &corev1alpha1.ModelStorageBinding{
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: "ns"},
		Spec: corev1alpha1.ModelStorageBindingSpec{
			Model:          model,
			Storage:        corev1alpha1.StorageRef{Target: target},
			DeletionPolicy: policy,
		},
	}
}

// reconcileToReady drives a freshly-created binding through finalizer
// addition and validate/bind, the two reconciles every scenario needs
// before it can observe a Ready binding.
func (h *harness) reconcileToReady(namespace, name string) {
	h.t.Helper()
	if _, err := h.reconcile(namespace, name); err != nil {
		h.t.Fatalf("Reconcile (add finalizer): %v", err)
	}
	if _, err := h.reconcile(namespace, name); err != nil {
		h.t.Fatalf("Reconcile (validate+bind): %v", err)
	}
}

// Scenario 1: happy bind. A Ready model and Object storage bind cleanly;
// deleting the binding with DeletionPolicy=Delete unbinds it.
func TestHappyBindThenDelete(t *testing.T) {
	h := newHarness(t, readyModel("m1"), readyObjectStorage("s1"), bindingOwned("b1", "m1", "s1", corev1alpha1.DeletionPolicyDelete))
	h.reconcileToReady("ns", "b1")

	b := h.getBinding("ns", "b1")
	if b.Status.State != corev1alpha1.BindingStateReady {
		t.Fatalf("Status.State = %q, want Ready", b.Status.State)
	}
	if b.Status.StorageTargetName != "s1" {
		t.Fatalf("Status.StorageTargetName = %q, want s1", b.Status.StorageTargetName)
	}
	if h.objects.bindCalls["s1"] != 1 {
		t.Fatalf("bindCalls[s1] = %d, want 1", h.objects.bindCalls["s1"])
	}
	if h.objects.lastBindModel != "m1" {
		t.Fatalf("bind request carried model %q, want m1 (the backing artifact is named after the model)", h.objects.lastBindModel)
	}

	b.Finalizers = []string{FinalizerName}
	if err := h.cli.Update(context.Background(), b); err != nil {
		t.Fatalf("Update (set finalizer): %v", err)
	}
	if err := h.cli.Delete(context.Background(), b); err != nil {
		t.Fatalf("Delete (set deletionTimestamp): %v", err)
	}

	if _, err := h.reconcile("ns", "b1"); err != nil {
		t.Fatalf("Reconcile (mark deleting): %v", err)
	}
	if _, err := h.reconcile("ns", "b1"); err != nil {
		t.Fatalf("Reconcile (unbind+finalize): %v", err)
	}

	if h.objects.unbindCalls["s1"] != 1 {
		t.Fatalf("unbindCalls[s1] = %d, want 1", h.objects.unbindCalls["s1"])
	}
	if h.objects.lastUnbindModel != "m1" {
		t.Fatalf("unbind request carried model %q, want m1", h.objects.lastUnbindModel)
	}

	var got corev1alpha1.ModelStorageBinding
	err := h.cli.Get(context.Background(), types.NamespacedName{Namespace: "ns", Name: "b1"}, &got)
	if err == nil && len(got.Finalizers) != 0 {
		t.Fatal("expected finalizer removed after successful unbind")
	}
}

// Scenario 2: Retained on delete. The same binding with DeletionPolicy=Retain
// still reaches Deleting -> finalizer removed, but Unbind is invoked with
// DeletionPolicyRetain (asserted via the UnbindRequest the fake adapter
// records, not adapter state, since fakeAdapter doesn't model the backing
// artifact).
func TestRetainedOnDelete(t *testing.T) {
	h := newHarness(t, readyModel("m1"), readyObjectStorage("s1"), bindingOwned("b1", "m1", "s1", corev1alpha1.DeletionPolicyRetain))
	h.reconcileToReady("ns", "b1")

	b := h.getBinding("ns", "b1")
	b.Finalizers = []string{FinalizerName}
	if err := h.cli.Update(context.Background(), b); err != nil {
		t.Fatalf("Update (set finalizer): %v", err)
	}
	if err := h.cli.Delete(context.Background(), b); err != nil {
		t.Fatalf("Delete (set deletionTimestamp): %v", err)
	}

	if _, err := h.reconcile("ns", "b1"); err != nil {
		t.Fatalf("Reconcile (mark deleting): %v", err)
	}
	if _, err := h.reconcile("ns", "b1"); err != nil {
		t.Fatalf("Reconcile (unbind+finalize): %v", err)
	}

	if h.objects.unbindCalls["s1"] != 1 {
		t.Fatalf("unbindCalls[s1] = %d, want 1 (Retain still calls Unbind)", h.objects.unbindCalls["s1"])
	}
	if h.objects.lastUnbindPolicy != adapter.DeletionPolicyRetain {
		t.Fatalf("lastUnbindPolicy = %q, want %q", h.objects.lastUnbindPolicy, adapter.DeletionPolicyRetain)
	}

	var got corev1alpha1.ModelStorageBinding
	err := h.cli.Get(context.Background(), types.NamespacedName{Namespace: "ns", Name: "b1"}, &got)
	if err == nil && len(got.Finalizers) != 0 {
		t.Fatal("expected finalizer removed after best-effort unbind")
	}
}

// Scenario 3: forbidden cross-kind source. A Database source with an
// Object target must be rejected at the dispatcher boundary (Conflict),
// leaving the binding Pending with an error condition, and the adapter's
// Bind must never be invoked.
func TestForbiddenCrossKindSourceNeverInvokesAdapter(t *testing.T) {
	h := newHarness(t, readyModel("m1"), readyDatabaseStorage("d1"), readyObjectStorage("s1"))
	b := &corev1alpha1.ModelStorageBinding{
		ObjectMeta: metav1.ObjectMeta{Name: "b1", Namespace: "ns"},
		Spec: corev1alpha1.ModelStorageBindingSpec{
			Model:          "m1",
			Storage:        corev1alpha1.StorageRef{Source: "d1", Target: "s1"},
			DeletionPolicy: corev1alpha1.DeletionPolicyDelete,
		},
	}
	if err := h.cli.Create(context.Background(), b); err != nil {
		t.Fatalf("Create: %v", err)
	}

	h.reconcileToReady("ns", "b1")

	got := h.getBinding("ns", "b1")
	if got.Status.State == corev1alpha1.BindingStateReady {
		t.Fatal("binding must not reach Ready when source/target pairing is forbidden")
	}
	if h.objects.bindCalls["s1"] != 0 {
		t.Fatal("adapter Bind must never be invoked when pairing is rejected")
	}

	foundConflict := false
	for _, c := range got.Status.Conditions {
		if c.Type == ConditionTypeError && c.Reason == string(ferrors.Conflict) {
			foundConflict = true
		}
	}
	if !foundConflict {
		t.Fatalf("expected a Conflict error condition, got %#v", got.Status.Conditions)
	}
}

// Scenario 4: model mutation under a Ready binding sets a Fatal condition
// and leaves the binding Ready, without triggering unbind/bind.
func TestModelMutationUnderReadyBindingIsFatal(t *testing.T) {
	model := readyModel("m1")
	h := newHarness(t, model, readyObjectStorage("s1"), bindingOwned("b1", "m1", "s1", corev1alpha1.DeletionPolicyDelete))
	h.reconcileToReady("ns", "b1")

	var m corev1alpha1.Model
	if err := h.cli.Get(context.Background(), types.NamespacedName{Namespace: "ns", Name: "m1"}, &m); err != nil {
		t.Fatalf("Get model: %v", err)
	}
	m.Spec.Schema.Fields = append(m.Spec.Schema.Fields, corev1alpha1.ModelField{Name: "extra", Type: corev1alpha1.FieldTypeInt})
	if err := h.cli.Update(context.Background(), &m); err != nil {
		t.Fatalf("Update model: %v", err)
	}

	bindCallsBefore := h.objects.bindCalls["s1"]
	unbindCallsBefore := h.objects.unbindCalls["s1"]

	if _, err := h.reconcile("ns", "b1"); err != nil {
		t.Fatalf("Reconcile (should not error on Fatal): %v", err)
	}

	got := h.getBinding("ns", "b1")
	if got.Status.State != corev1alpha1.BindingStateReady {
		t.Fatalf("Status.State = %q, want Ready (Fatal leaves state unchanged)", got.Status.State)
	}
	if h.objects.bindCalls["s1"] != bindCallsBefore || h.objects.unbindCalls["s1"] != unbindCallsBefore {
		t.Fatal("a Fatal ModelImmutable error must not trigger unbind/bind")
	}

	foundFatal := false
	for _, c := range got.Status.Conditions {
		if c.Type == ConditionTypeError && c.Reason == "ModelImmutable" {
			foundFatal = true
		}
	}
	if !foundFatal {
		t.Fatalf("expected a ModelImmutable error condition, got %#v", got.Status.Conditions)
	}
}

// Idempotence law: reconciling an already-Ready binding twice more without
// any spec or external change must not re-invoke Bind and must leave status
// equal (ignoring LastUpdated).
func TestIdempotentReconcileDoesNotRebind(t *testing.T) {
	h := newHarness(t, readyModel("m1"), readyObjectStorage("s1"), bindingOwned("b1", "m1", "s1", corev1alpha1.DeletionPolicyDelete))
	h.reconcileToReady("ns", "b1")

	before := h.getBinding("ns", "b1")
	callsBefore := h.objects.bindCalls["s1"]

	if _, err := h.reconcile("ns", "b1"); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if _, err := h.reconcile("ns", "b1"); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	after := h.getBinding("ns", "b1")
	if h.objects.bindCalls["s1"] != callsBefore {
		t.Fatalf("bindCalls[s1] = %d, want unchanged at %d", h.objects.bindCalls["s1"], callsBefore)
	}
	if before.Status.State != after.Status.State || before.Status.StorageTargetName != after.Status.StorageTargetName {
		t.Fatal("repeated reconciles of an unchanged Ready binding must yield equal status")
	}
}

// Crash-mid-unbind safety: a Deleting binding whose unbind already
// succeeded once (finalizer still present, simulating a controller
// restart between the unbind call and the finalizer removal) must
// converge cleanly on a second reconcile without erroring or re-invoking
// Bind, since Unbind and RemoveFinalizer are both idempotent.
func TestCrashMidUnbindRecoversOnRestart(t *testing.T) {
	h := newHarness(t, readyModel("m1"), readyObjectStorage("s1"), bindingOwned("b1", "m1", "s1", corev1alpha1.DeletionPolicyRetain))
	h.reconcileToReady("ns", "b1")

	b := h.getBinding("ns", "b1")
	b.Finalizers = []string{FinalizerName}
	if err := h.cli.Update(context.Background(), b); err != nil {
		t.Fatalf("Update (set finalizer): %v", err)
	}
	if err := h.cli.Delete(context.Background(), b); err != nil {
		t.Fatalf("Delete (set deletionTimestamp): %v", err)
	}
	if _, err := h.reconcile("ns", "b1"); err != nil {
		t.Fatalf("Reconcile (mark deleting): %v", err)
	}
	// The Deleting binding with its finalizer still present: what a restarted
	// controller finds if the first finalizer removal never reached the API
	// server.
	preRestart := h.getBinding("ns", "b1")

	// First deletingHandler pass: unbind succeeds, finalizer removed.
	if _, err := h.reconcile("ns", "b1"); err != nil {
		t.Fatalf("Reconcile (first unbind pass): %v", err)
	}
	if h.objects.unbindCalls["s1"] != 1 {
		t.Fatalf("unbindCalls[s1] = %d, want 1", h.objects.unbindCalls["s1"])
	}

	// Simulate a restart: the first pass really deleted the object, so a
	// fresh reconciler and fake client start from the pre-restart snapshot
	// (finalizer still present) and reconcile once more. The unbind counts
	// are shared so both passes are counted.
	restarted := newHarness(t, readyModel("m1"), readyObjectStorage("s1"), preRestart)
	restarted.objects.unbindCalls = h.objects.unbindCalls

	if _, err := restarted.reconcile("ns", "b1"); err != nil {
		t.Fatalf("Reconcile (post-restart retry): %v", err)
	}
	if restarted.objects.bindCalls["s1"] != 0 {
		t.Fatalf("bindCalls[s1] = %d after restart, want 0", restarted.objects.bindCalls["s1"])
	}

	// Unbind was invoked again (idempotent on the backend side) but the
	// finalizer converges to removed either way.
	if h.objects.unbindCalls["s1"] != 2 {
		t.Fatalf("unbindCalls[s1] = %d, want 2 (idempotent re-invocation after restart)", h.objects.unbindCalls["s1"])
	}
	var got corev1alpha1.ModelStorageBinding
	err := restarted.cli.Get(context.Background(), types.NamespacedName{Namespace: "ns", Name: "b1"}, &got)
	if err == nil && len(got.Finalizers) != 0 {
		t.Fatal("expected finalizer removed after the post-restart retry")
	}
}

// Rebind: updating a Ready binding's target triggers unbind-old then
// bind-new, and the new target's storage is recorded in status.
func TestUpdateTargetTriggersUnbindOldBindNew(t *testing.T) {
	h := newHarness(t, readyModel("m1"), readyObjectStorage("s1"), readyObjectStorage("s2"),
		bindingOwned("b1", "m1", "s1", corev1alpha1.DeletionPolicyDelete))
	h.reconcileToReady("ns", "b1")

	b := h.getBinding("ns", "b1")
	b.Spec.Storage.Target = "s2"
	if err := h.cli.Update(context.Background(), b); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if _, err := h.reconcile("ns", "b1"); err != nil {
		t.Fatalf("Reconcile (rebind): %v", err)
	}

	if h.objects.unbindCalls["s1"] != 1 {
		t.Fatalf("unbindCalls[s1] = %d, want 1", h.objects.unbindCalls["s1"])
	}
	if h.objects.bindCalls["s2"] != 1 {
		t.Fatalf("bindCalls[s2] = %d, want 1", h.objects.bindCalls["s2"])
	}

	got := h.getBinding("ns", "b1")
	if got.Status.StorageTargetName != "s2" {
		t.Fatalf("Status.StorageTargetName = %q, want s2", got.Status.StorageTargetName)
	}
}

// Cloned binding: an Object source replicating into an Object target
// records both the source storage and the sibling binding that owns it.
func TestClonedBindingRecordsSourceBindingName(t *testing.T) {
	owner := bindingOwned("b0", "m1", "s1", corev1alpha1.DeletionPolicyRetain)
	cloned := &corev1alpha1.ModelStorageBinding{
		ObjectMeta: metav1.ObjectMeta{Name: "b1", Namespace: "ns"},
		Spec: corev1alpha1.ModelStorageBindingSpec{
			Model:          "m1",
			Storage:        corev1alpha1.StorageRef{Source: "s1", Target: "s2"},
			DeletionPolicy: corev1alpha1.DeletionPolicyDelete,
			SyncPolicy:     &corev1alpha1.SyncPolicy{Enabled: true},
		},
	}
	h := newHarness(t, readyModel("m1"), readyObjectStorage("s1"), readyObjectStorage("s2"), owner, cloned)
	h.reconcileToReady("ns", "b1")

	got := h.getBinding("ns", "b1")
	if got.Status.State != corev1alpha1.BindingStateReady {
		t.Fatalf("Status.State = %q, want Ready", got.Status.State)
	}
	if got.Status.StorageSourceName != "s1" || got.Status.StorageSourceBindingName != "b0" {
		t.Fatalf("source snapshot = (%q, %q), want (s1, b0)", got.Status.StorageSourceName, got.Status.StorageSourceBindingName)
	}
}
