// Package dispatcher routes a binding operation to the adapter matching the
// resolved target storage's kind and enforces source/target-kind pairing
// before any adapter is touched.
package dispatcher

import (
	"context"

	"github.com/modelfabric/operator/internal/adapter"
	"github.com/modelfabric/operator/internal/ferrors"
	"github.com/modelfabric/operator/internal/pkg/metrics"
	corev1alpha1 "github.com/modelfabric/operator/pkg/apis/core/v1alpha1"
)

// Dispatcher holds one adapter per backend kind and enforces cross-kind
// pairing rules at the boundary, before any adapter is selected.
type Dispatcher struct {
	adapters map[adapter.Kind]adapter.Adapter
}

// New builds a Dispatcher from a complete set of adapters, one per Kind.
func New(adapters map[adapter.Kind]adapter.Adapter) *Dispatcher {
	return &Dispatcher{adapters: adapters}
}

// checkPairing enforces the target-kind → allowed-source-kind table:
// Database and Native storages accept no replication source at all; Object
// storages only accept an Object source.
func checkPairing(target, source *adapter.Kind) error {
	if source == nil {
		return nil
	}
	switch *target {
	case adapter.KindDatabase, adapter.KindNative:
		return ferrors.New(ferrors.Conflict, "%s target storages do not accept a replication source", *target)
	case adapter.KindObject:
		if *source != adapter.KindObject {
			return ferrors.New(ferrors.Conflict, "Object target storages only accept an Object replication source, got %s", *source)
		}
		return nil
	default:
		return ferrors.New(ferrors.Conflict, "unknown target storage kind %q", *target)
	}
}

func (d *Dispatcher) adapterFor(kind adapter.Kind) (adapter.Adapter, error) {
	a, ok := d.adapters[kind]
	if !ok {
		return nil, ferrors.New(ferrors.Permanent, "no adapter registered for storage kind %q", kind)
	}
	return a, nil
}

// Bind dispatches a bind operation to the target's adapter, after verifying
// the source/target kind pairing is legal.
func (d *Dispatcher) Bind(ctx context.Context, req adapter.BindRequest) error {
	targetKind := adapter.FromStorageKind(req.Target.Kind)
	var sourceKind *adapter.Kind
	if req.Source != nil {
		k := adapter.FromStorageKind(req.Source.Kind)
		sourceKind = &k
	}
	if err := checkPairing(&targetKind, sourceKind); err != nil {
		metrics.DispatchTotal.WithLabelValues(string(targetKind), "bind", string(ferrors.Conflict)).Inc()
		return err.(*ferrors.Error).WithTarget(req.StorageName)
	}

	a, err := d.adapterFor(targetKind)
	if err != nil {
		metrics.DispatchTotal.WithLabelValues(string(targetKind), "bind", string(ferrors.Permanent)).Inc()
		return err
	}
	if err := a.Bind(ctx, req); err != nil {
		wrapped := wrapTarget(err, targetKind, req.StorageName)
		metrics.DispatchTotal.WithLabelValues(string(targetKind), "bind", string(ferrors.KindOf(wrapped))).Inc()
		return wrapped
	}
	metrics.DispatchTotal.WithLabelValues(string(targetKind), "bind", "ok").Inc()
	return nil
}

// Unbind dispatches an unbind operation to the target's adapter. Each
// unbind is a single-backend operation; there is no distributed rollback
// spanning two adapters.
func (d *Dispatcher) Unbind(ctx context.Context, req adapter.UnbindRequest) error {
	targetKind := adapter.FromStorageKind(req.Target.Kind)
	a, err := d.adapterFor(targetKind)
	if err != nil {
		metrics.DispatchTotal.WithLabelValues(string(targetKind), "unbind", string(ferrors.Permanent)).Inc()
		return err
	}
	if err := a.Unbind(ctx, req); err != nil {
		wrapped := wrapTarget(err, targetKind, req.StorageName)
		metrics.DispatchTotal.WithLabelValues(string(targetKind), "unbind", string(ferrors.KindOf(wrapped))).Inc()
		return wrapped
	}
	metrics.DispatchTotal.WithLabelValues(string(targetKind), "unbind", "ok").Inc()
	return nil
}

// Get dispatches a get operation to storage's adapter. name addresses the
// backing artifact — the bound model's name for Database and Object kinds.
func (d *Dispatcher) Get(ctx context.Context, name string, storage corev1alpha1.ModelStorageSpec, key adapter.Key) (adapter.Record, error) {
	a, err := d.adapterFor(adapter.FromStorageKind(storage.Kind))
	if err != nil {
		return adapter.Record{}, err
	}
	return a.Get(ctx, name, storage, key)
}

// List dispatches a list operation to storage's adapter.
func (d *Dispatcher) List(ctx context.Context, name string, storage corev1alpha1.ModelStorageSpec) ([]adapter.Record, error) {
	a, err := d.adapterFor(adapter.FromStorageKind(storage.Kind))
	if err != nil {
		return nil, err
	}
	return a.List(ctx, name, storage)
}

// Capacity dispatches a capacity probe to storage's adapter.
func (d *Dispatcher) Capacity(ctx context.Context, storageName string, storage corev1alpha1.ModelStorageSpec) (adapter.Capacity, error) {
	a, err := d.adapterFor(adapter.FromStorageKind(storage.Kind))
	if err != nil {
		return adapter.Capacity{}, err
	}
	return a.Capacity(ctx, storageName, storage)
}

// wrapTarget stamps an adapter error with the target storage name for
// diagnostics, as the error-handling design requires, without discarding
// the adapter's own classification.
func wrapTarget(err error, kind adapter.Kind, storageName string) error {
	if fe, ok := err.(*ferrors.Error); ok {
		if fe.Target == "" {
			return fe.WithTarget(storageName)
		}
		return fe
	}
	return ferrors.Wrap(ferrors.Permanent, err, "%s adapter operation failed", kind).WithTarget(storageName)
}
