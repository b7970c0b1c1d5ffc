// Package prober implements the capacity prober: an on-demand,
// bounded-timeout query of free/used bytes from a backend, for the
// optimizer and the telemetry graph's background discovery. It never
// caches results — caching lives in internal/telemetry.
package prober

import (
	"context"
	"strconv"
	"time"

	"github.com/modelfabric/operator/internal/dispatcher"
	"github.com/modelfabric/operator/internal/pkg/metrics"
	"github.com/modelfabric/operator/internal/store"
	corev1alpha1 "github.com/modelfabric/operator/pkg/apis/core/v1alpha1"
	"k8s.io/apimachinery/pkg/types"
)

// Capacity mirrors adapter.Capacity at the prober's boundary so callers
// outside internal/adapter (the optimizer, the telemetry executor) don't
// need to import it just to read a probe result.
type Capacity struct {
	AvailableBytes int64
	UsedBytes      int64
}

// Prober queries a storage's capacity through the dispatcher, converting
// both adapter errors and timeouts into a (Capacity{}, false) "unknown"
// result rather than propagating an error.
type Prober struct {
	dispatcher *dispatcher.Dispatcher
	storages   *store.Store[*corev1alpha1.ModelStorage]
	timeout    time.Duration
}

// New builds a Prober with the given per-probe deadline (PROBE_TIMEOUT_MS,
// default 5s).
func New(d *dispatcher.Dispatcher, storages *store.Store[*corev1alpha1.ModelStorage], timeout time.Duration) *Prober {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Prober{dispatcher: d, storages: storages, timeout: timeout}
}

// Probe queries storage's capacity, bounded by the prober's timeout. A
// context deadline (or any adapter error) is reported as ok=false rather
// than an error: an unreachable backend and one that cannot report
// capacity look the same to callers.
func (p *Prober) Probe(ctx context.Context, name string, storage corev1alpha1.ModelStorageSpec) (Capacity, bool) {
	cctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	c, err := p.dispatcher.Capacity(cctx, name, storage)
	ok := err == nil && c.Ok
	metrics.ProbeDuration.WithLabelValues(strconv.FormatBool(ok)).Observe(time.Since(start).Seconds())
	if !ok {
		return Capacity{}, false
	}
	return Capacity{AvailableBytes: c.AvailableBytes, UsedBytes: c.UsedBytes}, true
}

// ProbeByName resolves the ModelStorage record for name within namespace
// and probes it, satisfying the narrow telemetry.Prober interface the
// background discovery executor depends on.
func (p *Prober) ProbeByName(ctx context.Context, namespace, name string) (available, used int64, ok bool) {
	storage, err := p.storages.Get(ctx, types.NamespacedName{Namespace: namespace, Name: name})
	if err != nil {
		return 0, 0, false
	}
	c, ok := p.Probe(ctx, name, storage.Spec)
	if !ok {
		return 0, 0, false
	}
	return c.AvailableBytes, c.UsedBytes, true
}
