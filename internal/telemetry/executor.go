package telemetry

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/modelfabric/operator/pkg/log"
)

// Prober is the narrow seam the executor needs from the capacity prober;
// internal/prober.Prober satisfies it without telemetry importing prober
// directly, keeping the two packages independently testable.
type Prober interface {
	ProbeByName(ctx context.Context, namespace, name string) (available, used int64, ok bool)
}

// Executor drains DiscoverPlans pushed by Graph.EnsureNode on a buffered
// channel, resolving each via Prober and writing the result back into the
// originating namespace's graph.
type Executor struct {
	registry *Registry
	prober   Prober
	plans    chan DiscoverPlan
	workers  int
	logger   log.Logger

	// sf collapses duplicate in-flight probes for the same storage, e.g. a
	// Replace racing an Observe for one name.
	sf singleflight.Group
}

// NewExecutor builds an Executor with the given worker concurrency
// (TELEMETRY_DISCOVER_WORKERS, defaulting to 4) and a buffered plan queue.
func NewExecutor(registry *Registry, prober Prober, workers int, logger log.Logger) *Executor {
	if workers <= 0 {
		workers = 4
	}
	return &Executor{
		registry: registry,
		prober:   prober,
		plans:    make(chan DiscoverPlan, 256),
		workers:  workers,
		logger:   logger,
	}
}

// Schedule enqueues plan for resolution, dropping it if the queue is full
// rather than blocking the caller (the intake's write path must never
// stall on a slow or saturated executor).
func (e *Executor) Schedule(plan *DiscoverPlan) {
	if plan == nil {
		return
	}
	select {
	case e.plans <- *plan:
	default:
		e.logger.Warn("telemetry discover queue full, dropping plan", "namespace", plan.Namespace, "name", plan.Name)
	}
}

// Run drains the plan queue with a bounded worker pool until ctx is
// cancelled. It is meant to run for the lifetime of the controller manager
// process, started once from the composition root.
func (e *Executor) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for {
		select {
		case <-ctx.Done():
			return g.Wait()
		case plan := <-e.plans:
			g.Go(func() error {
				e.resolve(gctx, plan)
				return nil
			})
		}
	}
}

func (e *Executor) resolve(ctx context.Context, plan DiscoverPlan) {
	key := plan.Namespace + "/" + plan.Name
	_, _, _ = e.sf.Do(key, func() (any, error) {
		available, used, ok := e.prober.ProbeByName(ctx, plan.Namespace, plan.Name)
		if !ok {
			e.logger.Debug("discover probe returned no capacity", "namespace", plan.Namespace, "name", plan.Name)
			return nil, nil
		}
		e.registry.Graph(plan.Namespace).ApplyProbe(ProbeResult{
			Namespace: plan.Namespace,
			Name:      plan.Name,
			Available: available,
			Used:      used,
			At:        time.Now(),
		})
		return nil, nil
	})
}
