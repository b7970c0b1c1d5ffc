// Package optimizer implements the placement optimizer: given a model, a
// placement policy, and an optional storage-kind filter, it selects a
// target storage from live telemetry and on-demand capacity probes, then
// materializes an Owned ModelStorageBinding through the resource store.
// The optimizer is stateless across calls; determinism is purely a
// function of the telemetry snapshot it reads.
package optimizer

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"k8s.io/apimachinery/pkg/types"

	"github.com/modelfabric/operator/internal/ferrors"
	"github.com/modelfabric/operator/internal/pkg/metrics"
	"github.com/modelfabric/operator/internal/prober"
	"github.com/modelfabric/operator/internal/store"
	"github.com/modelfabric/operator/internal/telemetry"
	"github.com/modelfabric/operator/pkg/log"

	corev1alpha1 "github.com/modelfabric/operator/pkg/apis/core/v1alpha1"
)

// Policy is the ranking strategy the optimizer applies to surviving
// candidates.
type Policy string

const (
	PolicyBalanced      Policy = "Balanced"
	PolicyLowestCopy    Policy = "LowestCopy"
	PolicyLowestLatency Policy = "LowestLatency"
)

// Request parameterizes OptimizeModelStorageBinding.
type Request struct {
	Namespace      string
	ModelName      string
	StorageKind    *corev1alpha1.StorageKind
	ResourceBytes  int64
	DeletionPolicy corev1alpha1.DeletionPolicy
	Policy         Policy
	// BindingName, if set, pins the generated ModelStorageBinding's name
	// instead of deriving one from the model name and a random suffix.
	BindingName string
}

// Optimizer answers placement queries by combining live telemetry with
// on-demand capacity probes and, on a winner, creating a binding via the
// resource store. It never mutates storages directly.
type Optimizer struct {
	graphs   *telemetry.Registry
	prober   *prober.Prober
	storages *store.Store[*corev1alpha1.ModelStorage]
	bindings *store.Store[*corev1alpha1.ModelStorageBinding]
	models   *store.Store[*corev1alpha1.Model]

	// probeConcurrency bounds how many candidates are probed in parallel
	// (PROBE_CONCURRENCY, default 8).
	probeConcurrency int

	logger log.Logger
}

// New builds an Optimizer.
func New(
	graphs *telemetry.Registry,
	pr *prober.Prober,
	storages *store.Store[*corev1alpha1.ModelStorage],
	bindings *store.Store[*corev1alpha1.ModelStorageBinding],
	models *store.Store[*corev1alpha1.Model],
	probeConcurrency int,
	logger log.Logger,
) *Optimizer {
	if probeConcurrency <= 0 {
		probeConcurrency = 8
	}
	return &Optimizer{
		graphs: graphs, prober: pr, storages: storages, bindings: bindings, models: models,
		probeConcurrency: probeConcurrency, logger: logger,
	}
}

// candidate is one storage under consideration, enriched with its capacity
// probe result.
type candidate struct {
	name          string
	spec          corev1alpha1.ModelStorageSpec
	capacity      prober.Capacity
	capacityKnown bool
}

// OptimizeStorage ranks every Ready storage in namespace for model `name`
// with no kind filter and no resource request, returning the winner's name
// without creating anything. It is the read-only sibling of
// OptimizeModelStorageBinding, useful for a caller that wants to preview a
// placement decision before committing to a binding.
func (o *Optimizer) OptimizeStorage(ctx context.Context, namespace, modelName string, policy Policy) (string, bool, error) {
	candidates, err := o.enumerate(ctx, namespace, nil)
	if err != nil {
		return "", false, err
	}
	candidates = o.probeAll(ctx, candidates)
	candidates = filterByResource(candidates, 0)
	winner, ok := rank(o.graphs.Graph(namespace), candidates, policy)
	metrics.OptimizerDecisionsTotal.WithLabelValues(string(policy), strconv.FormatBool(ok)).Inc()
	if !ok {
		return "", false, nil
	}
	return winner.name, true, nil
}

// OptimizeModelStorageBinding runs the full placement pipeline: enumerate,
// probe, filter by resource request, rank by policy, and on a winner,
// materialize an Owned ModelStorageBinding via the resource store.
func (o *Optimizer) OptimizeModelStorageBinding(ctx context.Context, req Request) (string, bool, error) {
	model, err := o.models.Get(ctx, types.NamespacedName{Namespace: req.Namespace, Name: req.ModelName})
	if err != nil {
		return "", false, err
	}
	if model.Status.State != corev1alpha1.ModelStateReady {
		return "", false, ferrors.New(ferrors.NotReady, "model %q is not Ready", req.ModelName)
	}

	candidates, err := o.enumerate(ctx, req.Namespace, req.StorageKind)
	if err != nil {
		return "", false, err
	}
	candidates = o.probeAll(ctx, candidates)
	candidates = filterByResource(candidates, req.ResourceBytes)

	winner, ok := rank(o.graphs.Graph(req.Namespace), candidates, req.Policy)
	metrics.OptimizerDecisionsTotal.WithLabelValues(string(req.Policy), strconv.FormatBool(ok)).Inc()
	if !ok {
		return "", false, nil
	}

	deletionPolicy := req.DeletionPolicy
	if deletionPolicy == "" {
		deletionPolicy = corev1alpha1.DeletionPolicyDelete
	}
	name := req.BindingName
	if name == "" {
		name = fmt.Sprintf("%s-%s", req.ModelName, uuid.NewString()[:8])
	}

	binding := &corev1alpha1.ModelStorageBinding{}
	binding.Namespace = req.Namespace
	binding.Name = name
	binding.Spec = corev1alpha1.ModelStorageBindingSpec{
		Model:          req.ModelName,
		Storage:        corev1alpha1.StorageRef{Target: winner.name},
		DeletionPolicy: deletionPolicy,
	}
	if err := o.bindings.Create(ctx, binding); err != nil {
		return "", false, err
	}

	o.logger.Info("optimizer selected storage",
		"model", req.ModelName, "storage", winner.name, "policy", req.Policy,
		"available", humanize.Bytes(uint64(winner.capacity.AvailableBytes)))

	return name, true, nil
}

// enumerate lists every Ready ModelStorage in namespace matching
// kindFilter (nil matches every kind); storages in any other state are
// skipped.
func (o *Optimizer) enumerate(ctx context.Context, namespace string, kindFilter *corev1alpha1.StorageKind) ([]candidate, error) {
	var list corev1alpha1.ModelStorageList
	if err := o.storages.List(ctx, namespace, &list); err != nil {
		return nil, err
	}
	out := make([]candidate, 0, len(list.Items))
	for _, s := range list.Items {
		if s.Status.State != corev1alpha1.StorageStateReady {
			continue
		}
		if kindFilter != nil && s.Spec.Kind != *kindFilter {
			continue
		}
		out = append(out, candidate{name: s.Name, spec: s.Spec})
	}
	return out, nil
}

// probeAll fetches a capacity probe for each candidate, in parallel up to
// probeConcurrency.
func (o *Optimizer) probeAll(ctx context.Context, candidates []candidate) []candidate {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.probeConcurrency)

	out := make([]candidate, len(candidates))
	copy(out, candidates)

	for i := range out {
		i := i
		g.Go(func() error {
			c, ok := o.prober.Probe(gctx, out[i].name, out[i].spec)
			out[i].capacity = c
			out[i].capacityKnown = ok
			return nil
		})
	}
	_ = g.Wait()

	return out
}

// filterByResource drops any candidate whose available bytes fall below
// request. request == 0 means every candidate is eligible regardless of
// whether its capacity is known; a nonzero request drops a candidate with
// unknown capacity outright.
func filterByResource(candidates []candidate, request int64) []candidate {
	if request <= 0 {
		return candidates
	}
	out := candidates[:0]
	for _, c := range candidates {
		if !c.capacityKnown {
			continue
		}
		if c.capacity.AvailableBytes < request {
			continue
		}
		out = append(out, c)
	}
	return out
}

// rank applies the policy's ordering and returns the winner. graph
// supplies the traffic/latency telemetry LowestLatency and Balanced need;
// it is read once per candidate, never mutated.
func rank(graph *telemetry.Graph, candidates []candidate, policy Policy) (candidate, bool) {
	if len(candidates) == 0 {
		return candidate{}, false
	}

	switch policy {
	case PolicyBalanced:
		return rankBalanced(graph, candidates), true
	case PolicyLowestLatency:
		return rankLowestLatency(graph, candidates), true
	default: // PolicyLowestCopy is the default.
		return rankLowestCopy(candidates), true
	}
}

// usedFraction returns a candidate's used/(used+available) ratio, treating
// unknown capacity as the worst possible (fraction 1, i.e. "full") so it
// never wins a tie against a known candidate.
func usedFraction(c candidate) float64 {
	if !c.capacityKnown {
		return 1
	}
	total := c.capacity.AvailableBytes + c.capacity.UsedBytes
	if total <= 0 {
		return 1
	}
	return float64(c.capacity.UsedBytes) / float64(total)
}

func availableOf(c candidate) int64 {
	if !c.capacityKnown {
		return 0
	}
	return c.capacity.AvailableBytes
}

// betterByLowestCopy reports whether a ranks ahead of b under the
// LowestCopy policy: maximize available bytes, tie-break on lower used
// fraction.
func betterByLowestCopy(a, b candidate) bool {
	if availableOf(a) != availableOf(b) {
		return availableOf(a) > availableOf(b)
	}
	return usedFraction(a) < usedFraction(b)
}

// rankLowestCopy maximizes available bytes, tie-breaking on lower used
// fraction.
func rankLowestCopy(candidates []candidate) candidate {
	best := candidates[0]
	for _, c := range candidates[1:] {
		if betterByLowestCopy(c, best) {
			best = c
		}
	}
	return best
}

// rankBalanced minimizes a weighted sum of used fraction and normalized
// observed traffic, 50/50, deterministic under a fixed telemetry snapshot.
func rankBalanced(graph *telemetry.Graph, candidates []candidate) candidate {
	maxThroughput := graph.MaxThroughput()

	score := func(c candidate) float64 {
		traffic := graph.Traffic(c.name)
		normalized := 0.0
		if maxThroughput > 0 {
			normalized = traffic / maxThroughput
		}
		return 0.5*usedFraction(c) + 0.5*normalized
	}

	best := candidates[0]
	bestScore := score(best)
	for _, c := range candidates[1:] {
		s := score(c)
		if s < bestScore {
			best, bestScore = c, s
		}
	}
	return best
}

// rankLowestLatency ranks by observed edge latency from the namespace's
// hottest source node (the node with the highest summed incident
// throughput), tie-breaking on LowestCopy. An edge absent from the graph
// is treated as +Inf, i.e. ranked last.
func rankLowestLatency(graph *telemetry.Graph, candidates []candidate) candidate {
	hottest, ok := graph.HottestNode()
	if !ok {
		return rankLowestCopy(candidates)
	}

	latencyOf := func(c candidate) float64 {
		ms, ok := graph.EdgeLatency(hottest, c.name)
		if !ok {
			return math.Inf(1)
		}
		return ms
	}

	best := candidates[0]
	bestLatency := latencyOf(best)
	for _, c := range candidates[1:] {
		l := latencyOf(c)
		switch {
		case l < bestLatency:
			best, bestLatency = c, l
		case l == bestLatency && betterByLowestCopy(c, best):
			best, bestLatency = c, l
		}
	}
	return best
}
