// Package telemetry maintains the in-memory, per-namespace graph of
// observed storage capacity/usage and inter-storage transfer metrics that
// feeds the placement optimizer. Namespace graphs are reified as
// first-class values behind a Registry, never as a process-wide singleton;
// locking is per-namespace.
package telemetry

import (
	"sync"
	"time"

	"github.com/modelfabric/operator/internal/pkg/metrics"
)

// alpha is the EWMA smoothing constant applied to node and edge metric
// fields.
const alpha = 0.3

// Node carries the observed telemetry for one storage within a namespace.
type Node struct {
	Name          string
	AvailableBytes int64
	UsedBytes      int64
	// NodeMetric is a generic observed-load scalar (e.g. request rate),
	// merged by EWMA the same way edge metrics are.
	NodeMetric float64
	Discovered bool

	lastProbeAt time.Time
}

// edgeKey addresses a directed edge by the two endpoint indices.
type edgeKey struct {
	from, to int
}

// Edge carries the observed inter-storage transfer metrics for one
// directed pair of storages.
type Edge struct {
	LatencyMS     float64
	ThroughputBPS float64
}

// NodeSample is one incoming node-metric observation, carrying
// `{elapsed_ns, len, total_bytes}`.
type NodeSample struct {
	Namespace string
	Name      string
	ElapsedNS int64
	Len       int64
	TotalBytes int64
	At        time.Time
}

// EdgeSample is one incoming edge-metric observation, carrying
// `{latency_ms, throughput_bps}`.
type EdgeSample struct {
	Namespace     string
	From          string
	To            string
	LatencyMS     float64
	ThroughputBPS float64
	At            time.Time
}

// ProbeResult is a successful out-of-band capacity probe that the intake
// applies as a last-write-wins update to a node, gated by lastProbeAt so
// stale samples can never clobber a fresher probe.
type ProbeResult struct {
	Namespace string
	Name      string
	Available int64
	Used      int64
	At        time.Time
}

// DiscoverPlan is emitted whenever a namespace graph sees a storage name it
// has never indexed before; the background executor (executor.go) turns
// this into an actual capacity probe and a discovered=true write-back.
type DiscoverPlan struct {
	Namespace string
	Name      string
}

// Graph is one namespace's telemetry state: a stable-indexed node list plus
// a sparse edge map, protected by a single-writer/many-reader lock.
type Graph struct {
	mu    sync.RWMutex
	nodes []*Node
	index map[string]int
	edges map[edgeKey]*Edge
}

func newGraph() *Graph {
	return &Graph{
		index: make(map[string]int),
		edges: make(map[edgeKey]*Edge),
	}
}

// ensureIndex returns the stable index for name, assigning the next index
// and scheduling a Discover plan if name has never been seen before. Must
// be called with mu held for writing.
func (g *Graph) ensureIndex(namespace, name string) (idx int, plan *DiscoverPlan) {
	if i, ok := g.index[name]; ok {
		return i, nil
	}
	i := len(g.nodes)
	g.nodes = append(g.nodes, &Node{Name: name})
	g.index[name] = i
	return i, &DiscoverPlan{Namespace: namespace, Name: name}
}

// Replace evicts a storage's edges and resets its node state, for the case
// where the same name now refers to a different underlying storage
// identity.
func (g *Graph) Replace(namespace, name string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	i, ok := g.index[name]
	if !ok {
		return
	}
	for key := range g.edges {
		if key.from == i || key.to == i {
			delete(g.edges, key)
		}
	}
	g.nodes[i] = &Node{Name: name}
}

// MergeNodeSample applies a node sample, gated by lastProbeAt so samples
// older than the most recent successful probe are ignored. Samples for
// unknown storages are dropped silently.
func (g *Graph) MergeNodeSample(s NodeSample) *DiscoverPlan {
	g.mu.Lock()
	defer g.mu.Unlock()

	i, ok := g.index[s.Name]
	if !ok {
		// Unknown storages are dropped silently by the *sample* path;
		// discovery only happens via Observe/EnsureNode, which intake
		// calls whenever a ModelStorage record is seen, independent of
		// whether samples have arrived for it yet.
		return nil
	}
	n := g.nodes[i]
	if !s.At.IsZero() && !n.lastProbeAt.IsZero() && s.At.Before(n.lastProbeAt) {
		return nil
	}
	if s.ElapsedNS > 0 {
		rate := float64(s.TotalBytes) / (float64(s.ElapsedNS) / 1e9)
		n.NodeMetric = ewma(n.NodeMetric, rate)
	}
	metrics.TelemetryMergesTotal.WithLabelValues("node").Inc()
	return nil
}

// MergeEdgeSample applies an edge sample between two known storages,
// EWMA-smoothing both latency and throughput. Either endpoint being
// unknown silently drops the sample.
func (g *Graph) MergeEdgeSample(s EdgeSample) {
	g.mu.Lock()
	defer g.mu.Unlock()

	from, ok := g.index[s.From]
	if !ok {
		return
	}
	to, ok := g.index[s.To]
	if !ok {
		return
	}
	key := edgeKey{from: from, to: to}
	e, ok := g.edges[key]
	if !ok {
		e = &Edge{}
		g.edges[key] = e
	}
	if s.LatencyMS > 0 {
		e.LatencyMS = ewma(e.LatencyMS, s.LatencyMS)
	}
	if s.ThroughputBPS > 0 {
		e.ThroughputBPS = ewma(e.ThroughputBPS, s.ThroughputBPS)
	}
	metrics.TelemetryMergesTotal.WithLabelValues("edge").Inc()
}

// EnsureNode registers name as known (assigning a stable index if it
// isn't already), returning a DiscoverPlan the one time the name is new.
// The reconcilers call this whenever they observe a ModelStorage, so the
// graph learns about storages before any telemetry sample for them
// arrives.
func (g *Graph) EnsureNode(namespace, name string) *DiscoverPlan {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, plan := g.ensureIndex(namespace, name)
	return plan
}

// ApplyProbe writes a last-write-wins capacity/usage update for name,
// marking it discovered. Called by the background executor once a
// Discover plan resolves, and by anything else that wants the graph to
// reflect the latest known capacity.
func (g *Graph) ApplyProbe(p ProbeResult) {
	g.mu.Lock()
	defer g.mu.Unlock()

	i, ok := g.index[p.Name]
	if !ok {
		i, _ = g.ensureIndex(p.Namespace, p.Name)
	}
	n := g.nodes[i]
	if !p.At.IsZero() && !n.lastProbeAt.IsZero() && p.At.Before(n.lastProbeAt) {
		return
	}
	n.AvailableBytes = p.Available
	n.UsedBytes = p.Used
	n.Discovered = true
	if !p.At.IsZero() {
		n.lastProbeAt = p.At
	}
}

// Snapshot is a read-only copy of one node's state plus its outgoing edges,
// keyed by neighbor name, returned to callers (the optimizer) so they never
// hold the graph's lock across their own ranking logic.
type Snapshot struct {
	Node  Node
	Edges map[string]Edge
}

// Snapshot returns a read-only copy of name's node state and outgoing
// edges. ok is false when name is unknown.
func (g *Graph) Snapshot(name string) (Snapshot, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	i, ok := g.index[name]
	if !ok {
		return Snapshot{}, false
	}
	out := Snapshot{Node: *g.nodes[i], Edges: make(map[string]Edge)}
	for key, e := range g.edges {
		if key.from != i {
			continue
		}
		for n, j := range g.index {
			if j == key.to {
				out.Edges[n] = *e
				break
			}
		}
	}
	return out, true
}

// HottestNode returns the name of the node with the highest summed
// incident (in+out) throughput, used by the LowestLatency policy's
// "namespace-local hottest source" reference point. ok is false for an
// empty graph.
func (g *Graph) HottestNode() (name string, ok bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if len(g.nodes) == 0 {
		return "", false
	}
	totals := make([]float64, len(g.nodes))
	for key, e := range g.edges {
		totals[key.from] += e.ThroughputBPS
		totals[key.to] += e.ThroughputBPS
	}
	best := 0
	for i := 1; i < len(totals); i++ {
		if totals[i] > totals[best] {
			best = i
		}
	}
	return g.nodes[best].Name, true
}

// EdgeLatency returns the observed latency from `from` to `to`, or
// (0, false) when no edge has ever been observed between them; the
// LowestLatency policy turns ok=false into +Inf to rank a never-seen pair
// last rather than erroring.
func (g *Graph) EdgeLatency(from, to string) (ms float64, ok bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	fi, ok1 := g.index[from]
	ti, ok2 := g.index[to]
	if !ok1 || !ok2 {
		return 0, false
	}
	e, ok := g.edges[edgeKey{from: fi, to: ti}]
	if !ok {
		return 0, false
	}
	return e.LatencyMS, true
}

// MaxThroughput returns the highest single-edge throughput observed in the
// graph, used by the Balanced policy to scale a node's traffic. Traffic
// sums every incident edge, so the ratio can exceed 1. Returns 0 for an
// empty graph.
func (g *Graph) MaxThroughput() float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var max float64
	for _, e := range g.edges {
		if e.ThroughputBPS > max {
			max = e.ThroughputBPS
		}
	}
	return max
}

// Traffic returns the node's summed incident (in+out) throughput, used by
// the Balanced policy.
func (g *Graph) Traffic(name string) float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()

	i, ok := g.index[name]
	if !ok {
		return 0
	}
	var total float64
	for key, e := range g.edges {
		if key.from == i || key.to == i {
			total += e.ThroughputBPS
		}
	}
	return total
}

func ewma(prev, sample float64) float64 {
	if prev == 0 {
		return sample
	}
	return alpha*sample + (1-alpha)*prev
}
