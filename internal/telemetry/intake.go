package telemetry

// Intake is the thin entry point through which telemetry records reach the
// per-namespace graphs, independent of whatever transport carries them in.
// It owns the Registry and the Executor that resolves Discover plans in
// the background.
type Intake struct {
	registry *Registry
	executor *Executor
}

// NewIntake builds an Intake over registry, scheduling any Discover plan
// it produces onto executor.
func NewIntake(registry *Registry, executor *Executor) *Intake {
	return &Intake{registry: registry, executor: executor}
}

// Registry exposes the underlying per-namespace graphs, e.g. for the
// optimizer to read from.
func (in *Intake) Registry() *Registry {
	return in.registry
}

// Observe registers a storage as known within its namespace, scheduling a
// Discover plan the first time the name is seen. Reconcilers call this
// whenever they observe a ModelStorage record, independent of whether any
// telemetry sample for it has arrived yet.
func (in *Intake) Observe(namespace, name string) {
	plan := in.registry.Graph(namespace).EnsureNode(namespace, name)
	in.executor.Schedule(plan)
}

// Replace re-registers a storage whose underlying identity changed,
// evicting its stale edges.
func (in *Intake) Replace(namespace, name string) {
	in.registry.Graph(namespace).Replace(namespace, name)
	in.Observe(namespace, name)
}

// IngestNode merges one `{elapsed_ns, len, total_bytes}` node-metric sample.
func (in *Intake) IngestNode(s NodeSample) {
	in.registry.MergeNodeSample(s)
}

// IngestEdge merges one `{latency_ms, throughput_bps}` edge-metric sample.
func (in *Intake) IngestEdge(s EdgeSample) {
	in.registry.MergeEdgeSample(s)
}
