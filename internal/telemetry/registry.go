package telemetry

import "sync"

// Registry holds one Graph per namespace, created lazily on first touch.
// It is the first-class "registry of namespace graphs" the system's design
// calls for in place of a singleton container: every namespace's telemetry
// is strictly isolated, and a Registry is just a concurrency-safe map from
// namespace name to its Graph.
type Registry struct {
	mu     sync.Mutex
	graphs map[string]*Graph
}

// NewRegistry builds an empty Registry.
func NewRegistry() *Registry {
	return &Registry{graphs: make(map[string]*Graph)}
}

// Graph returns the Graph for namespace, creating it on first use.
func (r *Registry) Graph(namespace string) *Graph {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.graphs[namespace]
	if !ok {
		g = newGraph()
		r.graphs[namespace] = g
	}
	return g
}

// Namespaces returns the names of every namespace with a graph, for
// diagnostics and metrics export.
func (r *Registry) Namespaces() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, 0, len(r.graphs))
	for ns := range r.graphs {
		out = append(out, ns)
	}
	return out
}

// MergeNodeSample routes a node sample to its namespace's graph, creating
// the graph if this is the first sample ever seen for that namespace.
func (r *Registry) MergeNodeSample(s NodeSample) {
	r.Graph(s.Namespace).MergeNodeSample(s)
}

// MergeEdgeSample routes an edge sample to its namespace's graph.
func (r *Registry) MergeEdgeSample(s EdgeSample) {
	r.Graph(s.Namespace).MergeEdgeSample(s)
}
