package optimizer

import (
	"testing"

	"github.com/modelfabric/operator/internal/prober"
	"github.com/modelfabric/operator/internal/telemetry"
)

func cand(name string, available, used int64, known bool) candidate {
	return candidate{name: name, capacity: prober.Capacity{AvailableBytes: available, UsedBytes: used}, capacityKnown: known}
}

func TestRankLowestCopyMaximizesAvailable(t *testing.T) {
	candidates := []candidate{
		cand("s1", 10*1<<30, 90*1<<30, true),
		cand("s2", 30*1<<30, 20*1<<30, true),
	}
	best := rankLowestCopy(candidates)
	if best.name != "s2" {
		t.Fatalf("winner = %s, want s2", best.name)
	}
}

func TestRankLowestCopyTieBreaksOnUsedFraction(t *testing.T) {
	candidates := []candidate{
		cand("s1", 100, 900, true), // fraction 0.9
		cand("s2", 100, 100, true), // fraction 0.5
	}
	best := rankLowestCopy(candidates)
	if best.name != "s2" {
		t.Fatalf("winner = %s, want s2 (lower used fraction)", best.name)
	}
}

func TestFilterByResourceZeroRequestKeepsAll(t *testing.T) {
	candidates := []candidate{cand("s1", 0, 0, false), cand("s2", 100, 0, true)}
	out := filterByResource(candidates, 0)
	if len(out) != 2 {
		t.Fatalf("len(out) = %d, want 2", len(out))
	}
}

func TestFilterByResourceDropsUnknownWhenRequested(t *testing.T) {
	candidates := []candidate{cand("s1", 0, 0, false), cand("s2", 100, 0, true)}
	out := filterByResource(candidates, 50)
	if len(out) != 1 || out[0].name != "s2" {
		t.Fatalf("unexpected survivors: %+v", out)
	}
}

func TestFilterByResourceDropsBelowThreshold(t *testing.T) {
	candidates := []candidate{cand("s1", 10, 0, true), cand("s2", 100, 0, true)}
	out := filterByResource(candidates, 50)
	if len(out) != 1 || out[0].name != "s2" {
		t.Fatalf("unexpected survivors: %+v", out)
	}
}

func TestRankBalancedPrefersLowUsageAndLowTraffic(t *testing.T) {
	registry := telemetry.NewRegistry()
	graph := registry.Graph("ns1")
	graph.EnsureNode("ns1", "s1")
	graph.EnsureNode("ns1", "s2")
	graph.EnsureNode("ns1", "s3")
	graph.MergeEdgeSample(telemetry.EdgeSample{From: "s1", To: "s3", ThroughputBPS: 1000})

	candidates := []candidate{
		cand("s1", 100, 100, true), // fraction 0.5, the only candidate carrying traffic
		cand("s2", 100, 100, true), // fraction 0.5, no traffic
	}
	best := rankBalanced(graph, candidates)
	if best.name != "s2" {
		t.Fatalf("winner = %s, want s2 (same usage, but s1 carries traffic)", best.name)
	}
}

func TestRankLowestLatencyPrefersLowerLatencyFromHottestNode(t *testing.T) {
	registry := telemetry.NewRegistry()
	graph := registry.Graph("ns1")
	graph.EnsureNode("ns1", "hot")
	graph.EnsureNode("ns1", "s1")
	graph.EnsureNode("ns1", "s2")
	graph.MergeEdgeSample(telemetry.EdgeSample{From: "x", To: "hot", ThroughputBPS: 0}) // no-op, unknown endpoint
	graph.MergeEdgeSample(telemetry.EdgeSample{From: "hot", To: "s1", LatencyMS: 50, ThroughputBPS: 500})
	graph.MergeEdgeSample(telemetry.EdgeSample{From: "hot", To: "s2", LatencyMS: 5, ThroughputBPS: 1})

	candidates := []candidate{cand("s1", 10, 0, true), cand("s2", 10, 0, true)}
	best := rankLowestLatency(graph, candidates)
	if best.name != "s2" {
		t.Fatalf("winner = %s, want s2 (lower latency from hottest node)", best.name)
	}
}

func TestRankLowestLatencyUnseenEdgeRankedLast(t *testing.T) {
	registry := telemetry.NewRegistry()
	graph := registry.Graph("ns1")
	graph.EnsureNode("ns1", "hot")
	graph.EnsureNode("ns1", "s1")
	graph.EnsureNode("ns1", "s2")
	graph.MergeEdgeSample(telemetry.EdgeSample{From: "hot", To: "s1", LatencyMS: 50, ThroughputBPS: 500})
	// s2 has no edge from hot at all -> +Inf latency, must lose to s1.

	candidates := []candidate{cand("s1", 10, 0, true), cand("s2", 1000, 0, true)}
	best := rankLowestLatency(graph, candidates)
	if best.name != "s1" {
		t.Fatalf("winner = %s, want s1 (s2's latency is unobserved, ranked last)", best.name)
	}
}

func TestRankEmptyCandidatesReturnsNotOK(t *testing.T) {
	registry := telemetry.NewRegistry()
	graph := registry.Graph("ns1")
	_, ok := rank(graph, nil, PolicyLowestCopy)
	if ok {
		t.Fatal("expected ok=false for an empty candidate list")
	}
}
