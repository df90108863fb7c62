package metrics

import (
	"github.com/ritzau/jsat-analyzer/pkg/analysis"
	"github.com/ritzau/jsat-analyzer/pkg/graph"
	"github.com/ritzau/jsat-analyzer/pkg/model"
	gonumgraph "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/topo"
	"gonum.org/v1/gonum/graph/traverse"
)

func density(in *input) Result {
	n := float64(in.s.NodeCount())
	if n < 2 {
		return ok(Density, 0, "%.3f", 0.0)
	}
	d := float64(in.s.EdgeCount()) / (n * (n - 1))
	return ok(Density, d, "%.3f", d)
}

// weakComponents counts the weakly connected components over the edges kept
// by the filter. Every node belongs to a component.
func weakComponents(s graph.Snapshot, keep graph.EdgeFilter) int {
	return len(topo.ConnectedComponents(s.Undirected(keep)))
}

func cyclomaticNumber(in *input) Result {
	c := in.s.EdgeCount() - in.s.NodeCount() + weakComponents(in.s, graph.AllEdges)
	return ok(CyclomaticNumber, float64(c), "%d", c)
}

// efficiency averages 1/d over all ordered pairs of distinct nodes in the
// undirected projection. Unreachable pairs contribute 0.
func efficiency(s graph.Snapshot, keep graph.EdgeFilter) float64 {
	n := s.NodeCount()
	if n < 2 {
		return 0
	}
	g := s.Undirected(keep)
	total := 0.0
	nodes := g.Nodes()
	for nodes.Next() {
		var bfs traverse.BreadthFirst
		bfs.Walk(g, nodes.Node(), func(_ gonumgraph.Node, depth int) bool {
			if depth > 0 {
				total += 1 / float64(depth)
			}
			return false
		})
	}
	return total / float64(n*(n-1))
}

func globalEfficiency(in *input) Result {
	e := efficiency(in.s, graph.AllEdges)
	return ok(GlobalEfficiency, e, "%.3f", e)
}

func supportiveGain(in *input) Result {
	gain := efficiency(in.s, graph.AllEdges) - efficiency(in.s, graph.HardEdges)
	return ok(SupportiveGain, gain, "%.3f", gain)
}

func brittlenessRatio(in *input) Result {
	soft := len(in.s.EdgesOfType(model.EdgeSoft))
	hard := len(in.s.EdgesOfType(model.EdgeHard))
	if hard == 0 {
		// Number stays 0 since JSON can't carry +Inf
		return Result{Metric: BrittlenessRatio, Value: "Infinite (No Hard Edges)", Status: StatusOK, Reason: "no hard edges"}
	}
	r := float64(soft) / float64(hard)
	return ok(BrittlenessRatio, r, "%.2f (S:%d/H:%d)", r, soft, hard)
}

func criticalVulnerability(in *input) Result {
	k := weakComponents(in.s, graph.HardEdges)
	if k == 1 {
		return ok(CriticalVulnerability, 1, "Robust (1 Comp)")
	}
	return ok(CriticalVulnerability, float64(k), "Fractured (%d Comps)", k)
}

func interdependence(in *input) Result {
	m := in.s.EdgeCount()
	if m == 0 {
		return ok(Interdependence, 0, "%.3f", 0.0)
	}
	f := float64(len(analysis.CrossBoundaryEdges(in.s))) / float64(m)
	return ok(Interdependence, f, "%.3f", f)
}

func totalCycles(in *input) Result {
	r := in.Cycles()
	if r.Capped {
		return ok(TotalCycles, float64(r.Count()), "%d+", r.Count())
	}
	return ok(TotalCycles, float64(r.Count()), "%d", r.Count())
}

func avgCycleLength(in *input) Result {
	avg := in.Cycles().AverageLength()
	return ok(AvgCycleLength, avg, "%.2f", avg)
}

func modularity(in *input) Result {
	p := in.Partition()
	return ok(Modularity, p.Q, "%.3f (%d Comms)", p.Q, p.Len())
}
