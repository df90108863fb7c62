package analysis

import (
	"github.com/ritzau/jsat-analyzer/pkg/community"
	"github.com/ritzau/jsat-analyzer/pkg/cycles"
	"github.com/ritzau/jsat-analyzer/pkg/graph"
	"github.com/ritzau/jsat-analyzer/pkg/model"
)

// Cycles enumerates the simple cycles of s up to the configured cap
func Cycles(s graph.Snapshot, cfg Config) cycles.Result {
	return cycles.Enumerate(s, cfg.CycleCap())
}

// Communities returns the greedy modularity partition of s
func Communities(s graph.Snapshot) community.Partition {
	return community.Greedy(s)
}

// CrossBoundaryEdges returns the edges whose endpoints carry disjoint agent
// sets. Two nodes held only by Unassigned share it.
func CrossBoundaryEdges(s graph.Snapshot) []model.Edge {
	var out []model.Edge
	for _, e := range s.Edges() {
		from, _ := s.Node(e.From)
		to, _ := s.Node(e.To)
		if !from.SharesAgentWith(to) {
			out = append(out, e)
		}
	}
	return out
}
