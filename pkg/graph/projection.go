package graph

import (
	"github.com/ritzau/jsat-analyzer/pkg/model"
	"gonum.org/v1/gonum/graph/simple"
)

// EdgeFilter selects the edges that take part in a projection
type EdgeFilter func(e model.Edge) bool

// AllEdges keeps every edge
func AllEdges(model.Edge) bool { return true }

// HardEdges keeps only essential edges
func HardEdges(e model.Edge) bool { return e.Type == model.EdgeHard }

// Undirected projects the snapshot onto a gonum undirected graph containing
// every node. An undirected edge exists where either direction passes the
// filter. Self-loops can't be represented and are dropped.
func (s Snapshot) Undirected(keep EdgeFilter) *simple.UndirectedGraph {
	g := simple.NewUndirectedGraph()
	for _, id := range s.NodeIDs() {
		g.AddNode(simple.Node(id))
	}
	for _, e := range s.Edges() {
		if e.From == e.To || !keep(e) {
			continue
		}
		if !g.HasEdgeBetween(int64(e.From), int64(e.To)) {
			g.SetEdge(g.NewEdge(g.Node(int64(e.From)), g.Node(int64(e.To))))
		}
	}
	return g
}

// Directed projects the snapshot onto a gonum directed graph containing every
// node and the edges passing the filter. Self-loops are dropped.
func (s Snapshot) Directed(keep EdgeFilter) *simple.DirectedGraph {
	g := simple.NewDirectedGraph()
	for _, id := range s.NodeIDs() {
		g.AddNode(simple.Node(id))
	}
	for _, e := range s.Edges() {
		if e.From == e.To || !keep(e) {
			continue
		}
		g.SetEdge(g.NewEdge(g.Node(int64(e.From)), g.Node(int64(e.To))))
	}
	return g
}
