// Package community partitions a work network into modules by greedy
// modularity maximization (Clauset, Newman and Moore).
package community

import (
	"cmp"
	"slices"

	"github.com/ritzau/jsat-analyzer/pkg/graph"
	"github.com/ritzau/jsat-analyzer/pkg/model"
	gonumgraph "gonum.org/v1/gonum/graph"
	gcommunity "gonum.org/v1/gonum/graph/community"
	"gonum.org/v1/gonum/graph/simple"
)

// Partition is a set of disjoint communities covering every node
type Partition struct {
	Communities [][]model.NodeID // Descending size; members ascending
	Q           float64          // Modularity of the partition
}

// Len returns the number of communities
func (p Partition) Len() int {
	return len(p.Communities)
}

// Greedy partitions the undirected projection of s. Starting from singleton
// communities it repeatedly merges the pair of connected communities with the
// largest modularity gain until no merge improves modularity. Ties go to the
// pair with the smallest community indices.
func Greedy(s graph.Snapshot) Partition {
	u := s.Undirected(graph.AllEdges)
	ids := s.NodeIDs()
	if len(ids) == 0 {
		return Partition{}
	}

	members := make(map[int][]model.NodeID, len(ids))
	for i, id := range ids {
		members[i] = []model.NodeID{id}
	}

	m := float64(u.Edges().Len())
	if m > 0 {
		merge(u, ids, members, m)
	}

	p := Partition{Communities: make([][]model.NodeID, 0, len(members))}
	for _, c := range members {
		slices.Sort(c)
		p.Communities = append(p.Communities, c)
	}
	slices.SortFunc(p.Communities, func(a, b []model.NodeID) int {
		if c := cmp.Compare(len(b), len(a)); c != 0 {
			return c
		}
		return cmp.Compare(a[0], b[0])
	})

	// Q is NaN without edges
	if m > 0 {
		p.Q = gcommunity.Q(u, toGonum(p.Communities), 1)
	}
	return p
}

// merge runs the agglomeration. e[i][j] is the fraction of edge ends joining
// communities i and j, a[i] the fraction of edge ends attached to i.
func merge(u *simple.UndirectedGraph, ids []model.NodeID, members map[int][]model.NodeID, m float64) {
	index := make(map[int64]int, len(ids))
	for i, id := range ids {
		index[int64(id)] = i
	}

	e := make(map[int]map[int]float64, len(ids))
	a := make(map[int]float64, len(ids))
	for i, id := range ids {
		e[i] = make(map[int]float64)
		neighbours := u.From(int64(id))
		a[i] = float64(neighbours.Len()) / (2 * m)
		for neighbours.Next() {
			e[i][index[neighbours.Node().ID()]] = 1 / (2 * m)
		}
	}

	for {
		bi, bj, best := -1, -1, 0.0
		for i := range ids {
			if _, alive := members[i]; !alive {
				continue
			}
			for j, eij := range e[i] {
				if j <= i {
					continue
				}
				dq := 2 * (eij - a[i]*a[j])
				if dq > best || (dq == best && bi >= 0 && (i < bi || (i == bi && j < bj))) {
					bi, bj, best = i, j, dq
				}
			}
		}
		if bi < 0 {
			return
		}

		// fold bj into bi
		for k, ejk := range e[bj] {
			if k == bi {
				continue
			}
			e[bi][k] += ejk
			e[k][bi] += ejk
			delete(e[k], bj)
		}
		delete(e[bi], bj)
		delete(e, bj)
		a[bi] += a[bj]
		delete(a, bj)
		members[bi] = append(members[bi], members[bj]...)
		delete(members, bj)
	}
}

func toGonum(communities [][]model.NodeID) [][]gonumgraph.Node {
	out := make([][]gonumgraph.Node, len(communities))
	for i, c := range communities {
		out[i] = make([]gonumgraph.Node, len(c))
		for j, id := range c {
			out[i][j] = simple.Node(id)
		}
	}
	return out
}
