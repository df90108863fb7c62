// Package cycles enumerates the simple directed cycles of a work network.
//
// Enumeration uses Johnson's algorithm over strongly connected components and
// yields cycles one at a time, so callers can stop after a fixed number of
// cycles on graphs with exponentially many of them.
package cycles

import (
	"iter"
	"slices"

	"github.com/ritzau/jsat-analyzer/pkg/graph"
	"github.com/ritzau/jsat-analyzer/pkg/model"
	"gonum.org/v1/gonum/stat"
)

// Cycle is a simple directed cycle listed from its smallest node ID.
// The closing edge back to the first node is implied.
type Cycle []model.NodeID

// Edges returns the cycle's edges including the one closing back to the start
func (c Cycle) Edges() []model.EdgeKey {
	edges := make([]model.EdgeKey, len(c))
	for i, id := range c {
		edges[i] = model.EdgeKey{From: id, To: c[(i+1)%len(c)]}
	}
	return edges
}

// Result holds the cycles found by Enumerate
type Result struct {
	Cycles []Cycle
	Capped bool // More cycles exist than were collected
}

// Count returns the number of collected cycles
func (r Result) Count() int {
	return len(r.Cycles)
}

// AverageLength returns the mean cycle length, or 0 without cycles
func (r Result) AverageLength() float64 {
	if len(r.Cycles) == 0 {
		return 0
	}
	lengths := make([]float64, len(r.Cycles))
	for i, c := range r.Cycles {
		lengths[i] = float64(len(c))
	}
	return stat.Mean(lengths, nil)
}

// Enumerate collects at most limit cycles. Capped is set when at least one
// more cycle exists. A limit of zero or less collects every cycle.
func Enumerate(s graph.Snapshot, limit int) Result {
	var r Result
	for c := range Simple(s) {
		if limit > 0 && len(r.Cycles) == limit {
			r.Capped = true
			break
		}
		r.Cycles = append(r.Cycles, c)
	}
	return r
}

// Simple returns a lazy sequence of every simple directed cycle in s,
// self-loops included. The order is deterministic for a given snapshot.
func Simple(s graph.Snapshot) iter.Seq[Cycle] {
	ids := s.NodeIDs()
	index := make(map[model.NodeID]int, len(ids))
	for i, id := range ids {
		index[id] = i
	}
	adj := make(Adjacency, len(ids))
	for _, e := range s.Edges() {
		adj[index[e.From]] = append(adj[index[e.From]], index[e.To])
	}

	return func(yield func(Cycle) bool) {
		j := newJohnson(adj, func(path []int) bool {
			c := make(Cycle, len(path))
			for i, v := range path {
				c[i] = ids[v]
			}
			return yield(c)
		})
		j.run()
	}
}

type johnson struct {
	adj     Adjacency
	emit    func(path []int) bool
	start   int
	inComp  []bool
	blocked []bool
	blockBy []map[int]struct{}
	path    []int
	stopped bool
}

func newJohnson(adj Adjacency, emit func(path []int) bool) *johnson {
	j := &johnson{
		adj:     adj,
		emit:    emit,
		inComp:  make([]bool, len(adj)),
		blocked: make([]bool, len(adj)),
		blockBy: make([]map[int]struct{}, len(adj)),
	}
	for i := range j.blockBy {
		j.blockBy[i] = make(map[int]struct{})
	}
	return j
}

// run finds, for each start vertex s in turn, the cycles whose smallest
// vertex is s. Those lie within s's component of the subgraph induced by
// the vertices >= s.
func (j *johnson) run() {
	for s := range j.adj {
		if j.stopped {
			return
		}
		comp := j.componentOf(s)
		if len(comp) == 1 && !slices.Contains(j.adj[s], s) {
			continue
		}
		clear(j.inComp)
		for _, v := range comp {
			j.inComp[v] = true
			j.blocked[v] = false
			clear(j.blockBy[v])
		}
		j.start = s
		j.circuit(s)
	}
}

func (j *johnson) componentOf(s int) []int {
	sccs := NewTarjanSCC(j.adj, func(v int) bool { return v >= s }).FindSCCs()
	for _, scc := range sccs {
		if slices.Contains(scc, s) {
			return scc
		}
	}
	return []int{s}
}

func (j *johnson) circuit(v int) bool {
	found := false
	j.path = append(j.path, v)
	j.blocked[v] = true

	for _, w := range j.adj[v] {
		if !j.inComp[w] {
			continue
		}
		if w == j.start {
			if !j.emit(j.path) {
				j.stopped = true
				return true
			}
			found = true
		} else if !j.blocked[w] {
			if j.circuit(w) {
				found = true
			}
			if j.stopped {
				return true
			}
		}
	}

	if found {
		j.unblock(v)
	} else {
		for _, w := range j.adj[v] {
			if j.inComp[w] {
				j.blockBy[w][v] = struct{}{}
			}
		}
	}
	j.path = j.path[:len(j.path)-1]
	return found
}

func (j *johnson) unblock(u int) {
	j.blocked[u] = false
	for w := range j.blockBy[u] {
		delete(j.blockBy[u], w)
		if j.blocked[w] {
			j.unblock(w)
		}
	}
}
