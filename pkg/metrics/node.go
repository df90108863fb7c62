package metrics

import (
	"errors"
	"fmt"

	"github.com/ritzau/jsat-analyzer/pkg/graph"
	"github.com/ritzau/jsat-analyzer/pkg/model"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/graph/network"
)

const (
	eigenvectorMaxIter = 100
	eigenvectorTol     = 1e-4
)

var errNoConvergence = errors.New("power iteration did not converge")

// Centrality is a node score that may be unavailable
type Centrality struct {
	Value float64 `json:"value"`
	OK    bool    `json:"ok"`
}

// String formats the score with three decimals, 0.000 when unavailable
func (c Centrality) String() string {
	if !c.OK {
		return "0.000"
	}
	return fmt.Sprintf("%.3f", c.Value)
}

// NodeStats describes the position of one node in the network
type NodeStats struct {
	ID               model.NodeID `json:"id"`
	Label            string       `json:"label"`
	InDegree         int          `json:"inDegree"`
	OutDegree        int          `json:"outDegree"`
	DegreeCentrality Centrality   `json:"degreeCentrality"`
	Betweenness      Centrality   `json:"betweenness"`
	Eigenvector      Centrality   `json:"eigenvector"`
}

// NodeMetrics computes the inspector statistics of node id.
// Returns false if the node doesn't exist.
func NodeMetrics(s graph.Snapshot, id model.NodeID) (NodeStats, bool) {
	n, exists := s.Node(id)
	if !exists {
		return NodeStats{}, false
	}

	st := NodeStats{ID: id, Label: n.Label}
	for _, e := range s.Edges() {
		if e.To == id {
			st.InDegree++
		}
		if e.From == id {
			st.OutDegree++
		}
	}
	st.DegreeCentrality = guard(func() float64 { return degreeCentrality(s, st.InDegree+st.OutDegree) })
	st.Betweenness = guard(func() float64 { return betweenness(s, id) })
	st.Eigenvector = guard(func() float64 {
		scores, err := eigenvector(s)
		if err != nil {
			panic(err)
		}
		return scores[id]
	})
	return st, true
}

// guard turns a panicking computation into an unavailable score
func guard(fn func() float64) (c Centrality) {
	defer func() {
		if recover() != nil {
			c = Centrality{}
		}
	}()
	return Centrality{Value: fn(), OK: true}
}

func degreeCentrality(s graph.Snapshot, degree int) float64 {
	n := s.NodeCount()
	if n <= 1 {
		return 1
	}
	return float64(degree) / float64(n-1)
}

// betweenness normalizes gonum's directed betweenness by 1/((n-1)(n-2))
func betweenness(s graph.Snapshot, id model.NodeID) float64 {
	n := s.NodeCount()
	raw := network.Betweenness(s.Directed(graph.AllEdges))[int64(id)]
	if n <= 2 {
		return raw
	}
	return raw / float64((n-1)*(n-2))
}

// eigenvector runs power iteration on A+I following in-edges, so a node
// scores highly when high-scoring nodes point to it.
func eigenvector(s graph.Snapshot) (map[model.NodeID]float64, error) {
	ids := s.NodeIDs()
	n := len(ids)
	if n == 0 {
		return nil, errNoConvergence
	}
	index := make(map[model.NodeID]int, n)
	for i, id := range ids {
		index[id] = i
	}
	edges := s.Edges()

	x := make([]float64, n)
	for i := range x {
		x[i] = 1 / float64(n)
	}
	last := make([]float64, n)
	for range eigenvectorMaxIter {
		copy(last, x)
		for _, e := range edges {
			x[index[e.To]] += last[index[e.From]]
		}
		norm := floats.Norm(x, 2)
		if norm == 0 {
			norm = 1
		}
		floats.Scale(1/norm, x)
		if floats.Distance(x, last, 1) < float64(n)*eigenvectorTol {
			out := make(map[model.NodeID]float64, n)
			for i, id := range ids {
				out[id] = x[i]
			}
			return out, nil
		}
	}
	return nil, errNoConvergence
}
