package community

import (
	"testing"

	"github.com/ritzau/jsat-analyzer/pkg/graph"
	"github.com/ritzau/jsat-analyzer/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func build(n int, edges ...[2]model.NodeID) graph.Snapshot {
	b := graph.NewBuilder()
	for i := 0; i < n; i++ {
		b.Node(model.NodeFunction, "", "", model.Position{}, nil)
	}
	for _, e := range edges {
		b.Edge(e[0], e[1], model.EdgeHard)
	}
	return b.Build()
}

func TestGreedyTwoTriangles(t *testing.T) {
	s := build(6,
		[2]model.NodeID{1, 2}, [2]model.NodeID{2, 3}, [2]model.NodeID{3, 1},
		[2]model.NodeID{4, 5}, [2]model.NodeID{5, 6}, [2]model.NodeID{6, 4},
		[2]model.NodeID{3, 4},
	)

	p := Greedy(s)

	require.Equal(t, 2, p.Len())
	assert.Equal(t, []model.NodeID{1, 2, 3}, p.Communities[0])
	assert.Equal(t, []model.NodeID{4, 5, 6}, p.Communities[1])
	assert.InDelta(t, 0.357, p.Q, 0.001)
}

func TestGreedySortsBySize(t *testing.T) {
	// A path of four and a separate pair
	s := build(6,
		[2]model.NodeID{1, 2},
		[2]model.NodeID{3, 4}, [2]model.NodeID{4, 5}, [2]model.NodeID{5, 6}, [2]model.NodeID{6, 3},
	)

	p := Greedy(s)

	require.Equal(t, 2, p.Len())
	assert.Len(t, p.Communities[0], 4)
	assert.Equal(t, []model.NodeID{1, 2}, p.Communities[1])
	assert.Greater(t, p.Q, 0.0)
}

func TestGreedyIgnoresDirection(t *testing.T) {
	forward := Greedy(build(2, [2]model.NodeID{1, 2}))
	both := Greedy(build(2, [2]model.NodeID{1, 2}, [2]model.NodeID{2, 1}))

	assert.Equal(t, forward.Communities, both.Communities)
	assert.InDelta(t, forward.Q, both.Q, 1e-9)
}

func TestGreedyWithoutEdges(t *testing.T) {
	p := Greedy(build(3))

	assert.Equal(t, 3, p.Len())
	assert.Equal(t, 0.0, p.Q)
}

func TestGreedyEmptyGraph(t *testing.T) {
	p := Greedy(graph.Snapshot{})

	assert.Equal(t, 0, p.Len())
	assert.Equal(t, 0.0, p.Q)
}

func TestGreedyIsDeterministic(t *testing.T) {
	s := build(5,
		[2]model.NodeID{1, 2}, [2]model.NodeID{2, 3}, [2]model.NodeID{3, 4},
		[2]model.NodeID{4, 5}, [2]model.NodeID{5, 1},
	)

	first := Greedy(s)
	for range 10 {
		assert.Equal(t, first.Communities, Greedy(s).Communities)
	}
}
