package highlight

import (
	"testing"

	"github.com/ritzau/jsat-analyzer/pkg/analysis"
	"github.com/ritzau/jsat-analyzer/pkg/graph"
	"github.com/ritzau/jsat-analyzer/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// twoLoops has the cycles F1 <-> R1 and F2 <-> R2 joined by F1 -> R2
func twoLoops(t *testing.T) (*graph.Graph, []model.NodeID) {
	t.Helper()
	g := graph.New()
	f1 := g.AddNode(model.NodeFunction, "", "F1", model.Position{})
	r1 := g.AddNode(model.NodeResource, "", "R1", model.Position{})
	f2 := g.AddNode(model.NodeFunction, "", "F2", model.Position{})
	r2 := g.AddNode(model.NodeResource, "", "R2", model.Position{})
	for _, e := range [][2]model.NodeID{{f1, r1}, {r1, f1}, {f2, r2}, {r2, f2}, {f1, r2}} {
		require.NoError(t, g.AddEdge(e[0], e[1], model.EdgeHard))
	}
	return g, []model.NodeID{f1, r1, f2, r2}
}

func TestCycleGroups(t *testing.T) {
	g, ids := twoLoops(t)
	e := NewEngine(analysis.DefaultConfig())

	groups := e.Groups(g.Snapshot(), Request{Mode: ModeCycles})

	require.Len(t, groups, 2)
	assert.Equal(t, []model.NodeID{ids[0], ids[1]}, groups[0].Nodes)
	assert.Equal(t, []model.EdgeKey{{From: ids[0], To: ids[1]}, {From: ids[1], To: ids[0]}}, groups[0].Edges)
	assert.Equal(t, "#FF1493", groups[0].Color)
	assert.Equal(t, "#00FF00", groups[1].Color)
	assert.Equal(t, 8.0, groups[0].Width)
}

func TestSingleCycleKeepsColor(t *testing.T) {
	g, _ := twoLoops(t)
	e := NewEngine(analysis.DefaultConfig())
	s := g.Snapshot()

	all := e.Groups(s, Request{Mode: ModeCycles})
	one := e.Groups(s, Request{Mode: ModeCycle, Index: 1})

	require.Len(t, one, 1)
	assert.Equal(t, all[1].Nodes, one[0].Nodes)
	assert.Equal(t, all[1].Color, one[0].Color)
	assert.Equal(t, 10.0, one[0].Width)

	assert.Empty(t, e.Groups(s, Request{Mode: ModeCycle, Index: 2}))
	assert.Empty(t, e.Groups(s, Request{Mode: ModeCycle, Index: -1}))
}

func TestInterdependenceGroup(t *testing.T) {
	g, ids := twoLoops(t)
	e := NewEngine(analysis.DefaultConfig())
	assert.Empty(t, e.Groups(g.Snapshot(), Request{Mode: ModeInterdependence}))

	g.CreateAgent("A", "red")
	g.AssignAgent(ids[0], "A")

	groups := e.Groups(g.Snapshot(), Request{Mode: ModeInterdependence})
	require.Len(t, groups, 1)
	assert.Equal(t, "#FF0000", groups[0].Color)
	assert.Equal(t, 8.0, groups[0].Width)
	assert.Len(t, groups[0].Edges, 3)
	assert.Equal(t, []model.NodeID{ids[0], ids[1], ids[3]}, groups[0].Nodes)
}

func TestCommunityGroups(t *testing.T) {
	g, ids := twoLoops(t)
	extra := g.AddNode(model.NodeResource, "", "R3", model.Position{})
	require.NoError(t, g.AddEdge(ids[2], extra, model.EdgeSoft))
	e := NewEngine(analysis.DefaultConfig())
	s := g.Snapshot()

	groups := e.Groups(s, Request{Mode: ModeCommunities})
	require.Len(t, groups, 2)
	assert.GreaterOrEqual(t, len(groups[0].Nodes), len(groups[1].Nodes))
	assert.Equal(t, "#FF6B6B", groups[0].Color)
	assert.Equal(t, "#4ECDC4", groups[1].Color)

	for _, grp := range groups {
		for _, edge := range grp.Edges {
			assert.Contains(t, grp.Nodes, edge.From)
			assert.Contains(t, grp.Nodes, edge.To)
		}
	}

	single := e.Groups(s, Request{Mode: ModeCommunity, Index: 1})
	require.Len(t, single, 1)
	assert.Equal(t, groups[1], single[0])
	assert.Empty(t, e.Groups(s, Request{Mode: ModeCommunity, Index: 5}))
	assert.Empty(t, e.Groups(s, Request{Mode: ModeCommunity, Index: -1}))
}

func TestSelectorToggle(t *testing.T) {
	g, _ := twoLoops(t)
	sel := NewSelector(NewEngine(analysis.DefaultConfig()))
	s := g.Snapshot()

	on := sel.Toggle(s, Request{Mode: ModeCycles})
	assert.Len(t, on, 2)
	active, ok := sel.Active()
	assert.True(t, ok)
	assert.Equal(t, ModeCycles, active.Mode)

	off := sel.Toggle(s, Request{Mode: ModeCycles, Index: 3})
	assert.Empty(t, off, "index is ignored by non-indexed modes")
	_, ok = sel.Active()
	assert.False(t, ok)

	sel.Toggle(s, Request{Mode: ModeCycle, Index: 0})
	replaced := sel.Toggle(s, Request{Mode: ModeCycle, Index: 1})
	require.Len(t, replaced, 1)
	assert.Equal(t, "#00FF00", replaced[0].Color)

	sel.Toggle(s, Request{Mode: ModeCycles})
	g.RemoveEdge(2, 1)
	assert.Len(t, sel.Current(g.Snapshot()), 1, "recomputed against the latest graph")

	sel.Clear()
	assert.Empty(t, sel.Current(g.Snapshot()))
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("Modularity")
	require.NoError(t, err)
	assert.Equal(t, ModeCommunities, m)

	_, err = ParseMode("bogus")
	assert.Error(t, err)
}
