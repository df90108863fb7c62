// Package highlight turns an analysis selection into colored groups of
// nodes and edges for display.
package highlight

import (
	"fmt"
	"slices"
	"strings"

	"github.com/ritzau/jsat-analyzer/pkg/analysis"
	"github.com/ritzau/jsat-analyzer/pkg/graph"
	"github.com/ritzau/jsat-analyzer/pkg/model"
)

// Mode selects what is highlighted
type Mode string

const (
	ModeCycles          Mode = "cycles"          // Every enumerated cycle
	ModeCycle           Mode = "cycle"           // One cycle by index
	ModeInterdependence Mode = "interdependence" // Edges crossing agent boundaries
	ModeCommunities     Mode = "communities"     // Every community
	ModeCommunity       Mode = "community"       // One community by index
)

var modes = []Mode{ModeCycles, ModeCycle, ModeInterdependence, ModeCommunities, ModeCommunity}

// ParseMode matches a mode name case-insensitively. "modularity" is accepted
// for ModeCommunities.
func ParseMode(s string) (Mode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "modularity" {
		return ModeCommunities, nil
	}
	for _, m := range modes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown highlight mode %q", s)
}

// Indexed returns true for modes that select a single item
func (m Mode) Indexed() bool {
	return m == ModeCycle || m == ModeCommunity
}

// Request identifies a highlight selection. Index is used by indexed modes only.
type Request struct {
	Mode  Mode `json:"mode"`
	Index int  `json:"index,omitempty"`
}

// Group is a colored subset of the graph
type Group struct {
	Nodes []model.NodeID  `json:"nodes"`
	Edges []model.EdgeKey `json:"edges"`
	Color string          `json:"color"`
	Width float64         `json:"width"`
}

// Engine computes highlight groups with a fixed configuration
type Engine struct {
	cfg analysis.Config
}

// NewEngine creates an engine using cfg
func NewEngine(cfg analysis.Config) *Engine {
	return &Engine{cfg: cfg}
}

// Groups returns the highlight groups for req. Unknown modes and
// out-of-range indices, negative ones included, yield no groups.
func (e *Engine) Groups(s graph.Snapshot, req Request) []Group {
	switch req.Mode {
	case ModeCycles:
		return e.cycles(s, true, 0)
	case ModeCycle:
		if req.Index < 0 {
			return nil
		}
		return e.cycles(s, false, req.Index)
	case ModeInterdependence:
		return e.interdependence(s)
	case ModeCommunities:
		return e.communities(s, true, 0)
	case ModeCommunity:
		if req.Index < 0 {
			return nil
		}
		return e.communities(s, false, req.Index)
	}
	return nil
}

// cycles builds one group per cycle, or only the one at index unless all is
// set. A cycle keeps its palette color whether shown alone or with the others.
func (e *Engine) cycles(s graph.Snapshot, all bool, index int) []Group {
	found := analysis.Cycles(s, e.cfg).Cycles
	w := e.cfg.Widths()
	if !all {
		if index >= len(found) {
			return nil
		}
		c := found[index]
		return []Group{{Nodes: slices.Clone(c), Edges: c.Edges(), Color: e.cfg.CycleColor(index), Width: w.SingleCycle}}
	}

	groups := make([]Group, 0, len(found))
	for i, c := range found {
		groups = append(groups, Group{Nodes: slices.Clone(c), Edges: c.Edges(), Color: e.cfg.CycleColor(i), Width: w.Cycles})
	}
	return groups
}

func (e *Engine) interdependence(s graph.Snapshot) []Group {
	cross := analysis.CrossBoundaryEdges(s)
	if len(cross) == 0 {
		return nil
	}
	g := Group{Color: e.cfg.InterdependenceColor(), Width: e.cfg.Widths().Interdependence}
	for _, edge := range cross {
		g.Edges = append(g.Edges, edge.Key())
		g.Nodes = append(g.Nodes, edge.From, edge.To)
	}
	slices.Sort(g.Nodes)
	g.Nodes = slices.Compact(g.Nodes)
	return []Group{g}
}

// communities builds one group per community of the sorted partition, or
// only the one at index unless all is set. Edges are restricted to those
// with both endpoints inside the community.
func (e *Engine) communities(s graph.Snapshot, all bool, index int) []Group {
	comms := analysis.Communities(s).Communities
	if !all && index >= len(comms) {
		return nil
	}

	edges := s.Edges()
	group := func(i int) Group {
		members := comms[i]
		g := Group{Nodes: slices.Clone(members), Color: e.cfg.CommunityColor(i), Width: e.cfg.Widths().Community}
		for _, edge := range edges {
			if slices.Contains(members, edge.From) && slices.Contains(members, edge.To) {
				g.Edges = append(g.Edges, edge.Key())
			}
		}
		return g
	}

	if !all {
		return []Group{group(index)}
	}
	groups := make([]Group, len(comms))
	for i := range comms {
		groups[i] = group(i)
	}
	return groups
}
