package metrics

import (
	"strconv"

	"github.com/ritzau/jsat-analyzer/pkg/graph"
)

// Architecture is a named snapshot taking part in a comparison
type Architecture struct {
	Name     string
	Snapshot graph.Snapshot
}

// Row is one line of a comparison grid, one value per architecture
type Row struct {
	Metric string   `json:"metric"`
	Values []string `json:"values"`
}

// Grid compares architectures side by side
type Grid struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// Comparison row names beyond the metric names
const (
	Nodes = "Nodes"
	Edges = "Edges"
)

// CompareRows lists the rows of an architecture comparison
var CompareRows = []string{
	Nodes, Edges, Density, CyclomaticNumber, TotalCycles,
	AvgCycleLength, Interdependence, Modularity, GlobalEfficiency,
}

// NodeRows lists the rows of a node comparison
var NodeRows = []string{"In-Degree", "Out-Degree", "Degree Centrality", "Betweenness", "Eigenvector"}

// Compare evaluates CompareRows for every architecture
func (e *Engine) Compare(archs []Architecture) Grid {
	grid := Grid{Columns: columns(archs)}
	inputs := make([]*input, len(archs))
	for i, a := range archs {
		inputs[i] = &input{s: a.Snapshot, cfg: e.cfg}
	}

	for _, metric := range CompareRows {
		row := Row{Metric: metric, Values: make([]string, len(archs))}
		for i, in := range inputs {
			switch metric {
			case Nodes:
				row.Values[i] = strconv.Itoa(in.s.NodeCount())
			case Edges:
				row.Values[i] = strconv.Itoa(in.s.EdgeCount())
			default:
				row.Values[i] = e.compute(in, metric).String()
			}
		}
		grid.Rows = append(grid.Rows, row)
	}
	return grid
}

// CompareNode evaluates NodeRows for the first node carrying label in each
// architecture. Architectures without such a node show "-".
func CompareNode(label string, archs []Architecture) Grid {
	grid := Grid{Columns: columns(archs)}
	for _, metric := range NodeRows {
		grid.Rows = append(grid.Rows, Row{Metric: metric, Values: make([]string, len(archs))})
	}

	for i, a := range archs {
		var values []string
		if n, found := a.Snapshot.NodeByLabel(label); found {
			st, _ := NodeMetrics(a.Snapshot, n.ID)
			values = []string{
				strconv.Itoa(st.InDegree),
				strconv.Itoa(st.OutDegree),
				st.DegreeCentrality.String(),
				st.Betweenness.String(),
				st.Eigenvector.String(),
			}
		} else {
			values = []string{"-", "-", "-", "-", "-"}
		}
		for r := range grid.Rows {
			grid.Rows[r].Values[i] = values[r]
		}
	}
	return grid
}

func columns(archs []Architecture) []string {
	cols := make([]string, len(archs))
	for i, a := range archs {
		cols[i] = a.Name
	}
	return cols
}
