package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/ritzau/jsat-analyzer/pkg/graph"
	"github.com/ritzau/jsat-analyzer/pkg/metrics"
)

var (
	bold   = color.New(color.Bold)
	red    = color.New(color.FgRed)
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	cyan   = color.New(color.FgCyan)
)

// PrintReport prints a colored metric report for one network
func PrintReport(w io.Writer, name string, s graph.Snapshot, results []metrics.Result) {
	bold.Fprintln(w, "JSAT Network Report")
	bold.Fprintln(w, "===================")
	fmt.Fprintf(w, "Network: %s\n", name)
	fmt.Fprintf(w, "Nodes: %d  Edges: %d  Agents: %d\n", s.NodeCount(), s.EdgeCount(), len(s.Agents())-1)
	fmt.Fprintln(w)

	width := 0
	for _, r := range results {
		width = max(width, len(r.Metric))
	}

	failures := 0
	for _, r := range results {
		fmt.Fprintf(w, "  %-*s  ", width, r.Metric)
		switch {
		case r.Status == metrics.StatusComputationFailed:
			failures++
			red.Fprintln(w, r.String())
		case r.Status == metrics.StatusNotApplicable:
			yellow.Fprintln(w, r.String())
		case strings.HasPrefix(r.Value, "Fractured"), strings.HasPrefix(r.Value, "Infinite"):
			red.Fprintln(w, r.String())
		case strings.HasPrefix(r.Value, "Robust"):
			green.Fprintln(w, r.String())
		default:
			fmt.Fprintln(w, r.String())
		}
		if r.Reason != "" && r.Status != metrics.StatusOK {
			cyan.Fprintf(w, "  %-*s  (%s)\n", width, "", r.Reason)
		}
	}
	fmt.Fprintln(w)

	if failures > 0 {
		red.Fprintf(w, "%d metric(s) could not be computed\n", failures)
	}
}

// PrintGrid prints a comparison grid as an aligned table
func PrintGrid(w io.Writer, title string, grid metrics.Grid) {
	bold.Fprintln(w, title)

	widths := make([]int, len(grid.Columns)+1)
	widths[0] = len("Metric")
	for _, row := range grid.Rows {
		widths[0] = max(widths[0], len(row.Metric))
	}
	for i, col := range grid.Columns {
		widths[i+1] = len(col)
		for _, row := range grid.Rows {
			widths[i+1] = max(widths[i+1], len(row.Values[i]))
		}
	}

	cyan.Fprintf(w, "%-*s", widths[0], "Metric")
	for i, col := range grid.Columns {
		cyan.Fprintf(w, "  %-*s", widths[i+1], col)
	}
	fmt.Fprintln(w)
	total := widths[0]
	for _, wd := range widths[1:] {
		total += wd + 2
	}
	fmt.Fprintln(w, strings.Repeat("-", total))

	for _, row := range grid.Rows {
		fmt.Fprintf(w, "%-*s", widths[0], row.Metric)
		for i, v := range row.Values {
			c := color.New(color.Reset)
			if v == "Err" {
				c = red
			}
			c.Fprintf(w, "  %-*s", widths[i+1], v)
		}
		fmt.Fprintln(w)
	}
}
