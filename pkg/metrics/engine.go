// Package metrics computes structural health metrics over work network
// snapshots. Every metric returns a Result; none of them return errors or
// panic.
package metrics

import (
	"fmt"
	"math"
	"slices"

	"github.com/ritzau/jsat-analyzer/pkg/analysis"
	"github.com/ritzau/jsat-analyzer/pkg/community"
	"github.com/ritzau/jsat-analyzer/pkg/cycles"
	"github.com/ritzau/jsat-analyzer/pkg/graph"
	"github.com/ritzau/jsat-analyzer/pkg/logging"
)

// Metric names
const (
	Density               = "Density"
	CyclomaticNumber      = "Cyclomatic Number"
	GlobalEfficiency      = "Global Efficiency"
	SupportiveGain        = "Supportive Gain"
	BrittlenessRatio      = "Brittleness Ratio"
	CriticalVulnerability = "Critical Vulnerability"
	Interdependence       = "Interdependence"
	TotalCycles           = "Total Cycles"
	AvgCycleLength        = "Avg Cycle Length"
	Modularity            = "Modularity"
	FunctionalRedundancy  = "Functional Redundancy"
	AgentCriticality      = "Agent Criticality"
	CollaborationRatio    = "Collaboration Ratio"
)

var names = []string{
	Density, CyclomaticNumber, GlobalEfficiency, SupportiveGain,
	BrittlenessRatio, CriticalVulnerability, Interdependence, TotalCycles,
	AvgCycleLength, Modularity, FunctionalRedundancy, AgentCriticality,
	CollaborationRatio,
}

// Names returns every metric name in dashboard order
func Names() []string {
	return slices.Clone(names)
}

type metricFunc func(in *input) Result

var registry = map[string]metricFunc{
	Density:               density,
	CyclomaticNumber:      cyclomaticNumber,
	GlobalEfficiency:      globalEfficiency,
	SupportiveGain:        supportiveGain,
	BrittlenessRatio:      brittlenessRatio,
	CriticalVulnerability: criticalVulnerability,
	Interdependence:       interdependence,
	TotalCycles:           totalCycles,
	AvgCycleLength:        avgCycleLength,
	Modularity:            modularity,
	FunctionalRedundancy:  functionalRedundancy,
	AgentCriticality:      agentCriticality,
	CollaborationRatio:    collaborationRatio,
}

// input carries a snapshot and the expensive structures derived from it, so
// metrics computed together share one cycle enumeration and one partition.
type input struct {
	s         graph.Snapshot
	cfg       analysis.Config
	cycles    *cycles.Result
	partition *community.Partition
}

func (in *input) Cycles() cycles.Result {
	if in.cycles == nil {
		r := analysis.Cycles(in.s, in.cfg)
		in.cycles = &r
	}
	return *in.cycles
}

func (in *input) Partition() community.Partition {
	if in.partition == nil {
		p := analysis.Communities(in.s)
		in.partition = &p
	}
	return *in.partition
}

// Engine computes metrics with a fixed configuration
type Engine struct {
	cfg analysis.Config
}

// NewEngine creates an engine using cfg
func NewEngine(cfg analysis.Config) *Engine {
	return &Engine{cfg: cfg}
}

// Config returns the engine configuration
func (e *Engine) Config() analysis.Config {
	return e.cfg
}

// Describe returns the explanatory text of a metric
func (e *Engine) Describe(name string) (string, bool) {
	return e.cfg.Description(name)
}

// Compute evaluates the named metric against s
func (e *Engine) Compute(s graph.Snapshot, name string) Result {
	return e.compute(&input{s: s, cfg: e.cfg}, name)
}

// ComputeMetric evaluates the named metric and returns its display value
func (e *Engine) ComputeMetric(s graph.Snapshot, name string) string {
	return e.Compute(s, name).String()
}

// ComputeAll evaluates every metric in dashboard order
func (e *Engine) ComputeAll(s graph.Snapshot) []Result {
	in := &input{s: s, cfg: e.cfg}
	results := make([]Result, 0, len(names))
	for _, name := range names {
		results = append(results, e.compute(in, name))
	}
	return results
}

func (e *Engine) compute(in *input, name string) (r Result) {
	fn, known := registry[name]
	if !known {
		return notApplicable(name, "", "unknown metric")
	}
	if in.s.NodeCount() == 0 {
		if name == CriticalVulnerability {
			return notApplicable(name, "N/A", "empty graph")
		}
		return notApplicable(name, "0", "empty graph")
	}

	defer func() {
		if p := recover(); p != nil {
			logging.Warn("metric computation failed", "metric", name, "panic", p)
			r = failed(name, fmt.Sprint(p))
		}
	}()

	r = fn(in)
	if r.Status == StatusOK && math.IsNaN(r.Number) {
		return failed(name, "result is not a number")
	}
	return r
}
