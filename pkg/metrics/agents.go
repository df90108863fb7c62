package metrics

import (
	"github.com/ritzau/jsat-analyzer/pkg/model"
)

func functions(in *input) []model.Node {
	var out []model.Node
	for _, n := range in.s.Nodes() {
		if n.Type == model.NodeFunction {
			out = append(out, n)
		}
	}
	return out
}

func functionalRedundancy(in *input) Result {
	fns := functions(in)
	if len(fns) == 0 {
		return ok(FunctionalRedundancy, 0, "%.2f", 0.0)
	}
	total := 0
	for _, n := range fns {
		total += len(n.RealAgents())
	}
	avg := float64(total) / float64(len(fns))
	return ok(FunctionalRedundancy, avg, "%.2f", avg)
}

// agentCriticality finds the agent that is the only real agent on the most
// Function nodes. Ties go to the agent created first.
func agentCriticality(in *input) Result {
	sole := make(map[model.AgentID]int)
	for _, n := range functions(in) {
		if agents := n.RealAgents(); len(agents) == 1 {
			sole[agents[0]]++
		}
	}

	var best model.Agent
	count := 0
	for _, a := range in.s.Agents() {
		if c := sole[a.ID]; c > count {
			best, count = a, c
		}
	}
	if count == 0 {
		return notApplicable(AgentCriticality, "None", "no agent holds sole authority")
	}
	return ok(AgentCriticality, float64(count), "%s (%d)", best.Name, count)
}

// collaborationRatio is the share of assigned Function nodes with more than
// one real agent
func collaborationRatio(in *input) Result {
	assigned, shared := 0, 0
	for _, n := range functions(in) {
		k := len(n.RealAgents())
		if k == 0 {
			continue
		}
		assigned++
		if k > 1 {
			shared++
		}
	}
	if assigned == 0 {
		return ok(CollaborationRatio, 0, "%.1f%%", 0.0)
	}
	pct := 100 * float64(shared) / float64(assigned)
	return ok(CollaborationRatio, pct, "%.1f%%", pct)
}
