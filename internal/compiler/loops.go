package compiler

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/pulsenet/internal/ir"
)

// LoopReport describes a feedback loop in a network.
//
// Loops are informational, not errors: feedback through conjunctions is how
// these networks count. A loop made only of flip-flops can never carry a
// second pulse back to its start, so such loops are worth a second look.
type LoopReport struct {
	Modules        []string `json:"modules"`         // members in declaration order
	Path           []string `json:"path"`            // one traversal: ["a", "inv", "a"]
	HasConjunction bool     `json:"has_conjunction"` // loop passes through a conjunction
	Message        string   `json:"message"`
}

// AnalyzeLoops performs static loop analysis on declared edges.
//
// The algorithm:
//  1. Build module → targets adjacency in declaration order
//  2. Use Tarjan's algorithm to find strongly connected components
//  3. Report each SCC with size > 1 or self-loops as a loop
//
// Reports are ordered by the declaration index of their first member, so the
// output is deterministic. An acyclic network returns an empty list.
func AnalyzeLoops(rules []ir.Rule) []LoopReport {
	g := buildModuleGraph(rules)

	var reports []LoopReport
	for _, scc := range tarjanSCC(g) {
		if len(scc) > 1 || (len(scc) == 1 && hasSelfLoop(scc[0], g)) {
			reports = append(reports, sccToReport(scc, g))
		}
	}

	// Tarjan emits SCCs in reverse topological order; present them in
	// declaration order instead.
	sortReports(reports, g)

	if reports == nil {
		return []LoopReport{}
	}
	return reports
}

// moduleGraph is the static adjacency of a rule set.
type moduleGraph struct {
	order []string            // declared and implicit modules, first-seen order
	index map[string]int      // name → position in order
	edges map[string][]string // name → targets
	kinds map[string]ir.Kind
}

func buildModuleGraph(rules []ir.Rule) *moduleGraph {
	g := &moduleGraph{
		index: make(map[string]int),
		edges: make(map[string][]string),
		kinds: make(map[string]ir.Kind),
	}
	add := func(name string, kind ir.Kind) {
		if _, ok := g.index[name]; ok {
			return
		}
		g.index[name] = len(g.order)
		g.order = append(g.order, name)
		g.kinds[name] = kind
	}
	for _, r := range rules {
		add(r.Name, r.Kind)
		// A duplicate declaration keeps the first kind; Build rejects it anyway.
		g.edges[r.Name] = append(g.edges[r.Name], r.Targets...)
	}
	for _, r := range rules {
		for _, t := range r.Targets {
			add(t, ir.KindSink)
		}
	}
	return g
}

// hasSelfLoop checks if a node has an edge to itself.
func hasSelfLoop(node string, g *moduleGraph) bool {
	for _, neighbor := range g.edges[node] {
		if neighbor == node {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
//
// Nodes are visited in declaration order so the result is deterministic.
// Single-node SCCs without self-loops are NOT loops.
func tarjanSCC(g *moduleGraph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g.edges[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		// If v is a root node, pop the stack and create an SCC
		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, node := range g.order {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}

	return sccs
}

func sccToReport(scc []string, g *moduleGraph) LoopReport {
	members := make([]string, len(scc))
	copy(members, scc)
	sortByDeclaration(members, g)

	report := LoopReport{Modules: members}
	for _, m := range members {
		if g.kinds[m] == ir.KindConjunction {
			report.HasConjunction = true
		}
	}

	if len(members) == 1 {
		report.Path = []string{members[0], members[0]}
		report.Message = fmt.Sprintf("module %s feeds itself", members[0])
		return report
	}

	report.Path = reconstructLoopPath(members, g)
	report.Message = fmt.Sprintf("feedback loop: %s", strings.Join(report.Path, " → "))
	if !report.HasConjunction {
		report.Message += " (no conjunction in loop)"
	}
	return report
}

// reconstructLoopPath builds a loop path from an SCC.
//
// Strategy: Start at the first member, follow edges to other members,
// continue until we return to start.
func reconstructLoopPath(scc []string, g *moduleGraph) []string {
	inSCC := make(map[string]bool, len(scc))
	for _, node := range scc {
		inSCC[node] = true
	}

	start := scc[0]
	current := start
	path := []string{current}
	visited := make(map[string]bool)

	for {
		visited[current] = true

		var next string
		for _, neighbor := range g.edges[current] {
			if inSCC[neighbor] && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				break
			}
		}

		if next == "" {
			break
		}

		path = append(path, next)

		if next == start {
			break
		}

		current = next
	}

	return path
}

func sortByDeclaration(names []string, g *moduleGraph) {
	slices.SortFunc(names, func(a, b string) int {
		return cmp.Compare(g.index[a], g.index[b])
	})
}

func sortReports(reports []LoopReport, g *moduleGraph) {
	slices.SortFunc(reports, func(a, b LoopReport) int {
		return cmp.Compare(g.index[a.Modules[0]], g.index[b.Modules[0]])
	})
}
