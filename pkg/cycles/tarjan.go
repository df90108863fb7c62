package cycles

// Adjacency lists successors by vertex index. Self-loops are kept.
type Adjacency [][]int

// TarjanSCC finds all strongly connected components using Tarjan's algorithm.
// Only vertices accepted by keep take part.
type TarjanSCC struct {
	adj     Adjacency
	keep    func(v int) bool
	index   int
	stack   []int
	onStack []bool
	indices []int
	lowLink []int
	sccs    [][]int
}

// NewTarjanSCC creates a new Tarjan SCC finder
func NewTarjanSCC(adj Adjacency, keep func(v int) bool) *TarjanSCC {
	indices := make([]int, len(adj))
	for i := range indices {
		indices[i] = -1
	}
	return &TarjanSCC{
		adj:     adj,
		keep:    keep,
		onStack: make([]bool, len(adj)),
		indices: indices,
		lowLink: make([]int, len(adj)),
	}
}

// FindSCCs returns every strongly connected component, singletons included
func (t *TarjanSCC) FindSCCs() [][]int {
	for v := range t.adj {
		if t.keep(v) && t.indices[v] < 0 {
			t.strongConnect(v)
		}
	}
	return t.sccs
}

func (t *TarjanSCC) strongConnect(v int) {
	t.indices[v] = t.index
	t.lowLink[v] = t.index
	t.index++

	t.stack = append(t.stack, v)
	t.onStack[v] = true

	for _, w := range t.adj[v] {
		if !t.keep(w) {
			continue
		}
		if t.indices[w] < 0 {
			t.strongConnect(w)
			t.lowLink[v] = min(t.lowLink[v], t.lowLink[w])
		} else if t.onStack[w] {
			t.lowLink[v] = min(t.lowLink[v], t.indices[w])
		}
	}

	// v is a root node: pop the stack and emit the component
	if t.lowLink[v] == t.indices[v] {
		var scc []int
		for {
			w := t.stack[len(t.stack)-1]
			t.stack = t.stack[:len(t.stack)-1]
			t.onStack[w] = false
			scc = append(scc, w)
			if w == v {
				break
			}
		}
		t.sccs = append(t.sccs, scc)
	}
}
