package graph

// Component is a strongly-connected set of modules. Members are listed in
// discovery order.
type Component struct {
	Index   int
	Members []string
}

// Cyclic reports whether the component is a real cycle rather than a
// single acyclic module
func (c *Component) Cyclic(next func(string) []string) bool {
	if len(c.Members) > 1 {
		return true
	}
	for _, to := range next(c.Members[0]) {
		if to == c.Members[0] {
			return true
		}
	}
	return false
}

// Components runs Tarjan's algorithm from roots in order, following next.
// Components are returned dependencies-first; the result depends only on
// the order of roots and of each successor list.
func Components(roots []string, next func(string) []string) ([]*Component, map[string]*Component) {
	t := &tarjan{
		next:    next,
		index:   make(map[string]int),
		lowlink: make(map[string]int),
		onStack: make(map[string]bool),
		of:      make(map[string]*Component),
	}

	for _, root := range roots {
		if _, visited := t.index[root]; !visited {
			t.visit(root)
		}
	}

	return t.components, t.of
}

type tarjan struct {
	next       func(string) []string
	counter    int
	index      map[string]int
	lowlink    map[string]int
	onStack    map[string]bool
	stack      []string
	components []*Component
	of         map[string]*Component
}

func (t *tarjan) visit(v string) {
	t.index[v] = t.counter
	t.lowlink[v] = t.counter
	t.counter++
	t.stack = append(t.stack, v)
	t.onStack[v] = true

	for _, w := range t.next(v) {
		if _, visited := t.index[w]; !visited {
			t.visit(w)
			t.lowlink[v] = min(t.lowlink[v], t.lowlink[w])
		} else if t.onStack[w] {
			t.lowlink[v] = min(t.lowlink[v], t.index[w])
		}
	}

	if t.lowlink[v] != t.index[v] {
		return
	}

	// Pop the component; the stack holds members in discovery order
	i := len(t.stack) - 1
	for t.stack[i] != v {
		i--
	}
	members := make([]string, len(t.stack)-i)
	copy(members, t.stack[i:])
	t.stack = t.stack[:i]

	comp := &Component{Index: len(t.components), Members: members}
	for _, m := range members {
		t.onStack[m] = false
		t.of[m] = comp
	}
	t.components = append(t.components, comp)
}
