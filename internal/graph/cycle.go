package graph

func (g *Graph) HasCycle() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	visited := make(map[string]bool, len(g.nodes))
	for _, id := range g.order {
		if visited[id] {
			continue
		}
		if g.findCycleUnsafe(id, visited) != nil {
			return true
		}
	}
	return false
}

// FindCyclePath returns a cycle reachable from start as a path whose first
// and last elements are the same node, or nil. Edges to unknown nodes are
// ignored.
func (g *Graph) FindCyclePath(start string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.findCycleUnsafe(start, make(map[string]bool))
}

func (g *Graph) findCycleUnsafe(start string, visited map[string]bool) []string {
	path := make([]string, 0)
	inPath := make(map[string]bool)

	var dfs func(id string) []string
	dfs = func(id string) []string {
		if inPath[id] {
			cyclePath := make([]string, 0)
			found := false
			for _, p := range path {
				if p == id {
					found = true
				}
				if found {
					cyclePath = append(cyclePath, p)
				}
			}
			cyclePath = append(cyclePath, id)
			return cyclePath
		}

		if visited[id] {
			return nil
		}

		node, exists := g.nodes[id]
		if !exists {
			return nil
		}

		visited[id] = true
		path = append(path, id)
		inPath[id] = true

		for _, dep := range node.Dependencies {
			if cycle := dfs(dep); cycle != nil {
				return cycle
			}
		}

		path = path[:len(path)-1]
		inPath[id] = false
		return nil
	}

	return dfs(start)
}
