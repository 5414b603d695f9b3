package graph

import "sync"

type Node struct {
	ID           string
	Dependencies []string
}

// Graph is a dependency graph whose edges point from a node to the nodes it
// depends on. Node iteration always follows insertion order.
type Graph struct {
	mu    sync.RWMutex
	nodes map[string]*Node
	order []string
}

func New() *Graph {
	return &Graph{
		nodes: make(map[string]*Node),
	}
}

func (g *Graph) AddNode(id string, dependencies []string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	deps := make([]string, len(dependencies))
	copy(deps, dependencies)

	if _, exists := g.nodes[id]; !exists {
		g.order = append(g.order, id)
	}
	g.nodes[id] = &Node{
		ID:           id,
		Dependencies: deps,
	}
}

func (g *Graph) RemoveNode(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.nodes[id]; !exists {
		return
	}
	delete(g.nodes, id)

	for i, n := range g.order {
		if n == id {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
}

func (g *Graph) HasNode(id string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	_, exists := g.nodes[id]
	return exists
}

func (g *Graph) GetNode(id string) (*Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	node, exists := g.nodes[id]
	if !exists {
		return nil, false
	}

	nodeCopy := &Node{
		ID:           node.ID,
		Dependencies: make([]string, len(node.Dependencies)),
	}
	copy(nodeCopy.Dependencies, node.Dependencies)
	return nodeCopy, true
}

func (g *Graph) GetDependencies(id string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	node, exists := g.nodes[id]
	if !exists {
		return nil
	}

	result := make([]string, len(node.Dependencies))
	copy(result, node.Dependencies)
	return result
}

func (g *Graph) GetDependents(id string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var dependents []string
	for _, nodeID := range g.order {
		for _, dep := range g.nodes[nodeID].Dependencies {
			if dep == id {
				dependents = append(dependents, nodeID)
				break
			}
		}
	}
	return dependents
}

// Nodes returns node ids in insertion order.
func (g *Graph) Nodes() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	nodes := make([]string, len(g.order))
	copy(nodes, g.order)
	return nodes
}

func (g *Graph) Size() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return len(g.nodes)
}

func (g *Graph) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.nodes = make(map[string]*Node)
	g.order = nil
}

func (g *Graph) Clone() *Graph {
	g.mu.RLock()
	defer g.mu.RUnlock()

	clone := New()
	for _, id := range g.order {
		node := g.nodes[id]
		deps := make([]string, len(node.Dependencies))
		copy(deps, node.Dependencies)
		clone.nodes[id] = &Node{
			ID:           node.ID,
			Dependencies: deps,
		}
		clone.order = append(clone.order, id)
	}
	return clone
}

// Validate returns every dependency name that has no node, in the order the
// edges are first encountered.
func (g *Graph) Validate() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var missing []string
	seen := make(map[string]bool)

	for _, id := range g.order {
		for _, dep := range g.nodes[id].Dependencies {
			if _, exists := g.nodes[dep]; !exists && !seen[dep] {
				missing = append(missing, dep)
				seen[dep] = true
			}
		}
	}

	return missing
}
