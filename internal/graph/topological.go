package graph

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrCycleDetected     = errors.New("cycle detected in graph")
	ErrMissingDependency = errors.New("missing dependency in graph")
)

type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%s: %s", ErrCycleDetected, strings.Join(e.Path, " -> "))
}

func (e *CycleError) Is(target error) bool {
	return target == ErrCycleDetected
}

type MissingError struct {
	Node       string
	Dependency string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("%s: %s -> %s", ErrMissingDependency, e.Node, e.Dependency)
}

func (e *MissingError) Is(target error) bool {
	return target == ErrMissingDependency
}

// TopologicalSort orders nodes so that every node follows all of its
// dependencies. It is a depth-first postorder walk: roots are taken in
// insertion order and dependencies in declared order, so equal graphs built
// in equal order always sort identically.
func (g *Graph) TopologicalSort() ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.sortUnsafe(g.order, false)
}

// TeardownOrder is the reverse of a topological sort that ignores edges to
// unknown nodes. It is meant for best-effort teardown of whatever exists.
func (g *Graph) TeardownOrder() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	sorted, err := g.sortUnsafe(g.order, true)
	if err != nil {
		sorted = make([]string, len(g.order))
		copy(sorted, g.order)
	}

	n := len(sorted)
	reversed := make([]string, n)
	for i, v := range sorted {
		reversed[n-1-i] = v
	}
	return reversed
}

func (g *Graph) sortUnsafe(roots []string, skipMissing bool) ([]string, error) {
	visited := make(map[string]bool, len(g.nodes))
	visiting := make(map[string]bool)
	path := make([]string, 0)
	sorted := make([]string, 0, len(g.nodes))

	var visit func(id string) error
	visit = func(id string) error {
		if visited[id] {
			return nil
		}
		if visiting[id] {
			start := 0
			for i, p := range path {
				if p == id {
					start = i
					break
				}
			}
			cycle := append(append([]string{}, path[start:]...), id)
			return &CycleError{Path: cycle}
		}

		visiting[id] = true
		path = append(path, id)

		for _, dep := range g.nodes[id].Dependencies {
			if _, exists := g.nodes[dep]; !exists {
				if skipMissing {
					continue
				}
				return &MissingError{Node: id, Dependency: dep}
			}
			if err := visit(dep); err != nil {
				return err
			}
		}

		path = path[:len(path)-1]
		visiting[id] = false
		visited[id] = true
		sorted = append(sorted, id)
		return nil
	}

	for _, id := range roots {
		if _, exists := g.nodes[id]; !exists {
			continue
		}
		if err := visit(id); err != nil {
			return nil, err
		}
	}

	return sorted, nil
}

func (g *Graph) ReverseTopologicalSort() ([]string, error) {
	sorted, err := g.TopologicalSort()
	if err != nil {
		return nil, err
	}

	n := len(sorted)
	reversed := make([]string, n)
	for i, v := range sorted {
		reversed[n-1-i] = v
	}

	return reversed, nil
}

func (g *Graph) StartupOrder() ([]string, error) {
	return g.TopologicalSort()
}

func (g *Graph) ShutdownOrder() ([]string, error) {
	return g.ReverseTopologicalSort()
}

// ResolutionOrder returns target and its transitive dependencies in the
// order they must become ready.
func (g *Graph) ResolutionOrder(target string) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if _, exists := g.nodes[target]; !exists {
		return []string{target}, nil
	}

	return g.sortUnsafe([]string{target}, false)
}

type ParallelGroup struct {
	Level int
	Nodes []string
}

// ParallelStartupGroups partitions nodes into levels: level 0 has no
// dependencies and every node sits one level above its deepest dependency.
// Nodes inside a group keep topological order.
func (g *Graph) ParallelStartupGroups() ([]ParallelGroup, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	sorted, err := g.sortUnsafe(g.order, false)
	if err != nil {
		return nil, err
	}

	levels := make(map[string]int, len(sorted))
	maxLevel := -1
	for _, id := range sorted {
		level := 0
		for _, dep := range g.nodes[id].Dependencies {
			if levels[dep]+1 > level {
				level = levels[dep] + 1
			}
		}
		levels[id] = level
		if level > maxLevel {
			maxLevel = level
		}
	}

	groups := make([]ParallelGroup, maxLevel+1)
	for i := range groups {
		groups[i].Level = i
	}
	for _, id := range sorted {
		level := levels[id]
		groups[level].Nodes = append(groups[level].Nodes, id)
	}

	return groups, nil
}

func (g *Graph) ParallelShutdownGroups() ([]ParallelGroup, error) {
	groups, err := g.ParallelStartupGroups()
	if err != nil {
		return nil, err
	}

	n := len(groups)
	reversed := make([]ParallelGroup, n)
	for i, group := range groups {
		nodes := make([]string, len(group.Nodes))
		for j, id := range group.Nodes {
			nodes[len(group.Nodes)-1-j] = id
		}
		reversed[n-1-i] = ParallelGroup{
			Level: group.Level,
			Nodes: nodes,
		}
	}

	return reversed, nil
}
