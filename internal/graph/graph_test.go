package graph

import (
	"errors"
	"slices"
	"testing"
)

func indexOf(s []string, v string) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}

func TestGraph_AddNode(t *testing.T) {
	t.Parallel()

	g := New()
	g.AddNode("A", []string{"B", "C"})

	if !g.HasNode("A") {
		t.Error("node A should exist")
	}

	deps := g.GetDependencies("A")
	if len(deps) != 2 {
		t.Errorf("expected 2 dependencies, got %d", len(deps))
	}
}

func TestGraph_AddNodeKeepsInsertionOrder(t *testing.T) {
	t.Parallel()

	g := New()
	g.AddNode("c", nil)
	g.AddNode("a", nil)
	g.AddNode("b", nil)
	g.AddNode("a", []string{"c"})

	if got := g.Nodes(); !slices.Equal(got, []string{"c", "a", "b"}) {
		t.Errorf("expected insertion order [c a b], got %v", got)
	}
}

func TestGraph_RemoveNode(t *testing.T) {
	t.Parallel()

	g := New()
	g.AddNode("A", nil)
	g.AddNode("B", nil)

	g.RemoveNode("A")

	if g.HasNode("A") {
		t.Error("node A should not exist after removal")
	}
	if !g.HasNode("B") {
		t.Error("node B should still exist")
	}
	if got := g.Nodes(); !slices.Equal(got, []string{"B"}) {
		t.Errorf("expected [B], got %v", got)
	}
}

func TestGraph_GetDependents(t *testing.T) {
	t.Parallel()

	g := New()
	g.AddNode("A", []string{"C"})
	g.AddNode("B", []string{"C"})
	g.AddNode("C", nil)

	dependents := g.GetDependents("C")
	if !slices.Equal(dependents, []string{"A", "B"}) {
		t.Errorf("expected [A B], got %v", dependents)
	}
}

func TestGraph_Validate(t *testing.T) {
	t.Parallel()

	g := New()
	g.AddNode("A", []string{"B", "C"})
	g.AddNode("B", nil)

	missing := g.Validate()
	if len(missing) != 1 || missing[0] != "C" {
		t.Errorf("expected missing dependency C, got %v", missing)
	}
}

func TestGraph_Clone(t *testing.T) {
	t.Parallel()

	g := New()
	g.AddNode("A", []string{"B"})
	g.AddNode("B", nil)

	clone := g.Clone()

	if clone.Size() != g.Size() {
		t.Error("clone should have same size")
	}

	g.AddNode("C", nil)
	if clone.Size() == g.Size() {
		t.Error("clone should be independent")
	}
}

func TestGraph_HasCycle(t *testing.T) {
	t.Parallel()

	g := New()
	g.AddNode("A", []string{"B"})
	g.AddNode("B", nil)

	if g.HasCycle() {
		t.Error("should not have cycle")
	}

	g.AddNode("B", []string{"A"})
	if !g.HasCycle() {
		t.Error("should have cycle")
	}
}

func TestGraph_HasCycle_IgnoresMissing(t *testing.T) {
	t.Parallel()

	g := New()
	g.AddNode("A", []string{"ghost"})

	if g.HasCycle() {
		t.Error("missing dependency is not a cycle")
	}
}

func TestGraph_FindCyclePath(t *testing.T) {
	t.Parallel()

	g := New()
	g.AddNode("A", []string{"B"})
	g.AddNode("B", []string{"C"})
	g.AddNode("C", []string{"A"})

	path := g.FindCyclePath("A")
	if !slices.Equal(path, []string{"A", "B", "C", "A"}) {
		t.Errorf("expected A -> B -> C -> A, got %v", path)
	}
}

func TestGraph_FindCyclePath_SelfReference(t *testing.T) {
	t.Parallel()

	g := New()
	g.AddNode("A", []string{"A"})

	path := g.FindCyclePath("A")
	if !slices.Equal(path, []string{"A", "A"}) {
		t.Errorf("expected A -> A, got %v", path)
	}
}

func TestGraph_TopologicalSort(t *testing.T) {
	t.Parallel()

	g := New()
	g.AddNode("A", []string{"B", "C"})
	g.AddNode("B", []string{"D"})
	g.AddNode("C", []string{"D"})
	g.AddNode("D", nil)

	sorted, err := g.TopologicalSort()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !slices.Equal(sorted, []string{"D", "B", "C", "A"}) {
		t.Errorf("expected DFS postorder [D B C A], got %v", sorted)
	}
}

func TestGraph_TopologicalSort_Deterministic(t *testing.T) {
	t.Parallel()

	build := func() *Graph {
		g := New()
		g.AddNode("process", []string{"eventBus", "configuration"})
		g.AddNode("eventBus", nil)
		g.AddNode("cache", []string{"eventBus"})
		g.AddNode("configuration", []string{"eventBus"})
		return g
	}

	first, err := build().TopologicalSort()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 0; i < 20; i++ {
		again, _ := build().TopologicalSort()
		if !slices.Equal(first, again) {
			t.Fatalf("order changed between runs: %v vs %v", first, again)
		}
	}

	expected := []string{"eventBus", "configuration", "process", "cache"}
	if !slices.Equal(first, expected) {
		t.Errorf("expected %v, got %v", expected, first)
	}
}

func TestGraph_TopologicalSort_WithCycle(t *testing.T) {
	t.Parallel()

	g := New()
	g.AddNode("A", []string{"B"})
	g.AddNode("B", []string{"A"})

	_, err := g.TopologicalSort()
	if !errors.Is(err, ErrCycleDetected) {
		t.Fatalf("expected ErrCycleDetected, got %v", err)
	}

	var cycleErr *CycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("expected *CycleError, got %T", err)
	}
	if !slices.Equal(cycleErr.Path, []string{"A", "B", "A"}) {
		t.Errorf("expected path A -> B -> A, got %v", cycleErr.Path)
	}
}

func TestGraph_TopologicalSort_Missing(t *testing.T) {
	t.Parallel()

	g := New()
	g.AddNode("A", []string{"B"})

	_, err := g.TopologicalSort()
	if !errors.Is(err, ErrMissingDependency) {
		t.Fatalf("expected ErrMissingDependency, got %v", err)
	}

	var missingErr *MissingError
	if !errors.As(err, &missingErr) {
		t.Fatalf("expected *MissingError, got %T", err)
	}
	if missingErr.Node != "A" || missingErr.Dependency != "B" {
		t.Errorf("unexpected missing edge %s -> %s", missingErr.Node, missingErr.Dependency)
	}
}

func TestGraph_StartupOrder(t *testing.T) {
	t.Parallel()

	g := New()
	g.AddNode("App", []string{"Server", "Database"})
	g.AddNode("Server", []string{"Config"})
	g.AddNode("Database", []string{"Config"})
	g.AddNode("Config", nil)

	order, err := g.StartupOrder()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if indexOf(order, "Config") > indexOf(order, "Server") {
		t.Error("Config should start before Server")
	}
	if indexOf(order, "Config") > indexOf(order, "Database") {
		t.Error("Config should start before Database")
	}
	if indexOf(order, "Server") > indexOf(order, "App") {
		t.Error("Server should start before App")
	}
}

func TestGraph_ShutdownOrder(t *testing.T) {
	t.Parallel()

	g := New()
	g.AddNode("App", []string{"Server"})
	g.AddNode("Server", []string{"Database"})
	g.AddNode("Database", nil)

	order, err := g.ShutdownOrder()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !slices.Equal(order, []string{"App", "Server", "Database"}) {
		t.Errorf("expected [App Server Database], got %v", order)
	}
}

func TestGraph_ResolutionOrder(t *testing.T) {
	t.Parallel()

	g := New()
	g.AddNode("A", []string{"B", "C"})
	g.AddNode("B", []string{"D"})
	g.AddNode("C", nil)
	g.AddNode("D", nil)
	g.AddNode("E", nil)

	order, err := g.ResolutionOrder("A")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !slices.Equal(order, []string{"D", "B", "C", "A"}) {
		t.Errorf("expected [D B C A], got %v", order)
	}
	if slices.Contains(order, "E") {
		t.Error("unrelated node should not be in resolution order")
	}
}

func TestGraph_ParallelStartupGroups(t *testing.T) {
	t.Parallel()

	g := New()
	g.AddNode("App", []string{"Server", "Worker"})
	g.AddNode("Server", []string{"Database", "Cache"})
	g.AddNode("Worker", []string{"Database"})
	g.AddNode("Database", []string{"Config"})
	g.AddNode("Cache", []string{"Config"})
	g.AddNode("Config", nil)

	groups, err := g.ParallelStartupGroups()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(groups) != 4 {
		t.Fatalf("expected 4 groups, got %d", len(groups))
	}
	if !slices.Equal(groups[0].Nodes, []string{"Config"}) {
		t.Errorf("expected Config alone in level 0, got %v", groups[0].Nodes)
	}
	if !slices.Equal(groups[1].Nodes, []string{"Database", "Cache"}) {
		t.Errorf("expected [Database Cache] in level 1, got %v", groups[1].Nodes)
	}
	if !slices.Equal(groups[3].Nodes, []string{"App"}) {
		t.Errorf("expected App in last level, got %v", groups[3].Nodes)
	}
}

func TestGraph_ParallelShutdownGroups(t *testing.T) {
	t.Parallel()

	g := New()
	g.AddNode("App", []string{"Config"})
	g.AddNode("Config", nil)

	groups, err := g.ParallelShutdownGroups()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(groups) != 2 || groups[0].Nodes[0] != "App" || groups[1].Nodes[0] != "Config" {
		t.Errorf("expected App before Config, got %+v", groups)
	}
}

func TestGraph_TeardownOrder(t *testing.T) {
	t.Parallel()

	g := New()
	g.AddNode("process", []string{"eventBus", "configuration"})
	g.AddNode("eventBus", nil)
	g.AddNode("configuration", []string{"eventBus", "theme"})

	got := g.TeardownOrder()
	want := []string{"process", "configuration", "eventBus"}
	if !slices.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func BenchmarkGraph_FindCyclePath(b *testing.B) {
	g := New()
	for i := 0; i < 100; i++ {
		var deps []string
		if i > 0 {
			deps = []string{string(rune('A' + i - 1))}
		}
		g.AddNode(string(rune('A'+i)), deps)
	}

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		g.FindCyclePath(string(rune('A' + 99)))
	}
}

func BenchmarkGraph_TopologicalSort(b *testing.B) {
	g := New()
	for i := 0; i < 100; i++ {
		var deps []string
		if i > 0 {
			deps = []string{string(rune('A' + i - 1))}
		}
		g.AddNode(string(rune('A'+i)), deps)
	}

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = g.TopologicalSort()
	}
}
