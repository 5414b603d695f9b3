package riolauncher

import (
	"fmt"
	"io"
	"os"
	"strings"
)

type GraphInfo struct {
	Services []ServiceInfo
}

type ServiceInfo struct {
	Name         string
	Dependencies []string
	Dependents   []string
	State        State
	Singleton    bool
}

// Graph describes every registration in registration order.
func (r *Registry) Graph() GraphInfo {
	graph := r.internal.Graph()
	names := r.internal.Names()
	services := make([]ServiceInfo, 0, len(names))

	for _, name := range names {
		d, ok := r.internal.Descriptor(name)
		if !ok {
			continue
		}

		services = append(
			services, ServiceInfo{
				Name:         name,
				Dependencies: graph.GetDependencies(name),
				Dependents:   graph.GetDependents(name),
				State:        d.State,
				Singleton:    d.Singleton,
			},
		)
	}

	return GraphInfo{Services: services}
}

func (r *Registry) PrintGraph() {
	r.FprintGraph(os.Stdout)
}

func (r *Registry) FprintGraph(w io.Writer) {
	info := r.Graph()

	if len(info.Services) == 0 {
		_, _ = fmt.Fprintln(w, "(empty registry)")
		return
	}

	for _, svc := range info.Services {
		status := "○"
		if svc.State == StateReady {
			status = "●"
		}

		name := svc.Name
		if !svc.Singleton {
			name += " (transient)"
		}

		if len(svc.Dependencies) == 0 {
			_, _ = fmt.Fprintf(w, "%s %s\n", status, name)
		} else {
			_, _ = fmt.Fprintf(w, "%s %s ← %s\n", status, name, strings.Join(svc.Dependencies, ", "))
		}
	}
}

func (r *Registry) SprintGraph() string {
	var sb strings.Builder
	r.FprintGraph(&sb)
	return sb.String()
}

func (r *Registry) FprintGraphDOT(w io.Writer) {
	info := r.Graph()

	_, _ = fmt.Fprintln(w, "digraph services {")
	_, _ = fmt.Fprintln(w, "  rankdir=LR;")
	_, _ = fmt.Fprintln(w, "  node [shape=box];")

	for _, svc := range info.Services {
		style := ""
		if svc.State == StateReady {
			style = ", style=filled, fillcolor=lightblue"
		}
		_, _ = fmt.Fprintf(w, "  %q [label=%q%s];\n", svc.Name, svc.Name, style)
	}

	_, _ = fmt.Fprintln(w)

	for _, svc := range info.Services {
		for _, dep := range svc.Dependencies {
			_, _ = fmt.Fprintf(w, "  %q -> %q;\n", svc.Name, dep)
		}
	}

	_, _ = fmt.Fprintln(w, "}")
}

func (r *Registry) SprintGraphDOT() string {
	var sb strings.Builder
	r.FprintGraphDOT(&sb)
	return sb.String()
}
