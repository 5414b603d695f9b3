// Command run executes the container benchmarks and renders one table per
// scenario, fastest first.
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/exec"
	"regexp"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type Result struct {
	Name       string  `json:"name"`
	Framework  string  `json:"framework"`
	Scenario   string  `json:"scenario"`
	NsPerOp    float64 `json:"ns_per_op"`
	BytesPerOp int64   `json:"bytes_per_op"`
	AllocsOp   int64   `json:"allocs_per_op"`
}

var scenarioTitles = map[string]string{
	"Provide_Launcher":         "Registering the launcher services",
	"Resolve_Process":          "Resolving process once built",
	"Startup_Launcher":         "Startup and shutdown of the launcher",
	"StartupWithWork_Launcher": "Startup and shutdown with 1ms work per service",
}

var scenarioOrder = []string{
	"Provide_Launcher",
	"Resolve_Process",
	"Startup_Launcher",
	"StartupWithWork_Launcher",
}

var frameworkColors = map[string]text.Colors{
	"Registry":         {text.FgGreen},
	"RegistryParallel": {text.FgCyan},
	"Do":               {text.FgYellow},
	"Dig":              {text.FgMagenta},
	"Fx":               {text.FgBlue},
}

var benchLine = regexp.MustCompile(`^Benchmark(\w+)_(\w+)-\d+\s+\d+\s+([\d.]+) ns/op\s+(\d+) B/op\s+(\d+) allocs/op`)

func main() {
	dir := flag.String("dir", "..", "directory holding the benchmark package")
	jsonOut := flag.String("json", "", "also write averaged results to this file")
	count := flag.Int("count", 3, "runs per benchmark")
	flag.Parse()

	cmd := exec.Command("go", "test", "-run=^$", "-bench=.", "-benchmem", "-count="+strconv.Itoa(*count), "-benchtime=100ms")
	cmd.Dir = *dir
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintf(os.Stderr, "benchmarks failed: %s\n", exitErr.Stderr)
		} else {
			fmt.Fprintf(os.Stderr, "benchmarks failed: %v\n", err)
		}
		os.Exit(1)
	}

	results := parse(bytes.NewReader(output))
	scenarios := group(results)
	for _, name := range orderedScenarios(scenarios) {
		render(os.Stdout, name, scenarios[name])
	}
	renderWins(os.Stdout, scenarios)

	if *jsonOut != "" {
		if err := export(*jsonOut, results); err != nil {
			fmt.Fprintf(os.Stderr, "export: %v\n", err)
			os.Exit(1)
		}
	}
}

// parse averages repeated runs of the same benchmark.
func parse(r io.Reader) []Result {
	runs := make(map[string][]Result)
	var names []string

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		m := benchLine.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}
		scenario, framework := m[1], m[2]
		ns, _ := strconv.ParseFloat(m[3], 64)
		bytesOp, _ := strconv.ParseInt(m[4], 10, 64)
		allocs, _ := strconv.ParseInt(m[5], 10, 64)

		name := scenario + "_" + framework
		if _, ok := runs[name]; !ok {
			names = append(names, name)
		}
		runs[name] = append(
			runs[name], Result{
				Name:       name,
				Framework:  framework,
				Scenario:   scenario,
				NsPerOp:    ns,
				BytesPerOp: bytesOp,
				AllocsOp:   allocs,
			},
		)
	}

	results := make([]Result, 0, len(names))
	for _, name := range names {
		rs := runs[name]
		avg := rs[0]
		var ns float64
		var bytesOp, allocs int64
		for _, r := range rs {
			ns += r.NsPerOp
			bytesOp += r.BytesPerOp
			allocs += r.AllocsOp
		}
		n := int64(len(rs))
		avg.NsPerOp = ns / float64(n)
		avg.BytesPerOp = bytesOp / n
		avg.AllocsOp = allocs / n
		results = append(results, avg)
	}
	return results
}

func group(results []Result) map[string][]Result {
	scenarios := make(map[string][]Result)
	for _, r := range results {
		scenarios[r.Scenario] = append(scenarios[r.Scenario], r)
	}
	for _, rs := range scenarios {
		sort.Slice(rs, func(i, j int) bool { return rs[i].NsPerOp < rs[j].NsPerOp })
	}
	return scenarios
}

func orderedScenarios(scenarios map[string][]Result) []string {
	var ordered []string
	for _, name := range scenarioOrder {
		if _, ok := scenarios[name]; ok {
			ordered = append(ordered, name)
		}
	}
	var rest []string
	for name := range scenarios {
		if !slices.Contains(scenarioOrder, name) {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(ordered, rest...)
}

func render(w io.Writer, scenario string, results []Result) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)

	title := scenarioTitles[scenario]
	if title == "" {
		title = strings.ReplaceAll(scenario, "_", " ")
	}
	t.SetTitle(title)
	t.AppendHeader(table.Row{"Framework", "Time/op", "Bytes/op", "Allocs/op", "Relative"})

	fastest := results[0].NsPerOp
	for i, r := range results {
		relative := "fastest"
		if i > 0 && fastest > 0 {
			relative = fmt.Sprintf("%.1fx", r.NsPerOp/fastest)
		}
		t.AppendRow(table.Row{colorize(r.Framework), formatNs(r.NsPerOp), r.BytesPerOp, r.AllocsOp, relative})
	}

	t.SetColumnConfigs(
		[]table.ColumnConfig{
			{Number: 2, Align: text.AlignRight},
			{Number: 3, Align: text.AlignRight},
			{Number: 4, Align: text.AlignRight},
			{Number: 5, Align: text.AlignRight},
		},
	)
	t.Render()
	_, _ = fmt.Fprintln(w)
}

func renderWins(w io.Writer, scenarios map[string][]Result) {
	wins := make(map[string]int)
	for _, rs := range scenarios {
		wins[rs[0].Framework]++
	}

	frameworks := make([]string, 0, len(wins))
	for name := range wins {
		frameworks = append(frameworks, name)
	}
	sort.Slice(
		frameworks, func(i, j int) bool {
			if wins[frameworks[i]] != wins[frameworks[j]] {
				return wins[frameworks[i]] > wins[frameworks[j]]
			}
			return frameworks[i] < frameworks[j]
		},
	)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.SetTitle("Fastest per scenario")
	t.AppendHeader(table.Row{"Framework", "Wins"})
	for _, name := range frameworks {
		t.AppendRow(table.Row{colorize(name), fmt.Sprintf("%d/%d", wins[name], len(scenarios))})
	}
	t.Render()
}

func colorize(framework string) string {
	if c, ok := frameworkColors[framework]; ok {
		return c.Sprint(framework)
	}
	return framework
}

func formatNs(ns float64) string {
	switch {
	case ns >= 1_000_000:
		return fmt.Sprintf("%.2f ms", ns/1_000_000)
	case ns >= 1_000:
		return fmt.Sprintf("%.2f µs", ns/1_000)
	default:
		return fmt.Sprintf("%.0f ns", ns)
	}
}

func export(path string, results []Result) error {
	data, err := json.MarshalIndent(struct {
		Benchmarks []Result `json:"benchmarks"`
	}{results}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
