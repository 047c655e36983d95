// Command validate checks a directory of graph snapshots: file names match
// their timestamps and every graph is internally consistent. Given the
// export the snapshots were built from, it also rebuilds them in memory and
// requires byte-identical files.
//
// Usage:
//
//	go run ./cmd/validate --output-dir out/ --input data/mock/counties.json
package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/couchcryptid/county-graph-etl/internal/adapter/jsonfile"
	"github.com/couchcryptid/county-graph-etl/internal/domain"
	goflags "github.com/jessevdk/go-flags"
)

type options struct {
	OutputDir string `long:"output-dir" required:"yes" description:"Directory of snapshot files"`
	Input     string `long:"input" description:"Export the snapshots were built from; enables the rebuild check"`
	Compact   bool   `long:"compact" description:"Snapshots were written as compact JSON"`
}

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	var opts options
	if _, err := goflags.Parse(&opts); err != nil {
		var flagsErr *goflags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == goflags.ErrHelp {
			return
		}
		os.Exit(1)
	}
	if code := run(opts); code != 0 {
		os.Exit(code)
	}
}

func run(opts options) int {
	files, err := loadSnapshots(opts.OutputDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load snapshots: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateParse(files),
		validateNames(files),
		validateGraphs(files),
	}
	if opts.Input != "" {
		phases = append(phases, validateRebuild(files, opts.Input, !opts.Compact))
	}

	fmt.Println()
	fmt.Println("=== Validation Results ===")
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}
	fmt.Printf("Snapshots: %d\n", len(files))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// snapshotFile is one file from the output directory.
type snapshotFile struct {
	name  string
	data  []byte
	graph domain.Graph
	err   error
}

func loadSnapshots(dir string) ([]*snapshotFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []*snapshotFile
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		f := &snapshotFile{name: e.Name(), data: data}
		f.graph, f.err = domain.UnmarshalGraph(data)
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out, nil
}

func validateParse(files []*snapshotFile) *phase {
	p := &phase{name: "Snapshots parse"}
	for _, f := range files {
		if f.err != nil {
			p.errorf("%s: %v", f.name, f.err)
		}
	}
	return p
}

func validateNames(files []*snapshotFile) *phase {
	p := &phase{name: "File names match timestamps"}
	seen := make(map[string]string)
	for _, f := range files {
		if f.err != nil {
			continue
		}
		if want := jsonfile.FileName(f.graph.Timestamp); f.name != want {
			p.errorf("%s: timestamp %q expects file %s", f.name, f.graph.Timestamp, want)
		}
		if prev, ok := seen[f.graph.Timestamp]; ok {
			p.errorf("%s: timestamp %q already used by %s", f.name, f.graph.Timestamp, prev)
		}
		seen[f.graph.Timestamp] = f.name
	}
	return p
}

func validateGraphs(files []*snapshotFile) *phase {
	p := &phase{name: "Graph consistency"}
	for _, f := range files {
		if f.err != nil {
			continue
		}
		if err := domain.CheckGraph(f.graph); err != nil {
			p.errorf("%s: %v", f.name, err)
		}
	}
	return p
}

// validateRebuild recomputes every snapshot from the export and compares the
// encoded bytes with what is on disk.
func validateRebuild(files []*snapshotFile, input string, pretty bool) *phase {
	p := &phase{name: "Rebuild from input is byte-identical"}

	data, err := os.ReadFile(input)
	if err != nil {
		p.errorf("read input: %v", err)
		return p
	}
	records, err := jsonfile.Decode(data)
	if err != nil {
		p.errorf("%v", err)
		return p
	}

	onDisk := make(map[string][]byte, len(files))
	for _, f := range files {
		onDisk[f.name] = f.data
	}

	agg := domain.Fold(records)
	for _, date := range agg.Dates() {
		g := domain.BuildGraph(date, agg[date])
		want, err := domain.MarshalGraph(g, pretty)
		if err != nil {
			p.errorf("%s: %v", g.Timestamp, err)
			continue
		}
		name := jsonfile.FileName(g.Timestamp)
		got, ok := onDisk[name]
		if !ok {
			p.errorf("%s: missing snapshot", name)
			continue
		}
		delete(onDisk, name)
		if !bytes.Equal(want, got) {
			p.errorf("%s: content differs from rebuild (%d bytes on disk, %d expected)", name, len(got), len(want))
		}
	}
	extra := make([]string, 0, len(onDisk))
	for name := range onDisk {
		extra = append(extra, name)
	}
	sort.Strings(extra)
	for _, name := range extra {
		p.errorf("%s: no matching date in input", name)
	}
	return p
}
