// Package output renders organization results in the formats selectable
// with --output (pretty, plain, json, yaml).
//
// Formatters are kept in a registry so the CLI can look them up by name:
//
//	formatter, err := output.Get("pretty")
//	if err != nil {
//	    return err
//	}
//	var buf bytes.Buffer
//	if err := formatter.Format(&buf, result); err != nil {
//	    return err
//	}
//	fmt.Print(buf.String())
package output

import (
	"bytes"
	"fmt"
	"sort"
	"sync"

	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

// Formatter is the interface that all output formatters must implement.
type Formatter interface {
	// Format writes the rendered result to the buffer.
	Format(w *bytes.Buffer, r *types.OrganizationResult) error
}

// FormatterFactory is a function that creates a new Formatter instance.
type FormatterFactory func() Formatter

// Registry manages formatter registration and lookup.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]FormatterFactory
}

// NewRegistry creates a new formatter registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]FormatterFactory),
	}
}

// Register adds a formatter factory to the registry.
// It will replace any existing formatter with the same name.
func (r *Registry) Register(name string, factory FormatterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get returns a new formatter instance by name.
func (r *Registry) Get(name string) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown output format: %s", name)
	}
	return factory(), nil
}

// Available returns a sorted list of all registered formatter names.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry is the global formatter registry.
var DefaultRegistry = NewRegistry()

// Register adds a formatter factory to the default registry.
func Register(name string, factory FormatterFactory) {
	DefaultRegistry.Register(name, factory)
}

// Get returns a new formatter instance from the default registry.
func Get(name string) (Formatter, error) {
	return DefaultRegistry.Get(name)
}

// Available returns all formatter names from the default registry.
func Available() []string {
	return DefaultRegistry.Available()
}

// counter is one labelled line of a report.
type counter struct {
	Label string
	Value int
}

// counters lists the report lines in display order. Optional lines are
// omitted the same way the run summary omits them.
func counters(r *types.OrganizationResult) []counter {
	out := []counter{
		{"Total files scanned", r.TotalFilesScanned},
		{"Duplicate groups", r.DuplicateGroupsFound},
		{"Duplicates removed", r.DuplicatesRemoved},
		{"Versions preserved", r.VersionsPreserved},
		{"Files moved", r.FilesMoved},
	}
	if r.FilesRenamed > 0 {
		out = append(out, counter{"Files renamed", r.FilesRenamed})
	}
	out = append(out, counter{"Uncategorized files", r.UncategorizedFiles})
	if r.SubdirectoryCleanup && r.SubfolderDuplicateGroups > 0 {
		out = append(out,
			counter{"Subfolder duplicate groups", r.SubfolderDuplicateGroups},
			counter{"Subfolder duplicates removed", r.SubfolderDuplicatesRemoved},
		)
	}
	return out
}
