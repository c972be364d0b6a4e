package cleaner

import (
	"fmt"
	"sort"
	"sync"
)

// Factory constructs a fresh Cleaner instance. A fresh instance per
// invocation keeps per-run configuration (e.g. noise columns) from leaking
// across concurrent chunks, mirroring how the teacher's
// PipelineItemRegistry materializes a new PipelineItem per Summon() call.
type Factory func() Cleaner

// Registry maps a format name to the Factory which builds its Cleaner.
// Grounded in the teacher's internal/core.PipelineItemRegistry, simplified
// to a plain map: with three formats instead of dozens of analyses, the
// teacher's reflect/unsafe flag-wiring machinery has no work to do here.
type Registry struct {
	mu        sync.Mutex
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{}}
}

// Register adds a named Factory. A later call with the same name replaces
// the earlier one.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

// Get builds a Cleaner for the named format, or reports it unknown.
func (r *Registry) Get(name string) (Cleaner, bool) {
	r.mu.Lock()
	f, ok := r.factories[name]
	r.mu.Unlock()
	if !ok {
		return nil, false
	}
	return f(), true
}

// Names lists the registered format names in sorted order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Default is the registry concrete cleaners in this package register
// themselves into at init() time.
var Default = NewRegistry()

// Register adds a named Factory to Default.
func Register(name string, f Factory) { Default.Register(name, f) }

// Get builds a Cleaner by name from Default, reporting an error in the
// style expected at the CLI boundary when the name is unknown.
func Get(name string) (Cleaner, error) {
	c, ok := Default.Get(name)
	if !ok {
		return nil, fmt.Errorf("unknown cleaner %q (known: %v)", name, Default.Names())
	}
	return c, nil
}

// Names lists Default's registered format names in sorted order.
func Names() []string { return Default.Names() }
