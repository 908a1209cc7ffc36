// Package engine provides table-extraction backends behind one uniform
// interface. Backends locate tables in a PDF and return raw cell grids;
// they know nothing about header policies, cleanup, or the table store.
package engine

import (
	"fmt"
	"sort"
)

// Engine identifiers. The set is closed: callers select one of these by
// name and unknown names fall back to the default.
const (
	EngineTabula        = "tabula"
	EngineTabulaLattice = "tabula-lattice"
	EngineTextGrid      = "textgrid"

	// DefaultEngine is used when no engine is requested or the requested
	// one is unavailable.
	DefaultEngine = EngineTabula
)

// Source is the document handed to a backend. Data always holds the full
// PDF bytes; Path is set only for backends that report NeedsFile, and
// points at a temporary file owned by the caller.
type Source struct {
	Data []byte
	Path string
}

// RawTable is one table as reported by a backend, before any
// normalization. Page is the 1-indexed physical page the backend
// attributes the table to, or 0 when the backend cannot tell.
type RawTable struct {
	Page  int
	Cells [][]string
}

// Backend locates tables in a PDF document.
type Backend interface {
	// Name returns the engine identifier.
	Name() string

	// Available reports whether the backend can run in this process.
	Available() bool

	// NeedsFile reports whether ReadTables requires Source.Path to be set.
	NeedsFile() bool

	// ReadTables extracts raw tables from the requested pages. Pages are
	// 0-indexed; nil means all pages. Implementations translate to their
	// own indexing convention internally.
	ReadTables(src Source, pages []int) ([]RawTable, error)
}

// Registry holds the known backends and resolves engine names, falling
// back to the default engine for unknown or unavailable ones.
type Registry struct {
	backends map[string]Backend
	fallback string
}

// NewRegistry creates an empty registry with the given fallback engine.
func NewRegistry(fallback string) *Registry {
	return &Registry{
		backends: make(map[string]Backend),
		fallback: fallback,
	}
}

// DefaultRegistry returns a registry with all built-in backends.
func DefaultRegistry() *Registry {
	r := NewRegistry(DefaultEngine)
	r.Register(NewTabulaBackend())
	r.Register(NewTabulaLatticeBackend())
	r.Register(NewTextGridBackend())
	return r
}

// Register adds a backend, replacing any previous one with the same name.
func (r *Registry) Register(b Backend) {
	r.backends[b.Name()] = b
}

// Names returns the registered engine names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.backends))
	for name := range r.backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Fallback returns the registry's fallback engine name.
func (r *Registry) Fallback() string {
	return r.fallback
}

// Resolve returns the backend for name. When name is unknown or the
// backend reports itself unavailable, the fallback backend is returned
// together with a human-readable notice; Resolve never fails as long as
// the fallback itself is usable.
func (r *Registry) Resolve(name string) (Backend, string, error) {
	if name == "" {
		name = r.fallback
	}

	if b, ok := r.backends[name]; ok && b.Available() {
		return b, "", nil
	}

	notice := fmt.Sprintf("engine %q is not available, falling back to %q", name, r.fallback)
	if _, known := r.backends[name]; !known {
		notice = fmt.Sprintf("unknown engine %q, falling back to %q", name, r.fallback)
	}

	fb, ok := r.backends[r.fallback]
	if !ok || !fb.Available() {
		return nil, "", fmt.Errorf("fallback engine %q is not available", r.fallback)
	}
	return fb, notice, nil
}
