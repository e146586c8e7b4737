package fetch

import (
	"fmt"
	"strings"
	"sync"

	"sactech-events/internal/domain/entity"
)

// Kind describes one registered source kind.
type Kind struct {
	ID    string
	Label string
	New   Constructor
}

// Registry maps source kind IDs to adapter constructors.
//
// It is populated at startup. Register may be called by any package until
// Seal, which the orchestrator calls before its first fetch.
type Registry struct {
	mu     sync.RWMutex
	kinds  map[string]Kind
	order  []string
	sealed bool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{kinds: make(map[string]Kind)}
}

// Register adds a source kind.
func (r *Registry) Register(id, label string, ctor Constructor) error {
	id = strings.TrimSpace(id)
	if id == "" || ctor == nil {
		return fmt.Errorf("register kind %q: id and constructor are required", id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return fmt.Errorf("register kind %q: %w", id, ErrRegistrySealed)
	}
	if _, ok := r.kinds[id]; ok {
		return fmt.Errorf("register kind %q: %w", id, ErrDuplicateKind)
	}
	r.kinds[id] = Kind{ID: id, Label: label, New: ctor}
	r.order = append(r.order, id)
	return nil
}

// Seal stops further registration. Safe to call more than once.
func (r *Registry) Seal() {
	r.mu.Lock()
	r.sealed = true
	r.mu.Unlock()
}

// Lookup returns the kind registered under id.
func (r *Registry) Lookup(id string) (Kind, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	k, ok := r.kinds[id]
	return k, ok
}

// Kinds returns registered kinds in registration order.
func (r *Registry) Kinds() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Kind, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.kinds[id])
	}
	return out
}

// NewAdapter instantiates the adapter for src.Kind.
func (r *Registry) NewAdapter(src *entity.Source, cfg AdapterConfig) (Adapter, error) {
	k, ok := r.Lookup(src.Kind)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, src.Kind)
	}
	return k.New(src, cfg.WithDefaults())
}
