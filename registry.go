package keel

import (
	"iter"
	"maps"
	"slices"
	"strings"
)

// Registry is an ordered set of definitions keyed by id. Declaration order is
// preserved and drives tagged-collection tie breaking and compiled output order.
//
// A Registry is NOT thread-safe. It is populated during startup and then
// handed to New or to the compiler, which take their own copy.
type Registry struct {
	order []string
	defs  map[string]Definition
}

// NewRegistry creates a registry holding defs in order.
func NewRegistry(defs ...Definition) (*Registry, error) {
	r := &Registry{defs: make(map[string]Definition, len(defs))}
	if err := r.Add(defs...); err != nil {
		return nil, err
	}
	return r, nil
}

// Add registers definitions. An id that is already present is an error.
func (r *Registry) Add(defs ...Definition) error {
	for _, def := range defs {
		id, err := checkDefinition(def)
		if err != nil {
			return err
		}
		if _, exists := r.defs[id]; exists {
			return DefinitionError{ID: id, Cause: ErrDuplicateID}
		}
		r.order = append(r.order, id)
		r.defs[id] = def
	}
	return nil
}

// Set registers def, replacing any definition with the same id in place.
func (r *Registry) Set(def Definition) error {
	id, err := checkDefinition(def)
	if err != nil {
		return err
	}
	if _, exists := r.defs[id]; !exists {
		r.order = append(r.order, id)
	}
	r.defs[id] = def
	return nil
}

// Remove deletes id, reporting whether it was present.
func (r *Registry) Remove(id string) bool {
	if _, ok := r.defs[id]; !ok {
		return false
	}
	delete(r.defs, id)
	r.order = slices.DeleteFunc(r.order, func(s string) bool { return s == id })
	return true
}

// Lookup returns the definition registered under id.
func (r *Registry) Lookup(id string) (Definition, bool) {
	def, ok := r.defs[id]
	return def, ok
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	_, ok := r.defs[id]
	return ok
}

// IDs returns the registered ids in declaration order.
func (r *Registry) IDs() []string {
	return slices.Clone(r.order)
}

// Len returns the number of definitions.
func (r *Registry) Len() int {
	return len(r.order)
}

// All iterates the definitions in declaration order.
func (r *Registry) All() iter.Seq2[string, Definition] {
	return func(yield func(string, Definition) bool) {
		for _, id := range r.order {
			if !yield(id, r.defs[id]) {
				return
			}
		}
	}
}

// Clone returns a registry with the same definitions. Definitions are shared.
func (r *Registry) Clone() *Registry {
	return &Registry{
		order: slices.Clone(r.order),
		defs:  maps.Clone(r.defs),
	}
}

func checkDefinition(def Definition) (string, error) {
	if def == nil {
		return "", DefinitionError{Cause: ErrDefinitionNil}
	}
	id := strings.TrimSpace(def.ID())
	if id == "" {
		return "", DefinitionError{Cause: ErrInvalidID}
	}
	if err := def.Validate(); err != nil {
		return "", err
	}
	return id, nil
}
