package keel

import (
	"reflect"
	"sync"
)

// TypeID returns the canonical definition id of a type. Named types are
// identified by import path and name, pointers by a leading "*" per level.
//
//	TypeID(reflect.TypeFor[*app.Logger]()) // "*github.com/acme/app.Logger"
func TypeID(t reflect.Type) string {
	if t == nil {
		return ""
	}
	if t.Kind() == reflect.Pointer {
		return "*" + TypeID(t.Elem())
	}
	if t.Name() != "" && t.PkgPath() != "" {
		return t.PkgPath() + "." + t.Name()
	}
	return t.String()
}

// TypeIDOf returns TypeID for T.
func TypeIDOf[T any]() string {
	return TypeID(reflect.TypeFor[T]())
}

// TypeRegistry maps ids to types so that string ids can be resolved
// without an explicit definition.
type TypeRegistry struct {
	mu    sync.RWMutex
	types map[string]reflect.Type
}

// NewTypeRegistry creates a registry holding the given types under their TypeID.
func NewTypeRegistry(types ...reflect.Type) *TypeRegistry {
	r := &TypeRegistry{types: make(map[string]reflect.Type, len(types))}
	for _, t := range types {
		r.RegisterType(t)
	}
	return r
}

// RegisterType records t under its TypeID and returns that id.
func (r *TypeRegistry) RegisterType(t reflect.Type) string {
	if t == nil {
		return ""
	}

	id := TypeID(t)
	r.mu.Lock()
	r.types[id] = t
	r.mu.Unlock()
	return id
}

// Lookup returns the type recorded for id.
func (r *TypeRegistry) Lookup(id string) (reflect.Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.types[id]
	return t, ok
}

// Len returns the number of recorded types.
func (r *TypeRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.types)
}
