package keel

import (
	"fmt"
	"reflect"
)

// Module is a registration step applied to a Registry.
type Module func(*Registry) error

// NewModule groups registrations under a name. Errors from any step are
// wrapped in a ModuleError naming the module.
//
// Example:
//
//	var StorageModule = keel.NewModule("storage",
//	    keel.Provide(
//	        keel.Construct(NewDatabase, keel.AsSingleton()),
//	        keel.Construct(NewUserRepository),
//	    ),
//	)
//
//	var AppModule = keel.NewModule("app",
//	    StorageModule,
//	    keel.Provide(keel.Value("app.name", "billing")),
//	)
func NewModule(name string, modules ...Module) Module {
	return func(r *Registry) error {
		for _, m := range modules {
			if m == nil {
				continue
			}

			if err := m(r); err != nil {
				return ModuleError{Module: name, Cause: err}
			}
		}

		return nil
	}
}

// Provide registers definitions in order.
func Provide(defs ...Definition) Module {
	return func(r *Registry) error {
		return r.Add(defs...)
	}
}

// Alias registers id as a reference to target.
func Alias(id, target string) Module {
	return Provide(Reference(id, target))
}

// As registers def and makes it available under the TypeID of each interface.
// As expects pointers to the implemented interfaces.
//
//	keel.As(keel.Construct(newBuffer), new(io.Reader), new(io.Writer))
func As(def Definition, ifaces ...any) Module {
	return func(r *Registry) error {
		if err := r.Add(def); err != nil {
			return err
		}

		for _, i := range ifaces {
			t := reflect.TypeOf(i)
			if t == nil || t.Kind() != reflect.Pointer || t.Elem().Kind() != reflect.Interface {
				return DefinitionError{ID: def.ID(), Cause: fmt.Errorf("invalid As(%v): argument must be a pointer to an interface", t)}
			}

			if err := r.Add(Reference(TypeID(t.Elem()), def.ID())); err != nil {
				return err
			}
		}

		return nil
	}
}

// Build applies modules to a new registry.
func Build(modules ...Module) (*Registry, error) {
	r, _ := NewRegistry()
	for _, m := range modules {
		if m == nil {
			continue
		}
		if err := m(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}
