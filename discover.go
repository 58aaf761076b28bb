package keel

import (
	"reflect"
)

// Discover builds the zero-configuration definition of t from its metadata
// hints. A service hint yields a Reference, a factory hint a Factory, and a
// named struct or pointer to one an Autowire definition. Other types cannot
// be discovered.
func Discover(t reflect.Type, provider MetadataProvider) (Definition, bool) {
	if t == nil {
		return nil, false
	}

	var hints []Hint
	if provider != nil {
		hints = provider.Hints(TypeTarget(t))
	}

	id := TypeID(t)
	opts := discoveredOptions(hints)

	for _, h := range hints {
		switch h.Kind {
		case HintService:
			return Reference(id, h.ID, opts...), true
		case HintFactory:
			if h.Method != "" {
				opts = append(opts, FactoryMethod(h.Method))
			}
			if h.Static {
				opts = append(opts, Static())
			}
			return Factory(id, h.Type, opts...), true
		}
	}

	if structType(t) == nil || structType(t).Name() == "" {
		return nil, false
	}

	for _, h := range hints {
		switch h.Kind {
		case HintConstructor:
			opts = append(opts, Constructor(h.Func.Interface()))
		case HintSetup:
			opts = append(opts, SetupAt(h.Setup.Priority, h.Setup.Method, h.Setup.Args))
		}
	}

	def := Autowire(t, opts...)
	if def.Validate() != nil {
		return nil, false
	}
	return def, true
}

// discoveredOptions maps the hints shared by every discovered kind to options.
func discoveredOptions(hints []Hint) []DefinitionOption {
	var opts []DefinitionOption
	for _, h := range hints {
		switch h.Kind {
		case HintTag:
			tag := h.Tag.clone()
			opts = append(opts, func(o *defOptions) { o.tags = append(o.tags, tag) })
		case HintLifetime:
			opts = append(opts, WithLifetime(h.Lifetime))
		case HintPriorityMethod:
			opts = append(opts, DefaultPriorityMethod(h.Method))
		}
	}
	return opts
}
