package keel

import (
	"reflect"

	"github.com/junioryono/keel/internal/reflection"
)

// SourceKind identifies where a parameter's value comes from.
type SourceKind uint8

const (
	// SourceBound values come from arguments bound on the definition or call.
	SourceBound SourceKind = iota + 1
	// SourceHint values come from metadata hints.
	SourceHint
	// SourceContainer values are resolved by the parameter type's id.
	SourceContainer
	// SourceGetter parameters receive the container itself.
	SourceGetter
	// SourceDefault values are the parameter's default or zero value.
	SourceDefault
	// SourceNone marks a variadic parameter nothing matched.
	SourceNone
)

// String returns the string representation of the SourceKind.
func (k SourceKind) String() string {
	switch k {
	case SourceBound:
		return "bound"
	case SourceHint:
		return "hint"
	case SourceContainer:
		return "container"
	case SourceGetter:
		return "getter"
	case SourceDefault:
		return "default"
	case SourceNone:
		return "none"
	default:
		return "unknown"
	}
}

// ParamPlan records the decision taken for one parameter.
type ParamPlan struct {
	Param  reflection.Param
	Source SourceKind

	// Values holds bound or hinted values (plain values or nested
	// Definitions), or the single default value.
	Values []any

	// ID is the id resolved for SourceContainer.
	ID string
}

// Invocation describes a call whose arguments are to be resolved.
type Invocation struct {
	Signature *reflection.Signature
	Target    Target
	Args      Args

	// Names names positional parameters. Metadata names apply when empty.
	Names []string

	// Defaults returns definition level parameter defaults.
	Defaults func(param string) (any, bool)
}

// Lookup answers the questions argument resolution asks of a container.
type Lookup interface {
	// HasDefinition reports whether id has an explicit definition.
	HasDefinition(id string) bool

	// CanDiscover reports whether t can be built without a definition.
	CanDiscover(t reflect.Type) bool
}

var getterType = reflect.TypeFor[Getter]()

// ArgumentResolver decides, for each parameter of a call, which source
// supplies its value. Sources are tried in strict order: bound argument,
// metadata hint, container auto-resolution by type, the parameter's default.
//
// Planning has no side effects. The Container executes plans; the compiler
// emits code from them, so both honor the same priority rules.
type ArgumentResolver struct {
	provider MetadataProvider
}

// NewArgumentResolver creates a resolver reading hints from p.
func NewArgumentResolver(p MetadataProvider) *ArgumentResolver {
	if p == nil {
		p = Providers()
	}
	return &ArgumentResolver{provider: p}
}

// Provider returns the metadata provider.
func (r *ArgumentResolver) Provider() MetadataProvider {
	return r.provider
}

// Plan decides the source of every parameter of inv.
func (r *ArgumentResolver) Plan(inv Invocation, lookup Lookup) ([]ParamPlan, error) {
	hints := r.provider.Hints(inv.Target)

	names := inv.Names
	if len(names) == 0 {
		names = hintedNames(hints)
	}
	sig := inv.Signature.WithNames(names)

	if err := checkBound(sig, inv.Args); err != nil {
		return nil, err
	}

	positional := inv.Args.Positional()
	plans := make([]ParamPlan, len(sig.Params))
	for i, p := range sig.Params {
		plan := ParamPlan{Param: p}

		switch {
		case p.Variadic:
			var bound []any
			if i < len(positional) {
				bound = append(bound, positional[i:]...)
			}
			if p.Name != "" {
				bound = append(bound, inv.Args.Lookup(p.Name)...)
			}
			hinted := hintValues(paramHints(hints, p.Name, i))
			switch {
			case len(bound) > 0:
				plan.Source, plan.Values = SourceBound, append(bound, hinted...)
			case len(hinted) > 0:
				plan.Source, plan.Values = SourceHint, hinted
			default:
				plan.Source = SourceNone
			}

		case i < len(positional):
			plan.Source, plan.Values = SourceBound, []any{positional[i]}

		case p.Name != "" && len(inv.Args.Lookup(p.Name)) > 0:
			named := inv.Args.Lookup(p.Name)
			plan.Source, plan.Values = SourceBound, named[len(named)-1:]

		default:
			if hinted := paramHints(hints, p.Name, i); len(hinted) > 0 {
				plan.Source, plan.Values = SourceHint, hintValues(hinted[:1])
				break
			}
			if p.Type == getterType {
				plan.Source = SourceGetter
				break
			}
			if id := TypeID(p.Type); lookup != nil && (lookup.HasDefinition(id) || lookup.CanDiscover(p.Type)) {
				plan.Source, plan.ID = SourceContainer, id
				break
			}
			if v, ok := paramDefault(inv, p); ok {
				plan.Source, plan.Values = SourceDefault, []any{v}
				break
			}
			return nil, UnresolvableDependencyError{
				Param:    p.Label(),
				Function: sig.Name,
				Location: sig.Location,
			}
		}

		plans[i] = plan
	}
	return plans, nil
}

func paramDefault(inv Invocation, p reflection.Param) (any, bool) {
	if inv.Defaults != nil && p.Name != "" {
		if v, ok := inv.Defaults(p.Name); ok {
			return v, true
		}
	}
	if p.HasDefault {
		return p.Default, true
	}
	if p.Optional {
		return nil, true
	}
	return nil, false
}

// checkBound rejects positional arguments beyond the parameter list and
// names that match no parameter.
func checkBound(sig *reflection.Signature, args Args) error {
	positional := len(args.Positional())
	if !sig.Variadic && positional > len(sig.Params) {
		return TooManyArgumentsError{Function: sig.Name, Given: positional, Accepted: len(sig.Params)}
	}

	var unknown []string
	for _, name := range args.Names() {
		found := false
		for _, p := range sig.Params {
			if p.Name == name {
				found = true
				break
			}
		}
		if !found {
			unknown = append(unknown, "$"+name)
		}
	}
	if len(unknown) > 0 {
		return TooManyArgumentsError{Function: sig.Name, Given: positional, Accepted: len(sig.Params), Unknown: unknown}
	}
	return nil
}

func hintValues(hints []Hint) []any {
	values := make([]any, 0, len(hints))
	for _, h := range hints {
		switch h.Kind {
		case HintInject:
			values = append(values, Ref(h.ID))
		case HintTagged:
			values = append(values, h.Tagged)
		case HintValue:
			values = append(values, h.Value)
		}
	}
	return values
}
