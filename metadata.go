package keel

import (
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/junioryono/keel/internal/reflection"
)

// HintKind discriminates metadata hints.
type HintKind uint8

const (
	// HintInject resolves a parameter from an id.
	HintInject HintKind = iota + 1
	// HintTagged resolves a parameter from a tagged collection.
	HintTagged
	// HintValue binds a parameter to a literal.
	HintValue
	// HintParamNames names the positional parameters of a function.
	HintParamNames
	// HintFactory builds a type through a factory.
	HintFactory
	// HintConstructor builds a type through a constructor function.
	HintConstructor
	// HintService resolves an interface type through another id.
	HintService
	// HintTag adds a tag to a discovered definition.
	HintTag
	// HintSetup adds a setup call to a discovered definition.
	HintSetup
	// HintLifetime sets the lifetime of a discovered definition.
	HintLifetime
	// HintPriorityMethod sets the default priority method of a discovered definition.
	HintPriorityMethod
)

// Hint is a metadata record about a target. Parameter hints address a
// parameter by name or by "#<index>".
type Hint struct {
	Kind     HintKind
	Param    string
	ID       string
	Value    any
	Tagged   *TaggedDefinition
	Names    []string
	Tag      Tag
	Setup    SetupCall
	Lifetime Lifetime
	Method   string
	Type     reflect.Type
	Static   bool
	Func     reflect.Value
}

// InjectHint resolves param from id.
func InjectHint(param, id string) Hint {
	return Hint{Kind: HintInject, Param: param, ID: id}
}

// TaggedHint resolves param from a tagged collection.
func TaggedHint(param string, def *TaggedDefinition) Hint {
	return Hint{Kind: HintTagged, Param: param, Tagged: def}
}

// ValueHint binds param to v.
func ValueHint(param string, v any) Hint {
	return Hint{Kind: HintValue, Param: param, Value: v}
}

// NamesHint names the positional parameters of a function.
func NamesHint(names ...string) Hint {
	return Hint{Kind: HintParamNames, Names: names}
}

// FactoryHint builds the hinted type by invoking method on factoryType.
func FactoryHint(factoryType reflect.Type, method string, static bool) Hint {
	return Hint{Kind: HintFactory, Type: factoryType, Method: method, Static: static}
}

// ConstructorHint builds the hinted type with fn.
func ConstructorHint(fn any) Hint {
	return Hint{Kind: HintConstructor, Func: reflect.ValueOf(fn)}
}

// ServiceHint resolves the hinted type through id.
func ServiceHint(id string) Hint {
	return Hint{Kind: HintService, ID: id}
}

// TagHint adds a tag to the hinted type's discovered definition.
func TagHint(name string, opts ...TagOption) Hint {
	return Hint{Kind: HintTag, Tag: NewTag(name, opts...)}
}

// SetupHint adds a setup call to the hinted type's discovered definition.
func SetupHint(priority int, method string, args ...any) Hint {
	return Hint{Kind: HintSetup, Setup: SetupCall{Method: method, Priority: priority, Args: toArgs(args)}}
}

// LifetimeHint sets the lifetime of the hinted type's discovered definition.
func LifetimeHint(l Lifetime) Hint {
	return Hint{Kind: HintLifetime, Lifetime: l}
}

// PriorityMethodHint sets the default priority method of the hinted type.
func PriorityMethodHint(method string) Hint {
	return Hint{Kind: HintPriorityMethod, Method: method}
}

// Target identifies what a MetadataProvider is asked about.
type Target struct {
	// Type is the hinted type, the receiver of Method, or the struct being injected.
	Type reflect.Type

	// Method is set for method targets.
	Method string

	// Func is set for function targets.
	Func reflect.Value
}

// FuncTarget targets a function value.
func FuncTarget(fn reflect.Value) Target {
	return Target{Func: fn}
}

// TypeTarget targets a type.
func TypeTarget(t reflect.Type) Target {
	return Target{Type: t}
}

// MethodTarget targets the method name of t.
func MethodTarget(t reflect.Type, name string) Target {
	return Target{Type: t, Method: name}
}

func (t Target) isFunc() bool {
	return t.Func.IsValid() && t.Func.Kind() == reflect.Func && !t.Func.IsNil()
}

// MetadataProvider yields the hints recorded for a target, in order.
type MetadataProvider interface {
	Hints(target Target) []Hint
}

// Providers chains providers. Hints are concatenated in provider order.
func Providers(ps ...MetadataProvider) MetadataProvider {
	return chain(ps)
}

type chain []MetadataProvider

func (c chain) Hints(target Target) []Hint {
	var hints []Hint
	for _, p := range c {
		if p != nil {
			hints = append(hints, p.Hints(target)...)
		}
	}
	return hints
}

// Annotations is a programmatic MetadataProvider keyed by function, type, or method.
type Annotations struct {
	mu      sync.RWMutex
	funcs   map[uintptr][]Hint
	types   map[reflect.Type][]Hint
	methods map[methodKey][]Hint
}

type methodKey struct {
	t    reflect.Type
	name string
}

// NewAnnotations creates an empty annotation set.
func NewAnnotations() *Annotations {
	return &Annotations{
		funcs:   make(map[uintptr][]Hint),
		types:   make(map[reflect.Type][]Hint),
		methods: make(map[methodKey][]Hint),
	}
}

// Func annotates a function.
func (a *Annotations) Func(fn any, hints ...Hint) *Annotations {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return a
	}
	a.mu.Lock()
	a.funcs[v.Pointer()] = append(a.funcs[v.Pointer()], hints...)
	a.mu.Unlock()
	return a
}

// Type annotates a type.
func (a *Annotations) Type(t reflect.Type, hints ...Hint) *Annotations {
	a.mu.Lock()
	a.types[t] = append(a.types[t], hints...)
	a.mu.Unlock()
	return a
}

// Method annotates the method name of t.
func (a *Annotations) Method(t reflect.Type, name string, hints ...Hint) *Annotations {
	k := methodKey{t: t, name: name}
	a.mu.Lock()
	a.methods[k] = append(a.methods[k], hints...)
	a.mu.Unlock()
	return a
}

// Hints implements MetadataProvider.
func (a *Annotations) Hints(target Target) []Hint {
	a.mu.RLock()
	defer a.mu.RUnlock()

	switch {
	case target.isFunc():
		return a.funcs[target.Func.Pointer()]
	case target.Method != "":
		return a.methods[methodKey{t: target.Type, name: target.Method}]
	case target.Type != nil:
		return a.types[target.Type]
	}
	return nil
}

// StructTags turns inject and tagged struct tags into hints. It covers the
// fields of dig.In param objects and of structs built by field injection.
//
//	type Params struct {
//	    keel.In
//
//	    Primary  *sql.DB   `inject:"db.primary"`
//	    Handlers []Handler `tagged:"http.handlers"`
//	}
type StructTags struct{}

// Hints implements MetadataProvider.
func (StructTags) Hints(target Target) []Hint {
	var st reflect.Type
	switch {
	case target.isFunc():
		ft := target.Func.Type()
		if ft.NumIn() != 1 || !reflection.IsParamObject(ft.In(0)) {
			return nil
		}
		st = ft.In(0)
	case target.Method == "" && target.Type != nil:
		st = structType(target.Type)
	}
	if st == nil {
		return nil
	}

	var hints []Hint
	for i := range st.NumField() {
		field := st.Field(i)
		if !field.IsExported() {
			continue
		}
		if id, ok := field.Tag.Lookup("inject"); ok && id != "" && id != "-" {
			hints = append(hints, InjectHint(field.Name, id))
		}
		if tag, ok := field.Tag.Lookup("tagged"); ok && tag != "" {
			hints = append(hints, TaggedHint(field.Name, Tagged(tag, taggedTagOptions(field.Tag)...)))
		}
	}
	return hints
}

// taggedTagOptions reads the lazy and keyed modifiers of a tagged field.
func taggedTagOptions(tag reflect.StructTag) []DefinitionOption {
	var opts []DefinitionOption
	if v, ok := tag.Lookup("lazy"); ok {
		if b, _ := strconv.ParseBool(v); b {
			opts = append(opts, Lazy())
		}
	}
	if v, ok := tag.Lookup("keyed"); ok {
		if b, _ := strconv.ParseBool(v); b {
			opts = append(opts, UseKeys())
		}
	}
	if v, ok := tag.Lookup("exclude"); ok && v != "" {
		opts = append(opts, Exclude(strings.Split(v, ",")...))
	}
	return opts
}

// paramHints returns the hints addressed to p, in order.
func paramHints(hints []Hint, name string, index int) []Hint {
	var out []Hint
	pos := "#" + strconv.Itoa(index)
	for _, h := range hints {
		switch h.Kind {
		case HintInject, HintTagged, HintValue:
			if h.Param == pos || (name != "" && h.Param == name) {
				out = append(out, h)
			}
		}
	}
	return out
}

// hintedNames returns the last parameter names hint.
func hintedNames(hints []Hint) []string {
	var names []string
	for _, h := range hints {
		if h.Kind == HintParamNames {
			names = h.Names
		}
	}
	return names
}
