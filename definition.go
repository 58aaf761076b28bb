package keel

import (
	"cmp"
	"fmt"
	"go/token"
	"maps"
	"reflect"
	"slices"
	"strings"
)

// Kind discriminates the definition variants.
type Kind uint8

const (
	KindAutowire Kind = iota + 1
	KindFactory
	KindCallable
	KindValue
	KindReference
	KindProxy
	KindTagged
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindAutowire:
		return "Autowire"
	case KindFactory:
		return "Factory"
	case KindCallable:
		return "Callable"
	case KindValue:
		return "Value"
	case KindReference:
		return "Reference"
	case KindProxy:
		return "Proxy"
	case KindTagged:
		return "TaggedAs"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// IsBuiltin reports whether k is one of the kinds handled by keel itself.
func (k Kind) IsBuiltin() bool {
	return k >= KindAutowire && k <= KindTagged
}

// Definition is a recipe for producing the value registered under an id.
//
// The built-in variants are AutowireDefinition, FactoryDefinition,
// CallableDefinition, ValueDefinition, ReferenceDefinition, ProxyDefinition
// and TaggedDefinition. Other packages may add kinds by embedding Base;
// such definitions must implement Builder to be resolvable at runtime.
type Definition interface {
	ID() string
	Kind() Kind
	Lifetime() Lifetime
	Args() Args
	Tags() []Tag
	PriorityMethod() string
	ParamNames() []string
	Default(param string) (any, bool)
	Validate() error
}

// Builder is implemented by definitions of non built-in kinds.
type Builder interface {
	Build(g Getter) (any, error)
}

// Base holds the state shared by every definition kind.
type Base struct {
	id             string
	lifetime       Lifetime
	args           Args
	tags           []Tag
	priorityMethod string
	paramNames     []string
	defaults       map[string]any
	err            error
}

// NewBase returns a Base for a custom definition kind. Options specific to
// built-in kinds are rejected by Validate.
func NewBase(id string, opts ...DefinitionOption) Base {
	o := collect(id, opts)
	b := o.base()
	if bad := o.foreign(0); len(bad) > 0 {
		b.err = fmt.Errorf("options %s do not apply to custom definitions", strings.Join(bad, ", "))
	}
	return b
}

func (b *Base) ID() string { return b.id }

func (b *Base) Lifetime() Lifetime { return b.lifetime }

func (b *Base) Args() Args { return b.args }

func (b *Base) Tags() []Tag { return b.tags }

// PriorityMethod is the definition's default priority method for tagged collections.
func (b *Base) PriorityMethod() string { return b.priorityMethod }

// ParamNames names the positional parameters of the definition's function.
func (b *Base) ParamNames() []string { return b.paramNames }

// Default returns the default value configured for a parameter.
func (b *Base) Default(param string) (any, bool) {
	v, ok := b.defaults[param]
	return v, ok
}

// Validate reports configuration errors recorded while building the definition.
func (b *Base) Validate() error {
	if b.err != nil {
		return DefinitionError{ID: b.id, Cause: b.err}
	}
	if !b.lifetime.IsValid() {
		return DefinitionError{ID: b.id, Cause: LifetimeError{Value: int(b.lifetime)}}
	}
	for _, t := range b.tags {
		if t.Name == "" {
			return DefinitionError{ID: b.id, Cause: fmt.Errorf("tag name cannot be empty")}
		}
	}
	return nil
}

// HasTag reports whether def carries a tag called name, returning the first match.
func HasTag(def Definition, name string) (Tag, bool) {
	for _, t := range def.Tags() {
		if t.Name == name {
			return t, true
		}
	}
	return Tag{}, false
}

// SetupCall is a method invoked on an autowired instance after construction.
type SetupCall struct {
	Method   string
	Priority int
	Args     Args
}

// AutowireDefinition builds a type through its constructor, or by injecting
// tagged struct fields when no constructor is set, then applies setup calls.
type AutowireDefinition struct {
	Base
	typ         reflect.Type
	constructor reflect.Value
	setups      []SetupCall
}

// Autowire creates a definition that builds t. The id defaults to TypeID(t).
func Autowire(t reflect.Type, opts ...DefinitionOption) *AutowireDefinition {
	o := collect(TypeID(t), opts)
	d := &AutowireDefinition{
		Base:   o.base(),
		typ:    t,
		setups: o.setups,
	}
	if o.constructor != nil {
		d.constructor = reflect.ValueOf(o.constructor)
	}
	d.reject(o, KindAutowire)
	return d
}

// AutowireOf creates an Autowire definition for T.
func AutowireOf[T any](opts ...DefinitionOption) *AutowireDefinition {
	return Autowire(reflect.TypeFor[T](), opts...)
}

// Construct creates an Autowire definition for the first result type of fn,
// using fn as the constructor.
func Construct(fn any, opts ...DefinitionOption) *AutowireDefinition {
	t := resultType(reflect.TypeOf(fn))
	return Autowire(t, append([]DefinitionOption{Constructor(fn)}, opts...)...)
}

func (d *AutowireDefinition) Kind() Kind { return KindAutowire }

// Type returns the type being built.
func (d *AutowireDefinition) Type() reflect.Type { return d.typ }

// Constructor returns the constructor function, if any.
func (d *AutowireDefinition) Constructor() (reflect.Value, bool) {
	return d.constructor, d.constructor.IsValid()
}

// Setups returns the setup calls in declaration order.
func (d *AutowireDefinition) Setups() []SetupCall { return d.setups }

// OrderedSetups returns the setup calls sorted by priority, highest first.
// Calls with equal priority keep declaration order.
func (d *AutowireDefinition) OrderedSetups() []SetupCall {
	out := slices.Clone(d.setups)
	slices.SortStableFunc(out, func(a, b SetupCall) int {
		return cmp.Compare(b.Priority, a.Priority)
	})
	return out
}

func (d *AutowireDefinition) Validate() error {
	if err := d.Base.Validate(); err != nil {
		return err
	}
	if d.typ == nil {
		return DefinitionError{ID: d.id, Cause: fmt.Errorf("autowire type cannot be nil")}
	}
	if d.constructor.IsValid() {
		ct := d.constructor.Type()
		if ct.Kind() != reflect.Func || d.constructor.IsNil() {
			return DefinitionError{ID: d.id, Cause: fmt.Errorf("%w: constructor must be a non-nil function", ErrNotCallable)}
		}
		if rt := resultType(ct); rt == nil || !rt.AssignableTo(d.typ) {
			return DefinitionError{ID: d.id, Cause: TypeMismatchError{Expected: d.typ, Actual: rt, Context: "constructor result"}}
		}
	} else if structType(d.typ) == nil {
		return DefinitionError{ID: d.id, Cause: fmt.Errorf("%s needs a constructor: only structs can be built by field injection", formatType(d.typ))}
	}
	for _, s := range d.setups {
		if !token.IsExported(s.Method) {
			return DefinitionError{ID: d.id, Cause: AutowireError{Type: d.typ, Method: s.Method, Cause: ErrMethodNotPublic}}
		}
	}
	return nil
}

// FactoryDefinition builds a value by invoking a method on a factory type.
type FactoryDefinition struct {
	Base
	factory reflect.Type
	method  string
	static  bool
}

// DefaultFactoryMethod is the method invoked on factories unless FactoryMethod is given.
const DefaultFactoryMethod = "Create"

// Factory creates a definition whose value is produced by factoryType's method.
func Factory(id string, factoryType reflect.Type, opts ...DefinitionOption) *FactoryDefinition {
	o := collect(id, opts)
	d := &FactoryDefinition{
		Base:    o.base(),
		factory: factoryType,
		method:  o.method,
		static:  o.static,
	}
	if d.method == "" {
		d.method = DefaultFactoryMethod
	}
	d.reject(o, KindFactory)
	return d
}

// FactoryOf creates a Factory definition for the factory type F.
func FactoryOf[F any](id string, opts ...DefinitionOption) *FactoryDefinition {
	return Factory(id, reflect.TypeFor[F](), opts...)
}

func (d *FactoryDefinition) Kind() Kind { return KindFactory }

// FactoryType returns the factory type.
func (d *FactoryDefinition) FactoryType() reflect.Type { return d.factory }

// Method returns the name of the producing method.
func (d *FactoryDefinition) Method() string { return d.method }

// Static reports whether the method is invoked on the zero value of the factory type.
func (d *FactoryDefinition) Static() bool { return d.static }

func (d *FactoryDefinition) Validate() error {
	if err := d.Base.Validate(); err != nil {
		return err
	}
	if d.factory == nil {
		return DefinitionError{ID: d.id, Cause: fmt.Errorf("factory type cannot be nil")}
	}
	if !token.IsExported(d.method) {
		return DefinitionError{ID: d.id, Cause: AutowireError{Type: d.factory, Method: d.method, Cause: ErrMethodNotPublic}}
	}
	return nil
}

// CallableDefinition invokes a function and uses its first non-error result.
type CallableDefinition struct {
	Base
	fn reflect.Value
}

// Callable creates a definition that calls fn with resolved arguments.
func Callable(id string, fn any, opts ...DefinitionOption) *CallableDefinition {
	o := collect(id, opts)
	d := &CallableDefinition{Base: o.base(), fn: reflect.ValueOf(fn)}
	d.reject(o, KindCallable)
	return d
}

func (d *CallableDefinition) Kind() Kind { return KindCallable }

// Func returns the function value.
func (d *CallableDefinition) Func() reflect.Value { return d.fn }

func (d *CallableDefinition) Validate() error {
	if err := d.Base.Validate(); err != nil {
		return err
	}
	if !d.fn.IsValid() || d.fn.Kind() != reflect.Func || d.fn.IsNil() {
		return DefinitionError{ID: d.id, Cause: fmt.Errorf("%w: expected a non-nil function", ErrNotCallable)}
	}
	if resultType(d.fn.Type()) == nil {
		return DefinitionError{ID: d.id, Cause: fmt.Errorf("%w: function returns no value", ErrNotCallable)}
	}
	return nil
}

// ValueDefinition holds a literal value.
type ValueDefinition struct {
	Base
	value any
}

// Value creates a definition holding v.
func Value(id string, v any, opts ...DefinitionOption) *ValueDefinition {
	o := collect(id, opts)
	d := &ValueDefinition{Base: o.base(), value: v}
	d.reject(o, KindValue)
	return d
}

func (d *ValueDefinition) Kind() Kind { return KindValue }

// Value returns the literal.
func (d *ValueDefinition) Value() any { return d.value }

// ReferenceDefinition resolves another id.
type ReferenceDefinition struct {
	Base
	target string
}

// Reference creates a definition registered under id that resolves target.
func Reference(id, target string, opts ...DefinitionOption) *ReferenceDefinition {
	o := collect(id, opts)
	d := &ReferenceDefinition{Base: o.base(), target: strings.TrimSpace(target)}
	d.reject(o, KindReference)
	return d
}

// Ref returns a nested reference to target for use as an argument.
func Ref(target string) *ReferenceDefinition {
	return Reference("", target)
}

// RefOf returns a nested reference to the TypeID of T.
func RefOf[T any]() *ReferenceDefinition {
	return Ref(TypeIDOf[T]())
}

func (d *ReferenceDefinition) Kind() Kind { return KindReference }

// Target returns the referenced id.
func (d *ReferenceDefinition) Target() string { return d.target }

func (d *ReferenceDefinition) Validate() error {
	if err := d.Base.Validate(); err != nil {
		return err
	}
	if d.target == "" {
		return DefinitionError{ID: d.id, Cause: fmt.Errorf("reference target: %w", ErrInvalidID)}
	}
	return nil
}

// ProxyDefinition yields a ProxyFunc that resolves target when invoked.
type ProxyDefinition struct {
	Base
	target string
}

// Proxy creates a definition registered under id yielding a deferred resolver of target.
func Proxy(id, target string, opts ...DefinitionOption) *ProxyDefinition {
	o := collect(id, opts)
	d := &ProxyDefinition{Base: o.base(), target: strings.TrimSpace(target)}
	d.reject(o, KindProxy)
	return d
}

// ProxyOf returns a nested proxy to target for use as an argument.
func ProxyOf(target string) *ProxyDefinition {
	return Proxy("", target)
}

func (d *ProxyDefinition) Kind() Kind { return KindProxy }

// Target returns the proxied id.
func (d *ProxyDefinition) Target() string { return d.target }

func (d *ProxyDefinition) Validate() error {
	if err := d.Base.Validate(); err != nil {
		return err
	}
	if d.target == "" {
		return DefinitionError{ID: d.id, Cause: fmt.Errorf("proxy target: %w", ErrInvalidID)}
	}
	return nil
}

// TaggedDefinition collects every definition carrying a tag.
type TaggedDefinition struct {
	Base
	tag              string
	lazy             bool
	exclude          []string
	selfExclude      bool
	collectionMethod string
	useKeys          bool
	keyOption        string
	keyDefaultMethod string
}

// TaggedAs creates a definition registered under id collecting members of tag.
func TaggedAs(id, tag string, opts ...DefinitionOption) *TaggedDefinition {
	o := collect(id, opts)
	d := &TaggedDefinition{
		Base:             o.base(),
		tag:              strings.TrimSpace(tag),
		lazy:             o.lazy,
		exclude:          o.exclude,
		selfExclude:      true,
		collectionMethod: o.collectionMethod,
		useKeys:          o.useKeys,
		keyOption:        o.keyOption,
		keyDefaultMethod: o.keyDefaultMethod,
	}
	if o.selfExclude != nil {
		d.selfExclude = *o.selfExclude
	}
	if d.keyOption == "" {
		d.keyOption = OptionKey
	}
	d.reject(o, KindTagged)
	return d
}

// Tagged returns a nested tagged collection for use as an argument.
func Tagged(tag string, opts ...DefinitionOption) *TaggedDefinition {
	return TaggedAs("", tag, opts...)
}

func (d *TaggedDefinition) Kind() Kind { return KindTagged }

// Tag returns the collected tag name.
func (d *TaggedDefinition) Tag() string { return d.tag }

// IsLazy reports whether members are resolved on iteration.
func (d *TaggedDefinition) IsLazy() bool { return d.lazy }

// Excluded returns the ids never included in the collection.
func (d *TaggedDefinition) Excluded() []string { return d.exclude }

// ExcludesSelf reports whether the owning id is left out of its own collection.
func (d *TaggedDefinition) ExcludesSelf() bool { return d.selfExclude }

// CollectionPriorityMethod is the priority method used when neither the tag
// nor the member definition names one.
func (d *TaggedDefinition) CollectionPriorityMethod() string { return d.collectionMethod }

// UsesKeys reports whether members are keyed rather than positional.
func (d *TaggedDefinition) UsesKeys() bool { return d.useKeys }

// KeyOption is the tag option that carries a member's key.
func (d *TaggedDefinition) KeyOption() string { return d.keyOption }

// KeyDefaultMethod names the method consulted for keys not set by tag option.
func (d *TaggedDefinition) KeyDefaultMethod() string { return d.keyDefaultMethod }

func (d *TaggedDefinition) Validate() error {
	if err := d.Base.Validate(); err != nil {
		return err
	}
	if d.tag == "" {
		return DefinitionError{ID: d.id, Cause: fmt.Errorf("tag name cannot be empty")}
	}
	return nil
}

// reject records options that were given to a kind they do not apply to.
func (b *Base) reject(o *defOptions, kind Kind) {
	if b.err != nil {
		return
	}
	if bad := o.foreign(kind); len(bad) > 0 {
		b.err = fmt.Errorf("options %s do not apply to %s definitions", strings.Join(bad, ", "), kind)
	}
}

// ========================================
// Options
// ========================================

// DefinitionOption configures a definition.
type DefinitionOption func(*defOptions)

type defOptions struct {
	id             string
	lifetime       Lifetime
	args           Args
	tags           []Tag
	priorityMethod string
	paramNames     []string
	defaults       map[string]any

	setups      []SetupCall
	constructor any

	method string
	static bool

	lazy             bool
	exclude          []string
	selfExclude      *bool
	collectionMethod string
	useKeys          bool
	keyOption        string
	keyDefaultMethod string

	// kinded records kind-specific options in the order they were given.
	kinded []kindedOption
}

type kindedOption struct {
	name string
	kind Kind
}

func collect(id string, opts []DefinitionOption) *defOptions {
	o := &defOptions{id: id}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	o.id = strings.TrimSpace(o.id)
	return o
}

func (o *defOptions) base() Base {
	b := Base{
		id:             o.id,
		lifetime:       o.lifetime,
		args:           o.args,
		tags:           o.tags,
		priorityMethod: o.priorityMethod,
		paramNames:     o.paramNames,
	}
	if len(o.defaults) > 0 {
		b.defaults = maps.Clone(o.defaults)
	}
	return b
}

func (o *defOptions) foreign(kind Kind) []string {
	var bad []string
	for _, k := range o.kinded {
		if k.kind != kind && !slices.Contains(bad, k.name) {
			bad = append(bad, k.name)
		}
	}
	return bad
}

func (o *defOptions) mark(name string, kind Kind) {
	o.kinded = append(o.kinded, kindedOption{name: name, kind: kind})
}

// ID overrides the id of a definition.
func ID(id string) DefinitionOption {
	return func(o *defOptions) {
		o.id = id
	}
}

// AsSingleton caches the value for the life of the container.
func AsSingleton() DefinitionOption {
	return WithLifetime(Singleton)
}

// AsTransient rebuilds the value on every request.
func AsTransient() DefinitionOption {
	return WithLifetime(Transient)
}

// WithLifetime sets the lifetime explicitly.
func WithLifetime(l Lifetime) DefinitionOption {
	return func(o *defOptions) {
		o.lifetime = l
	}
}

// WithArgs binds arguments. Arg and Args values are kept as given; any other
// value is bound positionally.
func WithArgs(values ...any) DefinitionOption {
	return func(o *defOptions) {
		o.args = append(o.args, toArgs(values)...)
	}
}

// WithTag adds the definition to the named group.
func WithTag(name string, opts ...TagOption) DefinitionOption {
	return func(o *defOptions) {
		o.tags = append(o.tags, NewTag(name, opts...))
	}
}

// ParamNames names the positional parameters of the definition's function so
// that named arguments, hints and defaults can address them.
func ParamNames(names ...string) DefinitionOption {
	return func(o *defOptions) {
		o.paramNames = names
	}
}

// Default sets the value used for a parameter that nothing else resolves.
func Default(param string, value any) DefinitionOption {
	return func(o *defOptions) {
		if o.defaults == nil {
			o.defaults = make(map[string]any)
		}
		o.defaults[param] = value
	}
}

// DefaultPriorityMethod names the method that gives this definition's
// priority in any tagged collection, unless the tag says otherwise.
func DefaultPriorityMethod(name string) DefinitionOption {
	return func(o *defOptions) {
		o.priorityMethod = name
	}
}

// Constructor sets the function used to build an autowired type.
func Constructor(fn any) DefinitionOption {
	return func(o *defOptions) {
		o.mark("Constructor", KindAutowire)
		o.constructor = fn
	}
}

// Setup calls method on the built instance with the given arguments.
func Setup(method string, args ...any) DefinitionOption {
	return SetupAt(0, method, args...)
}

// SetupAt is Setup with a priority. Higher priorities run first.
func SetupAt(priority int, method string, args ...any) DefinitionOption {
	return func(o *defOptions) {
		o.mark("Setup", KindAutowire)
		o.setups = append(o.setups, SetupCall{Method: method, Priority: priority, Args: toArgs(args)})
	}
}

// FactoryMethod names the method invoked on the factory.
func FactoryMethod(name string) DefinitionOption {
	return func(o *defOptions) {
		o.mark("FactoryMethod", KindFactory)
		o.method = name
	}
}

// Static invokes the factory method on the zero value of the factory type.
func Static() DefinitionOption {
	return func(o *defOptions) {
		o.mark("Static", KindFactory)
		o.static = true
	}
}

// Lazy resolves collection members only while iterating.
func Lazy() DefinitionOption {
	return func(o *defOptions) {
		o.mark("Lazy", KindTagged)
		o.lazy = true
	}
}

// Exclude leaves the given ids out of the collection.
func Exclude(ids ...string) DefinitionOption {
	return func(o *defOptions) {
		o.mark("Exclude", KindTagged)
		o.exclude = append(o.exclude, ids...)
	}
}

// SelfExclude controls whether the owning id is left out of its own collection.
func SelfExclude(exclude bool) DefinitionOption {
	return func(o *defOptions) {
		o.mark("SelfExclude", KindTagged)
		o.selfExclude = &exclude
	}
}

// CollectionPriorityMethod sets the collection-wide priority method.
func CollectionPriorityMethod(name string) DefinitionOption {
	return func(o *defOptions) {
		o.mark("CollectionPriorityMethod", KindTagged)
		o.collectionMethod = name
	}
}

// UseKeys keys the collection by tag option, key method or id.
func UseKeys() DefinitionOption {
	return func(o *defOptions) {
		o.mark("UseKeys", KindTagged)
		o.useKeys = true
	}
}

// KeyOption names the tag option that carries a member's key.
func KeyOption(name string) DefinitionOption {
	return func(o *defOptions) {
		o.mark("KeyOption", KindTagged)
		o.keyOption = name
	}
}

// KeyDefaultMethod names the method consulted for a member's key when the
// tag does not set one.
func KeyDefaultMethod(name string) DefinitionOption {
	return func(o *defOptions) {
		o.mark("KeyDefaultMethod", KindTagged)
		o.keyDefaultMethod = name
	}
}

func toArgs(values []any) Args {
	var args Args
	for _, v := range values {
		switch a := v.(type) {
		case Arg:
			args = append(args, a)
		case Args:
			args = append(args, a...)
		default:
			args = append(args, Arg{Value: v})
		}
	}
	return args
}

var errorType = reflect.TypeFor[error]()

// resultType returns the first non-error result type of a function type.
func resultType(ft reflect.Type) reflect.Type {
	if ft == nil || ft.Kind() != reflect.Func {
		return nil
	}
	for i := range ft.NumOut() {
		out := ft.Out(i)
		if i == ft.NumOut()-1 && out == errorType {
			break
		}
		return out
	}
	return nil
}

// structType returns the struct type behind t, or nil.
func structType(t reflect.Type) reflect.Type {
	if t == nil {
		return nil
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}
	return t
}
