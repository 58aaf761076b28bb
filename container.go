package keel

import (
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/junioryono/keel/internal/reflection"
	"go.uber.org/zap"
)

// Container resolves the definitions of a Registry on demand.
//
// A Container is NOT safe for concurrent use. Resolution is re-entrant:
// constructors may receive the container as a Getter and resolve further ids,
// and those requests take part in cycle detection. Wrap a container with
// Synchronized to share it between goroutines.
type Container struct {
	id       string
	registry *Registry
	types    *TypeRegistry
	provider MetadataProvider
	resolver *ArgumentResolver
	analyzer *reflection.Analyzer
	logger   *zap.Logger

	singletonDefault bool
	zeroConfig       bool

	stack      Stack
	singletons map[string]any
	resolved   map[string]struct{}
	removed    map[string]struct{}
	discovered map[string]Definition
}

var (
	_ Getter = (*Container)(nil)
	_ Lookup = (*Container)(nil)
)

// New creates a container over a copy of reg. A nil reg is an empty registry.
func New(reg *Registry, opts ...Option) (*Container, error) {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt.apply(&o)
		}
	}

	if reg == nil {
		reg = &Registry{defs: make(map[string]Definition)}
	}
	for id, def := range reg.All() {
		if err := def.Validate(); err != nil {
			return nil, err
		}
		if !def.Kind().IsBuiltin() {
			if _, ok := def.(Builder); !ok {
				return nil, DefinitionError{ID: id, Cause: fmt.Errorf("%w %s: %T does not implement Builder", ErrUnknownKind, def.Kind(), def)}
			}
		}
	}

	provider := Providers(append([]MetadataProvider{StructTags{}}, o.providers...)...)
	c := &Container{
		id:               uuid.NewString(),
		registry:         reg.Clone(),
		types:            NewTypeRegistry(o.types...),
		provider:         provider,
		resolver:         NewArgumentResolver(provider),
		analyzer:         reflection.New(),
		logger:           o.logger,
		singletonDefault: o.singletonDefault,
		zeroConfig:       o.zeroConfig,
		singletons:       make(map[string]any),
		resolved:         make(map[string]struct{}),
		removed:          make(map[string]struct{}),
		discovered:       make(map[string]Definition),
	}

	c.logger.Debug("container created",
		zap.String("container", c.id),
		zap.Int("definitions", c.registry.Len()),
		zap.Bool("zeroConfig", c.zeroConfig),
	)
	return c, nil
}

// ID returns the unique id of this container.
func (c *Container) ID() string {
	return c.id
}

// Has reports whether id is registered or can be discovered.
func (c *Container) Has(id string) bool {
	_, ok := c.definition(id)
	return ok
}

// Get resolves id. Singletons are built once and cached; transient values are
// built on every call.
func (c *Container) Get(id string) (any, error) {
	if v, ok := c.singletons[id]; ok {
		return v, nil
	}

	def, ok := c.definition(id)
	if !ok {
		return nil, c.stack.NotFound(id)
	}

	if err := c.stack.Enter(id); err != nil {
		return nil, err
	}
	defer c.stack.Leave(id)
	c.resolved[id] = struct{}{}

	start := time.Now()
	v, err := c.build(def, id)
	if err != nil {
		c.logger.Debug("resolution failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	singleton := c.isSingleton(def)
	if singleton {
		c.singletons[id] = v
	}
	c.logger.Debug("resolved",
		zap.String("id", id),
		zap.Stringer("kind", def.Kind()),
		zap.Bool("singleton", singleton),
		zap.Duration("took", time.Since(start)),
	)
	return v, nil
}

// MethodRef names a method of the value registered under an id.
type MethodRef struct {
	ID   string
	Name string
}

// Method returns a Call target invoking the method name of the value registered under id.
func Method(id, name string) MethodRef {
	return MethodRef{ID: id, Name: name}
}

// Call invokes target with resolved arguments and returns its first non-error
// result, or a []any holding every result when there are several. target is a
// function or a MethodRef. args take precedence over every other source.
func (c *Container) Call(target any, args ...any) (any, error) {
	var (
		fn  reflect.Value
		sig *reflection.Signature
		tgt Target
		err error
	)

	if ref, ok := target.(MethodRef); ok {
		inst, err := c.Get(ref.ID)
		if err != nil {
			return nil, err
		}
		recv := reflect.ValueOf(inst)
		if !recv.IsValid() {
			return nil, AutowireError{Method: ref.Name, Cause: fmt.Errorf("%w: %q resolved to nil", ErrMethodMissing, ref.ID)}
		}
		if fn = recv.MethodByName(ref.Name); !fn.IsValid() {
			return nil, AutowireError{Type: recv.Type(), Method: ref.Name, Cause: ErrMethodMissing}
		}
		if sig, err = c.analyzer.Method(recv.Type(), ref.Name); err != nil {
			return nil, AutowireError{Type: recv.Type(), Method: ref.Name, Cause: err}
		}
		tgt = MethodTarget(recv.Type(), ref.Name)
	} else {
		fn = reflect.ValueOf(target)
		if sig, err = c.analyzer.Func(fn); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNotCallable, err)
		}
		tgt = FuncTarget(fn)
	}

	out, err := c.invoke(fn, Invocation{Signature: sig, Target: tgt, Args: toArgs(args)}, "")
	if err != nil {
		return nil, err
	}
	return primary(out), nil
}

// Remove deletes id. Ids that were already resolved cannot be removed. A
// removed id is never discovered again.
func (c *Container) Remove(id string) error {
	if _, done := c.resolved[id]; done {
		return DefinitionError{ID: id, Cause: ErrAlreadyResolved}
	}
	c.registry.Remove(id)
	delete(c.discovered, id)
	c.removed[id] = struct{}{}
	c.logger.Debug("removed", zap.String("id", id))
	return nil
}

// Resolved reports whether a singleton value is cached for id.
func (c *Container) Resolved(id string) bool {
	_, ok := c.singletons[id]
	return ok
}

// HasDefinition reports whether id is registered. It implements Lookup.
func (c *Container) HasDefinition(id string) bool {
	return c.registry.Has(id)
}

// CanDiscover reports whether t can be built without a definition and
// remembers its discovered definition. It implements Lookup.
func (c *Container) CanDiscover(t reflect.Type) bool {
	if !c.zeroConfig || t == nil {
		return false
	}
	id := TypeID(t)
	if _, gone := c.removed[id]; gone {
		return false
	}
	if _, ok := c.discovered[id]; ok {
		return true
	}
	def, ok := Discover(t, c.provider)
	if !ok {
		return false
	}
	c.types.RegisterType(t)
	c.discovered[id] = def
	return true
}

// definition returns the registered or discovered definition of id.
func (c *Container) definition(id string) (Definition, bool) {
	if def, ok := c.registry.Lookup(id); ok {
		return def, true
	}
	if !c.zeroConfig {
		return nil, false
	}
	if _, gone := c.removed[id]; gone {
		return nil, false
	}
	if def, ok := c.discovered[id]; ok {
		return def, true
	}
	t, ok := c.types.Lookup(id)
	if !ok || !c.CanDiscover(t) {
		return nil, false
	}
	return c.discovered[id], true
}

// isSingleton applies the lifetime rules. References and values are only
// cached when marked Singleton.
func (c *Container) isSingleton(def Definition) bool {
	switch def.Kind() {
	case KindReference, KindValue:
		return def.Lifetime() == Singleton
	}
	return def.Lifetime().Resolve(c.singletonDefault)
}

// discoverer is implemented by getters that can build unregistered types.
type discoverer interface {
	CanDiscover(t reflect.Type) bool
}

// Resolve resolves the TypeID of T from g. Getters that support zero
// configuration get a chance to discover T first.
func Resolve[T any](g Getter) (T, error) {
	t := reflect.TypeFor[T]()
	id := TypeID(t)
	if d, ok := g.(discoverer); ok && !g.Has(id) {
		d.CanDiscover(t)
	}
	return GetAs[T](g, id)
}

// MustGet resolves id as T, panicking on failure.
func MustGet[T any](g Getter, id string) T {
	v, err := GetAs[T](g, id)
	if err != nil {
		panic(err)
	}
	return v
}
