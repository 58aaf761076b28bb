package keel

import (
	"errors"
	"fmt"
	"reflect"
	"runtime/debug"

	"github.com/junioryono/keel/internal/reflection"
)

// build produces a value for def. owner is the id being resolved; nested
// definitions are built on behalf of their owner.
func (c *Container) build(def Definition, owner string) (any, error) {
	switch d := def.(type) {
	case *ValueDefinition:
		return d.Value(), nil
	case *ReferenceDefinition:
		return c.Get(d.Target())
	case *ProxyDefinition:
		target := d.Target()
		return ProxyFunc(func() (any, error) { return c.Get(target) }), nil
	case *TaggedDefinition:
		return c.buildTagged(d, owner)
	case *CallableDefinition:
		return c.buildCallable(d, owner)
	case *FactoryDefinition:
		return c.buildFactory(d, owner)
	case *AutowireDefinition:
		return c.buildAutowire(d, owner)
	case Builder:
		return d.Build(c)
	}
	return nil, DefinitionError{ID: owner, Cause: fmt.Errorf("%w %s (%T)", ErrUnknownKind, def.Kind(), def)}
}

func (c *Container) buildTagged(d *TaggedDefinition, owner string) (any, error) {
	members, err := CollectTagged(c.registry, d, owner)
	if err != nil {
		return nil, err
	}
	keys := MemberKeys(d, members)

	if d.IsLazy() {
		ids := make([]string, len(members))
		for i, m := range members {
			ids[i] = m.ID
		}
		return NewLazyCollection(c, keys, ids), nil
	}

	values := make([]any, len(members))
	for i, m := range members {
		if values[i], err = c.Get(m.ID); err != nil {
			return nil, err
		}
	}
	return NewCollection(keys, values), nil
}

func (c *Container) buildCallable(d *CallableDefinition, owner string) (any, error) {
	fn := d.Func()
	sig, err := c.analyzer.Func(fn)
	if err != nil {
		return nil, DefinitionError{ID: owner, Cause: err}
	}
	out, err := c.invoke(fn, c.invocation(d, sig, FuncTarget(fn)), owner)
	if err != nil {
		return nil, err
	}
	return primary(out), nil
}

func (c *Container) buildFactory(d *FactoryDefinition, owner string) (any, error) {
	ft := d.FactoryType()

	var recv reflect.Value
	if d.Static() {
		if _, err := StaticMethod(ft, d.Method()); err != nil {
			return nil, DefinitionError{ID: owner, Cause: err}
		}
		elem := ft
		if elem.Kind() == reflect.Pointer {
			elem = elem.Elem()
		}
		recv = reflect.Zero(elem)
	} else {
		inst, err := c.instance(ft, owner)
		if err != nil {
			return nil, err
		}
		if recv = reflect.ValueOf(inst); !recv.IsValid() {
			return nil, DefinitionError{ID: owner, Cause: fmt.Errorf("factory %s resolved to nil", formatType(ft))}
		}
	}

	fn := recv.MethodByName(d.Method())
	if !fn.IsValid() {
		return nil, DefinitionError{ID: owner, Cause: AutowireError{Type: recv.Type(), Method: d.Method(), Cause: ErrMethodMissing}}
	}
	sig, err := c.analyzer.Method(recv.Type(), d.Method())
	if err != nil {
		return nil, DefinitionError{ID: owner, Cause: err}
	}

	out, err := c.invoke(fn, c.invocation(d, sig, MethodTarget(recv.Type(), d.Method())), owner)
	if err != nil {
		return nil, err
	}
	return primary(out), nil
}

// instance resolves a factory instance: through its id when registered,
// otherwise by building the type's discovered definition on every call.
func (c *Container) instance(t reflect.Type, owner string) (any, error) {
	if id := TypeID(t); c.HasDefinition(id) {
		return c.Get(id)
	}
	def, ok := Discover(t, c.provider)
	if !ok {
		return nil, DefinitionError{ID: owner, Cause: fmt.Errorf("factory %s cannot be built: register it or give it a constructor", formatType(t))}
	}
	return c.build(def, owner)
}

func (c *Container) buildAutowire(d *AutowireDefinition, owner string) (any, error) {
	var inst reflect.Value

	if fn, ok := d.Constructor(); ok {
		sig, err := c.analyzer.Func(fn)
		if err != nil {
			return nil, DefinitionError{ID: owner, Cause: err}
		}
		out, err := c.invoke(fn, c.invocation(d, sig, FuncTarget(fn)), owner)
		if err != nil {
			return nil, err
		}
		inst = out[0]
	} else {
		sig, err := c.analyzer.Struct(d.Type())
		if err != nil {
			return nil, DefinitionError{ID: owner, Cause: err}
		}
		in, err := c.arguments(c.invocation(d, sig, TypeTarget(d.Type())), owner)
		if err != nil {
			return nil, err
		}
		ptr := reflect.New(structType(d.Type()))
		for i, p := range sig.Params {
			ptr.Elem().Field(p.Index).Set(in[i])
		}
		inst = ptr
		if d.Type().Kind() != reflect.Pointer {
			inst = ptr.Elem()
		}
	}

	if inst.Kind() == reflect.Interface && !inst.IsNil() {
		inst = inst.Elem()
	}
	for _, s := range d.OrderedSetups() {
		var err error
		if inst, err = c.setup(d, inst, s, owner); err != nil {
			return nil, err
		}
	}
	return inst.Interface(), nil
}

// setup invokes one setup call. A result assignable to the definition type
// replaces the instance.
func (c *Container) setup(d *AutowireDefinition, inst reflect.Value, s SetupCall, owner string) (reflect.Value, error) {
	recv, addressed := inst, false
	if recv.Kind() != reflect.Pointer {
		// Make pointer receiver methods reachable on value types.
		addr := reflect.New(recv.Type())
		addr.Elem().Set(recv)
		recv, addressed = addr, true
	}

	fn := recv.MethodByName(s.Method)
	if !fn.IsValid() {
		return inst, DefinitionError{ID: owner, Cause: AutowireError{Type: d.Type(), Method: s.Method, Cause: ErrMethodMissing}}
	}
	sig, err := c.analyzer.Method(recv.Type(), s.Method)
	if err != nil {
		return inst, DefinitionError{ID: owner, Cause: err}
	}

	inv := Invocation{Signature: sig, Target: MethodTarget(recv.Type(), s.Method), Args: s.Args}
	out, err := c.invoke(fn, inv, owner)
	if err != nil {
		return inst, err
	}

	if len(out) > 0 && out[0].Type().AssignableTo(d.Type()) {
		return out[0], nil
	}
	if addressed {
		return recv.Elem(), nil
	}
	return inst, nil
}

func (c *Container) invocation(def Definition, sig *reflection.Signature, target Target) Invocation {
	return Invocation{
		Signature: sig,
		Target:    target,
		Args:      def.Args(),
		Names:     def.ParamNames(),
		Defaults:  def.Default,
	}
}

// invoke resolves the arguments of fn and calls it.
func (c *Container) invoke(fn reflect.Value, inv Invocation, owner string) ([]reflect.Value, error) {
	in, err := c.arguments(inv, owner)
	if err != nil {
		return nil, err
	}
	return call(fn, inv.Signature, in)
}

// arguments executes the plan of inv. Param objects are returned as a single
// populated struct value.
func (c *Container) arguments(inv Invocation, owner string) ([]reflect.Value, error) {
	plans, err := c.resolver.Plan(inv, c)
	if err != nil {
		return nil, c.withChain(err)
	}

	sig := inv.Signature
	if sig.ParamObject != nil {
		obj := reflect.New(sig.ParamObject).Elem()
		for _, p := range plans {
			vs, err := c.execute(p, sig, owner)
			if err != nil {
				return nil, err
			}
			obj.Field(p.Param.Index).Set(vs[0])
		}
		return []reflect.Value{obj}, nil
	}

	in := make([]reflect.Value, 0, len(plans))
	for _, p := range plans {
		vs, err := c.execute(p, sig, owner)
		if err != nil {
			return nil, err
		}
		in = append(in, vs...)
	}
	return in, nil
}

// execute produces the argument values of one parameter. Variadic parameters
// yield one value per element.
func (c *Container) execute(p ParamPlan, sig *reflection.Signature, owner string) ([]reflect.Value, error) {
	context := fmt.Sprintf("parameter %s of %s", p.Param.Label(), sig.Name)
	t := p.Param.Type

	var (
		v   any
		err error
	)
	switch p.Source {
	case SourceNone:
		return nil, nil
	case SourceGetter:
		v = Getter(c)
	case SourceContainer:
		if v, err = c.Get(p.ID); err != nil {
			return nil, c.dependencyError(p, sig, err)
		}
	case SourceDefault:
		v = p.Values[0]
	case SourceBound, SourceHint:
		if p.Param.Variadic {
			return c.spread(p.Values, t.Elem(), context, owner)
		}
		if v, err = c.resolveValue(p.Values[0], owner); err != nil {
			return nil, err
		}
	}

	rv, err := assign(v, t, context)
	if err != nil {
		return nil, err
	}
	return []reflect.Value{rv}, nil
}

// spread converts variadic values. A collection contributes its members.
func (c *Container) spread(values []any, elem reflect.Type, context, owner string) ([]reflect.Value, error) {
	var out []reflect.Value
	for _, raw := range values {
		v, err := c.resolveValue(raw, owner)
		if err != nil {
			return nil, err
		}

		members := []any{v}
		switch col := v.(type) {
		case *Collection:
			if Conversion(collectionType, elem) != ConvertAssign {
				members = col.Values()
			}
		case *LazyCollection:
			if Conversion(lazyCollectionType, elem) != ConvertAssign {
				resolved, err := col.Resolve()
				if err != nil {
					return nil, err
				}
				members = resolved.Values()
			}
		}

		for _, m := range members {
			rv, err := assign(m, elem, context)
			if err != nil {
				return nil, err
			}
			out = append(out, rv)
		}
	}
	return out, nil
}

// resolveValue builds nested definitions and passes other values through.
func (c *Container) resolveValue(raw any, owner string) (any, error) {
	def, ok := raw.(Definition)
	if !ok {
		return raw, nil
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return c.build(def, owner)
}

// dependencyError attaches the failing parameter to errors raised while
// resolving its dependency. Cycles and panics pass through unchanged.
func (c *Container) dependencyError(p ParamPlan, sig *reflection.Signature, err error) error {
	var nf NotFoundError
	if errors.As(err, &nf) && nf.ID == p.ID {
		return UnresolvableDependencyError{
			Param:    p.Param.Label(),
			Function: sig.Name,
			Location: sig.Location,
			Chain:    c.stack.Chain(),
			Cause:    err,
		}
	}
	return err
}

func (c *Container) withChain(err error) error {
	var ue UnresolvableDependencyError
	if errors.As(err, &ue) && ue.Chain == nil {
		ue.Chain = c.stack.Chain()
		return ue
	}
	return err
}

// call invokes fn, turning panics into ConstructorPanicError and a non-nil
// trailing error into the returned error.
func call(fn reflect.Value, sig *reflection.Signature, in []reflect.Value) (out []reflect.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, ConstructorPanicError{Function: sig.Name, Panic: r, Stack: debug.Stack()}
		}
	}()

	out = fn.Call(in)
	if sig.HasError {
		if last := out[len(out)-1]; !last.IsNil() {
			return nil, last.Interface().(error)
		}
		out = out[:len(out)-1]
	}
	return out, nil
}

// primary returns the value of a call: nothing, its single result, or every
// result as a []any.
func primary(out []reflect.Value) any {
	switch len(out) {
	case 0:
		return nil
	case 1:
		return out[0].Interface()
	}
	values := make([]any, len(out))
	for i, v := range out {
		values[i] = v.Interface()
	}
	return values
}
