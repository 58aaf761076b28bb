package compiler

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/junioryono/keel"
	"github.com/junioryono/keel/internal/reflection"
)

var (
	anyType        = reflect.TypeFor[any]()
	anySliceType   = reflect.TypeFor[[]any]()
	errorType      = reflect.TypeFor[error]()
	collectionType = reflect.TypeFor[*keel.Collection]()
	lazyType       = reflect.TypeFor[*keel.LazyCollection]()
	proxyType      = reflect.TypeFor[keel.ProxyFunc]()
)

// body accumulates the statements of one accessor. Statements run in the
// accessor's scope, where c is the container and v, err are its results.
type body struct {
	s     *session
	id    string
	stmts []string
	deps  []string
	n     int
}

func (b *body) local() string {
	name := "a" + strconv.Itoa(b.n)
	b.n++
	return name
}

func (b *body) add(format string, args ...any) {
	b.stmts = append(b.stmts, fmt.Sprintf(format, args...))
}

func (b *body) check() {
	b.add("if err != nil {")
	b.add("return v, err")
	b.add("}")
}

func (b *body) keel() string {
	return b.s.pkgs.add(keelPath)
}

// transform compiles the definition registered or discovered under id.
func (s *session) transform(id string, def keel.Definition) (*Entry, error) {
	if !def.Kind().IsBuiltin() {
		return s.custom(id, def)
	}

	b := &body{s: s, id: id}
	entry := &Entry{
		ID:        id,
		Singleton: s.singleton(def),
		Comment:   describe(def),
	}

	var (
		expr string
		typ  reflect.Type
		err  error
	)
	switch d := def.(type) {
	case *keel.ValueDefinition:
		typ = reflect.TypeOf(d.Value())
		expr, err = s.literal(reflect.ValueOf(d.Value()))
	case *keel.ReferenceDefinition:
		typ = s.staticType(d.Target())
		if typ == nil {
			typ = anyType
		}
		expr, err = b.reference(d.Target(), typ)
	default:
		expr, typ, err = b.build(def)
	}
	if err != nil {
		return nil, err
	}

	if entry.ReturnType, err = s.pkgs.typeExpr(typ); err != nil {
		return nil, err
	}
	entry.Expr = expr
	entry.Statements = b.stmts
	entry.Dependencies = b.deps
	return entry, nil
}

// custom compiles a definition of a kind the compiler does not know.
func (s *session) custom(id string, def keel.Definition) (*Entry, error) {
	unsupported := fmt.Errorf("%w: %s (%T)", ErrUnsupportedKind, def.Kind(), def)
	if s.cfg.Strict {
		return nil, unsupported
	}
	if s.fallback != nil {
		entry, err := s.fallback(def)
		if err != nil {
			return nil, err
		}
		if entry != nil {
			e := *entry
			e.ID = id
			if e.ReturnType == "" {
				e.ReturnType = "any"
			}
			return &e, nil
		}
	}
	return nil, invalid(unsupported)
}

// build emits the construction of def and returns an expression holding the
// value and its static type. A nil type means the expression is nil.
func (b *body) build(def keel.Definition) (string, reflect.Type, error) {
	switch d := def.(type) {
	case *keel.ValueDefinition:
		expr, err := b.s.literal(reflect.ValueOf(d.Value()))
		return expr, reflect.TypeOf(d.Value()), err
	case *keel.ReferenceDefinition:
		t := b.s.staticType(d.Target())
		if t == nil {
			t = anyType
		}
		expr, err := b.reference(d.Target(), t)
		return expr, t, err
	case *keel.ProxyDefinition:
		b.s.require(b.id, d.Target())
		return fmt.Sprintf("%s.ProxyFunc(func() (any, error) { return c.Get(%s) })", b.keel(), strconv.Quote(d.Target())), proxyType, nil
	case *keel.TaggedDefinition:
		return b.tagged(d)
	case *keel.CallableDefinition:
		return b.callable(d)
	case *keel.FactoryDefinition:
		return b.factory(d)
	case *keel.AutowireDefinition:
		return b.autowire(d)
	}
	return "", nil, fmt.Errorf("%w: nested %s (%T)", ErrUnsupportedKind, def.Kind(), def)
}

func (b *body) reference(target string, t reflect.Type) (string, error) {
	b.s.require(b.id, target)
	return b.get(t, target)
}

// get emits the resolution of id as t and returns the local holding it.
func (b *body) get(t reflect.Type, id string) (string, error) {
	b.deps = append(b.deps, id)
	local := b.local()
	if t == anyType {
		b.add("%s, err := c.Get(%s)", local, strconv.Quote(id))
		b.check()
		return local, nil
	}

	texpr, err := b.s.pkgs.typeExpr(t)
	if err != nil {
		return "", err
	}
	fn := "GetAs"
	if from := b.s.staticType(id); from == nil || keel.Conversion(from, t) != keel.ConvertAssign {
		fn = "Inject"
	}
	b.add("%s, err := %s.%s[%s](c, %s)", local, b.keel(), fn, texpr, strconv.Quote(id))
	b.check()
	return local, nil
}

// zero declares a zero value of t.
func (b *body) zero(t reflect.Type) (string, error) {
	texpr, err := b.s.pkgs.typeExpr(t)
	if err != nil {
		return "", err
	}
	local := b.local()
	b.add("var %s %s", local, texpr)
	return local, nil
}

// value renders a plain bound value as t.
func (b *body) value(raw any, t reflect.Type, context string) (string, error) {
	if raw == nil {
		return b.zero(t)
	}
	rv := reflect.ValueOf(raw)
	switch keel.Conversion(rv.Type(), t) {
	case keel.ConvertAssign:
		return b.s.literal(rv)
	case keel.ConvertBasic:
		return b.s.literal(rv.Convert(t))
	}
	return "", invalid(keel.TypeMismatchError{Expected: t, Actual: rv.Type(), Context: context})
}

// argument renders raw, a plain value or a nested definition, as t.
func (b *body) argument(raw any, t reflect.Type, context string) (string, error) {
	def, ok := raw.(keel.Definition)
	if !ok {
		return b.value(raw, t, context)
	}
	if err := def.Validate(); err != nil {
		return "", err
	}
	expr, from, err := b.build(def)
	if err != nil {
		return "", err
	}
	return b.convert(expr, from, t, context)
}

// convert turns expr of static type from into a value of type t, the way
// the container converts arguments.
func (b *body) convert(expr string, from, t reflect.Type, context string) (string, error) {
	if from == nil {
		return b.zero(t)
	}

	switch keel.Conversion(from, t) {
	case keel.ConvertAssign:
		return expr, nil
	case keel.ConvertBasic:
		texpr, err := b.s.pkgs.typeExpr(t)
		return texpr + "(" + expr + ")", err
	case keel.ConvertProxy:
		texpr, err := b.s.pkgs.typeExpr(t.Out(0))
		return b.keel() + ".ProxyAs[" + texpr + "](" + expr + ")", err
	case keel.ConvertSlice, keel.ConvertMap, keel.ConvertResolveSlice, keel.ConvertResolveMap:
		texpr, err := b.s.pkgs.typeExpr(t)
		if err != nil {
			return "", err
		}
		local := b.local()
		b.add("%s, err := %s.Convert[%s](%s, %s)", local, b.keel(), texpr, expr, strconv.Quote(context))
		b.check()
		return local, nil
	}
	return "", invalid(keel.TypeMismatchError{Expected: t, Actual: from, Context: context})
}

// arguments renders the argument list of inv. Param objects render as a
// single struct literal.
func (b *body) arguments(inv keel.Invocation) (string, error) {
	sig := inv.Signature
	plans, exprs, err := b.plan(inv)
	if err != nil {
		return "", err
	}
	if sig.ParamObject == nil {
		return strings.Join(exprs, ", "), nil
	}
	return b.structLiteral(sig.ParamObject, plans, exprs, false)
}

// plan renders the value of every planned parameter. Unmatched variadic
// parameters render as nothing.
func (b *body) plan(inv keel.Invocation) ([]keel.ParamPlan, []string, error) {
	plans, err := b.s.resolver.Plan(inv, b.s)
	if err != nil {
		return nil, nil, invalid(err)
	}

	sig := inv.Signature
	var (
		kept  []keel.ParamPlan
		exprs []string
	)
	for _, p := range plans {
		expr, err := b.param(p, sig)
		if err != nil {
			return nil, nil, err
		}
		if expr == "" {
			continue
		}
		kept = append(kept, p)
		exprs = append(exprs, expr)
	}
	return kept, exprs, nil
}

func (b *body) param(p keel.ParamPlan, sig *reflection.Signature) (string, error) {
	context := fmt.Sprintf("parameter %s of %s", p.Param.Label(), sig.Name)
	t := p.Param.Type

	switch p.Source {
	case keel.SourceNone:
		return "", nil
	case keel.SourceGetter:
		return "c", nil
	case keel.SourceContainer:
		return b.get(t, p.ID)
	case keel.SourceDefault:
		return b.value(p.Values[0], t, context)
	case keel.SourceBound, keel.SourceHint:
		if p.Param.Variadic {
			return b.variadic(p.Values, t.Elem(), context)
		}
		return b.argument(p.Values[0], t, context)
	}
	return "", fmt.Errorf("parameter %s: unknown source %s", p.Param.Label(), p.Source)
}

// variadic collects values into a slice passed with "...". Collections
// contribute their members unless the element type takes the collection.
func (b *body) variadic(values []any, elem reflect.Type, context string) (string, error) {
	elemExpr, err := b.s.pkgs.typeExpr(elem)
	if err != nil {
		return "", err
	}
	slice := b.local()
	b.add("var %s []%s", slice, elemExpr)

	for _, raw := range values {
		def, ok := raw.(keel.Definition)
		if !ok {
			expr, err := b.value(raw, elem, context)
			if err != nil {
				return "", err
			}
			b.add("%s = append(%s, %s)", slice, slice, expr)
			continue
		}

		if err := def.Validate(); err != nil {
			return "", err
		}
		expr, from, err := b.build(def)
		if err != nil {
			return "", err
		}
		if (from == collectionType || from == lazyType) && keel.Conversion(from, elem) != keel.ConvertAssign {
			members := b.local()
			b.add("%s, err := %s.Convert[[]%s](%s, %s)", members, b.keel(), elemExpr, expr, strconv.Quote(context))
			b.check()
			b.add("%s = append(%s, %s...)", slice, slice, members)
			continue
		}
		if expr, err = b.convert(expr, from, elem, context); err != nil {
			return "", err
		}
		b.add("%s = append(%s, %s)", slice, slice, expr)
	}
	return slice + "...", nil
}

// structLiteral renders a literal of st with the planned fields set.
func (b *body) structLiteral(st reflect.Type, plans []keel.ParamPlan, exprs []string, pointer bool) (string, error) {
	texpr, err := b.s.pkgs.typeExpr(st)
	if err != nil {
		return "", err
	}
	fields := make([]string, len(plans))
	for i, p := range plans {
		fields[i] = st.Field(p.Param.Index).Name + ": " + exprs[i]
	}
	lit := texpr + "{" + strings.Join(fields, ", ") + "}"
	if pointer {
		lit = "&" + lit
	}
	return lit, nil
}

// call emits callee(args). The first keep results are bound to new locals;
// the rest are discarded. A trailing error is checked.
func (b *body) call(callee string, sig *reflection.Signature, args string, keep int) []string {
	var lhs, results []string
	for i := range sig.Results {
		if i < keep {
			local := b.local()
			results = append(results, local)
			lhs = append(lhs, local)
			continue
		}
		lhs = append(lhs, "_")
	}

	op := ":="
	if len(results) == 0 {
		op = "="
	}
	if sig.HasError {
		lhs = append(lhs, "err")
	}

	switch {
	case len(lhs) == 0 || (len(results) == 0 && !sig.HasError):
		b.add("%s(%s)", callee, args)
	default:
		b.add("%s %s %s(%s)", strings.Join(lhs, ", "), op, callee, args)
	}
	if sig.HasError {
		b.check()
	}
	return results
}

// primary returns the value of a call: nil, its single result, or every
// result as a []any.
func (b *body) primary(results []string, sig *reflection.Signature) (string, reflect.Type) {
	switch len(results) {
	case 0:
		return "nil", nil
	case 1:
		return results[0], sig.Results[0]
	}
	local := b.local()
	b.add("%s := []any{%s}", local, strings.Join(results, ", "))
	return local, anySliceType
}

func (b *body) tagged(d *keel.TaggedDefinition) (string, reflect.Type, error) {
	members, err := keel.CollectTagged(b.s.reg, d, b.id)
	if err != nil {
		return "", nil, invalid(err)
	}

	keys := "nil"
	if memberKeys := keel.MemberKeys(d, members); memberKeys != nil {
		keys = quoteList(memberKeys)
	}
	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = m.ID
	}

	local := b.local()
	if d.IsLazy() {
		b.add("%s := %s.NewLazyCollection(c, %s, %s)", local, b.keel(), keys, quoteList(ids))
		return local, lazyType, nil
	}

	values := make([]string, len(ids))
	for i, id := range ids {
		if values[i], err = b.get(anyType, id); err != nil {
			return "", nil, err
		}
	}
	b.add("%s := %s.NewCollection(%s, []any{%s})", local, b.keel(), keys, strings.Join(values, ", "))
	return local, collectionType, nil
}

func (b *body) callable(d *keel.CallableDefinition) (string, reflect.Type, error) {
	fn := d.Func()
	sig, err := b.s.analyzer.Func(fn)
	if err != nil {
		return "", nil, err
	}
	callee, err := b.s.funcRef(fn)
	if err != nil {
		return "", nil, err
	}
	args, err := b.arguments(b.s.invocation(d, sig, keel.FuncTarget(fn)))
	if err != nil {
		return "", nil, err
	}

	expr, t := b.primary(b.call(callee, sig, args, len(sig.Results)), sig)
	return expr, t, nil
}

func (b *body) factory(d *keel.FactoryDefinition) (string, reflect.Type, error) {
	ft := d.FactoryType()

	var (
		recv     string
		recvType reflect.Type
		err      error
	)
	if d.Static() {
		if _, err := keel.StaticMethod(ft, d.Method()); err != nil {
			return "", nil, invalid(err)
		}
		recvType = ft
		if recvType.Kind() == reflect.Pointer {
			recvType = recvType.Elem()
		}
		if recv, err = b.zero(recvType); err != nil {
			return "", nil, err
		}
	} else {
		recvType = ft
		if recv, err = b.receiver(ft); err != nil {
			return "", nil, err
		}
	}

	if _, ok := recvType.MethodByName(d.Method()); !ok {
		return "", nil, invalid(keel.AutowireError{Type: recvType, Method: d.Method(), Cause: keel.ErrMethodMissing})
	}
	sig, err := b.s.analyzer.Method(recvType, d.Method())
	if err != nil {
		return "", nil, err
	}
	args, err := b.arguments(b.s.invocation(d, sig, keel.MethodTarget(recvType, d.Method())))
	if err != nil {
		return "", nil, err
	}

	expr, t := b.primary(b.call(recv+"."+d.Method(), sig, args, len(sig.Results)), sig)
	return expr, t, nil
}

// receiver renders a factory instance. A registered factory is resolved
// through its id; any other is built inline from its discovered definition,
// so it is rebuilt on every call and never gets an accessor of its own.
func (b *body) receiver(ft reflect.Type) (string, error) {
	if id := keel.TypeID(ft); b.s.HasDefinition(id) {
		return b.get(ft, id)
	}
	def, ok := keel.Discover(ft, b.s.provider)
	if !ok {
		return "", invalid(fmt.Errorf("factory %s cannot be built: register it or give it a constructor", ft))
	}
	expr, from, err := b.build(def)
	if err != nil {
		return "", err
	}
	return b.convert(expr, from, ft, "factory "+ft.String())
}

func (b *body) autowire(d *keel.AutowireDefinition) (string, reflect.Type, error) {
	t := d.Type()
	inst, err := b.zero(t)
	if err != nil {
		return "", nil, err
	}

	if fn, ok := d.Constructor(); ok {
		sig, err := b.s.analyzer.Func(fn)
		if err != nil {
			return "", nil, err
		}
		callee, err := b.s.funcRef(fn)
		if err != nil {
			return "", nil, err
		}
		args, err := b.arguments(b.s.invocation(d, sig, keel.FuncTarget(fn)))
		if err != nil {
			return "", nil, err
		}

		lhs := []string{inst}
		for range sig.Results[1:] {
			lhs = append(lhs, "_")
		}
		if sig.HasError {
			lhs = append(lhs, "err")
		}
		b.add("%s = %s(%s)", strings.Join(lhs, ", "), callee, args)
		if sig.HasError {
			b.check()
		}
	} else {
		sig, err := b.s.analyzer.Struct(t)
		if err != nil {
			return "", nil, err
		}
		plans, exprs, err := b.plan(b.s.invocation(d, sig, keel.TypeTarget(t)))
		if err != nil {
			return "", nil, err
		}
		st := t
		if st.Kind() == reflect.Pointer {
			st = st.Elem()
		}
		lit, err := b.structLiteral(st, plans, exprs, t.Kind() == reflect.Pointer)
		if err != nil {
			return "", nil, err
		}
		b.add("%s = %s", inst, lit)
	}

	for _, s := range d.OrderedSetups() {
		if err := b.setup(d, inst, s); err != nil {
			return "", nil, err
		}
	}
	return inst, t, nil
}

// setup emits one setup call on inst. A result assignable to the definition
// type replaces inst.
func (b *body) setup(d *keel.AutowireDefinition, inst string, s keel.SetupCall) error {
	t := d.Type()
	if t.Kind() == reflect.Interface {
		return invalid(keel.AutowireError{Type: t, Method: s.Method, Cause: fmt.Errorf("setup calls need a concrete type")})
	}
	recvType := t
	if recvType.Kind() != reflect.Pointer {
		recvType = reflect.PointerTo(t)
	}
	if _, ok := recvType.MethodByName(s.Method); !ok {
		return invalid(keel.AutowireError{Type: t, Method: s.Method, Cause: keel.ErrMethodMissing})
	}

	sig, err := b.s.analyzer.Method(recvType, s.Method)
	if err != nil {
		return err
	}
	args, err := b.arguments(keel.Invocation{Signature: sig, Target: keel.MethodTarget(recvType, s.Method), Args: s.Args})
	if err != nil {
		return err
	}

	callee := inst + "." + s.Method
	replaces := len(sig.Results) > 0 && sig.Results[0].AssignableTo(t)
	if !replaces && !sig.HasError {
		b.add("%s(%s)", callee, args)
		return nil
	}

	lhs := make([]string, len(sig.Results))
	for i := range lhs {
		lhs[i] = "_"
	}
	if replaces {
		lhs[0] = inst
	}
	if sig.HasError {
		lhs = append(lhs, "err")
	}
	b.add("%s = %s(%s)", strings.Join(lhs, ", "), callee, args)
	if sig.HasError {
		b.check()
	}
	return nil
}

func (s *session) invocation(def keel.Definition, sig *reflection.Signature, target keel.Target) keel.Invocation {
	return keel.Invocation{
		Signature: sig,
		Target:    target,
		Args:      def.Args(),
		Names:     def.ParamNames(),
		Defaults:  def.Default,
	}
}

// singleton applies the container's lifetime rules: references and values
// are cached only when marked Singleton.
func (s *session) singleton(def keel.Definition) bool {
	switch def.Kind() {
	case keel.KindReference, keel.KindValue:
		return def.Lifetime() == keel.Singleton
	}
	return def.Lifetime().Resolve(s.cfg.SingletonDefault)
}

// staticType returns the type the id resolves to when it is known at compile
// time, following references.
func (s *session) staticType(id string) reflect.Type {
	def, ok := s.definition(id)
	for range s.reg.Len() + len(s.discovered) + 1 {
		if !ok {
			return nil
		}
		switch d := def.(type) {
		case *keel.ReferenceDefinition:
			def, ok = s.definition(d.Target())
			continue
		case *keel.TaggedDefinition:
			if d.IsLazy() {
				return lazyType
			}
			return collectionType
		case *keel.ProxyDefinition:
			return proxyType
		case *keel.CallableDefinition:
			if !d.Func().IsValid() {
				return nil
			}
			return primaryType(d.Func().Type())
		case *keel.FactoryDefinition:
			ft := d.FactoryType()
			if ft == nil {
				return nil
			}
			if d.Static() && ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			m, ok := ft.MethodByName(d.Method())
			if !ok {
				return nil
			}
			return primaryType(m.Type)
		case *keel.ValueDefinition:
			return reflect.TypeOf(d.Value())
		case *keel.AutowireDefinition:
			return d.Type()
		}
		return nil
	}
	return nil
}

// primaryType is the type of a call's value: its single non-error result,
// []any for several, nil for none.
func primaryType(ft reflect.Type) reflect.Type {
	var results []reflect.Type
	for i := range ft.NumOut() {
		if out := ft.Out(i); !(i == ft.NumOut()-1 && out == errorType) {
			results = append(results, out)
		}
	}
	switch len(results) {
	case 0:
		return nil
	case 1:
		return results[0]
	}
	return anySliceType
}

func describe(def keel.Definition) string {
	switch d := def.(type) {
	case *keel.ReferenceDefinition:
		return "Reference to " + strconv.Quote(d.Target())
	case *keel.ProxyDefinition:
		return "Proxy of " + strconv.Quote(d.Target())
	case *keel.TaggedDefinition:
		return "TaggedAs " + strconv.Quote(d.Tag())
	case *keel.CallableDefinition:
		return "Callable " + reflection.FuncName(d.Func())
	case *keel.FactoryDefinition:
		return fmt.Sprintf("Factory %s.%s", d.FactoryType(), d.Method())
	case *keel.AutowireDefinition:
		return "Autowire " + d.Type().String()
	}
	return def.Kind().String()
}

func quoteList(ss []string) string {
	quoted := make([]string, len(ss))
	for i, s := range ss {
		quoted[i] = strconv.Quote(s)
	}
	return "[]string{" + strings.Join(quoted, ", ") + "}"
}
