package keel

import (
	"cmp"
	"errors"
	"fmt"
	"go/token"
	"reflect"
	"runtime/debug"
	"slices"
	"strconv"
	"strings"
)

// TaggedMember is one resolved member of a tagged collection.
type TaggedMember struct {
	ID         string
	Key        string
	Priority   int64
	Definition Definition
}

// CollectTagged selects the members of coll from reg and orders them by
// priority, highest first. Members with equal priority keep registry order.
// self is the id that owns the collection; it is skipped when the
// collection excludes itself.
//
// A member's priority is the first of: the tag's numeric priority, the
// method named by the tag's priority.method option, the definition's default
// priority method, the collection's default priority method, and 0.
func CollectTagged(reg *Registry, coll *TaggedDefinition, self string) ([]TaggedMember, error) {
	var members []TaggedMember
	keys := make(map[string]string)

	for id, def := range reg.All() {
		if slices.Contains(coll.Excluded(), id) || (coll.ExcludesSelf() && id == self) {
			continue
		}
		tag, ok := HasTag(def, coll.Tag())
		if !ok {
			continue
		}

		t := DefinitionType(def, reg)
		priority, err := memberPriority(def, t, tag, coll)
		if err != nil {
			return nil, DefinitionError{ID: id, Cause: err}
		}

		m := TaggedMember{ID: id, Priority: priority, Definition: def}
		if coll.UsesKeys() {
			if m.Key, err = memberKey(id, t, tag, coll); err != nil {
				return nil, DefinitionError{ID: id, Cause: err}
			}
			if other, dup := keys[m.Key]; dup {
				return nil, DefinitionError{ID: coll.ID(), Cause: fmt.Errorf("%w %q used by %q and %q", ErrDuplicateKey, m.Key, other, id)}
			}
			keys[m.Key] = id
		}
		members = append(members, m)
	}

	slices.SortStableFunc(members, func(a, b TaggedMember) int {
		return cmp.Compare(b.Priority, a.Priority)
	})
	return members, nil
}

// MemberKeys returns the keys of members, or nil for a positional collection.
func MemberKeys(coll *TaggedDefinition, members []TaggedMember) []string {
	if !coll.UsesKeys() {
		return nil
	}
	keys := make([]string, len(members))
	for i, m := range members {
		keys[i] = m.Key
	}
	return keys
}

func memberPriority(def Definition, t reflect.Type, tag Tag, coll *TaggedDefinition) (int64, error) {
	if tag.Priority != nil {
		return *tag.Priority, nil
	}
	if v, ok := tag.Option(OptionPriority); ok {
		return toPriority(reflect.ValueOf(v), "priority option")
	}

	if v, ok := tag.Option(OptionPriorityMethod); ok {
		name, isString := v.(string)
		if !isString {
			return 0, TypeMismatchError{Expected: reflect.TypeFor[string](), Actual: reflect.TypeOf(v), Context: "priority.method option"}
		}
		return methodPriority(t, name, tag.Name, true)
	}
	if name := def.PriorityMethod(); name != "" {
		return methodPriority(t, name, tag.Name, true)
	}
	if name := coll.CollectionPriorityMethod(); name != "" {
		return methodPriority(t, name, tag.Name, false)
	}
	return 0, nil
}

func methodPriority(t reflect.Type, name, tag string, strict bool) (int64, error) {
	v, found, err := callStatic(t, name, tag, strict)
	if err != nil || !found {
		return 0, err
	}
	return toPriority(v, fmt.Sprintf("priority method %s", name))
}

func memberKey(id string, t reflect.Type, tag Tag, coll *TaggedDefinition) (string, error) {
	if v, ok := tag.Option(coll.KeyOption()); ok {
		if s, isString := v.(string); isString && strings.HasPrefix(s, selfPrefix) {
			rv, _, err := callStatic(t, strings.TrimPrefix(s, selfPrefix), tag.Name, true)
			if err != nil {
				return "", err
			}
			return toKey(rv, "key method")
		}
		return toKey(reflect.ValueOf(v), "key option")
	}

	if name := coll.KeyDefaultMethod(); name != "" {
		rv, found, err := callStatic(t, name, tag.Name, false)
		if err != nil {
			return "", err
		}
		if found {
			return toKey(rv, "key method")
		}
	}
	return id, nil
}

// StaticMethod finds the method name callable on the zero value of t.
// Methods declared on a pointer receiver are not static.
func StaticMethod(t reflect.Type, name string) (reflect.Method, error) {
	if t == nil {
		return reflect.Method{}, AutowireError{Method: name, Cause: fmt.Errorf("%w: member type is unknown", ErrMethodMissing)}
	}
	if !token.IsExported(name) {
		return reflect.Method{}, AutowireError{Type: t, Method: name, Cause: ErrMethodNotPublic}
	}

	elem := t
	if elem.Kind() == reflect.Pointer {
		elem = elem.Elem()
	}
	if elem.Kind() != reflect.Interface {
		if m, ok := elem.MethodByName(name); ok {
			return m, nil
		}
		if _, ok := reflect.PointerTo(elem).MethodByName(name); ok {
			return reflect.Method{}, AutowireError{Type: t, Method: name, Cause: ErrMethodNotStatic}
		}
	}
	return reflect.Method{}, AutowireError{Type: t, Method: name, Cause: ErrMethodMissing}
}

// StaticMethodTakesTag reports whether m (a method expression) accepts the
// tag name, validating the accepted shapes func() V and func(string) V.
func StaticMethodTakesTag(t reflect.Type, m reflect.Method) (bool, error) {
	mt := m.Type
	if mt.NumOut() != 1 {
		return false, AutowireError{Type: t, Method: m.Name, Cause: fmt.Errorf("must return exactly one value")}
	}
	switch {
	case mt.NumIn() == 1:
		return false, nil
	case mt.NumIn() == 2 && mt.In(1).Kind() == reflect.String:
		return true, nil
	}
	return false, AutowireError{Type: t, Method: m.Name, Cause: fmt.Errorf("must take no arguments or the tag name")}
}

// callStatic invokes the static method name of t. When strict is false a
// missing method is reported as not found rather than as an error.
func callStatic(t reflect.Type, name, tag string, strict bool) (rv reflect.Value, found bool, err error) {
	m, err := StaticMethod(t, name)
	if err != nil {
		if !strict && isMissing(err) {
			return reflect.Value{}, false, nil
		}
		return reflect.Value{}, false, err
	}

	takesTag, err := StaticMethodTakesTag(t, m)
	if err != nil {
		return reflect.Value{}, false, err
	}

	elem := t
	if elem.Kind() == reflect.Pointer {
		elem = elem.Elem()
	}
	in := []reflect.Value{reflect.Zero(elem)}
	if takesTag {
		in = append(in, reflect.ValueOf(tag).Convert(m.Type.In(1)))
	}

	defer func() {
		if r := recover(); r != nil {
			err = ConstructorPanicError{Function: elem.String() + "." + name, Panic: r, Stack: debug.Stack()}
		}
	}()
	return m.Func.Call(in)[0], true, nil
}

func isMissing(err error) bool {
	var ae AutowireError
	return errors.As(err, &ae) && errors.Is(ae.Cause, ErrMethodMissing)
}

func toPriority(v reflect.Value, context string) (int64, error) {
	if v.IsValid() {
		switch {
		case v.CanInt():
			return v.Int(), nil
		case v.CanUint():
			return int64(v.Uint()), nil
		case v.CanFloat():
			return int64(v.Float()), nil
		}
	}
	return 0, TypeMismatchError{Expected: reflect.TypeFor[int64](), Actual: valueType(v), Context: context}
}

func toKey(v reflect.Value, context string) (string, error) {
	if v.IsValid() {
		switch {
		case v.Kind() == reflect.String:
			return v.String(), nil
		case v.CanInt():
			return strconv.FormatInt(v.Int(), 10), nil
		case v.CanUint():
			return strconv.FormatUint(v.Uint(), 10), nil
		}
	}
	return "", TypeMismatchError{Expected: reflect.TypeFor[string](), Actual: valueType(v), Context: context}
}

func valueType(v reflect.Value) reflect.Type {
	if !v.IsValid() {
		return nil
	}
	return v.Type()
}

// DefinitionType returns the type def produces when it is known without
// building it. References are followed through reg.
func DefinitionType(def Definition, reg *Registry) reflect.Type {
	for range reg.Len() + 1 {
		switch d := def.(type) {
		case *AutowireDefinition:
			return d.Type()
		case *CallableDefinition:
			if !d.Func().IsValid() {
				return nil
			}
			return resultType(d.Func().Type())
		case *FactoryDefinition:
			return factoryResultType(d)
		case *ValueDefinition:
			return reflect.TypeOf(d.Value())
		case *ReferenceDefinition:
			next, ok := reg.Lookup(d.Target())
			if !ok {
				return nil
			}
			def = next
		default:
			return nil
		}
	}
	return nil
}

func factoryResultType(d *FactoryDefinition) reflect.Type {
	ft := d.FactoryType()
	if ft == nil {
		return nil
	}
	if m, ok := ft.MethodByName(d.Method()); ok {
		return resultType(m.Type)
	}
	if ft.Kind() != reflect.Pointer && ft.Kind() != reflect.Interface {
		if m, ok := reflect.PointerTo(ft).MethodByName(d.Method()); ok {
			return resultType(m.Type)
		}
	}
	return nil
}
