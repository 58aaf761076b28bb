package keel

import (
	"fmt"
	"reflect"
)

var (
	collectionType     = reflect.TypeFor[*Collection]()
	lazyCollectionType = reflect.TypeFor[*LazyCollection]()
	proxyFuncType      = reflect.TypeFor[ProxyFunc]()
)

// ConversionKind describes how a resolved value reaches a parameter type.
type ConversionKind uint8

const (
	ConvertNone ConversionKind = iota
	ConvertAssign
	ConvertZero
	ConvertBasic
	ConvertSlice
	ConvertMap
	ConvertResolveSlice
	ConvertResolveMap
	ConvertProxy
)

// Conversion returns how a value of type from is made into a value of type
// to, or ConvertNone. A nil from means a nil value.
func Conversion(from, to reflect.Type) ConversionKind {
	switch {
	case from == nil:
		return ConvertZero
	case from.AssignableTo(to):
		return ConvertAssign
	case from == collectionType && to.Kind() == reflect.Slice:
		return ConvertSlice
	case from == collectionType && to.Kind() == reflect.Map && to.Key().Kind() == reflect.String:
		return ConvertMap
	case from == lazyCollectionType && to.Kind() == reflect.Slice:
		return ConvertResolveSlice
	case from == lazyCollectionType && to.Kind() == reflect.Map && to.Key().Kind() == reflect.String:
		return ConvertResolveMap
	case from == proxyFuncType && isTypedProxy(to):
		return ConvertProxy
	case basicConvertible(from, to):
		return ConvertBasic
	}
	return ConvertNone
}

// assign converts v for a parameter of type t.
func assign(v any, t reflect.Type, context string) (reflect.Value, error) {
	var from reflect.Type
	if v != nil {
		from = reflect.TypeOf(v)
	}

	switch Conversion(from, t) {
	case ConvertZero:
		return reflect.Zero(t), nil
	case ConvertAssign:
		out := reflect.New(t).Elem()
		out.Set(reflect.ValueOf(v))
		return out, nil
	case ConvertBasic:
		return reflect.ValueOf(v).Convert(t), nil
	case ConvertSlice:
		return collectionToSlice(v.(*Collection), t, context)
	case ConvertMap:
		return collectionToMap(v.(*Collection), t, context)
	case ConvertResolveSlice, ConvertResolveMap:
		c, err := v.(*LazyCollection).Resolve()
		if err != nil {
			return reflect.Value{}, err
		}
		return assign(c, t, context)
	case ConvertProxy:
		return typedProxy(v.(ProxyFunc), t), nil
	}
	return reflect.Value{}, TypeMismatchError{Expected: t, Actual: from, Context: context}
}

// Convert converts v to T the way the Container converts arguments:
// collections become slices or maps, proxies become typed resolvers and
// numeric or string values are converted between kinds.
func Convert[T any](v any, context string) (T, error) {
	rv, err := assign(v, reflect.TypeFor[T](), context)
	if err != nil {
		var zero T
		return zero, err
	}
	out, _ := rv.Interface().(T)
	return out, nil
}

// Inject resolves id and converts the value to T. Compiled containers use it
// where a plain type assertion does not reach the parameter type.
func Inject[T any](g Getter, id string) (T, error) {
	v, err := g.Get(id)
	if err != nil {
		var zero T
		return zero, err
	}
	return Convert[T](v, fmt.Sprintf("value of %q", id))
}

func collectionToSlice(c *Collection, t reflect.Type, context string) (reflect.Value, error) {
	out := reflect.MakeSlice(t, 0, c.Len())
	for _, v := range c.All() {
		ev, err := assign(v, t.Elem(), context)
		if err != nil {
			return reflect.Value{}, err
		}
		out = reflect.Append(out, ev)
	}
	return out, nil
}

func collectionToMap(c *Collection, t reflect.Type, context string) (reflect.Value, error) {
	out := reflect.MakeMapWithSize(t, c.Len())
	for k, v := range c.All() {
		ev, err := assign(v, t.Elem(), context)
		if err != nil {
			return reflect.Value{}, err
		}
		out.SetMapIndex(reflect.ValueOf(k).Convert(t.Key()), ev)
	}
	return out, nil
}

// isTypedProxy reports whether t has the shape func() (T, error).
func isTypedProxy(t reflect.Type) bool {
	return t.Kind() == reflect.Func && t.NumIn() == 0 && t.NumOut() == 2 && t.Out(1) == errorType
}

func typedProxy(p ProxyFunc, t reflect.Type) reflect.Value {
	elem := t.Out(0)
	return reflect.MakeFunc(t, func([]reflect.Value) []reflect.Value {
		v, err := p()
		if err == nil {
			var rv reflect.Value
			if rv, err = assign(v, elem, "proxy result"); err == nil {
				return []reflect.Value{rv, reflect.Zero(errorType)}
			}
		}
		return []reflect.Value{reflect.Zero(elem), reflect.ValueOf(&err).Elem()}
	})
}

// basicConvertible allows conversions between numeric kinds and between
// string kinds, so that literals reach named and sized parameter types.
func basicConvertible(from, to reflect.Type) bool {
	switch {
	case isNumeric(from.Kind()) && isNumeric(to.Kind()):
		return true
	case from.Kind() == reflect.String && to.Kind() == reflect.String:
		return true
	case from.Kind() == reflect.Bool && to.Kind() == reflect.Bool:
		return true
	}
	return false
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
