package compiler

import (
	"fmt"
	"math"
	"reflect"
	"slices"
	"strconv"
	"strings"
)

// literal renders v as an expression of exactly v's type. Values without a
// source form, such as structs and non-nil pointers, fail with
// ErrUnsupportedValue naming their type.
func (s *session) literal(v reflect.Value) (string, error) {
	if !v.IsValid() {
		return "nil", nil
	}
	t := v.Type()

	switch t.Kind() {
	case reflect.Bool:
		return s.typed(t, "bool", strconv.FormatBool(v.Bool()))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return s.typed(t, "int", strconv.FormatInt(v.Int(), 10))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return s.typed(t, "", strconv.FormatUint(v.Uint(), 10))
	case reflect.Float32, reflect.Float64:
		return s.float(t, v.Float())
	case reflect.Complex64, reflect.Complex128:
		c := v.Complex()
		re, err := s.float(reflect.TypeFor[float64](), real(c))
		if err != nil {
			return "", err
		}
		im, err := s.float(reflect.TypeFor[float64](), imag(c))
		if err != nil {
			return "", err
		}
		return s.typed(t, "", "complex("+re+", "+im+")")
	case reflect.String:
		return s.typed(t, "string", strconv.Quote(v.String()))
	case reflect.Interface:
		if v.IsNil() {
			return "nil", nil
		}
		return s.literal(v.Elem())
	case reflect.Slice:
		if v.IsNil() {
			return s.nilOf(t)
		}
		return s.sequence(v)
	case reflect.Array:
		return s.sequence(v)
	case reflect.Map:
		if v.IsNil() {
			return s.nilOf(t)
		}
		return s.mapLiteral(v)
	case reflect.Func:
		if v.IsNil() {
			return s.nilOf(t)
		}
		return s.funcRef(v)
	case reflect.Pointer, reflect.Chan, reflect.UnsafePointer:
		if v.IsNil() {
			return s.nilOf(t)
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedValue, t)
}

// typed converts lit to t unless lit already has type t as an untyped
// constant. def names the default type of lit.
func (s *session) typed(t reflect.Type, def, lit string) (string, error) {
	if t.PkgPath() == "" && t.Name() == def {
		return lit, nil
	}
	expr, err := s.pkgs.typeExpr(t)
	if err != nil {
		return "", err
	}
	return expr + "(" + lit + ")", nil
}

func (s *session) float(t reflect.Type, f float64) (string, error) {
	var lit string
	switch {
	case math.IsNaN(f):
		lit = s.pkgs.add("math") + ".NaN()"
	case math.IsInf(f, 1):
		lit = s.pkgs.add("math") + ".Inf(1)"
	case math.IsInf(f, -1):
		lit = s.pkgs.add("math") + ".Inf(-1)"
	default:
		lit = strconv.FormatFloat(f, 'g', -1, t.Bits())
		if !strings.ContainsAny(lit, ".e") {
			lit += ".0"
		}
	}
	return s.typed(t, "float64", lit)
}

func (s *session) nilOf(t reflect.Type) (string, error) {
	expr, err := s.pkgs.typeExpr(t)
	if err != nil {
		return "", err
	}
	return "(" + expr + ")(nil)", nil
}

func (s *session) sequence(v reflect.Value) (string, error) {
	expr, err := s.pkgs.typeExpr(v.Type())
	if err != nil {
		return "", err
	}
	elems := make([]string, v.Len())
	for i := range v.Len() {
		if elems[i], err = s.element(v.Index(i)); err != nil {
			return "", fmt.Errorf("element %d: %w", i, err)
		}
	}
	return expr + "{" + strings.Join(elems, ", ") + "}", nil
}

func (s *session) mapLiteral(v reflect.Value) (string, error) {
	expr, err := s.pkgs.typeExpr(v.Type())
	if err != nil {
		return "", err
	}

	pairs := make([]string, 0, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		key, err := s.element(iter.Key())
		if err != nil {
			return "", fmt.Errorf("map key: %w", err)
		}
		elem, err := s.element(iter.Value())
		if err != nil {
			return "", fmt.Errorf("map value %s: %w", key, err)
		}
		pairs = append(pairs, key+": "+elem)
	}
	slices.Sort(pairs)
	return expr + "{" + strings.Join(pairs, ", ") + "}", nil
}

// element renders a composite literal element. Finite basic values are left
// untyped; the element type converts them.
func (s *session) element(v reflect.Value) (string, error) {
	switch v.Kind() {
	case reflect.Bool:
		return strconv.FormatBool(v.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(v.Uint(), 10), nil
	case reflect.String:
		return strconv.Quote(v.String()), nil
	case reflect.Float32, reflect.Float64:
		if f := v.Float(); !math.IsNaN(f) && !math.IsInf(f, 0) {
			return strconv.FormatFloat(f, 'g', -1, v.Type().Bits()), nil
		}
	}
	return s.literal(v)
}
