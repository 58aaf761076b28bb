package compiler

import (
	"fmt"
	"go/token"
	"path"
	"reflect"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

const keelPath = "github.com/junioryono/keel"

var (
	versionSuffix = regexp.MustCompile(`^v[0-9]+$`)
	localName     = regexp.MustCompile(`^a[0-9]+$`)
)

// importSet assigns a unique local name to every package the generated file
// references.
type importSet struct {
	self   string
	byPath map[string]string
	byName map[string]string
}

func newImportSet(self string, reserved ...string) *importSet {
	s := &importSet{
		self:   self,
		byPath: make(map[string]string),
		byName: make(map[string]string),
	}
	for _, name := range reserved {
		s.byName[name] = ""
	}
	return s
}

// qualifier returns the prefix that references pkgPath from the generated
// file: empty for the generated package itself, otherwise "name.".
func (s *importSet) qualifier(pkgPath string) (string, error) {
	if pkgPath == s.self {
		return "", nil
	}
	if err := s.importable(pkgPath); err != nil {
		return "", err
	}
	return s.add(pkgPath) + ".", nil
}

func (s *importSet) importable(pkgPath string) error {
	switch {
	case pkgPath == "main":
		return fmt.Errorf("package main cannot be imported")
	case strings.HasSuffix(pkgPath, "_test"):
		return fmt.Errorf("test package %s cannot be imported", pkgPath)
	}

	parent, ok := "", false
	if i := strings.LastIndex(pkgPath, "/internal/"); i >= 0 {
		parent, ok = pkgPath[:i], true
	} else if strings.HasSuffix(pkgPath, "/internal") {
		parent, ok = strings.TrimSuffix(pkgPath, "/internal"), true
	} else if pkgPath == "internal" || strings.HasPrefix(pkgPath, "internal/") {
		parent, ok = "", true
	}
	if ok && s.self != parent && !strings.HasPrefix(s.self, parent+"/") {
		return fmt.Errorf("internal package %s cannot be imported from %s", pkgPath, s.self)
	}
	return nil
}

// add returns the local name of pkgPath, importing it when needed.
func (s *importSet) add(pkgPath string) string {
	if name, ok := s.byPath[pkgPath]; ok {
		return name
	}

	base := packageName(pkgPath)
	name := base
	for i := 2; ; i++ {
		if _, taken := s.byName[name]; !taken {
			break
		}
		name = base + strconv.Itoa(i)
	}
	s.byPath[pkgPath] = name
	s.byName[name] = pkgPath
	return name
}

// addNamed imports pkgPath under name, as a re-embedded closure expects.
func (s *importSet) addNamed(name, pkgPath string) error {
	if pkgPath == s.self {
		return nil
	}
	if existing, ok := s.byPath[pkgPath]; ok {
		if existing != name {
			return fmt.Errorf("package %s is imported as %s, closure uses %s", pkgPath, existing, name)
		}
		return nil
	}
	if other, taken := s.byName[name]; taken {
		return fmt.Errorf("name %s is already used by %q", name, other)
	}
	if err := s.importable(pkgPath); err != nil {
		return err
	}
	s.byPath[pkgPath] = name
	s.byName[name] = pkgPath
	return nil
}

// specs returns the import specs sorted by path.
func (s *importSet) specs() []string {
	paths := make([]string, 0, len(s.byPath))
	for p := range s.byPath {
		paths = append(paths, p)
	}
	slices.Sort(paths)

	specs := make([]string, len(paths))
	for i, p := range paths {
		name := s.byPath[p]
		if name == path.Base(p) {
			specs[i] = strconv.Quote(p)
		} else {
			specs[i] = name + " " + strconv.Quote(p)
		}
	}
	return specs
}

// packageName guesses the package name of an import path: its last element
// without a major version suffix or a dotted extension.
func packageName(pkgPath string) string {
	elems := strings.Split(pkgPath, "/")
	base := elems[len(elems)-1]
	if versionSuffix.MatchString(base) && len(elems) > 1 {
		base = elems[len(elems)-2]
	}
	if i := strings.Index(base, "."); i > 0 {
		base = base[:i]
	}
	base = strings.TrimPrefix(base, "go-")

	var b strings.Builder
	for _, r := range base {
		if r == '_' || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9' && b.Len() > 0) {
			b.WriteRune(r)
		}
	}
	name := strings.ToLower(b.String())
	if name == "" || token.IsKeyword(name) || localName.MatchString(name) {
		name = "pkg" + name
	}
	return name
}

// typeExpr renders t as a type expression of the generated file.
func (s *importSet) typeExpr(t reflect.Type) (string, error) {
	if t == nil {
		return "any", nil
	}

	if t.Name() != "" {
		if strings.Contains(t.Name(), "[") {
			return "", fmt.Errorf("%w: generic type %s", ErrUnsupportedValue, t)
		}
		if t.PkgPath() == "" {
			return t.Name(), nil
		}
		if !token.IsExported(t.Name()) && t.PkgPath() != s.self {
			return "", fmt.Errorf("%w: type %s is not exported", ErrUnsupportedValue, t)
		}
		q, err := s.qualifier(t.PkgPath())
		if err != nil {
			return "", fmt.Errorf("type %s: %w", t, err)
		}
		return q + t.Name(), nil
	}

	switch t.Kind() {
	case reflect.Pointer:
		elem, err := s.typeExpr(t.Elem())
		return "*" + elem, err
	case reflect.Slice:
		elem, err := s.typeExpr(t.Elem())
		return "[]" + elem, err
	case reflect.Array:
		elem, err := s.typeExpr(t.Elem())
		return fmt.Sprintf("[%d]%s", t.Len(), elem), err
	case reflect.Map:
		key, err := s.typeExpr(t.Key())
		if err != nil {
			return "", err
		}
		elem, err := s.typeExpr(t.Elem())
		return "map[" + key + "]" + elem, err
	case reflect.Chan:
		elem, err := s.typeExpr(t.Elem())
		switch t.ChanDir() {
		case reflect.RecvDir:
			return "<-chan " + elem, err
		case reflect.SendDir:
			return "chan<- " + elem, err
		}
		return "chan " + elem, err
	case reflect.Func:
		return s.funcTypeExpr(t)
	case reflect.Interface:
		if t.NumMethod() == 0 {
			return "any", nil
		}
	case reflect.Struct:
		return s.structTypeExpr(t)
	}
	return "", fmt.Errorf("%w: type %s has no source form", ErrUnsupportedValue, t)
}

func (s *importSet) funcTypeExpr(t reflect.Type) (string, error) {
	params := make([]string, t.NumIn())
	for i := range t.NumIn() {
		in := t.In(i)
		prefix := ""
		if t.IsVariadic() && i == t.NumIn()-1 {
			in, prefix = in.Elem(), "..."
		}
		expr, err := s.typeExpr(in)
		if err != nil {
			return "", err
		}
		params[i] = prefix + expr
	}

	results := make([]string, t.NumOut())
	for i := range t.NumOut() {
		expr, err := s.typeExpr(t.Out(i))
		if err != nil {
			return "", err
		}
		results[i] = expr
	}

	expr := "func(" + strings.Join(params, ", ") + ")"
	switch len(results) {
	case 0:
	case 1:
		expr += " " + results[0]
	default:
		expr += " (" + strings.Join(results, ", ") + ")"
	}
	return expr, nil
}

func (s *importSet) structTypeExpr(t reflect.Type) (string, error) {
	fields := make([]string, t.NumField())
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() && f.PkgPath != s.self {
			return "", fmt.Errorf("%w: struct %s has unexported field %s", ErrUnsupportedValue, t, f.Name)
		}
		expr, err := s.typeExpr(f.Type)
		if err != nil {
			return "", err
		}
		field := f.Name + " " + expr
		if f.Anonymous {
			field = expr
		}
		if f.Tag != "" {
			field += " " + strconv.Quote(string(f.Tag))
		}
		fields[i] = field
	}
	if len(fields) == 0 {
		return "struct{}", nil
	}
	return "struct{ " + strings.Join(fields, "; ") + " }", nil
}
