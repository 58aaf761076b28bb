package compiler

import (
	"fmt"
	"go/token"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/tools/imports"
)

// method returns the accessor name of id, assigning it on first use.
func (s *session) method(id string) string {
	if name, ok := s.methods[id]; ok {
		return name
	}
	name := s.unique("get" + camel(id))
	s.methods[id] = name
	return name
}

// field returns a storage field name for id.
func (s *session) field(id string) string {
	name := lowerFirst(camel(id))
	if token.IsKeyword(name) {
		name += "Value"
	}
	return s.unique(name)
}

// unique reserves base, or base with the lowest free numeric suffix.
func (s *session) unique(base string) string {
	name := base
	for i := 2; s.names[name]; i++ {
		name = base + strconv.Itoa(i)
	}
	s.names[name] = true
	return name
}

// camel derives an exported identifier from the last path element of id.
func camel(id string) string {
	if i := strings.LastIndex(id, "/"); i >= 0 {
		id = id[i+1:]
	}

	var b strings.Builder
	upper := true
	for _, r := range id {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}

	name := b.String()
	if name == "" {
		return "Entry"
	}
	if r, _ := utf8.DecodeRuneInString(name); unicode.IsDigit(r) {
		name = "N" + name
	}
	return name
}

func lowerFirst(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	return string(unicode.ToLower(r)) + s[n:]
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

// assemble renders the generated file and formats it.
func (s *session) assemble() ([]byte, error) {
	entries := s.ordered()
	k := s.pkgs.add(keelPath)
	typ := s.cfg.TypeName
	table := s.unexported + "Accessors"

	fields := make(map[string]string, len(entries))
	for _, e := range entries {
		if e.Singleton {
			fields[e.ID] = s.field(e.ID)
		}
	}

	var b strings.Builder
	w := func(format string, args ...any) {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}

	w("// Code generated by keel. DO NOT EDIT.")
	w("")
	w("package %s", s.cfg.Package)
	w("")
	w("import (")
	for _, spec := range s.pkgs.specs() {
		w("\t%s", spec)
	}
	w(")")
	w("")

	w("// %s resolves %d compiled ids. It is not safe for concurrent use.", typ, len(entries))
	w("type %s struct {", typ)
	w("stack %s.Stack", k)
	w("done map[string]struct{}")
	for _, e := range entries {
		if field, ok := fields[e.ID]; ok {
			w("%s %s", field, e.ReturnType)
		}
	}
	w("}")
	w("")
	w("var _ %s.Getter = (*%s)(nil)", k, typ)
	w("")

	w("// New%s returns a container with no resolved singletons.", typ)
	w("func New%s() *%s {", typ, typ)
	w("return &%s{done: make(map[string]struct{})}", typ)
	w("}")
	w("")

	w("var %s map[string]func(*%s) (any, error)", table, typ)
	w("")
	w("func init() {")
	w("%s = map[string]func(*%s) (any, error){", table, typ)
	for _, e := range entries {
		w("%s: func(c *%s) (any, error) { return c.%s() },", strconv.Quote(e.ID), typ, e.Method)
	}
	w("}")
	w("}")
	w("")

	w("// Has reports whether id is compiled into the container.")
	w("func (c *%s) Has(id string) bool {", typ)
	w("_, ok := %s[id]", table)
	w("return ok")
	w("}")
	w("")
	w("// Get resolves id.")
	w("func (c *%s) Get(id string) (any, error) {", typ)
	w("get, ok := %s[id]", table)
	w("if !ok {")
	w("return nil, c.stack.NotFound(id)")
	w("}")
	w("return get(c)")
	w("}")

	for _, e := range entries {
		w("")
		s.accessor(w, e, fields[e.ID])
	}

	for _, decl := range s.closureDecls {
		w("")
		w("var %s = %s", decl.name, decl.text)
	}

	filename := s.cfg.Output
	if filename == "" {
		filename = strings.ToLower(typ) + "_gen.go"
	}
	src, err := imports.Process(filename, []byte(b.String()), &imports.Options{
		Comments:  true,
		TabIndent: true,
		TabWidth:  8,
	})
	if err != nil {
		return nil, fmt.Errorf("format generated source: %w", err)
	}
	return src, nil
}

func (s *session) accessor(w func(string, ...any), e *Entry, field string) {
	id := strconv.Quote(e.ID)

	w("// %s resolves %s.", e.Method, id)
	if e.Comment != "" {
		w("//")
		w("// %s", e.Comment)
	}
	w("func (c *%s) %s() (v %s, err error) {", s.cfg.TypeName, e.Method, e.ReturnType)
	if field != "" {
		w("if _, ok := c.done[%s]; ok {", id)
		w("return c.%s, nil", field)
		w("}")
	}
	w("if err = c.stack.Enter(%s); err != nil {", id)
	w("return v, err")
	w("}")
	w("defer c.stack.Leave(%s)", id)
	w("")
	for _, stmt := range e.Statements {
		w("%s", stmt)
	}
	if e.Expr == "" {
		w("}")
		return
	}
	w("v = %s", e.Expr)
	if field != "" {
		w("c.%s = v", field)
		w("c.done[%s] = struct{}{}", id)
	}
	w("return v, nil")
	w("}")
}
