package reflection

import (
	"fmt"
	"reflect"
	"runtime"
	"strconv"
	"sync"
	"time"

	"go.uber.org/dig"
)

var (
	inType       = reflect.TypeFor[dig.In]()
	errType      = reflect.TypeFor[error]()
	durationType = reflect.TypeFor[time.Duration]()
)

// Analyzer performs reflection-based analysis of functions, methods and
// injectable structs. It caches analysis results per function entry point or type.
type Analyzer struct {
	mu      sync.RWMutex
	funcs   map[uintptr]*Signature
	methods map[methodKey]*Signature
	structs map[reflect.Type]*Signature
}

type methodKey struct {
	recv reflect.Type
	name string
}

// Signature describes what a call target needs and produces.
type Signature struct {
	// Name is the qualified function name, or "Type.Method" for methods.
	Name string

	// Location is the source position of the function, as file:line.
	Location string

	// Type is the function type, or the struct type for field injection.
	Type reflect.Type

	Params []Param

	// ParamObject is set when the function takes a single dig.In struct.
	ParamObject reflect.Type

	// Results lists the non-error results.
	Results []reflect.Type

	// HasError is true when the last result is an error.
	HasError bool

	Variadic bool

	// Fields is true when the signature describes struct field injection.
	Fields bool
}

// Param describes a function parameter, a param object field, or an injected struct field.
type Param struct {
	Name       string
	Index      int
	Type       reflect.Type
	Variadic   bool
	Optional   bool
	Default    any
	HasDefault bool
	Tag        reflect.StructTag
}

// Label names the parameter for error messages.
func (p Param) Label() string {
	if p.Name != "" {
		return "$" + p.Name
	}
	return fmt.Sprintf("#%d (%s)", p.Index, p.Type)
}

// TagInfo contains parsed struct tag information.
type TagInfo struct {
	Optional bool
	Default  string
	HasDef   bool
	Ignore   bool
	Inject   string
	Tagged   string
}

// New creates a new Analyzer.
func New() *Analyzer {
	return &Analyzer{
		funcs:   make(map[uintptr]*Signature),
		methods: make(map[methodKey]*Signature),
		structs: make(map[reflect.Type]*Signature),
	}
}

// Func analyzes a function value.
func (a *Analyzer) Func(fn reflect.Value) (*Signature, error) {
	if !fn.IsValid() || fn.Kind() != reflect.Func || fn.IsNil() {
		return nil, fmt.Errorf("expected a non-nil function, got %v", describe(fn))
	}

	key := fn.Pointer()
	a.mu.RLock()
	if cached, ok := a.funcs[key]; ok {
		a.mu.RUnlock()
		return cached, nil
	}
	a.mu.RUnlock()

	sig := &Signature{
		Name:     FuncName(fn),
		Location: FuncLocation(fn),
		Type:     fn.Type(),
	}
	if err := a.analyzeParameters(sig, fn.Type()); err != nil {
		return nil, fmt.Errorf("failed to analyze %s: %w", sig.Name, err)
	}
	analyzeResults(sig, fn.Type())

	a.mu.Lock()
	a.funcs[key] = sig
	a.mu.Unlock()
	return sig, nil
}

// Method analyzes the method called name in the method set of recv.
// The receiver is not part of the parameter list.
func (a *Analyzer) Method(recv reflect.Type, name string) (*Signature, error) {
	key := methodKey{recv: recv, name: name}
	a.mu.RLock()
	if cached, ok := a.methods[key]; ok {
		a.mu.RUnlock()
		return cached, nil
	}
	a.mu.RUnlock()

	if recv.Kind() == reflect.Interface {
		return nil, fmt.Errorf("cannot analyze methods of interface %s", recv)
	}

	m, ok := recv.MethodByName(name)
	if !ok {
		return nil, fmt.Errorf("%s has no method %s", recv, name)
	}

	sig := &Signature{
		Name:     recv.String() + "." + name,
		Location: FuncLocation(m.Func),
	}

	// Drop the receiver from the method expression's type.
	ft := m.Type
	in := make([]reflect.Type, 0, ft.NumIn()-1)
	for i := 1; i < ft.NumIn(); i++ {
		in = append(in, ft.In(i))
	}
	out := make([]reflect.Type, 0, ft.NumOut())
	for i := range ft.NumOut() {
		out = append(out, ft.Out(i))
	}
	sig.Type = reflect.FuncOf(in, out, ft.IsVariadic())

	if err := a.analyzeParameters(sig, sig.Type); err != nil {
		return nil, fmt.Errorf("failed to analyze %s: %w", sig.Name, err)
	}
	analyzeResults(sig, sig.Type)

	a.mu.Lock()
	a.methods[key] = sig
	a.mu.Unlock()
	return sig, nil
}

// Struct analyzes the injectable fields of a struct type (or pointer to
// struct). Exported fields carrying an inject or tagged tag are parameters.
func (a *Analyzer) Struct(t reflect.Type) (*Signature, error) {
	a.mu.RLock()
	if cached, ok := a.structs[t]; ok {
		a.mu.RUnlock()
		return cached, nil
	}
	a.mu.RUnlock()

	st := t
	if st.Kind() == reflect.Pointer {
		st = st.Elem()
	}
	if st.Kind() != reflect.Struct {
		return nil, fmt.Errorf("field injection requires a struct, got %v", t)
	}

	sig := &Signature{
		Name:    t.String(),
		Type:    st,
		Results: []reflect.Type{t},
		Fields:  true,
	}
	for i := range st.NumField() {
		field := st.Field(i)
		if !field.IsExported() {
			continue
		}
		info, err := ParseFieldTags(field.Tag, field.Type)
		if err != nil {
			return nil, fmt.Errorf("field %s.%s: %w", st.Name(), field.Name, err)
		}
		if info.Ignore || (info.Inject == "" && info.Tagged == "" && !hasInjectTag(field.Tag)) {
			continue
		}
		sig.Params = append(sig.Params, fieldParam(field, i, info))
	}

	a.mu.Lock()
	a.structs[t] = sig
	a.mu.Unlock()
	return sig, nil
}

// analyzeParameters analyzes function parameters or In struct fields.
func (a *Analyzer) analyzeParameters(sig *Signature, fnType reflect.Type) error {
	sig.Variadic = fnType.IsVariadic()

	// Check for In parameter object
	if fnType.NumIn() == 1 && IsParamObject(fnType.In(0)) {
		return a.analyzeParamObject(sig, fnType.In(0))
	}

	sig.Params = make([]Param, fnType.NumIn())
	for i := range fnType.NumIn() {
		sig.Params[i] = Param{
			Index:    i,
			Type:     fnType.In(i),
			Variadic: sig.Variadic && i == fnType.NumIn()-1,
		}
	}
	return nil
}

// analyzeParamObject analyzes an In struct's fields.
func (a *Analyzer) analyzeParamObject(sig *Signature, structType reflect.Type) error {
	sig.ParamObject = structType
	for i := range structType.NumField() {
		field := structType.Field(i)

		// Skip unexported fields and the embedded marker
		if !field.IsExported() || (field.Anonymous && field.Type == inType) {
			continue
		}

		info, err := ParseFieldTags(field.Tag, field.Type)
		if err != nil {
			return fmt.Errorf("field %s.%s: %w", structType.Name(), field.Name, err)
		}
		if info.Ignore {
			continue
		}

		sig.Params = append(sig.Params, fieldParam(field, i, info))
	}
	return nil
}

func fieldParam(field reflect.StructField, index int, info TagInfo) Param {
	p := Param{
		Name:     field.Name,
		Index:    index,
		Type:     field.Type,
		Optional: info.Optional,
		Tag:      field.Tag,
	}
	if info.HasDef {
		// ParseFieldTags already validated the literal.
		p.Default, _ = parseDefault(info.Default, field.Type)
		p.HasDefault = true
	}
	return p
}

func analyzeResults(sig *Signature, fnType reflect.Type) {
	n := fnType.NumOut()
	for i := range n {
		out := fnType.Out(i)
		if i == n-1 && out == errType {
			sig.HasError = true
			continue
		}
		sig.Results = append(sig.Results, out)
	}
}

// WithNames returns a copy of sig whose positional parameters carry names.
// Param objects and struct fields keep their field names.
func (s *Signature) WithNames(names []string) *Signature {
	if len(names) == 0 || s.ParamObject != nil || s.Fields {
		return s
	}
	c := *s
	c.Params = make([]Param, len(s.Params))
	copy(c.Params, s.Params)
	for i := range c.Params {
		if i < len(names) {
			c.Params[i].Name = names[i]
		}
	}
	return &c
}

// Result returns the primary result type, or nil when the function returns only an error.
func (s *Signature) Result() reflect.Type {
	if len(s.Results) == 0 {
		return nil
	}
	return s.Results[0]
}

// IsParamObject reports whether t is a struct embedding dig.In.
func IsParamObject(t reflect.Type) bool {
	return t.Kind() == reflect.Struct && dig.IsIn(t)
}

// ParseFieldTags parses struct field tags for injection annotations:
// inject:"id" (or inject:"-" to skip), tagged:"name", optional:"true" and
// default:"literal".
func ParseFieldTags(tag reflect.StructTag, fieldType reflect.Type) (TagInfo, error) {
	info := TagInfo{}

	if val, ok := tag.Lookup("optional"); ok {
		info.Optional = val == "true"
	}

	if val, ok := tag.Lookup("inject"); ok {
		if val == "-" {
			info.Ignore = true
		} else {
			info.Inject = val
		}
	}

	if val, ok := tag.Lookup("tagged"); ok {
		info.Tagged = val
	}

	if val, ok := tag.Lookup("default"); ok {
		if _, err := parseDefault(val, fieldType); err != nil {
			return info, err
		}
		info.Default = val
		info.HasDef = true
	}

	return info, nil
}

func hasInjectTag(tag reflect.StructTag) bool {
	_, ok := tag.Lookup("inject")
	return ok
}

// parseDefault converts a default tag literal into a value of type t.
func parseDefault(s string, t reflect.Type) (any, error) {
	v := reflect.New(t).Elem()

	switch {
	case t == durationType:
		d, err := time.ParseDuration(s)
		if err != nil {
			return nil, fmt.Errorf("invalid default %q: %w", s, err)
		}
		v.SetInt(int64(d))
		return v.Interface(), nil
	}

	switch t.Kind() {
	case reflect.String:
		v.SetString(s)
	case reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, fmt.Errorf("invalid default %q: %w", s, err)
		}
		v.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(s, 10, t.Bits())
		if err != nil {
			return nil, fmt.Errorf("invalid default %q: %w", s, err)
		}
		v.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(s, 10, t.Bits())
		if err != nil {
			return nil, fmt.Errorf("invalid default %q: %w", s, err)
		}
		v.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(s, t.Bits())
		if err != nil {
			return nil, fmt.Errorf("invalid default %q: %w", s, err)
		}
		v.SetFloat(f)
	default:
		return nil, fmt.Errorf("default tag is not supported for %v", t)
	}
	return v.Interface(), nil
}

// FuncName returns the fully qualified runtime name of a function value.
func FuncName(fn reflect.Value) string {
	if !fn.IsValid() {
		return "<nil>"
	}
	if f := runtime.FuncForPC(fn.Pointer()); f != nil {
		return f.Name()
	}
	return fn.Type().String()
}

// FuncLocation returns file:line of the function's entry point.
func FuncLocation(fn reflect.Value) string {
	file, line := FuncFileLine(fn)
	if file == "" {
		return ""
	}
	return file + ":" + strconv.Itoa(line)
}

// FuncFileLine returns the source file and line of the function's entry point.
func FuncFileLine(fn reflect.Value) (string, int) {
	if !fn.IsValid() {
		return "", 0
	}
	f := runtime.FuncForPC(fn.Pointer())
	if f == nil {
		return "", 0
	}
	return f.FileLine(f.Entry())
}

// Clear clears the analysis cache.
func (a *Analyzer) Clear() {
	a.mu.Lock()
	a.funcs = make(map[uintptr]*Signature)
	a.methods = make(map[methodKey]*Signature)
	a.structs = make(map[reflect.Type]*Signature)
	a.mu.Unlock()
}

// CacheSize returns the number of cached analyses.
func (a *Analyzer) CacheSize() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.funcs) + len(a.methods) + len(a.structs)
}

func describe(v reflect.Value) string {
	if !v.IsValid() {
		return "<nil>"
	}
	return v.Type().String()
}
