package compiler

import (
	"fmt"
	"io"
	"reflect"
	"strconv"
	"sync"

	"github.com/junioryono/keel"
	"github.com/junioryono/keel/internal/graph"
	"github.com/junioryono/keel/internal/reflection"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Entry is the compiled form of one id: the statements of its accessor and
// the expression it returns.
type Entry struct {
	ID string

	// Method is the accessor method of the generated type.
	Method string

	// Expr is assigned to the accessor's result after Statements run. An
	// empty Expr means Statements return by themselves.
	Expr string

	Singleton bool

	// Comment is added to the accessor's doc comment.
	Comment string

	// ReturnType is the accessor's result type.
	ReturnType string

	// Statements run in the accessor with c bound to the container and v,
	// err to its named results.
	Statements []string

	// Dependencies lists the ids the accessor resolves eagerly.
	Dependencies []string
}

// Result is the output of a compilation.
type Result struct {
	Source  []byte
	Entries []*Entry

	// Stubs lists the ids compiled to accessors that return an error.
	Stubs []string

	graph *graph.DependencyGraph
}

// Entry returns the entry compiled for id.
func (r *Result) Entry(id string) (*Entry, bool) {
	for _, e := range r.Entries {
		if e.ID == id {
			return e, true
		}
	}
	return nil, false
}

// WriteGraph writes the static dependency graph in DOT format.
func (r *Result) WriteGraph(w io.Writer) error {
	return graph.NewVisualizer(r.graph).WriteDOT(w)
}

// WriteSummary writes the dependency graph as text, grouped by depth.
func (r *Result) WriteSummary(w io.Writer) error {
	return graph.NewVisualizer(r.graph).WriteText(w)
}

// Order returns the compiled ids with eager dependencies first.
func (r *Result) Order() ([]string, error) {
	nodes, err := r.graph.TopologicalSort()
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if n.Defined {
			ids = append(ids, n.ID)
		}
	}
	return ids, nil
}

// Roots returns the compiled ids no other compiled id resolves eagerly.
func (r *Result) Roots() []string {
	var ids []string
	for _, n := range r.graph.GetRoots() {
		ids = append(ids, n.ID)
	}
	return ids
}

// Dependents returns the ids whose accessors resolve id eagerly.
func (r *Result) Dependents(id string) []string {
	return r.graph.GetDependents(id)
}

// Requires returns every id resolved, directly or not, when id is resolved.
func (r *Result) Requires(id string) []string {
	return r.graph.GetTransitiveDependencies(id)
}

// Compiler turns a registry into the source of a container type that
// resolves the same ids without reflection.
type Compiler struct {
	cfg      Config
	logger   *zap.Logger
	fallback Fallback
	types    []reflect.Type
	provider keel.MetadataProvider
	resolver *keel.ArgumentResolver
	analyzer *reflection.Analyzer

	mu    sync.Mutex
	state State
}

// New creates a compiler for cfg.
func New(cfg Config, opts ...Option) (*Compiler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt.apply(&o)
		}
	}

	provider := keel.Providers(append([]keel.MetadataProvider{keel.StructTags{}}, o.providers...)...)
	return &Compiler{
		cfg:      cfg,
		logger:   o.logger,
		fallback: o.fallback,
		types:    o.types,
		provider: provider,
		resolver: keel.NewArgumentResolver(provider),
		analyzer: reflection.New(),
	}, nil
}

// Config returns the compiler's config.
func (c *Compiler) Config() Config {
	return c.cfg
}

// State returns the current phase.
func (c *Compiler) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Compiler) setState(s State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logger.Debug("compiler state", zap.Stringer("from", c.state), zap.Stringer("to", s))
	c.state = s
}

func (c *Compiler) begin() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Idle {
		return ErrCompilerBusy
	}
	c.state = Transforming
	return nil
}

// Compile generates the container source for reg. Every id of reg is
// compiled, along with the types zero configuration discovers on the way.
// Errors of all failing ids are combined; use multierr.Errors to list them.
func (c *Compiler) Compile(reg *keel.Registry) (*Result, error) {
	if err := c.begin(); err != nil {
		return nil, err
	}
	defer c.setState(Idle)

	if reg == nil {
		reg, _ = keel.NewRegistry()
	}
	s := c.newSession(reg)
	s.drain()
	s.checkReferences()
	g := s.checkCycles()
	if s.errs != nil {
		return nil, s.errs
	}

	c.setState(Assembling)
	src, err := s.assemble()
	if err != nil {
		return nil, err
	}

	c.setState(Emitted)
	entries := s.ordered()
	c.logger.Info("container compiled",
		zap.String("package", c.cfg.Package),
		zap.String("type", c.cfg.TypeName),
		zap.Int("entries", len(entries)),
		zap.Int("stubs", len(s.stubs)),
		zap.Int("roots", len(g.GetRoots())),
		zap.Int("bytes", len(src)),
	)
	return &Result{Source: src, Entries: entries, Stubs: s.stubs, graph: g}, nil
}

// session holds the state of one compilation.
type session struct {
	*Compiler

	reg        *keel.Registry
	discovered map[string]keel.Definition
	work       *worklist
	pkgs       *importSet
	names      map[string]bool
	methods    map[string]string
	entries    map[string]*Entry
	order      []string
	refs       []reference
	stubs      []string
	stubbed    map[string]bool
	errs       error

	unexported   string
	closures     map[uintptr]string
	closureDecls []closureDecl
}

// reference records an id required by another id's accessor.
type reference struct {
	owner  string
	target string
}

var _ keel.Lookup = (*session)(nil)

func (c *Compiler) newSession(reg *keel.Registry) *session {
	s := &session{
		Compiler:   c,
		reg:        reg,
		discovered: make(map[string]keel.Definition),
		work:       newWorklist(),
		pkgs:       newImportSet(c.cfg.PackagePath, "c", "v", "err", "ok", "id", "get"),
		names:      map[string]bool{"stack": true, "done": true, "Has": true, "Get": true},
		methods:    make(map[string]string),
		entries:    make(map[string]*Entry),
		stubbed:    make(map[string]bool),
		unexported: lowerFirst(c.cfg.TypeName),
		closures:   make(map[uintptr]string),
	}

	for id, def := range reg.All() {
		if err := def.Validate(); err != nil {
			s.errs = multierr.Append(s.errs, CompileError{ID: id, Cause: err})
			continue
		}
		s.work.push(id)
	}
	for _, t := range c.types {
		s.CanDiscover(t)
	}
	return s
}

// HasDefinition reports whether id is registered. It implements keel.Lookup.
func (s *session) HasDefinition(id string) bool {
	return s.reg.Has(id)
}

// CanDiscover reports whether t can be compiled without a definition and
// queues its discovered definition. It implements keel.Lookup.
func (s *session) CanDiscover(t reflect.Type) bool {
	if !s.cfg.ZeroConfig || t == nil {
		return false
	}
	id := keel.TypeID(t)
	if _, ok := s.discovered[id]; ok {
		return true
	}
	def, ok := keel.Discover(t, s.provider)
	if !ok {
		return false
	}
	s.discovered[id] = def
	s.work.push(id)
	s.logger.Debug("discovered", zap.String("id", id), zap.Stringer("kind", def.Kind()))
	return true
}

func (s *session) definition(id string) (keel.Definition, bool) {
	if def, ok := s.reg.Lookup(id); ok {
		return def, true
	}
	def, ok := s.discovered[id]
	return def, ok
}

// require records that owner resolves target. Unknown targets are reported
// once every id has been compiled, since discovery may still define them.
func (s *session) require(owner, target string) {
	s.refs = append(s.refs, reference{owner: owner, target: target})
}

// drain compiles queued ids until the worklist is empty.
func (s *session) drain() {
	for id, ok := s.work.pop(); ok; id, ok = s.work.pop() {
		def, _ := s.definition(id)
		entry, err := s.transform(id, def)
		if err != nil {
			s.fail(id, err)
			continue
		}
		s.put(entry)
		s.logger.Debug("compiled",
			zap.String("id", id),
			zap.Stringer("kind", def.Kind()),
			zap.String("method", entry.Method),
			zap.Bool("singleton", entry.Singleton),
			zap.Int("queued", s.work.len()),
		)
	}
}

func (s *session) put(e *Entry) {
	if _, ok := s.entries[e.ID]; !ok {
		s.order = append(s.order, e.ID)
	}
	e.Method = s.method(e.ID)
	s.entries[e.ID] = e
}

// fail records err for id, or replaces id with a stub when the error is
// one the invalid behavior policy covers.
func (s *session) fail(id string, err error) {
	if s.cfg.InvalidBehavior == InvalidStub && isInvalid(err) {
		if s.stubbed[id] {
			return
		}
		s.stubbed[id] = true
		s.put(s.stub(id, err))
		s.stubs = append(s.stubs, id)
		s.logger.Warn("compiled to stub", zap.String("id", id), zap.Error(err))
		return
	}
	s.errs = multierr.Append(s.errs, CompileError{ID: id, Cause: err})
}

func (s *session) stub(id string, cause error) *Entry {
	return &Entry{
		ID:         id,
		ReturnType: "any",
		Comment:    "Invalid: " + firstLine(cause.Error()),
		Statements: []string{
			fmt.Sprintf("err = %s.InvalidDefinition(%s, %s)", s.pkgs.add(keelPath), strconv.Quote(id), strconv.Quote(cause.Error())),
			"return v, err",
		},
	}
}

func (s *session) checkReferences() {
	for _, ref := range s.refs {
		if _, ok := s.definition(ref.target); ok {
			continue
		}
		s.fail(ref.owner, invalid(keel.NotFoundError{ID: ref.target}))
	}
}

// checkCycles builds the graph of eager dependencies and reports its cycles.
func (s *session) checkCycles() *graph.DependencyGraph {
	for _, cycle := range s.dependencyGraph().Cycles() {
		s.fail(cycle[0], invalid(keel.CircularDependencyError{Chain: cycle}))
	}
	return s.dependencyGraph()
}

func (s *session) dependencyGraph() *graph.DependencyGraph {
	g := graph.NewDependencyGraph()
	for _, e := range s.ordered() {
		kind := "Custom"
		if def, ok := s.definition(e.ID); ok {
			kind = def.Kind().String()
		}
		_ = g.AddNode(graph.NodeInfo{ID: e.ID, Kind: kind, Singleton: e.Singleton, Dependencies: e.Dependencies})
	}
	return g
}

func (s *session) ordered() []*Entry {
	entries := make([]*Entry, 0, len(s.order))
	for _, id := range s.order {
		entries = append(entries, s.entries[id])
	}
	return entries
}
