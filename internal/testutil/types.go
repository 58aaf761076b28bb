package testutil

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/junioryono/keel"
)

// Common test errors
var (
	ErrTest        = errors.New("test error")
	ErrConstructor = errors.New("constructor error")
	ErrNotDialed   = errors.New("mailer has no port")
)

// Logger is a test logger interface
type Logger interface {
	Log(msg string)
	Logs() []string
}

// MemoryLogger implements Logger
type MemoryLogger struct {
	Prefix string
	logs   []string
	mu     sync.Mutex
}

func NewLogger() *MemoryLogger {
	return &MemoryLogger{}
}

func NewLoggerWithPrefix(prefix string) *MemoryLogger {
	return &MemoryLogger{Prefix: prefix}
}

func (l *MemoryLogger) Log(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logs = append(l.logs, l.Prefix+msg)
}

func (l *MemoryLogger) Logs() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	result := make([]string, len(l.logs))
	copy(result, l.logs)
	return result
}

// Database depends on a literal and a service
type Database struct {
	DSN    string
	Logger Logger
}

func NewDatabase(dsn string, logger Logger) *Database {
	return &Database{DSN: dsn, Logger: logger}
}

func (d *Database) Query(sql string) string {
	return fmt.Sprintf("%s: %s", d.DSN, sql)
}

// Cache has no dependencies
type Cache struct {
	Size int
}

func NewCache() *Cache {
	return &Cache{Size: 64}
}

// Service is built by its constructor
type Service struct {
	ID       string
	Logger   Logger
	Database *Database
}

func NewService(logger Logger, db *Database) *Service {
	return &Service{
		ID:       uuid.NewString(),
		Logger:   logger,
		Database: db,
	}
}

// InjectedService is built by field injection
type InjectedService struct {
	Logger   Logger    `inject:"logger"`
	Database *Database `inject:""`
	Cache    *Cache    `inject:"" optional:"true"`
	Ignored  *Cache    `inject:"-"`
	Name     string
}

// ServiceParams is a parameter object
type ServiceParams struct {
	keel.In

	Logger   Logger `inject:"logger"`
	Database *Database
	Cache    *Cache        `optional:"true"`
	Timeout  time.Duration `default:"5s"`
	Retries  int           `default:"3"`
}

// ParamService is built from a parameter object
type ParamService struct {
	Params ServiceParams
}

func NewParamService(p ServiceParams) *ParamService {
	return &ParamService{Params: p}
}

// Counter is used to observe how often a definition is built
type Counter struct {
	ID string
}

func NewCounter() *Counter {
	return &Counter{ID: uuid.NewString()}
}

// Handler is the member type of tagged collections
type Handler interface {
	Name() string
}

// HighHandler has a static priority method returning 100
type HighHandler struct{}

func NewHighHandler() HighHandler { return HighHandler{} }

func (HighHandler) Name() string  { return "high" }
func (HighHandler) Priority() int { return 100 }
func (HighHandler) Key() string   { return "hi" }

// MidHandler has a static priority method taking the tag name
type MidHandler struct{}

func NewMidHandler() MidHandler { return MidHandler{} }

func (MidHandler) Name() string { return "mid" }

func (MidHandler) Priority(tag string) int {
	if tag == "handlers" {
		return 10
	}
	return 0
}

// LowHandler has no priority method
type LowHandler struct{}

func NewLowHandler() LowHandler { return LowHandler{} }

func (LowHandler) Name() string { return "low" }

// PointerHandler declares its priority method on the pointer receiver
type PointerHandler struct{}

func NewPointerHandler() *PointerHandler { return &PointerHandler{} }

func (*PointerHandler) Name() string  { return "pointer" }
func (*PointerHandler) Priority() int { return 1 }

// NamedHandler carries its name as data
type NamedHandler struct {
	Label string
}

func NewNamedHandler(label string) *NamedHandler {
	return &NamedHandler{Label: label}
}

func (h *NamedHandler) Name() string { return h.Label }

// Router receives an eager collection as a slice
type Router struct {
	Handlers []Handler
}

func NewRouter(handlers []Handler) *Router {
	return &Router{Handlers: handlers}
}

// Names returns the handler names in order.
func (r *Router) Names() []string {
	names := make([]string, len(r.Handlers))
	for i, h := range r.Handlers {
		names[i] = h.Name()
	}
	return names
}

// HandlerIndex receives a keyed collection as a map
type HandlerIndex struct {
	Handlers map[string]Handler
}

func NewHandlerIndex(handlers map[string]Handler) *HandlerIndex {
	return &HandlerIndex{Handlers: handlers}
}

// Dispatcher receives a lazy collection
type Dispatcher struct {
	Handlers *keel.LazyCollection
}

func NewDispatcher(handlers *keel.LazyCollection) *Dispatcher {
	return &Dispatcher{Handlers: handlers}
}

// PluginSet is built from variadic arguments
type PluginSet struct {
	Plugins []Handler
}

func NewPluginSet(plugins ...Handler) *PluginSet {
	return &PluginSet{Plugins: plugins}
}

// Greeting joins variadic strings
func Greeting(greeting string, names ...string) string {
	if len(names) == 0 {
		return greeting
	}
	return greeting + ", " + strings.Join(names, " and ")
}

// ServiceA and ServiceB depend on each other
type ServiceA struct {
	B *ServiceB
}

func NewServiceA(b *ServiceB) *ServiceA {
	return &ServiceA{B: b}
}

type ServiceB struct {
	A *ServiceA
}

func NewServiceB(a *ServiceA) *ServiceB {
	return &ServiceB{A: a}
}

// DeferredServiceB breaks the cycle with a proxy
type DeferredServiceB struct {
	A func() (*ServiceA, error)
}

func NewDeferredServiceB(a func() (*ServiceA, error)) *DeferredServiceB {
	return &DeferredServiceB{A: a}
}

// Mailer exercises setup calls
type Mailer struct {
	Host  string
	Port  int
	Calls []string
}

func NewMailer(host string) *Mailer {
	return &Mailer{Host: host}
}

func (m *Mailer) SetPort(port int) {
	m.Port = port
	m.Calls = append(m.Calls, "SetPort")
}

// Dial fails unless a port was set first.
func (m *Mailer) Dial() error {
	m.Calls = append(m.Calls, "Dial")
	if m.Port == 0 {
		return ErrNotDialed
	}
	return nil
}

// WithHost returns a copy of m with another host.
func (m Mailer) WithHost(host string) *Mailer {
	m.Host = host
	m.Calls = append(append([]string(nil), m.Calls...), "WithHost")
	return &m
}

// Client is produced by ClientFactory
type Client struct {
	Name   string
	Logger Logger
}

// ClientFactory produces clients
type ClientFactory struct {
	Logger Logger `inject:"logger"`
}

func (f *ClientFactory) Create(name string) *Client {
	return &Client{Name: name, Logger: f.Logger}
}

// Default is callable on the zero value.
func (ClientFactory) Default() *Client {
	return &Client{Name: "default"}
}

// Config is a plain value type
type Config struct {
	Name    string
	Port    int
	Debug   bool
	Tags    []string
	Limits  map[string]int
	Timeout time.Duration
}

// Notifier is resolved through a service hint
type Notifier interface {
	Notify(msg string) string
}

// EmailNotifier implements Notifier by field injection
type EmailNotifier struct {
	Logger Logger `inject:"logger"`
}

func (n *EmailNotifier) Notify(msg string) string {
	n.Logger.Log(msg)
	return "email: " + msg
}

// Panicking panics in its constructor
type Panicking struct{}

func NewPanicking() *Panicking {
	panic("boom")
}

// Failing returns an error from its constructor
type Failing struct{}

func NewFailing() (*Failing, error) {
	return nil, ErrConstructor
}

// NeedsMissing depends on a type nothing provides
type NeedsMissing struct{}

// Missing has no definition and cannot be discovered
type Missing interface {
	Missing()
}

func NewNeedsMissing(m Missing) *NeedsMissing {
	return &NeedsMissing{}
}

// Pair returns two results
func Pair() (string, int) {
	return "pair", 2
}

// Add sums its arguments
func Add(a, b int) int {
	return a + b
}
