package compiler

import (
	"reflect"

	"github.com/junioryono/keel"
	"go.uber.org/zap"
)

// Option configures a Compiler.
type Option interface {
	apply(*options)
}

// Fallback compiles a definition of a kind the compiler does not know. A nil
// entry declines the definition. The compiler fills in ID and Method.
type Fallback func(def keel.Definition) (*Entry, error)

type options struct {
	logger    *zap.Logger
	fallback  Fallback
	providers []keel.MetadataProvider
	types     []reflect.Type
}

func defaultOptions() options {
	return options{logger: zap.NewNop()}
}

type optionFunc func(*options)

func (f optionFunc) apply(o *options) {
	f(o)
}

// WithLogger sets the logger used for compilation diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return optionFunc(func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	})
}

// WithFallback sets the function offered definitions of unknown kinds when
// the config is not strict.
func WithFallback(fn Fallback) Option {
	return optionFunc(func(o *options) {
		o.fallback = fn
	})
}

// WithMetadata adds a metadata provider, consulted after struct tags. Use
// the providers the runtime container is configured with.
func WithMetadata(p keel.MetadataProvider) Option {
	return optionFunc(func(o *options) {
		if p != nil {
			o.providers = append(o.providers, p)
		}
	})
}

// WithTypes compiles the discovered definitions of types so the generated
// container resolves them by TypeID.
func WithTypes(types ...reflect.Type) Option {
	return optionFunc(func(o *options) {
		o.types = append(o.types, types...)
	})
}
